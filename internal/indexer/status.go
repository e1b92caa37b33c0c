package indexer

import (
	"maps"
	"slices"
	"time"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

// FailedFile records a file left out of the graph and why
type FailedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Status is a snapshot of the latest build
type Status struct {
	Root           string                 `json:"root"`
	Generation     string                 `json:"generation,omitempty"`
	TotalFiles     int                    `json:"total_files"`
	ProcessedFiles int                    `json:"processed_files"`
	FailedFiles    int                    `json:"failed_files"`
	SkippedFiles   int                    `json:"skipped_files"`
	ChangedFiles   int                    `json:"changed_files"`
	Languages      map[types.Language]int `json:"languages"`
	FailedDetails  []FailedFile           `json:"failed_files_details"`
	IsComplete     bool                   `json:"is_complete"`
	IsLoading      bool                   `json:"is_loading"`
	StartedAt      time.Time              `json:"started_at"`
	FinishedAt     time.Time              `json:"finished_at,omitzero"`
	Error          string                 `json:"error,omitempty"`
	PersistError   string                 `json:"persist_error,omitempty"`
}

// SuccessRate is the percentage of files that made it into the graph
func (s *Status) SuccessRate() float64 {
	if s.TotalFiles == 0 {
		return 0
	}
	return float64(s.ProcessedFiles) / float64(s.TotalFiles) * 100
}

func (s *Status) clone() Status {
	c := *s
	c.Languages = maps.Clone(s.Languages)
	c.FailedDetails = slices.Clone(s.FailedDetails)
	return c
}

// publishLocked sends the current status to every subscriber. A subscriber
// that has not drained its previous snapshot gets the newer one instead.
// Caller holds idx.mu.
func (idx *Indexer) publishLocked() {
	for _, ch := range idx.subscribers {
		snap := idx.status.clone()
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Status returns a snapshot of the latest build
func (idx *Indexer) Status() Status {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.status.clone()
}

// Subscribe returns a channel receiving a status snapshot after every change,
// starting with the current one. Call the returned function to stop.
func (idx *Indexer) Subscribe() (<-chan Status, func()) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	ch := make(chan Status, 1)
	if idx.closed {
		close(ch)
		return ch, func() {}
	}

	id := idx.nextSub
	idx.nextSub++
	idx.subscribers[id] = ch
	ch <- idx.status.clone()

	return ch, func() {
		idx.mu.Lock()
		defer idx.mu.Unlock()
		if sub, ok := idx.subscribers[id]; ok {
			delete(idx.subscribers, id)
			close(sub)
		}
	}
}
