package storage

import (
	"context"
	"time"
)

// Store persists the outcome of a graph build. The in-memory graph stays
// the source of truth; the store is a durable copy for inspection and for
// deciding which files changed since the last build.
type Store interface {
	// ReplaceIndex swaps every file, method and relationship row for the
	// given set in one transaction
	ReplaceIndex(ctx context.Context, files []File, methods []Method, relationships []Relationship) error

	// SaveStatus writes the single indexing status row
	SaveStatus(ctx context.Context, status *IndexStatus) error

	// LoadStatus reads the indexing status row
	LoadStatus(ctx context.Context) (*IndexStatus, error)

	// File queries
	GetFile(ctx context.Context, path string) (*File, error)
	ListFiles(ctx context.Context) ([]File, error)
	ListMethods(ctx context.Context, path string) ([]Method, error)
	ListRelationships(ctx context.Context, path string) ([]Relationship, error)
	NeedsReindex(ctx context.Context, path, contentHash string) (bool, error)

	// Stats returns row counts and database size
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// File is one indexed file
type File struct {
	Path            string
	Language        string
	ContentHash     string
	Summary         string
	DetailedSummary string
	Purpose         string
	IsEntryPoint    bool
	IsCoreFile      bool
	IndexedAt       time.Time
}

// Method is one function, class or method of a file
type Method struct {
	FilePath        string
	Name            string
	Kind            string
	StartLine       int
	EndLine         int
	Summary         string
	DetailedSummary string
}

// Relationship is a directed edge between two indexed files
type Relationship struct {
	Source string
	Target string
	Kind   string
}

// FailedFile records why a file was left out of the graph
type FailedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// IndexStatus is the persisted progress of the latest build
type IndexStatus struct {
	Root           string
	Generation     string
	TotalFiles     int
	ProcessedFiles int
	FailedFiles    int
	SuccessRate    float64
	Languages      map[string]int
	FailedDetails  []FailedFile
	IsComplete     bool
	IsLoading      bool
	StartedAt      time.Time
	FinishedAt     time.Time
	UpdatedAt      time.Time
}

// Stats contains row counts for the persisted index
type Stats struct {
	Files         int
	Methods       int
	Relationships int
	SizeMB        float64
}
