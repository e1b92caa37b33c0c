package types

// Composite score weights. They sum to 1.0.
const (
	WeightFile    = 0.30
	WeightMethod  = 0.20
	WeightFeature = 0.20
	WeightKeyword = 0.15
	WeightPurpose = 0.15
)

// ScoreBreakdown holds the five similarity components of a file and their
// weighted combination
type ScoreBreakdown struct {
	File      float64 `json:"file"`
	Method    float64 `json:"method"`
	Feature   float64 `json:"feature"`
	Keyword   float64 `json:"keyword"`
	Purpose   float64 `json:"purpose"`
	Composite float64 `json:"composite"`
}

// Combine computes the composite score from the components
func (s *ScoreBreakdown) Combine() float64 {
	s.Composite = WeightFile*s.File +
		WeightMethod*s.Method +
		WeightFeature*s.Feature +
		WeightKeyword*s.Keyword +
		WeightPurpose*s.Purpose
	return s.Composite
}

// Relationships lists the one-hop neighbours of a file
type Relationships struct {
	Imports      []string `json:"imports"`
	ImportedBy   []string `json:"imported_by"`
	References   []string `json:"references"`
	ReferencedBy []string `json:"referenced_by"`
}

// MethodView is the enriched view of a method handed to the answering model
type MethodView struct {
	Name            string     `json:"name"`
	Kind            MethodKind `json:"type"`
	StartLine       int        `json:"start_line"`
	EndLine         int        `json:"end_line"`
	Summary         string     `json:"summary"`
	DetailedSummary string     `json:"detailed_summary,omitempty"`
	Docstring       string     `json:"docstring,omitempty"`
	Body            string     `json:"body"`
}

// FileView is the enriched view of a file in a relevance result
type FileView struct {
	Path            string        `json:"path"`
	Language        Language      `json:"type"`
	Content         string        `json:"content"`
	Summary         string        `json:"summary"`
	DetailedSummary string        `json:"detailed_summary,omitempty"`
	Purpose         string        `json:"purpose"`
	IsEntryPoint    bool          `json:"is_entry_point"`
	IsCoreFile      bool          `json:"is_core_file"`
	Features        []string      `json:"features"`
	Keywords        []string      `json:"keywords"`
	Methods         []MethodView  `json:"methods"`
	Relationships   Relationships `json:"relationships"`
}

// RelevanceResult is the ordered, graph-expanded answer to a query
type RelevanceResult struct {
	Query    string                    `json:"query"`
	MaxFiles int                       `json:"max_files"`
	Paths    []string                  `json:"paths"`
	Seeds    []string                  `json:"seeds"`
	Scores   map[string]ScoreBreakdown `json:"scores"`
	Files    map[string]FileView       `json:"files"`
}
