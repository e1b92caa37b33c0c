package types

import (
	"errors"
	"fmt"
)

// Error kinds shared by the indexer and the ranker
var (
	// Per-file errors (non-fatal to a build)
	ErrFileRead            = errors.New("file could not be read")
	ErrBinaryFile          = errors.New("binary file")
	ErrFileTooLarge        = errors.New("file exceeds size limit")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrDuplicatePath       = errors.New("duplicate path")
	ErrExtractionFailed    = errors.New("feature extraction failed")

	// Query errors
	ErrNotIndexed        = errors.New("codebase not indexed")
	ErrFileNotFound      = errors.New("file not found in index")
	ErrEmbeddingProvider = errors.New("embedding provider failed")
	ErrEmptyQuery        = errors.New("query cannot be empty")

	// Build lifecycle
	ErrBuildSuperseded = errors.New("build superseded by a newer build")
)

// FileError records why a single file was skipped during a build
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// NewFileError wraps err for path
func NewFileError(path string, err error) *FileError {
	return &FileError{Path: path, Err: err}
}
