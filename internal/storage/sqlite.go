package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

const timeLayout = time.RFC3339Nano

// SQLiteStorage implements Store using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

var _ Store = (*SQLiteStorage)(nil)

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite has a single writer; one connection also keeps :memory: databases
	// alive across calls
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage opens dbPath and applies pending migrations
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ReplaceIndex deletes the previous index and writes the new one. Either
// all rows land or none do.
func (s *SQLiteStorage) ReplaceIndex(ctx context.Context, files []File, methods []Method, relationships []Relationship) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM relationships", "DELETE FROM methods", "DELETE FROM files"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	}

	if err := insertFiles(ctx, tx, files); err != nil {
		return err
	}
	if err := insertMethods(ctx, tx, methods); err != nil {
		return err
	}
	if err := insertRelationships(ctx, tx, relationships); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}
	return nil
}

func insertFiles(ctx context.Context, q querier, files []File) error {
	query := `
		INSERT INTO files (file_path, language, file_hash, summary, detailed_summary, purpose,
			is_entry_point, is_core_file, last_indexed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	for _, f := range files {
		indexed := f.IndexedAt
		if indexed.IsZero() {
			indexed = now
		}
		_, err := q.ExecContext(ctx, query,
			f.Path, f.Language, f.ContentHash, f.Summary, f.DetailedSummary, f.Purpose,
			f.IsEntryPoint, f.IsCoreFile, indexed.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.Path, err)
		}
	}
	return nil
}

func insertMethods(ctx context.Context, q querier, methods []Method) error {
	query := `
		INSERT INTO methods (file_path, method_name, method_type, start_line, end_line, summary, detailed_summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, m := range methods {
		_, err := q.ExecContext(ctx, query,
			m.FilePath, m.Name, m.Kind, m.StartLine, m.EndLine, m.Summary, m.DetailedSummary)
		if err != nil {
			return fmt.Errorf("failed to insert method %s in %s: %w", m.Name, m.FilePath, err)
		}
	}
	return nil
}

func insertRelationships(ctx context.Context, q querier, relationships []Relationship) error {
	query := `
		INSERT OR IGNORE INTO relationships (source_file, target_file, relationship_type)
		VALUES (?, ?, ?)
	`
	for _, r := range relationships {
		if _, err := q.ExecContext(ctx, query, r.Source, r.Target, r.Kind); err != nil {
			return fmt.Errorf("failed to insert relationship %s -> %s: %w", r.Source, r.Target, err)
		}
	}
	return nil
}

// SaveStatus upserts the single status row
func (s *SQLiteStorage) SaveStatus(ctx context.Context, status *IndexStatus) error {
	languages, err := json.Marshal(status.Languages)
	if err != nil {
		return fmt.Errorf("failed to encode languages: %w", err)
	}
	failed, err := json.Marshal(status.FailedDetails)
	if err != nil {
		return fmt.Errorf("failed to encode failed files: %w", err)
	}

	updated := status.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	query := `
		INSERT OR REPLACE INTO indexing_status (id, total_files, processed_files, failed_files, success_rate,
			languages, failed_files_details, is_complete, is_loading, repo_root, generation,
			started_at, finished_at, last_updated)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		status.TotalFiles, status.ProcessedFiles, status.FailedFiles, status.SuccessRate,
		string(languages), string(failed), status.IsComplete, status.IsLoading, status.Root,
		status.Generation, formatTime(status.StartedAt), formatTime(status.FinishedAt),
		formatTime(updated))
	if err != nil {
		return fmt.Errorf("failed to save indexing status: %w", err)
	}
	return nil
}

// LoadStatus returns ErrNotFound before the first SaveStatus
func (s *SQLiteStorage) LoadStatus(ctx context.Context) (*IndexStatus, error) {
	query := `
		SELECT total_files, processed_files, failed_files, success_rate, languages, failed_files_details,
			is_complete, is_loading, repo_root, generation, started_at, finished_at, last_updated
		FROM indexing_status WHERE id = 1
	`
	var (
		status                        IndexStatus
		languages, failed, root, gen  sql.NullString
		started, finished, lastUpdate sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query).Scan(
		&status.TotalFiles, &status.ProcessedFiles, &status.FailedFiles, &status.SuccessRate,
		&languages, &failed, &status.IsComplete, &status.IsLoading, &root, &gen,
		&started, &finished, &lastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load indexing status: %w", err)
	}

	status.Root = root.String
	status.Generation = gen.String
	status.StartedAt = parseTime(started)
	status.FinishedAt = parseTime(finished)
	status.UpdatedAt = parseTime(lastUpdate)

	if languages.Valid && languages.String != "" {
		if err := json.Unmarshal([]byte(languages.String), &status.Languages); err != nil {
			return nil, fmt.Errorf("failed to decode languages: %w", err)
		}
	}
	if failed.Valid && failed.String != "" {
		if err := json.Unmarshal([]byte(failed.String), &status.FailedDetails); err != nil {
			return nil, fmt.Errorf("failed to decode failed files: %w", err)
		}
	}

	return &status, nil
}

const fileColumns = `file_path, language, file_hash, summary, detailed_summary, purpose,
	is_entry_point, is_core_file, last_indexed`

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*File, error) {
	var (
		f                               File
		summary, detail, purpose, stamp sql.NullString
	)
	if err := row.Scan(&f.Path, &f.Language, &f.ContentHash, &summary, &detail, &purpose,
		&f.IsEntryPoint, &f.IsCoreFile, &stamp); err != nil {
		return nil, err
	}
	f.Summary = summary.String
	f.DetailedSummary = detail.String
	f.Purpose = purpose.String
	f.IndexedAt = parseTime(stamp)
	return &f, nil
}

// GetFile retrieves a file by path
func (s *SQLiteStorage) GetFile(ctx context.Context, path string) (*File, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM files WHERE file_path = ?", path)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

// ListFiles returns every indexed file ordered by path
func (s *SQLiteStorage) ListFiles(ctx context.Context) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+fileColumns+" FROM files ORDER BY file_path")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// ListMethods returns the methods of path in source order
func (s *SQLiteStorage) ListMethods(ctx context.Context, path string) ([]Method, error) {
	query := `
		SELECT file_path, method_name, method_type, start_line, end_line, summary, detailed_summary
		FROM methods WHERE file_path = ? ORDER BY start_line, id
	`
	rows, err := s.db.QueryContext(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list methods: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var methods []Method
	for rows.Next() {
		var (
			m               Method
			summary, detail sql.NullString
		)
		if err := rows.Scan(&m.FilePath, &m.Name, &m.Kind, &m.StartLine, &m.EndLine, &summary, &detail); err != nil {
			return nil, err
		}
		m.Summary = summary.String
		m.DetailedSummary = detail.String
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// ListRelationships returns edges where path is either endpoint
func (s *SQLiteStorage) ListRelationships(ctx context.Context, path string) ([]Relationship, error) {
	query := `
		SELECT source_file, target_file, relationship_type
		FROM relationships WHERE source_file = ? OR target_file = ?
		ORDER BY source_file, target_file
	`
	rows, err := s.db.QueryContext(ctx, query, path, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rels []Relationship
	for rows.Next() {
		var r Relationship
		if err := rows.Scan(&r.Source, &r.Target, &r.Kind); err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// NeedsReindex reports whether path is unknown or its stored hash differs
func (s *SQLiteStorage) NeedsReindex(ctx context.Context, path, contentHash string) (bool, error) {
	var stored string
	err := s.db.QueryRowContext(ctx, "SELECT file_hash FROM files WHERE file_path = ?", path).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check file hash: %w", err)
	}
	return stored != contentHash, nil
}

// Stats returns row counts and the database size
func (s *SQLiteStorage) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	query := `
		SELECT
			(SELECT COUNT(*) FROM files),
			(SELECT COUNT(*) FROM methods),
			(SELECT COUNT(*) FROM relationships)
	`
	if err := s.db.QueryRowContext(ctx, query).Scan(&stats.Files, &stats.Methods, &stats.Relationships); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("failed to read page count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("failed to read page size: %w", err)
	}
	stats.SizeMB = float64(pageCount*pageSize) / (1024 * 1024)

	return &stats, nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// parseTime accepts RFC 3339 and the layout the cgo driver writes
func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	for _, layout := range []string{timeLayout, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s.String); err == nil {
			return t
		}
	}
	return time.Time{}
}
