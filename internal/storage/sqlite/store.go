package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dupscan/internal/storage"

	_ "modernc.org/sqlite"
)

// Store persists finished scans inside a SQLite database.
type Store struct {
	db *sql.DB
}

// Open initializes (or reuses) a SQLite database at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path cannot be empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS scan_runs (
        id TEXT PRIMARY KEY,
        root_path TEXT NOT NULL,
        started_at INTEGER NOT NULL,
        finished_at INTEGER NOT NULL,
        duplicate_sets INTEGER NOT NULL,
        redundant_copies INTEGER NOT NULL,
        reclaimable_bytes INTEGER NOT NULL,
        files_scanned INTEGER NOT NULL,
        files_hashed INTEGER NOT NULL,
        bytes_hashed INTEGER NOT NULL,
        warnings INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS duplicate_groups (
        run_id TEXT NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
        position INTEGER NOT NULL,
        digest TEXT NOT NULL,
        size INTEGER NOT NULL,
        PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS group_members (
        run_id TEXT NOT NULL,
        group_position INTEGER NOT NULL,
        position INTEGER NOT NULL,
        path TEXT NOT NULL,
        PRIMARY KEY (run_id, group_position, position),
        FOREIGN KEY (run_id, group_position) REFERENCES duplicate_groups(run_id, position) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS scan_warnings (
        run_id TEXT NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
        position INTEGER NOT NULL,
        path TEXT NOT NULL,
        op TEXT NOT NULL,
        message TEXT NOT NULL,
        PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_started ON scan_runs(started_at);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// SaveRun stores a run with its groups and warnings in one transaction.
func (s *Store) SaveRun(ctx context.Context, detail storage.RunDetail) (err error) {
	run := detail.Run
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
INSERT INTO scan_runs(id, root_path, started_at, finished_at, duplicate_sets, redundant_copies,
        reclaimable_bytes, files_scanned, files_hashed, bytes_hashed, warnings)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID, run.Root, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(), run.DuplicateSets,
		run.RedundantCopies, run.ReclaimableBytes, run.FilesScanned, run.FilesHashed,
		run.BytesHashed, run.Warnings); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for i, group := range detail.Groups {
		if _, err = tx.ExecContext(ctx, `
INSERT INTO duplicate_groups(run_id, position, digest, size) VALUES(?, ?, ?, ?)
`, run.ID, i, group.Digest, group.Size); err != nil {
			return fmt.Errorf("insert group %s: %w", group.Digest, err)
		}
		for j, path := range group.Paths {
			if _, err = tx.ExecContext(ctx, `
INSERT INTO group_members(run_id, group_position, position, path) VALUES(?, ?, ?, ?)
`, run.ID, i, j, path); err != nil {
				return fmt.Errorf("insert member %s: %w", path, err)
			}
		}
	}

	for i, warning := range detail.Warnings {
		if _, err = tx.ExecContext(ctx, `
INSERT INTO scan_warnings(run_id, position, path, op, message) VALUES(?, ?, ?, ?, ?)
`, run.ID, i, warning.Path, warning.Op, warning.Error); err != nil {
			return fmt.Errorf("insert warning %s: %w", warning.Path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, root_path, started_at, finished_at, duplicate_sets, redundant_copies,
        reclaimable_bytes, files_scanned, files_hashed, bytes_hashed, warnings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (storage.Run, error) {
	var (
		run      storage.Run
		started  int64
		finished int64
	)
	if err := row.Scan(&run.ID, &run.Root, &started, &finished, &run.DuplicateSets,
		&run.RedundantCopies, &run.ReclaimableBytes, &run.FilesScanned, &run.FilesHashed,
		&run.BytesHashed, &run.Warnings); err != nil {
		return storage.Run{}, err
	}
	run.StartedAt = time.Unix(0, started)
	run.FinishedAt = time.Unix(0, finished)
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]storage.Run, error) {
	query := `SELECT ` + runColumns + ` FROM scan_runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []storage.Run
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan run: %w", scanErr)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// ResolveRunID expands a unique ID prefix to the full run ID.
func (s *Store) ResolveRunID(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", storage.ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM scan_runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("query run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate run ids: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", storage.ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", storage.ErrAmbiguousRunID, prefix)
	}
}

// LoadRun retrieves a run with its groups and warnings.
func (s *Store) LoadRun(ctx context.Context, id string) (storage.RunDetail, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM scan_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.RunDetail{}, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}
	if err != nil {
		return storage.RunDetail{}, fmt.Errorf("query run %s: %w", id, err)
	}

	detail := storage.RunDetail{Run: run}
	if detail.Groups, err = s.loadGroups(ctx, id); err != nil {
		return storage.RunDetail{}, err
	}
	if detail.Warnings, err = s.loadWarnings(ctx, id); err != nil {
		return storage.RunDetail{}, err
	}
	return detail, nil
}

func (s *Store) loadGroups(ctx context.Context, id string) ([]storage.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT g.position, g.digest, g.size, m.path
FROM duplicate_groups g
JOIN group_members m ON m.run_id = g.run_id AND m.group_position = g.position
WHERE g.run_id = ?
ORDER BY g.position, m.position
`, id)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var groups []storage.Group
	last := -1
	for rows.Next() {
		var (
			position int
			digest   string
			size     int64
			path     string
		)
		if err := rows.Scan(&position, &digest, &size, &path); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		if position != last {
			groups = append(groups, storage.Group{Digest: digest, Size: size})
			last = position
		}
		current := &groups[len(groups)-1]
		current.Paths = append(current.Paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

func (s *Store) loadWarnings(ctx context.Context, id string) ([]storage.Warning, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT path, op, message FROM scan_warnings WHERE run_id = ? ORDER BY position
`, id)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	var warnings []storage.Warning
	for rows.Next() {
		var warning storage.Warning
		if err := rows.Scan(&warning.Path, &warning.Op, &warning.Error); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		warnings = append(warnings, warning)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warnings: %w", err)
	}
	return warnings, nil
}

// DeleteRun removes a run and everything recorded for it.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scan_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}
	return nil
}
