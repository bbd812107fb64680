package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"baseline/internal/shared/util"
)

const (
	driverName     = "sqlite"
	maxAttempts    = 5
	defaultProject = "default"
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open creates or migrates the history database at path. busyTimeout of
// zero keeps the driver default of two seconds.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}
	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores run with its diagnostics in one transaction and returns
// the run id, generated when run.ID is empty.
func (s *Store) SaveRun(ctx context.Context, run Run, records []Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.Project = projectKey(run.Project)
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.SchemaVersion == 0 {
		run.SchemaVersion = SchemaVersion
	}
	if run.SchemaVersion != SchemaVersion {
		return "", fmt.Errorf("unsupported run schema version %d", run.SchemaVersion)
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (
  id, project_key, schema_version, started_at_utc, duration_ms, as_of, support,
  file_count, parse_error_count, diagnostic_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.Project,
			run.SchemaVersion,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.Duration.Milliseconds(),
			run.AsOf,
			run.Support,
			run.FileCount,
			run.ParseErrorCount,
			run.DiagnosticCount,
		); err != nil {
			return err
		}

		for _, rule := range util.SortedStringKeys(run.RuleCounts) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_rules (run_id, rule_id, diagnostic_count) VALUES (?, ?, ?)`,
				run.ID, rule, run.RuleCounts[rule],
			); err != nil {
				return err
			}
		}

		if len(records) > 0 {
			stmt, err := tx.PrepareContext(ctx, `
INSERT INTO diagnostics (run_id, rule_id, feature_id, path, line, col, message)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
			if err != nil {
				return err
			}
			defer stmt.Close()
			for _, r := range records {
				if _, err := stmt.ExecContext(ctx, run.ID, r.RuleID, r.FeatureID, r.Path, r.Line, r.Column, r.Message); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// LoadRuns returns up to limit runs of project, newest first. limit <= 0
// returns every run.
func (s *Store) LoadRuns(ctx context.Context, project string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT id, project_key, schema_version, started_at_utc, duration_ms, as_of, support,
  file_count, parse_error_count, diagnostic_count
FROM runs
WHERE project_key = ?
ORDER BY started_at_utc DESC, id ASC`
	args := []any{projectKey(project)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			startedRaw string
			durationMS int64
			run        Run
		)
		if err := rows.Scan(
			&run.ID,
			&run.Project,
			&run.SchemaVersion,
			&startedRaw,
			&durationMS,
			&run.AsOf,
			&run.Support,
			&run.FileCount,
			&run.ParseErrorCount,
			&run.DiagnosticCount,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		started, err := time.Parse(time.RFC3339Nano, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", startedRaw, err)
		}
		run.StartedAt = started.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		index[run.ID] = len(runs)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	rows.Close()

	if len(runs) == 0 {
		return runs, nil
	}
	if err := s.loadRuleCounts(ctx, runs, index); err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) loadRuleCounts(ctx context.Context, runs []Run, index map[string]int) error {
	placeholders := make([]string, len(runs))
	args := make([]any, len(runs))
	for i, r := range runs {
		placeholders[i] = "?"
		args[i] = r.ID
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, rule_id, diagnostic_count FROM run_rules WHERE run_id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("load rule counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var runID, ruleID string
		var count int
		if err := rows.Scan(&runID, &ruleID, &count); err != nil {
			return fmt.Errorf("scan rule count row: %w", err)
		}
		run := &runs[index[runID]]
		if run.RuleCounts == nil {
			run.RuleCounts = make(map[string]int)
		}
		run.RuleCounts[ruleID] = count
	}
	return rows.Err()
}

// LoadRecords returns the diagnostics stored for runID in source order.
func (s *Store) LoadRecords(ctx context.Context, runID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load records", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT run_id, rule_id, feature_id, path, line, col, message
FROM diagnostics
WHERE run_id = ?
ORDER BY path ASC, line ASC, col ASC, rule_id ASC`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.RunID, &r.RuleID, &r.FeatureID, &r.Path, &r.Line, &r.Column, &r.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostic rows: %w", err)
	}
	return out, nil
}

// Prune keeps the newest keep runs of project and deletes the rest.
func (s *Store) Prune(ctx context.Context, project string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	err := s.withRetry("prune runs", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM runs
WHERE project_key = ?
  AND id NOT IN (
    SELECT id FROM runs WHERE project_key = ?
    ORDER BY started_at_utc DESC, id ASC LIMIT ?
  )`, projectKey(project), projectKey(project), keep)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

func projectKey(project string) string {
	project = strings.TrimSpace(project)
	if project == "" {
		return defaultProject
	}
	return project
}
