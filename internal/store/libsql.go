package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/voltlint/voltlint/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Reports ---

func (s *LibSQLStore) AppendReport(ctx context.Context, report *Report) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, diagram_id, diagram_hash, score, compliant, error_count, warning_count, info_count, violations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.DiagramID, report.DiagramHash, report.Score, boolInt(report.Compliant),
		report.ErrorCount, report.WarningCount, report.InfoCount,
		nullRaw(report.Violations), timeOrNow(report.CreatedAt),
	)
	return err
}

func (s *LibSQLStore) GetReport(ctx context.Context, id string) (*Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, diagram_id, diagram_hash, score, compliant, error_count, warning_count, info_count, violations, created_at
		 FROM reports WHERE id = ?`, id)
	report, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("report", id)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *LibSQLStore) LatestReport(ctx context.Context, diagramID string) (*Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, diagram_id, diagram_hash, score, compliant, error_count, warning_count, info_count, violations, created_at
		 FROM reports WHERE diagram_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, diagramID)
	report, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("report", diagramID)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *LibSQLStore) ListReports(ctx context.Context, filter ReportFilter) ([]*Report, error) {
	var where []string
	var args []any

	if filter.DiagramID != "" {
		where = append(where, "diagram_id = ?")
		args = append(args, filter.DiagramID)
	}
	if filter.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *filter.Since)
	}

	query := `SELECT id, diagram_id, diagram_hash, score, compliant, error_count, warning_count, info_count, violations, created_at FROM reports`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// --- Sweep Jobs ---

func (s *LibSQLStore) CreateSweepJob(ctx context.Context, job *SweepJob) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sweep_jobs (id, name, cron_expr, diagram_id, document, enabled, last_run_at, next_run_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Name, job.CronExpr, job.DiagramID, string(job.Document), boolInt(job.Enabled),
		nullTime(job.LastRunAt), nullTime(job.NextRunAt),
		timeOrNow(job.CreatedAt), timeOrNow(job.UpdatedAt),
	)
	return err
}

func (s *LibSQLStore) GetSweepJob(ctx context.Context, id string) (*SweepJob, error) {
	job := &SweepJob{}
	var (
		document         string
		enabled          int
		lastRun, nextRun sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, cron_expr, diagram_id, document, enabled, last_run_at, next_run_at, created_at, updated_at
		 FROM sweep_jobs WHERE id = ?`, id,
	).Scan(&job.ID, &job.Name, &job.CronExpr, &job.DiagramID, &document, &enabled,
		&lastRun, &nextRun, &job.CreatedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("sweep job", id)
	}
	if err != nil {
		return nil, err
	}
	job.Document = []byte(document)
	job.Enabled = enabled != 0
	if lastRun.Valid {
		job.LastRunAt = &lastRun.Time
	}
	if nextRun.Valid {
		job.NextRunAt = &nextRun.Time
	}
	return job, nil
}

func (s *LibSQLStore) UpdateSweepJob(ctx context.Context, id string, update SweepJobUpdate) error {
	var sets []string
	var args []any

	if update.CronExpr != nil {
		sets = append(sets, "cron_expr = ?")
		args = append(args, *update.CronExpr)
	}
	if update.Enabled != nil {
		sets = append(sets, "enabled = ?")
		args = append(args, boolInt(*update.Enabled))
	}
	if update.LastRunAt != nil {
		sets = append(sets, "last_run_at = ?")
		args = append(args, *update.LastRunAt)
	}
	if update.NextRunAt != nil {
		sets = append(sets, "next_run_at = ?")
		args = append(args, *update.NextRunAt)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE sweep_jobs SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "sweep job", id)
}

func (s *LibSQLStore) ListSweepJobs(ctx context.Context, filter SweepJobFilter) ([]*SweepJob, error) {
	var where []string
	var args []any

	if filter.Enabled != nil {
		where = append(where, "enabled = ?")
		args = append(args, boolInt(*filter.Enabled))
	}
	if filter.DiagramID != "" {
		where = append(where, "diagram_id = ?")
		args = append(args, filter.DiagramID)
	}

	query := `SELECT id, name, cron_expr, diagram_id, document, enabled, last_run_at, next_run_at, created_at, updated_at FROM sweep_jobs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*SweepJob
	for rows.Next() {
		job := &SweepJob{}
		var (
			document         string
			enabled          int
			lastRun, nextRun sql.NullTime
		)
		if err := rows.Scan(&job.ID, &job.Name, &job.CronExpr, &job.DiagramID, &document, &enabled,
			&lastRun, &nextRun, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		job.Document = []byte(document)
		job.Enabled = enabled != 0
		if lastRun.Valid {
			job.LastRunAt = &lastRun.Time
		}
		if nextRun.Valid {
			job.NextRunAt = &nextRun.Time
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *LibSQLStore) DeleteSweepJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sweep_jobs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "sweep job", id)
}

// --- Helpers ---

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*Report, error) {
	report := &Report{}
	var (
		compliant  int
		violations sql.NullString
	)
	err := row.Scan(&report.ID, &report.DiagramID, &report.DiagramHash, &report.Score, &compliant,
		&report.ErrorCount, &report.WarningCount, &report.InfoCount, &violations, &report.CreatedAt)
	if err != nil {
		return nil, err
	}
	report.Compliant = compliant != 0
	report.Violations = rawOrNil(violations)
	return report, nil
}

func storeNotFound(resource, id string) *schema.EngineError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s not found: %s", resource, id)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullRaw(r []byte) any {
	if len(r) == 0 {
		return nil
	}
	return string(r)
}

func rawOrNil(ns sql.NullString) []byte {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return []byte(ns.String)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
