package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltlint/voltlint/pkg/schema"
)

func newTestStore(t *testing.T) *LibSQLStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewLibSQLStore("file:" + dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedReport(t *testing.T, s *LibSQLStore, diagramID string, createdAt time.Time) *Report {
	t.Helper()
	r := &Report{
		ID:          uuid.NewString(),
		DiagramID:   diagramID,
		DiagramHash: "hash-" + diagramID,
		Score:       80,
		Compliant:   false,
		ErrorCount:  1,
		Violations:  json.RawMessage(`{"system":[{"code":"MISSING_SERVICE_DISCONNECT"}]}`),
		CreatedAt:   createdAt,
	}
	require.NoError(t, s.AppendReport(context.Background(), r))
	return r
}

// --- Reports ---

func TestAppendAndGetReport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := seedReport(t, s, "d-1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, "d-1", got.DiagramID)
	assert.Equal(t, "hash-d-1", got.DiagramHash)
	assert.Equal(t, 80, got.Score)
	assert.False(t, got.Compliant)
	assert.Equal(t, 1, got.ErrorCount)
	assert.JSONEq(t, string(r.Violations), string(got.Violations))
}

func TestGetReport_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetReport(context.Background(), "nonexistent")
	require.Error(t, err)
	var ee *schema.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, schema.ErrCodeNotFound, ee.Code)
}

func TestLatestReport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedReport(t, s, "d-1", base)
	newest := seedReport(t, s, "d-1", base.Add(time.Hour))
	seedReport(t, s, "d-2", base.Add(2*time.Hour))

	got, err := s.LatestReport(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, newest.ID, got.ID)

	_, err = s.LatestReport(ctx, "d-9")
	require.Error(t, err)
}

func TestListReports_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedReport(t, s, "d-1", base)
	seedReport(t, s, "d-1", base.Add(time.Hour))
	seedReport(t, s, "d-2", base.Add(2*time.Hour))

	all, err := s.ListReports(ctx, ReportFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt), "newest first")

	byDiagram, err := s.ListReports(ctx, ReportFilter{DiagramID: "d-1"})
	require.NoError(t, err)
	assert.Len(t, byDiagram, 2)

	since := base.Add(30 * time.Minute)
	recent, err := s.ListReports(ctx, ReportFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	limited, err := s.ListReports(ctx, ReportFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "d-2", limited[0].DiagramID)
}

func TestNewReport(t *testing.T) {
	result := &schema.ComplianceResult{
		Compliant:    false,
		Score:        75,
		ErrorCount:   1,
		WarningCount: 1,
		ByComponent: map[string][]schema.Violation{
			"panel-1": {{Code: schema.CodeUnlabeledComponent, Severity: schema.SeverityWarning}},
		},
		System:      []schema.Violation{{Code: schema.CodeMissingDisconnect, Severity: schema.SeverityError}},
		EvaluatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	r, err := NewReport("d-1", "abc123", result)
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "d-1", r.DiagramID)
	assert.Equal(t, "abc123", r.DiagramHash)
	assert.Equal(t, 75, r.Score)
	assert.Equal(t, result.EvaluatedAt, r.CreatedAt)

	var payload violationsPayload
	require.NoError(t, json.Unmarshal(r.Violations, &payload))
	assert.Len(t, payload.ByComponent["panel-1"], 1)
	assert.Len(t, payload.System, 1)
}

// --- Sweep Jobs ---

func seedSweepJob(t *testing.T, s *LibSQLStore, name string, enabled bool) *SweepJob {
	t.Helper()
	job := &SweepJob{
		ID:        uuid.NewString(),
		Name:      name,
		CronExpr:  "0 * * * *",
		DiagramID: "d-1",
		Document:  json.RawMessage(`{"components":[],"connections":[]}`),
		Enabled:   enabled,
	}
	require.NoError(t, s.CreateSweepJob(context.Background(), job))
	return job
}

func TestCreateAndGetSweepJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := seedSweepJob(t, s, "hourly", true)

	got, err := s.GetSweepJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "hourly", got.Name)
	assert.Equal(t, "0 * * * *", got.CronExpr)
	assert.True(t, got.Enabled)
	assert.Nil(t, got.LastRunAt)
	assert.JSONEq(t, string(job.Document), string(got.Document))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetSweepJob_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSweepJob(context.Background(), "nonexistent")
	require.Error(t, err)
	var ee *schema.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, schema.ErrCodeNotFound, ee.Code)
}

func TestUpdateSweepJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job := seedSweepJob(t, s, "hourly", true)

	lastRun := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	nextRun := lastRun.Add(time.Hour)
	disabled := false
	require.NoError(t, s.UpdateSweepJob(ctx, job.ID, SweepJobUpdate{
		Enabled:   &disabled,
		LastRunAt: &lastRun,
		NextRunAt: &nextRun,
	}))

	got, err := s.GetSweepJob(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	require.NotNil(t, got.LastRunAt)
	assert.Equal(t, lastRun.Unix(), got.LastRunAt.Unix())
	require.NotNil(t, got.NextRunAt)
	assert.Equal(t, nextRun.Unix(), got.NextRunAt.Unix())
}

func TestUpdateSweepJob_NoFieldsIsNoOp(t *testing.T) {
	s := newTestStore(t)
	job := seedSweepJob(t, s, "hourly", true)

	require.NoError(t, s.UpdateSweepJob(context.Background(), job.ID, SweepJobUpdate{}))
}

func TestUpdateSweepJob_NotFound(t *testing.T) {
	s := newTestStore(t)

	enabled := true
	err := s.UpdateSweepJob(context.Background(), "nonexistent", SweepJobUpdate{Enabled: &enabled})
	require.Error(t, err)
}

func TestListSweepJobs_EnabledFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedSweepJob(t, s, "on", true)
	seedSweepJob(t, s, "off", false)

	enabled := true
	jobs, err := s.ListSweepJobs(ctx, SweepJobFilter{Enabled: &enabled})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "on", jobs[0].Name)

	all, err := s.ListSweepJobs(ctx, SweepJobFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteSweepJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	job := seedSweepJob(t, s, "hourly", true)

	require.NoError(t, s.DeleteSweepJob(ctx, job.ID))
	_, err := s.GetSweepJob(ctx, job.ID)
	require.Error(t, err)

	require.Error(t, s.DeleteSweepJob(ctx, job.ID), "second delete reports not found")
}

func TestVacuum(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Vacuum(context.Background()))
}
