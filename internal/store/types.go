package store

import (
	"encoding/json"
	"time"
)

// Report is one persisted compliance evaluation outcome for a diagram.
// Reports are append-only; the store keeps an audit trail of runs.
type Report struct {
	ID           string          `json:"id"`
	DiagramID    string          `json:"diagram_id"`
	DiagramHash  string          `json:"diagram_hash"`
	Score        int             `json:"score"`
	Compliant    bool            `json:"compliant"`
	ErrorCount   int             `json:"error_count"`
	WarningCount int             `json:"warning_count"`
	InfoCount    int             `json:"info_count"`
	Violations   json.RawMessage `json:"violations,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ReportFilter narrows ListReports results.
type ReportFilter struct {
	DiagramID string
	Since     *time.Time
	Limit     int
}

// SweepJob is a scheduled re-evaluation of a registered diagram document.
type SweepJob struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CronExpr  string          `json:"cron_expr"`
	DiagramID string          `json:"diagram_id"`
	Document  json.RawMessage `json:"document"`
	Enabled   bool            `json:"enabled"`
	LastRunAt *time.Time      `json:"last_run_at,omitempty"`
	NextRunAt *time.Time      `json:"next_run_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SweepJobUpdate holds optional field updates for a sweep job.
// Nil fields are left unchanged.
type SweepJobUpdate struct {
	CronExpr  *string
	Enabled   *bool
	LastRunAt *time.Time
	NextRunAt *time.Time
}

// SweepJobFilter narrows ListSweepJobs results.
type SweepJobFilter struct {
	Enabled   *bool
	DiagramID string
}
