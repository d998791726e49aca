package store

import "context"

// Store defines the persistence layer contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Reports (append-only)
	AppendReport(ctx context.Context, report *Report) error
	GetReport(ctx context.Context, id string) (*Report, error)
	LatestReport(ctx context.Context, diagramID string) (*Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]*Report, error)

	// Sweep Jobs
	CreateSweepJob(ctx context.Context, job *SweepJob) error
	GetSweepJob(ctx context.Context, id string) (*SweepJob, error)
	UpdateSweepJob(ctx context.Context, id string, update SweepJobUpdate) error
	ListSweepJobs(ctx context.Context, filter SweepJobFilter) ([]*SweepJob, error)
	DeleteSweepJob(ctx context.Context, id string) error

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
