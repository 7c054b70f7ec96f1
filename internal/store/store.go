package store

import (
	"context"
	"errors"

	"github.com/sells-group/leadscout/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// CompanyFilter narrows ListCompanies and exports.
type CompanyFilter struct {
	Status         model.CompanyStatus `json:"status,omitempty"`
	MinScore       int                 `json:"min_score,omitempty"`
	MaxScore       int                 `json:"max_score,omitempty"`
	Municipality   string              `json:"municipality,omitempty"`
	County         string              `json:"county,omitempty"`
	IndustryPrefix string              `json:"industry_prefix,omitempty"`
	Limit          int                 `json:"limit,omitempty"`
	Offset         int                 `json:"offset,omitempty"`
}

// Stats summarizes the stored dataset for status reporting.
type Stats struct {
	Companies       int     `json:"companies"`
	ActiveCompanies int     `json:"active_companies"`
	SubEntities     int     `json:"sub_entities"`
	HighScoreLeads  int     `json:"high_score_leads"` // overall >= 75
	AverageScore    float64 `json:"average_score"`
	RunningJobs     int     `json:"running_jobs"`
}

// Store is the persistence interface consumed by the sync orchestrator and
// the reporting surfaces. Upserts are keyed by orgnr only.
type Store interface {
	// Companies.
	UpsertCompany(ctx context.Context, c *model.Company) (*model.Company, error)
	GetCompany(ctx context.Context, orgnr string) (*model.Company, error)
	ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error)
	UpdateScores(ctx context.Context, companyID string, overall, useCaseFit, urgency, dataQuality int) error
	UpdateSummary(ctx context.Context, companyID, summary string) error

	// Score explanations. The set for a company is replaced atomically:
	// a concurrent reader sees either the prior complete set or the new one.
	ReplaceExplanations(ctx context.Context, companyID string, explanations []model.ScoreExplanation) error
	ListExplanations(ctx context.Context, companyID string) ([]model.ScoreExplanation, error)

	// Sub-entities.
	UpsertSubEntity(ctx context.Context, se *model.SubEntity) error
	CountSubEntities(ctx context.Context, parentOrgnr string) (int, error)

	// Roles. ReplaceRoles swaps the role set and marks roles_loaded in the
	// same transaction.
	ReplaceRoles(ctx context.Context, companyID string, roles []model.Role) error
	ListRoles(ctx context.Context, companyID string) ([]model.Role, error)
	CompaniesMissingRoles(ctx context.Context, limit int) ([]model.Company, error)

	// Sync jobs.
	CreateJob(ctx context.Context, jobType model.JobType) (*model.SyncJob, error)
	UpdateJobProgress(ctx context.Context, jobID string, processed, errs int) error
	FinishJob(ctx context.Context, jobID string, status model.JobStatus, processed, errs int, logText string) error
	GetJob(ctx context.Context, jobID string) (*model.SyncJob, error)
	ListJobs(ctx context.Context, limit int) ([]model.SyncJob, error)
	LastCompletedJob(ctx context.Context, jobType model.JobType) (*model.SyncJob, error)

	// Reporting.
	DashboardStats(ctx context.Context) (*Stats, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}
