package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscout/internal/db"
	"github.com/sells-group/leadscout/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                     TEXT PRIMARY KEY,
	orgnr                  TEXT NOT NULL UNIQUE,
	name                   TEXT NOT NULL,
	status                 TEXT NOT NULL DEFAULT 'active',
	organization_form_code TEXT NOT NULL DEFAULT '',
	organization_form_name TEXT NOT NULL DEFAULT '',
	founded_date           DATE,
	municipality           TEXT NOT NULL DEFAULT '',
	municipality_number    TEXT NOT NULL DEFAULT '',
	county                 TEXT NOT NULL DEFAULT '',
	postal_code            TEXT NOT NULL DEFAULT '',
	address                TEXT NOT NULL DEFAULT '',
	industry_code          TEXT NOT NULL DEFAULT '',
	industry_description   TEXT NOT NULL DEFAULT '',
	employee_count         INTEGER NOT NULL DEFAULT 0,
	phone                  TEXT NOT NULL DEFAULT '',
	website                TEXT NOT NULL DEFAULT '',
	email                  TEXT NOT NULL DEFAULT '',
	logo_url               TEXT NOT NULL DEFAULT '',
	roles_loaded           BOOLEAN NOT NULL DEFAULT FALSE,
	overall_score          INTEGER NOT NULL DEFAULT 0,
	use_case_fit           INTEGER NOT NULL DEFAULT 0,
	urgency_score          INTEGER NOT NULL DEFAULT 0,
	data_quality_score     INTEGER NOT NULL DEFAULT 0,
	summary                TEXT NOT NULL DEFAULT '',
	source_updated_at      TIMESTAMPTZ,
	last_seen_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sub_entities (
	id            TEXT PRIMARY KEY,
	orgnr         TEXT NOT NULL UNIQUE,
	parent_orgnr  TEXT NOT NULL,
	name          TEXT NOT NULL,
	industry_code TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	municipality  TEXT NOT NULL DEFAULT '',
	last_seen_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS company_roles (
	id          TEXT PRIMARY KEY,
	company_id  TEXT NOT NULL REFERENCES companies(id),
	role_type   TEXT NOT NULL,
	role_group  TEXT NOT NULL,
	person_name TEXT NOT NULL DEFAULT '',
	entity_name TEXT NOT NULL DEFAULT '',
	birth_date  DATE
);

CREATE TABLE IF NOT EXISTS score_explanations (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	signal     TEXT NOT NULL,
	weight     INTEGER NOT NULL,
	reason     TEXT NOT NULL,
	active     BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_jobs (
	id              TEXT PRIMARY KEY,
	type            TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'running',
	started_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at     TIMESTAMPTZ,
	processed_count INTEGER NOT NULL DEFAULT 0,
	error_count     INTEGER NOT NULL DEFAULT 0,
	log             TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(status);
CREATE INDEX IF NOT EXISTS idx_companies_overall_score ON companies(overall_score);
CREATE INDEX IF NOT EXISTS idx_companies_roles_loaded ON companies(roles_loaded);
CREATE INDEX IF NOT EXISTS idx_sub_entities_parent ON sub_entities(parent_orgnr);
CREATE INDEX IF NOT EXISTS idx_company_roles_company ON company_roles(company_id);
CREATE INDEX IF NOT EXISTS idx_score_explanations_company ON score_explanations(company_id);
CREATE INDEX IF NOT EXISTS idx_sync_jobs_type_status ON sync_jobs(type, status);
`

// Migrate applies the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const companyColumns = `id, orgnr, name, status, organization_form_code, organization_form_name,
	founded_date, municipality, municipality_number, county, postal_code, address,
	industry_code, industry_description, employee_count, phone, website, email, logo_url,
	roles_loaded, overall_score, use_case_fit, urgency_score, data_quality_score, summary,
	source_updated_at, last_seen_at`

// UpsertCompany creates or updates a company keyed by orgnr. Mapped fields
// are overwritten; roles_loaded, scores and summary are owned by other flows
// and preserved. last_seen_at never moves backwards.
func (s *PostgresStore) UpsertCompany(ctx context.Context, c *model.Company) (*model.Company, error) {
	now := time.Now().UTC()
	id := uuid.NewString()

	row := s.pool.QueryRow(ctx, `
		INSERT INTO companies (
			id, orgnr, name, status, organization_form_code, organization_form_name,
			founded_date, municipality, municipality_number, county, postal_code, address,
			industry_code, industry_description, employee_count, phone, website, email,
			logo_url, last_seen_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (orgnr) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			organization_form_code = EXCLUDED.organization_form_code,
			organization_form_name = EXCLUDED.organization_form_name,
			founded_date = EXCLUDED.founded_date,
			municipality = EXCLUDED.municipality,
			municipality_number = EXCLUDED.municipality_number,
			county = EXCLUDED.county,
			postal_code = EXCLUDED.postal_code,
			address = EXCLUDED.address,
			industry_code = EXCLUDED.industry_code,
			industry_description = EXCLUDED.industry_description,
			employee_count = EXCLUDED.employee_count,
			phone = EXCLUDED.phone,
			website = EXCLUDED.website,
			email = EXCLUDED.email,
			logo_url = EXCLUDED.logo_url,
			last_seen_at = GREATEST(companies.last_seen_at, EXCLUDED.last_seen_at)
		RETURNING `+companyColumns,
		id, c.Orgnr, c.Name, c.Status, c.OrganizationFormCode, c.OrganizationFormName,
		c.FoundedDate, c.Municipality, c.MunicipalityNumber, c.County, c.PostalCode, c.Address,
		c.IndustryCode, c.IndustryDescription, c.EmployeeCount, c.Phone, c.Website, c.Email,
		c.LogoURL, now,
	)

	stored, err := scanCompany(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert company %s", c.Orgnr)
	}
	// Update source_updated_at separately so a NULL incoming value does not
	// clear an earlier observation.
	if c.SourceUpdatedAt != nil {
		if _, err := s.pool.Exec(ctx,
			`UPDATE companies SET source_updated_at = $1 WHERE id = $2`,
			c.SourceUpdatedAt, stored.ID,
		); err != nil {
			return nil, eris.Wrapf(err, "postgres: update source_updated_at %s", c.Orgnr)
		}
		stored.SourceUpdatedAt = c.SourceUpdatedAt
	}
	return stored, nil
}

// GetCompany fetches one company by orgnr.
func (s *PostgresStore) GetCompany(ctx context.Context, orgnr string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE orgnr = $1`, orgnr)
	c, err := scanCompany(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", orgnr)
	}
	return c, nil
}

// ListCompanies returns companies matching the filter, best score first.
func (s *PostgresStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE 1=1`
	var args []any

	add := func(clause string, v any) {
		args = append(args, v)
		query += clause
	}
	if filter.Status != "" {
		add(argClause(" AND status = $%d", len(args)+1), string(filter.Status))
	}
	if filter.MinScore > 0 {
		add(argClause(" AND overall_score >= $%d", len(args)+1), filter.MinScore)
	}
	if filter.MaxScore > 0 {
		add(argClause(" AND overall_score <= $%d", len(args)+1), filter.MaxScore)
	}
	if filter.Municipality != "" {
		add(argClause(" AND municipality = $%d", len(args)+1), filter.Municipality)
	}
	if filter.County != "" {
		add(argClause(" AND county = $%d", len(args)+1), filter.County)
	}
	if filter.IndustryPrefix != "" {
		add(argClause(" AND industry_code LIKE $%d", len(args)+1), filter.IndustryPrefix+"%")
	}

	query += " ORDER BY overall_score DESC, orgnr"
	if filter.Limit > 0 {
		add(argClause(" LIMIT $%d", len(args)+1), filter.Limit)
	}
	if filter.Offset > 0 {
		add(argClause(" OFFSET $%d", len(args)+1), filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdateScores writes the four score fields for a company.
func (s *PostgresStore) UpdateScores(ctx context.Context, companyID string, overall, useCaseFit, urgency, dataQuality int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE companies
		SET overall_score = $1, use_case_fit = $2, urgency_score = $3, data_quality_score = $4
		WHERE id = $5`,
		overall, useCaseFit, urgency, dataQuality, companyID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update scores for %s", companyID)
	}
	return nil
}

// UpdateSummary stores the generated AI summary text.
func (s *PostgresStore) UpdateSummary(ctx context.Context, companyID, summary string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE companies SET summary = $1 WHERE id = $2`, summary, companyID)
	if err != nil {
		return eris.Wrapf(err, "postgres: update summary for %s", companyID)
	}
	return nil
}

// ReplaceExplanations swaps the explanation set for a company in one
// transaction so readers never observe a partial set.
func (s *PostgresStore) ReplaceExplanations(ctx context.Context, companyID string, explanations []model.ScoreExplanation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin explanations tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM score_explanations WHERE company_id = $1`, companyID); err != nil {
		return eris.Wrapf(err, "postgres: delete explanations for %s", companyID)
	}
	for _, e := range explanations {
		if _, err := tx.Exec(ctx, `
			INSERT INTO score_explanations (id, company_id, signal, weight, reason, active)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), companyID, e.Signal, e.Weight, e.Reason, e.Active,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert explanation %s for %s", e.Signal, companyID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrapf(err, "postgres: commit explanations for %s", companyID)
	}
	return nil
}

// ListExplanations returns the stored explanation set for a company.
func (s *PostgresStore) ListExplanations(ctx context.Context, companyID string) ([]model.ScoreExplanation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, signal, weight, reason, active
		FROM score_explanations WHERE company_id = $1
		ORDER BY weight DESC, signal`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list explanations for %s", companyID)
	}
	defer rows.Close()

	var out []model.ScoreExplanation
	for rows.Next() {
		var e model.ScoreExplanation
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.Signal, &e.Weight, &e.Reason, &e.Active); err != nil {
			return nil, eris.Wrap(err, "postgres: scan explanation")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertSubEntity creates or updates a branch record keyed by its orgnr.
func (s *PostgresStore) UpsertSubEntity(ctx context.Context, se *model.SubEntity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sub_entities (id, orgnr, parent_orgnr, name, industry_code, address, municipality, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (orgnr) DO UPDATE SET
			parent_orgnr = EXCLUDED.parent_orgnr,
			name = EXCLUDED.name,
			industry_code = EXCLUDED.industry_code,
			address = EXCLUDED.address,
			municipality = EXCLUDED.municipality,
			last_seen_at = GREATEST(sub_entities.last_seen_at, EXCLUDED.last_seen_at)`,
		uuid.NewString(), se.Orgnr, se.ParentOrgnr, se.Name, se.IndustryCode, se.Address,
		se.Municipality, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert sub-entity %s", se.Orgnr)
	}
	return nil
}

// CountSubEntities returns the number of branches under a parent orgnr.
func (s *PostgresStore) CountSubEntities(ctx context.Context, parentOrgnr string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM sub_entities WHERE parent_orgnr = $1`, parentOrgnr).Scan(&n)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: count sub-entities for %s", parentOrgnr)
	}
	return n, nil
}

// ReplaceRoles swaps the role set for a company and marks roles_loaded in
// the same transaction.
func (s *PostgresStore) ReplaceRoles(ctx context.Context, companyID string, roles []model.Role) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin roles tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM company_roles WHERE company_id = $1`, companyID); err != nil {
		return eris.Wrapf(err, "postgres: delete roles for %s", companyID)
	}
	for _, r := range roles {
		if _, err := tx.Exec(ctx, `
			INSERT INTO company_roles (id, company_id, role_type, role_group, person_name, entity_name, birth_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), companyID, r.RoleType, r.RoleGroup, r.PersonName, r.EntityName, r.BirthDate,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert role for %s", companyID)
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE companies SET roles_loaded = TRUE WHERE id = $1`, companyID); err != nil {
		return eris.Wrapf(err, "postgres: mark roles loaded for %s", companyID)
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrapf(err, "postgres: commit roles for %s", companyID)
	}
	return nil
}

// ListRoles returns the stored roles for a company.
func (s *PostgresStore) ListRoles(ctx context.Context, companyID string) ([]model.Role, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, role_type, role_group, person_name, entity_name, birth_date
		FROM company_roles WHERE company_id = $1 ORDER BY role_group, role_type`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list roles for %s", companyID)
	}
	defer rows.Close()

	var out []model.Role
	for rows.Next() {
		var r model.Role
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.RoleType, &r.RoleGroup, &r.PersonName, &r.EntityName, &r.BirthDate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan role")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CompaniesMissingRoles returns a bounded batch of active companies whose
// roles have not been loaded yet.
func (s *PostgresStore) CompaniesMissingRoles(ctx context.Context, limit int) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies
		 WHERE roles_loaded = FALSE AND status = 'active'
		 ORDER BY orgnr LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: companies missing roles")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// CreateJob inserts a new sync job in running state.
func (s *PostgresStore) CreateJob(ctx context.Context, jobType model.JobType) (*model.SyncJob, error) {
	job := &model.SyncJob{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    model.JobRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_jobs (id, type, status, started_at)
		VALUES ($1, $2, $3, $4)`,
		job.ID, job.Type, job.Status, job.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: create %s job", jobType)
	}
	return job, nil
}

// UpdateJobProgress writes in-flight counters. These are eventually
// consistent snapshots; FinishJob writes the exact terminal values.
func (s *PostgresStore) UpdateJobProgress(ctx context.Context, jobID string, processed, errs int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE sync_jobs SET processed_count = $1, error_count = $2 WHERE id = $3`,
		processed, errs, jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job %s progress", jobID)
	}
	return nil
}

// FinishJob transitions a running job to its terminal status. Finished jobs
// are never reopened.
func (s *PostgresStore) FinishJob(ctx context.Context, jobID string, status model.JobStatus, processed, errs int, logText string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sync_jobs
		SET status = $1, finished_at = $2, processed_count = $3, error_count = $4, log = $5
		WHERE id = $6 AND status = 'running'`,
		status, time.Now().UTC(), processed, errs, logText, jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish job %s", jobID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: job %s is not running", jobID)
	}
	return nil
}

// GetJob fetches one sync job by id.
func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.SyncJob, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, type, status, started_at, finished_at, processed_count, error_count, log
		FROM sync_jobs WHERE id = $1`, jobID)
	j, err := scanJob(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}
	return j, nil
}

// ListJobs returns the most recent jobs, newest first.
func (s *PostgresStore) ListJobs(ctx context.Context, limit int) ([]model.SyncJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, status, started_at, finished_at, processed_count, error_count, log
		FROM sync_jobs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var out []model.SyncJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// LastCompletedJob returns the most recently finished completed job of the
// given type, or ErrNotFound. This is the incremental checkpoint source.
func (s *PostgresStore) LastCompletedJob(ctx context.Context, jobType model.JobType) (*model.SyncJob, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, type, status, started_at, finished_at, processed_count, error_count, log
		FROM sync_jobs
		WHERE type = $1 AND status = 'completed'
		ORDER BY finished_at DESC LIMIT 1`, jobType)
	j, err := scanJob(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: last completed %s job", jobType)
	}
	return j, nil
}

// DashboardStats aggregates dataset counts for the reporting surface.
func (s *PostgresStore) DashboardStats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM companies),
			(SELECT count(*) FROM companies WHERE status = 'active'),
			(SELECT count(*) FROM sub_entities),
			(SELECT count(*) FROM companies WHERE overall_score >= 75),
			(SELECT COALESCE(avg(overall_score), 0) FROM companies),
			(SELECT count(*) FROM sync_jobs WHERE status = 'running')`,
	).Scan(&st.Companies, &st.ActiveCompanies, &st.SubEntities, &st.HighScoreLeads, &st.AverageScore, &st.RunningJobs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: dashboard stats")
	}
	return &st, nil
}

func argClause(format string, n int) string {
	return fmt.Sprintf(format, n)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*model.Company, error) {
	var c model.Company
	err := row.Scan(
		&c.ID, &c.Orgnr, &c.Name, &c.Status, &c.OrganizationFormCode, &c.OrganizationFormName,
		&c.FoundedDate, &c.Municipality, &c.MunicipalityNumber, &c.County, &c.PostalCode, &c.Address,
		&c.IndustryCode, &c.IndustryDescription, &c.EmployeeCount, &c.Phone, &c.Website, &c.Email, &c.LogoURL,
		&c.RolesLoaded, &c.OverallScore, &c.UseCaseFit, &c.UrgencyScore, &c.DataQualityScore, &c.Summary,
		&c.SourceUpdatedAt, &c.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanJob(row rowScanner) (*model.SyncJob, error) {
	var j model.SyncJob
	err := row.Scan(&j.ID, &j.Type, &j.Status, &j.StartedAt, &j.FinishedAt, &j.ProcessedCount, &j.ErrorCount, &j.Log)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
