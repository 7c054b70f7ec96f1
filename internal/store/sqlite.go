package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadscout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the default
// backend for local runs; Postgres is the production backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                     TEXT PRIMARY KEY,
	orgnr                  TEXT NOT NULL UNIQUE,
	name                   TEXT NOT NULL,
	status                 TEXT NOT NULL DEFAULT 'active',
	organization_form_code TEXT NOT NULL DEFAULT '',
	organization_form_name TEXT NOT NULL DEFAULT '',
	founded_date           DATETIME,
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
	roles_loaded           INTEGER NOT NULL DEFAULT 0,
	overall_score          INTEGER NOT NULL DEFAULT 0,
	use_case_fit           INTEGER NOT NULL DEFAULT 0,
	urgency_score          INTEGER NOT NULL DEFAULT 0,
	data_quality_score     INTEGER NOT NULL DEFAULT 0,
	summary                TEXT NOT NULL DEFAULT '',
	source_updated_at      DATETIME,
	last_seen_at           DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sub_entities (
	id            TEXT PRIMARY KEY,
	orgnr         TEXT NOT NULL UNIQUE,
	parent_orgnr  TEXT NOT NULL,
	name          TEXT NOT NULL,
	industry_code TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	municipality  TEXT NOT NULL DEFAULT '',
	last_seen_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS company_roles (
	id          TEXT PRIMARY KEY,
	company_id  TEXT NOT NULL REFERENCES companies(id),
	role_type   TEXT NOT NULL,
	role_group  TEXT NOT NULL,
	person_name TEXT NOT NULL DEFAULT '',
	entity_name TEXT NOT NULL DEFAULT '',
	birth_date  DATETIME
);

CREATE TABLE IF NOT EXISTS score_explanations (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	signal     TEXT NOT NULL,
	weight     INTEGER NOT NULL,
	reason     TEXT NOT NULL,
	active     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_jobs (
	id              TEXT PRIMARY KEY,
	type            TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'running',
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME,
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

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteCompanyColumns = `id, orgnr, name, status, organization_form_code, organization_form_name,
	founded_date, municipality, municipality_number, county, postal_code, address,
	industry_code, industry_description, employee_count, phone, website, email, logo_url,
	roles_loaded, overall_score, use_case_fit, urgency_score, data_quality_score, summary,
	source_updated_at, last_seen_at`

func (s *SQLiteStore) UpsertCompany(ctx context.Context, c *model.Company) (*model.Company, error) {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (
			id, orgnr, name, status, organization_form_code, organization_form_name,
			founded_date, municipality, municipality_number, county, postal_code, address,
			industry_code, industry_description, employee_count, phone, website, email,
			logo_url, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (orgnr) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			organization_form_code = excluded.organization_form_code,
			organization_form_name = excluded.organization_form_name,
			founded_date = excluded.founded_date,
			municipality = excluded.municipality,
			municipality_number = excluded.municipality_number,
			county = excluded.county,
			postal_code = excluded.postal_code,
			address = excluded.address,
			industry_code = excluded.industry_code,
			industry_description = excluded.industry_description,
			employee_count = excluded.employee_count,
			phone = excluded.phone,
			website = excluded.website,
			email = excluded.email,
			logo_url = excluded.logo_url,
			last_seen_at = max(companies.last_seen_at, excluded.last_seen_at)`,
		uuid.New().String(), c.Orgnr, c.Name, string(c.Status), c.OrganizationFormCode, c.OrganizationFormName,
		c.FoundedDate, c.Municipality, c.MunicipalityNumber, c.County, c.PostalCode, c.Address,
		c.IndustryCode, c.IndustryDescription, c.EmployeeCount, c.Phone, c.Website, c.Email,
		c.LogoURL, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert company %s", c.Orgnr)
	}

	if c.SourceUpdatedAt != nil {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE companies SET source_updated_at = ? WHERE orgnr = ?`,
			c.SourceUpdatedAt, c.Orgnr,
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: update source_updated_at %s", c.Orgnr)
		}
	}
	return s.GetCompany(ctx, c.Orgnr)
}

func (s *SQLiteStore) GetCompany(ctx context.Context, orgnr string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteCompanyColumns+` FROM companies WHERE orgnr = ?`, orgnr)
	c, err := scanSQLiteCompany(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", orgnr)
	}
	return c, nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := `SELECT ` + sqliteCompanyColumns + ` FROM companies WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.MinScore > 0 {
		query += ` AND overall_score >= ?`
		args = append(args, filter.MinScore)
	}
	if filter.MaxScore > 0 {
		query += ` AND overall_score <= ?`
		args = append(args, filter.MaxScore)
	}
	if filter.Municipality != "" {
		query += ` AND municipality = ?`
		args = append(args, filter.Municipality)
	}
	if filter.County != "" {
		query += ` AND county = ?`
		args = append(args, filter.County)
	}
	if filter.IndustryPrefix != "" {
		query += ` AND industry_code LIKE ?`
		args = append(args, filter.IndustryPrefix+"%")
	}

	query += ` ORDER BY overall_score DESC, orgnr`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanSQLiteCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) UpdateScores(ctx context.Context, companyID string, overall, useCaseFit, urgency, dataQuality int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE companies
		SET overall_score = ?, use_case_fit = ?, urgency_score = ?, data_quality_score = ?
		WHERE id = ?`,
		overall, useCaseFit, urgency, dataQuality, companyID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update scores for %s", companyID)
	}
	return checkRowsAffected(res, "company", companyID)
}

func (s *SQLiteStore) UpdateSummary(ctx context.Context, companyID, summary string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET summary = ? WHERE id = ?`, summary, companyID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update summary for %s", companyID)
	}
	return checkRowsAffected(res, "company", companyID)
}

func (s *SQLiteStore) ReplaceExplanations(ctx context.Context, companyID string, explanations []model.ScoreExplanation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin explanations tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM score_explanations WHERE company_id = ?`, companyID); err != nil {
		return eris.Wrapf(err, "sqlite: delete explanations for %s", companyID)
	}
	for _, e := range explanations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO score_explanations (id, company_id, signal, weight, reason, active)
			VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), companyID, e.Signal, e.Weight, e.Reason, e.Active,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert explanation %s for %s", e.Signal, companyID)
		}
	}
	return eris.Wrapf(tx.Commit(), "sqlite: commit explanations for %s", companyID)
}

func (s *SQLiteStore) ListExplanations(ctx context.Context, companyID string) ([]model.ScoreExplanation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, signal, weight, reason, active
		FROM score_explanations WHERE company_id = ?
		ORDER BY weight DESC, signal`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list explanations for %s", companyID)
	}
	defer rows.Close()

	var out []model.ScoreExplanation
	for rows.Next() {
		var e model.ScoreExplanation
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.Signal, &e.Weight, &e.Reason, &e.Active); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan explanation")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list explanations iterate")
}

func (s *SQLiteStore) UpsertSubEntity(ctx context.Context, se *model.SubEntity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sub_entities (id, orgnr, parent_orgnr, name, industry_code, address, municipality, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (orgnr) DO UPDATE SET
			parent_orgnr = excluded.parent_orgnr,
			name = excluded.name,
			industry_code = excluded.industry_code,
			address = excluded.address,
			municipality = excluded.municipality,
			last_seen_at = max(sub_entities.last_seen_at, excluded.last_seen_at)`,
		uuid.New().String(), se.Orgnr, se.ParentOrgnr, se.Name, se.IndustryCode, se.Address,
		se.Municipality, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert sub-entity %s", se.Orgnr)
}

func (s *SQLiteStore) CountSubEntities(ctx context.Context, parentOrgnr string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sub_entities WHERE parent_orgnr = ?`, parentOrgnr).Scan(&n)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: count sub-entities for %s", parentOrgnr)
	}
	return n, nil
}

func (s *SQLiteStore) ReplaceRoles(ctx context.Context, companyID string, roles []model.Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin roles tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM company_roles WHERE company_id = ?`, companyID); err != nil {
		return eris.Wrapf(err, "sqlite: delete roles for %s", companyID)
	}
	for _, r := range roles {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO company_roles (id, company_id, role_type, role_group, person_name, entity_name, birth_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), companyID, r.RoleType, r.RoleGroup, r.PersonName, r.EntityName, r.BirthDate,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert role for %s", companyID)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE companies SET roles_loaded = 1 WHERE id = ?`, companyID); err != nil {
		return eris.Wrapf(err, "sqlite: mark roles loaded for %s", companyID)
	}
	return eris.Wrapf(tx.Commit(), "sqlite: commit roles for %s", companyID)
}

func (s *SQLiteStore) ListRoles(ctx context.Context, companyID string) ([]model.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, role_type, role_group, person_name, entity_name, birth_date
		FROM company_roles WHERE company_id = ? ORDER BY role_group, role_type`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list roles for %s", companyID)
	}
	defer rows.Close()

	var out []model.Role
	for rows.Next() {
		var r model.Role
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.RoleType, &r.RoleGroup, &r.PersonName, &r.EntityName, &r.BirthDate); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan role")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list roles iterate")
}

func (s *SQLiteStore) CompaniesMissingRoles(ctx context.Context, limit int) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteCompanyColumns+` FROM companies
		 WHERE roles_loaded = 0 AND status = 'active'
		 ORDER BY orgnr LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: companies missing roles")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanSQLiteCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: companies missing roles iterate")
}

func (s *SQLiteStore) CreateJob(ctx context.Context, jobType model.JobType) (*model.SyncJob, error) {
	job := &model.SyncJob{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_jobs (id, type, status, started_at) VALUES (?, ?, ?, ?)`,
		job.ID, string(job.Type), string(job.Status), job.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: create %s job", jobType)
	}
	return job, nil
}

func (s *SQLiteStore) UpdateJobProgress(ctx context.Context, jobID string, processed, errs int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_jobs SET processed_count = ?, error_count = ? WHERE id = ?`,
		processed, errs, jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job %s progress", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) FinishJob(ctx context.Context, jobID string, status model.JobStatus, processed, errs int, logText string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sync_jobs
		SET status = ?, finished_at = ?, processed_count = ?, error_count = ?, log = ?
		WHERE id = ? AND status = 'running'`,
		string(status), time.Now().UTC(), processed, errs, logText, jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish job %s", jobID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: job %s is not running", jobID)
	}
	return nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.SyncJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, status, started_at, finished_at, processed_count, error_count, log
		FROM sync_jobs WHERE id = ?`, jobID)
	j, err := scanSQLiteJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job %s", jobID)
	}
	return j, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, limit int) ([]model.SyncJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, status, started_at, finished_at, processed_count, error_count, log
		FROM sync_jobs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var out []model.SyncJob
	for rows.Next() {
		j, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		out = append(out, *j)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func (s *SQLiteStore) LastCompletedJob(ctx context.Context, jobType model.JobType) (*model.SyncJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, status, started_at, finished_at, processed_count, error_count, log
		FROM sync_jobs
		WHERE type = ? AND status = 'completed'
		ORDER BY finished_at DESC LIMIT 1`, string(jobType))
	j, err := scanSQLiteJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: last completed %s job", jobType)
	}
	return j, nil
}

func (s *SQLiteStore) DashboardStats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM companies),
			(SELECT count(*) FROM companies WHERE status = 'active'),
			(SELECT count(*) FROM sub_entities),
			(SELECT count(*) FROM companies WHERE overall_score >= 75),
			(SELECT COALESCE(avg(overall_score), 0) FROM companies),
			(SELECT count(*) FROM sync_jobs WHERE status = 'running')`,
	).Scan(&st.Companies, &st.ActiveCompanies, &st.SubEntities, &st.HighScoreLeads, &st.AverageScore, &st.RunningJobs)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: dashboard stats")
	}
	return &st, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteCompany(row scannable) (*model.Company, error) {
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

func scanSQLiteJob(row scannable) (*model.SyncJob, error) {
	var j model.SyncJob
	err := row.Scan(&j.ID, &j.Type, &j.Status, &j.StartedAt, &j.FinishedAt, &j.ProcessedCount, &j.ErrorCount, &j.Log)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
