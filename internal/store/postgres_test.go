package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscout/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func jobColumns() []string {
	return []string{"id", "type", "status", "started_at", "finished_at", "processed_count", "error_count", "log"}
}

func TestPostgresStore_GetCompany_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM companies WHERE orgnr = \$1`).
		WithArgs("000000000").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCompany(context.Background(), "000000000")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateScores(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE companies`).
		WithArgs(80, 90, 70, 60, "company-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateScores(context.Background(), "company-id", 80, 90, 70, 60)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceExplanations_Transactional(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM score_explanations`).
		WithArgs("company-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO score_explanations`).
		WithArgs(pgxmock.AnyArg(), "company-id", "company_active", 20, "Company is actively operating", true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.ReplaceExplanations(context.Background(), "company-id", []model.ScoreExplanation{
		{CompanyID: "company-id", Signal: "company_active", Weight: 20, Reason: "Company is actively operating", Active: true},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReplaceRoles_MarksLoadedInSameTx(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM company_roles`).
		WithArgs("company-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO company_roles`).
		WithArgs(pgxmock.AnyArg(), "company-id", "CEO", "Management", "Kari Nordmann", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE companies SET roles_loaded = TRUE`).
		WithArgs("company-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := s.ReplaceRoles(context.Background(), "company-id", []model.Role{
		{CompanyID: "company-id", RoleType: "CEO", RoleGroup: "Management", PersonName: "Kari Nordmann"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinishJob_RejectsFinished(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE sync_jobs`).
		WithArgs(model.JobCompleted, pgxmock.AnyArg(), 10, 0, "", "job-id").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FinishJob(context.Background(), "job-id", model.JobCompleted, 10, 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LastCompletedJob(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	finished := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM sync_jobs`).
		WithArgs(model.JobIncremental).
		WillReturnRows(pgxmock.NewRows(jobColumns()).
			AddRow("job-1", model.JobIncremental, model.JobCompleted,
				finished.Add(-time.Hour), &finished, 100, 2, ""))

	job, err := s.LastCompletedJob(context.Background(), model.JobIncremental)
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	require.NotNil(t, job.FinishedAt)
	assert.Equal(t, finished, *job.FinishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LastCompletedJob_None(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM sync_jobs`).
		WithArgs(model.JobIncremental).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.LastCompletedJob(context.Background(), model.JobIncremental)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountSubEntities(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM sub_entities`).
		WithArgs("911111111").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	n, err := s.CountSubEntities(context.Background(), "911111111")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
