package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscout/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testCompany(orgnr string) *model.Company {
	return &model.Company{
		Orgnr:                orgnr,
		Name:                 "Fjordane Transport AS",
		Status:               model.StatusActive,
		OrganizationFormCode: "AS",
		OrganizationFormName: "Aksjeselskap",
		Municipality:         "Bergen",
		MunicipalityNumber:   "4601",
		County:               "Vestland",
		IndustryCode:         "49.410",
		IndustryDescription:  "Road freight transport",
		EmployeeCount:        42,
		Phone:                "+47 55 00 00 00",
		Website:              "https://fjordane.example",
	}
}

// --- Companies ---

func TestSQLite_UpsertCompany_InsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	stored, err := st.UpsertCompany(ctx, testCompany("911111111"))
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)
	assert.Equal(t, "911111111", stored.Orgnr)
	assert.Equal(t, "Fjordane Transport AS", stored.Name)
	assert.False(t, stored.RolesLoaded)
	assert.False(t, stored.LastSeenAt.IsZero())

	got, err := st.GetCompany(ctx, "911111111")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
}

func TestSQLite_UpsertCompany_KeepsIDOnConflict(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.UpsertCompany(ctx, testCompany("922222222"))
	require.NoError(t, err)

	updated := testCompany("922222222")
	updated.Name = "Fjordane Transport ASA"
	second, err := st.UpsertCompany(ctx, updated)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Fjordane Transport ASA", second.Name)
}

func TestSQLite_UpsertCompany_PreservesScoresAndRoles(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c, err := st.UpsertCompany(ctx, testCompany("933333333"))
	require.NoError(t, err)

	require.NoError(t, st.UpdateScores(ctx, c.ID, 80, 90, 70, 60))
	require.NoError(t, st.UpdateSummary(ctx, c.ID, "summary text"))
	require.NoError(t, st.ReplaceRoles(ctx, c.ID, []model.Role{
		{CompanyID: c.ID, RoleType: "CEO", RoleGroup: "Management", PersonName: "Kari Nordmann"},
	}))

	// A fresh sync re-upserts the same orgnr with no scores set.
	again, err := st.UpsertCompany(ctx, testCompany("933333333"))
	require.NoError(t, err)

	assert.Equal(t, 80, again.OverallScore)
	assert.Equal(t, 90, again.UseCaseFit)
	assert.Equal(t, "summary text", again.Summary)
	assert.True(t, again.RolesLoaded)
}

func TestSQLite_GetCompany_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetCompany(context.Background(), "000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListCompanies_FilterAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.UpsertCompany(ctx, testCompany("911111111"))
	require.NoError(t, err)
	b := testCompany("922222222")
	b.Status = model.StatusInactive
	bStored, err := st.UpsertCompany(ctx, b)
	require.NoError(t, err)

	require.NoError(t, st.UpdateScores(ctx, a.ID, 50, 0, 0, 0))
	require.NoError(t, st.UpdateScores(ctx, bStored.ID, 90, 0, 0, 0))

	all, err := st.ListCompanies(ctx, CompanyFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "922222222", all[0].Orgnr) // highest score first

	active, err := st.ListCompanies(ctx, CompanyFilter{Status: model.StatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "911111111", active[0].Orgnr)

	high, err := st.ListCompanies(ctx, CompanyFilter{MinScore: 60})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "922222222", high[0].Orgnr)
}

// --- Explanations ---

func TestSQLite_ReplaceExplanations_SwapsSet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c, err := st.UpsertCompany(ctx, testCompany("944444444"))
	require.NoError(t, err)

	require.NoError(t, st.ReplaceExplanations(ctx, c.ID, []model.ScoreExplanation{
		{CompanyID: c.ID, Signal: "company_active", Weight: 20, Reason: "old", Active: true},
		{CompanyID: c.ID, Signal: "has_website", Weight: 8, Reason: "old", Active: false},
	}))
	require.NoError(t, st.ReplaceExplanations(ctx, c.ID, []model.ScoreExplanation{
		{CompanyID: c.ID, Signal: "company_active", Weight: 20, Reason: "new", Active: true},
	}))

	got, err := st.ListExplanations(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Reason)
}

// --- Sub-entities ---

func TestSQLite_SubEntities_UpsertAndCount(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	se := &model.SubEntity{Orgnr: "811111111", ParentOrgnr: "911111111", Name: "Bergen Branch"}
	require.NoError(t, st.UpsertSubEntity(ctx, se))
	// Re-upsert must not duplicate.
	se.Name = "Bergen Branch Renamed"
	require.NoError(t, st.UpsertSubEntity(ctx, se))

	n, err := st.CountSubEntities(ctx, "911111111")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = st.CountSubEntities(ctx, "999999999")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// --- Roles ---

func TestSQLite_ReplaceRoles_MarksLoaded(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c, err := st.UpsertCompany(ctx, testCompany("955555555"))
	require.NoError(t, err)
	assert.False(t, c.RolesLoaded)

	require.NoError(t, st.ReplaceRoles(ctx, c.ID, []model.Role{
		{CompanyID: c.ID, RoleType: "Chair", RoleGroup: "Board", PersonName: "Ola Nordmann"},
		{CompanyID: c.ID, RoleType: "CEO", RoleGroup: "Management", PersonName: "Kari Nordmann"},
	}))

	roles, err := st.ListRoles(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 2)

	got, err := st.GetCompany(ctx, "955555555")
	require.NoError(t, err)
	assert.True(t, got.RolesLoaded)
}

func TestSQLite_ReplaceRoles_EmptySetStillMarksLoaded(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c, err := st.UpsertCompany(ctx, testCompany("966666666"))
	require.NoError(t, err)

	require.NoError(t, st.ReplaceRoles(ctx, c.ID, nil))

	got, err := st.GetCompany(ctx, "966666666")
	require.NoError(t, err)
	assert.True(t, got.RolesLoaded)
}

func TestSQLite_CompaniesMissingRoles(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.UpsertCompany(ctx, testCompany("911111111"))
	require.NoError(t, err)
	_, err = st.UpsertCompany(ctx, testCompany("922222222"))
	require.NoError(t, err)

	require.NoError(t, st.ReplaceRoles(ctx, a.ID, nil))

	missing, err := st.CompaniesMissingRoles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "922222222", missing[0].Orgnr)
}

// --- Jobs ---

func TestSQLite_JobLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	job, err := st.CreateJob(ctx, model.JobFull)
	require.NoError(t, err)
	assert.Equal(t, model.JobRunning, job.Status)
	assert.Nil(t, job.FinishedAt)

	require.NoError(t, st.UpdateJobProgress(ctx, job.ID, 10, 1))

	require.NoError(t, st.FinishJob(ctx, job.ID, model.JobCompleted, 25, 2, "done"))

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, got.Status)
	assert.Equal(t, 25, got.ProcessedCount)
	assert.Equal(t, 2, got.ErrorCount)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, got.Terminal())
}

func TestSQLite_FinishJob_OnlyOnce(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	job, err := st.CreateJob(ctx, model.JobIncremental)
	require.NoError(t, err)

	require.NoError(t, st.FinishJob(ctx, job.ID, model.JobFailed, 5, 5, "boom"))

	// A second transition must be rejected; the terminal record stays intact.
	err = st.FinishJob(ctx, job.ID, model.JobCompleted, 99, 0, "")
	require.Error(t, err)

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, got.Status)
	assert.Equal(t, 5, got.ProcessedCount)
}

func TestSQLite_LastCompletedJob(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.LastCompletedJob(ctx, model.JobIncremental)
	assert.ErrorIs(t, err, ErrNotFound)

	j1, err := st.CreateJob(ctx, model.JobIncremental)
	require.NoError(t, err)
	require.NoError(t, st.FinishJob(ctx, j1.ID, model.JobCompleted, 1, 0, ""))

	time.Sleep(10 * time.Millisecond)

	j2, err := st.CreateJob(ctx, model.JobIncremental)
	require.NoError(t, err)
	require.NoError(t, st.FinishJob(ctx, j2.ID, model.JobFailed, 0, 1, ""))

	// Failed jobs never advance the checkpoint.
	last, err := st.LastCompletedJob(ctx, model.JobIncremental)
	require.NoError(t, err)
	assert.Equal(t, j1.ID, last.ID)
}

// --- Stats ---

func TestSQLite_DashboardStats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.UpsertCompany(ctx, testCompany("911111111"))
	require.NoError(t, err)
	inactive := testCompany("922222222")
	inactive.Status = model.StatusInactive
	_, err = st.UpsertCompany(ctx, inactive)
	require.NoError(t, err)

	require.NoError(t, st.UpdateScores(ctx, a.ID, 80, 0, 0, 0))
	require.NoError(t, st.UpsertSubEntity(ctx, &model.SubEntity{Orgnr: "811111111", ParentOrgnr: "911111111", Name: "Branch"}))

	_, err = st.CreateJob(ctx, model.JobFull)
	require.NoError(t, err)

	stats, err := st.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Companies)
	assert.Equal(t, 1, stats.ActiveCompanies)
	assert.Equal(t, 1, stats.SubEntities)
	assert.Equal(t, 1, stats.HighScoreLeads)
	assert.Equal(t, 1, stats.RunningJobs)
	assert.InDelta(t, 40.0, stats.AverageScore, 0.01)
}
