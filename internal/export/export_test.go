package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func seededStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "export_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	ctx := context.Background()
	seed := []struct {
		orgnr string
		name  string
		score int
	}{
		{"911111111", "Østland Transport AS", 80},
		{"922222222", "Bergen Bygg AS", 95},
		{"933333333", "Ålesund Verft AS", 80},
		{"944444444", "Aker Frakt AS", 80},
	}
	for _, s := range seed {
		c, err := st.UpsertCompany(ctx, &model.Company{
			Orgnr:               s.orgnr,
			Name:                s.name,
			Status:              model.StatusActive,
			IndustryDescription: "Road freight transport",
			EmployeeCount:       25,
			Municipality:        "BERGEN",
		})
		require.NoError(t, err)
		require.NoError(t, st.UpdateScores(ctx, c.ID, s.score, 70, 60, 50))
	}
	return st
}

func TestWriteCSV_HeaderAndOrdering(t *testing.T) {
	st := seededStore(t)
	e := New(st)

	var buf bytes.Buffer
	n, err := e.WriteCSV(context.Background(), &buf, store.CompanyFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, header, records[0])

	// Score descending; within the 80s Norwegian collation puts Å last.
	var names []string
	for _, rec := range records[1:] {
		names = append(names, rec[0])
	}
	assert.Equal(t, []string{
		"Bergen Bygg AS",
		"Aker Frakt AS",
		"Østland Transport AS",
		"Ålesund Verft AS",
	}, names)
}

func TestWriteCSV_TopReasonsCapped(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	c, err := st.GetCompany(ctx, "922222222")
	require.NoError(t, err)
	require.NoError(t, st.ReplaceExplanations(ctx, c.ID, []model.ScoreExplanation{
		{CompanyID: c.ID, Signal: "a", Weight: 20, Reason: "Reason A", Active: true},
		{CompanyID: c.ID, Signal: "b", Weight: 15, Reason: "Reason B", Active: true},
		{CompanyID: c.ID, Signal: "c", Weight: 10, Reason: "Reason C", Active: false},
		{CompanyID: c.ID, Signal: "d", Weight: 8, Reason: "Reason D", Active: true},
		{CompanyID: c.ID, Signal: "e", Weight: 6, Reason: "Reason E", Active: true},
	}))

	var buf bytes.Buffer
	_, err = New(st).WriteCSV(ctx, &buf, store.CompanyFilter{MinScore: 90})
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Three active reasons at most; the inactive one is skipped.
	assert.Equal(t, "Reason A; Reason B; Reason D", records[1][14])
}

func TestWriteCSV_Filter(t *testing.T) {
	st := seededStore(t)

	var buf bytes.Buffer
	n, err := New(st).WriteCSV(context.Background(), &buf, store.CompanyFilter{MinScore: 90})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWriteXLSX(t *testing.T) {
	st := seededStore(t)

	var buf bytes.Buffer
	n, err := New(st).WriteXLSX(context.Background(), &buf, store.CompanyFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Leads", sheet.Name)
	require.Len(t, sheet.Rows, 5)

	assert.Equal(t, "Name", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Bergen Bygg AS", sheet.Rows[1].Cells[0].String())

	score, err := sheet.Rows[1].Cells[10].Int()
	require.NoError(t, err)
	assert.Equal(t, 95, score)
}
