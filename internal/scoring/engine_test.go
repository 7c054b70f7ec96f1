package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscout/internal/model"
)

var scoreNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// fullMatchCompany activates every signal.
func fullMatchCompany() *model.Company {
	updated := scoreNow.Add(-10 * 24 * time.Hour)
	return &model.Company{
		ID:                   "c1",
		Orgnr:                "911111111",
		Name:                 "Vestland Logistikk AS",
		Status:               model.StatusActive,
		OrganizationFormCode: "AS",
		IndustryCode:         "49.410", // Transportation
		EmployeeCount:        40,
		Phone:                "+47 55 00 00 00",
		Website:              "https://vestland.example",
		RolesLoaded:          true,
		SourceUpdatedAt:      &updated,
	}
}

// noMatchCompany activates no signal.
func noMatchCompany() *model.Company {
	return &model.Company{
		ID:                   "c2",
		Orgnr:                "922222222",
		Name:                 "Dormant Holding STI",
		Status:               model.StatusInactive,
		OrganizationFormCode: "STI",
		IndustryCode:         "99.000",
		EmployeeCount:        1,
	}
}

func TestScore_AllSignalsActive(t *testing.T) {
	res := Score(fullMatchCompany(), Related{SubEntityCount: 3}, scoreNow)

	assert.Equal(t, 100, res.Overall)
	require.Len(t, res.Signals, 9)
	for _, s := range res.Signals {
		assert.True(t, s.Active, "signal %s should be active", s.Name)
	}
}

func TestScore_NoSignalsActive(t *testing.T) {
	res := Score(noMatchCompany(), Related{}, scoreNow)

	assert.Equal(t, 0, res.Overall)
	for _, s := range res.Signals {
		assert.False(t, s.Active, "signal %s should be inactive", s.Name)
	}
}

func TestScore_OnlyActiveStatus(t *testing.T) {
	c := noMatchCompany()
	c.Status = model.StatusActive

	res := Score(c, Related{}, scoreNow)
	assert.Equal(t, 20, res.Overall)
}

func TestScore_WeightsSumTo100(t *testing.T) {
	res := Score(fullMatchCompany(), Related{}, scoreNow)

	total := 0
	for _, s := range res.Signals {
		total += s.Weight
	}
	assert.Equal(t, 100, total)
}

func TestScore_Deterministic(t *testing.T) {
	c := fullMatchCompany()
	related := Related{SubEntityCount: 2}

	first := Score(c, related, scoreNow)
	for i := 0; i < 5; i++ {
		again := Score(c, related, scoreNow)
		assert.Equal(t, first, again)
	}
}

func TestScore_SignalOrderIsFixed(t *testing.T) {
	res := Score(noMatchCompany(), Related{}, scoreNow)

	names := make([]string, len(res.Signals))
	for i, s := range res.Signals {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"company_active", "optimal_employee_count", "target_industry",
		"multiple_branches", "has_website", "has_contact_phone",
		"recently_updated", "commercial_org_form", "has_roles_data",
	}, names)
}

func TestScore_EmployeeCountBoundaries(t *testing.T) {
	c := noMatchCompany()
	c.Status = model.StatusActive

	for _, tc := range []struct {
		employees int
		active    bool
	}{
		{4, false},
		{5, true},
		{250, true},
		{251, false},
	} {
		c.EmployeeCount = tc.employees
		res := Score(c, Related{}, scoreNow)
		var sizeSignal Signal
		for _, s := range res.Signals {
			if s.Name == "optimal_employee_count" {
				sizeSignal = s
			}
		}
		assert.Equal(t, tc.active, sizeSignal.Active, "employees=%d", tc.employees)
	}
}

func TestScore_RecentUpdateWindow(t *testing.T) {
	c := noMatchCompany()

	within := scoreNow.Add(-89 * 24 * time.Hour)
	c.SourceUpdatedAt = &within
	res := Score(c, Related{}, scoreNow)
	assert.Equal(t, 8, res.Overall)

	outside := scoreNow.Add(-91 * 24 * time.Hour)
	c.SourceUpdatedAt = &outside
	res = Score(c, Related{}, scoreNow)
	assert.Equal(t, 0, res.Overall)
}

func TestScore_TopReasons(t *testing.T) {
	res := Score(fullMatchCompany(), Related{SubEntityCount: 3}, scoreNow)

	require.Len(t, res.TopReasons, 3)
	// company_active and target_industry both weigh 20; declaration order
	// breaks the tie, then optimal_employee_count at 15.
	assert.Equal(t, "Company is actively operating", res.TopReasons[0])
	assert.Equal(t, "Transportation - high automation potential", res.TopReasons[1])
	assert.Equal(t, "40 employees - ideal SMB size", res.TopReasons[2])
}

func TestScore_TopReasons_FewerThanThree(t *testing.T) {
	c := noMatchCompany()
	c.Status = model.StatusActive

	res := Score(c, Related{}, scoreNow)
	require.Len(t, res.TopReasons, 1)
	assert.Equal(t, "Company is actively operating", res.TopReasons[0])
}

func TestUseCaseFit(t *testing.T) {
	c := fullMatchCompany()
	// Transportation vertical + optimal size + 49-prefix bonus, capped at 100.
	res := Score(c, Related{}, scoreNow)
	assert.Equal(t, 100, res.UseCaseFit)

	plain := noMatchCompany()
	res = Score(plain, Related{}, scoreNow)
	assert.Equal(t, 50, res.UseCaseFit)
}

func TestUseCaseFit_WarehousingBonus(t *testing.T) {
	c := noMatchCompany()
	c.IndustryCode = "52.100" // Warehousing: vertical (+30) and prefix bonus (+10)
	res := Score(c, Related{}, scoreNow)
	assert.Equal(t, 90, res.UseCaseFit)
}

func TestUrgency(t *testing.T) {
	base := noMatchCompany()
	res := Score(base, Related{}, scoreNow)
	assert.Equal(t, 40, res.Urgency)

	c := fullMatchCompany()
	c.EmployeeCount = 60 // adds the >50 employees bump
	res = Score(c, Related{SubEntityCount: 1}, scoreNow)
	assert.Equal(t, 100, res.Urgency)
}

func TestDataQuality(t *testing.T) {
	base := noMatchCompany()
	res := Score(base, Related{}, scoreNow)
	assert.Equal(t, 30, res.DataQuality)

	c := fullMatchCompany()
	c.Email = "post@vestland.example"
	res = Score(c, Related{}, scoreNow)
	assert.Equal(t, 100, res.DataQuality)
}

func TestResult_Explanations(t *testing.T) {
	res := Score(fullMatchCompany(), Related{SubEntityCount: 1}, scoreNow)

	exps := res.Explanations("company-id")
	require.Len(t, exps, 9)
	for i, e := range exps {
		assert.Equal(t, "company-id", e.CompanyID)
		assert.Equal(t, res.Signals[i].Name, e.Signal)
		assert.Equal(t, res.Signals[i].Weight, e.Weight)
		assert.Equal(t, res.Signals[i].Active, e.Active)
	}
}
