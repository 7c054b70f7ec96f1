package mapper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/registry"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func rawEntity() *registry.Entity {
	return &registry.Entity{
		Orgnr:            "911111111",
		Name:             "Vestland Logistikk AS",
		OrganizationForm: &registry.CodeDesc{Code: "AS", Description: "Aksjeselskap"},
		IndustryCode1:    &registry.CodeDesc{Code: "49.410", Description: "Road freight transport"},
		FoundedDate:      "2005-03-15",
		RegisteredDate:   "2026-01-10",
		EmployeeCount:    42,
		Phone:            "+47 55 00 00 00",
		Website:          "https://vestland.example",
		BusinessAddress: &registry.Address{
			Lines:              []string{"Strandgaten 1"},
			PostalCode:         "5013",
			Municipality:       "BERGEN",
			MunicipalityNumber: "4601",
		},
	}
}

func TestMapEntity_Basic(t *testing.T) {
	m := New(nil)
	c := m.MapEntity(context.Background(), rawEntity())

	assert.Equal(t, "911111111", c.Orgnr)
	assert.Equal(t, model.StatusActive, c.Status)
	assert.Equal(t, "AS", c.OrganizationFormCode)
	assert.Equal(t, "49.410", c.IndustryCode)
	assert.Equal(t, 42, c.EmployeeCount)
	assert.Equal(t, "BERGEN", c.Municipality)
	assert.Equal(t, "Vestland", c.County)
	assert.Equal(t, "Strandgaten 1", c.Address)
	require.NotNil(t, c.FoundedDate)
	assert.Equal(t, "2005-03-15", c.FoundedDate.Format("2006-01-02"))
	require.NotNil(t, c.SourceUpdatedAt)
	assert.Equal(t, "2026-01-10", c.SourceUpdatedAt.Format("2006-01-02"))
}

func TestMapEntity_InactiveFlags(t *testing.T) {
	m := New(nil)

	for _, mutate := range []func(*registry.Entity){
		func(e *registry.Entity) { e.Bankrupt = true },
		func(e *registry.Entity) { e.UnderLiquidation = true },
		func(e *registry.Entity) { e.UnderCompulsory = true },
	} {
		ent := rawEntity()
		mutate(ent)
		c := m.MapEntity(context.Background(), ent)
		assert.Equal(t, model.StatusInactive, c.Status)
	}
}

func TestMapEntity_LocationAddressFallback(t *testing.T) {
	m := New(nil)
	ent := rawEntity()
	ent.BusinessAddress = nil
	ent.LocationAddress = &registry.Address{
		Lines:              []string{"Industriveien 2", "Bygg B"},
		Municipality:       "OSLO",
		MunicipalityNumber: "0301",
	}

	c := m.MapEntity(context.Background(), ent)
	assert.Equal(t, "Industriveien 2, Bygg B", c.Address)
	assert.Equal(t, "Oslo", c.County)
}

func TestMapEntity_NoAddress(t *testing.T) {
	m := New(nil)
	ent := rawEntity()
	ent.BusinessAddress = nil

	c := m.MapEntity(context.Background(), ent)
	assert.Empty(t, c.Municipality)
	assert.Empty(t, c.County)
}

func TestMapEntity_InvalidDatesIgnored(t *testing.T) {
	m := New(nil)
	ent := rawEntity()
	ent.FoundedDate = "not-a-date"
	ent.RegisteredDate = ""

	c := m.MapEntity(context.Background(), ent)
	assert.Nil(t, c.FoundedDate)
	assert.Nil(t, c.SourceUpdatedAt)
}

type fakeLogos struct {
	url string
	err error
}

func (f fakeLogos) FindLogo(context.Context, string, string) (string, error) {
	return f.url, f.err
}

func TestMapEntity_LogoBestEffort(t *testing.T) {
	c := New(fakeLogos{url: "https://img.logo.dev/vestland.example"}).
		MapEntity(context.Background(), rawEntity())
	assert.Equal(t, "https://img.logo.dev/vestland.example", c.LogoURL)

	c = New(fakeLogos{err: assert.AnError}).MapEntity(context.Background(), rawEntity())
	assert.Empty(t, c.LogoURL)
}

func TestMapSubEntity(t *testing.T) {
	m := New(nil)
	se := m.MapSubEntity(&registry.Entity{
		Orgnr:         "811111111",
		ParentOrgnr:   "911111111",
		Name:          "Bergen Branch",
		IndustryCode1: &registry.CodeDesc{Code: "52.100"},
		LocationAddress: &registry.Address{
			Lines:        []string{"Kaien 3"},
			Municipality: "BERGEN",
		},
	})

	assert.Equal(t, "811111111", se.Orgnr)
	assert.Equal(t, "911111111", se.ParentOrgnr)
	assert.Equal(t, "52.100", se.IndustryCode)
	assert.Equal(t, "Kaien 3", se.Address)
	assert.Equal(t, "BERGEN", se.Municipality)
}

func TestMapRoles_SkipsResigned(t *testing.T) {
	m := New(nil)
	groups := []registry.RoleGroup{
		{
			Type: registry.CodeDesc{Code: "STYR", Description: "Board"},
			Roles: []registry.RawRole{
				{
					Type:   registry.CodeDesc{Code: "LEDE", Description: "Chair"},
					Person: &registry.RawPerson{FirstName: "Ola", LastName: "Nordmann", BirthDate: "1970-05-20"},
				},
				{
					Type:     registry.CodeDesc{Code: "MEDL", Description: "Board member"},
					Person:   &registry.RawPerson{FirstName: "Resigned", LastName: "Person"},
					Resigned: true,
				},
			},
		},
		{
			Type: registry.CodeDesc{Code: "REVI", Description: "Auditor"},
			Roles: []registry.RawRole{
				{
					Type:   registry.CodeDesc{Code: "REVI", Description: "Auditor"},
					Entity: &registry.RawEntityRef{Names: []string{"Revisjon", "Vest AS"}},
				},
			},
		},
	}

	roles := m.MapRoles("company-id", groups)
	require.Len(t, roles, 2)

	assert.Equal(t, "company-id", roles[0].CompanyID)
	assert.Equal(t, "Chair", roles[0].RoleType)
	assert.Equal(t, "Board", roles[0].RoleGroup)
	assert.Equal(t, "Ola Nordmann", roles[0].PersonName)
	require.NotNil(t, roles[0].BirthDate)

	assert.Equal(t, "Auditor", roles[1].RoleGroup)
	assert.Equal(t, "Revisjon Vest AS", roles[1].EntityName)
}

func TestCountyFor(t *testing.T) {
	assert.Equal(t, "Oslo", CountyFor("0301"))
	assert.Equal(t, "Vestland", CountyFor("4601"))
	assert.Empty(t, CountyFor("9901"))
	assert.Empty(t, CountyFor("1"))
	assert.Empty(t, CountyFor(""))
}

func TestVerticalFor(t *testing.T) {
	assert.Equal(t, "Transportation", VerticalFor("49.410"))
	assert.Equal(t, "Warehousing", VerticalFor("52.100"))
	assert.Equal(t, "Construction", VerticalFor("43.220"))
	assert.Empty(t, VerticalFor("99.000"))
	assert.Empty(t, VerticalFor(""))
}

func TestIsCommercialOrgForm(t *testing.T) {
	assert.True(t, IsCommercialOrgForm("AS"))
	assert.True(t, IsCommercialOrgForm("ENK"))
	assert.False(t, IsCommercialOrgForm("STI"))
	assert.False(t, IsCommercialOrgForm(""))
}
