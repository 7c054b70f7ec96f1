package mapper

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/registry"
)

// countyByMunicipalityPrefix maps the first two digits of a municipality
// number to its county. Unmapped prefixes yield no county, not an error.
var countyByMunicipalityPrefix = map[string]string{
	"03": "Oslo",
	"11": "Rogaland",
	"15": "Møre og Romsdal",
	"18": "Nordland",
	"31": "Østfold",
	"32": "Akershus",
	"33": "Buskerud",
	"34": "Innlandet",
	"38": "Vestfold og Telemark",
	"42": "Agder",
	"46": "Vestland",
	"50": "Trøndelag",
	"54": "Troms og Finnmark",
}

// verticalByIndustryPrefix maps the first two digits of an industry code to
// a sales vertical. Codes outside the table map to no vertical.
var verticalByIndustryPrefix = map[string]string{
	"10": "Manufacturing - Food",
	"25": "Manufacturing - Metal",
	"41": "Construction",
	"42": "Construction",
	"43": "Construction",
	"45": "Retail - Automotive",
	"46": "Wholesale Trade",
	"47": "Retail Trade",
	"49": "Transportation",
	"50": "Transportation",
	"51": "Transportation",
	"52": "Warehousing",
	"55": "Accommodation",
	"56": "Food Services",
	"62": "IT Services",
	"68": "Real Estate",
	"69": "Legal & Accounting",
	"70": "Management Consulting",
	"71": "Architecture & Engineering",
	"81": "Facility Services",
	"86": "Healthcare",
	"87": "Social Services",
}

// commercialOrgForms is the fixed set of legal-entity codes treated as
// eligible business targets.
var commercialOrgForms = map[string]bool{
	"AS":  true, // Aksjeselskap
	"ASA": true, // Allmennaksjeselskap
	"ENK": true, // Enkeltpersonforetak
	"ANS": true, // Ansvarlig selskap
	"DA":  true, // Selskap med delt ansvar
	"FLI": true, // Filial av utenlandsk foretak
	"NUF": true, // Norskregistrert utenlandsk foretak
}

// LogoFinder resolves a logo URL for a company website. Lookups are
// best-effort: a failure never blocks mapping.
type LogoFinder interface {
	FindLogo(ctx context.Context, website, name string) (string, error)
}

// Mapper transforms raw registry records into normalized snapshots.
type Mapper struct {
	logos LogoFinder
}

// New creates a Mapper. logos may be nil to disable logo lookups.
func New(logos LogoFinder) *Mapper {
	return &Mapper{logos: logos}
}

// MapEntity converts a raw registry entity into a Company snapshot.
// Explicit closure, liquidation or bankruptcy flags force inactive status
// regardless of anything else.
func (m *Mapper) MapEntity(ctx context.Context, ent *registry.Entity) model.Company {
	addr := ent.BusinessAddress
	if addr == nil {
		addr = ent.LocationAddress
	}

	status := model.StatusActive
	if ent.Bankrupt || ent.UnderLiquidation || ent.UnderCompulsory {
		status = model.StatusInactive
	}

	c := model.Company{
		Orgnr:         ent.Orgnr,
		Name:          ent.Name,
		Status:        status,
		EmployeeCount: ent.EmployeeCount,
		Phone:         ent.Phone,
		Website:       ent.Website,
		Email:         ent.Email,
		FoundedDate:   parseDate(ent.FoundedDate),
	}

	if ent.OrganizationForm != nil {
		c.OrganizationFormCode = ent.OrganizationForm.Code
		c.OrganizationFormName = ent.OrganizationForm.Description
	}
	if ent.IndustryCode1 != nil {
		c.IndustryCode = ent.IndustryCode1.Code
		c.IndustryDescription = ent.IndustryCode1.Description
	}
	if addr != nil {
		c.Municipality = addr.Municipality
		c.MunicipalityNumber = addr.MunicipalityNumber
		c.County = CountyFor(addr.MunicipalityNumber)
		c.PostalCode = addr.PostalCode
		c.Address = strings.Join(addr.Lines, ", ")
	}
	c.SourceUpdatedAt = parseDate(ent.RegisteredDate)

	if m.logos != nil && ent.Website != "" {
		logo, err := m.logos.FindLogo(ctx, ent.Website, ent.Name)
		if err != nil {
			zap.L().Debug("logo lookup failed",
				zap.String("orgnr", ent.Orgnr),
				zap.Error(err),
			)
		} else {
			c.LogoURL = logo
		}
	}

	return c
}

// MapSubEntity converts a raw sub-entity record into a SubEntity owned by
// its parent orgnr.
func (m *Mapper) MapSubEntity(ent *registry.Entity) model.SubEntity {
	se := model.SubEntity{
		Orgnr:       ent.Orgnr,
		ParentOrgnr: ent.ParentOrgnr,
		Name:        ent.Name,
	}
	if ent.IndustryCode1 != nil {
		se.IndustryCode = ent.IndustryCode1.Code
	}
	if addr := ent.LocationAddress; addr != nil {
		se.Address = strings.Join(addr.Lines, ", ")
		se.Municipality = addr.Municipality
	}
	return se
}

// MapRoles flattens role groups into Role rows for a company, skipping
// resigned role holders.
func (m *Mapper) MapRoles(companyID string, groups []registry.RoleGroup) []model.Role {
	var roles []model.Role
	for _, g := range groups {
		for _, r := range g.Roles {
			if r.Resigned {
				continue
			}
			role := model.Role{
				CompanyID: companyID,
				RoleType:  r.Type.Description,
				RoleGroup: g.Type.Description,
			}
			if r.Person != nil {
				role.PersonName = strings.TrimSpace(r.Person.FirstName + " " + r.Person.LastName)
				role.BirthDate = parseDate(r.Person.BirthDate)
			}
			if r.Entity != nil && len(r.Entity.Names) > 0 {
				role.EntityName = strings.Join(r.Entity.Names, " ")
			}
			roles = append(roles, role)
		}
	}
	return roles
}

// CountyFor derives a county from the first two digits of a municipality
// number. Returns "" for unmapped prefixes.
func CountyFor(municipalityNumber string) string {
	if len(municipalityNumber) < 2 {
		return ""
	}
	return countyByMunicipalityPrefix[municipalityNumber[:2]]
}

// VerticalFor classifies an industry code into a sales vertical by its
// two-digit prefix. Returns "" when the code has no vertical.
func VerticalFor(industryCode string) string {
	if len(industryCode) < 2 {
		return ""
	}
	return verticalByIndustryPrefix[industryCode[:2]]
}

// IsCommercialOrgForm reports whether the organization-form code is in the
// commercial allow-list.
func IsCommercialOrgForm(code string) bool {
	return commercialOrgForms[code]
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
