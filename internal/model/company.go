package model

import "time"

// CompanyStatus is the lifecycle status of a registered organization.
type CompanyStatus string

const (
	StatusActive   CompanyStatus = "active"
	StatusInactive CompanyStatus = "inactive"
)

// Company is the normalized snapshot of one registered organization at the
// time it was last seen in the registry. Orgnr is the registry's unique
// organization number and the only upsert key.
type Company struct {
	ID                   string        `json:"id"`
	Orgnr                string        `json:"orgnr"`
	Name                 string        `json:"name"`
	Status               CompanyStatus `json:"status"`
	OrganizationFormCode string        `json:"organization_form_code,omitempty"`
	OrganizationFormName string        `json:"organization_form_name,omitempty"`
	FoundedDate          *time.Time    `json:"founded_date,omitempty"`
	Municipality         string        `json:"municipality,omitempty"`
	MunicipalityNumber   string        `json:"municipality_number,omitempty"`
	County               string        `json:"county,omitempty"`
	PostalCode           string        `json:"postal_code,omitempty"`
	Address              string        `json:"address,omitempty"`
	IndustryCode         string        `json:"industry_code,omitempty"`
	IndustryDescription  string        `json:"industry_description,omitempty"`
	EmployeeCount        int           `json:"employee_count"`
	Phone                string        `json:"phone,omitempty"`
	Website              string        `json:"website,omitempty"`
	Email                string        `json:"email,omitempty"`
	LogoURL              string        `json:"logo_url,omitempty"`
	RolesLoaded          bool          `json:"roles_loaded"`

	OverallScore     int    `json:"overall_score"`
	UseCaseFit       int    `json:"use_case_fit"`
	UrgencyScore     int    `json:"urgency_score"`
	DataQualityScore int    `json:"data_quality_score"`
	Summary          string `json:"summary,omitempty"`

	SourceUpdatedAt *time.Time `json:"source_updated_at,omitempty"`
	LastSeenAt      time.Time  `json:"last_seen_at"`
}

// SubEntity is a branch or secondary location owned by a parent Company
// via its orgnr. Sub-entities are only persisted when the parent already
// exists locally.
type SubEntity struct {
	ID           string    `json:"id"`
	Orgnr        string    `json:"orgnr"`
	ParentOrgnr  string    `json:"parent_orgnr"`
	Name         string    `json:"name"`
	IndustryCode string    `json:"industry_code,omitempty"`
	Address      string    `json:"address,omitempty"`
	Municipality string    `json:"municipality,omitempty"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// Role is one registered role holder (board member, CEO, auditor, ...)
// attached to a company.
type Role struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"company_id"`
	RoleType   string     `json:"role_type"`
	RoleGroup  string     `json:"role_group"`
	PersonName string     `json:"person_name,omitempty"`
	EntityName string     `json:"entity_name,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
}

// ScoreExplanation is the persisted record of one scoring signal for a
// company at its most recent scoring pass. The full set for a company is
// replaced atomically every time scoring runs.
type ScoreExplanation struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Signal    string `json:"signal"`
	Weight    int    `json:"weight"`
	Reason    string `json:"reason"`
	Active    bool   `json:"active"`
}
