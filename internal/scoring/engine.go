package scoring

import (
	"fmt"
	"time"

	"github.com/sells-group/leadscout/internal/mapper"
	"github.com/sells-group/leadscout/internal/model"
)

// targetVerticals is the fixed allow-list of verticals judged to have high
// automation and sales potential.
var targetVerticals = map[string]bool{
	"Manufacturing - Food":  true,
	"Manufacturing - Metal": true,
	"Construction":          true,
	"Wholesale Trade":       true,
	"Retail Trade":          true,
	"Transportation":        true,
	"Warehousing":           true,
	"Food Services":         true,
	"Facility Services":     true,
	"Real Estate":           true,
	"Legal & Accounting":    true,
}

// Industry prefixes that earn a use-case-fit bonus on top of the vertical
// check: warehousing and transportation operations.
const (
	bonusPrefixWarehousing    = "52"
	bonusPrefixTransportation = "49"
)

const recentUpdateWindow = 90 * 24 * time.Hour

// Signal is one weighted boolean predicate contributing to the score.
type Signal struct {
	Name   string `json:"signal"`
	Weight int    `json:"weight"`
	Reason string `json:"reason"`
	Active bool   `json:"active"`
}

// Related carries counts of related records that feed signals.
type Related struct {
	SubEntityCount int
}

// Result is the outcome of scoring one company snapshot.
type Result struct {
	Overall     int      `json:"overall"`
	UseCaseFit  int      `json:"use_case_fit"`
	Urgency     int      `json:"urgency"`
	DataQuality int      `json:"data_quality"`
	Signals     []Signal `json:"signals"`
	TopReasons  []string `json:"top_reasons"`
}

// Score computes the weighted lead score and explanations for a snapshot.
// It is pure and deterministic: identical input yields an identical signal
// list, ordering and scores. now is injected so callers control the clock.
func Score(c *model.Company, related Related, now time.Time) Result {
	isActive := c.Status == model.StatusActive
	hasOptimalSize := c.EmployeeCount >= 5 && c.EmployeeCount <= 250
	vertical := mapper.VerticalFor(c.IndustryCode)
	isTargetVertical := targetVerticals[vertical]
	hasBranches := related.SubEntityCount >= 1
	hasWebsite := c.Website != ""
	hasPhone := c.Phone != ""
	isRecent := c.SourceUpdatedAt != nil && now.Sub(*c.SourceUpdatedAt) <= recentUpdateWindow
	isCommercial := mapper.IsCommercialOrgForm(c.OrganizationFormCode)

	signals := []Signal{
		{
			Name:   "company_active",
			Weight: 20,
			Active: isActive,
			Reason: pick(isActive, "Company is actively operating", "Company is inactive"),
		},
		{
			Name:   "optimal_employee_count",
			Weight: 15,
			Active: hasOptimalSize,
			Reason: sizeReason(c.EmployeeCount, hasOptimalSize),
		},
		{
			Name:   "target_industry",
			Weight: 20,
			Active: isTargetVertical,
			Reason: verticalReason(vertical, isTargetVertical),
		},
		{
			Name:   "multiple_branches",
			Weight: 10,
			Active: hasBranches,
			Reason: pick(hasBranches,
				fmt.Sprintf("%d branches - coordination need", related.SubEntityCount),
				"Single location"),
		},
		{
			Name:   "has_website",
			Weight: 8,
			Active: hasWebsite,
			Reason: pick(hasWebsite, "Has web presence", "No website - digital maturity unclear"),
		},
		{
			Name:   "has_contact_phone",
			Weight: 8,
			Active: hasPhone,
			Reason: pick(hasPhone, "Contact phone available", "No phone - harder to reach"),
		},
		{
			Name:   "recently_updated",
			Weight: 8,
			Active: isRecent,
			Reason: recentReason(c.SourceUpdatedAt, isRecent, now),
		},
		{
			Name:   "commercial_org_form",
			Weight: 6,
			Active: isCommercial,
			Reason: pick(isCommercial,
				c.OrganizationFormCode+" - commercial entity",
				"Non-profit or non-commercial form"),
		},
		{
			Name:   "has_roles_data",
			Weight: 5,
			Active: c.RolesLoaded,
			Reason: pick(c.RolesLoaded,
				"Leadership and decision makers identified",
				"No role data loaded"),
		},
	}

	totalWeight := 0
	earned := 0
	for _, s := range signals {
		totalWeight += s.Weight
		if s.Active {
			earned += s.Weight
		}
	}
	// Weights sum to 100, so this rounds earned/total onto a 0-100 scale.
	overall := (earned*100 + totalWeight/2) / totalWeight

	return Result{
		Overall:     overall,
		UseCaseFit:  useCaseFit(c, isTargetVertical, hasOptimalSize),
		Urgency:     urgency(c, isRecent, hasBranches),
		DataQuality: dataQuality(c, hasPhone, hasWebsite),
		Signals:     signals,
		TopReasons:  topReasons(signals, 3),
	}
}

// useCaseFit estimates how well the company matches automation use cases.
func useCaseFit(c *model.Company, isTargetVertical, hasOptimalSize bool) int {
	score := 50
	if isTargetVertical {
		score += 30
	}
	if hasOptimalSize {
		score += 20
	}
	if hasPrefix(c.IndustryCode, bonusPrefixWarehousing) {
		score += 10
	}
	if hasPrefix(c.IndustryCode, bonusPrefixTransportation) {
		score += 10
	}
	return cap100(score)
}

// urgency estimates how actively the company is changing.
func urgency(c *model.Company, isRecent, hasBranches bool) int {
	score := 40
	if isRecent {
		score += 25
	}
	if hasBranches {
		score += 20
	}
	if c.EmployeeCount > 50 {
		score += 15
	}
	return cap100(score)
}

// dataQuality estimates how contactable and well-described the record is.
func dataQuality(c *model.Company, hasPhone, hasWebsite bool) int {
	score := 30
	if hasPhone {
		score += 20
	}
	if hasWebsite {
		score += 20
	}
	if c.RolesLoaded {
		score += 20
	}
	if c.Email != "" {
		score += 10
	}
	return cap100(score)
}

// topReasons returns the reasons of the active signals ordered by weight
// descending, ties kept in declaration order, truncated to n.
func topReasons(signals []Signal, n int) []string {
	active := make([]Signal, 0, len(signals))
	for _, s := range signals {
		if s.Active {
			active = append(active, s)
		}
	}
	// Stable insertion sort by weight descending preserves declaration
	// order among equal weights.
	for i := 1; i < len(active); i++ {
		for j := i; j > 0 && active[j].Weight > active[j-1].Weight; j-- {
			active[j], active[j-1] = active[j-1], active[j]
		}
	}
	if len(active) > n {
		active = active[:n]
	}
	reasons := make([]string, len(active))
	for i, s := range active {
		reasons[i] = s.Reason
	}
	return reasons
}

func sizeReason(employees int, optimal bool) string {
	switch {
	case optimal:
		return fmt.Sprintf("%d employees - ideal SMB size", employees)
	case employees > 250:
		return "Enterprise size - may need a tailored solution"
	default:
		return "Too small - limited budget"
	}
}

func verticalReason(vertical string, target bool) string {
	if target {
		return vertical + " - high automation potential"
	}
	if vertical == "" {
		vertical = "Unknown industry"
	}
	return vertical + " - not a primary target"
}

func recentReason(updatedAt *time.Time, recent bool, now time.Time) string {
	if recent {
		days := int(now.Sub(*updatedAt).Hours() / 24)
		return fmt.Sprintf("Updated %d days ago - active changes", days)
	}
	return "Not recently updated in the registry"
}

func pick(cond bool, whenTrue, whenFalse string) string {
	if cond {
		return whenTrue
	}
	return whenFalse
}

func hasPrefix(code, prefix string) bool {
	return len(code) >= len(prefix) && code[:len(prefix)] == prefix
}

func cap100(v int) int {
	if v > 100 {
		return 100
	}
	return v
}

// Explanations converts a result's signals into persistable explanation rows
// for a company.
func (r Result) Explanations(companyID string) []model.ScoreExplanation {
	out := make([]model.ScoreExplanation, len(r.Signals))
	for i, s := range r.Signals {
		out[i] = model.ScoreExplanation{
			CompanyID: companyID,
			Signal:    s.Name,
			Weight:    s.Weight,
			Reason:    s.Reason,
			Active:    s.Active,
		}
	}
	return out
}
