package scoring

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadscout/internal/model"
)

// Custom scoring models let users define their own weighted signals without
// any dynamic code execution. A condition is a closed-form expression tree
// over a fixed whitelist of company fields and comparison operators; there is
// no string evaluation.

// Op is a comparison operator in a leaf condition.
type Op string

const (
	OpEq     Op = "eq"
	OpNe     Op = "ne"
	OpGt     Op = "gt"
	OpGte    Op = "gte"
	OpLt     Op = "lt"
	OpLte    Op = "lte"
	OpPrefix Op = "prefix"
	OpIn     Op = "in"
	OpSet    Op = "set" // field is non-empty / true
)

// Cond is one node in the condition tree. Exactly one of the comparison
// form (Field+Op) or a boolean combinator (All/Any/Not) must be used.
type Cond struct {
	Field  string   `yaml:"field,omitempty"`
	Op     Op       `yaml:"op,omitempty"`
	Value  string   `yaml:"value,omitempty"`
	Number *float64 `yaml:"number,omitempty"`
	Values []string `yaml:"values,omitempty"`

	All []Cond `yaml:"all,omitempty"`
	Any []Cond `yaml:"any,omitempty"`
	Not *Cond  `yaml:"not,omitempty"`
}

// CustomSignal is one user-defined weighted signal.
type CustomSignal struct {
	Name   string `yaml:"signal"`
	Weight int    `yaml:"weight"`
	Reason string `yaml:"reason"`
	Cond   Cond   `yaml:"when"`
}

// CustomModel is a user-defined scoring model.
type CustomModel struct {
	Name    string         `yaml:"name"`
	Signals []CustomSignal `yaml:"signals"`
}

// numericFields and stringFields whitelist what a condition may reference.
var numericFields = map[string]func(*model.Company, Related) float64{
	"employee_count":   func(c *model.Company, _ Related) float64 { return float64(c.EmployeeCount) },
	"sub_entity_count": func(_ *model.Company, r Related) float64 { return float64(r.SubEntityCount) },
	"overall_score":    func(c *model.Company, _ Related) float64 { return float64(c.OverallScore) },
}

var stringFields = map[string]func(*model.Company) string{
	"status":                 func(c *model.Company) string { return string(c.Status) },
	"organization_form_code": func(c *model.Company) string { return c.OrganizationFormCode },
	"industry_code":          func(c *model.Company) string { return c.IndustryCode },
	"municipality":           func(c *model.Company) string { return c.Municipality },
	"county":                 func(c *model.Company) string { return c.County },
	"postal_code":            func(c *model.Company) string { return c.PostalCode },
	"website":                func(c *model.Company) string { return c.Website },
	"phone":                  func(c *model.Company) string { return c.Phone },
	"email":                  func(c *model.Company) string { return c.Email },
}

var boolFields = map[string]func(*model.Company) bool{
	"roles_loaded": func(c *model.Company) bool { return c.RolesLoaded },
}

// LoadModel parses a custom scoring model from YAML and validates it.
func LoadModel(r io.Reader) (*CustomModel, error) {
	var m CustomModel
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, eris.Wrap(err, "scoring: parse custom model")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every signal has a positive weight and that every
// condition only references whitelisted fields and operators.
func (m *CustomModel) Validate() error {
	if len(m.Signals) == 0 {
		return eris.New("scoring: custom model has no signals")
	}
	for _, s := range m.Signals {
		if s.Name == "" {
			return eris.New("scoring: custom signal missing name")
		}
		if s.Weight <= 0 {
			return eris.Errorf("scoring: signal %q has non-positive weight", s.Name)
		}
		if err := s.Cond.validate(); err != nil {
			return eris.Wrapf(err, "scoring: signal %q", s.Name)
		}
	}
	return nil
}

func (c *Cond) validate() error {
	combinators := 0
	if len(c.All) > 0 {
		combinators++
	}
	if len(c.Any) > 0 {
		combinators++
	}
	if c.Not != nil {
		combinators++
	}

	if combinators > 1 {
		return eris.New("condition mixes all/any/not combinators")
	}
	if combinators == 1 {
		if c.Field != "" || c.Op != "" {
			return eris.New("condition mixes combinator and comparison")
		}
		for i := range c.All {
			if err := c.All[i].validate(); err != nil {
				return err
			}
		}
		for i := range c.Any {
			if err := c.Any[i].validate(); err != nil {
				return err
			}
		}
		if c.Not != nil {
			return c.Not.validate()
		}
		return nil
	}

	if c.Field == "" {
		return eris.New("empty condition")
	}

	_, isNum := numericFields[c.Field]
	_, isStr := stringFields[c.Field]
	_, isBool := boolFields[c.Field]
	if !isNum && !isStr && !isBool {
		return eris.Errorf("field %q is not in the scoring whitelist", c.Field)
	}

	switch c.Op {
	case OpEq, OpNe, OpSet:
	case OpGt, OpGte, OpLt, OpLte:
		if !isNum {
			return eris.Errorf("operator %q requires a numeric field, got %q", c.Op, c.Field)
		}
		if c.Number == nil {
			return eris.Errorf("operator %q requires a number", c.Op)
		}
	case OpPrefix:
		if !isStr {
			return eris.Errorf("operator prefix requires a string field, got %q", c.Field)
		}
	case OpIn:
		if !isStr {
			return eris.Errorf("operator in requires a string field, got %q", c.Field)
		}
		if len(c.Values) == 0 {
			return eris.New("operator in requires values")
		}
	default:
		return eris.Errorf("unknown operator %q", c.Op)
	}
	return nil
}

// Eval evaluates the condition against a company snapshot.
func (c *Cond) Eval(company *model.Company, related Related) bool {
	switch {
	case len(c.All) > 0:
		for i := range c.All {
			if !c.All[i].Eval(company, related) {
				return false
			}
		}
		return true
	case len(c.Any) > 0:
		for i := range c.Any {
			if c.Any[i].Eval(company, related) {
				return true
			}
		}
		return false
	case c.Not != nil:
		return !c.Not.Eval(company, related)
	}

	if get, ok := numericFields[c.Field]; ok {
		v := get(company, related)
		var cmp float64
		if c.Number != nil {
			cmp = *c.Number
		}
		switch c.Op {
		case OpEq:
			return v == cmp
		case OpNe:
			return v != cmp
		case OpGt:
			return v > cmp
		case OpGte:
			return v >= cmp
		case OpLt:
			return v < cmp
		case OpLte:
			return v <= cmp
		case OpSet:
			return v != 0
		}
		return false
	}

	if get, ok := boolFields[c.Field]; ok {
		v := get(company)
		switch c.Op {
		case OpEq:
			return fmt.Sprintf("%t", v) == c.Value
		case OpNe:
			return fmt.Sprintf("%t", v) != c.Value
		case OpSet:
			return v
		}
		return false
	}

	get := stringFields[c.Field]
	v := get(company)
	switch c.Op {
	case OpEq:
		return v == c.Value
	case OpNe:
		return v != c.Value
	case OpPrefix:
		return strings.HasPrefix(v, c.Value)
	case OpIn:
		for _, cand := range c.Values {
			if v == cand {
				return true
			}
		}
		return false
	case OpSet:
		return v != ""
	}
	return false
}

// ScoreCustom evaluates a custom model against a snapshot. The overall score
// is the earned weight normalized to 0-100, mirroring the built-in engine.
func ScoreCustom(m *CustomModel, c *model.Company, related Related) Result {
	signals := make([]Signal, len(m.Signals))
	totalWeight := 0
	earned := 0
	for i, cs := range m.Signals {
		active := cs.Cond.Eval(c, related)
		signals[i] = Signal{
			Name:   cs.Name,
			Weight: cs.Weight,
			Reason: cs.Reason,
			Active: active,
		}
		totalWeight += cs.Weight
		if active {
			earned += cs.Weight
		}
	}

	overall := 0
	if totalWeight > 0 {
		overall = (earned*100 + totalWeight/2) / totalWeight
	}
	return Result{
		Overall:    overall,
		Signals:    signals,
		TopReasons: topReasons(signals, 3),
	}
}
