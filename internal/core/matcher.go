package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	db "github.com/JonMunkholm/alumni/internal/database"
	"github.com/JonMunkholm/alumni/internal/validate"
)

// MatchRule is one way of recognising an incoming row as an existing
// graduate: every listed field must be non-empty and equal after
// normalization.
type MatchRule struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
}

// DefaultMatchRules are evaluated in order. For each incoming row only the
// first rule whose fields are all present is applied.
var DefaultMatchRules = []MatchRule{
	{Name: "national_id", Fields: []string{FieldTeudatZehut}},
	{Name: "name_and_phone", Fields: []string{FieldFirstName, FieldLastName, FieldPhone}},
	{Name: "email", Fields: []string{FieldEmail}},
}

// ValidateRules rejects empty rule lists, empty rules and unknown fields.
func ValidateRules(rules []MatchRule) error {
	if len(rules) == 0 {
		return fmt.Errorf("match rules: at least one rule is required")
	}
	for i, r := range rules {
		if len(r.Fields) == 0 {
			return fmt.Errorf("match rule %d (%s): no fields", i+1, r.Name)
		}
		for _, f := range r.Fields {
			if _, ok := FieldLabels[f]; !ok {
				return fmt.Errorf("match rule %d (%s): unknown field %q", i+1, r.Name, f)
			}
		}
	}
	return nil
}

const keySep = "\x1f"

// matchValue normalizes one field for comparison.
func matchValue(field, v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	switch field {
	case FieldTeudatZehut:
		return validate.PadNationalID(v)
	case FieldPhone, FieldHomePhone:
		return validate.PhoneDigits(v)
	case FieldBirthDate:
		return validate.NormalizeDate(v)
	default:
		return strings.ToLower(norm.NFC.String(v))
	}
}

// ruleKey builds the lookup key of data under rule. ok is false when any of
// the rule's fields is empty.
func ruleKey(rule MatchRule, data GraduateFields) (key string, ok bool) {
	parts := make([]string, len(rule.Fields))
	for i, f := range rule.Fields {
		v := matchValue(f, data.Get(f))
		if v == "" {
			return "", false
		}
		parts[i] = v
	}
	return strings.Join(parts, keySep), true
}

// Matcher finds existing graduates that collide with incoming rows. It is
// built once per preview from the active records and is read-only after.
type Matcher struct {
	rules   []MatchRule
	indexes []map[string]int64 // one per rule: key -> lowest graduate id
}

// NewMatcher indexes existing. Soft-deleted records are skipped. When several
// records share a key, the one with the lowest id is kept.
func NewMatcher(rules []MatchRule, existing []db.Graduate) *Matcher {
	if len(rules) == 0 {
		rules = DefaultMatchRules
	}
	m := &Matcher{
		rules:   rules,
		indexes: make([]map[string]int64, len(rules)),
	}
	for i := range m.indexes {
		m.indexes[i] = make(map[string]int64)
	}

	for _, g := range existing {
		if g.DeletedAt != nil {
			continue
		}
		fields := FieldsOf(g)
		for i, rule := range m.rules {
			key, ok := ruleKey(rule, fields)
			if !ok {
				continue
			}
			if id, seen := m.indexes[i][key]; !seen || g.ID < id {
				m.indexes[i][key] = g.ID
			}
		}
	}
	return m
}

// Match reports the existing graduate that data collides with, and the
// fields of the rule that matched.
func (m *Matcher) Match(data GraduateFields) (id int64, fields []string, ok bool) {
	for i, rule := range m.rules {
		key, applicable := ruleKey(rule, data)
		if !applicable {
			continue
		}
		// Only the first applicable rule is consulted.
		if gid, found := m.indexes[i][key]; found {
			return gid, append([]string(nil), rule.Fields...), true
		}
		return 0, nil, false
	}
	return 0, nil, false
}
