package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// matchRulesFile is the on-disk form of the duplicate rules:
//
//	rules:
//	  - name: national_id
//	    fields: [teudat_zehut]
//	  - name: email
//	    fields: [email]
type matchRulesFile struct {
	Rules []MatchRule `yaml:"rules"`
}

// ParseMatchRules decodes and validates a YAML rule list.
func ParseMatchRules(data []byte) ([]MatchRule, error) {
	var f matchRulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse match rules: %w", err)
	}
	if err := ValidateRules(f.Rules); err != nil {
		return nil, err
	}
	return f.Rules, nil
}

// LoadMatchRules reads the rule file at path. An empty path selects
// DefaultMatchRules.
func LoadMatchRules(path string) ([]MatchRule, error) {
	if path == "" {
		return DefaultMatchRules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read match rules: %w", err)
	}
	rules, err := ParseMatchRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
