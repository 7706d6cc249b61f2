package core

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseMatchRules(t *testing.T) {
	data := []byte(`
rules:
  - name: national_id
    fields: [teudat_zehut]
  - name: name_and_birth
    fields:
      - first_name
      - last_name
      - birth_date
`)
	rules, err := ParseMatchRules(data)
	if err != nil {
		t.Fatalf("ParseMatchRules: %v", err)
	}
	want := []MatchRule{
		{Name: "national_id", Fields: []string{FieldTeudatZehut}},
		{Name: "name_and_birth", Fields: []string{FieldFirstName, FieldLastName, FieldBirthDate}},
	}
	if !reflect.DeepEqual(rules, want) {
		t.Errorf("rules = %+v, want %+v", rules, want)
	}
}

func TestParseMatchRules_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":      "rules: [",
		"no rules":      "rules: []",
		"unknown field": "rules:\n  - name: x\n    fields: [nickname]\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseMatchRules([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMatchRules(t *testing.T) {
	rules, err := LoadMatchRules("")
	if err != nil {
		t.Fatalf("LoadMatchRules(\"\"): %v", err)
	}
	if !reflect.DeepEqual(rules, DefaultMatchRules) {
		t.Errorf("empty path should select DefaultMatchRules")
	}

	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("rules:\n  - name: email\n    fields: [email]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	rules, err = LoadMatchRules(path)
	if err != nil {
		t.Fatalf("LoadMatchRules: %v", err)
	}
	if len(rules) != 1 || rules[0].Fields[0] != FieldEmail {
		t.Errorf("rules = %+v", rules)
	}

	if _, err := LoadMatchRules(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
