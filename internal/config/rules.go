package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"propertyops_backend/internal/workorders/domain"
)

// rulesFile is the on-disk shape of the vendor rules configuration.
type rulesFile struct {
	Rules []domain.VendorRule `yaml:"rules"`
}

// LoadVendorRules reads the vendor rule configuration from a YAML file. An
// empty path returns the built-in default rules. The returned RuleSet is an
// immutable value; editing the file only affects runs started after a reload.
func LoadVendorRules(path string) (domain.RuleSet, error) {
	if path == "" {
		return domain.DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RuleSet{}, fmt.Errorf("read vendor rules: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.RuleSet{}, fmt.Errorf("parse vendor rules: %w", err)
	}
	if len(file.Rules) == 0 {
		return domain.RuleSet{}, fmt.Errorf("vendor rules file %s contains no rules", path)
	}

	rs, err := domain.NewRuleSet(file.Rules)
	if err != nil {
		return domain.RuleSet{}, fmt.Errorf("vendor rules file %s: %w", path, err)
	}
	return rs, nil
}
