package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/intake-tracker/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ParseRules parses a YAML rules file describing the time column, the intake
// keywords and the default form columns. Missing keys keep their defaults.
func ParseRules(filePath string) (*models.Rules, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseRulesFromReader(file)
}

// ParseRulesFromReader parses rules from an io.Reader.
func ParseRulesFromReader(r io.Reader) (*models.Rules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	rules := models.DefaultRules()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, err
	}

	rules.TimeColumn = strings.TrimSpace(rules.TimeColumn)
	if rules.TimeColumn == "" {
		return nil, fmt.Errorf("rules: time_column must not be empty")
	}
	if rules.FallbackSeries < 0 {
		return nil, fmt.Errorf("rules: fallback_series must not be negative, got %d", rules.FallbackSeries)
	}
	keywords := rules.IntakeKeywords[:0]
	for _, k := range rules.IntakeKeywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	rules.IntakeKeywords = keywords

	return rules, nil
}

// LoadRules reads the rules file at path, or returns the defaults when path
// is empty or the file does not exist.
func LoadRules(path string) (*models.Rules, error) {
	if path == "" {
		return models.DefaultRules(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return models.DefaultRules(), nil
	}
	rules, err := ParseRules(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules %s: %w", path, err)
	}
	return rules, nil
}
