package recommender

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"policyPortal/domain"
	"policyPortal/pkg/logger"

	"gopkg.in/yaml.v3"
)

// LoadTables reads scoring tables from a YAML file. Fields missing from the
// file keep their defaults; an empty path returns the defaults.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("scoring tables file not found, using defaults", "path", path)
			return tables, nil
		}
		return Tables{}, fmt.Errorf("read scoring tables: %w", err)
	}

	return ParseTables(data)
}

// tablesFile is the on-disk shape of Tables. Pointers mark scalars whose zero
// value is a legal setting.
type tablesFile struct {
	Weights               Weights                          `yaml:"weights"`
	Affordability         AffordabilityStrategy            `yaml:"affordability"`
	OccupationRisk        map[string]float64               `yaml:"occupation_risk"`
	DefaultOccupationRisk *float64                         `yaml:"default_occupation_risk"`
	RiskVocabulary        map[domain.RiskAppetite][]string `yaml:"risk_vocabulary"`
}

// ParseTables decodes YAML over the default tables.
func ParseTables(data []byte) (Tables, error) {
	tables := DefaultTables()

	var raw tablesFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Tables{}, fmt.Errorf("parse scoring tables: %w", err)
	}

	if raw.Weights != (Weights{}) {
		tables.Weights = raw.Weights
	}
	if raw.Affordability != "" {
		tables.Affordability = AffordabilityStrategy(strings.ToLower(string(raw.Affordability)))
	}
	if len(raw.OccupationRisk) > 0 {
		tables.OccupationRisk = make(map[string]float64, len(raw.OccupationRisk))
		for k, v := range raw.OccupationRisk {
			tables.OccupationRisk[normalizeOccupation(k)] = v
		}
	}
	if raw.DefaultOccupationRisk != nil {
		tables.DefaultOccupationRisk = *raw.DefaultOccupationRisk
	}
	for tier, words := range raw.RiskVocabulary {
		tier = domain.RiskAppetite(strings.ToLower(string(tier)))
		tables.RiskVocabulary[tier] = lowerAll(words)
	}

	if err := tables.Validate(); err != nil {
		return Tables{}, err
	}
	return tables, nil
}
