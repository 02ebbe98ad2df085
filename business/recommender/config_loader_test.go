package recommender

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"policyPortal/domain"
)

func TestParseTables_OverridesDefaults(t *testing.T) {
	data := []byte(`
weights:
  age: 0.25
  affordability: 0.25
  goal_match: 0.25
  risk_alignment: 0.25
affordability: STEP
occupation_risk:
  Self Employed: 0.8
  nurse: 0.3
risk_vocabulary:
  HIGH: [Equity, growth]
`)
	tables, err := ParseTables(data)
	if err != nil {
		t.Fatalf("ParseTables() error = %v", err)
	}

	if tables.Weights.Age != 0.25 {
		t.Errorf("Weights.Age = %v, want 0.25", tables.Weights.Age)
	}
	if tables.Affordability != AffordabilityStep {
		t.Errorf("Affordability = %q, want step", tables.Affordability)
	}
	if got := tables.occupationRisk("self-employed"); got != 0.8 {
		t.Errorf("occupationRisk(self-employed) = %v, want 0.8", got)
	}
	if got := tables.occupationRisk("student"); got != tables.DefaultOccupationRisk {
		t.Errorf("occupationRisk(student) = %v, want default once the table is replaced", got)
	}
	if got := tables.RiskVocabulary[domain.RiskHigh]; len(got) != 2 || got[0] != "equity" {
		t.Errorf("RiskVocabulary[high] = %v, want [equity growth]", got)
	}
	if got := tables.RiskVocabulary[domain.RiskLow]; len(got) != 3 {
		t.Errorf("RiskVocabulary[low] = %v, want defaults kept", got)
	}
}

func TestParseTables_RejectsBadWeights(t *testing.T) {
	data := []byte(`
weights:
  age: 0.9
  affordability: 0.9
`)
	if _, err := ParseTables(data); !errors.Is(err, domain.ErrWeightConfiguration) {
		t.Errorf("ParseTables() error = %v, want ErrWeightConfiguration", err)
	}
}

func TestParseTables_DefaultOccupationRisk(t *testing.T) {
	tests := []struct {
		name string
		data string
		want float64
	}{
		{"absent keeps default", "affordability: linear\n", defaultOccupationRisk},
		{"explicit zero", "default_occupation_risk: 0\n", 0},
		{"explicit value", "default_occupation_risk: 0.9\n", 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := ParseTables([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseTables() error = %v", err)
			}
			if tables.DefaultOccupationRisk != tt.want {
				t.Errorf("DefaultOccupationRisk = %v, want %v", tables.DefaultOccupationRisk, tt.want)
			}
			if got := tables.occupationRisk("astronaut"); got != tt.want {
				t.Errorf("occupationRisk(astronaut) = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ParseTables([]byte("default_occupation_risk: -0.1\n")); !errors.Is(err, domain.ErrWeightConfiguration) {
		t.Errorf("ParseTables(negative) error = %v, want ErrWeightConfiguration", err)
	}
}

func TestTrainingConfig_MinExamples(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultTrainingConfig().MinExamples},
		{-3, DefaultTrainingConfig().MinExamples},
		{1, 2},
		{2, 2},
		{5, 5},
	}
	for _, tt := range tests {
		if got := (TrainingConfig{MinExamples: tt.in}).withDefaults().MinExamples; got != tt.want {
			t.Errorf("withDefaults(MinExamples: %d).MinExamples = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLoadTables(t *testing.T) {
	tables, err := LoadTables("")
	if err != nil {
		t.Fatalf("LoadTables(\"\") error = %v", err)
	}
	if tables.Affordability != AffordabilityLinear {
		t.Errorf("default Affordability = %q, want linear", tables.Affordability)
	}

	if _, err := LoadTables(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Errorf("LoadTables(missing) error = %v, want defaults", err)
	}

	path := filepath.Join(t.TempDir(), "scoring.yaml")
	if err := os.WriteFile(path, []byte("affordability: step\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	tables, err = LoadTables(path)
	if err != nil {
		t.Fatalf("LoadTables() error = %v", err)
	}
	if tables.Affordability != AffordabilityStep {
		t.Errorf("Affordability = %q, want step", tables.Affordability)
	}
}

func TestTargetForEvent(t *testing.T) {
	tests := []struct {
		event string
		want  float64
	}{
		{domain.EventDismissed, 0},
		{domain.EventViewed, 0.3},
		{domain.EventCompared, 0.5},
		{domain.EventFavorited, 0.7},
		{domain.EventPurchased, 1},
	}
	for _, tt := range tests {
		got, err := TargetForEvent(tt.event)
		if err != nil || got != tt.want {
			t.Errorf("TargetForEvent(%q) = %v, %v; want %v", tt.event, got, err, tt.want)
		}
	}
	if _, err := TargetForEvent("shared"); err == nil {
		t.Errorf("TargetForEvent(unknown) error = nil")
	}
}
