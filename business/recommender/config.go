package recommender

import (
	"fmt"
	"math"
	"time"

	"policyPortal/domain"
)

type Weights struct {
	Age           float64 `yaml:"age"`
	Affordability float64 `yaml:"affordability"`
	GoalMatch     float64 `yaml:"goal_match"`
	RiskAlignment float64 `yaml:"risk_alignment"`
}

const weightTolerance = 1e-6

func (w Weights) Sum() float64 {
	return w.Age + w.Affordability + w.GoalMatch + w.RiskAlignment
}

// Validate rejects negative weights and sets that do not sum to 1.0.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Age, w.Affordability, w.GoalMatch, w.RiskAlignment} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative weight %f", domain.ErrWeightConfiguration, v)
		}
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, must sum to 1.0", domain.ErrWeightConfiguration, w.Sum())
	}
	return nil
}

// Tables holds every categorical lookup the scorers use.
type Tables struct {
	Weights               Weights                          `yaml:"weights"`
	Affordability         AffordabilityStrategy            `yaml:"affordability"`
	OccupationRisk        map[string]float64               `yaml:"occupation_risk"`
	DefaultOccupationRisk float64                          `yaml:"default_occupation_risk"`
	RiskVocabulary        map[domain.RiskAppetite][]string `yaml:"risk_vocabulary"`
}

const (
	defaultWeightAge           = 0.30
	defaultWeightAffordability = 0.20
	defaultWeightGoalMatch     = 0.30
	defaultWeightRiskAlignment = 0.20
	defaultOccupationRisk      = 0.5

	minTrainingExamples = 2
)

func DefaultTables() Tables {
	return Tables{
		Weights: Weights{
			Age:           defaultWeightAge,
			Affordability: defaultWeightAffordability,
			GoalMatch:     defaultWeightGoalMatch,
			RiskAlignment: defaultWeightRiskAlignment,
		},
		Affordability: AffordabilityLinear,
		OccupationRisk: map[string]float64{
			"student":       0.2,
			"retired":       0.3,
			"professional":  0.4,
			"salaried":      0.4,
			"business":      0.6,
			"self-employed": 0.7,
			"high-risk":     0.9,
		},
		DefaultOccupationRisk: defaultOccupationRisk,
		RiskVocabulary: map[domain.RiskAppetite][]string{
			domain.RiskLow:    {"stable", "guaranteed", "conservative"},
			domain.RiskMedium: {"balanced", "moderate", "hybrid"},
			domain.RiskHigh:   {"growth", "aggressive", "market-linked"},
		},
	}
}

func (t Tables) Validate() error {
	if err := t.Weights.Validate(); err != nil {
		return err
	}
	if _, ok := affordabilityStrategies[t.Affordability]; !ok {
		return fmt.Errorf("%w: unknown affordability strategy %q", domain.ErrWeightConfiguration, t.Affordability)
	}
	for k, v := range t.OccupationRisk {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: occupation risk for %q must be within [0,1]", domain.ErrWeightConfiguration, k)
		}
	}
	if t.DefaultOccupationRisk < 0 || t.DefaultOccupationRisk > 1 {
		return fmt.Errorf("%w: default occupation risk must be within [0,1]", domain.ErrWeightConfiguration)
	}
	return nil
}

// TrainingConfig controls the learned scorer's optimisation loop.
type TrainingConfig struct {
	Epochs          int
	BatchSize       int
	LearningRate    float64
	ValidationSplit float64
	MinExamples     int
	Seed            int64
	Hidden          []int
}

const (
	defaultEpochs          = 50
	defaultBatchSize       = 32
	defaultLearningRate    = 0.001
	defaultValidationSplit = 0.2
	defaultMinExamples     = 10
	defaultSeed            = 42
	defaultTopN            = 5
	defaultRetrainTimeout  = 5 * time.Minute
)

func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Epochs:          defaultEpochs,
		BatchSize:       defaultBatchSize,
		LearningRate:    defaultLearningRate,
		ValidationSplit: defaultValidationSplit,
		MinExamples:     defaultMinExamples,
		Seed:            defaultSeed,
		Hidden:          []int{32, 16},
	}
}

// withDefaults fills zero fields so partially populated configs stay usable.
func (c TrainingConfig) withDefaults() TrainingConfig {
	d := DefaultTrainingConfig()
	if c.Epochs <= 0 {
		c.Epochs = d.Epochs
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.LearningRate <= 0 {
		c.LearningRate = d.LearningRate
	}
	if c.ValidationSplit <= 0 || c.ValidationSplit >= 1 {
		c.ValidationSplit = d.ValidationSplit
	}
	// a validation split needs at least two examples
	switch {
	case c.MinExamples <= 0:
		c.MinExamples = d.MinExamples
	case c.MinExamples < minTrainingExamples:
		c.MinExamples = minTrainingExamples
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	if len(c.Hidden) == 0 {
		c.Hidden = d.Hidden
	}
	return c
}
