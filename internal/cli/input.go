package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"policyPortal/business/recommender"
	"policyPortal/domain"
	"policyPortal/internal/repository/file"
)

// profileFile is a stored profile that may give risk_appetite instead of
// risk_tolerance.
type profileFile struct {
	domain.UserProfile
	RiskTolerance *float64 `json:"risk_tolerance"`
	RiskAppetite  string   `json:"risk_appetite"`
}

func loadProfile(path string) (domain.UserProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("read profile file: %w", err)
	}

	var raw profileFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.UserProfile{}, fmt.Errorf("parse profile file: %w", err)
	}

	profile := raw.UserProfile
	switch {
	case raw.RiskTolerance != nil:
		profile.RiskTolerance = *raw.RiskTolerance
	case raw.RiskAppetite != "":
		v, err := domain.ToleranceForAppetite(domain.RiskAppetite(raw.RiskAppetite))
		if err != nil {
			return domain.UserProfile{}, err
		}
		profile.RiskTolerance = v
	default:
		profile.RiskTolerance, _ = domain.ToleranceForAppetite(domain.RiskMedium)
	}
	return profile, profile.Validate()
}

// loadExamples reads labelled examples. An example with an event_type and no
// target_score gets the target that event maps to.
func loadExamples(path string) ([]domain.TrainingExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read examples file: %w", err)
	}

	var raw []struct {
		domain.TrainingExample
		TargetScore *float64 `json:"target_score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse examples file: %w", err)
	}

	examples := make([]domain.TrainingExample, 0, len(raw))
	for i, r := range raw {
		ex := r.TrainingExample
		switch {
		case r.TargetScore != nil:
			ex.TargetScore = *r.TargetScore
		case ex.EventType != "":
			target, err := recommender.TargetForEvent(ex.EventType)
			if err != nil {
				return nil, fmt.Errorf("example %d: %w", i, err)
			}
			ex.TargetScore = target
		default:
			return nil, fmt.Errorf("example %d has neither target_score nor event_type", i)
		}
		examples = append(examples, ex)
	}
	return examples, nil
}

func loadTables() (recommender.Tables, error) {
	tables, err := recommender.LoadTables(tablesPath)
	if err != nil {
		return recommender.Tables{}, err
	}
	if affordability != "" {
		tables.Affordability = recommender.AffordabilityStrategy(strings.ToLower(affordability))
	}
	return tables, nil
}

// buildRanker assembles both scorers. When modelPath names an existing
// snapshot it is restored so the learned scorer serves.
func buildRanker(ctx context.Context, modelPath string, training recommender.TrainingConfig) (*recommender.Ranker, error) {
	tables, err := loadTables()
	if err != nil {
		return nil, err
	}
	rules, err := recommender.NewRuleScorer(tables)
	if err != nil {
		return nil, err
	}

	if modelPath == "" {
		return recommender.NewRanker(rules, recommender.NewLearnedScorer(training, tables, nil)), nil
	}

	store := file.NewSnapshotStore(modelPath)
	learned := recommender.NewLearnedScorer(training, tables, store)
	snap, err := store.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		if err := learned.Restore(snap); err != nil {
			return nil, err
		}
	}
	return recommender.NewRanker(rules, learned), nil
}

// splitIDs accepts repeated and comma separated values.
func splitIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
