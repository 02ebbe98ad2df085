package recommender

import (
	"fmt"
	"runtime"
	"sort"

	"policyPortal/domain"

	"golang.org/x/sync/errgroup"
)

// catalogs at or above this size are scored on several goroutines
const parallelScoringThreshold = 64

// Ranker scores a catalog for one profile and returns the top-N shortlist.
// It prefers the learned scorer and falls back to the rule scorer when no
// model has been trained.
type Ranker struct {
	rules   *RuleScorer
	learned *LearnedScorer
}

func NewRanker(rules *RuleScorer, learned *LearnedScorer) *Ranker {
	return &Ranker{rules: rules, learned: learned}
}

func (r *Ranker) Rules() *RuleScorer {
	return r.rules
}

func (r *Ranker) Learned() *LearnedScorer {
	return r.learned
}

// Recommend validates every input, scores, sorts and truncates to topN
// (5 when topN <= 0). An empty catalog yields an empty result.
func (r *Ranker) Recommend(profile domain.UserProfile, policies []domain.Policy, topN int) ([]domain.ScoredPolicy, error) {
	if topN <= 0 {
		topN = defaultTopN
	}
	if err := validateInputs(profile, policies); err != nil {
		return nil, err
	}
	if len(policies) == 0 {
		return []domain.ScoredPolicy{}, nil
	}

	scored, err := r.ScoreAll(profile, policies)
	if err != nil {
		return nil, err
	}
	sortScored(scored)

	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored, nil
}

// ScoreAll scores every policy against one snapshot, in input order.
// Inputs are assumed valid.
func (r *Ranker) ScoreAll(profile domain.UserProfile, policies []domain.Policy) ([]domain.ScoredPolicy, error) {
	var snap *ModelSnapshot
	if r.learned != nil {
		snap = r.learned.Snapshot()
	}

	out := make([]domain.ScoredPolicy, len(policies))
	scoreOne := func(i int) error {
		p := policies[i]
		if snap == nil {
			out[i] = newScored(p, r.rules.Score(p, profile).Total, domain.ScoredByRules)
			return nil
		}
		score, err := snap.predict(ExtractFeatures(p, profile, r.learned.tables))
		if err != nil {
			return fmt.Errorf("predict policy %s: %w", p.ID, err)
		}
		out[i] = newScored(p, score, domain.ScoredByLearned)
		return nil
	}

	if len(policies) < parallelScoringThreshold {
		for i := range policies {
			if err := scoreOne(i); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range policies {
		g.Go(func() error { return scoreOne(i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Explain returns the rule breakdown for the top-N policies, ordered like Recommend.
func (r *Ranker) Explain(profile domain.UserProfile, policies []domain.Policy, topN int) ([]domain.DebugRecommendation, error) {
	scored, err := r.Recommend(profile, policies, topN)
	if err != nil {
		return nil, err
	}

	version := 0
	if r.learned != nil {
		if snap := r.learned.Snapshot(); snap != nil {
			version = snap.Version
		}
	}

	out := make([]domain.DebugRecommendation, 0, len(scored))
	for _, sp := range scored {
		fv := ExtractFeatures(sp.Policy, profile, r.rules.tables)
		out = append(out, domain.DebugRecommendation{
			ScoredPolicy: sp,
			Breakdown:    r.rules.Score(sp.Policy, profile),
			Features:     fv.Slice(),
			ModelVersion: version,
		})
	}
	return out, nil
}

func newScored(p domain.Policy, score float64, by string) domain.ScoredPolicy {
	score = clamp01(score)
	return domain.ScoredPolicy{
		Policy:     p,
		Score:      score,
		Confidence: ConfidenceFor(score),
		ScoredBy:   by,
	}
}

// sortScored orders by score desc, then claim settlement ratio desc,
// premium asc and finally id asc.
func sortScored(s []domain.ScoredPolicy) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Policy.CSR() != b.Policy.CSR() {
			return a.Policy.CSR() > b.Policy.CSR()
		}
		if a.Policy.Premium != b.Policy.Premium {
			return a.Policy.Premium < b.Policy.Premium
		}
		return a.Policy.ID < b.Policy.ID
	})
}

func validateInputs(profile domain.UserProfile, policies []domain.Policy) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	for _, p := range policies {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
