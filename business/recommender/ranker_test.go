package recommender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"policyPortal/domain"
)

func newTestRanker(t *testing.T) *Ranker {
	t.Helper()
	tables := DefaultTables()
	return NewRanker(mustRuleScorer(t, tables), NewLearnedScorer(fastTrainingConfig(), tables, nil))
}

func catalog(n int) []domain.Policy {
	out := make([]domain.Policy, 0, n)
	for i := 0; i < n; i++ {
		p := samplePolicy(fmt.Sprintf("p-%03d", i))
		p.Premium = float64(20000 + i*7000)
		p.Eligibility.MinAge = 18 + i%10
		out = append(out, p)
	}
	return out
}

func TestRanker_Recommend_Length(t *testing.T) {
	r := newTestRanker(t)
	tests := []struct {
		name    string
		n, topN int
		want    int
	}{
		{"fewer than topN", 3, 5, 3},
		{"truncated", 10, 4, 4},
		{"default topN", 12, 0, 5},
		{"empty", 0, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Recommend(sampleProfile(), catalog(tt.n), tt.topN)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if got == nil {
				t.Fatalf("Recommend() = nil, want non-nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("len(Recommend()) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestRanker_Recommend_SortedAndLabelled(t *testing.T) {
	r := newTestRanker(t)
	got, err := r.Recommend(sampleProfile(), catalog(10), 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for i, sp := range got {
		if sp.ScoredBy != domain.ScoredByRules {
			t.Errorf("[%d] ScoredBy = %q, want rules", i, sp.ScoredBy)
		}
		if sp.Confidence != ConfidenceFor(sp.Score) {
			t.Errorf("[%d] Confidence = %v, want %v", i, sp.Confidence, ConfidenceFor(sp.Score))
		}
		if i > 0 && got[i-1].Score < sp.Score {
			t.Errorf("not sorted at %d: %v < %v", i, got[i-1].Score, sp.Score)
		}
	}
}

func TestRanker_Recommend_TieBreaks(t *testing.T) {
	r := newTestRanker(t)

	lowCSR := samplePolicy("a")
	lowCSR.ClaimSettlementRatio = floatPtr(90)

	highCSR := samplePolicy("b")
	highCSR.ClaimSettlementRatio = floatPtr(98)

	// identical score and CSR, "c" is cheaper but still under 10% of income
	pricier := samplePolicy("d")
	pricier.Premium = 50000
	cheaper := samplePolicy("c")
	cheaper.Premium = 30000
	pricier.ClaimSettlementRatio = floatPtr(92)
	cheaper.ClaimSettlementRatio = floatPtr(92)

	sameA := samplePolicy("f")
	sameB := samplePolicy("e")
	sameA.ClaimSettlementRatio = floatPtr(80)
	sameB.ClaimSettlementRatio = floatPtr(80)

	got, err := r.Recommend(sampleProfile(), []domain.Policy{lowCSR, pricier, sameA, highCSR, cheaper, sameB}, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	var ids []string
	for _, sp := range got {
		ids = append(ids, sp.Policy.ID)
	}
	want := []string{"b", "c", "d", "a", "e", "f"}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
}

func TestRanker_Recommend_Deterministic(t *testing.T) {
	r := newTestRanker(t)
	policies := catalog(80) // exercises the parallel path

	first, err := r.Recommend(sampleProfile(), policies, 20)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := r.Recommend(sampleProfile(), policies, 20)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		for i := range first {
			if first[i].Policy.ID != again[i].Policy.ID || first[i].Score != again[i].Score {
				t.Fatalf("run %d differs at %d", run, i)
			}
		}
	}
}

// sequentialTopN scores in chunks below the parallel threshold and ranks the result.
func sequentialTopN(t *testing.T, r *Ranker, policies []domain.Policy, topN int) []domain.ScoredPolicy {
	t.Helper()
	const chunk = parallelScoringThreshold / 2
	var all []domain.ScoredPolicy
	for start := 0; start < len(policies); start += chunk {
		end := min(start+chunk, len(policies))
		part, err := r.ScoreAll(sampleProfile(), policies[start:end])
		if err != nil {
			t.Fatalf("ScoreAll() error = %v", err)
		}
		all = append(all, part...)
	}
	sortScored(all)
	return all[:topN]
}

func TestRanker_Recommend_ParallelMatchesSequential(t *testing.T) {
	tests := []struct {
		name    string
		trained bool
	}{
		{"rules", false},
		{"learned", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRanker(t)
			if tt.trained {
				if _, err := r.Learned().Train(context.Background(), syntheticExamples(30)); err != nil {
					t.Fatalf("Train() error = %v", err)
				}
			}
			policies := catalog(100)
			// premiums collide so the tie-break order is exercised too
			for i := range policies {
				policies[i].Premium = float64(20000 + (i%7)*5000)
			}

			want := sequentialTopN(t, r, policies, 25)
			got, err := r.Recommend(sampleProfile(), policies, 25)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("len(Recommend()) = %d, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i].Policy.ID != want[i].Policy.ID || got[i].Score != want[i].Score {
					t.Errorf("rank %d = %s (%v), want %s (%v)",
						i, got[i].Policy.ID, got[i].Score, want[i].Policy.ID, want[i].Score)
				}
			}
		})
	}
}

func TestRanker_RecommendDuringTraining(t *testing.T) {
	r := newTestRanker(t)
	policies := catalog(80)
	const topN = 10

	stop := make(chan struct{})
	errs := make(chan error, 4)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				recs, err := r.Recommend(sampleProfile(), policies, topN)
				if err != nil {
					errs <- err
					return
				}
				if len(recs) != topN {
					errs <- fmt.Errorf("len(Recommend()) = %d, want %d", len(recs), topN)
					return
				}
				for _, sp := range recs {
					if sp.Score < 0 || sp.Score > 1 {
						errs <- fmt.Errorf("score %v outside [0,1]", sp.Score)
						return
					}
					// one snapshot per call, so one label per result
					if sp.ScoredBy != recs[0].ScoredBy {
						errs <- fmt.Errorf("mixed scorers %q and %q in one result", sp.ScoredBy, recs[0].ScoredBy)
						return
					}
				}
			}
		}()
	}

	var last TrainingReport
	for i := 0; i < 2; i++ {
		report, err := r.Learned().Train(context.Background(), syntheticExamples(30))
		if err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		last = report
	}
	close(stop)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Recommend: %v", err)
	}
	if last.Version != 2 {
		t.Errorf("Version = %d, want 2", last.Version)
	}
	if snap := r.Learned().Snapshot(); snap == nil || snap.Version != 2 {
		t.Errorf("published snapshot = %+v, want version 2", snap)
	}
}

func TestRanker_Recommend_InvalidInput(t *testing.T) {
	r := newTestRanker(t)

	bad := sampleProfile()
	bad.Age = -1
	if _, err := r.Recommend(bad, catalog(3), 5); !errors.Is(err, domain.ErrInvalidProfile) {
		t.Errorf("negative age error = %v, want ErrInvalidProfile", err)
	}

	bad = sampleProfile()
	bad.RiskTolerance = 1.2
	if _, err := r.Recommend(bad, catalog(3), 5); !errors.Is(err, domain.ErrInvalidProfile) {
		t.Errorf("tolerance error = %v, want ErrInvalidProfile", err)
	}

	policies := catalog(3)
	policies[1].Eligibility.MinAge = 80
	if _, err := r.Recommend(sampleProfile(), policies, 5); !errors.Is(err, domain.ErrInvalidProfile) {
		t.Errorf("inverted age band error = %v, want ErrInvalidProfile", err)
	}
}

func TestRanker_UsesLearnedScorerOnceTrained(t *testing.T) {
	r := newTestRanker(t)
	if _, err := r.Learned().Train(context.Background(), syntheticExamples(20)); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	got, err := r.Recommend(sampleProfile(), catalog(4), 4)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for _, sp := range got {
		if sp.ScoredBy != domain.ScoredByLearned {
			t.Errorf("ScoredBy = %q, want learned", sp.ScoredBy)
		}
		if sp.Score < 0 || sp.Score > 1 {
			t.Errorf("Score = %v, outside [0,1]", sp.Score)
		}
	}
}

func TestRanker_Explain(t *testing.T) {
	r := newTestRanker(t)
	got, err := r.Explain(sampleProfile(), catalog(6), 3)
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(Explain()) = %d, want 3", len(got))
	}
	for _, d := range got {
		if d.Breakdown.PolicyID != d.Policy.ID {
			t.Errorf("breakdown for %s attached to %s", d.Breakdown.PolicyID, d.Policy.ID)
		}
		if len(d.Features) != FeatureDim {
			t.Errorf("len(Features) = %d, want %d", len(d.Features), FeatureDim)
		}
		if d.ModelVersion != 0 {
			t.Errorf("ModelVersion = %d, want 0 before training", d.ModelVersion)
		}
	}
}
