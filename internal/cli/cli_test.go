package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"policyPortal/domain"
	"policyPortal/pkg/utils"

	"github.com/spf13/cobra"
)

func writeFile(t *testing.T, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func resetFlags() {
	tablesPath, affordability, outputFmt = "", "", "table"
	recommendPolicies, recommendProfile, recommendModel = "", "", ""
	recommendTop, recommendExplain = 5, false
	comparePolicies, compareProfile, compareModel, compareIDs = "", "", "", nil
}

func testPolicy(id string, premium, coverage float64, flex domain.Flexibility) domain.Policy {
	term := 20
	csr := 95.0
	return domain.Policy{
		ID:                   id,
		Name:                 "Plan " + id,
		Category:             "life",
		Provider:             "Acme",
		Premium:              premium,
		Coverage:             coverage,
		Term:                 &term,
		ClaimSettlementRatio: &csr,
		Goals:                []string{"Family Protection"},
		Tags:                 []string{"balanced"},
		Eligibility:          domain.Eligibility{MinAge: 18, MaxAge: 65},
		Flexibility:          flex,
		Active:               true,
	}
}

func testCatalog() []domain.Policy {
	return []domain.Policy{
		testPolicy("p1", 30000, 5e6, domain.Flexibility{TopUp: true}),
		testPolicy("p2", 50000, 8e6, domain.Flexibility{}),
		testPolicy("p3", 90000, 2e6, domain.Flexibility{TopUp: true, Portability: true}),
	}
}

func testProfile() map[string]any {
	return map[string]any{
		"age":             35,
		"income":          800000,
		"occupation":      "professional",
		"family_size":     2,
		"risk_appetite":   "medium",
		"financial_goals": []string{"family protection"},
	}
}

func TestSplitIDs(t *testing.T) {
	got := splitIDs([]string{"a, b", "", "c,,", " d "})
	want := []string{"a", "b", "c", "d"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("splitIDs = %v, want %v", got, want)
	}
}

func TestLoadProfile(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want float64
	}{
		{"appetite", map[string]any{"age": 30, "risk_appetite": "HIGH"}, 0.8},
		{"tolerance wins", map[string]any{"age": 30, "risk_appetite": "high", "risk_tolerance": 0.3}, 0.3},
		{"default medium", map[string]any{"age": 30}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := loadProfile(writeFile(t, "profile.json", tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.RiskTolerance != tt.want {
				t.Errorf("risk tolerance = %v, want %v", p.RiskTolerance, tt.want)
			}
		})
	}

	_, err := loadProfile(writeFile(t, "bad.json", map[string]any{"age": -3}))
	if !errors.Is(err, domain.ErrInvalidProfile) {
		t.Errorf("negative age error = %v, want ErrInvalidProfile", err)
	}
}

func TestLoadExamples(t *testing.T) {
	path := writeFile(t, "examples.json", []map[string]any{
		{"event_type": "purchased"},
		{"event_type": "viewed", "target_score": 0.9},
	})
	got, err := loadExamples(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].TargetScore != 1.0 || got[1].TargetScore != 0.9 {
		t.Errorf("targets = %v, %v, want 1.0 and 0.9", got[0].TargetScore, got[1].TargetScore)
	}

	if _, err := loadExamples(writeFile(t, "bad.json", []map[string]any{{"policy_id": "p1"}})); err == nil {
		t.Error("expected error for example without target or event")
	}
	if _, err := loadExamples(writeFile(t, "bad.json", []map[string]any{{"event_type": "shared"}})); err == nil {
		t.Error("expected error for unknown event type")
	}
}

func TestRunRecommend(t *testing.T) {
	resetFlags()
	recommendPolicies = writeFile(t, "catalog.json", testCatalog())
	recommendProfile = writeFile(t, "profile.json", testProfile())
	recommendTop = 2
	outputFmt = "json"

	cmd, buf := testCmd()
	if err := runRecommend(cmd, nil); err != nil {
		t.Fatalf("recommend: %v", err)
	}

	var recs []domain.ScoredPolicy
	if err := json.Unmarshal(buf.Bytes(), &recs); err != nil {
		t.Fatalf("decode output: %v\n%s", err, buf.String())
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	if recs[0].Score < recs[1].Score {
		t.Errorf("not sorted: %v then %v", recs[0].Score, recs[1].Score)
	}
	if recs[0].ScoredBy != domain.ScoredByRules {
		t.Errorf("scored by %q without a model, want rules", recs[0].ScoredBy)
	}

	outputFmt = "table"
	cmd, buf = testCmd()
	if err := runRecommend(cmd, nil); err != nil {
		t.Fatalf("recommend table: %v", err)
	}
	if !strings.Contains(buf.String(), "CONFIDENCE") {
		t.Errorf("table output missing header:\n%s", buf.String())
	}
}

func TestRunCompare(t *testing.T) {
	resetFlags()
	comparePolicies = writeFile(t, "catalog.json", testCatalog())
	compareIDs = []string{"p1,p2", "p3"}

	cmd, buf := testCmd()
	if err := runCompare(cmd, nil); err != nil {
		t.Fatalf("compare: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Lowest premium:    p1", "Highest coverage:  p2", "Most flexible:     p3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	compareIDs = []string{"p1"}
	cmd, _ = testCmd()
	if err := runCompare(cmd, nil); !errors.Is(err, domain.ErrInsufficientSelection) {
		t.Errorf("single id error = %v, want ErrInsufficientSelection", err)
	}

	compareIDs = []string{"p1", "missing"}
	cmd, _ = testCmd()
	if err := runCompare(cmd, nil); !errors.Is(err, domain.ErrPolicyNotFound) {
		t.Errorf("unknown id error = %v, want ErrPolicyNotFound", err)
	}
}

func TestRunCompare_WithProfile(t *testing.T) {
	resetFlags()
	comparePolicies = writeFile(t, "catalog.json", testCatalog())
	compareProfile = writeFile(t, "profile.json", testProfile())
	compareIDs = []string{"p2", "p1"}
	outputFmt = "json"

	cmd, buf := testCmd()
	if err := runCompare(cmd, nil); err != nil {
		t.Fatalf("compare: %v", err)
	}
	var cmp domain.Comparison
	if err := json.Unmarshal(buf.Bytes(), &cmp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cmp.Scores) != 2 || cmp.Scores[0].Policy.ID != "p2" {
		t.Errorf("scores = %+v, want two in request order", cmp.Scores)
	}
}

func TestRunTrain_ThenRecommendLearned(t *testing.T) {
	resetFlags()
	catalog := testCatalog()
	profile := domain.UserProfile{Age: 35, Income: 800000, Occupation: "professional", RiskTolerance: 0.5}

	events := []string{domain.EventPurchased, domain.EventViewed, domain.EventDismissed}
	var examples []map[string]any
	for i := 0; i < 24; i++ {
		profile.Age = 25 + i
		examples = append(examples, map[string]any{
			"policy":     catalog[i%len(catalog)],
			"profile":    profile,
			"event_type": events[i%len(events)],
		})
	}

	trainExamples = writeFile(t, "examples.json", examples)
	trainOut = filepath.Join(t.TempDir(), "model.json")
	trainEpochs, trainBatchSize, trainLR, trainSeed, trainMinExamples = 3, 8, 0.01, 1, 10

	cmd, buf := testCmd()
	if err := runTrain(cmd, nil); err != nil {
		t.Fatalf("train: %v", err)
	}
	if !strings.Contains(buf.String(), "model v1 written") {
		t.Errorf("unexpected train output:\n%s", buf.String())
	}

	// a second run continues the version sequence from the saved snapshot
	cmd, buf = testCmd()
	if err := runTrain(cmd, nil); err != nil {
		t.Fatalf("retrain: %v", err)
	}
	if !strings.Contains(buf.String(), "model v2 written") {
		t.Errorf("unexpected retrain output:\n%s", buf.String())
	}

	recommendPolicies = writeFile(t, "catalog.json", catalog)
	recommendProfile = writeFile(t, "profile.json", testProfile())
	recommendModel = trainOut
	recommendTop = 3
	outputFmt = "json"

	cmd, buf = testCmd()
	if err := runRecommend(cmd, nil); err != nil {
		t.Fatalf("recommend: %v", err)
	}
	var recs []domain.ScoredPolicy
	if err := json.Unmarshal(buf.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 3 || recs[0].ScoredBy != domain.ScoredByLearned {
		t.Errorf("got %+v, want three learned scores", recs)
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc", "today")
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	if !strings.Contains(buf.String(), "policyctl 1.2.3") {
		t.Errorf("version output = %q", buf.String())
	}
}

func TestRunToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-test-secret")
	tokenUser, tokenRole, tokenTTL = 7, "ADMIN", time.Hour

	cmd, buf := testCmd()
	if err := runToken(cmd, nil); err != nil {
		t.Fatalf("token: %v", err)
	}
	claims, err := utils.ParseJWT(strings.TrimSpace(buf.String()))
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UserID != "7" || claims.Role != "ADMIN" {
		t.Errorf("claims = %+v, want user 7 with ADMIN role", claims)
	}

	t.Setenv("JWT_SECRET", "")
	if err := runToken(cmd, nil); err == nil {
		t.Error("expected error without JWT_SECRET")
	}
}
