package comparator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"policyPortal/domain"
	"policyPortal/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	MinSelection = 2
	MaxSelection = 4

	defaultFetchTimeout = 5 * time.Second
)

type PolicyRepository interface {
	FindByID(ctx context.Context, id string) (domain.Policy, error)
}

// Scorer scores policies for a profile in input order. *recommender.Ranker satisfies it.
type Scorer interface {
	ScoreAll(profile domain.UserProfile, policies []domain.Policy) ([]domain.ScoredPolicy, error)
}

type Service struct {
	repo         PolicyRepository
	scorer       Scorer
	fetchTimeout time.Duration
}

// NewService builds a comparator. scorer may be nil when profile scoring is not needed.
func NewService(repo PolicyRepository, scorer Scorer, fetchTimeout time.Duration) *Service {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &Service{repo: repo, scorer: scorer, fetchTimeout: fetchTimeout}
}

// Compare fetches 2 to 4 policies and builds the side-by-side matrix.
// Any unknown id aborts the comparison.
func (s *Service) Compare(ctx context.Context, ids []string) (domain.Comparison, error) {
	policies, err := s.fetch(ctx, ids)
	if err != nil {
		return domain.Comparison{}, err
	}
	return Build(policies)
}

// CompareForProfile is Compare plus a personal score for every policy.
func (s *Service) CompareForProfile(ctx context.Context, ids []string, profile domain.UserProfile) (domain.Comparison, error) {
	if s.scorer == nil {
		return domain.Comparison{}, errors.New("comparator: no scorer configured")
	}
	if err := profile.Validate(); err != nil {
		return domain.Comparison{}, err
	}

	policies, err := s.fetch(ctx, ids)
	if err != nil {
		return domain.Comparison{}, err
	}
	cmp, err := Build(policies)
	if err != nil {
		return domain.Comparison{}, err
	}

	scores, err := s.scorer.ScoreAll(profile, policies)
	if err != nil {
		return domain.Comparison{}, fmt.Errorf("score compared policies: %w", err)
	}
	cmp.Scores = scores
	return cmp, nil
}

func (s *Service) fetch(ctx context.Context, ids []string) ([]domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	ids = NormalizeIDs(ids)
	if err := checkSelection(len(ids)); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	policies := make([]domain.Policy, len(ids))
	missing := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.repo.FindByID(gctx, id)
			switch {
			case errors.Is(err, domain.ErrPolicyNotFound):
				missing[i] = &domain.PolicyNotFoundError{ID: id}
				return nil
			case err != nil:
				return fmt.Errorf("fetch policy %s: %w", id, err)
			}
			policies[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := errors.Join(missing...); err != nil {
		logger.Debug("comparison aborted, unknown policy ids", "ids", ids, "error", err)
		return nil, err
	}
	return policies, nil
}

// NormalizeIDs trims ids and drops blanks and duplicates, keeping first occurrence order.
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func checkSelection(n int) error {
	switch {
	case n < MinSelection:
		return fmt.Errorf("%w: got %d", domain.ErrInsufficientSelection, n)
	case n > MaxSelection:
		return fmt.Errorf("%w: got %d", domain.ErrTooManyPolicies, n)
	}
	return nil
}

// Build assembles the comparison matrix and best-in-category picks for
// already-resolved policies. Ties go to the first policy encountered.
func Build(policies []domain.Policy) (domain.Comparison, error) {
	if err := checkSelection(len(policies)); err != nil {
		return domain.Comparison{}, err
	}

	cmp := domain.Comparison{
		Policies: policies,
		Rows:     make([]domain.ComparisonRow, 0, len(policies)),
	}

	bestPremium, bestCoverage, bestFlex := 0, 0, 0
	for i, p := range policies {
		cmp.Rows = append(cmp.Rows, rowFor(p))

		if p.Premium < policies[bestPremium].Premium {
			bestPremium = i
		}
		if p.Coverage > policies[bestCoverage].Coverage {
			bestCoverage = i
		}
		if p.Flexibility.Length() > policies[bestFlex].Flexibility.Length() {
			bestFlex = i
		}
	}

	cmp.BestByPremium = policies[bestPremium]
	cmp.BestByCoverage = policies[bestCoverage]
	cmp.BestByFlexibility = policies[bestFlex]
	return cmp, nil
}

func rowFor(p domain.Policy) domain.ComparisonRow {
	return domain.ComparisonRow{
		PolicyID:             p.ID,
		Name:                 p.Name,
		Provider:             p.Provider,
		Category:             p.Category,
		Premium:              p.Premium,
		Coverage:             p.Coverage,
		Term:                 p.TermYears(),
		ClaimSettlementRatio: p.CSR(),
		Benefits:             orEmpty(p.Benefits),
		AddOns:               orEmpty(p.AddOns),
		Exclusions:           orEmpty(p.Exclusions),
		Goals:                orEmpty(p.Goals),
		FlexibilityLength:    p.Flexibility.Length(),
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
