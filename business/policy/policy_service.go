package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"policyPortal/domain"
	"policyPortal/pkg/logger"

	"github.com/google/uuid"
)

// PolicyRepository contract interface
type PolicyRepository interface {
	Create(ctx context.Context, policy *domain.Policy) error
	FindByID(ctx context.Context, id string) (domain.Policy, error)
	FindAll(ctx context.Context, filter domain.PolicyFilter) ([]domain.Policy, error)
	Update(ctx context.Context, policy *domain.Policy) error
	Delete(ctx context.Context, id string) error
}

// CacheInvalidator drops cached recommendations after catalog writes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type policyService struct {
	policyRepo PolicyRepository
	cache      CacheInvalidator
}

// NewPolicyService wires the catalog service. cache may be nil.
func NewPolicyService(policyRepo PolicyRepository, cache CacheInvalidator) *policyService {
	return &policyService{
		policyRepo: policyRepo,
		cache:      cache,
	}
}

func (s *policyService) GetAllPolicies(ctx context.Context, filter domain.PolicyFilter) ([]domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	policies, err := s.policyRepo.FindAll(ctx, filter)
	if err != nil {
		logger.Error("failed to list policies", "error", err)
		return nil, err
	}

	return policies, nil
}

func (s *policyService) GetPolicyByID(ctx context.Context, id string) (*domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: malformed policy id %q", domain.ErrInvalidPolicy, id)
	}

	policy, err := s.policyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &policy, nil
}

func (s *policyService) CreatePolicy(ctx context.Context, policy *domain.Policy) (*domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if err := validatePolicy(policy); err != nil {
		logger.Warn("rejected policy create", "name", policy.Name, "error", err)
		return nil, err
	}

	policy.ID = uuid.NewString()
	if err := s.policyRepo.Create(ctx, policy); err != nil {
		logger.Error("failed to create policy", "error", err)
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}

	s.invalidate(ctx)
	logger.Info("policy created", "policy_id", policy.ID, "provider", policy.Provider)

	return policy, nil
}

func (s *policyService) UpdatePolicy(ctx context.Context, policy *domain.Policy) (*domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if policy.ID == "" {
		return nil, fmt.Errorf("%w: policy id is required", domain.ErrInvalidPolicy)
	}
	if err := validatePolicy(policy); err != nil {
		logger.Warn("rejected policy update", "policy_id", policy.ID, "error", err)
		return nil, err
	}

	if err := s.policyRepo.Update(ctx, policy); err != nil {
		if errors.Is(err, domain.ErrPolicyNotFound) {
			return nil, err
		}
		logger.Error("failed to update policy", "policy_id", policy.ID, "error", err)
		return nil, fmt.Errorf("failed to update policy: %w", err)
	}

	updated, err := s.policyRepo.FindByID(ctx, policy.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated policy: %w", err)
	}

	s.invalidate(ctx)
	logger.Info("policy updated", "policy_id", policy.ID)

	return &updated, nil
}

func (s *policyService) DeletePolicy(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := s.policyRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	logger.Info("policy deleted", "policy_id", id)
	return nil
}

// invalidate is best effort; a stale cache only costs one recompute after TTL.
func (s *policyService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warn("failed to invalidate recommendation cache", "error", err)
	}
}

func validatePolicy(p *domain.Policy) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidPolicy)
	case strings.TrimSpace(p.Category) == "":
		return fmt.Errorf("%w: category is required", domain.ErrInvalidPolicy)
	case strings.TrimSpace(p.Provider) == "":
		return fmt.Errorf("%w: provider is required", domain.ErrInvalidPolicy)
	case p.Eligibility.MinIncome < 0:
		return fmt.Errorf("%w: min income cannot be negative", domain.ErrInvalidPolicy)
	case p.Term != nil && *p.Term <= 0:
		return fmt.Errorf("%w: term must be positive", domain.ErrInvalidPolicy)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidPolicy, err)
	}
	return nil
}
