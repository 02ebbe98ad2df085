// Package memory holds in-process repositories for the CLI and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"policyPortal/domain"
)

type PolicyRepository struct {
	mu       sync.RWMutex
	policies map[string]domain.Policy
}

func NewPolicyRepository(policies ...domain.Policy) *PolicyRepository {
	r := &PolicyRepository{policies: make(map[string]domain.Policy, len(policies))}
	for _, p := range policies {
		r.policies[p.ID] = p
	}
	return r
}

// LoadPolicyFile reads a JSON array of policies.
func LoadPolicyFile(path string) (*PolicyRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var policies []domain.Policy
	if err := json.Unmarshal(data, &policies); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	for i, p := range policies {
		if p.ID == "" {
			return nil, fmt.Errorf("policy at index %d has no id", i)
		}
	}
	return NewPolicyRepository(policies...), nil
}

func (r *PolicyRepository) Create(ctx context.Context, policy *domain.Policy) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[policy.ID]; exists {
		return fmt.Errorf("policy %s already exists", policy.ID)
	}
	now := time.Now().UTC()
	policy.CreatedAt, policy.UpdatedAt = now, now
	r.policies[policy.ID] = *policy
	return nil
}

func (r *PolicyRepository) FindByID(ctx context.Context, id string) (domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return domain.Policy{}, fmt.Errorf("context error: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.policies[id]
	if !ok {
		return domain.Policy{}, &domain.PolicyNotFoundError{ID: id}
	}
	return p, nil
}

// FindAll returns matching policies ordered by id.
func (r *PolicyRepository) FindAll(ctx context.Context, filter domain.PolicyFilter) ([]domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.mu.RLock()
	out := make([]domain.Policy, 0, len(r.policies))
	for _, p := range r.policies {
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		if filter.Provider != "" && !strings.EqualFold(p.Provider, filter.Provider) {
			continue
		}
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PolicyRepository) FindActive(ctx context.Context) ([]domain.Policy, error) {
	return r.FindAll(ctx, domain.PolicyFilter{ActiveOnly: true})
}

func (r *PolicyRepository) Update(ctx context.Context, policy *domain.Policy) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.policies[policy.ID]
	if !ok {
		return &domain.PolicyNotFoundError{ID: policy.ID}
	}
	policy.CreatedAt = existing.CreatedAt
	policy.UpdatedAt = time.Now().UTC()
	r.policies[policy.ID] = *policy
	return nil
}

func (r *PolicyRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.policies[id]; !ok {
		return &domain.PolicyNotFoundError{ID: id}
	}
	delete(r.policies, id)
	return nil
}
