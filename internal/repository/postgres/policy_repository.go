package postgres

import (
	"context"
	"errors"
	"fmt"

	"policyPortal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PolicyRepository struct {
	DB *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) *PolicyRepository {
	return &PolicyRepository{
		DB: db,
	}
}

func (r *PolicyRepository) Create(ctx context.Context, policy *domain.Policy) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(policy).Error; err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}

	return nil
}

func (r *PolicyRepository) FindByID(ctx context.Context, id string) (domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return domain.Policy{}, fmt.Errorf("context error: %w", err)
	}
	// ids are uuid columns; anything else cannot exist
	if _, err := uuid.Parse(id); err != nil {
		return domain.Policy{}, &domain.PolicyNotFoundError{ID: id}
	}

	var policy domain.Policy

	err := r.DB.WithContext(ctx).First(&policy, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Policy{}, &domain.PolicyNotFoundError{ID: id}
		}
		return domain.Policy{}, fmt.Errorf("failed to find policy: %w", err)
	}

	return policy, nil
}

func (r *PolicyRepository) FindAll(ctx context.Context, filter domain.PolicyFilter) ([]domain.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).Model(&domain.Policy{})
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if filter.Category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", filter.Category)
	}
	if filter.Provider != "" {
		q = q.Where("LOWER(provider) = LOWER(?)", filter.Provider)
	}

	var policies []domain.Policy
	if err := q.Order("id ASC").Find(&policies).Error; err != nil {
		return nil, fmt.Errorf("failed to find policies: %w", err)
	}

	return policies, nil
}

// FindActive returns the catalog the recommender ranks over.
func (r *PolicyRepository) FindActive(ctx context.Context) ([]domain.Policy, error) {
	return r.FindAll(ctx, domain.PolicyFilter{ActiveOnly: true})
}

func (r *PolicyRepository) Update(ctx context.Context, policy *domain.Policy) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	// Select("*") so zero values (inactive, cleared lists) are written too
	result := r.DB.WithContext(ctx).
		Model(&domain.Policy{}).
		Where("id = ?", policy.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(policy)
	if result.Error != nil {
		return fmt.Errorf("failed to update policy: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &domain.PolicyNotFoundError{ID: policy.ID}
	}

	return nil
}

func (r *PolicyRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return &domain.PolicyNotFoundError{ID: id}
	}

	result := r.DB.WithContext(ctx).Delete(&domain.Policy{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete policy: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &domain.PolicyNotFoundError{ID: id}
	}

	return nil
}
