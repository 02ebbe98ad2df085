package postgres

import (
	"context"
	"fmt"

	"policyPortal/domain"

	"gorm.io/gorm"
)

type TrainingExampleRepository struct {
	DB *gorm.DB
}

func NewTrainingExampleRepository(db *gorm.DB) *TrainingExampleRepository {
	return &TrainingExampleRepository{DB: db}
}

func (r *TrainingExampleRepository) SaveExample(ctx context.Context, example domain.TrainingExample) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(&example).Error; err != nil {
		return fmt.Errorf("failed to save training example: %w", err)
	}

	return nil
}

// ListExamples returns the most recent examples; limit <= 0 returns all of them.
func (r *TrainingExampleRepository) ListExamples(ctx context.Context, limit int) ([]domain.TrainingExample, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var examples []domain.TrainingExample
	if err := q.Find(&examples).Error; err != nil {
		return nil, fmt.Errorf("failed to list training examples: %w", err)
	}

	return examples, nil
}
