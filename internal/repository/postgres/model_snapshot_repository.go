package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"policyPortal/business/recommender"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModelSnapshotRepository struct {
	DB *gorm.DB
}

func NewModelSnapshotRepository(db *gorm.DB) *ModelSnapshotRepository {
	return &ModelSnapshotRepository{DB: db}
}

// ModelSnapshotRow stores one trained model per version as jsonb.
type ModelSnapshotRow struct {
	Version      int            `gorm:"column:version;primaryKey"`
	TrainedAt    time.Time      `gorm:"column:trained_at"`
	ExampleCount int            `gorm:"column:example_count"`
	Snapshot     datatypes.JSON `gorm:"column:snapshot;type:jsonb"`
}

func (ModelSnapshotRow) TableName() string {
	return "model_snapshots"
}

func (r *ModelSnapshotRepository) SaveSnapshot(ctx context.Context, snap *recommender.ModelSnapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	row := ModelSnapshotRow{
		Version:      snap.Version,
		TrainedAt:    snap.TrainedAt,
		ExampleCount: snap.ExampleCount,
		Snapshot:     datatypes.JSON(raw),
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "version"}},
			UpdateAll: true,
		},
	).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to upsert model snapshot: %w", err)
	}

	return nil
}

// LatestSnapshot returns nil, nil when no model has been persisted yet.
func (r *ModelSnapshotRepository) LatestSnapshot(ctx context.Context) (*recommender.ModelSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var row ModelSnapshotRow
	err := r.DB.WithContext(ctx).Order("version DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query model_snapshots: %w", err)
	}

	var snap recommender.ModelSnapshot
	if err := json.Unmarshal(row.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

var _ recommender.SnapshotRepository = (*ModelSnapshotRepository)(nil)
var _ recommender.TrainingExampleRepository = (*TrainingExampleRepository)(nil)
var _ recommender.PolicyRepository = (*PolicyRepository)(nil)
var _ recommender.ProfileRepository = (*ProfileRepository)(nil)
