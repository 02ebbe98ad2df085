package recommender

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"policyPortal/domain"
	"policyPortal/pkg/logger"
)

// ModelSnapshot is an immutable trained model: both scalers plus weights.
// Published snapshots are never modified; retraining publishes a new one.
type ModelSnapshot struct {
	Version        int         `json:"version"`
	TrainedAt      time.Time   `json:"trained_at"`
	FeatureScaler  RangeScaler `json:"feature_scaler"`
	LabelScaler    RangeScaler `json:"label_scaler"`
	Network        *Network    `json:"network"`
	TrainLoss      float64     `json:"train_loss"`
	ValidationLoss float64     `json:"validation_loss"`
	ExampleCount   int         `json:"example_count"`
}

func (m *ModelSnapshot) validate() error {
	if m == nil {
		return errors.New("nil snapshot")
	}
	if m.FeatureScaler.Width() != FeatureDim || !m.FeatureScaler.Fitted() {
		return fmt.Errorf("feature scaler width %d, want %d", m.FeatureScaler.Width(), FeatureDim)
	}
	if m.LabelScaler.Width() != 1 || !m.LabelScaler.Fitted() {
		return fmt.Errorf("label scaler width %d, want 1", m.LabelScaler.Width())
	}
	return m.Network.validate(FeatureDim)
}

// predict scales, runs the network and maps the output back to score units.
func (m *ModelSnapshot) predict(fv FeatureVector) (float64, error) {
	x, err := m.FeatureScaler.TransformVector(fv[:])
	if err != nil {
		return 0, err
	}
	y, err := m.LabelScaler.InverseScalar(m.Network.Predict(x))
	if err != nil {
		return 0, err
	}
	return clamp01(y), nil
}

// SnapshotStore persists a snapshot before it is published.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *ModelSnapshot) error
}

type TrainingReport struct {
	Version        int           `json:"version"`
	Examples       int           `json:"examples"`
	TrainRows      int           `json:"train_rows"`
	ValidationRows int           `json:"validation_rows"`
	Epochs         int           `json:"epochs"`
	TrainLoss      float64       `json:"train_loss"`
	ValidationLoss float64       `json:"validation_loss"`
	Duration       time.Duration `json:"duration"`
}

// LearnedScorer serves predictions from the current snapshot and replaces it
// atomically on successful training.
type LearnedScorer struct {
	cfg     TrainingConfig
	tables  Tables
	store   SnapshotStore
	current atomic.Pointer[ModelSnapshot]
	trainMu sync.Mutex
}

// NewLearnedScorer creates an untrained scorer. store may be nil.
func NewLearnedScorer(cfg TrainingConfig, tables Tables, store SnapshotStore) *LearnedScorer {
	return &LearnedScorer{
		cfg:    cfg.withDefaults(),
		tables: tables,
		store:  store,
	}
}

// Snapshot returns the published model or nil if none is available.
func (s *LearnedScorer) Snapshot() *ModelSnapshot {
	return s.current.Load()
}

func (s *LearnedScorer) Ready() bool {
	return s.current.Load() != nil
}

func (s *LearnedScorer) Predict(p domain.Policy, u domain.UserProfile) (float64, error) {
	snap := s.current.Load()
	if snap == nil {
		return 0, fmt.Errorf("learned scorer: %w", domain.ErrNotFitted)
	}
	return snap.predict(ExtractFeatures(p, u, s.tables))
}

// Restore publishes a previously persisted snapshot.
func (s *LearnedScorer) Restore(snap *ModelSnapshot) error {
	if err := snap.validate(); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	s.trainMu.Lock()
	defer s.trainMu.Unlock()
	s.current.Store(snap)
	return nil
}

// Train fits new scalers and weights from examples. Concurrent calls are
// rejected with ErrTrainingInProgress. The context is checked between epochs.
// On any error the previously published snapshot stays in place.
func (s *LearnedScorer) Train(ctx context.Context, examples []domain.TrainingExample) (TrainingReport, error) {
	if !s.trainMu.TryLock() {
		return TrainingReport{}, domain.ErrTrainingInProgress
	}
	defer s.trainMu.Unlock()

	started := time.Now()
	cfg := s.cfg

	if err := ctx.Err(); err != nil {
		return TrainingReport{}, fmt.Errorf("context error: %w", err)
	}
	if err := validateExamples(examples, cfg.MinExamples); err != nil {
		return TrainingReport{}, err
	}

	features := make([][]float64, len(examples))
	labels := make([][]float64, len(examples))
	for i, ex := range examples {
		fv := ExtractFeatures(ex.Policy, ex.Profile, s.tables)
		features[i] = fv.Slice()
		labels[i] = []float64{ex.TargetScore}
	}

	featureScaler, X, err := FitTransform(features)
	if err != nil {
		return TrainingReport{}, fmt.Errorf("fit feature scaler: %w", err)
	}
	labelScaler, Y, err := FitTransform(labels)
	if err != nil {
		return TrainingReport{}, fmt.Errorf("fit label scaler: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	trainIdx, valIdx := splitIndices(len(examples), cfg.ValidationSplit, rng)

	sizes := append([]int{FeatureDim}, cfg.Hidden...)
	sizes = append(sizes, 1)
	net := newNetwork(sizes, rng)
	opt := newAdam(net, cfg.LearningRate)
	grads := zeroGradients(net)

	var trainLoss float64
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return TrainingReport{}, fmt.Errorf("training cancelled at epoch %d: %w", epoch, err)
		}

		rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })

		sse := 0.0
		for start := 0; start < len(trainIdx); start += cfg.BatchSize {
			end := min(start+cfg.BatchSize, len(trainIdx))
			batch := trainIdx[start:end]
			scale := 1 / float64(len(batch))

			grads.reset()
			for _, idx := range batch {
				sse += net.backprop(X[idx], Y[idx][0], scale, grads)
			}
			opt.apply(net, grads)
		}
		trainLoss = sse / float64(len(trainIdx))

		if math.IsNaN(trainLoss) || math.IsInf(trainLoss, 0) {
			return TrainingReport{}, fmt.Errorf("training diverged at epoch %d", epoch)
		}
	}

	valLoss := 0.0
	for _, idx := range valIdx {
		d := net.Predict(X[idx]) - Y[idx][0]
		valLoss += d * d
	}
	valLoss /= float64(len(valIdx))

	version := 1
	if prev := s.current.Load(); prev != nil {
		version = prev.Version + 1
	}

	snap := &ModelSnapshot{
		Version:        version,
		TrainedAt:      time.Now().UTC(),
		FeatureScaler:  featureScaler,
		LabelScaler:    labelScaler,
		Network:        net,
		TrainLoss:      trainLoss,
		ValidationLoss: valLoss,
		ExampleCount:   len(examples),
	}

	if s.store != nil {
		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			return TrainingReport{}, fmt.Errorf("persist snapshot: %w", err)
		}
	}
	s.current.Store(snap)

	report := TrainingReport{
		Version:        version,
		Examples:       len(examples),
		TrainRows:      len(trainIdx),
		ValidationRows: len(valIdx),
		Epochs:         cfg.Epochs,
		TrainLoss:      trainLoss,
		ValidationLoss: valLoss,
		Duration:       time.Since(started),
	}

	logger.Info("model_trained",
		"version", report.Version,
		"examples", report.Examples,
		"train_loss", report.TrainLoss,
		"validation_loss", report.ValidationLoss,
		"duration", report.Duration,
	)

	return report, nil
}

func validateExamples(examples []domain.TrainingExample, minExamples int) error {
	if len(examples) < minExamples {
		return fmt.Errorf("%w: got %d examples, need at least %d",
			domain.ErrInsufficientTrainingData, len(examples), minExamples)
	}
	for i, ex := range examples {
		if ex.TargetScore < 0 || ex.TargetScore > 1 || math.IsNaN(ex.TargetScore) {
			return fmt.Errorf("%w: example %d target score %f outside [0,1]",
				domain.ErrInsufficientTrainingData, i, ex.TargetScore)
		}
		if err := ex.Profile.Validate(); err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
		if err := ex.Policy.Validate(); err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
	}
	return nil
}

// splitIndices shuffles 0..n-1 and holds out a validation share of at least one row.
func splitIndices(n int, split float64, rng *rand.Rand) (train, val []int) {
	idx := rng.Perm(n)
	nVal := int(math.Round(float64(n) * split))
	if nVal < 1 {
		nVal = 1
	}
	if nVal >= n {
		nVal = n - 1
	}
	return idx[nVal:], idx[:nVal]
}
