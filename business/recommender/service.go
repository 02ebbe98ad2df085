package recommender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"policyPortal/domain"
	"policyPortal/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ---- Repository interfaces ----

type PolicyRepository interface {
	FindActive(ctx context.Context) ([]domain.Policy, error)
	FindByID(ctx context.Context, id string) (domain.Policy, error)
}

type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID uint) (domain.UserProfile, error)
}

type TrainingExampleRepository interface {
	SaveExample(ctx context.Context, example domain.TrainingExample) error
	ListExamples(ctx context.Context, limit int) ([]domain.TrainingExample, error)
}

type SnapshotRepository interface {
	SnapshotStore
	LatestSnapshot(ctx context.Context) (*ModelSnapshot, error)
}

// CacheKey identifies a cached shortlist. ModelVersion changes on every
// retrain and Generation on every catalog or profile write, so stale
// entries are never served after either.
type CacheKey struct {
	UserID       uint
	Generation   int64
	ModelVersion int
	TopN         int
}

// RecommendationCache stores shortlists. Callers read Generation once,
// before loading any data, and use it for both Get and Set so a ranking
// computed from pre-invalidation data is never written under a newer
// generation.
type RecommendationCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, key CacheKey) ([]domain.ScoredPolicy, bool, error)
	Set(ctx context.Context, key CacheKey, recs []domain.ScoredPolicy) error
	Invalidate(ctx context.Context) error
}

// ---- Usecase / Service ----

var errNoLearnedScorer = errors.New("recommender: no learned scorer configured")

type ServiceOptions struct {
	RetrainTimeout     time.Duration
	MaxTrainingSamples int
}

type Service struct {
	ranker       *Ranker
	policyRepo   PolicyRepository
	profileRepo  ProfileRepository
	exampleRepo  TrainingExampleRepository
	snapshotRepo SnapshotRepository
	cache        RecommendationCache
	opts         ServiceOptions
}

// NewService wires the ranker to its collaborators. cache and snapshotRepo may be nil.
func NewService(
	ranker *Ranker,
	policyRepo PolicyRepository,
	profileRepo ProfileRepository,
	exampleRepo TrainingExampleRepository,
	snapshotRepo SnapshotRepository,
	cache RecommendationCache,
	opts ServiceOptions,
) *Service {
	if opts.RetrainTimeout <= 0 {
		opts.RetrainTimeout = defaultRetrainTimeout
	}
	return &Service{
		ranker:       ranker,
		policyRepo:   policyRepo,
		profileRepo:  profileRepo,
		exampleRepo:  exampleRepo,
		snapshotRepo: snapshotRepo,
		cache:        cache,
		opts:         opts,
	}
}

// Recommend ranks the active catalog for a user's stored profile.
func (s *Service) Recommend(ctx context.Context, userID uint, topN int) ([]domain.ScoredPolicy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if topN <= 0 {
		topN = defaultTopN
	}

	tid := TraceIDFromContext(ctx)
	key := CacheKey{UserID: userID, ModelVersion: s.modelVersion(), TopN: topN}

	useCache := false
	if s.cache != nil {
		gen, err := s.cache.Generation(ctx)
		if err != nil {
			logger.Warn("recommendation cache generation read failed", "trace_id", tid, "error", err)
		} else {
			key.Generation = gen
			useCache = true
		}
	}

	if useCache {
		recs, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("recommendation cache read failed", "trace_id", tid, "error", err)
		} else if ok {
			RecommendationsServedTotal.WithLabelValues(scoredByLabel(recs, s.ranker), "hit").Inc()
			return recs, nil
		}
	}

	profile, policies, err := s.loadProfileAndCatalog(ctx, userID)
	if err != nil {
		return nil, err
	}

	recs, err := s.rank(profile, policies, topN)
	if err != nil {
		return nil, err
	}

	logger.Debug("policy_recommend",
		"trace_id", tid,
		"user_id", userID,
		"top_n", topN,
		"candidate_count", len(policies),
		"model_version", key.ModelVersion,
	)

	if useCache {
		if err := s.cache.Set(ctx, key, recs); err != nil {
			logger.Warn("recommendation cache write failed", "trace_id", tid, "error", err)
		}
	}
	RecommendationsServedTotal.WithLabelValues(scoredByLabel(recs, s.ranker), "miss").Inc()

	return recs, nil
}

// RecommendForProfile ranks the active catalog for an ad-hoc profile.
func (s *Service) RecommendForProfile(ctx context.Context, profile domain.UserProfile, topN int) ([]domain.ScoredPolicy, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	policies, err := s.policyRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load policies: %w", err)
	}

	recs, err := s.rank(profile, policies, topN)
	if err != nil {
		return nil, err
	}
	RecommendationsServedTotal.WithLabelValues(scoredByLabel(recs, s.ranker), "bypass").Inc()
	return recs, nil
}

// Explain returns the ranked shortlist with rule sub-scores and raw features.
func (s *Service) Explain(ctx context.Context, userID uint, topN int) ([]domain.DebugRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	profile, policies, err := s.loadProfileAndCatalog(ctx, userID)
	if err != nil {
		return nil, err
	}

	logger.Debug("policy_recommend_debug",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", userID,
		"top_n", topN,
	)

	return s.ranker.Explain(profile, policies, topN)
}

//  Feedback / learning

// LogFeedback stores an interaction as a training example for the next retrain.
func (s *Service) LogFeedback(ctx context.Context, userID uint, policyID, eventType string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	target, err := TargetForEvent(eventType)
	if err != nil {
		return err
	}

	var (
		profile domain.UserProfile
		policy  domain.Policy
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profileRepo.FindByUserID(gctx, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		p, err := s.policyRepo.FindByID(gctx, policyID)
		if err != nil {
			return fmt.Errorf("load policy: %w", err)
		}
		policy = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	example := domain.TrainingExample{
		UserID:      userID,
		PolicyID:    policyID,
		EventType:   eventType,
		Policy:      policy,
		Profile:     profile,
		TargetScore: target,
	}
	if err := s.exampleRepo.SaveExample(ctx, example); err != nil {
		return fmt.Errorf("failed to save training example: %w", err)
	}

	logger.Debug("policy_feedback",
		"trace_id", TraceIDFromContext(ctx),
		"user_id", userID,
		"policy_id", policyID,
		"event_type", eventType,
		"target", target,
	)
	FeedbackEventsTotal.WithLabelValues(eventType).Inc()

	return nil
}

// Retrain fits a new model from stored examples and publishes it on success.
func (s *Service) Retrain(ctx context.Context) (TrainingReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RetrainTimeout)
	defer cancel()

	if s.ranker.Learned() == nil {
		TrainingRunsTotal.WithLabelValues("failed").Inc()
		return TrainingReport{}, errNoLearnedScorer
	}

	examples, err := s.exampleRepo.ListExamples(ctx, s.opts.MaxTrainingSamples)
	if err != nil {
		TrainingRunsTotal.WithLabelValues("failed").Inc()
		return TrainingReport{}, fmt.Errorf("load training examples: %w", err)
	}

	report, err := s.ranker.Learned().Train(ctx, examples)
	if err != nil {
		TrainingRunsTotal.WithLabelValues(trainingOutcome(err)).Inc()
		logger.Error("model training failed", "trace_id", TraceIDFromContext(ctx), "error", err)
		return TrainingReport{}, err
	}

	TrainingRunsTotal.WithLabelValues("success").Inc()
	ModelVersion.Set(float64(report.Version))
	return report, nil
}

// Train fits directly from caller-supplied examples.
func (s *Service) Train(ctx context.Context, examples []domain.TrainingExample) (TrainingReport, error) {
	if s.ranker.Learned() == nil {
		TrainingRunsTotal.WithLabelValues("failed").Inc()
		return TrainingReport{}, errNoLearnedScorer
	}
	report, err := s.ranker.Learned().Train(ctx, examples)
	if err != nil {
		TrainingRunsTotal.WithLabelValues(trainingOutcome(err)).Inc()
		return TrainingReport{}, err
	}
	TrainingRunsTotal.WithLabelValues("success").Inc()
	ModelVersion.Set(float64(report.Version))
	return report, nil
}

// RestoreModel publishes the latest persisted snapshot, if any.
func (s *Service) RestoreModel(ctx context.Context) error {
	if s.snapshotRepo == nil {
		return nil
	}
	snap, err := s.snapshotRepo.LatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load latest snapshot: %w", err)
	}
	if snap == nil {
		logger.Info("no persisted model snapshot, serving rule-based scores")
		return nil
	}
	if s.ranker.Learned() == nil {
		return errNoLearnedScorer
	}
	if err := s.ranker.Learned().Restore(snap); err != nil {
		return err
	}
	ModelVersion.Set(float64(snap.Version))
	logger.Info("model snapshot restored", "version", snap.Version, "trained_at", snap.TrainedAt)
	return nil
}

type ModelStatus struct {
	Ready          bool      `json:"ready"`
	Scorer         string    `json:"scorer"`
	Version        int       `json:"version"`
	TrainedAt      time.Time `json:"trained_at,omitempty"`
	TrainLoss      float64   `json:"train_loss"`
	ValidationLoss float64   `json:"validation_loss"`
	ExampleCount   int       `json:"example_count"`
}

func (s *Service) ModelStatus() ModelStatus {
	snap := s.snapshot()
	if snap == nil {
		return ModelStatus{Scorer: domain.ScoredByRules}
	}
	return ModelStatus{
		Ready:          true,
		Scorer:         domain.ScoredByLearned,
		Version:        snap.Version,
		TrainedAt:      snap.TrainedAt,
		TrainLoss:      snap.TrainLoss,
		ValidationLoss: snap.ValidationLoss,
		ExampleCount:   snap.ExampleCount,
	}
}

// ---- helpers ----

func (s *Service) rank(profile domain.UserProfile, policies []domain.Policy, topN int) ([]domain.ScoredPolicy, error) {
	start := time.Now()
	recs, err := s.ranker.Recommend(profile, policies, topN)
	RecommendationLatency.Observe(time.Since(start).Seconds())
	return recs, err
}

func (s *Service) loadProfileAndCatalog(ctx context.Context, userID uint) (domain.UserProfile, []domain.Policy, error) {
	var (
		profile  domain.UserProfile
		policies []domain.Policy
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profileRepo.FindByUserID(gctx, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		ps, err := s.policyRepo.FindActive(gctx)
		if err != nil {
			return fmt.Errorf("load policies: %w", err)
		}
		policies = ps
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.UserProfile{}, nil, err
	}
	return profile, policies, nil
}

func (s *Service) modelVersion() int {
	if snap := s.snapshot(); snap != nil {
		return snap.Version
	}
	return 0
}

// snapshot returns the published model, nil when none exists or the ranker
// was built without a learned scorer.
func (s *Service) snapshot() *ModelSnapshot {
	if s.ranker.Learned() == nil {
		return nil
	}
	return s.ranker.Learned().Snapshot()
}

func scoredByLabel(recs []domain.ScoredPolicy, r *Ranker) string {
	if len(recs) > 0 {
		return recs[0].ScoredBy
	}
	if r.Learned() != nil && r.Learned().Ready() {
		return domain.ScoredByLearned
	}
	return domain.ScoredByRules
}

func trainingOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrTrainingInProgress):
		return "rejected"
	case errors.Is(err, domain.ErrInsufficientTrainingData):
		return "insufficient_data"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "failed"
	}
}
