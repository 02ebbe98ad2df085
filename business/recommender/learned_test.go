package recommender

import (
	"context"
	"errors"
	"testing"

	"policyPortal/domain"
)

type recordingStore struct {
	saved []*ModelSnapshot
	err   error
}

func (s *recordingStore) SaveSnapshot(_ context.Context, snap *ModelSnapshot) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, snap)
	return nil
}

func TestLearnedScorer_PredictBeforeTraining(t *testing.T) {
	s := NewLearnedScorer(fastTrainingConfig(), DefaultTables(), nil)
	if s.Ready() {
		t.Fatalf("Ready() = true before training")
	}
	if _, err := s.Predict(samplePolicy("a"), sampleProfile()); !errors.Is(err, domain.ErrNotFitted) {
		t.Errorf("Predict() error = %v, want ErrNotFitted", err)
	}
}

func TestLearnedScorer_TrainAndPredict(t *testing.T) {
	store := &recordingStore{}
	s := NewLearnedScorer(fastTrainingConfig(), DefaultTables(), store)

	report, err := s.Train(context.Background(), syntheticExamples(40))
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if report.Version != 1 {
		t.Errorf("Version = %d, want 1", report.Version)
	}
	if report.TrainRows+report.ValidationRows != 40 {
		t.Errorf("rows = %d+%d, want 40", report.TrainRows, report.ValidationRows)
	}
	if report.ValidationRows != 8 {
		t.Errorf("ValidationRows = %d, want 8", report.ValidationRows)
	}
	if len(store.saved) != 1 || store.saved[0] != s.Snapshot() {
		t.Errorf("snapshot was not persisted before publish")
	}

	got, err := s.Predict(samplePolicy("a"), sampleProfile())
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got < 0 || got > 1 {
		t.Errorf("Predict() = %v, outside [0,1]", got)
	}

	again, _ := s.Predict(samplePolicy("a"), sampleProfile())
	if again != got {
		t.Errorf("Predict() not stable: %v then %v", got, again)
	}
}

func TestLearnedScorer_SeededTrainingIsDeterministic(t *testing.T) {
	examples := syntheticExamples(30)
	a := NewLearnedScorer(fastTrainingConfig(), DefaultTables(), nil)
	b := NewLearnedScorer(fastTrainingConfig(), DefaultTables(), nil)

	if _, err := a.Train(context.Background(), examples); err != nil {
		t.Fatalf("Train(a) error = %v", err)
	}
	if _, err := b.Train(context.Background(), examples); err != nil {
		t.Fatalf("Train(b) error = %v", err)
	}

	pa, _ := a.Predict(samplePolicy("x"), sampleProfile())
	pb, _ := b.Predict(samplePolicy("x"), sampleProfile())
	if pa != pb {
		t.Errorf("same seed produced %v and %v", pa, pb)
	}
}

func TestLearnedScorer_RetrainBumpsVersion(t *testing.T) {
	s := NewLearnedScorer(fastTrainingConfig(), DefaultTables(), nil)
	if _, err := s.Train(context.Background(), syntheticExamples(20)); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	first := s.Snapshot()

	report, err := s.Train(context.Background(), syntheticExamples(25))
	if err != nil {
		t.Fatalf("second Train() error = %v", err)
	}
	if report.Version != 2 {
		t.Errorf("Version = %d, want 2", report.Version)
	}
	if s.Snapshot() == first {
		t.Errorf("snapshot was not replaced")
	}
	if first.Version != 1 {
		t.Errorf("published snapshot was mutated: version %d", first.Version)
	}
}

func TestLearnedScorer_FailedTrainingKeepsSnapshot(t *testing.T) {
	store := &recordingStore{}
	s := NewLearnedScorer(fastTrainingConfig(), DefaultTables(), store)
	if _, err := s.Train(context.Background(), syntheticExamples(20)); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	before := s.Snapshot()

	t.Run("too few examples", func(t *testing.T) {
		_, err := s.Train(context.Background(), syntheticExamples(3))
		if !errors.Is(err, domain.ErrInsufficientTrainingData) {
			t.Errorf("Train() error = %v, want ErrInsufficientTrainingData", err)
		}
	})

	t.Run("target out of range", func(t *testing.T) {
		ex := syntheticExamples(20)
		ex[4].TargetScore = 1.5
		if _, err := s.Train(context.Background(), ex); err == nil {
			t.Errorf("Train() error = nil, want error")
		}
	})

	t.Run("invalid policy", func(t *testing.T) {
		ex := syntheticExamples(20)
		ex[2].Policy.Eligibility.MinAge = 70
		if _, err := s.Train(context.Background(), ex); !errors.Is(err, domain.ErrInvalidProfile) {
			t.Errorf("Train() error = %v, want ErrInvalidProfile", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := s.Train(ctx, syntheticExamples(20)); !errors.Is(err, context.Canceled) {
			t.Errorf("Train() error = %v, want context.Canceled", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		store.err = errors.New("disk full")
		defer func() { store.err = nil }()
		if _, err := s.Train(context.Background(), syntheticExamples(20)); err == nil {
			t.Errorf("Train() error = nil, want persist failure")
		}
	})

	if s.Snapshot() != before {
		t.Errorf("failed training replaced the published snapshot")
	}
}

func TestLearnedScorer_RejectsConcurrentTraining(t *testing.T) {
	s := NewLearnedScorer(fastTrainingConfig(), DefaultTables(), nil)

	s.trainMu.Lock()
	_, err := s.Train(context.Background(), syntheticExamples(20))
	s.trainMu.Unlock()

	if !errors.Is(err, domain.ErrTrainingInProgress) {
		t.Errorf("Train() error = %v, want ErrTrainingInProgress", err)
	}
	if s.Ready() {
		t.Errorf("rejected training published a snapshot")
	}
}

func TestLearnedScorer_Restore(t *testing.T) {
	trained := NewLearnedScorer(fastTrainingConfig(), DefaultTables(), nil)
	if _, err := trained.Train(context.Background(), syntheticExamples(20)); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	fresh := NewLearnedScorer(fastTrainingConfig(), DefaultTables(), nil)
	if err := fresh.Restore(trained.Snapshot()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	want, _ := trained.Predict(samplePolicy("a"), sampleProfile())
	got, _ := fresh.Predict(samplePolicy("a"), sampleProfile())
	if got != want {
		t.Errorf("restored Predict() = %v, want %v", got, want)
	}

	if err := fresh.Restore(&ModelSnapshot{Version: 9}); err == nil {
		t.Errorf("Restore(empty snapshot) error = nil, want error")
	}
	if fresh.Snapshot().Version != 1 {
		t.Errorf("invalid restore replaced the snapshot")
	}
}
