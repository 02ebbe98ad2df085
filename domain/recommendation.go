package domain

import "time"

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

const (
	ScoredByLearned = "learned"
	ScoredByRules   = "rules"
)

type ScoredPolicy struct {
	Policy     Policy     `json:"policy"`
	Score      float64    `json:"score"`
	Confidence Confidence `json:"confidence"`
	ScoredBy   string     `json:"scored_by"`
}

// ScoreBreakdown is the rule-based explanation of a single score.
type ScoreBreakdown struct {
	PolicyID       string  `json:"policy_id"`
	Age            float64 `json:"age"`
	Affordability  float64 `json:"affordability"`
	GoalMatch      float64 `json:"goal_match"`
	RiskAlignment  float64 `json:"risk_alignment"`
	Total          float64 `json:"total"`
	IncomeEligible bool    `json:"income_eligible"`
}

type DebugRecommendation struct {
	ScoredPolicy
	Breakdown    ScoreBreakdown `json:"breakdown"`
	Features     []float64      `json:"features"`
	ModelVersion int            `json:"model_version"`
}

type ComparisonRow struct {
	PolicyID             string   `json:"policy_id"`
	Name                 string   `json:"name"`
	Provider             string   `json:"provider"`
	Category             string   `json:"category"`
	Premium              float64  `json:"premium"`
	Coverage             float64  `json:"coverage"`
	Term                 int      `json:"term"`
	ClaimSettlementRatio float64  `json:"claim_settlement_ratio"`
	Benefits             []string `json:"benefits"`
	AddOns               []string `json:"add_ons"`
	Exclusions           []string `json:"exclusions"`
	Goals                []string `json:"goals"`
	FlexibilityLength    int      `json:"flexibility_length"`
}

type Comparison struct {
	Policies          []Policy        `json:"policies"`
	Rows              []ComparisonRow `json:"rows"`
	BestByPremium     Policy          `json:"best_by_premium"`
	BestByCoverage    Policy          `json:"best_by_coverage"`
	BestByFlexibility Policy          `json:"best_by_flexibility"`
	Scores            []ScoredPolicy  `json:"scores,omitempty"`
}

// TrainingExample pairs a (policy, profile) snapshot with the score it should earn.
type TrainingExample struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"column:user_id;index" json:"user_id"`
	PolicyID    string      `gorm:"column:policy_id;type:uuid" json:"policy_id"`
	EventType   string      `gorm:"column:event_type;type:text" json:"event_type"`
	Policy      Policy      `gorm:"column:policy_snapshot;type:jsonb;serializer:json" json:"policy"`
	Profile     UserProfile `gorm:"column:profile_snapshot;type:jsonb;serializer:json" json:"profile"`
	TargetScore float64     `gorm:"column:target_score;not null" json:"target_score"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (TrainingExample) TableName() string {
	return "training_examples"
}

// Interaction events a user can report against a recommended policy.
const (
	EventViewed    = "viewed"
	EventCompared  = "compared"
	EventFavorited = "favorited"
	EventPurchased = "purchased"
	EventDismissed = "dismissed"
)
