package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type RiskAppetite string

const (
	RiskLow    RiskAppetite = "low"
	RiskMedium RiskAppetite = "medium"
	RiskHigh   RiskAppetite = "high"
)

// appetite -> tolerance used when a caller only supplies the categorical form
var appetiteTolerance = map[RiskAppetite]float64{
	RiskLow:    0.2,
	RiskMedium: 0.5,
	RiskHigh:   0.8,
}

// ToleranceForAppetite maps a categorical appetite onto [0,1].
func ToleranceForAppetite(a RiskAppetite) (float64, error) {
	v, ok := appetiteTolerance[RiskAppetite(strings.ToLower(string(a)))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown risk appetite %q", ErrInvalidProfile, a)
	}
	return v, nil
}

// AppetiteForTolerance buckets a tolerance into thirds.
func AppetiteForTolerance(t float64) RiskAppetite {
	switch {
	case t < 1.0/3.0:
		return RiskLow
	case t < 2.0/3.0:
		return RiskMedium
	default:
		return RiskHigh
	}
}

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "single"
	MaritalMarried  MaritalStatus = "married"
	MaritalDivorced MaritalStatus = "divorced"
	MaritalWidowed  MaritalStatus = "widowed"
)

type UserProfile struct {
	UserID           uint                        `gorm:"column:user_id;primaryKey" json:"user_id"`
	Age              int                         `gorm:"column:age;not null" json:"age"`
	Income           float64                     `gorm:"column:income;type:numeric;not null" json:"income"`
	Occupation       string                      `gorm:"column:occupation;type:text" json:"occupation"`
	FamilySize       int                         `gorm:"column:family_size" json:"family_size"`
	RiskTolerance    float64                     `gorm:"column:risk_tolerance;type:numeric" json:"risk_tolerance"`
	FinancialGoals   datatypes.JSONSlice[string] `gorm:"column:financial_goals;type:jsonb" json:"financial_goals"`
	ExistingPolicies datatypes.JSONSlice[string] `gorm:"column:existing_policies;type:jsonb" json:"existing_policies"`
	MaritalStatus    MaritalStatus               `gorm:"column:marital_status;type:text" json:"marital_status"`
	CreatedAt        time.Time                   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time                   `gorm:"column:updated_at" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

func (p UserProfile) RiskAppetite() RiskAppetite {
	return AppetiteForTolerance(p.RiskTolerance)
}

func (p UserProfile) Validate() error {
	switch {
	case p.Age < 0:
		return fmt.Errorf("%w: age cannot be negative", ErrInvalidProfile)
	case p.Income < 0 || math.IsNaN(p.Income):
		return fmt.Errorf("%w: income cannot be negative", ErrInvalidProfile)
	case p.FamilySize < 0:
		return fmt.Errorf("%w: family size cannot be negative", ErrInvalidProfile)
	case p.RiskTolerance < 0 || p.RiskTolerance > 1 || math.IsNaN(p.RiskTolerance):
		return fmt.Errorf("%w: risk tolerance must be within [0,1]", ErrInvalidProfile)
	}
	return nil
}
