package domain

import (
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE public.policies (
//     id                      UUID PRIMARY KEY,
//     name                    TEXT NOT NULL,
//     category                TEXT NOT NULL,
//     provider                TEXT NOT NULL,
//     premium                 NUMERIC NOT NULL,
//     coverage                NUMERIC NOT NULL,
//     term_years              INT,
//     claim_settlement_ratio  NUMERIC,
//     benefits, add_ons, exclusions, goals, tags  JSONB,
//     min_age, max_age        INT,
//     min_income              NUMERIC,
//     flex_*                  BOOLEAN,
//     active                  BOOLEAN DEFAULT TRUE,
//     created_at, updated_at  TIMESTAMPTZ DEFAULT NOW()
// );

type Eligibility struct {
	MinAge    int     `gorm:"column:min_age" json:"min_age"`
	MaxAge    int     `gorm:"column:max_age" json:"max_age"`
	MinIncome float64 `gorm:"column:min_income;type:numeric" json:"min_income"`
}

// Flexibility holds the boolean feature flags a policy offers.
type Flexibility struct {
	PremiumHoliday    bool `gorm:"column:premium_holiday" json:"premium_holiday"`
	PartialWithdrawal bool `gorm:"column:partial_withdrawal" json:"partial_withdrawal"`
	TopUp             bool `gorm:"column:top_up" json:"top_up"`
	Portability       bool `gorm:"column:portability" json:"portability"`
	RiderAttach       bool `gorm:"column:rider_attach" json:"rider_attach"`
	TermConversion    bool `gorm:"column:term_conversion" json:"term_conversion"`
}

// Length is the number of enabled flags.
func (f Flexibility) Length() int {
	n := 0
	for _, on := range []bool{
		f.PremiumHoliday,
		f.PartialWithdrawal,
		f.TopUp,
		f.Portability,
		f.RiderAttach,
		f.TermConversion,
	} {
		if on {
			n++
		}
	}
	return n
}

type Policy struct {
	ID                   string                      `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	Name                 string                      `gorm:"column:name;type:text;not null" json:"name"`
	Category             string                      `gorm:"column:category;type:text;not null" json:"category"`
	Provider             string                      `gorm:"column:provider;type:text;not null" json:"provider"`
	Premium              float64                     `gorm:"column:premium;type:numeric;not null" json:"premium"`
	Coverage             float64                     `gorm:"column:coverage;type:numeric;not null" json:"coverage"`
	Term                 *int                        `gorm:"column:term_years" json:"term,omitempty"`
	ClaimSettlementRatio *float64                    `gorm:"column:claim_settlement_ratio;type:numeric" json:"claim_settlement_ratio,omitempty"`
	Benefits             datatypes.JSONSlice[string] `gorm:"column:benefits;type:jsonb" json:"benefits"`
	AddOns               datatypes.JSONSlice[string] `gorm:"column:add_ons;type:jsonb" json:"add_ons"`
	Exclusions           datatypes.JSONSlice[string] `gorm:"column:exclusions;type:jsonb" json:"exclusions"`
	Goals                datatypes.JSONSlice[string] `gorm:"column:goals;type:jsonb" json:"goals"`
	Tags                 datatypes.JSONSlice[string] `gorm:"column:tags;type:jsonb" json:"tags"`
	Eligibility          Eligibility                 `gorm:"embedded" json:"eligibility"`
	Flexibility          Flexibility                 `gorm:"embedded;embeddedPrefix:flex_" json:"flexibility"`
	Active               bool                        `gorm:"column:active;default:true" json:"active"`
	CreatedAt            time.Time                   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time                   `gorm:"column:updated_at" json:"updated_at"`
}

// PolicyFilter narrows catalog listings. Zero value lists everything.
type PolicyFilter struct {
	Category   string
	Provider   string
	ActiveOnly bool
}

func (Policy) TableName() string {
	return "policies"
}

// TermYears returns the term, 0 when absent.
func (p Policy) TermYears() int {
	if p.Term == nil {
		return 0
	}
	return *p.Term
}

// CSR returns the claim settlement ratio, 0 when absent.
func (p Policy) CSR() float64 {
	if p.ClaimSettlementRatio == nil {
		return 0
	}
	return *p.ClaimSettlementRatio
}

// Validate checks the attributes the scorers rely on.
func (p Policy) Validate() error {
	switch {
	case p.Eligibility.MinAge > p.Eligibility.MaxAge:
		return fmt.Errorf("%w: policy %s: min age %d greater than max age %d",
			ErrInvalidProfile, p.ID, p.Eligibility.MinAge, p.Eligibility.MaxAge)
	case p.Premium < 0 || math.IsNaN(p.Premium):
		return fmt.Errorf("%w: policy %s: premium cannot be negative", ErrInvalidProfile, p.ID)
	case p.Coverage < 0 || math.IsNaN(p.Coverage):
		return fmt.Errorf("%w: policy %s: coverage cannot be negative", ErrInvalidProfile, p.ID)
	case p.ClaimSettlementRatio != nil && (*p.ClaimSettlementRatio < 0 || *p.ClaimSettlementRatio > 100):
		return fmt.Errorf("%w: policy %s: claim settlement ratio must be within [0,100]", ErrInvalidProfile, p.ID)
	}
	return nil
}
