package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"policyPortal/domain"
	"policyPortal/internal/middleware"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID uint) (*domain.UserProfile, error)
	SaveProfile(ctx context.Context, profile *domain.UserProfile, appetite domain.RiskAppetite, tolerance *float64) (*domain.UserProfile, error)
}

type ProfileHandler struct {
	profileService ProfileService
	validate       *validator.Validate
	timeout        time.Duration
}

func NewProfileHandler(profileService ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		validate:       validator.New(),
		timeout:        10 * time.Second,
	}
}

// ProfileRequest accepts either risk_tolerance in [0,1] or risk_appetite.
type ProfileRequest struct {
	Age              int      `json:"age" validate:"gte=0,lte=120"`
	Income           float64  `json:"income" validate:"gte=0"`
	Occupation       string   `json:"occupation"`
	FamilySize       int      `json:"family_size" validate:"gte=0"`
	RiskTolerance    *float64 `json:"risk_tolerance" validate:"omitempty,gte=0,lte=1"`
	RiskAppetite     string   `json:"risk_appetite" validate:"omitempty,oneof=low medium high LOW MEDIUM HIGH"`
	FinancialGoals   []string `json:"financial_goals"`
	ExistingPolicies []string `json:"existing_policies"`
	MaritalStatus    string   `json:"marital_status" validate:"omitempty,oneof=single married divorced widowed"`
}

func (r ProfileRequest) toDomain(userID uint) *domain.UserProfile {
	return &domain.UserProfile{
		UserID:           userID,
		Age:              r.Age,
		Income:           r.Income,
		Occupation:       r.Occupation,
		FamilySize:       r.FamilySize,
		FinancialGoals:   r.FinancialGoals,
		ExistingPolicies: r.ExistingPolicies,
		MaritalStatus:    domain.MaritalStatus(r.MaritalStatus),
	}
}

// appetite defaults to medium when neither risk field is supplied.
func (r ProfileRequest) appetite() domain.RiskAppetite {
	if r.RiskAppetite == "" && r.RiskTolerance == nil {
		return domain.RiskMedium
	}
	return domain.RiskAppetite(strings.ToLower(r.RiskAppetite))
}

// resolve builds an ad-hoc profile with its tolerance filled in.
func (r ProfileRequest) resolve(userID uint) (*domain.UserProfile, error) {
	p := r.toDomain(userID)
	if r.RiskTolerance != nil {
		p.RiskTolerance = *r.RiskTolerance
		return p, nil
	}
	v, err := domain.ToleranceForAppetite(r.appetite())
	if err != nil {
		return nil, err
	}
	p.RiskTolerance = v
	return p, nil
}

func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	profile, err := h.profileService.GetProfile(ctx, userID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(profile))
}

func (h *ProfileHandler) SaveProfile(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	saved, err := h.profileService.SaveProfile(ctx, req.toDomain(userID), req.appetite(), req.RiskTolerance)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(saved))
}
