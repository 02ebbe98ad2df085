package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"policyPortal/domain"
	"policyPortal/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type PolicyService interface {
	GetAllPolicies(ctx context.Context, filter domain.PolicyFilter) ([]domain.Policy, error)
	GetPolicyByID(ctx context.Context, id string) (*domain.Policy, error)
	CreatePolicy(ctx context.Context, policy *domain.Policy) (*domain.Policy, error)
	UpdatePolicy(ctx context.Context, policy *domain.Policy) (*domain.Policy, error)
	DeletePolicy(ctx context.Context, id string) error
}

type PolicyHandler struct {
	policyService PolicyService
	validator     *validator.Validate
	timeout       time.Duration
}

func NewPolicyHandler(policyService PolicyService) *PolicyHandler {
	return &PolicyHandler{
		policyService: policyService,
		validator:     validator.New(),
		timeout:       10 * time.Second,
	}
}

type EligibilityRequest struct {
	MinAge    int     `json:"min_age" validate:"gte=0"`
	MaxAge    int     `json:"max_age" validate:"gtefield=MinAge"`
	MinIncome float64 `json:"min_income" validate:"gte=0"`
}

type PolicyRequest struct {
	Name                 string             `json:"name" validate:"required"`
	Category             string             `json:"category" validate:"required"`
	Provider             string             `json:"provider" validate:"required"`
	Premium              float64            `json:"premium" validate:"gte=0"`
	Coverage             float64            `json:"coverage" validate:"gte=0"`
	Term                 *int               `json:"term" validate:"omitempty,gt=0"`
	ClaimSettlementRatio *float64           `json:"claim_settlement_ratio" validate:"omitempty,gte=0,lte=100"`
	Benefits             []string           `json:"benefits"`
	AddOns               []string           `json:"add_ons"`
	Exclusions           []string           `json:"exclusions"`
	Goals                []string           `json:"goals"`
	Tags                 []string           `json:"tags"`
	Eligibility          EligibilityRequest `json:"eligibility"`
	Flexibility          domain.Flexibility `json:"flexibility"`
	Active               *bool              `json:"active"`
}

func (r PolicyRequest) toDomain(id string) *domain.Policy {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return &domain.Policy{
		ID:                   id,
		Name:                 r.Name,
		Category:             r.Category,
		Provider:             r.Provider,
		Premium:              r.Premium,
		Coverage:             r.Coverage,
		Term:                 r.Term,
		ClaimSettlementRatio: r.ClaimSettlementRatio,
		Benefits:             r.Benefits,
		AddOns:               r.AddOns,
		Exclusions:           r.Exclusions,
		Goals:                r.Goals,
		Tags:                 r.Tags,
		Eligibility: domain.Eligibility{
			MinAge:    r.Eligibility.MinAge,
			MaxAge:    r.Eligibility.MaxAge,
			MinIncome: r.Eligibility.MinIncome,
		},
		Flexibility: r.Flexibility,
		Active:      active,
	}
}

// GET /api/v1/policies?category=term&provider=acme&active=true
func (h *PolicyHandler) GetAllPolicies(c echo.Context) error {
	filter := domain.PolicyFilter{
		Category: c.QueryParam("category"),
		Provider: c.QueryParam("provider"),
	}
	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "active must be a boolean"})
		}
		filter.ActiveOnly = active
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	policies, err := h.policyService.GetAllPolicies(ctx, filter)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(policies))
}

func (h *PolicyHandler) GetPolicyByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	policy, err := h.policyService.GetPolicyByID(ctx, c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(policy))
}

func (h *PolicyHandler) CreatePolicy(c echo.Context) error {
	var req PolicyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.policyService.CreatePolicy(ctx, req.toDomain(""))
	if err != nil {
		logger.Warn("failed to create policy", "error", err)
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(created))
}

func (h *PolicyHandler) UpdatePolicy(c echo.Context) error {
	var req PolicyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	updated, err := h.policyService.UpdatePolicy(ctx, req.toDomain(c.Param("id")))
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}

func (h *PolicyHandler) DeletePolicy(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.policyService.DeletePolicy(ctx, c.Param("id")); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("policy deleted successfully"))
}
