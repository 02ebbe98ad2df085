package rest

import (
	"context"
	"net/http"
	"time"

	"policyPortal/domain"
	"policyPortal/internal/middleware"
	"policyPortal/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecommendationHandler struct {
		validate    *validator.Validate
		recoService RecommendationService
		comparisons ComparisonService
		profiles    ProfileService
		timeout     time.Duration
	}

	RecommendationService interface {
		Recommend(ctx context.Context, userID uint, topN int) ([]domain.ScoredPolicy, error)
		RecommendForProfile(ctx context.Context, profile domain.UserProfile, topN int) ([]domain.ScoredPolicy, error)
		Explain(ctx context.Context, userID uint, topN int) ([]domain.DebugRecommendation, error)
		LogFeedback(ctx context.Context, userID uint, policyID, eventType string) error
	}

	ComparisonService interface {
		Compare(ctx context.Context, ids []string) (domain.Comparison, error)
		CompareForProfile(ctx context.Context, ids []string, profile domain.UserProfile) (domain.Comparison, error)
	}

	AdHocRecommendRequest struct {
		ProfileRequest
		N int `json:"n" validate:"gte=0,lte=50"`
	}

	FeedbackRequest struct {
		PolicyID  string `json:"policy_id" validate:"required,uuid"`
		EventType string `json:"event_type" validate:"required,oneof=viewed compared favorited purchased dismissed"`
	}

	CompareRequest struct {
		PolicyIDs  []string `json:"policy_ids" validate:"required"`
		UseProfile bool     `json:"use_profile"`
	}
)

func NewRecommendationHandler(reco RecommendationService, comparisons ComparisonService, profiles ProfileService) *RecommendationHandler {
	return &RecommendationHandler{
		validate:    validator.New(),
		recoService: reco,
		comparisons: comparisons,
		profiles:    profiles,
		timeout:     10 * time.Second,
	}
}

// GET /api/v1/recommendations?n=5
func (h *RecommendationHandler) Recommend(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	n, err := queryInt(c, "n", 0)
	if err != nil || n < 0 || n > 50 {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "n must be an integer between 0 and 50"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	recs, err := h.recoService.Recommend(ctx, userID, n)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

// POST /api/v1/recommendations ranks against a profile in the body
// without storing it.
func (h *RecommendationHandler) RecommendAdHoc(c echo.Context) error {
	userID, _ := middleware.UserIDFromContext(c)

	var req AdHocRecommendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	profile, err := req.resolve(userID)
	if err != nil {
		return errorJSON(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	recs, err := h.recoService.RecommendForProfile(ctx, *profile, req.N)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

// GET /api/v1/recommendations/debug?n=5
func (h *RecommendationHandler) DebugRecommend(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	n, err := queryInt(c, "n", 0)
	if err != nil || n < 0 || n > 50 {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "n must be an integer between 0 and 50"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	recs, err := h.recoService.Explain(ctx, userID, n)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

func (h *RecommendationHandler) Feedback(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.recoService.LogFeedback(ctx, userID, req.PolicyID, req.EventType); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("feedback recorded"))
}

// POST /api/v1/comparisons
func (h *RecommendationHandler) Compare(c echo.Context) error {
	var req CompareRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if !req.UseProfile {
		cmp, err := h.comparisons.Compare(ctx, req.PolicyIDs)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(http.StatusOK, fres.Response.StatusOK(cmp))
	}

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}
	profile, err := h.profiles.GetProfile(ctx, userID)
	if err != nil {
		return errorJSON(c, err)
	}

	cmp, err := h.comparisons.CompareForProfile(ctx, req.PolicyIDs, *profile)
	if err != nil {
		return errorJSON(c, err)
	}

	// comparing counts as an interaction for every policy shown
	for _, p := range cmp.Policies {
		if err := h.recoService.LogFeedback(ctx, userID, p.ID, domain.EventCompared); err != nil {
			logger.Warn("failed to log comparison feedback", "policy_id", p.ID, "error", err)
		}
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(cmp))
}
