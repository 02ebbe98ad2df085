package rest

import (
	"context"
	"net/http"

	"policyPortal/business/recommender"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type ModelAdminService interface {
	ModelStatus() recommender.ModelStatus
	Retrain(ctx context.Context) (recommender.TrainingReport, error)
}

type ModelAdminHandler struct {
	svc ModelAdminService
}

func NewModelAdminHandler(svc ModelAdminService) *ModelAdminHandler {
	return &ModelAdminHandler{svc: svc}
}

// GET /api/v1/admin/model
func (h *ModelAdminHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, fres.Response.StatusOK(h.svc.ModelStatus()))
}

// POST /api/v1/admin/model/train runs a retrain synchronously; the service
// applies its own timeout.
func (h *ModelAdminHandler) Train(c echo.Context) error {
	report, err := h.svc.Retrain(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}
