package router

import (
	"net/http"

	"policyPortal/internal/middleware"
	"policyPortal/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupPolicyRoutes(api *echo.Group, handler *rest.PolicyHandler) {
	policies := api.Group("/policies", middleware.AuthMiddleware())

	policies.GET("", handler.GetAllPolicies)
	policies.GET("/:id", handler.GetPolicyByID)
	policies.POST("", handler.CreatePolicy, middleware.AdminOnly())
	policies.PUT("/:id", handler.UpdatePolicy, middleware.AdminOnly())
	policies.DELETE("/:id", handler.DeletePolicy, middleware.AdminOnly())
}

func SetupProfileRoutes(api *echo.Group, handler *rest.ProfileHandler) {
	profile := api.Group("/profile", middleware.AuthMiddleware())
	profile.GET("", handler.GetProfile)
	profile.PUT("", handler.SaveProfile)
}

func SetRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler, limiter *middleware.ClientLimiter) {
	reco := api.Group("/recommendations", middleware.AuthMiddleware(), limiter.Middleware())
	reco.GET("", handler.Recommend)
	reco.POST("", handler.RecommendAdHoc)
	reco.GET("/debug", handler.DebugRecommend)
	reco.POST("/feedback", handler.Feedback)
}

func SetComparisonRoutes(api *echo.Group, handler *rest.RecommendationHandler, limiter *middleware.ClientLimiter) {
	api.POST("/comparisons", handler.Compare, middleware.AuthMiddleware(), limiter.Middleware())
}

func SetModelAdminRoutes(api *echo.Group, handler *rest.ModelAdminHandler) {
	admin := api.Group("/admin/model", middleware.AuthMiddleware(), middleware.AdminOnly())

	admin.GET("", handler.Status)
	admin.POST("/train", handler.Train)
}

// SetOpsRoutes exposes prometheus metrics and a liveness probe outside /api/v1.
func SetOpsRoutes(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
