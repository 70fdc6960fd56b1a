// Package router registers the HTTP routes of the service.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/handler"
	"github.com/iliyamo/seating-plan/internal/metrics"
	"github.com/iliyamo/seating-plan/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational routes.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterTemplates exposes the banquet preset catalogue.  The list is
// static, so it is served through the response cache.
func RegisterTemplates(e *echo.Echo, cache echo.MiddlewareFunc) {
	e.GET("/v1/templates", handler.Templates, cache)
}

// RegisterDevToken exposes the development token endpoint.
func RegisterDevToken(e *echo.Echo, h echo.HandlerFunc) {
	e.POST("/v1/dev/token", h)
}

// RegisterPlans registers the plan API under /v1/plans/:plan.  Every
// route requires a valid access token; viewers may only read.
func RegisterPlans(e *echo.Echo, p *handler.PlanHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/plans/:plan",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleOwner, middleware.RoleEditor, middleware.RoleViewer),
		middleware.ReadOnlyFor(middleware.RoleViewer),
		limiter,
	)

	g.GET("/state", p.GetState)
	g.PUT("/hall", p.SetHall)
	g.PUT("/validations", p.SetValidations)
	g.POST("/tab", p.SetActiveTab)
	g.GET("/conflicts", p.GetConflicts)

	g.POST("/areas", p.AddArea)
	g.PATCH("/areas/:id", p.PatchArea)
	g.DELETE("/areas/:id", p.DeleteArea)

	g.POST("/tables", p.AddTable)
	g.PATCH("/tables/:id", p.PatchTable)
	g.DELETE("/tables/:id", p.DeleteTable)
	g.POST("/tables/:id/move", p.MoveTable)
	g.POST("/tables/:id/resize", p.ResizeTable)
	g.POST("/tables/:id/rotate", p.RotateTable)
	g.PUT("/tables/:id/locked", p.SetTableLocked)

	g.POST("/seats", p.AddSeat)
	g.PATCH("/seats/:id", p.PatchSeat)
	g.DELETE("/seats/:id", p.DeleteSeat)
	g.POST("/seats/:id/assign", p.AssignGuest)
	g.DELETE("/seats/:id/assign", p.UnassignGuest)

	g.POST("/generate/seat-grid", p.GenerateSeatGrid)
	g.POST("/generate/banquet", p.GenerateBanquet)
	g.POST("/generate/template/:name", p.GenerateTemplate)
	g.GET("/generate/preview", p.GetPreview)
	g.POST("/generate/preview", p.ApplyPreview)
	g.DELETE("/generate/preview", p.ClearPreview)

	g.POST("/assign/auto", p.AutoAssign)
	g.POST("/assign/rules", p.AutoAssignRules)
	g.POST("/assign/suggest", p.Suggest)

	g.POST("/history/undo", p.Undo)
	g.POST("/history/redo", p.Redo)

	g.GET("/locks", p.ListLocks)
	g.POST("/locks/release-except", p.ReleaseLocksExcept)
	g.GET("/locks/event", p.GetLockEvent)
	g.DELETE("/locks/event", p.ConsumeLockEvent)
	g.POST("/locks/:table", p.AcquireLock)
	g.DELETE("/locks/:table", p.ReleaseLock)

	g.GET("/collaborators", p.Collaborators)
	g.PUT("/presence", p.SetPresence)

	g.GET("/snapshots", p.ListSnapshots)
	g.POST("/snapshots", p.SaveSnapshot)
	g.GET("/snapshots/:id", p.GetSnapshot)
	g.DELETE("/snapshots/:id", p.DeleteSnapshot)
	g.POST("/snapshots/:id/restore", p.RestoreSnapshot)

	g.GET("/export", p.Export)
	g.POST("/export", p.Export)

	g.GET("/live", p.Live)
}
