package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/clinicore/docintake/api/handlers"
	"github.com/clinicore/docintake/api/middleware"
)

// SetupRoutes registers the intake API.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	intake := v1.Group("/intake")
	{
		intake.POST("/files", h.Intake.IntakeFiles)
		intake.GET("/pending", h.Intake.ListPending)
		intake.PATCH("/pending/:id", h.Intake.Override)
		intake.DELETE("/pending/:id", h.Intake.Discard)
		intake.POST("/confirm", h.Intake.ConfirmAll)
		intake.GET("/patients", h.Intake.ListPatients)
	}
}
