package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires all endpoints onto the router.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	students := r.Group("/students")
	{
		students.POST("", h.PostStudent)
		students.GET("/:id", h.GetStudent)
		students.GET("/:id/reservations", h.GetStudentReservations)
	}

	canteens := r.Group("/canteens")
	{
		canteens.POST("", h.PostCanteen)
		canteens.GET("", h.ListCanteens)
		canteens.GET("/:id", h.GetCanteen)
		canteens.PUT("/:id", h.PutCanteen)
		canteens.DELETE("/:id", h.DeleteCanteen)

		canteens.POST("/:id/restrictions", h.PostRestriction)
		canteens.GET("/:id/restrictions", h.ListRestrictions)
		canteens.DELETE("/:id/restrictions/:restrictionID", h.DeleteRestriction)

		canteens.GET("/:id/report", h.GetReservationReport)
	}

	reservations := r.Group("/reservations")
	{
		reservations.POST("", h.PostReservation)
		reservations.DELETE("/:id", h.DeleteReservation)
	}
}
