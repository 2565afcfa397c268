// Package api exposes the reservation system over HTTP.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"menza/internal/models"
	"menza/internal/report"
	"menza/internal/service"
)

// actorHeader carries the id of the student performing the request.
const actorHeader = "X-Student-ID"

// Handler holds the services behind the HTTP surface.
type Handler struct {
	students     *service.StudentService
	canteens     *service.CanteenService
	reservations *service.ReservationService
	restrictions *service.RestrictionService
	reports      *report.Exporter
	logger       *zerolog.Logger
}

// NewHandler constructs the handler.
func NewHandler(
	students *service.StudentService,
	canteens *service.CanteenService,
	reservations *service.ReservationService,
	restrictions *service.RestrictionService,
	reports *report.Exporter,
	logger *zerolog.Logger,
) *Handler {
	return &Handler{
		students:     students,
		canteens:     canteens,
		reservations: reservations,
		restrictions: restrictions,
		reports:      reports,
		logger:       logger,
	}
}

func (h *Handler) PostStudent(c *gin.Context) {
	var in service.RegisterStudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeBadRequest(c, "invalid JSON body")
		return
	}
	student, err := h.students.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (h *Handler) GetStudent(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

func (h *Handler) GetStudentReservations(c *gin.Context) {
	reservations, err := h.reservations.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if reservations == nil {
		reservations = []models.Reservation{}
	}
	c.JSON(http.StatusOK, reservations)
}

type canteenRequest struct {
	Name         string               `json:"name"`
	Location     string               `json:"location"`
	Capacity     int                  `json:"capacity"`
	WorkingHours []models.WorkingHour `json:"working_hours"`
}

func (h *Handler) PostCanteen(c *gin.Context) {
	var req canteenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid JSON body")
		return
	}
	canteen, err := h.canteens.Create(c.Request.Context(), c.GetHeader(actorHeader), service.CanteenInput{
		Name:         req.Name,
		Location:     req.Location,
		Capacity:     req.Capacity,
		WorkingHours: req.WorkingHours,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, canteen)
}

func (h *Handler) GetCanteen(c *gin.Context) {
	canteen, err := h.canteens.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, canteen)
}

func (h *Handler) ListCanteens(c *gin.Context) {
	canteens, err := h.canteens.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if canteens == nil {
		canteens = []models.Canteen{}
	}
	c.JSON(http.StatusOK, canteens)
}

func (h *Handler) PutCanteen(c *gin.Context) {
	var req canteenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid JSON body")
		return
	}
	canteen, err := h.canteens.Update(c.Request.Context(), c.GetHeader(actorHeader), c.Param("id"), service.CanteenInput{
		Name:         req.Name,
		Location:     req.Location,
		Capacity:     req.Capacity,
		WorkingHours: req.WorkingHours,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, canteen)
}

func (h *Handler) DeleteCanteen(c *gin.Context) {
	if err := h.canteens.Delete(c.Request.Context(), c.GetHeader(actorHeader), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reservationRequest struct {
	StudentID string `json:"student_id"`
	CanteenID string `json:"canteen_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Duration  int    `json:"duration"`
}

func (h *Handler) PostReservation(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid JSON body")
		return
	}
	date, err := time.ParseInLocation(models.DateFormat, req.Date, time.UTC)
	if err != nil {
		writeBadRequest(c, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", req.Date))
		return
	}
	reservation, err := h.reservations.Create(c.Request.Context(), service.CreateReservationInput{
		StudentID: req.StudentID,
		CanteenID: req.CanteenID,
		Date:      date,
		Time:      req.Time,
		Duration:  req.Duration,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

func (h *Handler) DeleteReservation(c *gin.Context) {
	reservation, err := h.reservations.Cancel(c.Request.Context(), c.Param("id"), c.GetHeader(actorHeader))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

type restrictionRequest struct {
	StartDate    string               `json:"start_date"`
	EndDate      string               `json:"end_date"`
	WorkingHours []models.WorkingHour `json:"working_hours"`
}

func (h *Handler) PostRestriction(c *gin.Context) {
	var req restrictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid JSON body")
		return
	}
	start, err := time.ParseInLocation(models.DateFormat, req.StartDate, time.UTC)
	if err != nil {
		writeBadRequest(c, fmt.Sprintf("invalid start_date %q, expected YYYY-MM-DD", req.StartDate))
		return
	}
	end, err := time.ParseInLocation(models.DateFormat, req.EndDate, time.UTC)
	if err != nil {
		writeBadRequest(c, fmt.Sprintf("invalid end_date %q, expected YYYY-MM-DD", req.EndDate))
		return
	}
	restriction, err := h.restrictions.Create(c.Request.Context(), c.GetHeader(actorHeader), c.Param("id"), service.CreateRestrictionInput{
		StartDate:    start,
		EndDate:      end,
		WorkingHours: req.WorkingHours,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, restriction)
}

func (h *Handler) ListRestrictions(c *gin.Context) {
	restrictions, err := h.restrictions.ListByCanteen(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if restrictions == nil {
		restrictions = []models.Restriction{}
	}
	c.JSON(http.StatusOK, restrictions)
}

func (h *Handler) DeleteRestriction(c *gin.Context) {
	err := h.restrictions.Delete(c.Request.Context(), c.GetHeader(actorHeader), c.Param("id"), c.Param("restrictionID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetReservationReport streams an .xlsx of the canteen's active
// reservations for ?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) GetReservationReport(c *gin.Context) {
	from, err := time.ParseInLocation(models.DateFormat, c.Query("from"), time.UTC)
	if err != nil {
		writeBadRequest(c, "invalid or missing from date, expected YYYY-MM-DD")
		return
	}
	to, err := time.ParseInLocation(models.DateFormat, c.Query("to"), time.UTC)
	if err != nil {
		writeBadRequest(c, "invalid or missing to date, expected YYYY-MM-DD")
		return
	}

	canteenID := c.Param("id")
	filename := fmt.Sprintf("reservations_%s_%s.xlsx", c.Query("from"), c.Query("to"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := h.reports.ActiveReservations(c.Request.Context(), canteenID, from, to, c.Writer); err != nil {
		h.logger.Error().Err(err).Str("canteen_id", canteenID).Msg("report export failed")
		c.Status(http.StatusInternalServerError)
	}
}
