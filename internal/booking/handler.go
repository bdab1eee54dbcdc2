package booking

import (
	"net/http"
	"strconv"
	"time"

	"quickcourt/internal/api"
	"quickcourt/internal/auth"
	"quickcourt/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		api.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func identity(c *gin.Context) (auth.Identity, bool) {
	id, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
	}
	return id, ok
}

// CreateBooking godoc
// @Summary      Book a court
// @Description  Books courtId (id or exact name) of venueId for durationHours starting at dateTime.
// @Description  userId defaults to the caller; only admins may book for someone else.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBookingRequest  true  "Booking request"
// @Success      201      {object}  api.DataResponse{data=Booking}
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	start, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		api.BadRequest(c, "dateTime must be an ISO-8601 timestamp with offset")
		return
	}

	userID := caller.UserID
	if req.UserID != 0 && req.UserID != caller.UserID {
		if !caller.IsAdmin() {
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "cannot book on behalf of another user"})
			return
		}
		userID = req.UserID
	}

	b, err := h.service.CreateBooking(c.Request.Context(), userID, req.VenueID, req.CourtID, start, req.DurationHours)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.Created(c, b)
}

// ListBookings godoc
// @Summary      List bookings
// @Description  Newest first. Plain users see their own bookings; facility owners also see bookings at venues they own.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        userId   query     int     false  "User filter"
// @Param        venueId  query     int     false  "Venue filter"
// @Param        status   query     string  false  "Status filter"
// @Success      200      {object}  api.DataResponse{data=[]Booking}
// @Failure      400      {object}  api.ErrorResponse
// @Router       /bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}

	f, ok := bindFilter(c)
	if !ok {
		return
	}
	switch caller.Role {
	case auth.RoleAdmin:
	case auth.RoleFacilityOwner:
		f.VisibleTo = caller.UserID
	default:
		f.UserID = caller.UserID
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), f)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.OK(c, bookings)
}

func bindFilter(c *gin.Context) (Filter, bool) {
	var f Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		api.BadRequest(c, err.Error())
		return f, false
	}
	if errs := api.ValidateStruct(f); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return f, false
	}
	return f, true
}

// GetBooking godoc
// @Summary      Get booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  api.DataResponse{data=Booking}
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), id, caller)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.OK(c, b)
}

// CancelBooking godoc
// @Summary      Cancel booking
// @Description  Only pending or confirmed bookings that have not started can be cancelled.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  api.DataResponse{data=Booking}
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Router       /bookings/{id}/cancel [patch]
func (h *Handler) CancelBooking(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), id, caller)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.OK(c, b)
}

// Availability godoc
// @Summary      Free hourly slots of a court
// @Tags         venues
// @Produce      json
// @Param        id        path      int     true  "Venue ID"
// @Param        courtRef  path      string  true  "Court id or name"
// @Param        date      query     string  true  "Local date, YYYY-MM-DD"
// @Success      200       {object}  api.DataResponse{data=[]Slot}
// @Failure      400       {object}  api.ErrorResponse
// @Failure      404       {object}  api.ErrorResponse
// @Router       /venues/{id}/courts/{courtRef}/availability [get]
func (h *Handler) Availability(c *gin.Context) {
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}

	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), h.service.Location())
	if err != nil {
		api.BadRequest(c, "date must be YYYY-MM-DD")
		return
	}

	slots, err := h.service.FreeSlots(c.Request.Context(), venueID, c.Param("courtRef"), date)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.OK(c, slots)
}

// ExportBookings godoc
// @Summary      Export bookings as xlsx
// @Tags         admin
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        userId   query     int     false  "User filter"
// @Param        venueId  query     int     false  "Venue filter"
// @Param        status   query     string  false  "Status filter"
// @Success      200
// @Failure      400      {object}  api.ErrorResponse
// @Router       /admin/bookings/export [get]
func (h *Handler) ExportBookings(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}

	filename := "bookings-" + time.Now().In(h.service.Location()).Format("20060102-1504") + ".xlsx"
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.service.ExportBookings(c.Request.Context(), f, c.Writer); err != nil {
		if c.Writer.Written() {
			logger.Error("booking export aborted mid-stream", "error", err)
			return
		}
		c.Header("Content-Disposition", "")
		api.RespondError(c, err)
	}
}
