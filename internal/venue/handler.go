package venue

import (
	"net/http"
	"strconv"

	"quickcourt/internal/api"
	"quickcourt/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		api.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// @Summary      List venues
// @Tags         venues
// @Produce      json
// @Param        sport query string false "Sport tag filter"
// @Success      200 {object} api.DataResponse{data=[]venue.Venue}
// @Failure      400 {object} api.ErrorResponse
// @Router       /venues [get]
func (h *Handler) ListVenues(c *gin.Context) {
	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		api.BadRequest(c, err.Error())
		return
	}
	if errs := api.ValidateStruct(filter); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	venues, err := h.service.ListVenues(c.Request.Context(), filter)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.OK(c, venues)
}

// @Summary      Get venue
// @Description  Venue with its courts and reviews.
// @Tags         venues
// @Produce      json
// @Param        id path int true "Venue ID"
// @Success      200 {object} api.DataResponse{data=venue.Venue}
// @Failure      404 {object} api.ErrorResponse
// @Router       /venues/{id} [get]
func (h *Handler) GetVenue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	v, err := h.service.GetVenue(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.OK(c, v)
}

// @Summary      Create a venue
// @Description  Facility owners become the owner of the venue they create.
// @Tags         venues,owner
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body venue.CreateVenueRequest true "Venue payload"
// @Success      201 {object} api.DataResponse{data=venue.Venue}
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /venues [post]
func (h *Handler) CreateVenue(c *gin.Context) {
	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	v, err := h.service.CreateVenue(c.Request.Context(), identity, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.Created(c, v)
}

// @Summary      Add a court
// @Tags         venues,owner
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Venue ID"
// @Param        request body venue.CreateCourtRequest true "Court payload"
// @Success      201 {object} api.DataResponse{data=venue.Court}
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /venues/{id}/courts [post]
func (h *Handler) AddCourt(c *gin.Context) {
	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CreateCourtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	court, err := h.service.AddCourt(c.Request.Context(), identity, venueID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.Created(c, court)
}

// @Summary      Update a court
// @Description  Changes name, sport, price or hours. Existing bookings keep their price.
// @Tags         venues,owner
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Venue ID"
// @Param        courtId path int true "Court ID"
// @Param        request body venue.UpdateCourtRequest true "Fields to change"
// @Success      200 {object} api.DataResponse{data=venue.Court}
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /venues/{id}/courts/{courtId} [patch]
func (h *Handler) UpdateCourt(c *gin.Context) {
	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}
	courtID, ok := pathID(c, "courtId")
	if !ok {
		return
	}

	var req UpdateCourtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	court, err := h.service.UpdateCourt(c.Request.Context(), identity, venueID, courtID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.OK(c, court)
}

// @Summary      Delete a venue
// @Description  Admin-only. Courts and reviews are removed with it.
// @Tags         venues,admin
// @Security     BearerAuth
// @Param        id path int true "Venue ID"
// @Success      204
// @Failure      404 {object} api.ErrorResponse
// @Router       /venues/{id} [delete]
func (h *Handler) DeleteVenue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteVenue(c.Request.Context(), id); err != nil {
		api.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary      Review a venue
// @Tags         venues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Venue ID"
// @Param        request body venue.CreateReviewRequest true "Review"
// @Success      201 {object} api.DataResponse{data=venue.Review}
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /venues/{id}/reviews [post]
func (h *Handler) AddReview(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	venueID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	review, err := h.service.AddReview(c.Request.Context(), userID, venueID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.Created(c, review)
}
