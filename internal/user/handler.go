package user

import (
	"net/http"

	"quickcourt/internal/api"
	"quickcourt/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register godoc
// @Summary      Sign up without verification
// @Description  Creates an unverified account and returns access & refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "Signup data"
// @Success      201      {object}  api.DataResponse{data=LoginResponse}
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /auth/signup [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	user, accessToken, refreshToken, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.Created(c, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// RequestOTP godoc
// @Summary      Request signup code
// @Description  Stores the signup for 10 minutes and emails a 6 digit code.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "Signup data"
// @Success      202      {object}  api.MessageResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /auth/signup/request-otp [post]
func (h *Handler) RequestOTP(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	if err := h.service.RequestSignupOTP(c.Request.Context(), req); err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, api.MessageResponse{Message: "verification code sent"})
}

// VerifyOTP godoc
// @Summary      Confirm signup code
// @Description  Creates a verified account from a pending signup.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      VerifyOTPRequest  true  "Email and code"
// @Success      201      {object}  api.DataResponse{data=LoginResponse}
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /auth/signup/verify-otp [post]
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	user, accessToken, refreshToken, err := h.service.VerifySignupOTP(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.Created(c, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// Login godoc
// @Summary      Login user
// @Description  Authenticates user by email and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "User credentials"
// @Success      200      {object}  api.DataResponse{data=LoginResponse}
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	user, accessToken, refreshToken, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.OK(c, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// GetMe godoc
// @Summary      Get current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  api.DataResponse{data=User}
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.OK(c, user)
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RefreshRequest  true  "Refresh token"
// @Success      200      {object}  api.DataResponse{data=LoginResponse}
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "refresh_token is required")
		return
	}

	accessToken, user, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	api.OK(c, LoginResponse{AccessToken: accessToken, User: *user})
}

// Logout godoc
// @Summary      Logout
// @Description  Revokes the current access token and the optional refresh token.
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      LogoutRequest  false  "Refresh token to revoke"
// @Success      200      {object}  api.MessageResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	identity, ok := auth.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.service.Logout(c.Request.Context(), identity, req.RefreshToken); err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "logged out"})
}
