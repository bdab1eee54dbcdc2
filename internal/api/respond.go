package api

import (
	"errors"
	"net/http"

	"quickcourt/internal/apperr"
	"quickcourt/internal/logger"

	"github.com/gin-gonic/gin"
)

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, DataResponse{Data: data})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// StatusFor maps an error from the apperr taxonomy to an HTTP status.
func StatusFor(err error) int {
	var (
		validation   *apperr.ValidationError
		notFound     *apperr.NotFoundError
		conflict     *apperr.ConflictError
		invalidState *apperr.InvalidStateError
		unauthorized *apperr.UnauthorizedError
		forbidden    *apperr.ForbiddenError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict), errors.As(err, &invalidState):
		return http.StatusConflict
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes {"error": ...}. Unknown errors are logged and hidden
// behind a generic message.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(status, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
