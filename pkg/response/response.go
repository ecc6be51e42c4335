package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// Accepted sends a 202 JSON response with data.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Body{Success: true, Data: data})
}

// Fail sends a failure with both an error message and fallback data, for read paths
// that degrade to an empty result instead of a bare error.
func Fail(c *gin.Context, status int, data interface{}, err string) {
	c.JSON(status, Body{Success: false, Data: data, Error: err})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// PreconditionFailed sends 412.
func PreconditionFailed(c *gin.Context, err string) {
	c.JSON(http.StatusPreconditionFailed, Body{Success: false, Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// Error maps a typed models error to its status code. Anything untyped is a 500
// with the fallback message; the caller is expected to have logged the cause.
func Error(c *gin.Context, err error, fallback string) {
	var (
		notFound     *models.NotFoundError
		unauthorized *models.UnauthorizedError
		forbidden    *models.ForbiddenError
		precondition *models.PreconditionFailedError
	)
	switch {
	case errors.As(err, &notFound):
		NotFound(c, notFound.Message)
	case errors.As(err, &unauthorized):
		Unauthorized(c, unauthorized.Message)
	case errors.As(err, &forbidden):
		Forbidden(c, forbidden.Message)
	case errors.As(err, &precondition):
		PreconditionFailed(c, precondition.Message)
	default:
		Internal(c, fallback)
	}
}

// IsClientError reports whether err maps to a 4xx status in Error.
func IsClientError(err error) bool {
	var (
		notFound     *models.NotFoundError
		unauthorized *models.UnauthorizedError
		forbidden    *models.ForbiddenError
		precondition *models.PreconditionFailedError
	)
	return errors.As(err, &notFound) || errors.As(err, &unauthorized) || errors.As(err, &forbidden) ||
		errors.As(err, &precondition)
}
