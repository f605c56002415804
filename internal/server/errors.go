package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

func respondWithError(c *gin.Context, statusCode int, code, message, details string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func respondBadRequest(c *gin.Context, message, details string) {
	respondWithError(c, http.StatusBadRequest, ErrCodeBadRequest, message, details)
}

func respondNotFound(c *gin.Context, message string) {
	respondWithError(c, http.StatusNotFound, ErrCodeNotFound, message, "")
}

func respondUnavailable(c *gin.Context, message, details string) {
	respondWithError(c, http.StatusServiceUnavailable, ErrCodeConfiguration, message, details)
}

func respondInternalError(c *gin.Context, message, details string) {
	respondWithError(c, http.StatusInternalServerError, ErrCodeInternal, message, details)
}
