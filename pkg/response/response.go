package response

import (
	"errors"
	"net/http"
	"time"

	"payflow/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxCorrelationID is the gin context key under which middleware stores the
// request's correlation id.
const CtxCorrelationID = "correlation_id"

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Data          interface{} `json:"data"`
	CorrelationID string      `json:"correlation_id"`
	Timestamp     string      `json:"timestamp"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	ErrorCode     string `json:"error_code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id"`
	Timestamp     string `json:"timestamp"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data:          data,
		CorrelationID: getCorrelationID(c),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

// Accepted sends a 202 response with data. Used by intake: transfer creation
// returns immediately with PENDING, the terminal outcome arrives asynchronously.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, SuccessResponse{
		Data:          data,
		CorrelationID: getCorrelationID(c),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data:          data,
		CorrelationID: getCorrelationID(c),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			ErrorCode:     appErr.Code,
			Message:       appErr.Message,
			CorrelationID: getCorrelationID(c),
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	// Unknown error -> 500
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		ErrorCode:     "SYS_000",
		Message:       "Internal server error",
		CorrelationID: getCorrelationID(c),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

// getCorrelationID retrieves the correlation id from context, or generates one.
func getCorrelationID(c *gin.Context) string {
	if id, exists := c.Get(CtxCorrelationID); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}
