package response

import (
	"errors"
	"net/http"

	"payment-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the wire format for API errors:
// {"error": {"code": "...", "description": "..."}}
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and human description.
type ErrorDetail struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// CreatedRaw sends pre-serialized JSON with a 201 status. Used where the
// response bytes must be byte-identical across idempotent retries.
func CreatedRaw(c *gin.Context, body []byte) {
	c.Data(http.StatusCreated, "application/json", body)
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorBody{Error: ErrorDetail{
			Code:        appErr.Code,
			Description: appErr.Message,
		}})
		return
	}

	// Unknown error -> 500
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{
		Code:        "SERVER_ERROR",
		Description: "Internal server error",
	}})
}
