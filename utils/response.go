package utils

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func SuccessResponse(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c echo.Context, code int, message string, errors interface{}) error {
	return c.JSON(code, APIResponse{
		Success: false,
		Message: message,
		Errors:  errors,
	})
}

// ErrorResponseWithData is used where the client still needs the resource
// state alongside the failure, e.g. a failed submission.
func ErrorResponseWithData(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, APIResponse{
		Success: false,
		Message: message,
		Data:    data,
	})
}
