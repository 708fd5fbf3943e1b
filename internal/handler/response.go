package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"go.uber.org/zap"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// writeServiceError maps service sentinels onto HTTP statuses. Storage
// details are not exposed to the client.
func writeServiceError(c echo.Context, logger *zap.Logger, err error, what string) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("validation_error", ve.Error()))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", what+" not found"))
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("invalid_credentials", "invalid username or password"))
	}
	logger.Error("request failed",
		zap.String("what", what),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to process "+what))
}

const (
	ctxUID  = "uid"
	ctxRole = "role"
)

func currentUID(c echo.Context) string {
	uid, _ := c.Get(ctxUID).(string)
	return uid
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
}
