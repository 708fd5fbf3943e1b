package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"go.uber.org/zap"
)

// VerificationHandler is public; no authentication is required.
type VerificationHandler struct {
	svc    service.VerificationService
	logger *zap.Logger
}

func NewVerificationHandler(svc service.VerificationService, logger *zap.Logger) *VerificationHandler {
	return &VerificationHandler{svc: svc, logger: logger}
}

func (h *VerificationHandler) ByID(c echo.Context) error {
	res, err := h.svc.Verify(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, h.logger, err, "verification")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *VerificationHandler) ByToken(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "token is required"))
	}
	res, err := h.svc.Resolve(c.Request().Context(), token)
	if err != nil {
		return writeServiceError(c, h.logger, err, "verification")
	}
	return c.JSON(http.StatusOK, res)
}
