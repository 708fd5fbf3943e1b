package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"go.uber.org/zap"
)

type SessionHandler struct {
	svc    service.SessionService
	logger *zap.Logger
}

func NewSessionHandler(svc service.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type officialLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	s, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, h.logger, err, "login")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SessionHandler) Signup(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	s, err := h.svc.Signup(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return writeServiceError(c, h.logger, err, "signup")
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *SessionHandler) Logout(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	if err := h.svc.Logout(c.Request().Context(), uid); err != nil {
		return writeServiceError(c, h.logger, err, "logout")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SessionHandler) Me(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	s, err := h.svc.Current(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, h.logger, err, "user")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SessionHandler) OfficialLogin(c echo.Context) error {
	var req officialLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	p, err := h.svc.OfficialLogin(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return writeServiceError(c, h.logger, err, "official login")
	}
	return c.JSON(http.StatusOK, p)
}
