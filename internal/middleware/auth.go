package middleware

import (
	"context"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/carbon-credit-backend/internal/co2ctx"
	"github.com/shinyyama/carbon-credit-backend/internal/handler"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	ContextUID  = "uid"
	ContextRole = "role"

	RoleOfficial = "official"
)

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware verifies Firebase ID tokens. Without a verifier it trusts the
// X-User-ID and X-User-Role headers, which is how the demo frontend signs in.
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware uses Firebase when projectID is set and header auth otherwise.
func NewAuthMiddleware(ctx context.Context, projectID string) (*AuthMiddleware, error) {
	if projectID == "" {
		return &AuthMiddleware{}, nil
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{verifier: client}, nil
}

func NewAuthMiddlewareWithVerifier(v TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: v}
}

func (m *AuthMiddleware) UsesFirebase() bool {
	return m.verifier != nil
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, role, fail := m.identify(c)
		if fail != nil {
			return c.JSON(http.StatusUnauthorized, handler.NewErrorResponse(fail.code, fail.message))
		}
		c.Set(ContextUID, uid)
		c.Set(ContextRole, role)
		req := c.Request()
		c.SetRequest(req.WithContext(co2ctx.WithUID(req.Context(), uid)))
		return next(c)
	}
}

// RequireOfficial must run after RequireAuth.
func (m *AuthMiddleware) RequireOfficial(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if role, _ := c.Get(ContextRole).(string); role != RoleOfficial {
			return c.JSON(http.StatusForbidden, handler.NewErrorResponse("forbidden", "official role required"))
		}
		return next(c)
	}
}

type authFailure struct {
	code    string
	message string
}

func (m *AuthMiddleware) identify(c echo.Context) (string, string, *authFailure) {
	if m.verifier == nil {
		uid := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
		if uid == "" {
			return "", "", &authFailure{"unauthorized", "missing " + HeaderUserID}
		}
		return uid, strings.TrimSpace(c.Request().Header.Get(HeaderUserRole)), nil
	}
	authz := c.Request().Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", "", &authFailure{"unauthorized", "missing bearer token"}
	}
	token, err := m.verifier.VerifyIDToken(c.Request().Context(), strings.TrimPrefix(authz, "Bearer "))
	if err != nil {
		return "", "", &authFailure{"invalid_token", "invalid token"}
	}
	role, _ := token.Claims["role"].(string)
	return token.UID, role, nil
}

// RequestContext copies the echo request id into the request context for
// service-level logging. It must run after echo's RequestID middleware.
func RequestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		if rid == "" {
			rid = c.Request().Header.Get(echo.HeaderXRequestID)
		}
		if rid != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(co2ctx.WithRID(req.Context(), rid)))
		}
		return next(c)
	}
}
