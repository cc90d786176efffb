package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/core/session"
)

const (
	visitorCookie = "visitor_id"
	tokenCookie   = "token"

	contextSessionKey = "session"
	contextVisitorKey = "visitor_id"
	contextStorageKey = "storage"

	visitorCookieMaxAge = 365 * 24 * time.Hour
)

// visitorMiddleware identifies the browser with a visitor_id cookie, issued on first visit,
// and scopes the visitor's storage.
func visitorMiddleware(storage core.ScopedStorage, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var visitorID string
			if c, err := ctx.Cookie(visitorCookie); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					visitorID = id.String()
				}
			}
			if visitorID == "" {
				visitorID = uuid.New().String()
				ctx.SetCookie(&http.Cookie{
					Name:     visitorCookie,
					Value:    visitorID,
					Path:     "/",
					MaxAge:   int(visitorCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx.Set(contextVisitorKey, visitorID)
			if storage != nil {
				ctx.Set(contextStorageKey, storage.Scope(visitorID))
			}
			return next(ctx)
		}
	}
}

// sessionMiddleware reads the backend token from the Authorization header or the token cookie.
// A missing token yields an anonymous session.
func sessionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var token string
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
				token = strings.TrimSpace(auth[7:])
			} else if c, err := ctx.Cookie(tokenCookie); err == nil {
				token = c.Value
			}
			ctx.Set(contextSessionKey, session.New(token))
			return next(ctx)
		}
	}
}

// authMiddleware requires a token that has not expired. The backend still has the last word.
func authMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := contextSession(ctx)
			if !sess.HasToken() || sess.Expired(time.Now()) {
				return errHttpUnauthorized
			}
			return next(ctx)
		}
	}
}

// adminMiddleware requires a token carrying the admin role.
func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return authMiddleware()(func(ctx echo.Context) error {
			sess := contextSession(ctx)
			if !sess.IsAdmin() {
				return errHttpForbidden
			}
			for _, role := range roles {
				if !sess.HasRole(role) {
					return errHttpForbidden
				}
			}
			return next(ctx)
		})
	}
}

func contextSession(ctx echo.Context) session.Session {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess
	}
	return session.Anonymous()
}

func contextStorage(ctx echo.Context) (core.Storage, error) {
	if store, ok := ctx.Get(contextStorageKey).(core.Storage); ok {
		return store, nil
	}
	return nil, newRetryableError(errNoStorage, "visitor storage unavailable")
}
