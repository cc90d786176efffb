package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/examprep/portal/core/session"
)

const tokenCookieMaxAge = 7 * 24 * time.Hour

type authApi struct {
	deps   *Deps
	secure bool
}

type loginResponse struct {
	Token   string          `json:"token"`
	Profile session.Profile `json:"profile"`
}

func registerAuthAPI(g *echo.Group, deps *Deps, secure bool) {
	api := authApi{deps: deps, secure: secure}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)
	ag.GET("/me", api.me, authMiddleware())
}

func (api *authApi) login(ctx echo.Context) error {
	data := new(session.LoginRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	token, profile, err := api.deps.Auth.Login(ctx.Request().Context(), *data)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	ctx.SetCookie(api.tokenCookie(token, int(tokenCookieMaxAge.Seconds())))
	return ctx.JSON(http.StatusOK, loginResponse{Token: token, Profile: profile})
}

// logout only forgets the token; the backend keeps no session to end.
func (api *authApi) logout(ctx echo.Context) error {
	ctx.SetCookie(api.tokenCookie("", -1))
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) me(ctx echo.Context) error {
	sess := contextSession(ctx)
	profile, err := api.deps.Auth.Profile(ctx.Request().Context(), sess.Token)
	if err != nil {
		return errors.Wrap(err, "probing session")
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *authApi) tokenCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   api.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
