package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quangvd/barem/core"
)

var errUnauthenticated = echo.NewHTTPError(http.StatusUnauthorized, "not logged in")

// SessionMiddleware guards the authed routes: without a held token every
// call would only bounce off the backend anyway.
func SessionMiddleware(session *core.Session) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !session.Authenticated() {
				return errUnauthenticated
			}
			return next(ctx)
		}
	}
}

type authApi struct {
	api     core.AuthAPI
	session *core.Session
}

func RegisterAuthAPI(g *echo.Group, api core.AuthAPI, session *core.Session) {
	a := authApi{api: api, session: session}

	ag := g.Group("/auth")
	ag.POST("/login", a.login)
	ag.POST("/register", a.register)
	ag.POST("/logout", a.logout)
}

func (a *authApi) login(ctx echo.Context) error {
	data := new(core.Credentials)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	token, err := a.api.Login(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	if err := a.session.Set(token); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token})
}

func (a *authApi) register(ctx echo.Context) error {
	data := new(core.NewAccount)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if err := a.api.Register(ctx.Request().Context(), *data); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusCreated)
}

func (a *authApi) logout(ctx echo.Context) error {
	a.session.Expire()
	return ctx.NoContent(http.StatusNoContent)
}
