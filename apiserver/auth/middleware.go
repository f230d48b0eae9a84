package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func GetTokenFromRequest(c echo.Context) (string, error) {
	if t := c.Request().Header.Get(echo.HeaderAuthorization); t != "" {
		parts := strings.Split(t, " ")
		if len(parts) != 2 {
			return "", errors.New("invalid Authorization header")
		}
		if strings.ToLower(parts[0]) != "bearer" {
			return "", errors.New("unsupported Authorization header type")
		}
		if parts[1] == "" {
			return "", errors.New("missing Authorization Bearer token data")
		}
		return parts[1], nil
	}
	return "", errors.New("no access_token in request")
}

// Authorized requires a valid token with at least read access.
func Authorized(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := authorize(a, c); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// AdminOnly requires a valid token carrying the admin scope.
func AdminOnly(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authorizer, err := authorize(a, c)
			if err != nil {
				return err
			}
			admin, err := authorizer.Admin()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}
			if !admin {
				return echo.NewHTTPError(http.StatusForbidden, "admin scope required")
			}
			return next(c)
		}
	}
}

func authorize(a Authenticator, c echo.Context) (Authorizer, error) {
	token, err := GetTokenFromRequest(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	authorizer, err := a.NewAuthorizer(token)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return authorizer, nil
}
