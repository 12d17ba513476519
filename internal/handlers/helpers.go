package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/threadline/backend/internal/apperr"
	"github.com/threadline/backend/internal/models"
)

// currentUserID extracts the caller's user id from the JWT claims placed in
// the context by the auth middleware. Zero means no caller identity; the
// services turn that into an AuthRequired failure.
func currentUserID(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return 0
	}
	return claims.UserID
}

// httpError maps the service error taxonomy onto HTTP statuses so clients
// can react differently to "log in first" and "something broke". Internal
// details are not leaked.
func httpError(err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindAuthRequired:
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case apperr.KindForbidden:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case apperr.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case apperr.KindValidation:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
