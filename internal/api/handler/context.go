package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/citywatch/incident-api/internal/core/ports"
)

// ctxActor extracts the identity injected by the Auth middleware and
// fast-fails before any service call: a non-empty username proves the
// middleware ran and the token carried a usable identity.
func ctxActor(c echo.Context) (ports.Actor, error) {
	username, _ := c.Get("username").(string)
	if username == "" {
		return ports.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)

	return ports.Actor{UserID: userID, Username: username, Role: role}, nil
}
