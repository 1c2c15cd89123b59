package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/citywatch/incident-api/internal/core/ports"
)

// IncidentHandler handles HTTP requests for incident operations.
type IncidentHandler struct {
	service ports.IncidentService
}

func NewIncidentHandler(service ports.IncidentService) *IncidentHandler {
	return &IncidentHandler{service: service}
}

// List handles GET /api/incidents, the open snapshot fetch, newest first.
//
// @Summary      List all incidents
// @Tags         incidents
// @Produce      json
// @Success      200  {array}   domain.Incident
// @Failure      500  {object}  errorResponse
// @Router       /incidents [get]
func (h *IncidentHandler) List(c echo.Context) error {
	incidents, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, incidents)
}

// Get handles GET /api/incidents/:id.
//
// @Summary      Get a single incident
// @Tags         incidents
// @Produce      json
// @Param        id   path      string  true  "Incident id"
// @Success      200  {object}  domain.Incident
// @Failure      404  {object}  errorResponse
// @Router       /incidents/{id} [get]
func (h *IncidentHandler) Get(c echo.Context) error {
	incident, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, incident)
}

// Create handles POST /api/incidents. The stored record is committed before
// the new_incident broadcast fires.
//
// @Summary      Report a new incident
// @Tags         incidents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createIncidentRequest  true  "Incident details"
// @Success      201   {object}  domain.Incident
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /incidents [post]
func (h *IncidentHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createIncidentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	incident, err := h.service.Create(c.Request().Context(), actor, ports.CreateIncidentInput{
		Title:       req.Title,
		Location:    req.Location,
		Description: req.Description,
		Category:    req.Type,
		IsAnonymous: req.IsAnonymous,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, incident)
}

// UpdateStatus handles PUT /api/incidents/:id, a partial update restricted
// to the status field, allowed for the original reporter or an admin.
//
// @Summary      Update an incident's status
// @Tags         incidents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Incident id"
// @Param        body  body      updateIncidentRequest  true  "New status"
// @Success      200   {object}  domain.Incident
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /incidents/{id} [put]
func (h *IncidentHandler) UpdateStatus(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateIncidentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	incident, err := h.service.UpdateStatus(c.Request().Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, incident)
}

// ToggleUpvote handles PUT /api/incidents/:id/upvote, an idempotent
// set-membership flip for the calling user.
//
// @Summary      Toggle an upvote
// @Tags         incidents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Incident id"
// @Success      200  {object}  domain.Incident
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /incidents/{id}/upvote [put]
func (h *IncidentHandler) ToggleUpvote(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	incident, err := h.service.ToggleUpvote(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, incident)
}

// Delete handles DELETE /api/incidents/:id, allowed for the original
// reporter or an admin. No realtime event is emitted; clients converge on
// their next snapshot fetch.
//
// @Summary      Delete an incident
// @Tags         incidents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Incident id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /incidents/{id} [delete]
func (h *IncidentHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "incident deleted"})
}
