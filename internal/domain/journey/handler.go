package journey

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/edflow/edflow/pkg/pagination"
)

type Handler struct {
	log *Log
}

func NewHandler(log *Log) *Handler {
	return &Handler{log: log}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/events", h.ListEvents)
	api.POST("/patients/:id/events", h.AppendEvent)
}

// appendRequest is the JSON body for appending a generic journey event.
type appendRequest struct {
	Kind     EventKind       `json:"kind"`
	Label    string          `json:"label"`
	Detail   json.RawMessage `json:"detail,omitempty"`
	Actor    *Actor          `json:"actor,omitempty"`
	Severity string          `json:"severity,omitempty"`
}

func (h *Handler) AppendEvent(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req appendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e := &Event{
		PatientID: patientID,
		Kind:      req.Kind,
		Label:     req.Label,
		Detail:    req.Detail,
		Actor:     req.Actor,
		Severity:  req.Severity,
	}
	if err := h.log.Append(c.Request().Context(), e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) ListEvents(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)

	events, err := h.log.ListForPatient(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	total := len(events)
	start, end := pg.Slice(total)
	return c.JSON(http.StatusOK, pagination.NewResponse(events[start:end], total, pg.Limit, pg.Offset))
}
