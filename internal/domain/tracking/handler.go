package tracking

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/edflow/edflow/internal/domain/vitals"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:id/observations", h.RecordObservation)
	api.POST("/patients/:id/room", h.AssignRoom)
	api.GET("/patients/:id/phase", h.GetPhase)
	api.GET("/patients/:id/room", h.GetRoom)
	api.GET("/patients/:id/observations", h.GetObservationHistory)
	api.GET("/patients/:id/next-due", h.GetNextDue)
	api.GET("/board", h.GetBoard)
}

// observationRequest is the JSON body for recording vitals.
type observationRequest struct {
	vitals.RawObservation
	ActorRole string `json:"actor_role,omitempty"`
}

func (h *Handler) RecordObservation(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req observationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	obs, err := h.svc.RecordObservation(c.Request().Context(), patientID, req.RawObservation, req.ActorRole)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, obs)
}

// roomRequest is the JSON body for a room assignment.
type roomRequest struct {
	Room      string `json:"room"`
	ActorName string `json:"actor_name,omitempty"`
}

func (h *Handler) AssignRoom(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req roomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AssignRoom(c.Request().Context(), patientID, req.Room, req.ActorName); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetPhase(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	phase, err := h.svc.Phase(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"phase": string(phase)})
}

func (h *Handler) GetRoom(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	room, err := h.svc.Room(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if room == "" {
		return echo.NewHTTPError(http.StatusNotFound, "patient has no room assignment")
	}
	return c.JSON(http.StatusOK, map[string]string{"room": room})
}

func (h *Handler) GetObservationHistory(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	history, err := h.svc.History(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, history)
}

func (h *Handler) GetNextDue(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	due, err := h.svc.NextDue(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if due == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no vitals history")
	}
	return c.JSON(http.StatusOK, map[string]string{"next_due": due.UTC().Format(time.RFC3339)})
}

func (h *Handler) GetBoard(c echo.Context) error {
	board, err := h.svc.Board(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, board)
}
