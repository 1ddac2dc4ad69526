package monitoring

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:id/monitoring", h.StartMonitoring)
	api.PUT("/patients/:id/monitoring", h.UpdateMonitoring)
	api.DELETE("/patients/:id/monitoring", h.StopMonitoring)
	api.GET("/patients/:id/tasks", h.ListTasks)
	api.POST("/tasks/:id/complete", h.CompleteTask)
}

type startRequest struct {
	TaskKind     string `json:"task_kind,omitempty"`
	AssigneeRole string `json:"assignee_role,omitempty"`
}

func (h *Handler) StartMonitoring(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	task, err := h.svc.StartMonitoring(c.Request().Context(), patientID, req.TaskKind, req.AssigneeRole)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) UpdateMonitoring(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	tasks, err := h.svc.UpdateMonitoring(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *Handler) StopMonitoring(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if err := h.svc.StopMonitoring(c.Request().Context(), patientID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListTasks(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	tasks := h.svc.TasksForPatient(patientID)
	if tasks == nil {
		tasks = []*Task{}
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *Handler) CompleteTask(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}
	task, err := h.svc.CompleteTask(c.Request().Context(), taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if errors.Is(err, ErrTaskDone) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, task)
}
