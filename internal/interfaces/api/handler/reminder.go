package handler

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"tickler/internal/application/dto"
	"tickler/internal/application/service"
	appErrors "tickler/internal/pkg/errors"
	"tickler/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ReminderHandler exposes the engine's command surface over HTTP. It holds
// no state of its own; every operation forwards to the engine.
type ReminderHandler struct {
	engine service.Engine
	log    logger.Logger
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(engine service.Engine, log logger.Logger) *ReminderHandler {
	return &ReminderHandler{engine: engine, log: log}
}

// List returns all reminders sorted by fire time. The ordering is a display
// concern only; the engine's collection is unordered.
func (h *ReminderHandler) List(c echo.Context) error {
	reminders := h.engine.List(c.Request().Context())
	sort.Slice(reminders, func(i, j int) bool {
		return reminders[i].FireAt.Before(reminders[j].FireAt)
	})
	return c.JSON(http.StatusOK, dto.ToReminderResponseList(reminders))
}

// Create adds a new reminder.
func (h *ReminderHandler) Create(c echo.Context) error {
	var req dto.CreateReminderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	reminder, err := h.engine.Create(c.Request().Context(), req.Title, req.FireAt)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToReminderResponse(reminder))
}

// Toggle flips the completed flag of a reminder.
func (h *ReminderHandler) Toggle(c echo.Context) error {
	reminder, err := h.engine.Toggle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReminderResponse(reminder))
}

// Delete removes a single reminder.
func (h *ReminderHandler) Delete(c echo.Context) error {
	if err := h.engine.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteMany removes a batch of reminders. IDs that do not exist are
// ignored, so the call never fails on a stale view.
func (h *ReminderHandler) DeleteMany(c echo.Context) error {
	var req dto.DeleteManyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.engine.DeleteMany(c.Request().Context(), req.IDs); err != nil {
		return h.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Events streams collection-changed ticks as server-sent events so the
// client can re-render its list.
func (h *ReminderHandler) Events(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	changes := make(chan struct{}, 1)
	unsubscribe := h.engine.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-changes:
			if _, err := fmt.Fprint(w, "event: change\ndata: {}\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func (h *ReminderHandler) mapError(err error) error {
	switch {
	case errors.Is(err, appErrors.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, appErrors.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		h.log.Error("Unhandled engine error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
