package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/imene253/AI-TECH-DZ2/internal/infrastructure/queue"
)

// TriggerQueue is the interface the handler uses to enqueue triggers.
type TriggerQueue interface {
	Enqueue(kind queue.TriggerKind) bool
}

// SignalHandler turns view signals into refresh triggers.
type SignalHandler struct {
	triggers TriggerQueue
}

func NewSignalHandler(triggers TriggerQueue) *SignalHandler {
	return &SignalHandler{triggers: triggers}
}

// Focus handles POST /v1/signals/focus: the view regained focus. Returns 202
// once queued, 503 when the trigger queue is full.
//
// @Summary      Report that the view regained focus
// @Tags         signals
// @Produce      json
// @Success      202  {object}  acceptedResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/signals/focus [post]
func (h *SignalHandler) Focus(c echo.Context) error {
	if !h.triggers.Enqueue(queue.TriggerFocus) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "trigger queue full")
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "focus signal accepted"})
}
