// Package server provides HTTP handlers and server setup for the injury proxy.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// InjuryProvider supplies the current injury payload, from cache or upstream.
type InjuryProvider interface {
	Get(ctx context.Context) ([]byte, error)
}

// Handler holds the HTTP handlers
type Handler struct {
	provider InjuryProvider
}

// NewHandler creates a new handler over the given provider
func NewHandler(provider InjuryProvider) *Handler {
	return &Handler{
		provider: provider,
	}
}

// Injuries handles GET /injuries. The payload is the upstream JSON document
// passed through verbatim; any failure collapses to a generic 500 with no
// detail of the cause.
func (h *Handler) Injuries(c echo.Context) error {
	payload, err := h.provider.Get(c.Request().Context())
	if err != nil {
		slog.Error("failed to serve injury report", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"message": "Failed to fetch data",
		})
	}
	return c.JSONBlob(http.StatusOK, payload)
}

// Health handles GET /healthz
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
