package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// SystemHandler serves liveness and build metadata. Ping, when set, is
// checked on every health request.
type SystemHandler struct {
	Ping func(ctx context.Context) error
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			logger.Error("health check failed", slog.Any("err", err))
			writeJSON(w, healthResponse{Status: "unavailable", Service: "intake"}, http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, healthResponse{Status: "ok", Service: "intake"}, http.StatusOK)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": version, "buildTime": buildTime}, http.StatusOK)
	}
}
