package server

import (
	"context"
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health reports whether the configured dependencies answer a ping within
// the health-check timeout.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	hc := s.Config.Observability.HealthChecks
	resp := healthResponse{Status: "ok", Checks: map[string]string{}}

	if hc.Enabled {
		ctx, cancel := context.WithTimeout(r.Context(), hc.Timeout)
		defer cancel()

		for _, name := range hc.Checks {
			var err error
			switch name {
			case "database":
				err = s.Db.Ping(ctx)
			case "redis":
				err = s.Redis.Ping(ctx)
			default:
				continue
			}
			if err != nil {
				s.Logger.Warn().Err(err).Str("check", name).Msg("Health check failed")
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "up"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
