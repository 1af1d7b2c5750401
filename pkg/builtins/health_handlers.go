package builtins

import (
	"net/http"

	"github.com/Ryan-Har/commonground/api"
	"github.com/Ryan-Har/commonground/internal/logutil"
)

func (h *Handler) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logutil.LogAccess(h.log, r)

		if h.health == nil {
			api.RespondJSONAndLog(w, h.log, http.StatusOK, api.HealthResponse{Status: "ok"})
			return
		}

		status, code := "ok", http.StatusOK
		checks := make(map[string]string)
		for name, err := range h.health(r.Context()) {
			if err != nil {
				h.log.Warn("health check failed", "check", name, "err", err)
				status, code = "degraded", http.StatusServiceUnavailable
				checks[name] = "unavailable"
				continue
			}
			checks[name] = "ok"
		}
		api.RespondJSONAndLog(w, h.log, code, api.HealthResponse{Status: status, Checks: checks})
	}
}
