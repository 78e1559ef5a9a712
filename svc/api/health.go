package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hkauso/pastemd/svc/util"
)

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthStatus{Status: "ok"})
}

func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if err := s.store.Ping(ctx); err != nil {
		util.Error().Err(err).Msg("readiness: store unavailable")
		checks["store"] = "unavailable"
		ready = false
	} else {
		checks["store"] = "ok"
	}

	if s.rdb != nil {
		if err := s.rdb.Ping(ctx); err != nil {
			util.Warn().Err(err).Msg("readiness: redis unavailable")
			checks["redis"] = "unavailable"
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(healthStatus{Status: "unavailable", Checks: checks})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthStatus{Status: "ok", Checks: checks})
}
