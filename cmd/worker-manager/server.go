package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"assessment-workers/internal/valuation"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// newServer serves /health, /ready and /metrics. Readiness needs a non-empty catalog and a
// reachable gateway.
func newServer(addr string, costs *valuation.CostCatalog, zeebe healthChecker) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":         "ready",
			"catalogEntries": costs.Len(),
			"time":           time.Now().Format(time.RFC3339),
		}

		if costs.Len() == 0 {
			body["status"] = "not ready"
			body["reason"] = "cost catalog is empty"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(ctx); err != nil {
			body["status"] = "not ready"
			body["reason"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}

		writeJSON(w, http.StatusOK, body)
	})

	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
