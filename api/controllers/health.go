package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/wb-sheets-sync/api/responses"
	"github.com/angelmondragon/wb-sheets-sync/internal/cron"
	pkgerrors "github.com/angelmondragon/wb-sheets-sync/pkg/errors"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
)

const envHeader = "X-WBS-Env"

// RunReporter exposes the status of the latest sync cycle.
type RunReporter interface {
	LastRun() (cron.RunStatus, bool)
}

// Pinger is an optional dependency checked by readiness.
type Pinger interface {
	Ping(context.Context) error
}

type runSummary struct {
	Status     string   `json:"status"`
	RunID      string   `json:"run_id,omitempty"`
	FinishedAt string   `json:"finished_at,omitempty"`
	FailedJobs []string `json:"failed_jobs,omitempty"`
}

func HealthLive(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once a sync cycle has completed and every
// configured dependency answers a ping.
func HealthReady(env string, logg *logger.Logger, runs RunReporter, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, env)
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, name+" unavailable"))
				return
			}
		}

		status, ok := runs.LastRun()
		if !ok {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, runSummary{Status: "starting"})
			return
		}
		responses.WriteSuccess(w, runSummary{
			Status:     "ready",
			RunID:      status.RunID,
			FinishedAt: status.Finished.UTC().Format(time.RFC3339),
			FailedJobs: status.Failed,
		})
	}
}
