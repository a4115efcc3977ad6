package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/wb-sheets-sync/api/controllers"
	"github.com/angelmondragon/wb-sheets-sync/internal/cron"
	"github.com/angelmondragon/wb-sheets-sync/pkg/logger"
	"github.com/angelmondragon/wb-sheets-sync/pkg/metrics"
)

type stubRuns struct {
	status cron.RunStatus
	ok     bool
}

func (s stubRuns) LastRun() (cron.RunStatus, bool) { return s.status, s.ok }

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func newTestRouter(runs controllers.RunReporter, deps map[string]controllers.Pinger, reg *prometheus.Registry) http.Handler {
	return NewOpsRouter(OpsParams{
		Env:      "test",
		Logger:   logger.New(logger.Options{ServiceName: "ops-test", Output: io.Discard}),
		Runs:     runs,
		Deps:     deps,
		Gatherer: reg,
	})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(stubRuns{}, nil, prometheus.NewRegistry())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-WBS-Env") != "test" {
		t.Fatalf("missing env header")
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestHealthReadyBeforeFirstRun(t *testing.T) {
	router := newTestRouter(stubRuns{}, nil, prometheus.NewRegistry())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before the first run, got %d", w.Code)
	}
}

func TestHealthReadyAfterRun(t *testing.T) {
	runs := stubRuns{ok: true, status: cron.RunStatus{
		RunID:    "run-1",
		Finished: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
		Failed:   []string{"reports-export"},
	}}
	router := newTestRouter(runs, map[string]controllers.Pinger{"redis": stubPinger{}}, prometheus.NewRegistry())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data struct {
			Status     string   `json:"status"`
			RunID      string   `json:"run_id"`
			FinishedAt string   `json:"finished_at"`
			FailedJobs []string `json:"failed_jobs"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.RunID != "run-1" || body.Data.FinishedAt != "2024-01-05T10:00:00Z" || len(body.Data.FailedJobs) != 1 {
		t.Fatalf("unexpected body %+v", body.Data)
	}
}

func TestHealthReadyFailingDependency(t *testing.T) {
	deps := map[string]controllers.Pinger{"redis": stubPinger{err: errors.New("refused")}}
	router := newTestRouter(stubRuns{ok: true}, deps, prometheus.NewRegistry())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCronJobMetrics(reg).IncSuccess("campaign-stats-sync")
	router := newTestRouter(stubRuns{}, nil, reg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `wbs_job_success_total{job="campaign-stats-sync"} 1`) {
		t.Fatalf("metrics output missing job counter:\n%s", w.Body.String())
	}
}

func TestRecovererHandlesPanics(t *testing.T) {
	router := newTestRouter(stubRuns{}, nil, prometheus.NewRegistry()).(interface {
		Get(string, http.HandlerFunc)
		ServeHTTP(http.ResponseWriter, *http.Request)
	})
	router.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
