package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streamhub/notifier/internal/api"
	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/metrics"
	"github.com/streamhub/notifier/internal/service"
	"github.com/streamhub/notifier/internal/spawner"
)

type fakeTriggerer struct {
	mu   sync.Mutex
	jobs []domain.Job
	err  error
}

func (f *fakeTriggerer) Trigger(_ context.Context, job domain.Job, trigger string) (*service.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	f.jobs = append(f.jobs, job)
	return &service.RunRecord{
		Run:     spawner.Run{PID: 4321, LogPath: "/logs/" + job.EffectiveKind().LogName(), RunID: "run-1"},
		Kind:    job.EffectiveKind(),
		Trigger: trigger,
	}, nil
}

func (f *fakeTriggerer) LastRuns() []service.RunRecord {
	return []service.RunRecord{{Run: spawner.Run{PID: 1, RunID: "prev"}, Kind: domain.JobPasswordChange}}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestRouter(tr *fakeTriggerer) http.Handler {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	return api.NewRouter(tr, nil, reg, zap.NewNop())
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPasswordChanges(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"spawns run", `{"items":[{"correo":"ana@x.com","nuevaClave":"k1"}]}`, nil, http.StatusAccepted},
		{"no valid item", `{"items":[{"correo":"ana@x.com"}]}`, nil, http.StatusUnprocessableEntity},
		{"empty items", `{"items":[]}`, nil, http.StatusUnprocessableEntity},
		{"malformed json", `{"items":`, nil, http.StatusBadRequest},
		{"rate limited", `{"items":[{"correo":"ana@x.com","nuevaClave":"k1"}]}`, domain.ErrRateLimited, http.StatusTooManyRequests},
		{"spawn failure", `{"items":[{"correo":"ana@x.com","nuevaClave":"k1"}]}`, errors.New("exec failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTriggerer{err: tt.err}
			rec := do(newTestRouter(tr), http.MethodPost, "/api/v1/notify/password-changes", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			require.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
		})
	}
}

func TestPasswordChanges_ResponseBody(t *testing.T) {
	tr := &fakeTriggerer{}
	rec := do(newTestRouter(tr), http.MethodPost, "/api/v1/notify/password-changes",
		`{"kind":"expiration_reminder","items":[{"correo":"ana@x.com","nuevaClave":"k1"}]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, 4321, body["pid"])
	require.Equal(t, "run-1", body["run_id"])
	require.Equal(t, "/logs/notify-password-changes.log", body["log_path"])

	require.Len(t, tr.jobs, 1)
	require.Equal(t, domain.JobPasswordChange, tr.jobs[0].Kind, "route fixes the kind")
}

func TestExpirationReminders(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDays   int
	}{
		{"empty body uses default", ``, http.StatusAccepted, 0},
		{"explicit window", `{"withinDays":7}`, http.StatusAccepted, 7},
		{"negative window", `{"withinDays":-1}`, http.StatusUnprocessableEntity, 0},
		{"malformed", `{"withinDays":`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTriggerer{}
			rec := do(newTestRouter(tr), http.MethodPost, "/api/v1/notify/expiration-reminders", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusAccepted {
				require.Len(t, tr.jobs, 1)
				require.Equal(t, domain.JobExpirationReminder, tr.jobs[0].Kind)
				require.Equal(t, tt.wantDays, tr.jobs[0].WithinDays)
			}
		})
	}
}

func TestRuns(t *testing.T) {
	rec := do(newTestRouter(&fakeTriggerer{}), http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"run_id":"prev"`)
}

func TestHealth(t *testing.T) {
	reg := prometheus.NewRegistry()

	rec := do(api.NewRouter(&fakeTriggerer{}, nil, reg, zap.NewNop()), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(api.NewRouter(&fakeTriggerer{}, fakePinger{}, reg, zap.NewNop()), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"ok"`)

	rec = do(api.NewRouter(&fakeTriggerer{}, fakePinger{err: errors.New("down")}, reg, zap.NewNop()), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveSpawn(domain.JobPasswordChange, service.TriggerAPI)

	rec := do(api.NewRouter(&fakeTriggerer{}, nil, reg, zap.NewNop()), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "notifier_runs_spawned_total")
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rec := httptest.NewRecorder()
	newTestRouter(&fakeTriggerer{}).ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get("X-Correlation-ID"))
}
