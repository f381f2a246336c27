package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/streamhub/notifier/internal/api/middleware"
	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/service"
)

// Triggerer starts notifier runs.
type Triggerer interface {
	Trigger(ctx context.Context, job domain.Job, trigger string) (*service.RunRecord, error)
	LastRuns() []service.RunRecord
}

// NotifyHandler starts detached notifier runs. It answers as soon as the
// process is spawned and never reports delivery outcomes.
type NotifyHandler struct {
	svc    Triggerer
	logger *zap.Logger
}

func NewNotifyHandler(svc Triggerer, logger *zap.Logger) *NotifyHandler {
	return &NotifyHandler{svc: svc, logger: logger}
}

// reminderRequest is the body of an expiration-reminder trigger.
type reminderRequest struct {
	WithinDays int `json:"withinDays"`
}

// PasswordChanges handles POST /api/v1/notify/password-changes
//
// @Summary     Notify customers about changed passwords
// @Tags        notify
// @Accept      json
// @Produce     json
// @Param       body  body      domain.Job  true  "Changed credentials"
// @Success     202   {object}  service.RunRecord
// @Failure     422   {object}  map[string]string
// @Failure     429   {object}  map[string]string
// @Router      /api/v1/notify/password-changes [post]
func (h *NotifyHandler) PasswordChanges(w http.ResponseWriter, r *http.Request) {
	var job domain.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	job.Kind = domain.JobPasswordChange
	h.trigger(w, r, job)
}

// ExpirationReminders handles POST /api/v1/notify/expiration-reminders
//
// @Summary     Remind customers about subscriptions close to expiring
// @Tags        notify
// @Accept      json
// @Produce     json
// @Param       body  body      reminderRequest  false  "Window in days (default 3)"
// @Success     202   {object}  service.RunRecord
// @Failure     429   {object}  map[string]string
// @Router      /api/v1/notify/expiration-reminders [post]
func (h *NotifyHandler) ExpirationReminders(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.WithinDays < 0 {
		respondError(w, http.StatusUnprocessableEntity, "withinDays must not be negative")
		return
	}
	h.trigger(w, r, domain.Job{Kind: domain.JobExpirationReminder, WithinDays: req.WithinDays})
}

// Runs handles GET /api/v1/runs
//
// @Summary  Last started run of each kind
// @Tags     notify
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/runs [get]
func (h *NotifyHandler) Runs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"runs": h.svc.LastRuns()})
}

func (h *NotifyHandler) trigger(w http.ResponseWriter, r *http.Request, job domain.Job) {
	log := apimw.Logger(r.Context(), h.logger)

	rec, err := h.svc.Trigger(r.Context(), job, service.TriggerAPI)
	if err != nil {
		log.Warn("notify trigger failed",
			zap.String("kind", string(job.EffectiveKind())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	log.Info("notifier run started",
		zap.String("kind", string(rec.Kind)),
		zap.String("run_id", rec.RunID),
		zap.Int("pid", rec.PID),
	)
	respondJSON(w, http.StatusAccepted, rec)
}
