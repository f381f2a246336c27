package domain

import "strings"

// JobKind selects which notification a run sends.
type JobKind string

const (
	JobPasswordChange     JobKind = "password_change"
	JobExpirationReminder JobKind = "expiration_reminder"
)

func (k JobKind) IsValid() bool {
	switch k {
	case JobPasswordChange, JobExpirationReminder:
		return true
	}
	return false
}

// LogName is the per-run log file name for the kind.
func (k JobKind) LogName() string {
	if k == JobExpirationReminder {
		return "notify-expiration-reminders.log"
	}
	return "notify-password-changes.log"
}

// DefaultReminderDays is the window used when a reminder job omits withinDays.
const DefaultReminderDays = 3

// PasswordChange is one entry of a password-change job.
type PasswordChange struct {
	Correo     string `json:"correo"`
	NuevaClave string `json:"nuevaClave"`
}

// Job is the payload handed to a notifier run.
type Job struct {
	Kind       JobKind          `json:"kind,omitempty"`
	Items      []PasswordChange `json:"items"`
	WithinDays int              `json:"withinDays,omitempty"`
}

// EffectiveKind returns the job kind, defaulting to password_change.
func (j Job) EffectiveKind() JobKind {
	if j.Kind == "" {
		return JobPasswordChange
	}
	return j.Kind
}

// ReminderDays returns the expiration window in days.
func (j Job) ReminderDays() int {
	if j.WithinDays <= 0 {
		return DefaultReminderDays
	}
	return j.WithinDays
}

// Passwords builds the normalized email → new password map.
// Entries missing either field are ignored; the last entry for an email wins.
// The password is kept exactly as given.
func (j Job) Passwords() map[string]string {
	out := make(map[string]string, len(j.Items))
	for _, it := range j.Items {
		email := NormalizeEmail(it.Correo)
		if email == "" || strings.TrimSpace(it.NuevaClave) == "" {
			continue
		}
		out[email] = it.NuevaClave
	}
	return out
}

// Validate reports whether the job has anything to do.
func (j Job) Validate() error {
	kind := j.EffectiveKind()
	if !kind.IsValid() {
		return ErrUnknownJobKind
	}
	if kind == JobPasswordChange && len(j.Passwords()) == 0 {
		return ErrNoValidItems
	}
	return nil
}
