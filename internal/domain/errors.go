package domain

import "errors"

// Sentinel errors used throughout the application.
// The notifier maps them to log lines and an exit code; the trigger
// service translates them to HTTP status codes via a single mapError function.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrInvalidPayload     = errors.New("invalid job payload")
	ErrUnknownJobKind     = errors.New("unknown job kind: must be password_change or expiration_reminder")
	ErrNoValidItems       = errors.New("job must contain at least one item with correo and nuevaClave")
	ErrDebuggerNotReady   = errors.New("browser debug port did not become ready")
	ErrBrowserConnect     = errors.New("could not connect to browser")
	ErrEditorNotFound     = errors.New("chat editor did not become available")
	ErrRateLimited        = errors.New("a run of this kind was started recently, try again later")
)
