package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Finalizer releases what a run acquired. Every step is guarded on its
// own: an error or panic in one never skips the others.
type Finalizer struct {
	Session BrowserSession
	CloseDB func()
	Kill    func(ctx context.Context)
	Logger  *zap.Logger
}

// Finish closes the page, the browser connection and the DB, then kills the
// browser process if at least one delivery was attempted. Otherwise the
// browser is left running for manual inspection.
func (f *Finalizer) Finish(ctx context.Context, attempted int) {
	if f.Session != nil {
		f.guard("close page", func() error { return f.Session.ClosePage(ctx) })
		f.guard("disconnect browser", f.Session.Disconnect)
	}
	if f.CloseDB != nil {
		f.guard("close database", func() error { f.CloseDB(); return nil })
	}
	if attempted > 0 && f.Kill != nil {
		f.guard("kill browser", func() error { f.Kill(ctx); return nil })
	}
}

func (f *Finalizer) guard(step string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			f.Logger.Warn("cleanup step panicked", zap.String("step", step), zap.String("panic", fmt.Sprint(r)))
		}
	}()
	if err := fn(); err != nil {
		f.Logger.Warn("cleanup step failed", zap.String("step", step), zap.Error(err))
	}
}
