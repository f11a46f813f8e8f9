package exam

import (
	"context"
	"strings"
	"time"
)

// ParseError is the terminal failure of an archive parse, built from the
// server-supplied summary and detail lists.
type ParseError struct {
	Status ZipStatus
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("zip processing failed")
	if e.Status.ParseSummary != "" {
		b.WriteString(": ")
		b.WriteString(e.Status.ParseSummary)
	}
	if len(e.Status.Errors) > 0 {
		b.WriteString("; errors: ")
		b.WriteString(strings.Join(e.Status.Errors, ", "))
	}
	if len(e.Status.FailedStudents) > 0 {
		b.WriteString("; students not matched: ")
		b.WriteString(strings.Join(e.Status.FailedStudents, ", "))
	}
	return b.String()
}

// ParseWatcher owns the archive-status poll loop. One Watch call is one
// loop; cancelling the context is the only teardown needed.
type ParseWatcher struct {
	api      API
	interval time.Duration
}

func NewParseWatcher(api API, interval time.Duration) *ParseWatcher {
	return &ParseWatcher{api: api, interval: interval}
}

// Watch checks the parse status immediately, then once per interval until a
// terminal status is observed or ctx is cancelled. Every observed status is
// passed to notify (may be nil). A poll request that itself fails stops the
// loop and returns the error: fail-fast, no transient retry.
//
// A DONE status returns the final status and a nil error; ERROR returns the
// status wrapped in *ParseError so callers can surface the summary and the
// per-item failure lists.
func (w *ParseWatcher) Watch(ctx context.Context, zipID int, notify func(ZipStatus)) (ZipStatus, error) {
	check := func() (ZipStatus, bool, error) {
		status, err := w.api.ZipStatus(ctx, zipID)
		if err != nil {
			return ZipStatus{}, true, err
		}
		if notify != nil {
			notify(status)
		}
		if status.ParseStatus == ParseStatusError {
			return status, true, &ParseError{Status: status}
		}
		return status, status.ParseStatus.Terminal(), nil
	}

	if status, done, err := check(); done {
		return status, err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ZipStatus{}, ctx.Err()
		case <-ticker.C:
			if status, done, err := check(); done {
				return status, err
			}
		}
	}
}
