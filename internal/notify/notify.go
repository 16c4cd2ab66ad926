// Package notify delivers best-effort email notifications after mutations.
//
// FIRE-AND-FORGET, BY DESIGN:
// Signup and student-update both trigger mail after the store write has
// already succeeded. A post-commit notification must never undo or fail the
// mutation that triggered it, so the Runner delivers on detached goroutines:
// the request handler returns immediately, delivery failures are logged at
// Warn and go nowhere else. There are no retries — a failed notification is
// simply lost, which is acceptable for this traffic.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Notifier is the delivery sink. The production implementation is the SMTP
// Mailer; tests substitute a recording fake.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// deliveryTimeout bounds a single delivery attempt. Detached sends carry no
// request context, so without this a stuck SMTP dial would leak a goroutine.
const deliveryTimeout = 15 * time.Second

// Runner dispatches notifications on detached goroutines.
//
// A Runner with a nil Notifier is valid and silently drops everything —
// that's how the server runs when SMTP isn't configured.
type Runner struct {
	notifier Notifier
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewRunner creates a Runner. notifier may be nil (notifications disabled).
func NewRunner(notifier Notifier, logger *slog.Logger) *Runner {
	return &Runner{notifier: notifier, logger: logger}
}

// Dispatch queues one notification and returns immediately. The delivery
// happens on its own goroutine with its own timeout, deliberately not tied
// to the request context — the triggering mutation has already committed,
// and a cancelled request must not cancel the mail.
func (r *Runner) Dispatch(to, subject, body string) {
	if r.notifier == nil {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()

		if err := r.notifier.Send(ctx, to, subject, body); err != nil {
			r.logger.Warn("notification delivery failed",
				slog.String("to", to),
				slog.String("subject", subject),
				slog.String("error", err.Error()),
			)
			return
		}

		r.logger.Debug("notification delivered",
			slog.String("to", to),
			slog.String("subject", subject),
		)
	}()
}

// Wait blocks until all dispatched notifications have finished. Called
// during graceful shutdown so in-flight mail isn't cut off mid-send; tests
// use it to make deliveries observable.
func (r *Runner) Wait() {
	r.wg.Wait()
}
