package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/mail"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/metrics"
)

const mailDispatchTimeout = 30 * time.Second

// mailDispatcher centralises fire-and-forget email delivery. Failures are
// logged and counted but never propagate to the calling operation.
type mailDispatcher struct {
	mailer mail.Mailer
	async  bool
	log    *zap.Logger
}

func newMailDispatcher(mailer mail.Mailer, async bool, log *zap.Logger) *mailDispatcher {
	return &mailDispatcher{mailer: mailer, async: async, log: log}
}

func (d *mailDispatcher) dispatch(ctx context.Context, kind string, to []string, subject, body string) {
	if d == nil || d.mailer == nil || len(to) == 0 {
		return
	}

	send := func(ctx context.Context) {
		err := d.mailer.Send(ctx, mail.Message{To: to, Subject: subject, Body: body})
		switch {
		case err == nil:
			metrics.EmailsSent.WithLabelValues(kind, "success").Inc()
		case errors.Is(err, mail.ErrSMTPDisabled):
			// Delivery disabled; nothing to report.
		default:
			metrics.EmailsSent.WithLabelValues(kind, "failure").Inc()
			d.log.Warn("send mail failed", zap.String("kind", kind), zap.Error(err))
		}
	}

	if !d.async {
		send(ensureContext(ctx))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailDispatchTimeout)
		defer cancel()
		send(ctx)
	}()
}
