// Package notify sends evaluation lifecycle emails. Delivery is
// fire-and-forget: failures are logged and never block or fail the operation
// that triggered them.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"acredita/internal/report"
	"acredita/pkg/email"
)

// Sender delivers a single message. Swap in an SMTP or provider-backed
// implementation without touching callers.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender is the development sender: it logs the message instead of
// delivering it.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.Logger.InfoContext(ctx, "email (not delivered, log sender)",
		"to", to,
		"subject", subject,
	)
	return nil
}

// Notifier builds and dispatches the evaluation notifications.
type Notifier struct {
	sender Sender
	logger *slog.Logger
}

func New(sender Sender, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger}
}

// EvaluationComplete notifies the site contact that a report was generated.
// Errors are swallowed after logging; notification must never block report
// generation.
func (n *Notifier) EvaluationComplete(ctx context.Context, site report.Site, rep *report.Report) {
	if site.Email == "" {
		return
	}
	first, _ := email.DeriveNameFromEmail(site.Email)
	subject := fmt.Sprintf("Evaluation report %s is available", rep.ReportVersion)
	body := fmt.Sprintf(
		"Hello %s,\n\nThe evaluation report for %s has been generated.\nFinal status: %s\nReport version: %s\n",
		first, site.Name, rep.FinalStatus, rep.ReportVersion,
	)
	if err := n.sender.Send(ctx, site.Email, subject, body); err != nil {
		n.logger.ErrorContext(ctx, "failed to send evaluation-complete email",
			"error", err,
			"site_id", site.ID,
		)
	}
}
