// Package lognotify writes scan notifications to the structured log.
package lognotify

import (
	"context"

	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

var _ scanning.Notifier = (*Notifier)(nil)

// Notifier logs each notification at a level derived from its severity.
type Notifier struct {
	logger *logger.Logger
}

// New creates a log notifier.
func New(log *logger.Logger) *Notifier {
	return &Notifier{logger: log.With("component", "notifier")}
}

// Notify implements scanning.Notifier. It never fails.
func (n *Notifier) Notify(ctx context.Context, msg scanning.Notification) error {
	args := []any{
		"title", msg.Title,
		"body", msg.Body,
		"severity", msg.Severity,
		"job_id", msg.JobID,
	}
	if msg.ActionURL != "" {
		args = append(args, "action_url", msg.ActionURL)
	}

	switch msg.Severity {
	case "high", "critical":
		n.logger.Warn(ctx, "admin notification", args...)
	default:
		n.logger.Info(ctx, "admin notification", args...)
	}
	return nil
}
