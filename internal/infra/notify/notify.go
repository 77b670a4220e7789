// Package notify holds notifier combinators shared by the concrete
// notification transports.
package notify

import (
	"context"
	"errors"

	"github.com/ahrav/secaudit/internal/domain/scanning"
)

// Multi delivers every notification to each wrapped notifier. All notifiers
// are attempted; their errors are joined.
type Multi []scanning.Notifier

var _ scanning.Notifier = Multi(nil)

// Notify implements scanning.Notifier.
func (m Multi) Notify(ctx context.Context, n scanning.Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
