package ports

import (
	"context"

	"github.com/cargoflow/tracking-system/internal/core/domain"
)

// AlertRepository is append-only storage for alert records.
type AlertRepository interface {
	Insert(ctx context.Context, a *domain.Alert) error
	// ListRecent returns up to limit alerts, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Alert, error)
	// MarkRead flips the read flag, the only mutation alerts permit.
	MarkRead(ctx context.Context, id string) (*domain.Alert, error)
	// DeleteAll removes every alert. Restricted to privileged callers by
	// the transport layer.
	DeleteAll(ctx context.Context) (int64, error)
}
