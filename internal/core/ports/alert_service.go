package ports

import (
	"context"

	"github.com/cargoflow/tracking-system/internal/core/domain"
)

// AlertService defines viewer-facing alert operations.
type AlertService interface {
	Recent(ctx context.Context, limit int) ([]*domain.Alert, error)
	MarkRead(ctx context.Context, id string) (*domain.Alert, error)
	// Clear deletes all alerts and returns how many were removed.
	Clear(ctx context.Context) (int64, error)
}
