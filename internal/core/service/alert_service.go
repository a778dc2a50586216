package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cargoflow/tracking-system/internal/core/domain"
	"github.com/cargoflow/tracking-system/internal/core/ports"
)

const defaultAlertLimit = 100

type alertService struct {
	repo ports.AlertRepository
	log  zerolog.Logger
}

// NewAlertService returns an AlertService implementation.
func NewAlertService(repo ports.AlertRepository, log zerolog.Logger) ports.AlertService {
	return &alertService{repo: repo, log: log}
}

func (s *alertService) Recent(ctx context.Context, limit int) ([]*domain.Alert, error) {
	if limit <= 0 {
		limit = defaultAlertLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *alertService) MarkRead(ctx context.Context, id string) (*domain.Alert, error) {
	return s.repo.MarkRead(ctx, id)
}

func (s *alertService) Clear(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("deleted", deleted).Msg("all alerts cleared")
	return deleted, nil
}
