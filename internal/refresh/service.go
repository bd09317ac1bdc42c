package refresh

import (
	"context"
	"time"

	"log/slog"
)

// Service runs the ATT&CK import on a fixed interval.
type Service struct {
	importer *Importer
	interval time.Duration
	logger   *slog.Logger
	stopChan chan struct{}
}

// NewService creates a refresh service.
func NewService(importer *Importer, interval time.Duration, logger *slog.Logger) *Service {
	return &Service{
		importer: importer,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the refresh loop. An import runs immediately, then on every
// tick. A failed import is logged and retried at the next tick rather than
// stopping the loop.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info("starting catalog refresh service", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stopChan:
			s.logger.Info("catalog refresh service stopped")
			return
		case <-ctx.Done():
			s.logger.Info("catalog refresh service stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the refresh loop.
func (s *Service) Stop() {
	close(s.stopChan)
}

func (s *Service) runOnce(ctx context.Context) {
	if err := s.importer.Run(ctx); err != nil {
		s.logger.Error("catalog refresh failed", "error", err)
	}
}
