package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// clickPruner is the slice of the click repository the sweeper needs.
type clickPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper periodically deletes click events older than the
// retention window. Analytics only reads the trailing 30 days, so rows
// past the window are dead weight.
type RetentionSweeper struct {
	logger    *zap.Logger
	repo      clickPruner
	retention time.Duration
	interval  time.Duration
	stopChan  chan struct{}
}

// NewRetentionSweeper creates a sweeper for the given retention window.
func NewRetentionSweeper(logger *zap.Logger, repo clickPruner, retention time.Duration) *RetentionSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionSweeper{
		logger:    logger,
		repo:      repo,
		retention: retention,
		interval:  time.Hour,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (s *RetentionSweeper) Start() {
	go s.run()
}

// Stop stops the periodic sweep.
func (s *RetentionSweeper) Stop() {
	close(s.stopChan)
}

func (s *RetentionSweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			s.logger.Info("retention sweeper stopped")
			return
		}
	}
}

func (s *RetentionSweeper) sweep() {
	ctx := context.Background()
	cutoff := time.Now().UTC().Add(-s.retention)

	removed, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to prune click events", zap.Error(err))
		return
	}

	if removed > 0 {
		s.logger.Info("pruned old click events",
			zap.Int64("count", removed),
			zap.Time("cutoff", cutoff),
		)
	}
}
