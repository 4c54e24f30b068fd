// Package scheduler re-runs the prefix update on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nanpa/internal/pipeline"
)

// Updater is satisfied by *pipeline.UpdateService.
type Updater interface {
	Run(ctx context.Context, opts pipeline.UpdateOptions) (pipeline.UpdateResult, error)
}

type Service struct {
	updater  Updater
	interval time.Duration
	log      *zap.Logger
}

func NewService(updater Updater, interval time.Duration, log *zap.Logger) *Service {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Service{updater: updater, interval: interval, log: log}
}

// Run updates immediately and then once per interval until ctx is done.
// A failed cycle is logged and retried on the next tick.
func (s *Service) Run(ctx context.Context) error {
	for {
		s.runCycle(ctx)
		if ctx.Err() != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	res, err := s.updater.Run(ctx, pipeline.UpdateOptions{})
	if err != nil {
		s.log.Error("update cycle failed", zap.Error(err))
		return
	}
	s.log.Info("update cycle done",
		zap.Int("downloaded", res.Downloaded),
		zap.Int("rows_accepted", res.Stats.RowsAccepted),
		zap.Int("prefixes", res.Summary.Total),
		zap.Duration("next_in", s.interval),
	)
}
