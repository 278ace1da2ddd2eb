package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically fails generations that stayed pending longer than
// maxAge, so abandoned drafts do not look in progress forever.
type Sweeper struct {
	generations *GenerationService
	interval    time.Duration
	maxAge      time.Duration
	log         *zap.SugaredLogger

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewSweeper(generations *GenerationService, interval, maxAge time.Duration, log *zap.SugaredLogger) *Sweeper {
	return &Sweeper{
		generations: generations,
		interval:    interval,
		maxAge:      maxAge,
		log:         log,
		done:        make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	s.ticker = time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.interval)
				s.Sweep(ctx)
				cancel()
			}
		}
	}()
	s.log.Infow("Generation sweeper started", "interval", s.interval, "max_age", s.maxAge)
}

func (s *Sweeper) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.done)
	s.wg.Wait()
	s.log.Info("Generation sweeper stopped")
}

// Sweep fails every stale pending generation and returns how many it moved.
func (s *Sweeper) Sweep(ctx context.Context) int {
	cutoff := s.generations.now().Add(-s.maxAge)
	stale, err := s.generations.Generations.ListStalePending(ctx, cutoff)
	if err != nil {
		s.log.Warnw("Failed to list stale generations", "error", err)
		return 0
	}

	swept := 0
	for i := range stale {
		gen := &stale[i]
		if err := s.generations.fail(ctx, gen, "abandoned: pending for more than "+s.maxAge.String()); err != nil {
			s.log.Warnw("Failed to expire generation", "generation_id", gen.ID, "error", err)
			continue
		}
		swept++
	}
	if swept > 0 {
		s.log.Infow("Expired stale generations", "count", swept)
	}
	return swept
}
