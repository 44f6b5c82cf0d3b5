// Package scheduler drives periodic surge evaluation and alert delivery.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/addynamo/surge-alerts/internal/logger"
	"github.com/addynamo/surge-alerts/internal/notify"
	"github.com/addynamo/surge-alerts/internal/surge"
)

// passTimeout bounds a single evaluation or delivery pass.
const passTimeout = 2 * time.Minute

// Scheduler runs evaluation and delivery passes on fixed intervals.
// Both loops are independent so a slow email relay never delays
// evaluation.
type Scheduler struct {
	engine     *surge.Engine
	dispatcher *notify.Dispatcher
	log        logger.Logger

	evaluateInterval time.Duration
	notifyInterval   time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a scheduler. Intervals must be positive.
func New(engine *surge.Engine, dispatcher *notify.Dispatcher, evaluateInterval, notifyInterval time.Duration, log logger.Logger) *Scheduler {
	return &Scheduler{
		engine:           engine,
		dispatcher:       dispatcher,
		log:              log,
		evaluateInterval: evaluateInterval,
		notifyInterval:   notifyInterval,
		stopCh:           make(chan struct{}),
	}
}

// Start launches the background loops.
func (s *Scheduler) Start() {
	s.wg.Add(2)
	go s.loop(s.evaluateInterval, s.evaluatePass)
	go s.loop(s.notifyInterval, s.notifyPass)
	s.log.Info("scheduler started",
		logger.Duration("evaluate_interval", s.evaluateInterval),
		logger.Duration("notify_interval", s.notifyInterval))
}

// Stop signals the loops to exit and waits for them. Safe to call
// multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Scheduler) loop(interval time.Duration, pass func(context.Context)) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
			pass(ctx)
			cancel()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) evaluatePass(ctx context.Context) {
	if err := s.engine.EvaluateAll(ctx, time.Now().UTC()); err != nil {
		s.log.Error("scheduled evaluation failed", logger.Error(err))
	}
}

func (s *Scheduler) notifyPass(ctx context.Context) {
	result, err := s.dispatcher.ProcessPending(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("scheduled delivery failed", logger.Error(err))
		return
	}
	if len(result.Delivered) > 0 || len(result.Failed) > 0 {
		s.log.Info("scheduled delivery pass completed",
			logger.Int("delivered", len(result.Delivered)),
			logger.Int("failed", len(result.Failed)))
	}
}
