package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// CycleRunner runs one polling cycle
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// PollScheduler drives the orchestrator on a fixed interval. Cycles never
// overlap; a tick that arrives while a cycle is running is skipped.
type PollScheduler struct {
	cron     *cron.Cron
	job      cron.Job
	runner   CycleRunner
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPollScheduler creates a scheduler that calls runner every interval
func NewPollScheduler(runner CycleRunner, interval time.Duration) (*PollScheduler, error) {
	if interval < time.Second {
		return nil, fmt.Errorf("poll interval must be at least one second, got %s", interval)
	}

	logger := cron.PrintfLogger(log.Default())
	ctx, cancel := context.WithCancel(context.Background())
	s := &PollScheduler{
		cron:     cron.New(cron.WithLogger(logger)),
		runner:   runner,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}

	// Wrapping once shares the running guard between the startup run and the ticks
	s.job = cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(s.tick))
	s.cron.Schedule(cron.Every(interval), s.job)
	return s, nil
}

// Start runs a first cycle immediately and then one every interval
func (s *PollScheduler) Start() {
	s.cron.Start()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()
	log.Printf("[SCHEDULER] Poll scheduler started (interval %s)", s.interval)
}

// Stop asks the running cycle to finish after its current task and waits for it
func (s *PollScheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	log.Println("[SCHEDULER] Poll scheduler stopped")
}

func (s *PollScheduler) tick() {
	if s.ctx.Err() != nil {
		return
	}
	if err := s.runner.RunCycle(s.ctx); err != nil {
		log.Printf("[SCHEDULER] Cycle failed, retrying in %s: %v", s.interval, err)
	}
}
