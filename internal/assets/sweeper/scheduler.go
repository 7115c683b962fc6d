package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the sweep on a cron schedule.
type Scheduler struct {
	sweeper  *Sweeper
	schedule string
	log      *zap.Logger
	cron     *cron.Cron
}

func NewScheduler(sweeper *Sweeper, schedule string, log *zap.Logger) *Scheduler {
	return &Scheduler{sweeper: sweeper, schedule: schedule, log: log}
}

// Start initializes the cron task. The sweep runs with its own timeout so a
// slow bucket listing cannot wedge the scheduler.
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if _, err := s.sweeper.Run(ctx); err != nil {
			s.log.Error("scheduled orphan sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		s.log.Error("failed to create sweep cron job", zap.Error(err))
		return
	}

	s.log.Info("sweep scheduler started", zap.String("schedule", s.schedule))
	c.Start()
	s.cron = c
}

// Stop halts the scheduler; a sweep already in flight finishes.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
