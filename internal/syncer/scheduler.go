package syncer

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduler wraps cron-based interval jobs for the poll loop.
type scheduler struct {
	cron *cron.Cron
}

func newScheduler() *scheduler {
	return &scheduler{cron: cron.New(cron.WithSeconds())}
}

// scheduleInterval registers a periodic job every given duration.
func (s *scheduler) scheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)
	return s.cron.AddFunc(spec, job)
}

func (s *scheduler) start() {
	s.cron.Start()
}

func (s *scheduler) stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
