package runtime

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/findexa/repscout/internal/telemetry"
)

const lastRunKey = "sched:last_run"

// Runner is the pipeline a scheduled tick kicks off. Implemented by the
// finder's orchestrator.
type Runner interface {
	Run(ctx context.Context, companies []string) error
}

// Scheduler triggers full discovery runs on a cron schedule. The Redis lock
// keeps concurrent replicas from firing duplicate runs.
type Scheduler struct {
	Runner   Runner
	Schedule string
	Rdb      *redis.Client
	Stop     chan struct{}

	logger *log.Logger
}

func NewScheduler(runner Runner, schedule string, rdb *redis.Client) *Scheduler {
	return &Scheduler{
		Runner:   runner,
		Schedule: schedule,
		Rdb:      rdb,
		Stop:     make(chan struct{}),
		logger:   telemetry.NewLogger("SCHED"),
	}
}

// Start ticks once a minute until Stop is closed. A no-op when no schedule
// is configured.
func (s *Scheduler) Start() {
	if s.Schedule == "" {
		return
	}
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx := context.Background()

	last, err := s.lastRun(ctx)
	if err != nil {
		s.logger.Printf("reading last run time: %v", err)
		return
	}
	if !isDue(s.Schedule, last) {
		return
	}

	if s.Rdb != nil {
		ok, err := s.Rdb.SetNX(ctx, "sched:lock", "1", 2*time.Minute).Result()
		if err != nil || !ok {
			return
		}
		defer s.Rdb.Del(ctx, "sched:lock")
	}

	runID := uuid.NewString()
	s.logger.Printf("starting scheduled discovery run %s", runID)
	if err := s.markRun(ctx); err != nil {
		s.logger.Printf("recording run time: %v", err)
	}

	go func() {
		if err := s.Runner.Run(context.Background(), nil); err != nil {
			s.logger.Printf("scheduled run %s failed: %v", runID, err)
			return
		}
		s.logger.Printf("scheduled run %s finished", runID)
	}()
}

func (s *Scheduler) lastRun(ctx context.Context) (*time.Time, error) {
	if s.Rdb == nil {
		return nil, nil
	}
	raw, err := s.Rdb.Get(ctx, lastRunKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, nil
	}
	return &t, nil
}

func (s *Scheduler) markRun(ctx context.Context) error {
	if s.Rdb == nil {
		return nil
	}
	return s.Rdb.Set(ctx, lastRunKey, time.Now().Format(time.RFC3339), 0).Err()
}

// isDue determines whether a run should fire now given the last run time.
// Supports "@daily", "@hourly" and standard 5-field cron expressions.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
