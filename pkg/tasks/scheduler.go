package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const reindexTimeout = 5 * time.Minute

type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// Scheduler runs periodic maintenance jobs. Overlapping runs of the same job
// are skipped.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	logger := cron.PrintfLogger(&log.Logger)
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// ScheduleReindex rebuilds the search index from the store on spec. An empty
// spec schedules nothing.
func (s *Scheduler) ScheduleReindex(spec string, r Reindexer) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, reindexJob(r)); err != nil {
		return fmt.Errorf("schedule reindex %q: %w", spec, err)
	}
	log.Info().Str("schedule", spec).Msg("Search reindex scheduled")
	return nil
}

func reindexJob(r Reindexer) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), reindexTimeout)
		defer cancel()

		start := time.Now()
		n, err := r.Reindex(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Scheduled reindex failed")
			return
		}
		log.Info().Int("links", n).Dur("took", time.Since(start)).Msg("Scheduled reindex finished")
	}
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
