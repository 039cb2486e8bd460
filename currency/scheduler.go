package currency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartRefresher schedules a forced refresh of base every interval, first run immediately.
// The caller owns the returned scheduler and must Shutdown it.
func StartRefresher(cache *Cache, base string, interval time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create rates scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := cache.Refresh(ctx, base); err != nil {
				logger.Warn("Scheduler: rates refresh fell back", slog.String("base", base), slog.Any("error", err))
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule rates refresh: %w", err)
	}

	sched.Start()
	logger.Info("exchange rate refresher started", slog.String("base", base), slog.Duration("interval", interval))
	return sched, nil
}
