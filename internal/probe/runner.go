package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/rollcall/internal/domain/types"
	"github.com/okian/rollcall/pkg/logger"
)

// Run issues cfg.Repeat risk requests per window size across cfg.Workers
// workers and verifies each response. It fails if any request fails, any
// response violates a guarantee or repeated requests disagree.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting rollcall risk probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Any("windows", cfg.Windows),
		logger.Int("repeat", cfg.Repeat),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()))

	client := NewClient(cfg)
	if err := client.Ping(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	jobs := make(chan job, cfg.Workers*2)
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		errs  []error
		first = make(map[int]types.RiskResponse, len(cfg.Windows))
	)

	record := func(j job, resp types.RiskResponse, err error) {
		mu.Lock()
		defer mu.Unlock()
		stats.Requests++
		if err != nil {
			stats.Failed++
			errs = append(errs, fmt.Errorf("k=%d attempt %d: %w", j.window, j.attempt, err))
			return
		}
		stats.Successful++
		stats.RowsSeen += len(resp.Rows)
		if resp.Trained {
			stats.Trained++
		}

		verr := Verify(resp, j.window, cfg.Limit)
		if prev, ok := first[j.window]; ok {
			verr = errors.Join(verr, Same(prev, resp))
		} else {
			first[j.window] = resp
		}
		if verr != nil {
			stats.Violations++
			errs = append(errs, fmt.Errorf("k=%d attempt %d: %w", j.window, j.attempt, verr))
		}
	}

	for i := 0; i < max(1, cfg.Workers); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				resp, err := client.Risk(ctx, j.window)
				if err == nil && cfg.Verbose {
					log.Info(ctx, "risk response",
						logger.Int("k", j.window),
						logger.Bool("trained", resp.Trained),
						logger.Int("rows", len(resp.Rows)))
				}
				record(j, resp, err)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for attempt := 0; attempt < max(1, cfg.Repeat); attempt++ {
			for _, k := range cfg.Windows {
				select {
				case <-ctx.Done():
					return
				case jobs <- job{window: k, attempt: attempt}:
				}
			}
		}
	}()

	wg.Wait()

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, log, stats)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("probe interrupted: %w", err)
	}
	return stats, errors.Join(errs...)
}

// logFinalStats logs the run statistics.
func logFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Requests) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("requests", stats.Requests),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", stats.Violations),
		logger.Int("rowsSeen", stats.RowsSeen),
		logger.Int("trained", stats.Trained),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("requestsPerSecond", perSecond))
}
