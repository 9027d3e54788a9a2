package digest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yoframe/yo-pipeline/internal/domain/user"
)

const (
	hourlyLookback    = time.Hour
	semiDailyLookback = 12 * time.Hour
)

// Runner ticks hourly. Every tick digests hourly subscribers; ticks
// landing on an hour divisible by 12 (midnight and noon) also digest
// semi-daily subscribers with the longer lookback.
type Runner struct {
	svc      *Service
	interval time.Duration
	log      *zap.Logger
}

func NewRunner(svc *Service, interval time.Duration, log *zap.Logger) *Runner {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = zap.L()
	}
	return &Runner{svc: svc, interval: interval, log: log.With(zap.String("component", "digest.runner"))}
}

func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("digest runner started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("digest runner stopped")
			return ctx.Err()
		case now := <-ticker.C:
			r.tick(ctx, now)
		}
	}
}

func (r *Runner) tick(ctx context.Context, now time.Time) {
	if err := r.svc.RunOnce(ctx, user.ModeHourly, hourlyLookback); err != nil && ctx.Err() == nil {
		r.log.Error("hourly digest run failed", zap.Error(err))
	}
	if now.UTC().Hour()%12 == 0 {
		if err := r.svc.RunOnce(ctx, user.ModeSemiDaily, semiDailyLookback); err != nil && ctx.Err() == nil {
			r.log.Error("semi-daily digest run failed", zap.Error(err))
		}
	}
}
