package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner выполняет один проход генерации ленты.
type Runner interface {
	Run(ctx context.Context) error
}

// Every возвращает расписание с постоянным интервалом (не меньше секунды).
func Every(interval time.Duration) cron.Schedule {
	return cron.Every(interval)
}

// ParseSchedule разбирает cron-выражение из пяти полей или дескриптор вида "@hourly".
func ParseSchedule(expr string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return s, nil
}

// Worker повторяет проходы генерации по расписанию.
// Первый проход выполняется сразу; ошибки прохода логируются и не останавливают цикл.
type Worker struct {
	runner   Runner
	schedule cron.Schedule
	timeout  time.Duration
	log      *slog.Logger
	passes   int
	failures int
}

// New создает воркера. timeout ограничивает один проход; 0 означает без ограничения.
func New(runner Runner, schedule cron.Schedule, timeout time.Duration, log *slog.Logger) *Worker {
	return &Worker{
		runner:   runner,
		schedule: schedule,
		timeout:  timeout,
		log:      log.With(slog.String("component", "worker")),
	}
}

// Run блокируется до отмены ctx.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Feed worker started")
	w.pass(ctx)
	for {
		next := w.schedule.Next(time.Now())
		w.log.Debug("Next pass scheduled", slog.Time("at", next))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			w.pass(ctx)
		case <-ctx.Done():
			timer.Stop()
			w.log.Info("Worker stopping",
				slog.Int("passes", w.passes),
				slog.Int("failures", w.failures),
			)
			return nil
		}
	}
}

func (w *Worker) pass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	opCtx, cancel := ctx, context.CancelFunc(func() {})
	if w.timeout > 0 {
		opCtx, cancel = context.WithTimeout(ctx, w.timeout)
	}
	defer cancel()

	start := time.Now()
	w.passes++
	if err := w.runner.Run(opCtx); err != nil {
		w.failures++
		w.log.Error("Feed pass failed",
			slog.Int("pass", w.passes),
			slog.Any("error", err),
		)
		return
	}
	w.log.Info("Feed pass completed",
		slog.Int("pass", w.passes),
		slog.Duration("duration", time.Since(start)),
	)
}

// Stats возвращает число выполненных и неудачных проходов.
func (w *Worker) Stats() (passes, failures int) { return w.passes, w.failures }
