package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorhill/cronexpr"
)

// CronWorker runs Job at every time matched by a cron expression.
type CronWorker struct {
	Name       string
	Expr       string // standard 5-field cron, or @daily / @hourly
	Location   *time.Location
	RunOnStart bool
	Job        func(ctx context.Context)
}

func (w *CronWorker) Start(ctx context.Context) error {
	expr, err := cronexpr.Parse(w.Expr)
	if err != nil {
		return fmt.Errorf("%s: invalid cron %q: %w", w.Name, w.Expr, err)
	}
	loc := w.Location
	if loc == nil {
		loc = time.Local
	}
	if w.RunOnStart {
		w.run(ctx)
	}
	for {
		next := expr.Next(time.Now().In(loc))
		if next.IsZero() {
			return fmt.Errorf("%s: cron %q never fires", w.Name, w.Expr)
		}
		slog.Info("cron: next run scheduled", "worker", w.Name, "at", next)
		t := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
			w.run(ctx)
		}
	}
}

func (w *CronWorker) run(ctx context.Context) {
	start := time.Now()
	slog.Info("cron: run started", "worker", w.Name)
	w.Job(ctx)
	slog.Info("cron: run finished", "worker", w.Name, "duration", time.Since(start))
}
