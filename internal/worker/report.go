package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/wealth/internal/compare"
)

// Comparer compares the two most recent snapshots.
type Comparer interface {
	CompareLatest(ctx context.Context, top int) (compare.Report, bool, error)
}

// ReportHook receives every comparison the worker produces.
type ReportHook interface {
	Write(ctx context.Context, r compare.Report) error
}

// ReportWorker periodically compares the latest two snapshots and hands the report to a hook.
type ReportWorker struct {
	comparer Comparer
	interval time.Duration
	top      int
	hook     ReportHook // optional
}

// NewReportWorker creates a new ReportWorker with an optional report hook.
func NewReportWorker(comparer Comparer, interval time.Duration, top int, hook ReportHook) *ReportWorker {
	return &ReportWorker{
		comparer: comparer,
		interval: interval,
		top:      top,
		hook:     hook,
	}
}

// runOnce compares once and passes the report to the hook.
func (w *ReportWorker) runOnce(ctx context.Context) {
	report, ok, err := w.comparer.CompareLatest(ctx, w.top)
	if err != nil {
		slog.Error("ReportWorker: comparison failed", "error", err)
		return
	}
	if !ok {
		slog.Info("ReportWorker: fewer than two snapshots, nothing to compare")
		return
	}
	slog.Info("ReportWorker: comparison completed",
		"a", report.Summary.SnapshotA, "b", report.Summary.SnapshotB, "delta", report.Summary.Delta)

	if w.hook == nil {
		return
	}
	if err := w.hook.Write(ctx, report); err != nil {
		slog.Error("ReportWorker: report hook failed", "error", err)
	} else {
		slog.Info("ReportWorker: report hook completed")
	}
}

// Run starts the report worker loop. It blocks until the context is cancelled.
func (w *ReportWorker) Run(ctx context.Context) {
	slog.Info("ReportWorker: starting")

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ReportWorker: shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}
