package worker

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/mtlprog/wealth/internal/domain"
)

// RateSource provides the FX table currently in force.
type RateSource interface {
	Current(ctx context.Context) (domain.FXRates, error)
}

// RateAuditWorker periodically warns about FX rates that have not been refreshed
// or overridden within the staleness threshold.
type RateAuditWorker struct {
	rates     RateSource
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
}

// NewRateAuditWorker creates a new RateAuditWorker.
func NewRateAuditWorker(rates RateSource, interval, threshold time.Duration) *RateAuditWorker {
	return &RateAuditWorker{
		rates:     rates,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
	}
}

// StaleRates lists the currencies whose rate is older than maxAge at now, sorted.
// The ILS anchor never goes stale.
func StaleRates(fx domain.FXRates, now time.Time, maxAge time.Duration) []string {
	var stale []string
	for code, r := range fx {
		if code == domain.CurrencyILS {
			continue
		}
		if now.Sub(r.LastUpdated) > maxAge {
			stale = append(stale, code)
		}
	}
	sort.Strings(stale)
	return stale
}

func (w *RateAuditWorker) audit(ctx context.Context) []string {
	fx, err := w.rates.Current(ctx)
	if err != nil {
		slog.Error("RateAuditWorker: loading rates failed", "error", err)
		return nil
	}
	stale := StaleRates(fx, w.now(), w.threshold)
	if len(stale) > 0 {
		slog.Warn("RateAuditWorker: stale fx rates", "currencies", stale, "threshold", w.threshold)
	} else {
		slog.Info("RateAuditWorker: all fx rates fresh", "count", len(fx))
	}
	return stale
}

// Run starts the audit loop. It blocks until the context is cancelled.
func (w *RateAuditWorker) Run(ctx context.Context) {
	slog.Info("RateAuditWorker: starting")

	w.audit(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RateAuditWorker: shutting down")
			return
		case <-ticker.C:
			w.audit(ctx)
		}
	}
}
