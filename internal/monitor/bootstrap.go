package monitor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/seenimoa/insiderwatch/internal/edgar"
	"github.com/seenimoa/insiderwatch/pkg/models"
)

// BootstrapResult is the explicit outcome of one historical backfill pass.
// The orchestrator records it in state; it never propagates as a run failure.
type BootstrapResult struct {
	Ingested int
	Err      error
}

// runBootstrap performs the one-time historical backfill: it pulls the
// cumulative master index for each quarter covering the rolling window,
// filters to Form 4 rows inside the window, and appends a derived record per
// previously-unseen filing to the filing log.
//
// A failed quarter contributes zero records and the pass continues. The pass
// stops early once the historical set reaches its cap.
func (m *Monitor) runBootstrap(ctx context.Context) BootstrapResult {
	now := m.now()
	cutoff := now.AddDate(0, 0, -m.cfg.Monitor.HistoryDays)
	quarters := edgar.QuartersCovering(now, m.cfg.Monitor.HistoryDays)

	m.logger.Info("starting historical backfill",
		zap.Int("history_days", m.cfg.Monitor.HistoryDays),
		zap.Int("quarters", len(quarters)),
		zap.Int("max_history_rows", m.cfg.Monitor.MaxHistoryRows))

	res := BootstrapResult{}
	var lastErr error
	failed := 0
	for _, q := range quarters {
		if m.history.Full() {
			m.logger.Warn("historical set cap reached, stopping backfill early",
				zap.Int("cap", m.cfg.Monitor.MaxHistoryRows))
			break
		}

		text, err := m.client.FetchMasterIndex(ctx, q)
		if err != nil {
			m.logger.Warn("skipping quarter, index fetch failed",
				zap.Int("year", q.Year), zap.Int("quarter", q.Quarter), zap.Error(err))
			lastErr = err
			failed++
			continue
		}

		for _, rec := range edgar.ParseMasterIndex(text) {
			if rec.FormType != "4" {
				continue
			}
			if rec.DateFiled.Before(cutoff) {
				continue
			}
			if !m.history.IsNew(rec.Filename) {
				continue
			}

			m.history.Admit(rec.Filename)
			dateFiled := rec.DateFiled
			logErr := m.log.Append(models.FilingLogRecord{
				Source:      models.SourceBootstrap,
				Filename:    rec.Filename,
				CIK:         rec.CIK,
				CompanyName: rec.CompanyName,
				DateFiled:   &dateFiled,
				IngestedAt:  now,
			})
			if logErr != nil {
				res.Err = fmt.Errorf("append bootstrap record: %w", logErr)
				return res
			}
			res.Ingested++

			if m.history.Full() {
				break
			}
		}
	}

	// Only a fully failed pass is recorded as a bootstrap error; partial
	// coverage is normal best-effort behavior.
	if failed == len(quarters) && lastErr != nil {
		res.Err = fmt.Errorf("all %d index periods failed: %w", failed, lastErr)
	}

	m.logger.Info("historical backfill finished",
		zap.Int("ingested", res.Ingested),
		zap.Int("failed_quarters", failed))
	return res
}
