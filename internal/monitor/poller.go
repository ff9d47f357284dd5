package monitor

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/seenimoa/insiderwatch/internal/edgar"
	"github.com/seenimoa/insiderwatch/pkg/models"
)

// runLive performs one incremental poll of the EDGAR Atom feed: compute the
// entries not yet seen, update the live dedup set per the configured seen
// policy, and process up to MaxLivePerRun of them in feed order.
//
// A failure to fetch or parse the feed itself is fatal for the run. Any
// failure while processing one entry is logged and the loop continues.
func (m *Monitor) runLive(ctx context.Context) error {
	raw, err := m.client.FetchFeed(ctx, m.cfg.Edgar.FeedURL)
	if err != nil {
		return err
	}
	entries, err := edgar.ParseAtomFeed(raw)
	if err != nil {
		return err
	}

	// The feed is assumed newest-first, but that ordering is load-bearing for
	// state truncation, so sort defensively instead of trusting the source.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})

	var fresh []models.FeedEntry
	for _, e := range entries {
		if m.live.IsNew(e.ID) {
			fresh = append(fresh, e)
		}
	}

	if m.policy == SeenBeforeFetch {
		// Replace the stored id list with the current feed's ids, newest
		// first, before anything is fetched. An entry whose filing later
		// fails is still seen and will not be retried.
		replacement := NewBoundedSet(liveSeenCap)
		for _, e := range entries {
			if replacement.Full() {
				break
			}
			replacement.Admit(e.ID)
		}
		m.live = replacement
	}

	m.logger.Info("live feed polled",
		zap.Int("entries", len(entries)),
		zap.Int("new", len(fresh)),
		zap.String("seen_policy", string(m.policy)))

	processed := 0
	var succeeded []string
	for _, e := range fresh {
		if processed >= m.cfg.Monitor.MaxLivePerRun {
			m.logger.Info("per-run processing cap reached",
				zap.Int("cap", m.cfg.Monitor.MaxLivePerRun),
				zap.Int("deferred", len(fresh)-processed))
			break
		}
		processed++

		if err := m.processEntry(ctx, e); err != nil {
			m.logger.Warn("skipping feed entry",
				zap.String("id", e.ID), zap.String("title", e.Title), zap.Error(err))
			continue
		}
		if m.policy == SeenAfterSuccess {
			succeeded = append(succeeded, e.ID)
		}
	}

	if m.policy == SeenAfterSuccess && len(succeeded) > 0 {
		// Rebuild the set so the persisted id list stays newest-first: this
		// run's successes (already newest-first from the sort) ahead of the
		// carried-over ids, with the oldest carried ids falling off at the cap.
		merged := NewBoundedSet(liveSeenCap)
		for _, id := range succeeded {
			merged.Admit(id)
		}
		for _, id := range m.live.Snapshot() {
			if merged.Full() {
				break
			}
			merged.Admit(id)
		}
		m.live = merged
	}
	return nil
}

// processEntry ingests a single new feed entry: fetch its index page, locate
// the machine-readable attachment, parse it, log the record, and evaluate the
// alert rule.
func (m *Monitor) processEntry(ctx context.Context, e models.FeedEntry) error {
	html, err := m.client.FetchFilingIndex(ctx, e.IndexLink)
	if err != nil {
		return err
	}

	attachmentURL := edgar.FindForm4Attachment(html, e.IndexLink)
	if attachmentURL == "" {
		return fmt.Errorf("no machine-readable attachment on index page %s", e.IndexLink)
	}

	raw, err := m.client.FetchAttachment(ctx, attachmentURL)
	if err != nil {
		return err
	}

	filing, err := edgar.ParseForm4(raw)
	if err != nil {
		return err
	}

	updatedAt := e.UpdatedAt
	if err := m.log.Append(models.FilingLogRecord{
		Source:        models.SourceLive,
		FeedID:        e.ID,
		IndexURL:      e.IndexLink,
		AttachmentURL: attachmentURL,
		Ticker:        filing.Ticker,
		TotalValueUSD: filing.TotalValueUSD,
		Transactions:  filing.Transactions,
		UpdatedAt:     &updatedAt,
		Title:         e.Title,
		IngestedAt:    m.now(),
	}); err != nil {
		return err
	}

	m.logger.Info("filing ingested",
		zap.String("ticker", filing.Ticker),
		zap.String("id", e.ID),
		zap.String("total_value_usd", filing.TotalValueUSD.StringFixed(2)))

	if ShouldAlert(m.cfg.Alert, filing) {
		m.notify(ctx, alertSubject(filing), alertBody(e, filing))
	}
	return nil
}

// notify delivers a notification best-effort: at most one attempt, failure
// logged and swallowed.
func (m *Monitor) notify(ctx context.Context, subject, body string) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, subject, body); err != nil {
		m.logger.Warn("notification delivery failed", zap.String("subject", subject), zap.Error(err))
		return
	}
	m.logger.Info("notification sent", zap.String("subject", subject))
}
