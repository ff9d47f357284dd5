package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seenimoa/insiderwatch/internal/config"
	"github.com/seenimoa/insiderwatch/internal/edgar"
)

// Notifier delivers a plain-text notification. Implementations live outside
// the core; delivery is best-effort and never gates the pipeline.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Monitor is one invocation of the ingestion pipeline. It is strictly
// single-threaded: state is loaded once, mutated sequentially, and persisted
// at the end of the run.
type Monitor struct {
	cfg      *config.Config
	client   *edgar.Client
	store    *StateStore
	log      *FilingLog
	notifier Notifier
	logger   *zap.Logger
	policy   SeenPolicy

	// Clock hook for tests.
	now func() time.Time

	// Rehydrated from State at the start of a run.
	history *BoundedSet
	live    *BoundedSet
}

// New assembles a monitor from its collaborators. The notifier may be nil
// when notifications are disabled.
func New(cfg *config.Config, client *edgar.Client, store *StateStore, log *FilingLog, notifier Notifier, logger *zap.Logger) (*Monitor, error) {
	policy, err := ParseSeenPolicy(cfg.Monitor.SeenPolicy)
	if err != nil {
		return nil, fmt.Errorf("monitor.seen_policy: %w", err)
	}
	return &Monitor{
		cfg:      cfg,
		client:   client,
		store:    store,
		log:      log,
		notifier: notifier,
		logger:   logger,
		policy:   policy,
		now:      time.Now,
	}, nil
}

// Run executes one complete invocation: load state, run the historical
// backfill if it has never completed, always poll the live feed, persist
// state.
//
// The bootstrap transition is one-way: bootstrapDone becomes true on the
// first run regardless of the backfill's outcome, so the live pipeline is
// never perpetually gated by historical ingestion.
func (m *Monitor) Run(ctx context.Context) error {
	st, err := m.store.Load()
	if err != nil {
		return err
	}
	m.history = NewBoundedSetFrom(m.cfg.Monitor.MaxHistoryRows, st.HistorySeenFilenames)
	m.live = NewBoundedSetFrom(liveSeenCap, st.SeenLiveIDs)

	if !st.BootstrapDone {
		res := m.runBootstrap(ctx)
		completedAt := m.now()
		st.BootstrapDone = true
		st.BootstrapCompletedAt = &completedAt
		if res.Err != nil {
			st.BootstrapError = res.Err.Error()
			m.logger.Warn("historical backfill recorded as failed", zap.Error(res.Err))
		}
	}

	liveErr := m.runLive(ctx)

	// Persist whatever progress was made, even when the live poll failed.
	st.HistorySeenFilenames = m.history.Snapshot()
	st.SeenLiveIDs = m.live.Snapshot()
	if err := m.store.Save(st); err != nil {
		return err
	}

	if liveErr != nil {
		return fmt.Errorf("live poll: %w", liveErr)
	}
	return nil
}
