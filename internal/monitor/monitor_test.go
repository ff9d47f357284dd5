package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seenimoa/insiderwatch/internal/config"
	"github.com/seenimoa/insiderwatch/internal/edgar"
	"github.com/seenimoa/insiderwatch/pkg/models"
)

// fakeNotifier records delivered notifications.
type fakeNotifier struct {
	subjects []string
}

func (f *fakeNotifier) Notify(_ context.Context, subject, _ string) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

// edgarStub serves a minimal EDGAR: an Atom feed with one Form 4 entry, the
// filing's index page, its XML attachment, and (optionally) master index
// files for the backfill.
type edgarStub struct {
	srv         *httptest.Server
	masterIndex string // empty = 404 on full-index requests
	feedEntries int
	indexStatus int // status for the filing index page, 0 = 200
}

func newEdgarStub(t *testing.T) *edgarStub {
	t.Helper()
	stub := &edgarStub{feedEntries: 1}

	mux := http.NewServeMux()
	mux.HandleFunc("/feed.atom", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, stub.feedXML())
	})
	mux.HandleFunc("/Archives/idx1.htm", func(w http.ResponseWriter, r *http.Request) {
		if stub.indexStatus != 0 {
			w.WriteHeader(stub.indexStatus)
			return
		}
		fmt.Fprint(w, `<html><body><a href="0001-index.xml">idx</a><a href="f.xml">form4</a></body></html>`)
	})
	mux.HandleFunc("/Archives/f.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?>
<ownershipDocument>
  <issuer><issuerTradingSymbol>ACME</issuerTradingSymbol></issuer>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <transactionDate><value>2026-08-20</value></transactionDate>
      <transactionCoding><transactionCode>P</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>100</value></transactionShares>
        <transactionPricePerShare><value>2.5</value></transactionPricePerShare>
      </transactionAmounts>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
</ownershipDocument>`)
	})
	mux.HandleFunc("/edgar/full-index/", func(w http.ResponseWriter, r *http.Request) {
		if stub.masterIndex == "" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, stub.masterIndex)
	})

	stub.srv = httptest.NewServer(mux)
	t.Cleanup(stub.srv.Close)
	return stub
}

func (s *edgarStub) feedXML() string {
	feed := `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>Latest</title>`
	for i := 0; i < s.feedEntries; i++ {
		feed += fmt.Sprintf(`<entry><id>A%d</id><title>4 - ACME CORP (Issuer)</title>`+
			`<updated>2026-08-25T1%d:00:00-04:00</updated>`+
			`<link rel="alternate" href="%s/Archives/idx1.htm"/></entry>`, i+1, i, s.srv.URL)
	}
	return feed + `</feed>`
}

func testConfig(t *testing.T, feedURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Edgar: config.EdgarConfig{FeedURL: feedURL, UserAgent: "insiderwatch-test test@example.com"},
		Monitor: config.MonitorConfig{
			StatePath:      filepath.Join(dir, "state.json"),
			LogPath:        filepath.Join(dir, "filings.jsonl"),
			HistoryDays:    120,
			MaxHistoryRows: 50000,
			MaxLivePerRun:  20,
			RequestDelayMs: 1,
			SeenPolicy:     string(SeenBeforeFetch),
		},
		Alert: config.AlertConfig{Enabled: true, TransactionCode: "P", MinValueUSD: 0},
	}
}

func newTestMonitor(t *testing.T, cfg *config.Config, stub *edgarStub, notifier Notifier) *Monitor {
	t.Helper()
	client := edgar.NewClient(cfg.Edgar.UserAgent, time.Millisecond)
	client.ArchivesBase = stub.srv.URL
	m, err := New(cfg, client, NewStateStore(cfg.Monitor.StatePath),
		NewFilingLog(cfg.Monitor.LogPath), notifier, zap.NewNop())
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	m.now = func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) }
	return m
}

func readLog(t *testing.T, path string) []models.FilingLogRecord {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	defer f.Close()

	var recs []models.FilingLogRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec models.FilingLogRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("bad log line: %v", err)
		}
		recs = append(recs, rec)
	}
	return recs
}

func markBootstrapDone(t *testing.T, cfg *config.Config) {
	t.Helper()
	store := NewStateStore(cfg.Monitor.StatePath)
	if err := store.Save(&State{BootstrapDone: true}); err != nil {
		t.Fatal(err)
	}
}

func TestRunEndToEnd(t *testing.T) {
	stub := newEdgarStub(t)
	cfg := testConfig(t, stub.srv.URL+"/feed.atom")
	markBootstrapDone(t, cfg)

	notifier := &fakeNotifier{}
	m := newTestMonitor(t, cfg, stub, notifier)
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	recs := readLog(t, cfg.Monitor.LogPath)
	if len(recs) != 1 {
		t.Fatalf("expected 1 log record, got %d", len(recs))
	}
	rec := recs[0]
	if rec.Source != models.SourceLive {
		t.Errorf("expected source live, got %s", rec.Source)
	}
	if rec.Ticker != "ACME" {
		t.Errorf("expected ticker ACME, got %s", rec.Ticker)
	}
	if !rec.TotalValueUSD.Equal(decimal.NewFromFloat(250.0)) {
		t.Errorf("expected total 250, got %s", rec.TotalValueUSD)
	}
	if len(rec.Transactions) != 1 || rec.Transactions[0].Code != "P" {
		t.Errorf("unexpected transactions %+v", rec.Transactions)
	}

	st, err := NewStateStore(cfg.Monitor.StatePath).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(st.SeenLiveIDs) != 1 || st.SeenLiveIDs[0] != "A1" {
		t.Errorf("expected A1 marked seen, got %v", st.SeenLiveIDs)
	}

	if len(notifier.subjects) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(notifier.subjects))
	}
}

func TestRunIdempotentDedup(t *testing.T) {
	stub := newEdgarStub(t)
	cfg := testConfig(t, stub.srv.URL+"/feed.atom")
	markBootstrapDone(t, cfg)

	notifier := &fakeNotifier{}
	m := newTestMonitor(t, cfg, stub, notifier)
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second run against an unchanged feed: zero new entries.
	m2 := newTestMonitor(t, cfg, stub, notifier)
	if err := m2.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if recs := readLog(t, cfg.Monitor.LogPath); len(recs) != 1 {
		t.Errorf("expected 1 log record after two runs, got %d", len(recs))
	}
	if len(notifier.subjects) != 1 {
		t.Errorf("expected 1 notification after two runs, got %d", len(notifier.subjects))
	}
}

func TestBootstrapNonBlocking(t *testing.T) {
	stub := newEdgarStub(t) // masterIndex empty: every full-index fetch 404s
	cfg := testConfig(t, stub.srv.URL+"/feed.atom")

	m := newTestMonitor(t, cfg, stub, &fakeNotifier{})
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	st, err := NewStateStore(cfg.Monitor.StatePath).Load()
	if err != nil {
		t.Fatal(err)
	}
	if !st.BootstrapDone {
		t.Error("bootstrapDone must be true even when every index fetch fails")
	}
	if st.BootstrapError == "" {
		t.Error("expected bootstrap error recorded")
	}

	// The live pipeline still ran.
	if recs := readLog(t, cfg.Monitor.LogPath); len(recs) != 1 {
		t.Errorf("expected live record despite failed backfill, got %d records", len(recs))
	}
}

func TestBootstrapIngestsFormFourWithinWindow(t *testing.T) {
	stub := newEdgarStub(t)
	stub.feedEntries = 0
	stub.masterIndex = `CIK|Company Name|Form Type|Date Filed|Filename
----------------------------------------------------------------
1|ACME CORP|4|2026-08-01|edgar/data/1/a.txt
2|BETA INC|4|2026-07-15|edgar/data/2/b.txt
3|GAMMA LLC|10-K|2026-08-01|edgar/data/3/c.txt
4|OLD CO|4|2025-01-01|edgar/data/4/d.txt
`
	cfg := testConfig(t, stub.srv.URL+"/feed.atom")

	m := newTestMonitor(t, cfg, stub, &fakeNotifier{})
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Only the two Form 4 rows inside the 120-day window are ingested, once,
	// even though both covered quarters serve the same index.
	recs := readLog(t, cfg.Monitor.LogPath)
	if len(recs) != 2 {
		t.Fatalf("expected 2 bootstrap records, got %d", len(recs))
	}
	for _, r := range recs {
		if r.Source != models.SourceBootstrap {
			t.Errorf("expected source bootstrap, got %s", r.Source)
		}
	}

	st, err := NewStateStore(cfg.Monitor.StatePath).Load()
	if err != nil {
		t.Fatal(err)
	}
	if !st.BootstrapDone || st.BootstrapError != "" {
		t.Errorf("expected clean bootstrap, done=%v err=%q", st.BootstrapDone, st.BootstrapError)
	}
	if len(st.HistorySeenFilenames) != 2 {
		t.Errorf("expected 2 filenames in history, got %d", len(st.HistorySeenFilenames))
	}
}

func TestBootstrapHonorsHistoryCap(t *testing.T) {
	stub := newEdgarStub(t)
	stub.feedEntries = 0
	index := "CIK|Company Name|Form Type|Date Filed|Filename\n"
	for i := 0; i < 10; i++ {
		index += fmt.Sprintf("%d|CO %d|4|2026-08-01|edgar/data/%d/f.txt\n", i, i, i)
	}
	stub.masterIndex = index

	cfg := testConfig(t, stub.srv.URL+"/feed.atom")
	cfg.Monitor.MaxHistoryRows = 3

	m := newTestMonitor(t, cfg, stub, &fakeNotifier{})
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	st, err := NewStateStore(cfg.Monitor.StatePath).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(st.HistorySeenFilenames) > 3 {
		t.Errorf("history size %d exceeds cap 3", len(st.HistorySeenFilenames))
	}
	if recs := readLog(t, cfg.Monitor.LogPath); len(recs) > 3 {
		t.Errorf("expected at most 3 bootstrap records, got %d", len(recs))
	}
}

func TestRunFeedFailureIsFatal(t *testing.T) {
	stub := newEdgarStub(t)
	cfg := testConfig(t, stub.srv.URL+"/no-such-feed")

	m := newTestMonitor(t, cfg, stub, &fakeNotifier{})
	if err := m.Run(context.Background()); err == nil {
		t.Fatal("expected error when the feed cannot be fetched")
	}

	// Bootstrap progress is still persisted.
	st, err := NewStateStore(cfg.Monitor.StatePath).Load()
	if err != nil {
		t.Fatal(err)
	}
	if !st.BootstrapDone {
		t.Error("expected bootstrapDone persisted despite fatal live poll")
	}
}

func TestSeenPolicies(t *testing.T) {
	t.Run("before-fetch never retries a failed entry", func(t *testing.T) {
		stub := newEdgarStub(t)
		stub.indexStatus = http.StatusNotFound
		cfg := testConfig(t, stub.srv.URL+"/feed.atom")
		markBootstrapDone(t, cfg)

		m := newTestMonitor(t, cfg, stub, &fakeNotifier{})
		if err := m.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}

		st, _ := NewStateStore(cfg.Monitor.StatePath).Load()
		if len(st.SeenLiveIDs) != 1 || st.SeenLiveIDs[0] != "A1" {
			t.Fatalf("expected A1 marked seen despite failure, got %v", st.SeenLiveIDs)
		}

		// The entry's filing becomes available, but the id is already seen.
		stub.indexStatus = 0
		m2 := newTestMonitor(t, cfg, stub, &fakeNotifier{})
		if err := m2.Run(context.Background()); err != nil {
			t.Fatalf("second run: %v", err)
		}
		if recs := readLog(t, cfg.Monitor.LogPath); len(recs) != 0 {
			t.Errorf("expected no records under before-fetch policy, got %d", len(recs))
		}
	})

	t.Run("after-success retries a failed entry", func(t *testing.T) {
		stub := newEdgarStub(t)
		stub.indexStatus = http.StatusNotFound
		cfg := testConfig(t, stub.srv.URL+"/feed.atom")
		cfg.Monitor.SeenPolicy = string(SeenAfterSuccess)
		markBootstrapDone(t, cfg)

		m := newTestMonitor(t, cfg, stub, &fakeNotifier{})
		if err := m.Run(context.Background()); err != nil {
			t.Fatalf("run: %v", err)
		}

		st, _ := NewStateStore(cfg.Monitor.StatePath).Load()
		if len(st.SeenLiveIDs) != 0 {
			t.Fatalf("expected failed entry left unseen, got %v", st.SeenLiveIDs)
		}

		stub.indexStatus = 0
		m2 := newTestMonitor(t, cfg, stub, &fakeNotifier{})
		if err := m2.Run(context.Background()); err != nil {
			t.Fatalf("second run: %v", err)
		}
		if recs := readLog(t, cfg.Monitor.LogPath); len(recs) != 1 {
			t.Errorf("expected the entry ingested on retry, got %d records", len(recs))
		}
		st2, _ := NewStateStore(cfg.Monitor.StatePath).Load()
		if len(st2.SeenLiveIDs) != 1 {
			t.Errorf("expected A1 seen after success, got %v", st2.SeenLiveIDs)
		}
	})
}

func TestAfterSuccessSeenIDsStayNewestFirst(t *testing.T) {
	stub := newEdgarStub(t)
	stub.feedEntries = 2
	cfg := testConfig(t, stub.srv.URL+"/feed.atom")
	cfg.Monitor.SeenPolicy = string(SeenAfterSuccess)
	markBootstrapDone(t, cfg)

	m := newTestMonitor(t, cfg, stub, &fakeNotifier{})
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// A newer entry appears on the feed.
	stub.feedEntries = 3
	m2 := newTestMonitor(t, cfg, stub, &fakeNotifier{})
	if err := m2.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	st, err := NewStateStore(cfg.Monitor.StatePath).Load()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"A3", "A2", "A1"}
	if len(st.SeenLiveIDs) != len(want) {
		t.Fatalf("expected %d seen ids, got %v", len(want), st.SeenLiveIDs)
	}
	for i, id := range want {
		if st.SeenLiveIDs[i] != id {
			t.Errorf("seen ids not newest-first: got %v, want %v", st.SeenLiveIDs, want)
			break
		}
	}
}

func TestLivePerRunCap(t *testing.T) {
	stub := newEdgarStub(t)
	stub.feedEntries = 5
	cfg := testConfig(t, stub.srv.URL+"/feed.atom")
	cfg.Monitor.MaxLivePerRun = 2
	markBootstrapDone(t, cfg)

	m := newTestMonitor(t, cfg, stub, &fakeNotifier{})
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if recs := readLog(t, cfg.Monitor.LogPath); len(recs) != 2 {
		t.Errorf("expected 2 records under per-run cap, got %d", len(recs))
	}

	// All feed ids are nonetheless marked seen under the default policy.
	st, _ := NewStateStore(cfg.Monitor.StatePath).Load()
	if len(st.SeenLiveIDs) != 5 {
		t.Errorf("expected all 5 ids seen, got %d", len(st.SeenLiveIDs))
	}
}
