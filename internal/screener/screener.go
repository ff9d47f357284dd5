// Package screener implements the deprecated predecessor of the monitor: a
// watcher over an OpenInsider screener page that locates the page's CSV
// export, downloads it, and diffs row keys against the previous run. It has
// no notification wiring and less complete data than the Form 4 pipeline;
// it is kept for operators still on the old workflow.
package screener

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/seenimoa/insiderwatch/internal/config"
	"github.com/seenimoa/insiderwatch/internal/edgar"
	"github.com/seenimoa/insiderwatch/internal/infra"
)

// Watcher runs one pass of the legacy CSV diff.
type Watcher struct {
	cfg    config.ScreenerConfig
	logger *zap.Logger
}

// state is the watcher's persisted key list, newest-first.
type state struct {
	SeenKeys []string `json:"seen_keys"`
}

// Result summarizes one pass.
type Result struct {
	RowsRead int
	NewRows  int
}

// NewWatcher creates a legacy screener watcher.
func NewWatcher(cfg config.ScreenerConfig, logger *zap.Logger) *Watcher {
	return &Watcher{cfg: cfg, logger: logger}
}

// Run fetches the configured page, follows its CSV link, and diffs row keys
// against the stored list. The stored list is replaced with the current
// rows' keys, truncated to the configured cap.
func (w *Watcher) Run(ctx context.Context) (*Result, error) {
	if w.cfg.URL == "" {
		return nil, fmt.Errorf("screener.url is required")
	}

	headers := map[string]string{"User-Agent": w.cfg.UserAgent}
	html, err := infra.GetText(ctx, w.cfg.URL, headers)
	if err != nil {
		return nil, err
	}

	csvLink := FindCSVLink(html)
	if csvLink == "" {
		return nil, fmt.Errorf("no CSV link found on %s", w.cfg.URL)
	}
	csvURL := edgar.Absolutize(w.cfg.URL, csvLink)
	w.logger.Info("found CSV export", zap.String("url", csvURL))

	body, err := infra.GetText(ctx, csvURL, headers)
	if err != nil {
		return nil, err
	}

	rows, err := readCSVRows(body)
	if err != nil {
		return nil, err
	}
	if len(rows) > w.cfg.MaxRowsToTrack {
		rows = rows[:w.cfg.MaxRowsToTrack]
	}

	prev, err := w.loadState()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(prev.SeenKeys))
	for _, k := range prev.SeenKeys {
		seen[k] = struct{}{}
	}

	keys := make([]string, 0, len(rows))
	newRows := 0
	for _, row := range rows {
		k := RowKey(row)
		keys = append(keys, k)
		if _, ok := seen[k]; !ok {
			newRows++
		}
	}

	if err := w.saveState(&state{SeenKeys: keys}); err != nil {
		return nil, err
	}

	w.logger.Info("screener pass finished",
		zap.Int("rows_read", len(rows)), zap.Int("new", newRows))
	return &Result{RowsRead: len(rows), NewRows: newRows}, nil
}

// FindCSVLink returns the first href on the page that looks like a CSV
// export, or "" when the page carries none.
func FindCSVLink(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || !strings.Contains(strings.ToLower(href), "csv") {
			return true
		}
		found = href
		return false
	})
	return found
}

// RowKey derives a stable key from a CSV row: the sha256 of the trimmed
// fields joined with "|". No single column is trusted to be unique.
func RowKey(fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = strings.TrimSpace(f)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// readCSVRows parses CSV text into data rows, dropping the header row.
// Ragged rows are tolerated.
func readCSVRows(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

func (w *Watcher) loadState() (*state, error) {
	data, err := os.ReadFile(w.cfg.StatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &state{}, nil
		}
		return nil, fmt.Errorf("read screener state %s: %w", w.cfg.StatePath, err)
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse screener state %s: %w", w.cfg.StatePath, err)
	}
	return &st, nil
}

func (w *Watcher) saveState(st *state) error {
	if err := os.MkdirAll(filepath.Dir(w.cfg.StatePath), 0o755); err != nil {
		return fmt.Errorf("create screener state dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal screener state: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(w.cfg.StatePath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write screener state %s: %w", w.cfg.StatePath, err)
	}
	return nil
}
