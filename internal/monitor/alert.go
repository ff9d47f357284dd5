package monitor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/insiderwatch/internal/config"
	"github.com/seenimoa/insiderwatch/pkg/models"
)

// ShouldAlert decides whether a parsed filing warrants a notification. Pure
// function, no I/O. All filters are conjunctive:
//
//   - alerting must be enabled;
//   - if a ticker whitelist is configured, the filing's ticker must be a
//     member (case-insensitive); an empty whitelist allows all tickers;
//   - at least one transaction code must equal the required code
//     (case-insensitive);
//   - the filing's total value must meet the configured minimum.
func ShouldAlert(cfg config.AlertConfig, filing *models.FilingData) bool {
	if !cfg.Enabled {
		return false
	}

	if len(cfg.Tickers) > 0 {
		found := false
		for _, t := range cfg.Tickers {
			if strings.EqualFold(t, filing.Ticker) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	codeMatch := false
	for _, tx := range filing.Transactions {
		if strings.EqualFold(tx.Code, cfg.TransactionCode) {
			codeMatch = true
			break
		}
	}
	if !codeMatch {
		return false
	}

	return filing.TotalValueUSD.Cmp(decimal.NewFromFloat(cfg.MinValueUSD)) >= 0
}

// alertSubject and alertBody render the plain-text notification for a filing.

func alertSubject(filing *models.FilingData) string {
	return fmt.Sprintf("Insider transaction: %s — $%s", filing.Ticker, filing.TotalValueUSD.StringFixed(2))
}

func alertBody(entry models.FeedEntry, filing *models.FilingData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New Form 4 filing for %s\n\n", filing.Ticker)
	fmt.Fprintf(&b, "Filing: %s\n", entry.Title)
	fmt.Fprintf(&b, "Index:  %s\n", entry.IndexLink)
	fmt.Fprintf(&b, "Total value: $%s\n\n", filing.TotalValueUSD.StringFixed(2))
	fmt.Fprintf(&b, "Transactions:\n")
	for _, tx := range filing.Transactions {
		fmt.Fprintf(&b, "  %s  code=%s  shares=%s  price=%s  value=$%s\n",
			tx.Date, tx.Code, tx.Shares.String(), tx.Price.String(), tx.Value.StringFixed(2))
	}
	return b.String()
}
