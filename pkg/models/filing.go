package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// --- Historical index ---

// FilingIndexRecord is one row of an EDGAR full-index master.idx file.
type FilingIndexRecord struct {
	CIK         string    `json:"cik"`
	CompanyName string    `json:"company_name"`
	FormType    string    `json:"form_type"` // "4", "10-K", "8-K", etc.
	DateFiled   time.Time `json:"date_filed"`
	Filename    string    `json:"filename"` // opaque path under /Archives
}

// --- Live feed ---

// FeedEntry is one item of the EDGAR Atom feed.
// ID is stable across fetches of the same feed and is the dedup key.
type FeedEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	IndexLink string    `json:"index_link"` // filing index page URL
}

// --- Form 4 ---

// Transaction is one reported non-derivative trade line inside a Form 4.
// Malformed numeric fields decode to zero rather than failing the filing.
type Transaction struct {
	Date   string          `json:"date"`
	Code   string          `json:"code"` // "P" purchase, "S" sale, etc.
	Shares decimal.Decimal `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"` // shares × price
}

// FilingData is the parsed result of one Form 4 document.
type FilingData struct {
	Ticker        string          `json:"ticker"`
	Transactions  []Transaction   `json:"transactions"`
	TotalValueUSD decimal.Decimal `json:"total_value_usd"`
}

// --- Append-only log ---

// Log record sources.
const (
	SourceBootstrap = "bootstrap"
	SourceLive      = "live"
)

// FilingLogRecord is one line of the append-only filing log.
type FilingLogRecord struct {
	Source        string          `json:"source"` // bootstrap | live
	Filename      string          `json:"filename,omitempty"`
	FeedID        string          `json:"feed_id,omitempty"`
	IndexURL      string          `json:"index_url,omitempty"`
	AttachmentURL string          `json:"attachment_url,omitempty"`
	Ticker        string          `json:"ticker,omitempty"`
	TotalValueUSD decimal.Decimal `json:"total_value_usd"`
	Transactions  []Transaction   `json:"transactions,omitempty"`

	// Provenance metadata.
	CIK         string     `json:"cik,omitempty"`
	CompanyName string     `json:"company_name,omitempty"`
	DateFiled   *time.Time `json:"date_filed,omitempty"`  // historical records
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`  // live records
	Title       string     `json:"title,omitempty"`       // live records
	IngestedAt  time.Time  `json:"ingested_at"`
}
