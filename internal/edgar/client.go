package edgar

import (
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/insiderwatch/internal/infra"
)

const archivesBaseURL = "https://www.sec.gov/Archives"

// Client fetches EDGAR documents over HTTP. All requests carry the configured
// identification string as User-Agent (SEC policy) and are paced by a shared
// limiter so a run never bursts the EDGAR servers.
type Client struct {
	// ArchivesBase is the root URL for EDGAR full-index files. It defaults
	// to the public sec.gov archive.
	ArchivesBase string

	userAgent string
	limiter   *infra.RateLimiter
}

// NewClient creates an EDGAR client. requestDelay is the fixed courtesy delay
// between successive requests.
func NewClient(userAgent string, requestDelay time.Duration) *Client {
	return &Client{
		ArchivesBase: archivesBaseURL,
		userAgent:    userAgent,
		limiter:      infra.NewRateLimiter(1, requestDelay),
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"User-Agent": c.userAgent,
	}
}

// get paces the request and fetches the URL as text.
func (c *Client) get(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return infra.GetText(ctx, url, c.headers())
}

// FetchMasterIndex fetches the cumulative master.idx for one calendar quarter.
func (c *Client) FetchMasterIndex(ctx context.Context, q Quarter) (string, error) {
	url := fmt.Sprintf("%s/edgar/full-index/%d/QTR%d/master.idx", c.ArchivesBase, q.Year, q.Quarter)
	text, err := c.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch master index %d QTR%d: %w", q.Year, q.Quarter, err)
	}
	return text, nil
}

// FetchFeed fetches the raw Atom feed text.
func (c *Client) FetchFeed(ctx context.Context, feedURL string) (string, error) {
	text, err := c.get(ctx, feedURL)
	if err != nil {
		return "", fmt.Errorf("fetch feed: %w", err)
	}
	return text, nil
}

// FetchFilingIndex fetches a filing's human-readable index page.
func (c *Client) FetchFilingIndex(ctx context.Context, indexURL string) (string, error) {
	text, err := c.get(ctx, indexURL)
	if err != nil {
		return "", fmt.Errorf("fetch filing index: %w", err)
	}
	return text, nil
}

// FetchAttachment fetches a filing's machine-readable attachment.
func (c *Client) FetchAttachment(ctx context.Context, attachmentURL string) ([]byte, error) {
	text, err := c.get(ctx, attachmentURL)
	if err != nil {
		return nil, fmt.Errorf("fetch attachment: %w", err)
	}
	return []byte(text), nil
}

// --- Reporting periods ---

// Quarter identifies one EDGAR full-index reporting period.
type Quarter struct {
	Year    int
	Quarter int // 1..4
}

// QuartersCovering returns the quarters whose cumulative indexes cover the
// rolling window of days ending at now, most recent first. A window inside a
// single quarter still yields that one quarter; typical windows (90-120 days)
// yield the current and previous quarter.
func QuartersCovering(now time.Time, days int) []Quarter {
	cutoff := now.AddDate(0, 0, -days)

	quarters := []Quarter{quarterOf(now)}
	q := quarterOf(cutoff)
	for q != quarters[len(quarters)-1] {
		quarters = append(quarters, prevQuarter(quarters[len(quarters)-1]))
	}
	return quarters
}

func quarterOf(t time.Time) Quarter {
	return Quarter{Year: t.Year(), Quarter: (int(t.Month())-1)/3 + 1}
}

func prevQuarter(q Quarter) Quarter {
	if q.Quarter == 1 {
		return Quarter{Year: q.Year - 1, Quarter: 4}
	}
	return Quarter{Year: q.Year, Quarter: q.Quarter - 1}
}
