package edgar

import (
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/insiderwatch/pkg/models"
)

// ParseAtomFeed parses the EDGAR filings Atom feed into entries, preserving
// document order. Entries without an id are dropped: the id is the dedup key
// and an id-less entry can never be deduplicated.
func ParseAtomFeed(raw string) ([]models.FeedEntry, error) {
	feed, err := gofeed.NewParser().ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse atom feed: %w", err)
	}

	entries := make([]models.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := item.GUID
		if id == "" {
			continue
		}

		e := models.FeedEntry{
			ID:        id,
			Title:     item.Title,
			IndexLink: item.Link,
		}
		if len(item.Links) > 0 {
			e.IndexLink = item.Links[0]
		}
		if item.UpdatedParsed != nil {
			e.UpdatedAt = *item.UpdatedParsed
		}
		entries = append(entries, e)
	}
	return entries, nil
}
