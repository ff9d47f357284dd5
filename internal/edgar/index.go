// Package edgar implements parsing and fetching of SEC EDGAR wire formats:
// full-index master files, the filings Atom feed, filing index pages, and
// Form 4 ownership documents.
//
// No API key required. Must include a User-Agent header per SEC policy.
// Docs: https://www.sec.gov/edgar/sec-api-documentation
// Rate limit: 10 requests/second per user-agent.
package edgar

import (
	"strings"
	"time"

	"github.com/seenimoa/insiderwatch/pkg/models"
)

// masterIndexHeader is the literal header row of an EDGAR full-index
// master.idx file. Parsing starts at the first line matching it.
const masterIndexHeader = "CIK|Company Name|Form Type|Date Filed|Filename"

// ParseMasterIndex parses the pipe-delimited text of a full-index master file
// into filing records, in file order.
//
// A missing header means no data for the period, not an error: the result is
// empty. Lines that do not split into exactly 5 fields are dropped.
func ParseMasterIndex(text string) []models.FilingIndexRecord {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == masterIndexHeader {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var records []models.FilingIndexRecord
	for _, line := range lines[start:] {
		fields := strings.Split(line, "|")
		if len(fields) != 5 {
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		dateFiled, _ := time.Parse("2006-01-02", fields[3])
		records = append(records, models.FilingIndexRecord{
			CIK:         fields[0],
			CompanyName: fields[1],
			FormType:    fields[2],
			DateFiled:   dateFiled,
			Filename:    fields[4],
		})
	}
	return records
}
