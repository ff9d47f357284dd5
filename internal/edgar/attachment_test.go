package edgar

import (
	"testing"
	"time"
)

func TestFindForm4Attachment(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		pageURL string
		want    string
	}{
		{
			name: "first xml link, index links skipped",
			html: `<html><body>
				<a href="/Archives/edgar/data/1/0001-index.xml">index</a>
				<a href="/Archives/edgar/data/1/wk-form4_169.xml">form4</a>
				<a href="/Archives/edgar/data/1/other.xml">other</a>
			</body></html>`,
			pageURL: "https://www.sec.gov/Archives/edgar/data/1/0001-index.htm",
			want:    "https://www.sec.gov/Archives/edgar/data/1/wk-form4_169.xml",
		},
		{
			name:    "absolute href preserved",
			html:    `<a href="https://www.sec.gov/Archives/f.xml">f</a>`,
			pageURL: "https://www.sec.gov/Archives/edgar/data/1/idx.htm",
			want:    "https://www.sec.gov/Archives/f.xml",
		},
		{
			name:    "relative href resolved against page",
			html:    `<a href="f.xml">f</a>`,
			pageURL: "https://www.sec.gov/Archives/edgar/data/1/idx.htm",
			want:    "https://www.sec.gov/Archives/edgar/data/1/f.xml",
		},
		{
			name:    "uppercase extension matches",
			html:    `<a href="FORM4.XML">f</a>`,
			pageURL: "https://www.sec.gov/Archives/edgar/data/1/idx.htm",
			want:    "https://www.sec.gov/Archives/edgar/data/1/FORM4.XML",
		},
		{
			name:    "no xml link",
			html:    `<a href="doc.html">doc</a><a href="doc.txt">txt</a>`,
			pageURL: "https://www.sec.gov/Archives/edgar/data/1/idx.htm",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindForm4Attachment(tt.html, tt.pageURL); got != tt.want {
				t.Errorf("FindForm4Attachment() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAbsolutize(t *testing.T) {
	tests := []struct {
		base string
		href string
		want string
	}{
		{"https://www.sec.gov/page.htm", "/Archives/f.xml", "https://www.sec.gov/Archives/f.xml"},
		{"https://www.sec.gov/a/b/page.htm", "f.xml", "https://www.sec.gov/a/b/f.xml"},
		{"https://www.sec.gov/page.htm", "http://example.com/f.xml", "http://example.com/f.xml"},
	}
	for _, tt := range tests {
		if got := Absolutize(tt.base, tt.href); got != tt.want {
			t.Errorf("Absolutize(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestQuartersCovering(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		days int
		want []Quarter
	}{
		{
			name: "window inside one quarter",
			now:  time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
			days: 30,
			want: []Quarter{{2026, 1}},
		},
		{
			name: "typical 120 day window spans two quarters",
			now:  time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
			days: 120,
			want: []Quarter{{2026, 3}, {2026, 2}},
		},
		{
			name: "window crossing a year boundary",
			now:  time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			days: 90,
			want: []Quarter{{2026, 1}, {2025, 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuartersCovering(tt.now, tt.days)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d quarters, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("quarter %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}
