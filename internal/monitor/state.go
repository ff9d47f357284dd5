// Package monitor implements the incremental ingestion, deduplication, and
// alerting pipeline over SEC Form 4 filings: a one-time historical backfill,
// a recurring live poll of the EDGAR Atom feed, and a notification rule
// evaluated over newly ingested filings. The process is a short-lived batch
// job; everything that must survive a restart lives in State.
package monitor

import (
	"fmt"
	"time"
)

// liveSeenCap bounds the number of feed entry ids remembered across runs.
// The feed itself carries far fewer entries per fetch.
const liveSeenCap = 500

// SeenPolicy names the moment a live feed entry id is marked as seen.
type SeenPolicy string

const (
	// SeenBeforeFetch marks every id in the current feed as seen before any
	// filing is fetched. A persistently failing filing is never retried:
	// availability over completeness.
	SeenBeforeFetch SeenPolicy = "mark-seen-before-fetch"

	// SeenAfterSuccess marks an id as seen only once its filing has been
	// fetched, parsed, and logged. Failed entries stay eligible for retry.
	SeenAfterSuccess SeenPolicy = "mark-seen-after-success"
)

// ParseSeenPolicy validates a configured policy string.
func ParseSeenPolicy(s string) (SeenPolicy, error) {
	switch SeenPolicy(s) {
	case SeenBeforeFetch, SeenAfterSuccess:
		return SeenPolicy(s), nil
	}
	return "", fmt.Errorf("unknown seen policy %q (want %q or %q)", s, SeenBeforeFetch, SeenAfterSuccess)
}

// State is the only entity that survives across invocations.
//
// HistorySeenFilenames and SeenLiveIDs are disjoint dedup namespaces: index
// filenames and feed entry ids identify different things and are never mixed.
type State struct {
	SeenLiveIDs          []string   `json:"seen_live_ids"`          // newest-first, ≤ liveSeenCap
	HistorySeenFilenames []string   `json:"history_seen_filenames"` // ≤ configured cap
	BootstrapDone        bool       `json:"bootstrap_done"`         // monotonic false→true
	BootstrapCompletedAt *time.Time `json:"bootstrap_completed_at,omitempty"`
	BootstrapError       string     `json:"bootstrap_error,omitempty"`
}

// BoundedSet is an insertion-ordered bounded membership structure. When the
// cap is reached, admitting a new key evicts the oldest-admitted key, so
// retention is deterministic.
type BoundedSet struct {
	cap     int
	order   []string
	members map[string]struct{}
}

// NewBoundedSet creates an empty bounded set.
func NewBoundedSet(cap int) *BoundedSet {
	return &BoundedSet{
		cap:     cap,
		members: make(map[string]struct{}),
	}
}

// NewBoundedSetFrom rehydrates a bounded set from a persisted key list,
// preserving list order as insertion order. Keys beyond the cap are dropped
// from the tail.
func NewBoundedSetFrom(cap int, keys []string) *BoundedSet {
	s := NewBoundedSet(cap)
	for _, k := range keys {
		if len(s.order) >= cap {
			break
		}
		s.Admit(k)
	}
	return s
}

// IsNew reports whether the key is not a member.
func (s *BoundedSet) IsNew(key string) bool {
	_, ok := s.members[key]
	return !ok
}

// Admit inserts the key, evicting the oldest member if the set is full.
// Admitting an existing key is a no-op.
func (s *BoundedSet) Admit(key string) {
	if _, ok := s.members[key]; ok {
		return
	}
	if s.cap > 0 && len(s.order) >= s.cap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.members, oldest)
	}
	s.order = append(s.order, key)
	s.members[key] = struct{}{}
}

// Full reports whether the set has reached its cap.
func (s *BoundedSet) Full() bool {
	return s.cap > 0 && len(s.order) >= s.cap
}

// Len returns the number of members.
func (s *BoundedSet) Len() int { return len(s.order) }

// Snapshot returns the members in insertion order, for persistence.
func (s *BoundedSet) Snapshot() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
