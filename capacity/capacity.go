// Package capacity keeps the total stored bytes of an index under a
// configured ceiling by evicting entries coarsest-category-first.
package capacity

import (
	"sort"
	"time"

	"github.com/viant/snapvault/index"
	"github.com/viant/snapvault/retention"
)

const (
	minLimitBytes = 1 << 20   // 1 MiB
	maxLimitBytes = 100 << 30 // 100 GiB
	mib           = float64(1 << 20)
)

// Limit converts configured megabytes into a byte ceiling clamped to a sane
// range. A non-positive value disables the limit.
func Limit(maxSizeMB float64) int64 {
	if maxSizeMB <= 0 {
		return 0
	}
	limit := int64(maxSizeMB * mib)
	if limit < minLimitBytes {
		return minLimitBytes
	}
	if limit > maxLimitBytes {
		return maxLimitBytes
	}
	return limit
}

// Eviction identifies one entry removed to reclaim space.
type Eviction struct {
	Path  string
	Entry *index.Entry
}

var categoryRank = map[retention.Category]int{
	retention.Archive: 5,
	retention.Weekly:  4,
	retention.Daily:   3,
	retention.Hourly:  2,
	retention.Recent:  1,
	retention.Latest:  0,
}

// Enforce evicts entries until the index fits under limit, mutating records
// and totals as it goes. Pass one never empties a record and skips
// grace-protected initial entries. If still over the ceiling, pass two may take
// protected entries, but a record always keeps at least one entry: a
// document never loses its entire history. Returns the evicted entries so
// the caller can delete their blobs; a zero limit means unlimited.
func Enforce(idx *index.Index, policy retention.Policy, limit int64, now time.Time) []Eviction {
	if limit <= 0 || idx.TotalSize <= limit {
		return nil
	}
	evictions := pass(idx, policy, limit, now, false)
	if idx.TotalSize > limit {
		evictions = append(evictions, pass(idx, policy, limit, now, true)...)
	}
	return evictions
}

func pass(idx *index.Index, policy retention.Policy, limit int64, now time.Time, takeProtected bool) []Eviction {
	type candidate struct {
		path  string
		entry *index.Entry
		rank  int
	}
	var candidates []candidate
	for path, rec := range idx.Files {
		for pos, entry := range rec.Entries {
			category := policy.CategoryAt(pos, entry.CreatedAt, now)
			candidates = append(candidates, candidate{path: path, entry: entry, rank: categoryRank[category]})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank > candidates[j].rank
		}
		if candidates[i].entry.CreatedAt != candidates[j].entry.CreatedAt {
			return candidates[i].entry.CreatedAt < candidates[j].entry.CreatedAt
		}
		return candidates[i].path < candidates[j].path
	})

	var evictions []Eviction
	for _, c := range candidates {
		if idx.TotalSize <= limit {
			break
		}
		rec := idx.Files[c.path]
		if rec == nil || len(rec.Entries) <= 1 {
			continue
		}
		if !takeProtected && policy.Protected(c.entry, now) {
			continue
		}
		if rec.Remove(c.entry.ID) == nil {
			continue
		}
		idx.TotalSize -= c.entry.Size
		evictions = append(evictions, Eviction{Path: c.path, Entry: c.entry})
	}
	return evictions
}
