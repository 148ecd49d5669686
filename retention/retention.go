// Package retention decides which snapshots of a document survive as they
// age: recent history stays dense, old history collapses into coarse time
// buckets.
package retention

import (
	"time"

	"github.com/viant/snapvault/index"
)

// Category names a retention tier, from densest to coarsest.
type Category string

const (
	Latest  Category = "latest"
	Recent  Category = "recent"
	Hourly  Category = "hourly"
	Daily   Category = "daily"
	Weekly  Category = "weekly"
	Archive Category = "archive"
)

// Rule assigns entries no older than MaxAge to a category; entries sharing a
// BucketSize-wide time slot collapse to one. A zero MaxAge marks the
// unbounded catch-all.
type Rule struct {
	Category   Category
	MaxAge     time.Duration
	BucketSize time.Duration
}

// Policy is an ordered rule list, shortest MaxAge first with the archive
// catch-all last, plus the keep-latest window and the initial-entry grace.
type Policy struct {
	Rules        []Rule
	KeepLatest   int
	InitialGrace time.Duration
}

// Default returns the stock policy: 3 always-kept latest entries, dense
// 10-minute buckets for the first hour, hourly for a day, daily for a week,
// weekly for a month, monthly archive beyond.
func Default() Policy {
	return Policy{
		Rules: []Rule{
			{Category: Recent, MaxAge: time.Hour, BucketSize: 10 * time.Minute},
			{Category: Hourly, MaxAge: 24 * time.Hour, BucketSize: time.Hour},
			{Category: Daily, MaxAge: 7 * 24 * time.Hour, BucketSize: 24 * time.Hour},
			{Category: Weekly, MaxAge: 30 * 24 * time.Hour, BucketSize: 7 * 24 * time.Hour},
			{Category: Archive, BucketSize: 30 * 24 * time.Hour},
		},
		KeepLatest:   3,
		InitialGrace: 7 * 24 * time.Hour,
	}
}

// Classify returns the first rule whose MaxAge covers age, or the catch-all.
func (p Policy) Classify(age time.Duration) Rule {
	for _, rule := range p.Rules {
		if rule.MaxAge > 0 && age <= rule.MaxAge {
			return rule
		}
	}
	if n := len(p.Rules); n > 0 {
		return p.Rules[n-1]
	}
	return Rule{Category: Archive, BucketSize: 30 * 24 * time.Hour}
}

// CategoryAt reports the live category of the entry at position pos within
// its record. The newest KeepLatest entries are always Latest regardless of
// age; categories are never persisted, so the same entry coarsens over time.
func (p Policy) CategoryAt(pos int, createdAt int64, now time.Time) Category {
	if pos < p.KeepLatest {
		return Latest
	}
	return p.Classify(now.Sub(time.UnixMilli(createdAt))).Category
}

// Protected reports whether an initial entry is still inside its grace
// period, exempting it from pruning even on bucket collisions.
func (p Policy) Protected(entry *index.Entry, now time.Time) bool {
	if !entry.IsInitial || p.InitialGrace <= 0 {
		return false
	}
	return now.Sub(time.UnixMilli(entry.CreatedAt)) <= p.InitialGrace
}

type bucketKey struct {
	category Category
	slot     int64
}

// Apply collapses same-bucket siblings outside the keep-latest window,
// keeping the first entry encountered walking newest to oldest per
// (category, bucket) key. It adjusts the record total and returns the pruned
// entries; the caller removes their blobs and fixes the global total.
func (p Policy) Apply(rec *index.Record, now time.Time) []*index.Entry {
	keep := p.KeepLatest
	if keep > len(rec.Entries) {
		keep = len(rec.Entries)
	}
	kept := append([]*index.Entry(nil), rec.Entries[:keep]...)
	var pruned []*index.Entry
	seen := map[bucketKey]bool{}
	for _, entry := range rec.Entries[keep:] {
		if p.Protected(entry, now) {
			kept = append(kept, entry)
			continue
		}
		rule := p.Classify(now.Sub(time.UnixMilli(entry.CreatedAt)))
		slot := int64(0)
		if ms := rule.BucketSize.Milliseconds(); ms > 0 {
			slot = entry.CreatedAt / ms
		}
		key := bucketKey{category: rule.Category, slot: slot}
		if seen[key] {
			pruned = append(pruned, entry)
			continue
		}
		seen[key] = true
		kept = append(kept, entry)
	}
	if len(pruned) == 0 {
		return nil
	}
	rec.Entries = kept
	for _, entry := range pruned {
		rec.TotalSize -= entry.Size
	}
	return pruned
}
