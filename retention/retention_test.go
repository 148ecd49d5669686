package retention

import (
	"fmt"
	"testing"
	"time"

	"github.com/viant/snapvault/index"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func entryAt(id string, age time.Duration, size int64) *index.Entry {
	return &index.Entry{ID: id, CreatedAt: now.Add(-age).UnixMilli(), Size: size}
}

func TestClassify(t *testing.T) {
	p := Default()
	cases := []struct {
		age  time.Duration
		want Category
	}{
		{5 * time.Minute, Recent},
		{time.Hour, Recent},
		{2 * time.Hour, Hourly},
		{3 * 24 * time.Hour, Daily},
		{20 * 24 * time.Hour, Weekly},
		{90 * 24 * time.Hour, Archive},
	}
	for _, tc := range cases {
		if got := p.Classify(tc.age).Category; got != tc.want {
			t.Fatalf("age %v: got %v, want %v", tc.age, got, tc.want)
		}
	}
}

func TestCategoryAtLatestWindow(t *testing.T) {
	p := Default()
	old := now.Add(-400 * 24 * time.Hour).UnixMilli()
	for pos := 0; pos < p.KeepLatest; pos++ {
		if got := p.CategoryAt(pos, old, now); got != Latest {
			t.Fatalf("position %d should be latest regardless of age, got %v", pos, got)
		}
	}
	if got := p.CategoryAt(p.KeepLatest, old, now); got != Archive {
		t.Fatalf("position %d of ancient entry should be archive, got %v", p.KeepLatest, got)
	}
}

func TestCategoryCoarsensWithClockOnly(t *testing.T) {
	p := Default()
	createdAt := now.UnixMilli()
	steps := []struct {
		later time.Duration
		want  Category
	}{
		{30 * time.Minute, Recent},
		{5 * time.Hour, Hourly},
		{3 * 24 * time.Hour, Daily},
		{20 * 24 * time.Hour, Weekly},
		{60 * 24 * time.Hour, Archive},
	}
	for _, step := range steps {
		if got := p.CategoryAt(5, createdAt, now.Add(step.later)); got != step.want {
			t.Fatalf("after %v: got %v, want %v", step.later, got, step.want)
		}
	}
}

func TestApplyKeepsLatestWindow(t *testing.T) {
	p := Default()
	rec := &index.Record{}
	// Three entries created seconds apart would collapse into one 10-minute
	// bucket if the keep-latest window did not protect them.
	for i := 0; i < 3; i++ {
		rec.Insert(entryAt(fmt.Sprintf("id-%d", i), time.Duration(i)*time.Second, 10))
	}
	if pruned := p.Apply(rec, now); len(pruned) != 0 {
		t.Fatalf("latest window must survive bucket collisions, pruned %d", len(pruned))
	}
}

func TestApplyCollapsesBuckets(t *testing.T) {
	p := Default()
	rec := &index.Record{}
	// 12 entries five minutes apart, all within the last hour: outside the
	// keep-latest window they fall into 10-minute buckets.
	for i := 0; i < 12; i++ {
		rec.Insert(entryAt(fmt.Sprintf("id-%02d", i), time.Duration(i*5)*time.Minute, 10))
	}
	pruned := p.Apply(rec, now)
	if len(pruned) == 0 {
		t.Fatalf("expected bucket collapse to prune entries")
	}
	// At most one survivor per (category, bucket) key outside the window.
	seen := map[string]bool{}
	for pos, entry := range rec.Entries {
		if pos < p.KeepLatest {
			continue
		}
		rule := p.Classify(now.Sub(time.UnixMilli(entry.CreatedAt)))
		key := fmt.Sprintf("%s/%d", rule.Category, entry.CreatedAt/rule.BucketSize.Milliseconds())
		if seen[key] {
			t.Fatalf("two survivors share bucket %s", key)
		}
		seen[key] = true
	}
	if rec.TotalSize != int64(len(rec.Entries))*10 {
		t.Fatalf("record total %d does not match %d survivors", rec.TotalSize, len(rec.Entries))
	}
}

func TestApplyKeepsNewestPerBucket(t *testing.T) {
	p := Default()
	p.KeepLatest = 0
	rec := &index.Record{}
	rec.Insert(entryAt("newer", 2*time.Minute, 10))
	rec.Insert(entryAt("older", 4*time.Minute, 10))
	pruned := p.Apply(rec, now)
	if len(pruned) != 1 || pruned[0].ID != "older" {
		t.Fatalf("expected the older same-bucket sibling pruned, got %+v", pruned)
	}
	if rec.Find("newer") == nil {
		t.Fatalf("newest entry of the bucket must survive")
	}
}

func TestApplySparesInitialInGrace(t *testing.T) {
	p := Default()
	p.KeepLatest = 0
	rec := &index.Record{}
	rec.Insert(entryAt("plain", 2*time.Minute, 10))
	initial := entryAt("first", 4*time.Minute, 10)
	initial.IsInitial = true
	rec.Insert(initial)
	if pruned := p.Apply(rec, now); len(pruned) != 0 {
		t.Fatalf("initial entry inside grace must not be pruned, got %+v", pruned)
	}
	// Past the grace period the same collision prunes it.
	aged := now.Add(8 * 24 * time.Hour)
	rec2 := &index.Record{}
	rec2.Insert(&index.Entry{ID: "plain", CreatedAt: now.Add(-2 * time.Minute).UnixMilli(), Size: 10})
	rec2.Insert(&index.Entry{ID: "first", CreatedAt: now.Add(-4 * time.Minute).UnixMilli(), Size: 10, IsInitial: true})
	pruned := p.Apply(rec2, aged)
	if len(pruned) != 1 || pruned[0].ID != "first" {
		t.Fatalf("initial entry past grace should collapse normally, got %+v", pruned)
	}
}
