// Package index holds the persisted backup state: one Entry per stored
// snapshot, one Record per document path, one Index per storage root.
package index

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Version tags the persisted schema. A mismatch invalidates the whole index;
// there is no upgrade path.
const Version = 1

// Entry is one stored snapshot of a document.
type Entry struct {
	ID            string `json:"id"`
	CreatedAt     int64  `json:"createdAt"` // epoch milliseconds
	Size          int64  `json:"size"`
	Hash          string `json:"hash"`
	IsInitial     bool   `json:"isInitial,omitempty"`
	PrimaryValue  string `json:"primaryFieldValue,omitempty"`
	ChangePreview string `json:"changePreview,omitempty"`
}

// Record holds all entries for one document path. Entries are kept in
// descending CreatedAt order with unique ids; TotalSize is the sum of entry
// sizes.
type Record struct {
	Entries   []*Entry `json:"entries"`
	TotalSize int64    `json:"totalSize"`
}

// Index is the whole persisted state for one storage root.
type Index struct {
	Version   int                `json:"version"`
	TotalSize int64              `json:"totalSize"`
	Files     map[string]*Record `json:"files"`
}

// New returns an empty index at the current schema version.
func New() *Index {
	return &Index{Version: Version, Files: map[string]*Record{}}
}

// Decode parses persisted index data. Corrupt data or a schema version
// mismatch is an error; the caller resets to an empty index.
func Decode(data []byte) (*Index, error) {
	idx := &Index{}
	if err := json.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}
	if idx.Version != Version {
		return nil, fmt.Errorf("unsupported index version %d, want %d", idx.Version, Version)
	}
	if idx.Files == nil {
		idx.Files = map[string]*Record{}
	}
	for _, rec := range idx.Files {
		if rec == nil {
			continue
		}
		sortEntries(rec.Entries)
	}
	return idx, nil
}

// Encode serializes the index for persistence.
func (i *Index) Encode() ([]byte, error) {
	return json.Marshal(i)
}

// Record returns the record for a document path, creating it on first use.
func (i *Index) Record(docPath string) *Record {
	rec, ok := i.Files[docPath]
	if !ok {
		rec = &Record{}
		i.Files[docPath] = rec
	}
	return rec
}

// Recompute rebuilds record and global totals from entry sizes.
func (i *Index) Recompute() {
	var total int64
	for _, rec := range i.Files {
		var recTotal int64
		for _, entry := range rec.Entries {
			recTotal += entry.Size
		}
		rec.TotalSize = recTotal
		total += recTotal
	}
	i.TotalSize = total
}

// Latest returns the most recent entry, or nil for an empty record.
func (r *Record) Latest() *Entry {
	if len(r.Entries) == 0 {
		return nil
	}
	return r.Entries[0]
}

// Find returns the entry with the given id, or nil.
func (r *Record) Find(id string) *Entry {
	for _, entry := range r.Entries {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// HasInitial reports whether the record already holds an initial entry.
func (r *Record) HasInitial() bool {
	for _, entry := range r.Entries {
		if entry.IsInitial {
			return true
		}
	}
	return false
}

// Insert adds an entry keeping descending CreatedAt order and adjusts the
// record total.
func (r *Record) Insert(entry *Entry) {
	pos := 0
	for pos < len(r.Entries) && r.Entries[pos].CreatedAt > entry.CreatedAt {
		pos++
	}
	r.Entries = append(r.Entries, nil)
	copy(r.Entries[pos+1:], r.Entries[pos:])
	r.Entries[pos] = entry
	r.TotalSize += entry.Size
}

// Remove deletes the entry with the given id, adjusts the record total and
// returns the removed entry, or nil when the id is unknown.
func (r *Record) Remove(id string) *Entry {
	for pos, entry := range r.Entries {
		if entry.ID != id {
			continue
		}
		r.Entries = append(r.Entries[:pos], r.Entries[pos+1:]...)
		r.TotalSize -= entry.Size
		return entry
	}
	return nil
}

// NewEntryID derives an id from the creation timestamp, formatted
// YYYYMMDD-HHMMSS-mmm, appending -01, -02, ... when the record already holds
// an entry created in the same millisecond.
func (r *Record) NewEntryID(createdAt time.Time) string {
	base := fmt.Sprintf("%s-%03d", createdAt.Format("20060102-150405"), createdAt.Nanosecond()/int(time.Millisecond))
	id := base
	for n := 1; r.Find(id) != nil; n++ {
		id = fmt.Sprintf("%s-%02d", base, n)
	}
	return id
}

func sortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt > entries[j].CreatedAt
	})
}
