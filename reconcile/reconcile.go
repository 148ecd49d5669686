// Package reconcile heals the persisted index against the real storage
// layout on startup: it repairs size drift, migrates blobs left under the
// legacy nested layout, and drops entries whose blob is gone.
package reconcile

import (
	"bytes"
	"context"
	"log"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/snapvault/blob"
	"github.com/viant/snapvault/index"
)

// Outcome reports where an entry's blob was found during a probe.
type Outcome int

const (
	NotFound Outcome = iota
	FoundCurrent
	FoundLegacy
)

// Reconciler verifies every indexed entry against storage.
type Reconciler struct {
	fs      afs.Service
	baseURL string
}

// New creates a reconciler for the given storage root.
func New(fs afs.Service, baseURL string) *Reconciler {
	return &Reconciler{fs: fs, baseURL: baseURL}
}

// Run heals idx in place and reports whether anything changed. Re-running
// with no filesystem changes in between reports unchanged. Missing blobs are
// a non-fatal, accepted loss.
func (r *Reconciler) Run(ctx context.Context, idx *index.Index) (bool, error) {
	changed := false
	for docPath, rec := range idx.Files {
		var survivors []*index.Entry
		migrated := false
		for _, entry := range rec.Entries {
			outcome, size := r.locate(ctx, docPath, entry)
			switch outcome {
			case NotFound:
				log.Printf("snapvault: dropping entry %s of %s: blob not found", entry.ID, docPath)
				changed = true
				continue
			case FoundLegacy:
				changed = true
				migrated = true
			case FoundCurrent:
			}
			// On-disk size is authoritative.
			if size != entry.Size {
				entry.Size = size
				changed = true
			}
			survivors = append(survivors, entry)
		}
		if migrated {
			r.pruneLegacyDirs(ctx, docPath)
		}
		if len(survivors) == 0 {
			delete(idx.Files, docPath)
			if len(rec.Entries) > 0 {
				changed = true
			}
			continue
		}
		rec.Entries = survivors
	}
	before := idx.TotalSize
	idx.Recompute()
	if idx.TotalSize != before {
		changed = true
	}
	return changed, nil
}

// locate probes the current layout first, then the legacy one; a legacy hit
// migrates the blob into the current layout. A failed migration keeps the
// entry: the next stat fails again and the entry converges to dropped on a
// later pass.
func (r *Reconciler) locate(ctx context.Context, docPath string, entry *index.Entry) (Outcome, int64) {
	currentURL := blob.URL(r.baseURL, docPath, entry.ID)
	if object, _ := r.fs.Object(ctx, currentURL); object != nil && !object.IsDir() {
		return FoundCurrent, object.Size()
	}
	legacyURL := blob.LegacyURL(r.baseURL, docPath, entry.ID)
	object, _ := r.fs.Object(ctx, legacyURL)
	if object == nil || object.IsDir() {
		return NotFound, 0
	}
	size := object.Size()
	if err := r.migrate(ctx, legacyURL, currentURL); err != nil {
		log.Printf("snapvault: migrating %s failed: %v", legacyURL, err)
	}
	return FoundLegacy, size
}

// migrate prefers a rename; on failure it copies the bytes and best-effort
// deletes the legacy file.
func (r *Reconciler) migrate(ctx context.Context, fromURL, toURL string) error {
	if err := r.fs.Move(ctx, fromURL, toURL); err == nil {
		return nil
	}
	data, err := r.fs.DownloadWithURL(ctx, fromURL)
	if err != nil {
		return err
	}
	if err := r.fs.Upload(ctx, toURL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return err
	}
	_ = r.fs.Delete(ctx, fromURL)
	return nil
}

// pruneLegacyDirs removes now-empty legacy directories, walking upward until
// a non-empty directory or the storage root.
func (r *Reconciler) pruneLegacyDirs(ctx context.Context, docPath string) {
	root := strings.TrimSuffix(r.baseURL, "/")
	dir := blob.LegacyDirURL(r.baseURL, docPath)
	for dir != root && strings.HasPrefix(dir, root+"/") {
		if ok, _ := r.fs.Exists(ctx, dir); !ok {
			return
		}
		objects, err := r.fs.List(ctx, dir)
		if err != nil {
			return
		}
		for _, object := range objects {
			if strings.TrimSuffix(object.URL(), "/") != dir {
				return
			}
		}
		if err := r.fs.Delete(ctx, dir); err != nil {
			return
		}
		cut := strings.LastIndex(dir, "/")
		if cut <= len(root) {
			return
		}
		dir = dir[:cut]
	}
}
