package vault

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/viant/afs/file"
	"github.com/viant/snapvault/blob"
	"github.com/viant/snapvault/capacity"
	"github.com/viant/snapvault/hash"
	"github.com/viant/snapvault/index"
)

// Status reports the outcome of an ensure operation.
type Status string

const (
	// StatusCreated means a new entry was stored.
	StatusCreated Status = "created"
	// StatusSkipped means no entry was needed: backups disabled, the path
	// excluded, content unchanged, or an initial entry already present.
	StatusSkipped Status = "skipped"
)

// EnsureBackup stores a snapshot of content for a document path unless
// backups are disabled, the path is excluded, or the content matches the
// most recent entry (dedup).
func (s *Service) EnsureBackup(ctx context.Context, docPath string, content []byte) (Status, error) {
	return s.ensure(ctx, docPath, content, false)
}

// EnsureInitialBackup stores a protected first snapshot. At most one initial
// entry exists per document, ever: further calls are no-ops.
func (s *Service) EnsureInitialBackup(ctx context.Context, docPath string, content []byte) (Status, error) {
	return s.ensure(ctx, docPath, content, true)
}

func (s *Service) ensure(ctx context.Context, docPath string, content []byte, initial bool) (Status, error) {
	if !s.settings.Settings().Enabled {
		return StatusSkipped, nil
	}
	if s.filter.IsExcluded(docPath, len(content)) {
		return StatusSkipped, nil
	}
	if err := s.Initialize(ctx); err != nil {
		return "", err
	}
	status := StatusSkipped
	err := s.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		status, err = s.createBackup(ctx, docPath, content, initial)
		return err
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

func (s *Service) createBackup(ctx context.Context, docPath string, content []byte, initial bool) (Status, error) {
	rec := s.index.Files[docPath]
	if rec == nil {
		rec = &index.Record{}
	}
	if initial && rec.HasInitial() {
		return StatusSkipped, nil
	}
	digest := hash.Sum(s.hasher, content)
	previous := rec.Latest()
	if previous != nil && previous.Hash == digest {
		return StatusSkipped, nil
	}
	now := s.now()
	entry := &index.Entry{
		ID:        rec.NewEntryID(now),
		CreatedAt: now.UnixMilli(),
		Size:      int64(len(content)),
		Hash:      digest,
		IsInitial: initial,
	}
	s.attachPreview(ctx, docPath, previous, content, entry)
	blobURL := blob.URL(s.baseURL, docPath, entry.ID)
	if err := s.fs.Upload(ctx, blobURL, file.DefaultFileOsMode, bytes.NewReader(content)); err != nil {
		return "", fmt.Errorf("failed to store blob %v: %w", blobURL, err)
	}
	rec.Insert(entry)
	s.index.Files[docPath] = rec
	s.index.TotalSize += entry.Size

	s.applyRetention(ctx, docPath, rec)
	s.enforceCapacity(ctx)
	if err := s.persist(ctx); err != nil {
		return "", err
	}
	return StatusCreated, nil
}

// attachPreview asks the collaborator for a one-line change summary. Best
// effort and cosmetic: a failure to read the previous blob yields an empty
// previous text, never an error.
func (s *Service) attachPreview(ctx context.Context, docPath string, previous *index.Entry, content []byte, entry *index.Entry) {
	if s.preview == nil {
		return
	}
	previousText := ""
	if previous != nil {
		if data, err := s.fs.DownloadWithURL(ctx, blob.URL(s.baseURL, docPath, previous.ID)); err == nil {
			previousText = string(data)
		}
	}
	entry.ChangePreview, entry.PrimaryValue = s.preview.Summarize(previousText, string(content))
}

// applyRetention collapses aged same-bucket entries and removes their blobs.
func (s *Service) applyRetention(ctx context.Context, docPath string, rec *index.Record) {
	pruned := s.policy.Apply(rec, s.now())
	for _, entry := range pruned {
		s.index.TotalSize -= entry.Size
		s.removeBlob(ctx, docPath, entry.ID)
	}
}

// enforceCapacity runs one eviction pass against the configured ceiling and
// removes the evicted blobs. The index is persisted once by the caller, not
// per deletion.
func (s *Service) enforceCapacity(ctx context.Context) {
	limit := capacity.Limit(s.settings.Settings().MaxSizeMB)
	evicted := capacity.Enforce(s.index, s.policy, limit, s.now())
	for _, eviction := range evicted {
		s.removeBlob(ctx, eviction.Path, eviction.Entry.ID)
	}
	if len(evicted) > 0 {
		log.Printf("snapvault: capacity pass evicted %d entries, total=%d", len(evicted), s.index.TotalSize)
	}
}

// removeBlob deletes a blob, tolerating blobs already gone.
func (s *Service) removeBlob(ctx context.Context, docPath, entryID string) {
	blobURL := blob.URL(s.baseURL, docPath, entryID)
	if err := s.fs.Delete(ctx, blobURL); err != nil {
		log.Printf("snapvault: failed to delete blob %v: %v", blobURL, err)
	}
}

// EnforceCapacity re-runs the capacity pass on demand, e.g. after the host
// lowered the size ceiling.
func (s *Service) EnforceCapacity(ctx context.Context) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.queue.Do(ctx, func(ctx context.Context) error {
		s.enforceCapacity(ctx)
		return s.persist(ctx)
	})
}
