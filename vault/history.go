package vault

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/viant/afs/file"
	"github.com/viant/snapvault/blob"
	"github.com/viant/snapvault/retention"
)

// Backup describes one stored snapshot for history browsing. Category is
// computed against "now" at call time, never persisted: the same entry's
// reported category coarsens over time without any write.
type Backup struct {
	ID           string
	CreatedAt    time.Time
	Size         int64
	Category     retention.Category
	IsInitial    bool
	Preview      string
	PrimaryValue string
}

// List returns the stored history of a document, newest first.
func (s *Service) List(ctx context.Context, docPath string) ([]Backup, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	var result []Backup
	err := s.queue.Do(ctx, func(ctx context.Context) error {
		rec := s.index.Files[docPath]
		if rec == nil {
			return nil
		}
		now := s.now()
		for pos, entry := range rec.Entries {
			result = append(result, Backup{
				ID:           entry.ID,
				CreatedAt:    time.UnixMilli(entry.CreatedAt),
				Size:         entry.Size,
				Category:     s.policy.CategoryAt(pos, entry.CreatedAt, now),
				IsInitial:    entry.IsInitial,
				Preview:      entry.ChangePreview,
				PrimaryValue: entry.PrimaryValue,
			})
		}
		return nil
	})
	return result, err
}

// ReadContent returns the stored content of one entry.
func (s *Service) ReadContent(ctx context.Context, docPath, entryID string) ([]byte, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	var content []byte
	err := s.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		content, err = s.readEntry(ctx, docPath, entryID)
		return err
	})
	return content, err
}

func (s *Service) readEntry(ctx context.Context, docPath, entryID string) ([]byte, error) {
	rec := s.index.Files[docPath]
	if rec == nil || rec.Find(entryID) == nil {
		return nil, fmt.Errorf("unknown backup %v for %v", entryID, docPath)
	}
	blobURL := blob.URL(s.baseURL, docPath, entryID)
	content, err := s.fs.DownloadWithURL(ctx, blobURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup %v: %w", blobURL, err)
	}
	return content, nil
}

// Restore overwrites the live document with a stored snapshot. It first
// takes a best-effort safety snapshot of the current live content; a failure
// there is logged only — self-protection never blocks recovery. An
// unreadable or unknown entry fails the call.
func (s *Service) Restore(ctx context.Context, docPath, entryID string) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	return s.queue.Do(ctx, func(ctx context.Context) error {
		content, err := s.readEntry(ctx, docPath, entryID)
		if err != nil {
			return err
		}
		docURL, err := normalizeURL(docPath)
		if err != nil {
			return err
		}
		if live, err := s.fs.DownloadWithURL(ctx, docURL); err != nil {
			log.Printf("snapvault: pre-restore snapshot of %v skipped: %v", docPath, err)
		} else if _, err := s.createBackup(ctx, docPath, live, false); err != nil {
			log.Printf("snapvault: pre-restore snapshot of %v failed: %v", docPath, err)
		}
		if err := s.fs.Upload(ctx, docURL, file.DefaultFileOsMode, bytes.NewReader(content)); err != nil {
			return fmt.Errorf("failed to restore %v from %v: %w", docPath, entryID, err)
		}
		return nil
	})
}
