// Package vault is the backup orchestrator: it composes hashing, blob
// naming, retention, capacity enforcement and reconciliation into the public
// create/list/restore/read operations, owns the persisted index lifecycle
// and serializes every mutation through one task queue.
package vault

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/snapvault/hash"
	"github.com/viant/snapvault/index"
	"github.com/viant/snapvault/match"
	"github.com/viant/snapvault/preview"
	"github.com/viant/snapvault/reconcile"
	"github.com/viant/snapvault/retention"
)

const indexFileName = "index.json"

// Settings exposes the host application's backup preferences. They are
// re-read before every mutating operation so a settings change takes effect
// without restart.
type Settings struct {
	Enabled   bool
	MaxSizeMB float64
}

// SettingsProvider supplies live settings.
type SettingsProvider interface {
	Settings() Settings
}

type staticSettings Settings

func (s staticSettings) Settings() Settings { return Settings(s) }

// StaticSettings wraps fixed settings into a provider.
func StaticSettings(s Settings) SettingsProvider { return staticSettings(s) }

// Service keeps automatic, deduplicated, space-bounded version history for
// documents under one storage root.
type Service struct {
	fs       afs.Service
	baseURL  string
	indexURL string
	settings SettingsProvider
	policy   retention.Policy
	hasher   hash.Backend
	preview  preview.Provider
	filter   *match.Filter
	now      func() time.Time
	queue    *queue
	lock     *rootLock

	// owned by the queue worker once initialized
	index *index.Index

	initMux  sync.Mutex
	initDone bool
	initErr  error
	initWait chan struct{}
}

// Option configures the Service.
type Option func(*Service)

// WithFS sets a custom storage service.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithSettings sets the settings provider.
func WithSettings(provider SettingsProvider) Option {
	return func(s *Service) { s.settings = provider }
}

// WithPolicy sets the retention policy.
func WithPolicy(policy retention.Policy) Option {
	return func(s *Service) { s.policy = policy }
}

// WithHasher sets the content hash backend.
func WithHasher(backend hash.Backend) Option {
	return func(s *Service) { s.hasher = backend }
}

// WithPreview sets the optional change-summary collaborator.
func WithPreview(provider preview.Provider) Option {
	return func(s *Service) { s.preview = provider }
}

// WithFilter sets the backup eligibility filter.
func WithFilter(filter *match.Filter) Option {
	return func(s *Service) { s.filter = filter }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a service for the given storage root (an OS path or URL).
func New(baseURL string, opts ...Option) (*Service, error) {
	norm, err := normalizeURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root %v: %w", baseURL, err)
	}
	s := &Service{
		fs:       afs.New(),
		baseURL:  norm,
		indexURL: url.Join(norm, indexFileName),
		settings: StaticSettings(Settings{Enabled: true}),
		policy:   retention.Default(),
		hasher:   hash.Default(),
		preview:  preview.LineDiff{},
		now:      time.Now,
		queue:    newQueue(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize ensures the storage root exists, loads the persisted index
// (resetting to empty on missing, corrupt or version-mismatched data), heals
// it against disk, runs one capacity pass and persists the result.
// Concurrent calls share one in-flight attempt; a failed attempt clears the
// shared state so a later call retries.
func (s *Service) Initialize(ctx context.Context) error {
	s.initMux.Lock()
	if s.initDone {
		s.initMux.Unlock()
		return nil
	}
	if s.initWait != nil {
		wait := s.initWait
		s.initMux.Unlock()
		<-wait
		s.initMux.Lock()
		err := s.initErr
		s.initMux.Unlock()
		return err
	}
	wait := make(chan struct{})
	s.initWait = wait
	s.initMux.Unlock()

	err := s.queue.Do(ctx, s.initialize)

	s.initMux.Lock()
	s.initErr = err
	s.initDone = err == nil
	s.initWait = nil
	s.initMux.Unlock()
	close(wait)
	return err
}

func (s *Service) initialize(ctx context.Context) error {
	if ok, _ := s.fs.Exists(ctx, s.baseURL); !ok {
		if err := s.fs.Create(ctx, s.baseURL, file.DefaultDirOsMode, true); err != nil {
			return fmt.Errorf("failed to create storage root %v: %w", s.baseURL, err)
		}
	}
	if url.Scheme(s.baseURL, "file") == "file" && s.lock == nil {
		lock, err := acquireRootLock(url.Path(s.baseURL))
		if err != nil {
			return err
		}
		s.lock = lock
	}
	idx := index.New()
	if ok, _ := s.fs.Exists(ctx, s.indexURL); ok {
		data, err := s.fs.DownloadWithURL(ctx, s.indexURL)
		if err != nil {
			log.Printf("snapvault: index unreadable, resetting: %v", err)
		} else if loaded, err := index.Decode(data); err != nil {
			log.Printf("snapvault: index invalid, resetting: %v", err)
		} else {
			idx = loaded
		}
	}
	s.index = idx
	if _, err := reconcile.New(s.fs, s.baseURL).Run(ctx, idx); err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}
	s.enforceCapacity(ctx)
	return s.persist(ctx)
}

// persist writes the whole index in one shot. A crash mid-write corrupts the
// file; the corrupt-index-reset path on the next load handles that.
func (s *Service) persist(ctx context.Context) error {
	data, err := s.index.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := s.fs.Upload(ctx, s.indexURL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}
	return nil
}

// Close stops the task queue and releases the storage root lock.
func (s *Service) Close() error {
	s.queue.Close()
	s.lock.release()
	return nil
}

// Stats summarizes the stored history under the root.
type Stats struct {
	Documents int
	Entries   int
	TotalSize int64
}

// Stat reports per-root totals, derived read-only from the index.
func (s *Service) Stat(ctx context.Context) (Stats, error) {
	if err := s.Initialize(ctx); err != nil {
		return Stats{}, err
	}
	var stats Stats
	err := s.queue.Do(ctx, func(ctx context.Context) error {
		stats.Documents = len(s.index.Files)
		stats.TotalSize = s.index.TotalSize
		for _, rec := range s.index.Files {
			stats.Entries += len(rec.Entries)
		}
		return nil
	})
	return stats, err
}

// normalizeURL turns a relative or absolute OS path into a URL; URLs pass
// through unchanged.
func normalizeURL(location string) (string, error) {
	norm := location
	if url.Scheme(norm, "") == "" && url.IsRelative(norm) {
		abs, err := filepath.Abs(norm)
		if err != nil {
			return "", err
		}
		norm = abs
	}
	if url.Scheme(norm, "") == "" {
		norm = url.ToFileURL(norm)
	}
	return norm, nil
}
