package vault

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapvault.yaml")
	data := `root: /var/lib/snapvault
enabled: false
maxSizeMB: 64
exclude:
  - "*.tmp"
maxDocumentSize: 1048576
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Root != "/var/lib/snapvault" {
		t.Fatalf("unexpected root: %v", cfg.Root)
	}
	settings := cfg.Settings()
	if settings.Enabled {
		t.Fatal("expected disabled")
	}
	if settings.MaxSizeMB != 64 {
		t.Fatalf("unexpected maxSizeMB: %v", settings.MaxSizeMB)
	}
	filter := cfg.Filter()
	if filter == nil {
		t.Fatal("expected filter")
	}
	if !filter.IsExcluded("notes.tmp", 10) {
		t.Fatal("expected *.tmp excluded")
	}
	if filter.IsExcluded("notes.md", 10) {
		t.Fatal("expected notes.md eligible")
	}
	if !filter.IsExcluded("big.md", 2<<20) {
		t.Fatal("expected oversized document excluded")
	}
}

func TestConfigDefaultsEnabled(t *testing.T) {
	cfg := &Config{}
	if !cfg.Settings().Enabled {
		t.Fatal("expected enabled by default")
	}
	if cfg.Filter() != nil {
		t.Fatal("expected no filter without patterns")
	}
}
