package blob

import (
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	name := Name("/notes/todo.md", "20250101-120000-000")
	if !strings.HasSuffix(name, "-20250101-120000-000.bak") {
		t.Fatalf("unexpected suffix: %q", name)
	}
	parts := strings.SplitN(name, "-", 2)
	if len(parts[0]) != 12 {
		t.Fatalf("path hash should be 12 hex chars, got %q", parts[0])
	}
	for _, r := range parts[0] {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("path hash contains non-hex rune %q in %q", r, parts[0])
		}
	}
}

func TestNameDistinguishesPaths(t *testing.T) {
	a := Name("/a/doc.md", "20250101-120000-000")
	b := Name("/b/doc.md", "20250101-120000-000")
	if a == b {
		t.Fatalf("different paths mapped to the same blob name %q", a)
	}
}

func TestPathHashDeterministic(t *testing.T) {
	if PathHash("/notes/todo.md") != PathHash("/notes/todo.md") {
		t.Fatalf("path hash is not deterministic")
	}
}

func TestSlugSanitizes(t *testing.T) {
	got := Slug("/Мои заметки/план (v2).md")
	for _, r := range got {
		ok := r == '-' || r == '_' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			t.Fatalf("slug contains illegal rune %q in %q", r, got)
		}
	}
}

func TestSlugKeepsTail(t *testing.T) {
	long := strings.Repeat("dir/", 30) + "important.md"
	got := Slug(long)
	if len(got) > 60 {
		t.Fatalf("slug exceeds cap: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "important.md") {
		t.Fatalf("truncation should keep the tail, got %q", got)
	}
}

func TestLegacyURL(t *testing.T) {
	got := LegacyURL("file:///root/.backups", "/notes/todo.md", "20250101-120000-000")
	want := "file:///root/.backups/notes/todo.md/20250101-120000-000.bak"
	if got != want {
		t.Fatalf("legacy URL mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestLegacyDirURL(t *testing.T) {
	got := LegacyDirURL("file:///root/.backups", "/notes/todo.md")
	want := "file:///root/.backups/notes/todo.md"
	if got != want {
		t.Fatalf("legacy dir mismatch:\n got %q\nwant %q", got, want)
	}
}
