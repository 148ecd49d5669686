package hash

import (
	"strings"
	"testing"
)

func TestSumDeterministic(t *testing.T) {
	for _, backend := range []Backend{Blake3{}, Rolling{}} {
		a := Sum(backend, []byte("hello world"))
		b := Sum(backend, []byte("hello world"))
		if a != b {
			t.Fatalf("%s: identical input produced different hashes: %q vs %q", backend.Name(), a, b)
		}
		c := Sum(backend, []byte("hello world!"))
		if a == c {
			t.Fatalf("%s: different input produced identical hash %q", backend.Name(), a)
		}
	}
}

func TestSumFixedWidth(t *testing.T) {
	cases := map[string]struct {
		backend Backend
		width   int
	}{
		"blake3":  {Blake3{}, 32},
		"rolling": {Rolling{}, 16},
	}
	for name, tc := range cases {
		for _, input := range []string{"", "x", strings.Repeat("payload", 1000)} {
			got := Sum(tc.backend, []byte(input))
			if len(got) != tc.width {
				t.Fatalf("%s: hash width %d, want %d (input %d bytes)", name, len(got), tc.width, len(input))
			}
		}
	}
}

func TestRollingEmptyVsNil(t *testing.T) {
	if Sum(Rolling{}, nil) != Sum(Rolling{}, []byte{}) {
		t.Fatalf("nil and empty input should hash identically")
	}
}
