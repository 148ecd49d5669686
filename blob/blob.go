// Package blob maps document paths and entry ids to storage blob locations.
// The current layout flattens every entry of every document into one
// directory; the legacy layout nested a directory per path segment and is
// only consulted by reconciliation.
package blob

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/viant/afs/url"
)

// Ext is the blob file extension.
const Ext = ".bak"

const (
	maxSlugLen  = 60
	pathHashLen = 12
)

var pathHashKey = []byte("snapvault-path-hash-key-32-byte!")

// Name returns the flat storage file name for a document path and entry id:
// <12-hex pathHash>-<slug>-<entryID><ext>.
func Name(docPath, entryID string) string {
	return PathHash(docPath) + "-" + Slug(docPath) + "-" + entryID + Ext
}

// URL resolves the current-layout blob location under the storage root.
func URL(baseURL, docPath, entryID string) string {
	return url.Join(baseURL, Name(docPath, entryID))
}

// LegacyURL resolves the pre-migration blob location: nested directories per
// path segment ending in the document base name, entry id as the bare file name.
func LegacyURL(baseURL, docPath, entryID string) string {
	return url.Join(baseURL, legacyRelative(docPath)+"/"+entryID+Ext)
}

// LegacyDirURL resolves the legacy directory that held a document's entries.
func LegacyDirURL(baseURL, docPath string) string {
	return url.Join(baseURL, legacyRelative(docPath))
}

func legacyRelative(docPath string) string {
	loc := filepath.ToSlash(docPath)
	loc = strings.ReplaceAll(loc, ":", "")
	return strings.Trim(loc, "/")
}

// PathHash returns a short deterministic fingerprint of a document path. It
// hashes the path, not the content, so all entries of one document share it.
func PathHash(docPath string) string {
	h, err := highwayhash.New64(pathHashKey)
	if err != nil {
		// fixed 32-byte key, cannot happen
		return strings.Repeat("0", pathHashLen)
	}
	_, _ = h.Write([]byte(docPath))
	return fmt.Sprintf("%016x", h.Sum64())[:pathHashLen]
}

// Slug converts a document path into an ASCII-safe file name component,
// keeping the tail when the path exceeds the cap: the tail carries the
// document name and is the part a human recognizes.
func Slug(docPath string) string {
	out := make([]rune, 0, len(docPath))
	for _, r := range docPath {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == '-' || r == '_' || r == '.':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	s := string(out)
	if len(s) > maxSlugLen {
		s = s[len(s)-maxSlugLen:]
	}
	return s
}
