// Package appid derives stable, filesystem-safe identifiers from
// bundle paths. The identifier keys the per-application box, so the
// provisioner and the launcher must always agree on it: resolution is
// a pure function of the path string and never touches the filesystem.
package appid

import (
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrInvalidPath is returned when a path cannot yield an identifier.
var ErrInvalidPath = errors.New("path is not usable as a bundle path")

// digestLen is the number of hex characters of the path digest kept in
// the identifier. Eight characters is enough to separate bundles that
// share a directory name.
const digestLen = 8

// Resolve derives the AppID for a bundle path. The result is a slug of
// the bundle's directory name joined with a short BLAKE3 digest of the
// cleaned path, e.g. "calculator-3b9fca21". Identical paths always
// resolve to identical IDs; the digest keeps same-named bundles in
// different locations from colliding.
func Resolve(bundlePath string) (string, error) {
	cleaned := filepath.Clean(strings.TrimSpace(bundlePath))
	if cleaned == "" || cleaned == "." || cleaned == string(filepath.Separator) {
		return "", ErrInvalidPath
	}

	base := filepath.Base(cleaned)
	slug := slugify(base)
	if slug == "" {
		slug = "bundle"
	}

	sum := blake3.Sum256([]byte(cleaned))
	digest := hex.EncodeToString(sum[:])[:digestLen]

	return slug + "-" + digest, nil
}

// slugify lowercases the name and replaces anything that is not safe
// in a directory name with a hyphen, collapsing runs.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // trim leading hyphens
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
