package box

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// ManifestChecksum computes the hex BLAKE3 digest of a dependency
// manifest's content. The digest changes whenever the manifest content
// changes, driving the destroy-and-recreate cycle of the environment.
func ManifestChecksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read dependency manifest: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ReadChecksum returns the persisted manifest digest for the box, or
// the empty string when no install has been recorded. A missing or
// unreadable checksum file is not an error: it just means the
// environment is due for a first install.
func (p *Paths) ReadChecksum() string {
	data, err := os.ReadFile(p.ChecksumFile())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// WriteChecksum persists the manifest digest, syncing to disk so the
// record survives even if the launcher is killed right after install.
func (p *Paths) WriteChecksum(sum string) error {
	if err := os.MkdirAll(p.Root(), dirPerms); err != nil {
		return fmt.Errorf("failed to create box root: %w", err)
	}

	file, err := os.OpenFile(p.ChecksumFile(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, checksumPerms)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.WriteString(sum + "\n"); err != nil {
		return err
	}
	return file.Sync()
}
