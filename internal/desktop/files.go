package desktop

import (
	"os"
	"path/filepath"
)

// writeFileIfChanged writes content atomically, skipping the write
// when the file already holds identical content. Atomicity comes from
// writing a temp file in the same directory and renaming over the
// destination.
func writeFileIfChanged(path string, content []byte, mode os.FileMode) error {
	if existing, err := os.ReadFile(path); err == nil && string(existing) == string(content) {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".apprun-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	return os.Chmod(path, mode)
}

// removeFileQuietly deletes a file, treating absence as success.
func removeFileQuietly(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
