// Package storage holds image files on local disk under a configured
// media root. Byte-level image processing (compression, watermarking)
// happens outside this service; rows only carry the stored path.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Disk local file store rooted at a media directory
type Disk struct {
	root string
}

// NewDisk creates a disk store rooted at root
func NewDisk(root string) *Disk {
	return &Disk{root: root}
}

// resolve joins a stored relative path against the root, rejecting
// traversal outside it.
func (d *Disk) resolve(rel string) (string, error) {
	clean := filepath.Clean("/" + rel)
	full := filepath.Join(d.root, clean)
	if !strings.HasPrefix(full, filepath.Clean(d.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage path %q", rel)
	}
	return full, nil
}

// Save writes the file content and returns the relative path to store
// on the image row.
func (d *Disk) Save(rel string, r io.Reader) (string, error) {
	full, err := d.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+rel)), "/"), nil
}

// Open returns a reader over a stored file
func (d *Disk) Open(rel string) (io.ReadCloser, error) {
	full, err := d.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Remove deletes a stored file
func (d *Disk) Remove(rel string) error {
	full, err := d.resolve(rel)
	if err != nil {
		return err
	}
	return os.Remove(full)
}
