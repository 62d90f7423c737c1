package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Uploader persists uploaded document bytes and returns a storage path.
// The core only records the returned path; it never re-reads contents.
type Uploader interface {
	Store(reader io.Reader, folder, fileName string) (string, error)
}

// DiskUploader writes files under a local base directory. A cloud-backed
// implementation can replace it without touching the services.
type DiskUploader struct {
	baseDir string
}

func NewDiskUploader(baseDir string) *DiskUploader {
	return &DiskUploader{baseDir: baseDir}
}

func (u *DiskUploader) Store(reader io.Reader, folder, fileName string) (string, error) {
	dir := filepath.Join(u.baseDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	// Timestamp prefix keeps names unique without a second lookup
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(fileName))
	fullPath := filepath.Join(dir, name)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, reader); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return "/" + filepath.ToSlash(filepath.Join("uploads", folder, name)), nil
}
