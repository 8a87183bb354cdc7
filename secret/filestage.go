package secret

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// FileStagingProvider writes secret material (certificates, private keys)
// to a content-addressed path on disk, so a credential strategy can hand a
// downstream SDK a file path rather than passing key material through
// memory repeatedly.
//
// Stage is atomic: content is written to a temporary file in dir and
// renamed into place, so a concurrent reader never observes a
// partially-written file. The destination filename is the hex-encoded
// sha256 of content, so repeated staging of identical material is a no-op
// rename-free path and never collides across distinct material.
type FileStagingProvider struct {
	dir string
}

// NewFileStagingProvider creates a FileStagingProvider rooted at dir. dir
// is created with 0700 permissions if it does not already exist.
func NewFileStagingProvider(dir string) (*FileStagingProvider, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("secret: create staging dir: %w", err)
	}
	return &FileStagingProvider{dir: dir}, nil
}

// Stage writes content to a content-addressed file under dir and returns
// its path. The returned path is stable for identical content.
func (p *FileStagingProvider) Stage(ctx context.Context, content []byte) (string, error) {
	sum := sha256.Sum256(content)
	name := hex.EncodeToString(sum[:])
	dest := filepath.Join(p.dir, name)

	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	tmp, err := os.CreateTemp(p.dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("secret: create staging temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("secret: write staging temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("secret: chmod staging temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("secret: close staging temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("secret: rename staging temp file: %w", err)
	}

	return dest, nil
}

// Release removes a previously staged file. It is not an error to release
// a path that does not exist.
func (p *FileStagingProvider) Release(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("secret: remove staged file: %w", err)
	}
	return nil
}
