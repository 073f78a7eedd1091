// Package storage keeps uploaded files on local disk behind a public URL prefix.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type FileStore interface {
	// Save writes data under name and returns its public URL.
	Save(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, name string) error
}

type DiskStore struct {
	root      string
	publicURL string
}

var _ FileStore = (*DiskStore)(nil)

func NewDiskStore(root, publicURL string) *DiskStore {
	return &DiskStore{root: filepath.Clean(root), publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *DiskStore) Save(_ context.Context, name string, data []byte) (string, error) {
	target, rel, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("move upload: %w", err)
	}
	return s.publicURL + "/" + rel, nil
}

func (s *DiskStore) Delete(_ context.Context, name string) error {
	target, _, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve keeps name inside the root directory and returns the file path and
// the cleaned slash-separated name.
func (s *DiskStore) resolve(name string) (string, string, error) {
	cleanRel := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
	if cleanRel == "" || cleanRel == "." {
		return "", "", fmt.Errorf("empty upload name")
	}
	target := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(cleanRel)))
	if !strings.HasPrefix(target, s.root+string(os.PathSeparator)) {
		return "", "", fmt.Errorf("refusing path outside upload root: %s", name)
	}
	return target, cleanRel, nil
}
