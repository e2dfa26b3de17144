// Package storage provides a directory-backed JSON document store used for
// audit entries and benchmark reports.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meditriage/triage-core/internal/domain/providers"
)

// FileStore persists documents as pretty-printed JSON files named
// <dir>/<id>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Write marshals doc and stores it under id, replacing any existing document.
func (s *FileStore) Write(ctx context.Context, id string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}

	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", id, err)
	}
	return nil
}

// Read unmarshals the document stored under id into out. It returns
// providers.ErrDocumentNotFound when no such document exists.
func (s *FileStore) Read(ctx context.Context, id string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", providers.ErrDocumentNotFound, id)
		}
		return fmt.Errorf("failed to read document %s: %w", id, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse document %s: %w", id, err)
	}
	return nil
}

// List returns info for every .json document in the directory.
func (s *FileStore) List(ctx context.Context) ([]providers.DocumentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents in %s: %w", s.dir, err)
	}

	var infos []providers.DocumentInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, providers.DocumentInfo{
			ID:      strings.TrimSuffix(entry.Name(), ".json"),
			ModTime: fi.ModTime(),
		})
	}
	return infos, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
