package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/model"
)

const (
	artifactExt    = ".bundle"
	metadataSuffix = "_metadata.json"
)

// FileStore writes bundles as <id>.bundle next to a readable
// <id>_metadata.json summary.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the artifact path for id.
func (s *FileStore) Path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+artifactExt)
}

// Export implements port.BundleExporter.
func (s *FileStore) Export(ctx context.Context, b *bundle.Bundle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := Encode(b)
	if err != nil {
		return "", err
	}
	meta, err := json.MarshalIndent(b.Summary(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("artifact: marshal metadata: %w", err)
	}

	path := s.Path(b.ID())
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	if err := writeAtomic(filepath.Join(s.dir, b.ID().String()+metadataSuffix), meta); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads the artifact stored for id.
func (s *FileStore) Load(id uuid.UUID) (*bundle.Bundle, error) {
	b, err := LoadFile(s.Path(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", model.ErrBundleNotFound, id)
	}
	return b, err
}

// LoadFile reads an artifact from an arbitrary path.
func LoadFile(path string) (*bundle.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("artifact: rename %s: %w", path, err)
	}
	return nil
}
