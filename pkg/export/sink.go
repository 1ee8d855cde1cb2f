package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink stores a finished export document and returns its location. The
// location is sink-specific: a filesystem path for DirSink, an s3:// URL
// for S3Sink.
type Sink interface {
	Store(ctx context.Context, name string, data []byte) (string, error)
	Name() string
}

// DirSink writes exports into a local directory.
type DirSink struct {
	dir string
}

// NewDirSink creates the directory if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("export directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Store writes the document to <dir>/<name>.
func (s *DirSink) Store(_ context.Context, name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// Name identifies the sink in logs and metrics.
func (s *DirSink) Name() string { return "dir" }
