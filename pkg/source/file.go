package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ritzau/causegraph/pkg/logging"
	"github.com/ritzau/causegraph/pkg/model"
)

// FileSource reads a graph document from the local filesystem.
type FileSource struct {
	path string
}

// NewFileSource creates a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Path returns the document path.
func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) Load(ctx context.Context) (model.RawGraph, error) {
	if err := ctx.Err(); err != nil {
		return model.RawGraph{}, err
	}

	logger := logging.New("source.file")
	logger.Debug("reading graph document", "path", s.path)

	f, err := os.Open(s.path)
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	raw, err := model.DecodeRaw(f)
	if err != nil {
		return model.RawGraph{}, fmt.Errorf("%s: %w", s.path, err)
	}

	logger.Debug("graph document read", "nodes", len(raw.Nodes), "links", len(raw.Links))
	return raw, nil
}
