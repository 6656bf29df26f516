package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

type LocalSource struct {
	BaseDir string
}

func NewLocalSource(baseDir string) *LocalSource {
	if baseDir == "" {
		baseDir = "."
	}
	return &LocalSource{BaseDir: baseDir}
}

func (s *LocalSource) Open(ctx context.Context, sourcePath string) (io.ReadCloser, error) {
	_ = ctx

	path := sourcePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.BaseDir, sourcePath)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	return file, nil
}

// Resolve picks the record parser from the file extension.
func (s *LocalSource) Resolve(sourcePath string) (domain.RecordSource, error) {
	open := func(ctx context.Context) (io.ReadCloser, error) {
		return s.Open(ctx, sourcePath)
	}

	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".csv":
		return NewCSVSource(open), nil
	case ".xlsx":
		return NewXLSXSource(open), nil
	}
	return nil, fmt.Errorf("unsupported source %s", sourcePath)
}
