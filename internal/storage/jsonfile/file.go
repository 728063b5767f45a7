// Package jsonfile persists whole values as JSON documents on disk.
// Every Save rewrites the full file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sandevgo/samara/pkg/log"
)

type File[T any] struct {
	path string
	mu   sync.Mutex
}

func New[T any](path string) *File[T] {
	return &File[T]{
		path: path,
	}
}

func (f *File[T]) Path() string {
	return f.path
}

// Load reads the document. A missing file yields the zero value and no error.
func (f *File[T]) Load(ctx context.Context) (T, error) {
	var out T

	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.FromCtx(ctx).Debug().Str("path", f.path).Msg("state file not found, starting empty")
			return out, nil
		}
		return out, fmt.Errorf("failed to read %s: %w", filepath.Base(f.path), err)
	}

	if len(data) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to parse %s: %w", filepath.Base(f.path), err)
	}
	return out, nil
}

// Save replaces the document through a temp file and rename.
func (f *File[T]) Save(ctx context.Context, v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(f.path), err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(f.path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(f.path), err)
	}
	return nil
}
