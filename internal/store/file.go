package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File stores each key as <dir>/<key>.json.
type File struct {
	dir string
}

// NewFile creates dir if needed and returns a File store rooted there.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Backend: "file", Op: "open", Err: fmt.Errorf("creating data dir: %w", err)}
	}
	return &File{dir: dir}, nil
}

// Dir returns the directory holding the JSON files.
func (f *File) Dir() string {
	return f.dir
}

// Get reads <key>.json.
func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	if err := checkKey("file", "get", key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Backend: "file", Op: "get", Key: key, Err: err}
	}
	return data, nil
}

// SetMany writes every entry to a temp file and renames it into place,
// so a crash never leaves a half-written collection behind.
func (f *File) SetMany(_ context.Context, entries map[string][]byte) error {
	for _, key := range sortedKeys(entries) {
		if err := checkKey("file", "set", key); err != nil {
			return err
		}
		if err := f.write(key, entries[key]); err != nil {
			return &Error{Backend: "file", Op: "set", Key: key, Err: err}
		}
	}
	return nil
}

// Close is a no-op.
func (f *File) Close() error {
	return nil
}

func (f *File) write(key string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}
