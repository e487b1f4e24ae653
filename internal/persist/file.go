package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileKV stores all keys in a single JSON object file. Every operation reads
// the file afresh, so writes from another process (ledgerd reset against a
// running server) are merged instead of overwritten. Every write replaces the
// file atomically through a temporary file and a rename.
type FileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV opens the file at path, creating its directory if needed.
// A missing file is treated as an empty store; a corrupt one is an error.
func NewFileKV(path string) (*FileKV, error) {
	if path == "" {
		return nil, errors.New("file kv: path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("file kv: create directory: %w", err)
	}

	if _, err := readValues(path); err != nil {
		return nil, err
	}

	return &FileKV{path: path}, nil
}

func readValues(path string) (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file kv: read %s: %w", path, err)
	}

	if len(data) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("file kv: decode %s: %w", path, err)
	}

	return values, nil
}

// Get returns the value stored at key.
func (f *FileKV) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := readValues(f.path)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}

	value, ok := values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set stores value at key and flushes the file.
func (f *FileKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := readValues(f.path)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	values[key] = value

	if err := f.flush(values); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	return nil
}

// Delete removes key and flushes the file.
func (f *FileKV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := readValues(f.path)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if _, existed := values[key]; !existed {
		return nil
	}
	delete(values, key)

	if err := f.flush(values); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

// Close is a no-op; every write is already flushed.
func (f *FileKV) Close() error {
	return nil
}

// flush must be called with mu held.
func (f *FileKV) flush(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", f.path, err)
	}

	return nil
}
