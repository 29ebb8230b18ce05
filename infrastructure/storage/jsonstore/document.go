package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// document is a single JSON file holding a value of type T. Access is
// serialized and writes go through a temp file plus rename.
type document[T any] struct {
	path  string
	mu    sync.Mutex
	empty func() T
}

func newDocument[T any](path string, empty func() T) *document[T] {
	return &document[T]{path: path, empty: empty}
}

func (d *document[T]) load() (T, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return d.empty(), nil
	}
	if err != nil {
		return d.empty(), fmt.Errorf("failed to read %s: %w", d.path, err)
	}
	v := d.empty()
	if err := json.Unmarshal(data, &v); err != nil {
		return d.empty(), fmt.Errorf("failed to decode %s: %w", d.path, err)
	}
	return v, nil
}

func (d *document[T]) save(v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return err
	}
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	return os.Rename(tmp, d.path)
}

// read loads the value under the lock.
func (d *document[T]) read() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()
}

// update loads, mutates and saves the value atomically with respect to other callers.
func (d *document[T]) update(fn func(v T) (T, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.load()
	if err != nil {
		return err
	}
	v, err = fn(v)
	if err != nil {
		return err
	}
	return d.save(v)
}
