package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileKV stores all keys in one JSON document. Every operation holds a file
// lock beside the document, so separate processes never interleave a
// read-modify-write.
type FileKV struct {
	path string
	lock *flock.Flock
}

func NewFileKV(path string) (*FileKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileKV{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

func (f *FileKV) Get(key string) (string, bool, error) {
	if err := f.lock.RLock(); err != nil {
		return "", false, fmt.Errorf("failed to acquire read lock: %w", err)
	}
	defer f.lock.Unlock()

	data, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *FileKV) Set(key, value string) error {
	return f.update(func(data map[string]string) error {
		data[key] = value
		return nil
	})
}

func (f *FileKV) Delete(key string) error {
	return f.update(func(data map[string]string) error {
		delete(data, key)
		return nil
	})
}

// Update holds the write lock from reading key to writing its new value.
func (f *FileKV) Update(key string, fn UpdateFunc) error {
	return f.update(func(data map[string]string) error {
		old, ok := data[key]
		v, err := fn(old, ok)
		if err != nil {
			return err
		}
		data[key] = v
		return nil
	})
}

func (f *FileKV) update(fn func(map[string]string) error) error {
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	defer f.lock.Unlock()

	data, err := f.read()
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}
	return f.write(data)
}

// read expects the caller to hold the lock.
func (f *FileKV) read() (map[string]string, error) {
	data := make(map[string]string)
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	return data, nil
}

// write replaces the document atomically. The caller must hold the lock.
func (f *FileKV) write(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
