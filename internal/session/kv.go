// Package session keeps the client's durable state: the API credential, the
// saved settings and a bounded history of corrections.
package session

import "sync"

// KV is the key/value capability a Store persists through.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// UpdateFunc computes a new value for a key from its current one.
type UpdateFunc func(old string, ok bool) (string, error)

// Updater is implemented by backends that can run a read-modify-write of one
// key atomically. When fn returns an error nothing is written.
type Updater interface {
	Update(key string, fn UpdateFunc) error
}

// MemoryKV is a process-local KV, mostly useful in tests.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Update(key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.data[key]
	v, err := fn(old, ok)
	if err != nil {
		return err
	}
	m.data[key] = v
	return nil
}
