package database

import (
	"sync"
)

var _ SettingRepository = (*MemorySettingRepository)(nil)

// MemorySettingRepository is the in-memory backend of the key-value port,
// used by tests and demo runs.
type MemorySettingRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemorySettingRepository() *MemorySettingRepository {
	return &MemorySettingRepository{
		values: make(map[string]string),
	}
}

func (r *MemorySettingRepository) Get(key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[key]
	return value, ok, nil
}

func (r *MemorySettingRepository) Set(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
	return nil
}

func (r *MemorySettingRepository) All() (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	valuesCopy := make(map[string]string, len(r.values))
	for k, v := range r.values {
		valuesCopy[k] = v
	}
	return valuesCopy, nil
}
