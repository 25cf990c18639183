package resultstore

import (
	"context"
	"sync"

	o "github.com/pslkit/psl-test-adapter/framework/opt"
)

// MemoryStore keeps records for the life of the process.
type MemoryStore struct {
	records map[string]Record
	lock    sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) Put(_ context.Context, record Record) error {
	m.lock.Lock()
	m.records[record.ID] = record
	m.lock.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (o.Maybe[Record], error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if r, ok := m.records[id]; ok {
		return o.Some(r), nil
	}
	return o.None[Record](), nil
}

func (m *MemoryStore) Close() error { return nil }
