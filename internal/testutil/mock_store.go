package testutil

import (
	"sync"

	"github.com/alinski29/stonks/internal/model"
	"github.com/alinski29/stonks/internal/store"
)

// MockStore is a thread-safe in-memory implementation of store.Store for
// testing the update workflow and the API without touching the filesystem.
type MockStore struct {
	mu sync.Mutex

	Records    []model.Record
	Type       *model.RecordType
	IDCols     []string
	Partitions []string
	TimeCol    string

	LoadErr error
	SaveErr error

	LoadCalls int
	SaveCalls int
	Saved     [][]model.Record // every Save payload, in call order
}

var _ store.Store = (*MockStore)(nil)

func NewMockStore(rt *model.RecordType, idCols []string, timeCol string) *MockStore {
	return &MockStore{Type: rt, IDCols: idCols, TimeCol: timeCol}
}

// Seed replaces the stored records.
func (m *MockStore) Seed(recs ...model.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append([]model.Record(nil), recs...)
}

func (m *MockStore) Load(filter map[string][]string) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if len(filter) == 0 {
		return append([]model.Record(nil), m.Records...), nil
	}
	var out []model.Record
	for _, rec := range m.Records {
		match := true
		for col, vals := range filter {
			ok := false
			for _, v := range vals {
				if rec.StringAt(col) == v {
					ok = true
					break
				}
			}
			if !ok {
				match = false
				break
			}
		}
		if match {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MockStore) Save(records []model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saved = append(m.Saved, append([]model.Record(nil), records...))
	m.Records = append(m.Records, records...)
	return nil
}

func (m *MockStore) RecordType() *model.RecordType { return m.Type }

func (m *MockStore) IDColumns() []string { return m.IDCols }

func (m *MockStore) PartitionColumns() []string { return m.Partitions }

func (m *MockStore) TimeColumn() string { return m.TimeCol }

func (m *MockStore) Path() string { return "mock://" + m.Type.Name }

// LastSaved returns the payload of the most recent Save call.
func (m *MockStore) LastSaved() []model.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Saved) == 0 {
		return nil
	}
	return m.Saved[len(m.Saved)-1]
}
