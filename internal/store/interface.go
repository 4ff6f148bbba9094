package store

import (
	"github.com/alinski29/stonks/internal/model"
)

// Store is the interface consumed by the update workflow and the API.
// The concrete implementation is *Descriptor (filesystem-backed).
type Store interface {
	Load(filter map[string][]string) ([]model.Record, error)
	Save(records []model.Record) error
	RecordType() *model.RecordType
	IDColumns() []string
	PartitionColumns() []string
	TimeColumn() string
	Path() string
}

var _ Store = (*Descriptor)(nil)
