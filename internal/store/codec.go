package store

import (
	"fmt"

	"github.com/alinski29/stonks/internal/model"
)

// Supported serialization formats.
const (
	FormatCSV   = "csv"
	FormatArrow = "arrow"
)

// Codec serializes a homogeneous record collection to a single data file.
// Writers receive records already validated against the record type; readers
// coerce persisted values to the declared types and reject files whose
// columns do not match the record type 1:1, in order.
type Codec interface {
	Ext() string
	Write(path string, rt *model.RecordType, records []model.Record) error
	Read(path string, rt *model.RecordType) ([]model.Record, error)
}

func codecFor(format string) (Codec, error) {
	switch format {
	case "", FormatCSV:
		return csvCodec{}, nil
	case FormatArrow:
		return arrowCodec{}, nil
	default:
		return nil, fmt.Errorf("store: unknown format %q", format)
	}
}
