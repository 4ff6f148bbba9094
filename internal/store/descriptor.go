package store

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/alinski29/stonks/internal/model"
)

// Config declares a store location and how records map onto it.
type Config struct {
	Path             string
	RecordType       *model.RecordType
	IDColumns        []string // one or two columns identifying a logical series
	PartitionColumns []string // optional, in partition-path order
	TimeColumn       string   // optional date column used for freshness checks
	Format           string   // FormatCSV (default) or FormatArrow
	Codec            Codec    // overrides Format when set
}

// Descriptor is a validated, long-lived handle to one store. It owns no
// mutable state beyond configuration; every load and save goes through it.
type Descriptor struct {
	path       string
	recordType *model.RecordType
	idColumns  []string
	partitions []string
	timeColumn string
	codec      Codec
}

// NewDescriptor validates the configuration against the record type.
// A violation here is a configuration defect, not a runtime error.
func NewDescriptor(cfg Config) (*Descriptor, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	rt := cfg.RecordType
	if rt == nil || len(rt.Fields) == 0 {
		return nil, fmt.Errorf("store: record type is required")
	}
	if n := len(cfg.IDColumns); n < 1 || n > 2 {
		return nil, fmt.Errorf("store: need 1 or 2 id columns, got %d", n)
	}
	if !rt.HasFields(cfg.IDColumns...) {
		return nil, fmt.Errorf("store: id columns %v not declared by record type %s", cfg.IDColumns, rt.Name)
	}
	if !rt.HasFields(cfg.PartitionColumns...) {
		return nil, fmt.Errorf("store: partition columns %v not declared by record type %s", cfg.PartitionColumns, rt.Name)
	}
	for _, col := range cfg.PartitionColumns {
		f, _ := rt.Field(col)
		if f.Type == model.FieldFloat {
			return nil, fmt.Errorf("store: cannot partition on float column %q", col)
		}
		if f.Optional {
			return nil, fmt.Errorf("store: cannot partition on optional column %q", col)
		}
	}
	if cfg.TimeColumn != "" {
		f, ok := rt.Field(cfg.TimeColumn)
		if !ok {
			return nil, fmt.Errorf("store: time column %q not declared by record type %s", cfg.TimeColumn, rt.Name)
		}
		if f.Type != model.FieldDate {
			return nil, fmt.Errorf("store: time column %q must be a date field", cfg.TimeColumn)
		}
	}
	codec := cfg.Codec
	if codec == nil {
		var err error
		if codec, err = codecFor(cfg.Format); err != nil {
			return nil, err
		}
	}

	return &Descriptor{
		path:       filepath.Clean(cfg.Path),
		recordType: rt,
		idColumns:  append([]string(nil), cfg.IDColumns...),
		partitions: append([]string(nil), cfg.PartitionColumns...),
		timeColumn: cfg.TimeColumn,
		codec:      codec,
	}, nil
}

func (d *Descriptor) Path() string { return d.path }

func (d *Descriptor) RecordType() *model.RecordType { return d.recordType }

func (d *Descriptor) TimeColumn() string { return d.timeColumn }

// IDColumns returns a copy of the identifying columns.
func (d *Descriptor) IDColumns() []string {
	return append([]string(nil), d.idColumns...)
}

// PartitionColumns returns a copy of the partition columns.
func (d *Descriptor) PartitionColumns() []string {
	return append([]string(nil), d.partitions...)
}

func (d *Descriptor) Partitioned() bool {
	return len(d.partitions) > 0
}

func (d *Descriptor) dataFileName() string {
	return "data" + d.codec.Ext()
}

// dataFile returns the absolute data file path for one partition key
// (empty key for the unpartitioned store).
func (d *Descriptor) dataFile(key string) string {
	return filepath.Join(d.path, filepath.FromSlash(key), d.dataFileName())
}

// partitionKey renders a record's partition path: one col=value segment per
// partition column, in declared order, path-escaped.
func (d *Descriptor) partitionKey(rec model.Record) (string, error) {
	if !d.Partitioned() {
		return "", nil
	}
	segs := make([]string, len(d.partitions))
	for i, col := range d.partitions {
		f, _ := d.recordType.Field(col)
		v, err := f.Format(rec[col])
		if err != nil {
			return "", err
		}
		if v == "" {
			return "", fmt.Errorf("store: record has no value for partition column %q", col)
		}
		segs[i] = col + "=" + url.PathEscape(v)
	}
	return strings.Join(segs, "/"), nil
}

// parsePartitionPath reads a relative partition directory back into its
// column values. Paths that are not col=value chains report ok=false and
// are skipped by the reader.
func parsePartitionPath(rel string) (map[string]string, bool) {
	values := make(map[string]string)
	if rel == "." || rel == "" {
		return values, true
	}
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		col, raw, found := strings.Cut(seg, "=")
		if !found || col == "" {
			return nil, false
		}
		val, err := url.PathUnescape(raw)
		if err != nil {
			return nil, false
		}
		values[col] = val
	}
	return values, true
}
