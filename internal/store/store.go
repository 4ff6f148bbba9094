package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alinski29/stonks/internal/model"
)

// One write transaction at a time per store path. Cross-process locking is
// out of scope; external writers to the same path would race.
var (
	locksMu sync.Mutex
	locks   = make(map[string]*sync.Mutex)
)

func lockFor(path string) *sync.Mutex {
	locksMu.Lock()
	defer locksMu.Unlock()
	l, ok := locks[path]
	if !ok {
		l = &sync.Mutex{}
		locks[path] = l
	}
	return l
}

// Save atomically replaces the partitions the given records belong to.
// Records are validated against the record type before any transaction is
// opened. Each touched partition ends up holding exactly the records passed
// here, so callers merge previously stored rows in themselves when they
// mean to keep them. Saving zero records only initializes the store.
func (d *Descriptor) Save(records []model.Record) error {
	for _, rec := range records {
		if err := d.recordType.Validate(rec); err != nil {
			return &SchemaValidationError{RecordType: d.recordType.Name, Detail: "invalid record", Err: err}
		}
	}
	if len(records) == 0 {
		return d.ensureInitialized()
	}
	ops, err := d.groupOps(records)
	if err != nil {
		return err
	}

	lock := lockFor(d.path)
	lock.Lock()
	defer lock.Unlock()

	if err := newWriteTxn(d, ops).run(); err != nil {
		return err
	}
	slog.Debug("saved records", "path", d.path, "count", len(records), "partitions", len(ops))
	return nil
}

// groupOps splits records into one write operation per partition key,
// preserving first-seen key order.
func (d *Descriptor) groupOps(records []model.Record) ([]writeOp, error) {
	if !d.Partitioned() {
		return []writeOp{{key: "", records: records}}, nil
	}
	byKey := make(map[string][]model.Record)
	var order []string
	for _, rec := range records {
		key, err := d.partitionKey(rec)
		if err != nil {
			return nil, err
		}
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], rec)
	}
	ops := make([]writeOp, len(order))
	for i, key := range order {
		ops[i] = writeOp{key: key, records: byKey[key]}
	}
	return ops, nil
}

// Load reads records, pruned to the partitions matching the filter
// (column -> allowed values). Filtering on a column that is not a declared
// partition column is an error; a filter matching no partition returns an
// empty collection. A store that does not exist yet is initialized empty,
// so repeated loads are safe.
func (d *Descriptor) Load(filter map[string][]string) ([]model.Record, error) {
	for col := range filter {
		if !containsString(d.partitions, col) {
			return nil, fmt.Errorf("store %s: %w: %q", d.path, ErrUnknownFilterColumn, col)
		}
	}
	if err := d.ensureInitialized(); err != nil {
		return nil, err
	}

	if !d.Partitioned() {
		return d.codec.Read(d.dataFile(""), d.recordType)
	}

	files, err := d.selectFiles(filter)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	// One task per selected file. Each task owns its result slot; order
	// across partitions is not guaranteed.
	results := make([][]model.Record, len(files))
	var g errgroup.Group
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			recs, err := d.codec.Read(path, d.recordType)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.Record
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, nil
}

// ensureInitialized creates the store skeleton on first use: the root
// directory, plus a zero-row data file for unpartitioned stores.
func (d *Descriptor) ensureInitialized() error {
	created := false
	if _, err := os.Stat(d.path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(d.path, 0o755); err != nil {
			return err
		}
		created = true
	} else if err != nil {
		return err
	}
	if !d.Partitioned() {
		file := d.dataFile("")
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			if err := d.codec.Write(file, d.recordType, nil); err != nil {
				return err
			}
			created = true
		} else if err != nil {
			return err
		}
	}
	if created {
		slog.Info("initialized empty store", "path", d.path, "type", d.recordType.Name)
	}
	return nil
}

// selectFiles walks the partition tree and returns the data files whose
// col=value path segments satisfy the filter.
func (d *Descriptor) selectFiles(filter map[string][]string) ([]string, error) {
	allowed := make(map[string]map[string]bool, len(filter))
	for col, vals := range filter {
		set := make(map[string]bool, len(vals))
		for _, v := range vals {
			set[v] = true
		}
		allowed[col] = set
	}

	var files []string
	err := filepath.WalkDir(d.path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != d.path && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Name() != d.dataFileName() {
			return nil
		}
		rel, err := filepath.Rel(d.path, filepath.Dir(path))
		if err != nil {
			return err
		}
		values, ok := parsePartitionPath(rel)
		if !ok || len(values) != len(d.partitions) {
			return nil
		}
		for col, set := range allowed {
			if !set[values[col]] {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
