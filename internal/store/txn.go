package store

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alinski29/stonks/internal/model"
)

const (
	stagingDir = ".tmp"
	backupDir  = ".bkp"
)

// writeOp is one partition's worth of a transaction: the full new content
// of that partition.
type writeOp struct {
	key     string // "" for the unpartitioned store
	records []model.Record
}

// writeTxn is one stage → backup → commit → rollback → cleanup cycle
// against a single store path. Instances live for exactly one Save call.
type writeTxn struct {
	id          string
	ds          *Descriptor
	ops         []writeOp
	tmp         string
	bkp         string
	destExisted bool
	backedUp    map[string]bool // partition keys with a pre-transaction copy
}

func newWriteTxn(ds *Descriptor, ops []writeOp) *writeTxn {
	return &writeTxn{
		id:       uuid.New().String(),
		ds:       ds,
		ops:      ops,
		tmp:      filepath.Join(ds.path, stagingDir),
		bkp:      filepath.Join(ds.path, backupDir),
		backedUp: make(map[string]bool),
	}
}

func (t *writeTxn) run() (err error) {
	_, statErr := os.Stat(t.ds.path)
	t.destExisted = statErr == nil

	// Defers run in reverse order: artifacts are removed first, then a root
	// this transaction created gets dropped again on failure (os.Remove
	// only deletes it while empty).
	defer func() {
		if err != nil && !t.destExisted {
			os.Remove(t.ds.path)
		}
	}()
	defer t.cleanup()

	if err := t.stage(); err != nil {
		return &TransactionError{Stage: "staging", Path: t.ds.path, Err: err}
	}
	if err := t.backup(); err != nil {
		return &TransactionError{Stage: "backup", Path: t.ds.path, Err: err}
	}
	if err := t.commit(); err != nil {
		if rbErr := t.rollback(); rbErr != nil {
			slog.Error("rollback failed, store may need manual repair",
				"txn", t.id, "path", t.ds.path, "error", rbErr)
		}
		return &TransactionError{Stage: "commit", Path: t.ds.path, Err: err}
	}

	slog.Debug("write transaction committed",
		"txn", t.id, "path", t.ds.path, "partitions", len(t.ops))
	return nil
}

// stage serializes every operation into the staging directory, one task per
// operation. Any failure aborts before the destination is touched.
func (t *writeTxn) stage() error {
	var g errgroup.Group
	for _, op := range t.ops {
		op := op
		g.Go(func() error {
			dir := filepath.Join(t.tmp, filepath.FromSlash(op.key))
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			return t.ds.codec.Write(filepath.Join(dir, t.ds.dataFileName()), t.ds.recordType, op.records)
		})
	}
	return g.Wait()
}

// backup copies the current content of every partition this transaction
// will overwrite, one task per existing partition.
func (t *writeTxn) backup() error {
	if !t.destExisted {
		return nil
	}
	var g errgroup.Group
	for _, op := range t.ops {
		src := filepath.Join(t.ds.path, filepath.FromSlash(op.key))
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			continue // new partition, nothing to protect
		} else if err != nil {
			return err
		}
		t.backedUp[op.key] = true
		dst := filepath.Join(t.bkp, filepath.FromSlash(op.key))
		g.Go(func() error {
			return copyDir(src, dst)
		})
	}
	return g.Wait()
}

// commit moves the staged files over the destination, overwriting exactly
// the touched partitions.
func (t *writeTxn) commit() error {
	var g errgroup.Group
	for _, op := range t.ops {
		op := op
		g.Go(func() error {
			src := filepath.Join(t.tmp, filepath.FromSlash(op.key))
			dst := filepath.Join(t.ds.path, filepath.FromSlash(op.key))
			return copyDir(src, dst)
		})
	}
	return g.Wait()
}

// rollback restores the pre-transaction state of every touched partition:
// backed-up partitions get their files back, partitions that did not exist
// before are removed again.
func (t *writeTxn) rollback() error {
	for _, op := range t.ops {
		dst := filepath.Join(t.ds.path, filepath.FromSlash(op.key))
		if !t.backedUp[op.key] {
			if op.key == "" {
				if err := os.Remove(filepath.Join(dst, t.ds.dataFileName())); err != nil && !errors.Is(err, fs.ErrNotExist) {
					return err
				}
				continue
			}
			if err := os.RemoveAll(dst); err != nil {
				return err
			}
			continue
		}
		if err := removeDataFiles(dst); err != nil {
			return err
		}
		if err := copyDir(filepath.Join(t.bkp, filepath.FromSlash(op.key)), dst); err != nil {
			return err
		}
	}
	return nil
}

// cleanup removes staging and backup artifacts on every exit path.
func (t *writeTxn) cleanup() {
	os.RemoveAll(t.tmp)
	os.RemoveAll(t.bkp)
}

// copyDir copies the regular files directly inside src into dst, creating
// dst as needed. Directories under src are skipped; a partition leaf only
// holds data files.
func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func removeDataFiles(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
