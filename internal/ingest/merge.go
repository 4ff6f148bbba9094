package ingest

import (
	"fmt"
	"strings"

	"github.com/alinski29/stonks/internal/model"
	"github.com/alinski29/stonks/internal/store"
)

// merge folds fetched rows into the stored rows of the partitions they land
// in. Saving replaces whole partitions, so the result must carry everything
// a touched partition should hold afterwards: its surviving existing rows
// plus the fetched ones. Rows sharing an identity (id columns plus the time
// column, when there is one) are superseded by the fetched version; existing
// rows in untouched partitions stay out of the result and keep their files
// byte-identical.
func merge(existing, fetched []model.Record, st store.Store) ([]model.Record, error) {
	rt := st.RecordType()
	parts := st.PartitionColumns()

	touched := make(map[string]bool, len(fetched))
	if len(parts) > 0 {
		for _, rec := range fetched {
			key, err := columnsKey(rec, parts, rt)
			if err != nil {
				return nil, err
			}
			touched[key] = true
		}
	}

	identCols := st.IDColumns()
	if tc := st.TimeColumn(); tc != "" {
		identCols = append(append([]string(nil), identCols...), tc)
	}

	var out []model.Record
	index := make(map[string]int, len(existing)+len(fetched))
	for _, rec := range existing {
		if len(parts) > 0 {
			pkey, err := columnsKey(rec, parts, rt)
			if err != nil {
				return nil, err
			}
			if !touched[pkey] {
				continue
			}
		}
		ikey, err := columnsKey(rec, identCols, rt)
		if err != nil {
			return nil, err
		}
		if at, ok := index[ikey]; ok {
			out[at] = rec
			continue
		}
		index[ikey] = len(out)
		out = append(out, rec)
	}
	for _, rec := range fetched {
		ikey, err := columnsKey(rec, identCols, rt)
		if err != nil {
			return nil, err
		}
		if at, ok := index[ikey]; ok {
			out[at] = rec // the fresh fetch supersedes the stored row
			continue
		}
		index[ikey] = len(out)
		out = append(out, rec)
	}
	return out, nil
}

// columnsKey renders the named column values into one comparable string.
func columnsKey(rec model.Record, cols []string, rt *model.RecordType) (string, error) {
	segs := make([]string, len(cols))
	for i, col := range cols {
		f, ok := rt.Field(col)
		if !ok {
			return "", fmt.Errorf("ingest: column %q not declared by record type %s", col, rt.Name)
		}
		s, err := f.Format(rec[col])
		if err != nil {
			return "", err
		}
		segs[i] = s
	}
	return strings.Join(segs, "\x1f"), nil
}
