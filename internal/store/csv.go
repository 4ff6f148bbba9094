package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alinski29/stonks/internal/model"
)

// csvCodec is the default delimited-text codec: a header row naming the
// columns in declaration order, one row per record, empty cells for absent
// optional values.
type csvCodec struct{}

func (csvCodec) Ext() string { return ".csv" }

func (csvCodec) Write(path string, rt *model.RecordType, records []model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := writeRows(w, rt, records); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRows(w *csv.Writer, rt *model.RecordType, records []model.Record) error {
	if err := w.Write(rt.Names()); err != nil {
		return err
	}
	row := make([]string, len(rt.Fields))
	for _, rec := range records {
		for i, fd := range rt.Fields {
			s, err := fd.Format(rec[fd.Name])
			if err != nil {
				return err
			}
			row[i] = s
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (csvCodec) Read(path string, rt *model.RecordType) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaValidationError{RecordType: rt.Name, Detail: "file has no header: " + path}
	}
	if err != nil {
		return nil, err
	}
	if err := matchHeader(header, rt); err != nil {
		return nil, err
	}

	var out []model.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make(model.Record, len(rt.Fields))
		for i, fd := range rt.Fields {
			v, err := fd.Parse(row[i])
			if err != nil {
				return nil, &SchemaValidationError{RecordType: rt.Name, Detail: "coercion failed in " + path, Err: err}
			}
			if v != nil {
				rec[fd.Name] = v
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func matchHeader(header []string, rt *model.RecordType) error {
	if len(header) != len(rt.Fields) {
		return &SchemaValidationError{
			RecordType: rt.Name,
			Detail:     fmt.Sprintf("expected %d columns, found %d", len(rt.Fields), len(header)),
		}
	}
	for i, f := range rt.Fields {
		if header[i] != f.Name {
			return &SchemaValidationError{
				RecordType: rt.Name,
				Detail:     fmt.Sprintf("column %d is %q, expected %q", i, header[i], f.Name),
			}
		}
	}
	return nil
}
