package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/ipc"
	"github.com/apache/arrow/go/v10/arrow/memory"

	"github.com/alinski29/stonks/internal/model"
)

// arrowCodec persists records in the Arrow IPC file format, one record
// batch per data file.
type arrowCodec struct{}

func (arrowCodec) Ext() string { return ".arrow" }

func arrowSchema(rt *model.RecordType) *arrow.Schema {
	fields := make([]arrow.Field, len(rt.Fields))
	for i, f := range rt.Fields {
		fields[i] = arrow.Field{Name: f.Name, Type: arrowType(f.Type), Nullable: f.Optional}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t model.FieldType) arrow.DataType {
	switch t {
	case model.FieldFloat:
		return arrow.PrimitiveTypes.Float64
	case model.FieldInt:
		return arrow.PrimitiveTypes.Int64
	case model.FieldBool:
		return arrow.FixedWidthTypes.Boolean
	case model.FieldDate:
		return arrow.FixedWidthTypes.Date32
	default:
		return arrow.BinaryTypes.String
	}
}

func (arrowCodec) Write(path string, rt *model.RecordType, records []model.Record) error {
	schema := arrowSchema(rt)
	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for _, rec := range records {
		for i, f := range rt.Fields {
			appendValue(b.Field(i), rec[f.Name])
		}
	}
	batch := b.NewRecord()
	defer batch.Release()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		f.Close()
		return err
	}
	if err := w.Write(batch); err != nil {
		w.Close()
		f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// appendValue relies on records being validated against the record type
// before staging, so the value types line up with the builder types.
func appendValue(fb array.Builder, v any) {
	if v == nil {
		fb.AppendNull()
		return
	}
	switch b := fb.(type) {
	case *array.StringBuilder:
		b.Append(v.(string))
	case *array.Float64Builder:
		b.Append(v.(float64))
	case *array.Int64Builder:
		b.Append(v.(int64))
	case *array.BooleanBuilder:
		b.Append(v.(bool))
	case *array.Date32Builder:
		b.Append(arrow.Date32FromTime(v.(time.Time)))
	default:
		fb.AppendNull()
	}
}

func (arrowCodec) Read(path string, rt *model.RecordType) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, &SchemaValidationError{RecordType: rt.Name, Detail: "not an arrow file: " + path, Err: err}
	}
	defer r.Close()

	if err := matchArrowSchema(r.Schema(), rt); err != nil {
		return nil, err
	}

	var out []model.Record
	for {
		batch, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows, err := recordsFromBatch(batch, rt)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func matchArrowSchema(got *arrow.Schema, rt *model.RecordType) error {
	want := arrowSchema(rt)
	if len(got.Fields()) != len(want.Fields()) {
		return &SchemaValidationError{
			RecordType: rt.Name,
			Detail:     fmt.Sprintf("expected %d columns, found %d", len(want.Fields()), len(got.Fields())),
		}
	}
	for i, wf := range want.Fields() {
		gf := got.Field(i)
		if gf.Name != wf.Name || !arrow.TypeEqual(gf.Type, wf.Type) {
			return &SchemaValidationError{
				RecordType: rt.Name,
				Detail:     fmt.Sprintf("column %d is %s %s, expected %s %s", i, gf.Name, gf.Type, wf.Name, wf.Type),
			}
		}
	}
	return nil
}

func recordsFromBatch(batch arrow.Record, rt *model.RecordType) ([]model.Record, error) {
	rows := make([]model.Record, batch.NumRows())
	for i := range rows {
		rows[i] = make(model.Record, len(rt.Fields))
	}
	for col, f := range rt.Fields {
		arr := batch.Column(col)
		for row := 0; row < int(batch.NumRows()); row++ {
			if arr.IsNull(row) {
				continue
			}
			v, err := valueAt(arr, row)
			if err != nil {
				return nil, &SchemaValidationError{RecordType: rt.Name, Detail: "column " + f.Name, Err: err}
			}
			rows[row][f.Name] = v
		}
	}
	return rows, nil
}

func valueAt(arr arrow.Array, row int) (any, error) {
	switch a := arr.(type) {
	case *array.String:
		return a.Value(row), nil
	case *array.Float64:
		return a.Value(row), nil
	case *array.Int64:
		return a.Value(row), nil
	case *array.Boolean:
		return a.Value(row), nil
	case *array.Date32:
		return a.Value(row).ToTime(), nil
	default:
		return nil, fmt.Errorf("unsupported arrow column type %s", arr.DataType())
	}
}
