package main

import (
	"encoding/csv"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"

	"github.com/alinski29/stonks/internal/model"
)

// seriesColumns returns the identifying and time columns used to order
// ad hoc output for a record type.
func seriesColumns(rt *model.RecordType) (idCols []string, timeCol string) {
	switch rt {
	case model.ExchangeRate:
		return []string{"base", "target"}, "date"
	case model.AssetInfo:
		return []string{"symbol"}, ""
	default:
		return []string{"symbol"}, "date"
	}
}

// sortRecords orders rows by identifier columns, then by time ascending.
func sortRecords(recs []model.Record, idCols []string, timeCol string) {
	sort.SliceStable(recs, func(i, j int) bool {
		for _, col := range idCols {
			a, b := recs[i].StringAt(col), recs[j].StringAt(col)
			if a != b {
				return a < b
			}
		}
		if timeCol != "" {
			ta, _ := recs[i].TimeAt(timeCol)
			tb, _ := recs[j].TimeAt(timeCol)
			return ta.Before(tb)
		}
		return false
	})
}

func renderTable(w io.Writer, rt *model.RecordType, recs []model.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	// Don't uppercase the header values.
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(rt.Fields))
	for i, f := range rt.Fields {
		header[i] = f.Name
	}
	t.AppendHeader(header)

	for _, rec := range recs {
		row := make(table.Row, len(rt.Fields))
		for i, f := range rt.Fields {
			v, ok := rec[f.Name]
			if !ok {
				row[i] = ""
				continue
			}
			if d, isTime := v.(time.Time); isTime {
				row[i] = d.Format(model.DateLayout)
				continue
			}
			row[i] = v
		}
		t.AppendRow(row)
	}
	t.Render()
}

func writeCSV(w io.Writer, rt *model.RecordType, recs []model.Record) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(rt.Fields))
	for i, f := range rt.Fields {
		header[i] = f.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(rt.Fields))
	for _, rec := range recs {
		for i, f := range rt.Fields {
			v, err := f.Format(rec[f.Name])
			if err != nil {
				return err
			}
			row[i] = v
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
