package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alinski29/stonks/internal/model"
)

func TestSortRecords(t *testing.T) {
	d := model.Day(2022, time.March, 1)
	recs := []model.Record{
		{"symbol": "MSFT", "date": d, "close": 294.95},
		{"symbol": "AAPL", "date": d.AddDate(0, 0, 1), "close": 166.56},
		{"symbol": "AAPL", "date": d, "close": 163.2},
	}

	sortRecords(recs, []string{"symbol"}, "date")

	want := []struct {
		symbol string
		date   time.Time
	}{
		{"AAPL", d},
		{"AAPL", d.AddDate(0, 0, 1)},
		{"MSFT", d},
	}
	for i, w := range want {
		if recs[i].StringAt("symbol") != w.symbol {
			t.Errorf("row %d: expected symbol %s, got %s", i, w.symbol, recs[i].StringAt("symbol"))
		}
		if got, _ := recs[i].TimeAt("date"); !got.Equal(w.date) {
			t.Errorf("row %d: expected date %v, got %v", i, w.date, got)
		}
	}
}

func TestSortRecords_CompoundIdentifier(t *testing.T) {
	d := model.Day(2022, time.March, 1)
	recs := []model.Record{
		{"base": "USD", "target": "CHF", "date": d, "rate": 0.92},
		{"base": "EUR", "target": "USD", "date": d, "rate": 1.11},
		{"base": "EUR", "target": "GBP", "date": d, "rate": 0.83},
	}

	sortRecords(recs, []string{"base", "target"}, "date")

	wantPairs := []string{"EUR/GBP", "EUR/USD", "USD/CHF"}
	for i, want := range wantPairs {
		got := recs[i].StringAt("base") + "/" + recs[i].StringAt("target")
		if got != want {
			t.Errorf("row %d: expected %s, got %s", i, want, got)
		}
	}
}

func TestWriteCSV_OptionalFieldsStayEmpty(t *testing.T) {
	d := model.Day(2022, time.March, 1)
	recs := []model.Record{
		{"symbol": "AAPL", "date": d, "close": 163.2, "volume": int64(83474425)},
	}

	var buf bytes.Buffer
	if err := writeCSV(&buf, model.AssetPrice, recs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "symbol,date,close,open,high,low,close_adjusted,volume" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "AAPL,2022-03-01,163.2,,,,,83474425" {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestRenderTable(t *testing.T) {
	d := model.Day(2022, time.March, 1)
	var buf bytes.Buffer
	renderTable(&buf, model.AssetPrice, []model.Record{
		{"symbol": "AAPL", "date": d, "close": 163.2},
	})

	out := buf.String()
	if !strings.Contains(out, "symbol") {
		t.Errorf("expected lowercase header, got:\n%s", out)
	}
	if !strings.Contains(out, "AAPL") || !strings.Contains(out, "2022-03-01") {
		t.Errorf("expected row values, got:\n%s", out)
	}
}

func TestSeriesColumns(t *testing.T) {
	idCols, timeCol := seriesColumns(model.ExchangeRate)
	if len(idCols) != 2 || idCols[0] != "base" || idCols[1] != "target" || timeCol != "date" {
		t.Errorf("unexpected exchange_rate columns: %v %s", idCols, timeCol)
	}
	idCols, timeCol = seriesColumns(model.AssetInfo)
	if len(idCols) != 1 || idCols[0] != "symbol" || timeCol != "" {
		t.Errorf("unexpected asset_info columns: %v %s", idCols, timeCol)
	}
}
