package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alinski29/stonks/internal/model"
)

func TestCSVCodec_OptionalFieldsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	in := []model.Record{
		{"symbol": "AAPL", "date": model.Day(2022, time.January, 3), "close": 182.01, "volume": int64(104487900)},
		{"symbol": "AAPL", "date": model.Day(2022, time.January, 4), "close": 179.7},
	}

	codec := csvCodec{}
	if err := codec.Write(path, model.AssetPrice, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := codec.Read(path, model.AssetPrice)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0]["volume"] != int64(104487900) {
		t.Errorf("expected volume to survive, got %v", got[0]["volume"])
	}
	if _, ok := got[1]["volume"]; ok {
		t.Errorf("expected absent optional field to stay absent, got %v", got[1])
	}
	if d, _ := got[1].TimeAt("date"); !d.Equal(model.Day(2022, time.January, 4)) {
		t.Errorf("expected coerced date, got %v", got[1]["date"])
	}
}

func TestCSVCodec_HeaderOnlyFileIsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	codec := csvCodec{}
	if err := codec.Write(path, model.AssetInfo, nil); err != nil {
		t.Fatalf("write: %v", err)
	}

	content := fileContent(t, path)
	if !strings.HasPrefix(content, "symbol,currency,") {
		t.Errorf("expected declared header order, got %q", content)
	}
	got, err := codec.Read(path, model.AssetInfo)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %v", got)
	}
}

func TestCSVCodec_MissingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := csvCodec{}.Read(path, model.AssetPrice)
	var schemaErr *SchemaValidationError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaValidationError, got %v", err)
	}
}

func TestCSVCodec_RejectsUncoercibleValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := "base,target,date,rate\nEUR,USD,2022-01-03,not-a-number\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := csvCodec{}.Read(path, model.ExchangeRate)
	var schemaErr *SchemaValidationError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaValidationError, got %v", err)
	}
}

func TestArrowCodec_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.arrow")
	in := []model.Record{
		{"symbol": "AAPL", "date": model.Day(2022, time.January, 3), "close": 182.01, "volume": int64(104487900)},
		{"symbol": "MSFT", "date": model.Day(2022, time.January, 3), "close": 334.75},
	}

	codec := arrowCodec{}
	if err := codec.Write(path, model.AssetPrice, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := codec.Read(path, model.AssetPrice)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].StringAt("symbol") != "AAPL" || got[0]["close"] != 182.01 {
		t.Errorf("unexpected first record: %v", got[0])
	}
	if _, ok := got[1]["volume"]; ok {
		t.Errorf("expected null to stay absent, got %v", got[1])
	}
	if d, ok := got[0].TimeAt("date"); !ok || !d.Equal(model.Day(2022, time.January, 3)) {
		t.Errorf("expected date32 round trip, got %v", got[0]["date"])
	}
}

func TestArrowCodec_SchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.arrow")
	codec := arrowCodec{}
	if err := codec.Write(path, model.ExchangeRate, nil); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := codec.Read(path, model.AssetPrice)
	var schemaErr *SchemaValidationError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaValidationError, got %v", err)
	}
}

func TestArrowStore_SaveLoad(t *testing.T) {
	ds, err := NewDescriptor(Config{
		Path:             filepath.Join(t.TempDir(), "prices"),
		RecordType:       model.AssetPrice,
		IDColumns:        []string{"symbol"},
		PartitionColumns: []string{"symbol"},
		TimeColumn:       "date",
		Format:           FormatArrow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	date := model.Day(2022, time.March, 1)
	in := []model.Record{priceRec("AAPL", date, 100), priceRec("MSFT", date, 200)}
	if err := ds.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := ds.Load(map[string][]string{"symbol": {"MSFT"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].StringAt("symbol") != "MSFT" {
		t.Errorf("expected pruned arrow load, got %v", got)
	}
}
