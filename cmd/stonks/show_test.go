package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alinski29/stonks/internal/model"
	"github.com/alinski29/stonks/internal/store"
)

func seedPriceStore(t *testing.T, path string) {
	t.Helper()
	ds, err := store.NewDescriptor(store.Config{
		Path:             path,
		RecordType:       model.AssetPrice,
		IDColumns:        []string{"symbol"},
		PartitionColumns: []string{"symbol"},
		TimeColumn:       "date",
	})
	if err != nil {
		t.Fatalf("descriptor: %v", err)
	}
	d := model.Day(2022, time.March, 1)
	err = ds.Save([]model.Record{
		{"symbol": "MSFT", "date": d, "close": 294.95},
		{"symbol": "AAPL", "date": d, "close": 163.2},
		{"symbol": "AAPL", "date": d.AddDate(0, 0, 1), "close": 166.56},
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

func writeTestConfig(t *testing.T, storePath string) string {
	t.Helper()
	body := "stores:\n  - path: " + storePath + "\n    record_type: asset_price\n"
	path := filepath.Join(t.TempDir(), "stonks.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	os.Unsetenv("STONKS_CONFIG")
	var stdout, stderr bytes.Buffer
	rc := newRootCommand(&stdout, &stderr)
	rc.SetArgs(args)
	err := rc.Execute()
	return stdout.String(), err
}

func TestShowCommand_CSV(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "prices")
	seedPriceStore(t, storePath)
	cfgPath := writeTestConfig(t, storePath)

	out, err := runCommand(t, "show", "--config", cfgPath, "--output", "csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "symbol,date,close") {
		t.Errorf("unexpected header %q", lines[0])
	}
	// Rows come back sorted by symbol, then date.
	if !strings.HasPrefix(lines[1], "AAPL,2022-03-01,163.2") {
		t.Errorf("unexpected first row %q", lines[1])
	}
	if !strings.HasPrefix(lines[3], "MSFT,2022-03-01") {
		t.Errorf("unexpected last row %q", lines[3])
	}
}

func TestShowCommand_PartitionFilter(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "prices")
	seedPriceStore(t, storePath)
	cfgPath := writeTestConfig(t, storePath)

	out, err := runCommand(t, "show", "--config", cfgPath, "--output", "csv", "--filter", "symbol=MSFT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "AAPL") {
		t.Errorf("expected AAPL filtered out, got:\n%s", out)
	}
	if !strings.Contains(out, "MSFT") {
		t.Errorf("expected MSFT row, got:\n%s", out)
	}
}

func TestShowCommand_Limit(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "prices")
	seedPriceStore(t, storePath)
	cfgPath := writeTestConfig(t, storePath)

	out, err := runCommand(t, "show", "--config", cfgPath, "--output", "csv", "--limit", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 row, got %d lines:\n%s", len(lines), out)
	}
	// The last row in sort order survives the limit.
	if !strings.HasPrefix(lines[1], "MSFT") {
		t.Errorf("unexpected surviving row %q", lines[1])
	}
}

func TestShowCommand_Table(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "prices")
	seedPriceStore(t, storePath)
	cfgPath := writeTestConfig(t, storePath)

	out, err := runCommand(t, "show", "--config", cfgPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "symbol") || !strings.Contains(out, "AAPL") {
		t.Errorf("expected rendered table with header and rows, got:\n%s", out)
	}
}

func TestShowCommand_NoStoreConfigured(t *testing.T) {
	cfgPath := writeTestConfig(t, filepath.Join(t.TempDir(), "prices"))

	if _, err := runCommand(t, "show", "--config", cfgPath, "--type", "exchange_rate"); err == nil {
		t.Fatal("expected error for unconfigured record type")
	}
}

func TestShowCommand_BadFilter(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "prices")
	seedPriceStore(t, storePath)
	cfgPath := writeTestConfig(t, storePath)

	if _, err := runCommand(t, "show", "--config", cfgPath, "--filter", "bogus"); err == nil {
		t.Fatal("expected error for malformed filter")
	}
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string][]string
		wantErr bool
	}{
		{name: "empty", pairs: nil, want: nil},
		{name: "single", pairs: []string{"symbol=AAPL"}, want: map[string][]string{"symbol": {"AAPL"}}},
		{name: "comma separated", pairs: []string{"symbol=AAPL,MSFT"}, want: map[string][]string{"symbol": {"AAPL", "MSFT"}}},
		{
			name:  "repeated columns",
			pairs: []string{"base=EUR", "target=USD"},
			want:  map[string][]string{"base": {"EUR"}, "target": {"USD"}},
		},
		{name: "missing equals", pairs: []string{"symbol"}, wantErr: true},
		{name: "empty value", pairs: []string{"symbol="}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.pairs)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d columns, got %d", len(tt.want), len(got))
			}
			for col, vals := range tt.want {
				if len(got[col]) != len(vals) {
					t.Errorf("column %s: expected %v, got %v", col, vals, got[col])
					continue
				}
				for i, v := range vals {
					if got[col][i] != v {
						t.Errorf("column %s: expected %v, got %v", col, vals, got[col])
					}
				}
			}
		})
	}
}
