package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alinski29/stonks/internal/fetch"
	"github.com/alinski29/stonks/internal/model"
	"github.com/alinski29/stonks/internal/provider"
	"github.com/alinski29/stonks/internal/testutil"
	"github.com/alinski29/stonks/internal/transport"
)

// refDate is a Wednesday, so the last business day is the day itself.
var refDate = model.Day(2022, time.March, 16)

func fixedUpdater(reg *provider.Registry, sender transport.Sender) *Updater {
	u := New(reg, sender)
	u.now = func() time.Time { return refDate }
	return u
}

func cannedRegistry(rt *model.RecordType, recs []model.Record) *provider.Registry {
	reg := provider.NewRegistry()
	reg.Register(fetch.ResourceSpec{
		Name:         "test." + rt.Name,
		RecordType:   rt,
		URL:          "https://example.com/" + rt.Name,
		MaxBatchSize: 10,
		Parse: func(body string, params map[string]string) ([]model.Record, error) {
			return recs, nil
		},
	})
	return reg
}

func priceRow(symbol string, date time.Time, close float64) model.Record {
	return model.Record{"symbol": symbol, "date": date, "close": close}
}

func TestUpdate_StoreAlreadyCurrent(t *testing.T) {
	st := testutil.NewMockStore(model.AssetPrice, []string{"symbol"}, "date")
	st.Seed(
		priceRow("AAPL", refDate, 100),
		priceRow("MSFT", refDate.AddDate(0, 0, -1), 200), // one day behind is still current
	)
	sender := &testutil.MockSender{}
	u := fixedUpdater(cannedRegistry(model.AssetPrice, nil), sender)

	n, err := u.Update(context.Background(), st, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no-op, got %d records", n)
	}
	if calls := len(sender.Calls()); calls != 0 {
		t.Errorf("expected no network calls, got %d", calls)
	}
	if st.SaveCalls != 0 {
		t.Errorf("expected no save, got %d", st.SaveCalls)
	}
}

func TestUpdate_RefreshesStaleSeries(t *testing.T) {
	d0 := refDate.AddDate(0, 0, -7)
	st := testutil.NewMockStore(model.AssetPrice, []string{"symbol"}, "date")
	st.Partitions = []string{"symbol"}
	st.Seed(
		priceRow("AAPL", d0.AddDate(0, 0, -3), 95),
		priceRow("AAPL", d0, 100),
	)
	fetched := []model.Record{
		priceRow("AAPL", d0, 101), // provider revised the stored close
		priceRow("AAPL", d0.AddDate(0, 0, 1), 102),
	}
	u := fixedUpdater(cannedRegistry(model.AssetPrice, fetched), &testutil.MockSender{})

	n, err := u.Update(context.Background(), st, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 fetched records, got %d", n)
	}

	saved := st.LastSaved()
	if len(saved) != 3 {
		t.Fatalf("expected 3 merged records, got %v", saved)
	}
	for _, rec := range saved {
		if d, _ := rec.TimeAt("date"); d.Equal(d0) {
			if rec["close"] != 101.0 {
				t.Errorf("expected fetched row to supersede stored one, got close %v", rec["close"])
			}
		}
	}
}

func TestUpdate_NewSymbolLeavesOtherPartitionsAlone(t *testing.T) {
	st := testutil.NewMockStore(model.AssetPrice, []string{"symbol"}, "date")
	st.Partitions = []string{"symbol"}
	st.Seed(priceRow("MSFT", refDate, 200))
	fetched := []model.Record{
		priceRow("AAPL", refDate.AddDate(0, 0, -1), 99),
		priceRow("AAPL", refDate, 100),
	}
	u := fixedUpdater(cannedRegistry(model.AssetPrice, fetched), &testutil.MockSender{})

	requested := []model.Directive{{ID: model.NewIdentifier("AAPL")}}
	if _, err := u.Update(context.Background(), st, requested); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved := st.LastSaved()
	if len(saved) != 2 {
		t.Fatalf("expected only the new partition's records, got %v", saved)
	}
	for _, rec := range saved {
		if rec.StringAt("symbol") != "AAPL" {
			t.Errorf("untouched partition leaked into save: %v", rec)
		}
	}
}

func TestUpdate_UnpartitionedStoreKeepsSiblingRows(t *testing.T) {
	st := testutil.NewMockStore(model.AssetInfo, []string{"symbol"}, "")
	st.Seed(
		model.Record{"symbol": "AAPL", "currency": "USD", "name": "Apple Inc"},
		model.Record{"symbol": "MSFT", "currency": "USD", "name": "Microsoft Corp"},
	)
	fetched := []model.Record{
		{"symbol": "AAPL", "currency": "USD", "name": "Apple Inc.", "sector": "Technology"},
	}
	u := fixedUpdater(cannedRegistry(model.AssetInfo, fetched), &testutil.MockSender{})

	requested := []model.Directive{{ID: model.NewIdentifier("AAPL")}}
	if _, err := u.Update(context.Background(), st, requested); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved := st.LastSaved()
	if len(saved) != 2 {
		t.Fatalf("expected merged rows for both symbols, got %v", saved)
	}
	if saved[0].StringAt("symbol") != "AAPL" || saved[0].StringAt("name") != "Apple Inc." {
		t.Errorf("expected refreshed AAPL row first, got %v", saved[0])
	}
	if saved[1].StringAt("symbol") != "MSFT" {
		t.Errorf("expected MSFT row kept, got %v", saved[1])
	}
}

func TestUpdate_FetchFailurePropagates(t *testing.T) {
	st := testutil.NewMockStore(model.AssetPrice, []string{"symbol"}, "date")
	sender := &testutil.MockSender{Handler: func(req transport.Request) (string, error) {
		return "", fmt.Errorf("connection refused")
	}}
	reg := provider.NewRegistry()
	reg.Register(fetch.ResourceSpec{
		Name:         "test.asset_price",
		RecordType:   model.AssetPrice,
		URL:          "https://example.com/prices",
		MaxBatchSize: 10,
		Parse: func(body string, params map[string]string) ([]model.Record, error) {
			return nil, nil
		},
	})
	u := fixedUpdater(reg, sender)

	_, err := u.Update(context.Background(), st, []model.Directive{{ID: model.NewIdentifier("AAPL")}})
	if err == nil {
		t.Fatal("expected error when every batch fails")
	}
	if st.SaveCalls != 0 {
		t.Errorf("expected no save after failed fetch, got %d", st.SaveCalls)
	}
}

func TestUpdate_NoResourceForType(t *testing.T) {
	st := testutil.NewMockStore(model.ExchangeRate, []string{"base", "target"}, "date")
	u := fixedUpdater(provider.NewRegistry(), &testutil.MockSender{})

	_, err := u.Update(context.Background(), st, []model.Directive{{ID: model.NewPair("EUR", "USD")}})
	var selErr *provider.ResourceSelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected ResourceSelectionError, got %v", err)
	}
}

func TestUpdate_LoadFailurePropagates(t *testing.T) {
	st := testutil.NewMockStore(model.AssetPrice, []string{"symbol"}, "date")
	st.LoadErr = fmt.Errorf("disk on fire")
	u := fixedUpdater(cannedRegistry(model.AssetPrice, nil), &testutil.MockSender{})

	if _, err := u.Update(context.Background(), st, nil); err == nil {
		t.Fatal("expected load error to propagate")
	}
}
