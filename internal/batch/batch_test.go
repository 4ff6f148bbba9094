package batch

import (
	"testing"
	"time"

	"github.com/alinski29/stonks/internal/model"
)

func bounded(symbol string, from time.Time) model.Directive {
	return model.Directive{ID: model.NewIdentifier(symbol), From: &from}
}

func unbounded(symbol string) model.Directive {
	return model.Directive{ID: model.NewIdentifier(symbol)}
}

func symbols(b Batch) []string {
	out := make([]string, 0, b.Size())
	for _, id := range b.Identifiers() {
		out = append(out, id.String())
	}
	return out
}

func TestGroup_SplitsByFromValue(t *testing.T) {
	f1 := model.Day(2022, time.January, 1)
	f2 := model.Day(2022, time.February, 10)
	directives := []model.Directive{
		bounded("AAPL", f1),
		bounded("MSFT", f2),
		bounded("TSLA", f2),
		unbounded("IBM"),
		unbounded("GOOG"),
		unbounded("NFLX"),
	}

	got, err := Group(directives, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]string{{"AAPL"}, {"MSFT", "TSLA"}, {"IBM", "GOOG"}, {"NFLX"}}
	if len(got) != len(want) {
		t.Fatalf("expected %d batches, got %d", len(want), len(got))
	}
	for i, b := range got {
		syms := symbols(b)
		if len(syms) != len(want[i]) {
			t.Fatalf("batch %d: expected %v, got %v", i, want[i], syms)
		}
		for j := range syms {
			if syms[j] != want[i][j] {
				t.Errorf("batch %d: expected %v, got %v", i, want[i], syms)
			}
		}
	}
	if got[0].From == nil || !got[0].From.Equal(f1) {
		t.Errorf("expected batch 0 from %s, got %v", f1, got[0].From)
	}
	if got[2].From != nil {
		t.Errorf("expected unbounded batch, got from %v", got[2].From)
	}
}

func TestGroup_ChunkCount(t *testing.T) {
	from := model.Day(2022, time.January, 1)
	names := []string{"A", "B", "C", "D", "E", "F", "G"}
	var directives []model.Directive
	for _, n := range names {
		directives = append(directives, bounded(n, from))
	}

	got, err := Group(directives, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 { // ceil(7/3)
		t.Fatalf("expected 3 batches, got %d", len(got))
	}

	var flat []string
	for _, b := range got {
		if b.Size() > 3 {
			t.Errorf("batch exceeds max size: %d", b.Size())
		}
		flat = append(flat, symbols(b)...)
	}
	if len(flat) != len(names) {
		t.Fatalf("expected %d directives total, got %d", len(names), len(flat))
	}
	for i, n := range names {
		if flat[i] != n {
			t.Errorf("expected order preserved, got %v", flat)
		}
	}
}

func TestGroup_NeverMixesFromValues(t *testing.T) {
	f1 := model.Day(2022, time.January, 1)
	f2 := model.Day(2022, time.January, 2)
	directives := []model.Directive{
		bounded("A", f1), bounded("B", f2), bounded("C", f1), bounded("D", f2),
	}

	got, err := Group(directives, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, b := range got {
		for _, d := range b.Directives {
			if !d.From.Equal(*b.From) {
				t.Errorf("batch mixes from values: %v", symbols(b))
			}
		}
	}
}

func TestGroup_SizeOneYieldsOneBatchPerDirective(t *testing.T) {
	from := model.Day(2022, time.January, 1)
	directives := []model.Directive{bounded("A", from), bounded("B", from), unbounded("C")}

	got, err := Group(directives, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(got))
	}
	for _, b := range got {
		if b.Size() != 1 {
			t.Errorf("expected singleton batch, got %d", b.Size())
		}
	}
}

func TestGroup_UsesMinimumUpperBound(t *testing.T) {
	from := model.Day(2022, time.January, 1)
	to1 := model.Day(2022, time.March, 10)
	to2 := model.Day(2022, time.March, 5)
	directives := []model.Directive{
		{ID: model.NewIdentifier("A"), From: &from, To: &to1},
		{ID: model.NewIdentifier("B"), From: &from, To: &to2},
	}

	got, err := Group(directives, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(got))
	}
	if got[0].To == nil || !got[0].To.Equal(to2) {
		t.Errorf("expected minimum to %s, got %v", to2, got[0].To)
	}
}

func TestGroup_EmptyInput(t *testing.T) {
	got, err := Group(nil, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no batches, got %d", len(got))
	}
}

func TestGroup_RejectsNonPositiveSize(t *testing.T) {
	if _, err := Group([]model.Directive{unbounded("A")}, 0); err == nil {
		t.Error("expected error for zero batch size")
	}
}
