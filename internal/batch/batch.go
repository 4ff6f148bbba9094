package batch

import (
	"fmt"
	"time"

	"github.com/alinski29/stonks/internal/model"
)

// Batch is an ordered, non-empty group of directives dispatched as a single
// provider request. All directives in a batch share the same lower bound
// (or all have none), since a multi-symbol endpoint applies one date window
// to the whole request.
type Batch struct {
	Directives []model.Directive
	From       *time.Time // shared lower bound, nil for the unbounded group
	To         *time.Time // minimum upper bound present in the batch, if any
}

// Size returns the number of directives in the batch.
func (b Batch) Size() int {
	return len(b.Directives)
}

// Identifiers returns the directive identifiers in batch order.
func (b Batch) Identifiers() []model.Identifier {
	ids := make([]model.Identifier, len(b.Directives))
	for i, d := range b.Directives {
		ids[i] = d.ID
	}
	return ids
}

// Group splits directives into provider-sized batches. Directives with
// equal From values are grouped together (in first-seen order), then each
// group is chunked into at most maxBatchSize directives preserving relative
// order. Directives without a From form their own trailing group.
func Group(directives []model.Directive, maxBatchSize int) ([]Batch, error) {
	if maxBatchSize < 1 {
		return nil, fmt.Errorf("batch: max batch size must be positive, got %d", maxBatchSize)
	}
	if len(directives) == 0 {
		return nil, nil
	}

	bounded := make(map[time.Time][]model.Directive)
	var order []time.Time
	var unbounded []model.Directive
	for _, d := range directives {
		if !d.Bounded() {
			unbounded = append(unbounded, d)
			continue
		}
		// Round strips the monotonic reading so equal instants compare equal.
		key := d.From.Round(0).UTC()
		if _, ok := bounded[key]; !ok {
			order = append(order, key)
		}
		bounded[key] = append(bounded[key], d)
	}

	var out []Batch
	for _, key := range order {
		for _, part := range chunk(bounded[key], maxBatchSize) {
			out = append(out, build(part))
		}
	}
	for _, part := range chunk(unbounded, maxBatchSize) {
		out = append(out, build(part))
	}
	return out, nil
}

func chunk(ds []model.Directive, size int) [][]model.Directive {
	var parts [][]model.Directive
	for len(ds) > size {
		parts = append(parts, ds[:size])
		ds = ds[size:]
	}
	if len(ds) > 0 {
		parts = append(parts, ds)
	}
	return parts
}

func build(ds []model.Directive) Batch {
	b := Batch{Directives: ds}
	if from := ds[0].From; from != nil {
		f := *from
		b.From = &f
	}
	for _, d := range ds {
		if d.To != nil && (b.To == nil || d.To.Before(*b.To)) {
			t := *d.To
			b.To = &t
		}
	}
	return b
}
