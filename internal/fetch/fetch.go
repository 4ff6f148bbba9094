package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alinski29/stonks/internal/batch"
	"github.com/alinski29/stonks/internal/model"
	"github.com/alinski29/stonks/internal/transport"
)

// ParseFunc turns a raw response body into typed records. Implementations
// are pure; params carries the resolved template values of the request that
// produced the body.
type ParseFunc func(body string, params map[string]string) ([]model.Record, error)

// ResourceSpec describes one provider endpoint serving one record type.
// URL and Query values may contain {placeholder} tokens resolved per batch.
type ResourceSpec struct {
	Name         string // provider-qualified, e.g. "yahoo.price"
	RecordType   *model.RecordType
	URL          string
	Headers      map[string]string
	Query        map[string]string
	Params       map[string]string // default template values
	MaxBatchSize int
	MaxRetries   int
	Priority     int // lower value wins when several resources serve a type
	Parse        ParseFunc
}

// Options carries per-call template inputs.
type Options struct {
	From   *time.Time        // default lower bound for unbounded directives
	To     *time.Time        // default upper bound
	Params map[string]string // extra template values, e.g. an interval
}

// Fetcher dispatches resolved batches concurrently and merges the results
// optimistically: as long as one batch succeeds, failures are logged and
// dropped rather than surfaced.
type Fetcher struct {
	sender transport.Sender
}

func New(sender transport.Sender) *Fetcher {
	return &Fetcher{sender: sender}
}

// Fetch groups directives to the resource's batch size limit and dispatches
// them. See FetchBatches for the failure policy.
func (f *Fetcher) Fetch(ctx context.Context, directives []model.Directive, spec ResourceSpec, opts Options) ([]model.Record, error) {
	batches, err := batch.Group(directives, spec.MaxBatchSize)
	if err != nil {
		return nil, err
	}
	return f.FetchBatches(ctx, batches, spec, opts)
}

type outcome struct {
	batch batch.Batch
	recs  []model.Record
	err   error
}

// FetchBatches resolves and dispatches every batch concurrently, one task
// per batch, and waits for all of them to finish. If at least one batch
// succeeds, the successful records are concatenated and returned; only when
// every batch fails does the first collected error come back.
func (f *Fetcher) FetchBatches(ctx context.Context, batches []batch.Batch, spec ResourceSpec, opts Options) ([]model.Record, error) {
	if len(batches) == 0 {
		return nil, nil
	}
	if spec.Parse == nil {
		return nil, fmt.Errorf("fetch: resource %s has no parser", spec.Name)
	}

	results := make(chan outcome, len(batches))
	var wg sync.WaitGroup
	for _, b := range batches {
		wg.Add(1)
		go func(b batch.Batch) {
			defer wg.Done()
			recs, err := f.fetchOne(ctx, b, spec, opts)
			results <- outcome{batch: b, recs: recs, err: err}
		}(b)
	}
	wg.Wait()
	close(results)

	var merged []model.Record
	var firstErr error
	failures := 0
	for oc := range results {
		if oc.err != nil {
			failures++
			if firstErr == nil {
				firstErr = oc.err
			}
			slog.Warn("batch fetch failed",
				"resource", spec.Name,
				"symbols", strings.Join(identifierStrings(oc.batch.Identifiers()), ","),
				"error", oc.err)
			continue
		}
		merged = append(merged, oc.recs...)
	}
	if failures == len(batches) {
		return nil, firstErr
	}
	return merged, nil
}

// fetchOne handles a single batch: template resolution, the network call,
// then parsing. A resolution failure never reaches the sender.
func (f *Fetcher) fetchOne(ctx context.Context, b batch.Batch, spec ResourceSpec, opts Options) ([]model.Record, error) {
	req, values, err := resolve(spec, b, opts)
	if err != nil {
		return nil, err
	}
	body, err := f.sender.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return spec.Parse(body, values)
}
