package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/alinski29/stonks/internal/fetch"
	"github.com/alinski29/stonks/internal/model"
	"github.com/alinski29/stonks/internal/provider"
	"github.com/alinski29/stonks/internal/reconcile"
	"github.com/alinski29/stonks/internal/store"
	"github.com/alinski29/stonks/internal/transport"
)

// Updater wires the pipeline together: load what a store holds, reconcile it
// against the request, fetch the missing windows from the best provider, fold
// the results into the touched partitions and save them atomically.
type Updater struct {
	registry *provider.Registry
	fetcher  *fetch.Fetcher
	now      func() time.Time
}

func New(registry *provider.Registry, sender transport.Sender) *Updater {
	return &Updater{
		registry: registry,
		fetcher:  fetch.New(sender),
		now:      time.Now,
	}
}

// Update brings one store up to date. With requested identifiers it tracks
// new series and refreshes stale tracked ones; without, it refreshes every
// series the store already tracks. It returns the number of fetched records
// folded in; a store that is already current is a no-op.
func (u *Updater) Update(ctx context.Context, st store.Store, requested []model.Directive) (int, error) {
	existing, err := st.Load(nil)
	if err != nil {
		return 0, err
	}

	series := reconcile.Series{IDColumns: st.IDColumns(), TimeColumn: st.TimeColumn()}
	plan, err := reconcile.Plan(existing, requested, series, model.LastBusinessDay(u.now()))
	if err != nil {
		return 0, err
	}
	if len(plan) == 0 {
		slog.Info("store up to date", "path", st.Path(), "type", st.RecordType().Name)
		return 0, nil
	}

	spec, err := u.registry.Select(st.RecordType())
	if err != nil {
		return 0, err
	}
	slog.Info("fetching records",
		"resource", spec.Name, "type", st.RecordType().Name, "directives", len(plan))

	fetched, err := u.fetcher.Fetch(ctx, plan, spec, fetch.Options{})
	if err != nil {
		return 0, err
	}
	if len(fetched) == 0 {
		slog.Warn("fetch returned no records", "resource", spec.Name, "directives", len(plan))
		return 0, nil
	}

	merged, err := merge(existing, fetched, st)
	if err != nil {
		return 0, err
	}
	if err := st.Save(merged); err != nil {
		return 0, err
	}

	slog.Info("store updated",
		"path", st.Path(), "type", st.RecordType().Name,
		"fetched", len(fetched), "saved", len(merged))
	return len(fetched), nil
}
