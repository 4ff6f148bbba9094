package reconcile

import (
	"fmt"
	"time"

	"github.com/alinski29/stonks/internal/model"
)

// Series describes how stored records map onto logical series.
type Series struct {
	IDColumns  []string // one or two columns forming the identifier
	TimeColumn string   // empty when the record type has no time axis
}

// idKey is the comparable form of an identifier; the second element is empty
// for simple identifiers.
type idKey [2]string

type group struct {
	id      model.Identifier
	maxDate time.Time
	hasDate bool
}

// Plan compares what a store already holds against what was requested and
// returns the minimal directives needed to bring the store up to date.
//
// With no explicit request, every tracked series is refreshed from the day
// after its newest stored value up to refDate, and series without a time
// axis are refreshed in full. With an explicit request, unknown identifiers
// are fetched unbounded and tracked ones only if stale. A request in which
// every directive already carries a lower bound passes through verbatim.
//
// Plan performs no I/O; identical inputs yield identical output. A zero
// refDate defaults to the last business day.
func Plan(existing []model.Record, requested []model.Directive, s Series, refDate time.Time) ([]model.Directive, error) {
	if n := len(s.IDColumns); n < 1 || n > 2 {
		return nil, fmt.Errorf("reconcile: need 1 or 2 id columns, got %d", n)
	}
	if refDate.IsZero() {
		refDate = model.LastBusinessDay(time.Now())
	}

	if len(requested) > 0 && allBounded(requested) {
		out := make([]model.Directive, len(requested))
		copy(out, requested)
		return out, nil
	}

	groups, order := groupExisting(existing, s)

	if len(requested) == 0 {
		if len(existing) == 0 {
			return nil, nil
		}
		var out []model.Directive
		for _, key := range order {
			if d, ok := refresh(groups[key], s, refDate); ok {
				out = append(out, d)
			}
		}
		return out, nil
	}

	// Explicit request: refresh the tracked subset, bootstrap the rest.
	var tracked, fresh []model.Directive
	seen := make(map[idKey]bool, len(requested))
	for _, req := range requested {
		key := keyOf(req.ID)
		if seen[key] {
			continue
		}
		seen[key] = true
		g, ok := groups[key]
		if !ok {
			fresh = append(fresh, model.Directive{ID: req.ID})
			continue
		}
		if d, ok := refresh(g, s, refDate); ok {
			tracked = append(tracked, d)
		}
	}
	return append(tracked, fresh...), nil
}

// refresh decides whether one tracked series needs fetching and with which
// window. Series without a time axis, and series whose stored rows carry no
// time values, are refreshed in full.
func refresh(g group, s Series, refDate time.Time) (model.Directive, bool) {
	if s.TimeColumn == "" || !g.hasDate {
		return model.Directive{ID: g.id}, true
	}
	next := g.maxDate.AddDate(0, 0, 1)
	if !next.Before(refDate) {
		return model.Directive{}, false
	}
	return model.Directive{ID: g.id, From: &next, To: &refDate}, true
}

func groupExisting(existing []model.Record, s Series) (map[idKey]group, []idKey) {
	groups := make(map[idKey]group)
	var order []idKey
	for _, rec := range existing {
		id, ok := identify(rec, s.IDColumns)
		if !ok {
			continue
		}
		key := keyOf(id)
		g, tracked := groups[key]
		if !tracked {
			g = group{id: id}
			order = append(order, key)
		}
		if s.TimeColumn != "" {
			if ts, ok := rec.TimeAt(s.TimeColumn); ok {
				if !g.hasDate || ts.After(g.maxDate) {
					g.maxDate = ts
					g.hasDate = true
				}
			}
		}
		groups[key] = g
	}
	return groups, order
}

func identify(rec model.Record, idCols []string) (model.Identifier, bool) {
	base := rec.StringAt(idCols[0])
	if base == "" {
		return model.Identifier{}, false
	}
	if len(idCols) == 1 {
		return model.NewIdentifier(base), true
	}
	target := rec.StringAt(idCols[1])
	if target == "" {
		return model.Identifier{}, false
	}
	return model.NewPair(base, target), true
}

func keyOf(id model.Identifier) idKey {
	return idKey{id.Symbol, id.Target}
}

func allBounded(ds []model.Directive) bool {
	for _, d := range ds {
		if !d.Bounded() {
			return false
		}
	}
	return true
}
