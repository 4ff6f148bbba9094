package provider

import (
	"fmt"
	"strconv"
	"time"

	"github.com/alinski29/stonks/internal/model"
)

// ParseError reports a malformed or incomplete provider response. It fails
// the batch that produced it but never its siblings.
type ParseError struct {
	Resource string
	Detail   string
	Err      error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse %s response: %s", e.Resource, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Settings tunes one provider's registered resources.
type Settings struct {
	Token        string
	Priority     int
	MaxBatchSize int
	MaxRetries   int
}

// window is the optional date filter a request was resolved with. Providers
// that cannot take date bounds server-side apply it to the parsed rows.
type window struct {
	from, to *time.Time
}

func windowOf(params map[string]string) window {
	var w window
	if s, ok := params["from"]; ok {
		if d, err := time.Parse(model.DateLayout, s); err == nil {
			d = d.UTC()
			w.from = &d
		}
	}
	if s, ok := params["to"]; ok {
		if d, err := time.Parse(model.DateLayout, s); err == nil {
			d = d.UTC()
			w.to = &d
		}
	}
	return w
}

func (w window) contains(d time.Time) bool {
	if w.from != nil && d.Before(*w.from) {
		return false
	}
	if w.to != nil && d.After(*w.to) {
		return false
	}
	return true
}

func floatField(row map[string]string, key string) (float64, bool) {
	v, err := strconv.ParseFloat(row[key], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func intField(row map[string]string, key string) (int64, bool) {
	v, err := strconv.ParseInt(row[key], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
