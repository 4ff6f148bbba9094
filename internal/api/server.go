package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alinski29/stonks/internal/model"
	"github.com/alinski29/stonks/internal/store"
)

// Server is the read-only HTTP API over the configured stores. It owns no
// mutable state; every request reads through a store handle.
type Server struct {
	stores map[string]store.Store
	router chi.Router
	port   int
}

// NewServer builds the router over stores keyed by record type name.
func NewServer(stores map[string]store.Store, port int) *Server {
	srv := &Server{
		stores: stores,
		port:   port,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", srv.handleHealth)
		r.Get("/records", srv.handleGetRecords)
		r.Get("/symbols", srv.handleGetSymbols)
	})

	srv.router = r
	return srv
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("starting HTTP API", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	types := make([]string, 0, len(s.stores))
	for name := range s.stores {
		types = append(types, name)
	}
	sort.Strings(types)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "stonks",
		"stores":  types,
	})
}

// selectStore resolves the store a request addresses. The type parameter is
// optional when exactly one store is configured.
func (s *Server) selectStore(w http.ResponseWriter, r *http.Request) (store.Store, bool) {
	name := r.URL.Query().Get("type")
	if name == "" {
		if len(s.stores) == 1 {
			for _, st := range s.stores {
				return st, true
			}
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type is required"})
		return nil, false
	}
	st, ok := s.stores[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("no store for type %q", name)})
		return nil, false
	}
	return st, true
}

func (s *Server) handleGetRecords(w http.ResponseWriter, r *http.Request) {
	st, ok := s.selectStore(w, r)
	if !ok {
		return
	}

	var filter map[string][]string
	for key, vals := range r.URL.Query() {
		if key == "type" {
			continue
		}
		if filter == nil {
			filter = make(map[string][]string)
		}
		for _, v := range vals {
			for _, part := range strings.Split(v, ",") {
				if part != "" {
					filter[key] = append(filter[key], part)
				}
			}
		}
	}

	recs, err := st.Load(filter)
	if err != nil {
		if errors.Is(err, store.ErrUnknownFilterColumn) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("load records failed", "type", st.RecordType().Name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, recordRows(st.RecordType(), recs))
}

func (s *Server) handleGetSymbols(w http.ResponseWriter, r *http.Request) {
	st, ok := s.selectStore(w, r)
	if !ok {
		return
	}

	recs, err := st.Load(nil)
	if err != nil {
		slog.Error("load symbols failed", "type", st.RecordType().Name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	cols := st.IDColumns()
	seen := make(map[string]struct{})
	symbols := make([]string, 0)
	for _, rec := range recs {
		parts := make([]string, len(cols))
		for i, col := range cols {
			parts[i] = rec.StringAt(col)
		}
		key := strings.Join(parts, "/")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		symbols = append(symbols, key)
	}
	sort.Strings(symbols)

	writeJSON(w, http.StatusOK, symbols)
}

// recordRows renders records for JSON with date fields in YYYY-MM-DD form
// instead of RFC 3339 timestamps.
func recordRows(rt *model.RecordType, recs []model.Record) []map[string]any {
	rows := make([]map[string]any, len(recs))
	for i, rec := range recs {
		row := make(map[string]any, len(rec))
		for _, f := range rt.Fields {
			v, ok := rec[f.Name]
			if !ok {
				continue
			}
			if t, isTime := v.(time.Time); isTime {
				row[f.Name] = t.Format(model.DateLayout)
				continue
			}
			row[f.Name] = v
		}
		rows[i] = row
	}
	return rows
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
