package leads

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/leadscout/kit"
	"github.com/hazyhaar/leadscout/shield"
)

// Router returns the read-only HTTP API:
//
//	GET /healthz
//	GET /leads?min_score=N&limit=N
//	GET /leads/{url}        url is path-escaped
//	GET /runs?limit=N
//	GET /runs/{id}
//	GET /stats
//	GET /metrics
func (s *Service) Router() http.Handler {
	reg, m := s.newRegistry()
	eps := s.newEndpoints()

	r := chi.NewRouter()
	for _, mw := range shield.APIStack(s.logger, s.limiter) {
		r.Use(mw)
	}
	r.Use(m.middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/leads", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			minScore, err := queryIntStrict(r, "min_score", 0)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			serve(w, r, eps.ranked, &rankedRequest{MinScore: minScore, Limit: queryInt(r, "limit", 0)})
		})
		r.Get("/{url}", func(w http.ResponseWriter, r *http.Request) {
			raw, err := url.PathUnescape(chi.URLParam(r, "url"))
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrInvalidInput, err))
				return
			}
			serve(w, r, eps.get, &getRequest{URL: raw})
		})
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			serve(w, r, eps.runs, &runsRequest{Limit: queryInt(r, "limit", 20)})
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			serve(w, r, eps.run, &runRequest{ID: chi.URLParam(r, "id")})
		})
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, eps.stats, &statsRequest{})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return r
}

// serve calls ep with the request context and writes its response as JSON.
func serve(w http.ResponseWriter, r *http.Request, ep kit.Endpoint, req any) {
	resp, err := ep(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// queryIntStrict is queryInt for parameters where a malformed value must be
// reported rather than silently replaced.
func queryIntStrict(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidInput, key, s)
	}
	return v, nil
}
