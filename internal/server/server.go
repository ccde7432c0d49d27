// Package server exposes problem generation over HTTP.
//
//	POST /generate     generate problems for a template
//	POST /topics       generate and save a topic
//	GET  /topics/{id}  fetch a saved topic
//	POST /tool         execute a tool call
//	GET  /schema       tool schema for agent registration
//	GET  /health       liveness check
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/chalkdoc/chalkdoc"
	"github.com/chalkdoc/chalkdoc/internal/store"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type Config struct {
	Generator *chalkdoc.Generator
	Store     store.TopicStore
	// Cache is optional; nil disables result caching.
	Cache    store.Cache
	CacheTTL time.Duration
	// Limiter is optional; nil disables rate limiting.
	Limiter *RateLimiter
	Logger  *log.Logger
}

type Server struct {
	gen      *chalkdoc.Generator
	store    store.TopicStore
	cache    store.Cache
	cacheTTL time.Duration
	limiter  *RateLimiter
	logger   *log.Logger
}

func New(cfg Config) *Server {
	s := &Server{
		gen:      cfg.Generator,
		store:    cfg.Store,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		limiter:  cfg.Limiter,
		logger:   cfg.Logger,
	}
	if s.gen == nil {
		s.gen = chalkdoc.New(chalkdoc.Options{})
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	return s
}

// Handler returns the routed handler with panic recovery applied.
func (s *Server) Handler() http.Handler {
	limited := func(h http.HandlerFunc) http.Handler {
		if s.limiter == nil {
			return h
		}
		return rateLimit(s.limiter, h)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /generate", limited(s.handleGenerate))
	mux.Handle("POST /topics", limited(s.handleCreateTopic))
	mux.HandleFunc("GET /topics/{id}", s.handleGetTopic)
	mux.Handle("POST /tool", limited(s.handleTool))
	mux.HandleFunc("GET /schema", s.handleSchema)
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.recoverPanics(mux)
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Printf("panic in %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// decode reads exactly one JSON value into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON: trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a generation or store error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chalkdoc.ErrTooManyCandidates):
		return http.StatusUnprocessableEntity
	case chalkdoc.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, status, err.Error())
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var tmpl chalkdoc.Template
	if err := decode(w, r, &tmpl); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := tmpl.Key()
	if s.cache != nil {
		if b, ok := s.cache.Get(r.Context(), key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			_, _ = w.Write(b)
			return
		}
	}

	res, err := s.gen.Generate(r.Context(), tmpl)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.cache != nil {
		if err := s.cache.Set(r.Context(), key, b, s.cacheTTL); err != nil {
			s.logger.Printf("cache set %s: %v", key, err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	_, _ = w.Write(b)
}

func (s *Server) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	var in chalkdoc.TopicInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	topic, err := chalkdoc.BuildTopic(r.Context(), s.gen, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.store.Save(r.Context(), topic)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Printf("saved topic %s (%q, %d problems)", id, topic.Topic, topic.Count)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "count": topic.Count})
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	var req chalkdoc.ToolRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.gen.HandleToolCall(r.Context(), req))
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, chalkdoc.ToolSpec())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
