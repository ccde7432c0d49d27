package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chalkdoc/chalkdoc"
	"github.com/chalkdoc/chalkdoc/algebra"
	"github.com/chalkdoc/chalkdoc/internal/store"
)

const additionTemplate = `{
	"equation": "a+b=c",
	"variables": [
		{"symbol": "a", "min": -1, "max": 2},
		{"symbol": "b", "min": 1, "max": 2},
		{"symbol": "c", "min": 1, "max": 100}
	]
}`

func newTestServer(cfg Config) http.Handler {
	return New(cfg).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestGenerate_OK(t *testing.T) {
	h := newTestServer(Config{})
	w := do(t, h, http.MethodPost, "/generate", additionTemplate)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var res chalkdoc.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Count != 5 || len(res.Problems) != 5 {
		t.Errorf("want 5 problems, got %d", res.Count)
	}
	if res.Problems[0].Problem != "-1 + 2 = c" || res.Problems[0].Answer != "c = 1" {
		t.Errorf("unexpected first problem: %+v", res.Problems[0])
	}
}

func TestGenerate_Errors(t *testing.T) {
	h := newTestServer(Config{Generator: chalkdoc.New(chalkdoc.Options{MaxCandidates: 3})})
	cases := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{invalid-json}`, http.StatusBadRequest},
		{"unknown field", `{"equation": "a=b", "colour": "red"}`, http.StatusBadRequest},
		{"trailing data", `{"equation": "a=b"} {}`, http.StatusBadRequest},
		{"malformed", `{"equation": "a+b", "variables": [{"symbol": "a"}, {"symbol": "b"}]}`, http.StatusBadRequest},
		{"bad range", `{"equation": "a=b", "variables": [{"symbol": "a", "min": 2, "max": 1}, {"symbol": "b"}]}`, http.StatusBadRequest},
		{"too many", additionTemplate, http.StatusUnprocessableEntity},
	}
	for _, c := range cases {
		w := do(t, h, http.MethodPost, "/generate", c.body)
		if w.Code != c.code {
			t.Errorf("%s: expected %d, got %d: %s", c.name, c.code, w.Code, w.Body)
		}
		if !strings.Contains(w.Body.String(), `"error"`) {
			t.Errorf("%s: want an error body, got %s", c.name, w.Body)
		}
	}
}

func TestGenerate_MethodNotAllowed(t *testing.T) {
	h := newTestServer(Config{})
	w := do(t, h, http.MethodGet, "/generate", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

// countingSolver counts solver calls so tests can tell a cache hit from a run.
type countingSolver struct{ calls int }

func (c *countingSolver) SolveFor(e algebra.Expr, symbol string) algebra.SolveResult {
	c.calls++
	return chalkdoc.ExactSolver.SolveFor(e, symbol)
}

func TestGenerate_Cache(t *testing.T) {
	solver := &countingSolver{}
	h := newTestServer(Config{
		Generator: chalkdoc.New(chalkdoc.Options{Solver: solver}),
		Cache:     store.NewMemoryCache(),
		CacheTTL:  time.Minute,
	})
	first := do(t, h, http.MethodPost, "/generate", additionTemplate)
	calls := solver.calls
	second := do(t, h, http.MethodPost, "/generate", additionTemplate)

	if first.Header().Get("X-Cache") != "miss" || second.Header().Get("X-Cache") != "hit" {
		t.Errorf("want miss then hit, got %q then %q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if solver.calls != calls {
		t.Error("cached request must not run the solver")
	}
	if first.Body.String() != second.Body.String() {
		t.Error("cached body differs from the generated one")
	}
}

func TestTopics_CreateAndGet(t *testing.T) {
	h := newTestServer(Config{Store: store.NewMemoryStore()})
	body := `{"topic": "Addition", "instructions": "Solve for c.", "categories": ["arithmetic"],` + additionTemplate[1:]
	w := do(t, h, http.MethodPost, "/topics", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}
	var created struct {
		ID    string `json:"id"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Count != 5 {
		t.Fatalf("unexpected create response: %s", w.Body)
	}

	w = do(t, h, http.MethodGet, "/topics/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var topic chalkdoc.Topic
	if err := json.Unmarshal(w.Body.Bytes(), &topic); err != nil {
		t.Fatal(err)
	}
	if topic.ID != created.ID || topic.Topic != "Addition" || len(topic.Problems) != 5 {
		t.Errorf("unexpected topic: %+v", topic)
	}
}

func TestTopics_Errors(t *testing.T) {
	h := newTestServer(Config{})
	if w := do(t, h, http.MethodGet, "/topics/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/topics", additionTemplate); w.Code != http.StatusBadRequest {
		t.Errorf("missing topic name: expected 400, got %d", w.Code)
	}
}

type failingStore struct{ store.TopicStore }

func (failingStore) Save(context.Context, *chalkdoc.Topic) (string, error) {
	return "", errors.New("disk full")
}

func TestTopics_StoreFailure(t *testing.T) {
	h := newTestServer(Config{Store: failingStore{}})
	body := `{"topic": "Addition",` + additionTemplate[1:]
	if w := do(t, h, http.MethodPost, "/topics", body); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestTool(t *testing.T) {
	h := newTestServer(Config{})
	w := do(t, h, http.MethodPost, "/tool", `{"tool": "detect_variables", "params": {"equation": "ax+b=c"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var resp chalkdoc.ToolResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.String != "a, b, c, x" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSchemaAndHealth(t *testing.T) {
	h := newTestServer(Config{})
	w := do(t, h, http.MethodGet, "/schema", "")
	if w.Code != http.StatusOK || !json.Valid(w.Body.Bytes()) {
		t.Errorf("schema: got %d %s", w.Code, w.Body)
	}
	w = do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health: got %d %s", w.Code, w.Body)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(2, time.Hour)
	defer limiter.Stop()
	h := newTestServer(Config{Limiter: limiter})

	body := `{"tool": "tool_spec"}`
	for i := 0; i < 2; i++ {
		if w := do(t, h, http.MethodPost, "/tool", body); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	if w := do(t, h, http.MethodPost, "/tool", body); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("read-only routes are not limited, got %d", w.Code)
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	now := time.Unix(0, 0)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("a") || limiter.Allow("a") {
		t.Fatal("want one request per window")
	}
	if !limiter.Allow("b") {
		t.Error("clients have separate buckets")
	}
	now = now.Add(time.Minute)
	if !limiter.Allow("a") {
		t.Error("bucket should refill after the window")
	}
	now = now.Add(2 * time.Hour)
	limiter.cleanup()
	if len(limiter.clients) != 0 {
		t.Errorf("idle buckets should be removed, have %d", len(limiter.clients))
	}
	limiter.Stop()
}

type panicSolver struct{}

func (panicSolver) SolveFor(algebra.Expr, string) algebra.SolveResult { panic("boom") }

func TestRecoverPanics(t *testing.T) {
	h := newTestServer(Config{Generator: chalkdoc.New(chalkdoc.Options{Solver: panicSolver{}})})
	w := do(t, h, http.MethodPost, "/generate", additionTemplate)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
