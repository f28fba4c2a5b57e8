package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/seantiz/lunar/internal/engine"
	"github.com/seantiz/lunar/internal/engine/pool"
	"github.com/seantiz/lunar/internal/events"
	"github.com/seantiz/lunar/internal/executor"
	"github.com/seantiz/lunar/internal/store"
	"github.com/seantiz/lunar/internal/task"
)

const serialEngine = "serial"

// newTestServer wires a server over an in-memory store and two journaled
// engines: the default pool and a single-worker serial engine.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	broker := events.NewBroker()

	newPool := func(name string, workers int) *pool.Pool {
		p := pool.New(
			pool.WithName(name),
			pool.WithWorkers(workers),
			pool.WithLogger(logger),
			pool.WithObserver(task.Observers{store.NewJournal(s, name, logger), broker}),
		)
		t.Cleanup(func() { p.ShutdownNow() })
		return p
	}

	reg := engine.NewRegistry()
	reg.Register(pool.DefaultName, newPool(pool.DefaultName, 2))
	reg.Register(serialEngine, newPool(serialEngine, 1))

	def, err := reg.Resolve(engine.NameDefault)
	if err != nil {
		t.Fatalf("Resolve default: %v", err)
	}

	return NewServer(":0", executor.New(def, logger), reg, s, broker, logger)
}

func TestRequestIDInContext(t *testing.T) {
	srv := newTestServer(t)
	srv.Router().Get("/test", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, middleware.GetReqID(r.Context()))
	})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	if err != nil {
		t.Fatalf("GET /test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		t.Error("request ID missing from request context")
	}
}

func TestPanicRecovery(t *testing.T) {
	srv := newTestServer(t)
	srv.Router().Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/panic")
	if err != nil {
		t.Fatalf("GET /panic: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t)
	srv.Router().Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	req, _ := http.NewRequest("OPTIONS", ts.URL+"/test", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS /test: %v", err)
	}
	defer resp.Body.Close()

	if v := resp.Header.Get("Access-Control-Allow-Origin"); v != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", v, "*")
	}
}
