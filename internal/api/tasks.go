package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/seantiz/lunar/internal/engine"
	"github.com/seantiz/lunar/internal/executor"
	"github.com/seantiz/lunar/internal/model"
	"github.com/seantiz/lunar/internal/store"
	"github.com/seantiz/lunar/internal/task"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodySize      = 1 << 20 // 1 MB
	maxProbeDelay    = time.Minute
	defaultProbeName = "probe"
)

var errProbeFailed = errors.New("probe failed on request")

// createTaskRequest is the JSON body for POST /v1/tasks.
type createTaskRequest struct {
	Name    string `json:"name"`
	Engine  string `json:"engine"`
	DelayMS int    `json:"delay_ms"`
	Fail    bool   `json:"fail"`
}

// taskResponse describes a submitted probe task.
type taskResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Engine string `json:"engine"`
	Status string `json:"status"`
	Result *int   `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// listTasksResponse wraps the paginated list response.
type listTasksResponse struct {
	Tasks  []*model.TaskRecord `json:"tasks"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// probe returns a task that waits for delay, honoring cancellation, then
// either fails or reports the delay it waited in milliseconds.
func probe(delay time.Duration, fail bool) task.Callable[int] {
	return func(ctx context.Context) (int, error) {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
		if fail {
			return 0, errProbeFailed
		}
		return int(delay.Milliseconds()), nil
	}
}

// executorFor returns the server's executor, or a fresh one over the named
// registered engine.
func (s *Server) executorFor(name string) (*executor.Executor, error) {
	if name == "" {
		return s.exec, nil
	}
	e, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	return executor.New(e, s.logger), nil
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	delay := time.Duration(req.DelayMS) * time.Millisecond
	if req.DelayMS < 0 || delay > maxProbeDelay {
		s.writeError(w, http.StatusBadRequest, "delay_ms must be between 0 and "+strconv.FormatInt(maxProbeDelay.Milliseconds(), 10))
		return
	}
	if req.Name == "" {
		req.Name = defaultProbeName
	}

	x, err := s.executorFor(req.Engine)
	if errors.Is(err, engine.ErrUnknownEngine) {
		s.writeError(w, http.StatusBadRequest, "unknown engine")
		return
	}
	if err != nil {
		s.logger.Error("resolve engine", "engine", req.Engine, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to resolve engine")
		return
	}

	h, err := executor.SubmitNamed(x, req.Name, probe(delay, req.Fail))
	switch {
	case errors.Is(err, task.ErrQueueFull):
		s.writeError(w, http.StatusTooManyRequests, "engine queue is full")
		return
	case errors.Is(err, task.ErrRejected):
		s.writeError(w, http.StatusServiceUnavailable, "engine is not accepting tasks")
		return
	case err != nil:
		s.logger.Error("submit probe task", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to submit task")
		return
	}

	resp := taskResponse{
		ID:     h.ID(),
		Name:   req.Name,
		Engine: x.Capabilities().Name,
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		resp.Status = h.Status()
		s.writeJSON(w, http.StatusAccepted, resp)
		return
	}

	v, err := h.Get(r.Context())
	resp.Status = h.Status()
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Result = &v
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.store.GetTask(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.logger.Error("get task", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	records, total, err := s.store.ListTasks(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list tasks", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	if records == nil {
		records = []*model.TaskRecord{}
	}

	s.writeJSON(w, http.StatusOK, listTasksResponse{
		Tasks:  records,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}
