package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/seantiz/lunar/internal/model"
	"github.com/seantiz/lunar/internal/store"
	"github.com/seantiz/lunar/internal/task"
)

// eventPayload is the JSON data of one SSE status event.
type eventPayload struct {
	TaskID string    `json:"task_id"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

func payloadFromEvent(ev task.Event) eventPayload {
	p := eventPayload{TaskID: ev.TaskID, Name: ev.Name, Status: ev.Status}
	switch {
	case model.IsTerminal(ev.Status):
		p.At = ev.FinishedAt
	case ev.Status == model.StatusRunning:
		p.At = ev.StartedAt
	default:
		p.At = ev.SubmittedAt
	}
	if ev.Err != nil {
		p.Error = ev.Err.Error()
	}
	return p
}

func payloadFromRecord(rec *model.TaskRecord) eventPayload {
	p := eventPayload{TaskID: rec.ID, Name: rec.Name, Status: rec.Status, Error: rec.Error, At: rec.SubmittedAt}
	if rec.FinishedAt != nil {
		p.At = *rec.FinishedAt
	}
	return p
}

func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.store.GetTask(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.logger.Error("get task for events", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, canFlush := w.(http.Flusher)

	// A finished task gets its final status and the done event.
	if model.IsTerminal(rec.Status) {
		w.WriteHeader(http.StatusOK)
		_ = writeSSEData(w, payloadFromRecord(rec))
		_ = writeSSEEvent(w, "done", "stream complete")
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Error("set write deadline for SSE", "error", err)
	}

	// Subscribe on a topic that closed after the lookup above returns a
	// closed channel, so the loop below still ends.
	ch, unsub := s.broker.Subscribe(id)
	defer unsub()

	w.WriteHeader(http.StatusOK)
	if canFlush {
		flusher.Flush()
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				_ = writeSSEEvent(w, "done", "stream complete")
				if canFlush {
					flusher.Flush()
				}
				return
			}
			if err := writeSSEData(w, payloadFromEvent(ev)); err != nil {
				return
			}
			if canFlush {
				flusher.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

// writeSSEData writes v as a single JSON SSE data event.
func writeSSEData(w http.ResponseWriter, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}

// writeSSEEvent writes a named SSE event (event: <type>\ndata: <data>\n\n).
func writeSSEEvent(w http.ResponseWriter, eventType, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return nil
}
