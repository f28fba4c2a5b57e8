package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/seantiz/lunar/internal/model"
	"github.com/seantiz/lunar/internal/task"
)

// Compile-time interface satisfaction check.
var _ task.Observer = (*Journal)(nil)

// Journal records task events from one engine into a Store. Failures to
// persist are logged and never affect the task.
type Journal struct {
	store  Store
	engine string
	logger *slog.Logger
}

// NewJournal creates a journal for the named engine.
func NewJournal(s Store, engine string, logger *slog.Logger) *Journal {
	return &Journal{store: s, engine: engine, logger: logger}
}

// Observe persists ev. A pending event creates the record; later events
// update its status.
func (j *Journal) Observe(ev task.Event) {
	ctx := context.Background()

	if ev.Status == model.StatusPending {
		rec := &model.TaskRecord{
			ID:          ev.TaskID,
			Name:        ev.Name,
			Engine:      j.engine,
			Status:      model.StatusPending,
			SubmittedAt: ev.SubmittedAt.UTC(),
		}
		if err := j.store.CreateTask(ctx, rec); err != nil {
			j.logger.Error("failed to record task", "task_id", ev.TaskID, "error", err)
		}
		return
	}

	at := ev.FinishedAt
	if ev.Status == model.StatusRunning {
		at = ev.StartedAt
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	u := StatusUpdate{ID: ev.TaskID, Status: ev.Status, At: at}
	if ev.Err != nil {
		u.Error = ev.Err.Error()
	}
	if err := j.store.UpdateTaskStatus(ctx, u); err != nil {
		j.logger.Error("failed to update task record", "task_id", ev.TaskID, "status", ev.Status, "error", err)
	}
}
