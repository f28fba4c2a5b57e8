package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/seantiz/lunar/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeTestRecord() *model.TaskRecord {
	return &model.TaskRecord{
		ID:          model.NewID(),
		Name:        "probe",
		Engine:      "pool",
		Status:      model.StatusPending,
		SubmittedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := makeTestRecord()

	if err := s.CreateTask(ctx, r); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := s.GetTask(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}

	if got.ID != r.ID {
		t.Errorf("ID = %q, want %q", got.ID, r.ID)
	}
	if got.Name != r.Name {
		t.Errorf("Name = %q, want %q", got.Name, r.Name)
	}
	if got.Engine != r.Engine {
		t.Errorf("Engine = %q, want %q", got.Engine, r.Engine)
	}
	if got.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusPending)
	}
	if !got.SubmittedAt.Equal(r.SubmittedAt) {
		t.Errorf("SubmittedAt = %v, want %v", got.SubmittedAt, r.SubmittedAt)
	}
	if got.StartedAt != nil || got.FinishedAt != nil || got.DurationMS != nil {
		t.Error("new record should have no start, finish or duration")
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTask(context.Background(), "nonexistent")
	if err != ErrNotFound {
		t.Errorf("GetTask error = %v, want ErrNotFound", err)
	}
}

func TestListTasksPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := range 5 {
		r := makeTestRecord()
		r.Name = fmt.Sprintf("task-%d", i)
		r.SubmittedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.CreateTask(ctx, r); err != nil {
			t.Fatalf("CreateTask(%d): %v", i, err)
		}
	}

	page, total, err := s.ListTasks(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Fatalf("len(page) = %d, want 2", len(page))
	}
	if page[0].Name != "task-4" || page[1].Name != "task-3" {
		t.Errorf("page = [%s %s], want newest first [task-4 task-3]", page[0].Name, page[1].Name)
	}

	last, _, err := s.ListTasks(ctx, 2, 4)
	if err != nil {
		t.Fatalf("ListTasks offset 4: %v", err)
	}
	if len(last) != 1 || last[0].Name != "task-0" {
		t.Errorf("last page = %v, want [task-0]", last)
	}
}

func TestListTasksEmpty(t *testing.T) {
	s := newTestStore(t)

	records, total, err := s.ListTasks(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestUpdateTaskStatusLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := makeTestRecord()
	if err := s.CreateTask(ctx, r); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	started := r.SubmittedAt.Add(time.Second)
	if err := s.UpdateTaskStatus(ctx, StatusUpdate{ID: r.ID, Status: model.StatusRunning, At: started}); err != nil {
		t.Fatalf("pending → running: %v", err)
	}
	got, _ := s.GetTask(ctx, r.ID)
	if got.StartedAt == nil {
		t.Fatal("StartedAt should be set on running")
	}
	if got.FinishedAt != nil {
		t.Error("FinishedAt should not be set on running")
	}

	finished := started.Add(250 * time.Millisecond)
	if err := s.UpdateTaskStatus(ctx, StatusUpdate{ID: r.ID, Status: model.StatusCompleted, At: finished}); err != nil {
		t.Fatalf("running → completed: %v", err)
	}
	got, _ = s.GetTask(ctx, r.ID)
	if got.Status != model.StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusCompleted)
	}
	if got.FinishedAt == nil {
		t.Fatal("FinishedAt should be set on completed")
	}
	if got.DurationMS == nil || *got.DurationMS != 250 {
		t.Errorf("DurationMS = %v, want 250", got.DurationMS)
	}
}

func TestUpdateTaskStatusFailedRecordsError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := makeTestRecord()
	s.CreateTask(ctx, r)

	now := time.Now().UTC()
	s.UpdateTaskStatus(ctx, StatusUpdate{ID: r.ID, Status: model.StatusRunning, At: now})
	if err := s.UpdateTaskStatus(ctx, StatusUpdate{
		ID: r.ID, Status: model.StatusFailed, Error: "boom", At: now.Add(time.Millisecond),
	}); err != nil {
		t.Fatalf("running → failed: %v", err)
	}

	got, _ := s.GetTask(ctx, r.ID)
	if got.Error != "boom" {
		t.Errorf("Error = %q, want %q", got.Error, "boom")
	}
}

func TestUpdateTaskStatusCancelledWhilePending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := makeTestRecord()
	s.CreateTask(ctx, r)

	if err := s.UpdateTaskStatus(ctx, StatusUpdate{
		ID: r.ID, Status: model.StatusCancelled, Error: "task cancelled", At: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("pending → cancelled: %v", err)
	}

	got, _ := s.GetTask(ctx, r.ID)
	if got.FinishedAt == nil {
		t.Error("FinishedAt should be set on cancelled")
	}
	if got.DurationMS != nil {
		t.Errorf("DurationMS = %d, want nil for a task that never started", *got.DurationMS)
	}
}

func TestUpdateTaskStatusNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateTaskStatus(context.Background(), StatusUpdate{ID: "nonexistent", Status: model.StatusRunning})
	if err != ErrNotFound {
		t.Errorf("UpdateTaskStatus error = %v, want ErrNotFound", err)
	}
}

func TestUpdateTaskStatusInvalidTransition(t *testing.T) {
	tests := []struct {
		name  string
		setup []string
		to    string
	}{
		{"pending to completed", nil, model.StatusCompleted},
		{"pending to failed", nil, model.StatusFailed},
		{"running to pending", []string{model.StatusRunning}, model.StatusPending},
		{"completed to running", []string{model.StatusRunning, model.StatusCompleted}, model.StatusRunning},
		{"cancelled to cancelled", []string{model.StatusCancelled}, model.StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()
			r := makeTestRecord()
			s.CreateTask(ctx, r)

			for _, st := range tt.setup {
				if err := s.UpdateTaskStatus(ctx, StatusUpdate{ID: r.ID, Status: st, At: time.Now().UTC()}); err != nil {
					t.Fatalf("setup → %s: %v", st, err)
				}
			}

			err := s.UpdateTaskStatus(ctx, StatusUpdate{ID: r.ID, Status: tt.to, At: time.Now().UTC()})
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestGetTaskStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	statuses := []string{model.StatusCompleted, model.StatusCompleted, model.StatusFailed, model.StatusPending}
	for i, st := range statuses {
		r := makeTestRecord()
		if i == 2 {
			r.Engine = "serial"
		}
		s.CreateTask(ctx, r)
		if st == model.StatusPending {
			continue
		}
		start := time.Now().UTC()
		s.UpdateTaskStatus(ctx, StatusUpdate{ID: r.ID, Status: model.StatusRunning, At: start})
		s.UpdateTaskStatus(ctx, StatusUpdate{ID: r.ID, Status: st, At: start.Add(time.Duration(100*(i+1)) * time.Millisecond)})
	}

	stats, err := s.GetTaskStats(ctx)
	if err != nil {
		t.Fatalf("GetTaskStats: %v", err)
	}

	if stats.Total != 4 {
		t.Errorf("Total = %d, want 4", stats.Total)
	}
	if stats.CountByStatus[model.StatusCompleted] != 2 {
		t.Errorf("completed = %d, want 2", stats.CountByStatus[model.StatusCompleted])
	}
	if stats.CountByStatus[model.StatusFailed] != 1 {
		t.Errorf("failed = %d, want 1", stats.CountByStatus[model.StatusFailed])
	}
	if stats.CountByEngine["pool"] != 3 || stats.CountByEngine["serial"] != 1 {
		t.Errorf("CountByEngine = %v, want pool:3 serial:1", stats.CountByEngine)
	}
	// Durations are 100, 200 and 300 ms.
	if stats.AvgDurationMS != 200 {
		t.Errorf("AvgDurationMS = %v, want 200", stats.AvgDurationMS)
	}
}

func TestGetTaskStatsEmpty(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.GetTaskStats(context.Background())
	if err != nil {
		t.Fatalf("GetTaskStats: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("Total = %d, want 0", stats.Total)
	}
	if stats.AvgDurationMS != 0 {
		t.Errorf("AvgDurationMS = %v, want 0", stats.AvgDurationMS)
	}
}

func TestMigrationIdempotency(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.db.Exec(createTasksTable); err != nil {
		t.Fatalf("re-running migration: %v", err)
	}
}
