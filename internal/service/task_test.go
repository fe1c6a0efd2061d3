package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook/daybook-go/internal/model"
	"github.com/daybook/daybook-go/internal/repository"
	"github.com/daybook/daybook-go/internal/streak"
)

type fakeTaskStore struct {
	tasks   map[string]model.Task
	listErr error
	from    time.Time
	to      time.Time
}

func newFakeTaskStore(tasks ...model.Task) *fakeTaskStore {
	f := &fakeTaskStore{tasks: map[string]model.Task{}}
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeTaskStore) Create(_ context.Context, task *model.Task) error {
	task.ID = "t-new"
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, userID, id string) (*model.Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrTaskNotFound
	}
	return &t, nil
}

func (f *fakeTaskStore) Update(_ context.Context, task *model.Task) error {
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, userID, id string) error {
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return repository.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) ListByUser(_ context.Context, userID string, from, to time.Time) ([]model.Task, error) {
	f.from, f.to = from, to
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Task
	for _, t := range f.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

var taskNow = time.Date(2026, 5, 14, 12, 0, 0, 0, time.UTC) // Thursday

func newTestTaskService(tasks *fakeTaskStore, streaks *fakeStreaks) *TaskService {
	svc := NewTaskService(tasks, streaks, time.UTC)
	svc.now = func() time.Time { return taskNow }
	return svc
}

func TestTaskCreateTriggersStreak(t *testing.T) {
	tasks := newFakeTaskStore()
	streaks := &fakeStreaks{res: streak.Result{Streak: 3, Updated: true}}
	svc := newTestTaskService(tasks, streaks)

	m, err := svc.Create(context.Background(), "u-1", model.TaskRequest{Title: "  Write report ", Start: taskNow})
	require.NoError(t, err)

	assert.Equal(t, "Write report", m.Task.Title)
	assert.Equal(t, model.StatusPending, m.Task.Status)
	assert.Equal(t, "u-1", m.Task.UserID)
	require.NotNil(t, m.Streak)
	assert.Equal(t, 3, m.Streak.Streak)
	assert.Equal(t, []string{"u-1"}, streaks.calls)
	assert.Contains(t, tasks.tasks, "t-new")
}

func TestTaskCreateSucceedsWhenStreakFails(t *testing.T) {
	tasks := newFakeTaskStore()
	svc := newTestTaskService(tasks, &fakeStreaks{err: repository.ErrUserNotFound})

	m, err := svc.Create(context.Background(), "u-1", model.TaskRequest{Title: "A", Start: taskNow})
	require.NoError(t, err)
	assert.Nil(t, m.Streak)
	assert.Contains(t, tasks.tasks, "t-new")
}

func TestTaskCreateValidation(t *testing.T) {
	before := taskNow.Add(-time.Hour)
	tests := []struct {
		name string
		req  model.TaskRequest
		want error
	}{
		{"missing title", model.TaskRequest{Title: " ", Start: taskNow}, ErrTitleRequired},
		{"missing start", model.TaskRequest{Title: "A"}, ErrStartRequired},
		{"end before start", model.TaskRequest{Title: "A", Start: taskNow, End: &before}, ErrInvalidRange},
		{"unknown status", model.TaskRequest{Title: "A", Start: taskNow, Status: "archived"}, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streaks := &fakeStreaks{}
			_, err := newTestTaskService(newFakeTaskStore(), streaks).Create(context.Background(), "u-1", tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, streaks.calls)
		})
	}
}

func TestTaskUpdate(t *testing.T) {
	tasks := newFakeTaskStore(model.Task{ID: "t-1", UserID: "u-1", Title: "Old", Start: taskNow, Status: model.StatusPending})
	streaks := &fakeStreaks{}
	svc := newTestTaskService(tasks, streaks)

	m, err := svc.Update(context.Background(), "u-1", "t-1", model.TaskRequest{Title: "New", Start: taskNow, Status: model.StatusDone})
	require.NoError(t, err)
	assert.Equal(t, "New", m.Task.Title)
	assert.Equal(t, model.StatusDone, tasks.tasks["t-1"].Status)
	assert.Equal(t, []string{"u-1"}, streaks.calls)
}

func TestTaskUpdateOtherUsersTask(t *testing.T) {
	tasks := newFakeTaskStore(model.Task{ID: "t-1", UserID: "u-1", Title: "Old", Start: taskNow})
	streaks := &fakeStreaks{}

	_, err := newTestTaskService(tasks, streaks).Update(context.Background(), "u-2", "t-1", model.TaskRequest{Title: "New", Start: taskNow})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Equal(t, "Old", tasks.tasks["t-1"].Title)
	assert.Empty(t, streaks.calls)
}

func TestTaskDeleteDoesNotTouchStreak(t *testing.T) {
	tasks := newFakeTaskStore(model.Task{ID: "t-1", UserID: "u-1"})
	streaks := &fakeStreaks{}
	svc := newTestTaskService(tasks, streaks)

	require.NoError(t, svc.Delete(context.Background(), "u-1", "t-1"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "u-1", "t-1"), ErrTaskNotFound)
	assert.Empty(t, streaks.calls)
}

func TestTaskList(t *testing.T) {
	tasks := newFakeTaskStore()
	svc := newTestTaskService(tasks, &fakeStreaks{})
	from := taskNow
	to := taskNow.AddDate(0, 1, 0)

	got, err := svc.List(context.Background(), "u-1", from, to)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, from, tasks.from)
	assert.Equal(t, to, tasks.to)

	_, err = svc.List(context.Background(), "u-1", to, from)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestTaskStats(t *testing.T) {
	at := func(days int, status model.TaskStatus) model.Task {
		return model.Task{UserID: "u-1", Start: taskNow.AddDate(0, 0, days), Status: status}
	}
	list := []model.Task{
		at(0, model.StatusDone),     // today
		at(0, model.StatusPending),  // today
		at(-4, model.StatusDone),    // Sunday May 10
		at(2, model.StatusProgress), // Saturday May 16
		at(-5, model.StatusStop),    // previous Saturday
		at(3, model.StatusPending),  // next Sunday
	}

	stats := computeStats(list, taskNow, time.UTC)
	assert.Equal(t, model.TaskStats{
		Total:          6,
		Done:           2,
		InProgress:     1,
		Pending:        2,
		Stopped:        1,
		CompletionRate: 33,
		Today:          2,
		ThisWeek:       4,
	}, stats)
}

func TestTaskStatsEmpty(t *testing.T) {
	assert.Equal(t, model.TaskStats{}, computeStats(nil, taskNow, time.UTC))
}

func TestTaskStatsStoreError(t *testing.T) {
	tasks := newFakeTaskStore()
	tasks.listErr = errors.New("db down")

	_, err := newTestTaskService(tasks, &fakeStreaks{}).Stats(context.Background(), "u-1")
	assert.Error(t, err)
}
