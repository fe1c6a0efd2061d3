package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/daybook/daybook-go/internal/model"
	"github.com/daybook/daybook-go/internal/repository"
	"github.com/daybook/daybook-go/internal/streak"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrStartRequired = errors.New("start is required")
	ErrInvalidStatus = errors.New("status must be one of pending, progress, done, stop")
	ErrInvalidRange  = errors.New("end must not be before start")
	ErrTaskNotFound  = errors.New("task not found")
)

// TaskStore is the task persistence used by TaskService.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, userID, id string) (*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, userID, id string) error
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]model.Task, error)
}

// TaskMutation is the result of a task create or update. Streak is nil when
// the streak update failed.
type TaskMutation struct {
	Task   *model.Task
	Streak *streak.Result
}

// TaskService handles calendar task business logic.
type TaskService struct {
	tasks   TaskStore
	streaks StreakUpdater
	loc     *time.Location
	now     func() time.Time
}

// NewTaskService creates a new TaskService. Day and week boundaries for
// statistics are taken in loc.
func NewTaskService(tasks TaskStore, streaks StreakUpdater, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.Local
	}
	return &TaskService{tasks: tasks, streaks: streaks, loc: loc, now: time.Now}
}

// Create adds a task for userID and records streak activity.
func (s *TaskService) Create(ctx context.Context, userID string, req model.TaskRequest) (TaskMutation, error) {
	if err := normalizeTaskRequest(&req); err != nil {
		return TaskMutation{}, err
	}

	task := &model.Task{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Start:       req.Start,
		End:         req.End,
		AllDay:      req.AllDay,
		Status:      req.Status,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return TaskMutation{}, err
	}
	now := s.now().UTC()
	task.CreatedAt, task.UpdatedAt = now, now

	return TaskMutation{Task: task, Streak: s.touchStreak(ctx, userID, "task_create")}, nil
}

// Update replaces the editable fields of a task owned by userID and records
// streak activity.
func (s *TaskService) Update(ctx context.Context, userID, id string, req model.TaskRequest) (TaskMutation, error) {
	if err := normalizeTaskRequest(&req); err != nil {
		return TaskMutation{}, err
	}

	task, err := s.tasks.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return TaskMutation{}, ErrTaskNotFound
		}
		return TaskMutation{}, err
	}

	task.Title = req.Title
	task.Description = req.Description
	task.Start = req.Start
	task.End = req.End
	task.AllDay = req.AllDay
	task.Status = req.Status
	if err := s.tasks.Update(ctx, task); err != nil {
		return TaskMutation{}, err
	}
	task.UpdatedAt = s.now().UTC()

	return TaskMutation{Task: task, Streak: s.touchStreak(ctx, userID, "task_update")}, nil
}

// Delete removes a task owned by userID. Deleting is not streak activity.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if err := s.tasks.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

// List returns the tasks of userID starting in [from, to). Zero bounds are
// open.
func (s *TaskService) List(ctx context.Context, userID string, from, to time.Time) ([]model.Task, error) {
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return nil, ErrInvalidRange
	}
	tasks, err := s.tasks.ListByUser(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// Stats summarises all tasks of userID.
func (s *TaskService) Stats(ctx context.Context, userID string) (model.TaskStats, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return model.TaskStats{}, err
	}
	return computeStats(tasks, s.now(), s.loc), nil
}

func (s *TaskService) touchStreak(ctx context.Context, userID, trigger string) *streak.Result {
	res, err := s.streaks.Update(ctx, userID)
	if err != nil {
		slog.Warn("streak update failed", "user_id", userID, "trigger", trigger, "error", err)
		return nil
	}
	return &res
}

func normalizeTaskRequest(req *model.TaskRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return ErrTitleRequired
	}
	if req.Start.IsZero() {
		return ErrStartRequired
	}
	if req.End != nil && req.End.Before(req.Start) {
		return ErrInvalidRange
	}
	if req.Status == "" {
		req.Status = model.StatusPending
	}
	if !req.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// computeStats counts tasks per status, tasks starting today and tasks
// starting in the current Sunday-based week, all in loc.
func computeStats(tasks []model.Task, now time.Time, loc *time.Location) model.TaskStats {
	now = now.In(loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	weekStart := dayStart.AddDate(0, 0, -int(now.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 7)

	stats := model.TaskStats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case model.StatusDone:
			stats.Done++
		case model.StatusProgress:
			stats.InProgress++
		case model.StatusPending:
			stats.Pending++
		case model.StatusStop:
			stats.Stopped++
		}
		if !t.Start.Before(dayStart) && t.Start.Before(dayEnd) {
			stats.Today++
		}
		if !t.Start.Before(weekStart) && t.Start.Before(weekEnd) {
			stats.ThisWeek++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Done) / float64(stats.Total) * 100))
	}
	return stats
}
