// Package streak maintains the consecutive-day activity counter of a user.
package streak

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/daybook/daybook-go/internal/model"
)

// State classifies a user's last activity relative to now.
type State int

const (
	NeverActive State = iota
	ActiveToday
	WithinWindow
	Lapsed
)

func (s State) String() string {
	switch s {
	case NeverActive:
		return "never_active"
	case ActiveToday:
		return "active_today"
	case WithinWindow:
		return "within_window"
	case Lapsed:
		return "lapsed"
	}
	return "unknown"
}

const day = 24 * time.Hour

// DaysBetween returns the ceiling of the absolute elapsed time between a and b
// in whole days. It is not a calendar-day difference: 25 hours is 2 days and
// one millisecond is 1 day.
func DaysBetween(a, b time.Time) int {
	elapsed := b.Sub(a)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	ms := float64(elapsed.Milliseconds())
	return int(math.Ceil(ms / float64(day.Milliseconds())))
}

// Decision is the outcome of evaluating a streak against the current time.
type Decision struct {
	Streak  int
	Updated bool
	State   State
}

// Decide evaluates the streak rules in order: first activity starts at 1, a
// gap of more than one day resets to 1, activity on an earlier calendar day
// increments, and activity earlier today leaves the streak unchanged. The
// calendar day is taken in loc.
func Decide(lastActive *time.Time, streak int, now time.Time, loc *time.Location) Decision {
	if lastActive == nil {
		return Decision{Streak: 1, Updated: true, State: NeverActive}
	}
	if DaysBetween(*lastActive, now) > 1 {
		return Decision{Streak: 1, Updated: true, State: Lapsed}
	}
	if !sameDay(*lastActive, now, loc) {
		return Decision{Streak: streak + 1, Updated: true, State: WithinWindow}
	}
	return Decision{Streak: streak, Updated: false, State: ActiveToday}
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// UserStore is the persistence the engine needs. GetByID and UpdateStreak
// return repository.ErrUserNotFound for a missing user.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdateStreak(ctx context.Context, id string, streak int, lastActive time.Time) (*model.User, error)
}

// Result reports the streak after an activity. User is the record as stored
// after the update, or as read when nothing changed.
type Result struct {
	Streak  int
	Updated bool
	User    *model.User
}

// Response converts r into its API form.
func (r Result) Response() *model.StreakResponse {
	return &model.StreakResponse{Streak: r.Streak, Updated: r.Updated}
}

// Engine applies the streak rules to stored users. The read and the write are
// not atomic; concurrent activity of the same user may lose an increment.
type Engine struct {
	users UserStore
	loc   *time.Location
	now   func() time.Time
}

// NewEngine creates an Engine that decides calendar days in loc.
func NewEngine(users UserStore, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{users: users, loc: loc, now: time.Now}
}

// Update records a qualifying activity for userID.
func (e *Engine) Update(ctx context.Context, userID string) (Result, error) {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	now := e.now()
	d := Decide(user.LastActiveDate, user.Streak, now, e.loc)
	if !d.Updated {
		return Result{Streak: user.Streak, User: user}, nil
	}

	updated, err := e.users.UpdateStreak(ctx, userID, d.Streak, now)
	if err != nil {
		return Result{}, err
	}
	slog.Debug("streak updated", "user_id", userID, "state", d.State.String(), "from", user.Streak, "to", updated.Streak)
	return Result{Streak: updated.Streak, Updated: true, User: updated}, nil
}
