package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/daybook/daybook-go/internal/crypto"
	"github.com/daybook/daybook-go/internal/model"
	"github.com/daybook/daybook-go/internal/repository"
	"github.com/daybook/daybook-go/internal/streak"
	"github.com/daybook/daybook-go/internal/validate"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)

// UserStore is the user persistence used by AuthService.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// StreakUpdater records a qualifying activity for a user.
type StreakUpdater interface {
	Update(ctx context.Context, userID string) (streak.Result, error)
}

// Session is an established login: the signed token and the user it was
// issued for. Streak is set when a streak update ran successfully.
type Session struct {
	Token  crypto.Token
	User   *model.User
	Streak *streak.Result
}

// AuthService handles signup, login and user lookup.
type AuthService struct {
	users   UserStore
	hasher  *crypto.Hasher
	tokens  *crypto.TokenIssuer
	streaks StreakUpdater
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher *crypto.Hasher, tokens *crypto.TokenIssuer, streaks StreakUpdater) *AuthService {
	return &AuthService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		streaks: streaks,
	}
}

// Signup validates the request, creates the account and issues a session
// token. Signup does not count as streak activity.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (Session, error) {
	email := strings.TrimSpace(req.Email)
	if err := validate.Email(email); err != nil {
		return Session{}, err
	}
	if err := validate.Password(req.Password); err != nil {
		return Session{}, err
	}
	if err := validate.PasswordConfirmation(req.Password, req.ConfirmPassword); err != nil {
		return Session{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return Session{}, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}

	return Session{Token: token, User: user}, nil
}

// Login authenticates a user and issues a session token. A legacy plaintext
// password is replaced by its hash on the first successful login. The streak
// update that follows is best effort.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (Session, error) {
	email := strings.TrimSpace(req.Email)
	if err := validate.Email(email); err != nil {
		return Session{}, err
	}
	if req.Password == "" {
		return Session{}, &validate.Error{Field: "password", Message: "Password is required"}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if !s.checkPassword(ctx, user, req.Password) {
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}

	sess := Session{Token: token, User: user}
	if res, err := s.streaks.Update(ctx, user.ID); err != nil {
		slog.Warn("streak update failed", "user_id", user.ID, "trigger", "login", "error", err)
	} else {
		sess.Streak = &res
		if res.User != nil {
			sess.User = res.User
		}
	}

	return sess, nil
}

func (s *AuthService) checkPassword(ctx context.Context, user *model.User, password string) bool {
	if crypto.IsHashed(user.PasswordHash) {
		return s.hasher.Verify(password, user.PasswordHash)
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(user.PasswordHash)) != 1 {
		return false
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		slog.Warn("hashing legacy password failed", "user_id", user.ID, "error", err)
		return true
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		slog.Warn("migrating legacy password failed", "user_id", user.ID, "error", err)
		return true
	}
	user.PasswordHash = hash
	slog.Info("migrated legacy password", "user_id", user.ID)
	return true
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
