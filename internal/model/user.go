package model

import "time"

// User represents a user in the database. PasswordHash may hold a legacy
// plaintext password until it is migrated.
type User struct {
	ID             string
	Email          string
	PasswordHash   string
	Name           string
	Streak         int
	LastActiveDate *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SignupRequest represents a user registration request.
type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Name            string `json:"name"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the client-visible snapshot of a user. It is cached in the
// session cookie and is never used for authorization.
type Profile struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name,omitempty"`
	Streak         int        `json:"streak"`
	LastActiveDate *time.Time `json:"lastActiveDate"`
}

// Profile returns the client-visible snapshot of u.
func (u *User) Profile() Profile {
	p := Profile{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Streak: u.Streak,
	}
	if u.LastActiveDate != nil {
		t := u.LastActiveDate.UTC()
		p.LastActiveDate = &t
	}
	return p
}

// AuthResponse is returned after a successful login or signup.
type AuthResponse struct {
	User     Profile `json:"user"`
	Redirect string  `json:"redirect"`
}

// StreakResponse reports the streak after a qualifying activity.
type StreakResponse struct {
	Streak  int  `json:"streak"`
	Updated bool `json:"updated"`
}
