package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybook/daybook-go/internal/crypto"
	"github.com/daybook/daybook-go/internal/model"
	"github.com/daybook/daybook-go/internal/service"
	"github.com/daybook/daybook-go/internal/session"
	"github.com/daybook/daybook-go/internal/validate"
)

type fakeAuth struct {
	signupReq model.SignupRequest
	loginReq  model.LoginRequest
	sess      service.Session
	err       error
	user      *model.User
	userErr   error
}

func (f *fakeAuth) Signup(_ context.Context, req model.SignupRequest) (service.Session, error) {
	f.signupReq = req
	return f.sess, f.err
}

func (f *fakeAuth) Login(_ context.Context, req model.LoginRequest) (service.Session, error) {
	f.loginReq = req
	return f.sess, f.err
}

func (f *fakeAuth) GetUser(_ context.Context, _ string) (*model.User, error) {
	return f.user, f.userErr
}

var testExpiry = time.Now().Add(7 * 24 * time.Hour).Truncate(time.Second)

func okSession() service.Session {
	return service.Session{
		Token: crypto.Token{Value: "signed", ExpiresAt: testExpiry},
		User:  &model.User{ID: "u-1", Email: "ada@example.com", Name: "Ada", Streak: 2},
	}
}

func withSession(r *http.Request) *http.Request {
	cur := session.Current{UserID: "u-1", Token: "signed", ExpiresAt: testExpiry}
	return r.WithContext(session.WithCurrent(r.Context(), cur))
}

func cookieMap(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestHandleLoginJSON(t *testing.T) {
	auth := &fakeAuth{sess: okSession()}
	h := NewAuthHandler(auth, session.NewStore(false))

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"ada@example.com","password":"Password1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", auth.loginReq.Email)

	var resp model.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u-1", resp.User.ID)
	assert.Equal(t, "/", resp.Redirect)

	cookies := cookieMap(rec)
	require.Contains(t, cookies, session.TokenCookie)
	require.Contains(t, cookies, session.ProfileCookie)
	assert.Equal(t, "signed", cookies[session.TokenCookie].Value)
	assert.Equal(t, cookies[session.TokenCookie].MaxAge, cookies[session.ProfileCookie].MaxAge)
}

func TestHandleLoginForm(t *testing.T) {
	auth := &fakeAuth{sess: okSession()}
	h := NewAuthHandler(auth, session.NewStore(false))

	form := url.Values{"email": {"ada@example.com"}, "password": {"Password1"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.LoginRequest{Email: "ada@example.com", Password: "Password1"}, auth.loginReq)
}

func TestHandleSignupForm(t *testing.T) {
	auth := &fakeAuth{sess: okSession()}
	h := NewAuthHandler(auth, session.NewStore(false))

	form := url.Values{"email": {"ada@example.com"}, "password": {"Password1"}, "confirmPassword": {"Password1"}, "name": {"Ada"}}
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandleSignup(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Password1", auth.signupReq.ConfirmPassword)
	assert.Equal(t, "Ada", auth.signupReq.Name)
	assert.Len(t, cookieMap(rec), 2)
}

func TestHandleAuthErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"validation", &validate.Error{Field: "email", Message: "Please enter a valid email address"}, http.StatusBadRequest, "Please enter a valid email address"},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{"conflict", service.ErrEmailTaken, http.StatusConflict, "Email already registered"},
		{"too long", crypto.ErrPasswordTooLong, http.StatusBadRequest, "Password is too long"},
		{"missing secret", crypto.ErrMissingSecret, http.StatusInternalServerError, "internal server error"},
		{"other", errors.New("db down"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&fakeAuth{err: tt.err}, session.NewStore(false))

			req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email":"x"}`))
			rec := httptest.NewRecorder()
			h.HandleSignup(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body["error"])
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestHandleLoginBadBody(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{}, session.NewStore(false))

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLogoutClearsBothCookies(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{}, session.NewStore(false))

	rec := httptest.NewRecorder()
	h.HandleLogout(rec, withSession(httptest.NewRequest(http.MethodPost, "/logout", nil)))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cookies := cookieMap(rec)
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestHandleMeRefreshesStaleSnapshot(t *testing.T) {
	user := &model.User{ID: "u-1", Email: "ada@example.com", Streak: 4}
	store := session.NewStore(false)
	h := NewAuthHandler(&fakeAuth{user: user}, store)

	// Snapshot claims streak 2, store says 4.
	stale := httptest.NewRecorder()
	require.NoError(t, store.Set(stale, "signed", testExpiry, model.Profile{ID: "u-1", Email: "ada@example.com", Streak: 2}))

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/me", nil))
	for _, c := range stale.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.HandleMe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := cookieMap(rec)
	require.Contains(t, cookies, session.ProfileCookie)
	assert.NotContains(t, cookies, session.TokenCookie)

	refreshed := httptest.NewRequest(http.MethodGet, "/", nil)
	refreshed.AddCookie(cookies[session.ProfileCookie])
	p, err := store.Profile(refreshed)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Streak)
}

func TestHandleMeLeavesFreshSnapshot(t *testing.T) {
	user := &model.User{ID: "u-1", Email: "ada@example.com", Streak: 4}
	store := session.NewStore(false)
	h := NewAuthHandler(&fakeAuth{user: user}, store)

	fresh := httptest.NewRecorder()
	require.NoError(t, store.Set(fresh, "signed", testExpiry, user.Profile()))

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/me", nil))
	for _, c := range fresh.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.HandleMe(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestHandleMeMalformedSnapshotIsReplaced(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{user: &model.User{ID: "u-1", Email: "ada@example.com"}}, session.NewStore(false))

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/me", nil))
	req.AddCookie(&http.Cookie{Name: session.ProfileCookie, Value: "garbage"})
	rec := httptest.NewRecorder()
	h.HandleMe(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, cookieMap(rec), session.ProfileCookie)
}

func TestHandleMeVanishedUser(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{userErr: service.ErrUserNotFound}, session.NewStore(false))

	rec := httptest.NewRecorder()
	h.HandleMe(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/me", nil)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Len(t, cookieMap(rec), 2)
}

func TestHandleMeWithoutSession(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{}, session.NewStore(false))

	rec := httptest.NewRecorder()
	h.HandleMe(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleStreak(t *testing.T) {
	h := NewAuthHandler(&fakeAuth{user: &model.User{ID: "u-1", Email: "ada@example.com", Streak: 9}}, session.NewStore(false))

	rec := httptest.NewRecorder()
	h.HandleStreak(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/streak", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"streak":9,"lastActiveDate":null}`, rec.Body.String())
}
