package session

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/backend/backendtest"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/store"
)

type memStorage struct {
	mu     sync.Mutex
	data   map[string]string
	setErr error
}

func newMemStorage() *memStorage { return &memStorage{data: map[string]string{}} }

func (m *memStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memStorage) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func loginOK(srv *backendtest.Server, token string, admin bool) {
	srv.JSON(http.MethodPost, "/api/auth/login", http.StatusOK, echo.Map{
		"token": token,
		"user":  echo.Map{"id": 1, "name": "Asha", "email": "asha@example.com", "is_admin": admin},
	})
}

func TestStore_Rehydrate_RestoresWithoutNetworkCall(t *testing.T) {
	srv := backendtest.New(t)
	st := newMemStorage()
	st.data[KeyToken] = "t1"
	st.data[KeyUser] = `{"id":1,"is_admin":false}`

	s := New(st, srv.Client(), nil)
	require.NoError(t, s.Rehydrate(context.Background()))

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, int64(1), id.ID)
	assert.False(t, id.IsAdmin)
	assert.Equal(t, "t1", s.Credential())
	assert.Empty(t, srv.Calls())
}

func TestStore_Rehydrate_PartialStorageRestoresNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data map[string]string
	}{
		{name: "empty", data: map[string]string{}},
		{name: "token only", data: map[string]string{KeyToken: "t1"}},
		{name: "user only", data: map[string]string{KeyUser: `{"id":1}`}},
		{name: "corrupt user", data: map[string]string{KeyToken: "t1", KeyUser: "{"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := newMemStorage()
			st.data = tt.data
			s := New(st, nil, nil)
			require.NoError(t, s.Rehydrate(context.Background()))

			_, ok := s.Current()
			assert.False(t, ok)
			assert.Empty(t, s.Credential())
		})
	}
}

func TestStore_Rehydrate_KeepsExpiredCredential(t *testing.T) {
	t.Parallel()

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	token, err := expired.SignedString([]byte("whatever"))
	require.NoError(t, err)

	st := newMemStorage()
	st.data[KeyToken] = token
	st.data[KeyUser] = `{"id":7,"name":"Ravi","is_admin":true}`

	s := New(st, nil, nil)
	require.NoError(t, s.Rehydrate(context.Background()))

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, int64(7), id.ID)
	assert.True(t, id.IsAdmin)

	exp, ok := s.CredentialExpiry()
	require.True(t, ok)
	assert.True(t, exp.Before(time.Now()))
}

func TestStore_LoginThenReloadRestoresIdentity(t *testing.T) {
	srv := backendtest.New(t)
	loginOK(srv, "tok-abc", false)

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")
	db, err := store.Open(ctx, path)
	require.NoError(t, err)

	rec := &events.Recorder{}
	s := New(&store.KV{DB: db}, srv.Client(), rec)
	res, err := s.Login(ctx, "asha@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", res.Token)
	require.NoError(t, store.Close(db))

	db, err = store.Open(ctx, path)
	require.NoError(t, err)
	defer store.Close(db)

	reloaded := New(&store.KV{DB: db}, srv.Client(), nil)
	require.NoError(t, reloaded.Rehydrate(ctx))

	id, ok := reloaded.Current()
	require.True(t, ok)
	assert.Equal(t, Identity{ID: 1, Name: "Asha", Email: "asha@example.com"}, id)
	assert.Equal(t, "tok-abc", reloaded.Credential())
	assert.Equal(t, 1, srv.Count(http.MethodPost, "/api/auth/login"))
	assert.Equal(t, []string{"user_logged_in"}, rec.Types())
}

func TestStore_LoginFailure_LeavesPriorStateAndSurfacesServerText(t *testing.T) {
	srv := backendtest.New(t)
	srv.JSON(http.MethodPost, "/api/auth/login", http.StatusUnauthorized, echo.Map{"error": "Invalid email or password"})

	st := newMemStorage()
	st.data[KeyToken] = "old"
	st.data[KeyUser] = `{"id":3}`
	s := New(st, srv.Client(), nil)
	require.NoError(t, s.Rehydrate(context.Background()))

	res, err := s.Login(context.Background(), "x@example.com", "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, "Invalid email or password", res.Error)

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, int64(3), id.ID)
	assert.Equal(t, "old", s.Credential())
	assert.Equal(t, "old", st.data[KeyToken])
}

func TestStore_LoginFailure_FallbackMessages(t *testing.T) {
	srv := backendtest.New(t)
	srv.Handle(http.MethodPost, "/api/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusInternalServerError)
	})
	srv.JSON(http.MethodPost, "/api/auth/signup", http.StatusOK, echo.Map{"message": "no token here"})

	s := New(newMemStorage(), srv.Client(), nil)

	res, err := s.Login(context.Background(), "a@b.c", "pw")
	require.Error(t, err)
	assert.Equal(t, "Login failed", res.Error)

	res, err = s.Signup(context.Background(), "A", "a@b.c", "pw")
	require.Error(t, err)
	assert.Equal(t, "Signup failed", res.Error)

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestStore_SignupLogsInImmediately(t *testing.T) {
	srv := backendtest.New(t)
	srv.JSON(http.MethodPost, "/api/auth/signup", http.StatusCreated, echo.Map{
		"token": "fresh",
		"user":  echo.Map{"id": 11, "name": "Meera", "email": "m@example.com"},
	})

	st := newMemStorage()
	rec := &events.Recorder{}
	s := New(st, srv.Client(), rec)

	_, err := s.Signup(context.Background(), "Meera", "m@example.com", "pw")
	require.NoError(t, err)

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, int64(11), id.ID)
	assert.Equal(t, "fresh", st.data[KeyToken])
	assert.JSONEq(t, `{"id":11,"name":"Meera","email":"m@example.com","is_admin":false}`, st.data[KeyUser])
	assert.Equal(t, []string{"user_signed_up"}, rec.Types())

	call, ok := srv.Last(http.MethodPost, "/api/auth/signup")
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Meera","email":"m@example.com","password":"pw"}`, string(call.Body))
}

func TestStore_LogoutClearsEverythingWithoutServerCall(t *testing.T) {
	srv := backendtest.New(t)
	loginOK(srv, "tok", true)

	st := newMemStorage()
	rec := &events.Recorder{}
	s := New(st, srv.Client(), rec)
	_, err := s.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	require.NoError(t, s.Logout(context.Background()))

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, s.Credential())
	assert.Empty(t, st.data)
	assert.Len(t, srv.Calls(), 1)
	assert.Equal(t, []string{"user_logged_in", "user_logged_out"}, rec.Types())
}

func TestStore_PersistFailureKeepsInMemorySession(t *testing.T) {
	srv := backendtest.New(t)
	loginOK(srv, "tok", false)

	st := newMemStorage()
	st.setErr = errors.New("disk full")
	s := New(st, srv.Client(), nil)

	_, err := s.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	_, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "tok", s.Credential())
}

func TestStore_EventFailureDoesNotAffectLogin(t *testing.T) {
	srv := backendtest.New(t)
	loginOK(srv, "tok", false)

	s := New(newMemStorage(), srv.Client(), &events.Recorder{Err: errors.New("kafka down")})
	_, err := s.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	_, ok := s.Current()
	assert.True(t, ok)
}

func TestTokenExpiry_NonJWT(t *testing.T) {
	t.Parallel()

	_, ok := tokenExpiry("opaque-token")
	assert.False(t, ok)
	_, ok = tokenExpiry("")
	assert.False(t, ok)
}
