package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Skotchmaster/storefront/internal/backend"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

// Durable storage keys.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrLoginRequired = errors.New("login required")
)

type Identity struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

func identityFromUser(u *backend.User) Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin}
}

type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*backend.AuthResponse, error)
	Signup(ctx context.Context, name, email, password string) (*backend.AuthResponse, error)
}

// Reader is the read side of the session used by guards and views.
type Reader interface {
	Current() (Identity, bool)
}

// Store is the single source of truth for who is logged in. Construct it with
// New, call Rehydrate once at startup, and pass it to whatever needs it.
type Store struct {
	storage Storage
	auth    Authenticator
	events  events.Publisher
	now     func() time.Time

	mu         sync.RWMutex
	identity   *Identity
	credential string
}

func New(storage Storage, auth Authenticator, pub events.Publisher) *Store {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Store{
		storage: storage,
		auth:    auth,
		events:  pub,
		now:     time.Now,
	}
}

// Rehydrate restores a stored identity without asking the server whether the
// credential is still valid. A revoked or expired token is only discovered when
// the next authenticated call fails.
func (s *Store) Rehydrate(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "session.rehydrate")

	token, okToken, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("read stored credential: %w", err)
	}
	raw, okUser, err := s.storage.Get(ctx, KeyUser)
	if err != nil {
		return fmt.Errorf("read stored identity: %w", err)
	}
	if !okToken || !okUser || token == "" || raw == "" {
		l.Debug("no stored session")
		return nil
	}

	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		l.Warn("stored identity unreadable", "error", err)
		return nil
	}

	if exp, ok := tokenExpiry(token); ok && exp.Before(s.now()) {
		l.Warn("stored credential already expired, restoring anyway", "user_id", id.ID, "expired_at", exp)
	}

	s.mu.Lock()
	s.identity = &id
	s.credential = token
	s.mu.Unlock()

	l.Info("session restored", "user_id", id.ID, "is_admin", id.IsAdmin)
	return nil
}

// Login posts credentials and, on success, establishes the session. The raw
// response is returned either way so the caller can show the server's text.
func (s *Store) Login(ctx context.Context, email, password string) (*backend.AuthResponse, error) {
	res, err := s.auth.Login(ctx, email, password)
	return s.finish(ctx, "login", "Login failed", res, err)
}

// Signup has the same contract as Login and logs the new user in immediately.
func (s *Store) Signup(ctx context.Context, name, email, password string) (*backend.AuthResponse, error) {
	res, err := s.auth.Signup(ctx, name, email, password)
	return s.finish(ctx, "signup", "Signup failed", res, err)
}

func (s *Store) finish(ctx context.Context, op, fallback string, res *backend.AuthResponse, err error) (*backend.AuthResponse, error) {
	l := logging.FromContext(ctx).With("svc", "session."+op)

	if err != nil {
		msg := backend.Message(err, fallback, "Network error. Please try again.")
		l.Warn(op+"_failed", "error", err)
		return &backend.AuthResponse{Error: msg}, fmt.Errorf("%w: %s", ErrAuthFailed, msg)
	}
	if res == nil || res.Token == "" || res.User == nil {
		out := &backend.AuthResponse{Error: fallback}
		if res != nil && res.Error != "" {
			out.Error = res.Error
		}
		l.Warn(op+"_failed", "reason", "no token in response")
		return out, fmt.Errorf("%w: %s", ErrAuthFailed, out.Error)
	}

	id := identityFromUser(res.User)
	s.mu.Lock()
	s.identity = &id
	s.credential = res.Token
	s.mu.Unlock()

	if err := s.persist(ctx, res.Token, id); err != nil {
		// The in-memory session stays valid; it just won't survive a restart.
		l.Error("persist_session_failed", "error", err)
	}

	typ := "user_logged_in"
	if op == "signup" {
		typ = "user_signed_up"
	}
	events.Emit(ctx, s.events, events.TopicUser, strconv.FormatInt(id.ID, 10), events.Event{
		"type":   typ,
		"userID": id.ID,
	})

	l.Info(op+"_successful", "user_id", id.ID)
	return res, nil
}

func (s *Store) persist(ctx context.Context, token string, id Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, KeyToken, token); err != nil {
		return err
	}
	return s.storage.Set(ctx, KeyUser, string(raw))
}

// Logout clears memory and storage. No server call is made.
func (s *Store) Logout(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "session.logout")

	s.mu.Lock()
	prev := s.identity
	s.identity = nil
	s.credential = ""
	s.mu.Unlock()

	err := s.storage.Delete(ctx, KeyToken, KeyUser)
	if err != nil {
		l.Error("clear_storage_failed", "error", err)
	}

	if prev != nil {
		events.Emit(ctx, s.events, events.TopicUser, strconv.FormatInt(prev.ID, 10), events.Event{
			"type":   "user_logged_out",
			"userID": prev.ID,
		})
		l.Info("successful_logout", "user_id", prev.ID)
	}
	return err
}

func (s *Store) Current() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Credential implements backend.CredentialSource.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// CredentialExpiry reads the exp claim when the credential is a JWT. The token
// is not verified; this is informational only.
func (s *Store) CredentialExpiry() (time.Time, bool) {
	return tokenExpiry(s.Credential())
}

func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	exp, err := tokens.Expiry(token)
	if err != nil {
		return time.Time{}, false
	}
	return exp, true
}
