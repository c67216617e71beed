// Package session resolves who is using the app: an authenticated account, a
// device-local guest, or nobody. A single Session is created at startup and
// passed to everything that needs the current identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ai-financer/internal/account"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Local cache keys owned by the session.
const (
	KeyIsGuest   = "isGuest"
	KeyGuestID   = "guestUserId"
	KeyAuthToken = "authToken"
)

// Store is the subset of the local cache the session uses.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// Authenticator is the sign-in provider.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (account.Grant, error)
	SignIn(ctx context.Context, email, password string) (account.Grant, error)
	Verify(ctx context.Context, token string) (string, error)
}

// State is a snapshot of the session. While Pending is true Identity is
// meaningless.
type State struct {
	Pending  bool
	Identity Identity
	Email    string
}

type Session struct {
	store Store
	auth  Authenticator
	log   zerolog.Logger

	mu       sync.Mutex
	pending  bool
	identity Identity
	email    string

	// notifyMu keeps callbacks in state-change order and lets unsubscribe
	// wait for an in-flight notification.
	notifyMu sync.Mutex
	subs     map[int]func(Identity)
	nextSub  int
}

func New(store Store, auth Authenticator, log zerolog.Logger) *Session {
	return &Session{
		store:   store,
		auth:    auth,
		log:     log.With().Str("component", "session").Logger(),
		pending: true,
		subs:    make(map[int]func(Identity)),
	}
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Pending: s.pending, Identity: s.identity, Email: s.email}
}

// Subscribe registers fn for every resolved state change and returns the
// function that removes it. Once unsubscribe returns fn is not called again.
// unsubscribe must not be called from inside fn.
func (s *Session) Subscribe(fn func(Identity)) (unsubscribe func()) {
	s.notifyMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.notifyMu.Lock()
			delete(s.subs, id)
			s.notifyMu.Unlock()
		})
	}
}

func (s *Session) set(id Identity, email string) {
	s.apply(id, email, false)
}

// apply stores the new state and notifies subscribers. With onlyPending set
// it leaves an already resolved state alone and returns the current
// identity instead.
func (s *Session) apply(id Identity, email string, onlyPending bool) Identity {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if onlyPending && !s.pending {
		cur := s.identity
		s.mu.Unlock()
		return cur
	}
	s.pending = false
	s.identity = id
	s.email = email
	s.mu.Unlock()

	s.log.Info().Str("identity", id.String()).Msg("session resolved")
	for _, fn := range s.subs {
		fn(id)
	}
	return id
}

func (s *Session) get(key string) (string, bool) {
	v, ok, err := s.store.Get(key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("read session key")
		return "", false
	}
	return v, ok
}

// guestID returns the cached guest id, creating it on first use.
func (s *Session) guestID() (string, error) {
	if id, ok := s.get(KeyGuestID); ok && id != "" {
		return id, nil
	}
	id := "guest_" + uuid.NewString()
	if err := s.store.Set(KeyGuestID, id); err != nil {
		return "", fmt.Errorf("store guest id: %w", err)
	}
	return id, nil
}

// Resolve determines the identity from local state: the sticky guest flag
// wins, then a stored token that still verifies, otherwise None. If a
// sign-in, guest entry or sign-out settled the session first, Resolve keeps
// that state and returns it.
func (s *Session) Resolve(ctx context.Context) Identity {
	if v, _ := s.get(KeyIsGuest); v == "true" {
		gid, err := s.guestID()
		if err == nil {
			return s.apply(Guest(gid), "", true)
		}
		s.log.Error().Err(err).Msg("restore guest session")
	}

	if token, ok := s.get(KeyAuthToken); ok && token != "" {
		uid, err := s.auth.Verify(ctx, token)
		if err == nil {
			return s.apply(Authenticated(uid), "", true)
		}
		s.log.Info().Err(err).Msg("stored token rejected")
		if errors.Is(err, account.ErrInvalidToken) {
			// a sign-in may have stored a fresh token meanwhile
			if cur, _ := s.get(KeyAuthToken); cur == token {
				_ = s.store.Delete(KeyAuthToken)
			}
		}
	}

	return s.apply(None, "", true)
}

// EnterGuest switches to guest mode. The flag persists until SignOut or an
// authenticated sign-in.
func (s *Session) EnterGuest() (Identity, error) {
	gid, err := s.guestID()
	if err != nil {
		return None, err
	}
	if err := s.store.Set(KeyIsGuest, "true"); err != nil {
		return None, fmt.Errorf("store guest flag: %w", err)
	}
	_ = s.store.Delete(KeyAuthToken)

	id := Guest(gid)
	s.set(id, "")
	return id, nil
}

// SignIn authenticates with email and password. On failure the current
// state is kept.
func (s *Session) SignIn(ctx context.Context, email, password string) (Identity, error) {
	return s.authenticate(ctx, s.auth.SignIn, email, password)
}

// SignUp creates an account and signs it in.
func (s *Session) SignUp(ctx context.Context, email, password string) (Identity, error) {
	return s.authenticate(ctx, s.auth.SignUp, email, password)
}

type authFunc func(ctx context.Context, email, password string) (account.Grant, error)

func (s *Session) authenticate(ctx context.Context, fn authFunc, email, password string) (Identity, error) {
	g, err := fn(ctx, email, password)
	if err != nil {
		return None, err
	}
	if err := s.store.Delete(KeyIsGuest, KeyGuestID); err != nil {
		s.log.Warn().Err(err).Msg("clear guest flags")
	}
	if err := s.store.Set(KeyAuthToken, g.Token); err != nil {
		return None, fmt.Errorf("store token: %w", err)
	}

	id := Authenticated(g.UID)
	s.set(id, g.Email)
	return id, nil
}

// SignOut clears guest flags and the stored token.
func (s *Session) SignOut() error {
	err := s.store.Delete(KeyIsGuest, KeyGuestID, KeyAuthToken)
	s.set(None, "")
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
