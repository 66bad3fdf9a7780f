// Package session holds the console's single operator session: who is
// signed in, from which browser, and the bearer token forwarded to the
// upstream services.
//
// The Store is the only writer of that state. It doubles as the API client's
// consolesdk.Authorizer, so whatever the store holds (including state
// rehydrated at startup) is what the next upstream request carries.
//
// A session belongs to the browser that signed in. Requests identify their
// browser with WithBrowser; a request from any other browser sees no
// session and cannot borrow the token. Work not tied to a request (the
// health monitor) carries no browser and uses the session as it stands.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/console/internal/console/domain"
	"github.com/aussiebroadwan/console/internal/console/store"
	"github.com/aussiebroadwan/console/pkg/consolesdk"
	"github.com/aussiebroadwan/console/pkg/cryptox"
	"github.com/aussiebroadwan/console/pkg/jwtx"
	"github.com/aussiebroadwan/console/pkg/slogx"
)

// DefaultRecordName is the name the session is persisted under.
const DefaultRecordName = "auth-storage"

// SealInfo binds the sealing key derived from the master key to session
// records.
const SealInfo = "console-session"

// Placeholder identity used when the token does not say who the operator is.
const (
	placeholderUserID = "1"
	placeholderRole   = consolesdk.RoleAdmin
)

// Authenticator exchanges operator credentials for a bearer token.
// *consolesdk.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Listener is notified with the new session after every change. ctx is the
// context of the call that made the change.
type Listener func(ctx context.Context, sess domain.Session)

// Store is the process-wide session.
type Store struct {
	auth    Authenticator
	records store.SessionRecords
	sealer  *cryptox.Sealer
	name    string
	now     func() time.Time

	mu      sync.RWMutex
	session domain.Session

	listenersMu sync.Mutex
	listeners   []Listener
}

// New builds an empty, unauthenticated store. Call Rehydrate to load the
// persisted session.
func New(auth Authenticator, records store.SessionRecords, sealer *cryptox.Sealer, name string) *Store {
	if name == "" {
		name = DefaultRecordName
	}

	return &Store{
		auth:    auth,
		records: records,
		sealer:  sealer,
		name:    name,
		now:     time.Now,
	}
}

type browserKey struct{}

// WithBrowser returns a context tagged with the browser session id a request
// came from.
func WithBrowser(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, browserKey{}, id)
}

// BrowserFrom returns the browser session id set by WithBrowser, or "".
func BrowserFrom(ctx context.Context) string {
	id, _ := ctx.Value(browserKey{}).(string)
	return id
}

// ownerOf is the stored form of a browser session id.
func ownerOf(browser string) string {
	if browser == "" {
		return ""
	}
	return cryptox.FingerprintToken(browser)
}

var _ consolesdk.Authorizer = (*Store)(nil)

// Authorization implements consolesdk.Authorizer. A context from a browser
// that does not own the session gets no token.
func (s *Store) Authorization(ctx context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.session.IsAuthenticated() {
		return "", false
	}
	if _, tagged := ctx.Value(browserKey{}).(string); tagged && !s.ownedBy(ctx) {
		return "", false
	}
	return s.session.Token, true
}

// ownedBy must be called with s.mu held.
func (s *Store) ownedBy(ctx context.Context) bool {
	return s.session.IsAuthenticated() &&
		cryptox.EqualTokens(s.session.Owner, ownerOf(BrowserFrom(ctx)))
}

// Owns reports whether the browser on ctx is the one signed in.
func (s *Store) Owns(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ownedBy(ctx)
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copySession(s.session)
}

// IsAuthenticated reports whether an operator is signed in from any browser.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.IsAuthenticated()
}

// User returns the signed in operator when the browser on ctx owns the
// session.
func (s *Store) User(ctx context.Context) (*domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ownedBy(ctx) {
		return nil, false
	}
	return copySession(s.session).User, true
}

// OnChange registers fn to run after every Login, Logout and Rehydrate.
// Listeners run synchronously on the goroutine that made the change, outside
// the store's lock.
func (s *Store) OnChange(fn Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(ctx context.Context, sess domain.Session) {
	s.listenersMu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(ctx, copySession(sess))
	}
}

// Login exchanges the credentials for a token and signs the operator in.
// The session is bound to the browser on ctx, replacing any session another
// browser held. On any failure the current session is left as it was and
// nothing is written; the authenticator's error is returned unwrapped.
func (s *Store) Login(ctx context.Context, email, password string) error {
	token, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}

	next := domain.Session{
		User:  identityFor(email, token),
		Token: token,
		Owner: ownerOf(BrowserFrom(ctx)),
	}

	s.mu.Lock()
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.session = next
	s.mu.Unlock()

	slogx.FromContext(ctx).Info("operator signed in",
		"user_id", next.User.ID,
		"email", next.User.Email,
	)

	s.notify(ctx, next)
	return nil
}

// Logout signs the operator out. The in-memory session is always cleared,
// even when writing the empty record fails. Logging out twice is harmless.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasAuthenticated := s.session.IsAuthenticated()
	s.session = domain.Session{}
	err := s.persist(ctx, domain.Session{})
	s.mu.Unlock()

	if wasAuthenticated {
		slogx.FromContext(ctx).Info("operator signed out")
	}

	s.notify(ctx, domain.Session{})
	return err
}

// HandleUnauthorized is the API client's OnUnauthorized hook. A 401 for the
// current token means it is no longer accepted, so the whole session is
// dropped. A 401 for any other token (one replaced by a later login, or a
// call that carried none) leaves the session alone.
func (s *Store) HandleUnauthorized(ctx context.Context, token string) {
	log := slogx.FromContext(ctx)

	s.mu.RLock()
	current := s.session.Token
	s.mu.RUnlock()

	if !cryptox.EqualTokens(token, current) {
		log.Debug("ignoring 401 for a token that is not the current one")
		return
	}

	log.Warn("upstream rejected session token, signing out")

	if err := s.Logout(ctx); err != nil {
		log.Error("failed to persist logout", "error", err)
	}
}

// Rehydrate loads the persisted session. A missing record, or one that can't
// be opened (e.g. the master key changed), leaves the store signed out.
func (s *Store) Rehydrate(ctx context.Context) error {
	log := slogx.FromContext(ctx)

	rec, err := s.records.GetSessionRecord(ctx, s.name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.replace(ctx, domain.Session{})
		return nil
	case err != nil:
		return fmt.Errorf("failed to load session record: %w", err)
	}

	sess, err := s.decode(rec.Payload)
	if err != nil {
		log.Warn("discarding unreadable session record", "record", s.name, "error", err)
		sess = domain.Session{}
	}

	s.replace(ctx, sess)

	if sess.IsAuthenticated() {
		log.Info("session rehydrated", "user_id", sess.User.ID, "saved_at", rec.UpdatedAt)
	}
	return nil
}

func (s *Store) replace(ctx context.Context, sess domain.Session) {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	s.notify(ctx, sess)
}

// ============================================================================
// Persistence
// ============================================================================

// persistedState mirrors the original browser snapshot
// {"state": {...}, "version": 0}. isAuthenticated is written for readers of
// that shape and ignored when loading.
type persistedState struct {
	State struct {
		User            *domain.User `json:"user"`
		Token           *string      `json:"token"`
		IsAuthenticated bool         `json:"isAuthenticated"`
		Owner           string       `json:"owner,omitempty"`
	} `json:"state"`
	Version int `json:"version"`
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context, sess domain.Session) error {
	var ps persistedState
	ps.State.User = sess.User
	if sess.Token != "" {
		ps.State.Token = &sess.Token
	}
	ps.State.IsAuthenticated = sess.IsAuthenticated()
	ps.State.Owner = sess.Owner

	plain, err := json.Marshal(ps)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	sealed, err := s.sealer.Seal(plain)
	if err != nil {
		return fmt.Errorf("failed to seal session: %w", err)
	}

	err = s.records.PutSessionRecord(ctx, domain.SessionRecord{
		Name:      s.name,
		Payload:   sealed,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (s *Store) decode(payload []byte) (domain.Session, error) {
	plain, err := s.sealer.Open(payload)
	if err != nil {
		return domain.Session{}, err
	}

	var ps persistedState
	if err := json.Unmarshal(plain, &ps); err != nil {
		return domain.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}

	sess := domain.Session{User: ps.State.User, Owner: ps.State.Owner}
	if ps.State.Token != nil {
		sess.Token = *ps.State.Token
	}

	// Half a session is no session
	if !sess.IsAuthenticated() {
		return domain.Session{}, nil
	}
	return sess, nil
}

// ============================================================================
// Identity
// ============================================================================

// identityFor builds the operator record. Claims in a JWT win; anything the
// token doesn't carry falls back to the placeholder identity. The email is
// always the one typed at login.
func identityFor(email, token string) *domain.User {
	name, _, _ := strings.Cut(email, "@")

	user := &domain.User{
		ID:    placeholderUserID,
		Name:  name,
		Email: email,
		Roles: []string{placeholderRole},
	}

	claims, err := jwtx.Peek(token)
	if err != nil {
		return user
	}

	if claims.Subject != "" {
		user.ID = claims.Subject
	}
	if n := claims.DisplayName(); n != "" {
		user.Name = n
	}
	if len(claims.Roles) > 0 {
		user.Roles = append([]string(nil), claims.Roles...)
	}

	return user
}

func copySession(s domain.Session) domain.Session {
	if s.User == nil {
		return s
	}

	u := *s.User
	u.Roles = append([]string(nil), s.User.Roles...)
	return domain.Session{User: &u, Token: s.Token, Owner: s.Owner}
}
