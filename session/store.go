package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/police-investigations-api/databases"
	"github.com/linesmerrill/police-investigations-api/models"
)

// Store is the credential store backed by a CredentialDatabase. Live tokens
// are kept in a go-guardian token cache; a token is a session only while it
// is both a valid JWT and present in that cache.
type Store struct {
	// HashCost is the bcrypt cost used for new password hashes
	HashCost int

	creds  databases.CredentialDatabase
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	strategy auth.Strategy
	cache    store.Cache
	cancel   context.CancelFunc

	// consumed holds the ids of reset tokens already used, until they expire
	resetMu  sync.Mutex
	consumed store.Cache

	mu     sync.Mutex
	byUser map[string]map[string]*time.Timer

	subsMu  sync.Mutex
	subs    map[uint64]func(Event)
	nextSub uint64
}

// NewStore builds a credential store issuing sessions that live for ttl
func NewStore(creds databases.CredentialDatabase, secret []byte, ttl time.Duration) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	cache := store.NewFIFO(ctx, ttl)
	return &Store{
		HashCost: bcrypt.DefaultCost,
		creds:    creds,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
		strategy: bearer.New(bearer.NoOpAuthenticate, cache),
		cache:    cache,
		cancel:   cancel,
		consumed: store.NewFIFO(ctx, resetTTL),
		byUser:   map[string]map[string]*time.Timer{},
		subs:     map[uint64]func(Event){},
	}
}

// Close stops every expiry timer and the token cache
func (s *Store) Close() {
	s.mu.Lock()
	for _, tokens := range s.byUser {
		for _, t := range tokens {
			t.Stop()
		}
	}
	s.byUser = map[string]map[string]*time.Timer{}
	s.mu.Unlock()
	s.cancel()
}

// SignUp registers a credential. It does not open a session.
func (s *Store) SignUp(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if err := validate(email, password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	cred := models.Credential{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.creds.InsertOne(ctx, cred); err != nil {
		if errors.Is(err, databases.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert credential: %w", err)
	}
	return &User{ID: cred.ID, Email: cred.Email}, nil
}

// SignIn checks the password and opens a new session
func (s *Store) SignIn(ctx context.Context, email, password string) (*Session, error) {
	cred, err := s.creds.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	sess, err := s.open(cred.ID, cred.Email)
	if err != nil {
		return nil, err
	}
	s.publish(Event{Kind: SignedIn, Token: sess.Token, UserID: sess.UserID, Session: sess})
	return sess, nil
}

// GetSession returns the live session for token, or nil when there is none.
// A token found expired is revoked and announced.
func (s *Store) GetSession(_ context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	c, err := s.parse(token, purposeSession)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && s.live(token) {
			s.expire(token, c.Subject)
		}
		return nil, nil
	}
	if !s.live(token) {
		return nil, nil
	}
	return &Session{Token: token, UserID: c.Subject, Email: c.Email, ExpiresAt: c.ExpiresAt.Time}, nil
}

// Refresh swaps a live token for a new one with a fresh expiry
func (s *Store) Refresh(ctx context.Context, token string) (*Session, error) {
	old, err := s.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, ErrInvalidToken
	}
	sess, err := s.open(old.UserID, old.Email)
	if err != nil {
		return nil, err
	}
	s.revoke(token, old.UserID)
	s.publish(Event{Kind: Refreshed, Token: token, UserID: old.UserID, Session: sess})
	return sess, nil
}

// SignOut revokes token. Signing out an unknown token is not an error.
func (s *Store) SignOut(ctx context.Context, token string) error {
	sess, err := s.GetSession(ctx, token)
	if err != nil || sess == nil {
		return err
	}
	s.revoke(token, sess.UserID)
	s.publish(Event{Kind: SignedOut, Token: token, UserID: sess.UserID})
	return nil
}

// DeleteUser signs the user out everywhere and removes the credential
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	s.revokeAll(userID)
	return s.creds.DeleteOne(ctx, userID)
}

// LookupUser finds a credential by email
func (s *Store) LookupUser(ctx context.Context, email string) (*User, error) {
	cred, err := s.creds.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return &User{ID: cred.ID, Email: cred.Email}, nil
}

// IssueResetToken returns a short lived token that allows one password change
func (s *Store) IssueResetToken(userID string) (string, error) {
	token, _, err := s.sign(userID, "", purposeReset, resetTTL)
	return token, err
}

// ResetPassword sets a new password for the user named by resetToken and
// revokes every session that user had open. A reset token works once, and
// never after the password changed since it was issued.
func (s *Store) ResetPassword(ctx context.Context, resetToken, password string) (*User, error) {
	c, err := s.parse(resetToken, purposeReset)
	if err != nil || c.ID == "" {
		return nil, ErrInvalidToken
	}
	if len(password) < minPasswordLength {
		return nil, ErrInvalidInput
	}
	if !s.consume(c.ID) {
		return nil, ErrInvalidToken
	}

	user, err := s.resetPassword(ctx, c, password)
	if err != nil {
		s.release(c.ID)
		return nil, err
	}
	return user, nil
}

func (s *Store) resetPassword(ctx context.Context, c *claims, password string) (*User, error) {
	cred, err := s.creds.FindByID(ctx, c.Subject)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	// jwt dates have second precision
	if c.IssuedAt == nil || c.IssuedAt.Time.Before(cred.UpdatedAt.Truncate(time.Second)) {
		return nil, ErrInvalidToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.creds.UpdatePassword(ctx, cred.ID, string(hash), s.now()); err != nil {
		return nil, err
	}
	s.revokeAll(cred.ID)
	return &User{ID: cred.ID, Email: cred.Email}, nil
}

// consume marks reset token id as used and reports whether it was unused
func (s *Store) consume(id string) bool {
	s.resetMu.Lock()
	defer s.resetMu.Unlock()
	if _, used, err := s.consumed.Load(id, nil); err != nil || used {
		return false
	}
	if err := s.consumed.Store(id, struct{}{}, nil); err != nil {
		zap.S().With(err).Warn("failed to record reset token")
		return false
	}
	return true
}

// release makes a reset token usable again after a failed change
func (s *Store) release(id string) {
	s.resetMu.Lock()
	defer s.resetMu.Unlock()
	if err := s.consumed.Delete(id, nil); err != nil {
		zap.S().With(err).Warn("failed to release reset token")
	}
}

// OnSessionChange registers fn for every session event until the returned
// subscription is unsubscribed. Events are delivered synchronously.
func (s *Store) OnSessionChange(fn func(Event)) Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	return &subscription{unsubscribe: func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}}
}

func (s *Store) publish(ev Event) {
	s.subsMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Store) open(userID, email string) (*Session, error) {
	token, exp, err := s.sign(userID, email, purposeSession, s.ttl)
	if err != nil {
		return nil, err
	}
	if err := auth.Append(s.strategy, token, auth.NewDefaultUser(email, userID, nil, nil), nil); err != nil {
		return nil, fmt.Errorf("cache token: %w", err)
	}

	s.mu.Lock()
	tokens, ok := s.byUser[userID]
	if !ok {
		tokens = map[string]*time.Timer{}
		s.byUser[userID] = tokens
	}
	tokens[token] = time.AfterFunc(s.ttl, func() { s.expire(token, userID) })
	s.mu.Unlock()

	return &Session{Token: token, UserID: userID, Email: email, ExpiresAt: exp}, nil
}

func (s *Store) live(token string) bool {
	_, ok, err := s.cache.Load(token, nil)
	return err == nil && ok
}

// revoke drops token and reports whether it was still tracked
func (s *Store) revoke(token, userID string) bool {
	s.mu.Lock()
	tracked := false
	if tokens, ok := s.byUser[userID]; ok {
		if t, ok := tokens[token]; ok {
			t.Stop()
			delete(tokens, token)
			tracked = true
		}
		if len(tokens) == 0 {
			delete(s.byUser, userID)
		}
	}
	s.mu.Unlock()

	if err := auth.Revoke(s.strategy, token, nil); err != nil {
		zap.S().With(err).Warn("failed to revoke token")
	}
	return tracked
}

func (s *Store) revokeAll(userID string) {
	s.mu.Lock()
	tokens := make([]string, 0, len(s.byUser[userID]))
	for token := range s.byUser[userID] {
		tokens = append(tokens, token)
	}
	s.mu.Unlock()

	for _, token := range tokens {
		if s.revoke(token, userID) {
			s.publish(Event{Kind: SignedOut, Token: token, UserID: userID})
		}
	}
}

func (s *Store) expire(token, userID string) {
	if s.revoke(token, userID) {
		zap.S().Debugw("session expired", "userId", userID)
		s.publish(Event{Kind: Expired, Token: token, UserID: userID})
	}
}

type subscription struct {
	once        sync.Once
	unsubscribe func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.unsubscribe)
}
