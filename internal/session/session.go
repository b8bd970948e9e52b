// Package session persists the bearer credential and the last-known user
// profile across restarts.
//
// A Store moves between two states: Anonymous (no credential persisted) and
// Authenticated. Login flows call SetCredential then SetProfile (or
// DecodeCredentialToProfile); logout calls Clear.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kaia-invest/kaia-core/internal/apperrors"
	"github.com/kaia-invest/kaia-core/internal/logging"
	"github.com/kaia-invest/kaia-core/internal/model"
	"github.com/kaia-invest/kaia-core/internal/storage"
)

// Storage keys.
const (
	KeyCredential = "jwt_token"
	KeyProfile    = "payload"
)

// State is the authentication state of a Store.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Post-login destinations.
const (
	LandingAdminDashboard   = "AdminDashboard"
	LandingInvestorProjects = "InvestorProjects"
	LandingHome             = "Home"
)

// Landing returns where a freshly logged-in user with role should land.
func Landing(role string) string {
	switch role {
	case model.RoleAdmin:
		return LandingAdminDashboard
	case model.RoleUser:
		return LandingInvestorProjects
	default:
		return LandingHome
	}
}

// Store is safe for concurrent use. The credential is cached in memory after
// the first read; SetCredential and Clear invalidate the cache.
type Store struct {
	kv      storage.KV
	decoder TokenDecoder
	log     *logging.Logger

	mu     sync.Mutex
	loaded bool
	token  string
	has    bool
}

// New creates a store over kv. A nil decoder selects JWTDecoder; a nil
// logger discards output.
func New(kv storage.KV, decoder TokenDecoder, log *logging.Logger) *Store {
	if decoder == nil {
		decoder = JWTDecoder{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Store{kv: kv, decoder: decoder, log: log}
}

// Init reads the persisted credential at application start.
func (s *Store) Init(ctx context.Context) State {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()

	st := s.State(ctx)
	s.log.WithContext(ctx).WithField("state", st.String()).Debug("session initialized")
	return st
}

// State reports whether a credential is persisted.
func (s *Store) State(ctx context.Context) State {
	if _, ok := s.GetCredential(ctx); ok {
		return Authenticated
	}
	return Anonymous
}

// SetCredential persists token and moves the store to Authenticated.
func (s *Store) SetCredential(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	if err := s.kv.Set(ctx, KeyCredential, token); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.token, s.has, s.loaded = token, true, true
	return nil
}

// GetCredential returns the persisted token. Storage failures are logged
// and reported as absent.
func (s *Store) GetCredential(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.token, s.has
	}
	token, ok, err := s.kv.Get(ctx, KeyCredential)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("read credential failed")
		return "", false
	}
	s.token, s.has, s.loaded = token, ok, true
	return token, ok
}

// SetProfile persists the user snapshot in wire form.
func (s *Store) SetProfile(ctx context.Context, u model.User) error {
	raw, err := model.UserToWire(u).JSON()
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.kv.Set(ctx, KeyProfile, string(raw)); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// GetProfile returns the persisted snapshot, or an error matching
// apperrors.ErrProfileNotFound when none is stored or it cannot be read.
func (s *Store) GetProfile(ctx context.Context) (model.User, error) {
	raw, ok, err := s.kv.Get(ctx, KeyProfile)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %w", apperrors.ErrProfileNotFound, err)
	}
	if !ok || raw == "" {
		return model.User{}, apperrors.ErrProfileNotFound
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var rec model.Record
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return model.User{}, fmt.Errorf("%w: unreadable snapshot", apperrors.ErrProfileNotFound)
	}
	return model.UserFromWire(rec), nil
}

// DecodeCredentialToProfile derives a minimal profile from the token claims
// and persists it. A token that cannot be decoded yields an empty profile;
// only storage failures are returned.
func (s *Store) DecodeCredentialToProfile(ctx context.Context, token string) (model.User, error) {
	var u model.User
	claims, err := s.decoder.Decode(token)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("credential claims unreadable, storing empty profile")
	} else {
		u = model.UserFromWire(profileFromClaims(claims))
	}
	if err := s.SetProfile(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Clear removes credential and profile in one storage call and moves the
// store to Anonymous.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	if err := s.kv.Remove(ctx, KeyCredential, KeyProfile); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.token, s.has, s.loaded = "", false, true
	return nil
}
