package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kaia-invest/kaia-core/internal/apperrors"
	"github.com/kaia-invest/kaia-core/internal/httpclient"
	"github.com/kaia-invest/kaia-core/internal/logging"
	"github.com/kaia-invest/kaia-core/internal/model"
	"github.com/kaia-invest/kaia-core/internal/session"
)

// AuthService runs the login, signup and logout flows. It is the only
// writer of the session store.
type AuthService struct {
	client  *httpclient.Client
	session *session.Store
	log     *logging.Logger
}

// NewAuthService creates the auth client.
func NewAuthService(client *httpclient.Client, sess *session.Store, log *logging.Logger) *AuthService {
	if log == nil {
		log = logging.Discard()
	}
	return &AuthService{client: client, session: sess, log: log}
}

// Login exchanges credentials for a token, then persists the token and the
// profile and returns the profile as read back from the store. The profile
// comes from the response when it carries a user object and from the token
// claims otherwise.
func (s *AuthService) Login(ctx context.Context, req model.AuthRequest) (model.User, error) {
	resp, err := s.client.Do(ctx, httpclient.Request{
		Method:    http.MethodPost,
		Path:      "/u/login",
		Body:      model.AuthRequestToWire(req),
		Anonymous: true,
		Resource:  "auth",
		Fallback:  "Failed to authenticate",
	})
	if err != nil {
		return model.User{}, err
	}

	rec := resp.Value().Record()
	auth := model.AuthResponseFromWire(rec)
	if auth.Token == "" {
		return model.User{}, fmt.Errorf("login: response carried no token: %w", apperrors.ErrNoCredential)
	}

	if err := s.session.SetCredential(ctx, auth.Token); err != nil {
		return model.User{}, err
	}
	if len(rec.Sub("user")) > 0 {
		err = s.session.SetProfile(ctx, auth.User)
	} else {
		_, err = s.session.DecodeCredentialToProfile(ctx, auth.Token)
	}
	if err != nil {
		return model.User{}, err
	}

	u, err := s.session.GetProfile(ctx)
	if err != nil {
		return model.User{}, err
	}
	s.log.WithContext(ctx).WithField("user_id", u.ID).WithField("role", u.Role).Info("logged in")
	return u, nil
}

// Signup creates an account. It does not log the new user in.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) error {
	_, err := s.client.Do(ctx, httpclient.Request{
		Method:    http.MethodPost,
		Path:      "/u/signup",
		Body:      model.SignupRequestToWire(req),
		Anonymous: true,
		Resource:  "auth",
		Fallback:  "Failed to create account",
	})
	return err
}

// Logout forgets the credential and the profile.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.session.Clear(ctx); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("logged out")
	return nil
}
