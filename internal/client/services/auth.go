// Package services contains the thin application services the CLI uses on
// top of the API client: session handling and the code catalogue.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/codemap/internal/client/apiclient"
	"github.com/dmitrijs2005/codemap/internal/client/credentials"
)

var ErrEmptyCredentials = errors.New("username and password are required")

// Session is the part of *apiclient.Client the auth service needs.
type Session interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
	Config() apiclient.Config
	SetCredential(ctx context.Context, cred credentials.Credential) error
	ClearCredential(ctx context.Context) error
	Store() *credentials.Store
	IsAuthenticated() bool
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: exchange username/password for a credential and store it.
//   - Logout: revoke the refresh token on the server (best effort) and
//     always forget the local credential.
//   - Status: report the current session without contacting the server.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) error
	Logout(ctx context.Context) error
	Status() SessionStatus
}

type SessionStatus struct {
	Authenticated bool
	HasCredential bool
	ExpiresAt     time.Time
}

type authService struct {
	session Session
	now     func() time.Time
}

func NewAuthService(s Session) AuthService {
	return &authService{session: s, now: time.Now}
}

func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	if username == "" || len(password) == 0 {
		return ErrEmptyCredentials
	}
	cfg := a.session.Config()

	resp, err := a.session.Do(ctx, apiclient.Request{
		Method:   http.MethodPost,
		Path:     cfg.LoginPath,
		Body:     map[string]string{"username": username, "password": string(password)},
		SkipAuth: true,
	})
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	cred, err := credentials.FromTokenResponse(resp.Data, a.now(), cfg.DefaultTokenLifetime)
	if err != nil {
		return fmt.Errorf("login response: %w", err)
	}
	if err := a.session.SetCredential(ctx, cred); err != nil {
		return fmt.Errorf("credential saving error: %w", err)
	}
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	var remoteErr error
	if cred, ok := a.session.Store().Current(); ok && cred.RefreshToken != "" {
		_, remoteErr = a.session.Do(ctx, apiclient.Request{
			Method:   http.MethodPost,
			Path:     a.session.Config().LogoutPath,
			Body:     map[string]string{"refreshToken": cred.RefreshToken},
			SkipAuth: true,
		})
	}

	if err := a.session.ClearCredential(ctx); err != nil {
		return fmt.Errorf("credential clearing error: %w", err)
	}
	if remoteErr != nil {
		return fmt.Errorf("logged out locally, server revoke failed: %w", remoteErr)
	}
	return nil
}

func (a *authService) Status() SessionStatus {
	cred, ok := a.session.Store().Current()
	return SessionStatus{
		Authenticated: a.session.IsAuthenticated(),
		HasCredential: ok,
		ExpiresAt:     cred.ExpiresAt,
	}
}
