package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
	"storefront/internal/transport"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrInvalidCredentials is returned when username/password are rejected upstream.
var ErrInvalidCredentials = errors.New("invalid credentials")

type authAPI interface {
	Login(ctx context.Context, username, password string) (domain.Credential, error)
	Refresh(ctx context.Context, refreshToken string, expiresInMins int) (domain.Credential, error)
	AddUser(ctx context.Context, user domain.User) (domain.User, error)
}

// Session describes the stored login as far as it can be read from the
// access token without verifying its signature.
type Session struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"userId,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// Service handles login, signup and logout against the upstream auth
// endpoints. It also implements transport.Refresher.
type Service struct {
	api           authAPI
	tokens        tokenrepo.Repository
	expiresInMins int
	logger        logrus.FieldLogger
	parser        *jwt.Parser
}

func New(api authAPI, tokens tokenrepo.Repository, expiresInMins int, logger logrus.FieldLogger) *Service {
	return &Service{
		api:           api,
		tokens:        tokens,
		expiresInMins: expiresInMins,
		logger:        logger,
		parser:        jwt.NewParser(),
	}
}

// Login exchanges username and password for a credential pair and stores
// it. Upstreams that issue no refresh token get a random placeholder so the
// refresh path still has something to send.
func (s *Service) Login(ctx context.Context, username, password string) (domain.Credential, error) {
	cred, err := s.api.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		if transport.IsStatus(err, http.StatusBadRequest) || transport.IsStatus(err, http.StatusUnauthorized) {
			return domain.Credential{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return domain.Credential{}, err
	}
	if cred.AccessToken == "" {
		return domain.Credential{}, errors.New("login response carried no access token")
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = uuid.NewString()
	}
	if err := s.tokens.Save(ctx, cred); err != nil {
		return domain.Credential{}, fmt.Errorf("store credential: %w", err)
	}
	s.logger.WithField("username", username).Info("auth: logged in")
	return cred, nil
}

// Signup registers a user upstream. It does not log the user in.
func (s *Service) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := s.api.AddUser(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	created.Password = ""
	return created, nil
}

// Logout forgets both stored tokens.
func (s *Service) Logout(ctx context.Context) error {
	return s.tokens.Clear(ctx)
}

// Refresh asks upstream for a new credential. A response without a refresh
// token keeps the stored one.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (domain.Credential, error) {
	cred, err := s.api.Refresh(ctx, refreshToken, s.expiresInMins)
	if err != nil {
		return domain.Credential{}, err
	}
	if cred.AccessToken == "" {
		return domain.Credential{}, errors.New("refresh response carried no access token")
	}
	return cred, nil
}

// Session reports whether an access token is stored and, when it is a JWT,
// the user id and expiry it claims.
func (s *Service) Session(ctx context.Context) (Session, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return Session{}, err
	}
	if token == "" {
		return Session{}, nil
	}

	out := Session{Authenticated: true}
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		s.logger.WithError(err).Debug("auth: access token is not a readable jwt")
		return out, nil
	}
	out.UserID = subject(claims)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time.UTC()
		out.ExpiresAt = &t
	}
	return out, nil
}

func subject(claims jwt.MapClaims) string {
	switch id := claims["id"].(type) {
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case string:
		return id
	}
	if sub, err := claims.GetSubject(); err == nil {
		return sub
	}
	return ""
}
