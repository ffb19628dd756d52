package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dutyroster/apiserver/internal/store"
	"github.com/dutyroster/apiserver/types"
	"go.uber.org/zap"
)

const tokenTypeBearer = "bearer"

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken           string `json:"access_token"`
	TokenType             string `json:"token_type"`
	RequirePasswordChange bool   `json:"require_password_change"`
}

// AuthService verifies credentials and bearer tokens.
type AuthService struct {
	tx     Transactor
	tokens *TokenIssuer
	hasher PasswordHasher
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(tx Transactor, tokens *TokenIssuer, hasher PasswordHasher, log *zap.Logger) *AuthService {
	return &AuthService{
		tx:     tx,
		tokens: tokens,
		hasher: hasher,
		log:    loggerOrNop(log),
		now:    time.Now,
	}
}

// Authenticate checks a login/password pair, marks the account active,
// stamps last_login and issues an access token.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (LoginResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return LoginResult{}, badCredentials()
	}

	var acc types.Account
	err := s.tx.InTx(ctx, func(repos Repositories) error {
		found, err := repos.Accounts.GetByLogin(ctx, login)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return badCredentials()
			}
			return err
		}
		if !s.hasher.Verify(password, found.PasswordHash) {
			return badCredentials()
		}

		now := s.now().UTC()
		found.IsActive = true
		found.LastLogin = &now
		acc, err = repos.Accounts.Update(ctx, found)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.log.Warn("login rejected", zap.String("login", login))
		}
		return LoginResult{}, err
	}

	token, err := s.tokens.Issue(acc)
	if err != nil {
		return LoginResult{}, err
	}

	s.log.Info("login", zap.Int("account_id", acc.ID), zap.String("login", acc.Login))
	return LoginResult{
		AccessToken:           token,
		TokenType:             tokenTypeBearer,
		RequirePasswordChange: !acc.IsAdmin && !acc.IsPasswordSet,
	}, nil
}

// Resolve maps a bearer token to the account it was issued for.
func (s *AuthService) Resolve(ctx context.Context, token string) (types.Account, error) {
	if strings.TrimSpace(token) == "" {
		return types.Account{}, unauthenticated()
	}
	claims, err := s.tokens.Decode(token)
	if err != nil {
		return types.Account{}, unauthenticated()
	}

	var acc types.Account
	err = s.tx.InTx(ctx, func(repos Repositories) error {
		found, err := repos.Accounts.GetByLogin(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return unauthenticated()
			}
			return err
		}
		acc = found
		return nil
	})
	return acc, err
}

// RequireAdmin passes admins through and rejects everyone else.
func RequireAdmin(acc types.Account) (types.Account, error) {
	if !acc.IsAdmin {
		return types.Account{}, forbidden()
	}
	return acc, nil
}

func badCredentials() error {
	return newError(ErrInvalidCredentials, "Incorrect username or password")
}

func unauthenticated() error {
	return newError(ErrUnauthenticated, "Could not validate credentials")
}
