// Package service implements account sign-up, sign-in and token lifecycle.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"propertyops_backend/internal/auth/password"
	"propertyops_backend/internal/auth/repository"
	"propertyops_backend/internal/config"
	"propertyops_backend/platform/apperr"
	"propertyops_backend/platform/logger"
)

// RoleOperator is the default role for newly created accounts.
const RoleOperator = "operator"

const refreshTokenBytes = 32

type Service struct {
	repo *repository.Repository
	cfg  *config.Config
	log  *logger.Logger
}

func New(repo *repository.Repository, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// TokenPair holds a signed access token and its rotating refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

func (s *Service) SignUp(ctx context.Context, email, pass, name string) (*repository.User, error) {
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to check account", err)
	}
	if exists {
		return nil, apperr.Conflict("an account with this email already exists")
	}

	hashed, err := password.Hash(pass)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	now := time.Now().UTC()
	user := &repository.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		Roles:        []string{RoleOperator},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create account", err)
	}

	s.log.Info("account created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func (s *Service) SignIn(ctx context.Context, email, pass string) (*TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load account", err)
	}

	if !password.Compare(user.PasswordHash, pass) {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. Expired or unknown tokens are rejected as unauthorized.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.repo.GetRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("invalid refresh token")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load refresh token", err)
	}

	if err := s.repo.DeleteRefreshToken(ctx, stored.TokenHash); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to rotate refresh token", err)
	}

	if time.Now().After(stored.ExpiresAt) {
		return nil, apperr.Unauthorized("refresh token expired")
	}

	user, err := s.repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("account no longer exists")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load account", err)
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	if err := s.repo.DeleteRefreshToken(ctx, hashToken(refreshToken)); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to revoke refresh token", err)
	}
	return nil
}

func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (*repository.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) issueTokens(ctx context.Context, user *repository.User) (*TokenPair, error) {
	accessToken, err := s.signJWT(user)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to sign access token", err)
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to generate refresh token", err)
	}

	now := time.Now().UTC()
	if err := s.repo.SaveRefreshToken(ctx, &repository.RefreshToken{
		TokenHash: hashToken(refreshToken),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to store refresh token", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) signJWT(user *repository.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"type":  "access",
		"roles": user.Roles,
		"exp":   now.Add(s.cfg.AccessTokenTTL).Unix(),
		"iat":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTAccessSecret))
}

func newRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
