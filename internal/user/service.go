package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"quickcourt/internal/apperr"
	"quickcourt/internal/auth"
	"quickcourt/internal/logger"
	"quickcourt/internal/metrics"
	"quickcourt/internal/otp"
)

var (
	ErrEmailExists        = apperr.Conflict("email already registered")
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
	ErrInvalidRefresh     = apperr.Unauthorized("invalid or expired refresh token")
)

// PendingStore holds signups awaiting OTP confirmation.
type PendingStore interface {
	Put(ctx context.Context, p otp.PendingSignup, code string) error
	Verify(ctx context.Context, email, code string) (*otp.PendingSignup, error)
}

type CodeMailer interface {
	SendOTP(ctx context.Context, email, name, code string, ttl time.Duration) error
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	RequestSignupOTP(ctx context.Context, req RegisterRequest) error
	VerifySignupOTP(ctx context.Context, req VerifyOTPRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
	Logout(ctx context.Context, identity auth.Identity, refreshToken string) error
}

type service struct {
	repo      Repository
	jwtSecret string
	pending   PendingStore
	mailer    CodeMailer
	tokens    auth.TokenStore
	now       func() time.Time
}

func NewService(repo Repository, jwtSecret string, pending PendingStore, mailer CodeMailer, tokens auth.TokenStore) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
		pending:   pending,
		mailer:    mailer,
		tokens:    tokens,
		now:       time.Now,
	}
}

func roleOrDefault(role string) string {
	if role == "" {
		return auth.RoleUser
	}
	return role
}

func (s *service) issue(user *User) (*User, string, string, error) {
	accessToken, refreshToken, err := auth.GenerateTokens(user.ID, user.Email, user.Role, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}
	return user, accessToken, refreshToken, nil
}

// Register creates an unverified account without an OTP round trip.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	user, err := s.repo.Create(ctx, req.Name, req.Email, passwordHash, roleOrDefault(req.Role), req.Avatar, false)
	if err != nil {
		return nil, "", "", err
	}

	return s.issue(user)
}

func (s *service) RequestSignupOTP(ctx context.Context, req RegisterRequest) error {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	pending := otp.PendingSignup{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         roleOrDefault(req.Role),
		RequestedAt:  s.now(),
	}
	if err := s.pending.Put(ctx, pending, code); err != nil {
		return err
	}

	if err := s.mailer.SendOTP(ctx, req.Email, req.Name, code, otp.TTL); err != nil {
		metrics.RecordOTP("mail_failed")
		return fmt.Errorf("queue otp email: %w", err)
	}

	metrics.RecordOTP("requested")
	return nil
}

func (s *service) VerifySignupOTP(ctx context.Context, req VerifyOTPRequest) (*User, string, string, error) {
	p, err := s.pending.Verify(ctx, req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrExpired):
			metrics.RecordOTP("expired")
			return nil, "", "", apperr.Validation("%s", err.Error())
		case errors.Is(err, otp.ErrInvalidCode):
			metrics.RecordOTP("invalid")
			return nil, "", "", apperr.Validation("%s", err.Error())
		case errors.Is(err, otp.ErrTooManyAttempts):
			metrics.RecordOTP("locked")
			return nil, "", "", apperr.Validation("%s", err.Error())
		}
		return nil, "", "", err
	}

	user, err := s.repo.Create(ctx, p.Name, p.Email, p.PasswordHash, roleOrDefault(p.Role), "", true)
	if err != nil {
		return nil, "", "", err
	}

	metrics.RecordOTP("verified")
	return s.issue(user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error("login lookup failed", "error", err)
		}
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	claims, err := auth.ValidateRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return "", nil, ErrInvalidRefresh
	}

	if s.tokens != nil {
		revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return "", nil, err
		}
		if revoked {
			return "", nil, ErrInvalidRefresh
		}
	}

	user, err := s.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, err
	}

	accessToken, err := auth.GenerateAccessToken(user.ID, user.Email, user.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return accessToken, user, nil
}

// Logout revokes the caller's access token and, if given, the paired refresh token.
func (s *service) Logout(ctx context.Context, identity auth.Identity, refreshToken string) error {
	if s.tokens == nil {
		return nil
	}

	if err := s.tokens.Revoke(ctx, identity.TokenID, identity.ExpiresAt.Sub(s.now())); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}

	if refreshToken == "" {
		return nil
	}
	claims, err := auth.ValidateRefreshToken(refreshToken, s.jwtSecret)
	if err != nil || claims.UserID != identity.UserID {
		return nil
	}
	if err := s.tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time.Sub(s.now())); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
