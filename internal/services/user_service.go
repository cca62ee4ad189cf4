package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kosht/internal/auth"
	"kosht/internal/core"
	"kosht/internal/log"
)

// UserService handles registration, login and account-level switches
// (tracking mode, premium).
type UserService struct {
	store  UserStore
	issuer *auth.TokenIssuer
}

func NewUserService(store UserStore, issuer *auth.TokenIssuer) *UserService {
	return &UserService{store: store, issuer: issuer}
}

// Register creates a user with a bcrypt-hashed password. New users start
// in manual tracking mode.
func (s *UserService) Register(ctx context.Context, email, password string) (*core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email %q", email)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password too short: minimum 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &core.User{
		Email:        email,
		PasswordHash: hash,
		TrackingMode: core.TrackingManual,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", log.FieldUserID, user.ID)
	return user, nil
}

// Login verifies the credentials and returns a signed access token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", auth.ErrInvalidCredentials
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return "", auth.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// SwitchToAutoMode enables bank sync for the user. Both credentials are
// required; a failed switch leaves the stored state untouched.
func (s *UserService) SwitchToAutoMode(ctx context.Context, userID int64, bankToken, bankAccountID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if err := user.SwitchToAutoMode(bankToken, bankAccountID); err != nil {
		return err
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	slog.InfoContext(ctx, "User switched to auto tracking", log.FieldUserID, userID)
	return nil
}

// SwitchToManualMode disables bank sync and wipes the stored credentials.
func (s *UserService) SwitchToManualMode(ctx context.Context, userID int64) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	user.SwitchToManualMode()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	slog.InfoContext(ctx, "User switched to manual tracking", log.FieldUserID, userID)
	return nil
}
