// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/threadboard/threadboard/pkg/errutil"
)

// Service provides the register, login, and logout flows.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
}

// NewAuthService creates a new Service that logs to slog.Default().
func NewAuthService(users UserRepository, hasher PasswordHasher) (*Service, error) {
	return NewAuthServiceWithLogger(users, hasher, slog.Default())
}

// NewAuthServiceWithLogger creates a new Service with an explicit logger.
func NewAuthServiceWithLogger(users UserRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("logger is required")
	}
	return &Service{
		users:  users,
		hasher: hasher,
		logger: logger,
	}, nil
}

// Register validates the input, creates the account, and logs the caller
// in by binding the new user to sess.
func (s *Service) Register(ctx context.Context, sess SessionContext, in RegisterInput) Result {
	if verr := ValidateRegisterInput(in); verr != nil {
		s.logger.DebugContext(ctx, "registration rejected",
			"reason", "validation",
			"field", verr.Field)
		return rejected(verr.Summary, verr.Field, verr.Message)
	}
	if sess == nil {
		return s.internalError(ctx, "register", oops.Code("AUTH_NO_SESSION").Errorf("session context is required"))
	}

	existing, err := s.users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		field := FieldEmail
		if existing.Username == in.Username {
			field = FieldUsername
		}
		s.logger.DebugContext(ctx, "registration rejected", "reason", "duplicate", "field", field)
		return duplicateAccount(field)
	case errors.Is(err, ErrNotFound):
	default:
		return s.internalError(ctx, "register", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return s.internalError(ctx, "register", err)
	}

	user, err := NewUser(in.Username, in.Email, hash)
	if err != nil {
		return s.internalError(ctx, "register", err)
	}

	// The unique constraints catch registrations that raced past the lookup.
	err = s.users.Create(ctx, user)
	switch {
	case err == nil:
	case errors.Is(err, ErrDuplicateUsername):
		s.logger.DebugContext(ctx, "registration rejected", "reason", "duplicate_on_insert", "field", FieldUsername)
		return duplicateAccount(FieldUsername)
	case errors.Is(err, ErrDuplicateEmail):
		s.logger.DebugContext(ctx, "registration rejected", "reason", "duplicate_on_insert", "field", FieldEmail)
		return duplicateAccount(FieldEmail)
	default:
		return s.internalError(ctx, "register", err)
	}

	if err := sess.Bind(ctx, user.ID); err != nil {
		return s.internalError(ctx, "register", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	return succeeded("User created successfully", user)
}

// Login authenticates by username or email and binds the user to sess.
// Unknown accounts and wrong passwords are reported separately.
func (s *Service) Login(ctx context.Context, sess SessionContext, in LoginInput) Result {
	if sess == nil {
		return s.internalError(ctx, "login", oops.Code("AUTH_NO_SESSION").Errorf("session context is required"))
	}

	lookup := s.users.GetByUsername
	if strings.Contains(in.UsernameOrEmail, "@") {
		lookup = s.users.GetByEmail
	}

	user, err := lookup(ctx, in.UsernameOrEmail)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		s.logger.DebugContext(ctx, "login rejected", "reason", "unknown_account")
		return rejected("User not found", FieldUsernameOrEmail, "Username or email incorrectly provided")
	default:
		return s.internalError(ctx, "login", err)
	}

	valid, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return s.internalError(ctx, "login", err)
	}
	if !valid {
		s.logger.DebugContext(ctx, "login rejected", "reason", "wrong_password", "user_id", user.ID.String())
		return rejected("Password wrong", FieldPassword, "Password incorrect")
	}

	s.upgradePasswordHash(ctx, user, in.Password)

	if err := sess.Bind(ctx, user.ID); err != nil {
		return s.internalError(ctx, "login", err)
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID.String())
	return succeeded("Successfully authenticated", user)
}

// Logout clears the session cookie and destroys the server-side session.
// Returns false if the session store failed; the failure is logged.
func (s *Service) Logout(ctx context.Context, sess SessionContext) bool {
	if sess == nil {
		s.logger.ErrorContext(ctx, "logout failed", "error", "session context is required")
		return false
	}

	sess.ClearCookie()

	if err := sess.Destroy(ctx); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "logout failed", err)
		return false
	}

	s.logger.DebugContext(ctx, "session destroyed")
	return true
}

// upgradePasswordHash rehashes a verified password when the stored hash uses
// outdated parameters. Login succeeds regardless of the outcome.
func (s *Service) upgradePasswordHash(ctx context.Context, user *User, password string) {
	if !s.hasher.NeedsUpgrade(user.PasswordHash) {
		return
	}

	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "best-effort password rehash failed",
			"operation", "upgrade_password_hash",
			"user_id", user.ID.String(),
			"error", err.Error())
		return
	}
	user.PasswordHash = hash
}

func (s *Service) internalError(ctx context.Context, operation string, err error) Result {
	errutil.LogErrorContext(ctx, s.logger.With("operation", operation), "auth operation failed", err)
	return failed(err)
}
