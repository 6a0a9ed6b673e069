// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package auth

import (
	"strings"
	"unicode/utf8"
)

// Registration constraints.
const (
	MinUsernameLength = 4
	MinPasswordLength = 3
)

// Field names reported in FieldError.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldUsernameOrEmail = "usernameOrEmail"
)

// RegisterInput is a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput is a login request. UsernameOrEmail is treated as an email
// when it contains '@'.
type LoginInput struct {
	UsernameOrEmail string
	Password        string
}

// ValidationError describes the first rule a RegisterInput violates.
type ValidationError struct {
	// Summary is the top-level message returned to the client.
	Summary string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateRegisterInput checks a registration request and returns nil when
// it is valid. Rules are checked in a fixed order and only the first
// failure is reported:
//   - email must contain '@'
//   - username must be at least MinUsernameLength characters
//   - username must not contain '@'
//   - password must be at least MinPasswordLength characters
func ValidateRegisterInput(in RegisterInput) *ValidationError {
	if !strings.Contains(in.Email, "@") {
		return &ValidationError{
			Summary: "Invalid email address",
			Field:   FieldEmail,
			Message: "Invalid email address missing @",
		}
	}
	if utf8.RuneCountInString(in.Username) < MinUsernameLength {
		return &ValidationError{
			Summary: "Invalid username",
			Field:   FieldUsername,
			Message: "Username must be at least 4 characters",
		}
	}
	if strings.Contains(in.Username, "@") {
		return &ValidationError{
			Summary: "Invalid username",
			Field:   FieldUsername,
			Message: "Username can not contain @",
		}
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return &ValidationError{
			Summary: "Invalid password",
			Field:   FieldPassword,
			Message: "Password must be at least 3 characters",
		}
	}
	return nil
}
