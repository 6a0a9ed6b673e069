// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package auth

// Result status codes.
const (
	CodeOK            = 200
	CodeBadRequest    = 400
	CodeInternalError = 500
)

// FieldError ties a message to the input field it concerns.
type FieldError struct {
	Field   string
	Message string
}

// Result is the outcome of a register or login attempt. Every call produces
// a Result; failures never surface as Go errors.
type Result struct {
	Code    int
	Success bool
	Message string
	Errors  []FieldError
	// User is set only when Success is true.
	User *User
}

func succeeded(message string, user *User) Result {
	return Result{
		Code:    CodeOK,
		Success: true,
		Message: message,
		User:    user,
	}
}

func rejected(message, field, fieldMessage string) Result {
	return Result{
		Code:    CodeBadRequest,
		Success: false,
		Message: message,
		Errors:  []FieldError{{Field: field, Message: fieldMessage}},
	}
}

func failed(err error) Result {
	return Result{
		Code:    CodeInternalError,
		Success: false,
		Message: "Internal server error " + err.Error(),
	}
}

func duplicateAccount(field string) Result {
	if field == FieldUsername {
		return rejected("User already exists", FieldUsername, "Username already exists")
	}
	return rejected("User already exists", FieldEmail, "Email already exists")
}
