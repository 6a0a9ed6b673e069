// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package api

import (
	"github.com/graphql-go/graphql"

	"github.com/threadboard/threadboard/internal/auth"
)

// UserType is the public view of an account. The password hash is never
// exposed.
var UserType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"username":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
	},
})

// FieldErrorType is a message tied to an input field.
var FieldErrorType = graphql.NewObject(graphql.ObjectConfig{
	Name: "FieldError",
	Fields: graphql.Fields{
		"field":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"message": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

// UserMutationResponseType is returned by register and login.
var UserMutationResponseType = graphql.NewObject(graphql.ObjectConfig{
	Name: "UserMutationResponse",
	Fields: graphql.Fields{
		"code":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"success": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"message": &graphql.Field{Type: graphql.String},
		"errors":  &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(FieldErrorType))},
		"user":    &graphql.Field{Type: UserType},
	},
})

// RegisterInputType carries register's arguments.
var RegisterInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "RegisterInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"username": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

// LoginInputType carries login's arguments.
var LoginInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "LoginInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"usernameOrEmail": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"password":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

func userPayload(u *auth.User) map[string]any {
	if u == nil {
		return nil
	}
	return map[string]any{
		"id":        u.ID.String(),
		"username":  u.Username,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}

func resultPayload(r auth.Result) map[string]any {
	out := map[string]any{
		"code":    r.Code,
		"success": r.Success,
		"message": r.Message,
	}
	if len(r.Errors) > 0 {
		errs := make([]map[string]any, 0, len(r.Errors))
		for _, fe := range r.Errors {
			errs = append(errs, map[string]any{"field": fe.Field, "message": fe.Message})
		}
		out["errors"] = errs
	}
	if u := userPayload(r.User); u != nil {
		out["user"] = u
	}
	return out
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
