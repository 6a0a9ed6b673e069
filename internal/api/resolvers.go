// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package api

import (
	"context"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/samber/oops"

	"github.com/threadboard/threadboard/internal/auth"
	"github.com/threadboard/threadboard/internal/session"
)

// Authenticator is the account flow behind the auth mutations.
// *auth.Service implements it.
type Authenticator interface {
	Register(ctx context.Context, sess auth.SessionContext, in auth.RegisterInput) auth.Result
	Login(ctx context.Context, sess auth.SessionContext, in auth.LoginInput) auth.Result
	Logout(ctx context.Context, sess auth.SessionContext) bool
}

// Recorder receives request and auth outcome metrics.
// *observability.Metrics implements it.
type Recorder interface {
	RecordAuthOperation(operation string, code int)
	RecordGraphQLRequest(status string, elapsed time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordAuthOperation(string, int)            {}
func (noopRecorder) RecordGraphQLRequest(string, time.Duration) {}

// Resolvers binds the auth flow to GraphQL operations.
type Resolvers struct {
	auth    Authenticator
	metrics Recorder
}

// NewResolvers creates Resolvers. metrics may be nil.
func NewResolvers(a Authenticator, metrics Recorder) (*Resolvers, error) {
	if a == nil {
		return nil, oops.Code("API_INVALID_DEPENDENCY").Errorf("authenticator is required")
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &Resolvers{auth: a, metrics: metrics}, nil
}

// Operations returns every operation Threadboard serves.
func (r *Resolvers) Operations() []Operation {
	return []Operation{
		{
			Name:        "hello",
			Kind:        KindQuery,
			Description: "Liveness greeting.",
			Type:        graphql.NewNonNull(graphql.String),
			Resolve:     func(graphql.ResolveParams) (any, error) { return "Hello", nil },
		},
		{
			Name:        "register",
			Kind:        KindMutation,
			Description: "Create an account and log in as it.",
			Args: graphql.FieldConfigArgument{
				"registerInput": &graphql.ArgumentConfig{Type: graphql.NewNonNull(RegisterInputType)},
			},
			Type:    UserMutationResponseType,
			Resolve: r.register,
		},
		{
			Name:        "login",
			Kind:        KindMutation,
			Description: "Log in by username or email.",
			Args: graphql.FieldConfigArgument{
				"loginInput": &graphql.ArgumentConfig{Type: graphql.NewNonNull(LoginInputType)},
			},
			Type:    graphql.NewNonNull(UserMutationResponseType),
			Resolve: r.login,
		},
		{
			Name:        "logout",
			Kind:        KindMutation,
			Description: "End the current session.",
			Type:        graphql.NewNonNull(graphql.Boolean),
			Resolve:     r.logout,
		},
	}
}

// Schema builds the schema for Operations.
func (r *Resolvers) Schema() (graphql.Schema, error) {
	return NewSchema(r.Operations()...)
}

func (r *Resolvers) register(p graphql.ResolveParams) (any, error) {
	in, _ := p.Args["registerInput"].(map[string]any)
	res := r.auth.Register(p.Context, sessionFrom(p.Context), auth.RegisterInput{
		Username: stringArg(in, "username"),
		Email:    stringArg(in, "email"),
		Password: stringArg(in, "password"),
	})
	r.metrics.RecordAuthOperation("register", res.Code)
	return resultPayload(res), nil
}

func (r *Resolvers) login(p graphql.ResolveParams) (any, error) {
	in, _ := p.Args["loginInput"].(map[string]any)
	res := r.auth.Login(p.Context, sessionFrom(p.Context), auth.LoginInput{
		UsernameOrEmail: stringArg(in, "usernameOrEmail"),
		Password:        stringArg(in, "password"),
	})
	r.metrics.RecordAuthOperation("login", res.Code)
	return resultPayload(res), nil
}

func (r *Resolvers) logout(p graphql.ResolveParams) (any, error) {
	ok := r.auth.Logout(p.Context, sessionFrom(p.Context))
	code := auth.CodeOK
	if !ok {
		code = auth.CodeInternalError
	}
	r.metrics.RecordAuthOperation("logout", code)
	return ok, nil
}

// sessionFrom returns the request's session, or a nil interface when the
// session middleware did not run.
func sessionFrom(ctx context.Context) auth.SessionContext {
	if ctx == nil {
		return nil
	}
	if req, ok := session.FromContext(ctx); ok {
		return req
	}
	return nil
}
