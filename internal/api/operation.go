// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package api

import (
	"github.com/graphql-go/graphql"
	"github.com/samber/oops"
)

// Kind selects the root type an Operation is attached to.
type Kind int

// Operation kinds.
const (
	KindQuery Kind = iota
	KindMutation
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindMutation:
		return "mutation"
	default:
		return "unknown"
	}
}

// Operation is one root field of the schema.
type Operation struct {
	Name        string
	Kind        Kind
	Description string
	Args        graphql.FieldConfigArgument
	Type        graphql.Output
	Resolve     graphql.FieldResolveFn
}

// NewSchema builds the Query and Mutation roots from ops. Names must be
// unique within a root, and at least one query is required.
func NewSchema(ops ...Operation) (graphql.Schema, error) {
	queries := graphql.Fields{}
	mutations := graphql.Fields{}

	for _, op := range ops {
		if op.Name == "" || op.Type == nil || op.Resolve == nil {
			return graphql.Schema{}, oops.Code("SCHEMA_INVALID_OPERATION").
				With("operation", op.Name).
				With("kind", op.Kind.String()).
				Errorf("operation needs a name, a type and a resolver")
		}

		var root graphql.Fields
		switch op.Kind {
		case KindQuery:
			root = queries
		case KindMutation:
			root = mutations
		default:
			return graphql.Schema{}, oops.Code("SCHEMA_INVALID_OPERATION").
				With("operation", op.Name).
				Errorf("unknown operation kind %d", op.Kind)
		}
		if _, dup := root[op.Name]; dup {
			return graphql.Schema{}, oops.Code("SCHEMA_DUPLICATE_OPERATION").
				With("operation", op.Name).
				With("kind", op.Kind.String()).
				Errorf("operation registered twice")
		}

		root[op.Name] = &graphql.Field{
			Name:        op.Name,
			Type:        op.Type,
			Args:        op.Args,
			Description: op.Description,
			Resolve:     op.Resolve,
		}
	}

	if len(queries) == 0 {
		return graphql.Schema{}, oops.Code("SCHEMA_NO_QUERY").Errorf("schema needs at least one query")
	}

	cfg := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: queries}),
	}
	if len(mutations) > 0 {
		cfg.Mutation = graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutations})
	}

	schema, err := graphql.NewSchema(cfg)
	if err != nil {
		return graphql.Schema{}, oops.Code("SCHEMA_BUILD_FAILED").Wrap(err)
	}
	return schema, nil
}
