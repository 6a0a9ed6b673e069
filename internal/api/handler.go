// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestBytes caps a POSTed GraphQL request body.
const MaxRequestBytes = 1 << 20

const tracerName = "github.com/threadboard/threadboard/internal/api"

// Request is a GraphQL request as sent over HTTP.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Handler executes GraphQL requests against a schema.
type Handler struct {
	schema  graphql.Schema
	metrics Recorder
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHandler creates a Handler. metrics and logger may be nil.
func NewHandler(schema graphql.Schema, metrics Recorder, logger *slog.Logger) *Handler {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		schema:  schema,
		metrics: metrics,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// ServeHTTP accepts GET with a query parameter, or POST with a JSON body or
// an application/graphql body. Executed requests always answer 200; GraphQL
// errors travel in the response's errors list.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, status, err := decodeRequest(r)
	if err != nil {
		h.metrics.RecordGraphQLRequest("bad_request", time.Since(start))
		h.logger.DebugContext(r.Context(), "rejected graphql request", "error", err)
		switch {
		case errors.Is(err, errGETNotQuery):
			w.Header().Set("Allow", "POST")
		case status == http.StatusMethodNotAllowed:
			w.Header().Set("Allow", "GET, POST")
		}
		http.Error(w, err.Error(), status)
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "graphql.execute",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("graphql.operation.name", req.OperationName)))
	defer span.End()

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	outcome := "ok"
	if result.HasErrors() {
		outcome = "error"
		span.SetStatus(codes.Error, result.Errors[0].Message)
		h.logger.DebugContext(ctx, "graphql request returned errors",
			"operation_name", req.OperationName,
			"errors", len(result.Errors),
			"first_error", result.Errors[0].Message)
	}
	h.metrics.RecordGraphQLRequest(outcome, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.WarnContext(ctx, "failed to write graphql response", "error", err)
	}
}

var (
	errEmptyQuery  = errors.New("query is required")
	errGETNotQuery = errors.New("GET supports only query operations")
)

func decodeRequest(r *http.Request) (*Request, int, error) {
	var req Request

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				return nil, http.StatusBadRequest, errors.New("variables must be a JSON object")
			}
		}
		if op, ok := selectedOperation(req.Query, req.OperationName); ok && op != ast.OperationTypeQuery {
			return nil, http.StatusMethodNotAllowed, errGETNotQuery
		}

	case http.MethodPost:
		body := http.MaxBytesReader(nil, r.Body, MaxRequestBytes)
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "application/graphql" {
			raw, err := io.ReadAll(body)
			if err != nil {
				return nil, http.StatusBadRequest, errors.New("unreadable request body")
			}
			req.Query = string(raw)
			break
		}
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return nil, http.StatusBadRequest, errors.New("request body must be a JSON object")
		}

	default:
		return nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}

	if req.Query == "" {
		return nil, http.StatusBadRequest, errEmptyQuery
	}
	return &req, http.StatusOK, nil
}

// selectedOperation returns the operation type the request would execute.
// ok is false when the document does not parse or names no single
// operation; execution reports those cases itself.
func selectedOperation(query, operationName string) (op string, ok bool) {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return "", false
	}

	var found *ast.OperationDefinition
	for _, def := range doc.Definitions {
		od, isOp := def.(*ast.OperationDefinition)
		if !isOp {
			continue
		}
		if operationName == "" {
			if found != nil {
				return "", false
			}
			found = od
			continue
		}
		if od.Name != nil && od.Name.Value == operationName {
			found = od
			break
		}
	}
	if found == nil {
		return "", false
	}
	return found.Operation, true
}
