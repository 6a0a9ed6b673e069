// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadboard/threadboard/internal/api"
)

func newEchoHandler(t *testing.T, rec api.Recorder) http.Handler {
	t.Helper()
	schema, err := api.NewSchema(api.Operation{
		Name: "echo",
		Kind: api.KindQuery,
		Args: graphql.FieldConfigArgument{
			"text": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
		},
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return p.Args["text"], nil
		},
	})
	require.NoError(t, err)
	return api.NewHandler(schema, rec, nil)
}

func serveRaw(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) gqlResponse {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var out gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_GET(t *testing.T) {
	h := newEchoHandler(t, nil)
	q := url.Values{
		"query":     {`query Echo($t: String!) { echo(text: $t) }`},
		"variables": {`{"t":"hi"}`},
	}
	rec := serveRaw(h, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	require.Empty(t, out.Errors)
	assert.JSONEq(t, `"hi"`, string(out.Data["echo"]))
}

func TestHandler_GETBadVariables(t *testing.T) {
	h := newEchoHandler(t, nil)
	q := url.Values{"query": {`{ echo(text: "x") }`}, "variables": {`[1,2]`}}
	rec := serveRaw(h, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_POSTJSON(t *testing.T) {
	h := newEchoHandler(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/graphql",
		strings.NewReader(`{"query":"query A { a: echo(text: \"one\") } query B { b: echo(text: \"two\") }","operationName":"B"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	rec := serveRaw(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	require.Empty(t, out.Errors)
	assert.JSONEq(t, `"two"`, string(out.Data["b"]))
	assert.NotContains(t, out.Data, "a")
}

func TestHandler_POSTGraphQLBody(t *testing.T) {
	h := newEchoHandler(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{ echo(text: "raw") }`))
	req.Header.Set("Content-Type", "application/graphql")

	out := decodeBody(t, serveRaw(h, req))
	assert.JSONEq(t, `"raw"`, string(out.Data["echo"]))
}

func TestHandler_Rejects(t *testing.T) {
	getTarget := func(query, operationName string) string {
		q := url.Values{"query": {query}}
		if operationName != "" {
			q.Set("operationName", operationName)
		}
		return "/graphql?" + q.Encode()
	}

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
		allow  string
	}{
		{name: "malformed json", method: http.MethodPost, body: `{"query":`, want: http.StatusBadRequest},
		{name: "json array", method: http.MethodPost, body: `["{ echo }"]`, want: http.StatusBadRequest},
		{name: "empty query", method: http.MethodPost, body: `{"query":""}`, want: http.StatusBadRequest},
		{name: "oversized body", method: http.MethodPost, body: `{"query":"` + strings.Repeat("x", api.MaxRequestBytes) + `"}`, want: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodPut, body: `{"query":"{ echo(text: \"x\") }"}`, want: http.StatusMethodNotAllowed, allow: "GET, POST"},
		{name: "mutation over GET", method: http.MethodGet, target: getTarget(`mutation { logout }`, ""), want: http.StatusMethodNotAllowed, allow: "POST"},
		{name: "named mutation over GET", method: http.MethodGet, target: getTarget(`query Q { echo(text: "x") } mutation M { logout }`, "M"), want: http.StatusMethodNotAllowed, allow: "POST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			h := newEchoHandler(t, rec)
			target := tt.target
			if target == "" {
				target = "/graphql"
			}
			req := httptest.NewRequest(tt.method, target, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			got := serveRaw(h, req)
			assert.Equal(t, tt.want, got.Code)
			assert.Equal(t, []string{"bad_request"}, rec.requests)
			assert.Equal(t, tt.allow, got.Header().Get("Allow"))
		})
	}
}

func TestHandler_GETSelectsNamedQuery(t *testing.T) {
	h := newEchoHandler(t, nil)
	q := url.Values{
		"query":         {`query Q { echo(text: "picked") } mutation M { logout }`},
		"operationName": {"Q"},
	}
	rec := serveRaw(h, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	require.Empty(t, out.Errors)
	assert.JSONEq(t, `"picked"`, string(out.Data["echo"]))
}

func TestHandler_GETUnparsableQueryReportsGraphQLError(t *testing.T) {
	h := newEchoHandler(t, nil)
	q := url.Values{"query": {`{ echo(`}}
	rec := serveRaw(h, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec).Errors)
}

func TestHandler_GraphQLErrorsAre200(t *testing.T) {
	rec := &fakeRecorder{}
	h := newEchoHandler(t, rec)
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ nope }"}`))
	req.Header.Set("Content-Type", "application/json")

	got := serveRaw(h, req)
	require.Equal(t, http.StatusOK, got.Code)
	out := decodeBody(t, got)
	require.NotEmpty(t, out.Errors)
	assert.Contains(t, out.Errors[0].Message, "nope")
	assert.Equal(t, []string{"error"}, rec.requests)
}
