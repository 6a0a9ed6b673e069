// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

// Package api exposes Threadboard over GraphQL.
//
// The schema is assembled once at startup from a list of Operations, each
// naming its root (query or mutation), arguments, return type and resolver.
// Handler serves the schema over HTTP and expects session.Manager's
// middleware to have run, so resolvers can reach the caller's session.
package api
