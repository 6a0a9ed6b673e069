// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the Threadboard application metrics.
type Metrics struct {
	AuthOperations  *prometheus.CounterVec
	GraphQLRequests *prometheus.CounterVec
	GraphQLDuration prometheus.Histogram
}

// NewMetrics creates the application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threadboard_auth_operations_total",
				Help: "Auth operations by operation and result code",
			},
			[]string{"operation", "code"},
		),
		GraphQLRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threadboard_graphql_requests_total",
				Help: "GraphQL requests by outcome",
			},
			[]string{"status"},
		),
		GraphQLDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "threadboard_graphql_request_duration_seconds",
			Help:    "GraphQL request latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.AuthOperations, m.GraphQLRequests, m.GraphQLDuration)
	return m
}

// NewRegistry returns a registry with the Go and process collectors and
// the application metrics registered.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg, NewMetrics(reg)
}

// RecordAuthOperation counts one register, login or logout outcome.
func (m *Metrics) RecordAuthOperation(operation string, code int) {
	if m == nil {
		return
	}
	m.AuthOperations.WithLabelValues(operation, strconv.Itoa(code)).Inc()
}

// RecordGraphQLRequest counts one executed request. status is "ok",
// "error" (the result carried GraphQL errors) or "bad_request".
func (m *Metrics) RecordGraphQLRequest(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GraphQLRequests.WithLabelValues(status).Inc()
	m.GraphQLDuration.Observe(elapsed.Seconds())
}
