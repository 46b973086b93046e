package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the enclave
type Metrics struct {
	// Signing flow metrics
	SignRequests  *prometheus.CounterVec
	SignSuccesses *prometheus.CounterVec
	SignFailures  *prometheus.CounterVec

	// Policy metrics
	PolicyDenials *prometheus.CounterVec

	// Idempotency metrics
	IdempotencyHits prometheus.Counter

	// Authentication metrics
	AuthFailures prometheus.Counter

	// Envelope metrics
	EnvelopeOps *prometheus.CounterVec
}

// NewMetrics initializes and registers Prometheus metrics
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry initializes and registers Prometheus metrics with a custom registry
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		SignRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enclaved_sign_requests_total",
				Help: "The total number of signing intents received",
			},
			[]string{"chain"},
		),
		SignSuccesses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enclaved_sign_success_total",
				Help: "The total number of completed signing operations",
			},
			[]string{"chain"},
		),
		SignFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enclaved_sign_failure_total",
				Help: "The total number of failed signing operations",
			},
			[]string{"chain"},
		),
		PolicyDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enclaved_policy_denials_total",
				Help: "The total number of signing intents denied by policy",
			},
			[]string{"code"},
		),
		IdempotencyHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "enclaved_idempotency_hits_total",
			Help: "The total number of requests served from the idempotency log",
		}),
		AuthFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "enclaved_auth_failures_total",
			Help: "The total number of rejected bearer credentials",
		}),
		EnvelopeOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enclaved_envelope_operations_total",
				Help: "The total number of envelope encrypt/decrypt operations",
			},
			[]string{"operation"},
		),
	}
}
