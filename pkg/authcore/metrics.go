// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authcore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Operation label values.
const (
	OperationCredentials = "authenticate_credentials"
	OperationSession     = "authenticate_session"
	OperationProvision   = "provision_user"
)

// CredentialAuthentications counts AuthenticateCredentials outcomes.
// Use RegisterMetrics to register this with a Prometheus registry.
var CredentialAuthentications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authcore_credential_authentications_total",
		Help: "Total number of credential authentications by result",
	},
	[]string{"result"},
)

// SessionAuthentications counts AuthenticateSession outcomes.
// Use RegisterMetrics to register this with a Prometheus registry.
var SessionAuthentications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authcore_session_authentications_total",
		Help: "Total number of session authentications by result",
	},
	[]string{"result"},
)

// Provisions counts ProvisionUser outcomes.
// Use RegisterMetrics to register this with a Prometheus registry.
var Provisions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authcore_provisions_total",
		Help: "Total number of user provisioning attempts by result",
	},
	[]string{"result"},
)

// OperationDuration observes how long each operation took, strategies included.
var OperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "authcore_operation_duration_seconds",
		Help:    "Authenticator operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// RegisterMetrics registers authcore metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CredentialAuthentications)
	reg.MustRegister(SessionAuthentications)
	reg.MustRegister(Provisions)
	reg.MustRegister(OperationDuration)
}

func recordResult(operation, result string) {
	switch operation {
	case OperationCredentials:
		CredentialAuthentications.WithLabelValues(result).Inc()
	case OperationSession:
		SessionAuthentications.WithLabelValues(result).Inc()
	case OperationProvision:
		Provisions.WithLabelValues(result).Inc()
	}
}

func recordDuration(operation string, d time.Duration) {
	OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}
