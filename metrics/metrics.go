// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wires the engine's observability events — rejected
// votes/shreds, certificate emission, skips — into Prometheus counters,
// following the Averager/Counter pattern (a named metric backed by a
// prometheus.Counter/Gauge, registered once at construction).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine holds the counters the orchestrator increments as it runs. All
// fields are created unconditionally against reg; Register errors are
// swallowed since a duplicate-registration error at startup shouldn't
// be fatal to consensus.
type Engine struct {
	CertificatesEmitted prometheus.Counter
	SlotsSkipped        prometheus.Counter
	VotesRejected       *prometheus.CounterVec
	ShredsRejected      *prometheus.CounterVec
	Round2Advances      prometheus.Counter
}

// NewEngine registers and returns the engine's metric set under reg. reg
// may be nil, in which case a fresh unshared registry is used so callers
// that don't care about export still get working counters.
func NewEngine(reg prometheus.Registerer) *Engine {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Engine{
		CertificatesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alpenglow_certificates_emitted_total",
			Help: "Total finalization certificates emitted by this validator.",
		}),
		SlotsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alpenglow_slots_skipped_total",
			Help: "Total slots marked skipped, via the skip-vote quorum or a round-2 timeout.",
		}),
		VotesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alpenglow_votes_rejected_total",
			Help: "Votes dropped by Votor, labeled by rejection reason.",
		}, []string{"reason"}),
		ShredsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alpenglow_shreds_rejected_total",
			Help: "Shreds dropped by Rotor, labeled by rejection reason.",
		}, []string{"reason"}),
		Round2Advances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alpenglow_round2_advances_total",
			Help: "Total round-1-timeout transitions into round 2.",
		}),
	}

	_ = reg.Register(m.CertificatesEmitted)
	_ = reg.Register(m.SlotsSkipped)
	_ = reg.Register(m.VotesRejected)
	_ = reg.Register(m.ShredsRejected)
	_ = reg.Register(m.Round2Advances)
	return m
}
