// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the tunable timing and quorum parameters the
// engine is constructed with, plus the network-size presets that pick
// sane defaults for a given deployment.
package config

import (
	"fmt"
	"time"
)

// Parameters bundles everything the engine needs beyond the validator
// set itself. Quorum fractions are fixed protocol constants (80% fast,
// 60% fallback/skip) and live on types.ValidatorSet rather than here;
// Parameters covers only what a deployment can reasonably tune.
type Parameters struct {
	// Round1Timeout bounds how long the engine waits for a fast-path
	// quorum before advancing to round 2.
	Round1Timeout time.Duration

	// Round2Timeout bounds how long the engine waits for a fallback
	// quorum before the slot is marked skipped.
	Round2Timeout time.Duration

	// RelayFanout is the number of relays Rotor selects per block when
	// the leader hands off dissemination duty.
	RelayFanout int
}

// Validate reports a descriptive error for any parameter combination the
// engine cannot safely run with.
func (p Parameters) Validate() error {
	if p.Round1Timeout <= 0 {
		return fmt.Errorf("config: round1 timeout must be positive, got %s", p.Round1Timeout)
	}
	if p.Round2Timeout <= 0 {
		return fmt.Errorf("config: round2 timeout must be positive, got %s", p.Round2Timeout)
	}
	if p.RelayFanout <= 0 {
		return fmt.Errorf("config: relay fanout must be positive, got %d", p.RelayFanout)
	}
	return nil
}

// DefaultParameters is the baseline configuration: a 100ms round-1
// window with an equal round-2 window, suitable as a starting point
// before a deployment tunes for its own network variance.
var DefaultParameters = Parameters{
	Round1Timeout: 100 * time.Millisecond,
	Round2Timeout: 100 * time.Millisecond,
	RelayFanout:   8,
}

// Mainnet is the conservative preset for a large, internet-scale
// validator set with high network variance.
func Mainnet() Parameters {
	return Parameters{
		Round1Timeout: 400 * time.Millisecond,
		Round2Timeout: 400 * time.Millisecond,
		RelayFanout:   32,
	}
}

// Testnet relaxes timeouts slightly for a mid-size, less homogeneous
// deployment.
func Testnet() Parameters {
	return Parameters{
		Round1Timeout: 800 * time.Millisecond,
		Round2Timeout: 800 * time.Millisecond,
		RelayFanout:   16,
	}
}

// Local is tuned for a small, low-latency validator set such as a
// developer's machine or an integration test harness.
func Local() Parameters {
	return Parameters{
		Round1Timeout: 50 * time.Millisecond,
		Round2Timeout: 50 * time.Millisecond,
		RelayFanout:   4,
	}
}
