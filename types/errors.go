// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "errors"

// Vote-rejection errors. These are reported to the caller and the
// offending vote is dropped; they never propagate up the slot lifecycle.
var (
	ErrDoubleVote       = errors.New("double vote: validator already voted this round for this block")
	ErrUnknownValidator = errors.New("vote from unregistered validator")
	ErrInvalidVoteSlot  = errors.New("vote slot does not match the engine's current slot")
)

// Shred-rejection errors. The offending shred is dropped; reconstruction
// may still succeed from the other shreds.
var (
	ErrInvalidShred        = errors.New("invalid shred: bad index or reconstructed id mismatch")
	ErrErasureCodingFailed = errors.New("erasure coding failed: block did not serialize/deserialize")
)

// Caller-misuse errors. These indicate a programming error in the host,
// not an adversarial input.
var (
	ErrNotLeader   = errors.New("caller is not the leader for the current slot")
	ErrInvalidSlot = errors.New("block slot does not match the engine's current slot")
)
