// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package types holds the value-typed identifiers, stake weights, blocks,
// votes and validator registry shared by the rotor, votor and engine
// packages.
package types

import (
	"fmt"

	"github.com/luxfi/ids"
)

// ValidatorId is an opaque, totally ordered validator identifier.
type ValidatorId uint64

// String implements fmt.Stringer.
func (v ValidatorId) String() string {
	return fmt.Sprintf("V%d", uint64(v))
}

// StakeWeight is a non-negative stake amount. Addition saturates at
// math.MaxUint64 rather than wrapping, since overflow is a precondition
// violation the caller is expected to have already ruled out.
type StakeWeight uint64

// Add returns the saturating sum of w and other.
func (w StakeWeight) Add(other StakeWeight) StakeWeight {
	sum := w + other
	if sum < w {
		return StakeWeight(^uint64(0))
	}
	return sum
}

// Slot is a monotonically increasing logical time step.
type Slot uint64

// Next returns the successor slot.
func (s Slot) Next() Slot {
	return s + 1
}

// BlockId is a 32-byte content digest binding a block's header fields.
// It reuses ids.ID, the pack-wide 32-byte identifier type, since the two
// are structurally identical and ids.ID already carries the String/
// comparability behavior callers expect.
type BlockId = ids.ID

// EmptyBlockId is the zero-value BlockId, used to denote "no parent".
var EmptyBlockId = ids.Empty
