// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// FinalizationCertificate is the evidence that a block finalized at a
// slot via a specific round's quorum. Certificates are append-only:
// once emitted they are never retracted or mutated.
type FinalizationCertificate struct {
	BlockId    BlockId
	Slot       Slot
	Round      VoteRound
	Votes      []Vote
	TotalStake StakeWeight
}
