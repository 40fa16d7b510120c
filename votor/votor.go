// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package votor implements the per-slot vote aggregator: round-1 and
// round-2 vote sets, quorum checks, certificate emission and the
// slot/round cursor.
package votor

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/luxfi/alpenglow/types"
)

// Votor tracks votes for every block id seen in the current and past
// slots, and emits at most one finalization certificate per slot.
type Votor struct {
	validators *types.ValidatorSet

	currentSlot  types.Slot
	currentRound types.VoteRound

	voteSets   map[types.BlockId]*types.VoteSet
	finalized  []types.FinalizationCertificate
	finalSlots map[types.Slot]bool
}

// New returns a Votor starting at slot 0, round 1.
func New(validators *types.ValidatorSet) *Votor {
	return &Votor{
		validators:   validators,
		currentRound: types.Round1,
		voteSets:     make(map[types.BlockId]*types.VoteSet),
		finalSlots:   make(map[types.Slot]bool),
	}
}

// CurrentSlot returns the slot Votor is currently collecting votes for.
func (v *Votor) CurrentSlot() types.Slot { return v.currentSlot }

// CurrentRound returns the round Votor is currently collecting votes for.
func (v *Votor) CurrentRound() types.VoteRound { return v.currentRound }

// ProcessVote validates and records vote, then checks for a quorum
// crossing. It returns the emitted certificate the first moment either
// path's quorum is crossed, or an error if the vote is rejected.
//
// A vote is rejected (and dropped, never retried) when:
//   - its validator isn't a registered member (ErrUnknownValidator)
//   - the validator already has a vote recorded for this (round, block id)
//     (ErrDoubleVote) — note an equivocating validator casting votes for
//     two different block ids in the same round is still recorded under
//     each block id's VoteSet; only a literal repeat is rejected
//   - its slot doesn't match Votor's current slot (ErrInvalidVoteSlot) —
//     a vote for any slot other than the one currently open is rejected
//     outright rather than silently buffered
//
// Once a slot has a certificate, ProcessVote keeps validating and
// recording further votes for that slot (so late queries still see
// accurate vote sets) but never emits a second certificate for it.
func (v *Votor) ProcessVote(vote types.Vote) (*types.FinalizationCertificate, error) {
	if !v.validators.Has(vote.Validator) {
		return nil, types.ErrUnknownValidator
	}
	if vote.Slot != v.currentSlot {
		return nil, types.ErrInvalidVoteSlot
	}

	voteSet, ok := v.voteSets[vote.BlockId]
	if !ok {
		voteSet = types.NewVoteSet(vote.BlockId)
		v.voteSets[vote.BlockId] = voteSet
	}
	if voteSet.Has(vote.Validator, vote.Round) {
		return nil, types.ErrDoubleVote
	}
	voteSet.Add(vote)

	if v.finalSlots[vote.Slot] {
		return nil, nil
	}
	return v.checkFinalization(voteSet, vote.Slot), nil
}

// checkFinalization runs the fast-path check first, then (only when the
// current round is Round2) the fallback check. If both paths are
// simultaneously satisfiable, the fast path wins.
func (v *Votor) checkFinalization(voteSet *types.VoteSet, slot types.Slot) *types.FinalizationCertificate {
	round1Ids := maps.Keys(voteSet.Round1Votes)
	round1Stake := v.validators.StakeOf(round1Ids)
	if round1Stake >= v.validators.FastQuorum() {
		return v.emit(voteSet, slot, types.Round1, voteSet.Round1Votes, round1Stake)
	}

	if v.currentRound == types.Round2 {
		round2Ids := maps.Keys(voteSet.Round2Votes)
		round2Stake := v.validators.StakeOf(round2Ids)
		if round2Stake >= v.validators.FallbackQuorum() {
			return v.emit(voteSet, slot, types.Round2, voteSet.Round2Votes, round2Stake)
		}
	}

	return nil
}

func (v *Votor) emit(voteSet *types.VoteSet, slot types.Slot, round types.VoteRound, votes map[types.ValidatorId]types.Vote, stake types.StakeWeight) *types.FinalizationCertificate {
	// Certificate contents are ordered by validator id so two nodes that
	// finalize from the same vote set serialize byte-identical
	// certificates.
	voters := maps.Keys(votes)
	sort.Slice(voters, func(i, j int) bool { return voters[i] < voters[j] })
	ordered := make([]types.Vote, 0, len(voters))
	for _, id := range voters {
		ordered = append(ordered, votes[id])
	}

	cert := types.FinalizationCertificate{
		BlockId:    voteSet.BlockId,
		Slot:       slot,
		Round:      round,
		Votes:      ordered,
		TotalStake: stake,
	}
	v.finalized = append(v.finalized, cert)
	v.finalSlots[slot] = true
	return &cert
}

// AdvanceToRound2 moves the round cursor to Round2. It is idempotent:
// calling it again once already in Round2 is a no-op. Round1 votes
// remain eligible forever — a late round-1 majority still finalizes via
// the fast path even after this call.
func (v *Votor) AdvanceToRound2() {
	v.currentRound = types.Round2
}

// NextSlot advances to the next slot and resets the round cursor to
// Round1. Historical vote sets are retained so late queries and
// finalization proofs keep working.
func (v *Votor) NextSlot() {
	v.currentSlot = v.currentSlot.Next()
	v.currentRound = types.Round1
}

// IsFinalized reports whether any certificate names blockId.
func (v *Votor) IsFinalized(blockId types.BlockId) bool {
	for _, c := range v.finalized {
		if c.BlockId == blockId {
			return true
		}
	}
	return false
}

// IsSlotFinalized reports whether slot already has a certificate.
func (v *Votor) IsSlotFinalized(slot types.Slot) bool {
	return v.finalSlots[slot]
}

// FinalizedCertificates returns every certificate emitted so far, in
// emission order.
func (v *Votor) FinalizedCertificates() []types.FinalizationCertificate {
	return append([]types.FinalizationCertificate(nil), v.finalized...)
}

// VoteSetFor returns the vote set tracked for blockId, if any — exposed
// for tests and observability, not part of the protocol surface.
func (v *Votor) VoteSetFor(blockId types.BlockId) (*types.VoteSet, bool) {
	vs, ok := v.voteSets[blockId]
	return vs, ok
}

