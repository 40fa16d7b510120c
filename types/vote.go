// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// VoteRound distinguishes the fast-path round from the fallback round.
type VoteRound uint8

const (
	// Round1 is the notarization round: the fast path finalizes here at
	// 80% stake.
	Round1 VoteRound = 1
	// Round2 is the finalization round: the fallback path finalizes here
	// at 60% stake, and is only reachable after a Round1 timeout.
	Round2 VoteRound = 2
)

func (r VoteRound) String() string {
	switch r {
	case Round1:
		return "Round1"
	case Round2:
		return "Round2"
	default:
		return "RoundUnknown"
	}
}

// Vote is a single validator's signed vote for a block in a round.
type Vote struct {
	Validator ValidatorId
	BlockId   BlockId
	Slot      Slot
	Round     VoteRound
	Signature []byte
}

// VoteSet holds, for one block id, the votes received per round. At most
// one vote per (validator, round) is retained — Votor.ProcessVote rejects a
// second vote from the same validator in the same round before it ever
// reaches VoteSet.Add.
type VoteSet struct {
	BlockId     BlockId
	Round1Votes map[ValidatorId]Vote
	Round2Votes map[ValidatorId]Vote
}

// NewVoteSet returns an empty VoteSet for blockId.
func NewVoteSet(blockId BlockId) *VoteSet {
	return &VoteSet{
		BlockId:     blockId,
		Round1Votes: make(map[ValidatorId]Vote),
		Round2Votes: make(map[ValidatorId]Vote),
	}
}

// Has reports whether validator already has a vote recorded for round.
func (vs *VoteSet) Has(validator ValidatorId, round VoteRound) bool {
	switch round {
	case Round1:
		_, ok := vs.Round1Votes[validator]
		return ok
	case Round2:
		_, ok := vs.Round2Votes[validator]
		return ok
	default:
		return false
	}
}

// Add records vote, indexed under its round. Callers must have already
// rejected double votes via Has.
func (vs *VoteSet) Add(vote Vote) {
	switch vote.Round {
	case Round1:
		vs.Round1Votes[vote.Validator] = vote
	case Round2:
		vs.Round2Votes[vote.Validator] = vote
	}
}

// RoundVotes returns the vote map for round.
func (vs *VoteSet) RoundVotes(round VoteRound) map[ValidatorId]Vote {
	switch round {
	case Round1:
		return vs.Round1Votes
	case Round2:
		return vs.Round2Votes
	default:
		return nil
	}
}
