// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/alpenglow/clock"
	"github.com/luxfi/alpenglow/config"
	"github.com/luxfi/alpenglow/engine"
	"github.com/luxfi/alpenglow/types"
)

func fiveValidators() *types.ValidatorSet {
	return types.NewValidatorSet(
		types.ValidatorInfo{Id: 0, Stake: 100},
		types.ValidatorInfo{Id: 1, Stake: 100},
		types.ValidatorInfo{Id: 2, Stake: 100},
		types.ValidatorInfo{Id: 3, Stake: 100},
		types.ValidatorInfo{Id: 4, Stake: 100},
	)
}

func newEngine(t *testing.T, self types.ValidatorId, vs *types.ValidatorSet, clk clock.Clock) *engine.Engine {
	t.Helper()
	return engine.New(self, vs, config.Local(), clk, nil, nil)
}

func block(slot types.Slot, leader types.ValidatorId, payload ...[]byte) *types.Block {
	b := &types.Block{Slot: slot, Leader: leader, Payload: payload, Timestamp: int64(slot)}
	b.Id = b.ComputeId()
	return b
}

func TestProposeBlockRejectsNonLeader(t *testing.T) {
	vs := fiveValidators()
	e := newEngine(t, 1, vs, nil)
	_, err := e.ProposeBlock(block(0, 1))
	require.ErrorIs(t, err, types.ErrNotLeader)
}

func TestProposeBlockRejectsWrongSlot(t *testing.T) {
	vs := fiveValidators()
	e := newEngine(t, 0, vs, nil)
	_, err := e.ProposeBlock(block(1, 0))
	require.ErrorIs(t, err, types.ErrInvalidSlot)
}

func TestFullSlotLifecycleFastPath(t *testing.T) {
	vs := fiveValidators()
	leader := newEngine(t, 0, vs, nil)
	b := block(0, 0, []byte("a"), []byte("b"))

	shreds, err := leader.ProposeBlock(b)
	require.NoError(t, err)
	require.Len(t, shreds, 5)

	// The leader's own Rotor reconstructs once it has seen enough of its
	// own shreds, casting V0's honest round-1 vote.
	var reconstructed *types.Block
	var ownVote *types.Vote
	for _, s := range shreds {
		reconstructed, ownVote, err = leader.ReceiveShred(s)
		require.NoError(t, err)
	}
	require.NotNil(t, reconstructed)
	require.NotNil(t, ownVote)

	var lastCert *types.FinalizationCertificate
	var cert *types.FinalizationCertificate

	// V1..V3 independently cast their own round-1 votes (as if each
	// reconstructed the block via its own Rotor and gossiped the vote).
	for i := types.ValidatorId(1); i < 4; i++ {
		v := types.Vote{Validator: i, BlockId: b.Id, Slot: 0, Round: types.Round1}
		cert, err = leader.ProcessVote(v)
		require.NoError(t, err)
		if cert != nil {
			lastCert = cert
		}
	}

	require.NotNil(t, lastCert)
	require.Equal(t, types.Round1, lastCert.Round)
	require.EqualValues(t, 400, lastCert.TotalStake)
	require.Equal(t, engine.Finalized, leader.State())
}

func TestCheckRound1TimeoutIsOneShot(t *testing.T) {
	vs := fiveValidators()
	start := time.Unix(0, 0)
	vc := clock.NewVirtual(start)
	e := newEngine(t, 0, vs, vc)

	_, err := e.ProposeBlock(block(0, 0))
	require.NoError(t, err)

	require.False(t, e.CheckRound1Timeout(), "timeout hasn't elapsed yet")

	vc.Advance(config.Local().Round1Timeout)
	require.True(t, e.CheckRound1Timeout())
	require.Equal(t, types.Round2, e.CurrentRound())
	require.Equal(t, engine.VotingR2, e.State())

	require.False(t, e.CheckRound1Timeout(), "one-shot: must not fire twice")
}

func TestCheckRound2TimeoutSkipsSlot(t *testing.T) {
	vs := fiveValidators()
	start := time.Unix(0, 0)
	vc := clock.NewVirtual(start)
	e := newEngine(t, 0, vs, vc)

	_, err := e.ProposeBlock(block(0, 0))
	require.NoError(t, err)

	vc.Advance(config.Local().Round1Timeout)
	require.True(t, e.CheckRound1Timeout())

	require.False(t, e.CheckRound2Timeout(), "round-2 timer just started")

	vc.Advance(config.Local().Round2Timeout)
	require.True(t, e.CheckRound2Timeout())
	require.Equal(t, engine.Skipped, e.State())
	require.True(t, e.IsSkipped(0))

	require.False(t, e.CheckRound2Timeout(), "one-shot: must not fire twice")
}

func TestRound1TimerStartsAtSlotBoundaryForNonLeaders(t *testing.T) {
	vs := fiveValidators()
	start := time.Unix(0, 0)
	vc := clock.NewVirtual(start)
	e := newEngine(t, 1, vs, vc)

	// V1 never proposes; its round-1 window still runs from slot start.
	require.False(t, e.CheckRound1Timeout())
	vc.Advance(config.Local().Round1Timeout)
	require.True(t, e.CheckRound1Timeout())
	require.Equal(t, engine.VotingR2, e.State())
}

func TestRelayTargetsUseConfiguredFanout(t *testing.T) {
	vs := fiveValidators()
	e := newEngine(t, 0, vs, nil)
	b := block(0, 0)
	targets := e.RelayTargets(b.Id)
	require.Len(t, targets, config.Local().RelayFanout)
}

func TestVoteSkipReachesQuorumAndMarksSlotSkipped(t *testing.T) {
	vs := fiveValidators()
	e := newEngine(t, 0, vs, nil)

	for i := types.ValidatorId(0); i < 2; i++ {
		skipped, err := e.VoteSkip(0, i)
		require.NoError(t, err)
		require.False(t, skipped)
	}
	skipped, err := e.VoteSkip(0, 2)
	require.NoError(t, err)
	require.True(t, skipped)
	require.True(t, e.IsSkipped(0))
	require.Equal(t, engine.Skipped, e.State())
}

func TestVoteSkipRejectsWrongSlot(t *testing.T) {
	vs := fiveValidators()
	e := newEngine(t, 0, vs, nil)
	_, err := e.VoteSkip(1, 0)
	require.ErrorIs(t, err, types.ErrInvalidSlot)
}

func TestNextSlotRotatesLeaderRoundRobin(t *testing.T) {
	vs := fiveValidators()
	e := newEngine(t, 0, vs, nil)
	require.EqualValues(t, 0, e.CurrentLeader())

	_, _ = e.VoteSkip(0, 0)
	_, _ = e.VoteSkip(0, 1)
	_, _ = e.VoteSkip(0, 2)
	require.True(t, e.IsSkipped(0))

	e.NextSlot()
	require.EqualValues(t, 1, e.CurrentSlot())
	require.EqualValues(t, 1, e.CurrentLeader())
	require.Equal(t, engine.VotingR1, e.State())
	require.Equal(t, types.Round1, e.CurrentRound())
}

func TestByzantineValidatorDoesNotAutoVote(t *testing.T) {
	vs := types.NewValidatorSet(
		types.ValidatorInfo{Id: 0, Stake: 100},
		types.ValidatorInfo{Id: 1, Stake: 100, Byzantine: true},
		types.ValidatorInfo{Id: 2, Stake: 100},
	)
	leader := newEngine(t, 0, vs, nil)
	byz := newEngine(t, 1, vs, nil)

	b := block(0, 0)
	shreds, err := leader.ProposeBlock(b)
	require.NoError(t, err)

	var reconstructed *types.Block
	var vote *types.Vote
	for _, s := range shreds {
		reconstructed, vote, err = byz.ReceiveShred(s)
		require.NoError(t, err)
	}
	require.NotNil(t, reconstructed, "all shreds delivered: block must reconstruct")
	require.Nil(t, vote, "byzantine validator must not auto-cast a vote")
}

func TestPartitionThenHealNoForkAndEventualFinalization(t *testing.T) {
	vs := types.NewValidatorSet(
		types.ValidatorInfo{Id: 0, Stake: 100},
		types.ValidatorInfo{Id: 1, Stake: 100},
		types.ValidatorInfo{Id: 2, Stake: 100},
		types.ValidatorInfo{Id: 3, Stake: 100},
	)
	leader := newEngine(t, 0, vs, nil)
	b := block(0, 0)
	_, err := leader.ProposeBlock(b)
	require.NoError(t, err)

	other := newEngine(t, 1, vs, nil)

	voteA := types.Vote{Validator: 0, BlockId: b.Id, Slot: 0, Round: types.Round1}
	voteB := types.Vote{Validator: 1, BlockId: b.Id, Slot: 0, Round: types.Round1}

	// Partition: {0,1} and {2,3}. Neither side alone reaches fast quorum
	// (400) or, once in round 2, fallback quorum (300) with just 200.
	_, err = leader.ProcessVote(voteA)
	require.NoError(t, err)
	cert, err := leader.ProcessVote(voteB)
	require.NoError(t, err)
	require.Nil(t, cert, "2-of-4 stake must not finalize")

	_, err = other.ProcessVote(voteB)
	require.NoError(t, err)
	cert, err = other.ProcessVote(voteA)
	require.NoError(t, err)
	require.Nil(t, cert)

	// Heal: votes from V2 and V3 arrive, completing the fast quorum.
	for i := types.ValidatorId(2); i < 4; i++ {
		vote := types.Vote{Validator: i, BlockId: b.Id, Slot: 0, Round: types.Round1}
		cert, err = leader.ProcessVote(vote)
		require.NoError(t, err)
		cert, err = other.ProcessVote(vote)
		require.NoError(t, err)
	}
	require.NotNil(t, cert)
	require.Equal(t, types.Round1, cert.Round)
	require.EqualValues(t, 400, cert.TotalStake)

	certs := leader.FinalizedCertificates()
	require.Len(t, certs, 1, "no fork: exactly one certificate for the slot")
}
