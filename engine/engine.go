// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine implements the consensus orchestrator: the per-slot
// state machine that sequences proposal, voting rounds, timeouts,
// skip-on-silence, and leader rotation atop one Votor and one Rotor.
package engine

import (
	"time"

	"github.com/luxfi/alpenglow/clock"
	"github.com/luxfi/alpenglow/config"
	"github.com/luxfi/alpenglow/consensuslog"
	"github.com/luxfi/alpenglow/metrics"
	"github.com/luxfi/alpenglow/rotor"
	"github.com/luxfi/alpenglow/types"
	"github.com/luxfi/alpenglow/votor"
	"github.com/luxfi/log"
)

// SlotState names where the per-slot state machine currently sits.
type SlotState int

const (
	Proposing SlotState = iota
	VotingR1
	VotingR2
	Finalized
	Skipped
)

func (s SlotState) String() string {
	switch s {
	case Proposing:
		return "Proposing"
	case VotingR1:
		return "Voting-R1"
	case VotingR2:
		return "Voting-R2"
	case Finalized:
		return "Finalized"
	case Skipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// Engine owns one Votor and one Rotor, drives slot progression, enforces
// leader-role checks, runs round-1/round-2 timers, accumulates skip
// votes, and rotates leaders. It is single-threaded and non-blocking:
// every method returns promptly and callers are expected to funnel
// concurrent inbound messages through one logical executor, exactly as
// Votor and Rotor themselves assume.
type Engine struct {
	self types.ValidatorId

	validators *types.ValidatorSet
	votor      *votor.Votor
	rotor      *rotor.Rotor
	params     config.Parameters
	clock      clock.Clock
	log        log.Logger
	metrics    *metrics.Engine

	leader        types.ValidatorId
	state         SlotState
	round1Started time.Time
	round1Done    bool // one-shot flag: CheckRound1Timeout already fired this round
	round2Started time.Time
	round2Done    bool // one-shot flag: CheckRound2Timeout already fired this round

	skipVotes map[types.Slot]map[types.ValidatorId]bool
	skipped   map[types.Slot]bool
}

// New returns an Engine for self (this validator's own id) bound to
// validators, starting at slot 0, round 1, leader 0. clk and logger may
// be nil, in which case clock.Real{} and a no-op logger are used.
func New(self types.ValidatorId, validators *types.ValidatorSet, params config.Parameters, clk clock.Clock, logger log.Logger, m *metrics.Engine) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = consensuslog.NoOp()
	}
	if m == nil {
		m = metrics.NewEngine(nil)
	}
	return &Engine{
		self:          self,
		validators:    validators,
		votor:         votor.New(validators),
		rotor:         rotor.New(validators),
		params:        params,
		clock:         clk,
		log:           logger,
		metrics:       m,
		leader:        0,
		state:         VotingR1,
		round1Started: clk.Now(),
	}
}

// CurrentSlot returns the slot the engine is currently sequencing.
func (e *Engine) CurrentSlot() types.Slot { return e.votor.CurrentSlot() }

// CurrentRound returns the round the engine is currently sequencing.
func (e *Engine) CurrentRound() types.VoteRound { return e.votor.CurrentRound() }

// CurrentLeader returns the leader for the current slot.
func (e *Engine) CurrentLeader() types.ValidatorId { return e.leader }

// State returns the per-slot state machine's current state.
func (e *Engine) State() SlotState { return e.state }

// ProposeBlock encodes block into shreds and restarts the round-1 timer
// while round 1 is still open; after a round-1 timeout or a terminal
// state it leaves the round, timer and slot state untouched. It fails with ErrNotLeader if the caller isn't the current leader, or
// ErrInvalidSlot if block.Slot doesn't match the current slot.
func (e *Engine) ProposeBlock(block *types.Block) ([]rotor.Shred, error) {
	if e.leader != e.self {
		return nil, types.ErrNotLeader
	}
	if block.Slot != e.votor.CurrentSlot() {
		return nil, types.ErrInvalidSlot
	}

	shreds, err := e.rotor.Encode(block)
	if err != nil {
		return nil, err
	}
	if e.state == VotingR1 {
		e.round1Started = e.clock.Now()
	}
	e.log.Debug("proposed block", "slot", block.Slot, "leader", block.Leader, "shreds", len(shreds))
	return shreds, nil
}

// ReceiveShred forwards shred to Rotor. If reconstruction yields a
// block, the engine immediately casts its own honest round-1 vote for
// it, unless this validator is flagged byzantine or offline in the
// validator set (a test-only hook; honest deployments always vote).
// The reconstructed block (if any) is returned alongside the vote
// produced for it, so a host wiring outbound transport has both to hand
// off.
func (e *Engine) ReceiveShred(shred rotor.Shred) (*types.Block, *types.Vote, error) {
	block, err := e.rotor.Receive(shred)
	if err != nil {
		e.metrics.ShredsRejected.WithLabelValues(rejectReason(err)).Inc()
		e.log.Debug("rejected shred", "block_id", shred.BlockId, "index", shred.Index, "err", err)
		return nil, nil, err
	}
	if block == nil {
		return nil, nil, nil
	}

	info, ok := e.validators.Get(e.self)
	if ok && (info.Byzantine || info.Offline) {
		return block, nil, nil
	}

	vote := types.Vote{
		Validator: e.self,
		BlockId:   block.Id,
		Slot:      block.Slot,
		Round:     types.Round1,
	}
	if _, err := e.ProcessVote(vote); err != nil {
		return block, nil, err
	}
	return block, &vote, nil
}

// ProcessVote forwards vote to Votor, emitting a certificate and
// advancing the slot state machine to Finalized the moment a quorum is
// crossed.
func (e *Engine) ProcessVote(vote types.Vote) (*types.FinalizationCertificate, error) {
	cert, err := e.votor.ProcessVote(vote)
	if err != nil {
		e.metrics.VotesRejected.WithLabelValues(rejectReason(err)).Inc()
		e.log.Debug("rejected vote", "validator", vote.Validator, "block_id", vote.BlockId, "err", err)
		return nil, err
	}
	if cert != nil {
		e.metrics.CertificatesEmitted.Inc()
		e.state = Finalized
		e.log.Info("slot finalized", "slot", cert.Slot, "round", cert.Round, "total_stake", cert.TotalStake)
	}
	return cert, nil
}

// CheckRound1Timeout reports whether the round-1 timer has elapsed. The
// first call after elapsing advances Votor to round 2, transitions the
// slot state to Voting-R2, and returns true; every subsequent call for
// the same round returns false until NextSlot starts a fresh round 1.
func (e *Engine) CheckRound1Timeout() bool {
	if e.round1Done || e.state == Finalized || e.state == Skipped {
		return false
	}
	if e.clock.Now().Sub(e.round1Started) < e.params.Round1Timeout {
		return false
	}
	e.round1Done = true
	e.votor.AdvanceToRound2()
	e.state = VotingR2
	e.round2Started = e.clock.Now()
	e.round2Done = false
	e.metrics.Round2Advances.Inc()
	e.log.Info("round1 timeout, advancing to round2", "slot", e.votor.CurrentSlot())
	return true
}

// CheckRound2Timeout reports whether the round-2 timer has elapsed with
// no fallback quorum reached. The first call after elapsing marks the
// slot Skipped (the liveness fallback: a slot that cannot finalize in
// either round terminates without a block) and returns true; subsequent
// calls return false until a new slot begins.
func (e *Engine) CheckRound2Timeout() bool {
	if e.round2Done || e.state != VotingR2 {
		return false
	}
	if e.clock.Now().Sub(e.round2Started) < e.params.Round2Timeout {
		return false
	}
	e.round2Done = true
	slot := e.votor.CurrentSlot()
	if e.skipped == nil {
		e.skipped = make(map[types.Slot]bool)
	}
	e.skipped[slot] = true
	e.state = Skipped
	e.metrics.SlotsSkipped.Inc()
	e.log.Info("round2 timeout, skipping slot", "slot", slot)
	return true
}

// VoteSkip records validator's skip vote for slot. When accumulated skip
// stake reaches the skip quorum (60%), the slot is marked Skipped and
// the returned bool is true.
func (e *Engine) VoteSkip(slot types.Slot, validator types.ValidatorId) (bool, error) {
	if slot != e.votor.CurrentSlot() {
		return false, types.ErrInvalidSlot
	}
	if !e.validators.Has(validator) {
		return false, types.ErrUnknownValidator
	}
	if e.skipVotes == nil {
		e.skipVotes = make(map[types.Slot]map[types.ValidatorId]bool)
	}
	if e.skipVotes[slot] == nil {
		e.skipVotes[slot] = make(map[types.ValidatorId]bool)
	}
	e.skipVotes[slot][validator] = true

	return e.CheckSkip(slot), nil
}

// CheckSkip reports whether slot's accumulated skip-vote stake has
// reached the skip quorum, marking the slot skipped the first time it
// does. It is idempotent: once a slot is skipped, further calls return
// true without re-emitting the transition.
func (e *Engine) CheckSkip(slot types.Slot) bool {
	if e.skipped == nil {
		e.skipped = make(map[types.Slot]bool)
	}
	if e.skipped[slot] {
		return true
	}
	if e.votor.IsSlotFinalized(slot) {
		return false
	}

	voters := e.skipVotes[slot]
	ids := make([]types.ValidatorId, 0, len(voters))
	for id := range voters {
		ids = append(ids, id)
	}
	stake := e.validators.StakeOf(ids)
	if stake < e.validators.SkipQuorum() {
		return false
	}

	e.skipped[slot] = true
	if slot == e.votor.CurrentSlot() {
		e.state = Skipped
	}
	e.metrics.SlotsSkipped.Inc()
	e.log.Info("slot skipped", "slot", slot, "skip_stake", stake)
	return true
}

// IsSkipped reports whether slot was marked skipped.
func (e *Engine) IsSkipped(slot types.Slot) bool {
	return e.skipped[slot]
}

// NextSlot advances past the current slot's terminal state (Finalized
// or Skipped), resetting the round-1 timer and rotating the leader
// round-robin: leader = (leader + 1) mod N.
func (e *Engine) NextSlot() {
	e.votor.NextSlot()
	e.round1Done = false
	e.round1Started = e.clock.Now()
	e.round2Done = false
	e.round2Started = time.Time{}
	e.state = VotingR1

	ids := e.validators.Ids()
	if len(ids) == 0 {
		return
	}
	idx := 0
	for i, id := range ids {
		if id == e.leader {
			idx = i
			break
		}
	}
	e.leader = ids[(idx+1)%len(ids)]
}

// FinalizedCertificates returns every certificate emitted so far.
func (e *Engine) FinalizedCertificates() []types.FinalizationCertificate {
	return e.votor.FinalizedCertificates()
}

// SelectRelays delegates to Rotor's stake-weighted relay selection.
func (e *Engine) SelectRelays(blockId types.BlockId, k int) []types.ValidatorId {
	return e.rotor.SelectRelays(blockId, k)
}

// RelayTargets returns the configured-fanout relay set for blockId — the
// validators the leader hands shreds to for further dissemination.
func (e *Engine) RelayTargets(blockId types.BlockId) []types.ValidatorId {
	return e.rotor.SelectRelays(blockId, e.params.RelayFanout)
}

func rejectReason(err error) string {
	switch err {
	case types.ErrDoubleVote:
		return "double_vote"
	case types.ErrUnknownValidator:
		return "unknown_validator"
	case types.ErrInvalidVoteSlot:
		return "invalid_vote_slot"
	case types.ErrInvalidShred:
		return "invalid_shred"
	case types.ErrErasureCodingFailed:
		return "erasure_coding_failed"
	default:
		return "other"
	}
}
