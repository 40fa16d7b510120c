// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package model implements a small brute-force state-space explorer over
// the consensus protocol's abstract actions (propose, vote, skip,
// timeout, partition/heal), used to check safety invariants across every
// reachable state for a bounded validator count and slot horizon. It
// mirrors the quorum arithmetic in types.ValidatorSet but works over a
// compact in-memory State rather than the full engine, so thousands of
// states can be explored per test run.
package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luxfi/alpenglow/types"
)

// ActionKind names one of the abstract transitions a validator (or the
// environment) can take from a given state.
type ActionKind int

const (
	ActionPropose ActionKind = iota
	ActionVoteRound1
	ActionVoteRound2
	ActionCheckFastQuorum
	ActionCheckFallbackQuorum
	ActionAdvanceRound2
	ActionVoteSkip
	ActionCheckSkipQuorum
	ActionNextSlot
	ActionPartition
	ActionHeal
)

// Action is one concrete, applicable transition discovered by Actions.
type Action struct {
	Kind      ActionKind
	Validator types.ValidatorId
	BlockId   types.BlockId
	P1, P2    []types.ValidatorId // only set for ActionPartition
}

type finalizedEntry struct {
	BlockId types.BlockId
	Slot    types.Slot
	Round   types.VoteRound
}

type partitionState struct {
	p1, p2 map[types.ValidatorId]bool
}

// State is one point in the explored state space. All fields are value
// or map types so State can be deep-copied cheaply per transition; a
// canonical string Key() is used to deduplicate visited states since Go
// maps aren't themselves comparable.
type State struct {
	Slot   types.Slot
	Leader types.ValidatorId

	Proposed map[types.Slot]types.BlockId

	VotesRound1 map[types.BlockId]map[types.ValidatorId]bool
	VotesRound2 map[types.BlockId]map[types.ValidatorId]bool

	Finalized []finalizedEntry
	Round     types.VoteRound

	SkipVotes map[types.Slot]map[types.ValidatorId]bool
	Skipped   map[types.Slot]bool

	Partitioned     *partitionState
	PartitionHealed bool
}

// Model fixes the validator count and which ids are Byzantine/offline
// for one exploration run. Validators are weighted equally and quorums
// are voter counts (see FastQuorum and FallbackQuorum), not stake sums.
type Model struct {
	ValidatorCount int
	Byzantine      map[types.ValidatorId]bool
	Offline        map[types.ValidatorId]bool

	// SlotHorizon bounds NextSlot actions: the explorer stops advancing
	// once Slot reaches this value, keeping the state space finite.
	SlotHorizon types.Slot
}

// New returns a Model with n honest validators and no slot bound beyond
// horizon.
func New(n int, horizon types.Slot) *Model {
	return &Model{
		ValidatorCount: n,
		Byzantine:      make(map[types.ValidatorId]bool),
		Offline:        make(map[types.ValidatorId]bool),
		SlotHorizon:    horizon,
	}
}

// WithByzantine marks id as Byzantine (still present in the validator
// set, but never offered honest actions) and returns m for chaining.
func (m *Model) WithByzantine(id types.ValidatorId) *Model {
	m.Byzantine[id] = true
	return m
}

func (m *Model) isHonest(v types.ValidatorId) bool {
	return !m.Byzantine[v] && !m.Offline[v]
}

// FastQuorum returns the minimum voter count whose (equal-stake) total
// crosses the floor(0.8*S) stake threshold: ceil(0.8*n). With four
// validators that is all four, matching the stake arithmetic a real
// validator set would run.
func (m *Model) FastQuorum() int {
	return (m.ValidatorCount*80 + 99) / 100
}

// FallbackQuorum returns the minimum voter count crossing floor(0.6*S):
// ceil(0.6*n).
func (m *Model) FallbackQuorum() int {
	return (m.ValidatorCount*60 + 99) / 100
}

// blockIdForSlot deterministically derives a stand-in block id from a
// slot number, so the same slot always proposes the same id across
// independent explorations.
func blockIdForSlot(slot types.Slot) types.BlockId {
	var id types.BlockId
	id[0] = byte(slot)
	id[1] = byte(slot >> 8)
	return id
}

// Initial returns the explorer's starting state: slot 0, leader 0,
// round 1, nothing proposed or voted.
func (m *Model) Initial() State {
	return State{
		Leader:      0,
		Proposed:    map[types.Slot]types.BlockId{},
		VotesRound1: map[types.BlockId]map[types.ValidatorId]bool{},
		VotesRound2: map[types.BlockId]map[types.ValidatorId]bool{},
		SkipVotes:   map[types.Slot]map[types.ValidatorId]bool{},
		Skipped:     map[types.Slot]bool{},
		Round:       types.Round1,
	}
}

// reachable reports whether a and b can currently exchange messages:
// always true with no partition active, otherwise only within one side.
func (s State) reachable(a, b types.ValidatorId) bool {
	if s.Partitioned == nil {
		return true
	}
	return (s.Partitioned.p1[a] && s.Partitioned.p1[b]) ||
		(s.Partitioned.p2[a] && s.Partitioned.p2[b])
}

// quorumVisible reports whether some single node can have observed q of
// the given voters: with no partition that is the global count, during a
// partition only voters co-located on one side count together.
func (s State) quorumVisible(votes map[types.ValidatorId]bool, q int) bool {
	if s.Partitioned == nil {
		return len(votes) >= q
	}
	c1, c2 := 0, 0
	for v := range votes {
		if s.Partitioned.p1[v] {
			c1++
		}
		if s.Partitioned.p2[v] {
			c2++
		}
	}
	return c1 >= q || c2 >= q
}

// Actions enumerates every transition applicable from state. During a
// partition a validator can only vote for a block proposed on its own
// side (the shreds never cross the cut), and a quorum check only fires
// when one side alone holds enough votes — so a 2|2 split of four
// validators can finalize nothing until it heals.
func (m *Model) Actions(s State) []Action {
	var actions []Action

	blockId, proposed := s.Proposed[s.Slot]

	// A slot that already finalized or skipped is terminal: votes may
	// still be recorded (as in the live votor) but no further quorum
	// check fires for it, mirroring votor's per-slot certificate dedup.
	slotDone := s.Skipped[s.Slot]
	for _, f := range s.Finalized {
		if f.Slot == s.Slot {
			slotDone = true
		}
	}

	if !proposed && m.isHonest(s.Leader) {
		actions = append(actions, Action{Kind: ActionPropose, Validator: s.Leader, BlockId: blockIdForSlot(s.Slot)})
	}

	if proposed {
		if s.Round == types.Round1 {
			for i := 0; i < m.ValidatorCount; i++ {
				v := types.ValidatorId(i)
				if !m.isHonest(v) {
					continue
				}
				if !s.reachable(v, s.Leader) {
					continue
				}
				if s.VotesRound1[blockId][v] {
					continue
				}
				actions = append(actions, Action{Kind: ActionVoteRound1, Validator: v, BlockId: blockId})
			}
			if !slotDone && s.quorumVisible(s.VotesRound1[blockId], m.FastQuorum()) {
				actions = append(actions, Action{Kind: ActionCheckFastQuorum, BlockId: blockId})
			}
			actions = append(actions, Action{Kind: ActionAdvanceRound2})
		}

		if s.Round == types.Round2 {
			for i := 0; i < m.ValidatorCount; i++ {
				v := types.ValidatorId(i)
				if !m.isHonest(v) {
					continue
				}
				if !s.reachable(v, s.Leader) {
					continue
				}
				if s.VotesRound2[blockId][v] {
					continue
				}
				actions = append(actions, Action{Kind: ActionVoteRound2, Validator: v, BlockId: blockId})
			}
			if !slotDone && s.quorumVisible(s.VotesRound2[blockId], m.FallbackQuorum()) {
				actions = append(actions, Action{Kind: ActionCheckFallbackQuorum, BlockId: blockId})
			}
		}
	}

	if !proposed {
		for i := 0; i < m.ValidatorCount; i++ {
			v := types.ValidatorId(i)
			if !m.isHonest(v) {
				continue
			}
			if s.SkipVotes[s.Slot][v] {
				continue
			}
			actions = append(actions, Action{Kind: ActionVoteSkip, Validator: v})
		}
		if !slotDone && s.quorumVisible(s.SkipVotes[s.Slot], m.FallbackQuorum()) {
			actions = append(actions, Action{Kind: ActionCheckSkipQuorum})
		}
	}

	if slotDone && s.Slot < m.SlotHorizon {
		actions = append(actions, Action{Kind: ActionNextSlot})
	}

	if s.Partitioned == nil && !s.PartitionHealed && m.ValidatorCount <= 4 {
		mid := m.ValidatorCount / 2
		var p1, p2 []types.ValidatorId
		for i := 0; i < m.ValidatorCount; i++ {
			if i < mid {
				p1 = append(p1, types.ValidatorId(i))
			} else {
				p2 = append(p2, types.ValidatorId(i))
			}
		}
		if len(p1) >= 2 && len(p2) >= 2 {
			actions = append(actions, Action{Kind: ActionPartition, P1: p1, P2: p2})
		}
	}
	if s.Partitioned != nil {
		actions = append(actions, Action{Kind: ActionHeal})
	}

	return actions
}

// Step applies action to state and returns the resulting state, without
// mutating the input.
func (m *Model) Step(s State, a Action) State {
	next := cloneState(s)

	switch a.Kind {
	case ActionPropose:
		next.Proposed[s.Slot] = a.BlockId

	case ActionVoteRound1:
		if next.VotesRound1[a.BlockId] == nil {
			next.VotesRound1[a.BlockId] = map[types.ValidatorId]bool{}
		}
		next.VotesRound1[a.BlockId][a.Validator] = true

	case ActionVoteRound2:
		if next.VotesRound2[a.BlockId] == nil {
			next.VotesRound2[a.BlockId] = map[types.ValidatorId]bool{}
		}
		next.VotesRound2[a.BlockId][a.Validator] = true

	case ActionCheckFastQuorum:
		next.Finalized = append(next.Finalized, finalizedEntry{BlockId: a.BlockId, Slot: s.Slot, Round: types.Round1})

	case ActionCheckFallbackQuorum:
		next.Finalized = append(next.Finalized, finalizedEntry{BlockId: a.BlockId, Slot: s.Slot, Round: types.Round2})

	case ActionAdvanceRound2:
		next.Round = types.Round2

	case ActionVoteSkip:
		if next.SkipVotes[s.Slot] == nil {
			next.SkipVotes[s.Slot] = map[types.ValidatorId]bool{}
		}
		next.SkipVotes[s.Slot][a.Validator] = true

	case ActionCheckSkipQuorum:
		next.Skipped[s.Slot] = true

	case ActionNextSlot:
		next.Slot = s.Slot + 1
		next.Leader = types.ValidatorId((uint64(s.Leader) + 1) % uint64(m.ValidatorCount))
		next.Round = types.Round1

	case ActionPartition:
		p1 := map[types.ValidatorId]bool{}
		p2 := map[types.ValidatorId]bool{}
		for _, v := range a.P1 {
			p1[v] = true
		}
		for _, v := range a.P2 {
			p2[v] = true
		}
		next.Partitioned = &partitionState{p1: p1, p2: p2}

	case ActionHeal:
		next.Partitioned = nil
		next.PartitionHealed = true
	}

	return next
}

func cloneState(s State) State {
	next := State{
		Slot:            s.Slot,
		Leader:          s.Leader,
		Round:           s.Round,
		PartitionHealed: s.PartitionHealed,
		Proposed:        map[types.Slot]types.BlockId{},
		VotesRound1:     map[types.BlockId]map[types.ValidatorId]bool{},
		VotesRound2:     map[types.BlockId]map[types.ValidatorId]bool{},
		SkipVotes:       map[types.Slot]map[types.ValidatorId]bool{},
		Skipped:         map[types.Slot]bool{},
	}
	for k, v := range s.Proposed {
		next.Proposed[k] = v
	}
	for k, votes := range s.VotesRound1 {
		cp := make(map[types.ValidatorId]bool, len(votes))
		for id := range votes {
			cp[id] = true
		}
		next.VotesRound1[k] = cp
	}
	for k, votes := range s.VotesRound2 {
		cp := make(map[types.ValidatorId]bool, len(votes))
		for id := range votes {
			cp[id] = true
		}
		next.VotesRound2[k] = cp
	}
	for k, votes := range s.SkipVotes {
		cp := make(map[types.ValidatorId]bool, len(votes))
		for id := range votes {
			cp[id] = true
		}
		next.SkipVotes[k] = cp
	}
	for k, v := range s.Skipped {
		next.Skipped[k] = v
	}
	next.Finalized = append([]finalizedEntry(nil), s.Finalized...)
	if s.Partitioned != nil {
		p1 := make(map[types.ValidatorId]bool, len(s.Partitioned.p1))
		for id := range s.Partitioned.p1 {
			p1[id] = true
		}
		p2 := make(map[types.ValidatorId]bool, len(s.Partitioned.p2))
		for id := range s.Partitioned.p2 {
			p2[id] = true
		}
		next.Partitioned = &partitionState{p1: p1, p2: p2}
	}
	return next
}

// Key returns a canonical string encoding of state, suitable as a
// dedup-set key during exploration.
func (s State) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "slot=%d;leader=%d;round=%d;healed=%t;", s.Slot, s.Leader, s.Round, s.PartitionHealed)

	b.WriteString("proposed=")
	slots := sortedSlots(s.Proposed)
	for _, slot := range slots {
		fmt.Fprintf(&b, "%d:%x,", slot, s.Proposed[slot])
	}

	b.WriteString(";v1=")
	writeVoteMap(&b, s.VotesRound1)
	b.WriteString(";v2=")
	writeVoteMap(&b, s.VotesRound2)

	b.WriteString(";fin=")
	for _, f := range s.Finalized {
		fmt.Fprintf(&b, "(%x,%d,%d),", f.BlockId, f.Slot, f.Round)
	}

	b.WriteString(";skipvotes=")
	skipSlots := make([]int, 0, len(s.SkipVotes))
	for slot := range s.SkipVotes {
		skipSlots = append(skipSlots, int(slot))
	}
	sort.Ints(skipSlots)
	for _, slot := range skipSlots {
		fmt.Fprintf(&b, "%d:%s,", slot, sortedIds(s.SkipVotes[types.Slot(slot)]))
	}

	b.WriteString(";skipped=")
	skipped := make([]int, 0, len(s.Skipped))
	for slot := range s.Skipped {
		skipped = append(skipped, int(slot))
	}
	sort.Ints(skipped)
	fmt.Fprintf(&b, "%v", skipped)

	if s.Partitioned != nil {
		fmt.Fprintf(&b, ";part=%s|%s", sortedIds(s.Partitioned.p1), sortedIds(s.Partitioned.p2))
	}
	return b.String()
}

func sortedSlots(m map[types.Slot]types.BlockId) []types.Slot {
	out := make([]types.Slot, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedIds(m map[types.ValidatorId]bool) string {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	return fmt.Sprintf("%v", ids)
}

func writeVoteMap(b *strings.Builder, m map[types.BlockId]map[types.ValidatorId]bool) {
	keys := make([]types.BlockId, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return string(keys[i][:]) < string(keys[j][:])
	})
	for _, k := range keys {
		fmt.Fprintf(b, "%x:%s,", k, sortedIds(m[k]))
	}
}
