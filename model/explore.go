// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package model

// ExploreResult summarizes one exhaustive-exploration run.
type ExploreResult struct {
	StatesExplored  int
	PartitionStates int
	HealedStates    int
	Violations      []Violation
	MaxSlotReached  int
}

// Explore performs a breadth-first traversal of every state reachable
// from m.Initial(), checking every per-state invariant at every state
// visited and the transition invariants (MonotonicSlot, RoundMonotonic)
// on every edge taken. It terminates because Actions bounds slot
// progression at m.SlotHorizon and gates partition/heal to a single
// occurrence each.
func (m *Model) Explore() ExploreResult {
	initial := m.Initial()
	visited := map[string]bool{initial.Key(): true}
	queue := []State{initial}

	var result ExploreResult
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		result.StatesExplored++

		if s.Partitioned != nil {
			result.PartitionStates++
		}
		if s.PartitionHealed {
			result.HealedStates++
		}
		if int(s.Slot) > result.MaxSlotReached {
			result.MaxSlotReached = int(s.Slot)
		}

		result.Violations = append(result.Violations, m.CheckAll(s)...)

		for _, a := range m.Actions(s) {
			next := m.Step(s, a)
			if !CheckMonotonicSlot(s, next) {
				result.Violations = append(result.Violations, Violation{Invariant: "MonotonicSlot", State: next})
			}
			if !CheckRoundMonotonic(s, next) {
				result.Violations = append(result.Violations, Violation{Invariant: "RoundMonotonic", State: next})
			}
			key := next.Key()
			if !visited[key] {
				visited[key] = true
				queue = append(queue, next)
			}
		}
	}
	return result
}
