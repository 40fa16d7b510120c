// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// ValidatorInfo is one registered participant. Byzantine and Offline
// exist only to model adversarial scenarios in tests: the protocol
// itself treats every registered validator uniformly.
type ValidatorInfo struct {
	Id        ValidatorId
	Stake     StakeWeight
	Byzantine bool
	Offline   bool
}

// ValidatorSet is the frozen registry of participants for one engine
// instance. It is constructed once at startup; callers share it by
// pointer with Votor and Rotor, and updates after construction have no
// effect on in-flight consensus state.
type ValidatorSet struct {
	byId  map[ValidatorId]ValidatorInfo
	total StakeWeight
}

// NewValidatorSet builds a frozen registry from the given validators.
// Duplicate ids overwrite earlier entries, matching map-insert semantics
// elsewhere in this package.
func NewValidatorSet(validators ...ValidatorInfo) *ValidatorSet {
	vs := &ValidatorSet{byId: make(map[ValidatorId]ValidatorInfo, len(validators))}
	for _, v := range validators {
		vs.byId[v.Id] = v
	}
	for _, v := range vs.byId {
		vs.total = vs.total.Add(v.Stake)
	}
	return vs
}

// Get returns the registered info for id, if any.
func (vs *ValidatorSet) Get(id ValidatorId) (ValidatorInfo, bool) {
	v, ok := vs.byId[id]
	return v, ok
}

// Has reports whether id is a registered member.
func (vs *ValidatorSet) Has(id ValidatorId) bool {
	_, ok := vs.byId[id]
	return ok
}

// Len returns the number of registered validators.
func (vs *ValidatorSet) Len() int {
	return len(vs.byId)
}

// TotalStake returns the sum of stake over the whole registry.
func (vs *ValidatorSet) TotalStake() StakeWeight {
	return vs.total
}

// Ids returns the registered validator ids in ascending order, for
// reproducible iteration (certificate contents, shred fan-out, relay
// selection all depend on stable ordering).
func (vs *ValidatorSet) Ids() []ValidatorId {
	ids := maps.Keys(vs.byId)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StakeOf sums the stake of the given ids, ignoring any that aren't
// registered members.
func (vs *ValidatorSet) StakeOf(ids []ValidatorId) StakeWeight {
	var sum StakeWeight
	for _, id := range ids {
		if v, ok := vs.byId[id]; ok {
			sum = sum.Add(v.Stake)
		}
	}
	return sum
}

// FastQuorum returns the floor(0.8*S) fast-path threshold.
func (vs *ValidatorSet) FastQuorum() StakeWeight {
	return StakeWeight((uint64(vs.total) * 80) / 100)
}

// FallbackQuorum returns the floor(0.6*S) fallback-path threshold.
func (vs *ValidatorSet) FallbackQuorum() StakeWeight {
	return StakeWeight((uint64(vs.total) * 60) / 100)
}

// SkipQuorum returns the floor(0.6*S) skip-vote threshold — the same
// bound as the fallback path.
func (vs *ValidatorSet) SkipQuorum() StakeWeight {
	return vs.FallbackQuorum()
}

func (vs *ValidatorSet) String() string {
	return fmt.Sprintf("ValidatorSet{n=%d, total=%d}", vs.Len(), vs.total)
}
