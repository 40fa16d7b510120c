// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/alpenglow/types"
)

func TestBlockIdExcludesPayload(t *testing.T) {
	a := &types.Block{Slot: 0, Leader: 1, Timestamp: 1000, Payload: [][]byte{{1, 2, 3}}}
	b := &types.Block{Slot: 0, Leader: 1, Timestamp: 1000, Payload: [][]byte{{4, 5, 6, 7}}}
	require.Equal(t, a.ComputeId(), b.ComputeId(), "payload must not affect the binding id")
}

func TestBlockIdBindsHeaderFields(t *testing.T) {
	base := &types.Block{Slot: 0, Leader: 1, Timestamp: 1000}
	changedSlot := &types.Block{Slot: 1, Leader: 1, Timestamp: 1000}
	changedLeader := &types.Block{Slot: 0, Leader: 2, Timestamp: 1000}
	changedTime := &types.Block{Slot: 0, Leader: 1, Timestamp: 1001}

	require.NotEqual(t, base.ComputeId(), changedSlot.ComputeId())
	require.NotEqual(t, base.ComputeId(), changedLeader.ComputeId())
	require.NotEqual(t, base.ComputeId(), changedTime.ComputeId())
}

func TestBlockIdBindsParentPresence(t *testing.T) {
	withoutParent := &types.Block{Slot: 0, Leader: 1, Timestamp: 1000}
	parent := types.EmptyBlockId
	withParent := &types.Block{Slot: 0, Leader: 1, Timestamp: 1000, Parent: &parent}
	require.NotEqual(t, withoutParent.ComputeId(), withParent.ComputeId())
}

func TestBlockVerify(t *testing.T) {
	b := &types.Block{Slot: 3, Leader: 1, Timestamp: 42}
	b.Id = b.ComputeId()
	require.True(t, b.Verify())

	b.Timestamp = 43
	require.False(t, b.Verify())
}
