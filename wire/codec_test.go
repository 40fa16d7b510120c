// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/alpenglow/types"
	"github.com/luxfi/alpenglow/wire"
)

func TestVoteRoundTrip(t *testing.T) {
	v := types.Vote{
		Validator: 7,
		BlockId:   types.BlockId{1, 2, 3},
		Slot:      42,
		Round:     types.Round2,
		Signature: []byte("sig"),
	}
	got, err := wire.DecodeVote(wire.EncodeVote(v))
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestCertificateRoundTrip(t *testing.T) {
	c := types.FinalizationCertificate{
		BlockId: types.BlockId{9},
		Slot:    1,
		Round:   types.Round1,
		Votes: []types.Vote{
			{Validator: 0, BlockId: types.BlockId{9}, Slot: 1, Round: types.Round1, Signature: []byte("a")},
			{Validator: 1, BlockId: types.BlockId{9}, Slot: 1, Round: types.Round1, Signature: []byte("b")},
		},
		TotalStake: 400,
	}
	got, err := wire.DecodeCertificate(wire.EncodeCertificate(c))
	require.NoError(t, err)
	require.Equal(t, c, got)
}

func TestShredRoundTrip(t *testing.T) {
	s := wire.Shred{BlockId: types.BlockId{4, 4}, Index: 2, TotalShreds: 5, Data: []byte("chunk")}
	got, err := wire.DecodeShred(wire.EncodeShred(s))
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestSkipVoteRoundTrip(t *testing.T) {
	s := wire.SkipVote{Validator: 3, Slot: 10, Signature: []byte("sig")}
	got, err := wire.DecodeSkipVote(wire.EncodeSkipVote(s))
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestBlockRoundTrip(t *testing.T) {
	parent := types.BlockId{1}
	blk := &types.Block{
		Slot:      5,
		Parent:    &parent,
		Leader:    2,
		Payload:   [][]byte{{1, 2}, {3, 4, 5}},
		Timestamp: 1234,
	}
	blk.Id = blk.ComputeId()

	got, err := wire.DecodeBlock(wire.EncodeBlock(blk))
	require.NoError(t, err)
	require.Equal(t, blk.Id, got.Id)
	require.Equal(t, blk.Slot, got.Slot)
	require.Equal(t, *blk.Parent, *got.Parent)
	require.Equal(t, blk.Leader, got.Leader)
	require.Equal(t, blk.Payload, got.Payload)
	require.Equal(t, blk.Timestamp, got.Timestamp)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := wire.DecodeVote([]byte{1, 2, 3})
	require.ErrorIs(t, err, wire.ErrTruncated)
}
