// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/luxfi/alpenglow/types"
)

// EncodeBlock serializes a Block deterministically for sharding by
// Rotor: id(32), slot(u64), parent tag+digest, leader(u64),
// payload(len-prefixed list of len-prefixed entries), timestamp(i64).
func EncodeBlock(b *types.Block) []byte {
	var buf bytes.Buffer
	buf.Write(b.Id[:])
	binary.Write(&buf, binary.BigEndian, uint64(b.Slot))
	if b.Parent != nil {
		buf.WriteByte(1)
		buf.Write(b.Parent[:])
	} else {
		buf.WriteByte(0)
	}
	binary.Write(&buf, binary.BigEndian, uint64(b.Leader))
	binary.Write(&buf, binary.BigEndian, uint32(len(b.Payload)))
	for _, entry := range b.Payload {
		writeBytes(&buf, entry)
	}
	binary.Write(&buf, binary.BigEndian, b.Timestamp)
	return buf.Bytes()
}

// DecodeBlock parses a Block produced by EncodeBlock. It returns
// ErrTruncated if raw is shorter than a well-formed encoding requires;
// Rotor maps that to ErasureCodingFailed.
func DecodeBlock(raw []byte) (*types.Block, error) {
	r := bytes.NewReader(raw)
	blk := &types.Block{}
	if _, err := io.ReadFull(r, blk.Id[:]); err != nil {
		return nil, ErrTruncated
	}
	var slot, leader uint64
	if err := binary.Read(r, binary.BigEndian, &slot); err != nil {
		return nil, ErrTruncated
	}
	blk.Slot = types.Slot(slot)
	tag, err := r.ReadByte()
	if err != nil {
		return nil, ErrTruncated
	}
	if tag == 1 {
		var parent types.BlockId
		if _, err := io.ReadFull(r, parent[:]); err != nil {
			return nil, ErrTruncated
		}
		blk.Parent = &parent
	}
	if err := binary.Read(r, binary.BigEndian, &leader); err != nil {
		return nil, ErrTruncated
	}
	blk.Leader = types.ValidatorId(leader)
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, ErrTruncated
	}
	blk.Payload = make([][]byte, 0, n)
	for i := uint32(0); i < n; i++ {
		entry, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		blk.Payload = append(blk.Payload, entry)
	}
	if err := binary.Read(r, binary.BigEndian, &blk.Timestamp); err != nil {
		return nil, ErrTruncated
	}
	return blk, nil
}
