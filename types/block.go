// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
)

// Block is an immutable proposal for a slot. Id is recomputed and
// verified on receipt; it is never trusted from the wire alone.
type Block struct {
	Id        BlockId
	Slot      Slot
	Parent    *BlockId
	Leader    ValidatorId
	Payload   [][]byte
	Timestamp int64
}

// ComputeId derives the block's binding identifier:
//
//	H(slot || parent || leader || timestamp)
//
// The payload is deliberately excluded — the id binds only the header,
// not the body. Every implementation MUST use this exact byte layout or
// ids will diverge across nodes.
func (b *Block) ComputeId() BlockId {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint64(b.Slot))
	if b.Parent != nil {
		buf.WriteByte(1)
		buf.Write(b.Parent[:])
	} else {
		buf.WriteByte(0)
	}
	binary.Write(&buf, binary.BigEndian, uint64(b.Leader))
	binary.Write(&buf, binary.BigEndian, uint64(b.Timestamp))
	return sha256.Sum256(buf.Bytes())
}

// PayloadDigest hashes the block's payload entries alone. It is not part
// of BlockId (see ComputeId), but is exposed so a caller that wants to
// bind the payload into a higher-level wire format (e.g. a future
// certificate extension) can do so without changing the id encoding.
func (b *Block) PayloadDigest() [32]byte {
	h := sha256.New()
	for _, entry := range b.Payload {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(entry)))
		h.Write(lenBuf[:])
		h.Write(entry)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Verify recomputes Id and reports whether it matches b.Id.
func (b *Block) Verify() bool {
	return b.ComputeId() == b.Id
}
