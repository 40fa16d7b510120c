// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rotor implements block dissemination: fragmenting a block into
// shreds at the leader, and reconstructing a block from a sufficient
// subset of shreds at every other validator.
package rotor

import (
	"encoding/binary"
	"math/rand"
	"sync"

	"github.com/luxfi/alpenglow/types"
	"github.com/luxfi/alpenglow/wire"
)

// Shred is re-exported from wire so callers of this package don't need a
// second import for the same wire type.
type Shred = wire.Shred

// buffer tracks the shreds received so far for one block id.
type buffer struct {
	slots     []wire.Shred
	present   []bool
	delivered bool
	block     *types.Block
}

// Rotor is a stateless encoder plus a per-block-id reconstruction
// buffer. One Rotor instance belongs to exactly one engine; the mutex
// here only guards against the host accidentally calling Receive
// concurrently, and costs nothing on the engine's single-threaded call
// path.
type Rotor struct {
	validators *types.ValidatorSet

	mu      sync.Mutex
	buffers map[types.BlockId]*buffer
}

// New returns a Rotor bound to validators. validators is captured by
// pointer here but the engine that owns both Rotor and Votor is expected
// to treat it as frozen after construction.
func New(validators *types.ValidatorSet) *Rotor {
	return &Rotor{
		validators: validators,
		buffers:    make(map[types.BlockId]*buffer),
	}
}

// threshold returns the minimum non-empty shred count required to
// attempt reconstruction: ceil(0.8*n).
func threshold(n int) int {
	return (n*80 + 99) / 100
}

// Encode serializes block and splits it into exactly N = validator-count
// shreds, padding with empty-data shreds if the serialized block is
// shorter than N chunks. This is a chunk-split placeholder, semantically
// weaker than a real erasure code: losing any one shred loses that
// chunk's bytes rather than being recoverable from any sufficient
// subset. A production build would substitute Reed-Solomon with
// k=ceil(0.8*N) data shards; no erasure-coding library is wired into
// this module yet, so the chunk-split scheme is kept rather than
// inventing an unvetted dependency.
func (r *Rotor) Encode(block *types.Block) ([]Shred, error) {
	n := r.validators.Len()
	if n == 0 {
		return nil, types.ErrErasureCodingFailed
	}
	serialized := wire.EncodeBlock(block)

	chunkSize := (len(serialized) + n - 1) / n
	if chunkSize == 0 {
		chunkSize = 1
	}

	shreds := make([]Shred, 0, n)
	for i := 0; i < len(serialized); i += chunkSize {
		end := i + chunkSize
		if end > len(serialized) {
			end = len(serialized)
		}
		shreds = append(shreds, Shred{
			BlockId:     block.Id,
			Index:       uint32(len(shreds)),
			TotalShreds: uint32(n),
			Data:        serialized[i:end],
		})
	}
	for len(shreds) < n {
		shreds = append(shreds, Shred{
			BlockId:     block.Id,
			Index:       uint32(len(shreds)),
			TotalShreds: uint32(n),
			Data:        nil,
		})
	}
	return shreds, nil
}

// Receive stores shred into its block's reconstruction buffer and
// attempts reconstruction. It returns (block, nil) the first moment the
// block becomes reconstructable; every call after that first delivery
// returns (nil, nil) for the same block id, even though late duplicate
// or missing shreds may still arrive — the caller sees at most one
// "newly reconstructed" event per block.
func (r *Rotor) Receive(shred Shred) (*types.Block, error) {
	if shred.Index >= shred.TotalShreds {
		return nil, types.ErrInvalidShred
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.buffers[shred.BlockId]
	if !ok {
		buf = &buffer{
			slots:   make([]wire.Shred, shred.TotalShreds),
			present: make([]bool, shred.TotalShreds),
		}
		r.buffers[shred.BlockId] = buf
	}
	if int(shred.Index) >= len(buf.slots) {
		return nil, types.ErrInvalidShred
	}

	buf.slots[shred.Index] = shred
	buf.present[shred.Index] = true

	if buf.delivered {
		return nil, nil
	}

	count := 0
	for _, p := range buf.present {
		if p {
			count++
		}
	}
	if count < threshold(len(buf.slots)) {
		return nil, nil
	}

	var data []byte
	for i, p := range buf.present {
		if p {
			data = append(data, buf.slots[i].Data...)
		}
	}
	allPresent := count == len(buf.slots)

	block, err := wire.DecodeBlock(data)
	if err != nil {
		// The chunk-split placeholder scheme can only truly reconstruct
		// once every shred has arrived (see Encode's doc comment); a
		// decode failure below that point means the missing shreds
		// still carry bytes we don't have yet, not corruption.
		if !allPresent {
			return nil, nil
		}
		return nil, types.ErrErasureCodingFailed
	}
	if block.Id != shred.BlockId {
		if !allPresent {
			return nil, nil
		}
		return nil, types.ErrInvalidShred
	}

	buf.block = block
	buf.delivered = true
	return block, nil
}

// HasBlock reports whether blockId has already been reconstructed.
func (r *Rotor) HasBlock(blockId types.BlockId) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.buffers[blockId]
	return ok && buf.delivered
}

// GetBlock returns the reconstructed block for blockId, if any.
func (r *Rotor) GetBlock(blockId types.BlockId) (*types.Block, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.buffers[blockId]
	if !ok || !buf.delivered {
		return nil, false
	}
	return buf.block, true
}

// Forget releases the reconstruction buffer for blockId. Callers do this
// once a slot finalizes or is skipped.
func (r *Rotor) Forget(blockId types.BlockId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, blockId)
}

// SelectRelays deterministically samples k distinct validator ids,
// weighted by stake, seeded by blockId so every honest node computes the
// identical relay set without coordination. The seed is derived from the
// block id's leading bytes rather than a VRF, since VRF generation is a
// signing-layer capability out of scope here; swapping in a VRF-backed
// selector does not change this function's signature.
func (r *Rotor) SelectRelays(blockId types.BlockId, k int) []types.ValidatorId {
	ids := r.validators.Ids()
	if k > len(ids) {
		k = len(ids)
	}
	if k <= 0 {
		return nil
	}

	seed := int64(binary.BigEndian.Uint64(blockId[:8]))
	rng := rand.New(rand.NewSource(seed))

	weights := make([]uint64, len(ids))
	total := uint64(0)
	for i, id := range ids {
		info, _ := r.validators.Get(id)
		weights[i] = uint64(info.Stake)
		total += weights[i]
	}
	if total == 0 {
		return append([]types.ValidatorId(nil), ids[:k]...)
	}

	remaining := append([]types.ValidatorId(nil), ids...)
	remainingW := append([]uint64(nil), weights...)
	out := make([]types.ValidatorId, 0, k)
	for len(out) < k && len(remaining) > 0 {
		left := uint64(0)
		for _, w := range remainingW {
			left += w
		}
		if left == 0 {
			out = append(out, remaining[0])
			remaining = remaining[1:]
			remainingW = remainingW[1:]
			continue
		}
		pick := uint64(rng.Int63n(int64(left)))
		var cum uint64
		chosen := 0
		for i, w := range remainingW {
			cum += w
			if pick < cum {
				chosen = i
				break
			}
		}
		out = append(out, remaining[chosen])
		remaining = append(remaining[:chosen], remaining[chosen+1:]...)
		remainingW = append(remainingW[:chosen], remainingW[chosen+1:]...)
	}
	return out
}
