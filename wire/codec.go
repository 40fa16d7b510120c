// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the deterministic, length-prefixed binary
// encoding for the four consensus messages: Shred, Vote, Certificate,
// SkipVote. Every node MUST serialize these identically, since the
// block-id hash and equivocation checks depend on byte-exact agreement;
// this package is the single source of truth for that encoding.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/luxfi/alpenglow/types"
)

// ErrTruncated is returned when a decode runs out of input mid-message.
var ErrTruncated = errors.New("wire: truncated message")

func writeBytes(buf *bytes.Buffer, b []byte) {
	binary.Write(buf, binary.BigEndian, uint32(len(b)))
	buf.Write(b)
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, ErrTruncated
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, ErrTruncated
	}
	return out, nil
}

// EncodeShred serializes a Shred: block_id(32), index(u32),
// total_shreds(u32), data(len-prefixed).
func EncodeShred(s Shred) []byte {
	var buf bytes.Buffer
	buf.Write(s.BlockId[:])
	binary.Write(&buf, binary.BigEndian, s.Index)
	binary.Write(&buf, binary.BigEndian, s.TotalShreds)
	writeBytes(&buf, s.Data)
	return buf.Bytes()
}

// DecodeShred parses a Shred produced by EncodeShred.
func DecodeShred(b []byte) (Shred, error) {
	r := bytes.NewReader(b)
	var s Shred
	if _, err := io.ReadFull(r, s.BlockId[:]); err != nil {
		return Shred{}, ErrTruncated
	}
	if err := binary.Read(r, binary.BigEndian, &s.Index); err != nil {
		return Shred{}, ErrTruncated
	}
	if err := binary.Read(r, binary.BigEndian, &s.TotalShreds); err != nil {
		return Shred{}, ErrTruncated
	}
	data, err := readBytes(r)
	if err != nil {
		return Shred{}, err
	}
	s.Data = data
	return s, nil
}

// EncodeVote serializes a Vote: validator(u64), block_id(32), slot(u64),
// round(u8), signature(len-prefixed).
func EncodeVote(v types.Vote) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint64(v.Validator))
	buf.Write(v.BlockId[:])
	binary.Write(&buf, binary.BigEndian, uint64(v.Slot))
	buf.WriteByte(byte(v.Round))
	writeBytes(&buf, v.Signature)
	return buf.Bytes()
}

// DecodeVote parses a Vote produced by EncodeVote.
func DecodeVote(b []byte) (types.Vote, error) {
	r := bytes.NewReader(b)
	var v types.Vote
	var validator, slot uint64
	if err := binary.Read(r, binary.BigEndian, &validator); err != nil {
		return types.Vote{}, ErrTruncated
	}
	v.Validator = types.ValidatorId(validator)
	if _, err := io.ReadFull(r, v.BlockId[:]); err != nil {
		return types.Vote{}, ErrTruncated
	}
	if err := binary.Read(r, binary.BigEndian, &slot); err != nil {
		return types.Vote{}, ErrTruncated
	}
	v.Slot = types.Slot(slot)
	round, err := r.ReadByte()
	if err != nil {
		return types.Vote{}, ErrTruncated
	}
	v.Round = types.VoteRound(round)
	sig, err := readBytes(r)
	if err != nil {
		return types.Vote{}, err
	}
	v.Signature = sig
	return v, nil
}

// EncodeCertificate serializes a FinalizationCertificate: block_id(32),
// slot(u64), round(u8), votes(len-prefixed list of Vote), total_stake(u64).
func EncodeCertificate(c types.FinalizationCertificate) []byte {
	var buf bytes.Buffer
	buf.Write(c.BlockId[:])
	binary.Write(&buf, binary.BigEndian, uint64(c.Slot))
	buf.WriteByte(byte(c.Round))
	binary.Write(&buf, binary.BigEndian, uint32(len(c.Votes)))
	for _, v := range c.Votes {
		writeBytes(&buf, EncodeVote(v))
	}
	binary.Write(&buf, binary.BigEndian, uint64(c.TotalStake))
	return buf.Bytes()
}

// DecodeCertificate parses a FinalizationCertificate produced by
// EncodeCertificate.
func DecodeCertificate(b []byte) (types.FinalizationCertificate, error) {
	r := bytes.NewReader(b)
	var c types.FinalizationCertificate
	if _, err := io.ReadFull(r, c.BlockId[:]); err != nil {
		return types.FinalizationCertificate{}, ErrTruncated
	}
	var slot, total uint64
	if err := binary.Read(r, binary.BigEndian, &slot); err != nil {
		return types.FinalizationCertificate{}, ErrTruncated
	}
	c.Slot = types.Slot(slot)
	round, err := r.ReadByte()
	if err != nil {
		return types.FinalizationCertificate{}, ErrTruncated
	}
	c.Round = types.VoteRound(round)
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return types.FinalizationCertificate{}, ErrTruncated
	}
	c.Votes = make([]types.Vote, 0, n)
	for i := uint32(0); i < n; i++ {
		raw, err := readBytes(r)
		if err != nil {
			return types.FinalizationCertificate{}, err
		}
		v, err := DecodeVote(raw)
		if err != nil {
			return types.FinalizationCertificate{}, err
		}
		c.Votes = append(c.Votes, v)
	}
	if err := binary.Read(r, binary.BigEndian, &total); err != nil {
		return types.FinalizationCertificate{}, ErrTruncated
	}
	c.TotalStake = types.StakeWeight(total)
	return c, nil
}

// SkipVote is a validator's vote to skip a silent slot.
type SkipVote struct {
	Validator types.ValidatorId
	Slot      types.Slot
	Signature []byte
}

// EncodeSkipVote serializes a SkipVote: validator(u64), slot(u64),
// signature(len-prefixed).
func EncodeSkipVote(v SkipVote) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint64(v.Validator))
	binary.Write(&buf, binary.BigEndian, uint64(v.Slot))
	writeBytes(&buf, v.Signature)
	return buf.Bytes()
}

// DecodeSkipVote parses a SkipVote produced by EncodeSkipVote.
func DecodeSkipVote(b []byte) (SkipVote, error) {
	r := bytes.NewReader(b)
	var v SkipVote
	var validator, slot uint64
	if err := binary.Read(r, binary.BigEndian, &validator); err != nil {
		return SkipVote{}, ErrTruncated
	}
	v.Validator = types.ValidatorId(validator)
	if err := binary.Read(r, binary.BigEndian, &slot); err != nil {
		return SkipVote{}, ErrTruncated
	}
	v.Slot = types.Slot(slot)
	sig, err := readBytes(r)
	if err != nil {
		return SkipVote{}, err
	}
	v.Signature = sig
	return v, nil
}
