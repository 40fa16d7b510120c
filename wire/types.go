// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import "github.com/luxfi/alpenglow/types"

// Shred is one erasure-coded fragment of a block, as framed on the wire.
type Shred struct {
	BlockId     types.BlockId
	Index       uint32
	TotalShreds uint32
	Data        []byte
}
