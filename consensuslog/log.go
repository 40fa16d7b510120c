// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensuslog adapts the engine to github.com/luxfi/log, the
// structured logging facade this module is built around. The engine
// takes a log.Logger at construction and logs round advances,
// certificate emission, and rejected votes/shreds through it.
package consensuslog

import "github.com/luxfi/log"

// NoOp returns a logger that discards everything, for tests and for
// hosts that haven't wired a real sink yet.
func NoOp() log.Logger {
	return log.NewNoOpLogger()
}
