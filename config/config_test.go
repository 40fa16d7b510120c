// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/alpenglow/config"
)

func TestPresetsValidate(t *testing.T) {
	for name, p := range map[string]config.Parameters{
		"default": config.DefaultParameters,
		"mainnet": config.Mainnet(),
		"testnet": config.Testnet(),
		"local":   config.Local(),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, p.Validate())
		})
	}
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	base := config.Local()

	zeroRound1 := base
	zeroRound1.Round1Timeout = 0
	require.Error(t, zeroRound1.Validate())

	zeroRound2 := base
	zeroRound2.Round2Timeout = 0
	require.Error(t, zeroRound2.Validate())

	zeroFanout := base
	zeroFanout.RelayFanout = 0
	require.Error(t, zeroFanout.Validate())
}
