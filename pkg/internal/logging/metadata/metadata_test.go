/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TBD54566975/tbdex-go/spi/log"
)

func TestModuleLevels(t *testing.T) {
	mlevel := newModuleLevels()

	mlevel.set("module-xyz-info", log.INFO)
	mlevel.set("module-xyz-debug", log.DEBUG)
	mlevel.set("module-xyz-error", log.ERROR)

	require.True(t, mlevel.enabled("module-xyz-info", log.INFO))
	require.False(t, mlevel.enabled("module-xyz-info", log.DEBUG))
	require.True(t, mlevel.enabled("module-xyz-debug", log.DEBUG))
	require.True(t, mlevel.enabled("module-xyz-error", log.CRITICAL))
	require.False(t, mlevel.enabled("module-xyz-error", log.WARNING))

	// unknown modules fall back to INFO
	require.True(t, mlevel.enabled("unknown", log.INFO))
	require.False(t, mlevel.enabled("unknown", log.DEBUG))

	mlevel.set(defaultModule, log.WARNING)
	require.False(t, mlevel.enabled("unknown", log.INFO))
	require.True(t, mlevel.enabled("module-xyz-info", log.INFO))
}

func TestParseLevel(t *testing.T) {
	for i, name := range levelNames {
		level, err := ParseLevel(name)
		require.NoError(t, err)
		require.Equal(t, log.Level(i), level)
	}

	level, err := ParseLevel("debug")
	require.NoError(t, err)
	require.Equal(t, log.DEBUG, level)

	_, err = ParseLevel("verbose")
	require.EqualError(t, err, "logger: invalid log level")
}
