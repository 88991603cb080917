package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTimeoutOverridesKeysByHumanizedOrigin(t *testing.T) {
	overrides, err := parseTimeoutOverrides("asuracomic.net=10, www.mangabuddy.com=7")
	require.NoError(t, err)

	// Keys come out in the same form normalize.Origin derives from title
	// URLs, so breaker lookups actually hit them.
	require.Equal(t, map[string]int{
		"Asuracomic": 10,
		"Mangabuddy": 7,
	}, overrides)
}

func TestParseTimeoutOverridesEmpty(t *testing.T) {
	overrides, err := parseTimeoutOverrides("  ")
	require.NoError(t, err)
	require.Empty(t, overrides)
}

func TestParseTimeoutOverridesRejectsMalformedInput(t *testing.T) {
	_, err := parseTimeoutOverrides("asuracomic.net")
	require.Error(t, err)

	_, err = parseTimeoutOverrides("asuracomic.net=zero")
	require.Error(t, err)

	_, err = parseTimeoutOverrides("asuracomic.net=-1")
	require.Error(t, err)

	// A bare word is not a hostname and would silently never match.
	_, err = parseTimeoutOverrides("asuracomic=10")
	require.Error(t, err)
}
