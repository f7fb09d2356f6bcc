package flags

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/triad/internal/log"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{
			name:     "default on",
			registry: New(nil),
			flag:     FlagRenderCache,
			expected: true,
		},
		{
			name:     "configured off",
			registry: New(map[string]bool{FlagRenderCache: false}),
			flag:     FlagRenderCache,
			expected: false,
		},
		{
			name:     "other flags keep defaults",
			registry: New(map[string]bool{FlagRenderCache: false}),
			flag:     FlagAbortOnDepth,
			expected: true,
		},
		{
			name:     "unknown flag is off",
			registry: New(map[string]bool{"warp-drive": true}),
			flag:     "warp-drive",
			expected: false,
		},
		{
			name:     "nil registry is off",
			registry: nil,
			flag:     FlagRenderCache,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_AllIsACopy(t *testing.T) {
	r := New(nil)
	all := r.All()
	all[FlagRenderCache] = false

	require.True(t, r.Enabled(FlagRenderCache))
	require.Equal(t, Defaults(), r.All())
	require.Empty(t, (*Registry)(nil).All())
}

func TestNew_WarnsOnUnknownFlag(t *testing.T) {
	var buf bytes.Buffer
	cleanup := log.InitWriter(&buf)
	defer cleanup()

	New(map[string]bool{"warp-drive": true})

	require.Contains(t, buf.String(), "Ignoring unknown feature flag")
	require.Contains(t, buf.String(), "flag=warp-drive")
}

func TestNames(t *testing.T) {
	require.Equal(t, []string{FlagAbortOnDepth, FlagRenderCache}, Names())
}
