package flags

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{
			name:     "known flag set to true returns true",
			registry: New(map[string]bool{FlagThreads: true}),
			flag:     FlagThreads,
			expected: true,
		},
		{
			name:     "known flag set to false returns false",
			registry: New(map[string]bool{FlagPinnedEvents: false}),
			flag:     FlagPinnedEvents,
			expected: false,
		},
		{
			name:     "unknown flag returns false",
			registry: New(map[string]bool{FlagThreads: true}),
			flag:     "unknown-flag",
			expected: false,
		},
		{
			name:     "nil registry returns false",
			registry: nil,
			flag:     FlagThreads,
			expected: false,
		},
		{
			name:     "nil flags map returns false",
			registry: New(nil),
			flag:     FlagThreads,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_All_ReturnsDefensiveCopy(t *testing.T) {
	original := map[string]bool{FlagThreads: true}
	r := New(original)

	copied := r.All()
	copied[FlagThreads] = false
	original["new-flag"] = true

	require.True(t, r.Enabled(FlagThreads))
	require.False(t, r.Enabled("new-flag"))
	require.Equal(t, map[string]bool{FlagThreads: true}, r.All())

	var nilRegistry *Registry
	require.Equal(t, map[string]bool{}, nilRegistry.All())
}

func TestRegistry_Replace(t *testing.T) {
	r := New(map[string]bool{FlagThreads: true})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 100 {
			_ = r.Enabled(FlagThreads)
		}
	}()
	r.Replace(map[string]bool{FlagThreads: false, FlagKnockRequests: true})
	wg.Wait()

	require.False(t, r.Enabled(FlagThreads))
	require.True(t, r.Enabled(FlagKnockRequests))
}

func TestKnown(t *testing.T) {
	require.ElementsMatch(t, []string{"threads", "space-settings", "knock-requests", "pinned-events"}, Known())
}
