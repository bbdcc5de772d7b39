package conformance

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGuestRoundTrip drives a reference guest binary against every
// corpus case that carries a reference id. Both sides must agree byte
// for byte in both directions: the guest accepts our encoding, and we
// accept the guest's.
func TestGuestRoundTrip(t *testing.T) {
	path := os.Getenv("WIREBIND_CONFORMANCE_WASM")
	if path == "" {
		t.Skip("WIREBIND_CONFORMANCE_WASM not set; skipping guest conformance test")
	}

	wasmBytes, err := os.ReadFile(path)
	require.NoError(t, err)

	ctx := context.Background()
	runner, err := NewRunner(ctx, wasmBytes)
	require.NoError(t, err)
	defer runner.Close(ctx)

	for _, c := range Corpus() {
		if c.RefID < 0 {
			continue
		}
		t.Run(c.Name, func(t *testing.T) {
			out, err := runner.RoundTrip(ctx, c)
			require.NoError(t, err)
			assert.Equal(t, c.Wire, out)
		})
	}
}

func TestRoundTripRejectsLocalCases(t *testing.T) {
	r := &Runner{}
	_, err := r.RoundTrip(context.Background(), Case{Name: "local", RefID: -1})
	require.Error(t, err)
}
