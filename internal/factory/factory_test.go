package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func synthesizeN(t *testing.T, seed *uint64, n int) []string {
	t.Helper()

	app, err := New(Config{SynthSeed: seed, SkipSeed: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	names := make([]string, n)
	for i := range names {
		names[i] = app.Synthesizer.Synthesize()
	}
	return names
}

func TestSeededSynthesizerIsReproducible(t *testing.T) {
	for _, seed := range []uint64{0, 42} {
		first := synthesizeN(t, &seed, 20)
		second := synthesizeN(t, &seed, 20)
		assert.Equal(t, first, second, "seed %d", seed)
	}
}

func TestNewSkipSeedLeavesRegistryEmpty(t *testing.T) {
	app, err := New(Config{SkipSeed: true})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	assert.Equal(t, 0, app.Registry.Count())
	assert.Nil(t, app.FeedPublisher)
}
