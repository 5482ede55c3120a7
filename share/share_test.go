//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package share

import (
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/require"

	"github.com/markkurossi/guesspoint/field"
)

const testPrime = 1<<31 - 1

func testSampler(t *testing.T, p uint64) *field.Sampler {
	t.Helper()
	prng, err := field.NewKeyedPRNG(make([]byte, 32))
	require.NoError(t, err)
	return field.NewSampler(field.New(p), prng)
}

func TestSplitReconstruct(t *testing.T) {
	smp := testSampler(t, testPrime)
	f := smp.Field()

	secrets := []uint64{0, 1, 42, testPrime - 1}
	for _, secret := range secrets {
		for n := 1; n <= 5; n++ {
			shares, err := Split(smp, secret, n)
			require.NoError(t, err)
			require.Len(t, shares, n)
			for _, s := range shares {
				require.True(t, f.Contains(s))
			}
			require.Equal(t, secret, Reconstruct(f, shares))
		}
	}
}

func TestSplitSingle(t *testing.T) {
	smp := testSampler(t, testPrime)

	shares, err := Split(smp, 7, 1)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, shares)
}

func TestSplitReducesSecret(t *testing.T) {
	smp := testSampler(t, 17)

	shares, err := Split(smp, 40, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(40%17), Reconstruct(smp.Field(), shares))
}

func TestSplitInvalidCount(t *testing.T) {
	smp := testSampler(t, testPrime)

	_, err := Split(smp, 1, 0)
	require.Error(t, err)
}

// TestSplitDistribution checks that the non-remainder shares are
// uniform regardless of the secret: with p=17 their mean over many
// splits stays near (p-1)/2 for very different secrets.
func TestSplitDistribution(t *testing.T) {
	const p = 17
	const rounds = 4000

	for _, secret := range []uint64{0, 13} {
		smp := testSampler(t, p)

		var first []float64
		for i := 0; i < rounds; i++ {
			shares, err := Split(smp, secret, 3)
			require.NoError(t, err)
			first = append(first, float64(shares[0]))
		}
		mean, err := stats.Mean(first)
		require.NoError(t, err)
		require.InDelta(t, float64(p-1)/2, mean, 0.5,
			"share mean drifted for secret %d", secret)

		min, err := stats.Min(first)
		require.NoError(t, err)
		max, err := stats.Max(first)
		require.NoError(t, err)
		require.Equal(t, 0.0, min)
		require.Equal(t, float64(p-1), max)
	}
}
