package cryptosubstrate

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomSecret(t *testing.T, blocks int) []byte {
	t.Helper()
	secret := make([]byte, blocks*BlockSize)
	_, err := rand.Read(secret)
	require.NoError(t, err)
	return secret
}

func TestSplitCombineRoundTrip(t *testing.T) {
	cases := []struct{ k, n int }{
		{2, 2}, {2, 5}, {3, 5}, {3, 16}, {8, 16}, {16, 16},
	}
	for _, c := range cases {
		secret := randomSecret(t, 2)
		shares, err := Split(c.k, c.n, secret)
		require.NoError(t, err)
		require.Len(t, shares, c.n)

		// The first k shares must reconstruct the secret.
		subset := shares[:c.k]
		got, err := Combine(subset)
		require.NoError(t, err)
		require.Equal(t, secret, got)
	}
}

func TestSplitRejectsNonBlockMultiple(t *testing.T) {
	_, err := Split(3, 5, make([]byte, 17))
	require.ErrorIs(t, err, ErrNotMultipleOfBlock)
}

func TestCombineRejectsInconsistentLengths(t *testing.T) {
	shares := []Share{
		{Index: 1, Payload: make([]byte, 16)},
		{Index: 2, Payload: make([]byte, 32)},
	}
	_, err := Combine(shares)
	require.ErrorIs(t, err, ErrInconsistentShareLengths)
}

func TestEphIDSplitAndReconstruct(t *testing.T) {
	_, id := GenerateEphID()
	shares, err := SplitEphID(3, 5, id)
	require.NoError(t, err)
	require.Len(t, shares, 5)

	got, ok := ReconstructEphID(shares[1:4], id.Digest)
	require.True(t, ok)
	require.Equal(t, id.Public, got.Public)
}

func TestEphIDReconstructRejectsWrongDigest(t *testing.T) {
	_, id := GenerateEphID()
	shares, err := SplitEphID(3, 5, id)
	require.NoError(t, err)

	var wrongDigest [32]byte
	_, ok := ReconstructEphID(shares[:3], wrongDigest)
	require.False(t, ok)
}

func TestFewerThanThresholdSharesFailToMatchDigest(t *testing.T) {
	// Below the threshold, combine still returns bytes (they're simply
	// wrong), so reconstruction must fail the digest check.
	_, id := GenerateEphID()
	shares, err := SplitEphID(3, 5, id)
	require.NoError(t, err)

	_, ok := ReconstructEphID(shares[:2], id.Digest)
	require.False(t, ok)
}
