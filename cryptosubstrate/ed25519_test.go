package cryptosubstrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	for i := 0; i < 20; i++ {
		_, pub := GenerateKeypair()
		p, err := Decompress(pub)
		require.NoError(t, err)
		require.Equal(t, pub, Compress(p))
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	// y = 2 (encoded as 2 << 1, x sign bit clear) has no square root for
	// x, so no curve point carries it.
	var garbage [32]byte
	garbage[0] = 2 << 1
	_, err := Decompress(garbage)
	require.Error(t, err)
}

func TestDHSymmetry(t *testing.T) {
	aPriv, aPub := GenerateKeypair()
	bPriv, bPub := GenerateKeypair()

	xAB, err := SharedX(bPub, aPriv)
	require.NoError(t, err)
	xBA, err := SharedX(aPub, bPriv)
	require.NoError(t, err)

	require.Equal(t, 0, xAB.Cmp(xBA))
}

func TestEphIDDigestStable(t *testing.T) {
	_, id := GenerateEphID()
	require.Equal(t, Digest(id.Public), id.Digest)
}
