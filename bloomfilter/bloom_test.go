package bloomfilter

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddContainsNoFalseNegative(t *testing.T) {
	f := New()
	keys := []*big.Int{big.NewInt(1), big.NewInt(42), big.NewInt(1 << 40)}
	for _, k := range keys {
		f.Add(k)
	}
	for _, k := range keys {
		require.True(t, f.Contains(k))
	}
}

func TestUnionAbsorbsMembership(t *testing.T) {
	a := New()
	b := New()
	ka := big.NewInt(111)
	kb := big.NewInt(222)
	a.Add(ka)
	b.Add(kb)

	union, err := a.Union(b)
	require.NoError(t, err)
	require.True(t, union.Contains(ka))
	require.True(t, union.Contains(kb))
}

func TestIntersectOnlyCommonKeys(t *testing.T) {
	a := New()
	b := New()
	shared := big.NewInt(999)
	a.Add(shared)
	b.Add(shared)
	a.Add(big.NewInt(1))

	inter, err := a.Intersect(b)
	require.NoError(t, err)
	require.True(t, inter.Contains(shared))
}

func TestBytesRoundTrip(t *testing.T) {
	f := New()
	f.Add(big.NewInt(7))
	data := f.Bytes()
	require.Len(t, data, FilterSize)

	g, err := FromBytes(data)
	require.NoError(t, err)
	require.True(t, g.Contains(big.NewInt(7)))
	require.Equal(t, data, g.Bytes())
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	_, err := FromBytes(make([]byte, 10))
	require.Error(t, err)
}

func TestPopcountCountsSetBits(t *testing.T) {
	f := New()
	require.Equal(t, 0, f.Popcount())
	f.Add(big.NewInt(1))
	// HashRounds independent bits, extremely unlikely to collide.
	require.True(t, f.Popcount() > 0 && f.Popcount() <= HashRounds)
}

func TestBackendMatchCrossesThreshold(t *testing.T) {
	server := New()
	encounters := []*big.Int{big.NewInt(10), big.NewInt(20), big.NewInt(30)}
	for _, e := range encounters {
		server.Add(e)
	}

	query := New()
	query.Add(encounters[0])

	inter, err := server.Intersect(query)
	require.NoError(t, err)
	require.GreaterOrEqual(t, inter.Popcount(), HashRounds)
}
