package backend

import (
	"math/big"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"go.dedis.ch/dimy/bloomfilter"
	"go.dedis.ch/dimy/wire"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := New(0)
	go func() {
		_ = s.Serve(ln)
	}()
	t.Cleanup(func() { ln.Close() })
	return s, ln.Addr().String()
}

func TestCBFUploadThenPositiveMatch(t *testing.T) {
	_, addr := startTestServer(t)

	cbf := bloomfilter.New()
	cbf.Add(big.NewInt(1001))
	resp, err := wire.Upload(addr, wire.TypeCBF, cbf)
	require.NoError(t, err)
	require.Equal(t, respCBFReceived, resp)

	qbf := bloomfilter.New()
	qbf.Add(big.NewInt(1001))
	resp, err = wire.Upload(addr, wire.TypeQBF, qbf)
	require.NoError(t, err)
	require.Equal(t, respPositive, resp)
}

func TestQBFNoOverlapReturnsNoDetection(t *testing.T) {
	_, addr := startTestServer(t)

	cbf := bloomfilter.New()
	cbf.Add(big.NewInt(2002))
	_, err := wire.Upload(addr, wire.TypeCBF, cbf)
	require.NoError(t, err)

	qbf := bloomfilter.New()
	qbf.Add(big.NewInt(3003))
	resp, err := wire.Upload(addr, wire.TypeQBF, qbf)
	require.NoError(t, err)
	require.Equal(t, respNoDetection, resp)
}

func TestBadTagClosesWithoutReply(t *testing.T) {
	_, addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("XYZ"))
	require.NoError(t, err)
	_, err = conn.Write(make([]byte, bloomfilter.FilterSize))
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	require.True(t, n == 0 || err != nil)
}
