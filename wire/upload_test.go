package wire

import (
	"bytes"
	"math/big"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"go.dedis.ch/dimy/bloomfilter"
)

func TestUploadReadUploadRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		require.NoError(t, err)
		defer conn.Close()

		typ, filter, err := ReadUpload(conn)
		require.NoError(t, err)
		require.Equal(t, TypeCBF, typ)
		require.True(t, filter.Contains(big.NewInt(7)))

		_, _ = conn.Write([]byte("Server: Contact Bloom Filter received."))
	}()

	filter := bloomfilter.New()
	filter.Add(big.NewInt(7))
	resp, err := Upload(ln.Addr().String(), TypeCBF, filter)
	require.NoError(t, err)
	require.Equal(t, "Server: Contact Bloom Filter received.", resp)
	<-done
}

func TestReadUploadRejectsBadTag(t *testing.T) {
	buf := bytes.NewBufferString("XYZ")
	buf.Write(make([]byte, bloomfilter.FilterSize))
	_, _, err := ReadUpload(buf)
	require.ErrorIs(t, err, ErrBadTypeTag)
}

func TestReadUploadRejectsShortRead(t *testing.T) {
	buf := bytes.NewBufferString("CBF")
	buf.Write(make([]byte, 10))
	_, _, err := ReadUpload(buf)
	require.Error(t, err)
}
