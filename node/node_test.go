package node

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go.dedis.ch/dimy/backend"
	"go.dedis.ch/dimy/clock"
	"go.dedis.ch/dimy/cryptosubstrate"
	"go.dedis.ch/dimy/scheduler"
	"go.dedis.ch/dimy/wire"
)

func newTestNode(backendAddr string) *Node {
	return New(backendAddr, WithClock(clock.New(1e6)))
}

func TestHandlePacketSelfRejection(t *testing.T) {
	n := newTestNode("127.0.0.1:0")
	n.ephIDGen(n.sched)

	var digest [32]byte
	for d := range n.ownShares {
		digest = d
	}
	n.handlePacket(wire.Packet{Idx: 0, Hash: digest})

	require.NotContains(t, n.shareTable, digest)
}

// TestReassemblyProducesEncID mirrors one side of a two-node encounter: a
// peer's EphID shares are fed directly into handlePacket (bypassing UDP),
// and once enough arrive the receiving node must derive the same EncID a
// direct Diffie-Hellman computation would produce, and fold it into its
// active DBF.
func TestReassemblyProducesEncID(t *testing.T) {
	peerPriv, peerID := cryptosubstrate.GenerateEphID()
	shares, err := cryptosubstrate.SplitEphID(ShareK, ShareN, peerID)
	require.NoError(t, err)

	receiver := newTestNode("127.0.0.1:0")
	ownPriv, _ := cryptosubstrate.GenerateKeypair()
	receiver.lastSecret = ownPriv

	for i := 0; i < ShareK; i++ {
		pkt := wire.Packet{Idx: uint8(shares[i].Index), Hash: peerID.Digest}
		copy(pkt.Share[:], shares[i].Payload)
		receiver.handlePacket(pkt)
	}

	wantEncID, err := cryptosubstrate.SharedX(peerID.Public, ownPriv)
	require.NoError(t, err)
	require.True(t, receiver.dbf.combined().Contains(wantEncID))

	// The peer's own secret never enters the receiver; sanity-check it
	// differs from ownPriv so the test isn't vacuously true.
	require.NotEqual(t, peerPriv.String(), ownPriv.String())
}

func TestReassemblyWithoutOwnBroadcastIsDeferred(t *testing.T) {
	_, peerID := cryptosubstrate.GenerateEphID()
	shares, err := cryptosubstrate.SplitEphID(ShareK, ShareN, peerID)
	require.NoError(t, err)

	receiver := newTestNode("127.0.0.1:0")
	for i := 0; i < ShareK; i++ {
		pkt := wire.Packet{Idx: uint8(shares[i].Index), Hash: peerID.Digest}
		copy(pkt.Share[:], shares[i].Payload)
		receiver.handlePacket(pkt)
	}

	require.Equal(t, 0, receiver.dbf.combined().Popcount())
}

func TestShareCleanupExpiry(t *testing.T) {
	n := newTestNode("127.0.0.1:0")
	var hash [32]byte
	hash[0] = 0xAB
	n.shareTable[hash] = &shareEntry{firstSeen: n.clock.Now()}

	time.Sleep(2 * time.Millisecond) // scaled clock: >> ShareCleanTime seconds
	n.shareClean(n.sched)

	require.NotContains(t, n.shareTable, hash)
}

func TestShareCleanupKeepsFreshEntries(t *testing.T) {
	n := newTestNode("127.0.0.1:0")
	var hash [32]byte
	hash[0] = 0xCD
	n.shareTable[hash] = &shareEntry{firstSeen: n.clock.Now()}
	n.shareClean(n.sched)

	require.Contains(t, n.shareTable, hash)
}

func TestDBFRingCapacity(t *testing.T) {
	require.Equal(t, 7, dbfRingCapacity())

	d := newDBFPipeline("127.0.0.1:0")
	s := scheduler.New(clock.New(1e6))
	for i := 0; i < 20; i++ {
		d.dbfCycle(s)
	}
	require.LessOrEqual(t, len(d.ring), dbfRingCapacity())
}

// TestEndToEndEncounterMatchesAtBackend simulates one side of two nodes in
// range: alice folds the EncID derived from bob's EphID into her DBF,
// uploads it as a CBF, and a subsequent QBF query carrying the same EncID
// gets a positive match.
func TestEndToEndEncounterMatchesAtBackend(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	srv := backend.New(0)
	go func() { _ = srv.Serve(ln) }()
	addr := ln.Addr().String()

	alicePriv, _ := cryptosubstrate.GenerateEphID()
	_, bobID := cryptosubstrate.GenerateEphID()

	encID, err := cryptosubstrate.SharedX(bobID.Public, alicePriv)
	require.NoError(t, err)

	alice := newTestNode(addr)
	alice.dbf.add(encID)

	resp, err := wire.Upload(addr, wire.TypeCBF, alice.dbf.combined())
	require.NoError(t, err)
	require.Contains(t, resp, "received")

	query := alice.dbf.combined()
	resp, err = wire.Upload(addr, wire.TypeQBF, query)
	require.NoError(t, err)
	require.Contains(t, resp, "positive")
}
