package node

import (
	"net"
	"time"

	"go.dedis.ch/dimy/cryptosubstrate"
	"go.dedis.ch/dimy/internal/colorlog"
	"go.dedis.ch/dimy/scheduler"
	"go.dedis.ch/dimy/wire"
)

// pollQuantum bounds how long the listener may block on recvfrom each
// tick, per §5 ("must not block more than a polling quantum, typically
// ≤1 ms").
const pollQuantum = time.Millisecond

// listen is the §4.6 share listener/reassembler tick: poll the UDP
// socket once (non-blocking), and if a frame arrived, fold it into the
// share table and attempt reconstruction.
func (n *Node) listen(s *scheduler.Scheduler) {
	s.Enter(listenPollInterval, priorityDefault, n.listen)

	buf := make([]byte, wire.PacketSize+1)
	if err := n.conn.SetReadDeadline(time.Now().Add(pollQuantum)); err != nil {
		return
	}
	nRead, _, err := n.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return // no share available this tick.
		}
		return
	}
	pkt, err := wire.Decode(buf[:nRead])
	if err != nil {
		return
	}
	n.handlePacket(pkt)
}

// handlePacket implements §4.6 steps 1-3.
func (n *Node) handlePacket(pkt wire.Packet) {
	if _, isOwn := n.ownShares[pkt.Hash]; isOwn {
		return
	}

	entry, ok := n.shareTable[pkt.Hash]
	if !ok {
		entry = &shareEntry{firstSeen: n.clock.Now()}
		n.shareTable[pkt.Hash] = entry
	}
	entry.shares = append(entry.shares, cryptosubstrate.Share{Index: int(pkt.Idx), Payload: pkt.Share[:]})

	colorlog.Event(" ", "Received: (", colorlog.C(uitoa(uint(pkt.Idx)), "MAGENTA"), ", ", colorlog.C(hexPrefix(pkt.Hash), "BLUE"), ")")

	if len(entry.shares) < ShareK {
		return
	}

	id, ok := cryptosubstrate.ReconstructEphID(entry.shares, pkt.Hash)
	if !ok {
		// Discard the attempt; more shares may arrive and succeed later.
		return
	}
	colorlog.Event(" ", "Reconstructed", colorlog.C(hexPrefix(pkt.Hash), "BLUE"))

	if n.lastSecret == nil {
		// Never broadcast a share of our own yet; no DH partner scalar
		// is available. Keep the shares in case a later tick has one.
		return
	}
	encID, err := cryptosubstrate.SharedX(id.Public, n.lastSecret)
	if err != nil {
		return
	}
	n.dbf.add(encID)
	colorlog.Event(" ", "Encoded EncID", colorlog.C(encIDSuffix(encID), "YELLOW"), "into DBF")

	// Clear the collected shares so late duplicates don't retrigger
	// reconstruction inside the SHARE_CLEAN_TIME window; the entry
	// itself is retained.
	entry.shares = entry.shares[:0]
}

// shareClean is the §3 ShareTable cleanup tick: drop entries whose first
// share arrived more than ShareCleanTime ago.
func (n *Node) shareClean(s *scheduler.Scheduler) {
	s.Enter(s.Clock().TimeUntilNextMultiple(EphIDTime), priorityDefault, n.shareClean)

	now := n.clock.Now()
	for hash, entry := range n.shareTable {
		if now-entry.firstSeen > ShareCleanTime {
			colorlog.Event(" ", "Discarded:", colorlog.C(hexPrefix(hash), "BLUE"))
			delete(n.shareTable, hash)
		}
	}
}
