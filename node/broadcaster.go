package node

import (
	"net"

	"go.dedis.ch/dimy/internal/colorlog"
	"go.dedis.ch/dimy/scheduler"
	"go.dedis.ch/dimy/wire"
)

// ephShare is the §4.5 share broadcaster tick: dequeue one pending share
// and, unless the drop roll succeeds, send it as a UDP broadcast
// datagram. If the queue is empty this tick is skipped.
func (n *Node) ephShare(s *scheduler.Scheduler) {
	s.Enter(s.Clock().TimeUntilNextMultiple(ShareTime), priorityDefault, n.ephShare)

	if len(n.ephQueue) == 0 {
		return
	}
	next := n.ephQueue[0]
	n.ephQueue = n.ephQueue[1:]

	if n.rng.Float64() < n.dropProb {
		colorlog.Event(" ", "Dropped: (", colorlog.C(uitoa(uint(next.share.Index)), "MAGENTA"), ", ", colorlog.C(hexPrefix(next.hash), "BLUE"), ")")
		return
	}

	n.lastSecret = next.secret

	pkt := wire.Packet{Idx: uint8(next.share.Index), Hash: next.hash}
	copy(pkt.Share[:], next.share.Payload)
	encoded := pkt.Encode()

	dst, err := net.ResolveUDPAddr("udp4", broadcastAddr(n.location))
	if err != nil {
		colorlog.Event(" ", colorlog.C("broadcast resolve failed: "+err.Error(), "RED"))
		return
	}
	if _, err := n.conn.WriteToUDP(encoded[:], dst); err != nil {
		colorlog.Event(" ", colorlog.C("broadcast send failed: "+err.Error(), "RED"))
		return
	}

	colorlog.Event(" ", "Broadcast to ", colorlog.C(uitoa(uint(n.location)), "GREEN"), ": (", colorlog.C(uitoa(uint(next.share.Index)), "MAGENTA"), ", ", colorlog.C(hexPrefix(next.hash), "BLUE"), ")")
}
