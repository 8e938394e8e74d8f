package node

import (
	"go.dedis.ch/dimy/cryptosubstrate"
	"go.dedis.ch/dimy/internal/colorlog"
	"go.dedis.ch/dimy/scheduler"
)

// ephIDGen is the §4.4 EphID generator tick: mint a fresh keypair, split
// it into ShareN shares with threshold ShareK, enqueue them for
// broadcast, and mark the EphID's hash as our own so we never
// Diffie-Hellman with ourselves.
func (n *Node) ephIDGen(s *scheduler.Scheduler) {
	s.Enter(s.Clock().TimeUntilNextMultiple(EphIDTime), priorityDefault, n.ephIDGen)

	priv, id := cryptosubstrate.GenerateEphID()
	shares, err := cryptosubstrate.SplitEphID(ShareK, ShareN, id)
	if err != nil {
		// Fixed (ShareK, ShareN, 32-byte public) always satisfies
		// Split's preconditions; a failure here is a programming error.
		panic(err)
	}
	for _, share := range shares {
		n.ephQueue = append(n.ephQueue, pendingShare{share: share, secret: priv, hash: id.Digest})
	}
	n.ownShares[id.Digest] = struct{}{}

	colorlog.Event(" ", "Generated:", colorlog.C(hexPrefix(id.Digest), "BLUE"), "with", colorlog.C(uitoa(ShareN), "MAGENTA"), "shares")
}
