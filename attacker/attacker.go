// Package attacker implements the §6 linkability sniffer: a passive
// listener on the protocol's well-known broadcast ports that correlates
// observed share hashes with source addresses to de-anonymize nodes across
// locations, without ever reconstructing an EphID itself. adapted from
// _examples/original_source/Attacker.py and
// _examples/dedis-student_18_decenar/lib/colors.go's logging idiom, via
// go.dedis.ch/dimy/internal/colorlog.
package attacker

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"

	"go.dedis.ch/dimy/internal/colorlog"
	"go.dedis.ch/dimy/wire"
)

// Locations are the fixed ports the attacker sniffs, matching the
// protocol's well-known broadcast ports.
var Locations = []int{50050, 50100, 60060}

// trackedNode is one inferred identity: the set of (address) observations
// and share hashes the attacker has linked to it so far.
type trackedNode struct {
	id     string
	addrs  map[string]struct{}
	hashes map[[32]byte]struct{}
}

// Sniffer correlates broadcast shares across listen ports into inferred
// per-node identities, per §6's dual correlation rule: same source address
// implies the same node, and so does a previously seen hash reappearing at
// a new address.
type Sniffer struct {
	mu      sync.Mutex
	tracker []*trackedNode
	nextID  int
}

// New creates an empty Sniffer.
func New() *Sniffer {
	return &Sniffer{}
}

// findNode implements Attacker.py's find_node: locate the tracked node
// whose address set already contains addr, or whose hash set already
// contains hash, recording the new observation in place; otherwise start
// tracking a freshly synthesized node id.
func (s *Sniffer) findNode(hash [32]byte, addr string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, node := range s.tracker {
		if _, ok := node.addrs[addr]; ok {
			node.hashes[hash] = struct{}{}
			return node.id
		}
		if _, ok := node.hashes[hash]; ok {
			node.addrs[addr] = struct{}{}
			return node.id
		}
	}

	s.nextID++
	node := &trackedNode{
		id:     fmt.Sprintf("Node %d", s.nextID),
		addrs:  map[string]struct{}{addr: {}},
		hashes: map[[32]byte]struct{}{hash: {}},
	}
	s.tracker = append(s.tracker, node)
	return node.id
}

// Listen opens a UDP socket on every port in Locations and sniffs each one
// in its own goroutine until ctx is cancelled.
func (s *Sniffer) Listen(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, port := range Locations {
		conn, err := bindSniffPort(port)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func(conn *net.UDPConn) {
			defer wg.Done()
			s.sniff(ctx, conn)
		}(conn)
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

// sniff loops reading packets from conn until ctx is cancelled, feeding
// each into the correlator.
func (s *Sniffer) sniff(ctx context.Context, conn *net.UDPConn) {
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, wire.PacketSize+1)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		pkt, err := wire.Decode(buf[:n])
		if err != nil {
			continue
		}
		s.handle(pkt, addr.String())
	}
}

func (s *Sniffer) handle(pkt wire.Packet, addr string) {
	colorlog.Event("", "Received (", colorlog.C(itoa(int(pkt.Idx)), "MAGENTA"), ", ", colorlog.C(hexPrefix(pkt.Hash), "BLUE"), ") from ", colorlog.C(addr, "CYAN"))
	id := s.findNode(pkt.Hash, addr)
	colorlog.Event(" ", "Associated", colorlog.C(hexPrefix(pkt.Hash), "BLUE"), "with", colorlog.C(id, "RED"))
}

func bindSniffPort(port int) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var ctrlErr error
			err := c.Control(func(fd uintptr) {
				if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
					ctrlErr = err
					return
				}
				if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1); err != nil {
					ctrlErr = err
					return
				}
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

func itoa(v int) string {
	return fmt.Sprintf("%d", v)
}

func hexPrefix(digest [32]byte) string {
	return fmt.Sprintf("%x", digest[:4])
}
