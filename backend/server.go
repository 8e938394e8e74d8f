// Package backend implements the §4.8 matcher: a TCP server that unions
// uploaded Contact Bloom Filters into a standing filter and answers Query
// Bloom Filter match requests against it. adapted from
// _examples/original_source/backend.py/DimyServer.py and
// _examples/dedis-student_18_decenar/lib/bloom.go's preference for
// explicit, non-reflective wire framing.
package backend

import (
	"net"
	"sync"

	"go.dedis.ch/dimy/bloomfilter"
	"go.dedis.ch/dimy/internal/colorlog"
	"go.dedis.ch/dimy/wire"
)

const (
	respCBFReceived = "Server: Contact Bloom Filter received."
	respPositive    = "Server: You have been in contact with a positive case."
	respNoDetection = "Server: No contact with a positive case was detected."
)

// Server is the backend matcher. Its standing filter is the sole shared
// mutable resource across concurrently accepted connections, per §5, and
// is guarded by mu.
type Server struct {
	mu   sync.Mutex
	std  *bloomfilter.Filter
	port int
}

// New creates a backend listening on port once Start is called.
func New(port int) *Server {
	return &Server{std: bloomfilter.New(), port: port}
}

// Start accepts connections forever, spawning one goroutine per
// connection (§4.8/§5: "a multi-accept design is acceptable provided
// writes to the standing filter are serialised").
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", addrForPort(s.port))
	if err != nil {
		return err
	}
	defer ln.Close()
	colorlog.Event(" ", "Server started on port", colorlog.C(portString(s.port), "GREEN"))
	return s.Serve(ln)
}

// Serve accepts connections on an already-bound listener forever. Tests
// use this to run a backend on an ephemeral port.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	typ, filter, err := wire.ReadUpload(conn)
	if err != nil {
		// WireTooShort/BadTypeTag: close without replying, per §7.
		return
	}

	addr := conn.RemoteAddr().String()
	switch typ {
	case wire.TypeCBF:
		s.mu.Lock()
		s.std, err = s.std.Union(filter)
		s.mu.Unlock()
		if err != nil {
			// ParameterMismatch is fatal per §7; canonical filters from
			// ReadUpload never trigger it in practice.
			panic(err)
		}
		conn.Write([]byte(respCBFReceived))
		colorlog.Event(" ", "Contact Bloom Filter received from", colorlog.C(addr, "BLUE"))

	case wire.TypeQBF:
		colorlog.Event(" ", "Doing match analysis on Query Bloom Filter from", colorlog.C(addr, "BLUE"))
		s.mu.Lock()
		inter, err := s.std.Intersect(filter)
		s.mu.Unlock()
		if err != nil {
			panic(err)
		}
		if inter.Popcount() >= bloomfilter.HashRounds {
			conn.Write([]byte(respPositive))
			colorlog.Event(" ", "Node at ", colorlog.C(addr, "BLUE"), " has been in contact with a ", colorlog.C("positive", "RED"), " case.")
		} else {
			conn.Write([]byte(respNoDetection))
			colorlog.Event(" ", "Node at ", colorlog.C(addr, "BLUE"), " has ", colorlog.C("no detection", "GREEN"), ".")
		}
	}
}

func addrForPort(port int) string {
	return ":" + portString(port)
}

func portString(port int) string {
	if port == 0 {
		return "0"
	}
	neg := port < 0
	if neg {
		port = -port
	}
	var buf [12]byte
	i := len(buf)
	for port > 0 {
		i--
		buf[i] = byte('0' + port%10)
		port /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
