// Command backend runs the §4.8 TCP matcher, listening on a single fixed
// port for CBF/QBF uploads. adapted from
// _examples/original_source/backend.py's __main__ block.
package main

import (
	"fmt"
	"os"
	"strconv"

	"go.dedis.ch/dimy/backend"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: backend <listen_port>")
		os.Exit(1)
	}

	port, err := strconv.Atoi(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "backend: bad port:", os.Args[1])
		os.Exit(1)
	}

	s := backend.New(port)
	if err := s.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "backend:", err)
		os.Exit(1)
	}
}
