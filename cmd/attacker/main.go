// Command attacker runs the §6 linkability sniffer against the protocol's
// fixed broadcast ports, or an optional explicit override list. adapted
// from _examples/original_source/Attacker.py's __main__ block, which
// listens on its hardcoded locations until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.dedis.ch/dimy/attacker"
	"go.dedis.ch/dimy/internal/colorlog"
)

func main() {
	s := attacker.New()

	if len(os.Args) > 1 {
		ports := make([]int, 0, len(os.Args)-1)
		for _, raw := range os.Args[1:] {
			p, err := strconv.Atoi(raw)
			if err != nil {
				fmt.Fprintln(os.Stderr, "attacker: bad port:", raw)
				os.Exit(1)
			}
			ports = append(ports, p)
		}
		attacker.Locations = ports
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := s.Listen(ctx); err != nil {
		colorlog.Event(" ", colorlog.C("attacker: "+err.Error(), "RED"))
		os.Exit(1)
	}
	colorlog.Event(" ", "Stopping")
}
