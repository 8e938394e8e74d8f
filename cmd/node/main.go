// Command node runs a single DIMY participant, loading its movement and
// diagnosis schedule from a command file, per §4.9. adapted from
// _examples/original_source/client.py's __main__ block, which takes its
// server address and command file the same way: fixed positional
// arguments, no flag parsing.
package main

import (
	"errors"
	"fmt"
	"os"

	"go.dedis.ch/dimy/internal/colorlog"
	"go.dedis.ch/dimy/node"
	"go.dedis.ch/dimy/scheduler"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: node <server_ip> <server_port> <command_file_path>")
		os.Exit(1)
	}

	backendAddr := os.Args[1] + ":" + os.Args[2]
	scriptPath := os.Args[3]

	n := node.New(backendAddr)
	err := n.Run(scriptPath)
	if err != nil && !errors.Is(err, scheduler.ErrStop) {
		colorlog.Event(" ", colorlog.C("Exiting: "+err.Error(), "RED"))
		os.Exit(1)
	}
}
