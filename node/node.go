// Package node implements the per-node cooperative scheduler and state
// machine described in §4 and §5: EphID generation, share broadcast with
// loss, share reassembly, DH key agreement and the rolling DBF/QBF/CBF
// pipeline, all driven by a single-threaded scheduler executing a looping
// command script. adapted from
// _examples/original_source/client.py's Client class and
// _examples/dedis-student_18_decenar/protocol/consensus_structured.go's
// single-state-machine style (no goroutines touching shared state).
package node

import (
	"math/rand"
	"net"

	"go.dedis.ch/kyber/v3"

	"go.dedis.ch/dimy/clock"
	"go.dedis.ch/dimy/cryptosubstrate"
	"go.dedis.ch/dimy/internal/colorlog"
	"go.dedis.ch/dimy/scheduler"
	"go.dedis.ch/dimy/wire"
)

// pendingShare is one queued (share, secret, hash) tuple awaiting
// broadcast, produced by the EphID generator and drained by the
// broadcaster.
type pendingShare struct {
	share  cryptosubstrate.Share
	secret kyber.Scalar
	hash   [32]byte
}

// shareEntry is the ShareTable's per-hash bookkeeping: when the first
// share for this hash arrived, and the shares collected so far.
type shareEntry struct {
	firstSeen float64
	shares    []cryptosubstrate.Share
}

// Node is a single DIMY participant: it owns the scheduler, the UDP
// broadcast socket, the share table, the DBF/QBF/CBF pipeline and the
// command interpreter driving all of it.
type Node struct {
	backendAddr string
	clock       *clock.Clock
	sched       *scheduler.Scheduler
	rng         *rand.Rand

	conn     *net.UDPConn
	location uint16

	ephQueue []pendingShare

	ownShares  map[[32]byte]struct{}
	shareTable map[[32]byte]*shareEntry
	lastSecret kyber.Scalar

	dbf *dbfPipeline

	waitTime float64
	dropProb float64

	commands []Command
	cmdIndex int
}

// Option configures a Node at construction time.
type Option func(*Node)

// WithShareDrop overrides the default share-drop probability.
func WithShareDrop(p float64) Option {
	return func(n *Node) { n.dropProb = p }
}

// WithClock overrides the clock a Node uses; if omitted, one is built
// from TIME_SCALE.
func WithClock(c *clock.Clock) Option {
	return func(n *Node) { n.clock = c }
}

// New creates a Node that will upload filters to backendAddr.
func New(backendAddr string, opts ...Option) *Node {
	n := &Node{
		backendAddr: backendAddr,
		ownShares:   make(map[[32]byte]struct{}),
		shareTable:  make(map[[32]byte]*shareEntry),
		dropProb:    DefaultShareDrop,
		rng:         rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.clock == nil {
		n.clock = clock.NewFromEnv()
	}
	n.sched = scheduler.New(n.clock)
	n.dbf = newDBFPipeline(backendAddr)
	return n
}

// Run loads the command script at path and runs the scheduler until a
// STOP command or the script's scheduled work otherwise unwinds it.
// Returns scheduler.ErrStop on a clean stop.
func (n *Node) Run(commandPath string) error {
	cmds, err := ParseScript(commandPath)
	if err != nil {
		return err
	}
	if len(cmds) == 0 || cmds[0].Kind != CmdMove {
		return ErrScriptMustStartWithMove
	}
	n.commands = cmds

	n.sched.Enter(0, priorityDefault, n.runNextCommand)
	return n.sched.Run()
}

// runNextCommand executes the next command in the (looping) script, per
// §4.9.
func (n *Node) runNextCommand(s *scheduler.Scheduler) {
	cmd := n.commands[n.cmdIndex%len(n.commands)]
	n.cmdIndex++

	switch cmd.Kind {
	case CmdStop:
		colorlog.Event(" ", "Stopping")
		s.Stop()

	case CmdMove:
		s.Enter(0, priorityDefault, n.runNextCommand)
		if err := n.cmdMove(cmd.Port); err != nil {
			colorlog.Event(" ", colorlog.C("Bind failure: "+err.Error(), "RED"))
			s.Stop()
			return
		}
		colorlog.Event(" ", "Moved to", colorlog.C(uitoa(uint(cmd.Port)), "GREEN"))

	case CmdWait:
		n.waitTime += cmd.Seconds
		s.EnterAbs(n.waitTime, priorityDefault, n.runNextCommand)
		colorlog.Event(" ", "Waiting", colorlog.C(ftoa(cmd.Seconds), "RED"), "seconds")

	case CmdPositive:
		s.Enter(0, priorityDefault, n.runNextCommand)
		colorlog.Event(" ", "Diagnosed", colorlog.C("positive", "RED"), "for", colorlog.C(uitoa(uint(cmd.Period)), "RED"), "seconds")
		n.cmdPositive(cmd.Period)
	}
}

// cmdMove rebinds the listen/broadcast socket to the given port and, on
// the very first MOVE, kicks off the generator/broadcaster/listener/DBF
// timers the way client.py's start() does right after its first
// eph_gen().
func (n *Node) cmdMove(port int) error {
	first := n.conn == nil

	conn, err := bindLocation(uint16(port))
	if err != nil {
		return err
	}
	if n.conn != nil {
		n.conn.Close()
	}
	n.conn = conn
	n.location = uint16(port)

	if first {
		n.ephIDGen(n.sched)
		n.sched.Enter(n.sched.Clock().TimeUntilNextMultiple(ShareTime), priorityDefault, n.ephShare)
		n.sched.Enter(n.sched.Clock().TimeUntilNextMultiple(EphIDTime), priorityDefault, n.shareClean)
		n.sched.Enter(listenPollInterval, priorityDefault, n.listen)
		n.dbf.schedule(n.sched)
	}
	return nil
}

// cmdPositive handles the POSITIVE command: upload the current combined
// filter as a CBF immediately, flip is_cbf, and schedule the undo.
func (n *Node) cmdPositive(period int) {
	n.dbf.isCBF = true
	combined := n.dbf.combined()
	n.dbf.contactBackend(wire.TypeCBF, combined)

	undoAt := n.waitTime + float64(period)
	n.sched.EnterAbs(undoAt, priorityDefault, func(s *scheduler.Scheduler) {
		n.dbf.isCBF = false
		colorlog.Event(" ", "No longer considered", colorlog.C("positive", "GREEN"))
	})
}
