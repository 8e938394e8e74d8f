package node

import (
	"math/big"

	"go.dedis.ch/dimy/bloomfilter"
	"go.dedis.ch/dimy/internal/colorlog"
	"go.dedis.ch/dimy/scheduler"
	"go.dedis.ch/dimy/wire"
)

// dbfPipeline holds the rolling ring of Daily Bloom Filters and drives
// the periodic QBF/CBF construction and upload, per §4.7. adapted from
// _examples/original_source/client.py's DBFContainer.
type dbfPipeline struct {
	backendAddr string
	ring        []*bloomfilter.Filter // oldest first, newest at the tail
	capacity    int
	isCBF       bool
}

func newDBFPipeline(backendAddr string) *dbfPipeline {
	return &dbfPipeline{
		backendAddr: backendAddr,
		ring:        []*bloomfilter.Filter{bloomfilter.New()},
		capacity:    dbfRingCapacity(),
	}
}

// schedule installs the recurring qbf_create (priority 1) and dbf_cycle
// (priority 2) ticks, aligned to the clock's grid lines.
func (d *dbfPipeline) schedule(s *scheduler.Scheduler) {
	s.Enter(s.Clock().TimeUntilNextMultiple(QBFTime), priorityQBF, d.qbfCreate)
	s.Enter(s.Clock().TimeUntilNextMultiple(DBFTime), priorityDBFCycle, d.dbfCycle)
}

// combined returns the union of every DBF currently in the ring.
func (d *dbfPipeline) combined() *bloomfilter.Filter {
	out := bloomfilter.New()
	for _, f := range d.ring {
		var err error
		out, err = out.Union(f)
		if err != nil {
			// All ring members share fixed canonical parameters; a
			// mismatch here is the programming error §7 calls fatal.
			panic(err)
		}
	}
	return out
}

// add inserts encID into the newest (active) DBF.
func (d *dbfPipeline) add(encID *big.Int) {
	d.ring[len(d.ring)-1].Add(encID)
}

func (d *dbfPipeline) qbfCreate(s *scheduler.Scheduler) {
	s.Enter(s.Clock().TimeUntilNextMultiple(QBFTime), priorityQBF, d.qbfCreate)

	combined := d.combined()
	if !d.isCBF {
		colorlog.Event(" ", "Created QBF")
		d.contactBackend(wire.TypeQBF, combined)
	} else {
		colorlog.Event(" ", "Created CBF")
		d.contactBackend(wire.TypeCBF, combined)
	}
}

func (d *dbfPipeline) dbfCycle(s *scheduler.Scheduler) {
	s.Enter(s.Clock().TimeUntilNextMultiple(DBFTime), priorityDBFCycle, d.dbfCycle)

	d.ring = append(d.ring, bloomfilter.New())
	if len(d.ring) > d.capacity {
		d.ring = d.ring[len(d.ring)-d.capacity:]
	}
	colorlog.Event(" ", "Created new DBF")
}

// contactBackend uploads typ's filter to the backend and logs the
// response. A connect/upload failure is logged and the cycle is skipped,
// per §7's ConnectFailure policy: rely on the next periodic tick.
func (d *dbfPipeline) contactBackend(typ wire.UploadType, filter *bloomfilter.Filter) {
	resp, err := wire.Upload(d.backendAddr, typ, filter)
	if err != nil {
		colorlog.Event(" ", "Upload failed:", colorlog.C(err.Error(), "RED"))
		return
	}
	colorlog.Event(" ", colorlog.C(resp, "YELLOW", "UNDERLINE"))
}
