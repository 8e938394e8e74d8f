package node

// Timing and threshold constants from §3/§4, matching
// _examples/original_source/client.py's module-level constants
// one-for-one.
const (
	// EphIDTime is the interval between generating a new EphID.
	EphIDTime = 15.0
	// ShareK is the number of shares required to reconstruct an EphID.
	ShareK = 3
	// ShareN is the number of shares an EphID is split into.
	ShareN = 5
	// ShareTime is the interval between broadcasting successive shares.
	ShareTime = 3.0
	// DefaultShareDrop is the default probability of silently dropping
	// a share at broadcast time.
	DefaultShareDrop = 0.5
	// ShareCleanTime is how long a share-table entry may live before
	// being discarded, 2*N*ShareTime.
	ShareCleanTime = 2 * ShareN * ShareTime
	// DBFTime is how often DBFs are cycled.
	DBFTime = 90.0
	// DBFLife is how long a DBF lives before eviction, a multiple of
	// DBFTime.
	DBFLife = 540.0
	// QBFTime is how often a QBF (or CBF, while positive) is built and
	// uploaded.
	QBFTime = 540.0
	// listenPollInterval is the listener's non-blocking poll period,
	// 10 Hz (max throughput 10 shares/s).
	listenPollInterval = 0.1

	// priorityQBF/priorityDBFCycle encode §4.7's scheduling rule: QBF
	// construction must win over DBF cycling when both are due at the
	// same instant (lower runs first).
	priorityQBF      = 1
	priorityDBFCycle = 2
	priorityDefault  = 1
)

// dbfRingCapacity is ⌈DBF_LIFE/DBF_TIME⌉ + 1, the +1 absorbing the race
// between qbf_create and dbf_cycle at the same instant (§9).
func dbfRingCapacity() int {
	n := int(DBFLife / DBFTime)
	if DBFLife > float64(n)*DBFTime {
		n++
	}
	return n + 1
}
