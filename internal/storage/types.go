package storage

// BestKnownCache persists, across runs, the best solution size the
// upload aggregator has received from the server for an instance digest.
// The aggregator only writes to it: it is not read back when the run is
// offline or the server is unreachable.
type BestKnownCache interface {
	// Init creates the schema if it does not already exist.
	Init() error

	// Close releases the underlying connection.
	Close() error

	// Get returns the best known score for idigest, and whether one is known.
	Get(idigest [16]byte) (uint32, bool, error)

	// Put records score as the best known value for idigest if it improves
	// on (or introduces) the existing entry.
	Put(idigest [16]byte, score uint32) error
}
