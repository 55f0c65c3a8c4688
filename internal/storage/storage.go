package storage

import (
	"github.com/mapstalk/mapstalk/internal/types"
)

// Storage is the interface for all result sinks. Each run hands the sink
// the complete deduplicated record set; file-backed sinks replace their
// output wholesale rather than merging across runs.
type Storage interface {
	// Store persists the run's records.
	Store(records []types.BusinessRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}
