package database

import (
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/dreamware/medrec/internal/storage"
)

// OperationStats counts database calls since the Database was created
type OperationStats struct {
	Reads    uint64 // lookups by key
	Writes   uint64 // accepted mutations
	Rejected uint64 // mutations refused with an error
	Commits  uint64 // snapshots written
}

// Stats combines operation counters, record counts and storage usage
type Stats struct {
	Ops     OperationStats
	Records RecordCounts
	Storage storage.StoreStats
}

// RecordCounts is the number of records held by each structure
type RecordCounts struct {
	Users         int
	Clinics       int
	DoctorsLists  int
	Prescriptions int
	Drugs         int
	DrugGroups    int
	Ambulances    int
	Locations     int
	Roads         int
}

func incr(counter *uint64) {
	atomic.AddUint64(counter, 1)
}

// Stats returns a snapshot of the counters. Storage usage is left zero when
// the database has no store or the store cannot report it.
func (db *Database) Stats() Stats {
	stats := Stats{
		Ops: OperationStats{
			Reads:    atomic.LoadUint64(&db.ops.Reads),
			Writes:   atomic.LoadUint64(&db.ops.Writes),
			Rejected: atomic.LoadUint64(&db.ops.Rejected),
			Commits:  atomic.LoadUint64(&db.ops.Commits),
		},
		Records: RecordCounts{
			Users:         db.users.Len(),
			Clinics:       db.clinics.Len(),
			DoctorsLists:  db.doctors.Len(),
			Prescriptions: db.prescriptions.Len(),
			Drugs:         db.drugs.Len(),
			DrugGroups:    db.drugGroups.Len(),
			Ambulances:    db.ambulances.Len(),
			Locations:     db.cityMap.Len(),
			Roads:         db.cityMap.EdgeCount(),
		},
	}
	if db.store != nil {
		s, err := db.store.Stats()
		if err != nil {
			log.WithError(err).Warn("storage stats unavailable")
		}
		stats.Storage = s
	}
	return stats
}
