package astdb

import (
	"sync"

	"go.uber.org/zap"
)

// DB owns every CompilationUnit created for a build. It exclusively owns
// units; Snapshots share ownership through a reference count so the
// longest-lived snapshot keeps a unit's arena alive even after the DB
// itself would otherwise consider the unit eligible for release (§4.3).
type DB struct {
	log *zap.Logger

	mu    sync.Mutex
	units []*CompilationUnit
	refs  []int32 // refs[i] is the outstanding snapshot count for units[i]
}

// New returns an empty ASTDB.
func New(log *zap.Logger) *DB {
	if log == nil {
		log = zap.NewNop()
	}
	return &DB{log: log}
}

// AddUnit allocates a new unit, installs the source bytes, and returns
// its id. The unit is mutable (via GetUnit) until a Snapshot is taken.
func (db *DB) AddUnit(filename string, source []byte) UnitID {
	db.mu.Lock()
	defer db.mu.Unlock()

	id := UnitID(len(db.units))
	db.units = append(db.units, newCompilationUnit(id, filename, source))
	db.refs = append(db.refs, 0)
	db.log.Debug("astdb: unit added", zap.String("filename", filename), zap.Uint32("unit", uint32(id)))
	return id
}

// GetUnit returns the mutable unit for id, for the parser to populate.
// Consumers that only read should go through a Snapshot instead.
func (db *DB) GetUnit(id UnitID) *CompilationUnit {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.units[id]
}

// CreateSnapshot freezes unit id's arrays (if not already frozen) and
// returns an immutable, reference-counted view over it. Callers see a
// stable view even as new units are added to the DB afterward.
func (db *DB) CreateSnapshot(id UnitID) Snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()

	unit := db.units[id]
	unit.commit()
	db.refs[id]++

	root, _ := unit.RootNode()
	return Snapshot{
		db:   db,
		unit: unit,
		root: root,
	}
}

func (db *DB) releaseSnapshot(id UnitID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if int(id) < len(db.refs) && db.refs[id] > 0 {
		db.refs[id]--
	}
}

// NodeCount returns the node count of unit id.
func (db *DB) NodeCount(id UnitID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.units[id].NodeCount()
}

// UnitCount reports how many units have been added.
func (db *DB) UnitCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.units)
}
