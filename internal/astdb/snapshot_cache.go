package astdb

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// cachedUnit is the CBOR-serializable projection of a CompilationUnit's
// columnar arrays, keyed by the BLAKE3 hash of its source bytes. The
// cache lives in memory only; the ledger's SBOM generator keeps one per
// process so that, within a run, a file whose bytes were already
// classified is not tokenized again -- strictly an optimization, not
// part of any invariant in spec.md.
type cachedUnit struct {
	Filename string    `cbor:"filename"`
	Tokens   []Token   `cbor:"tokens"`
	Nodes    []AstNode `cbor:"nodes"`
	Edges    []NodeID  `cbor:"edges"`
	Strings  []string  `cbor:"strings"`
}

// SnapshotCache stores cachedUnit blobs keyed by content hash. It is safe
// for concurrent use.
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewSnapshotCache returns an empty cache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{entries: make(map[string][]byte)}
}

// Store encodes unit's columnar state and associates it with key (the
// caller supplies a content hash, typically BLAKE3 of the source bytes).
func (c *SnapshotCache) Store(key string, unit *CompilationUnit) error {
	cu := cachedUnit{
		Filename: unit.Filename,
		Tokens:   unit.tokens,
		Nodes:    unit.nodes,
		Edges:    unit.edges,
		Strings:  unit.Interner.byText,
	}
	blob, err := cbor.Marshal(cu)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = blob
	return nil
}

// Load returns a committed CompilationUnit rebuilt from the cached blob
// for key, or (nil, false) on a miss.
func (c *SnapshotCache) Load(id UnitID, key string) (*CompilationUnit, bool) {
	c.mu.RLock()
	blob, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	var cu cachedUnit
	if err := cbor.Unmarshal(blob, &cu); err != nil {
		return nil, false
	}
	unit := newCompilationUnit(id, cu.Filename, nil)
	unit.tokens = cu.Tokens
	unit.nodes = cu.Nodes
	unit.edges = cu.Edges
	for _, s := range cu.Strings {
		unit.Interner.Intern(s)
	}
	unit.commit()
	return unit, true
}
