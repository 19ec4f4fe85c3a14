package astdb

// NodeID, TokenID and StrID are opaque 32-bit handles into their
// respective columnar arrays. They are never dereferenced directly;
// callers always go through the owning CompilationUnit or Snapshot.
type (
	NodeID  uint32
	TokenID uint32
	StrID   uint32
	UnitID  uint32
)

// InvalidNodeID / InvalidTokenID / InvalidStrID mark "no value" — e.g. a
// Token with no interned text, or an absent node such as a snapshot with
// no root. A node with no children has an empty child range instead.
const (
	InvalidNodeID  NodeID  = 1<<32 - 1
	InvalidTokenID TokenID = 1<<32 - 1
	InvalidStrID   StrID   = 1<<32 - 1
)
