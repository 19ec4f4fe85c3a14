package astdb

import "sync/atomic"

// CompilationUnit owns everything produced while parsing one source
// file: the arena, the string interner, and the columnar token/node/edge
// arrays. Arrays are append-only until a snapshot commits the unit (§3.1
// invariant); attempting to append after commit panics, since it would
// be a programming error inside this package, not a recoverable user
// error.
type CompilationUnit struct {
	ID       UnitID
	Filename string
	Source   []byte

	Arena    *Arena
	Interner *StringInterner

	tokens []Token
	nodes  []AstNode
	edges  []NodeID

	diagnostics []Diagnostic

	committed atomic.Bool
}

func newCompilationUnit(id UnitID, filename string, source []byte) *CompilationUnit {
	return &CompilationUnit{
		ID:       id,
		Filename: filename,
		Source:   source,
		Arena:    NewArena(),
		Interner: NewStringInterner(),
	}
}

// Committed reports whether a snapshot has frozen this unit.
func (u *CompilationUnit) Committed() bool {
	return u.committed.Load()
}

func (u *CompilationUnit) commit() {
	u.committed.Store(true)
}

// PushToken appends a token and returns its id. Panics if the unit is
// already committed.
func (u *CompilationUnit) PushToken(t Token) TokenID {
	u.mustNotBeCommitted()
	id := TokenID(len(u.tokens))
	u.tokens = append(u.tokens, t)
	return id
}

// Token returns the token at id.
func (u *CompilationUnit) Token(id TokenID) Token {
	return u.tokens[id]
}

// TokenCount reports how many tokens have been pushed.
func (u *CompilationUnit) TokenCount() int {
	return len(u.tokens)
}

// PushNode appends a node and returns its id. It does not validate the
// node's child range; the parser, the only writer of this array, takes
// that range from PushEdges.
func (u *CompilationUnit) PushNode(n AstNode) NodeID {
	u.mustNotBeCommitted()
	id := NodeID(len(u.nodes))
	u.nodes = append(u.nodes, n)
	return id
}

// GetNode returns the node at id, or (zero, false) if id is out of
// range. Constant-time by index, per §4.3.
func (u *CompilationUnit) GetNode(id NodeID) (AstNode, bool) {
	if int(id) < 0 || int(id) >= len(u.nodes) {
		return AstNode{}, false
	}
	return u.nodes[id], true
}

// NodeCount is the current length of the node array.
func (u *CompilationUnit) NodeCount() int {
	return len(u.nodes)
}

// PushEdges appends child node ids to the shared edge array and returns
// the [lo, hi) range they occupy.
func (u *CompilationUnit) PushEdges(children []NodeID) (lo, hi uint32) {
	u.mustNotBeCommitted()
	lo = uint32(len(u.edges))
	u.edges = append(u.edges, children...)
	hi = uint32(len(u.edges))
	return lo, hi
}

// Children returns the node ids in [lo, hi) of the edge array.
func (u *CompilationUnit) Children(lo, hi uint32) []NodeID {
	return u.edges[lo:hi]
}

// RootNode returns the last node pushed, which is the source_file root
// once parsing has completed (§3.1 invariant).
func (u *CompilationUnit) RootNode() (NodeID, bool) {
	if len(u.nodes) == 0 {
		return InvalidNodeID, false
	}
	return NodeID(len(u.nodes) - 1), true
}

// AddDiagnostic records a recoverable parse error without aborting.
func (u *CompilationUnit) AddDiagnostic(d Diagnostic) {
	u.diagnostics = append(u.diagnostics, d)
}

// Diagnostics returns every recoverable error recorded while parsing.
func (u *CompilationUnit) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(u.diagnostics))
	copy(out, u.diagnostics)
	return out
}

func (u *CompilationUnit) mustNotBeCommitted() {
	if u.committed.Load() {
		panic("astdb: write to CompilationUnit after snapshot commit")
	}
}
