package astdb

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Snapshot is an immutable, reference-counted view over one
// CompilationUnit. Taking a snapshot guarantees the underlying arena
// (and therefore every interned string, token and node) outlives the
// snapshot, even if the DB goes on to add more units.
//
// Snapshot is a thin value type; Release must be called exactly once
// per Snapshot obtained from DB.CreateSnapshot to let the DB eventually
// reclaim a unit with no outstanding snapshots.
type Snapshot struct {
	db       *DB
	unit     *CompilationUnit
	root     NodeID
	released atomic.Bool
}

// Unit returns the underlying compilation unit. The returned pointer is
// read-only by convention once committed; writes would panic (§3.1).
func (s *Snapshot) Unit() *CompilationUnit {
	return s.unit
}

// Root returns the snapshot's root node id, i.e. the source_file node.
func (s *Snapshot) Root() (NodeID, bool) {
	if s.root == InvalidNodeID {
		return InvalidNodeID, false
	}
	return s.root, true
}

// Release drops this snapshot's hold on the unit. Safe to call more than
// once; only the first call has an effect.
func (s *Snapshot) Release() {
	if s.released.CompareAndSwap(false, true) {
		s.db.releaseSnapshot(s.unit.ID)
	}
}

// Dump renders the node tree under id as an indented S-expression, for
// debugging and test fixtures only -- it is not part of any invariant.
func (s *Snapshot) Dump(id NodeID) string {
	var b strings.Builder
	s.dump(&b, id, 0)
	return b.String()
}

func (s *Snapshot) dump(b *strings.Builder, id NodeID, depth int) {
	node, ok := s.unit.GetNode(id)
	if !ok {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("<invalid>\n")
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(b, "(%s", node.Kind)
	if text := s.nodeText(node); text != "" {
		fmt.Fprintf(b, " %q", text)
	}
	b.WriteString(")\n")
	for _, child := range s.unit.Children(node.ChildLo, node.ChildHi) {
		s.dump(b, child, depth+1)
	}
}

func (s *Snapshot) nodeText(node AstNode) string {
	switch node.Kind {
	case NodeIdentExpr, NodeIntLiteral, NodeFloatLiteral, NodeStringLiteral:
		tok := s.unit.Token(node.FirstToken)
		text, _ := s.unit.Interner.Lookup(tok.StrID)
		return text
	default:
		return ""
	}
}
