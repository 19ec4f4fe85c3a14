package astdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, src string) (*CompilationUnit, Snapshot) {
	t.Helper()
	db := New(nil)
	snap, err := ParseSource(db, "fixture.janus", []byte(src), DefaultParserConfig())
	require.NoError(t, err)
	return snap.Unit(), snap
}

// S2: parse "func main() do return 1 end" -> a unit whose root is
// source_file with one func_decl child containing return_stmt{integer_literal}.
func TestParse_FuncMainReturn1(t *testing.T) {
	unit, snap := parseFixture(t, "func main() do return 1 end")

	root, ok := snap.Root()
	require.True(t, ok, "no root node")
	rootNode, _ := unit.GetNode(root)
	require.Equal(t, NodeSourceFile, rootNode.Kind)

	children := unit.Children(rootNode.ChildLo, rootNode.ChildHi)
	require.Len(t, children, 1)

	funcDecl, _ := unit.GetNode(children[0])
	require.Equal(t, NodeFuncDecl, funcDecl.Kind)

	funcChildren := unit.Children(funcDecl.ChildLo, funcDecl.ChildHi)
	// [0] = ident "main", [1] = block
	require.Len(t, funcChildren, 2, "func_decl should have name and block children")
	block, _ := unit.GetNode(funcChildren[1])
	require.Equal(t, NodeBlock, block.Kind)
	blockChildren := unit.Children(block.ChildLo, block.ChildHi)
	require.Len(t, blockChildren, 1, "block should have one return_stmt")
	retStmt, _ := unit.GetNode(blockChildren[0])
	require.Equal(t, NodeReturnStmt, retStmt.Kind)
	retChildren := unit.Children(retStmt.ChildLo, retStmt.ChildHi)
	require.Len(t, retChildren, 1)
	lit, _ := unit.GetNode(retChildren[0])
	assert.Equal(t, NodeIntLiteral, lit.Kind)
}

// Invariant 1 (§8): the root node is the last entry and its
// [child_lo, child_hi) covers exactly the top-level declarations in
// source order.
func TestParse_RootIsLastNodeAndChildrenInOrder(t *testing.T) {
	unit, snap := parseFixture(t, "let a = 1\nlet b = 2\nlet c = 3")

	root, _ := snap.Root()
	require.Equal(t, unit.NodeCount()-1, int(root))
	rootNode, _ := unit.GetNode(root)
	children := unit.Children(rootNode.ChildLo, rootNode.ChildHi)
	require.Len(t, children, 3)
	for _, c := range children {
		node, _ := unit.GetNode(c)
		assert.Equal(t, NodeLetDecl, node.Kind)
	}
	names := []string{"a", "b", "c"}
	for i, c := range children {
		node, _ := unit.GetNode(c)
		nameChildren := unit.Children(node.ChildLo, node.ChildHi)
		identNode, _ := unit.GetNode(nameChildren[0])
		tok := unit.Token(identNode.FirstToken)
		text, _ := unit.Interner.Lookup(tok.StrID)
		assert.Equal(t, names[i], text, "decl %d name", i)
	}
}

func TestParse_DoEndAndBraceBlocksInterchangeable(t *testing.T) {
	_, snapDo := parseFixture(t, "func f() do return 1 end")
	_, snapBrace := parseFixture(t, "func f() { return 1 }")

	for name, snap := range map[string]Snapshot{"do": snapDo, "brace": snapBrace} {
		root, _ := snap.Root()
		node, _ := snap.Unit().GetNode(root)
		assert.Equal(t, NodeSourceFile, node.Kind, name)
	}
}

func TestParse_NamedArguments(t *testing.T) {
	unit, snap := parseFixture(t, "let r = f(x: 1, y: 2)")
	root, _ := snap.Root()
	rootNode, _ := unit.GetNode(root)
	decl, _ := unit.GetNode(unit.Children(rootNode.ChildLo, rootNode.ChildHi)[0])
	declChildren := unit.Children(decl.ChildLo, decl.ChildHi)
	call, _ := unit.GetNode(declChildren[1])
	require.Equal(t, NodeCallExpr, call.Kind)
	callChildren := unit.Children(call.ChildLo, call.ChildHi)
	// [0] = callee, [1], [2] = named args
	require.Len(t, callChildren, 3)
	arg, _ := unit.GetNode(callChildren[1])
	assert.Equal(t, NodeNamedArg, arg.Kind)
}

func TestParse_BootstrapGateRejectsOutsideSubset(t *testing.T) {
	db := New(nil)
	_, err := ParseSource(db, "f.janus", []byte("let x = 1"), ParserConfig{BootstrapMode: true})
	require.Error(t, err)
	perr, ok := err.(*ParseError)
	require.True(t, ok, "want *ParseError, got %T", err)
	assert.Equal(t, "BootstrapRejected", perr.Kind)
}

func TestParse_BootstrapGateAllowsSubset(t *testing.T) {
	db := New(nil)
	_, err := ParseSource(db, "f.janus", []byte("func main() { return 1 }"), ParserConfig{BootstrapMode: true})
	require.NoError(t, err)
}

// §4.2 edge case: `expr or do |err| ... end` binds the identifier
// between the pipes as the handler's error parameter.
func TestParse_ErrorHandlerBindsPipedParam(t *testing.T) {
	unit, snap := parseFixture(t, "let r = f() or do |err| return err end")

	root, _ := snap.Root()
	rootNode, _ := unit.GetNode(root)
	decl, _ := unit.GetNode(unit.Children(rootNode.ChildLo, rootNode.ChildHi)[0])
	declChildren := unit.Children(decl.ChildLo, decl.ChildHi)
	handler, _ := unit.GetNode(declChildren[1])
	require.Equal(t, NodeErrorHandler, handler.Kind)

	handlerChildren := unit.Children(handler.ChildLo, handler.ChildHi)
	require.Len(t, handlerChildren, 3, "error handler should have [left, errParam, body]")

	errParam, _ := unit.GetNode(handlerChildren[1])
	require.Equal(t, NodeIdentExpr, errParam.Kind)
	tok := unit.Token(errParam.FirstToken)
	text, _ := unit.Interner.Lookup(tok.StrID)
	assert.Equal(t, "err", text)

	body, _ := unit.GetNode(handlerChildren[2])
	assert.Equal(t, NodeBlock, body.Kind)
}
