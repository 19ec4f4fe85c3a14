package astdb

// Precedence ladder, lowest to highest (§4.2).
const (
	precNone = iota
	precAssign
	precOr
	precNullCoalesce
	precAnd
	precEquality
	precComparison
	precRange
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

var binaryPrec = map[TokenKind]int{
	TokAssign:       precAssign,
	TokOr:           precOr,
	TokNullCoalesce: precNullCoalesce,
	TokAnd:          precAnd,
	TokEqEq:         precEquality,
	TokNotEq:        precEquality,
	TokLt:           precComparison,
	TokGt:           precComparison,
	TokLtEq:         precComparison,
	TokGtEq:         precComparison,
	TokRange:        precRange,
	TokRangeExcl:    precRange,
	TokPlus:         precAdditive,
	TokMinus:        precAdditive,
	TokStar:         precMultiplicative,
	TokSlash:        precMultiplicative,
}

// Parser builds AST nodes into a CompilationUnit's columnar arrays via
// recursive descent with Pratt-style precedence climbing for
// expressions. It never mutates tokens; every node it appends records
// the explicit list of its immediate children through PushEdges (§4.2).
type Parser struct {
	unit   *CompilationUnit
	cur    *cursor
	config ParserConfig

	// noStructLiteral suppresses `Identifier '{' ...` struct-literal
	// parsing while true -- set while parsing a construct whose own
	// syntax expects a block to follow (if/for/while/match conditions),
	// per the struct-literal-vs-block-literal disambiguation rule.
	noStructLiteral bool
}

// NewParser returns a parser over unit's already-tokenized content.
// Tokenize must have been run and pushed into unit before calling this.
func NewParser(unit *CompilationUnit, config ParserConfig) *Parser {
	return &Parser{unit: unit, cur: newCursor(unit), config: config}
}

// ParseIntoASTDB populates unit.nodes/unit.edges from tokens already
// pushed onto unit, and returns the id of the terminal source_file root
// node -- always the last node after parsing completes (§3.1 invariant).
func ParseIntoASTDB(unit *CompilationUnit, config ParserConfig) (NodeID, error) {
	p := NewParser(unit, config)
	return p.parseSourceFile()
}

func (p *Parser) push(kind NodeKind, first, last TokenID, children []NodeID) NodeID {
	lo, hi := p.unit.PushEdges(children)
	return p.unit.PushNode(AstNode{Kind: kind, FirstToken: first, LastToken: last, ChildLo: lo, ChildHi: hi})
}

func (p *Parser) errorf(d Diagnostic) {
	p.unit.AddDiagnostic(d)
}

func (p *Parser) gate(tok Token) error {
	return p.checkBootstrapGate(tok)
}

// parseSourceFile parses top-level declarations until EOF. The root's
// ChildLo..ChildHi covers exactly the top-level declarations in source
// order (§8 invariant 1).
func (p *Parser) parseSourceFile() (NodeID, error) {
	first := p.cur.CurrentID()
	var children []NodeID

	p.cur.SkipNewlines()
	for p.cur.Peek().Kind != TokEOF {
		if err := p.gate(p.cur.Peek()); err != nil {
			return InvalidNodeID, err
		}
		child, err := p.parseTopLevel()
		if err != nil {
			// Recovery by design: record and skip one token, keep going.
			p.errorf(Diagnostic{Message: err.Error(), Span: p.cur.Peek().Span})
			if p.cur.Peek().Kind != TokEOF {
				p.cur.Next()
			}
		} else if child != InvalidNodeID {
			children = append(children, child)
		}
		p.cur.SkipNewlines()
	}
	last := p.cur.CurrentID()
	return p.push(NodeSourceFile, first, last, children), nil
}

func (p *Parser) parseTopLevel() (NodeID, error) {
	switch p.cur.Peek().Kind {
	case TokFunc:
		return p.parseFuncDecl()
	case TokLet:
		return p.parseLetDecl()
	case TokVar:
		return p.parseVarDecl()
	case TokStruct:
		return p.parseStructDecl()
	case TokType:
		return p.parseTypeDecl()
	case TokUse:
		return p.parseUseStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseFuncDecl() (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next() // 'func'
	var children []NodeID

	if p.cur.Peek().Kind == TokIdentifier {
		nameTok := p.cur.CurrentID()
		p.cur.Next()
		children = append(children, p.push(NodeIdentExpr, nameTok, nameTok, nil))
	}

	if p.cur.Peek().Kind == TokLParen {
		params, err := p.parseParamList()
		if err != nil {
			return InvalidNodeID, err
		}
		children = append(children, params...)
	}

	body, err := p.parseBlock()
	if err != nil {
		return InvalidNodeID, err
	}
	children = append(children, body)

	last := p.cur.CurrentID()
	return p.push(NodeFuncDecl, first, last, children), nil
}

func (p *Parser) parseParamList() ([]NodeID, error) {
	if p.cur.Peek().Kind != TokLParen {
		return nil, unexpectedToken(p.cur.Peek(), "'('")
	}
	p.cur.Next()
	var params []NodeID
	for p.cur.Peek().Kind != TokRParen && p.cur.Peek().Kind != TokEOF {
		if p.cur.Peek().Kind == TokIdentifier {
			tok := p.cur.CurrentID()
			p.cur.Next()
			params = append(params, p.push(NodeParam, tok, tok, nil))
		} else {
			p.cur.Next()
		}
		if p.cur.Peek().Kind == TokComma {
			p.cur.Next()
		}
	}
	if p.cur.Peek().Kind != TokRParen {
		return params, unexpectedToken(p.cur.Peek(), "')'")
	}
	p.cur.Next()
	return params, nil
}

// parseBlock accepts a brace-delimited or do/end-delimited body
// interchangeably; the matching close token is whichever opener was
// consumed (§4.2 edge case).
func (p *Parser) parseBlock() (NodeID, error) {
	first := p.cur.CurrentID()
	var closeKind TokenKind
	switch p.cur.Peek().Kind {
	case TokLBrace:
		closeKind = TokRBrace
	case TokDo:
		closeKind = TokEnd
	default:
		return InvalidNodeID, unexpectedToken(p.cur.Peek(), "block ('{' or 'do')")
	}
	p.cur.Next()

	var children []NodeID
	p.cur.SkipNewlines()
	for p.cur.Peek().Kind != closeKind && p.cur.Peek().Kind != TokEOF {
		stmt, err := p.parseStmt()
		if err != nil {
			p.errorf(Diagnostic{Message: err.Error(), Span: p.cur.Peek().Span})
			if p.cur.Peek().Kind != TokEOF {
				p.cur.Next()
			}
		} else if stmt != InvalidNodeID {
			children = append(children, stmt)
		}
		p.cur.SkipNewlines()
	}
	if p.cur.Peek().Kind != closeKind {
		return p.push(NodeBlock, first, p.cur.CurrentID(), children), unexpectedToken(p.cur.Peek(), closeKind.String())
	}
	p.cur.Next()
	last := p.cur.CurrentID()
	return p.push(NodeBlock, first, last, children), nil
}

func (p *Parser) parseStmt() (NodeID, error) {
	switch p.cur.Peek().Kind {
	case TokLet:
		return p.parseLetDecl()
	case TokVar:
		return p.parseVarDecl()
	case TokReturn:
		return p.parseSimpleKeywordStmt(NodeReturnStmt, true)
	case TokBreak:
		return p.parseSimpleKeywordStmt(NodeBreakStmt, false)
	case TokContinue:
		return p.parseSimpleKeywordStmt(NodeContinueStmt, false)
	case TokDefer:
		return p.parseSimpleKeywordStmt(NodeDeferStmt, true)
	case TokUse:
		return p.parseUseStmt()
	case TokIf:
		return p.parseIfStmt()
	case TokFor:
		return p.parseForStmt()
	case TokWhile:
		return p.parseWhileStmt()
	case TokMatch:
		return p.parseMatchStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseSimpleKeywordStmt(kind NodeKind, hasExpr bool) (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next()
	var children []NodeID
	if hasExpr {
		switch p.cur.Peek().Kind {
		case TokNewline, TokSemicolon, TokEnd, TokRBrace, TokEOF:
			// no value
		default:
			expr, err := p.parseExpr(precAssign)
			if err != nil {
				return InvalidNodeID, err
			}
			children = append(children, expr)
		}
	}
	last := p.cur.CurrentID()
	return p.push(kind, first, last, children), nil
}

func (p *Parser) parseUseStmt() (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next()
	var children []NodeID
	if p.cur.Peek().Kind == TokIdentifier || p.cur.Peek().Kind == TokString {
		tok := p.cur.CurrentID()
		kind := NodeIdentExpr
		if p.cur.Peek().Kind == TokString {
			kind = NodeStringLiteral
		}
		p.cur.Next()
		children = append(children, p.push(kind, tok, tok, nil))
	}
	last := p.cur.CurrentID()
	return p.push(NodeUseStmt, first, last, children), nil
}

func (p *Parser) parseLetDecl() (NodeID, error) {
	return p.parseBinding(TokLet, NodeLetDecl)
}

func (p *Parser) parseVarDecl() (NodeID, error) {
	return p.parseBinding(TokVar, NodeVarDecl)
}

func (p *Parser) parseBinding(kw TokenKind, kind NodeKind) (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next() // 'let'/'var'
	var children []NodeID
	if p.cur.Peek().Kind != TokIdentifier {
		return InvalidNodeID, unexpectedToken(p.cur.Peek(), "identifier")
	}
	nameTok := p.cur.CurrentID()
	p.cur.Next()
	children = append(children, p.push(NodeIdentExpr, nameTok, nameTok, nil))

	if p.cur.Peek().Kind == TokAssign {
		p.cur.Next()
		val, err := p.parseExpr(precAssign)
		if err != nil {
			return InvalidNodeID, err
		}
		children = append(children, val)
	}
	last := p.cur.CurrentID()
	return p.push(kind, first, last, children), nil
}

func (p *Parser) parseStructDecl() (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next() // 'struct'
	var children []NodeID
	if p.cur.Peek().Kind == TokIdentifier {
		tok := p.cur.CurrentID()
		p.cur.Next()
		children = append(children, p.push(NodeIdentExpr, tok, tok, nil))
	}
	if p.cur.Peek().Kind == TokLBrace {
		p.cur.Next()
		p.cur.SkipNewlines()
		for p.cur.Peek().Kind != TokRBrace && p.cur.Peek().Kind != TokEOF {
			if p.cur.Peek().Kind == TokIdentifier {
				fieldTok := p.cur.CurrentID()
				p.cur.Next()
				children = append(children, p.push(NodeParam, fieldTok, fieldTok, nil))
			} else {
				p.cur.Next()
			}
			if p.cur.Peek().Kind == TokComma {
				p.cur.Next()
			}
			p.cur.SkipNewlines()
		}
		if p.cur.Peek().Kind == TokRBrace {
			p.cur.Next()
		}
	}
	last := p.cur.CurrentID()
	return p.push(NodeStructDecl, first, last, children), nil
}

func (p *Parser) parseTypeDecl() (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next() // 'type'
	var children []NodeID
	if p.cur.Peek().Kind == TokIdentifier {
		tok := p.cur.CurrentID()
		p.cur.Next()
		children = append(children, p.push(NodeIdentExpr, tok, tok, nil))
	}
	if p.cur.Peek().Kind == TokAssign {
		p.cur.Next()
		if p.cur.Peek().Kind == TokIdentifier {
			tok := p.cur.CurrentID()
			p.cur.Next()
			children = append(children, p.push(NodeIdentExpr, tok, tok, nil))
		}
	}
	last := p.cur.CurrentID()
	return p.push(NodeTypeDecl, first, last, children), nil
}

// parseIfStmt flattens chained `else if` branches into the same node's
// child sequence instead of nesting (§4.2 edge case): children are
// [cond, thenBlock, cond2, block2, ..., elseBlock?].
func (p *Parser) parseIfStmt() (NodeID, error) {
	first := p.cur.CurrentID()
	var children []NodeID

	p.cur.Next() // 'if'
	cond, block, err := p.parseCondAndBlock()
	if err != nil {
		return InvalidNodeID, err
	}
	children = append(children, cond, block)

	for p.cur.Peek().Kind == TokElse {
		p.cur.Next()
		if p.cur.Peek().Kind == TokIf {
			p.cur.Next()
			cond, block, err := p.parseCondAndBlock()
			if err != nil {
				return InvalidNodeID, err
			}
			children = append(children, cond, block)
			continue
		}
		elseBlock, err := p.parseBlock()
		if err != nil {
			return InvalidNodeID, err
		}
		children = append(children, elseBlock)
		break
	}
	last := p.cur.CurrentID()
	return p.push(NodeIfStmt, first, last, children), nil
}

func (p *Parser) parseCondAndBlock() (cond, block NodeID, err error) {
	p.noStructLiteral = true
	cond, err = p.parseExpr(precAssign)
	p.noStructLiteral = false
	if err != nil {
		return InvalidNodeID, InvalidNodeID, err
	}
	block, err = p.parseBlock()
	return cond, block, err
}

func (p *Parser) parseForStmt() (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next() // 'for'
	var children []NodeID
	if p.cur.Peek().Kind == TokIdentifier {
		tok := p.cur.CurrentID()
		p.cur.Next()
		children = append(children, p.push(NodeIdentExpr, tok, tok, nil))
	}
	if p.cur.Peek().Kind == TokIn {
		p.cur.Next()
		p.noStructLiteral = true
		iter, err := p.parseExpr(precAssign)
		p.noStructLiteral = false
		if err != nil {
			return InvalidNodeID, err
		}
		children = append(children, iter)
	}
	block, err := p.parseBlock()
	if err != nil {
		return InvalidNodeID, err
	}
	children = append(children, block)
	last := p.cur.CurrentID()
	return p.push(NodeForStmt, first, last, children), nil
}

func (p *Parser) parseWhileStmt() (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next() // 'while'
	cond, block, err := p.parseCondAndBlock()
	if err != nil {
		return InvalidNodeID, err
	}
	last := p.cur.CurrentID()
	return p.push(NodeWhileStmt, first, last, []NodeID{cond, block}), nil
}

func (p *Parser) parseMatchStmt() (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next() // 'match'
	p.noStructLiteral = true
	subject, err := p.parseExpr(precAssign)
	p.noStructLiteral = false
	if err != nil {
		return InvalidNodeID, err
	}
	children := []NodeID{subject}

	if p.cur.Peek().Kind != TokLBrace {
		return p.push(NodeMatchStmt, first, p.cur.CurrentID(), children), unexpectedToken(p.cur.Peek(), "'{'")
	}
	p.cur.Next()
	p.cur.SkipNewlines()
	for p.cur.Peek().Kind != TokRBrace && p.cur.Peek().Kind != TokEOF {
		arm, err := p.parseMatchArm()
		if err != nil {
			p.errorf(Diagnostic{Message: err.Error(), Span: p.cur.Peek().Span})
			if p.cur.Peek().Kind != TokEOF {
				p.cur.Next()
			}
		} else {
			children = append(children, arm)
		}
		p.cur.SkipNewlines()
	}
	if p.cur.Peek().Kind == TokRBrace {
		p.cur.Next()
	}
	last := p.cur.CurrentID()
	return p.push(NodeMatchStmt, first, last, children), nil
}

func (p *Parser) parseMatchArm() (NodeID, error) {
	first := p.cur.CurrentID()
	pattern, err := p.parseExpr(precAssign)
	if err != nil {
		return InvalidNodeID, err
	}
	children := []NodeID{pattern}
	if p.cur.Peek().Kind == TokColon {
		p.cur.Next()
	}
	block, err := p.parseBlock()
	if err == nil {
		children = append(children, block)
	} else {
		expr, exprErr := p.parseExpr(precAssign)
		if exprErr != nil {
			return InvalidNodeID, err
		}
		children = append(children, expr)
	}
	last := p.cur.CurrentID()
	return p.push(NodeMatchArm, first, last, children), nil
}

func (p *Parser) parseExprStmt() (NodeID, error) {
	first := p.cur.CurrentID()
	expr, err := p.parseExpr(precAssign)
	if err != nil {
		return InvalidNodeID, err
	}
	last := p.cur.CurrentID()
	return p.push(NodeExprStmt, first, last, []NodeID{expr}), nil
}
