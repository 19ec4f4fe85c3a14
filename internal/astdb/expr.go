package astdb

// parseExpr implements Pratt-style precedence climbing over the ladder
// in parser.go. minPrec is the lowest precedence this call is willing to
// fold in, so a recursive call that should stop at a looser operator
// passes the tighter operator's precedence + 1.
func (p *Parser) parseExpr(minPrec int) (NodeID, error) {
	left, err := p.parseUnary()
	if err != nil {
		return InvalidNodeID, err
	}
	left, err = p.parseErrorHandlerPostfix(left)
	if err != nil {
		return InvalidNodeID, err
	}

	for {
		opKind := p.cur.Peek().Kind
		prec, ok := binaryPrec[opKind]
		if !ok || prec < minPrec {
			return left, nil
		}
		opTok := p.cur.CurrentID()
		p.cur.Next()

		nextMin := prec + 1
		if opKind == TokAssign {
			nextMin = prec // right-associative
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return InvalidNodeID, err
		}
		kind := NodeBinaryExpr
		if opKind == TokAssign {
			kind = NodeAssignExpr
		}
		left = p.push(kind, opTok, p.cur.CurrentID(), []NodeID{left, right})
	}
}

func (p *Parser) parseUnary() (NodeID, error) {
	switch p.cur.Peek().Kind {
	case TokMinus, TokNot:
		first := p.cur.CurrentID()
		p.cur.Next()
		operand, err := p.parseUnary()
		if err != nil {
			return InvalidNodeID, err
		}
		return p.push(NodeUnaryExpr, first, p.cur.CurrentID(), []NodeID{operand}), nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (NodeID, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return InvalidNodeID, err
	}
	for {
		switch p.cur.Peek().Kind {
		case TokLParen:
			expr, err = p.parseCallArgs(expr)
			if err != nil {
				return InvalidNodeID, err
			}
		case TokDot, TokOptChain:
			opTok := p.cur.CurrentID()
			p.cur.Next()
			if p.cur.Peek().Kind != TokIdentifier {
				return InvalidNodeID, unexpectedToken(p.cur.Peek(), "identifier")
			}
			fieldTok := p.cur.CurrentID()
			p.cur.Next()
			field := p.push(NodeIdentExpr, fieldTok, fieldTok, nil)
			expr = p.push(NodeFieldExpr, opTok, p.cur.CurrentID(), []NodeID{expr, field})
		case TokLBracket:
			expr, err = p.parseIndexOrSlice(expr)
			if err != nil {
				return InvalidNodeID, err
			}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseCallArgs(callee NodeID) (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next() // '('
	children := []NodeID{callee}
	for p.cur.Peek().Kind != TokRParen && p.cur.Peek().Kind != TokEOF {
		// Named arguments: `identifier ':' expression`, one-token
		// lookahead (§4.2 edge case).
		if p.cur.Peek().Kind == TokIdentifier && p.cur.PeekAt(1).Kind == TokColon {
			nameTok := p.cur.CurrentID()
			p.cur.Next()
			p.cur.Next() // ':'
			val, err := p.parseExpr(precAssign + 1)
			if err != nil {
				return InvalidNodeID, err
			}
			name := p.push(NodeIdentExpr, nameTok, nameTok, nil)
			children = append(children, p.push(NodeNamedArg, nameTok, p.cur.CurrentID(), []NodeID{name, val}))
		} else {
			arg, err := p.parseExpr(precAssign + 1)
			if err != nil {
				return InvalidNodeID, err
			}
			children = append(children, arg)
		}
		if p.cur.Peek().Kind == TokComma {
			p.cur.Next()
		}
	}
	if p.cur.Peek().Kind != TokRParen {
		return InvalidNodeID, unexpectedToken(p.cur.Peek(), "')'")
	}
	p.cur.Next()
	return p.push(NodeCallExpr, first, p.cur.CurrentID(), children), nil
}

// parseIndexOrSlice disambiguates `[expr]` from `[expr..expr]` /
// `[expr:expr]` by the presence of '..' or ':' before ']' (§4.2 edge
// case).
func (p *Parser) parseIndexOrSlice(target NodeID) (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next() // '['
	children := []NodeID{target}

	var lo NodeID = InvalidNodeID
	if p.cur.Peek().Kind != TokRange && p.cur.Peek().Kind != TokRangeExcl && p.cur.Peek().Kind != TokColon && p.cur.Peek().Kind != TokRBracket {
		e, err := p.parseExpr(precAssign + 1)
		if err != nil {
			return InvalidNodeID, err
		}
		lo = e
	}

	isSlice := p.cur.Peek().Kind == TokRange || p.cur.Peek().Kind == TokRangeExcl || p.cur.Peek().Kind == TokColon
	if isSlice {
		p.cur.Next() // '..' / '..<' / ':'
		if lo != InvalidNodeID {
			children = append(children, lo)
		}
		if p.cur.Peek().Kind != TokRBracket {
			hi, err := p.parseExpr(precAssign + 1)
			if err != nil {
				return InvalidNodeID, err
			}
			children = append(children, hi)
		}
		if p.cur.Peek().Kind != TokRBracket {
			return InvalidNodeID, unexpectedToken(p.cur.Peek(), "']'")
		}
		p.cur.Next()
		return p.push(NodeSliceExpr, first, p.cur.CurrentID(), children), nil
	}

	if lo != InvalidNodeID {
		children = append(children, lo)
	}
	if p.cur.Peek().Kind != TokRBracket {
		return InvalidNodeID, unexpectedToken(p.cur.Peek(), "']'")
	}
	p.cur.Next()
	return p.push(NodeIndexExpr, first, p.cur.CurrentID(), children), nil
}

// parseErrorHandlerPostfix recognizes `expr or do |err| ... end` via
// two-token lookahead: 'or' then optional newlines then 'do' (§4.2 edge
// case). It must run before general binary-operator folding swallows
// 'or' as logical-or.
func (p *Parser) parseErrorHandlerPostfix(left NodeID) (NodeID, error) {
	if p.cur.Peek().Kind != TokOr {
		return left, nil
	}
	save := *p.cur
	p.cur.Next() // 'or'
	p.cur.SkipNewlines()
	if p.cur.Peek().Kind != TokDo {
		*p.cur = save
		return left, nil
	}
	first := p.cur.CurrentID()
	p.cur.Next() // 'do'

	errParam := InvalidNodeID
	if p.cur.Peek().Kind == TokPipe {
		p.cur.Next() // opening '|'
		paramID := p.cur.CurrentID()
		if p.cur.Peek().Kind != TokIdentifier {
			p.errorf(Diagnostic{Message: "expected identifier between '|' in error handler", Span: p.cur.Peek().Span})
		} else {
			p.cur.Next()
			errParam = p.push(NodeIdentExpr, paramID, paramID, nil)
		}
		if p.cur.Peek().Kind != TokPipe {
			p.errorf(Diagnostic{Message: "expected closing '|' in error handler", Span: p.cur.Peek().Span})
		} else {
			p.cur.Next() // closing '|'
		}
	}

	body, err := p.parseBlockBodyUntil(TokEnd)
	if err != nil {
		return InvalidNodeID, err
	}
	p.cur.Next() // 'end'

	children := []NodeID{left, errParam, body}
	handler := p.push(NodeErrorHandler, first, p.cur.CurrentID(), children)
	return handler, nil
}

func (p *Parser) parseBlockBodyUntil(closeKind TokenKind) (NodeID, error) {
	first := p.cur.CurrentID()
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
	return p.push(NodeBlock, first, p.cur.CurrentID(), children), nil
}

func (p *Parser) parsePrimary() (NodeID, error) {
	tok := p.cur.Peek()
	id := p.cur.CurrentID()
	switch tok.Kind {
	case TokInteger:
		p.cur.Next()
		return p.push(NodeIntLiteral, id, id, nil), nil
	case TokFloat:
		p.cur.Next()
		return p.push(NodeFloatLiteral, id, id, nil), nil
	case TokString:
		p.cur.Next()
		return p.push(NodeStringLiteral, id, id, nil), nil
	case TokTrue, TokFalse:
		p.cur.Next()
		return p.push(NodeBoolLiteral, id, id, nil), nil
	case TokNull:
		p.cur.Next()
		return p.push(NodeNullLiteral, id, id, nil), nil
	case TokWildcard:
		p.cur.Next()
		return p.push(NodeWildcard, id, id, nil), nil
	case TokIdentifier:
		p.cur.Next()
		ident := p.push(NodeIdentExpr, id, id, nil)
		if !p.noStructLiteral && p.cur.Peek().Kind == TokLBrace {
			return p.parseStructLiteral(ident)
		}
		return ident, nil
	case TokFunc:
		return p.parseFuncLiteral()
	case TokLParen:
		p.cur.Next()
		inner, err := p.parseExpr(precAssign)
		if err != nil {
			return InvalidNodeID, err
		}
		if p.cur.Peek().Kind != TokRParen {
			return InvalidNodeID, unexpectedToken(p.cur.Peek(), "')'")
		}
		p.cur.Next()
		return inner, nil
	default:
		return InvalidNodeID, unexpectedToken(tok, "expression")
	}
}

// parseStructLiteral parses `Identifier '{' field: value, ... '}'`,
// distinguished from a block-function-literal context by the
// noStructLiteral suppression flag set around if/for/while/match
// conditions (§4.2 edge case).
func (p *Parser) parseStructLiteral(typeName NodeID) (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next() // '{'
	children := []NodeID{typeName}
	p.cur.SkipNewlines()
	for p.cur.Peek().Kind != TokRBrace && p.cur.Peek().Kind != TokEOF {
		if p.cur.Peek().Kind != TokIdentifier {
			return InvalidNodeID, unexpectedToken(p.cur.Peek(), "field name")
		}
		fieldFirst := p.cur.CurrentID()
		fieldTok := p.cur.CurrentID()
		p.cur.Next()
		name := p.push(NodeIdentExpr, fieldTok, fieldTok, nil)
		if p.cur.Peek().Kind != TokColon {
			return InvalidNodeID, unexpectedToken(p.cur.Peek(), "':'")
		}
		p.cur.Next()
		val, err := p.parseExpr(precAssign + 1)
		if err != nil {
			return InvalidNodeID, err
		}
		children = append(children, p.push(NodeStructField, fieldFirst, p.cur.CurrentID(), []NodeID{name, val}))
		if p.cur.Peek().Kind == TokComma {
			p.cur.Next()
		}
		p.cur.SkipNewlines()
	}
	if p.cur.Peek().Kind != TokRBrace {
		return InvalidNodeID, unexpectedToken(p.cur.Peek(), "'}'")
	}
	p.cur.Next()
	return p.push(NodeStructLiteral, first, p.cur.CurrentID(), children), nil
}

func (p *Parser) parseFuncLiteral() (NodeID, error) {
	first := p.cur.CurrentID()
	p.cur.Next() // 'func'
	var children []NodeID
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
	return p.push(NodeFuncLiteral, first, p.cur.CurrentID(), children), nil
}
