package astdb

// ParserConfig replaces the source language's process-wide bootstrap
// boolean (§9 DESIGN NOTES) with an explicit value threaded through
// construction. There is no package-level mutable state here; a caller
// that wants a scoped override constructs a child Parser with a
// different config for the duration of one parse and lets it go out of
// scope -- the same effect as "restore on drop" without needing a drop
// guard, since Go has no implicit scope exit hook to restore into.
type ParserConfig struct {
	// BootstrapMode restricts accepted tokens to the bootstrap subset.
	BootstrapMode bool
}

// DefaultParserConfig is the zero-value config: full grammar, no gate.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{}
}

// bootstrapAllowed is the closed subset of token kinds accepted when
// ParserConfig.BootstrapMode is set (§4.2): func, return, identifier,
// integer_literal, string_literal, parens, braces, semicolon, comma,
// newline, eof.
var bootstrapAllowed = map[TokenKind]bool{
	TokFunc:       true,
	TokReturn:     true,
	TokIdentifier: true,
	TokInteger:    true,
	TokString:     true,
	TokLParen:     true,
	TokRParen:     true,
	TokLBrace:     true,
	TokRBrace:     true,
	TokSemicolon:  true,
	TokComma:      true,
	TokNewline:    true,
	TokEOF:        true,
}

func (p *Parser) checkBootstrapGate(tok Token) error {
	if !p.config.BootstrapMode {
		return nil
	}
	if !bootstrapAllowed[tok.Kind] {
		return bootstrapRejected(tok)
	}
	return nil
}
