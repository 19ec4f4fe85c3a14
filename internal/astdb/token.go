package astdb

import "fmt"

// TokenKind is the closed set of lexical categories produced by the
// tokenizer. The set is fixed by the language grammar; adding a kind
// requires updating the keyword table and the tokenizer's dispatch.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokInvalid

	// Trivia kept as real tokens (whitespace other than newline is
	// discarded; comments are consumed silently).
	TokNewline

	// Literals
	TokIdentifier
	TokWildcard // standalone '_'
	TokInteger
	TokFloat
	TokString

	// Keywords
	TokLet
	TokVar
	TokFunc
	TokIf
	TokElse
	TokFor
	TokIn
	TokWhile
	TokMatch
	TokBreak
	TokContinue
	TokDo
	TokEnd
	TokReturn
	TokDefer
	TokUse
	TokStruct
	TokType
	TokTrue
	TokFalse
	TokNull
	TokAnd
	TokOr
	TokNot
	TokWhen

	// Punctuation / operators
	TokLParen
	TokRParen
	TokLBrace
	TokRBrace
	TokLBracket
	TokRBracket
	TokComma
	TokColon
	TokSemicolon
	TokDot
	TokAssign     // =
	TokPlus       // +
	TokMinus      // -
	TokStar       // *
	TokSlash      // /
	TokEqEq       // ==
	TokNotEq      // !=
	TokLt         // <
	TokGt         // >
	TokLtEq       // <=
	TokGtEq       // >=
	TokRange      // ..
	TokRangeExcl  // ..<
	TokQuestion   // ?
	TokOptChain   // ?.
	TokNullCoalesce // ??
	TokWalrus     // := (split by the parser into ':' then '=')
	TokPipe       // | (error-handler parameter delimiter, `do |err| ... end`)
)

var tokenNames = [...]string{
	TokEOF:          "EOF",
	TokInvalid:      "INVALID",
	TokNewline:      "NEWLINE",
	TokIdentifier:   "IDENTIFIER",
	TokWildcard:     "WILDCARD",
	TokInteger:      "INTEGER",
	TokFloat:        "FLOAT",
	TokString:       "STRING",
	TokLet:          "LET",
	TokVar:          "VAR",
	TokFunc:         "FUNC",
	TokIf:           "IF",
	TokElse:         "ELSE",
	TokFor:          "FOR",
	TokIn:           "IN",
	TokWhile:        "WHILE",
	TokMatch:        "MATCH",
	TokBreak:        "BREAK",
	TokContinue:     "CONTINUE",
	TokDo:           "DO",
	TokEnd:          "END",
	TokReturn:       "RETURN",
	TokDefer:        "DEFER",
	TokUse:          "USE",
	TokStruct:       "STRUCT",
	TokType:         "TYPE",
	TokTrue:         "TRUE",
	TokFalse:        "FALSE",
	TokNull:         "NULL",
	TokAnd:          "AND",
	TokOr:           "OR",
	TokNot:          "NOT",
	TokWhen:         "WHEN",
	TokLParen:       "LPAREN",
	TokRParen:       "RPAREN",
	TokLBrace:       "LBRACE",
	TokRBrace:       "RBRACE",
	TokLBracket:     "LBRACKET",
	TokRBracket:     "RBRACKET",
	TokComma:        "COMMA",
	TokColon:        "COLON",
	TokSemicolon:    "SEMICOLON",
	TokDot:          "DOT",
	TokAssign:       "ASSIGN",
	TokPlus:         "PLUS",
	TokMinus:        "MINUS",
	TokStar:         "STAR",
	TokSlash:        "SLASH",
	TokEqEq:         "EQEQ",
	TokNotEq:        "NOTEQ",
	TokLt:           "LT",
	TokGt:           "GT",
	TokLtEq:         "LTEQ",
	TokGtEq:         "GTEQ",
	TokRange:        "RANGE",
	TokRangeExcl:    "RANGE_EXCL",
	TokQuestion:     "QUESTION",
	TokOptChain:     "OPT_CHAIN",
	TokNullCoalesce: "NULL_COALESCE",
	TokWalrus:       "WALRUS",
	TokPipe:         "PIPE",
}

func (k TokenKind) String() string {
	if int(k) >= 0 && int(k) < len(tokenNames) && tokenNames[k] != "" {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// keywords is the static perfect table of reserved words. Anything not
// present here that starts with a letter or underscore lexes as an
// identifier.
var keywords = map[string]TokenKind{
	"let":      TokLet,
	"var":      TokVar,
	"func":     TokFunc,
	"if":       TokIf,
	"else":     TokElse,
	"for":      TokFor,
	"in":       TokIn,
	"while":    TokWhile,
	"match":    TokMatch,
	"break":    TokBreak,
	"continue": TokContinue,
	"do":       TokDo,
	"end":      TokEnd,
	"return":   TokReturn,
	"defer":    TokDefer,
	"use":      TokUse,
	"struct":   TokStruct,
	"type":     TokType,
	"true":     TokTrue,
	"false":    TokFalse,
	"null":     TokNull,
	"and":      TokAnd,
	"or":       TokOr,
	"not":      TokNot,
	"when":     TokWhen,
}

// Span records a token's location in the source buffer. Byte offsets are
// half-open [Start, End). Line/Column are 1-based.
type Span struct {
	Start  uint32
	End    uint32
	Line   uint32
	Column uint32
}

// Token is the columnar record for one lexical unit. StrID is valid only
// for tokens that carry text (identifiers, literals); it is InvalidStrID
// otherwise.
type Token struct {
	Kind   TokenKind
	StrID  StrID
	Span   Span
	Trivia Span // leading trivia (whitespace/comments) consumed before this token
}
