package astdb

import "fmt"

// ParseError is returned only for the narrow set of failures the parser
// treats as fatal: a required terminal missing with no recovery
// configured, or a bootstrap-gate rejection. Everything else is a
// recorded Diagnostic and parsing continues (§4.2, §7).
type ParseError struct {
	Kind    string // "UnexpectedToken" or "BootstrapRejected"
	Message string
	Span    Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s (line %d, col %d)", e.Kind, e.Message, e.Span.Line, e.Span.Column)
}

func unexpectedToken(got Token, want string) *ParseError {
	return &ParseError{
		Kind:    "UnexpectedToken",
		Message: fmt.Sprintf("expected %s, got %s", want, got.Kind),
		Span:    got.Span,
	}
}

func bootstrapRejected(got Token) *ParseError {
	return &ParseError{
		Kind:    "BootstrapRejected",
		Message: fmt.Sprintf("token %s not in bootstrap subset", got.Kind),
		Span:    got.Span,
	}
}
