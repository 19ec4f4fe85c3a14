package astdb

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: tokenize "let x = 42" -> 5 tokens: let, identifier "x", =, number "42", eof.
func TestTokenize_LetAssignment(t *testing.T) {
	intern := NewStringInterner()
	toks := Tokenize([]byte("let x = 42"), intern)

	wantKinds := []TokenKind{TokLet, TokIdentifier, TokAssign, TokInteger, TokEOF}
	require.Len(t, toks, len(wantKinds))
	var gotKinds []TokenKind
	for _, tk := range toks {
		gotKinds = append(gotKinds, tk.Kind)
	}
	if diff := cmp.Diff(wantKinds, gotKinds); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}

	text, ok := intern.Lookup(toks[1].StrID)
	require.True(t, ok)
	assert.Equal(t, "x", text)

	text, ok = intern.Lookup(toks[3].StrID)
	require.True(t, ok)
	assert.Equal(t, "42", text)
}

func TestTokenize_WildcardVsIdentifier(t *testing.T) {
	intern := NewStringInterner()
	toks := Tokenize([]byte("_ _foo"), intern)
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, TokWildcard, toks[0].Kind)
	assert.Equal(t, TokIdentifier, toks[1].Kind)
}

func TestTokenize_QuestionFamily(t *testing.T) {
	intern := NewStringInterner()
	toks := Tokenize([]byte("? ?. ??"), intern)
	want := []TokenKind{TokQuestion, TokOptChain, TokNullCoalesce, TokEOF}
	require.Len(t, toks, len(want))
	var got []TokenKind
	for _, tk := range toks {
		got = append(got, tk.Kind)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_UnterminatedString(t *testing.T) {
	intern := NewStringInterner()
	toks := Tokenize([]byte(`"abc`), intern)
	require.NotEmpty(t, toks)
	assert.Equal(t, TokInvalid, toks[0].Kind)
	assert.EqualValues(t, 4, toks[0].Span.End, "unterminated string span should reach EOF")
}

func TestTokenize_CommentsConsumedSilently(t *testing.T) {
	intern := NewStringInterner()
	toks := Tokenize([]byte("let // trailing comment\nx /* block\ncomment */ = 1"), intern)
	var kinds []TokenKind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	want := []TokenKind{TokLet, TokNewline, TokIdentifier, TokAssign, TokInteger, TokEOF}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_NumberDecimalRequiresDigitAfterDot(t *testing.T) {
	intern := NewStringInterner()
	toks := Tokenize([]byte("1.5 1."), intern)
	require.GreaterOrEqual(t, len(toks), 3)
	assert.Equal(t, TokFloat, toks[0].Kind, "1.5")
	// "1." : dot not followed by digit -> integer "1" then DOT
	assert.Equal(t, TokInteger, toks[1].Kind, "1.")
	assert.Equal(t, TokDot, toks[2].Kind, "1.")
}

func TestTokenize_PipeLexedForErrorHandlerParam(t *testing.T) {
	intern := NewStringInterner()
	toks := Tokenize([]byte("|err|"), intern)
	want := []TokenKind{TokPipe, TokIdentifier, TokPipe, TokEOF}
	require.Len(t, toks, len(want))
	var got []TokenKind
	for _, tk := range toks {
		got = append(got, tk.Kind)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}
	text, ok := intern.Lookup(toks[1].StrID)
	require.True(t, ok)
	assert.Equal(t, "err", text)
}
