package parser_test

import (
	"testing"

	"github.com/sandrolain/goformula/pkg/parser"
	"github.com/sandrolain/goformula/pkg/types"
)

type lexerTestCase struct {
	name      string
	input     string
	expected  []parser.Token
	expectErr bool
}

func runLexerTests(t *testing.T, tests []lexerTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := parser.NewLexer(tt.input)
			for i, want := range tt.expected {
				got := l.Next()
				if got != want {
					t.Fatalf("token %d: got %+v, expected %+v", i, got, want)
				}
			}
			last := l.Next()
			if tt.expectErr {
				if last.Type != parser.TokenError {
					t.Fatalf("expected an error token, got %+v", last)
				}
				if l.Error() == nil {
					t.Fatal("lexer should record the error")
				}
				return
			}
			if last.Type != parser.TokenEOF {
				t.Fatalf("expected EOF, got %+v", last)
			}
		})
	}
}

func TestLexerWhitespaceAndNames(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "plain name",
			input: "price",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "price", Position: 0},
			},
		},
		{
			name:  "leading whitespace",
			input: "   vat.rate",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "vat.rate", Position: 3},
			},
		},
		{
			name:  "name with digits and underscore",
			input: "p_2x",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "p_2x", Position: 0},
			},
		},
	})
}

func TestLexerKeywords(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "boolean literals",
			input: "true false",
			expected: []parser.Token{
				{Type: parser.TokenBoolean, Value: "true", Position: 0},
				{Type: parser.TokenBoolean, Value: "false", Position: 5},
			},
		},
		{
			name:  "logical keywords",
			input: "a and b or not c",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "a", Position: 0},
				{Type: parser.TokenAnd, Value: "and", Position: 2},
				{Type: parser.TokenName, Value: "b", Position: 6},
				{Type: parser.TokenOr, Value: "or", Position: 8},
				{Type: parser.TokenNot, Value: "not", Position: 11},
				{Type: parser.TokenName, Value: "c", Position: 15},
			},
		},
	})
}

func TestLexerNumbers(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "integer",
			input: "42",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "42", Position: 0},
			},
		},
		{
			name:  "decimal",
			input: "3.14",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "3.14", Position: 0},
			},
		},
		{
			name:  "scientific notation",
			input: "1e-10",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "1e-10", Position: 0},
			},
		},
		{
			name:  "zero",
			input: "0",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "0", Position: 0},
			},
		},
	})
}

func TestLexerStrings(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "double quoted",
			input: `"hello"`,
			expected: []parser.Token{
				{Type: parser.TokenString, Value: "hello", Position: 1},
			},
		},
		{
			name:  "single quoted",
			input: `'world'`,
			expected: []parser.Token{
				{Type: parser.TokenString, Value: "world", Position: 1},
			},
		},
		{
			name:      "unterminated",
			input:     `"broken`,
			expectErr: true,
		},
	})
}

func TestLexerSymbols(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "two-character operators",
			input: "<= >= !=",
			expected: []parser.Token{
				{Type: parser.TokenLessEqual, Value: "<=", Position: 0},
				{Type: parser.TokenGreaterEqual, Value: ">=", Position: 3},
				{Type: parser.TokenNotEqual, Value: "!=", Position: 6},
			},
		},
		{
			name:  "arithmetic and concat",
			input: "+-*/%&",
			expected: []parser.Token{
				{Type: parser.TokenPlus, Value: "+", Position: 0},
				{Type: parser.TokenMinus, Value: "-", Position: 1},
				{Type: parser.TokenMult, Value: "*", Position: 2},
				{Type: parser.TokenDiv, Value: "/", Position: 3},
				{Type: parser.TokenMod, Value: "%", Position: 4},
				{Type: parser.TokenConcat, Value: "&", Position: 5},
			},
		},
		{
			name:  "ternary symbols",
			input: "? :",
			expected: []parser.Token{
				{Type: parser.TokenCondition, Value: "?", Position: 0},
				{Type: parser.TokenColon, Value: ":", Position: 2},
			},
		},
	})
}

func TestLexerComments(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "comment between tokens",
			input: "1 /* the answer */ + 2",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "1", Position: 0},
				{Type: parser.TokenPlus, Value: "+", Position: 19},
				{Type: parser.TokenNumber, Value: "2", Position: 21},
			},
		},
		{
			name:  "unclosed comment",
			input: "1 /* oops",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "1", Position: 0},
			},
			expectErr: true,
		},
	})
}

func TestLexerUnclosedCommentError(t *testing.T) {
	l := parser.NewLexer("/* oops")
	tok := l.Next()
	if tok.Type != parser.TokenError {
		t.Fatalf("expected an error token, got %+v", tok)
	}
	err := l.Error()
	var ee *types.Error
	if err == nil {
		t.Fatal("lexer should record the unclosed comment")
	}
	if !asTypesError(err, &ee) || ee.Code != types.ErrUnexpectedEnd {
		t.Fatalf("unexpected error %v", err)
	}
}
