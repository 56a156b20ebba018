package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/sandrolain/goformula/pkg/ast"
	"github.com/sandrolain/goformula/pkg/functions"
	"github.com/sandrolain/goformula/pkg/types"
)

// Parser implements a recursive descent parser for formulas.
type Parser struct {
	lexer   *Lexer
	current Token
	params  map[string]*ast.Parameter
	opts    CompileOptions
	depth   int
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Parser{
		lexer:  NewLexer(input),
		params: make(map[string]*ast.Parameter),
		opts:   options,
	}
}

// Parse consumes the whole input and returns the parse result.
func (p *Parser) Parse() (*Result, error) {
	p.advance()
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.syntaxError("unexpected token %q", p.current.Value)
	}
	return &Result{
		Root:       root,
		Source:     p.lexer.input,
		Parameters: p.params,
	}, nil
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.current = p.lexer.Next()
}

// expect consumes the current token if it has the given type, failing
// otherwise.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return types.NewError(types.ErrExpectedToken,
			"expected "+tt.String()+", found "+p.current.Type.String(), p.current.Position)
	}
	p.advance()
	return nil
}

// enter guards the recursion depth; every parse level pairs it with leave.
func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.opts.MaxDepth {
		return types.NewError(types.ErrSyntaxError, "formula too deeply nested", p.current.Position)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) syntaxError(format string, args ...interface{}) error {
	if err := p.lexer.Error(); err != nil {
		return err
	}
	return types.Errorf(types.ErrSyntaxError, format, args...).At(p.current.Position)
}

// parseExpr parses a full expression including the ternary conditional.
func (p *Parser) parseExpr() (ast.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenCondition {
		return cond, nil
	}
	p.advance()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewConditional(cond, then, els)
}

func (p *Parser) parseOr() (ast.Node, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenOr {
		p.advance()
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs, err = ast.NewOr(lhs, rhs)
		if err != nil {
			return nil, err
		}
	}
	return lhs, nil
}

func (p *Parser) parseAnd() (ast.Node, error) {
	lhs, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenAnd {
		p.advance()
		rhs, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		lhs, err = ast.NewAnd(lhs, rhs)
		if err != nil {
			return nil, err
		}
	}
	return lhs, nil
}

// parseComparison parses a non-associative comparison.
func (p *Parser) parseComparison() (ast.Node, error) {
	lhs, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	var ctor func(ast.Node, ast.Node) (ast.Node, error)
	switch p.current.Type {
	case TokenEqual:
		ctor = ast.NewEqual
	case TokenNotEqual:
		ctor = ast.NewNotEqual
	case TokenLess:
		ctor = ast.NewLess
	case TokenLessEqual:
		ctor = ast.NewLessOrEqual
	case TokenGreater:
		ctor = ast.NewGreater
	case TokenGreaterEqual:
		ctor = ast.NewGreaterOrEqual
	default:
		return lhs, nil
	}
	p.advance()
	rhs, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	return ctor(lhs, rhs)
}

func (p *Parser) parseConcat() (ast.Node, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenConcat {
		p.advance()
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs, err = ast.NewConcat(lhs, rhs)
		if err != nil {
			return nil, err
		}
	}
	return lhs, nil
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var ctor func(ast.Node, ast.Node) (ast.Node, error)
		switch p.current.Type {
		case TokenPlus:
			ctor = ast.NewAdd
		case TokenMinus:
			ctor = ast.NewSubtract
		default:
			return lhs, nil
		}
		p.advance()
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs, err = ctor(lhs, rhs)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseMultiplicative() (ast.Node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var ctor func(ast.Node, ast.Node) (ast.Node, error)
		switch p.current.Type {
		case TokenMult:
			ctor = ast.NewMultiply
		case TokenDiv:
			ctor = ast.NewDivide
		case TokenMod:
			ctor = ast.NewModulo
		default:
			return lhs, nil
		}
		p.advance()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs, err = ctor(lhs, rhs)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseUnary() (ast.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch p.current.Type {
	case TokenMinus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		// Fold a negated literal directly into a constant, so "-3" is an
		// integer literal rather than a Negate node.
		if c, ok := operand.(*ast.Constant); ok {
			switch v := c.Value().(type) {
			case int64:
				return ast.NewInteger(-v), nil
			case float64:
				return ast.NewNumber(-v), nil
			}
		}
		return ast.NewNegate(operand)
	case TokenNot:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewNot(operand)
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	switch p.current.Type {
	case TokenNumber:
		return p.parseNumber()

	case TokenString:
		value, err := unescape(p.current.Value)
		if err != nil {
			return nil, types.NewError(types.ErrSyntaxError, err.Error(), p.current.Position)
		}
		p.advance()
		return ast.NewString(value), nil

	case TokenBoolean:
		value := p.current.Value == "true"
		p.advance()
		return ast.NewBoolean(value), nil

	case TokenName:
		return p.parseNameOrCall()

	case TokenParenOpen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return inner, nil

	case TokenEOF:
		return nil, types.NewError(types.ErrUnexpectedEnd, "unexpected end of formula", p.current.Position)

	default:
		return nil, p.syntaxError("unexpected token %q", p.current.Value)
	}
}

// parseNumber creates an Integer constant for whole literals and a Numeric
// constant when a decimal point or exponent is present.
func (p *Parser) parseNumber() (ast.Node, error) {
	raw := p.current.Value
	pos := p.current.Position
	p.advance()
	if strings.ContainsAny(raw, ".eE") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, types.NewError(types.ErrNumberFormat, "invalid number "+raw, pos)
		}
		return ast.NewNumber(f), nil
	}
	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, types.NewError(types.ErrNumberFormat, "number out of range "+raw, pos)
	}
	return ast.NewInteger(i), nil
}

// parseNameOrCall turns an identifier into either a function node (when
// followed by an argument list) or a shared parameter node.
func (p *Parser) parseNameOrCall() (ast.Node, error) {
	name := p.current.Value
	pos := p.current.Position
	p.advance()

	if p.current.Type != TokenParenOpen {
		return p.parameter(name), nil
	}
	p.advance()

	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}

	// The ternary has a function spelling too: if(cond, then, else).
	if strings.EqualFold(name, "if") {
		if len(args) != 3 {
			return nil, types.NewError(types.ErrSyntaxError,
				"if expects 3 arguments, got "+strconv.Itoa(len(args)), pos)
		}
		return ast.NewConditional(args[0], args[1], args[2])
	}

	def, ok := functions.Lookup(name)
	if !ok {
		return nil, types.NewError(types.ErrUnknownFunction, "unknown function "+name, pos)
	}
	node, err := def.New(args)
	if err != nil {
		var ee *types.Error
		if errors.As(err, &ee) && ee.Position < 0 {
			ee.Position = pos
		}
		return nil, err
	}
	return node, nil
}

// parseArgs parses a parenthesized, comma-separated argument list. The
// opening parenthesis has already been consumed.
func (p *Parser) parseArgs() ([]ast.Node, error) {
	var args []ast.Node
	if p.current.Type == TokenParenClose {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.current.Type != TokenComma {
			break
		}
		p.advance()
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return args, nil
}

// parameter returns the shared Parameter node for name, creating it on
// first sight. All occurrences of one name alias the same node.
func (p *Parser) parameter(name string) *ast.Parameter {
	if param, ok := p.params[name]; ok {
		return param
	}
	param, err := ast.NewParameter(name)
	if err != nil {
		// Unreachable: the lexer never emits an empty name.
		panic(err)
	}
	p.params[name] = param
	return param
}

// unescape resolves the escape sequences of a string literal body.
func unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", types.Errorf(types.ErrSyntaxError, "trailing backslash in string literal")
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case '"':
			b.WriteByte('"')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'u':
			if i+4 >= len(s) {
				return "", types.Errorf(types.ErrSyntaxError, "truncated \\u escape")
			}
			code, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", types.Errorf(types.ErrSyntaxError, "invalid \\u escape")
			}
			b.WriteRune(rune(code))
			i += 4
		default:
			return "", types.Errorf(types.ErrSyntaxError, "unsupported escape \\%c", s[i])
		}
	}
	return b.String(), nil
}
