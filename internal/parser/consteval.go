package parser

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// EvalConstExpr evaluates an integral constant expression such as the
// initializer of an enumerator or an array extent. Identifiers are looked up
// through lookup, which may be nil when no names are in scope.
//
// Supported: integer and character literals, true/false, identifiers,
// parentheses, unary - + ~ !, and the binary operators * / % + - << >> & ^ |
// with C++ precedence. Arithmetic is done in int64 and overflow is an error.
func EvalConstExpr(tokens []Token, lookup func(name string) (int64, bool)) (int64, error) {
	if len(tokens) == 0 {
		return 0, &SyntaxError{Msg: "empty constant expression"}
	}
	e := &constEval{toks: tokens, lookup: lookup}
	v, err := e.binary(0)
	if err != nil {
		return 0, err
	}
	if e.pos < len(e.toks) {
		return 0, syntaxErrorf(e.toks[e.pos], "unexpected token in constant expression")
	}
	return v, nil
}

type constEval struct {
	toks   []Token
	pos    int
	lookup func(string) (int64, bool)
}

// binary operator precedence, higher binds tighter
var binaryPrec = map[string]int{
	"|": 1, "^": 2, "&": 3, "<<": 4, ">>": 4,
	"+": 5, "-": 5, "*": 6, "/": 6, "%": 6,
}

func (e *constEval) cur() (Token, bool) {
	if e.pos < len(e.toks) {
		return e.toks[e.pos], true
	}
	return Token{}, false
}

// peekOp returns the binary operator at the cursor and how many tokens it
// spans. ">>" arrives from the lexer as two adjacent '>' tokens.
func (e *constEval) peekOp() (string, int) {
	tok, ok := e.cur()
	if !ok || tok.Type != TokenOperator {
		return "", 0
	}
	if tok.Value == ">" && e.pos+1 < len(e.toks) {
		next := e.toks[e.pos+1]
		if next.Value == ">" && next.Line == tok.Line && next.Column == tok.Column+1 {
			return ">>", 2
		}
	}
	if _, ok := binaryPrec[tok.Value]; ok {
		return tok.Value, 1
	}
	return "", 0
}

func (e *constEval) binary(minPrec int) (int64, error) {
	lhs, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		op, width := e.peekOp()
		prec, ok := binaryPrec[op]
		if !ok || prec <= minPrec {
			return lhs, nil
		}
		opTok := e.toks[e.pos]
		e.pos += width
		rhs, err := e.binary(prec)
		if err != nil {
			return 0, err
		}
		lhs, err = applyBinary(opTok, op, lhs, rhs)
		if err != nil {
			return 0, err
		}
	}
}

func (e *constEval) unary() (int64, error) {
	tok, ok := e.cur()
	if !ok {
		return 0, &SyntaxError{Msg: "unexpected end of constant expression"}
	}
	if tok.Type == TokenOperator {
		switch tok.Value {
		case "-", "+", "~", "!":
			e.pos++
			v, err := e.unary()
			if err != nil {
				return 0, err
			}
			switch tok.Value {
			case "-":
				if v == math.MinInt64 {
					return 0, semanticErrorf(tok.Pos(), "", "integer overflow in constant expression")
				}
				return -v, nil
			case "~":
				return ^v, nil
			case "!":
				if v == 0 {
					return 1, nil
				}
				return 0, nil
			}
			return v, nil
		}
	}
	return e.primary()
}

func (e *constEval) primary() (int64, error) {
	tok, _ := e.cur()
	switch {
	case tok.Type == TokenNumber:
		e.pos++
		return parseIntLiteral(tok)
	case tok.Type == TokenChar:
		e.pos++
		return parseCharLiteral(tok)
	case tok.Type == TokenKeyword && (tok.Value == "true" || tok.Value == "false"):
		e.pos++
		if tok.Value == "true" {
			return 1, nil
		}
		return 0, nil
	case tok.Value == "(" && tok.Type == TokenPunctuation:
		e.pos++
		v, err := e.binary(0)
		if err != nil {
			return 0, err
		}
		if closing, ok := e.cur(); !ok || closing.Value != ")" {
			return 0, syntaxErrorf(tok, "unmatched '('")
		}
		e.pos++
		return v, nil
	case tok.Type == TokenIdent || (tok.Type == TokenOperator && tok.Value == "::"):
		return e.name()
	case tok.Type == TokenFloat:
		return 0, semanticErrorf(tok.Pos(), tok.Value, "floating-point value in integral constant expression")
	}
	return 0, syntaxErrorf(tok, "expected constant expression")
}

func (e *constEval) name() (int64, error) {
	first := e.toks[e.pos]
	var parts []string
	e.matchScope()
	for {
		tok, ok := e.cur()
		if !ok || tok.Type != TokenIdent {
			return 0, syntaxErrorf(first, "expected identifier")
		}
		parts = append(parts, tok.Value)
		e.pos++
		if !e.matchScope() {
			break
		}
	}
	name := strings.Join(parts, "::")
	if e.lookup != nil {
		if v, ok := e.lookup(name); ok {
			return v, nil
		}
	}
	return 0, semanticErrorf(first.Pos(), name, "not an integral constant in scope")
}

func (e *constEval) matchScope() bool {
	if tok, ok := e.cur(); ok && tok.Type == TokenOperator && tok.Value == "::" {
		e.pos++
		return true
	}
	return false
}

func applyBinary(tok Token, op string, a, b int64) (int64, error) {
	overflow := semanticErrorf(tok.Pos(), "", "integer overflow in constant expression")
	switch op {
	case "+":
		if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
			return 0, overflow
		}
		return a + b, nil
	case "-":
		if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
			return 0, overflow
		}
		return a - b, nil
	case "*":
		if a != 0 && b != 0 {
			r := a * b
			if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
				return 0, overflow
			}
			return r, nil
		}
		return 0, nil
	case "/", "%":
		if b == 0 {
			return 0, semanticErrorf(tok.Pos(), "", "division by zero in constant expression")
		}
		if a == math.MinInt64 && b == -1 {
			return 0, overflow
		}
		if op == "/" {
			return a / b, nil
		}
		return a % b, nil
	case "<<", ">>":
		if b < 0 || b > 63 {
			return 0, semanticErrorf(tok.Pos(), "", "shift count %d out of range", b)
		}
		if op == "<<" {
			return a << uint(b), nil
		}
		return a >> uint(b), nil
	case "&":
		return a & b, nil
	case "^":
		return a ^ b, nil
	case "|":
		return a | b, nil
	}
	return 0, syntaxErrorf(tok, "unsupported operator")
}

// parseIntLiteral converts a validated integer literal token to int64.
func parseIntLiteral(tok Token) (int64, error) {
	s := strings.ToLower(strings.ReplaceAll(tok.Value, "'", ""))
	s = strings.TrimRight(s, "ulz")
	base := 10
	switch {
	case strings.HasPrefix(s, "0x"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0b"):
		base, s = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	u, err := strconv.ParseUint(s, base, 64)
	if err != nil || u > math.MaxInt64 {
		return 0, semanticErrorf(tok.Pos(), tok.Value, "integer literal does not fit in int64")
	}
	return int64(u), nil
}

var simpleEscapes = map[byte]rune{
	'n': '\n', 't': '\t', 'r': '\r', '0': 0, 'a': '\a', 'b': '\b',
	'f': '\f', 'v': '\v', '\\': '\\', '\'': '\'', '"': '"', '?': '?',
}

// parseCharLiteral returns the code point of a single-character literal,
// with or without an encoding prefix.
func parseCharLiteral(tok Token) (int64, error) {
	s := tok.Value[strings.IndexByte(tok.Value, '\'')+1 : len(tok.Value)-1]
	bad := semanticErrorf(tok.Pos(), tok.Value, "unsupported character literal")

	if s[0] != '\\' {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError || size != len(s) {
			return 0, bad
		}
		return int64(r), nil
	}

	switch c := s[1]; {
	case c == 'x':
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, bad
		}
		return int64(v), nil
	case c >= '0' && c <= '7':
		if len(s) > 4 {
			return 0, bad
		}
		v, err := strconv.ParseUint(s[1:], 8, 32)
		if err != nil {
			return 0, bad
		}
		return int64(v), nil
	case len(s) == 2:
		if r, ok := simpleEscapes[c]; ok {
			return int64(r), nil
		}
	}
	return 0, bad
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
