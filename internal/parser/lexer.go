package parser

import (
	"fmt"
	"strings"
)

var keywords = map[string]bool{
	"class": true, "struct": true, "union": true, "enum": true,
	"public": true, "private": true, "protected": true,
	"virtual": true, "const": true, "volatile": true, "static": true,
	"mutable": true, "inline": true, "explicit": true, "constexpr": true,
	"friend": true, "extern": true, "operator": true, "noexcept": true,
	"void": true, "int": true, "char": true, "float": true, "double": true,
	"bool": true, "long": true, "short": true, "unsigned": true, "signed": true,
	"wchar_t": true, "char8_t": true, "char16_t": true, "char32_t": true,
	"auto": true, "typedef": true, "using": true, "namespace": true,
	"template": true, "typename": true, "static_assert": true,
	"nullptr": true, "true": true, "false": true, "default": true, "delete": true,
}

// Lexer tokenizes C++ source code
type Lexer struct {
	input     string
	pos       int
	line      int
	column    int
	lineStart bool // only whitespace and comments seen since the last newline
	tokens    []Token
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:     input,
		pos:       0,
		line:      1,
		column:    1,
		lineStart: true,
	}
}

// Tokenize is shorthand for NewLexer(input).Tokenize().
func Tokenize(input string) ([]Token, error) {
	return NewLexer(input).Tokenize()
}

// Tokenize processes the entire input and returns all tokens, terminated by
// a TokenEOF. Preprocessor lines come back as single TokenDirective tokens.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		if err := l.skipWhitespaceAndComments(); err != nil {
			return nil, err
		}
		if l.pos >= len(l.input) {
			break
		}

		ch := l.input[l.pos]

		// Check for :: scope operator before treating : as punctuation
		if ch == ':' && l.peek() == ':' {
			l.addToken(TokenOperator, "::")
			l.advance()
			l.advance()
			l.lineStart = false
			continue
		}

		var err error
		switch {
		case ch == '#' && l.lineStart:
			l.readDirective()
		case ch == '"' || ch == '\'':
			err = l.readQuoted(l.pos, l.line, l.column)
		case isIdentStart(ch):
			err = l.readIdentifier()
		case isDigit(ch) || (ch == '.' && isDigit(l.peek())):
			err = l.readNumber()
		case ch == '.' && strings.HasPrefix(l.input[l.pos:], "..."):
			l.addToken(TokenPunctuation, "...")
			l.advance()
			l.advance()
			l.advance()
		case l.isOperator(ch):
			l.readOperator()
		case l.isPunctuation(ch):
			l.addToken(TokenPunctuation, string(ch))
			l.advance()
		default:
			err = &LexError{Pos: l.position(), Msg: fmt.Sprintf("unexpected character %q", ch)}
		}
		if err != nil {
			return nil, err
		}
		l.lineStart = false
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Line: l.line, Column: l.column})
	return l.tokens, nil
}

func (l *Lexer) position() Pos {
	return Pos{Line: l.line, Column: l.column}
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.column = 1
			l.lineStart = true
		} else {
			l.column++
		}
		l.pos++
	}
}

func (l *Lexer) peek() byte {
	if l.pos+1 < len(l.input) {
		return l.input[l.pos+1]
	}
	return 0
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' || ch == '\v' {
			l.advance()
		} else if ch == '\\' && (l.peek() == '\n' || (l.peek() == '\r' && l.pos+2 < len(l.input) && l.input[l.pos+2] == '\n')) {
			// Line splice outside a directive
			l.advance()
		} else if ch == '/' && l.peek() == '/' {
			// Single-line comment
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.advance()
			}
		} else if ch == '/' && l.peek() == '*' {
			// Multi-line comment
			start := l.position()
			l.advance() // skip /
			l.advance() // skip *
			closed := false
			for l.pos < len(l.input)-1 {
				if l.input[l.pos] == '*' && l.peek() == '/' {
					l.advance() // skip *
					l.advance() // skip /
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return &LexError{Pos: start, Msg: "unterminated block comment"}
			}
		} else {
			break
		}
	}
	return nil
}

// readDirective consumes a preprocessor line, including continuations, and
// emits it as one opaque token. Nothing inside it is interpreted.
func (l *Lexer) readDirective() {
	line, col := l.line, l.column
	var sb strings.Builder
	// closing byte of the string or header name being read, 0 outside one
	var closing byte
loop:
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		// Handle line continuation
		if l.input[l.pos] == '\\' && l.peek() == '\n' {
			sb.WriteByte(' ')
			l.advance()
			l.advance()
			continue
		}
		ch := l.input[l.pos]
		switch {
		case closing != 0:
			if ch == '\\' && closing == '"' && l.peek() != '\n' && l.peek() != 0 {
				sb.WriteByte(ch)
				l.advance()
				ch = l.input[l.pos]
			} else if ch == closing {
				closing = 0
			}
		case ch == '"':
			closing = '"'
		case ch == '<' && isIncludeDirective(sb.String()):
			closing = '>'
		case ch == '/' && (l.peek() == '/' || l.peek() == '*'):
			break loop
		}
		sb.WriteByte(ch)
		l.advance()
	}
	l.tokens = append(l.tokens, Token{
		Type:   TokenDirective,
		Value:  strings.TrimSpace(sb.String()),
		Line:   line,
		Column: col,
	})
}

// isIncludeDirective reports whether text read so far is "#include" or a
// variant, so that a following '<' opens a header name.
func isIncludeDirective(text string) bool {
	name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "#"))
	return name == "include" || name == "include_next" || name == "import"
}

// readQuoted reads a string or char literal whose opening quote is at l.pos.
// start is the offset of the token's first byte, which precedes the quote
// when the literal carries an encoding prefix.
func (l *Lexer) readQuoted(start, line, col int) error {
	quote := l.input[l.pos]
	kind, what := TokenString, "string"
	if quote == '\'' {
		kind, what = TokenChar, "character"
	}
	l.advance() // skip opening quote

	n := 0
	for {
		if l.pos >= len(l.input) || l.input[l.pos] == '\n' {
			return &LexError{Pos: Pos{Line: line, Column: col}, Msg: "unterminated " + what + " literal"}
		}
		ch := l.input[l.pos]
		l.advance()
		if ch == '\\' {
			if l.pos >= len(l.input) {
				return &LexError{Pos: Pos{Line: line, Column: col}, Msg: "unterminated " + what + " literal"}
			}
			l.advance()
		} else if ch == quote {
			break
		}
		n++
	}
	if kind == TokenChar && n == 0 {
		return &LexError{Pos: Pos{Line: line, Column: col}, Msg: "empty character literal"}
	}

	l.tokens = append(l.tokens, Token{
		Type:   kind,
		Value:  l.input[start:l.pos],
		Line:   line,
		Column: col,
	})
	return nil
}

// readRawString reads R"delim( ... )delim" with the opening quote at l.pos.
func (l *Lexer) readRawString(start, line, col int) error {
	l.advance() // skip "
	delimStart := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '(' {
		if c := l.input[l.pos]; c == '\n' || c == ' ' || c == ')' || c == '\\' || l.pos-delimStart > 16 {
			return &LexError{Pos: Pos{Line: line, Column: col}, Msg: "invalid raw string delimiter"}
		}
		l.advance()
	}
	if l.pos >= len(l.input) {
		return &LexError{Pos: Pos{Line: line, Column: col}, Msg: "unterminated raw string literal"}
	}
	closing := ")" + l.input[delimStart:l.pos] + `"`
	end := strings.Index(l.input[l.pos:], closing)
	if end < 0 {
		return &LexError{Pos: Pos{Line: line, Column: col}, Msg: "unterminated raw string literal"}
	}
	stop := l.pos + end + len(closing)
	for l.pos < stop {
		l.advance()
	}
	l.tokens = append(l.tokens, Token{
		Type:   TokenString,
		Value:  l.input[start:l.pos],
		Line:   line,
		Column: col,
	})
	return nil
}

func (l *Lexer) readIdentifier() error {
	startLine := l.line
	startCol := l.column
	start := l.pos

	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.advance()
	}

	value := l.input[start:l.pos]
	if l.pos < len(l.input) {
		switch next := l.input[l.pos]; {
		case next == '"' && isRawPrefix(value):
			return l.readRawString(start, startLine, startCol)
		case (next == '"' || next == '\'') && isEncodingPrefix(value):
			return l.readQuoted(start, startLine, startCol)
		}
	}

	tokenType := TokenIdent
	if keywords[value] {
		tokenType = TokenKeyword
	}

	l.tokens = append(l.tokens, Token{
		Type:   tokenType,
		Value:  value,
		Line:   startLine,
		Column: startCol,
	})
	return nil
}

func (l *Lexer) readNumber() error {
	startLine := l.line
	startCol := l.column
	start := l.pos

	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if isIdentChar(ch) || ch == '.' {
			l.advance()
		} else if ch == '\'' && isIdentChar(l.peek()) {
			l.advance()
		} else if (ch == '+' || ch == '-') && endsWithExponent(l.input[start:l.pos]) {
			l.advance()
		} else {
			break
		}
	}

	text := l.input[start:l.pos]
	kind, msg := classifyNumber(text)
	if msg != "" {
		return &LexError{Pos: Pos{Line: startLine, Column: startCol}, Msg: fmt.Sprintf("invalid numeric literal %q: %s", text, msg)}
	}

	l.tokens = append(l.tokens, Token{
		Type:   kind,
		Value:  text,
		Line:   startLine,
		Column: startCol,
	})
	return nil
}

func (l *Lexer) isOperator(ch byte) bool {
	return ch == '+' || ch == '-' || ch == '*' || ch == '/' || ch == '=' ||
		ch == '<' || ch == '>' || ch == '!' || ch == '&' || ch == '|' ||
		ch == '^' || ch == '%' || ch == '~' || ch == '?'
}

// readOperator never merges ">>" or ">=" so that closing angle brackets of
// nested template arguments always arrive one at a time.
func (l *Lexer) readOperator() {
	startLine := l.line
	startCol := l.column
	start := l.pos

	// Handle multi-character operators
	if l.pos+1 < len(l.input) {
		two := l.input[l.pos : l.pos+2]
		if two == "->" || two == "==" || two == "!=" || two == "<=" ||
			two == "&&" || two == "||" || two == "++" || two == "--" ||
			two == "+=" || two == "-=" || two == "*=" || two == "/=" ||
			two == "<<" {
			l.advance()
			l.advance()
			l.tokens = append(l.tokens, Token{
				Type:   TokenOperator,
				Value:  two,
				Line:   startLine,
				Column: startCol,
			})
			return
		}
	}

	l.advance()
	l.tokens = append(l.tokens, Token{
		Type:   TokenOperator,
		Value:  l.input[start:l.pos],
		Line:   startLine,
		Column: startCol,
	})
}

func (l *Lexer) isPunctuation(ch byte) bool {
	return ch == '{' || ch == '}' || ch == '(' || ch == ')' ||
		ch == '[' || ch == ']' || ch == ';' || ch == ',' ||
		ch == ':' || ch == '.'
}

func (l *Lexer) addToken(tokenType TokenType, value string) {
	l.tokens = append(l.tokens, Token{
		Type:   tokenType,
		Value:  value,
		Line:   l.line,
		Column: l.column,
	})
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentChar(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }

func isEncodingPrefix(s string) bool {
	return s == "L" || s == "u" || s == "U" || s == "u8"
}

func isRawPrefix(s string) bool {
	return s == "R" || (strings.HasSuffix(s, "R") && isEncodingPrefix(s[:len(s)-1]))
}

// endsWithExponent reports whether a sign following text belongs to the
// literal's exponent (1e+5, 0x1p-3) rather than being an operator.
func endsWithExponent(text string) bool {
	if text == "" {
		return false
	}
	last := text[len(text)-1] | 0x20
	hex := len(text) > 1 && text[0] == '0' && text[1]|0x20 == 'x'
	if hex {
		return last == 'p'
	}
	return last == 'e'
}

var intSuffixes = map[string]bool{
	"": true, "u": true, "l": true, "ul": true, "lu": true, "ll": true,
	"ull": true, "llu": true, "z": true, "uz": true, "zu": true,
}

// classifyNumber validates a scanned pp-number and reports whether it is an
// integer or floating literal. A non-empty msg explains why it is invalid.
func classifyNumber(text string) (kind TokenType, msg string) {
	s := text
	if strings.Contains(s, "'") {
		if strings.Contains(s, "''") || strings.HasSuffix(s, "'") {
			return 0, "misplaced digit separator"
		}
		s = strings.ReplaceAll(s, "'", "")
	}
	s = strings.ToLower(s)

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0b") {
		isValid := isHexDigit
		name := "hexadecimal"
		if s[1] == 'b' {
			isValid = func(c byte) bool { return c == '0' || c == '1' }
			name = "binary"
		}
		i := 2
		for i < len(s) && isValid(s[i]) {
			i++
		}
		if s[1] == 'x' && i < len(s) && (s[i] == '.' || s[i] == 'p') {
			return classifyHexFloat(s[i:], i > 2)
		}
		if i == 2 {
			return 0, name + " literal has no digits"
		}
		if !intSuffixes[s[i:]] {
			return 0, fmt.Sprintf("invalid suffix %q", s[i:])
		}
		return TokenNumber, ""
	}

	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intDigits := i
	isFloat := false
	if i < len(s) && s[i] == '.' {
		isFloat = true
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && s[i] == 'e' {
		isFloat = true
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expStart := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == expStart {
			return 0, "exponent has no digits"
		}
	}

	suffix := s[i:]
	if isFloat {
		if suffix != "" && suffix != "f" && suffix != "l" {
			return 0, fmt.Sprintf("invalid suffix %q", suffix)
		}
		return TokenFloat, ""
	}
	if !intSuffixes[suffix] {
		return 0, fmt.Sprintf("invalid suffix %q", suffix)
	}
	if intDigits > 1 && s[0] == '0' {
		for _, c := range s[1:intDigits] {
			if c > '7' {
				return 0, "invalid digit in octal literal"
			}
		}
	}
	return TokenNumber, ""
}

// classifyHexFloat checks the part of a hexadecimal literal after its
// integer digits: an optional fraction and a mandatory binary exponent.
func classifyHexFloat(s string, haveDigits bool) (TokenType, string) {
	i := 0
	if s[0] == '.' {
		i++
		for i < len(s) && isHexDigit(s[i]) {
			i++
			haveDigits = true
		}
	}
	if !haveDigits {
		return 0, "hexadecimal literal has no digits"
	}
	if i >= len(s) || s[i] != 'p' {
		return 0, "hexadecimal floating literal requires an exponent"
	}
	i++
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	expStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == expStart {
		return 0, "exponent has no digits"
	}
	if suffix := s[i:]; suffix != "" && suffix != "f" && suffix != "l" {
		return 0, fmt.Sprintf("invalid suffix %q", suffix)
	}
	return TokenFloat, ""
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f')
}
