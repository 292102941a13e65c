package parser

import "strings"

var builtinNames = map[string]bool{
	"void": true, "bool": true, "char": true, "signed char": true, "unsigned char": true,
	"wchar_t": true, "char8_t": true, "char16_t": true, "char32_t": true,
	"short": true, "unsigned short": true, "int": true, "unsigned int": true,
	"long": true, "unsigned long": true, "long long": true, "unsigned long long": true,
	"float": true, "double": true, "long double": true,
}

var builtinKeywords = map[string]bool{
	"signed": true, "unsigned": true, "short": true, "long": true,
	"int": true, "char": true, "float": true, "double": true, "bool": true, "void": true,
	"wchar_t": true, "char8_t": true, "char16_t": true, "char32_t": true,
}

// builtinName folds a multiset of fundamental-type keywords into one
// canonical spelling ("long int unsigned" -> "unsigned long").
func builtinName(signed, unsigned, short bool, longs int, base string) (string, bool) {
	if signed && unsigned {
		return "", false
	}
	switch base {
	case "char":
		if short || longs > 0 {
			return "", false
		}
		if unsigned {
			return "unsigned char", true
		}
		if signed {
			return "signed char", true
		}
		return "char", true
	case "", "int":
		if (short && longs > 0) || longs > 2 {
			return "", false
		}
		name := "int"
		switch {
		case short:
			name = "short"
		case longs == 1:
			name = "long"
		case longs == 2:
			name = "long long"
		}
		if unsigned {
			name = "unsigned " + name
		}
		return name, true
	case "double":
		if signed || unsigned || short || longs > 1 {
			return "", false
		}
		if longs == 1 {
			return "long double", true
		}
		return "double", true
	}
	if signed || unsigned || short || longs > 0 {
		return "", false
	}
	return base, true
}

func (p *Parser) parseCV(t *TypeExpr) {
	for {
		switch {
		case p.matchKeyword("const"):
			t.Const = true
		case p.matchKeyword("volatile"):
			t.Volatile = true
		default:
			return
		}
	}
}

// parseTypeSpecifier parses cv-qualifiers and a type name, including template
// arguments, but no pointer or reference operators.
func (p *Parser) parseTypeSpecifier() (*TypeExpr, error) {
	t := &TypeExpr{Pos: p.current().Pos()}
	p.parseCV(t)

	switch {
	case p.check(TokenKeyword) && builtinKeywords[p.current().Value]:
		if err := p.parseBuiltin(t); err != nil {
			return nil, err
		}
	case p.checkKeyword("auto"):
		t.Name = "auto"
		p.advance()
	case p.checkKeyword("union"):
		return nil, syntaxErrorf(p.current(), "unions are not supported")
	default:
		// Elaborated and dependent type specifiers name the same type
		if p.checkKeyword("typename") || p.checkKeyword("class") || p.checkKeyword("struct") || p.checkKeyword("enum") {
			p.advance()
		}
		name, err := p.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		t.Name = name
		if p.checkValue("<") {
			args, err := p.parseTemplateArgs()
			if err != nil {
				return nil, err
			}
			t.Args = args
			if p.checkValue("::") {
				return nil, syntaxErrorf(p.current(), "member types of template instantiations are not supported")
			}
		}
	}

	p.parseCV(t)
	return t, nil
}

func (p *Parser) parseBuiltin(t *TypeExpr) error {
	start := p.current()
	var signed, unsigned, short bool
	longs := 0
	base := ""

loop:
	for p.check(TokenKeyword) {
		tok := p.current()
		switch tok.Value {
		case "signed":
			signed = true
		case "unsigned":
			unsigned = true
		case "short":
			short = true
		case "long":
			longs++
		case "const":
			t.Const = true
		case "volatile":
			t.Volatile = true
		default:
			if !builtinKeywords[tok.Value] {
				break loop
			}
			if base != "" {
				return semanticErrorf(tok.Pos(), tok.Value, "two or more data types in declaration")
			}
			base = tok.Value
		}
		p.advance()
	}

	name, ok := builtinName(signed, unsigned, short, longs, base)
	if !ok {
		return semanticErrorf(start.Pos(), "", "invalid combination of type specifiers")
	}
	t.Name = name
	return nil
}

// parseQualifiedName reads [::] ident (:: ident)*.
func (p *Parser) parseQualifiedName() (string, error) {
	var sb strings.Builder
	if p.matchValue("::") {
		sb.WriteString("::")
	}
	for {
		if !p.check(TokenIdent) {
			return "", syntaxErrorf(p.current(), "expected type name")
		}
		sb.WriteString(p.current().Value)
		p.advance()
		if !p.checkValue("::") || p.peek(1).Type != TokenIdent {
			return sb.String(), nil
		}
		p.advance()
		sb.WriteString("::")
	}
}

// parseTemplateArgs parses <arg, ...>. Arguments are parsed recursively, so
// commas and parentheses inside them never end the list early.
func (p *Parser) parseTemplateArgs() ([]TemplateArg, error) {
	open := p.current()
	p.advance() // skip <

	args := []TemplateArg{}
	if p.matchValue(">") {
		return args, nil
	}
	for {
		arg, err := p.parseTemplateArg(open)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch {
		case p.matchValue(","):
			continue
		case p.matchValue(">"):
			return args, nil
		case p.isAtEnd() || p.checkValue(";") || p.checkValue("{") || p.checkValue("}"):
			return nil, syntaxErrorf(open, "unmatched '<'")
		default:
			return nil, syntaxErrorf(p.current(), "expected ',' or '>' in template argument list")
		}
	}
}

func (p *Parser) parseTemplateArg(open Token) (TemplateArg, error) {
	if p.startsConstant() {
		toks, err := p.collectUntil(open, ",", ">")
		if err != nil {
			return TemplateArg{}, err
		}
		v, err := EvalConstExpr(toks, nil)
		if err != nil {
			return TemplateArg{}, err
		}
		return TemplateArg{Value: v, IsValue: true}, nil
	}
	t, err := p.parseTypeID()
	if err != nil {
		return TemplateArg{}, err
	}
	return TemplateArg{Type: t}, nil
}

func (p *Parser) startsConstant() bool {
	tok := p.current()
	switch tok.Type {
	case TokenNumber, TokenChar, TokenFloat:
		return true
	case TokenKeyword:
		return tok.Value == "true" || tok.Value == "false"
	case TokenOperator:
		return tok.Value == "-" || tok.Value == "+" || tok.Value == "~" || tok.Value == "!"
	case TokenPunctuation:
		return tok.Value == "("
	}
	return false
}

// parsePtrOperators applies * & && to t. cv-qualifiers on the pointer itself
// are accepted and not recorded.
func (p *Parser) parsePtrOperators(t *TypeExpr) error {
	for {
		tok := p.current()
		switch {
		case tok.Value == "*" && tok.Type == TokenOperator:
			if t.Ref != NoRef {
				return semanticErrorf(tok.Pos(), "", "pointer to reference is not allowed")
			}
			p.advance()
			t.Pointers++
			for p.matchKeyword("const") || p.matchKeyword("volatile") {
			}
		case (tok.Value == "&" || tok.Value == "&&") && tok.Type == TokenOperator:
			if t.Ref != NoRef {
				return semanticErrorf(tok.Pos(), "", "reference to reference is not allowed")
			}
			p.advance()
			t.Ref = LValueRef
			if tok.Value == "&&" {
				t.Ref = RValueRef
			}
		default:
			return nil
		}
	}
}

// parseTypeID parses a complete type with no declarator name, as written in
// template arguments, alias targets and trailing return types. A parameter
// list after the type turns it into a function type: void(int).
func (p *Parser) parseTypeID() (*TypeExpr, error) {
	t, err := p.parseTypeSpecifier()
	if err != nil {
		return nil, err
	}
	if err := p.parsePtrOperators(t); err != nil {
		return nil, err
	}
	if !p.checkValue("(") {
		return t, nil
	}
	if p.peek(1).Value == "*" {
		// R(*)(Args...)
		open := p.current()
		p.advance()
		p.advance()
		if !p.matchValue(")") {
			return nil, syntaxErrorf(open, "unmatched '('")
		}
		sig, err := p.parseParamList()
		if err != nil {
			return nil, err
		}
		sig.Result = t
		return &TypeExpr{Func: sig, Pointers: 1, Pos: t.Pos}, nil
	}
	sig, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	sig.Result = t
	fn := &TypeExpr{Func: sig, Pos: t.Pos}
	return fn, p.parsePtrOperators(fn)
}

// declarator is one name introduced by a declaration together with its
// complete type.
type declarator struct {
	name string
	pos  Pos
	typ  *TypeExpr
}

// parseDeclarator parses ptr-operators, an optional (possibly qualified)
// name and array extents on top of base. Function pointer declarators of the
// form (*name)(params) are handled here as well.
func (p *Parser) parseDeclarator(base *TypeExpr) (declarator, error) {
	t := *base
	t.Extents = nil
	d := declarator{typ: &t, pos: p.current().Pos()}
	if err := p.parsePtrOperators(&t); err != nil {
		return d, err
	}

	if p.checkValue("(") && p.peek(1).Value == "*" {
		open := p.current()
		p.advance()
		p.advance()
		if p.check(TokenIdent) {
			d.name, d.pos = p.current().Value, p.current().Pos()
			p.advance()
		}
		if !p.matchValue(")") {
			return d, syntaxErrorf(open, "unmatched '('")
		}
		sig, err := p.parseParamList()
		if err != nil {
			return d, err
		}
		sig.Result = &t
		d.typ = &TypeExpr{Func: sig, Pointers: 1, Pos: t.Pos}
		return d, nil
	}

	if p.check(TokenIdent) {
		d.name, d.pos = p.current().Value, p.current().Pos()
		p.advance()
		for p.checkValue("::") && p.peek(1).Type == TokenIdent {
			p.advance()
			d.name += "::" + p.current().Value
			p.advance()
		}
	}
	return d, p.parseExtents(d.typ)
}

// parseExtents parses [N][M]... array extents.
func (p *Parser) parseExtents(t *TypeExpr) error {
	for p.checkValue("[") {
		open := p.current()
		p.advance()
		if p.checkValue("]") {
			return semanticErrorf(open.Pos(), "", "array without extent")
		}
		toks, err := p.collectUntil(open, "]")
		if err != nil {
			return err
		}
		p.advance() // skip ]
		n, err := EvalConstExpr(toks, nil)
		if err != nil {
			return err
		}
		if n <= 0 {
			return semanticErrorf(open.Pos(), "", "array extent must be positive, got %d", n)
		}
		t.Extents = append(t.Extents, n)
	}
	return nil
}

// parseParamList parses a parenthesised parameter list with the cursor on
// the opening paren.
func (p *Parser) parseParamList() (*FuncSignature, error) {
	open := p.current()
	if !p.matchValue("(") {
		return nil, syntaxErrorf(open, "expected '('")
	}
	sig := &FuncSignature{}
	if p.matchValue(")") {
		return sig, nil
	}
	if p.checkKeyword("void") && p.peek(1).Value == ")" {
		p.advance()
		p.advance()
		return sig, nil
	}

	for {
		if p.matchValue("...") {
			sig.Variadic = true
			if !p.matchValue(")") {
				return nil, syntaxErrorf(p.current(), "expected ')' after '...'")
			}
			return sig, nil
		}
		if err := p.skipAttributes(); err != nil {
			return nil, err
		}
		base, err := p.parseTypeSpecifier()
		if err != nil {
			return nil, err
		}
		d, err := p.parseParamDeclarator(base)
		if err != nil {
			return nil, err
		}
		if p.matchValue("=") {
			if _, err := p.collectUntil(open, ",", ")"); err != nil {
				return nil, err
			}
		}
		sig.Params = append(sig.Params, Param{Name: d.name, Type: d.typ})

		switch {
		case p.matchValue(","):
			continue
		case p.matchValue(")"):
			return sig, nil
		case p.isAtEnd() || p.checkValue(";") || p.checkValue("{") || p.checkValue("}"):
			return nil, syntaxErrorf(open, "unmatched '('")
		default:
			return nil, syntaxErrorf(p.current(), "expected ',' or ')' in parameter list")
		}
	}
}

func (p *Parser) parseParamDeclarator(base *TypeExpr) (declarator, error) {
	t := *base
	d := declarator{typ: &t, pos: p.current().Pos()}
	if err := p.parsePtrOperators(&t); err != nil {
		return d, err
	}
	if p.checkValue("(") {
		// Function pointer parameter; reuse the member declarator rules
		return p.parseDeclarator(&t)
	}
	if p.check(TokenIdent) {
		d.name, d.pos = p.current().Value, p.current().Pos()
		p.advance()
	}
	if p.checkValue("[") {
		// A parameter of array type adjusts to a pointer to its element type
		open := p.current()
		p.advance()
		if !p.matchValue("]") {
			if _, err := p.collectUntil(open, "]"); err != nil {
				return d, err
			}
			p.advance()
		}
		t.Pointers++
		if err := p.parseExtents(&t); err != nil {
			return d, err
		}
	}
	return d, nil
}
