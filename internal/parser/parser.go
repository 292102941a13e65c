package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Parser builds a TranslationUnit from C++ tokens
type Parser struct {
	tokens []Token
	pos    int
	scope  []string
	decls  []Decl
}

// ParseFile parses a single C++ header
func ParseFile(filename string) (*TranslationUnit, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	absPath, _ := filepath.Abs(filename)
	tu, err := Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	tu.File = absPath
	return tu, nil
}

// Parse tokenizes and parses one translation unit.
func Parse(src string) (*TranslationUnit, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}

// ParseTokens parses a token stream produced by Tokenize. Directive tokens
// are dropped; names are recorded as written and looked up later.
func ParseTokens(tokens []Token) (*TranslationUnit, error) {
	filtered := make([]Token, 0, len(tokens)+1)
	for _, tok := range tokens {
		if tok.Type != TokenDirective {
			filtered = append(filtered, tok)
		}
	}
	if len(filtered) == 0 || filtered[len(filtered)-1].Type != TokenEOF {
		eof := Token{Type: TokenEOF}
		if len(filtered) > 0 {
			last := filtered[len(filtered)-1]
			eof.Line, eof.Column = last.Line, last.Column+len(last.Value)
		}
		filtered = append(filtered, eof)
	}

	p := &Parser{tokens: filtered}
	if err := p.parseDeclarations(false, Token{}); err != nil {
		return nil, err
	}
	return &TranslationUnit{Decls: p.decls}, nil
}

func (p *Parser) scopeName() string {
	return strings.Join(p.scope, "::")
}

// parseDeclarations parses namespace-scope declarations until EOF, or until
// the '}' matching open when nested. The closing brace is left unconsumed.
func (p *Parser) parseDeclarations(nested bool, open Token) error {
	for {
		if p.isAtEnd() {
			if nested {
				return syntaxErrorf(open, "unmatched '{'")
			}
			return nil
		}
		if p.checkValue("}") {
			if nested {
				return nil
			}
			return syntaxErrorf(p.current(), "unmatched '}'")
		}
		if err := p.parseTopLevel(); err != nil {
			return err
		}
	}
}

func (p *Parser) parseTopLevel() error {
	switch {
	case p.matchValue(";"):
		return nil
	case p.checkValue("[") && p.peek(1).Value == "[":
		return p.skipAttributes()
	case p.checkKeyword("namespace"):
		return p.parseNamespace()
	case p.checkKeyword("inline") && p.peek(1).Value == "namespace":
		p.advance()
		return p.parseNamespace()
	case p.checkKeyword("template"):
		return syntaxErrorf(p.current(), "template declarations are not supported")
	case p.checkKeyword("static_assert"):
		return p.skipStatement()
	case p.checkKeyword("extern") && p.peek(1).Type == TokenString:
		p.advance()
		p.advance()
		if p.checkValue("{") {
			open := p.current()
			p.advance()
			if err := p.parseDeclarations(true, open); err != nil {
				return err
			}
			p.advance() // skip }
		}
		return nil
	case p.checkKeyword("typedef"):
		return p.parseTypedef()
	case p.checkKeyword("using"):
		return p.parseUsing()
	case p.checkKeyword("enum"):
		e, err := p.parseEnum()
		if err != nil {
			return err
		}
		if e.Name == "" {
			return syntaxErrorf(p.current(), "anonymous enums are not supported")
		}
		return p.expect(";")
	case p.checkKeyword("union"):
		return syntaxErrorf(p.current(), "unions are not supported")
	case (p.checkKeyword("class") || p.checkKeyword("struct")) && p.classHead() != headNone:
		return p.parseClassDeclaration()
	default:
		return p.parseFunction()
	}
}

func (p *Parser) parseNamespace() error {
	p.advance() // skip namespace

	var names []string
	for p.check(TokenIdent) {
		names = append(names, p.current().Value)
		p.advance()
		if !p.matchValue("::") {
			break
		}
		p.matchKeyword("inline")
	}
	if p.checkValue("=") {
		// namespace alias
		return p.skipStatement()
	}

	open := p.current()
	if !p.matchValue("{") {
		return syntaxErrorf(open, "expected '{' after namespace")
	}
	saved := p.scope
	p.scope = append(slices.Clone(saved), names...)
	err := p.parseDeclarations(true, open)
	p.scope = saved
	if err != nil {
		return err
	}
	p.advance() // skip }
	return nil
}

type classHeadKind int

const (
	headNone classHeadKind = iota
	headDefinition
	headForward
)

// classHead looks ahead from a class/struct keyword to tell a definition or
// forward declaration from an elaborated type in some other declaration.
func (p *Parser) classHead() classHeadKind {
	i := p.pos + 1
	for i+1 < len(p.tokens) && p.tokens[i].Value == "[" && p.tokens[i+1].Value == "[" {
		for i < len(p.tokens) && p.tokens[i].Value != "]" {
			i++
		}
		i += 2
	}
	named := false
	if i < len(p.tokens) && p.tokens[i].Type == TokenIdent {
		named = true
		i++
	}
	if i < len(p.tokens) && p.tokens[i].Type == TokenIdent && p.tokens[i].Value == "final" {
		i++
	}
	if i >= len(p.tokens) {
		return headNone
	}
	switch p.tokens[i].Value {
	case "{", ":":
		return headDefinition
	case ";":
		if named {
			return headForward
		}
	}
	return headNone
}

func (p *Parser) parseClassDeclaration() error {
	if p.classHead() == headForward {
		p.advance() // skip class/struct
		if err := p.skipAttributes(); err != nil {
			return err
		}
		p.decls = append(p.decls, &ForwardDecl{Name: p.current().Value, Scope: p.scopeName(), Pos: p.current().Pos()})
		p.advance()
		return p.expect(";")
	}

	c, err := p.parseClass()
	if err != nil {
		return err
	}
	if c.Name == "" {
		return syntaxErrorf(p.current(), "anonymous classes are not supported")
	}
	if p.check(TokenIdent) || p.checkValue("*") {
		return syntaxErrorf(p.current(), "variable declarations after a class body are not supported")
	}
	return p.expect(";")
}

// parseClass parses a class-specifier up to and including its closing brace.
// The class is recorded before its body so that hoisted nested declarations
// follow it in source order.
func (p *Parser) parseClass() (*ClassDecl, error) {
	kw := p.current()
	p.advance() // skip class/struct

	class := &ClassDecl{
		IsStruct: kw.Value == "struct",
		Scope:    p.scopeName(),
		Pos:      kw.Pos(),
	}
	if err := p.skipAttributes(); err != nil {
		return nil, err
	}
	if p.check(TokenIdent) && p.current().Value != "final" {
		class.Name = p.current().Value
		class.Pos = p.current().Pos()
		p.advance()
	}
	if p.check(TokenIdent) && p.current().Value == "final" {
		class.IsFinal = true
		p.advance()
	}

	if p.matchValue(":") {
		base, err := p.parseBase(class.IsStruct)
		if err != nil {
			return nil, err
		}
		class.Base = base
	}

	p.decls = append(p.decls, class)
	if err := p.parseClassBody(class); err != nil {
		return nil, err
	}
	return class, nil
}

func (p *Parser) parseBase(isStruct bool) (*BaseSpec, error) {
	base := &BaseSpec{Access: AccessPrivate}
	if isStruct {
		base.Access = AccessPublic
	}
	for {
		switch {
		case p.matchKeyword("virtual"):
			base.Virtual = true
		case p.matchKeyword("public"):
			base.Access = AccessPublic
		case p.matchKeyword("protected"):
			base.Access = AccessProtected
		case p.matchKeyword("private"):
			base.Access = AccessPrivate
		default:
			t, err := p.parseTypeSpecifier()
			if err != nil {
				return nil, err
			}
			if p.checkValue(",") {
				return nil, syntaxErrorf(p.current(), "multiple inheritance is not supported")
			}
			base.Type = t
			return base, nil
		}
	}
}

func (p *Parser) parseClassBody(class *ClassDecl) error {
	open := p.current()
	if !p.matchValue("{") {
		return syntaxErrorf(open, "expected '{'")
	}

	access := AccessPrivate
	if class.IsStruct {
		access = AccessPublic
	}

	p.scope = append(p.scope, class.Name)
	defer func() { p.scope = p.scope[:len(p.scope)-1] }()

	for {
		if p.isAtEnd() {
			return syntaxErrorf(open, "unmatched '{'")
		}
		if p.checkValue("}") {
			class.EndLine = p.current().Line
			p.advance()
			return nil
		}

		nestedType := p.checkKeyword("typedef") || p.checkKeyword("enum") ||
			(p.checkKeyword("using") && p.peek(2).Value == "=") ||
			((p.checkKeyword("class") || p.checkKeyword("struct")) && p.classHead() != headNone)
		if nestedType && class.Name == "" {
			return syntaxErrorf(p.current(), "nested types inside anonymous classes are not supported")
		}

		var err error
		switch {
		case p.matchValue(";"):
		case p.checkKeyword("public") || p.checkKeyword("private") || p.checkKeyword("protected"):
			switch p.current().Value {
			case "public":
				access = AccessPublic
			case "protected":
				access = AccessProtected
			default:
				access = AccessPrivate
			}
			p.advance()
			err = p.expect(":")
		case p.checkValue("[") && p.peek(1).Value == "[":
			err = p.skipAttributes()
		case p.checkKeyword("friend"), p.checkKeyword("static_assert"):
			err = p.skipStatement()
		case p.checkKeyword("template"):
			err = syntaxErrorf(p.current(), "member templates are not supported")
		case p.checkKeyword("union"):
			err = syntaxErrorf(p.current(), "unions are not supported")
		case p.checkKeyword("using") && !nestedType:
			// using-declaration such as using Base::Method;
			err = p.skipStatement()
		case p.checkKeyword("typedef"):
			err = p.parseTypedef()
		case p.checkKeyword("using"):
			err = p.parseUsing()
		case p.checkKeyword("enum"):
			var e *EnumDecl
			if e, err = p.parseEnum(); err == nil {
				if e.Name == "" {
					err = syntaxErrorf(p.current(), "anonymous enums are not supported")
				} else {
					err = p.expect(";")
				}
			}
		case nestedType:
			err = p.parseClassDeclaration()
		default:
			err = p.parseMemberDeclaration(class, access)
		}
		if err != nil {
			return err
		}
	}
}

// declSpecs are the specifiers that may precede a member or function
// declarator.
type declSpecs struct {
	virtual bool
	static  bool
	first   Token
}

func (p *Parser) parseDeclSpecifiers() (declSpecs, error) {
	specs := declSpecs{first: p.current()}
	for {
		switch {
		case p.matchKeyword("virtual"):
			specs.virtual = true
		case p.matchKeyword("static"):
			specs.static = true
		case p.matchKeyword("explicit"):
			if p.checkValue("(") {
				// explicit(bool)
				if err := p.skipBalanced(); err != nil {
					return specs, err
				}
			}
		case p.matchKeyword("inline"), p.matchKeyword("constexpr"),
			p.matchKeyword("mutable"), p.matchKeyword("extern"):
		case p.checkValue("[") && p.peek(1).Value == "[":
			if err := p.skipAttributes(); err != nil {
				return specs, err
			}
		default:
			return specs, nil
		}
	}
}

func (p *Parser) parseMemberDeclaration(class *ClassDecl, access Access) error {
	specs, err := p.parseDeclSpecifiers()
	if err != nil {
		return err
	}

	// Destructor
	if p.checkValue("~") {
		p.advance()
		if !p.check(TokenIdent) || p.current().Value != class.Name {
			return syntaxErrorf(p.current(), "destructor name must match class %s", class.Name)
		}
		m := MethodDecl{Name: "~" + class.Name, Access: access, IsVirtual: specs.virtual, Pos: p.current().Pos()}
		p.advance()
		if specs.static {
			return semanticErrorf(m.Pos, m.Name, "destructor cannot be static")
		}
		if err := p.parseMethodRest(&m, false); err != nil {
			return err
		}
		if class.Destructor != nil {
			return semanticErrorf(m.Pos, m.Name, "destructor declared twice")
		}
		class.Destructor = &m
		return nil
	}

	// Constructor
	if p.check(TokenIdent) && p.current().Value == class.Name && p.peek(1).Value == "(" {
		m := MethodDecl{Name: class.Name, Access: access, Pos: p.current().Pos()}
		p.advance()
		if specs.virtual || specs.static {
			return semanticErrorf(m.Pos, m.Name, "constructor cannot be virtual or static")
		}
		if err := p.parseMethodRest(&m, true); err != nil {
			return err
		}
		class.Constructors = append(class.Constructors, m)
		return nil
	}

	if p.checkKeyword("operator") {
		return syntaxErrorf(p.current(), "operator overloading is not supported")
	}
	base, err := p.parseTypeSpecifier()
	if err != nil {
		return err
	}

	for first := true; ; first = false {
		if p.checkKeyword("operator") {
			return syntaxErrorf(p.current(), "operator overloading is not supported")
		}
		d, err := p.parseDeclarator(base)
		if err != nil {
			return err
		}
		if d.name == "" {
			return syntaxErrorf(p.current(), "expected member name")
		}
		if strings.Contains(d.name, "::") {
			return syntaxErrorf(p.current(), "qualified name %s in class body", d.name)
		}

		if first && p.checkValue("(") {
			m := MethodDecl{
				Name:      d.name,
				Result:    d.typ,
				Access:    access,
				IsVirtual: specs.virtual,
				IsStatic:  specs.static,
				Pos:       d.pos,
			}
			if err := p.parseMethodRest(&m, false); err != nil {
				return err
			}
			class.Methods = append(class.Methods, m)
			return nil
		}

		if specs.virtual {
			return semanticErrorf(d.pos, d.name, "data member cannot be virtual")
		}
		if d.typ.Name == "auto" {
			return semanticErrorf(d.pos, d.name, "data member cannot have deduced type")
		}
		class.Members = append(class.Members, MemberDecl{
			Name:     d.name,
			Type:     d.typ,
			Access:   access,
			IsStatic: specs.static,
			Pos:      d.pos,
		})

		if err := p.skipInitializer(); err != nil {
			return err
		}
		if p.matchValue(",") {
			continue
		}
		return p.expect(";")
	}
}

// skipInitializer skips a bit-field width, "= expr" or "{...}" after a
// member declarator.
func (p *Parser) skipInitializer() error {
	open := p.current()
	switch {
	case p.matchValue(":"), p.matchValue("="):
		if p.checkValue("{") {
			return p.skipBalanced()
		}
		toks, err := p.collectUntil(open, ",", ";")
		if err != nil {
			return err
		}
		if len(toks) == 0 {
			return syntaxErrorf(p.current(), "expected expression")
		}
	case p.checkValue("{"):
		return p.skipBalanced()
	}
	return nil
}

// parseMethodRest parses from the parameter list to the end of a member
// function declaration or definition and checks its qualifiers.
func (p *Parser) parseMethodRest(m *MethodDecl, ctor bool) error {
	sig, err := p.parseParamList()
	if err != nil {
		return err
	}
	m.Params, m.Variadic = sig.Params, sig.Variadic

	override := false
	if err := p.parseFunctionSuffix(&m.Result, &m.IsConst, &override); err != nil {
		return err
	}
	if override {
		// override and final only apply to virtual functions
		if m.IsStatic {
			return semanticErrorf(m.Pos, m.Name, "static member function cannot be marked override")
		}
		m.IsVirtual = true
	}

	pure := false
	if p.checkValue("=") {
		eq := p.current()
		p.advance()
		switch {
		case p.check(TokenNumber) && p.current().Value == "0":
			pure = true
			p.advance()
		case p.matchKeyword("default"), p.matchKeyword("delete"):
		default:
			return syntaxErrorf(eq, "expected 0, default or delete")
		}
	}

	if ctor {
		if err := p.skipMemberInitializers(); err != nil {
			return err
		}
	}

	if m.IsStatic && m.IsVirtual {
		return semanticErrorf(m.Pos, m.Name, "method cannot be both static and virtual")
	}
	if m.IsStatic && m.IsConst {
		return semanticErrorf(m.Pos, m.Name, "static member function cannot be const")
	}
	if pure && !m.IsVirtual {
		return semanticErrorf(m.Pos, m.Name, "pure specifier on non-virtual method")
	}
	m.IsPureVirtual = pure

	if p.checkValue("{") {
		if pure {
			return syntaxErrorf(p.current(), "pure virtual method %s cannot have a body", m.Name)
		}
		if err := p.skipBalanced(); err != nil {
			return err
		}
		m.HasBody = true
		p.matchValue(";")
		return nil
	}
	return p.expect(";")
}

// skipMemberInitializers skips a constructor's ": a(1), b{2}" list and
// stops on the body's opening brace.
func (p *Parser) skipMemberInitializers() error {
	if !p.matchValue(":") {
		return nil
	}
	for !p.isAtEnd() && !p.checkValue(";") {
		prev := p.peek(-1)
		switch {
		case p.checkValue("{") && prev.Type != TokenIdent && prev.Value != ">":
			return nil
		case p.checkValue("(") || p.checkValue("{"):
			if err := p.skipBalanced(); err != nil {
				return err
			}
		default:
			p.advance()
		}
	}
	return nil
}

// parseFunctionSuffix consumes what may follow a parameter list: cv and ref
// qualifiers, noexcept, attributes, a trailing return type, override/final.
func (p *Parser) parseFunctionSuffix(result **TypeExpr, isConst, override *bool) error {
	for {
		switch {
		case p.checkKeyword("const"):
			if isConst == nil {
				return semanticErrorf(p.current().Pos(), "", "non-member function cannot have cv-qualifier")
			}
			*isConst = true
			p.advance()
		case p.matchKeyword("volatile"):
		case p.checkValue("&") || p.checkValue("&&"):
			p.advance()
		case p.matchKeyword("noexcept"):
			if p.checkValue("(") {
				if err := p.skipBalanced(); err != nil {
					return err
				}
			}
		case p.checkValue("[") && p.peek(1).Value == "[":
			if err := p.skipAttributes(); err != nil {
				return err
			}
		case p.checkValue("->"):
			arrow := p.current()
			p.advance()
			if *result == nil || (*result).Name != "auto" {
				return syntaxErrorf(arrow, "trailing return type requires auto")
			}
			t, err := p.parseTypeID()
			if err != nil {
				return err
			}
			*result = t
		case p.check(TokenIdent) && (p.current().Value == "override" || p.current().Value == "final"):
			if override == nil {
				return syntaxErrorf(p.current(), "%s outside a class", p.current().Value)
			}
			*override = true
			p.advance()
		default:
			if *result != nil && (*result).Name == "auto" && (*result).Func == nil {
				return semanticErrorf((*result).Pos, "", "deduced return types are not supported")
			}
			return nil
		}
	}
}

// parseFunction parses a namespace-scope function declaration, or an
// out-of-class definition of a member function declared earlier.
func (p *Parser) parseFunction() error {
	specs, err := p.parseDeclSpecifiers()
	if err != nil {
		return err
	}
	if specs.virtual {
		return semanticErrorf(specs.first.Pos(), "", "virtual outside class declaration")
	}
	if p.checkKeyword("operator") {
		return syntaxErrorf(p.current(), "operator overloading is not supported")
	}
	if name, ok := p.outOfClassSpecialMember(); ok {
		return p.parseOutOfClassDefinition(name, nil)
	}

	result, err := p.parseTypeSpecifier()
	if err != nil {
		return err
	}
	if p.checkKeyword("operator") {
		return syntaxErrorf(p.current(), "operator overloading is not supported")
	}
	d, err := p.parseDeclarator(result)
	if err != nil {
		return err
	}
	if d.name == "" {
		return syntaxErrorf(p.current(), "expected declaration")
	}
	if !p.checkValue("(") {
		return syntaxErrorf(p.current(), "variable declarations are not supported")
	}
	if strings.Contains(d.name, "::") {
		return p.parseOutOfClassDefinition(d.name, d.typ)
	}

	fn := &FunctionDecl{
		Name:     d.name,
		Scope:    p.scopeName(),
		Result:   d.typ,
		IsStatic: specs.static,
		Pos:      d.pos,
	}
	sig, err := p.parseParamList()
	if err != nil {
		return err
	}
	fn.Params, fn.Variadic = sig.Params, sig.Variadic
	if err := p.parseFunctionSuffix(&fn.Result, nil, nil); err != nil {
		return err
	}
	if p.matchValue("=") {
		if !p.matchKeyword("delete") {
			return syntaxErrorf(p.current(), "expected delete")
		}
	}
	p.decls = append(p.decls, fn)

	if p.checkValue("{") {
		fn.HasBody = true
		if err := p.skipBalanced(); err != nil {
			return err
		}
		p.matchValue(";")
		return nil
	}
	return p.expect(";")
}

// outOfClassSpecialMember detects Class::Class( and Class::~Class( at the
// cursor and returns the qualified name without consuming anything.
func (p *Parser) outOfClassSpecialMember() (string, bool) {
	var parts []string
	i := p.pos
	for i+1 < len(p.tokens) && p.tokens[i].Type == TokenIdent && p.tokens[i+1].Value == "::" {
		parts = append(parts, p.tokens[i].Value)
		i += 2
	}
	if len(parts) == 0 || i+1 >= len(p.tokens) {
		return "", false
	}
	class := parts[len(parts)-1]
	switch {
	case p.tokens[i].Value == class && p.tokens[i+1].Value == "(":
		return strings.Join(append(parts, class), "::"), true
	case p.tokens[i].Value == "~" && i+2 < len(p.tokens) && p.tokens[i+1].Value == class && p.tokens[i+2].Value == "(":
		return strings.Join(append(parts, "~"+class), "::"), true
	}
	return "", false
}

// parseOutOfClassDefinition handles "R Class::method(params) { ... }" by
// marking the matching declaration as defined. Definitions for classes this
// header does not define are accepted and ignored.
func (p *Parser) parseOutOfClassDefinition(name string, result *TypeExpr) error {
	namePos := p.current().Pos()
	if result == nil {
		// Class::Class( or Class::~Class( still sits at the cursor
		for !p.checkValue("(") {
			p.advance()
		}
	}
	idx := strings.LastIndex(name, "::")
	className, method := name[:idx], name[idx+2:]

	sig, err := p.parseParamList()
	if err != nil {
		return err
	}
	isConst, override := false, false
	if err := p.parseFunctionSuffix(&result, &isConst, &override); err != nil {
		return err
	}
	if override {
		return syntaxErrorf(p.current(), "override outside a class definition")
	}
	if err := p.skipMemberInitializers(); err != nil {
		return err
	}
	if !p.checkValue("{") {
		return syntaxErrorf(p.current(), "expected function body for %s", name)
	}
	if err := p.skipBalanced(); err != nil {
		return err
	}
	p.matchValue(";")

	class := p.findClass(className)
	if class == nil {
		return nil
	}
	target := p.findMethod(class, method, sig.Params, isConst)
	if target == nil {
		return semanticErrorf(namePos, name, "no matching member function declared in %s", className)
	}
	if target.IsPureVirtual {
		return semanticErrorf(namePos, name, "pure virtual method cannot have an implementation")
	}
	target.HasBody = true
	return nil
}

func (p *Parser) findClass(name string) *ClassDecl {
	name = strings.TrimPrefix(name, "::")
	for scope := p.scopeName(); ; {
		want := name
		if scope != "" {
			want = scope + "::" + name
		}
		for _, d := range p.decls {
			if c, ok := d.(*ClassDecl); ok && QualifiedName(c) == want {
				return c
			}
		}
		if scope == "" {
			return nil
		}
		if i := strings.LastIndex(scope, "::"); i >= 0 {
			scope = scope[:i]
		} else {
			scope = ""
		}
	}
}

// findMethod picks the declaration an out-of-class definition belongs to.
// Overloads match on parameter spelling; when none does, a single candidate
// with the same arity is taken, so a parameter written through a typedef in
// one place and spelled out in the other still links.
func (p *Parser) findMethod(class *ClassDecl, name string, params []Param, isConst bool) *MethodDecl {
	if strings.HasPrefix(name, "~") {
		return class.Destructor
	}
	var candidates []*MethodDecl
	if name == class.Name {
		for i := range class.Constructors {
			candidates = append(candidates, &class.Constructors[i])
		}
	} else {
		for i := range class.Methods {
			if m := &class.Methods[i]; m.Name == name && m.IsConst == isConst {
				candidates = append(candidates, m)
			}
		}
	}

	var sameArity []*MethodDecl
	for _, m := range candidates {
		if len(m.Params) != len(params) {
			continue
		}
		if sameParamSpelling(m.Params, params) {
			return m
		}
		sameArity = append(sameArity, m)
	}
	if len(sameArity) == 1 {
		return sameArity[0]
	}
	return nil
}

func sameParamSpelling(a, b []Param) bool {
	for i := range a {
		if paramSpelling(a[i].Type) != paramSpelling(b[i].Type) {
			return false
		}
	}
	return true
}

// paramSpelling drops top-level cv, which does not distinguish overloads.
func paramSpelling(t *TypeExpr) string {
	c := *t
	if c.Pointers == 0 && c.Ref == NoRef {
		c.Const, c.Volatile = false, false
	}
	return c.String()
}

func (p *Parser) parseEnum() (*EnumDecl, error) {
	start := p.current()
	p.advance() // skip enum

	enum := &EnumDecl{Scope: p.scopeName(), Pos: start.Pos()}
	if p.matchKeyword("class") || p.matchKeyword("struct") {
		enum.Scoped = true
	}
	if err := p.skipAttributes(); err != nil {
		return nil, err
	}
	if p.check(TokenIdent) {
		enum.Name = p.current().Value
		enum.Pos = p.current().Pos()
		p.advance()
	} else if enum.Scoped {
		return nil, syntaxErrorf(p.current(), "expected enum name")
	}

	if p.matchValue(":") {
		t, err := p.parseTypeSpecifier()
		if err != nil {
			return nil, err
		}
		enum.Underlying = t
	}

	if p.checkValue(";") {
		if enum.Name == "" {
			return nil, syntaxErrorf(p.current(), "expected enum name")
		}
		if !enum.Scoped && enum.Underlying == nil {
			return nil, semanticErrorf(enum.Pos, enum.Name, "opaque enum declaration requires an underlying type")
		}
		p.decls = append(p.decls, &ForwardDecl{Name: enum.Name, Scope: enum.Scope, IsEnum: true, Pos: enum.Pos})
		return enum, nil
	}

	open := p.current()
	if !p.matchValue("{") {
		return nil, syntaxErrorf(open, "expected '{' in enum declaration")
	}
	p.decls = append(p.decls, enum)

	for {
		if p.isAtEnd() {
			return nil, syntaxErrorf(open, "unmatched '{'")
		}
		if p.matchValue("}") {
			return enum, nil
		}
		if !p.check(TokenIdent) {
			return nil, syntaxErrorf(p.current(), "expected enumerator name")
		}
		e := Enumerator{Name: p.current().Value, Pos: p.current().Pos()}
		p.advance()
		if err := p.skipAttributes(); err != nil {
			return nil, err
		}
		if p.checkValue("=") {
			eq := p.current()
			p.advance()
			toks, err := p.collectUntil(open, ",", "}")
			if err != nil {
				return nil, err
			}
			if len(toks) == 0 {
				return nil, syntaxErrorf(eq, "expected enumerator value")
			}
			e.Value = toks
		}
		enum.Enumerators = append(enum.Enumerators, e)

		if p.matchValue(",") || p.checkValue("}") {
			continue
		}
		return nil, syntaxErrorf(p.current(), "expected ',' or '}' after enumerator")
	}
}

// parseTypedef handles typedef T a, *b; including the C idiom
// typedef struct [Tag] { ... } Name;
func (p *Parser) parseTypedef() error {
	p.advance() // skip typedef

	var base *TypeExpr
	switch {
	case (p.checkKeyword("struct") || p.checkKeyword("class")) && p.classHead() == headDefinition:
		c, err := p.parseClass()
		if err != nil {
			return err
		}
		if c.Name == "" {
			if !p.check(TokenIdent) {
				return syntaxErrorf(p.current(), "expected typedef name")
			}
			c.Name = p.current().Value
		}
		base = &TypeExpr{Name: c.Name, Pos: c.Pos}
	case p.checkKeyword("enum") && p.enumHasBody():
		e, err := p.parseEnum()
		if err != nil {
			return err
		}
		if e.Name == "" {
			if !p.check(TokenIdent) {
				return syntaxErrorf(p.current(), "expected typedef name")
			}
			e.Name = p.current().Value
		}
		base = &TypeExpr{Name: e.Name, Pos: e.Pos}
	default:
		t, err := p.parseTypeSpecifier()
		if err != nil {
			return err
		}
		base = t
	}

	for {
		d, err := p.parseDeclarator(base)
		if err != nil {
			return err
		}
		if d.name == "" {
			return syntaxErrorf(p.current(), "expected typedef name")
		}
		if p.checkValue("(") {
			// typedef R Name(Args);
			sig, err := p.parseParamList()
			if err != nil {
				return err
			}
			sig.Result = d.typ
			d.typ = &TypeExpr{Func: sig, Pos: d.typ.Pos}
		}
		// typedef struct Foo {...} Foo; names the class itself
		if !(d.name == base.Name && d.typ.Pointers == 0 && d.typ.Ref == NoRef && d.typ.Extents == nil && d.typ.Func == nil) {
			p.decls = append(p.decls, &AliasDecl{Name: d.name, Scope: p.scopeName(), Target: d.typ, Pos: d.pos})
		}
		if p.matchValue(",") {
			continue
		}
		return p.expect(";")
	}
}

func (p *Parser) enumHasBody() bool {
	for i := p.pos + 1; i < len(p.tokens); i++ {
		switch p.tokens[i].Value {
		case "{":
			return true
		case ";":
			return false
		}
	}
	return false
}

// parseUsing handles alias declarations; using-directives and
// using-declarations are skipped.
func (p *Parser) parseUsing() error {
	p.advance() // skip using
	if !p.check(TokenIdent) || p.peek(1).Value != "=" {
		return p.skipStatement()
	}
	name := p.current()
	p.advance()
	p.advance() // skip =
	t, err := p.parseTypeID()
	if err != nil {
		return err
	}
	p.decls = append(p.decls, &AliasDecl{
		Name:    name.Value,
		Scope:   p.scopeName(),
		Target:  t,
		IsUsing: true,
		Pos:     name.Pos(),
	})
	return p.expect(";")
}

// skipAttributes skips any number of [[...]] attribute lists.
func (p *Parser) skipAttributes() error {
	for p.checkValue("[") && p.peek(1).Value == "[" {
		if err := p.skipBalanced(); err != nil {
			return err
		}
	}
	return nil
}

var closers = map[string]string{"(": ")", "[": "]", "{": "}"}

// skipBalanced skips from an opening bracket at the cursor past its matching
// closer.
func (p *Parser) skipBalanced() error {
	var stack []Token
	for {
		tok := p.current()
		if tok.Type == TokenEOF {
			if len(stack) == 0 {
				return syntaxErrorf(tok, "unexpected end of file")
			}
			open := stack[len(stack)-1]
			return syntaxErrorf(open, "unmatched '%s'", open.Value)
		}
		if tok.Type == TokenPunctuation {
			switch tok.Value {
			case "(", "[", "{":
				stack = append(stack, tok)
			case ")", "]", "}":
				if len(stack) == 0 || closers[stack[len(stack)-1].Value] != tok.Value {
					return syntaxErrorf(tok, "unmatched '%s'", tok.Value)
				}
				stack = stack[:len(stack)-1]
			}
		}
		p.advance()
		if len(stack) == 0 {
			return nil
		}
	}
}

// collectUntil returns the tokens before the first of stops found outside any
// brackets, leaving the cursor on it. open is reported if input ends first.
func (p *Parser) collectUntil(open Token, stops ...string) ([]Token, error) {
	var toks []Token
	for {
		tok := p.current()
		if tok.Type == TokenEOF {
			return nil, syntaxErrorf(open, "unmatched '%s'", open.Value)
		}
		if slices.Contains(stops, tok.Value) {
			return toks, nil
		}
		if tok.Type == TokenPunctuation {
			switch tok.Value {
			case "(", "[", "{":
				start := p.pos
				if err := p.skipBalanced(); err != nil {
					return nil, err
				}
				toks = append(toks, p.tokens[start:p.pos]...)
				continue
			case ")", "]", "}", ";":
				return nil, syntaxErrorf(open, "unmatched '%s'", open.Value)
			}
		}
		toks = append(toks, tok)
		p.advance()
	}
}

// skipStatement skips to the end of the current declaration: the next ';'
// outside brackets, or the end of a braced body.
func (p *Parser) skipStatement() error {
	start := p.current()
	for {
		switch {
		case p.isAtEnd():
			return syntaxErrorf(start, "unexpected end of file in declaration")
		case p.matchValue(";"):
			return nil
		case p.checkValue("{"):
			if err := p.skipBalanced(); err != nil {
				return err
			}
			p.matchValue(";")
			return nil
		case p.checkValue("(") || p.checkValue("["):
			if err := p.skipBalanced(); err != nil {
				return err
			}
		case p.checkValue(")") || p.checkValue("]") || p.checkValue("}"):
			return syntaxErrorf(p.current(), "unmatched '%s'", p.current().Value)
		default:
			p.advance()
		}
	}
}

func (p *Parser) expect(value string) error {
	if p.matchValue(value) {
		return nil
	}
	return syntaxErrorf(p.current(), "expected '%s'", value)
}

// Token navigation helpers
func (p *Parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Type: TokenEOF}
}

// peek returns the token n positions away from the cursor; n may be negative.
func (p *Parser) peek(n int) Token {
	if i := p.pos + n; i >= 0 && i < len(p.tokens) {
		return p.tokens[i]
	}
	return Token{Type: TokenEOF}
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *Parser) isAtEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Type == TokenEOF
}

func (p *Parser) check(tokenType TokenType) bool {
	return !p.isAtEnd() && p.current().Type == tokenType
}

func (p *Parser) checkValue(value string) bool {
	return !p.isAtEnd() && p.current().Value == value
}

func (p *Parser) checkKeyword(keyword string) bool {
	return p.check(TokenKeyword) && p.current().Value == keyword
}

func (p *Parser) matchValue(value string) bool {
	if p.checkValue(value) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchKeyword(keyword string) bool {
	if p.checkKeyword(keyword) {
		p.advance()
		return true
	}
	return false
}
