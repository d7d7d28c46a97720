package shader

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/gogpu/naga/wgsl"
	"github.com/pkg/errors"
)

// GameStateName is the struct name the preprocessor embeds into the host struct.
const GameStateName = "GameState"

// MemberKind is the shape of a struct member's scalar or vector element.
type MemberKind int

const (
	// MemberScalar is a 32-bit int, uint or float, or an atomic of one.
	MemberScalar MemberKind = iota

	// MemberVec2 is a 2-component 32-bit vector.
	MemberVec2

	// MemberVec3 is a 3-component 32-bit vector.
	MemberVec3

	// MemberVec4 is a 4-component 32-bit vector.
	MemberVec4
)

// typeLayout is the byte size and alignment of a WGSL type in the storage address space.
type typeLayout struct {
	size  uint32
	align uint32
}

// memberKindLayouts is the size and alignment of each element shape.
var memberKindLayouts = map[MemberKind]typeLayout{
	MemberScalar: {4, 4},
	MemberVec2:   {8, 8},
	MemberVec3:   {12, 16},
	MemberVec4:   {16, 16},
}

// vectorKinds maps vector type keywords to their shape.
var vectorKinds = map[wgsl.TokenKind]MemberKind{
	wgsl.TokenVec2: MemberVec2,
	wgsl.TokenVec3: MemberVec3,
	wgsl.TokenVec4: MemberVec4,
}

// vectorAliases maps the predeclared vector aliases, which lex as identifiers, to their
// shape.
var vectorAliases = map[string]MemberKind{
	"vec2f": MemberVec2, "vec2i": MemberVec2, "vec2u": MemberVec2,
	"vec3f": MemberVec3, "vec3i": MemberVec3, "vec3u": MemberVec3,
	"vec4f": MemberVec4, "vec4i": MemberVec4, "vec4u": MemberVec4,
}

// matrixShapes maps matrix type keywords to their column count and column shape.
var matrixShapes = map[wgsl.TokenKind]struct {
	columns uint32
	column  MemberKind
}{
	wgsl.TokenMat2x2: {2, MemberVec2}, wgsl.TokenMat2x3: {2, MemberVec3}, wgsl.TokenMat2x4: {2, MemberVec4},
	wgsl.TokenMat3x2: {3, MemberVec2}, wgsl.TokenMat3x3: {3, MemberVec3}, wgsl.TokenMat3x4: {3, MemberVec4},
	wgsl.TokenMat4x2: {4, MemberVec2}, wgsl.TokenMat4x3: {4, MemberVec3}, wgsl.TokenMat4x4: {4, MemberVec4},
}

// matrixAliases maps the f32 matrix aliases to their matrix keyword.
var matrixAliases = map[string]wgsl.TokenKind{
	"mat2x2f": wgsl.TokenMat2x2, "mat2x3f": wgsl.TokenMat2x3, "mat2x4f": wgsl.TokenMat2x4,
	"mat3x2f": wgsl.TokenMat3x2, "mat3x3f": wgsl.TokenMat3x3, "mat3x4f": wgsl.TokenMat3x4,
	"mat4x2f": wgsl.TokenMat4x2, "mat4x3f": wgsl.TokenMat4x3, "mat4x4f": wgsl.TokenMat4x4,
}

// FieldLayout is the placement of one struct member.
type FieldLayout struct {
	// Name is the member name.
	Name string

	// Type is the member type as written, without whitespace.
	Type string

	// Kind is the shape of the member's element: the member itself, an array element or
	// a matrix column.
	Kind MemberKind

	// Count is the number of elements for arrays and columns for matrices, 0 otherwise.
	Count uint32

	// Stride is the byte distance between elements when Count is non-zero.
	Stride uint32

	// Offset is the byte offset of the member from the start of the struct.
	Offset uint32

	// Size is the byte size of the member, including any @size override.
	Size uint32

	// Align is the alignment of the member, including any @align override.
	Align uint32
}

// StructLayout is the storage layout of a struct computed from its declaration.
type StructLayout struct {
	// Name is the struct name.
	Name string

	// Fields lists the members in declaration order.
	Fields []FieldLayout

	// Size is the struct size, rounded up to Align.
	Size uint32

	// Align is the maximum member alignment, at least 4.
	Align uint32
}

// Field returns the named member, if present.
func (l StructLayout) Field(name string) (FieldLayout, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldLayout{}, false
}

// StructDecl is a struct declaration located in shader source.
type StructDecl struct {
	// Text is the declaration from the struct keyword through the closing brace.
	Text string

	// Start and End are the byte offsets of Text in the searched source, End exclusive.
	Start int
	End   int
}

// FindStruct locates the first declaration of the named struct. The closing brace is
// the first one after which the declaration tokenizes to a balanced struct body, so
// braces inside comments do not end it.
//
// Parameters:
//   - source: the shader source to search
//   - name: the struct name
//
// Returns:
//   - StructDecl: the declaration and its span
//   - bool: false if the source declares no such struct or never closes it
func FindStruct(source, name string) (StructDecl, bool) {
	re := gameStateRegex
	if name != GameStateName {
		re = regexp.MustCompile(`\bstruct\s+` + regexp.QuoteMeta(name) + `\s*\{`)
	}
	loc := re.FindStringIndex(source)
	if loc == nil {
		return StructDecl{}, false
	}

	for from := loc[1]; ; {
		i := strings.IndexByte(source[from:], '}')
		if i < 0 {
			return StructDecl{}, false
		}
		end := from + i + 1
		if closesStruct(source[loc[0]:end]) {
			return StructDecl{Text: source[loc[0]:end], Start: loc[0], End: end}, true
		}
		from = end
	}
}

// gameStateRegex matches the opening of a GameState declaration.
var gameStateRegex = regexp.MustCompile(`\bstruct\s+GameState\s*\{`)

// closesStruct reports whether decl tokenizes to a struct whose body brace is closed by
// the last token.
func closesStruct(decl string) bool {
	tokens, err := wgsl.NewLexer(decl).Tokenize()
	if err != nil || len(tokens) < 2 || tokens[len(tokens)-2].Kind != wgsl.TokenRightBrace {
		return false
	}
	depth := 0
	for _, tok := range tokens[:len(tokens)-2] {
		switch tok.Kind {
		case wgsl.TokenLeftBrace:
			depth++
		case wgsl.TokenRightBrace:
			depth--
		}
	}
	return depth == 1
}

// ComputeStructLayout computes the storage layout of a struct declaration. Members are
// placed at the next offset aligned to their own alignment and the struct size is
// rounded up to the largest member alignment (at least 4). Member types are tokenized
// with the WGSL lexer and limited to 32-bit scalars, vectors and matrices of them,
// atomics, and fixed-size arrays of those.
//
// Parameters:
//   - decl: a struct declaration, from the struct keyword through the closing brace
//
// Returns:
//   - StructLayout: the computed layout
//   - error: ErrUnsupportedType if a member type has no derivable layout
func ComputeStructLayout(decl string) (StructLayout, error) {
	tokens, err := wgsl.NewLexer(decl).Tokenize()
	if err != nil {
		return StructLayout{}, errors.Wrap(err, "tokenize struct")
	}

	p := &memberParser{tokens: tokens}
	if !p.accept(wgsl.TokenStruct) {
		return StructLayout{}, errors.New("struct declaration must start with the struct keyword")
	}
	name, ok := p.ident()
	if !ok {
		return StructLayout{}, errors.New("struct declaration has no name")
	}
	if !p.accept(wgsl.TokenLeftBrace) {
		return StructLayout{}, errors.Errorf("struct %s: expected {", name)
	}

	layout := StructLayout{Name: name, Align: 4}
	offset := uint32(0)
	for !p.at(wgsl.TokenRightBrace) && !p.at(wgsl.TokenEOF) {
		field, err := p.member()
		if err != nil {
			return StructLayout{}, errors.Wrapf(err, "struct %s", name)
		}
		offset = common.AlignUp(field.Align, offset)
		field.Offset = offset
		offset += field.Size
		layout.Align = max(layout.Align, field.Align)
		layout.Fields = append(layout.Fields, field)
		if !p.accept(wgsl.TokenComma) {
			p.accept(wgsl.TokenSemicolon)
		}
	}
	if len(layout.Fields) == 0 {
		return StructLayout{}, errors.Wrapf(ErrUnsupportedType, "struct %s has no members", name)
	}

	layout.Size = common.AlignUp(layout.Align, offset)
	return layout, nil
}

// memberParser walks the token stream of one struct declaration.
type memberParser struct {
	tokens []wgsl.Token
	pos    int

	// splitGreater is set when the first half of a >> token has been consumed as a
	// closing template bracket.
	splitGreater bool
}

func (p *memberParser) peek() wgsl.Token {
	if p.pos >= len(p.tokens) {
		return wgsl.Token{Kind: wgsl.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *memberParser) at(kind wgsl.TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *memberParser) accept(kind wgsl.TokenKind) bool {
	if p.at(kind) {
		p.pos++
		return true
	}
	return false
}

func (p *memberParser) ident() (string, bool) {
	tok := p.peek()
	if tok.Kind != wgsl.TokenIdent {
		return "", false
	}
	p.pos++
	return tok.Lexeme, true
}

// closeTemplate consumes one closing > of a template list.
func (p *memberParser) closeTemplate() bool {
	switch p.peek().Kind {
	case wgsl.TokenGreater:
		p.pos++
		return true
	case wgsl.TokenGreaterGreater:
		if p.splitGreater {
			p.splitGreater = false
			p.pos++
		} else {
			p.splitGreater = true
		}
		return true
	}
	return false
}

func (p *memberParser) member() (FieldLayout, error) {
	var alignOverride, sizeOverride uint32
	for p.accept(wgsl.TokenAt) {
		attr, ok := p.ident()
		if !ok {
			return FieldLayout{}, errors.Errorf("line %d: expected attribute name", p.peek().Line)
		}
		args := p.attributeArgs()
		switch attr {
		case "align", "size":
			if len(args) != 1 {
				return FieldLayout{}, errors.Errorf("@%s expects one integer argument", attr)
			}
			v, err := parseIntLiteral(args[0])
			if err != nil {
				return FieldLayout{}, errors.Wrapf(err, "@%s", attr)
			}
			if attr == "align" {
				alignOverride = v
			} else {
				sizeOverride = v
			}
		}
	}

	name, ok := p.ident()
	if !ok {
		return FieldLayout{}, errors.Errorf("line %d: expected member name, got %q", p.peek().Line, p.peek().Lexeme)
	}
	if !p.accept(wgsl.TokenColon) {
		return FieldLayout{}, errors.Errorf("member %s: expected :", name)
	}

	typeStart := p.pos
	field, err := p.memberType()
	if err != nil {
		return FieldLayout{}, errors.Wrapf(err, "member %s", name)
	}
	field.Name = name
	field.Type = p.lexemes(typeStart, p.pos)

	if alignOverride != 0 {
		if alignOverride&(alignOverride-1) != 0 || alignOverride < field.Align {
			return FieldLayout{}, errors.Errorf("member %s: invalid @align(%d)", name, alignOverride)
		}
		field.Align = alignOverride
	}
	if sizeOverride != 0 {
		if sizeOverride < field.Size {
			return FieldLayout{}, errors.Errorf("member %s: @size(%d) is smaller than the type size %d", name, sizeOverride, field.Size)
		}
		field.Size = sizeOverride
	}
	return field, nil
}

// attributeArgs consumes a parenthesized attribute argument list, if present.
func (p *memberParser) attributeArgs() []string {
	if !p.accept(wgsl.TokenLeftParen) {
		return nil
	}
	var args []string
	for !p.at(wgsl.TokenRightParen) && !p.at(wgsl.TokenEOF) {
		tok := p.peek()
		if tok.Kind != wgsl.TokenComma {
			args = append(args, tok.Lexeme)
		}
		p.pos++
	}
	p.accept(wgsl.TokenRightParen)
	return args
}

// memberType parses a member type and returns its layout with Name and Offset unset.
func (p *memberParser) memberType() (FieldLayout, error) {
	tok := p.peek()
	if tok.Kind == wgsl.TokenArray {
		p.pos++
		if !p.accept(wgsl.TokenLess) {
			return FieldLayout{}, errors.New("expected < after array")
		}
		elem, err := p.elementType()
		if err != nil {
			return FieldLayout{}, err
		}
		if !p.accept(wgsl.TokenComma) {
			return FieldLayout{}, errors.Wrap(ErrUnsupportedType, "runtime-sized array")
		}
		countTok := p.peek()
		if countTok.Kind != wgsl.TokenIntLiteral {
			return FieldLayout{}, errors.Wrapf(ErrUnsupportedType, "array count %q is not an integer literal", countTok.Lexeme)
		}
		p.pos++
		count, err := parseIntLiteral(countTok.Lexeme)
		if err != nil || count == 0 {
			return FieldLayout{}, errors.Wrapf(ErrUnsupportedType, "array count %q", countTok.Lexeme)
		}
		if !p.closeTemplate() {
			return FieldLayout{}, errors.New("expected > after array count")
		}

		stride := common.AlignUp(elem.Align, elem.Size)
		return FieldLayout{
			Kind:   elem.Kind,
			Count:  count,
			Stride: stride,
			Size:   stride * count,
			Align:  elem.Align,
		}, nil
	}
	return p.elementType()
}

// elementType parses a scalar, vector, matrix or atomic type.
func (p *memberParser) elementType() (FieldLayout, error) {
	tok := p.peek()
	p.pos++

	switch tok.Kind {
	case wgsl.TokenF32, wgsl.TokenI32, wgsl.TokenU32:
		return kindField(MemberScalar), nil
	case wgsl.TokenAtomic:
		if err := p.templateScalar(); err != nil {
			return FieldLayout{}, errors.Wrap(err, "atomic")
		}
		return kindField(MemberScalar), nil
	case wgsl.TokenVec2, wgsl.TokenVec3, wgsl.TokenVec4:
		if err := p.templateScalar(); err != nil {
			return FieldLayout{}, errors.Wrap(err, tok.Lexeme)
		}
		return kindField(vectorKinds[tok.Kind]), nil
	case wgsl.TokenIdent:
		if kind, ok := vectorAliases[tok.Lexeme]; ok {
			return kindField(kind), nil
		}
		if mat, ok := matrixAliases[tok.Lexeme]; ok {
			return matrixField(mat), nil
		}
	}

	if _, ok := matrixShapes[tok.Kind]; ok {
		if !p.accept(wgsl.TokenLess) || !p.accept(wgsl.TokenF32) || !p.closeTemplate() {
			return FieldLayout{}, errors.Wrapf(ErrUnsupportedType, "%s must be parameterized with f32", tok.Lexeme)
		}
		return matrixField(tok.Kind), nil
	}

	return FieldLayout{}, errors.Wrapf(ErrUnsupportedType, "%q", tok.Lexeme)
}

// templateScalar consumes a <T> list whose single parameter is a 32-bit scalar.
func (p *memberParser) templateScalar() error {
	if !p.accept(wgsl.TokenLess) {
		return errors.Wrap(ErrUnsupportedType, "missing component type")
	}
	param := p.peek()
	switch param.Kind {
	case wgsl.TokenF32, wgsl.TokenI32, wgsl.TokenU32:
		p.pos++
	default:
		return errors.Wrapf(ErrUnsupportedType, "component type %q", param.Lexeme)
	}
	if !p.closeTemplate() {
		return errors.New("expected >")
	}
	return nil
}

// lexemes joins the lexemes of tokens[from:to].
func (p *memberParser) lexemes(from, to int) string {
	var sb strings.Builder
	for _, tok := range p.tokens[from:min(to, len(p.tokens))] {
		sb.WriteString(tok.Lexeme)
	}
	return sb.String()
}

func kindField(kind MemberKind) FieldLayout {
	l := memberKindLayouts[kind]
	return FieldLayout{Kind: kind, Size: l.size, Align: l.align}
}

func matrixField(mat wgsl.TokenKind) FieldLayout {
	shape := matrixShapes[mat]
	column := memberKindLayouts[shape.column]
	stride := common.AlignUp(column.align, column.size)
	return FieldLayout{
		Kind:   shape.column,
		Count:  shape.columns,
		Stride: stride,
		Size:   stride * shape.columns,
		Align:  column.align,
	}
}

// parseIntLiteral parses a WGSL integer literal with an optional u or i suffix.
func parseIntLiteral(lit string) (uint32, error) {
	lit = strings.TrimRight(lit, "ui")
	v, err := strconv.ParseUint(lit, 0, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "integer literal %q", lit)
	}
	return uint32(v), nil
}
