// directives.go defines the directive tokenizer. A single lexer recognizes every
// directive form of the shader dialect and reports it as a typed Directive carrying the
// byte span it occupies; all other text is passthrough and produces no record. Later
// stages read metadata from the records and rewrite the spans back to front.
package shader

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// DirectiveKind identifies which directive form a Directive was lexed from.
type DirectiveKind int

const (
	// DirectiveImport inlines another source file.
	//
	// Syntax: @import("file.wgsl")
	DirectiveImport DirectiveKind = iota

	// DirectiveSetTitle sets the window title. The directive and the rest of its line
	// are removed from the output.
	//
	// Syntax: @set_title("My Game")
	DirectiveSetTitle

	// DirectiveSetSize sets the surface size. The directive and the rest of its line are
	// removed from the output.
	//
	// Syntax: @set_size(320, 240)
	DirectiveSetSize

	// DirectiveSound reads the trigger counter of a sound.
	//
	// Syntax: @sound("jump.wav")
	DirectiveSound

	// DirectiveSoundPlay increments the trigger counter of a sound.
	//
	// Syntax: @sound("jump.wav").play()
	DirectiveSoundPlay

	// DirectiveSoundStop is accepted but has no runtime effect.
	//
	// Syntax: @sound("jump.wav").stop()
	DirectiveSoundStop

	// DirectiveTexture names a sampled texture binding.
	//
	// Syntax: @texture("atlas.png")
	DirectiveTexture

	// DirectiveTextureIndex is the slot of a texture as an unsigned literal.
	//
	// Syntax: @texture_index("atlas.png")
	DirectiveTextureIndex

	// DirectiveVideo names a video frame texture binding.
	//
	// Syntax: @video("intro.mp4")
	DirectiveVideo

	// DirectiveCamera names a camera frame texture binding by device index.
	//
	// Syntax: @camera(0)
	DirectiveCamera

	// DirectiveModel is a model reference without a property. It only produces a usage
	// hint.
	//
	// Syntax: @model("ship.obj")
	DirectiveModel

	// DirectiveModelPositions is the vertex position array of a model.
	//
	// Syntax: @model("ship.obj").positions
	DirectiveModelPositions

	// DirectiveModelNormals is the vertex normal array of a model.
	//
	// Syntax: @model("ship.obj").normals
	DirectiveModelNormals

	// DirectiveOSC is a named OSC float.
	//
	// Syntax: @osc("speed")
	DirectiveOSC

	// DirectiveEngine is a field of the generated host struct.
	//
	// Syntax: @engine.time
	DirectiveEngine

	// DirectiveStr is a string literal packed into a fixed-size u32 array.
	//
	// Syntax: @str("GAME OVER")
	DirectiveStr
)

var directiveKindNames = map[DirectiveKind]string{
	DirectiveImport:         "import",
	DirectiveSetTitle:       "set_title",
	DirectiveSetSize:        "set_size",
	DirectiveSound:          "sound",
	DirectiveSoundPlay:      "sound.play",
	DirectiveSoundStop:      "sound.stop",
	DirectiveTexture:        "texture",
	DirectiveTextureIndex:   "texture_index",
	DirectiveVideo:          "video",
	DirectiveCamera:         "camera",
	DirectiveModel:          "model",
	DirectiveModelPositions: "model.positions",
	DirectiveModelNormals:   "model.normals",
	DirectiveOSC:            "osc",
	DirectiveEngine:         "engine",
	DirectiveStr:            "str",
}

func (k DirectiveKind) String() string {
	if name, ok := directiveKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Directive is one directive occurrence lexed from shader source.
type Directive struct {
	// Kind identifies the directive form.
	Kind DirectiveKind

	// Args holds the directive arguments. The contents depend on Kind:
	//   - set_size: [0] = width, [1] = height
	//   - camera:   [0] = device index
	//   - engine:   [0] = field name
	//   - str:      [0] = the raw, still escaped, literal
	//   - others:   [0] = the quoted file or parameter name
	Args []string

	// Start and End are the byte offsets of the directive text, End exclusive.
	Start int
	End   int

	// Line is the 1-based line the directive starts on.
	Line int
}

var directiveLexer *lexmachine.Lexer

func init() {
	directiveLexer = lexmachine.NewLexer()
	directiveLexer.Add([]byte(`@import\("[^"]+"\)`), quotedDirective(DirectiveImport))
	directiveLexer.Add([]byte(`@set_title\("[^"]+"\)`), quotedDirective(DirectiveSetTitle))
	directiveLexer.Add([]byte(`@set_size\([ \t]*[0-9]+[ \t]*,[ \t\r\n]*[0-9]+[ \t]*\)`), sizeDirective)
	directiveLexer.Add([]byte(`@sound\("[^"]+"\)`), quotedDirective(DirectiveSound))
	directiveLexer.Add([]byte(`@sound\("[^"]+"\)\.play\(\)`), quotedDirective(DirectiveSoundPlay))
	directiveLexer.Add([]byte(`@sound\("[^"]+"\)\.stop\(\)`), quotedDirective(DirectiveSoundStop))
	directiveLexer.Add([]byte(`@texture\("[^"]+"\)`), quotedDirective(DirectiveTexture))
	directiveLexer.Add([]byte(`@texture_index\("[^"]+"\)`), quotedDirective(DirectiveTextureIndex))
	directiveLexer.Add([]byte(`@video\("[^"]+"\)`), quotedDirective(DirectiveVideo))
	directiveLexer.Add([]byte(`@camera\([0-9]+\)`), cameraDirective)
	directiveLexer.Add([]byte(`@model\("[^"]+"\)`), quotedDirective(DirectiveModel))
	directiveLexer.Add([]byte(`@model\("[^"]+"\)\.positions`), quotedDirective(DirectiveModelPositions))
	directiveLexer.Add([]byte(`@model\("[^"]+"\)\.normals`), quotedDirective(DirectiveModelNormals))
	directiveLexer.Add([]byte(`@osc\("[^"]+"\)`), quotedDirective(DirectiveOSC))
	directiveLexer.Add([]byte(`@engine\.[a-zA-Z_][a-zA-Z0-9_]*`), engineDirective)
	directiveLexer.Add([]byte(`@str\("([^"\\]|\\.)*"\)`), quotedDirective(DirectiveStr))

	// everything else, one @ at a time so a directive can start right after it
	directiveLexer.Add([]byte(`[^@]+`), skipText)
	directiveLexer.Add([]byte(`@`), skipText)

	if err := directiveLexer.Compile(); err != nil {
		panic(errors.Wrap(err, "compile directive lexer"))
	}
}

func quotedDirective(kind DirectiveKind) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		lexeme := string(m.Bytes)
		first := strings.IndexByte(lexeme, '"')
		last := strings.LastIndexByte(lexeme, '"')
		return s.Token(int(kind), []string{lexeme[first+1 : last]}, m), nil
	}
}

func sizeDirective(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	inner := parenthesized(string(m.Bytes))
	w, h, _ := strings.Cut(inner, ",")
	return s.Token(int(DirectiveSetSize), []string{strings.TrimSpace(w), strings.TrimSpace(h)}, m), nil
}

func cameraDirective(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	return s.Token(int(DirectiveCamera), []string{parenthesized(string(m.Bytes))}, m), nil
}

func engineDirective(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	field := strings.TrimPrefix(string(m.Bytes), "@engine.")
	return s.Token(int(DirectiveEngine), []string{field}, m), nil
}

func skipText(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
	return nil, nil
}

func parenthesized(lexeme string) string {
	_, after, _ := strings.Cut(lexeme, "(")
	inner, _, _ := strings.Cut(after, ")")
	return inner
}

// lexDirectives scans source text and returns every directive in source order.
//
// Parameters:
//   - text: the shader source to scan
//
// Returns:
//   - []Directive: the directives found, ordered by Start
//   - error: an error if the lexer fails on the input
func lexDirectives(text string) ([]Directive, error) {
	scanner, err := directiveLexer.Scanner([]byte(text))
	if err != nil {
		return nil, errors.Wrap(err, "create directive scanner")
	}

	var directives []Directive
	for tk, err, eos := scanner.Next(); !eos; tk, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrap(err, "scan directives")
		}
		tok := tk.(*lexmachine.Token)
		directives = append(directives, Directive{
			Kind:  DirectiveKind(tok.Type),
			Args:  tok.Value.([]string),
			Start: tok.TC,
			End:   tok.TC + len(tok.Lexeme),
			Line:  tok.StartLine,
		})
	}
	return directives, nil
}

// Directives returns every directive in a shader source, in source order. Imports are
// not expanded.
//
// Parameters:
//   - source: the shader source to scan
//
// Returns:
//   - []Directive: the directives found
//   - error: an error if the source cannot be scanned
func Directives(source string) ([]Directive, error) {
	return lexDirectives(source)
}
