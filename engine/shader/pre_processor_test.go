package shader

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/Carmen-Shannon/wgsl-game/engine/profiler"
	"github.com/Carmen-Shannon/wgsl-game/engine/source"
	"github.com/davecgh/go-spew/spew"
)

func process(t *testing.T, src source.Source, text string, options ...PreProcessorBuilderOption) (string, metadata.Metadata) {
	t.Helper()
	out, meta, err := NewPreProcessor(src, options...).Process(text)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return out, meta
}

func equalStrings(a, b []string) bool {
	return strings.Join(a, "\x00") == strings.Join(b, "\x00") && len(a) == len(b)
}

func TestTitleAndSize(t *testing.T) {
	out, meta := process(t, nil, "@set_title(\"X\") @set_size(320,240)\nfn main() {}\n")

	if meta.Title != "X" || meta.Width != 320 || meta.Height != 240 {
		t.Errorf("expected X 320x240, got %q %dx%d", meta.Title, meta.Width, meta.Height)
	}
	if len(meta.Textures) != 0 || len(meta.Sounds) != 0 || meta.StateSize != 0 {
		t.Errorf("expected no resources, got %s", spew.Sdump(meta))
	}
	if strings.Contains(out, "state: GameState") {
		t.Error("expected no state field in the host struct")
	}
	if strings.Contains(out, "@set_") {
		t.Errorf("expected set directives to be stripped:\n%s", out)
	}
	if !strings.Contains(out, "fn main() {}") {
		t.Error("expected body to be kept")
	}
}

func TestSizeWithSpaces(t *testing.T) {
	out, meta := process(t, nil, "@set_size( 320 , 240 )\nfn main() {}\n")

	if meta.Width != 320 || meta.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", meta.Width, meta.Height)
	}
	if strings.Contains(out, "@set_size") {
		t.Errorf("expected the directive to be stripped:\n%s", out)
	}
}

func TestDefaults(t *testing.T) {
	_, meta := process(t, nil, "fn main() {}")
	if meta.Title != metadata.DefaultTitle || meta.Width != 800 || meta.Height != 600 {
		t.Errorf("expected defaults, got %q %dx%d", meta.Title, meta.Width, meta.Height)
	}
}

func TestTextureSlots(t *testing.T) {
	src := `let a = textureSample(@texture("a.png"), @engine.sampler, uv);
let b = textureSample(@texture("b.png"), @engine.sampler, uv);
let c = textureSample(@texture("a.png"), @engine.sampler, uv);
let i = @texture_index("b.png");
`
	out, meta := process(t, nil, src)

	if !equalStrings(meta.Textures, []string{"a.png", "b.png"}) {
		t.Fatalf("textures: expected [a.png b.png], got %v", meta.Textures)
	}
	if !strings.Contains(out, "let i = 1u;") {
		t.Errorf("expected @texture_index to become 1u:\n%s", out)
	}
	if strings.Count(out, "textureSample(_texture_0, _engine_sampler, uv)") != 2 {
		t.Errorf("expected two samples of _texture_0:\n%s", out)
	}
	if !strings.Contains(out, "@group(0) @binding(2) var _texture_1: texture_2d<f32>; // b.png") {
		t.Errorf("expected b.png at binding 2:\n%s", out)
	}
}

func TestGameStateLayout(t *testing.T) {
	tests := []struct {
		decl string
		size uint32
	}{
		{"struct GameState { x: f32, y: f32 }", 8},
		{"struct GameState { pos: vec3f, id: u32 }", 16},
		{"struct GameState { hp: i32; mp: i32; }", 8},
		{"struct GameState {\n  a: f32, /* block } */\n  b: vec4f,\n}", 32},
	}
	for _, tt := range tests {
		out, meta := process(t, nil, tt.decl+"\nfn main() {}\n")
		if meta.StateSize != tt.size {
			t.Errorf("%s: expected state_size %d, got %d", tt.decl, tt.size, meta.StateSize)
		}
		if !strings.Contains(out, "state: GameState") {
			t.Errorf("%s: expected state field in host struct", tt.decl)
		}
		if strings.Count(out, "struct GameState") != 1 {
			t.Errorf("%s: expected GameState to be moved into the header once:\n%s", tt.decl, out)
		}
		if strings.Contains(out, "*/\n}") {
			t.Errorf("%s: expected the whole declaration to be moved:\n%s", tt.decl, out)
		}
		if strings.Index(out, "struct GameState") > strings.Index(out, "struct GameEngineHost") {
			t.Errorf("%s: expected GameState before the host struct", tt.decl)
		}
	}
}

func TestStateSizeAlignment(t *testing.T) {
	decls := []string{
		"struct GameState { a: u32, b: i32, c: f32 }",
		"struct GameState { a: f32, v: vec3f }",
		"struct GameState { a: vec4f, b: u32 }",
		"struct GameState { a: u32, v: vec2f, w: vec3<f32> }",
	}
	for _, decl := range decls {
		_, meta := process(t, nil, decl)
		hasWide := strings.Contains(decl, "vec3") || strings.Contains(decl, "vec4")
		switch {
		case hasWide && meta.StateSize%16 != 0:
			t.Errorf("%s: expected multiple of 16, got %d", decl, meta.StateSize)
		case meta.StateSize%4 != 0:
			t.Errorf("%s: expected multiple of 4, got %d", decl, meta.StateSize)
		case meta.StateSize%meta.StateAlign != 0:
			t.Errorf("%s: size %d not a multiple of alignment %d", decl, meta.StateSize, meta.StateAlign)
		}
	}
}

func TestCircularImports(t *testing.T) {
	src := source.Map{
		"a.wgsl": []byte("@import(\"b.wgsl\")\nfn a() {}\n"),
		"b.wgsl": []byte("@import(\"a.wgsl\")\nfn b() {}\n"),
	}

	out, _, err := NewPreProcessor(src).ProcessFile("a.wgsl")
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if strings.Count(out, "// Imported from b.wgsl") != 1 {
		t.Errorf("expected b.wgsl inlined once:\n%s", out)
	}
	if !strings.Contains(out, "// Already imported: a.wgsl") {
		t.Errorf("expected already imported marker for a.wgsl:\n%s", out)
	}
	if strings.Count(out, "fn a() {}") != 1 || strings.Count(out, "fn b() {}") != 1 {
		t.Errorf("expected each function once:\n%s", out)
	}

	// Starting from the text rather than the file inlines a.wgsl once before the cycle
	// is cut.
	text, _ := src.ReadText("a.wgsl")
	out, _ = process(t, src, text)
	if !strings.Contains(out, "// Already imported: b.wgsl") {
		t.Errorf("expected already imported marker for b.wgsl:\n%s", out)
	}
}

func TestImportSlotsAreGlobal(t *testing.T) {
	src := source.Map{
		"util.wgsl": []byte("fn tint() -> vec4f { return textureSample(@texture(\"x.png\"), @engine.sampler, vec2f(0.0)); }\n"),
		"sfx.wgsl":  []byte("fn boom() { @sound(\"boom.wav\").play(); }\n"),
	}
	text := `@import("util.wgsl")
@import("sfx.wgsl")
@import("util.wgsl")
fn main() {
    let a = @texture("y.png");
    let b = @texture("x.png");
    let c = @sound("step.wav");
    let d = @sound("boom.wav");
}
`
	out, meta := process(t, src, text)

	if !equalStrings(meta.Textures, []string{"x.png", "y.png"}) {
		t.Errorf("textures: expected [x.png y.png], got %v", meta.Textures)
	}
	if !equalStrings(meta.Sounds, []string{"boom.wav", "step.wav"}) {
		t.Errorf("sounds: expected [boom.wav step.wav], got %v", meta.Sounds)
	}
	for _, want := range []string{
		"let a = _texture_1;",
		"let b = _texture_0;",
		"let c = _engine.audio[1];",
		"let d = _engine.audio[0];",
		"_engine.audio[0]++;",
		"// Already imported: util.wgsl",
		"audio: array<u32, 2>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestMissingImport(t *testing.T) {
	_, _, err := NewPreProcessor(source.Map{}).Process(`@import("gone.wgsl")`)
	if !errors.Is(err, source.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCameraSlots(t *testing.T) {
	src := "let a = @camera(3);\nlet b = @camera(1);\nlet c = @camera(3);\n@texture(\"t.png\")\n"
	out, meta := process(t, nil, src)

	if len(meta.Cameras) != 2 || meta.Cameras[0] != 1 || meta.Cameras[1] != 3 {
		t.Fatalf("cameras: expected [1 3], got %v", meta.Cameras)
	}
	for _, want := range []string{
		"let a = _camera_1;",
		"let b = _camera_0;",
		"@group(0) @binding(2) var _camera_0: texture_2d<f32>; // camera 1",
		"@group(0) @binding(3) var _camera_1: texture_2d<f32>; // camera 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestMalformedNumbers(t *testing.T) {
	for _, src := range []string{
		"@set_size(99999999999, 10)",
		"@camera(4294967296)",
	} {
		_, _, err := NewPreProcessor(nil).Process(src)
		if !errors.Is(err, ErrMalformedDirective) {
			t.Errorf("%s: expected ErrMalformedDirective, got %v", src, err)
		}
	}
}

func TestOSCParams(t *testing.T) {
	out, meta := process(t, nil, `let s = @osc("speed") * @osc("gain") + @osc("speed") + @engine.osc[5];`)
	if !equalStrings(meta.OSCParams, []string{"speed", "gain"}) {
		t.Errorf("osc: expected [speed gain], got %v", meta.OSCParams)
	}
	if !strings.Contains(out, "let s = _engine.osc[0] * _engine.osc[1] + _engine.osc[0] + _engine.osc[5];") {
		t.Errorf("unexpected osc rewrite:\n%s", out)
	}

	var sb strings.Builder
	for i := 0; i <= metadata.OSCFloatCount; i++ {
		fmt.Fprintf(&sb, "@osc(\"p%d\")\n", i)
	}
	if _, _, err := NewPreProcessor(nil).Process(sb.String()); !errors.Is(err, ErrTooManyOSCParams) {
		t.Errorf("expected ErrTooManyOSCParams, got %v", err)
	}
}

func TestSoundForms(t *testing.T) {
	out, meta := process(t, nil, `@sound("a.wav").play(); @sound("a.wav").stop(); let n = @sound("a.wav");`)
	if !equalStrings(meta.Sounds, []string{"a.wav"}) {
		t.Errorf("sounds: expected [a.wav], got %v", meta.Sounds)
	}
	want := "_engine.audio[0]++; /* stop sound 0 - not implemented */; let n = _engine.audio[0];"
	if !strings.Contains(out, want) {
		t.Errorf("expected %q in output:\n%s", want, out)
	}
}

func TestModels(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	src := "let p = @model(\"ship.obj\").positions[i];\nlet n = @model(\"ship.obj\").normals[i];\nlet q = @model(\"rock.glb\");\n"
	out, meta := process(t, nil, src, WithLogger(logger))

	if !equalStrings(meta.Models, []string{"ship.obj", "rock.glb"}) {
		t.Errorf("models: expected [ship.obj rock.glb], got %v", meta.Models)
	}
	for _, want := range []string{
		"let p = _model_0_positions.data[i];",
		"let n = _model_0_normals.data[i];",
		`let q = /* @model("rock.glb") - use .positions or .normals */;`,
		"@group(2) @binding(3) var<storage, read> _model_1_positions: Model1Positions; // rock.glb",
		"@group(2) @binding(4) var<storage, read> _model_1_normals: Model1Normals;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
	if !strings.Contains(logs.String(), "without .positions or .normals") {
		t.Errorf("expected a warning for the bare model reference, got %q", logs.String())
	}
}

func TestStr(t *testing.T) {
	out, _ := process(t, nil, `const msg = @str("hi");`)
	start := strings.Index(out, "array<u32, 128>(")
	if start < 0 {
		t.Fatalf("expected array literal:\n%s", out)
	}
	literal := out[start:]
	literal = literal[:strings.Index(literal, ")")+1]
	if !strings.HasPrefix(literal, "array<u32, 128>(104u, 105u, 0u, ") {
		t.Errorf("unexpected literal prefix: %s", literal[:40])
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(literal, "array<u32, 128>("), ")")
	elems := strings.Split(inner, ", ")
	if len(elems) != metadata.StringLength {
		t.Fatalf("expected %d elements, got %d", metadata.StringLength, len(elems))
	}
	for i, e := range elems[2:] {
		if e != "0u" {
			t.Fatalf("element %d: expected 0u, got %s", i+2, e)
		}
	}
}

func TestStrEscapesAndTruncation(t *testing.T) {
	out, _ := process(t, nil, `let s = @str("a\nb\"");`)
	if !strings.Contains(out, "array<u32, 128>(97u, 10u, 98u, 34u, 0u") {
		t.Errorf("unexpected escape handling:\n%s", out)
	}

	long := strings.Repeat("x", metadata.StringLength+10)
	out, _ = process(t, nil, `let s = @str("`+long+`");`)
	_, literal, _ := strings.Cut(out, "let s = ")
	if strings.Contains(literal, " 0u") {
		t.Error("expected a full literal without padding")
	}
	if got := strings.Count(literal, "120u"); got != metadata.StringLength {
		t.Errorf("expected %d elements, got %d", metadata.StringLength, got)
	}
}

func TestEngineFields(t *testing.T) {
	out, _ := process(t, nil, "let t = @engine.time + @engine.delta_time;\nlet m = @engine.mouse;\nlet k = @engine.keys[KEY_A];\nlet x = @engine.unknown;\nlet b = @engine.buttons[BTN_A];\n")
	for _, want := range []string{
		"let t = _engine.time + _engine.delta_time;",
		"let m = _engine.mouse;",
		"let k = _engine.keys[KEY_A];",
		"let x = @engine.unknown;",
		"let b = _engine.buttons[BTN_A];",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestHeaderDeclaresBindingNames(t *testing.T) {
	out, meta := process(t, nil, `@texture("a.png") @video("v.mp4") @camera(0) @model("m.obj").positions[0]`)

	decls := []string{
		fmt.Sprintf("@group(%d) @binding(0) var %s: sampler;", metadata.GroupTextures, metadata.SamplerVarName),
		fmt.Sprintf("@group(%d) @binding(%d) var %s:", metadata.GroupTextures, meta.TextureBinding(0), metadata.TextureVar(0)),
		fmt.Sprintf("@group(%d) @binding(%d) var %s:", metadata.GroupTextures, meta.VideoBinding(0), metadata.VideoVar(0)),
		fmt.Sprintf("@group(%d) @binding(%d) var %s:", metadata.GroupTextures, meta.CameraBinding(0), metadata.CameraVar(0)),
		fmt.Sprintf("@group(%d) @binding(%d) var<storage, read_write> %s: %s;", metadata.GroupHost, metadata.HostBinding, metadata.HostVarName, metadata.HostStructName),
	}
	posBinding, normBinding := meta.ModelBindings(0)
	posVar, normVar := metadata.ModelVars(0)
	decls = append(decls,
		fmt.Sprintf("@group(%d) @binding(%d) var<storage, read> %s:", metadata.GroupModels, posBinding, posVar),
		fmt.Sprintf("@group(%d) @binding(%d) var<storage, read> %s:", metadata.GroupModels, normBinding, normVar),
	)
	for _, decl := range decls {
		if !strings.Contains(out, decl) {
			t.Errorf("expected header to declare %q", decl)
		}
	}
}

func TestHeaderOptions(t *testing.T) {
	out, meta := process(t, nil, "fn main() {}", WithMouse(false), WithKeys(false))
	if meta.Mouse || meta.Keys {
		t.Errorf("expected mouse and keys disabled, got %v %v", meta.Mouse, meta.Keys)
	}
	if strings.Contains(out, "mouse: vec4f") || strings.Contains(out, "keys: array<u32") || strings.Contains(out, "KEY_A") {
		t.Errorf("expected no mouse or key fields:\n%s", out)
	}

	out, _ = process(t, nil, "fn main() {}")
	for _, want := range []string{"mouse: vec4f", "keys: array<u32, 194>", "const KEY_A: u32 = 19u;", "const BTN_SELECT: u32 = 11u;"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected header to contain %q", want)
		}
	}
}

func TestIdempotentRewrite(t *testing.T) {
	src := `@set_title("Demo")
fn main() {
    let c = textureSample(@texture("a.png"), @engine.sampler, vec2f(@engine.time));
    @sound("beep.wav").play();
    let s = @str("ok");
    let o = @osc("level");
}
`
	first, _ := process(t, nil, src)
	second, _ := process(t, nil, first)
	if !strings.HasSuffix(second, first) {
		t.Errorf("expected second pass to only prepend a header")
	}
}

func TestConcurrentProcessing(t *testing.T) {
	src := source.Map{
		"main.wgsl":   []byte("@import(\"common.wgsl\")\nfn main() { let t = @texture(\"a.png\"); }\n"),
		"common.wgsl": []byte("fn helper() {}\n"),
	}
	prof := profiler.NewProfiler()
	pp := NewPreProcessor(src, WithProfiler(prof))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, _, err := pp.ProcessFile("main.wgsl")
			if err != nil {
				errs <- err
				return
			}
			if strings.Contains(out, "Already imported") {
				errs <- errors.New("import state leaked between passes")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	for _, s := range prof.Stages() {
		if s.Count != 8 {
			t.Errorf("stage %s: expected 8 runs, got %d", s.Name, s.Count)
		}
	}
}
