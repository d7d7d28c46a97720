package engine

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	rshader "github.com/Carmen-Shannon/wgsl-game/engine/renderer/shader"
	"github.com/Carmen-Shannon/wgsl-game/engine/source"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

const gameShader = `@set_title("Orbit")
@import("lib.wgsl")

struct GameState { pos: vec2f, score: u32 }

@compute @workgroup_size(1)
fn update() {
    @engine.state.score += 1u;
    if (@engine.buttons[BTN_A] == 1) { @sound("blip.wav").play(); }
}

@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4f {
    return vec4f(@model("tri.obj").positions[i], 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4f {
    return textureSample(@texture("sky.png"), @engine.sampler, vec2f(0.5));
}
`

const libShader = `fn helper() -> f32 { return 1.0; }`

const triOBJ = "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"

func writeGame(t *testing.T, dir string) {
	t.Helper()
	var png bytes.Buffer
	if err := encodePNG(&png); err != nil {
		t.Fatal(err)
	}
	files := map[string][]byte{
		"main.wgsl": []byte(gameShader),
		"lib.wgsl":  []byte(libShader),
		"tri.obj":   []byte(triOBJ),
		"sky.png":   png.Bytes(),
		"blip.wav":  []byte("RIFF"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func encodePNG(buf *bytes.Buffer) error {
	return png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 4, 4)))
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeGame(t, dir)

	g, err := NewGame(dir, WithProfiling(true), WithWorkers(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer g.Close()

	if g.Current() != nil {
		t.Fatal("expected no build before Build")
	}

	b, err := g.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Current() != b {
		t.Error("expected the build to become current")
	}

	if b.Metadata.Title != "Orbit" {
		t.Errorf("expected title Orbit, got %q", b.Metadata.Title)
	}
	if !strings.Contains(b.Source, "// Imported from lib.wgsl") {
		t.Error("expected lib.wgsl to be inlined")
	}
	if b.Layout.Size != b.Metadata.HostLayout().Size {
		t.Errorf("layout mismatch:\n%s", spew.Sdump(b.Layout))
	}
	if got := b.Shader.EntryPoint(rshader.ShaderTypeVertex); got != "vs_main" {
		t.Errorf("expected vertex entry point vs_main, got %q", got)
	}
	if got := b.Shader.EntryPoint(rshader.ShaderTypeCompute); got != "update" {
		t.Errorf("expected compute entry point update, got %q", got)
	}
	if len(b.Shader.BindGroupLayoutDescriptors()) != 3 {
		t.Errorf("expected texture, host and model groups, got:\n%s", spew.Sdump(b.Shader.BindGroupLayoutDescriptors()))
	}

	if b.Assets == nil || len(b.Assets.Textures) != 1 || len(b.Assets.Models) != 1 || len(b.Assets.Sounds) != 1 {
		t.Fatalf("unexpected assets:\n%s", spew.Sdump(b.Assets))
	}
	if b.Assets.Textures[0].Width != 4 {
		t.Errorf("expected a 4px wide texture, got %d", b.Assets.Textures[0].Width)
	}

	stages := g.Profiler().Stages()
	if len(stages) == 0 {
		t.Error("expected profiled stages")
	}
}

func TestBuildSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solo.wgsl")
	if err := os.WriteFile(path, []byte("@set_size(320, 240)\nfn main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := NewGame(path, WithMouse(false), WithKeys(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Entry() != "solo.wgsl" {
		t.Errorf("expected entry solo.wgsl, got %q", g.Entry())
	}
	b, err := g.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Metadata.Width != 320 || b.Metadata.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", b.Metadata.Width, b.Metadata.Height)
	}
	if _, ok := b.Layout.Section(metadata.FieldMouse); ok {
		t.Error("expected no mouse section")
	}
	if g.Profiler() != nil {
		t.Error("expected no profiler unless enabled")
	}
}

func TestBuildMissingAsset(t *testing.T) {
	src := source.Map{"main.wgsl": []byte(`fn f() { let t = @texture("gone.png"); }`)}

	g := NewGameFromSource(src, source.DefaultEntry)
	if _, err := g.Build(context.Background()); !errors.Is(err, source.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if g.Current() != nil {
		t.Error("expected a failed build not to become current")
	}

	g = NewGameFromSource(src, source.DefaultEntry, WithAssets(false))
	b, err := g.Build(context.Background())
	if err != nil {
		t.Fatalf("expected metadata-only build to succeed, got %v", err)
	}
	if b.Assets != nil {
		t.Error("expected no assets")
	}
}

func TestWatchArchive(t *testing.T) {
	g := NewGameFromSource(source.Map{}, source.DefaultEntry)
	if err := g.Watch(context.Background(), nil); !errors.Is(err, ErrNotWatchable) {
		t.Errorf("expected ErrNotWatchable, got %v", err)
	}
}

func TestWatchRebuilds(t *testing.T) {
	dir := t.TempDir()
	writeGame(t, dir)

	g, err := NewGame(dir, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := g.Build(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan *Build, 16)
	done := make(chan error, 1)
	go func() {
		done <- g.Watch(ctx, func(b *Build, err error) {
			if err == nil {
				reloads <- b
			}
		})
	}()

	updated := strings.Replace(gameShader, `"Orbit"`, `"Orbit II"`, 1)
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case b := <-reloads:
			if b.Metadata.Title != "Orbit II" {
				continue
			}
			if g.Current() != b {
				t.Error("expected the rebuild to become current")
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("unexpected watch error: %v", err)
			}
			return
		case <-tick.C:
			// Rewrite until the watcher has registered the directory.
			if err := os.WriteFile(filepath.Join(dir, "main.wgsl"), []byte(updated), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for a rebuild")
		}
	}
}
