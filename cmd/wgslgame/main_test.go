package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/pkg/errors"
)

const validShader = `@set_title("Check")

@fragment
fn fs_main() -> @location(0) vec4f {
    return vec4f(@engine.time, 0.0, 0.0, 1.0);
}
`

func writeShader(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.wgsl")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestBuildCommand(t *testing.T) {
	out, err := runCLI(t, "build", "-keys=false", writeShader(t, validShader))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "_engine.time") {
		t.Errorf("expected the processed shader, got:\n%s", out)
	}
	if strings.Contains(out, "keys:") {
		t.Error("expected -keys=false to drop the key array")
	}
}

func TestMetaCommand(t *testing.T) {
	out, err := runCLI(t, "meta", "-format", "json", writeShader(t, validShader))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := metadata.ReadManifestJSON(strings.NewReader(out))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Title != "Check" {
		t.Errorf("expected title Check, got %q", m.Title)
	}

	out, err = runCLI(t, "meta", writeShader(t, validShader))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "title: Check") {
		t.Errorf("expected yaml output, got:\n%s", out)
	}

	if _, err := runCLI(t, "meta", "-format", "toml", writeShader(t, validShader)); err == nil {
		t.Error("expected an unknown format error")
	}
}

func TestCheckCommand(t *testing.T) {
	out, err := runCLI(t, "check", writeShader(t, validShader))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "ok" {
		t.Errorf("expected ok, got %q", out)
	}

	if _, err := runCLI(t, "check", writeShader(t, "fn broken( {\n")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestUsage(t *testing.T) {
	if _, err := runCLI(t); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
	if _, err := runCLI(t, "launch", "x"); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error for unknown command, got %v", err)
	}
	if _, err := runCLI(t, "build"); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error without a path, got %v", err)
	}
}

func TestConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wgslgame.yaml")
	if err := os.WriteFile(path, []byte("addr: :9000\nmouse: false\nlog_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.Mouse || !cfg.Keys {
		t.Errorf("unexpected config %+v", cfg)
	}
	if _, err := cfg.level(); err != nil {
		t.Errorf("unexpected level error: %v", err)
	}

	cfg.LogLevel = "loud"
	if _, err := cfg.level(); err == nil {
		t.Error("expected an invalid level error")
	}

	out, err := runCLI(t, "-config", path, "build", writeShader(t, validShader))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "mouse:") {
		t.Error("expected the config to disable the mouse field")
	}
}

func TestBreakoutExample(t *testing.T) {
	out, err := runCLI(t, "meta", "-format", "json", filepath.Join("..", "..", "examples", "breakout"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := metadata.ReadManifestJSON(strings.NewReader(out))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Title != "Breakout" || m.Width != 640 || m.Height != 480 {
		t.Errorf("unexpected window settings %q %dx%d", m.Title, m.Width, m.Height)
	}
	if len(m.Sounds) != 1 || m.Sounds[0] != "bounce.wav" {
		t.Errorf("expected one bounce.wav sound, got %v", m.Sounds)
	}
	if len(m.Textures) != 1 || m.Textures[0] != "background.png" {
		t.Errorf("expected one background.png texture, got %v", m.Textures)
	}
	if len(m.OSCParams) != 1 || m.OSCParams[0] != "paddle_speed" {
		t.Errorf("expected the paddle_speed osc param, got %v", m.OSCParams)
	}
	if m.StateSize != 32 || m.StateAlign != 8 {
		t.Errorf("expected a 32 byte GameState aligned to 8, got %d/%d", m.StateSize, m.StateAlign)
	}

	src, err := runCLI(t, "build", filepath.Join("..", "..", "examples", "breakout"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(src, "fn sd_box(") != 1 {
		t.Error("expected lib/shapes.wgsl to be inlined exactly once")
	}
	if strings.Contains(src, "@engine") || strings.Contains(src, "@sound") {
		t.Error("expected every directive to be rewritten")
	}
}
