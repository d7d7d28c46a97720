package devserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/wgsl-game/engine"
	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/Carmen-Shannon/wgsl-game/engine/source"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

func newTestServer(t *testing.T, build bool) (*Server, *httptest.Server) {
	t.Helper()
	src := source.Map{
		"main.wgsl":      []byte(`@set_title("Served")` + "\nfn f() { let t = @texture(\"img/a.png\"); }\n"),
		"img/a.png":      []byte("\x89PNG\r\n\x1a\nfake"),
		"sounds/hit.wav": []byte("RIFF"),
	}
	g := engine.NewGameFromSource(src, source.DefaultEntry, engine.WithAssets(false))
	if build {
		if _, err := g.Build(context.Background()); err != nil {
			t.Fatalf("unexpected build error: %v", err)
		}
	}
	s := NewServer(g, WithAccessLog(io.Discard))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}
	return resp, string(body)
}

func TestShaderAndManifest(t *testing.T) {
	_, ts := newTestServer(t, true)

	resp, body := get(t, ts.URL+"/shader.wgsl")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "_texture_0") || strings.Contains(body, "@texture") {
		t.Errorf("expected the processed shader, got:\n%s", body)
	}

	resp, body = get(t, ts.URL+"/metadata.json")
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}
	m, err := metadata.ReadManifestJSON(strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Title != "Served" || len(m.Textures) != 1 || m.HostLayout.Size == 0 {
		t.Errorf("unexpected manifest %+v", m)
	}

	_, body = get(t, ts.URL+"/metadata.yaml")
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("unexpected yaml error: %v", err)
	}
	if doc["title"] != "Served" {
		t.Errorf("expected yaml title Served, got %v", doc["title"])
	}
}

func TestNotBuilt(t *testing.T) {
	_, ts := newTestServer(t, false)
	for _, path := range []string{"/shader.wgsl", "/metadata.json"} {
		resp, _ := get(t, ts.URL+path)
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, resp.StatusCode)
		}
	}
}

func TestAssets(t *testing.T) {
	_, ts := newTestServer(t, true)

	resp, body := get(t, ts.URL+"/assets/img/a.png")
	if resp.StatusCode != http.StatusOK || !strings.HasSuffix(body, "fake") {
		t.Errorf("expected the nested asset, got %d %q", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}

	resp, _ = get(t, ts.URL+"/assets/missing.wav")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWebsocketEvents(t *testing.T) {
	s, ts := newTestServer(t, true)
	s.Notify(s.game.Current(), nil)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() Event {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return ev
	}

	ev := read()
	if ev.Type != EventBuilt || ev.Title != "Served" {
		t.Errorf("expected the last build event on connect, got %+v", ev)
	}

	// The client is registered once the first event arrived.
	s.Notify(nil, errors.New("boom"))
	ev = read()
	if ev.Type != EventFailed || ev.Error != "boom" {
		t.Errorf("expected a failure event, got %+v", ev)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
