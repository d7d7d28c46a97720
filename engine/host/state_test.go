package host

import (
	"encoding/binary"
	"math"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

func testMetadata() metadata.Metadata {
	meta := metadata.New()
	meta.AddSound("jump.wav")
	meta.AddSound("coin.wav")
	meta.AddOSCParam("cutoff")
	meta.AddOSCParam("gain")
	meta.StateSize = 16
	meta.StateAlign = 16
	meta.Mouse = true
	meta.Keys = true
	return meta
}

func readFloat(buf []byte, offset uint32) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func TestEncodeOffsets(t *testing.T) {
	meta := testMetadata()
	layout := meta.HostLayout()

	s := NewState(meta)
	s.Buttons[common.ButtonStart] = 1
	s.Time = 1.5
	s.DeltaTime = 0.25
	s.Mouse = [4]float32{10, 20, 1, 0}
	copy(s.GameState, []byte{1, 2, 3, 4})
	s.Audio[1] = 7
	if !s.SetOSC(meta, "gain", 0.5) {
		t.Fatal("expected gain to be a known OSC parameter")
	}
	s.Keys[42] = 1

	buf := s.Encode(layout)
	if uint32(len(buf)) != layout.Size {
		t.Fatalf("expected buffer of %d bytes, got %d", layout.Size, len(buf))
	}

	sec := func(name string) metadata.Section {
		v, ok := layout.Section(name)
		if !ok {
			t.Fatalf("layout has no %s section:\n%s", name, spew.Sdump(layout))
		}
		return v
	}

	buttons := sec(metadata.FieldButtons)
	if got := int32(binary.LittleEndian.Uint32(buf[buttons.Offset+4*common.ButtonStart:])); got != 1 {
		t.Errorf("expected START pressed, got %d", got)
	}
	if got := readFloat(buf, sec(metadata.FieldTime).Offset); got != 1.5 {
		t.Errorf("expected time 1.5, got %v", got)
	}
	if got := readFloat(buf, sec(metadata.FieldDeltaTime).Offset); got != 0.25 {
		t.Errorf("expected delta_time 0.25, got %v", got)
	}
	if got := readFloat(buf, sec(metadata.FieldScreenWidth).Offset); got != metadata.DefaultWidth {
		t.Errorf("expected screen_width %d, got %v", metadata.DefaultWidth, got)
	}
	if got := readFloat(buf, sec(metadata.FieldScreenHeight).Offset); got != metadata.DefaultHeight {
		t.Errorf("expected screen_height %d, got %v", metadata.DefaultHeight, got)
	}
	if got := readFloat(buf, sec(metadata.FieldMouse).Offset+4); got != 20 {
		t.Errorf("expected mouse.y 20, got %v", got)
	}
	state := sec(metadata.FieldState)
	if state.Offset%16 != 0 {
		t.Errorf("expected state offset aligned to 16, got %d", state.Offset)
	}
	if !slices.Equal(buf[state.Offset:state.Offset+4], []byte{1, 2, 3, 4}) {
		t.Errorf("unexpected state bytes %v", buf[state.Offset:state.End()])
	}
	if got := binary.LittleEndian.Uint32(buf[sec(metadata.FieldAudio).Offset+4:]); got != 7 {
		t.Errorf("expected audio[1] = 7, got %d", got)
	}
	if got := readFloat(buf, sec(metadata.FieldOSC).Offset+4); got != 0.5 {
		t.Errorf("expected osc[1] = 0.5, got %v", got)
	}
	if got := binary.LittleEndian.Uint32(buf[sec(metadata.FieldKeys).Offset+4*42:]); got != 1 {
		t.Errorf("expected key 42 pressed, got %d", got)
	}
}

func TestEncodeWithoutOptionalSections(t *testing.T) {
	meta := metadata.New()
	layout := meta.HostLayout()

	s := NewState(meta)
	s.GameState = []byte{9, 9, 9}
	s.Audio = []uint32{5}
	buf := s.Encode(layout)

	if len(buf) != 320 {
		t.Fatalf("expected 320 bytes, got %d", len(buf))
	}
	osc, _ := layout.Section(metadata.FieldOSC)
	if osc.Offset != 64 {
		t.Errorf("expected osc directly after the clock at 64, got %d", osc.Offset)
	}
}

func TestEncodeHostKeepsShaderSections(t *testing.T) {
	meta := testMetadata()
	layout := meta.HostLayout()

	// The shader has advanced the counters and written its state since the first upload.
	gpu := NewState(meta)
	gpu.Audio = []uint32{7, 2}
	copy(gpu.GameState, []byte{1, 2, 3, 4})
	buf := gpu.Encode(layout)

	frame := NewState(meta)
	frame.Time = 3.5
	frame.Keys[4] = 1
	if err := frame.EncodeHost(layout, buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	audio, _ := DecodeAudio(layout, buf)
	if !slices.Equal(audio, []uint32{7, 2}) {
		t.Errorf("audio counters overwritten: got %v", audio)
	}
	state, _ := DecodeGameState(layout, buf)
	if !slices.Equal(state[:4], []byte{1, 2, 3, 4}) {
		t.Errorf("game state overwritten: got %s", spew.Sdump(state))
	}
	timeSec, _ := layout.Section(metadata.FieldTime)
	if got := readFloat(buf, timeSec.Offset); got != 3.5 {
		t.Errorf("time: expected 3.5, got %v", got)
	}
	keys, _ := layout.Section(metadata.FieldKeys)
	if got := binary.LittleEndian.Uint32(buf[keys.Offset+16:]); got != 1 {
		t.Errorf("key slot 4: expected 1, got %d", got)
	}

	if err := frame.EncodeHost(layout, buf[:8]); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
}

func TestSetOSCUnknown(t *testing.T) {
	meta := testMetadata()
	s := NewState(meta)
	if s.SetOSC(meta, "missing", 1) {
		t.Error("expected unknown OSC parameter to be rejected")
	}
}

func TestDecodeReadback(t *testing.T) {
	meta := testMetadata()
	layout := meta.HostLayout()

	s := NewState(meta)
	s.Audio = []uint32{3, 4}
	copy(s.GameState, []byte{0xAA, 0xBB})
	buf := s.Encode(layout)

	audio, err := DecodeAudio(layout, buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(audio, []uint32{3, 4}) {
		t.Errorf("expected [3 4], got %v", audio)
	}

	state, err := DecodeGameState(layout, buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(state) != 16 || state[0] != 0xAA || state[1] != 0xBB {
		t.Errorf("unexpected game state %v", state)
	}

	if _, err := DecodeAudio(layout, buf[:10]); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
	if _, err := DecodeGameState(layout, buf[:10]); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}

	empty := metadata.New().HostLayout()
	if audio, err := DecodeAudio(empty, buf); audio != nil || err != nil {
		t.Errorf("expected nil audio without sounds, got %v, %v", audio, err)
	}
}

func TestTriggered(t *testing.T) {
	tests := []struct {
		name      string
		prev, cur []uint32
		expected  []int
	}{
		{"unchanged", []uint32{1, 2}, []uint32{1, 2}, nil},
		{"advanced", []uint32{1, 2, 3}, []uint32{2, 2, 5}, []int{0, 2}},
		{"wraparound", []uint32{math.MaxUint32}, []uint32{0}, []int{0}},
		{"first frame", nil, []uint32{0, 1}, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Triggered(tt.prev, tt.cur)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
