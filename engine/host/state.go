// Package host holds the CPU side of the GameEngineHost storage buffer: the per-frame
// state the host writes before each dispatch and the readback of the counters and
// GameState the shader writes back.
package host

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/pkg/errors"
)

// ErrBufferTooSmall is returned when a readback buffer is shorter than the host layout.
var ErrBufferTooSmall = errors.New("host buffer too small")

// State is the host-owned content of the GameEngineHost buffer.
type State struct {
	// Buttons holds the virtual gamepad, 1 while held, indexed by the common.Button* slots.
	Buttons [common.ButtonCount]int32

	// Time is the elapsed time in seconds, DeltaTime the duration of the last frame.
	Time      float32
	DeltaTime float32

	// ScreenWidth and ScreenHeight are the surface size in pixels.
	ScreenWidth  float32
	ScreenHeight float32

	// Mouse is the cursor position in xy and the last click position in zw, negated while
	// the button is released.
	Mouse [4]float32

	// GameState is the raw GameState bytes. It is zero-padded or truncated to the
	// metadata state size on encode.
	GameState []byte

	// Audio holds one play counter per sound slot.
	Audio []uint32

	// OSC holds the OSC float values by parameter slot.
	OSC [metadata.OSCFloatCount]float32

	// Keys holds 1 for every pressed key slot.
	Keys [common.KeyArraySize]uint32
}

// NewState returns a zeroed State sized for the given metadata.
//
// Parameters:
//   - meta: the metadata of the processed shader
//
// Returns:
//   - *State: the new state
func NewState(meta metadata.Metadata) *State {
	return &State{
		ScreenWidth:  float32(meta.Width),
		ScreenHeight: float32(meta.Height),
		GameState:    make([]byte, meta.StateSize),
		Audio:        make([]uint32, len(meta.Sounds)),
	}
}

// Encode serializes the whole state into a buffer laid out as described by layout, for
// the initial upload. Sections missing from the layout are skipped; the buffer is
// layout.Size bytes long. Per-frame updates use EncodeHost so the GameState and audio
// counters the shader wrote are kept.
//
// Parameters:
//   - layout: the host buffer layout of the processed shader
//
// Returns:
//   - []byte: the little-endian buffer contents
func (s *State) Encode(layout metadata.HostLayout) []byte {
	buf := make([]byte, layout.Size)
	for _, sec := range layout.Sections {
		s.encodeSection(sec, buf[sec.Offset:sec.End()])
	}
	return buf
}

// EncodeHost writes the host-owned sections of the state into buf, a copy of the host
// buffer, and leaves the shader-owned GameState and audio sections untouched.
//
// Parameters:
//   - layout: the host buffer layout of the processed shader
//   - buf: the buffer to update, at least layout.Size bytes long
//
// Returns:
//   - error: ErrBufferTooSmall if buf is shorter than the layout
func (s *State) EncodeHost(layout metadata.HostLayout, buf []byte) error {
	if uint32(len(buf)) < layout.Size {
		return errors.Wrapf(ErrBufferTooSmall, "layout needs %d bytes, buffer has %d", layout.Size, len(buf))
	}
	for _, sec := range layout.Sections {
		if ShaderOwned(sec.Name) {
			continue
		}
		s.encodeSection(sec, buf[sec.Offset:sec.End()])
	}
	return nil
}

// ShaderOwned reports whether the shader writes the named section, so the host must not
// overwrite it after the initial upload.
func ShaderOwned(field string) bool {
	return field == metadata.FieldState || field == metadata.FieldAudio
}

func (s *State) encodeSection(sec metadata.Section, dst []byte) {
	switch sec.Name {
	case metadata.FieldButtons:
		copy(dst, common.SliceToBytes(s.Buttons[:]))
	case metadata.FieldTime:
		putFloat(dst, s.Time)
	case metadata.FieldDeltaTime:
		putFloat(dst, s.DeltaTime)
	case metadata.FieldScreenWidth:
		putFloat(dst, s.ScreenWidth)
	case metadata.FieldScreenHeight:
		putFloat(dst, s.ScreenHeight)
	case metadata.FieldMouse:
		copy(dst, common.SliceToBytes(s.Mouse[:]))
	case metadata.FieldState:
		copy(dst, s.GameState)
	case metadata.FieldAudio:
		copy(dst, common.SliceToBytes(s.Audio))
	case metadata.FieldOSC:
		copy(dst, common.SliceToBytes(s.OSC[:]))
	case metadata.FieldKeys:
		copy(dst, common.SliceToBytes(s.Keys[:]))
	}
}

// SetOSC stores an OSC value by parameter name.
//
// Parameters:
//   - meta: the metadata holding the OSC parameter slots
//   - name: the parameter name used in @osc
//   - value: the new value
//
// Returns:
//   - bool: false if the shader never referenced the parameter
func (s *State) SetOSC(meta metadata.Metadata, name string, value float32) bool {
	slot, ok := meta.OSCSlot(name)
	if !ok {
		return false
	}
	s.OSC[slot] = value
	return true
}

// DecodeAudio reads the audio counters back from a host buffer.
//
// Parameters:
//   - layout: the host buffer layout
//   - buf: the buffer contents read back from the GPU
//
// Returns:
//   - []uint32: one counter per sound slot, nil if the shader has no sounds
//   - error: ErrBufferTooSmall if buf does not cover the audio section
func DecodeAudio(layout metadata.HostLayout, buf []byte) ([]uint32, error) {
	sec, ok := layout.Section(metadata.FieldAudio)
	if !ok {
		return nil, nil
	}
	if uint32(len(buf)) < sec.End() {
		return nil, errors.Wrapf(ErrBufferTooSmall, "audio section ends at %d, buffer has %d bytes", sec.End(), len(buf))
	}
	counters := make([]uint32, sec.Size/4)
	for i := range counters {
		counters[i] = binary.LittleEndian.Uint32(buf[sec.Offset+uint32(i)*4:])
	}
	return counters, nil
}

// DecodeGameState copies the GameState bytes out of a host buffer.
//
// Parameters:
//   - layout: the host buffer layout
//   - buf: the buffer contents read back from the GPU
//
// Returns:
//   - []byte: a copy of the GameState bytes, nil if the shader has no GameState
//   - error: ErrBufferTooSmall if buf does not cover the state section
func DecodeGameState(layout metadata.HostLayout, buf []byte) ([]byte, error) {
	sec, ok := layout.Section(metadata.FieldState)
	if !ok {
		return nil, nil
	}
	if uint32(len(buf)) < sec.End() {
		return nil, errors.Wrapf(ErrBufferTooSmall, "state section ends at %d, buffer has %d bytes", sec.End(), len(buf))
	}
	return slices.Clone(buf[sec.Offset:sec.End()]), nil
}

// Triggered compares two audio counter snapshots and returns the sound slots whose
// counter changed, in slot order. Counters are compared for inequality so wraparound
// still triggers.
//
// Parameters:
//   - prev: the counters of the previous frame
//   - cur: the counters of the current frame
//
// Returns:
//   - []int: the sound slots to play
func Triggered(prev, cur []uint32) []int {
	var slots []int
	for i, c := range cur {
		var p uint32
		if i < len(prev) {
			p = prev[i]
		}
		if c != p {
			slots = append(slots, i)
		}
	}
	return slots
}

func putFloat(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}
