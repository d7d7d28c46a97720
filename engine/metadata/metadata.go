// Package metadata defines the record a preprocessing pass produces alongside the
// rewritten shader: the window title and size, every external resource the shader
// references (each list ordered by slot index), and the size of the user's GameState
// struct. The GPU host uses it to allocate textures, load sounds and models, build bind
// group layouts and size the shared host state buffer.
package metadata

import (
	"slices"

	"github.com/Carmen-Shannon/wgsl-game/common"
)

const (
	// DefaultTitle is the window title used when a shader has no @set_title directive.
	DefaultTitle = "WGSL Game"

	// DefaultWidth and DefaultHeight are the surface size used without @set_size.
	DefaultWidth  = 800
	DefaultHeight = 600

	// OSCFloatCount is the number of named OSC float slots in the host state buffer.
	OSCFloatCount = 64

	// StringLength is the fixed element count of the u32 array produced by @str.
	StringLength = 128
)

// Metadata describes the resources and host state layout required by one processed
// shader. Slot indices are positions in the respective lists.
type Metadata struct {
	// Title is the window title.
	Title string `json:"title" yaml:"title"`

	// Width and Height are the requested surface size in pixels.
	Width  uint32 `json:"width" yaml:"width"`
	Height uint32 `json:"height" yaml:"height"`

	// Textures lists @texture and @texture_index file names by slot.
	Textures []string `json:"textures" yaml:"textures"`

	// Sounds lists @sound file names by slot; the slot indexes the audio counter array.
	Sounds []string `json:"sounds" yaml:"sounds"`

	// Videos lists @video file names by slot.
	Videos []string `json:"videos" yaml:"videos"`

	// Models lists @model file names by slot.
	Models []string `json:"models" yaml:"models"`

	// Cameras lists the @camera device indices, sorted ascending. The position in the
	// list is the camera's binding slot.
	Cameras []uint32 `json:"cameras" yaml:"cameras"`

	// OSCParams lists @osc parameter names by slot, at most OSCFloatCount entries.
	OSCParams []string `json:"osc_params" yaml:"osc_params"`

	// StateSize is the byte size of the GameState struct, 0 when the shader has none.
	StateSize uint32 `json:"state_size" yaml:"state_size"`

	// StateAlign is the byte alignment of the GameState struct, 0 when the shader has none.
	StateAlign uint32 `json:"state_align" yaml:"state_align"`

	// Mouse reports whether the generated host struct has a mouse field.
	Mouse bool `json:"mouse" yaml:"mouse"`

	// Keys reports whether the generated host struct has a raw key state array.
	Keys bool `json:"keys" yaml:"keys"`
}

// New returns a Metadata record populated with the defaults a shader without any
// directives gets.
//
// Returns:
//   - Metadata: the default record
func New() Metadata {
	return Metadata{
		Title:     DefaultTitle,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Textures:  []string{},
		Sounds:    []string{},
		Videos:    []string{},
		Models:    []string{},
		Cameras:   []uint32{},
		OSCParams: []string{},
	}
}

// AddTexture registers a texture reference and returns its slot.
func (m *Metadata) AddTexture(name string) int {
	var slot int
	m.Textures, slot = common.AppendUnique(m.Textures, name)
	return slot
}

// AddSound registers a sound reference and returns its slot.
func (m *Metadata) AddSound(name string) int {
	var slot int
	m.Sounds, slot = common.AppendUnique(m.Sounds, name)
	return slot
}

// AddVideo registers a video reference and returns its slot.
func (m *Metadata) AddVideo(name string) int {
	var slot int
	m.Videos, slot = common.AppendUnique(m.Videos, name)
	return slot
}

// AddModel registers a model reference and returns its slot.
func (m *Metadata) AddModel(name string) int {
	var slot int
	m.Models, slot = common.AppendUnique(m.Models, name)
	return slot
}

// AddOSCParam registers an OSC parameter name and returns its slot. The slot may exceed
// OSCFloatCount; callers enforce the bound.
func (m *Metadata) AddOSCParam(name string) int {
	var slot int
	m.OSCParams, slot = common.AppendUnique(m.OSCParams, name)
	return slot
}

// AddCamera registers a camera device index. Camera slots are only final after
// SortCameras.
func (m *Metadata) AddCamera(index uint32) {
	m.Cameras, _ = common.AppendUnique(m.Cameras, index)
}

// SortCameras orders the camera list ascending so slots follow device index order.
func (m *Metadata) SortCameras() {
	slices.Sort(m.Cameras)
}

// TextureSlot returns the slot of a texture file name.
func (m Metadata) TextureSlot(name string) (int, bool) {
	return indexOf(m.Textures, name)
}

// SoundSlot returns the slot of a sound file name.
func (m Metadata) SoundSlot(name string) (int, bool) {
	return indexOf(m.Sounds, name)
}

// VideoSlot returns the slot of a video file name.
func (m Metadata) VideoSlot(name string) (int, bool) {
	return indexOf(m.Videos, name)
}

// ModelSlot returns the slot of a model file name.
func (m Metadata) ModelSlot(name string) (int, bool) {
	return indexOf(m.Models, name)
}

// CameraSlot returns the slot of a camera device index.
func (m Metadata) CameraSlot(index uint32) (int, bool) {
	return indexOf(m.Cameras, index)
}

// OSCSlot returns the slot of an OSC parameter name.
func (m Metadata) OSCSlot(name string) (int, bool) {
	return indexOf(m.OSCParams, name)
}

// HasState reports whether the shader declared a GameState struct.
func (m Metadata) HasState() bool {
	return m.StateSize > 0
}

// TextureBinding returns the @group(0) binding index of a texture slot.
func (m Metadata) TextureBinding(slot int) int {
	return 1 + slot
}

// VideoBinding returns the @group(0) binding index of a video slot. Videos follow the
// textures.
func (m Metadata) VideoBinding(slot int) int {
	return 1 + len(m.Textures) + slot
}

// CameraBinding returns the @group(0) binding index of a camera slot. Cameras follow
// the videos.
func (m Metadata) CameraBinding(slot int) int {
	return 1 + len(m.Textures) + len(m.Videos) + slot
}

// ModelBindings returns the @group(2) binding indices of a model's positions and
// normals buffers.
func (m Metadata) ModelBindings(slot int) (positions, normals int) {
	return 1 + slot*2, 2 + slot*2
}

// Clone returns a deep copy so callers can hand the record to other goroutines.
func (m Metadata) Clone() Metadata {
	m.Textures = slices.Clone(m.Textures)
	m.Sounds = slices.Clone(m.Sounds)
	m.Videos = slices.Clone(m.Videos)
	m.Models = slices.Clone(m.Models)
	m.Cameras = slices.Clone(m.Cameras)
	m.OSCParams = slices.Clone(m.OSCParams)
	return m
}

func indexOf[T comparable](list []T, v T) (int, bool) {
	i := slices.Index(list, v)
	return i, i >= 0
}
