package metadata

import "github.com/Carmen-Shannon/wgsl-game/common"

// Field names of the generated GameEngineHost struct.
const (
	FieldButtons      = "buttons"
	FieldTime         = "time"
	FieldDeltaTime    = "delta_time"
	FieldScreenWidth  = "screen_width"
	FieldScreenHeight = "screen_height"
	FieldMouse        = "mouse"
	FieldState        = "state"
	FieldAudio        = "audio"
	FieldOSC          = "osc"
	FieldKeys         = "keys"
)

// HostBufferAlignment is the alignment the host state buffer size is rounded up to.
const HostBufferAlignment = 16

// Section is one field of the host state buffer.
type Section struct {
	// Name is the GameEngineHost field name.
	Name string `json:"name" yaml:"name"`

	// Offset is the byte offset of the field from the start of the buffer.
	Offset uint32 `json:"offset" yaml:"offset"`

	// Size is the byte size of the field.
	Size uint32 `json:"size" yaml:"size"`

	// Align is the WGSL alignment of the field.
	Align uint32 `json:"align" yaml:"align"`
}

// End returns the offset one past the last byte of the section.
func (s Section) End() uint32 {
	return s.Offset + s.Size
}

// HostLayout is the byte layout of the GameEngineHost storage buffer shared between the
// host and the shader.
type HostLayout struct {
	// Sections lists the fields in declaration order.
	Sections []Section `json:"sections" yaml:"sections"`

	// StructSize is the WGSL size of GameEngineHost.
	StructSize uint32 `json:"struct_size" yaml:"struct_size"`

	// Size is the host buffer size: StructSize rounded up to HostBufferAlignment.
	Size uint32 `json:"size" yaml:"size"`
}

// Section returns the named section, if present.
//
// Parameters:
//   - name: a Field* constant
//
// Returns:
//   - Section: the section
//   - bool: false if the buffer has no such field
func (l HostLayout) Section(name string) (Section, bool) {
	for _, s := range l.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// HostLayout computes the byte layout of the GameEngineHost struct the header
// synthesizer emits for this metadata. Fields are placed with WGSL storage layout rules,
// each at the next offset aligned to its own alignment, in the order: buttons, time,
// delta_time, screen_width, screen_height, [mouse], [state], [audio], osc, [keys].
//
// Returns:
//   - HostLayout: the computed layout
func (m Metadata) HostLayout() HostLayout {
	var layout HostLayout
	offset, maxAlign := uint32(0), uint32(4)

	add := func(name string, size, align uint32) {
		offset = common.AlignUp(align, offset)
		layout.Sections = append(layout.Sections, Section{Name: name, Offset: offset, Size: size, Align: align})
		offset += size
		maxAlign = max(maxAlign, align)
	}

	add(FieldButtons, 4*common.ButtonCount, 4)
	add(FieldTime, 4, 4)
	add(FieldDeltaTime, 4, 4)
	add(FieldScreenWidth, 4, 4)
	add(FieldScreenHeight, 4, 4)
	if m.Mouse {
		add(FieldMouse, 16, 16)
	}
	if m.HasState() {
		add(FieldState, m.StateSize, max(m.StateAlign, 4))
	}
	if len(m.Sounds) > 0 {
		add(FieldAudio, 4*uint32(len(m.Sounds)), 4)
	}
	add(FieldOSC, 4*OSCFloatCount, 4)
	if m.Keys {
		add(FieldKeys, 4*common.KeyArraySize, 4)
	}

	layout.StructSize = common.AlignUp(maxAlign, offset)
	layout.Size = common.AlignUp(HostBufferAlignment, layout.StructSize)
	return layout
}
