// Package shader reflects a preprocessed game shader into the CPU-side wgpu descriptors
// a GPU host needs: bind group layouts for the sampler, textures, host state buffer and
// model buffers, entry point names and the shader module descriptor.
package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies a shader stage entry point kind.
type ShaderType int

const (
	// ShaderTypeCompute indicates a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex indicates a @vertex entry point.
	ShaderTypeVertex

	// ShaderTypeFragment indicates a @fragment entry point.
	ShaderTypeFragment
)

// shaderTypes lists every stage with its wgpu visibility flag.
var shaderTypes = []struct {
	shaderType ShaderType
	stage      wgpu.ShaderStage
}{
	{ShaderTypeVertex, wgpu.ShaderStageVertex},
	{ShaderTypeFragment, wgpu.ShaderStageFragment},
	{ShaderTypeCompute, wgpu.ShaderStageCompute},
}

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation.
type shader struct {
	key                        string
	source                     string
	meta                       metadata.Metadata
	visibility                 wgpu.ShaderStage
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	entryPoints                map[ShaderType]string
	workGroupSize              [3]uint32
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader is a preprocessed game shader with its reflected binding layout. The layout is
// derived from the metadata, so it follows the binding order the header synthesizer
// emits; ParseBindGroupLayouts re-derives it from source text for verification.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// Metadata retrieves the preprocessor metadata the shader was built with.
	//
	// Returns:
	//   - metadata.Metadata: the resource and layout record
	Metadata() metadata.Metadata

	// Visibility returns the union of stages that have an entry point, applied to every
	// bind group layout entry.
	//
	// Returns:
	//   - wgpu.ShaderStage: the stage flags
	Visibility() wgpu.ShaderStage

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is unused
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all bind group layout descriptors.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name for a given group and binding index, if it exists.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index for a given group and variable name, if it exists.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index associated with the variable name, or -1 if not found
	//   - bool: true if the variable name was found, false otherwise
	BindGroupFromVarName(group int, varName string) (int, bool)

	// BindGroupVarNames retrieves all variable names for all bind groups.
	//
	// Returns:
	//   - map[int]map[int]string: variable names keyed by group and binding index
	BindGroupVarNames() map[int]map[int]string

	// EntryPoint returns the entry point name for a stage.
	//
	// Parameters:
	//   - shaderType: the stage to look up
	//
	// Returns:
	//   - string: the entry point name, or an empty string if the shader has none for the stage
	EntryPoint(shaderType ShaderType) string

	// WorkgroupSize returns the @workgroup_size dimensions, [1, 1, 1] when not specified.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Module returns the wgpu.ShaderModuleDescriptor built from the processed source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader reflects a processed shader.
//
// Parameters:
//   - key: a unique identifier for the shader, used as the module label
//   - source: the processed WGSL source
//   - meta: the metadata the preprocessor returned with source
//
// Returns:
//   - Shader: a new Shader instance with the provided configuration
func NewShader(key string, source string, meta metadata.Metadata) Shader {
	if source == "" {
		panic(fmt.Sprintf("shader: %s must have a processed source", key))
	}
	s := &shader{
		key:         key,
		source:      source,
		meta:        meta,
		entryPoints: make(map[ShaderType]string, len(shaderTypes)),
	}

	for _, st := range shaderTypes {
		if name := parseEntryPoint(source, st.shaderType); name != "" {
			s.entryPoints[st.shaderType] = name
			s.visibility |= st.stage
		}
	}
	if s.visibility == wgpu.ShaderStageNone {
		s.visibility = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	}
	if s.entryPoints[ShaderTypeCompute] != "" {
		s.workGroupSize = parseWorkgroupSize(source)
	}

	s.bindGroupLayoutDescriptors, s.bindingVarNames = LayoutsFromMetadata(meta, s.visibility)
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Metadata() metadata.Metadata {
	return s.meta
}

func (s *shader) Visibility() wgpu.ShaderStage {
	return s.visibility
}

func (s *shader) EntryPoint(shaderType ShaderType) string {
	return s.entryPoints[shaderType]
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	if s.bindingVarNames[group] == nil {
		return -1, false
	}
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) BindGroupVarNames() map[int]map[int]string {
	return s.bindingVarNames
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

// ParseBindGroupLayouts re-derives bind group layouts from processed WGSL text by
// scanning its @group/@binding declarations.
//
// Parameters:
//   - source: the processed WGSL source
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func ParseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	return parseBindGroupLayouts(source, visibility)
}
