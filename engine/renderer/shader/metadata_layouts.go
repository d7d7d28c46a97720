package shader

import (
	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group indices and variable names of the generated header.
const (
	GroupTextures = metadata.GroupTextures
	GroupHost     = metadata.GroupHost
	GroupModels   = metadata.GroupModels

	SamplerVarName = metadata.SamplerVarName
	HostVarName    = metadata.HostVarName
)

// vec3Stride is the array stride of vec3f elements in storage buffers.
const vec3Stride = 16

// LayoutsFromMetadata builds the bind group layouts of a processed shader from its
// metadata alone, in the binding order of the generated header: group 0 holds the
// sampler, then textures, videos and cameras; group 1 holds the host state buffer;
// group 2 holds a positions and a normals buffer per model.
//
// Parameters:
//   - meta: the preprocessor metadata
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func LayoutsFromMetadata(meta metadata.Metadata, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	varNames := map[int]map[int]string{
		GroupTextures: {},
		GroupHost:     {},
	}

	add := func(group, binding int, name string, entry wgpu.BindGroupLayoutEntry) {
		entry.Binding = uint32(binding)
		entry.Visibility = visibility
		groups[group] = append(groups[group], entry)
		varNames[group][binding] = name
	}

	add(GroupTextures, 0, SamplerVarName, classifyResource(0, visibility, "", "sampler"))
	texture := classifyResource(0, visibility, "", "texture_2d<f32>")
	for slot := range meta.Textures {
		add(GroupTextures, meta.TextureBinding(slot), metadata.TextureVar(slot), texture)
	}
	for slot := range meta.Videos {
		add(GroupTextures, meta.VideoBinding(slot), metadata.VideoVar(slot), texture)
	}
	for slot := range meta.Cameras {
		add(GroupTextures, meta.CameraBinding(slot), metadata.CameraVar(slot), texture)
	}

	host := classifyResource(0, visibility, "storage, read_write", metadata.HostStructName)
	host.Buffer.MinBindingSize = uint64(meta.HostLayout().StructSize)
	add(GroupHost, metadata.HostBinding, HostVarName, host)

	if len(meta.Models) > 0 {
		varNames[GroupModels] = map[int]string{}
		model := classifyResource(0, visibility, "storage, read", "")
		model.Buffer.MinBindingSize = vec3Stride
		for slot := range meta.Models {
			pos, norm := meta.ModelBindings(slot)
			posVar, normVar := metadata.ModelVars(slot)
			add(GroupModels, pos, posVar, model)
			add(GroupModels, norm, normVar, model)
		}
	}

	return sortedDescriptors(groups), varNames
}
