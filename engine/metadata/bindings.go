package metadata

import "fmt"

// Bind groups and identifiers of the generated header. The preprocessor emits them and
// GPU hosts bind resources by them, so both sides read them from here.
const (
	// GroupTextures holds the sampler at binding 0 followed by textures, videos and
	// cameras.
	GroupTextures = 0

	// GroupHost holds the host state buffer at HostBinding.
	GroupHost = 1

	// GroupModels holds a positions and a normals buffer per model.
	GroupModels = 2

	HostBinding    = 0
	HostStructName = "GameEngineHost"
	HostVarName    = "_engine"
	SamplerVarName = "_engine_sampler"
)

// TextureVar returns the variable name of a texture slot.
func TextureVar(slot int) string { return fmt.Sprintf("_texture_%d", slot) }

// VideoVar returns the variable name of a video slot.
func VideoVar(slot int) string { return fmt.Sprintf("_video_%d", slot) }

// CameraVar returns the variable name of a camera slot.
func CameraVar(slot int) string { return fmt.Sprintf("_camera_%d", slot) }

// ModelVars returns the variable names of a model slot's positions and normals buffers.
func ModelVars(slot int) (positions, normals string) {
	return fmt.Sprintf("_model_%d_positions", slot), fmt.Sprintf("_model_%d_normals", slot)
}

// HostField returns the expression reading a field of the host state buffer.
func HostField(field string) string {
	return HostVarName + "." + field
}
