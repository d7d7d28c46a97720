package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
)

const headerBanner = "// Preprocessed WGSL - generated from macros"

// writeHeader emits the generated preamble: the GameState declaration verbatim, the host
// struct, the BTN_* and KEY_* constants, and every binding declaration in slot order.
//
// Parameters:
//   - sb: the builder the header is written to
//   - meta: the scanned metadata, with cameras already sorted
//   - gameState: the GameState declaration text, empty if the shader has none
func writeHeader(sb *strings.Builder, meta metadata.Metadata, gameState string) {
	sb.WriteString(headerBanner + "\n\n")

	if gameState != "" {
		sb.WriteString(gameState)
		sb.WriteString("\n\n")
	}

	writeHostStruct(sb, meta, gameState != "")
	writeConstants(sb, meta.Keys)
	writeBindings(sb, meta)
	sb.WriteString("\n")
}

func writeHostStruct(sb *strings.Builder, meta metadata.Metadata, hasState bool) {
	sb.WriteString("// Engine state shared with the host, read and written every frame\n")
	fmt.Fprintf(sb, "struct %s {\n", metadata.HostStructName)
	fmt.Fprintf(sb, "    %s: array<i32, %d>, // virtual gamepad, indexed by BTN_*\n", metadata.FieldButtons, common.ButtonCount)
	fmt.Fprintf(sb, "    %s: f32, // seconds since start\n", metadata.FieldTime)
	fmt.Fprintf(sb, "    %s: f32, // seconds since the previous frame\n", metadata.FieldDeltaTime)
	fmt.Fprintf(sb, "    %s: f32, // surface width in pixels\n", metadata.FieldScreenWidth)
	fmt.Fprintf(sb, "    %s: f32, // surface height in pixels\n", metadata.FieldScreenHeight)
	if meta.Mouse {
		fmt.Fprintf(sb, "    %s: vec4f, // xy = position, zw = click position (negative while released)\n", metadata.FieldMouse)
	}
	if hasState {
		fmt.Fprintf(sb, "    %s: %s, // persists across frames\n", metadata.FieldState, GameStateName)
	}
	if len(meta.Sounds) > 0 {
		fmt.Fprintf(sb, "    %s: array<u32, %d>, // sound trigger counters\n", metadata.FieldAudio, len(meta.Sounds))
	}
	fmt.Fprintf(sb, "    %s: array<f32, %d>, // OSC floats, by parameter slot\n", metadata.FieldOSC, metadata.OSCFloatCount)
	if meta.Keys {
		fmt.Fprintf(sb, "    %s: array<u32, %d>, // 1 while held, indexed by KEY_*\n", metadata.FieldKeys, common.KeyArraySize)
	}
	sb.WriteString("}\n\n")
}

func writeConstants(sb *strings.Builder, keys bool) {
	sb.WriteString("// Button slots of _engine.buttons\n")
	for slot, name := range common.ButtonConstants {
		fmt.Fprintf(sb, "const %s: u32 = %du;\n", name, slot)
	}
	sb.WriteString("\n")

	if !keys {
		return
	}
	sb.WriteString("// Key slots of _engine.keys, identical on every host\n")
	for _, k := range common.KeyConstants {
		fmt.Fprintf(sb, "const %s: u32 = %du;\n", k.Name, k.Slot)
	}
	sb.WriteString("\n")
}

func writeBindings(sb *strings.Builder, meta metadata.Metadata) {
	sb.WriteString("// Bindings: group 0 = sampler and textures, group 1 = engine state, group 2 = models\n\n")
	fmt.Fprintf(sb, "@group(%d) @binding(0) var %s: sampler;\n", metadata.GroupTextures, metadata.SamplerVarName)

	for slot, name := range meta.Textures {
		fmt.Fprintf(sb, "@group(%d) @binding(%d) var %s: texture_2d<f32>; // %s\n", metadata.GroupTextures, meta.TextureBinding(slot), metadata.TextureVar(slot), name)
	}
	for slot, name := range meta.Videos {
		fmt.Fprintf(sb, "@group(%d) @binding(%d) var %s: texture_2d<f32>; // %s\n", metadata.GroupTextures, meta.VideoBinding(slot), metadata.VideoVar(slot), name)
	}
	for slot, index := range meta.Cameras {
		fmt.Fprintf(sb, "@group(%d) @binding(%d) var %s: texture_2d<f32>; // camera %d\n", metadata.GroupTextures, meta.CameraBinding(slot), metadata.CameraVar(slot), index)
	}

	fmt.Fprintf(sb, "\n@group(%d) @binding(%d) var<storage, read_write> %s: %s;\n", metadata.GroupHost, metadata.HostBinding, metadata.HostVarName, metadata.HostStructName)

	if len(meta.Models) == 0 {
		return
	}
	sb.WriteString("\n// Model vertex data\n")
	for slot, name := range meta.Models {
		posBinding, normBinding := meta.ModelBindings(slot)
		posVar, normVar := metadata.ModelVars(slot)
		fmt.Fprintf(sb, "struct Model%dPositions { data: array<vec3f> }\n", slot)
		fmt.Fprintf(sb, "@group(%d) @binding(%d) var<storage, read> %s: Model%dPositions; // %s\n", metadata.GroupModels, posBinding, posVar, slot, name)
		fmt.Fprintf(sb, "struct Model%dNormals { data: array<vec3f> }\n", slot)
		fmt.Fprintf(sb, "@group(%d) @binding(%d) var<storage, read> %s: Model%dNormals;\n", metadata.GroupModels, normBinding, normVar, slot)
	}
}
