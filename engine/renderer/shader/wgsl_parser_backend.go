package shader

import (
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// builtinLayouts holds the size and alignment of every scalar, vector and matrix type,
// under both the templated and the shorthand spelling (vec3<f32> and vec3f).
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var builtinLayouts = map[string]typeLayout{
	"bool": {4, 4},
}

func init() {
	scalars := []struct {
		name, suffix string
		size         uint32
	}{
		{"f32", "f", 4},
		{"i32", "i", 4},
		{"u32", "u", 4},
		{"f16", "h", 2},
	}
	for _, s := range scalars {
		builtinLayouts[s.name] = typeLayout{s.size, s.size}

		for n := uint32(2); n <= 4; n++ {
			vec := vectorLayout(n, s.size)
			builtinLayouts["vec"+strconv.Itoa(int(n))+"<"+s.name+">"] = vec
			builtinLayouts["vec"+strconv.Itoa(int(n))+s.suffix] = vec
		}

		// Only float matrices exist.
		if s.suffix != "f" && s.suffix != "h" {
			continue
		}
		for cols := uint32(2); cols <= 4; cols++ {
			for rows := uint32(2); rows <= 4; rows++ {
				column := vectorLayout(rows, s.size)
				mat := typeLayout{cols * common.AlignUp(column.align, column.size), column.align}
				name := "mat" + strconv.Itoa(int(cols)) + "x" + strconv.Itoa(int(rows))
				builtinLayouts[name+"<"+s.name+">"] = mat
				builtinLayouts[name+s.suffix] = mat
			}
		}
	}
}

// vectorLayout returns the layout of an n-component vector of a scalar with the given
// byte size. vec3 aligns like vec4.
func vectorLayout(n, scalarSize uint32) typeLayout {
	if n == 3 {
		return typeLayout{3 * scalarSize, 4 * scalarSize}
	}
	return typeLayout{n * scalarSize, n * scalarSize}
}

// resolveTypeLayout resolves a type name against the builtin table and the structs
// resolved so far. Templated atomic and array types are resolved recursively; a
// runtime-sized array resolves to its element stride, which is the smallest useful
// binding size.
//
// Parameters:
//   - typeName: the WGSL type, e.g. "f32", "GameEngineHost", "array<vec3f>"
//   - known: struct layouts keyed by struct name
//
// Returns:
//   - typeLayout: the resolved layout
//   - bool: false if some part of the type is unknown
func resolveTypeLayout(typeName string, known map[string]typeLayout) (typeLayout, bool) {
	if layout, ok := builtinLayouts[typeName]; ok {
		return layout, true
	}
	if layout, ok := known[typeName]; ok {
		return layout, true
	}

	base, params := splitTypeParams(typeName)
	switch base {
	case "atomic":
		return resolveTypeLayout(params, known)
	case "array":
		args := splitAtTopLevelCommas(params)
		elem, ok := resolveTypeLayout(strings.TrimSpace(args[0]), known)
		if !ok {
			return typeLayout{}, false
		}
		stride := common.AlignUp(elem.align, elem.size)
		if len(args) == 1 {
			return typeLayout{stride, elem.align}, true
		}
		count, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(args[1]), "u"), 10, 32)
		if err != nil {
			return typeLayout{}, false
		}
		return typeLayout{uint32(count) * stride, elem.align}, true
	}
	return typeLayout{}, false
}

// isRuntimeArray reports whether typeName is an array without an element count.
func isRuntimeArray(typeName string) bool {
	base, params := splitTypeParams(typeName)
	return base == "array" && len(splitAtTopLevelCommas(params)) == 1
}

// computeStructLayout lays out one struct: members are placed at their aligned offsets
// and the size is rounded up to the largest member alignment. A trailing runtime-sized
// array contributes one element. @builtin members are not part of any buffer and are
// skipped.
//
// Parameters:
//   - ps: the struct to lay out
//   - known: struct layouts resolved so far
//
// Returns:
//   - typeLayout: the struct layout
//   - bool: false if a member type is not resolvable yet
func computeStructLayout(ps parsedStruct, known map[string]typeLayout) (typeLayout, bool) {
	offset := uint32(0)
	align := uint32(1)

	for _, field := range ps.fields {
		if field.isBuiltin {
			continue
		}
		layout, ok := resolveTypeLayout(field.typeName, known)
		if !ok {
			return typeLayout{}, false
		}
		layout.align = max(layout.align, field.align)
		layout.size = max(layout.size, field.size)

		offset = common.AlignUp(layout.align, offset) + layout.size
		align = max(align, layout.align)
		if isRuntimeArray(field.typeName) {
			break
		}
	}

	return typeLayout{common.AlignUp(align, offset), align}, true
}

// computeStructSizes lays out every struct block. Structs that embed other structs are
// retried until a pass makes no progress, so declaration order does not matter.
//
// Parameters:
//   - structs: the struct blocks of the source
//
// Returns:
//   - map[string]typeLayout: layouts keyed by struct name; unresolvable structs are absent
func computeStructSizes(structs []parsedStruct) map[string]typeLayout {
	resolved := make(map[string]typeLayout, len(structs))
	pending := append([]parsedStruct(nil), structs...)

	for len(pending) > 0 {
		var next []parsedStruct
		for _, ps := range pending {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}

	return resolved
}

// textureViewDimensions maps sampled texture types to their view dimension.
var textureViewDimensions = map[string]wgpu.TextureViewDimension{
	"texture_2d":         wgpu.TextureViewDimension2D,
	"texture_2d_array":   wgpu.TextureViewDimension2DArray,
	"texture_3d":         wgpu.TextureViewDimension3D,
	"texture_cube":       wgpu.TextureViewDimensionCube,
	"texture_cube_array": wgpu.TextureViewDimensionCubeArray,
}

// textureSampleTypes maps the texel type parameter of a sampled texture to its sample type.
var textureSampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// classifyResource builds the layout entry of one resource declaration. Buffers are
// recognized by their address space, handle types (samplers and sampled textures) by
// their type name. Resource kinds the generated header never declares are left
// unclassified.
//
// Parameters:
//   - binding: the @binding index
//   - visibility: the shader stage visibility flag
//   - addressSpace: the var<...> qualifier, e.g. "storage, read_write"; empty for handles
//   - typeName: the declared type, e.g. "texture_2d<f32>" or "sampler"
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the layout entry
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
	}

	space, access, _ := strings.Cut(addressSpace, ",")
	switch strings.TrimSpace(space) {
	case "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		return entry
	case "storage":
		if strings.TrimSpace(access) == "read_write" {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		} else {
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		}
		return entry
	}

	switch typeName {
	case "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		return entry
	case "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
		return entry
	}

	base, texel := splitTypeParams(typeName)
	if dim, ok := textureViewDimensions[base]; ok {
		entry.Texture.ViewDimension = dim
		entry.Texture.SampleType = textureSampleTypes[texel]
	}
	return entry
}

// splitTypeParams splits "texture_2d<f32>" into "texture_2d" and "f32". Types without
// template parameters return an empty parameter string.
func splitTypeParams(typeName string) (base string, params string) {
	base, params, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return strings.TrimSpace(base), strings.TrimSpace(strings.TrimSuffix(params, ">"))
}

// stripComments removes line comments and nested block comments in a single scan.
// Newlines are kept so line structure survives.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))

	depth := 0
	for i := 0; i < len(source); i++ {
		switch {
		case depth == 0 && strings.HasPrefix(source[i:], "//"):
			end := strings.IndexByte(source[i:], '\n')
			if end < 0 {
				return sb.String()
			}
			i += end - 1
		case strings.HasPrefix(source[i:], "/*"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(source[i:], "*/"):
			depth--
			i++
		case depth == 0 || source[i] == '\n':
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// splitAtTopLevelCommas splits s at commas outside angle brackets, so "a: f32, b:
// array<u32, 4>" yields two members.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
