package shader

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// structBlockRegex captures the name and body of a struct declaration.
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// alignRegex and sizeRegex capture @align(N) and @size(N) member attributes.
	alignRegex = regexp.MustCompile(`@align\((\d+)\)`)
	sizeRegex  = regexp.MustCompile(`@size\((\d+)\)`)

	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// memberRegex captures the name and type of a struct member after any attributes.
	// The type is greedy so array<T, N> stays whole.
	memberRegex = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)

	// entryPointRegexes capture the function name following each stage attribute.
	entryPointRegexes = map[ShaderType]*regexp.Regexp{
		ShaderTypeVertex:   regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`),
		ShaderTypeFragment: regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`),
		ShaderTypeCompute:  regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`),
	}

	// workgroupSizeRegex captures 1-3 dimensions of @workgroup_size(x[, y[, z]]).
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)u?\s*(?:,\s*(\d+)u?\s*(?:,\s*(\d+)u?\s*)?)?,?\s*\)`)

	// bindingRegex captures group, binding, optional address space, name and type of a
	// declaration such as "@group(1) @binding(0) var<storage, read_write> _engine: GameEngineHost;".
	bindingRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseBindings returns every @group/@binding declaration of a comment-free source, in
// source order.
func parseBindings(source string) []parsedBinding {
	var bindings []parsedBinding
	for _, m := range bindingRegex.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		bindings = append(bindings, parsedBinding{
			group:        group,
			binding:      binding,
			addressSpace: strings.TrimSpace(m[3]),
			varName:      m[4],
			typeName:     strings.TrimSpace(m[5]),
		})
	}
	return bindings
}

// parseBindGroupLayouts derives the bind group layouts of a processed shader from its
// declarations. Buffer entries get the byte size of their declared type as
// MinBindingSize, so the host struct and the model arrays are checked against the
// buffers bound to them.
//
// Parameters:
//   - source: the processed WGSL source
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	varNames := make(map[int]map[int]string)

	cleaned := stripComments(source)
	structs := computeStructSizes(parseStructBlocks(cleaned))

	for _, b := range parseBindings(cleaned) {
		entry := classifyResource(uint32(b.binding), visibility, b.addressSpace, b.typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(b.typeName, structs); ok {
				entry.Buffer.MinBindingSize = uint64(layout.size)
			}
		}

		groups[b.group] = append(groups[b.group], entry)
		if varNames[b.group] == nil {
			varNames[b.group] = make(map[int]string)
		}
		varNames[b.group][b.binding] = b.varName
	}

	return sortedDescriptors(groups), varNames
}

// sortedDescriptors wraps each group's entries in a descriptor ordered by binding.
func sortedDescriptors(groups map[int][]wgpu.BindGroupLayoutEntry) map[int]wgpu.BindGroupLayoutDescriptor {
	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		slices.SortFunc(entries, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result
}

// parseWorkgroupSize returns the first @workgroup_size of the source. Missing dimensions
// are 1, as is the whole size when the source has no compute stage.
func parseWorkgroupSize(source string) [3]uint32 {
	size := [3]uint32{1, 1, 1}
	m := workgroupSizeRegex.FindStringSubmatch(stripComments(source))
	if m == nil {
		return size
	}
	for i, dim := range m[1:] {
		if v, err := strconv.ParseUint(dim, 10, 32); err == nil {
			size[i] = uint32(v)
		}
	}
	return size
}

// parseEntryPoint returns the name of the first entry point of the given stage, or an
// empty string when the source has none.
func parseEntryPoint(source string, shaderType ShaderType) string {
	re, ok := entryPointRegexes[shaderType]
	if !ok {
		return ""
	}
	if m := re.FindStringSubmatch(stripComments(source)); m != nil {
		return m[1]
	}
	return ""
}

// parseStructBlocks returns every struct declaration of a comment-free source with its
// members.
func parseStructBlocks(source string) []parsedStruct {
	var structs []parsedStruct
	for _, m := range structBlockRegex.FindAllStringSubmatch(source, -1) {
		structs = append(structs, parsedStruct{name: m[1], fields: parseStructFields(m[2])})
	}
	return structs
}

// parseStructFields splits a struct body into members, reading @builtin, @align and
// @size attributes along the way.
func parseStructFields(body string) []parsedField {
	var fields []parsedField
	for _, member := range splitAtTopLevelCommas(body) {
		member = strings.TrimSpace(member)
		m := memberRegex.FindStringSubmatch(member)
		if m == nil {
			continue
		}

		field := parsedField{
			name:      m[1],
			typeName:  strings.TrimSpace(m[2]),
			isBuiltin: builtinRegex.MatchString(member),
		}
		if a := alignRegex.FindStringSubmatch(member); a != nil {
			field.align = parseAttribute(a[1])
		}
		if s := sizeRegex.FindStringSubmatch(member); s != nil {
			field.size = parseAttribute(s[1])
		}
		fields = append(fields, field)
	}
	return fields
}

func parseAttribute(digits string) uint32 {
	v, _ := strconv.ParseUint(digits, 10, 32)
	return uint32(v)
}
