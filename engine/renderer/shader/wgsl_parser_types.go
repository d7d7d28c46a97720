package shader

// typeLayout is the byte size and alignment of a WGSL type in host-shareable memory.
type typeLayout struct {
	size  uint32
	align uint32
}

// parsedField is one member of a struct block.
type parsedField struct {
	name      string
	typeName  string
	isBuiltin bool

	// align and size hold @align(N) / @size(N) overrides, 0 when absent
	align uint32
	size  uint32
}

// parsedStruct is a struct block of the processed source.
type parsedStruct struct {
	name   string
	fields []parsedField
}

// parsedBinding is one @group/@binding resource declaration.
type parsedBinding struct {
	group        int
	binding      int
	addressSpace string
	varName      string
	typeName     string
}
