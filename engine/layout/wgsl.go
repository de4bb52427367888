package layout

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// fieldRegex matches a struct field: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)
)

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the WGSL specification.
type wgslTypeLayout struct {
	size  int
	align int
}

// wgslPrimitiveLayoutMap maps the WGSL types used by record contracts to their size and alignment.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32": {4, 4},
	"i32": {4, 4},
	"u32": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},
	"vec2<u32>": {8, 8},
	"vec4<u32>": {16, 16},

	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

// StructMember is a member of a parsed WGSL struct with its computed placement.
type StructMember struct {
	Name   string
	Type   string
	Offset int
	Size   int
}

// StructLayout is the memory layout of a WGSL struct in storage/uniform address space.
type StructLayout struct {
	Name    string
	Size    int
	Align   int
	Members []StructMember
}

// Member returns the named member.
func (s StructLayout) Member(name string) (StructMember, bool) {
	for _, m := range s.Members {
		if m.Name == name {
			return m, true
		}
	}
	return StructMember{}, false
}

// ParseStruct parses the first struct declared in a WGSL source and computes its
// member offsets and total size using WGSL alignment rules: each member is placed
// at the next offset aligned to its type, and the struct size is rounded up to the
// largest member alignment.
//
// Parameters:
//   - source: WGSL source containing at least one struct
//
// Returns:
//   - StructLayout: the computed layout
//   - error: if no struct is found or a member type is not supported
func ParseStruct(source string) (StructLayout, error) {
	source = stripLineComments(source)
	m := structBlockRegex.FindStringSubmatch(source)
	if m == nil {
		return StructLayout{}, fmt.Errorf("no struct declaration found")
	}

	sl := StructLayout{Name: m[1], Align: 1}
	offset := 0
	for line := range strings.SplitSeq(m[2], ",") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			return StructLayout{}, fmt.Errorf("struct %s: malformed member %q", sl.Name, line)
		}
		name, typeName := fm[1], strings.TrimSpace(fm[2])
		tl, ok := wgslPrimitiveLayoutMap[typeName]
		if !ok {
			return StructLayout{}, fmt.Errorf("struct %s: unsupported type %s for member %s", sl.Name, typeName, name)
		}
		offset = roundUpAlign(tl.align, offset)
		sl.Members = append(sl.Members, StructMember{Name: name, Type: typeName, Offset: offset, Size: tl.size})
		offset += tl.size
		sl.Align = max(sl.Align, tl.align)
	}
	sl.Size = roundUpAlign(sl.Align, offset)
	return sl, nil
}

// roundUpAlign rounds value up to the next multiple of alignment (a power of two).
func roundUpAlign(alignment, value int) int {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// stripLineComments removes single-line // comments so they do not interfere with member parsing.
func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
