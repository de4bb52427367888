package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-tracker/engine/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// vertexFormatMap maps record attribute formats to their wgpu vertex format.
// FormatFloat32x4x4 is expanded into four Float32x4 columns and has no entry.
var vertexFormatMap = map[layout.Format]wgpu.VertexFormat{
	layout.FormatFloat32:   wgpu.VertexFormatFloat32,
	layout.FormatFloat32x2: wgpu.VertexFormatFloat32x2,
	layout.FormatFloat32x3: wgpu.VertexFormatFloat32x3,
	layout.FormatFloat32x4: wgpu.VertexFormatFloat32x4,
	layout.FormatUint32:    wgpu.VertexFormatUint32,
}

// VertexLayout builds the vertex buffer layout of a record kind from the layout registry.
// Shader locations are assigned in attribute order starting at firstLocation; a matrix
// attribute takes four consecutive locations.
//
// Parameters:
//   - k: the record kind
//   - firstLocation: the @location of the first attribute
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout
//   - uint32: the next free location
//   - error: if the kind is unknown, uniform-only, or has an unmapped format
func VertexLayout(k layout.Kind, firstLocation uint32) (wgpu.VertexBufferLayout, uint32, error) {
	rec, ok := layout.Lookup(k)
	if !ok {
		return wgpu.VertexBufferLayout{}, firstLocation, fmt.Errorf("unknown record kind %d", k)
	}

	var step wgpu.VertexStepMode
	switch rec.Step {
	case layout.StepVertex:
		step = wgpu.VertexStepModeVertex
	case layout.StepInstance:
		step = wgpu.VertexStepModeInstance
	default:
		return wgpu.VertexBufferLayout{}, firstLocation, fmt.Errorf("%s is not a vertex record", rec.Name)
	}

	loc := firstLocation
	attrs := make([]wgpu.VertexAttribute, 0, len(rec.Attributes))
	for _, a := range rec.Attributes {
		if a.Format == layout.FormatFloat32x4x4 {
			for col := range 4 {
				attrs = append(attrs, wgpu.VertexAttribute{
					Format:         wgpu.VertexFormatFloat32x4,
					Offset:         uint64(a.Offset + col*16),
					ShaderLocation: loc,
				})
				loc++
			}
			continue
		}
		f, ok := vertexFormatMap[a.Format]
		if !ok {
			return wgpu.VertexBufferLayout{}, firstLocation, fmt.Errorf("%s.%s has no vertex format", rec.Name, a.Name)
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         f,
			Offset:         uint64(a.Offset),
			ShaderLocation: loc,
		})
		loc++
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(rec.Size),
		StepMode:    step,
		Attributes:  attrs,
	}, loc, nil
}

// VertexLayouts builds consecutive buffer layouts for a pipeline, e.g. a per-vertex mesh
// followed by its per-instance records. Locations continue across layouts.
func VertexLayouts(kinds ...layout.Kind) ([]wgpu.VertexBufferLayout, error) {
	out := make([]wgpu.VertexBufferLayout, 0, len(kinds))
	var loc uint32
	for _, k := range kinds {
		l, next, err := VertexLayout(k, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
		loc = next
	}
	return out, nil
}
