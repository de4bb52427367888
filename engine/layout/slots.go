package layout

// SchemaVersion identifies the binding-slot and record contract shared with the shading stage.
// Any change to a slot number, record size, or field offset must bump it.
const SchemaVersion = 2

// Slot is a binding index consumed by the shading stage.
type Slot int

const (
	SlotFrameUniforms Slot = 0
	SlotVertices      Slot = 1
	// Deprecated: per-instance matrices in AircraftInstance replaced the shared
	// model-matrix binding. The number stays reserved so it is never reused.
	SlotModelMatrix       Slot = 2
	SlotAircraftInstances Slot = 3
	SlotGlowInstances     Slot = 4
	SlotTrailVertices     Slot = 5
	SlotLabelInstances    Slot = 6
	SlotAltLineVertices   Slot = 7
	SlotAirspaceVertices  Slot = 8
	// SlotHeatmapTexels holds the density texture as packed RGBA8 words, row-major.
	SlotHeatmapTexels Slot = 9
)

// TextureSlotAtlas is the texture binding for the color/label atlas texture.
const TextureSlotAtlas = 0

// String returns a readable name for the slot, used in buffer labels and logs.
func (s Slot) String() string {
	switch s {
	case SlotFrameUniforms:
		return "frame_uniforms"
	case SlotVertices:
		return "vertices"
	case SlotModelMatrix:
		return "model_matrix"
	case SlotAircraftInstances:
		return "aircraft_instances"
	case SlotGlowInstances:
		return "glow_instances"
	case SlotTrailVertices:
		return "trail_vertices"
	case SlotLabelInstances:
		return "label_instances"
	case SlotAltLineVertices:
		return "alt_line_vertices"
	case SlotAirspaceVertices:
		return "airspace_vertices"
	case SlotHeatmapTexels:
		return "heatmap_texels"
	}
	return "unknown"
}

// Deprecated reports whether the slot is retained only as history.
func (s Slot) Deprecated() bool {
	return s == SlotModelMatrix
}
