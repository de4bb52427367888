package layout

import "unsafe"

// Kind identifies a GPU-visible record type.
type Kind int

const (
	KindFrameUniforms Kind = iota
	KindColoredVertex
	KindTexturedVertex
	KindAircraftVertex
	KindAircraftInstance
	KindGlowInstance
	KindTrailVertex
	KindLabelInstance
	KindAltLineVertex
	KindTerrainVertex
	KindAirspaceVertex

	kindCount
)

// StepMode tells the render pass whether a record advances per vertex or per instance.
type StepMode int

const (
	StepVertex StepMode = iota
	StepInstance
	StepUniform
)

// Format describes the shape of a single record attribute.
type Format int

const (
	FormatFloat32 Format = iota
	FormatFloat32x2
	FormatFloat32x3
	FormatFloat32x4
	FormatUint32
	// FormatFloat32x4x4 is a column-major matrix, bound as four consecutive Float32x4 columns.
	FormatFloat32x4x4
)

// Size returns the byte size of the format.
func (f Format) Size() int {
	switch f {
	case FormatFloat32, FormatUint32:
		return 4
	case FormatFloat32x2:
		return 8
	case FormatFloat32x3:
		return 12
	case FormatFloat32x4:
		return 16
	case FormatFloat32x4x4:
		return 64
	}
	return 0
}

// Attribute is one named, offset-addressed field of a record.
// Padding fields are not attributes.
type Attribute struct {
	Name   string
	Offset int
	Format Format
}

// Record describes the wire contract of one record kind.
type Record struct {
	Kind       Kind
	Name       string
	Slot       Slot
	Size       int
	Align      int
	Step       StepMode
	Attributes []Attribute
	// WGSL is the canonical struct source for records read from storage or uniform
	// memory. Empty for vertex-buffer-only records.
	WGSL string
}

// Attribute returns the named attribute of the record.
//
// Parameters:
//   - name: the attribute name as it appears in the WGSL struct
//
// Returns:
//   - Attribute: the attribute
//   - bool: false if the record has no attribute with that name
func (r Record) Attribute(name string) (Attribute, bool) {
	for _, a := range r.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

var (
	frameUniforms    FrameUniforms
	coloredVertex    ColoredVertex
	texturedVertex   TexturedVertex
	aircraftVertex   AircraftVertex
	aircraftInstance AircraftInstance
	glowInstance     GlowInstance
	trailVertex      TrailVertex
	labelInstance    LabelInstance
	altLineVertex    AltLineVertex
	terrainVertex    TerrainVertex
	airspaceVertex   AirspaceVertex
)

// records is the single table every generator and the uploader consult.
// Offsets come from the Go structs; the assertions in assert.go pin them to the contract.
var records = [kindCount]Record{
	KindFrameUniforms: {
		Kind: KindFrameUniforms, Name: "FrameUniforms", Slot: SlotFrameUniforms,
		Size: int(unsafe.Sizeof(frameUniforms)), Align: 16, Step: StepUniform,
		Attributes: []Attribute{
			{"modelMatrix", int(unsafe.Offsetof(frameUniforms.ModelMatrix)), FormatFloat32x4x4},
			{"viewMatrix", int(unsafe.Offsetof(frameUniforms.ViewMatrix)), FormatFloat32x4x4},
			{"projectionMatrix", int(unsafe.Offsetof(frameUniforms.ProjectionMatrix)), FormatFloat32x4x4},
			{"cameraPosition", int(unsafe.Offsetof(frameUniforms.CameraPosition)), FormatFloat32x3},
		},
		WGSL: FrameUniformsSource,
	},
	KindColoredVertex: {
		Kind: KindColoredVertex, Name: "ColoredVertex", Slot: SlotVertices,
		Size: int(unsafe.Sizeof(coloredVertex)), Align: 4, Step: StepVertex,
		Attributes: []Attribute{
			{"position", int(unsafe.Offsetof(coloredVertex.Position)), FormatFloat32x3},
			{"color", int(unsafe.Offsetof(coloredVertex.Color)), FormatFloat32x4},
		},
	},
	KindTexturedVertex: {
		Kind: KindTexturedVertex, Name: "TexturedVertex", Slot: SlotVertices,
		Size: int(unsafe.Sizeof(texturedVertex)), Align: 4, Step: StepVertex,
		Attributes: []Attribute{
			{"position", int(unsafe.Offsetof(texturedVertex.Position)), FormatFloat32x3},
			{"texCoord", int(unsafe.Offsetof(texturedVertex.TexCoord)), FormatFloat32x2},
		},
	},
	KindAircraftVertex: {
		Kind: KindAircraftVertex, Name: "AircraftVertex", Slot: SlotVertices,
		Size: int(unsafe.Sizeof(aircraftVertex)), Align: 4, Step: StepVertex,
		Attributes: []Attribute{
			{"position", int(unsafe.Offsetof(aircraftVertex.Position)), FormatFloat32x3},
			{"normal", int(unsafe.Offsetof(aircraftVertex.Normal)), FormatFloat32x3},
		},
	},
	KindAircraftInstance: {
		Kind: KindAircraftInstance, Name: "AircraftInstance", Slot: SlotAircraftInstances,
		Size: int(unsafe.Sizeof(aircraftInstance)), Align: 16, Step: StepInstance,
		Attributes: []Attribute{
			{"modelMatrix", int(unsafe.Offsetof(aircraftInstance.ModelMatrix)), FormatFloat32x4x4},
			{"color", int(unsafe.Offsetof(aircraftInstance.Color)), FormatFloat32x4},
			{"lightPhase", int(unsafe.Offsetof(aircraftInstance.LightPhase)), FormatFloat32},
			{"glowIntensity", int(unsafe.Offsetof(aircraftInstance.GlowIntensity)), FormatFloat32},
			{"rotorAngle", int(unsafe.Offsetof(aircraftInstance.RotorAngle)), FormatFloat32},
			{"flags", int(unsafe.Offsetof(aircraftInstance.Flags)), FormatUint32},
		},
		WGSL: AircraftInstanceSource,
	},
	KindGlowInstance: {
		Kind: KindGlowInstance, Name: "GlowInstance", Slot: SlotGlowInstances,
		Size: int(unsafe.Sizeof(glowInstance)), Align: 16, Step: StepInstance,
		Attributes: []Attribute{
			{"position", int(unsafe.Offsetof(glowInstance.Position)), FormatFloat32x3},
			{"color", int(unsafe.Offsetof(glowInstance.Color)), FormatFloat32x4},
			{"size", int(unsafe.Offsetof(glowInstance.SpriteSize)), FormatFloat32},
			{"opacity", int(unsafe.Offsetof(glowInstance.Opacity)), FormatFloat32},
		},
		WGSL: GlowInstanceSource,
	},
	KindTrailVertex: {
		Kind: KindTrailVertex, Name: "TrailVertex", Slot: SlotTrailVertices,
		Size: int(unsafe.Sizeof(trailVertex)), Align: 16, Step: StepVertex,
		Attributes: []Attribute{
			{"position", int(unsafe.Offsetof(trailVertex.Position)), FormatFloat32x3},
			{"direction", int(unsafe.Offsetof(trailVertex.Direction)), FormatFloat32},
			{"color", int(unsafe.Offsetof(trailVertex.Color)), FormatFloat32x4},
			{"prevPosition", int(unsafe.Offsetof(trailVertex.PrevPosition)), FormatFloat32x3},
			{"nextPosition", int(unsafe.Offsetof(trailVertex.NextPosition)), FormatFloat32x3},
		},
		WGSL: TrailVertexSource,
	},
	KindLabelInstance: {
		Kind: KindLabelInstance, Name: "LabelInstance", Slot: SlotLabelInstances,
		Size: int(unsafe.Sizeof(labelInstance)), Align: 16, Step: StepInstance,
		Attributes: []Attribute{
			{"position", int(unsafe.Offsetof(labelInstance.Position)), FormatFloat32x3},
			{"size", int(unsafe.Offsetof(labelInstance.LabelSize)), FormatFloat32},
			{"atlasUV", int(unsafe.Offsetof(labelInstance.AtlasUV)), FormatFloat32x2},
			{"atlasSize", int(unsafe.Offsetof(labelInstance.AtlasSize)), FormatFloat32x2},
			{"opacity", int(unsafe.Offsetof(labelInstance.Opacity)), FormatFloat32},
		},
		WGSL: LabelInstanceSource,
	},
	KindAltLineVertex: {
		Kind: KindAltLineVertex, Name: "AltLineVertex", Slot: SlotAltLineVertices,
		Size: int(unsafe.Sizeof(altLineVertex)), Align: 16, Step: StepVertex,
		Attributes: []Attribute{
			{"position", int(unsafe.Offsetof(altLineVertex.Position)), FormatFloat32x3},
			{"worldY", int(unsafe.Offsetof(altLineVertex.WorldY)), FormatFloat32},
			{"color", int(unsafe.Offsetof(altLineVertex.Color)), FormatFloat32x4},
		},
		WGSL: AltLineVertexSource,
	},
	KindTerrainVertex: {
		Kind: KindTerrainVertex, Name: "TerrainVertex", Slot: SlotVertices,
		Size: int(unsafe.Sizeof(terrainVertex)), Align: 4, Step: StepVertex,
		Attributes: []Attribute{
			{"position", int(unsafe.Offsetof(terrainVertex.Position)), FormatFloat32x3},
			{"texCoord", int(unsafe.Offsetof(terrainVertex.TexCoord)), FormatFloat32x2},
			{"normal", int(unsafe.Offsetof(terrainVertex.Normal)), FormatFloat32x3},
		},
	},
	KindAirspaceVertex: {
		Kind: KindAirspaceVertex, Name: "AirspaceVertex", Slot: SlotAirspaceVertices,
		Size: int(unsafe.Sizeof(airspaceVertex)), Align: 16, Step: StepVertex,
		Attributes: []Attribute{
			{"position", int(unsafe.Offsetof(airspaceVertex.Position)), FormatFloat32x3},
			{"color", int(unsafe.Offsetof(airspaceVertex.Color)), FormatFloat32x4},
		},
		WGSL: AirspaceVertexSource,
	},
}

// Lookup returns the contract for a record kind.
//
// Parameters:
//   - k: the record kind
//
// Returns:
//   - Record: the slot, size, alignment, and attribute offsets of the kind
//   - bool: false for an unknown kind
func Lookup(k Kind) (Record, bool) {
	if k < 0 || k >= kindCount {
		return Record{}, false
	}
	return records[k], true
}

// Records returns every registered record in Kind order.
func Records() []Record {
	out := make([]Record, len(records))
	copy(out, records[:])
	return out
}

// String returns the record name of the kind.
func (k Kind) String() string {
	if r, ok := Lookup(k); ok {
		return r.Name
	}
	return "unknown"
}

// Slot returns the binding slot of the kind, or -1 for an unknown kind.
func (k Kind) Slot() Slot {
	if r, ok := Lookup(k); ok {
		return r.Slot
	}
	return -1
}

// Size returns the record byte size of the kind, or 0 for an unknown kind.
func (k Kind) Size() int {
	if r, ok := Lookup(k); ok {
		return r.Size
	}
	return 0
}
