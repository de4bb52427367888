package layout

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// putF32 writes v little-endian at buf[off:off+4].
func putF32(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
}

// putF32s writes consecutive float32 values starting at buf[off].
func putF32s(buf []byte, off int, vs ...float32) {
	for i, v := range vs {
		putF32(buf, off+i*4, v)
	}
}

// FrameUniformsSource is the canonical WGSL definition of the FrameUniforms struct.
// Matches FrameUniforms layout exactly (208 bytes, uniform address space).
//
//go:embed assets/frame_uniforms.wgsl
var FrameUniformsSource string

// FrameUniforms is the per-frame transform/camera block bound at SlotFrameUniforms.
// Size: 208 bytes.
type FrameUniforms struct {
	ModelMatrix      [16]float32 // offset   0: scene root transform (mat4x4<f32>)
	ViewMatrix       [16]float32 // offset  64: world to view (mat4x4<f32>)
	ProjectionMatrix [16]float32 // offset 128: view to clip (mat4x4<f32>)
	CameraPosition   [3]float32  // offset 192: world-space eye position (vec3<f32>)
	_pad             float32     // offset 204: padding to 208 bytes
}

// Size returns the size of the FrameUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (208)
func (g *FrameUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the FrameUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *FrameUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putF32s(buf, 0, g.ModelMatrix[:]...)
	putF32s(buf, 64, g.ViewMatrix[:]...)
	putF32s(buf, 128, g.ProjectionMatrix[:]...)
	putF32s(buf, 192, g.CameraPosition[:]...)
	return buf
}

// ColoredVertex is a per-vertex record for simple solid or debug geometry.
// Size: 28 bytes, vertex buffer only.
type ColoredVertex struct {
	Position [3]float32 // offset  0
	Color    [4]float32 // offset 12
}

func (g *ColoredVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *ColoredVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	putF32s(buf, 0, g.Position[:]...)
	putF32s(buf, 12, g.Color[:]...)
	return buf
}

// TexturedVertex is a per-vertex record for textured quads such as label billboards.
// Size: 20 bytes, vertex buffer only.
type TexturedVertex struct {
	Position [3]float32 // offset  0
	TexCoord [2]float32 // offset 12
}

func (g *TexturedVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *TexturedVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	putF32s(buf, 0, g.Position[:]...)
	putF32s(buf, 12, g.TexCoord[:]...)
	return buf
}

// AircraftVertex is a vertex of the static aircraft mesh shared by every instance.
// Size: 24 bytes, vertex buffer only.
type AircraftVertex struct {
	Position [3]float32 // offset  0: model-space position
	Normal   [3]float32 // offset 12: model-space normal
}

func (g *AircraftVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *AircraftVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	putF32s(buf, 0, g.Position[:]...)
	putF32s(buf, 12, g.Normal[:]...)
	return buf
}

// AircraftInstanceSource is the canonical WGSL definition of the AircraftInstance struct.
// Matches AircraftInstance layout exactly (96 bytes, std430 aligned).
//
//go:embed assets/aircraft_instance.wgsl
var AircraftInstanceSource string

// AircraftFlagSelected marks the instance of the currently selected aircraft.
const AircraftFlagSelected uint32 = 1 << 0

// AircraftInstance is the per-instance record for aircraft bodies and their spinning parts.
// Size: 96 bytes (std430 aligned, no padding required).
type AircraftInstance struct {
	ModelMatrix   [16]float32 // offset  0: T(position) * Ry(heading)
	Color         [4]float32  // offset 64: altitude-derived RGBA
	LightPhase    float32     // offset 80: navigation light phase in radians
	GlowIntensity float32     // offset 84: in [0.15, 0.45]
	RotorAngle    float32     // offset 88: rotor/propeller angle in radians
	Flags         uint32      // offset 92: bit 0 = selected
}

// Size returns the size of the AircraftInstance struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g *AircraftInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the AircraftInstance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload
func (g *AircraftInstance) Marshal() []byte {
	buf := make([]byte, g.Size())
	putF32s(buf, 0, g.ModelMatrix[:]...)
	putF32s(buf, 64, g.Color[:]...)
	putF32(buf, 80, g.LightPhase)
	putF32(buf, 84, g.GlowIntensity)
	putF32(buf, 88, g.RotorAngle)
	binary.LittleEndian.PutUint32(buf[92:96], g.Flags)
	return buf
}

// GlowInstanceSource is the canonical WGSL definition of the GlowInstance struct.
//
//go:embed assets/glow_instance.wgsl
var GlowInstanceSource string

// GlowInstance is the per-instance record for an additive glow sprite.
// Size: 48 bytes.
type GlowInstance struct {
	Position   [3]float32 // offset  0
	_pad0      float32    // offset 12
	Color      [4]float32 // offset 16
	SpriteSize float32    // offset 32: sprite size in world units
	Opacity    float32    // offset 36
	_pad1      float32    // offset 40
	_pad2      float32    // offset 44
}

func (g *GlowInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *GlowInstance) Marshal() []byte {
	buf := make([]byte, g.Size())
	putF32s(buf, 0, g.Position[:]...)
	putF32s(buf, 16, g.Color[:]...)
	putF32(buf, 32, g.SpriteSize)
	putF32(buf, 36, g.Opacity)
	return buf
}

// TrailVertexSource is the canonical WGSL definition of the TrailVertex struct.
//
//go:embed assets/trail_vertex.wgsl
var TrailVertexSource string

// TrailVertex is one side of a ribbon sample. Each sample emits two TrailVertex
// records with identical Position and opposite Direction.
// Size: 64 bytes.
type TrailVertex struct {
	Position     [3]float32 // offset  0
	Direction    float32    // offset 12: +1 or -1
	Color        [4]float32 // offset 16
	PrevPosition [3]float32 // offset 32
	_pad0        float32    // offset 44
	NextPosition [3]float32 // offset 48
	_pad1        float32    // offset 60
}

func (g *TrailVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *TrailVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	putF32s(buf, 0, g.Position[:]...)
	putF32(buf, 12, g.Direction)
	putF32s(buf, 16, g.Color[:]...)
	putF32s(buf, 32, g.PrevPosition[:]...)
	putF32s(buf, 48, g.NextPosition[:]...)
	return buf
}

// LabelInstanceSource is the canonical WGSL definition of the LabelInstance struct.
//
//go:embed assets/label_instance.wgsl
var LabelInstanceSource string

// LabelInstance is the per-instance record for a billboarded text label.
// Size: 48 bytes.
type LabelInstance struct {
	Position  [3]float32 // offset  0
	LabelSize float32    // offset 12: billboard height in world units
	AtlasUV   [2]float32 // offset 16: normalized top-left of the atlas region
	AtlasSize [2]float32 // offset 24: normalized extent of the atlas region
	Opacity   float32    // offset 32: distance fade
	_pad0     float32    // offset 36
	_pad1     float32    // offset 40
	_pad2     float32    // offset 44
}

func (g *LabelInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *LabelInstance) Marshal() []byte {
	buf := make([]byte, g.Size())
	putF32s(buf, 0, g.Position[:]...)
	putF32(buf, 12, g.LabelSize)
	putF32s(buf, 16, g.AtlasUV[:]...)
	putF32s(buf, 24, g.AtlasSize[:]...)
	putF32(buf, 32, g.Opacity)
	return buf
}

// AltLineVertexSource is the canonical WGSL definition of the AltLineVertex struct.
//
//go:embed assets/alt_line_vertex.wgsl
var AltLineVertexSource string

// AltLineVertex is an endpoint of a vertical altitude reference line.
// Size: 32 bytes.
type AltLineVertex struct {
	Position [3]float32 // offset  0
	WorldY   float32    // offset 12: raw elevation used for the dash pattern
	Color    [4]float32 // offset 16
}

func (g *AltLineVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *AltLineVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	putF32s(buf, 0, g.Position[:]...)
	putF32(buf, 12, g.WorldY)
	putF32s(buf, 16, g.Color[:]...)
	return buf
}

// TerrainVertex is a vertex of a displaced terrain tile.
// Size: 32 bytes, tightly packed vertex buffer record.
type TerrainVertex struct {
	Position [3]float32 // offset  0: Y = displaced elevation
	TexCoord [2]float32 // offset 12
	Normal   [3]float32 // offset 20
}

func (g *TerrainVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *TerrainVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	putF32s(buf, 0, g.Position[:]...)
	putF32s(buf, 12, g.TexCoord[:]...)
	putF32s(buf, 20, g.Normal[:]...)
	return buf
}

// AirspaceVertexSource is the canonical WGSL definition of the AirspaceVertex struct.
//
//go:embed assets/airspace_vertex.wgsl
var AirspaceVertexSource string

// AirspaceVertex is a vertex of a translucent airspace volume or its edge outline.
// Size: 32 bytes.
type AirspaceVertex struct {
	Position [3]float32 // offset  0
	_pad     float32    // offset 12
	Color    [4]float32 // offset 16: alpha carries class translucency
}

func (g *AirspaceVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *AirspaceVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	putF32s(buf, 0, g.Position[:]...)
	putF32s(buf, 16, g.Color[:]...)
	return buf
}
