package layout

import "unsafe"

// Each line fails to compile when a record's size or field offset drifts from the contract:
// a larger value indexes past the array, a smaller one overflows uintptr.
var (
	_ = [1]struct{}{}[unsafe.Sizeof(FrameUniforms{})-208]
	_ = [1]struct{}{}[unsafe.Offsetof(FrameUniforms{}.ViewMatrix)-64]
	_ = [1]struct{}{}[unsafe.Offsetof(FrameUniforms{}.ProjectionMatrix)-128]
	_ = [1]struct{}{}[unsafe.Offsetof(FrameUniforms{}.CameraPosition)-192]

	_ = [1]struct{}{}[unsafe.Sizeof(ColoredVertex{})-28]
	_ = [1]struct{}{}[unsafe.Offsetof(ColoredVertex{}.Color)-12]

	_ = [1]struct{}{}[unsafe.Sizeof(TexturedVertex{})-20]
	_ = [1]struct{}{}[unsafe.Offsetof(TexturedVertex{}.TexCoord)-12]

	_ = [1]struct{}{}[unsafe.Sizeof(AircraftVertex{})-24]
	_ = [1]struct{}{}[unsafe.Offsetof(AircraftVertex{}.Normal)-12]

	_ = [1]struct{}{}[unsafe.Sizeof(AircraftInstance{})-96]
	_ = [1]struct{}{}[unsafe.Offsetof(AircraftInstance{}.Color)-64]
	_ = [1]struct{}{}[unsafe.Offsetof(AircraftInstance{}.LightPhase)-80]
	_ = [1]struct{}{}[unsafe.Offsetof(AircraftInstance{}.GlowIntensity)-84]
	_ = [1]struct{}{}[unsafe.Offsetof(AircraftInstance{}.RotorAngle)-88]
	_ = [1]struct{}{}[unsafe.Offsetof(AircraftInstance{}.Flags)-92]

	_ = [1]struct{}{}[unsafe.Sizeof(GlowInstance{})-48]
	_ = [1]struct{}{}[unsafe.Offsetof(GlowInstance{}.Color)-16]
	_ = [1]struct{}{}[unsafe.Offsetof(GlowInstance{}.SpriteSize)-32]
	_ = [1]struct{}{}[unsafe.Offsetof(GlowInstance{}.Opacity)-36]

	_ = [1]struct{}{}[unsafe.Sizeof(TrailVertex{})-64]
	_ = [1]struct{}{}[unsafe.Offsetof(TrailVertex{}.Direction)-12]
	_ = [1]struct{}{}[unsafe.Offsetof(TrailVertex{}.Color)-16]
	_ = [1]struct{}{}[unsafe.Offsetof(TrailVertex{}.PrevPosition)-32]
	_ = [1]struct{}{}[unsafe.Offsetof(TrailVertex{}.NextPosition)-48]

	_ = [1]struct{}{}[unsafe.Sizeof(LabelInstance{})-48]
	_ = [1]struct{}{}[unsafe.Offsetof(LabelInstance{}.LabelSize)-12]
	_ = [1]struct{}{}[unsafe.Offsetof(LabelInstance{}.AtlasUV)-16]
	_ = [1]struct{}{}[unsafe.Offsetof(LabelInstance{}.AtlasSize)-24]
	_ = [1]struct{}{}[unsafe.Offsetof(LabelInstance{}.Opacity)-32]

	_ = [1]struct{}{}[unsafe.Sizeof(AltLineVertex{})-32]
	_ = [1]struct{}{}[unsafe.Offsetof(AltLineVertex{}.WorldY)-12]
	_ = [1]struct{}{}[unsafe.Offsetof(AltLineVertex{}.Color)-16]

	_ = [1]struct{}{}[unsafe.Sizeof(TerrainVertex{})-32]
	_ = [1]struct{}{}[unsafe.Offsetof(TerrainVertex{}.TexCoord)-12]
	_ = [1]struct{}{}[unsafe.Offsetof(TerrainVertex{}.Normal)-20]

	_ = [1]struct{}{}[unsafe.Sizeof(AirspaceVertex{})-32]
	_ = [1]struct{}{}[unsafe.Offsetof(AirspaceVertex{}.Color)-16]
)
