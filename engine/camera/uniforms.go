package camera

import "github.com/Carmen-Shannon/oxy-tracker/engine/layout"

// BuildFrameUniforms packs the scene root transform and the camera's current matrices
// into the per-frame uniform block. It does not call Update; the caller updates the
// camera once per frame before building uniforms, so every generator of that frame
// observes the same camera state.
//
// Parameters:
//   - model: scene root transform (column-major)
//   - cam: the camera
//
// Returns:
//   - layout.FrameUniforms: the uniform block bound at SlotFrameUniforms
func BuildFrameUniforms(model [16]float32, cam Camera) layout.FrameUniforms {
	return layout.FrameUniforms{
		ModelMatrix:      model,
		ViewMatrix:       cam.ViewMatrix(),
		ProjectionMatrix: cam.ProjectionMatrix(),
		CameraPosition:   cam.Position(),
	}
}
