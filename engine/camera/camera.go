package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-tracker/common"
)

// Pose supplies the eye and look-at point. Input handling lives outside this package;
// Orbit is the built-in implementation.
type Pose interface {
	// Position returns the world-space eye position.
	Position() [3]float32

	// Target returns the world-space look-at point.
	Target() [3]float32
}

type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	position             [3]float32
	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	pose Pose
}

// Camera holds perspective settings and computes view/projection matrices from an
// attached Pose each frame via Update().
type Camera interface {
	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// Position returns the eye position captured by the last Update.
	//
	// Returns:
	//   - [3]float32: world-space eye position
	Position() [3]float32

	// ViewMatrix returns the current 4x4 view matrix (column-major).
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix (column-major).
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns projection * view (column-major).
	ViewProjectionMatrix() [16]float32

	// Frustum returns the culling frustum of the current view-projection matrix.
	//
	// Returns:
	//   - common.Frustum: normalized frustum planes
	Frustum() common.Frustum

	// Update reads the pose and recomputes all matrices.
	// Should be called once per frame before frame uniforms are built.
	// Without a pose, only the projection is recomputed.
	Update()

	// SetAspect sets the aspect ratio, typically on viewport resize.
	//
	// Parameters:
	//   - aspect: width / height; non-positive values are ignored
	SetAspect(aspect float32)

	// SetFov sets the vertical field of view in radians.
	SetFov(fov float32)

	// SetPose attaches the pose source.
	SetPose(p Pose)

	// Pose returns the attached pose source, or nil.
	Pose() Pose
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with the tracker's default perspective: 45° FOV,
// near 0.1 and far 5000 world units.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     [3]float32{0, 1, 0},
		fov:    45.0 * (math.Pi / 180.0),
		aspect: 1.0,
		near:   0.1,
		far:    5000.0,
	}
	common.Identity(c.viewMatrix[:])
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.ExtractFrustumFromMatrix(c.viewProjectionMatrix[:])
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetPose(p Pose) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pose = p
}

func (c *cameraImpl) Pose() Pose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)

	if c.pose != nil {
		c.position = c.pose.Position()
		t := c.pose.Target()
		common.LookAt(c.viewMatrix[:],
			c.position[0], c.position[1], c.position[2],
			t[0], t[1], t[2],
			c.up[0], c.up[1], c.up[2],
		)
	}

	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}

// CameraOption configures a Camera.
type CameraOption func(*cameraImpl)

// WithFov sets the vertical field of view in radians.
func WithFov(fov float32) CameraOption {
	return func(c *cameraImpl) { c.fov = fov }
}

// WithAspect sets the aspect ratio (width / height).
func WithAspect(aspect float32) CameraOption {
	return func(c *cameraImpl) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithClip sets the near and far clipping distances.
//
// Parameters:
//   - near: near plane distance (must be > 0)
//   - far: far plane distance (must be > near)
//
// Returns:
//   - CameraOption: functional option to set both planes
func WithClip(near, far float32) CameraOption {
	return func(c *cameraImpl) {
		if near > 0 && far > near {
			c.near, c.far = near, far
		}
	}
}

// WithPose attaches the pose source.
func WithPose(p Pose) CameraOption {
	return func(c *cameraImpl) { c.pose = p }
}
