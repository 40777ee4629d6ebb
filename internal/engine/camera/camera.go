// Package camera provides the orbit camera used by the viewer.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera orbits around a target point.
type OrbitCamera struct {
	Target mgl32.Vec3

	// Spherical coordinates around Target.
	Distance float32
	Pitch    float32 // radians, positive looks down on the target
	Yaw      float32 // radians, zero looks down -Z

	// Projection
	FOV  float32 // vertical, radians
	Near float32
	Far  float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a camera framing a unit-sized scene at the origin.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        4,
		Pitch:           0.5,
		Yaw:             0.6,
		FOV:             mgl32.DegToRad(45),
		Near:            0.01,
		Far:             100,
		MinDistance:     0.05,
		MaxDistance:     1000,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	sp, cp := math.Sincos(float64(c.Pitch))
	sy, cy := math.Sincos(float64(c.Yaw))
	offset := mgl32.Vec3{
		float32(cp * sy),
		float32(sp),
		float32(cp * cy),
	}
	return c.Target.Add(offset.Mul(c.Distance))
}

// View returns the view matrix.
func (c *OrbitCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

// Projection returns the perspective projection for the given aspect ratio.
func (c *OrbitCamera) Projection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// ViewProjection returns Projection * View.
func (c *OrbitCamera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}

// HandleDrag updates rotation based on mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// HandlePan moves the target in the camera's screen plane. Deltas are in
// pixels; the step scales with distance.
func (c *OrbitCamera) HandlePan(deltaX, deltaY float32) {
	forward := c.Target.Sub(c.Position()).Normalize()
	right := forward.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	up := right.Cross(forward)

	step := c.Distance * c.DragSensitivity * 0.2
	c.Target = c.Target.Add(right.Mul(-deltaX * step)).Add(up.Mul(deltaY * step))
}

// FitToBounds centers the camera on a box and backs off until the box's
// bounding sphere fits the vertical field of view.
func (c *OrbitCamera) FitToBounds(lo, hi mgl32.Vec3) {
	c.Target = lo.Add(hi).Mul(0.5)

	radius := hi.Sub(lo).Len() / 2
	if radius <= 0 {
		radius = 1
	}

	dist := radius / float32(math.Sin(float64(c.FOV)/2))
	c.Distance = dist * 1.1
	c.MinDistance = radius * 0.1
	c.MaxDistance = radius * 50
	c.Near = c.Distance / 1000
	c.Far = c.MaxDistance + radius*2
}
