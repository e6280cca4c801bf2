package renderer

import "time"

type FrameStats struct {
	// Viewport dimensions.
	Width  uint32
	Height uint32

	// Number of spheres bound to the kernel.
	Spheres int

	// Accumulated samples after this frame and the weight used to blend
	// its sample into the displayed image.
	Samples uint32
	Weight  float32

	// Set when accumulation restarted this frame.
	Reset       bool
	ResetReason string

	// Set when the frame was skipped because MaxSamples were accumulated.
	Converged bool

	// Set when the target or the scene buffer had to be reallocated.
	TargetReallocated bool
	BufferReallocated bool

	// Per phase timings.
	PrepareTime   time.Duration
	DispatchTime  time.Duration
	CompositeTime time.Duration

	// Total render time for entire frame.
	RenderTime time.Duration
}

// Accumulate adds the timings and reallocation flags of other to s and
// copies its sample state.
func (s *FrameStats) Accumulate(other FrameStats) {
	s.Width, s.Height = other.Width, other.Height
	s.Spheres = other.Spheres
	s.Samples, s.Weight = other.Samples, other.Weight
	s.Reset = s.Reset || other.Reset
	if other.ResetReason != "" {
		s.ResetReason = other.ResetReason
	}
	s.Converged = other.Converged
	s.TargetReallocated = s.TargetReallocated || other.TargetReallocated
	s.BufferReallocated = s.BufferReallocated || other.BufferReallocated
	s.PrepareTime += other.PrepareTime
	s.DispatchTime += other.DispatchTime
	s.CompositeTime += other.CompositeTime
	s.RenderTime += other.RenderTime
}
