package renderer

// Renderer is implemented by the hosts that drive a Progressive renderer.
type Renderer interface {
	// Render frames until the host decides to stop.
	Render() error

	// Shutdown renderer and release its device resources.
	Close()

	// Get render statistics.
	Stats() FrameStats
}
