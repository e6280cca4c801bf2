package renderer

import (
	"fmt"
	"runtime"

	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch camera angles.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	// Camera movement speed
	cameraMoveSpeed float32 = 0.5

	// Exposure multiplier applied by the +/- keys.
	exposureStep float32 = 1.25

	// Give up after this many frames fail in a row.
	maxConsecutiveFailures = 10

	// Seconds to block waiting for input once the image has converged.
	idleWaitTimeout = 0.05
)

func init() {
	// glfw calls must be made from the main thread.
	runtime.LockOSThread()
}

// InteractiveOptions configures the interactive renderer window.
type InteractiveOptions struct {
	// Initial window dims.
	Width  uint32
	Height uint32

	// Exposure for tonemapping.
	Exposure float32
}

// An interactive opengl-based renderer.
type interactiveGLRenderer struct {
	logger      log.Logger
	progressive *Progressive
	camera      *scene.Camera
	exposure    float32

	// opengl handles
	window    *glfw.Window
	texture   uint32
	texFbo    uint32
	texWidth  int32
	texHeight int32

	// state
	lastCursorPos types.Vec2
	mousePressed  bool
	paused        bool
	pausedAt      float64
	timeOffset    float64
	stats         FrameStats

	// Set when the display texture must be refreshed even if no new
	// sample was rendered.
	stale bool
}

// NewInteractive creates a window that continuously refines the image and
// lets the user move the camera. The renderer takes ownership of p.
func NewInteractive(p *Progressive, camera *scene.Camera, opts InteractiveOptions) (Renderer, error) {
	if opts.Width == 0 || opts.Height == 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "window %dx%d has a zero dimension", opts.Width, opts.Height)
	}
	if !(opts.Exposure > 0) {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "exposure must be positive; got %f", opts.Exposure)
	}

	r := &interactiveGLRenderer{
		logger:      log.New("interactive renderer"),
		progressive: p,
		camera:      camera,
		exposure:    opts.Exposure,
	}

	if err := r.initGL(opts); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

func (r *interactiveGLRenderer) initGL(opts InteractiveOptions) error {
	var err error
	if err = glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %s", err.Error())
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	r.window, err = glfw.CreateWindow(int(opts.Width), int(opts.Height), "spheretrace", nil, nil)
	if err != nil {
		return fmt.Errorf("could not create opengl window: %s", err.Error())
	}
	r.window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err = gl.Init(); err != nil {
		return fmt.Errorf("could not init opengl: %s", err.Error())
	}

	// Setup texture for image data; storage is allocated once the
	// framebuffer size is known.
	gl.GenTextures(1, &r.texture)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.GenFramebuffers(1, &r.texFbo)

	// Bind event callbacks
	r.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	r.window.SetKeyCallback(r.onKeyEvent)
	r.window.SetMouseButtonCallback(r.onMouseEvent)
	r.window.SetCursorPosCallback(r.onCursorPosEvent)

	return nil
}

// Resize the texture backing the blit FBO.
func (r *interactiveGLRenderer) resizeTexture(width, height int32) {
	if width == r.texWidth && height == r.texHeight {
		return
	}

	gl.BindTexture(gl.TEXTURE_2D, r.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	// Attach texture to FBO
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, r.texFbo)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, r.texture, 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	r.texWidth, r.texHeight = width, height
	r.logger.Debugf("resized display texture to %dx%d", width, height)
}

func (r *interactiveGLRenderer) Render() error {
	failures := 0
	for !r.window.ShouldClose() {
		if r.stats.Converged {
			glfw.WaitEventsTimeout(idleWaitTimeout)
		} else {
			glfw.PollEvents()
		}

		fbW, fbH := r.window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			// Minimized
			glfw.WaitEvents()
			continue
		}

		stats, err := r.progressive.Frame(FrameInput{
			Width:   uint32(fbW),
			Height:  uint32(fbH),
			Camera:  r.camera,
			Elapsed: r.elapsed(),
		})
		if err != nil {
			failures++
			if failures >= maxConsecutiveFailures {
				return errors.Wrapf(err, "renderer: giving up after %d failed frames", failures)
			}
			continue
		}
		failures = 0
		r.stats = stats

		if !stats.Converged || r.stale {
			r.stale = false
			if err = r.present(int32(fbW), int32(fbH)); err != nil {
				return err
			}
			r.window.SetTitle(fmt.Sprintf("spheretrace - %d samples - %.1f ms", stats.Samples, float64(stats.RenderTime.Microseconds())/1000))
		}

		// Copy texture data to framebuffer flipping rows as the image
		// origin is at the top.
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, r.texFbo)
		gl.BlitFramebuffer(0, 0, r.texWidth, r.texHeight, 0, r.texHeight, r.texWidth, 0, gl.COLOR_BUFFER_BIT, gl.NEAREST)
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

		r.window.SwapBuffers()
	}
	return nil
}

// Upload the tonemapped display image to the blit texture.
func (r *interactiveGLRenderer) present(width, height int32) error {
	img, err := r.progressive.Snapshot(r.exposure)
	if err != nil {
		return err
	}

	r.resizeTexture(width, height)
	gl.BindTexture(gl.TEXTURE_2D, r.texture)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	return nil
}

func (r *interactiveGLRenderer) elapsed() float32 {
	if r.paused {
		return float32(r.pausedAt - r.timeOffset)
	}
	return float32(glfw.GetTime() - r.timeOffset)
}

func (r *interactiveGLRenderer) togglePause() {
	now := glfw.GetTime()
	if r.paused {
		r.timeOffset += now - r.pausedAt
	} else {
		r.pausedAt = now
	}
	r.paused = !r.paused
}

func (r *interactiveGLRenderer) Close() {
	if r.progressive != nil {
		r.progressive.Shutdown()
	}
	if r.texture != 0 {
		gl.DeleteFramebuffers(1, &r.texFbo)
		gl.DeleteTextures(1, &r.texture)
		r.texture = 0
	}
	if r.window != nil {
		r.window.Destroy()
		r.window = nil
	}
	glfw.Terminate()
}

func (r *interactiveGLRenderer) Stats() FrameStats {
	return r.stats
}

func (r *interactiveGLRenderer) onKeyEvent(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	var moveDir scene.CameraDirection
	switch key {
	case glfw.KeyEscape:
		w.SetShouldClose(true)
		return
	case glfw.KeyUp, glfw.KeyW:
		moveDir = scene.Forward
	case glfw.KeyDown, glfw.KeyS:
		moveDir = scene.Backward
	case glfw.KeyLeft, glfw.KeyA:
		moveDir = scene.Left
	case glfw.KeyRight, glfw.KeyD:
		moveDir = scene.Right
	case glfw.KeyE:
		moveDir = scene.Up
	case glfw.KeyQ:
		moveDir = scene.Down
	case glfw.KeySpace:
		r.togglePause()
		return
	case glfw.KeyEqual, glfw.KeyKPAdd:
		r.exposure *= exposureStep
		r.stale = true
		return
	case glfw.KeyMinus, glfw.KeyKPSubtract:
		r.exposure /= exposureStep
		r.stale = true
		return
	case glfw.KeyPageUp:
		if err := r.progressive.SetReflections(r.progressive.Options().ReflectionsCount + 1); err != nil {
			r.logger.Errorf("could not increase reflections: %v", err)
		}
		return
	case glfw.KeyPageDown:
		if count := r.progressive.Options().ReflectionsCount; count > 0 {
			if err := r.progressive.SetReflections(count - 1); err != nil {
				r.logger.Errorf("could not decrease reflections: %v", err)
			}
		}
		return
	default:
		return
	}

	// Double speed if shift is pressed
	var speedScaler float32 = 1.0
	if (mods & glfw.ModShift) == glfw.ModShift {
		speedScaler = 2.0
	}
	r.camera.Move(moveDir, speedScaler*cameraMoveSpeed)
}

func (r *interactiveGLRenderer) onMouseEvent(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}

	r.mousePressed = action == glfw.Press
	if r.mousePressed {
		xPos, yPos := w.GetCursorPos()
		r.lastCursorPos = types.XY(float32(xPos), float32(yPos))
	}
}

func (r *interactiveGLRenderer) onCursorPosEvent(w *glfw.Window, xPos, yPos float64) {
	if !r.mousePressed {
		return
	}

	// Calculate delta movement and apply mouse sensitivity
	newPos := types.XY(float32(xPos), float32(yPos))
	delta := r.lastCursorPos.Sub(newPos)
	r.lastCursorPos = newPos

	// The left mouse button rotates the view direction around the eye
	r.camera.Rotate(delta[0]*mouseSensitivityX, delta[1]*mouseSensitivityY)
}
