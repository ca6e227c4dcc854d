package display

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/9Christian6/RenderFrameworkRIS/img"
	"github.com/9Christian6/RenderFrameworkRIS/log"
	"github.com/9Christian6/RenderFrameworkRIS/render"
	"github.com/9Christian6/RenderFrameworkRIS/scene"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch camera angles.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	// Camera movement speed
	cameraMoveSpeed float32 = 0.1
)

var logger = log.New("display")

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// An interactive opengl view over the accumulating frame buffer. The camera
// moves with the arrow keys and the mouse; R cycles through the renderers.
// Any camera change or renderer swap resets the accumulator.
type view struct {
	scene     *scene.Scene
	image     *img.Image
	renderers []render.Renderer
	active    int
	cancel    *render.CancelFlag

	accum uint32

	window    *glfw.Window
	texFbo    uint32
	fbTexture uint32

	lastCursorPos types.Vec2
	mousePressed  bool
}

// Run the interactive loop until the window is closed. Returns the number
// of accumulated samples so the caller can save the mean image.
func Run(sc *scene.Scene, image *img.Image, renderers []render.Renderer, active int, cancel *render.CancelFlag) (uint32, error) {
	v := &view{
		scene:     sc,
		image:     image,
		renderers: renderers,
		active:    active,
		cancel:    cancel,
	}

	if err := v.initGL(); err != nil {
		return 0, err
	}
	defer glfw.Terminate()

	v.restart()
	for !v.window.ShouldClose() {
		glfw.PollEvents()

		v.renderers[v.active].Render(v.image)
		v.accum++

		v.blitFrame()
		v.window.SwapBuffers()
	}

	return v.accum, nil
}

func (v *view) initGL() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("display: failed to initialize glfw: %s", err.Error())
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	var err error
	v.window, err = glfw.CreateWindow(v.image.Width, v.image.Height, "ris", nil, nil)
	if err != nil {
		return fmt.Errorf("display: could not create opengl window: %s", err.Error())
	}
	v.window.MakeContextCurrent()

	if err = gl.Init(); err != nil {
		return fmt.Errorf("display: could not init opengl: %s", err.Error())
	}

	// Setup texture for image data
	gl.GenTextures(1, &v.fbTexture)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, v.fbTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(v.image.Width), int32(v.image.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	// Attach texture to FBO
	gl.GenFramebuffers(1, &v.texFbo)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, v.texFbo)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, v.fbTexture, 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	// Bind event callbacks
	v.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	v.window.SetKeyCallback(v.onKeyEvent)
	v.window.SetMouseButtonCallback(v.onMouseEvent)
	v.window.SetCursorPosCallback(v.onCursorPosEvent)

	return nil
}

// Upload the tonemapped accumulator into the texture and blit it to the
// window framebuffer. glBlitFramebuffer flips Y, which conveniently matches
// the image's top-down row order.
func (v *view) blitFrame() {
	frame := v.image.RGBA(v.accum)

	w := int32(v.image.Width)
	h := int32(v.image.Height)
	gl.BindTexture(gl.TEXTURE_2D, v.fbTexture)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, w, h, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&frame.Pix[0]))

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, v.texFbo)
	gl.BlitFramebuffer(0, 0, w, h, 0, h, w, 0, gl.COLOR_BUFFER_BIT, gl.LINEAR)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
}

// Restart accumulation after a camera move or renderer swap.
func (v *view) restart() {
	v.cancel.Reset()
	v.renderers[v.active].Reset()
	v.image.Clear()
	v.accum = 0
}

func (v *view) onKeyEvent(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	// Double speed if shift is pressed
	speed := cameraMoveSpeed
	if (mods & glfw.ModShift) == glfw.ModShift {
		speed *= 2.0
	}

	switch key {
	case glfw.KeyEscape:
		v.cancel.Cancel()
		v.window.SetShouldClose(true)
		return
	case glfw.KeyR:
		v.active = (v.active + 1) % len(v.renderers)
		v.window.SetTitle(fmt.Sprintf("ris (%s)", v.renderers[v.active].Name()))
		logger.Noticef("switched to renderer %q", v.renderers[v.active].Name())
	case glfw.KeyUp:
		v.scene.Camera.KeyboardMotion(0, 0, speed)
	case glfw.KeyDown:
		v.scene.Camera.KeyboardMotion(0, 0, -speed)
	case glfw.KeyLeft:
		v.scene.Camera.KeyboardMotion(-speed, 0, 0)
	case glfw.KeyRight:
		v.scene.Camera.KeyboardMotion(speed, 0, 0)
	default:
		return
	}

	v.restart()
}

func (v *view) onMouseEvent(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}

	if action == glfw.Press {
		xPos, yPos := w.GetCursorPos()
		v.lastCursorPos[0], v.lastCursorPos[1] = float32(xPos), float32(yPos)
		v.mousePressed = true
	} else {
		v.mousePressed = false
	}
}

func (v *view) onCursorPosEvent(w *glfw.Window, xPos, yPos float64) {
	if !v.mousePressed {
		return
	}

	// Calculate delta movement and apply mouse sensitivity
	newPos := types.Vec2{float32(xPos), float32(yPos)}
	delta := v.lastCursorPos.Sub(newPos)
	delta[0] *= mouseSensitivityX
	delta[1] *= mouseSensitivityY
	v.lastCursorPos = newPos

	v.scene.Camera.MouseMotion(delta[0], delta[1])
	v.restart()
}
