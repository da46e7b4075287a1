package main

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/voxedit/project"
	"github.com/humboldt-xie/voxedit/render"
	"github.com/humboldt-xie/voxedit/world"
)

func initGL(c WindowConfig) *glfw.Window {
	err := glfw.Init()
	if err != nil {
		log.Fatal(err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, gl.TRUE)

	win, err := glfw.CreateWindow(c.Width, c.Height, c.Title, nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	win.MakeContextCurrent()
	err = gl.Init()
	if err != nil {
		log.Fatal(err)
	}
	glfw.SwapInterval(1) // enable vsync
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.BLEND)
	return win
}

type FPS struct {
	lastUpdate time.Time
	cnt        int
	fps        int
}

func (f *FPS) Update() {
	f.cnt++
	now := time.Now()
	p := now.Sub(f.lastUpdate)
	if p >= time.Second {
		f.fps = int(float64(f.cnt) / p.Seconds())
		f.cnt = 0
		f.lastUpdate = now
	}
}

func (f *FPS) Fps() int {
	return f.fps
}

// Editor owns the window and turns input into project edits. Everything
// except NewEditor runs inside mainthread.Call.
type Editor struct {
	win    *glfw.Window
	dev    *render.GLDevice
	camera *Camera
	proj   *project.Project

	width, height int
	lx, ly        float64
	prevtime      float64

	selected  string
	nextchunk int
	moduleidx int
	blockidx  int
	fps       FPS

	exclusiveMouse bool
	closed         atomic.Bool
}

// NewEditor opens the window and its GL device. The project is attached
// later with SetProject, once the device exists to build it on.
func NewEditor(c WindowConfig) *Editor {
	e := &Editor{width: c.Width, height: c.Height}
	mainthread.Call(func() {
		win := initGL(c)
		win.SetMouseButtonCallback(e.onMouseButtonCallback)
		win.SetCursorPosCallback(e.onCursorPosCallback)
		win.SetFramebufferSizeCallback(e.onFrameBufferSizeCallback)
		win.SetKeyCallback(e.onKeyCallback)
		e.win = win
		e.dev = render.NewGLDevice()
	})
	e.camera = NewCamera(mgl32.Vec3{0, 16, 24})
	return e
}

func (e *Editor) Device() *render.GLDevice {
	return e.dev
}

func (e *Editor) SetProject(p *project.Project) {
	e.proj = p
	if chunks := p.Chunks(); len(chunks) > 0 {
		e.selected = chunks[0].Identifier
		b := chunks[0].Bounds
		e.camera.LookAt(b.Min.Add(b.Max).Mul(0.5))
	}
}

func (e *Editor) setExclusiveMouse(exclusive bool) {
	if exclusive {
		e.win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		e.win.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
	e.exclusiveMouse = exclusive
}

func (e *Editor) module() string {
	modules := e.proj.Modules()
	return modules[e.moduleidx%len(modules)]
}

func (e *Editor) blockType() world.BlockType {
	types := world.BlockTypes()
	return types[e.blockidx%len(types)]
}

// addChunk places a new 2x2x2 chunk a few units in front of the camera.
func (e *Editor) addChunk() {
	at := e.camera.Pos().Add(e.camera.Front().Mul(6))
	d := world.Descriptor{
		Identifier:  e.newIdentifier(),
		Module:      e.module(),
		BlockType:   e.blockType(),
		Dimensions:  world.Vec3{2, 2, 2},
		Translation: mgl32.Vec3{float32(int(at.X())), float32(int(at.Y())), float32(int(at.Z()))},
	}
	c, err := e.proj.AddChunk(d)
	if err != nil {
		log.Printf("add chunk: %v", err)
		return
	}
	e.selected = c.Identifier
}

// newIdentifier returns the first chunk_<n> no stored chunk uses, counting
// up from the last one handed out.
func (e *Editor) newIdentifier() string {
	for {
		id := fmt.Sprintf("chunk_%d", e.nextchunk)
		e.nextchunk++
		if _, taken := e.proj.Chunk(id); !taken {
			return id
		}
	}
}

// editSelected rebuilds the selected chunk after f changed its descriptor.
func (e *Editor) editSelected(f func(d *world.Descriptor)) {
	c, ok := e.proj.Chunk(e.selected)
	if !ok {
		return
	}
	d := c.Descriptor()
	f(&d)
	if _, err := e.proj.SetChunk(e.selected, d); err != nil {
		log.Printf("edit %s: %v", e.selected, err)
	}
}

func (e *Editor) selectNext() {
	chunks := e.proj.Chunks()
	if len(chunks) == 0 {
		e.selected = ""
		return
	}
	next := 0
	for i, c := range chunks {
		if c.Identifier == e.selected {
			next = (i + 1) % len(chunks)
			break
		}
	}
	e.selected = chunks[next].Identifier
}

func (e *Editor) onMouseButtonCallback(win *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if !e.exclusiveMouse {
		e.setExclusiveMouse(true)
	}
}

func (e *Editor) onFrameBufferSizeCallback(window *glfw.Window, width, height int) {
	e.width, e.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (e *Editor) onCursorPosCallback(win *glfw.Window, xpos float64, ypos float64) {
	if !e.exclusiveMouse {
		return
	}
	if e.lx == 0 && e.ly == 0 {
		e.lx, e.ly = xpos, ypos
		return
	}
	dx, dy := xpos-e.lx, e.ly-ypos
	e.lx, e.ly = xpos, ypos
	e.camera.ChangeAngle(float32(dx), float32(dy))
}

func (e *Editor) onKeyCallback(win *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}
	step := float32(1)
	if mods&glfw.ModShift != 0 {
		step = -1
	}
	switch key {
	case glfw.KeyN:
		e.addChunk()
	case glfw.KeyDelete, glfw.KeyBackspace:
		if err := e.proj.DeleteChunk(e.selected); err != nil {
			log.Print(err)
		}
		e.selectNext()
	case glfw.KeyTab:
		e.selectNext()
	case glfw.KeyM:
		e.moduleidx++
		module := e.module()
		e.editSelected(func(d *world.Descriptor) { d.Module = module })
	case glfw.KeyB:
		e.blockidx++
		t := e.blockType()
		e.editSelected(func(d *world.Descriptor) { d.BlockType = t })
	case glfw.KeyG:
		e.editSelected(func(d *world.Descriptor) { d.Dimensions.X = max(1, d.Dimensions.X+int(step)) })
	case glfw.KeyH:
		e.editSelected(func(d *world.Descriptor) { d.Dimensions.Y = max(1, d.Dimensions.Y+int(step)) })
	case glfw.KeyJ:
		e.editSelected(func(d *world.Descriptor) { d.Dimensions.Z = max(1, d.Dimensions.Z+int(step)) })
	case glfw.KeyLeft:
		e.editSelected(func(d *world.Descriptor) { d.Translation = d.Translation.Add(mgl32.Vec3{-1, 0, 0}) })
	case glfw.KeyRight:
		e.editSelected(func(d *world.Descriptor) { d.Translation = d.Translation.Add(mgl32.Vec3{1, 0, 0}) })
	case glfw.KeyUp:
		e.editSelected(func(d *world.Descriptor) { d.Translation = d.Translation.Add(mgl32.Vec3{0, 0, -1}) })
	case glfw.KeyDown:
		e.editSelected(func(d *world.Descriptor) { d.Translation = d.Translation.Add(mgl32.Vec3{0, 0, 1}) })
	case glfw.KeyPageUp:
		e.editSelected(func(d *world.Descriptor) { d.Translation = d.Translation.Add(mgl32.Vec3{0, 1, 0}) })
	case glfw.KeyPageDown:
		e.editSelected(func(d *world.Descriptor) { d.Translation = d.Translation.Add(mgl32.Vec3{0, -1, 0}) })
	case glfw.KeyF:
		e.editSelected(func(d *world.Descriptor) { d.Fixture = !d.Fixture })
	case glfw.KeyX:
		name := e.proj.Name + ".jsonl.zst"
		if err := e.proj.Export(name); err != nil {
			log.Print(err)
		} else {
			log.Printf("exported %d chunks to %s", e.proj.Storage().Len(), name)
		}
	case glfw.KeyP:
		if path, err := e.proj.SavePreview(e.selected); err != nil {
			log.Print(err)
		} else {
			log.Printf("preview written to %s", path)
		}
	}
}

func (e *Editor) handleKeyInput(dt float64) {
	speed := float32(12 * dt)
	if e.win.GetKey(glfw.KeyEscape) == glfw.Press {
		e.setExclusiveMouse(false)
	}
	if e.win.GetKey(glfw.KeyW) == glfw.Press {
		e.camera.Move(MoveForward, speed)
	}
	if e.win.GetKey(glfw.KeyS) == glfw.Press {
		e.camera.Move(MoveBackward, speed)
	}
	if e.win.GetKey(glfw.KeyA) == glfw.Press {
		e.camera.Move(MoveLeft, speed)
	}
	if e.win.GetKey(glfw.KeyD) == glfw.Press {
		e.camera.Move(MoveRight, speed)
	}
	if e.win.GetKey(glfw.KeySpace) == glfw.Press {
		e.camera.Move(MoveUp, speed)
	}
	if e.win.GetKey(glfw.KeyLeftControl) == glfw.Press {
		e.camera.Move(MoveDown, speed)
	}
}

func (e *Editor) ShouldClose() bool {
	return e.closed.Load()
}

// Stop asks the frame loop to end after the current frame. Safe to call
// from any goroutine.
func (e *Editor) Stop() {
	e.closed.Store(true)
}

func (e *Editor) renderStat(viewProj mgl32.Mat4) {
	e.fps.Update()
	p := e.camera.Pos()
	bounds := e.proj.Storage().Bounds()
	visible := render.NewFrustum(viewProj).CountVisible(bounds)
	title := fmt.Sprintf("%s [%.1f %.1f %.1f] %s %s/%s chunks %d/%d modules %d fps %d",
		e.proj.Name, p.X(), p.Y(), p.Z(), e.selected, e.module(), e.blockType(),
		visible, len(bounds), len(e.proj.Storage().Modules()), e.fps.Fps())
	e.win.SetTitle(title)
}

func (e *Editor) Update() {
	mainthread.Call(func() {
		now := glfw.GetTime()
		dt := now - e.prevtime
		e.prevtime = now
		if dt > 0.05 {
			dt = 0.05
		}

		e.proj.Frame()
		e.handleKeyInput(dt)

		gl.ClearColor(0.57, 0.71, 0.77, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		viewProj := e.camera.ViewProjection(e.width, e.height)
		e.dev.SetViewProjection(viewProj)
		e.proj.Render()
		e.renderStat(viewProj)

		e.win.SwapBuffers()
		glfw.PollEvents()
		if e.win.ShouldClose() {
			e.closed.Store(true)
		}
	})
}

// Destroy closes the window. The project must be closed first.
func (e *Editor) Destroy() {
	mainthread.Call(func() {
		e.win.Destroy()
		glfw.Terminate()
	})
}
