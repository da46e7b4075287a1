package render

import (
	"io/ioutil"
	"log"
	"path/filepath"
	"runtime"

	"github.com/faiface/glhf"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/pkg/errors"
)

// PlatformGLSL is the shader directory used by the OpenGL device.
const PlatformGLSL = "glsl"

var (
	chunkVertexFormat = glhf.AttrFormat{
		{Name: "position", Type: glhf.Vec3},
		{Name: "color", Type: glhf.Vec4},
	}
	chunkUniformFormat = glhf.AttrFormat{
		{Name: "u_viewProj", Type: glhf.Mat4},
	}
)

// ShaderPaths returns the vertex and fragment shader files of a module.
func ShaderPaths(dir, module, platform string) (vs, fs string) {
	base := filepath.Join(dir, module, platform)
	return filepath.Join(base, "vs.bin"), filepath.Join(base, "fs.bin")
}

// ShaderLoader compiles <Dir>/<module>/glsl/{vs,fs}.bin into programs owned
// by a GLDevice.
type ShaderLoader struct {
	Dir string
	dev *GLDevice
}

func NewShaderLoader(dev *GLDevice, dir string) *ShaderLoader {
	return &ShaderLoader{Dir: dir, dev: dev}
}

func (l *ShaderLoader) LoadProgram(module string) (ProgramHandle, error) {
	vsPath, fsPath := ShaderPaths(l.Dir, module, PlatformGLSL)
	vs, err := ioutil.ReadFile(vsPath)
	if err != nil {
		return InvalidProgram, errors.Wrapf(err, "module %s", module)
	}
	fs, err := ioutil.ReadFile(fsPath)
	if err != nil {
		return InvalidProgram, errors.Wrapf(err, "module %s", module)
	}
	shader, err := glhf.NewShader(chunkVertexFormat, chunkUniformFormat, string(vs), string(fs))
	if err != nil {
		log.Printf("compile module %s: %v", module, err)
		return InvalidProgram, errors.Wrapf(err, "compile module %s", module)
	}
	p := ProgramHandle(shader.ID())
	l.dev.programs[p] = shader
	return p, nil
}

// DestroyProgram deletes the program now instead of leaving it to the
// shader's finalizer.
func (d *GLDevice) DestroyProgram(p ProgramHandle) {
	shader, ok := d.programs[p]
	if !ok {
		return
	}
	runtime.SetFinalizer(shader, nil)
	gl.DeleteProgram(shader.ID())
	delete(d.programs, p)
}
