package render

import (
	"fmt"

	"github.com/humboldt-xie/voxedit/world"
	"github.com/pkg/errors"
)

var (
	ErrBufferCreate        = errors.New("buffer creation failed")
	ErrUnknownChunk        = errors.New("unknown chunk")
	ErrDuplicateIdentifier = errors.New("duplicate chunk identifier")
	ErrModuleLoadFailed    = errors.New("shader module load failed")
	ErrUnknownModule       = errors.New("unknown shader module")
)

// ModuleLoadError reports a shader module whose program could not be built.
type ModuleLoadError struct {
	Module string
	Err    error
}

func (e *ModuleLoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load module %s: invalid program", e.Module)
	}
	return fmt.Sprintf("load module %s: %v", e.Module, e.Err)
}

func (e *ModuleLoadError) Unwrap() error {
	return e.Err
}

func (e *ModuleLoadError) Is(target error) bool {
	return target == ErrModuleLoadFailed
}

type BufferHandle uint32

type ProgramHandle uint32

const InvalidProgram ProgramHandle = 0

func (p ProgramHandle) Valid() bool {
	return p != InvalidProgram
}

// Device is the slice of the graphics API the chunk renderers need. Vertex
// and index offsets and counts are in elements, not bytes.
type Device interface {
	CreateBuffers(vertices, indices int) (BufferHandle, error)
	UpdateVertices(b BufferHandle, offset int, data []world.Vertex) error
	UpdateIndices(b BufferHandle, offset int, data []uint32) error
	DrawIndexed(b BufferHandle, p ProgramHandle, count int)
	DestroyBuffers(b BufferHandle)
	DestroyProgram(p ProgramHandle)
}

// ProgramLoader builds the shader program of a module.
type ProgramLoader interface {
	LoadProgram(module string) (ProgramHandle, error)
}
