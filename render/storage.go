package render

import (
	"log"
	"sort"

	"github.com/humboldt-xie/voxedit/world"
	"github.com/pkg/errors"
)

type moduleEntry struct {
	renderer *ChunkRenderer
	program  ProgramHandle
	chunks   int
}

// ChunkStorage holds every chunk of a level and the per-module renderers and
// programs drawing them. A module has an entry exactly while at least one
// stored chunk uses it.
type ChunkStorage struct {
	dev    Device
	loader ProgramLoader

	chunks  []*world.Chunk
	modules map[string]*moduleEntry
}

func NewChunkStorage(dev Device, loader ProgramLoader) *ChunkStorage {
	return &ChunkStorage{
		dev:     dev,
		loader:  loader,
		modules: make(map[string]*moduleEntry),
	}
}

func (s *ChunkStorage) indexOf(identifier string) int {
	for i, c := range s.chunks {
		if c.Identifier == identifier {
			return i
		}
	}
	return -1
}

// ensureModule returns the module's entry, creating the program and renderer
// when it does not exist yet.
func (s *ChunkStorage) ensureModule(module string) (*moduleEntry, error) {
	if e, ok := s.modules[module]; ok {
		return e, nil
	}
	p, err := s.loader.LoadProgram(module)
	if err != nil || !p.Valid() {
		if p.Valid() {
			s.dev.DestroyProgram(p)
		}
		log.Printf("load shader module %s failed: %v", module, err)
		return nil, &ModuleLoadError{Module: module, Err: err}
	}
	e := &moduleEntry{renderer: NewChunkRenderer(s.dev), program: p}
	s.modules[module] = e
	log.Printf("shader module %s loaded", module)
	return e, nil
}

// releaseIfEmpty destroys the module's renderer and program once no chunk
// uses it.
func (s *ChunkStorage) releaseIfEmpty(module string) {
	e, ok := s.modules[module]
	if !ok || e.chunks > 0 {
		return
	}
	e.renderer.Destroy()
	s.dev.DestroyProgram(e.program)
	delete(s.modules, module)
	log.Printf("shader module %s released", module)
}

// AddChunk stores a copy of c and uploads it to its module's renderer.
func (s *ChunkStorage) AddChunk(c *world.Chunk) error {
	if s.indexOf(c.Identifier) >= 0 {
		return errors.Wrapf(ErrDuplicateIdentifier, "%s", c.Identifier)
	}
	c = c.Clone()
	e, err := s.ensureModule(c.Module)
	if err != nil {
		return err
	}
	if err := e.renderer.AddChunk(c); err != nil {
		s.releaseIfEmpty(c.Module)
		return err
	}
	e.chunks++
	s.chunks = append(s.chunks, c)
	return nil
}

// DeleteChunk removes the chunk with the given identifier.
func (s *ChunkStorage) DeleteChunk(identifier string) error {
	i := s.indexOf(identifier)
	if i < 0 {
		log.Printf("delete chunk: unknown chunk %s", identifier)
		return errors.Wrapf(ErrUnknownChunk, "%s", identifier)
	}
	c := s.chunks[i]
	e := s.modules[c.Module]
	if err := e.renderer.RemoveChunk(identifier); err != nil {
		return err
	}
	e.chunks--
	s.chunks = append(s.chunks[:i], s.chunks[i+1:]...)
	s.releaseIfEmpty(c.Module)
	return nil
}

// SetChunk replaces the stored chunk that has c's identifier with a copy of
// c. When the module changes, the chunk moves to the other module's renderer.
func (s *ChunkStorage) SetChunk(c *world.Chunk) error {
	i := s.indexOf(c.Identifier)
	if i < 0 {
		log.Printf("set chunk: unknown chunk %s", c.Identifier)
		return errors.Wrapf(ErrUnknownChunk, "%s", c.Identifier)
	}
	old := s.chunks[i]
	c = c.Clone()

	if old.Module == c.Module {
		if err := s.modules[c.Module].renderer.AddChunk(c); err != nil {
			return err
		}
		s.chunks[i] = c
		return nil
	}

	target, err := s.ensureModule(c.Module)
	if err != nil {
		return err
	}
	if err := target.renderer.AddChunk(c); err != nil {
		s.releaseIfEmpty(c.Module)
		return err
	}
	source := s.modules[old.Module]
	if err := source.renderer.RemoveChunk(old.Identifier); err != nil {
		if rerr := target.renderer.RemoveChunk(c.Identifier); rerr != nil {
			log.Printf("set chunk %s: undo move: %v", c.Identifier, rerr)
		}
		s.releaseIfEmpty(c.Module)
		return err
	}
	target.chunks++
	source.chunks--
	s.chunks[i] = c
	s.releaseIfEmpty(old.Module)
	return nil
}

// Render draws each module once, in the order modules first appear in the
// chunk list.
func (s *ChunkStorage) Render() {
	if len(s.modules) == 0 {
		return
	}
	seen := make(map[string]bool, len(s.modules))
	for _, c := range s.chunks {
		if seen[c.Module] {
			continue
		}
		seen[c.Module] = true
		e := s.modules[c.Module]
		e.renderer.Render(e.program)
	}
}

// ReloadModule rebuilds the program of a loaded module. The old program is
// kept when loading fails.
func (s *ChunkStorage) ReloadModule(module string) error {
	e, ok := s.modules[module]
	if !ok {
		return errors.Wrapf(ErrUnknownModule, "%s", module)
	}
	p, err := s.loader.LoadProgram(module)
	if err != nil || !p.Valid() {
		log.Printf("reload shader module %s failed: %v", module, err)
		return &ModuleLoadError{Module: module, Err: err}
	}
	s.dev.DestroyProgram(e.program)
	e.program = p
	log.Printf("shader module %s reloaded", module)
	return nil
}

// Destroy releases every renderer and program. Calling it again does
// nothing.
func (s *ChunkStorage) Destroy() {
	for name, e := range s.modules {
		e.renderer.Destroy()
		s.dev.DestroyProgram(e.program)
		delete(s.modules, name)
	}
	s.chunks = nil
}

// Chunks returns copies of the stored chunks in insertion order. Edits to
// them reach storage only through SetChunk.
func (s *ChunkStorage) Chunks() []*world.Chunk {
	out := make([]*world.Chunk, len(s.chunks))
	for i, c := range s.chunks {
		out[i] = c.Clone()
	}
	return out
}

// Chunk returns a copy of the stored chunk.
func (s *ChunkStorage) Chunk(identifier string) (*world.Chunk, bool) {
	if i := s.indexOf(identifier); i >= 0 {
		return s.chunks[i].Clone(), true
	}
	return nil, false
}

// Bounds returns the bounds of every stored chunk in insertion order.
func (s *ChunkStorage) Bounds() []world.AABB {
	out := make([]world.AABB, len(s.chunks))
	for i, c := range s.chunks {
		out[i] = c.Bounds
	}
	return out
}

func (s *ChunkStorage) Len() int {
	return len(s.chunks)
}

// Modules lists the loaded modules by name.
func (s *ChunkStorage) Modules() []string {
	names := make([]string, 0, len(s.modules))
	for name := range s.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *ChunkStorage) HasModule(module string) bool {
	_, ok := s.modules[module]
	return ok
}

// Renderer returns the renderer of a loaded module.
func (s *ChunkStorage) Renderer(module string) (*ChunkRenderer, bool) {
	e, ok := s.modules[module]
	if !ok {
		return nil, false
	}
	return e.renderer, true
}

// Program returns the program of a loaded module.
func (s *ChunkStorage) Program(module string) (ProgramHandle, bool) {
	e, ok := s.modules[module]
	if !ok {
		return InvalidProgram, false
	}
	return e.program, true
}
