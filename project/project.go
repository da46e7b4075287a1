package project

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/humboldt-xie/voxedit/render"
	"github.com/humboldt-xie/voxedit/world"
	"github.com/pkg/errors"
)

// Paths are the directories a project reads and writes.
type Paths struct {
	Fixtures string `yaml:"fixtures"`
	Assets   string `yaml:"assets"`
	Shaders  string `yaml:"shaders"`
	Project  string `yaml:"project"`
}

// ChunkDir is where descriptors of fixture or game-object chunks live.
func (p Paths) ChunkDir(fixture bool) string {
	if fixture {
		return p.Fixtures
	}
	return p.Assets
}

type Options struct {
	Name    string
	Paths   Paths
	Modules []string

	Device render.Device
	Loader render.ProgramLoader
	// Store is optional. Without it chunks are only kept as .chunk files.
	Store world.Store
	// Builder is optional and defaults to the naive mesher.
	Builder world.GridBuilder
	// PreviewSize is the edge of preview thumbnails in pixels.
	PreviewSize int
}

// Project is the level being edited: its chunk storage and everything
// persisting or mutating it. Only Queue may be used from other goroutines;
// everything else runs on the frame thread.
type Project struct {
	Name string

	paths       Paths
	modules     []string
	storage     *render.ChunkStorage
	store       world.Store
	builder     world.GridBuilder
	queue       *Queue
	previewSize int
	closed      bool
}

func New(opts Options) *Project {
	name := opts.Name
	if name == "" {
		name = "Level"
	}
	size := opts.PreviewSize
	if size <= 0 {
		size = 128
	}
	modules := opts.Modules
	if len(modules) == 0 {
		modules = []string{world.DefaultModule}
	}
	return &Project{
		Name:        name,
		paths:       opts.Paths,
		modules:     append([]string(nil), modules...),
		storage:     render.NewChunkStorage(opts.Device, opts.Loader),
		store:       opts.Store,
		builder:     opts.Builder,
		queue:       NewQueue(),
		previewSize: size,
	}
}

// Load re-materialises the persisted chunks: from the store when there is
// one, otherwise from the fixture and asset directories. Chunks that cannot
// be built are logged and skipped.
func (p *Project) Load() (int, error) {
	var descriptors []world.Descriptor
	if p.store != nil {
		err := p.store.RangeChunks(func(d world.Descriptor) error {
			descriptors = append(descriptors, d)
			return nil
		})
		if err != nil {
			return 0, errors.Wrap(err, "load project store")
		}
	} else {
		for _, fixture := range []bool{true, false} {
			dir := p.paths.ChunkDir(fixture)
			if dir == "" {
				continue
			}
			ds, err := world.ReadDescriptorDir(dir)
			if err != nil {
				return 0, errors.Wrapf(err, "load %s", dir)
			}
			for i := range ds {
				ds[i].Fixture = fixture
			}
			descriptors = append(descriptors, ds...)
		}
	}

	n := 0
	for _, d := range descriptors {
		c, err := world.NewChunkWith(p.builder, d)
		if err == nil {
			err = p.storage.AddChunk(c)
		}
		if err != nil {
			log.Printf("skip chunk %s: %v", d.Identifier, err)
			continue
		}
		n++
	}
	log.Printf("project %s loaded %d chunks", p.Name, n)
	return n, nil
}

func (p *Project) persist(c *world.Chunk) error {
	if dir := p.paths.ChunkDir(c.Fixture); dir != "" {
		if _, err := c.Write(dir); err != nil {
			return err
		}
	}
	if p.store != nil {
		return p.store.PutChunk(c.Descriptor())
	}
	return nil
}

func (p *Project) forget(identifier string, fixture bool) error {
	if dir := p.paths.ChunkDir(fixture); dir != "" {
		if err := world.RemoveDescriptor(dir, identifier); err != nil {
			return err
		}
	}
	if p.store != nil {
		return p.store.DeleteChunk(identifier, fixture)
	}
	return nil
}

// AddChunk builds a chunk from d, stores it and persists its descriptor.
func (p *Project) AddChunk(d world.Descriptor) (*world.Chunk, error) {
	c, err := world.NewChunkWith(p.builder, d)
	if err != nil {
		return nil, err
	}
	if err := p.storage.AddChunk(c); err != nil {
		return nil, err
	}
	if err := p.persist(c); err != nil {
		p.storage.DeleteChunk(c.Identifier)
		return nil, errors.WithMessagef(err, "persist chunk %s", c.Identifier)
	}
	return c, nil
}

// AddMany adds n chunks from d. Copy i is named <identifier>_<i> (the first
// keeps the plain identifier) and moved by i*split so they do not overlap.
func (p *Project) AddMany(d world.Descriptor, n int, split mgl32.Vec3) ([]*world.Chunk, error) {
	if n < 1 {
		n = 1
	}
	var added []*world.Chunk
	for i := 0; i < n; i++ {
		copyd := d
		if i > 0 {
			copyd.Identifier = fmt.Sprintf("%s_%d", d.Identifier, i)
		}
		copyd.Translation = d.Translation.Add(split.Mul(float32(i)))
		c, err := p.AddChunk(copyd)
		if err != nil {
			return added, err
		}
		added = append(added, c)
	}
	return added, nil
}

// Duplicate adds n copies of an existing chunk, copy i moved by i*split
// from the source chunk. Copies get generated identifiers.
func (p *Project) Duplicate(identifier string, n int, split mgl32.Vec3) ([]*world.Chunk, error) {
	src, ok := p.storage.Chunk(identifier)
	if !ok {
		return nil, errors.Wrapf(render.ErrUnknownChunk, "%s", identifier)
	}
	var added []*world.Chunk
	for i := 1; i <= n; i++ {
		d := src.Descriptor()
		d.Identifier = identifier + "-" + uuid.New().String()[:8]
		d.Translation = d.Translation.Add(split.Mul(float32(i)))
		c, err := p.AddChunk(d)
		if err != nil {
			return added, err
		}
		added = append(added, c)
	}
	return added, nil
}

// SetChunk replaces the chunk called identifier with one built from d. An
// empty d.Identifier keeps the name; a different one renames the chunk and
// its descriptor file. On error the previous chunk stays in storage and on
// disk.
func (p *Project) SetChunk(identifier string, d world.Descriptor) (*world.Chunk, error) {
	old, ok := p.storage.Chunk(identifier)
	if !ok {
		return nil, errors.Wrapf(render.ErrUnknownChunk, "%s", identifier)
	}
	if d.Identifier == "" {
		d.Identifier = identifier
	}
	if d.Identifier != identifier {
		return p.rename(old, d)
	}

	c := old.Clone()
	if d.Module != "" {
		c.Module = d.Module
	}
	c.Fixture = d.Fixture
	if err := c.SetGeometry(d.Dimensions, d.Translation, d.BlockType); err != nil {
		return nil, err
	}
	if err := p.persist(c); err != nil {
		p.restore(old, c)
		return nil, errors.WithMessagef(err, "persist chunk %s", c.Identifier)
	}
	if err := p.storage.SetChunk(c); err != nil {
		p.restore(old, c)
		return nil, err
	}
	if old.Fixture != c.Fixture {
		if err := p.forget(identifier, old.Fixture); err != nil {
			if rerr := p.storage.SetChunk(old); rerr != nil {
				log.Printf("set chunk %s: undo: %v", identifier, rerr)
			}
			p.restore(old, c)
			return nil, err
		}
	}
	return c, nil
}

// rename writes the new descriptor, swaps the chunks in storage and only
// then drops the old descriptor. Identifiers stay unique in storage at every
// step.
func (p *Project) rename(old *world.Chunk, d world.Descriptor) (*world.Chunk, error) {
	if _, taken := p.storage.Chunk(d.Identifier); taken {
		return nil, errors.Wrapf(render.ErrDuplicateIdentifier, "%s", d.Identifier)
	}
	if d.Module == "" {
		d.Module = old.Module
	}
	c, err := world.NewChunkWith(p.builder, d)
	if err != nil {
		return nil, err
	}
	if err := p.persist(c); err != nil {
		p.restore(old, c)
		return nil, errors.WithMessagef(err, "persist chunk %s", c.Identifier)
	}
	if err := p.storage.AddChunk(c); err != nil {
		p.restore(old, c)
		return nil, err
	}
	undo := func() {
		if err := p.storage.DeleteChunk(c.Identifier); err != nil {
			log.Printf("rename %s: undo: %v", old.Identifier, err)
		}
		p.restore(old, c)
	}
	if err := p.storage.DeleteChunk(old.Identifier); err != nil {
		undo()
		return nil, err
	}
	if err := p.forget(old.Identifier, old.Fixture); err != nil {
		if aerr := p.storage.AddChunk(old); aerr != nil {
			log.Printf("rename %s: undo: %v", old.Identifier, aerr)
		}
		undo()
		return nil, err
	}
	log.Printf("chunk %s renamed to %s", old.Identifier, c.Identifier)
	return c, nil
}

// restore puts old back on disk and in the store after a failed edit to c,
// dropping whatever c left at a different location.
func (p *Project) restore(old, c *world.Chunk) {
	if old.Identifier != c.Identifier || old.Fixture != c.Fixture {
		if err := p.forget(c.Identifier, c.Fixture); err != nil {
			log.Printf("restore %s: %v", old.Identifier, err)
		}
	}
	if err := p.persist(old); err != nil {
		log.Printf("restore %s: %v", old.Identifier, err)
	}
}

// DeleteChunk removes the chunk and its persisted descriptor.
func (p *Project) DeleteChunk(identifier string) error {
	c, ok := p.storage.Chunk(identifier)
	if !ok {
		return p.storage.DeleteChunk(identifier)
	}
	fixture := c.Fixture
	if err := p.storage.DeleteChunk(identifier); err != nil {
		return err
	}
	return p.forget(identifier, fixture)
}

// AddBaseLayer adds the fixture columns of a generated ground layer.
func (p *Project) AddBaseLayer(layer world.BaseLayer) (int, error) {
	ds, err := layer.Descriptors()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range ds {
		if _, err := p.AddChunk(d); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// SavePreview writes a thumbnail of the chunk next to its descriptor.
func (p *Project) SavePreview(identifier string) (string, error) {
	c, ok := p.storage.Chunk(identifier)
	if !ok {
		return "", errors.Wrapf(render.ErrUnknownChunk, "%s", identifier)
	}
	dir := p.paths.ChunkDir(c.Fixture)
	if dir == "" {
		dir = p.paths.Project
	}
	path := filepath.Join(dir, c.Identifier+".png")
	if err := world.SavePreview(c, p.previewSize, path); err != nil {
		return "", errors.Wrapf(err, "preview %s", c.Identifier)
	}
	return path, nil
}

// Frame runs the mutations queued by other goroutines. Call it once per
// frame before Render.
func (p *Project) Frame() int {
	return p.queue.Drain()
}

func (p *Project) Render() {
	p.storage.Render()
}

// ReloadModule rebuilds a shader module after its sources changed. Modules
// no chunk uses are skipped.
func (p *Project) ReloadModule(module string) error {
	if !p.storage.HasModule(module) {
		return nil
	}
	return p.storage.ReloadModule(module)
}

func (p *Project) Queue() *Queue {
	return p.queue
}

func (p *Project) Storage() *render.ChunkStorage {
	return p.storage
}

func (p *Project) Chunks() []*world.Chunk {
	return p.storage.Chunks()
}

func (p *Project) Chunk(identifier string) (*world.Chunk, bool) {
	return p.storage.Chunk(identifier)
}

func (p *Project) Paths() Paths {
	return p.paths
}

// Modules lists the shader modules chunks may use.
func (p *Project) Modules() []string {
	return append([]string(nil), p.modules...)
}

// IndexOfModule is the position of module in Modules, or -1.
func (p *Project) IndexOfModule(module string) int {
	for i, m := range p.modules {
		if m == module {
			return i
		}
	}
	return -1
}

// Close stops accepting mutations, releases GPU resources and closes the
// store. It must run on the frame thread.
func (p *Project) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.queue.Close()
	p.storage.Destroy()
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}
