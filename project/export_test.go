package project

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/voxedit/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRoundTrip(t *testing.T) {
	var chunks []*world.Chunk
	for i, id := range []string{"a", "b", "c"} {
		c, err := world.NewChunk(world.Descriptor{
			Identifier:  id,
			Module:      "core",
			BlockType:   world.Stone,
			Dimensions:  world.Vec3{i + 1, 1, 1},
			Translation: mgl32.Vec3{float32(i), 0.5, 0},
			Fixture:     i == 0,
		})
		require.NoError(t, err)
		chunks = append(chunks, c)
	}

	path := filepath.Join(t.TempDir(), "out", "level.jsonl.zst")
	require.NoError(t, Export(path, chunks))

	got, err := ReadExport(path)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, c := range chunks {
		assert.Equal(t, c.Descriptor(), got[i])
	}
}

func TestExportEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl.zst")
	require.NoError(t, Export(path, nil))
	got, err := ReadExport(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProjectExportRelative(t *testing.T) {
	dir := t.TempDir()
	p, _ := openProject(t, dir, false)
	_, err := p.AddChunk(crate("box"))
	require.NoError(t, err)

	require.NoError(t, p.Export("level.jsonl.zst"))
	got, err := ReadExport(filepath.Join(dir, "level.jsonl.zst"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "box", got[0].Identifier)
}
