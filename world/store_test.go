package world

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "project.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func collect(t *testing.T, s Store) []Descriptor {
	t.Helper()
	var out []Descriptor
	require.NoError(t, s.RangeChunks(func(d Descriptor) error {
		out = append(out, d)
		return nil
	}))
	return out
}

func TestBoltStorePutRange(t *testing.T) {
	s := openTestStore(t)
	obj := Descriptor{Identifier: "crate", Module: "core", BlockType: Wood, Dimensions: Vec3{1, 1, 1}, Translation: mgl32.Vec3{4, 0, 4}}
	ground := Descriptor{Identifier: "ground", Module: "core", BlockType: Grass, Dimensions: Vec3{8, 1, 8}, Fixture: true}
	require.NoError(t, s.PutChunk(obj))
	require.NoError(t, s.PutChunk(ground))

	got := collect(t, s)
	require.Len(t, got, 2)
	// fixtures come first
	assert.Equal(t, ground, got[0])
	assert.Equal(t, obj, got[1])
}

func TestBoltStoreMovesBetweenBuckets(t *testing.T) {
	s := openTestStore(t)
	d := Descriptor{Identifier: "rock", Module: "core", Dimensions: Vec3{1, 1, 1}}
	require.NoError(t, s.PutChunk(d))
	d.Fixture = true
	require.NoError(t, s.PutChunk(d))

	got := collect(t, s)
	require.Len(t, got, 1)
	assert.True(t, got[0].Fixture)

	require.NoError(t, s.DeleteChunk("rock", true))
	assert.Empty(t, collect(t, s))
}

func TestBoltStoreRejectsBadIdentifier(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.PutChunk(Descriptor{Identifier: "", Dimensions: Vec3{1, 1, 1}}))
}

func TestBoltStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.PutChunk(Descriptor{Identifier: "kept", Module: "core", Dimensions: Vec3{2, 2, 2}}))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()
	got := collect(t, s)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Identifier)
}
