package project

import (
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/voxedit/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frameLoop drains the project's queue the way the editor's frame loop does
// until the returned stop function is called.
func frameLoop(p *Project) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if p.Frame() == 0 {
				time.Sleep(time.Millisecond)
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func pipeClient(t *testing.T, p *Project) *Client {
	t.Helper()
	server, err := NewServer(p)
	require.NoError(t, err)
	serverConn, clientConn := net.Pipe()
	go server.ServeConn(serverConn)

	client, err := NewClient(clientConn)
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client
}

func TestRPCAddListDelete(t *testing.T) {
	p, _ := openProject(t, t.TempDir(), true)
	stop := frameLoop(p)
	client := pipeClient(t, p)

	added, err := client.Add(crate("box"))
	require.NoError(t, err)
	assert.Equal(t, "box", added.Identifier)
	assert.Equal(t, world.Wood, added.BlockType)

	many, err := client.AddMany(crate("row"), 2, mgl32.Vec3{4, 0, 0})
	require.NoError(t, err)
	require.Len(t, many, 2)
	assert.Equal(t, "row_1", many[1].Identifier)

	list, err := client.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "box", list[0].Identifier)

	set := crate("")
	set.Dimensions = world.Vec3{1, 1, 1}
	updated, err := client.Set("box", set)
	require.NoError(t, err)
	assert.Equal(t, world.Vec3{1, 1, 1}, updated.Dimensions)

	require.NoError(t, client.Delete("box"))
	err = client.Delete("box")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown chunk")

	list, err = client.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	stop()
	assert.Equal(t, 2, p.Storage().Len())
}

func TestRPCDuplicateAndExport(t *testing.T) {
	dir := t.TempDir()
	p, _ := openProject(t, dir, false)
	stop := frameLoop(p)
	defer stop()
	client := pipeClient(t, p)

	_, err := client.Add(crate("tree"))
	require.NoError(t, err)
	copies, err := client.Duplicate("tree", 3, mgl32.Vec3{0, 0, 2})
	require.NoError(t, err)
	require.Len(t, copies, 3)
	assert.Equal(t, mgl32.Vec3{0, 0, 6}, copies[2].Translation)

	path, err := client.Preview("tree")
	require.NoError(t, err)
	assert.True(t, exists(path))

	out := filepath.Join(dir, "export.jsonl.zst")
	exported, err := client.Export(out)
	require.NoError(t, err)
	assert.Len(t, exported, 4)
	read, err := ReadExport(out)
	require.NoError(t, err)
	assert.Equal(t, exported, read)
}

func TestRPCOverTCP(t *testing.T) {
	p, _ := openProject(t, t.TempDir(), false)
	stop := frameLoop(p)
	defer stop()

	server, err := NewServer(p)
	require.NoError(t, err)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- server.Serve(l) }()

	client, err := Dial(l.Addr().String())
	require.NoError(t, err)
	_, err = client.Add(crate("remote"))
	require.NoError(t, err)
	list, err := client.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	client.Close()

	require.NoError(t, l.Close())
	assert.NoError(t, <-served)
	server.Close()
}
