package project

import (
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hashicorp/yamux"
	"github.com/humboldt-xie/voxedit/world"
	"github.com/pkg/errors"
)

// DefaultPort is used when a dial address has no port.
const DefaultPort = "8421"

type Empty struct{}

type AddRequest struct {
	Descriptor world.Descriptor
	// Count > 1 adds numbered copies, see Project.AddMany.
	Count int
	Split mgl32.Vec3
}

type SetRequest struct {
	Identifier string
	Descriptor world.Descriptor
}

type DeleteRequest struct {
	Identifier string
}

type DuplicateRequest struct {
	Identifier string
	Count      int
	Split      mgl32.Vec3
}

type PreviewRequest struct {
	Identifier string
}

type PathReply struct {
	Path string
}

type ExportRequest struct {
	Path string
}

type ChunksReply struct {
	Chunks []world.Descriptor
}

func descriptors(chunks []*world.Chunk) []world.Descriptor {
	out := make([]world.Descriptor, len(chunks))
	for i, c := range chunks {
		out[i] = c.Descriptor()
	}
	return out
}

// ChunkService exposes project edits over RPC. Every call runs on the frame
// thread through the project's queue.
type ChunkService struct {
	project *Project
}

func (s *ChunkService) do(f func() error) error {
	return s.project.Queue().Do(f)
}

func (s *ChunkService) Add(req *AddRequest, rep *ChunksReply) error {
	return s.do(func() error {
		added, err := s.project.AddMany(req.Descriptor, req.Count, req.Split)
		rep.Chunks = descriptors(added)
		return err
	})
}

func (s *ChunkService) Set(req *SetRequest, rep *ChunksReply) error {
	return s.do(func() error {
		c, err := s.project.SetChunk(req.Identifier, req.Descriptor)
		if err != nil {
			return err
		}
		rep.Chunks = descriptors([]*world.Chunk{c})
		return nil
	})
}

func (s *ChunkService) Delete(req *DeleteRequest, rep *Empty) error {
	return s.do(func() error {
		return s.project.DeleteChunk(req.Identifier)
	})
}

func (s *ChunkService) List(req *Empty, rep *ChunksReply) error {
	return s.do(func() error {
		rep.Chunks = descriptors(s.project.Chunks())
		return nil
	})
}

func (s *ChunkService) Duplicate(req *DuplicateRequest, rep *ChunksReply) error {
	return s.do(func() error {
		added, err := s.project.Duplicate(req.Identifier, req.Count, req.Split)
		rep.Chunks = descriptors(added)
		return err
	})
}

func (s *ChunkService) Preview(req *PreviewRequest, rep *PathReply) error {
	return s.do(func() error {
		path, err := s.project.SavePreview(req.Identifier)
		rep.Path = path
		return err
	})
}

func (s *ChunkService) Export(req *ExportRequest, rep *ChunksReply) error {
	return s.do(func() error {
		rep.Chunks = descriptors(s.project.Chunks())
		return s.project.Export(req.Path)
	})
}

// Server accepts editing sessions: one yamux session per connection, JSON-RPC
// on the first stream the client opens.
type Server struct {
	*rpc.Server
	clientid int32
	sessions sync.Map
}

func NewServer(p *Project) (*Server, error) {
	s := &Server{Server: rpc.NewServer()}
	if err := s.RegisterName("Chunks", &ChunkService{project: p}); err != nil {
		return nil, errors.Wrap(err, "register chunk service")
	}
	return s, nil
}

// ServeConn serves one client connection until it closes.
func (s *Server) ServeConn(conn net.Conn) {
	defer conn.Close()
	id := atomic.AddInt32(&s.clientid, 1)
	log.Printf("allocated %d for %s", id, conn.RemoteAddr())

	ysess, err := yamux.Server(conn, nil)
	if err != nil {
		log.Print(err)
		return
	}
	s.sessions.Store(id, ysess)
	defer s.sessions.Delete(id)
	defer ysess.Close()

	sconn, err := ysess.Accept()
	if err != nil {
		log.Print(err)
		return
	}
	s.ServeCodec(jsonrpc.NewServerCodec(sconn))
	log.Printf("%s(%d) closed connection", conn.RemoteAddr(), id)
}

// Serve accepts connections until l is closed.
func (s *Server) Serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Print(err)
			return err
		}
		go s.ServeConn(conn)
	}
}

// Close ends every open session.
func (s *Server) Close() {
	s.sessions.Range(func(k, v interface{}) bool {
		v.(*yamux.Session).Close()
		return true
	})
}

// Client is a typed editing client.
type Client struct {
	*rpc.Client
	sess *yamux.Session
}

// Dial connects to an editing server. A missing port means DefaultPort.
func Dial(addr string) (*Client, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, DefaultPort)
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c, err := NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func NewClient(conn net.Conn) (*Client, error) {
	sess, err := yamux.Client(conn, nil)
	if err != nil {
		return nil, err
	}
	stream, err := sess.Open()
	if err != nil {
		sess.Close()
		return nil, err
	}
	return &Client{
		Client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(stream)),
		sess:   sess,
	}, nil
}

func (c *Client) Close() error {
	err := c.Client.Close()
	c.sess.Close()
	return err
}

func (c *Client) Add(d world.Descriptor) (world.Descriptor, error) {
	rep := new(ChunksReply)
	if err := c.Call("Chunks.Add", &AddRequest{Descriptor: d, Count: 1}, rep); err != nil {
		return world.Descriptor{}, err
	}
	if len(rep.Chunks) != 1 {
		return world.Descriptor{}, errors.Errorf("add returned %d chunks", len(rep.Chunks))
	}
	return rep.Chunks[0], nil
}

func (c *Client) AddMany(d world.Descriptor, n int, split mgl32.Vec3) ([]world.Descriptor, error) {
	rep := new(ChunksReply)
	err := c.Call("Chunks.Add", &AddRequest{Descriptor: d, Count: n, Split: split}, rep)
	return rep.Chunks, err
}

func (c *Client) Set(identifier string, d world.Descriptor) (world.Descriptor, error) {
	rep := new(ChunksReply)
	if err := c.Call("Chunks.Set", &SetRequest{Identifier: identifier, Descriptor: d}, rep); err != nil {
		return world.Descriptor{}, err
	}
	if len(rep.Chunks) != 1 {
		return world.Descriptor{}, errors.Errorf("set returned %d chunks", len(rep.Chunks))
	}
	return rep.Chunks[0], nil
}

func (c *Client) Delete(identifier string) error {
	return c.Call("Chunks.Delete", &DeleteRequest{Identifier: identifier}, new(Empty))
}

func (c *Client) List() ([]world.Descriptor, error) {
	rep := new(ChunksReply)
	err := c.Call("Chunks.List", &Empty{}, rep)
	return rep.Chunks, err
}

func (c *Client) Duplicate(identifier string, n int, split mgl32.Vec3) ([]world.Descriptor, error) {
	rep := new(ChunksReply)
	err := c.Call("Chunks.Duplicate", &DuplicateRequest{Identifier: identifier, Count: n, Split: split}, rep)
	return rep.Chunks, err
}

func (c *Client) Preview(identifier string) (string, error) {
	rep := new(PathReply)
	err := c.Call("Chunks.Preview", &PreviewRequest{Identifier: identifier}, rep)
	return rep.Path, err
}

func (c *Client) Export(path string) ([]world.Descriptor, error) {
	rep := new(ChunksReply)
	err := c.Call("Chunks.Export", &ExportRequest{Path: path}, rep)
	return rep.Chunks, err
}
