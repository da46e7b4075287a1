package project

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/humboldt-xie/voxedit/world"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Export writes one JSON descriptor per line, zstd compressed, to path.
func Export(path string, chunks []*world.Chunk) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithZeroFrames(true))
	if err != nil {
		return err
	}
	w := bufio.NewWriterSize(enc, 128*1024)
	je := json.NewEncoder(w)
	for _, c := range chunks {
		if err := je.Encode(c.Descriptor()); err != nil {
			enc.Close()
			return errors.Wrapf(err, "export chunk %s", c.Identifier)
		}
	}
	if err := w.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// Export writes every chunk of the project. A relative path is taken from
// the project directory.
func (p *Project) Export(path string) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.paths.Project, path)
	}
	return Export(path, p.Chunks())
}

// ReadExport reads back the descriptors written by Export.
func ReadExport(path string) ([]world.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []world.Descriptor
	jd := json.NewDecoder(bufio.NewReader(dec))
	for {
		var d world.Descriptor
		err := jd.Decode(&d)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, errors.Wrapf(err, "read export %s", path)
		}
		out = append(out, d)
	}
}
