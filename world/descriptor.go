package world

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultModule     = "core"
	DefaultIdentifier = "Chunk"

	// DescriptorExt is the file extension of serialized chunk descriptors.
	DescriptorExt = ".chunk"
)

var ErrInvalidIdentifier = errors.New("invalid chunk identifier")

// Descriptor is everything needed to rebuild a chunk.
type Descriptor struct {
	Identifier  string     `yaml:"identifier" json:"identifier"`
	Module      string     `yaml:"module" json:"module"`
	BlockType   BlockType  `yaml:"block_type" json:"block_type"`
	Dimensions  Vec3       `yaml:"dimensions" json:"dimensions"`
	Translation mgl32.Vec3 `yaml:"translation" json:"translation"`
	Fixture     bool       `yaml:"fixture" json:"fixture"`
}

func (d Descriptor) withDefaults() Descriptor {
	if d.Module == "" {
		d.Module = DefaultModule
	}
	if d.Identifier == "" {
		d.Identifier = DefaultIdentifier
	}
	return d
}

// Validate rejects descriptors that could not name a file or a chunk.
func (d Descriptor) Validate() error {
	if err := ValidateIdentifier(d.Identifier); err != nil {
		return err
	}
	if d.Module == "" {
		return errors.New("chunk module is empty")
	}
	return ValidateDimensions(d.Dimensions)
}

// ValidateIdentifier makes sure id is usable as a file name.
func ValidateIdentifier(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.Wrap(ErrInvalidIdentifier, "empty")
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return errors.Wrapf(ErrInvalidIdentifier, "%q", id)
	}
	return nil
}

func DescriptorPath(dir, identifier string) string {
	return filepath.Join(dir, identifier+DescriptorExt)
}

// WriteDescriptor writes d to <dir>/<identifier>.chunk and returns the path.
func WriteDescriptor(dir string, d Descriptor) (string, error) {
	if err := ValidateIdentifier(d.Identifier); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return "", errors.Wrapf(err, "encode chunk %s", d.Identifier)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := DescriptorPath(dir, d.Identifier)
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrapf(err, "write chunk %s", d.Identifier)
	}
	return path, nil
}

func ReadDescriptor(path string) (Descriptor, error) {
	var d Descriptor
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return d, err
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, errors.Wrapf(err, "%s", path)
	}
	return d.withDefaults(), nil
}

// ReadDescriptorDir loads every *.chunk file in dir. A missing directory
// yields no descriptors.
func ReadDescriptorDir(dir string) ([]Descriptor, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+DescriptorExt))
	if err != nil {
		return nil, err
	}
	var out []Descriptor
	for _, p := range paths {
		d, err := ReadDescriptor(p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func RemoveDescriptor(dir, identifier string) error {
	err := os.Remove(DescriptorPath(dir, identifier))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
