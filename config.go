package main

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/humboldt-xie/voxedit/project"
	"github.com/humboldt-xie/voxedit/world"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type Config struct {
	Name          string            `yaml:"name"`
	Window        WindowConfig      `yaml:"window"`
	Paths         project.Paths     `yaml:"paths"`
	Modules       []string          `yaml:"modules"`
	GridCacheSize int               `yaml:"grid_cache_size"`
	PreviewSize   int               `yaml:"preview_size"`
	Palette       map[string]string `yaml:"palette"`
	BaseLayer     *world.BaseLayer  `yaml:"base_layer"`
}

func DefaultConfig() Config {
	return Config{
		Name:   "Level",
		Window: WindowConfig{Width: 1280, Height: 720, Title: "voxedit"},
		Paths: project.Paths{
			Fixtures: "project/fixtures",
			Assets:   "project/assets",
			Shaders:  "shaders",
			Project:  "project",
		},
		Modules:       []string{world.DefaultModule},
		GridCacheSize: 64,
		PreviewSize:   128,
	}
}

// LoadConfig reads a YAML config on top of the defaults. A missing file
// yields the defaults. Relative paths are taken from the config's directory.
func LoadConfig(file string) (Config, error) {
	config := DefaultConfig()
	data, err := ioutil.ReadFile(file)
	if os.IsNotExist(err) {
		log.Printf("config %s not found, using defaults", file)
		return config, nil
	}
	if err != nil {
		return config, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "parse %s", file)
	}
	base := filepath.Dir(file)
	for _, p := range []*string{&config.Paths.Fixtures, &config.Paths.Assets, &config.Paths.Shaders, &config.Paths.Project} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("bad window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if len(c.Modules) == 0 {
		return errors.New("no shader modules configured")
	}
	if c.GridCacheSize <= 0 {
		return errors.Errorf("bad grid cache size %d", c.GridCacheSize)
	}
	if _, err := c.ParsePalette(); err != nil {
		return err
	}
	return nil
}

func (c Config) ParsePalette() (world.Palette, error) {
	return world.ParsePalette(c.Palette)
}
