package main

import (
	"flag"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"

	"net/http"
	_ "net/http/pprof"

	"github.com/faiface/mainthread"
	"github.com/humboldt-xie/voxedit/project"
	"github.com/humboldt-xie/voxedit/render"
	"github.com/humboldt-xie/voxedit/world"
	"github.com/xlab/closer"
)

var (
	configPath = flag.String("config", "config.yaml", "config file")
	projectDir = flag.String("project", "", "project directory, overrides the config")
	listenAddr = flag.String("listen", "", "serve editing sessions on this address")
	debug      = flag.Bool("debug", false, "log chunk generation timings")
	pprofPort  = flag.String("pprof", "", "http pprof port")
)

// stopTimeout bounds how long a signal waits for the frame loop to shut down.
const stopTimeout = 5 * time.Second

func openProject(config Config, dev *render.GLDevice) (*project.Project, error) {
	if err := os.MkdirAll(config.Paths.Project, 0755); err != nil {
		return nil, err
	}
	store, err := world.NewBoltStore(filepath.Join(config.Paths.Project, config.Name+".db"))
	if err != nil {
		return nil, err
	}
	palette, err := config.ParsePalette()
	if err != nil {
		store.Close()
		return nil, err
	}
	builder, err := world.NewGridCache(world.NaiveGrid{Palette: palette}, config.GridCacheSize)
	if err != nil {
		store.Close()
		return nil, err
	}
	return project.New(project.Options{
		Name:        config.Name,
		Paths:       config.Paths,
		Modules:     config.Modules,
		Device:      dev,
		Loader:      render.NewShaderLoader(dev, config.Paths.Shaders),
		Store:       store,
		Builder:     builder,
		PreviewSize: config.PreviewSize,
	}), nil
}

func run() {
	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *projectDir != "" {
		config.Paths.Project = *projectDir
	}

	editor := NewEditor(config.Window)
	done := make(chan struct{})
	closer.Bind(func() {
		editor.Stop()
		select {
		case <-done:
		case <-time.After(stopTimeout):
			log.Print("editor did not stop in time")
		}
	})

	var proj *project.Project
	mainthread.Call(func() {
		proj, err = openProject(config, editor.Device())
		if err != nil {
			return
		}
		var n int
		n, err = proj.Load()
		if err == nil && n == 0 && config.BaseLayer != nil {
			_, err = proj.AddBaseLayer(*config.BaseLayer)
		}
	})
	if err != nil {
		log.Panic(err)
	}
	editor.SetProject(proj)

	watcher, err := proj.WatchShaders()
	if err != nil {
		log.Print(err)
	} else {
		defer watcher.Close()
	}

	if *listenAddr != "" {
		server, err := project.NewServer(proj)
		if err != nil {
			log.Panic(err)
		}
		l, err := net.Listen("tcp", *listenAddr)
		if err != nil {
			log.Panic(err)
		}
		log.Printf("serving edits on %s", l.Addr())
		go server.Serve(l)
		defer func() {
			l.Close()
			server.Close()
		}()
	}

	md := time.Second / 120
	d := md
	timer := time.NewTimer(d)
	for !editor.ShouldClose() {
		<-timer.C
		start := time.Now()
		editor.Update()
		d = md - time.Since(start)
		if d < 0 {
			d = 1
		}
		timer.Reset(d)
	}

	mainthread.Call(func() {
		if err := proj.Close(); err != nil {
			log.Print(err)
		}
	})
	editor.Destroy()
	close(done)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	flag.Parse()
	world.Verbose = *debug
	go func() {
		if *pprofPort != "" {
			log.Fatal(http.ListenAndServe(*pprofPort, nil))
		}
	}()
	mainthread.Run(run)
	closer.Close()
}
