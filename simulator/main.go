package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rook-computer/postermaker/internal/app"
	"github.com/rook-computer/postermaker/internal/export"
	"github.com/rook-computer/postermaker/internal/importer"
	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/state"
	"github.com/rook-computer/postermaker/internal/web"
)

func main() {
	defaults, err := web.DefaultServerConfigFromEnv(":8080")
	if err != nil {
		fmt.Println("server config error:", err)
		os.Exit(2)
	}

	listenAddr := flag.String("listen", defaults.ListenAddr, "http listen address; also configurable via "+web.EnvListenAddr)
	devMode := flag.Bool("dev", defaults.DevMode, "enable dev mode; also configurable via "+web.EnvDevMode)
	debug := flag.Bool("debug", false, "log to stderr")
	staticDir := flag.String("static-dir", defaults.StaticDir, "serve static UI from this directory (optional); when empty, embedded web UI assets are served; also configurable via "+web.EnvStaticDir)
	statePath := flag.String("state", os.Getenv("POSTERMAKER_STATE"), "persist the store to this file (optional)")
	outDir := flag.String("out", os.Getenv("POSTERMAKER_OUT"), "also write exports into this directory (optional)")
	fontDir := flag.String("fonts", os.Getenv("POSTERMAKER_FONTS"), "directory searched for font families")
	settle := flag.Duration("settle", export.DefaultSettleDelay, "delay between render and rasterize during export")
	startup := flag.String("scenario", "default", "startup scenario: "+strings.Join(scenarioNames(), " | "))
	flag.Parse()

	var logger app.Logger = app.NoopLogger{}
	if *debug {
		logger = app.NewFileLogger(os.Stderr)
	}

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := state.NewStore()
	control := NewSimControl(store, *startup)
	if *statePath != "" {
		if err := store.Load(*statePath); err != nil {
			fmt.Println("state load error:", err)
			os.Exit(2)
		}
		persister := &state.Persister{Store: store, Path: *statePath, Logger: logger}
		persister.Start()
		defer persister.Stop()
	} else if err := control.ApplyScenario(*startup); err != nil {
		fmt.Println("scenario init error:", err)
		os.Exit(2)
	}

	fonts := render.NewFontLibrary(*fontDir)
	fonts.Logger = logger
	images := render.NewImageLoader()
	images.Logger = logger
	surface := render.NewSurface(fonts, images)
	surface.Logger = logger
	defer surface.Close()
	defer surface.Attach(store)()

	memory := &export.MemorySink{Keep: 8}
	var sink export.Sink = memory
	if *outDir != "" {
		sink = export.MultiSink{export.DirSink{Dir: *outDir}, memory}
	}
	runner := &export.Runner{
		Store: store,
		Pipeline: &export.Pipeline{
			Surface:     surface,
			Sink:        control.Sink(sink),
			Notifier:    export.NotifierFunc(func(msg string) { fmt.Println("export alert:", msg) }),
			Logger:      logger,
			SettleDelay: *settle,
		},
		Logger: logger,
	}
	runner.Start(processCtx)
	defer runner.Stop()

	server := web.NewHTTPServer(web.ServerConfig{ListenAddr: *listenAddr, DevMode: *devMode})
	server.StaticDir = *staticDir
	server.Logger = logger
	server.Handler = web.NewDefaultMux(server.StaticDir, web.APIV1Config{Deps: web.APIV1Deps{
		Store:     store,
		Surface:   surface,
		Images:    images,
		Artifacts: memory,
		Importer:  importer.Importer{Logger: logger},
		Logger:    logger,
	}})
	registerSimEndpoints(server.Handler, control)

	if err := server.Start(processCtx); err != nil {
		fmt.Println("server start error:", err)
		os.Exit(1)
	}

	fmt.Println("Postermaker simulator listening on", server.Addr)
	fmt.Println("Scenario:", control.currentScenario.Load())
	fmt.Println("Editor: http://" + displayAddr(server.Addr) + "/")

	<-processCtx.Done()
	_ = server.Stop()
}

func displayAddr(addr string) string {
	// Best-effort for display; don't attempt full URL parsing here.
	if strings.HasPrefix(addr, ":") {
		return "127.0.0.1" + addr
	}
	if strings.HasPrefix(addr, "[::]:") {
		return "127.0.0.1" + strings.TrimPrefix(addr, "[::]")
	}
	if addr == "" {
		return "127.0.0.1:8080"
	}
	return addr
}
