package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rook-computer/postermaker/internal/app"
	"github.com/rook-computer/postermaker/internal/buttons"
	"github.com/rook-computer/postermaker/internal/export"
	"github.com/rook-computer/postermaker/internal/importer"
	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/state"
	"github.com/rook-computer/postermaker/internal/system"
	"github.com/rook-computer/postermaker/internal/web"
)

const (
	envStatePath = "POSTERMAKER_STATE"
	envOutDir    = "POSTERMAKER_OUT"
	envFontDir   = "POSTERMAKER_FONTS"
	envStdioLog  = "POSTERMAKER_STDIO_LOG"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	defaults, err := web.DefaultServerConfigFromEnv(":80")
	if err != nil {
		fmt.Println("server config error:", err)
		os.Exit(2)
	}

	// Flags
	listenAddr := flag.String("listen", defaults.ListenAddr, "http listen address; also configurable via "+web.EnvListenAddr)
	devMode := flag.Bool("dev", defaults.DevMode, "enable permissive CORS for UI development; also configurable via "+web.EnvDevMode)
	debug := flag.Bool("debug", false, "enable debug logging to ./postermaker-debug.log")
	stdioLog := flag.String("stdio-log", os.Getenv(envStdioLog), "redirect stdout+stderr (including panics) to this file; also configurable via "+envStdioLog)
	statePath := flag.String("state", envOr(envStatePath, "./poster-storage.json"), "persisted poster state; also configurable via "+envStatePath)
	outDir := flag.String("out", envOr(envOutDir, "./exports"), "directory receiving exports; also configurable via "+envOutDir)
	fontDir := flag.String("fonts", envOr(envFontDir, "/usr/share/fonts/truetype"), "directory searched for font families; also configurable via "+envFontDir)
	settle := flag.Duration("settle", export.DefaultSettleDelay, "delay between render and rasterize during export")
	fbDevice := flag.String("fb", "/dev/fb0", "framebuffer device")
	flag.Parse()

	// Best-effort: redirect all stdout/stderr output (including panic stack traces)
	// to a file so crashes are diagnosable even when the console is left in graphics mode.
	if *stdioLog != "" {
		if err := redirectStdIO(*stdioLog); err != nil {
			fmt.Println("stdio log redirect error:", err)
		}
	}

	// Local file logger when debug enabled
	var logger app.Logger = app.NoopLogger{}
	if *debug {
		f, err := os.OpenFile("./postermaker-debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			logger = app.NewFileLogger(f)
			logger.Infof("main", "debug logging enabled")
		} else {
			fmt.Println("debug log open error:", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := state.NewStore()
	if err := store.Load(*statePath); err != nil {
		logger.Errorf("main", "load %s: %v (starting fresh)", *statePath, err)
	}

	fonts := render.NewFontLibrary(*fontDir)
	fonts.Logger = logger
	images := render.NewImageLoader()
	images.Logger = logger
	surface := render.NewSurface(fonts, images)
	surface.Logger = logger

	renderer := render.NewFBRenderer()
	renderer.Device = *fbDevice

	a := app.New(store, surface, renderer, nil, nil, buttons.NewEvdevButtons(logger))
	a.Logger = logger
	a.Debug = *debug
	a.Console = true
	a.Persister = &state.Persister{Store: store, Path: *statePath, Logger: logger}
	a.Thumbs = &render.Offline{Fonts: fonts, Images: images, Logger: logger}
	_, artifacts := a.NewExports(app.ExportConfig{OutDir: *outDir, Keep: 4, SettleDelay: *settle})

	server := web.NewHTTPServer(web.ServerConfig{ListenAddr: *listenAddr, DevMode: *devMode, StaticDir: defaults.StaticDir})
	server.Logger = logger
	server.Handler = web.NewDefaultMux(server.StaticDir, web.APIV1Config{Deps: web.APIV1Deps{
		Store:     store,
		Surface:   surface,
		Images:    images,
		Artifacts: artifacts,
		Importer:  importer.Importer{Logger: logger},
		Logger:    logger,
	}})
	a.Web = server
	a.EditorURL = func() string { return system.EditorURL(server.Addr) }

	start := time.Now()
	if err := a.Start(ctx); err != nil && err != context.Canceled {
		fmt.Println("app error:", err)
		logger.Errorf("main", "exit after %s: %v", time.Since(start).Round(time.Second), err)
		os.Exit(1)
	}
	logger.Infof("main", "exit after %s", time.Since(start).Round(time.Second))
}
