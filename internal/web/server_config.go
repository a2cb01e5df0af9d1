package web

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	EnvListenAddr = "POSTERMAKER_LISTEN"
	EnvDevMode    = "POSTERMAKER_DEV"
	EnvStaticDir  = "POSTERMAKER_STATIC"
)

// ServerConfig contains settings for running the HTTP server. The device
// listens on :80 by default, the simulator on :8080.
type ServerConfig struct {
	ListenAddr string
	DevMode    bool
	// StaticDir replaces the embedded editor UI when set.
	StaticDir string
}

func DefaultServerConfigFromEnv(defaultListenAddr string) (ServerConfig, error) {
	return serverConfigFrom(os.LookupEnv, defaultListenAddr)
}

func serverConfigFrom(lookup func(string) (string, bool), defaultListenAddr string) (ServerConfig, error) {
	cfg := ServerConfig{ListenAddr: defaultListenAddr}
	if v, ok := lookup(EnvListenAddr); ok && strings.TrimSpace(v) != "" {
		cfg.ListenAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvStaticDir); ok {
		cfg.StaticDir = strings.TrimSpace(v)
	}
	if raw, ok := lookup(EnvDevMode); ok && raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%s must be a boolean (got %q): %w", EnvDevMode, raw, err)
		}
		cfg.DevMode = parsed
	}
	return cfg, nil
}
