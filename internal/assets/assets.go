// Package assets embeds the browser editor served by the device and the
// simulator.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed web
var webFS embed.FS

// WebUI is the editor UI with index.html at its root.
var WebUI = mustSub(webFS, "web")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
