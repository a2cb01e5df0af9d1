package web

import (
	"errors"
	"image"

	"github.com/rook-computer/postermaker/internal/export"
	"github.com/rook-computer/postermaker/internal/importer"
	"github.com/rook-computer/postermaker/internal/render"
	"github.com/rook-computer/postermaker/internal/render/layout"
	"github.com/rook-computer/postermaker/internal/state"
)

// sysLogger is the component logger shape shared across the app.
type sysLogger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// PosterSurface is the part of the live canvas the API drives.
type PosterSurface interface {
	Select(role layout.Role) bool
	ClearSelection()
	Render() error
	Preview() image.Image
}

// ImageStore keeps uploaded image bytes behind opaque references.
type ImageStore interface {
	PutBlob(data []byte) string
	Bytes(ref string) ([]byte, error)
}

// ArtifactSource returns the newest finished export.
type ArtifactSource interface {
	Latest() (export.Artifact, bool)
}

// MetadataImporter reads album metadata from a directory of audio files.
type MetadataImporter interface {
	FromMP3Dir(dir string) (importer.Result, error)
}

type APIV1Deps struct {
	Store     *state.Store
	Surface   PosterSurface
	Images    ImageStore
	Artifacts ArtifactSource
	Importer  MetadataImporter
	Logger    sysLogger
}

func (d APIV1Deps) withDefaults() APIV1Deps {
	out := d
	if out.Store == nil {
		out.Store = state.NewStore()
	}
	if out.Surface == nil {
		out.Surface = NoopSurface{}
	}
	if out.Images == nil {
		out.Images = render.NewImageLoader()
	}
	if out.Artifacts == nil {
		out.Artifacts = NoopArtifacts{}
	}
	if out.Importer == nil {
		out.Importer = NoopImporter{Err: errors.New("import not configured")}
	}
	if out.Logger == nil {
		out.Logger = noopSysLogger{}
	}
	return out
}

var errNoSurface = errors.New("no canvas attached")

type NoopSurface struct{}

func (NoopSurface) Select(layout.Role) bool { return false }
func (NoopSurface) ClearSelection()         {}
func (NoopSurface) Render() error           { return errNoSurface }
func (NoopSurface) Preview() image.Image    { return nil }

type NoopArtifacts struct{}

func (NoopArtifacts) Latest() (export.Artifact, bool) { return export.Artifact{}, false }

type NoopImporter struct{ Err error }

func (i NoopImporter) FromMP3Dir(string) (importer.Result, error) {
	if i.Err != nil {
		return importer.Result{}, i.Err
	}
	return importer.Result{}, errors.New("import not configured")
}

type noopSysLogger struct{}

func (noopSysLogger) Infof(string, string, ...interface{})  {}
func (noopSysLogger) Errorf(string, string, ...interface{}) {}
