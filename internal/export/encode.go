package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"strings"
	"unicode"

	"codeberg.org/go-pdf/fpdf"
	"github.com/rook-computer/postermaker/internal/poster"
)

var ErrEmptyRaster = errors.New("empty raster")

// MIMEType returns the content type of an encoded artifact.
func MIMEType(format poster.Format) string {
	switch format {
	case poster.JPG:
		return "image/jpeg"
	case poster.PDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Filename is poster-<album slug>.<ext>, with "untitled" for an empty album.
func Filename(album string, format poster.Format) string {
	return "poster-" + Slug(album) + "." + format.Extension()
}

// Slug lowercases s and turns whitespace runs into single hyphens. Path
// separators become hyphens too, so the result is always a plain file name.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case r == '/' || r == '\\' || r == 0:
			r = '-'
		}
		if space {
			b.WriteByte('-')
			space = false
		}
		b.WriteRune(r)
	}
	if out := strings.Trim(b.String(), "."); out != "" {
		return out
	}
	return "untitled"
}

// JPEGQuality maps a 0..1 quality factor onto 1..100.
func JPEGQuality(q float64) int {
	quality := int(math.Round(q * 100))
	return max(1, min(quality, 100))
}

// Encode turns the raster into the bytes of the requested format.
func Encode(img *image.RGBA, settings poster.ExportState) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyRaster
	}
	var buf bytes.Buffer
	switch settings.Format {
	case poster.JPG:
		flat := image.NewRGBA(img.Bounds())
		draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: JPEGQuality(settings.Quality)}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case poster.PDF:
		if err := encodePDF(&buf, img); err != nil {
			return nil, err
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func encodePDF(buf *bytes.Buffer, img *image.RGBA) error {
	var raster bytes.Buffer
	if err := png.Encode(&raster, img); err != nil {
		return fmt.Errorf("encode pdf page: %w", err)
	}
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	orientation := "P"
	if w > h {
		orientation = "L"
	}
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: math.Min(w, h), Ht: math.Max(w, h)},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("poster", opts, &raster)
	doc.ImageOptions("poster", 0, 0, w, h, false, opts, 0, "")
	if err := doc.Output(buf); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
