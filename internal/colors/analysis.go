package colors

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const workingWidth = 100

// Analysis is derived from artwork and copied into a configuration on apply.
type Analysis struct {
	Background        string `json:"background"`
	Text              string `json:"text"`
	Top               string `json:"top"`
	Bottom            string `json:"bottom"`
	SuggestedGradient string `json:"suggestedGradient"`
}

// Fallback is returned whenever artwork cannot be analyzed.
var Fallback = Analysis{
	Background:        "#000000",
	Text:              "#ffffff",
	Top:               "#000000",
	Bottom:            "#000000",
	SuggestedGradient: "linear-gradient(to bottom, #000000, #333333)",
}

// Extract decodes r and analyzes it. It never fails: a decode error or a
// cancelled context yields Fallback.
func Extract(ctx context.Context, r io.Reader) Analysis {
	type decoded struct {
		img image.Image
		err error
	}
	done := make(chan decoded, 1)
	go func() {
		img, _, err := image.Decode(r)
		done <- decoded{img: img, err: err}
	}()
	select {
	case <-ctx.Done():
		return Fallback
	case d := <-done:
		if d.err != nil {
			return Fallback
		}
		return FromImage(d.img)
	}
}

// FromImage analyzes an already decoded image.
func FromImage(src image.Image) Analysis {
	if src == nil {
		return Fallback
	}
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Fallback
	}

	height := workingWidth * bounds.Dy() / bounds.Dx()
	if height < 1 {
		height = 1
	}
	small := image.NewRGBA(image.Rect(0, 0, workingWidth, height))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), src, bounds, xdraw.Src, nil)

	topEnd := int(float64(height) * 0.2)
	bottomStart := int(float64(height) * 0.8)

	top := regionMean(small, 0, topEnd)
	bottom := regionMean(small, bottomStart, height)
	whole := regionMean(small, 0, height)

	text := "#ffffff"
	if whole.yiq() >= 128 {
		text = "#000000"
	}
	return Analysis{
		Background:        whole.hex(),
		Text:              text,
		Top:               top.hex(),
		Bottom:            bottom.hex(),
		SuggestedGradient: "linear-gradient(to bottom, " + top.hex() + ", " + bottom.hex() + ")",
	}
}

type mean struct{ r, g, b int }

func (m mean) hex() string { return FormatHex(uint8(m.r), uint8(m.g), uint8(m.b)) }

func (m mean) yiq() int { return YIQ(m.r, m.g, m.b) }

// YIQ is the perceived brightness used to pick black or white text.
func YIQ(r, g, b int) int {
	return (r*299 + g*587 + b*114) / 1000
}

// TextFor returns the readable text color over a background of r, g, b.
// Exactly 128 selects black.
func TextFor(r, g, b int) string {
	if YIQ(r, g, b) >= 128 {
		return "#000000"
	}
	return "#ffffff"
}

func regionMean(img *image.RGBA, fromRow, toRow int) mean {
	var sumR, sumG, sumB, count int
	width := img.Bounds().Dx()
	for y := fromRow; y < toRow; y++ {
		for x := 0; x < width; x++ {
			p := img.RGBAAt(x, y)
			sumR += int(p.R)
			sumG += int(p.G)
			sumB += int(p.B)
			count++
		}
	}
	if count == 0 {
		return mean{}
	}
	return mean{r: sumR / count, g: sumG / count, b: sumB / count}
}
