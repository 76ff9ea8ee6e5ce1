// Package render produces the captcha image for a challenge prompt.
//
// The lifecycle manager treats the renderer as an external collaborator: a
// pure prompt -> bytes function. It is an interface so tests can substitute
// a deterministic implementation.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Renderer turns a human-readable challenge prompt into encoded image bytes.
type Renderer interface {
	Render(prompt string) ([]byte, error)
}

const (
	defaultWidth  = 240
	defaultHeight = 80
	textScale     = 3
	noiseLines    = 4
	noiseDots     = 120
)

// ImageRenderer draws the prompt as a noisy PNG.
type ImageRenderer struct {
	width  int
	height int
}

func NewImageRenderer() *ImageRenderer {
	return &ImageRenderer{
		width:  defaultWidth,
		height: defaultHeight,
	}
}

// Render draws prompt centered on a white background, scales it up and
// overlays line and dot noise, then encodes the result as PNG.
func (r *ImageRenderer) Render(prompt string) ([]byte, error) {
	if prompt == "" {
		return nil, fmt.Errorf("render: empty prompt")
	}

	face := basicfont.Face7x13
	small := image.NewRGBA(image.Rect(0, 0, r.width/textScale, r.height/textScale))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.RGBA{30, 30, 90, 255}),
		Face: face,
	}
	textWidth := d.MeasureString(prompt)
	d.Dot = fixed.Point26_6{
		X: (fixed.I(small.Bounds().Dx()) - textWidth) / 2,
		Y: fixed.I((small.Bounds().Dy() + face.Ascent) / 2),
	}
	d.DrawString(prompt)

	img := scaleUp(small, textScale)
	addNoise(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func scaleUp(src *image.RGBA, factor int) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	for y := 0; y < dst.Bounds().Dy(); y++ {
		for x := 0; x < dst.Bounds().Dx(); x++ {
			dst.Set(x, y, src.At(x/factor, y/factor))
		}
	}
	return dst
}

// addNoise overlays random lines and dots. math/rand is fine here: the
// noise is cosmetic, the secret is the answer, not the distortion.
func addNoise(img *image.RGBA) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	for i := 0; i < noiseLines; i++ {
		c := randomColor()
		x0, y0 := rand.Intn(w), rand.Intn(h)
		x1, y1 := rand.Intn(w), rand.Intn(h)
		drawLine(img, x0, y0, x1, y1, c)
	}

	for i := 0; i < noiseDots; i++ {
		img.Set(rand.Intn(w), rand.Intn(h), randomColor())
	}
}

func randomColor() color.RGBA {
	return color.RGBA{
		R: uint8(rand.Intn(200)),
		G: uint8(rand.Intn(200)),
		B: uint8(rand.Intn(200)),
		A: 255,
	}
}

// drawLine plots a line with the Bresenham algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
