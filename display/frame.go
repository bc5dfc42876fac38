package display

import (
	"bytes"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Rotation is the panel mounting angle in degrees, clockwise.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Valid reports whether r is one of the four supported angles.
func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// UnmarshalFlag parses "0", "90", "180" or "270".
func (r *Rotation) UnmarshalFlag(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.Wrapf(err, "invalid rotation %q", s)
	}
	if !Rotation(v).Valid() {
		return errors.Errorf("invalid rotation %d: must be 0, 90, 180 or 270", v)
	}
	*r = Rotation(v)
	return nil
}

var (
	pixelOn  = color.Gray{Y: 0xff}
	textFace = basicfont.Face7x13
)

// Frame is one image for a monochrome panel. Drawing happens in logical
// coordinates, which are the panel's physical coordinates turned by the
// frame's rotation; a 128x32 panel mounted at 90 degrees is drawn as a
// 32 pixel wide, 128 pixel tall canvas.
type Frame struct {
	width    int // physical
	height   int // physical
	rotation Rotation
	canvas   *image.Gray
}

// NewFrame creates a blank frame for a width x height panel.
func NewFrame(width, height int, rotation Rotation) *Frame {
	if !rotation.Valid() {
		rotation = Rotate0
	}
	lw, lh := width, height
	if rotation == Rotate90 || rotation == Rotate270 {
		lw, lh = height, width
	}
	return &Frame{
		width:    width,
		height:   height,
		rotation: rotation,
		canvas:   image.NewGray(image.Rect(0, 0, lw, lh)),
	}
}

// Size returns the logical canvas size.
func (f *Frame) Size() (int, int) {
	b := f.canvas.Bounds()
	return b.Dx(), b.Dy()
}

// PanelSize returns the physical panel size.
func (f *Frame) PanelSize() (int, int) {
	return f.width, f.height
}

// Rotation returns the mounting angle the frame was created with.
func (f *Frame) Rotation() Rotation {
	return f.rotation
}

// Clear turns every pixel off.
func (f *Frame) Clear() {
	clear(f.canvas.Pix)
}

// Set turns the logical pixel at (x, y) on or off. Pixels outside the
// canvas are ignored.
func (f *Frame) Set(x, y int, on bool) {
	if !(image.Point{X: x, Y: y}).In(f.canvas.Bounds()) {
		return
	}
	var c color.Gray
	if on {
		c = pixelOn
	}
	f.canvas.SetGray(x, y, c)
}

// Pixel reports whether the logical pixel at (x, y) is on.
func (f *Frame) Pixel(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(f.canvas.Bounds()) {
		return false
	}
	return f.canvas.GrayAt(x, y).Y >= 0x80
}

// DrawText draws s with its top left corner at (x, y). Newlines start a
// new line below the previous one. Text is clipped at the canvas edge.
func (f *Frame) DrawText(x, y int, s string) {
	m := textFace.Metrics()
	d := font.Drawer{
		Dst:  f.canvas,
		Src:  image.NewUniform(pixelOn),
		Face: textFace,
	}
	for i, line := range strings.Split(s, "\n") {
		d.Dot = fixed.P(x, y+m.Ascent.Ceil()+i*m.Height.Ceil())
		d.DrawString(line)
	}
}

// Equal reports whether f and o would show the same image.
func (f *Frame) Equal(o *Frame) bool {
	if o == nil {
		return false
	}
	return f.width == o.width && f.height == o.height && f.rotation == o.rotation &&
		bytes.Equal(f.canvas.Pix, o.canvas.Pix)
}

// Clone returns an independent copy of f.
func (f *Frame) Clone() *Frame {
	c := *f
	c.canvas = image.NewGray(f.canvas.Rect)
	copy(c.canvas.Pix, f.canvas.Pix)
	return &c
}

// physical reports whether the physical pixel at (px, py) is on.
func (f *Frame) physical(px, py int) bool {
	switch f.rotation {
	case Rotate90:
		return f.Pixel(py, f.width-1-px)
	case Rotate180:
		return f.Pixel(f.width-1-px, f.height-1-py)
	case Rotate270:
		return f.Pixel(f.height-1-py, px)
	}
	return f.Pixel(px, py)
}

// Bytes packs the physical image in SSD1306 page order: each byte is a
// vertical strip of 8 pixels, least significant bit on top, pages of
// width bytes from top to bottom.
func (f *Frame) Bytes() []byte {
	pages := (f.height + 7) / 8
	buf := make([]byte, pages*f.width)
	for page := 0; page < pages; page++ {
		for x := 0; x < f.width; x++ {
			var b byte
			for bit := 0; bit < 8; bit++ {
				if y := page*8 + bit; y < f.height && f.physical(x, y) {
					b |= 1 << bit
				}
			}
			buf[page*f.width+x] = b
		}
	}
	return buf
}

// String draws the logical canvas as text, '#' for lit pixels.
func (f *Frame) String() string {
	w, h := f.Size()
	var b strings.Builder
	b.Grow((w + 1) * h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if f.Pixel(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
