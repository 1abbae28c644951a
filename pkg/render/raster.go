package render

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"math"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/fonts"
	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/units"
)

// DefaultDPI is the raster resolution used when none is given.
const DefaultDPI = 150

// Image limits. Targets are clamped per side; sources whose pixel count
// exceeds maxSourcePixels are not decoded.
const (
	maxImageSide    = 4096
	maxSourcePixels = 64 << 20
)

var defaultFonts = sync.OnceValue(fonts.NewResolver)

type faceKey struct {
	name   string
	style  fonts.Style
	sizePx float64
}

// RasterBackend draws onto an RGBA image with gg. A backend is not safe for
// concurrent use.
type RasterBackend struct {
	dc     *gg.Context
	dpi    int
	fonts  *fonts.Resolver
	faces  map[faceKey]font.Face
	logger *log.Logger
}

// NewRasterBackend returns a white w×h canvas. A nil resolver uses a shared
// one built from the system font directories.
func NewRasterBackend(w, h, dpi int, res *fonts.Resolver, logger *log.Logger) *RasterBackend {
	if res == nil {
		res = defaultFonts()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	img := image.NewRGBA(image.Rect(0, 0, max(1, w), max(1, h)))
	dc := gg.NewContextForRGBA(img)
	dc.SetColor(ColorWhite)
	dc.Clear()
	return &RasterBackend{
		dc:     dc,
		dpi:    dpi,
		fonts:  res,
		faces:  make(map[faceKey]font.Face),
		logger: logger,
	}
}

// Canvas returns the image drawn so far.
func (b *RasterBackend) Canvas() *image.RGBA {
	return b.dc.Image().(*image.RGBA)
}

// Rect implements Backend.
func (b *RasterBackend) Rect(bx Box, fill, outline color.Color, width float64) {
	if fill != nil {
		b.dc.DrawRectangle(bx.X, bx.Y, bx.W, bx.H)
		b.dc.SetColor(fill)
		b.dc.Fill()
	}
	if outline != nil && width > 0 {
		b.dc.DrawRectangle(bx.X, bx.Y, bx.W, bx.H)
		b.dc.SetColor(outline)
		b.dc.SetLineWidth(width)
		b.dc.Stroke()
	}
}

// Line implements Backend.
func (b *RasterBackend) Line(x1, y1, x2, y2 float64, c color.Color, width float64) {
	b.dc.DrawLine(x1, y1, x2, y2)
	b.dc.SetColor(c)
	b.dc.SetLineWidth(width)
	b.dc.Stroke()
}

func (b *RasterBackend) face(fi layout.FontInfo, sizePt float64) font.Face {
	k := faceKey{
		name:   fi.Name,
		style:  fonts.Style{Bold: fi.Bold, Italic: fi.Italic},
		sizePx: math.Round(units.PointsToPixels(sizePt, b.dpi)*4) / 4,
	}
	if f, ok := b.faces[k]; ok {
		return f
	}
	f := b.fonts.Face(k.name, k.style, k.sizePx)
	b.faces[k] = f
	return f
}

// LineHeight returns the baseline distance for sizePt in pixels.
func (b *RasterBackend) LineHeight(sizePt float64) float64 {
	return units.PointsToPixels(sizePt, b.dpi) * 1.2
}

// fontFitter measures with a specific font.
type fontFitter struct {
	b  *RasterBackend
	fi layout.FontInfo
}

func (f fontFitter) Width(s string, sizePt float64) float64 {
	return float64(font.MeasureString(f.b.face(f.fi, sizePt), s)) / 64
}

func (f fontFitter) LineHeight(sizePt float64) float64 { return f.b.LineHeight(sizePt) }

// Text implements Backend.
func (b *RasterBackend) Text(bx Box, text string, st TextStyle) {
	size := st.Font.SizePt
	if size <= 0 {
		size = layout.DefaultFontSize
	}
	c := st.Color
	if c == nil {
		c = ColorBlack
	}
	b.dc.Push()
	defer b.dc.Pop()
	b.dc.DrawRectangle(bx.X, bx.Y, bx.W, bx.H)
	b.dc.Clip()
	b.dc.SetColor(c)

	if st.Vertical {
		b.vertical(bx, text, st.Font, size)
		return
	}

	plan := planText(fontFitter{b, st.Font}, text, size, bx, st.Wrap)
	b.dc.SetFontFace(b.face(st.Font, plan.SizePt))
	lineH := b.LineHeight(plan.SizePt)
	blockH := float64(len(plan.Lines)) * lineH

	y := bx.Y
	switch st.VAlign {
	case layout.AlignCenter:
		y += (bx.H - blockH) / 2
	case layout.AlignEnd:
		y += bx.H - blockH
	}
	x, ax := bx.X, 0.0
	switch st.HAlign {
	case layout.AlignCenter:
		x, ax = bx.X+bx.W/2, 0.5
	case layout.AlignEnd:
		x, ax = bx.X+bx.W, 1
	}

	for i, line := range plan.Lines {
		cy := y + float64(i)*lineH + lineH/2
		b.dc.DrawStringAnchored(line, x, cy, ax, 0.35)
		if st.Font.Underline || st.Font.Strikethrough {
			w, _ := b.dc.MeasureString(line)
			x0 := x - ax*w
			b.dc.SetLineWidth(max(1, lineH/20))
			if st.Font.Underline {
				b.dc.DrawLine(x0, cy+lineH*0.4, x0+w, cy+lineH*0.4)
				b.dc.Stroke()
			}
			if st.Font.Strikethrough {
				b.dc.DrawLine(x0, cy, x0+w, cy)
				b.dc.Stroke()
			}
		}
	}
}

// vertical draws one glyph per row, centered in the box's column.
func (b *RasterBackend) vertical(bx Box, text string, fi layout.FontInfo, size float64) {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return
	}
	b.dc.SetFontFace(b.face(fi, verticalGlyphSize(size, bx.H, n, b.dpi)))
	charH := bx.H / float64(n)
	i := 0
	for _, r := range text {
		b.dc.DrawStringAnchored(string(r), bx.X+bx.W/2, bx.Y+float64(i)*charH+charH/2, 0.5, 0.35)
		i++
	}
}

// Image implements Backend. The picture is resized to the box and
// composited over white. Undecodable data leaves an outline.
func (b *RasterBackend) Image(bx Box, data []byte) {
	x, y := int(math.Round(bx.X)), int(math.Round(bx.Y))
	w, h := int(math.Round(bx.W)), int(math.Round(bx.H))
	img, err := decodeImage(data, w, h)
	if err != nil {
		b.logger.Warn("image not drawn", "err", err)
		b.Rect(bx, nil, ColorFieldLine, 1)
		return
	}
	ib := img.Bounds()
	b.Rect(Box{X: float64(x), Y: float64(y), W: float64(ib.Dx()), H: float64(ib.Dy())}, ColorWhite, nil, 0)
	b.dc.DrawImage(img, x, y)
}

func decodeImage(data []byte, w, h int) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "decode image header")
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return nil, errors.New(errors.ErrCodeResource, "image too large: %dx%d", cfg.Width, cfg.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "decode image")
	}
	w = min(max(1, w), maxImageSide)
	h = min(max(1, h), maxImageSide)
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

// ToImage rasterizes lay at opts.DPI.
func ToImage(lay *layout.LayFile, opts Options) (*image.RGBA, error) {
	if opts.DPI == 0 {
		opts.DPI = DefaultDPI
	}
	if err := errors.ValidateDPI(opts.DPI); err != nil {
		return nil, err
	}
	w, h := units.PageSizePx(lay.PageWidth, lay.PageHeight, lay.UnitMM(), opts.DPI)
	b := NewRasterBackend(w, h, opts.DPI, opts.Fonts, opts.Logger)
	New(lay, b, opts).Render()
	return b.Canvas(), nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return nil
}
