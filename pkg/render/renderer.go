package render

import (
	"image/color"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meibo/pkg/fonts"
	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/units"
)

// Mode selects how unfilled placeholders look.
type Mode int

const (
	// ModePrint draws the page as it will be printed.
	ModePrint Mode = iota
	// ModePreview is ModePrint plus a page border.
	ModePreview
	// ModeEditor shows field names instead of placeholder glyphs.
	ModeEditor
)

// String returns the mode name used on the command line.
func (m Mode) String() string {
	switch m {
	case ModePreview:
		return "preview"
	case ModeEditor:
		return "editor"
	default:
		return "print"
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, bool) {
	for _, m := range []Mode{ModePrint, ModePreview, ModeEditor} {
		if m.String() == s {
			return m, true
		}
	}
	return ModePrint, false
}

// PlaceholderText stands in for field values outside editor mode.
const PlaceholderText = "○○○"

// Vertical-writing thresholds.
const (
	verticalAspect   = 0.5
	verticalMaxUnits = 120
)

// rowHeightFactor is the table row height as a multiple of the font size
// when the table has no explicit row count.
const rowHeightFactor = 1.6

// Registry resolves roster references. fill.MapRegistry and
// registry.Registry satisfy it.
type Registry interface {
	Lookup(name string) (*layout.LayFile, bool)
}

// Options configure a Renderer.
type Options struct {
	DPI  int
	Mode Mode
	// Registry, when set, lets unexpanded roster placeholders show their
	// referenced layout in every slot.
	Registry Registry
	// Fonts is used by ToImage; nil means the system font directories.
	Fonts  *fonts.Resolver
	Logger *log.Logger
}

// Renderer draws one layout onto a backend.
type Renderer struct {
	lay    *layout.LayFile
	b      Backend
	opts   Options
	scale  float64 // pixels per model unit
	unitMM float64
	logger *log.Logger
}

// New returns a renderer for lay. Model units are converted to pixels at
// opts.DPI.
func New(lay *layout.LayFile, b Backend, opts Options) *Renderer {
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	u := lay.UnitMM()
	return &Renderer{
		lay:    lay,
		b:      b,
		opts:   opts,
		scale:  units.PixelsPerUnit(u, opts.DPI),
		unitMM: u,
		logger: logger,
	}
}

// Scale returns the number of pixels per model unit.
func (r *Renderer) Scale() float64 { return r.scale }

// Render draws the whole layout.
func (r *Renderer) Render() {
	if r.opts.Mode == ModePreview || r.opts.Mode == ModeEditor {
		r.b.Rect(r.box(layout.Rect{Right: r.lay.PageWidth, Bottom: r.lay.PageHeight}), ColorWhite, ColorPageBorder, 1)
	}
	r.pass(r.lay.Objects, true)
}

// pass draws objs in the fixed order. Roster placeholders are only
// expanded when expand is set, which keeps expansion one level deep.
func (r *Renderer) pass(objs []layout.Object, expand bool) {
	for _, o := range objs {
		if t, ok := o.(layout.Table); ok {
			r.table(t)
		}
	}
	for _, o := range objs {
		if m, ok := o.(layout.Meibo); ok {
			r.meibo(m, expand)
		}
	}
	for _, o := range objs {
		switch v := o.(type) {
		case layout.Label:
			r.label(v)
		case layout.Field:
			r.field(v)
		case layout.Image:
			r.image(v)
		}
	}
	for _, o := range objs {
		if g, ok := o.(layout.Group); ok {
			r.group(g)
		}
	}
	for _, o := range objs {
		if l, ok := o.(layout.Line); ok {
			r.line(l)
		}
	}
}

func (r *Renderer) box(rc layout.Rect) Box {
	return Box{
		X: float64(rc.Left) * r.scale,
		Y: float64(rc.Top) * r.scale,
		W: float64(rc.Width()) * r.scale,
		H: float64(rc.Height()) * r.scale,
	}
}

func (r *Renderer) stroke(units int) float64 {
	return max(1, float64(units)*r.scale)
}

// IsVertical reports whether a run is drawn top to bottom: no newline, more
// than one character, and a box narrower than half its height and than 120
// model units at scale pixels per unit.
func IsVertical(text string, w, h, scale float64) bool {
	return !strings.Contains(text, "\n") &&
		utf8.RuneCountInString(text) > 1 &&
		w < h*verticalAspect &&
		w < verticalMaxUnits*scale
}

// vertical applies an explicit writing mode before the heuristic.
func (r *Renderer) vertical(text string, bx Box, w layout.Writing) bool {
	switch w {
	case layout.WritingVertical:
		return true
	case layout.WritingHorizontal:
		return false
	}
	return IsVertical(text, bx.W, bx.H, r.scale)
}

func (r *Renderer) text(bx Box, text string, ts layout.TextStyle, c color.Color, wrap bool) {
	if text == "" {
		return
	}
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text)
	r.b.Text(bx, text, TextStyle{
		Font:     ts.Font,
		HAlign:   ts.HAlign,
		VAlign:   ts.VAlign,
		Color:    c,
		Vertical: r.vertical(text, bx, ts.Font.Writing),
		Wrap:     wrap,
	})
}

func (r *Renderer) label(l layout.Label) {
	bx := r.box(l.Rect)
	if l.Style == layout.LabelStyleBoxed {
		r.b.Rect(bx, ColorBoxedFill, ColorBoxedLine, 1)
	}
	r.text(bx, l.Prefix+l.Text+l.Suffix, l.TextStyle, ColorBlack, true)
}

func (r *Renderer) placeholder(id uint32) string {
	if r.opts.Mode == ModeEditor {
		return "{{" + layout.FieldName(id) + "}}"
	}
	return PlaceholderText
}

func (r *Renderer) field(f layout.Field) {
	bx := r.box(f.Rect)
	r.b.Rect(bx, ColorFieldFill, ColorFieldLine, 1)
	r.text(bx, f.Prefix+r.placeholder(f.FieldID)+f.Suffix, f.TextStyle, ColorFieldText, false)
}

func (r *Renderer) image(img layout.Image) {
	bx := r.box(img.Rect)
	if len(img.Image.Data) == 0 {
		if r.opts.Mode == ModeEditor {
			r.b.Rect(bx, nil, ColorFieldLine, 1)
		}
		return
	}
	r.b.Image(bx, img.Image.Data)
}

func (r *Renderer) group(g layout.Group) {
	w := 1
	if g.Style == layout.GroupStyleBold {
		w = 2
	}
	r.b.Rect(r.box(g.Rect), nil, ColorBlack, r.stroke(w))
}

func (r *Renderer) line(l layout.Line) {
	r.b.Line(
		float64(l.Start.X)*r.scale, float64(l.Start.Y)*r.scale,
		float64(l.End.X)*r.scale, float64(l.End.Y)*r.scale,
		ColorBlack, r.stroke(l.StrokeWidth()),
	)
}

func (r *Renderer) meibo(m layout.Meibo, expand bool) {
	if r.opts.Mode == ModeEditor {
		r.b.Rect(r.box(m.Rect), nil, ColorRosterFrame, 1)
	}
	if !expand || r.opts.Registry == nil {
		return
	}
	ref, ok := r.opts.Registry.Lookup(m.Roster.RefName)
	if !ok {
		r.logger.Debug("roster reference not found", "ref", m.Roster.RefName)
		return
	}
	var objs []layout.Object
	for i := 0; i < m.Roster.RowCount; i++ {
		dx, dy := m.Roster.SlotOffset(i)
		for _, o := range ref.Objects {
			if o.Kind() != layout.KindMeibo {
				objs = append(objs, o.Transform(1, dx, dy))
			}
		}
	}
	r.pass(objs, false)
}

// TableRows returns the number of data rows drawn for t: its explicit row
// count, or as many rows of 1.6 times the font size as fit below the header.
func TableRows(t layout.Table, unitMM float64) int {
	if t.RowCount > 0 {
		return t.RowCount
	}
	size := t.Font.SizePt
	if size <= 0 {
		size = layout.DefaultFontSize
	}
	rowH := max(1, units.PointsToUnits(size, unitMM)*rowHeightFactor)
	return max(1, int((float64(t.Rect.Height())-rowH)/rowH))
}

func (r *Renderer) table(t layout.Table) {
	bx := r.box(t.Rect)
	rows := TableRows(t, r.unitMM)
	rowH := bx.H / float64(rows+1)

	r.b.Rect(Box{bx.X, bx.Y, bx.W, rowH}, ColorHeaderBand, nil, 0)
	r.b.Rect(bx, nil, ColorBlack, 1)
	for i := 1; i <= rows; i++ {
		y := bx.Y + float64(i)*rowH
		r.b.Line(bx.X, y, bx.X+bx.W, y, ColorBlack, 1)
	}

	cols := r.columnBoxes(t, bx)
	for i, cb := range cols {
		if i > 0 {
			r.b.Line(cb.X, bx.Y, cb.X, bx.Y+bx.H, ColorBlack, 1)
		}
	}

	cell := layout.TextStyle{Font: t.Font, HAlign: layout.AlignCenter, VAlign: layout.AlignCenter}
	if len(t.Columns) == 0 && t.Caption != "" {
		r.text(Box{bx.X, bx.Y, bx.W, rowH}, t.Caption, cell, ColorBlack, false)
		return
	}
	for i, c := range t.Columns {
		cb := cols[i]
		r.text(Box{cb.X, bx.Y, cb.W, rowH}, c.Header, cell, ColorBlack, false)

		st := cell
		st.HAlign = c.HAlign
		body := Box{cb.X, bx.Y + rowH, cb.W, rowH}
		if t.Filled {
			r.text(body, c.Value, st, ColorBlack, true)
		} else {
			r.text(body, r.placeholder(c.FieldID), st, ColorFieldText, false)
		}
	}
}

// columnBoxes lays out columns left to right using their widths, or equal
// shares when no widths are set. The last column takes the remaining space.
func (r *Renderer) columnBoxes(t layout.Table, bx Box) []Box {
	n := len(t.Columns)
	if n == 0 {
		return nil
	}
	total := 0
	for _, c := range t.Columns {
		total += max(0, c.Width)
	}
	out := make([]Box, n)
	x := bx.X
	for i, c := range t.Columns {
		w := bx.W / float64(n)
		if total > 0 {
			w = min(float64(max(0, c.Width))*r.scale, bx.X+bx.W-x)
		}
		if i == n-1 {
			w = bx.X + bx.W - x
		}
		out[i] = Box{x, bx.Y, max(0, w), bx.H}
		x += w
	}
	return out
}
