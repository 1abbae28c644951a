package render

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/meibo/pkg/layout"
)

type op struct {
	Kind    string
	Box     Box
	Fill    color.Color
	Outline color.Color
	Text    string
	Style   TextStyle
}

type recorder struct {
	ops []op
}

func (r *recorder) Rect(b Box, fill, outline color.Color, _ float64) {
	r.ops = append(r.ops, op{Kind: "rect", Box: b, Fill: fill, Outline: outline})
}

func (r *recorder) Line(x1, y1, x2, y2 float64, c color.Color, _ float64) {
	r.ops = append(r.ops, op{Kind: "line", Box: Box{x1, y1, x2 - x1, y2 - y1}, Outline: c})
}

func (r *recorder) Text(b Box, text string, st TextStyle) {
	r.ops = append(r.ops, op{Kind: "text", Box: b, Text: text, Style: st})
}

func (r *recorder) Image(b Box, _ []byte) {
	r.ops = append(r.ops, op{Kind: "image", Box: b})
}

func (r *recorder) texts() []string {
	var out []string
	for _, o := range r.ops {
		if o.Kind == "text" {
			out = append(out, o.Text)
		}
	}
	return out
}

func record(lay *layout.LayFile, opts Options) *recorder {
	rec := &recorder{}
	New(lay, rec, opts).Render()
	return rec
}

func TestIsVertical(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		w, h, scal float64
		want       bool
	}{
		{"narrow tall box", "abcdef", 10, 100, 1, true},
		{"single rune", "a", 10, 100, 1, false},
		{"newline", "ab\ncd", 10, 100, 1, false},
		{"wide box", "abcdef", 60, 100, 1, false},
		{"wider than cap", "abcdef", 130, 1000, 1, false},
		{"cap scales", "abcdef", 130, 1000, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsVertical(tt.text, tt.w, tt.h, tt.scal); got != tt.want {
				t.Errorf("IsVertical(%q, %v, %v, %v) = %v, want %v", tt.text, tt.w, tt.h, tt.scal, got, tt.want)
			}
		})
	}
}

func TestWritingOverride(t *testing.T) {
	narrow := layout.Rect{Right: 20, Bottom: 200}
	wide := layout.Rect{Right: 200, Bottom: 40}
	tests := []struct {
		name    string
		rect    layout.Rect
		writing layout.Writing
		want    bool
	}{
		{"auto narrow", narrow, layout.WritingAuto, true},
		{"auto wide", wide, layout.WritingAuto, false},
		{"horizontal narrow", narrow, layout.WritingHorizontal, false},
		{"vertical wide", wide, layout.WritingVertical, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := layout.NewLabel(tt.rect, "氏名欄", 10)
			label.Font.Writing = tt.writing
			lay := layout.New("w")
			lay.Objects = []layout.Object{label}
			rec := record(lay, Options{DPI: 254})
			var got []bool
			for _, o := range rec.ops {
				if o.Kind == "text" {
					got = append(got, o.Style.Vertical)
				}
			}
			if diff := cmp.Diff([]bool{tt.want}, got); diff != "" {
				t.Errorf("vertical mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBoxedLabel(t *testing.T) {
	r := layout.Rect{Left: 10, Top: 10, Right: 110, Bottom: 60}
	boxed := layout.NewLabel(r, "見出し", 10)
	boxed.Style = layout.LabelStyleBoxed
	plain := layout.NewLabel(r, "見出し", 10)

	lay := layout.New("d")
	lay.Objects = []layout.Object{boxed}
	rec := record(lay, Options{DPI: 254})
	var found bool
	for _, o := range rec.ops {
		if o.Kind == "rect" && o.Fill == ColorBoxedFill && o.Outline == ColorBoxedLine {
			found = true
		}
	}
	if !found {
		t.Errorf("boxed label drew no tinted rectangle: %+v", rec.ops)
	}

	lay.Objects = []layout.Object{plain}
	rec = record(lay, Options{DPI: 254})
	for _, o := range rec.ops {
		if o.Kind == "rect" {
			t.Errorf("plain label drew a rectangle: %+v", o)
		}
	}
	if diff := cmp.Diff([]string{"見出し"}, rec.texts()); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldModes(t *testing.T) {
	f := layout.NewField(layout.Rect{Left: 0, Top: 0, Right: 400, Bottom: 100}, 108, 10)
	f.Prefix, f.Suffix = "[", "]"
	lay := layout.New("f")
	lay.Objects = []layout.Object{f}

	tests := []struct {
		mode Mode
		want string
	}{
		{ModeEditor, "[{{氏名}}]"},
		{ModePreview, "[○○○]"},
		{ModePrint, "[○○○]"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			rec := record(lay, Options{Mode: tt.mode})
			if diff := cmp.Diff([]string{tt.want}, rec.texts()); diff != "" {
				t.Errorf("texts mismatch (-want +got):\n%s", diff)
			}
			for _, o := range rec.ops {
				if o.Kind == "text" && o.Style.Color != ColorFieldText {
					t.Errorf("field text color = %v", o.Style.Color)
				}
			}
		})
	}
}

func TestDrawOrder(t *testing.T) {
	lay := layout.New("order")
	lay.Objects = []layout.Object{
		layout.NewLine(0, 0, 100, 0),
		layout.Group{Rect: layout.Rect{Right: 200, Bottom: 200}, Style: layout.GroupStyleBold},
		layout.NewLabel(layout.Rect{Right: 100, Bottom: 50}, "ラベル", 10),
		layout.Table{Rect: layout.Rect{Top: 300, Right: 500, Bottom: 600}, Caption: "表", RowCount: 2},
	}
	rec := record(lay, Options{Mode: ModePrint})

	var kinds []string
	for _, o := range rec.ops {
		kinds = append(kinds, o.Kind)
	}
	// table: band, frame, 2 row rulings, caption; label; group; line
	want := []string{"rect", "rect", "line", "line", "text", "text", "rect", "line"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("draw order mismatch (-want +got):\n%s", diff)
	}
	if got := rec.ops[len(rec.ops)-2].Outline; got != ColorBlack {
		t.Errorf("group outline = %v", got)
	}
}

func TestPageBorder(t *testing.T) {
	lay := layout.New("p")
	for _, tt := range []struct {
		mode Mode
		want int
	}{{ModePrint, 0}, {ModePreview, 1}, {ModeEditor, 1}} {
		rec := record(lay, Options{Mode: tt.mode})
		if len(rec.ops) != tt.want {
			t.Errorf("%s: %d ops, want %d", tt.mode, len(rec.ops), tt.want)
		}
	}
}

func TestTable(t *testing.T) {
	tbl := layout.Table{
		Rect: layout.Rect{Right: 400, Bottom: 300},
		Columns: []layout.TableColumn{
			{FieldID: 108, Width: 100, Header: "氏名", Value: "山田"},
			{FieldID: 106, Width: 300, Header: "番号", Value: "3"},
		},
		RowCount: 2,
		Font:     layout.DefaultFont(),
	}
	lay := layout.New("t")

	tbl.Filled = true
	lay.Objects = []layout.Object{tbl}
	rec := record(lay, Options{DPI: 254})
	if diff := cmp.Diff([]string{"氏名", "山田", "番号", "3"}, rec.texts()); diff != "" {
		t.Errorf("filled texts mismatch (-want +got):\n%s", diff)
	}

	tbl.Filled = false
	lay.Objects = []layout.Object{tbl}
	rec = record(lay, Options{DPI: 254, Mode: ModeEditor})
	if diff := cmp.Diff([]string{"氏名", "{{氏名}}", "番号", "{{出席番号}}"}, rec.texts()); diff != "" {
		t.Errorf("editor texts mismatch (-want +got):\n%s", diff)
	}
}

func TestTableRows(t *testing.T) {
	tbl := layout.Table{Rect: layout.Rect{Bottom: 1000}, Font: layout.FontInfo{SizePt: 10}}
	// 10pt at 0.1mm units is ~35.3 units, rows ~56.4 units.
	if got := TableRows(tbl, 0.1); got != 16 {
		t.Errorf("TableRows = %d, want 16", got)
	}
	tbl.RowCount = 4
	if got := TableRows(tbl, 0.1); got != 4 {
		t.Errorf("TableRows = %d, want 4", got)
	}
	tbl = layout.Table{Rect: layout.Rect{Bottom: 10}}
	if got := TableRows(tbl, 0.1); got != 1 {
		t.Errorf("TableRows tiny = %d, want 1", got)
	}
}

type mapRegistry map[string]*layout.LayFile

func (m mapRegistry) Lookup(name string) (*layout.LayFile, bool) {
	l, ok := m[name]
	return l, ok
}

func TestMeiboExpansion(t *testing.T) {
	cell := layout.New("cell")
	cell.Objects = []layout.Object{
		layout.NewField(layout.Rect{Right: 100, Bottom: 20}, 108, 10),
		layout.Meibo{Roster: layout.Roster{RefName: "cell", RowCount: 5}},
	}
	lay := layout.New("roster")
	lay.Objects = []layout.Object{layout.Meibo{
		Rect:   layout.Rect{Right: 100, Bottom: 60},
		Roster: layout.Roster{RefName: "cell", RowCount: 3, CellWidth: 100, CellHeight: 20},
	}}

	rec := record(lay, Options{Registry: mapRegistry{"cell": cell}})
	if got := len(rec.texts()); got != 3 {
		t.Fatalf("expanded %d slots, want 3", got)
	}
	var ys []float64
	for _, o := range rec.ops {
		if o.Kind == "text" {
			ys = append(ys, o.Box.Y)
		}
	}
	if !(ys[0] < ys[1] && ys[1] < ys[2]) {
		t.Errorf("slots not stacked vertically: %v", ys)
	}

	rec = record(lay, Options{})
	if len(rec.ops) != 0 {
		t.Errorf("print mode without registry drew %d ops", len(rec.ops))
	}
	rec = record(lay, Options{Mode: ModeEditor, Registry: mapRegistry{}})
	if len(rec.ops) != 2 {
		t.Errorf("editor mode with missing ref drew %d ops, want page border and frame", len(rec.ops))
	}
}

type runeFitter struct{ lineH float64 }

func (f runeFitter) Width(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size
}

func (f runeFitter) LineHeight(size float64) float64 { return size * f.lineH }

func TestPlanText(t *testing.T) {
	f := runeFitter{lineH: 1}
	tests := []struct {
		name  string
		text  string
		box   Box
		wrap  bool
		size  float64
		lines int
		clip  bool
	}{
		{"fits", "abc", Box{W: 40, H: 10}, false, 10, 1, false},
		{"shrinks", "abcd", Box{W: 36, H: 10}, false, 9, 1, false},
		{"wraps at original size", "abcdefghijklmnopqrst", Box{W: 50, H: 50}, true, 10, 4, false},
		{"clips when too short", "abcdefghijklmnopqrst", Box{W: 50, H: 10}, true, 4, 1, true},
		{"no wrap clips", "abcdefghijklmnopqrst", Box{W: 50, H: 50}, false, 4, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := planText(f, tt.text, 10, tt.box, tt.wrap)
			if len(p.Lines) != tt.lines || p.Clip != tt.clip {
				t.Errorf("plan = %+v, want %d lines clip=%v", p, tt.lines, tt.clip)
			}
			if diff := p.SizePt - tt.size; diff > 0.01 || diff < -0.01 {
				t.Errorf("size = %v, want %v", p.SizePt, tt.size)
			}
		})
	}
}

func TestWrapRunes(t *testing.T) {
	measure := func(s string) float64 { return float64(utf8.RuneCountInString(s)) * 10 }
	tests := []struct {
		text string
		maxW float64
		want []string
	}{
		{"あいうえお", 30, []string{"あいう", "えお"}},
		{"あい\nうえお", 100, []string{"あい", "うえお"}},
		{"あいう", 5, []string{"あ", "い", "う"}},
		{"", 10, []string{""}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, WrapRunes(measure, tt.text, tt.maxW)); diff != "" {
			t.Errorf("WrapRunes(%q) mismatch (-want +got):\n%s", tt.text, diff)
		}
	}
}

func TestVerticalGlyphSize(t *testing.T) {
	// 6 glyphs in 120px at 72 dpi: 20px rows, 18pt after the margin.
	if got := verticalGlyphSize(24, 120, 6, 72); got != 18 {
		t.Errorf("verticalGlyphSize = %v, want 18", got)
	}
	if got := verticalGlyphSize(10, 120, 6, 72); got != 10 {
		t.Errorf("verticalGlyphSize = %v, want 10", got)
	}
}

func TestToImage(t *testing.T) {
	lay := layout.New("raster")
	lay.Objects = []layout.Object{
		layout.NewField(layout.Rect{Left: 50, Top: 50, Right: 400, Bottom: 200}, 108, 10),
		layout.NewLine(0, 1000, 840, 1000),
	}
	img, err := ToImage(lay, Options{DPI: 72})
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	if got, want := img.Bounds().Size(), (image.Point{595, 841}); got != want {
		t.Errorf("size = %v, want %v", got, want)
	}
	// Lower right of the field, clear of the top-left placeholder text.
	if got := img.RGBAAt(270, 130); got != ColorFieldFill {
		t.Errorf("field interior = %v, want %v", got, ColorFieldFill)
	}
	if got := img.RGBAAt(500, 500); got != ColorWhite {
		t.Errorf("background = %v, want white", got)
	}

	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	cfg, format, err := image.DecodeConfig(&buf)
	if err != nil || format != "png" || cfg.Width != 595 {
		t.Errorf("DecodeConfig = %+v %q %v", cfg, format, err)
	}
}

func TestToImageRejectsDPI(t *testing.T) {
	if _, err := ToImage(layout.New("x"), Options{DPI: 5000}); err == nil {
		t.Error("expected an error for dpi 5000")
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRasterImage(t *testing.T) {
	red := color.RGBA{0xFF, 0, 0, 0xFF}
	tests := []struct {
		name  string
		src   image.Image
		under color.Color // painted into the box first
		at    image.Point
		want  color.RGBA
	}{
		{"stretched to the box", imaging.New(40, 20, red), nil, image.Pt(50, 12), red},
		{"outside the box", imaging.New(40, 20, red), nil, image.Pt(5, 5), ColorWhite},
		{"transparent over tint", image.NewNRGBA(image.Rect(0, 0, 8, 8)), ColorBoxedFill, image.Pt(50, 50), ColorWhite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewRasterBackend(100, 100, 72, nil, nil)
			box := Box{X: 10, Y: 10, W: 80, H: 80}
			if tt.under != nil {
				b.Rect(box, tt.under, nil, 0)
			}
			b.Image(box, encodePNG(t, tt.src))
			if got := b.Canvas().RGBAAt(tt.at.X, tt.at.Y); got != tt.want {
				t.Errorf("pixel %v = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestRasterImageUndecodable(t *testing.T) {
	b := NewRasterBackend(100, 100, 72, nil, nil)
	b.Image(Box{W: 10, H: 10}, []byte("not an image"))
	if got := b.Canvas().RGBAAt(5, 5); got != ColorWhite {
		t.Errorf("bad image painted interior: %v", got)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModePrint, ModePreview, ModeEditor} {
		got, ok := ParseMode(m.String())
		if !ok || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseMode(strings.ToUpper("print")); ok {
		t.Error("ParseMode accepted upper case")
	}
}
