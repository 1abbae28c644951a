package io

import (
	"encoding/json"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/layout"
)

// Format tags.
const (
	FormatV1 = "meibo_layout_v1"
	FormatV2 = "meibo_layout_v2"
)

type document struct {
	Format     string   `json:"format"`
	Title      string   `json:"title"`
	Version    int      `json:"version"`
	PageWidth  int      `json:"page_width"`
	PageHeight int      `json:"page_height"`
	Objects    []object `json:"objects"`
	Paper      *paper   `json:"paper,omitempty"`
}

type object struct {
	Type      string  `json:"type"`
	Rect      *[4]int `json:"rect,omitempty"`
	LineStart *[2]int `json:"line_start,omitempty"`
	LineEnd   *[2]int `json:"line_end,omitempty"`
	Text      string  `json:"text,omitempty"`
	FieldID   uint32  `json:"field_id,omitempty"`
	Style     int     `json:"style,omitempty"`
	Width     int     `json:"width,omitempty"`
	Font      *font   `json:"font,omitempty"`
	HAlign    int     `json:"h_align,omitempty"`
	VAlign    int     `json:"v_align,omitempty"`
	Prefix    string  `json:"prefix,omitempty"`
	Suffix    string  `json:"suffix,omitempty"`

	TableColumns []column `json:"table_columns,omitempty"`
	RowCount     int      `json:"row_count,omitempty"`
	Filled       bool     `json:"filled,omitempty"`

	Meibo *meibo `json:"meibo,omitempty"`
	Image *image `json:"image,omitempty"`
}

type font struct {
	Name          string  `json:"name"`
	SizePt        float64 `json:"size_pt"`
	Bold          bool    `json:"bold,omitempty"`
	Italic        bool    `json:"italic,omitempty"`
	Writing       string  `json:"writing,omitempty"`
	Underline     bool    `json:"underline,omitempty"`
	Strikethrough bool    `json:"strikethrough,omitempty"`
}

type column struct {
	FieldID uint32 `json:"field_id"`
	Width   int    `json:"width"`
	HAlign  int    `json:"h_align,omitempty"`
	Header  string `json:"header,omitempty"`
	Value   string `json:"value,omitempty"`
}

type meibo struct {
	OriginX        int    `json:"origin_x"`
	OriginY        int    `json:"origin_y"`
	CellWidth      int    `json:"cell_width"`
	CellHeight     int    `json:"cell_height"`
	RowCount       int    `json:"row_count"`
	DataStartIndex int    `json:"data_start_index"`
	RefName        string `json:"ref_name"`
	Direction      int    `json:"direction"`
}

type image struct {
	Rect         *[4]int `json:"rect,omitempty"`
	ImageData    []byte  `json:"image_data,omitempty"`
	OriginalPath string  `json:"original_path,omitempty"`
}

type paper struct {
	Mode         int     `json:"mode"`
	UnitMM       float64 `json:"unit_mm"`
	ItemWidthMM  float64 `json:"item_width_mm"`
	ItemHeightMM float64 `json:"item_height_mm"`
	Cols         int     `json:"cols"`
	Rows         int     `json:"rows"`
	MarginLeftMM float64 `json:"margin_left_mm"`
	MarginTopMM  float64 `json:"margin_top_mm"`
	SpacingHMM   float64 `json:"spacing_h_mm"`
	SpacingVMM   float64 `json:"spacing_v_mm"`
	PaperSize    string  `json:"paper_size"`
	Orientation  string  `json:"orientation"`
}

func rectOut(r layout.Rect) *[4]int { return &[4]int{r.Left, r.Top, r.Right, r.Bottom} }

func rectIn(v *[4]int) layout.Rect {
	if v == nil {
		return layout.Rect{}
	}
	return layout.Rect{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}
}

func pointOut(p layout.Point) *[2]int { return &[2]int{p.X, p.Y} }

func pointIn(v *[2]int) layout.Point {
	if v == nil {
		return layout.Point{}
	}
	return layout.Point{X: v[0], Y: v[1]}
}

func fontOut(f layout.FontInfo) *font {
	if f == layout.DefaultFont() {
		return nil
	}
	return &font{
		Name:          f.Name,
		SizePt:        f.SizePt,
		Bold:          f.Bold,
		Italic:        f.Italic,
		Writing:       f.Writing.String(),
		Underline:     f.Underline,
		Strikethrough: f.Strikethrough,
	}
}

func fontIn(f *font) layout.FontInfo {
	if f == nil {
		return layout.DefaultFont()
	}
	// Unknown names were rejected by UnmarshalJSON.
	writing, _ := layout.ParseWriting(f.Writing)
	return layout.FontInfo{
		Name:          f.Name,
		SizePt:        f.SizePt,
		Bold:          f.Bold,
		Italic:        f.Italic,
		Writing:       writing,
		Underline:     f.Underline,
		Strikethrough: f.Strikethrough,
	}
}

func (o *object) setTextStyle(ts layout.TextStyle) {
	o.Font = fontOut(ts.Font)
	o.HAlign = int(ts.HAlign)
	o.VAlign = int(ts.VAlign)
	o.Prefix = ts.Prefix
	o.Suffix = ts.Suffix
}

func (o *object) textStyle() layout.TextStyle {
	return layout.TextStyle{
		Font:   fontIn(o.Font),
		HAlign: layout.Align(o.HAlign),
		VAlign: layout.Align(o.VAlign),
		Prefix: o.Prefix,
		Suffix: o.Suffix,
	}
}

func paperOut(p *layout.PaperLayout) *paper {
	if p == nil {
		return nil
	}
	return &paper{
		Mode:         p.Mode,
		UnitMM:       p.UnitMM,
		ItemWidthMM:  p.ItemWidthMM,
		ItemHeightMM: p.ItemHeightMM,
		Cols:         p.Cols,
		Rows:         p.Rows,
		MarginLeftMM: p.MarginLeftMM,
		MarginTopMM:  p.MarginTopMM,
		SpacingHMM:   p.SpacingHMM,
		SpacingVMM:   p.SpacingVMM,
		PaperSize:    p.PaperSize,
		Orientation:  p.Orientation,
	}
}

func paperIn(p *paper) *layout.PaperLayout {
	if p == nil {
		return nil
	}
	return &layout.PaperLayout{
		Mode:         p.Mode,
		UnitMM:       p.UnitMM,
		ItemWidthMM:  p.ItemWidthMM,
		ItemHeightMM: p.ItemHeightMM,
		Cols:         p.Cols,
		Rows:         p.Rows,
		MarginLeftMM: p.MarginLeftMM,
		MarginTopMM:  p.MarginTopMM,
		SpacingHMM:   p.SpacingHMM,
		SpacingVMM:   p.SpacingVMM,
		PaperSize:    p.PaperSize,
		Orientation:  p.Orientation,
	}
}

// Missing keys decode to the defaults of the legacy editor.

func (f *font) UnmarshalJSON(b []byte) error {
	type plain font
	v := plain{SizePt: layout.DefaultFontSize}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if _, ok := layout.ParseWriting(v.Writing); !ok {
		return errors.New(errors.ErrCodeFormat, "unknown writing mode %q", v.Writing)
	}
	*f = font(v)
	return nil
}

func (c *column) UnmarshalJSON(b []byte) error {
	type plain column
	v := plain{Width: 1}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = column(v)
	return nil
}

func (p *paper) UnmarshalJSON(b []byte) error {
	type plain paper
	v := plain{UnitMM: layout.ClassicUnitMM, Cols: 1, Rows: 1}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = paper(v)
	return nil
}
