package layout

import "fmt"

// Kind identifies an object variant.
type Kind uint8

// Object kinds. The zero value is invalid.
const (
	KindLabel Kind = iota + 1
	KindField
	KindLine
	KindGroup
	KindTable
	KindMeibo
	KindImage
)

var kindNames = map[Kind]string{
	KindLabel: "LABEL",
	KindField: "FIELD",
	KindLine:  "LINE",
	KindGroup: "GROUP",
	KindTable: "TABLE",
	KindMeibo: "MEIBO",
	KindImage: "IMAGE",
}

// String returns the human-readable variant name used in the JSON mirror.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("KIND(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Style-flag values observed in sample files. Anything else is reported as
// unhandled by KnownGroupStyle and KnownLabelStyle and drawn with defaults.
const (
	GroupStyleNone = 0
	GroupStyleThin = 2
	GroupStyleBold = 8

	LabelStyleNone  = 0
	LabelStyleBoxed = 8

	// LineWidthDefault applies when a line's width flag is zero or negative.
	LineWidthDefault = 1
)

// KnownGroupStyle reports whether s is a documented group style flag.
func KnownGroupStyle(s int) bool {
	return s == GroupStyleNone || s == GroupStyleThin || s == GroupStyleBold
}

// KnownLabelStyle reports whether s is a documented label style flag.
func KnownLabelStyle(s int) bool {
	return s == LabelStyleNone || s == LabelStyleBoxed
}

// Object is one element of a layout. The set of implementations is closed.
type Object interface {
	// Kind returns the variant tag.
	Kind() Kind
	// Bounds returns the rectangle covered by the object.
	Bounds() Rect
	// Clone returns a deep copy.
	Clone() Object
	// Transform returns a copy scaled by s (geometry and font size) and then
	// moved by (dx, dy). A scale of 1 only translates.
	Transform(s float64, dx, dy int) Object

	sealed()
}

// Label is static text.
type Label struct {
	Rect  Rect
	Text  string
	Style int
	TextStyle
}

// Field is a data-bound placeholder resolved through the field dictionary.
type Field struct {
	Rect    Rect
	FieldID uint32
	Style   int
	TextStyle
}

// Line is a straight ruling. Width holds the raw width flag.
type Line struct {
	Start, End Point
	Width      int
}

// Group is an outlined container. Its children are stored in the enclosing
// object list, not inside the group.
type Group struct {
	Rect  Rect
	Style int
}

// TableColumn describes one table column. Value holds the filled data for
// the column and is empty until the table is filled.
type TableColumn struct {
	FieldID uint32
	Width   int
	HAlign  Align
	Header  string
	Value   string
}

// Table is a grid with a header band. RowCount is zero when the file does
// not carry an explicit row count.
type Table struct {
	Rect     Rect
	Caption  string
	Columns  []TableColumn
	RowCount int
	Font     FontInfo
	Filled   bool
}

// Direction is the axis along which roster cells advance.
type Direction int

// Roster directions.
const (
	DirectionVertical   Direction = 0
	DirectionHorizontal Direction = 1
)

// Roster describes how a referenced layout is repeated. RefName is a lookup
// key into a caller-supplied registry, never an owning reference.
type Roster struct {
	RefName        string
	RowCount       int
	Direction      Direction
	Origin         Point
	CellWidth      int
	CellHeight     int
	DataStartIndex int
}

// SlotOffset returns the translation of the i-th cell relative to the
// referenced layout's origin.
func (r Roster) SlotOffset(i int) (dx, dy int) {
	if r.Direction == DirectionHorizontal {
		return r.Origin.X + i*r.CellWidth, r.Origin.Y
	}
	return r.Origin.X, r.Origin.Y + i*r.CellHeight
}

// Capacity returns the number of record slots this roster consumes on a
// page, counted from the first record of the page.
func (r Roster) Capacity() int {
	return max(0, r.DataStartIndex+r.RowCount)
}

// Meibo is a roster placeholder.
type Meibo struct {
	Rect   Rect
	Roster Roster
}

// EmbeddedImage is raster data carried by a layout.
type EmbeddedImage struct {
	Data         []byte
	OriginalPath string
}

// Image is an embedded raster.
type Image struct {
	Rect  Rect
	Image EmbeddedImage
}

// Kind implementations.

func (Label) Kind() Kind { return KindLabel }
func (Field) Kind() Kind { return KindField }
func (Line) Kind() Kind  { return KindLine }
func (Group) Kind() Kind { return KindGroup }
func (Table) Kind() Kind { return KindTable }
func (Meibo) Kind() Kind { return KindMeibo }
func (Image) Kind() Kind { return KindImage }

func (Label) sealed() {}
func (Field) sealed() {}
func (Line) sealed()  {}
func (Group) sealed() {}
func (Table) sealed() {}
func (Meibo) sealed() {}
func (Image) sealed() {}

// Bounds implementations.

func (o Label) Bounds() Rect { return o.Rect }
func (o Field) Bounds() Rect { return o.Rect }
func (o Group) Bounds() Rect { return o.Rect }
func (o Table) Bounds() Rect { return o.Rect }
func (o Meibo) Bounds() Rect { return o.Rect }
func (o Image) Bounds() Rect { return o.Rect }

func (o Line) Bounds() Rect {
	return Rect{
		Left:   min(o.Start.X, o.End.X),
		Top:    min(o.Start.Y, o.End.Y),
		Right:  max(o.Start.X, o.End.X),
		Bottom: max(o.Start.Y, o.End.Y),
	}
}

// StrokeWidth returns the effective width in model units.
func (o Line) StrokeWidth() int {
	if o.Width > 0 {
		return o.Width
	}
	return LineWidthDefault
}

// Clone implementations. Value receivers already copy scalar fields; only
// slices need explicit copies.

func (o Label) Clone() Object { return o }
func (o Field) Clone() Object { return o }
func (o Line) Clone() Object  { return o }
func (o Group) Clone() Object { return o }
func (o Meibo) Clone() Object { return o }

func (o Table) Clone() Object {
	o.Columns = append([]TableColumn(nil), o.Columns...)
	return o
}

func (o Image) Clone() Object {
	o.Image.Data = append([]byte(nil), o.Image.Data...)
	return o
}

// Transform implementations.

func scaleFont(f FontInfo, s float64) FontInfo {
	if s != 1 {
		f.SizePt *= s
	}
	return f
}

func moveRect(r Rect, s float64, dx, dy int) Rect {
	if s == 1 {
		return r.Translate(dx, dy)
	}
	return r.Scale(s, dx, dy)
}

func movePoint(p Point, s float64, dx, dy int) Point {
	if s == 1 {
		return p.Translate(dx, dy)
	}
	return p.Scale(s, dx, dy)
}

func (o Label) Transform(s float64, dx, dy int) Object {
	o.Rect = moveRect(o.Rect, s, dx, dy)
	o.Font = scaleFont(o.Font, s)
	return o
}

func (o Field) Transform(s float64, dx, dy int) Object {
	o.Rect = moveRect(o.Rect, s, dx, dy)
	o.Font = scaleFont(o.Font, s)
	return o
}

func (o Line) Transform(s float64, dx, dy int) Object {
	o.Start = movePoint(o.Start, s, dx, dy)
	o.End = movePoint(o.End, s, dx, dy)
	return o
}

func (o Group) Transform(s float64, dx, dy int) Object {
	o.Rect = moveRect(o.Rect, s, dx, dy)
	return o
}

func (o Table) Transform(s float64, dx, dy int) Object {
	t := o.Clone().(Table)
	t.Rect = moveRect(o.Rect, s, dx, dy)
	t.Font = scaleFont(o.Font, s)
	if s != 1 {
		for i := range t.Columns {
			t.Columns[i].Width = int(float64(t.Columns[i].Width) * s)
		}
	}
	return t
}

func (o Meibo) Transform(s float64, dx, dy int) Object {
	o.Rect = moveRect(o.Rect, s, dx, dy)
	o.Roster.Origin = movePoint(o.Roster.Origin, s, dx, dy)
	if s != 1 {
		o.Roster.CellWidth = int(float64(o.Roster.CellWidth) * s)
		o.Roster.CellHeight = int(float64(o.Roster.CellHeight) * s)
	}
	return o
}

func (o Image) Transform(s float64, dx, dy int) Object {
	img := o.Clone().(Image)
	img.Rect = moveRect(o.Rect, s, dx, dy)
	return img
}

// NewLabel returns a label using the fallback font at the given size.
func NewLabel(r Rect, text string, sizePt float64) Label {
	return Label{
		Rect: r,
		Text: text,
		TextStyle: TextStyle{
			Font: FontInfo{Name: FallbackFontName, SizePt: sizePt},
		},
	}
}

// NewField returns a field using the fallback font at the given size.
func NewField(r Rect, id uint32, sizePt float64) Field {
	return Field{
		Rect:    r,
		FieldID: id,
		TextStyle: TextStyle{
			Font: FontInfo{Name: FallbackFontName, SizePt: sizePt},
		},
	}
}

// NewLine returns a default-width line.
func NewLine(x1, y1, x2, y2 int) Line {
	return Line{Start: Point{x1, y1}, End: Point{x2, y2}}
}
