package layout

// FallbackFontName is the font that covers the full JIS X 0213 and IVS
// repertoire. Filled text containing glyphs outside common system fonts is
// moved onto it.
const FallbackFontName = "IPAmj明朝"

// DefaultFontSize is the size used when a font block carries no size.
const DefaultFontSize = 10.0

// FontInfo describes the font of a text-bearing object. Only names and sizes
// are carried; glyph data is resolved elsewhere.
type FontInfo struct {
	Name          string
	SizePt        float64
	Bold          bool
	Italic        bool
	Writing       Writing
	Underline     bool
	Strikethrough bool
}

// Writing selects the text direction of an object.
type Writing uint8

// WritingAuto leaves the choice to the renderer's narrow-box heuristic.
const (
	WritingAuto Writing = iota
	WritingVertical
	WritingHorizontal
)

var writingNames = map[Writing]string{
	WritingAuto:       "",
	WritingVertical:   "vertical",
	WritingHorizontal: "horizontal",
}

// String returns the name used in the JSON mirror; auto is empty.
func (w Writing) String() string {
	return writingNames[w]
}

// ParseWriting is the inverse of Writing.String.
func ParseWriting(s string) (Writing, bool) {
	for w, name := range writingNames {
		if name == s {
			return w, true
		}
	}
	return WritingAuto, false
}

// DefaultFont returns the font assumed when an object has no font block.
func DefaultFont() FontInfo {
	return FontInfo{SizePt: DefaultFontSize}
}

// Align is a horizontal or vertical alignment code.
type Align int

// Alignment codes as stored in .lay files.
const (
	AlignStart  Align = 0
	AlignCenter Align = 1
	AlignEnd    Align = 2
)

// TextStyle is shared by every text-bearing variant.
type TextStyle struct {
	Font   FontInfo
	HAlign Align
	VAlign Align
	Prefix string
	Suffix string
}
