package render

import (
	"image/color"

	"github.com/matzehuels/meibo/pkg/layout"
)

// Box is a rectangle in pixel coordinates.
type Box struct {
	X, Y, W, H float64
}

// TextStyle carries everything a backend needs to lay out one text run.
type TextStyle struct {
	Font     layout.FontInfo
	HAlign   layout.Align
	VAlign   layout.Align
	Color    color.Color
	Vertical bool // one glyph per row, top to bottom
	Wrap     bool // allow per-character wrapping on overflow
}

// Backend receives drawing primitives in pixel coordinates. A nil fill or
// outline color means "do not paint".
type Backend interface {
	Rect(b Box, fill, outline color.Color, width float64)
	Line(x1, y1, x2, y2 float64, c color.Color, width float64)
	Text(b Box, text string, st TextStyle)
	Image(b Box, data []byte)
}

// Colors used by the renderer.
var (
	ColorBlack       = color.RGBA{0x00, 0x00, 0x00, 0xFF}
	ColorWhite       = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	ColorPageBorder  = color.RGBA{0x99, 0x99, 0x99, 0xFF}
	ColorFieldFill   = color.RGBA{0xF0, 0xF6, 0xFF, 0xFF}
	ColorFieldLine   = color.RGBA{0xB0, 0xC4, 0xDE, 0xFF}
	ColorFieldText   = color.RGBA{0x4A, 0x7A, 0xB5, 0xFF}
	ColorBoxedFill   = color.RGBA{0xFF, 0xF8, 0xE1, 0xFF}
	ColorBoxedLine   = color.RGBA{0x80, 0x80, 0x80, 0xFF}
	ColorHeaderBand  = color.RGBA{0xF0, 0xF0, 0xF0, 0xFF}
	ColorRosterFrame = color.RGBA{0xB0, 0xC4, 0xDE, 0xFF}
)
