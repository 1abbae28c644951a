package layout

import "math"

// Model unit sizes in millimeters.
const (
	// ClassicUnitMM is the unit of layouts without sheet geometry.
	ClassicUnitMM = 0.25
	// GeometryUnitMM is the unit of layouts carrying sheet geometry tags.
	GeometryUnitMM = 0.1
)

// Default page size in classic units (A4 portrait).
const (
	DefaultPageWidth  = 840
	DefaultPageHeight = 1188
)

// Layout modes.
const (
	// ModeFullPage places objects across the whole sheet.
	ModeFullPage = 0
	// ModeLabelSheet repeats one item per label position.
	ModeLabelSheet = 1
)

// Orientations.
const (
	Portrait  = "portrait"
	Landscape = "landscape"
)

// PaperSize is a named sheet size in millimeters (portrait).
type PaperSize struct {
	Name    string
	ShortMM float64
	LongMM  float64
}

// PaperSizes lists the sheets recognized by DetectPaper, in match order.
var PaperSizes = []PaperSize{
	{"A3", 297, 420},
	{"A4", 210, 297},
	{"A5", 148, 210},
	{"B4", 257, 364},
	{"B5", 182, 257},
	{"はがき", 100, 148},
}

// LookupPaper returns the named sheet.
func LookupPaper(name string) (PaperSize, bool) {
	for _, p := range PaperSizes {
		if p.Name == name {
			return p, true
		}
	}
	return PaperSize{}, false
}

// Dimensions returns the sheet size in millimeters for orientation.
func (p PaperSize) Dimensions(orientation string) (w, h float64) {
	if orientation == Landscape {
		return p.LongMM, p.ShortMM
	}
	return p.ShortMM, p.LongMM
}

// paperMatchToleranceMM is the largest |dw|+|dh| accepted as a match.
const paperMatchToleranceMM = 20

// PaperLayout is the sheet geometry carried by newer layouts.
type PaperLayout struct {
	Mode         int
	UnitMM       float64
	ItemWidthMM  float64
	ItemHeightMM float64
	Cols         int
	Rows         int
	MarginLeftMM float64
	MarginTopMM  float64
	SpacingHMM   float64
	SpacingVMM   float64
	PaperSize    string
	Orientation  string
}

// PaperWidthMM returns the sheet width implied by margins, items and spacing.
func (p PaperLayout) PaperWidthMM() float64 {
	return p.MarginLeftMM*2 + float64(p.Cols)*p.ItemWidthMM + float64(max(0, p.Cols-1))*p.SpacingHMM
}

// PaperHeightMM returns the sheet height implied by margins, items and spacing.
func (p PaperLayout) PaperHeightMM() float64 {
	return p.MarginTopMM*2 + float64(p.Rows)*p.ItemHeightMM + float64(max(0, p.Rows-1))*p.SpacingVMM
}

// DetectPaper sets PaperSize and Orientation to the closest known sheet,
// or leaves them empty when nothing lies within 20 mm.
func (p *PaperLayout) DetectPaper() {
	w, h := p.PaperWidthMM(), p.PaperHeightMM()
	best := math.Inf(1)
	var name, orient string
	for _, ps := range PaperSizes {
		for _, o := range []string{Portrait, Landscape} {
			pw, ph := ps.Dimensions(o)
			if d := math.Abs(w-pw) + math.Abs(h-ph); d < best {
				best, name, orient = d, ps.Name, o
			}
		}
	}
	if best < paperMatchToleranceMM {
		p.PaperSize, p.Orientation = name, orient
	}
}

// LabelSheet reports whether the layout repeats items on a label grid.
func (p *PaperLayout) LabelSheet() bool {
	return p != nil && p.Mode == ModeLabelSheet
}
