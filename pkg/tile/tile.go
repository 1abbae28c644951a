// Package tile packs filled single-item layouts onto physical sheets
// (N-up printing).
//
// [Arrange] picks a grid and scale for a layout on a given paper, [Tile]
// applies it. Label-sheet layouts carry their own grid, margins and spacing
// and are placed exactly where the sheet says; everything else is centered
// on the paper with a small gutter between copies.
package tile

import (
	"math"

	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/units"
)

// PageTitle is the title of tiled output pages.
const PageTitle = "印刷ページ"

// MinScale is the smallest reduction tried before falling back to a single
// copy scaled to fit.
const MinScale = 0.25

// maxGutterMM caps the space between copies.
const maxGutterMM = 5.0

// candidates are the reduced grids tried, in order, for oversized layouts.
var candidates = [][2]int{{2, 1}, {1, 2}, {2, 2}, {3, 1}, {1, 3}, {3, 2}, {2, 3}}

// Paper is a target sheet in model units. Sheet is set for label sheets and
// fixes the grid positions.
type Paper struct {
	Width  int
	Height int
	UnitMM float64
	Sheet  *layout.PaperLayout
}

// A4 returns portrait A4 in units of unitMM millimeters.
func A4(unitMM float64) Paper {
	p, _ := PaperFor("A4", layout.Portrait, unitMM)
	return p
}

// PaperFor returns a named sheet (see layout.PaperSizes) in units of unitMM
// millimeters.
func PaperFor(name, orientation string, unitMM float64) (Paper, bool) {
	ps, ok := layout.LookupPaper(name)
	if !ok {
		return Paper{}, false
	}
	w, h := ps.Dimensions(orientation)
	return Paper{
		Width:  units.MMToUnits(w, unitMM),
		Height: units.MMToUnits(h, unitMM),
		UnitMM: unitMM,
	}, true
}

// SheetPaper returns the paper described by a label sheet.
func SheetPaper(sheet *layout.PaperLayout) Paper {
	u := sheet.UnitMM
	if u <= 0 {
		u = layout.GeometryUnitMM
	}
	return Paper{
		Width:  units.MMToUnits(sheet.PaperWidthMM(), u),
		Height: units.MMToUnits(sheet.PaperHeightMM(), u),
		UnitMM: u,
		Sheet:  sheet,
	}
}

// Arrangement is a grid of copies per sheet at a uniform scale.
type Arrangement struct {
	Cols    int
	Rows    int
	PerPage int
	Scale   float64
	Paper   Paper
}

// Arrange computes how many copies of lay fit on paper.
//
// An unscaled grid holding at least two copies wins; otherwise one unscaled
// copy if it fits; otherwise, among the candidate grids whose scale stays
// at or above MinScale, the one covering the most paper (cols×rows×scale²),
// earlier candidates winning ties; otherwise one copy scaled to fit.
func Arrange(lay *layout.LayFile, paper Paper) Arrangement {
	cw, ch := max(1, lay.PageWidth), max(1, lay.PageHeight)
	a := Arrangement{Paper: paper, Scale: 1}

	cols, rows := paper.Width/cw, paper.Height/ch
	if cols*rows > 1 {
		a.Cols, a.Rows, a.PerPage = cols, rows, cols*rows
		return a
	}
	if cw <= paper.Width && ch <= paper.Height {
		a.Cols, a.Rows, a.PerPage = 1, 1, 1
		return a
	}
	best := 0.0
	for _, c := range candidates {
		s := math.Min(float64(paper.Width)/float64(c[0]*cw), float64(paper.Height)/float64(c[1]*ch))
		if s < MinScale {
			continue
		}
		if usage := float64(c[0]*c[1]) * s * s; usage > best {
			best = usage
			a.Cols, a.Rows, a.PerPage, a.Scale = c[0], c[1], c[0]*c[1], s
		}
	}
	if best > 0 {
		return a
	}
	a.Cols, a.Rows, a.PerPage = 1, 1, 1
	a.Scale = math.Min(float64(paper.Width)/float64(cw), float64(paper.Height)/float64(ch))
	return a
}

// PageArrangement picks the arrangement lay asks for: the label-sheet grid
// when it has one, else Arrange on its detected paper size or A4.
func PageArrangement(lay *layout.LayFile) Arrangement {
	if lay.Paper.LabelSheet() && lay.Paper.Cols > 0 && lay.Paper.Rows > 0 {
		n := lay.Paper.Cols * lay.Paper.Rows
		return Arrangement{
			Cols:    lay.Paper.Cols,
			Rows:    lay.Paper.Rows,
			PerPage: n,
			Scale:   1,
			Paper:   SheetPaper(lay.Paper),
		}
	}
	u := lay.UnitMM()
	if lay.Paper != nil && lay.Paper.PaperSize != "" {
		if p, ok := PaperFor(lay.Paper.PaperSize, lay.Paper.Orientation, u); ok {
			return Arrange(lay, p)
		}
	}
	return Arrange(lay, A4(u))
}

// Tile places layouts cols×rows per page on paper, scaling each object by
// scale when it is below one. With one copy per page at full scale the
// input slice itself is returned.
func Tile(layouts []*layout.LayFile, cols, rows int, paper Paper, scale float64) []*layout.LayFile {
	perPage := cols * rows
	if (perPage <= 1 && scale >= 1) || len(layouts) == 0 {
		return layouts
	}
	cols, rows = max(1, cols), max(1, rows)
	perPage = cols * rows

	offsets := gridOffsets(layouts[0], cols, rows, paper, scale)
	s := scale
	if s >= 1 {
		s = 1
	}

	var pages []*layout.LayFile
	for start := 0; start < len(layouts); start += perPage {
		items := layouts[start:min(start+perPage, len(layouts))]
		page := &layout.LayFile{
			Title:      PageTitle,
			Version:    items[0].Version,
			PageWidth:  paper.Width,
			PageHeight: paper.Height,
			Paper:      sheetFor(paper),
		}
		for i, lay := range items {
			off := offsets[i]
			for _, o := range lay.Objects {
				page.Objects = append(page.Objects, o.Transform(s, off.X, off.Y))
			}
		}
		pages = append(pages, page)
	}
	return pages
}

// gridOffsets returns the top-left position of each cell in row-major order.
func gridOffsets(first *layout.LayFile, cols, rows int, paper Paper, scale float64) []layout.Point {
	out := make([]layout.Point, 0, cols*rows)
	if sh := paper.Sheet; sh.LabelSheet() {
		u := paper.UnitMM
		for i := 0; i < cols*rows; i++ {
			c, r := i%cols, i/cols
			out = append(out, layout.Point{
				X: units.MMToUnits(sh.MarginLeftMM+float64(c)*(sh.ItemWidthMM+sh.SpacingHMM), u),
				Y: units.MMToUnits(sh.MarginTopMM+float64(r)*(sh.ItemHeightMM+sh.SpacingVMM), u),
			})
		}
		return out
	}

	cw := int(float64(first.PageWidth) * scale)
	ch := int(float64(first.PageHeight) * scale)
	maxGutter := units.MMToUnits(maxGutterMM, unitOf(paper))

	gx, gy := 0, 0
	if spare := paper.Width - cols*cw; cols > 1 && spare > 0 {
		gx = min(maxGutter, spare/cols)
	}
	if spare := paper.Height - rows*ch; rows > 1 && spare > 0 {
		gy = min(maxGutter, spare/rows)
	}
	mx := (paper.Width - (cols*cw + (cols-1)*gx)) / 2
	my := (paper.Height - (rows*ch + (rows-1)*gy)) / 2

	for i := 0; i < cols*rows; i++ {
		c, r := i%cols, i/cols
		out = append(out, layout.Point{X: mx + c*(cw+gx), Y: my + r*(ch+gy)})
	}
	return out
}

func unitOf(p Paper) float64 {
	if p.UnitMM > 0 {
		return p.UnitMM
	}
	return layout.ClassicUnitMM
}

// sheetFor describes an output page so that it keeps the paper's unit.
func sheetFor(p Paper) *layout.PaperLayout {
	u := unitOf(p)
	if u == layout.ClassicUnitMM && p.Sheet == nil {
		return nil
	}
	sheet := &layout.PaperLayout{
		Mode:         layout.ModeFullPage,
		UnitMM:       u,
		ItemWidthMM:  units.UnitsToMM(p.Width, u),
		ItemHeightMM: units.UnitsToMM(p.Height, u),
		Cols:         1,
		Rows:         1,
	}
	sheet.DetectPaper()
	return sheet
}
