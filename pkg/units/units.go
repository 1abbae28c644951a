// Package units converts between model units, screen pixels, printer dots
// and millimeters.
//
// A model unit is a fixed fraction of a millimeter: 0.25 mm for classic
// layouts and 0.1 mm for layouts that carry sheet geometry (see
// layout.LayFile.UnitMM). Every conversion takes the unit size explicitly so
// both kinds of layout share one code path.
package units

import "math"

// MMPerInch is the length of an inch in millimeters.
const MMPerInch = 25.4

// PointsPerInch is the number of typographic points per inch.
const PointsPerInch = 72.0

// ModelToCanvas maps a model coordinate onto a canvas drawn at scale pixels
// per unit and shifted by (ox, oy).
func ModelToCanvas(x, y int, scale, ox, oy float64) (float64, float64) {
	return float64(x)*scale + ox, float64(y)*scale + oy
}

// CanvasToModel is the inverse of ModelToCanvas, rounded to whole units.
func CanvasToModel(cx, cy, scale, ox, oy float64) (int, int) {
	return int(math.Round((cx - ox) / scale)), int(math.Round((cy - oy) / scale))
}

// PixelsPerUnit returns the pixel size of one model unit at dpi.
func PixelsPerUnit(unitMM float64, dpi int) float64 {
	return unitMM * float64(dpi) / MMPerInch
}

// ModelToPrinter converts a model coordinate to printer dots at dpi.
func ModelToPrinter(v int, unitMM float64, dpi int) int {
	return int(math.Round(float64(v) * PixelsPerUnit(unitMM, dpi)))
}

// PrinterToModel converts printer dots back to model units.
func PrinterToModel(dots int, unitMM float64, dpi int) int {
	return int(math.Round(float64(dots) / PixelsPerUnit(unitMM, dpi)))
}

// PageSizePx returns the pixel size of a page of w×h units at dpi. Both
// dimensions are at least one pixel.
func PageSizePx(w, h int, unitMM float64, dpi int) (int, int) {
	s := PixelsPerUnit(unitMM, dpi)
	return max(1, int(float64(w)*s)), max(1, int(float64(h)*s))
}

// MMToUnits converts millimeters to whole model units.
func MMToUnits(mm, unitMM float64) int {
	return int(math.Round(mm / unitMM))
}

// UnitsToMM converts model units to millimeters.
func UnitsToMM(v int, unitMM float64) float64 {
	return float64(v) * unitMM
}

// PointsToUnits converts a font size in points to model units.
func PointsToUnits(pt, unitMM float64) float64 {
	return pt / PointsPerInch * MMPerInch / unitMM
}

// PointsToPixels converts a font size in points to pixels at dpi.
func PointsToPixels(pt float64, dpi int) float64 {
	return pt * float64(dpi) / PointsPerInch
}
