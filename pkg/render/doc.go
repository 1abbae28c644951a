// Package render draws layouts onto a drawing backend.
//
// # Overview
//
// A [Backend] exposes four primitives (rectangle, line, text and image) in
// pixel coordinates. A [Renderer] walks a [layout.LayFile] in a fixed order
// and translates each object into primitives:
//
//  1. tables (header band, rows, column rulings)
//  2. roster placeholders and their expansions
//  3. labels, fields and images
//  4. group outlines
//  5. lines, so rulings stay on top
//
// [RasterBackend] implements Backend on an in-memory RGBA image using
// fogleman/gg; [ToImage] wires it up for a whole page:
//
//	img, err := render.ToImage(lay, render.Options{DPI: 300, Mode: render.ModePrint})
//	if err != nil {
//	    return err
//	}
//	err = render.EncodePNG(w, img)
//
// # Text policy
//
// Text runs are classified before drawing. A run without newlines, longer
// than one character, in a box narrower than half its height and narrower
// than 120 units is drawn vertically, one glyph per evenly divided row (see
// [IsVertical]). A font's explicit writing mode overrides the heuristic. Single-line text wider than its box shrinks in 10% steps
// down to 4pt; if it still does not fit it wraps per character when the box
// is tall enough, and is clipped otherwise. Wrapping measures every
// character rather than breaking at spaces.
package render
