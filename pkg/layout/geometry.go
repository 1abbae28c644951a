package layout

// Point is a position in model units.
type Point struct {
	X, Y int
}

// Translate returns p moved by (dx, dy).
func (p Point) Translate(dx, dy int) Point {
	return Point{p.X + dx, p.Y + dy}
}

// Scale returns p scaled by s and then moved by (dx, dy). Coordinates are
// truncated towards zero.
func (p Point) Scale(s float64, dx, dy int) Point {
	return Point{int(float64(p.X)*s) + dx, int(float64(p.Y)*s) + dy}
}

// Rect is an axis-aligned rectangle in model units.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Width returns the horizontal extent.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{r.Left + dx, r.Top + dy, r.Right + dx, r.Bottom + dy}
}

// Scale returns r scaled by s and then moved by (dx, dy).
func (r Rect) Scale(s float64, dx, dy int) Rect {
	tl := Point{r.Left, r.Top}.Scale(s, dx, dy)
	br := Point{r.Right, r.Bottom}.Scale(s, dx, dy)
	return Rect{tl.X, tl.Y, br.X, br.Y}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}
