package layout

// LayFile is one parsed print layout.
type LayFile struct {
	Title      string
	Version    int
	PageWidth  int
	PageHeight int
	Objects    []Object
	Paper      *PaperLayout
}

// New returns an empty layout with the default A4 page.
func New(title string) *LayFile {
	return &LayFile{
		Title:      title,
		PageWidth:  DefaultPageWidth,
		PageHeight: DefaultPageHeight,
	}
}

// UnitMM returns the size of one model unit in millimeters.
func (l *LayFile) UnitMM() float64 {
	if l.Paper != nil && l.Paper.UnitMM > 0 {
		return l.Paper.UnitMM
	}
	return ClassicUnitMM
}

// Clone returns a deep copy sharing no mutable state with l.
func (l *LayFile) Clone() *LayFile {
	out := *l
	out.Objects = make([]Object, len(l.Objects))
	for i, o := range l.Objects {
		out.Objects[i] = o.Clone()
	}
	if l.Paper != nil {
		p := *l.Paper
		out.Paper = &p
	}
	return &out
}

// WithObjects returns a copy of l's header (title, size, paper) carrying
// objs instead of l's objects.
func (l *LayFile) WithObjects(objs []Object) *LayFile {
	out := &LayFile{
		Title:      l.Title,
		Version:    l.Version,
		PageWidth:  l.PageWidth,
		PageHeight: l.PageHeight,
		Objects:    objs,
	}
	if l.Paper != nil {
		p := *l.Paper
		out.Paper = &p
	}
	return out
}

// Count returns the number of objects of kind k.
func (l *LayFile) Count(k Kind) int {
	n := 0
	for _, o := range l.Objects {
		if o.Kind() == k {
			n++
		}
	}
	return n
}

// Fields returns the field placeholders in list order.
func (l *LayFile) Fields() []Field {
	var out []Field
	for _, o := range l.Objects {
		if f, ok := o.(Field); ok {
			out = append(out, f)
		}
	}
	return out
}

// Rosters returns the roster placeholders in list order.
func (l *LayFile) Rosters() []Meibo {
	var out []Meibo
	for _, o := range l.Objects {
		if m, ok := o.(Meibo); ok {
			out = append(out, m)
		}
	}
	return out
}

// Unfilled returns the indexes of objects that still need record data.
func (l *LayFile) Unfilled() []int {
	var out []int
	for i, o := range l.Objects {
		switch v := o.(type) {
		case Field:
			out = append(out, i)
		case Table:
			if !v.Filled && len(v.Columns) > 0 {
				out = append(out, i)
			}
		}
	}
	return out
}

// Bounds returns the union of all object bounds, or the zero rectangle for
// an empty layout.
func (l *LayFile) Bounds() Rect {
	var r Rect
	for i, o := range l.Objects {
		if i == 0 {
			r = o.Bounds()
			continue
		}
		r = r.Union(o.Bounds())
	}
	return r
}
