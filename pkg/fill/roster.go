package fill

import (
	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/layout"
)

// Registry resolves roster references to layouts.
type Registry interface {
	Lookup(name string) (*layout.LayFile, bool)
}

// MapRegistry is a Registry backed by a map keyed by layout title.
type MapRegistry map[string]*layout.LayFile

// Lookup implements Registry.
func (m MapRegistry) Lookup(name string) (*layout.LayFile, bool) {
	l, ok := m[name]
	return l, ok
}

// Capacity returns the number of records one page of lay consumes: the
// largest DataStartIndex+RowCount over its roster placeholders, or zero
// when it has none.
func Capacity(lay *layout.LayFile) int {
	c := 0
	for _, m := range lay.Rosters() {
		c = max(c, m.Roster.Capacity())
	}
	return c
}

// Pages splits records into consecutive pages of capacity records. The last
// page may be shorter. A non-positive capacity yields a single page holding
// every record.
func Pages(records []Record, capacity int) [][]Record {
	if capacity <= 0 {
		return [][]Record{records}
	}
	var pages [][]Record
	for start := 0; start < len(records); start += capacity {
		end := min(start+capacity, len(records))
		pages = append(pages, records[start:end])
	}
	return pages
}

// FillRoster fills lay once per page of records.
//
// Header objects of each page resolve against the page's first record.
// Every roster placeholder is replaced by RowCount copies of its referenced
// layout, advanced along the roster direction by the cell size; slot i holds
// record DataStartIndex+i of the page. Slots past the last record keep only
// the referenced layout's lines, labels and group outlines.
//
// A layout without rosters yields exactly one page filled from the first
// record. A reference missing from reg is reported and its placeholder
// dropped; the rest of the page is still produced.
func FillRoster(lay *layout.LayFile, records []Record, reg Registry, opts Options) []*layout.LayFile {
	capacity := Capacity(lay)
	if capacity == 0 {
		var first Record
		if len(records) > 0 {
			first = records[0]
		}
		if opts.Total == 0 {
			opts.Total = len(records)
		}
		if opts.Page == 0 {
			opts.Page = 1
		}
		return []*layout.LayFile{Fill(lay, first, opts)}
	}

	pages := Pages(records, capacity)
	out := make([]*layout.LayFile, 0, len(pages))
	if opts.Total == 0 {
		opts.Total = len(records)
	}
	for p, recs := range pages {
		out = append(out, FillPage(lay, recs, p, capacity, reg, opts))
	}
	return out
}

// FillPage fills page p (0-based) of a roster layout whose pages hold
// capacity records each. recs is that page's slice of the records, as
// returned by Pages. FillRoster is FillPage applied to every page.
func FillPage(lay *layout.LayFile, recs []Record, p, capacity int, reg Registry, opts Options) *layout.LayFile {
	opts.Page = p + 1
	return fillPage(lay, recs, p*capacity, reg, opts)
}

func fillPage(lay *layout.LayFile, recs []Record, offset int, reg Registry, opts Options) *layout.LayFile {
	header := opts
	header.RowNumber = offset + 1
	var first Record
	if len(recs) > 0 {
		first = recs[0]
	}
	hf := newFiller(first, header)

	var objs []layout.Object
	for _, o := range lay.Objects {
		m, ok := o.(layout.Meibo)
		if !ok {
			objs = append(objs, hf.object(o))
			continue
		}
		objs = append(objs, expand(m.Roster, recs, offset, reg, opts)...)
	}
	return lay.WithObjects(objs)
}

func expand(r layout.Roster, recs []Record, offset int, reg Registry, opts Options) []layout.Object {
	var ref *layout.LayFile
	if reg != nil {
		ref, _ = reg.Lookup(r.RefName)
	}
	if ref == nil {
		opts.Report.add(errors.ErrCodeReference, r.RefName, 0,
			"roster references unknown layout %q", r.RefName)
		return nil
	}

	var objs []layout.Object
	for i := 0; i < r.RowCount; i++ {
		dx, dy := r.SlotOffset(i)
		idx := r.DataStartIndex + i
		if idx >= len(recs) {
			objs = append(objs, decoration(ref, dx, dy)...)
			continue
		}
		so := opts
		so.RowNumber = offset + idx + 1
		f := newFiller(recs[idx], so)
		for _, o := range ref.Objects {
			if _, nested := o.(layout.Meibo); nested {
				continue
			}
			objs = append(objs, f.object(o).Transform(1, dx, dy))
		}
	}
	return objs
}

// decoration returns the non-data objects of ref moved by (dx, dy).
func decoration(ref *layout.LayFile, dx, dy int) []layout.Object {
	var objs []layout.Object
	for _, o := range ref.Objects {
		switch o.Kind() {
		case layout.KindLine, layout.KindLabel, layout.KindGroup:
			objs = append(objs, o.Transform(1, dx, dy))
		}
	}
	return objs
}
