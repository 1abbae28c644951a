// Package fill substitutes record data into layout placeholders.
//
// [Fill] turns every Field of a layout into a Label carrying the resolved
// value, fills table columns and embeds matched photos. [FillRoster]
// additionally expands roster (Meibo) placeholders by repeating a referenced
// layout once per record, paginating the records by the roster capacity.
//
// Filling never mutates its input: every result is an independent deep
// copy, so one parsed template can be filled concurrently for many records.
//
// Nothing in this package fails. Missing data, unknown references and
// undecodable photos degrade to blank output and are collected in a
// [Report].
package fill

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/photo"
)

// Name display modes.
const (
	NameDisplayFurigana = "furigana" // kanji and kana fields as recorded
	NameDisplayKanji    = "kanji"    // kana fields blank
	NameDisplayKana     = "kana"     // kanji fields show kana, kana fields blank
)

// Record is one row of student data keyed by logical field name. Values are
// usually strings; numbers decoded from JSON are accepted too.
type Record map[string]any

// String returns the value under key as trimmed text. Absent keys, nil and
// the literal "nan" (any case) all yield "".
func (r Record) String(key string) string {
	s, _ := r.lookup(key)
	return s
}

func (r Record) lookup(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		s = t
	case float64:
		if math.IsNaN(t) {
			return "", true
		}
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case bool:
		s = strconv.FormatBool(t)
	case interface{ String() string }:
		s = t.String()
	default:
		return "", true
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return "", true
	}
	return s, true
}

// Options configure a fill.
type Options struct {
	FiscalYear  int    // 年度; zero leaves 年度 and 年度和暦 blank
	SchoolName  string // 学校名
	TeacherName string // 担任名
	NameDisplay string // one of the NameDisplay constants; empty means furigana

	// Page and Total feed the ページ and 総数 fields. FillRoster sets them.
	Page  int
	Total int

	// RowNumber feeds 行番号 when the record does not carry one.
	RowNumber int

	// Photos supplies raw photo bytes. A nil source leaves photo fields
	// blank.
	Photos photo.Source
	// PhotoMaxSide caps the long side of embedded photos in pixels.
	PhotoMaxSide int

	// Report collects degraded substitutions. May be nil.
	Report *Report
}

// Fill returns a copy of lay with every field, unfilled table and photo
// placeholder resolved against rec. Roster placeholders are copied
// unchanged; use FillRoster to expand them.
func Fill(lay *layout.LayFile, rec Record, opts Options) *layout.LayFile {
	f := newFiller(rec, opts)
	objs := make([]layout.Object, 0, len(lay.Objects))
	for _, o := range lay.Objects {
		objs = append(objs, f.object(o))
	}
	return lay.WithObjects(objs)
}

// filler resolves the placeholders of one record.
type filler struct {
	rec  Record
	opts Options
}

func newFiller(rec Record, opts Options) *filler {
	if rec == nil {
		rec = Record{}
	}
	return &filler{rec: rec, opts: opts}
}

func (f *filler) object(o layout.Object) layout.Object {
	switch v := o.(type) {
	case layout.Field:
		if v.FieldID == layout.FieldPhoto {
			return f.photo(v)
		}
		return f.field(v)
	case layout.Table:
		if v.Filled {
			return v.Clone()
		}
		return f.table(v)
	default:
		return o.Clone()
	}
}

func (f *filler) field(v layout.Field) layout.Label {
	value := f.resolve(layout.FieldName(v.FieldID))
	ts := v.TextStyle
	ts.Prefix, ts.Suffix = "", ""
	if NeedsFallbackFont(value) {
		ts.Font.Name = layout.FallbackFontName
	}
	return layout.Label{
		Rect:      v.Rect,
		Text:      v.Prefix + value + v.Suffix,
		Style:     v.Style,
		TextStyle: ts,
	}
}

func (f *filler) table(v layout.Table) layout.Table {
	t := v.Clone().(layout.Table)
	for i := range t.Columns {
		t.Columns[i].Value = f.resolve(layout.FieldName(t.Columns[i].FieldID))
	}
	t.Filled = true
	return t
}

func (f *filler) photo(v layout.Field) layout.Object {
	blank := layout.Label{Rect: v.Rect, Style: v.Style, TextStyle: v.TextStyle}
	blank.Prefix, blank.Suffix = "", ""

	keys := photo.MatchKeys(photo.Student{
		Grade:     f.rec.String(layout.NameGrade),
		Class:     f.rec.String(layout.NameClass),
		Number:    f.rec.String(layout.NameNumber),
		Name:      f.rec.String(layout.NameFullName),
		LegalName: f.rec.String(layout.NameLegalName),
	})
	data, key, ok := photo.Find(f.opts.Photos, keys)
	if !ok {
		if f.opts.Photos != nil {
			f.opts.Report.add(errors.ErrCodeData, layout.NamePhoto, f.opts.RowNumber, "no photo matches keys %v", keys)
		}
		return blank
	}
	png, err := photo.Prepare(data, v.Rect.Width(), v.Rect.Height(), f.opts.PhotoMaxSide)
	if err != nil {
		f.opts.Report.add(errors.ErrCodeResource, layout.NamePhoto, f.opts.RowNumber, "photo %q: %v", key, err)
		return blank
	}
	return layout.Image{Rect: v.Rect, Image: layout.EmbeddedImage{Data: png, OriginalPath: key}}
}
