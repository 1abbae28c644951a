package io

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/layout"
)

// ReadJSON decodes a layout from r. ReadJSON does not close r.
//
// It fails with FORMAT_ERROR when the input is not JSON, the format tag is
// neither meibo_layout_v1 nor meibo_layout_v2, or an object has an unknown
// type. Missing keys take the defaults of the legacy editor: an A4 classic
// page, a 10 pt font, columns one unit wide and a 1×1 sheet in 0.25 mm
// units.
func ReadJSON(r io.Reader) (*layout.LayFile, error) {
	doc := document{
		PageWidth:  layout.DefaultPageWidth,
		PageHeight: layout.DefaultPageHeight,
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "decode layout")
	}
	if doc.Format != FormatV1 && doc.Format != FormatV2 {
		return nil, errors.New(errors.ErrCodeFormat, "unknown format %q", doc.Format)
	}

	lay := &layout.LayFile{
		Title:      doc.Title,
		Version:    doc.Version,
		PageWidth:  doc.PageWidth,
		PageHeight: doc.PageHeight,
		Paper:      paperIn(doc.Paper),
	}
	for i := range doc.Objects {
		o, err := fromObject(&doc.Objects[i])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormat, err, "object %d", i)
		}
		lay.Objects = append(lay.Objects, o)
	}
	return lay, nil
}

// Unmarshal decodes a layout from data.
func Unmarshal(data []byte) (*layout.LayFile, error) {
	return ReadJSON(bytes.NewReader(data))
}

func fromObject(o *object) (layout.Object, error) {
	kind, ok := layout.ParseKind(o.Type)
	if !ok {
		return nil, errors.New(errors.ErrCodeFormat, "unknown object type %q", o.Type)
	}
	switch kind {
	case layout.KindLabel:
		return layout.Label{Rect: rectIn(o.Rect), Text: o.Text, Style: o.Style, TextStyle: o.textStyle()}, nil
	case layout.KindField:
		return layout.Field{Rect: rectIn(o.Rect), FieldID: o.FieldID, Style: o.Style, TextStyle: o.textStyle()}, nil
	case layout.KindLine:
		return layout.Line{Start: pointIn(o.LineStart), End: pointIn(o.LineEnd), Width: o.Width}, nil
	case layout.KindGroup:
		return layout.Group{Rect: rectIn(o.Rect), Style: o.Style}, nil
	case layout.KindTable:
		t := layout.Table{
			Rect:     rectIn(o.Rect),
			Caption:  o.Text,
			RowCount: o.RowCount,
			Font:     fontIn(o.Font),
			Filled:   o.Filled,
		}
		for _, c := range o.TableColumns {
			t.Columns = append(t.Columns, layout.TableColumn{
				FieldID: c.FieldID,
				Width:   c.Width,
				HAlign:  layout.Align(c.HAlign),
				Header:  c.Header,
				Value:   c.Value,
			})
		}
		return t, nil
	case layout.KindMeibo:
		m := layout.Meibo{Rect: rectIn(o.Rect)}
		if o.Meibo != nil {
			m.Roster = layout.Roster{
				RefName:        o.Meibo.RefName,
				RowCount:       o.Meibo.RowCount,
				Direction:      layout.Direction(o.Meibo.Direction),
				Origin:         layout.Point{X: o.Meibo.OriginX, Y: o.Meibo.OriginY},
				CellWidth:      o.Meibo.CellWidth,
				CellHeight:     o.Meibo.CellHeight,
				DataStartIndex: o.Meibo.DataStartIndex,
			}
		}
		return m, nil
	case layout.KindImage:
		img := layout.Image{Rect: rectIn(o.Rect)}
		if o.Image != nil {
			if o.Rect == nil {
				img.Rect = rectIn(o.Image.Rect)
			}
			img.Image = layout.EmbeddedImage{
				Data:         o.Image.ImageData,
				OriginalPath: o.Image.OriginalPath,
			}
		}
		return img, nil
	}
	return nil, errors.New(errors.ErrCodeFormat, "unsupported object type %q", o.Type)
}

// ImportJSON reads the layout stored at path.
func ImportJSON(path string) (*layout.LayFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	lay, err := ReadJSON(f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	return lay, nil
}
