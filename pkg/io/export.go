package io

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/layout"
)

// FormatFor returns the format tag lay is written with.
func FormatFor(lay *layout.LayFile) string {
	if lay.Paper != nil {
		return FormatV2
	}
	for _, o := range lay.Objects {
		switch v := o.(type) {
		case layout.Table:
			if len(v.Columns) > 0 {
				return FormatV2
			}
		case layout.Meibo, layout.Image:
			return FormatV2
		}
	}
	return FormatV1
}

func toDocument(lay *layout.LayFile) document {
	doc := document{
		Format:     FormatFor(lay),
		Title:      lay.Title,
		Version:    lay.Version,
		PageWidth:  lay.PageWidth,
		PageHeight: lay.PageHeight,
		Objects:    make([]object, 0, len(lay.Objects)),
		Paper:      paperOut(lay.Paper),
	}
	for _, o := range lay.Objects {
		doc.Objects = append(doc.Objects, toObject(o))
	}
	return doc
}

func toObject(o layout.Object) object {
	out := object{Type: o.Kind().String()}
	switch v := o.(type) {
	case layout.Label:
		out.Rect = rectOut(v.Rect)
		out.Text = v.Text
		out.Style = v.Style
		out.setTextStyle(v.TextStyle)
	case layout.Field:
		out.Rect = rectOut(v.Rect)
		out.FieldID = v.FieldID
		out.Style = v.Style
		out.setTextStyle(v.TextStyle)
	case layout.Line:
		out.LineStart = pointOut(v.Start)
		out.LineEnd = pointOut(v.End)
		out.Width = v.Width
	case layout.Group:
		out.Rect = rectOut(v.Rect)
		out.Style = v.Style
	case layout.Table:
		out.Rect = rectOut(v.Rect)
		out.Text = v.Caption
		out.RowCount = v.RowCount
		out.Filled = v.Filled
		out.Font = fontOut(v.Font)
		for _, c := range v.Columns {
			out.TableColumns = append(out.TableColumns, column{
				FieldID: c.FieldID,
				Width:   c.Width,
				HAlign:  int(c.HAlign),
				Header:  c.Header,
				Value:   c.Value,
			})
		}
	case layout.Meibo:
		out.Rect = rectOut(v.Rect)
		r := v.Roster
		out.Meibo = &meibo{
			OriginX:        r.Origin.X,
			OriginY:        r.Origin.Y,
			CellWidth:      r.CellWidth,
			CellHeight:     r.CellHeight,
			RowCount:       r.RowCount,
			DataStartIndex: r.DataStartIndex,
			RefName:        r.RefName,
			Direction:      int(r.Direction),
		}
	case layout.Image:
		out.Rect = rectOut(v.Rect)
		out.Image = &image{
			Rect:         rectOut(v.Rect),
			ImageData:    v.Image.Data,
			OriginalPath: v.Image.OriginalPath,
		}
	}
	return out
}

// Marshal returns the indented JSON mirror of lay.
func Marshal(lay *layout.LayFile) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(lay, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes lay as JSON and writes it to w. Non-ASCII text is
// written as is.
func WriteJSON(lay *layout.LayFile, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(toDocument(lay)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode layout %q", lay.Title)
	}
	return nil
}

// ExportJSON writes lay to path, creating the parent directory if needed.
// The file is replaced atomically.
func ExportJSON(lay *layout.LayFile, path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	f, err := os.CreateTemp(dir, ".layout_*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create temp file in %s", dir)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err := WriteJSON(lay, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "replace %s", path)
	}
	return nil
}
