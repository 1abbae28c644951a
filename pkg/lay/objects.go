package lay

import (
	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/tlv"
)

// parseObjectList walks an object list. A nested container is a group: its
// children are appended first and the group outline after them.
func (p *Parser) parseObjectList(w *tlv.Walker, depth int) ([]layout.Object, error) {
	if depth > maxDepth {
		return nil, errors.New(errors.ErrCodeFormat, "object nesting deeper than %d levels", maxDepth)
	}

	var objects []layout.Object
	for w.Next() {
		e := w.Entry()
		switch e.Tag {
		case TagContainer:
			children, err := p.parseObjectList(w.Sub(e), depth+1)
			if err != nil {
				return nil, err
			}
			objects = append(objects, children...)
			g, ok, err := p.parseGroup(w.Sub(e))
			if err != nil {
				return nil, err
			}
			if ok {
				objects = append(objects, g)
			}
		case TagLine, TagLabel, TagField:
			obj, err := p.parseObject(e.Tag, w.Sub(e))
			if err != nil {
				return nil, err
			}
			objects = append(objects, obj)
		case TagTable:
			t, err := p.parseTable(w.Sub(e))
			if err != nil {
				return nil, err
			}
			objects = append(objects, t)
		case TagMeibo:
			m, err := p.parseMeibo(w.Sub(e))
			if err != nil {
				return nil, err
			}
			objects = append(objects, m)
		case TagImage:
			img, err := p.parseImage(w.Sub(e))
			if err != nil {
				return nil, err
			}
			objects = append(objects, img)
		}
	}
	return objects, w.Err()
}

// props holds the properties shared by the simple object blocks.
type props struct {
	rect       layout.Rect
	hasRect    bool
	start, end layout.Point
	text       []byte
	hasText    bool
	hAlign     layout.Align
	vAlign     layout.Align
	prefix     string
	suffix     string
	font       layout.FontInfo
	style      int
}

func (p *Parser) readProps(w *tlv.Walker) (props, error) {
	pr := props{font: layout.DefaultFont()}
	for w.Next() {
		e := w.Entry()
		switch e.Tag {
		case TagStyle:
			if v, ok := tlv.Int32(e.Payload); ok {
				pr.style = int(v)
			}
		case TagGeoRect:
			if q, ok := tlv.Quad(e.Payload); ok {
				pr.rect = layout.Rect{Left: int(q[0]), Top: int(q[1]), Right: int(q[2]), Bottom: int(q[3])}
				pr.hasRect = true
			} else if x, y, ok := tlv.Pair(e.Payload); ok {
				pr.start = layout.Point{X: int(x), Y: int(y)}
			}
		case TagGeoPoint2:
			if x, y, ok := tlv.Pair(e.Payload); ok {
				pr.end = layout.Point{X: int(x), Y: int(y)}
			}
		case TagText:
			pr.text, pr.hasText = e.Payload, true
		case TagHAlign:
			if v, ok := tlv.Int32(e.Payload); ok && len(e.Payload) == 4 {
				pr.hAlign = layout.Align(v)
			}
		case TagVAlign:
			if v, ok := tlv.Int32(e.Payload); ok && len(e.Payload) == 4 {
				pr.vAlign = layout.Align(v)
			}
		case TagPrefix:
			if len(e.Payload) >= 2 {
				pr.prefix = tlv.UTF16(e.Payload)
			}
		case TagSuffix:
			if len(e.Payload) >= 2 {
				pr.suffix = tlv.UTF16(e.Payload)
			}
		case TagFont:
			f, err := parseFont(w.Sub(e))
			if err != nil {
				return pr, err
			}
			pr.font = f
		}
	}
	return pr, w.Err()
}

func (pr props) textStyle() layout.TextStyle {
	return layout.TextStyle{
		Font:   pr.font,
		HAlign: pr.hAlign,
		VAlign: pr.vAlign,
		Prefix: pr.prefix,
		Suffix: pr.suffix,
	}
}

func (p *Parser) parseObject(tag uint16, w *tlv.Walker) (layout.Object, error) {
	pr, err := p.readProps(w)
	if err != nil {
		return nil, err
	}

	switch tag {
	case TagLine:
		return layout.Line{Start: pr.start, End: pr.end, Width: pr.style}, nil
	case TagField:
		f := layout.Field{Rect: pr.rect, Style: pr.style, TextStyle: pr.textStyle()}
		if id, ok := tlv.Uint32(pr.text); ok && pr.hasText {
			f.FieldID = id
		}
		return f, nil
	default:
		l := layout.Label{Rect: pr.rect, Style: pr.style, TextStyle: pr.textStyle()}
		if len(pr.text) >= 2 {
			l.Text = tlv.UTF16(pr.text)
		}
		if !layout.KnownLabelStyle(l.Style) {
			p.logger().Debug("unhandled label style flag", "style", l.Style, "text", l.Text)
		}
		return l, nil
	}
}

func (p *Parser) parseGroup(w *tlv.Walker) (layout.Group, bool, error) {
	pr, err := p.readProps(w)
	if err != nil {
		return layout.Group{}, false, err
	}
	if !pr.hasRect {
		return layout.Group{}, false, nil
	}
	if !layout.KnownGroupStyle(pr.style) {
		p.logger().Debug("unhandled group style flag", "style", pr.style, "rect", pr.rect)
	}
	return layout.Group{Rect: pr.rect, Style: pr.style}, true, nil
}

func parseFont(w *tlv.Walker) (layout.FontInfo, error) {
	f := layout.DefaultFont()
	for w.Next() {
		e := w.Entry()
		switch e.Tag {
		case TagFontName:
			if len(e.Payload) >= 2 {
				f.Name = tlv.UTF16(e.Payload)
			}
		case TagFontStyle:
			if v, ok := tlv.Uint32(e.Payload); ok && len(e.Payload) == 4 {
				f.Bold = v&FontStyleBold != 0
				f.Italic = v&FontStyleItalic != 0
			}
		case TagFontSize:
			if v, ok := tlv.Uint32(e.Payload); ok && len(e.Payload) == 4 {
				f.SizePt = float64(v) / 10
			}
		}
	}
	return f, w.Err()
}

func (p *Parser) parseTable(w *tlv.Walker) (layout.Table, error) {
	t := layout.Table{Font: layout.DefaultFont()}
	for w.Next() {
		e := w.Entry()
		switch e.Tag {
		case TagGeoRect:
			if q, ok := tlv.Quad(e.Payload); ok {
				t.Rect = layout.Rect{Left: int(q[0]), Top: int(q[1]), Right: int(q[2]), Bottom: int(q[3])}
			}
		case TagText:
			if len(e.Payload) >= 2 {
				t.Caption = tlv.UTF16(e.Payload)
			}
		case TagFont:
			col, err := parseColumn(w.Sub(e))
			if err != nil {
				return t, err
			}
			t.Columns = append(t.Columns, col)
		case TagGeoProp3:
			if v, ok := tlv.Uint32(e.Payload); ok && len(e.Payload) == 4 && v > 0 {
				t.Font.SizePt = float64(v) / 10
			}
		case TagGeoProp4:
			if v, ok := tlv.Uint32(e.Payload); ok && len(e.Payload) == 4 {
				t.RowCount = int(v)
			}
		}
	}
	return t, w.Err()
}

func parseColumn(w *tlv.Walker) (layout.TableColumn, error) {
	var c layout.TableColumn
	for w.Next() {
		e := w.Entry()
		switch e.Tag {
		case TagColumnFieldID:
			if v, ok := tlv.Uint32(e.Payload); ok {
				c.FieldID = v
			}
		case TagColumnWidth:
			if v, ok := tlv.Uint32(e.Payload); ok {
				c.Width = int(v)
			}
		case TagColumnAlign:
			if v, ok := tlv.Uint32(e.Payload); ok {
				c.HAlign = layout.Align(v)
			}
		case TagColumnHeader:
			if len(e.Payload) >= 2 {
				c.Header = tlv.UTF16(e.Payload)
			}
		}
	}
	return c, w.Err()
}

func (p *Parser) parseMeibo(w *tlv.Walker) (layout.Meibo, error) {
	var m layout.Meibo
	for w.Next() {
		e := w.Entry()
		switch e.Tag {
		case TagText:
			if len(e.Payload) >= 2 {
				m.Roster.RefName = tlv.UTF16(e.Payload)
			}
		case TagGeoRect:
			if q, ok := tlv.Quad(e.Payload); ok {
				m.Rect = layout.Rect{Left: int(q[0]), Top: int(q[1]), Right: int(q[2]), Bottom: int(q[3])}
				m.Roster.Origin = layout.Point{X: m.Rect.Left, Y: m.Rect.Top}
			}
		case TagGeoPoint2:
			if cw, ch, ok := tlv.Pair(e.Payload); ok {
				m.Roster.CellWidth, m.Roster.CellHeight = int(cw), int(ch)
			}
		case TagGeoProp3:
			if v, ok := tlv.Uint32(e.Payload); ok {
				m.Roster.RowCount = int(v)
			}
		case TagGeoProp4:
			if v, ok := tlv.Uint32(e.Payload); ok {
				m.Roster.DataStartIndex = int(v)
			}
		case TagGeoFlag:
			if v, ok := tlv.Uint32(e.Payload); ok {
				m.Roster.Direction = layout.Direction(v)
			} else if len(e.Payload) >= 1 {
				m.Roster.Direction = layout.Direction(e.Payload[0])
			}
		}
	}
	if d := m.Roster.Direction; d != layout.DirectionVertical && d != layout.DirectionHorizontal {
		p.logger().Debug("unhandled roster direction", "direction", d, "ref", m.Roster.RefName)
		m.Roster.Direction = layout.DirectionVertical
	}
	return m, w.Err()
}

func (p *Parser) parseImage(w *tlv.Walker) (layout.Image, error) {
	var img layout.Image
	for w.Next() {
		e := w.Entry()
		switch e.Tag {
		case TagGeoRect:
			if q, ok := tlv.Quad(e.Payload); ok {
				img.Rect = layout.Rect{Left: int(q[0]), Top: int(q[1]), Right: int(q[2]), Bottom: int(q[3])}
			}
		case TagText:
			img.Image.Data = append([]byte(nil), e.Payload...)
		case TagPrefix:
			if len(e.Payload) >= 2 {
				img.Image.OriginalPath = tlv.UTF16(e.Payload)
			}
		}
	}
	return img, w.Err()
}
