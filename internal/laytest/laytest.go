// Package laytest builds synthetic .lay files for tests.
//
// Records are assembled bottom-up:
//
//	body := laytest.Body(1,
//		laytest.Title("出席簿"),
//		laytest.Content(
//			laytest.ObjectList(
//				laytest.Label(laytest.Rect(10, 10, 200, 40), "氏名", laytest.Font("ＭＳ 明朝", 120, 0)),
//				laytest.Field(laytest.Rect(10, 50, 200, 80), 108),
//			),
//		),
//	)
//	data := laytest.File(t, body)
package laytest

import (
	"encoding/binary"
	"testing"

	"github.com/matzehuels/meibo/pkg/container"
	"github.com/matzehuels/meibo/pkg/tlv"
)

// Record is one encoded TLV record.
type Record []byte

// Tag values mirrored from package lay so that its internal tests can use
// this package without an import cycle.
const (
	tagTitle       = 0x05DC
	tagContent     = 0x05E1
	tagLayoutEntry = 0x0640

	tagStyle     = 0x03E8
	tagLine      = 0x03E9
	tagContainer = 0x03EA
	tagLabel     = 0x03EB
	tagField     = 0x03EC
	tagTable     = 0x03EF
	tagMeibo     = 0x03F0
	tagImage     = 0x03F1

	tagGeoFlag  = 0x07D0
	tagGeoRect  = 0x07D1
	tagGeoPair  = 0x07D2
	tagGeoProp3 = 0x07D3
	tagGeoProp4 = 0x07D4

	tagText   = 0x0BB9
	tagHAlign = 0x0BBA
	tagVAlign = 0x0BBB
	tagFont   = 0x0BBC
	tagPrefix = 0x0BBD
	tagSuffix = 0x0BBE
)

// Raw returns a record with an arbitrary tag and payload.
func Raw(tag uint16, payload []byte) Record {
	return Record(tlv.Append(nil, tag, payload))
}

func block(tag uint16, children []Record) Record {
	var payload []byte
	for _, c := range children {
		payload = append(payload, c...)
	}
	return Raw(tag, payload)
}

// Rect is an object rectangle.
func Rect(left, top, right, bottom int) Record {
	return Raw(tagGeoRect, tlv.PutQuad(uint32(left), uint32(top), uint32(right), uint32(bottom)))
}

// Text is a UTF-16 text property.
func Text(s string) Record { return Raw(tagText, tlv.EncodeUTF16(s)) }

// Style is a style flag.
func Style(v int) Record { return Raw(tagStyle, tlv.PutInt32(int32(v))) }

// HAlign and VAlign are alignment properties.
func HAlign(v int) Record { return Raw(tagHAlign, tlv.PutInt32(int32(v))) }

// VAlign is a vertical alignment property.
func VAlign(v int) Record { return Raw(tagVAlign, tlv.PutInt32(int32(v))) }

// Prefix is a field prefix.
func Prefix(s string) Record { return Raw(tagPrefix, tlv.EncodeUTF16(s)) }

// Suffix is a field suffix.
func Suffix(s string) Record { return Raw(tagSuffix, tlv.EncodeUTF16(s)) }

// Font is a font block. tenths is the size in tenths of a point and style
// carries the bold and italic bits.
func Font(name string, tenths, style int) Record {
	return block(tagFont, []Record{
		Raw(0x03E8, tlv.EncodeUTF16(name)),
		Raw(0x03E9, tlv.PutUint32(uint32(style))),
		Raw(0x03EA, tlv.PutUint32(uint32(tenths))),
	})
}

// Label is a static text object.
func Label(rect Record, text string, props ...Record) Record {
	return block(tagLabel, append([]Record{rect, Text(text)}, props...))
}

// Field is a data placeholder.
func Field(rect Record, id uint32, props ...Record) Record {
	return block(tagField, append([]Record{rect, Raw(tagText, tlv.PutUint32(id))}, props...))
}

// Line is a ruling from (x1, y1) to (x2, y2).
func Line(x1, y1, x2, y2, width int) Record {
	return block(tagLine, []Record{
		Raw(tagGeoRect, tlv.PutPair(uint32(x1), uint32(y1))),
		Raw(tagGeoPair, tlv.PutPair(uint32(x2), uint32(y2))),
		Style(width),
	})
}

// Group is a nested container. A nil rect produces a group without an
// outline.
func Group(rect Record, style int, children ...Record) Record {
	var recs []Record
	if rect != nil {
		recs = append(recs, rect, Style(style))
	}
	return block(tagContainer, append(recs, children...))
}

// Column is a table column block.
func Column(fieldID uint32, width, align int, header string) Record {
	return block(tagFont, []Record{
		Raw(0x03E8, tlv.PutUint32(fieldID)),
		Raw(0x03E9, tlv.PutUint32(uint32(width))),
		Raw(0x03EA, tlv.PutUint32(uint32(align))),
		Raw(0x03EB, tlv.EncodeUTF16(header)),
	})
}

// Table is a table object. rows may be zero to omit the explicit row count.
func Table(rect Record, caption string, rows int, cols ...Record) Record {
	recs := []Record{rect}
	if caption != "" {
		recs = append(recs, Text(caption))
	}
	if rows > 0 {
		recs = append(recs, Raw(tagGeoProp4, tlv.PutUint32(uint32(rows))))
	}
	return block(tagTable, append(recs, cols...))
}

// Meibo is a roster placeholder.
func Meibo(ref string, rect Record, cellW, cellH, rows, start, direction int) Record {
	return block(tagMeibo, []Record{
		Text(ref),
		rect,
		Raw(tagGeoPair, tlv.PutPair(uint32(cellW), uint32(cellH))),
		Raw(tagGeoProp3, tlv.PutUint32(uint32(rows))),
		Raw(tagGeoProp4, tlv.PutUint32(uint32(start))),
		Raw(tagGeoFlag, tlv.PutUint32(uint32(direction))),
	})
}

// Image is an embedded raster object.
func Image(rect Record, data []byte, path string) Record {
	recs := []Record{rect, Raw(tagText, data)}
	if path != "" {
		recs = append(recs, Prefix(path))
	}
	return block(tagImage, recs)
}

// ObjectList is the top-level object container of a content block.
func ObjectList(objects ...Record) Record { return block(tagContainer, objects) }

// Sheet holds the sheet geometry of a content block in 0.1 mm units.
type Sheet struct {
	Mode           int
	ItemW, ItemH   int
	Cols, Rows     int
	SpaceH, SpaceV int
	MarginL        int
	MarginT        int
}

// Records encodes the geometry tags.
func (s Sheet) Records() []Record {
	return []Record{
		Raw(tagGeoFlag, []byte{byte(s.Mode)}),
		Raw(tagGeoRect, tlv.PutPair(uint32(s.ItemW), uint32(s.ItemH))),
		Raw(tagGeoPair, tlv.PutPair(uint32(s.Cols), uint32(s.Rows))),
		Raw(tagGeoProp3, tlv.PutPair(uint32(s.SpaceH), uint32(s.SpaceV))),
		Raw(tagGeoProp4, tlv.PutPair(uint32(s.MarginL), uint32(s.MarginT))),
	}
}

// Content is a content block.
func Content(children ...Record) Record { return block(tagContent, children) }

// Title is a document title.
func Title(s string) Record { return Raw(tagTitle, tlv.EncodeUTF16(s)) }

// LayoutEntry is an additional layout of a multi-layout file.
func LayoutEntry(children ...Record) Record { return block(tagLayoutEntry, children) }

// Body prefixes records with the version and size header.
func Body(version int, records ...Record) []byte {
	var stream []byte
	for _, r := range records {
		stream = append(stream, r...)
	}
	body := make([]byte, 6, 6+len(stream))
	binary.LittleEndian.PutUint16(body[0:], uint16(version))
	binary.LittleEndian.PutUint32(body[2:], uint32(len(stream)))
	return append(body, stream...)
}

// File wraps body in a container.
func File(t testing.TB, body []byte) []byte {
	t.Helper()
	data, err := container.Encode(body)
	if err != nil {
		t.Fatalf("container.Encode: %v", err)
	}
	return data
}
