package tlv

import (
	"encoding/binary"

	"github.com/matzehuels/meibo/pkg/errors"
)

// HeaderSize is the size of a record header (tag + length).
const HeaderSize = 6

// Entry is a single record. Payload aliases the walked buffer.
type Entry struct {
	Tag     uint16
	Offset  int // absolute offset of the record header
	Payload []byte
}

// Walker iterates the records in data[pos:end].
//
//	w := tlv.NewWalker(body, 6)
//	for w.Next() {
//	    e := w.Entry()
//	    ...
//	}
//	if err := w.Err(); err != nil { ... }
type Walker struct {
	data []byte
	pos  int
	end  int
	base int
	cur  Entry
	err  error
}

// NewWalker returns a walker over data starting at offset start.
func NewWalker(data []byte, start int) *Walker {
	if start < 0 {
		start = 0
	}
	return &Walker{data: data, pos: start, end: len(data)}
}

// Sub returns a walker over the payload of e. Offsets reported by the
// returned walker stay absolute with respect to the outermost buffer.
func (w *Walker) Sub(e Entry) *Walker {
	return &Walker{data: e.Payload, end: len(e.Payload), base: e.Offset + HeaderSize}
}

// Next advances to the next record. It returns false at the end of the
// range or on error; callers must check Err afterwards.
func (w *Walker) Next() bool {
	if w.err != nil || w.pos+HeaderSize > w.end {
		return false
	}
	tag := binary.LittleEndian.Uint16(w.data[w.pos:])
	length := binary.LittleEndian.Uint32(w.data[w.pos+2:])
	start := w.pos + HeaderSize
	if uint64(start)+uint64(length) > uint64(w.end) {
		w.err = errors.New(errors.ErrCodeFormat,
			"tlv payload exceeds range: tag=0x%04X offset=%d length=%d available=%d",
			tag, w.base+w.pos, length, w.end-start)
		return false
	}
	stop := start + int(length)
	w.cur = Entry{Tag: tag, Offset: w.base + w.pos, Payload: w.data[start:stop]}
	w.pos = stop
	return true
}

// Entry returns the current record.
func (w *Walker) Entry() Entry { return w.cur }

// Err returns the first error encountered.
func (w *Walker) Err() error { return w.err }

// All collects every record of data. It is a convenience for small blocks.
func All(data []byte) ([]Entry, error) {
	var out []Entry
	w := NewWalker(data, 0)
	for w.Next() {
		out = append(out, w.Entry())
	}
	return out, w.Err()
}

// Append encodes one record onto dst.
func Append(dst []byte, tag uint16, payload []byte) []byte {
	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[0:], tag)
	binary.LittleEndian.PutUint32(hdr[2:], uint32(len(payload)))
	dst = append(dst, hdr[:]...)
	return append(dst, payload...)
}
