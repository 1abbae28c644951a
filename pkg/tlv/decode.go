package tlv

import (
	"encoding/binary"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Uint32 decodes the first four bytes of p.
func Uint32(p []byte) (uint32, bool) {
	if len(p) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(p), true
}

// Int32 decodes the first four bytes of p as a signed value.
func Int32(p []byte) (int32, bool) {
	v, ok := Uint32(p)
	return int32(v), ok
}

// Uint16 decodes the first two bytes of p.
func Uint16(p []byte) (uint16, bool) {
	if len(p) < 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(p), true
}

// Pair decodes a payload of exactly two uint32 values.
func Pair(p []byte) (a, b uint32, ok bool) {
	if len(p) != 8 {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint32(p), binary.LittleEndian.Uint32(p[4:]), true
}

// Quad decodes a payload of exactly four uint32 values.
func Quad(p []byte) (v [4]uint32, ok bool) {
	if len(p) != 16 {
		return v, false
	}
	for i := range v {
		v[i] = binary.LittleEndian.Uint32(p[i*4:])
	}
	return v, true
}

// UTF16 decodes UTF-16LE text. A trailing odd byte and trailing NUL
// terminators are dropped; invalid sequences become U+FFFD.
func UTF16(p []byte) string {
	if len(p)%2 == 1 {
		p = p[:len(p)-1]
	}
	b, err := utf16le.NewDecoder().Bytes(p)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(b), "\x00")
}

// EncodeUTF16 encodes s as UTF-16LE without a byte order mark.
func EncodeUTF16(s string) []byte {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil
	}
	return b
}

// PutUint32 returns v as a four-byte little-endian payload.
func PutUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// PutInt32 returns v as a four-byte little-endian payload.
func PutInt32(v int32) []byte { return PutUint32(uint32(v)) }

// PutPair returns a, b as an eight-byte payload.
func PutPair(a, b uint32) []byte {
	return append(PutUint32(a), PutUint32(b)...)
}

// PutQuad returns four values as a sixteen-byte payload.
func PutQuad(a, b, c, d uint32) []byte {
	return append(PutPair(a, b), PutPair(c, d)...)
}
