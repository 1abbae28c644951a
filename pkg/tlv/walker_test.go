package tlv

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/meibo/pkg/errors"
)

func TestWalkerIteratesRecords(t *testing.T) {
	var buf []byte
	buf = Append(buf, 0x05DC, EncodeUTF16("名簿"))
	buf = Append(buf, 0x05DF, []byte{1})
	buf = Append(buf, 0x05DC, EncodeUTF16("dup"))

	var tags []uint16
	var texts []string
	w := NewWalker(buf, 0)
	for w.Next() {
		e := w.Entry()
		tags = append(tags, e.Tag)
		if e.Tag == 0x05DC {
			texts = append(texts, UTF16(e.Payload))
		}
	}
	if err := w.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if diff := cmp.Diff([]uint16{0x05DC, 0x05DF, 0x05DC}, tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"名簿", "dup"}, texts); diff != "" {
		t.Errorf("duplicate tags should all be reported (-want +got):\n%s", diff)
	}
}

func TestWalkerShortTailEndsIteration(t *testing.T) {
	buf := Append(nil, 0x0001, []byte{1, 2})
	buf = append(buf, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE) // five stray bytes

	entries, err := All(buf)
	if err != nil {
		t.Fatalf("short tail should not be an error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestWalkerOverrunIsFormatError(t *testing.T) {
	buf := Append(nil, 0x0001, []byte{1, 2, 3, 4})
	buf = buf[:len(buf)-1] // payload now one byte short

	_, err := All(buf)
	if err == nil {
		t.Fatal("expected error for payload overrun")
	}
	if !errors.Is(err, errors.ErrCodeFormat) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeFormat)
	}
}

func TestWalkerStartOffset(t *testing.T) {
	body := []byte{0x01, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}
	body = Append(body, 0x05E1, nil)

	w := NewWalker(body, 6)
	if !w.Next() {
		t.Fatalf("Next() = false, err = %v", w.Err())
	}
	if got := w.Entry(); got.Tag != 0x05E1 || got.Offset != 6 || len(got.Payload) != 0 {
		t.Errorf("Entry() = %+v", got)
	}
	if w.Next() {
		t.Error("Next() should be false at end")
	}
}

func TestSubWalkerReportsAbsoluteOffsets(t *testing.T) {
	inner := Append(nil, 0x07D1, []byte{1, 2, 3})
	inner = inner[:len(inner)-1]
	outer := Append(make([]byte, 6), 0x03EA, inner)

	w := NewWalker(outer, 6)
	if !w.Next() {
		t.Fatal("outer Next() = false")
	}
	sub := w.Sub(w.Entry())
	for sub.Next() {
	}
	err := sub.Err()
	if err == nil {
		t.Fatal("expected nested overrun error")
	}
	if msg := errors.UserMessage(err); !strings.Contains(msg, "offset=12") {
		t.Errorf("message %q should name absolute offset 12", msg)
	}
}

func TestDecoders(t *testing.T) {
	if v, ok := Uint32(PutUint32(1188)); !ok || v != 1188 {
		t.Errorf("Uint32 = %d, %v", v, ok)
	}
	if v, ok := Int32(PutInt32(-3)); !ok || v != -3 {
		t.Errorf("Int32 = %d, %v", v, ok)
	}
	if _, ok := Uint32([]byte{1, 2}); ok {
		t.Error("Uint32 on short payload should fail")
	}
	if a, b, ok := Pair(PutPair(840, 1188)); !ok || a != 840 || b != 1188 {
		t.Errorf("Pair = %d, %d, %v", a, b, ok)
	}
	if _, _, ok := Pair(PutQuad(1, 2, 3, 4)); ok {
		t.Error("Pair must require exactly eight bytes")
	}
	if q, ok := Quad(PutQuad(1, 2, 3, 4)); !ok || q != [4]uint32{1, 2, 3, 4} {
		t.Errorf("Quad = %v, %v", q, ok)
	}
}

func TestUTF16(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", EncodeUTF16("EXCMI"), "EXCMI"},
		{"japanese", EncodeUTF16("氏名かな"), "氏名かな"},
		{"surrogate pair", EncodeUTF16("𠮷野"), "𠮷野"},
		{"nul terminated", append(EncodeUTF16("組"), 0, 0), "組"},
		{"odd length", append(EncodeUTF16("A"), 0x42), "A"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UTF16(tt.in); got != tt.want {
				t.Errorf("UTF16() = %q, want %q", got, tt.want)
			}
		})
	}
}
