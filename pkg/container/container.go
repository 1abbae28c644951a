// Package container decodes the outer envelope of a .lay file.
//
// A .lay file starts with the ASCII string "EXCMIDataContainer01" encoded as
// UTF-16LE (40 bytes), followed by the declared size of the decompressed body
// as a uint32-LE, followed by a deflate stream. Files written by the legacy
// system wrap the stream in a zlib header; bare deflate streams are accepted
// as well.
//
// Every failure is a FORMAT_ERROR and names the step that failed ("too
// short", "header", "too large", "decompress", "size mismatch") together
// with the raw values involved.
package container

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/tlv"
)

// MagicText is the container signature before UTF-16LE encoding.
const MagicText = "EXCMIDataContainer01"

const (
	// HeaderLen is the length of the encoded signature.
	HeaderLen = 40

	// MinLen is the smallest possible container: signature plus size field.
	MinLen = HeaderLen + 4

	// DefaultMaxSize caps the declared body size accepted by Decode. Real
	// layouts inflate to a few hundred kilobytes.
	DefaultMaxSize = 64 << 20
)

// Magic is the encoded signature.
var Magic = tlv.EncodeUTF16(MagicText)

// Decode validates the envelope and returns the decompressed body. Bodies
// declared larger than DefaultMaxSize are rejected before inflating.
func Decode(data []byte) ([]byte, error) {
	return DecodeLimit(data, DefaultMaxSize)
}

// DecodeLimit is Decode with a caller-chosen cap on the declared body size.
// A limit of zero or less means DefaultMaxSize.
func DecodeLimit(data []byte, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	if len(data) < MinLen {
		return nil, errors.New(errors.ErrCodeFormat,
			"file too short: %d bytes (minimum %d)", len(data), MinLen)
	}

	header := data[:HeaderLen]
	if !bytes.Equal(header, Magic) {
		return nil, errors.New(errors.ErrCodeFormat,
			"invalid header: %q (hex %s)", tlv.UTF16(header), hex.EncodeToString(header))
	}

	declared := binary.LittleEndian.Uint32(data[HeaderLen:])
	if int64(declared) > limit {
		return nil, errors.New(errors.ErrCodeFormat,
			"declared size too large: %d bytes (limit %d)", declared, limit)
	}
	stream := data[MinLen:]

	r, err := inflater(stream)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "decompress failed at offset %d", MinLen)
	}
	defer r.Close()

	// Never read more than one byte beyond the declared size.
	body, err := io.ReadAll(io.LimitReader(r, int64(declared)+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "decompress failed at offset %d", MinLen)
	}
	if uint64(len(body)) != uint64(declared) {
		if uint64(len(body)) > uint64(declared) {
			return nil, errors.New(errors.ErrCodeFormat,
				"size mismatch: declared %d, inflated more than %d", declared, declared)
		}
		return nil, errors.New(errors.ErrCodeFormat,
			"size mismatch: declared %d, inflated %d", declared, len(body))
	}
	return body, nil
}

// inflater picks zlib when the stream carries a valid zlib header and raw
// deflate otherwise.
func inflater(stream []byte) (io.ReadCloser, error) {
	if hasZlibHeader(stream) {
		return zlib.NewReader(bytes.NewReader(stream))
	}
	return flate.NewReader(bytes.NewReader(stream)), nil
}

func hasZlibHeader(p []byte) bool {
	if len(p) < 2 {
		return false
	}
	cmf, flg := p[0], p[1]
	return cmf&0x0F == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// Encode wraps body in a container using a zlib stream.
func Encode(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(Magic)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(body)))
	buf.Write(size[:])

	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
