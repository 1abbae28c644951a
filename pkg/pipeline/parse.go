package pipeline

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/fill"
	layio "github.com/matzehuels/meibo/pkg/io"
	"github.com/matzehuels/meibo/pkg/layout"
)

// IsJSON reports whether data looks like a JSON mirror rather than a .lay
// container.
func IsJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func (r *Runner) parseJSON(data []byte) (*layout.LayFile, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	return layio.Unmarshal(data)
}

// encodeLayouts stores layouts as a JSON array of mirrors.
func encodeLayouts(layouts []*layout.LayFile) ([]byte, error) {
	raws := make([]json.RawMessage, len(layouts))
	for i, l := range layouts {
		data, err := layio.Marshal(l)
		if err != nil {
			return nil, err
		}
		raws[i] = data
	}
	return json.Marshal(raws)
}

func decodeLayouts(data []byte) ([]*layout.LayFile, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormat, err, "decode cached layouts")
	}
	if len(raws) == 0 {
		return nil, errors.New(errors.ErrCodeFormat, "empty cached layout list")
	}
	out := make([]*layout.LayFile, len(raws))
	for i, raw := range raws {
		l, err := layio.Unmarshal(raw)
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}

// SelectLayout picks a layout by title, or by 1-based index when name is a
// number. An empty name picks the first layout.
func SelectLayout(layouts []*layout.LayFile, name string) (*layout.LayFile, error) {
	if len(layouts) == 0 {
		return nil, errors.New(errors.ErrCodeFormat, "no layouts in input")
	}
	if name == "" {
		return layouts[0], nil
	}
	for _, l := range layouts {
		if l.Title == name {
			return l, nil
		}
	}
	if n, err := strconv.Atoi(name); err == nil && n >= 1 && n <= len(layouts) {
		return layouts[n-1], nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "layout %q not found (%d available)", name, len(layouts))
}

// ReadRecords decodes a JSON array of record objects. Numbers keep their
// literal text so that codes like 出席番号 survive unchanged.
func ReadRecords(r io.Reader) ([]fill.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var records []fill.Record
	if err := dec.Decode(&records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode records")
	}
	return records, nil
}
