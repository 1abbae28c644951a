// Package lay parses .lay print-layout documents into [layout.LayFile]
// values.
//
// A .lay file is a container (see package container) around a body that
// starts with a uint16 version and a uint32 informational size, followed by a
// TLV stream nested several levels deep:
//
//	document ─ title, flags, locale
//	         └ content ─ sheet geometry (mode, item size, grid, spacing, margins)
//	                   └ object list ─ label / field / line / table / meibo / image
//	                                 └ group ─ nested object list ...
//	                                   └ per-object properties ─ font block
//
// Unknown tags are skipped at every level; the format has no public
// specification and newer writers add tags freely. Malformed containers and
// TLV overruns are FORMAT_ERRORs and make the whole file unreadable.
package lay

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meibo/pkg/container"
	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/tlv"
)

// bodyHeaderLen covers the version and the informational body size.
const bodyHeaderLen = 6

// maxDepth bounds group nesting to protect against crafted files.
const maxDepth = 32

// Parser turns decompressed bodies into layouts. The zero value is usable
// and logs nothing.
type Parser struct {
	// Logger receives debug messages about unhandled style flags.
	Logger *log.Logger

	// MaxBodySize caps the declared decompressed size. Zero means
	// container.DefaultMaxSize.
	MaxBodySize int64
}

// New returns a parser that logs to logger.
func New(logger *log.Logger) *Parser {
	return &Parser{Logger: logger}
}

var defaultParser = &Parser{}

// Parse decodes a .lay file and returns its main layout.
func Parse(data []byte) (*layout.LayFile, error) { return defaultParser.Parse(data) }

// ParseMulti decodes a .lay file and returns the main layout followed by
// every additional layout block.
func ParseMulti(data []byte) ([]*layout.LayFile, error) { return defaultParser.ParseMulti(data) }

// ParseFile reads and parses the main layout of the file at path.
func ParseFile(path string) (*layout.LayFile, error) { return defaultParser.ParseFile(path) }

// Parse decodes a .lay file and returns its main layout.
func (p *Parser) Parse(data []byte) (*layout.LayFile, error) {
	body, err := container.DecodeLimit(data, p.MaxBodySize)
	if err != nil {
		return nil, err
	}
	lays, err := p.parseBody(body, false)
	if err != nil {
		return nil, err
	}
	return lays[0], nil
}

// ParseMulti decodes a .lay file and returns all layouts it contains.
func (p *Parser) ParseMulti(data []byte) ([]*layout.LayFile, error) {
	body, err := container.DecodeLimit(data, p.MaxBodySize)
	if err != nil {
		return nil, err
	}
	return p.parseBody(body, true)
}

// ParseFile reads and parses the main layout of the file at path.
func (p *Parser) ParseFile(path string) (*layout.LayFile, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(data)
}

// ParseFileMulti reads and parses every layout of the file at path.
func (p *Parser) ParseFileMulti(path string) ([]*layout.LayFile, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseMulti(data)
}

// ParseBody parses an already decompressed body.
func (p *Parser) ParseBody(body []byte) (*layout.LayFile, error) {
	lays, err := p.parseBody(body, false)
	if err != nil {
		return nil, err
	}
	return lays[0], nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "layout file %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read layout file %s", path)
	}
	return data, nil
}

func (p *Parser) logger() *log.Logger {
	if p.Logger == nil {
		return log.New(io.Discard)
	}
	return p.Logger
}

func (p *Parser) parseBody(body []byte, multi bool) ([]*layout.LayFile, error) {
	if len(body) < bodyHeaderLen {
		return nil, errors.New(errors.ErrCodeFormat,
			"decompressed body too short: %d bytes (minimum %d)", len(body), bodyHeaderLen)
	}
	version := int(binary.LittleEndian.Uint16(body))

	main := newDocument(version)
	var extra []*layout.LayFile

	w := tlv.NewWalker(body, bodyHeaderLen)
	for w.Next() {
		e := w.Entry()
		switch e.Tag {
		case TagLayoutEntry:
			if !multi {
				continue
			}
			sub := newDocument(version)
			if err := p.parseDocument(sub, w.Sub(e)); err != nil {
				return nil, err
			}
			extra = append(extra, sub)
		case TagTitle, TagContent, TagFlag1, TagFlag2, TagLCID:
			if err := p.documentEntry(main, w, e); err != nil {
				return nil, err
			}
		}
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	return append([]*layout.LayFile{main}, extra...), nil
}

func newDocument(version int) *layout.LayFile {
	lay := layout.New("")
	lay.Version = version
	return lay
}

func (p *Parser) parseDocument(lay *layout.LayFile, w *tlv.Walker) error {
	for w.Next() {
		if err := p.documentEntry(lay, w, w.Entry()); err != nil {
			return err
		}
	}
	return w.Err()
}

// documentEntry applies one document-level record. Later titles and content
// blocks replace earlier ones.
func (p *Parser) documentEntry(lay *layout.LayFile, w *tlv.Walker, e tlv.Entry) error {
	switch e.Tag {
	case TagTitle:
		if len(e.Payload) >= 2 {
			lay.Title = tlv.UTF16(e.Payload)
		}
	case TagContent:
		return p.parseContent(lay, w.Sub(e))
	}
	return nil
}

// geometry collects the raw sheet geometry values of a content block.
type geometry struct {
	mode             int
	itemW, itemH     uint32
	cols, rows       uint32
	spaceH, spaceV   uint32
	marginL, marginT uint32
	hasItem          bool
	hasCount         bool
}

func (p *Parser) parseContent(lay *layout.LayFile, w *tlv.Walker) error {
	var (
		geo       geometry
		foundList bool
		pageW     = layout.DefaultPageWidth
		pageH     = layout.DefaultPageHeight
		objects   []layout.Object
	)

	for w.Next() {
		e := w.Entry()
		switch e.Tag {
		case TagContainer:
			if foundList {
				continue
			}
			objs, err := p.parseObjectList(w.Sub(e), 0)
			if err != nil {
				return err
			}
			objects, foundList = objs, true
		case TagGeoFlag:
			if len(e.Payload) >= 1 {
				geo.mode = int(e.Payload[0])
			}
		case TagGeoRect:
			if a, b, ok := tlv.Pair(e.Payload); ok && a > 0 && b > 0 {
				geo.itemW, geo.itemH, geo.hasItem = a, b, true
				pageW, pageH = int(a), int(b)
			}
		case TagGeoPoint2:
			if a, b, ok := tlv.Pair(e.Payload); ok {
				geo.cols, geo.rows, geo.hasCount = a, b, true
			}
		case TagGeoProp3:
			if a, b, ok := tlv.Pair(e.Payload); ok {
				geo.spaceH, geo.spaceV = a, b
			}
		case TagGeoProp4:
			if a, b, ok := tlv.Pair(e.Payload); ok {
				geo.marginL, geo.marginT = a, b
			}
		}
	}
	if err := w.Err(); err != nil {
		return err
	}

	lay.Objects = objects
	lay.PageWidth, lay.PageHeight = pageW, pageH
	lay.Paper = nil

	if geo.hasItem && geo.hasCount {
		paper := geo.paper()
		lay.Paper = paper
		if paper.Mode == layout.ModeFullPage {
			pw := int(math.Round(paper.PaperWidthMM() / layout.GeometryUnitMM))
			ph := int(math.Round(paper.PaperHeightMM() / layout.GeometryUnitMM))
			lay.PageWidth = max(lay.PageWidth, pw)
			lay.PageHeight = max(lay.PageHeight, ph)
		}
	}
	return nil
}

func (g geometry) paper() *layout.PaperLayout {
	u := layout.GeometryUnitMM
	p := &layout.PaperLayout{
		Mode:         g.mode,
		UnitMM:       u,
		ItemWidthMM:  float64(g.itemW) * u,
		ItemHeightMM: float64(g.itemH) * u,
		Cols:         int(g.cols),
		Rows:         int(g.rows),
		MarginLeftMM: float64(g.marginL) * u,
		MarginTopMM:  float64(g.marginT) * u,
		SpacingHMM:   float64(g.spaceH) * u,
		SpacingVMM:   float64(g.spaceV) * u,
	}
	p.DetectPaper()
	return p
}
