package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meibo/pkg/cache"
	"github.com/matzehuels/meibo/pkg/errors"
	layio "github.com/matzehuels/meibo/pkg/io"
	"github.com/matzehuels/meibo/pkg/lay"
	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/observability"
)

// Meta summarizes one template file.
type Meta struct {
	Name        string    `json:"name"`
	File        string    `json:"file"`
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	PageWidth   int       `json:"page_width"`
	PageHeight  int       `json:"page_height"`
	PageSizeMM  string    `json:"page_size_mm"`
	PaperSize   string    `json:"paper_size,omitempty"`
	ObjectCount int       `json:"object_count"`
	FieldCount  int       `json:"field_count"`
	LabelCount  int       `json:"label_count"`
	LineCount   int       `json:"line_count"`
	TableCount  int       `json:"table_count"`
	RosterCount int       `json:"roster_count"`
	Layouts     int       `json:"layouts"`
	ModTime     time.Time `json:"mod_time"`
}

// Describe returns the metadata of lay. File fields are left empty.
func Describe(l *layout.LayFile) Meta {
	u := l.UnitMM()
	m := Meta{
		Title:       l.Title,
		PageWidth:   l.PageWidth,
		PageHeight:  l.PageHeight,
		PageSizeMM:  fmt.Sprintf("%.0fx%.0fmm", float64(l.PageWidth)*u, float64(l.PageHeight)*u),
		ObjectCount: len(l.Objects),
		FieldCount:  l.Count(layout.KindField),
		LabelCount:  l.Count(layout.KindLabel),
		LineCount:   l.Count(layout.KindLine),
		TableCount:  l.Count(layout.KindTable),
		RosterCount: l.Count(layout.KindMeibo),
		Layouts:     1,
	}
	if l.Paper != nil {
		m.PaperSize = strings.TrimSpace(l.Paper.PaperSize + " " + l.Paper.Orientation)
	}
	return m
}

// Scanner lists template metadata with a cache keyed by path, mtime and
// size. Concurrent scans of the same file are last-writer-wins.
type Scanner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	parser *lay.Parser
}

// NewScanner returns a scanner. Nil arguments select a null cache, the
// default keyer and a discarding logger.
func NewScanner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Scanner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scanner{Cache: c, Keyer: keyer, Logger: logger, parser: lay.New(logger)}
}

// Scan returns the metadata of every .json and .lay file in dir, sorted by
// file name. Unreadable files are logged and skipped; a missing directory
// yields no entries.
func (s *Scanner) Scan(ctx context.Context, dir string) ([]Meta, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read template dir %s", dir)
	}

	var out []Meta
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !readable(e.Name()) {
			continue
		}
		m, _, err := s.Meta(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			s.Logger.Warn("skipping template", "file", e.Name(), "err", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Meta returns the metadata of the file at path and whether it came from
// the cache.
func (s *Scanner) Meta(ctx context.Context, path string) (Meta, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "stat %s", path)
		}
		return Meta{}, false, errors.Wrap(errors.ErrCodeInvalidPath, err, "stat %s", path)
	}
	key := s.Keyer.TemplateKey(path, info.ModTime(), info.Size())

	if data, hit, err := s.Cache.Get(ctx, key); err == nil && hit {
		var m Meta
		if json.Unmarshal(data, &m) == nil {
			observability.Cache().OnCacheHit(ctx, "template")
			return m, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "template")

	m, err := s.describeFile(path)
	if err != nil {
		return Meta{}, false, err
	}
	m.ModTime = info.ModTime()

	if data, err := json.Marshal(m); err == nil {
		if err := s.Cache.Set(ctx, key, data, cache.TTLTemplate); err != nil {
			s.Logger.Debug("template cache write failed", "path", path, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "template", len(data))
		}
	}
	return m, false, nil
}

func (s *Scanner) describeFile(path string) (Meta, error) {
	var lays []*layout.LayFile
	if strings.EqualFold(filepath.Ext(path), ExtLay) {
		var err error
		if lays, err = s.parser.ParseFileMulti(path); err != nil {
			return Meta{}, err
		}
	} else {
		l, err := layio.ImportJSON(path)
		if err != nil {
			return Meta{}, err
		}
		lays = []*layout.LayFile{l}
	}
	m := Describe(lays[0])
	m.Layouts = len(lays)
	m.Name = stemOf(path)
	m.File = filepath.Base(path)
	m.Path = path
	return m, nil
}
