// Package photo matches student photos to records and prepares them for
// embedding into a layout.
//
// Matching works on keys derived from a record: class numbers first, then
// names. A [Source] maps keys to raw image bytes; [DirSource] indexes a
// directory of image files by file stem, [MapSource] holds bytes in memory.
package photo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/text/width"

	"github.com/matzehuels/meibo/pkg/errors"
)

// DefaultMaxSide caps the long side of a prepared photo in pixels.
const DefaultMaxSide = 600

// MaxSourcePixels bounds the decoded size of a source photo. Larger images
// are rejected from their header before any pixel buffer is allocated.
const MaxSourcePixels = 64 << 20

// Extensions lists the file extensions indexed by OpenDir.
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff"}

// Source looks up raw image bytes by match key.
type Source interface {
	Lookup(key string) ([]byte, bool)
}

// MapSource is an in-memory Source.
type MapSource map[string][]byte

// Lookup implements Source.
func (m MapSource) Lookup(key string) ([]byte, bool) {
	b, ok := m[key]
	return b, ok
}

// DirSource serves photos from a directory, keyed by file stem. A stem like
// "1-1-01" is also reachable as "1-1-1", "01" and "1".
type DirSource struct {
	Dir   string
	paths map[string]string
}

// OpenDir indexes the image files directly inside dir. When two files claim
// the same key the first one in name order wins.
func OpenDir(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read photo dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !imageExt(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	s := &DirSource{Dir: dir, paths: make(map[string]string)}
	for _, name := range names {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		for _, k := range StemKeys(stem) {
			if _, dup := s.paths[k]; !dup {
				s.paths[k] = filepath.Join(dir, name)
			}
		}
	}
	return s, nil
}

func imageExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Len returns the number of indexed keys.
func (s *DirSource) Len() int { return len(s.paths) }

// Path returns the file behind key.
func (s *DirSource) Path(key string) (string, bool) {
	p, ok := s.paths[key]
	return p, ok
}

// Lookup implements Source. Unreadable files are reported as missing.
func (s *DirSource) Lookup(key string) ([]byte, bool) {
	p, ok := s.paths[key]
	if !ok {
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return b, true
}

var classKey = regexp.MustCompile(`^(\d+)-(\d+)-(\d+)$`)

// StemKeys returns the keys under which a file stem is indexed.
func StemKeys(stem string) []string {
	stem = strings.TrimSpace(stem)
	if stem == "" {
		return nil
	}
	keys := []string{stem}
	if m := classKey.FindStringSubmatch(stem); m != nil {
		g, _ := strconv.Atoi(m[1])
		c, _ := strconv.Atoi(m[2])
		n, _ := strconv.Atoi(m[3])
		if k := fmt.Sprintf("%d-%d-%d", g, c, n); k != stem {
			keys = append(keys, k)
		}
		keys = append(keys, m[3])
		if k := strconv.Itoa(n); k != m[3] {
			keys = append(keys, k)
		}
		return keys
	}
	if n, err := strconv.Atoi(stem); err == nil && n >= 0 {
		if k := strconv.Itoa(n); k != stem {
			keys = append(keys, k)
		}
	}
	return keys
}

// Student holds the record values used for matching.
type Student struct {
	Grade     string
	Class     string
	Number    string
	Name      string
	LegalName string
}

// MatchKeys returns candidate keys in priority order: grade-class-number
// (padded, then unpadded), number alone (padded, then unpadded), the name
// and the legal name with spaces removed. Fullwidth digits are narrowed.
func MatchKeys(s Student) []string {
	grade, class, num := normalize(s.Grade), normalize(s.Class), normalize(s.Number)

	var keys []string
	if n, err := strconv.Atoi(num); err == nil {
		g, gerr := strconv.Atoi(grade)
		c, cerr := strconv.Atoi(class)
		if gerr == nil && cerr == nil {
			keys = append(keys, fmt.Sprintf("%d-%d-%02d", g, c, n), fmt.Sprintf("%d-%d-%d", g, c, n))
		}
		keys = append(keys, fmt.Sprintf("%02d", n), strconv.Itoa(n))
	}
	for _, name := range []string{s.Name, s.LegalName} {
		if k := stripSpaces(name); k != "" {
			keys = append(keys, k)
		}
	}
	return dedupe(keys)
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return width.Narrow.String(v)
}

func stripSpaces(s string) string {
	return strings.NewReplacer(" ", "", "　", "").Replace(strings.TrimSpace(s))
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// Find returns the first key of keys present in src.
func Find(src Source, keys []string) (data []byte, key string, ok bool) {
	if src == nil {
		return nil, "", false
	}
	for _, k := range keys {
		if b, found := src.Lookup(k); found {
			return b, k, true
		}
	}
	return nil, "", false
}

// Prepare decodes a photo, applies its EXIF orientation, flattens it onto
// white, center-crops it to the aspect ratio targetW:targetH (skipped when
// either is zero), caps the long side at maxSide pixels and returns PNG
// bytes.
func Prepare(data []byte, targetW, targetH, maxSide int) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "decode photo header")
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, errors.New(errors.ErrCodeResource, "photo too large: %dx%d", cfg.Width, cfg.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResource, err, "decode photo")
	}
	b := img.Bounds()
	flat := imaging.New(b.Dx(), b.Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	var out image.Image = flat
	if targetW > 0 && targetH > 0 {
		out = cropToAspect(flat, targetW, targetH)
	}
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	if w, h := out.Bounds().Dx(), out.Bounds().Dy(); max(w, h) > maxSide {
		if w >= h {
			out = imaging.Resize(out, maxSide, max(1, h*maxSide/w), imaging.Lanczos)
		} else {
			out = imaging.Resize(out, max(1, w*maxSide/h), maxSide, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

func cropToAspect(img *image.NRGBA, tw, th int) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	target := float64(tw) / float64(th)
	current := float64(w) / float64(h)
	switch {
	case current > target:
		return imaging.CropCenter(img, max(1, int(float64(h)*target)), h)
	case current < target:
		return imaging.CropCenter(img, w, max(1, int(float64(w)/target)))
	}
	return img
}
