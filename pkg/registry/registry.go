// Package registry manages a directory of layouts.
//
// A [Registry] loads every .json mirror and .lay file in its directory and
// resolves roster references by layout title or file stem, so it can be
// passed wherever a fill or render registry is expected. It also imports
// .lay files into the directory as JSON, renames and deletes layouts.
//
// A [Scanner] lists template metadata for a directory, caching each entry
// under a key derived from the file's path, modification time and size.
package registry

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meibo/pkg/errors"
	layio "github.com/matzehuels/meibo/pkg/io"
	"github.com/matzehuels/meibo/pkg/lay"
	"github.com/matzehuels/meibo/pkg/layout"
)

// File extensions the registry reads.
const (
	ExtJSON = ".json"
	ExtLay  = ".lay"
)

// Registry is a set of layouts addressable by title and file stem. It is
// safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	dir    string
	parser *lay.Parser
	logger *log.Logger
	files  map[string]*layout.LayFile // loaded from dir
	extra  map[string]*layout.LayFile // added in memory
}

// New returns an empty registry rooted at dir. An empty dir gives a purely
// in-memory registry.
func New(dir string, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Registry{
		dir:    dir,
		parser: lay.New(logger),
		logger: logger,
		files:  make(map[string]*layout.LayFile),
		extra:  make(map[string]*layout.LayFile),
	}
}

// Open returns a registry loaded from dir.
func Open(dir string, logger *log.Logger) (*Registry, error) {
	r := New(dir, logger)
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the registry directory.
func (r *Registry) Dir() string { return r.dir }

// Load rereads the directory. Files that fail to load are logged and
// skipped. A missing directory loads as empty.
func (r *Registry) Load() error {
	files := make(map[string]*layout.LayFile)
	if r.dir != "" {
		entries, err := os.ReadDir(r.dir)
		if err != nil && !os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "read layout dir %s", r.dir)
		}
		for _, e := range entries {
			if e.IsDir() || !readable(e.Name()) {
				continue
			}
			path := filepath.Join(r.dir, e.Name())
			lays, err := r.loadFile(path)
			if err != nil {
				r.logger.Warn("skipping layout", "path", path, "err", err)
				continue
			}
			stem := stemOf(path)
			for i, l := range lays {
				register(files, l, i == 0, stem)
			}
		}
	}

	r.mu.Lock()
	r.files = files
	r.mu.Unlock()
	r.logger.Debug("loaded layouts", "dir", r.dir, "keys", len(files))
	return nil
}

func (r *Registry) loadFile(path string) ([]*layout.LayFile, error) {
	if strings.EqualFold(filepath.Ext(path), ExtLay) {
		return r.parser.ParseFileMulti(path)
	}
	l, err := layio.ImportJSON(path)
	if err != nil {
		return nil, err
	}
	return []*layout.LayFile{l}, nil
}

// register adds l under its title and, when withStem is set, under stem.
// Titles take precedence over stems of other files.
func register(m map[string]*layout.LayFile, l *layout.LayFile, withStem bool, stem string) {
	if l.Title != "" {
		m[l.Title] = l
	}
	if withStem {
		if _, taken := m[stem]; !taken {
			m[stem] = l
		}
	}
}

// Add registers an in-memory layout under its title and the given aliases.
// In-memory layouts shadow layouts loaded from the directory.
func (r *Registry) Add(l *layout.LayFile, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.Title != "" {
		r.extra[l.Title] = l
	}
	for _, a := range aliases {
		r.extra[a] = l
	}
}

// Lookup returns the layout registered under name.
func (r *Registry) Lookup(name string) (*layout.LayFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.extra[name]; ok {
		return l, true
	}
	l, ok := r.files[name]
	return l, ok
}

// Names returns every registered key in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool, len(r.files)+len(r.extra))
	for k := range r.files {
		seen[k] = true
	}
	for k := range r.extra {
		seen[k] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Import stores the layout at src in the registry directory as JSON and
// returns the new file's path. The file is named after src's stem with
// _1, _2, ... appended on collision. A .lay source contributes its main
// layout.
func (r *Registry) Import(src string) (string, error) {
	if r.dir == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "registry has no directory")
	}
	var l *layout.LayFile
	var err error
	switch strings.ToLower(filepath.Ext(src)) {
	case ExtLay:
		l, err = r.parser.ParseFile(src)
	case ExtJSON:
		l, err = layio.ImportJSON(src)
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unsupported layout file %s", src)
	}
	if err != nil {
		return "", err
	}

	dest := uniquePath(r.dir, stemOf(src))
	if err := layio.ExportJSON(l, dest); err != nil {
		return "", err
	}
	r.logger.Info("imported layout", "src", src, "dest", dest, "title", l.Title)
	return dest, r.Load()
}

// Rename moves the JSON layout at path to newName.json in the same
// directory and sets its title to newName.
func (r *Registry) Rename(path, newName string) (string, error) {
	if err := errors.ValidateLayoutName(newName); err != nil {
		return "", err
	}
	dest := filepath.Join(filepath.Dir(path), newName+ExtJSON)
	same := samePath(dest, path)
	if _, err := os.Stat(dest); err == nil && !same {
		return "", errors.New(errors.ErrCodeInvalidInput, "layout %s already exists", filepath.Base(dest))
	}

	l, err := layio.ImportJSON(path)
	if err != nil {
		return "", err
	}
	l.Title = newName
	if err := layio.ExportJSON(l, dest); err != nil {
		return "", err
	}
	if !same {
		if err := os.Remove(path); err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "remove %s", path)
		}
	}
	return dest, r.Load()
}

// Delete removes the layout file at path. A missing file is not an error.
func (r *Registry) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInternal, err, "remove %s", path)
	}
	return r.Load()
}

func readable(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return (ext == ExtJSON || ext == ExtLay) && !strings.HasPrefix(name, ".")
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func uniquePath(dir, stem string) string {
	dest := filepath.Join(dir, stem+ExtJSON)
	for i := 1; ; i++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest
		}
		dest = filepath.Join(dir, stem+"_"+strconv.Itoa(i)+ExtJSON)
	}
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}
