package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/fill"
	layio "github.com/matzehuels/meibo/pkg/io"
	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/pipeline"
	"github.com/matzehuels/meibo/pkg/registry"
)

// =============================================================================
// Layout Input
// =============================================================================

// layoutSource is a resolved layout argument: the raw file bytes when the
// argument names a file, or a layout taken from the template directory.
type layoutSource struct {
	name string
	data []byte
	reg  *registry.Registry
}

// stem returns the base name used to derive output files.
func (s layoutSource) stem() string {
	base := filepath.Base(s.name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readLayoutSource resolves arg as a file path, falling back to a template
// name in the template directory. The registry is returned either way so
// that roster references resolve against the templates.
func (c *CLI) readLayoutSource(arg string) (layoutSource, error) {
	reg, err := c.openRegistry()
	if err != nil {
		return layoutSource{}, err
	}
	src := layoutSource{name: arg, reg: reg}

	data, err := os.ReadFile(arg)
	if err == nil {
		src.data = data
		return src, nil
	}
	if !os.IsNotExist(err) {
		return src, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", arg)
	}
	l, ok := reg.Lookup(arg)
	if !ok {
		return src, errors.New(errors.ErrCodeFileNotFound, "no such file or template: %s", arg)
	}
	c.Logger.Debug("using template", "name", arg, "dir", reg.Dir())
	if src.data, err = layio.Marshal(l); err != nil {
		return src, err
	}
	return src, nil
}

// layouts parses the source through runner and reports whether the parse
// came from the cache.
func (s layoutSource) layouts(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) ([]*layout.LayFile, bool, error) {
	layouts, hit, err := runner.ParseWithCacheInfo(ctx, s.name, s.data, opts)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", s.name, err)
	}
	return layouts, hit, nil
}

// selectFlags picks one layout from a multi-layout file.
type selectFlags struct {
	name string
	pick bool
}

func (f *selectFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.name, "layout", "l", "", "layout title or 1-based index in a multi-layout file")
	fs.BoolVar(&f.pick, "pick", false, "choose the layout interactively")
}

// choose returns the selected layout. With --pick and more than one
// layout, the interactive picker decides.
func (f *selectFlags) choose(layouts []*layout.LayFile, fallback string) (*layout.LayFile, error) {
	if f.pick && len(layouts) > 1 {
		return pickLayout(layouts)
	}
	name := f.name
	if name == "" {
		name = fallback
	}
	return pipeline.SelectLayout(layouts, name)
}

// readRecordsFile reads a JSON array of records. An empty path yields no
// records.
func readRecordsFile(path string) ([]fill.Record, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "records %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "records %s", path)
	}
	defer f.Close()
	recs, err := pipeline.ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("records %s: %w", path, err)
	}
	return recs, nil
}

// =============================================================================
// Pipeline Flags
// =============================================================================

// pipelineFlags holds the flags that override configured pipeline options.
// Only flags set on the command line take effect.
type pipelineFlags struct {
	fiscalYear   int
	school       string
	teacher      string
	nameDisplay  string
	photoDir     string
	photoMaxSide int

	tile        bool
	paper       string
	orientation string

	dpi     int
	mode    string
	workers int
	refresh bool
}

func (f *pipelineFlags) registerFill(fs *pflag.FlagSet) {
	fs.IntVar(&f.fiscalYear, "fiscal-year", 0, "fiscal year for the 年度 field")
	fs.StringVar(&f.school, "school", "", "school name")
	fs.StringVar(&f.teacher, "teacher", "", "homeroom teacher name")
	fs.StringVar(&f.nameDisplay, "name-display", "", "name display: furigana (default), kanji, kana")
	fs.StringVar(&f.photoDir, "photos", "", "directory of student photos")
	fs.IntVar(&f.photoMaxSide, "photo-max-side", 0, "largest photo side in pixels")
	fs.IntVar(&f.workers, "workers", 0, "parallel fill and render workers")
}

func (f *pipelineFlags) registerRender(fs *pflag.FlagSet) {
	fs.BoolVar(&f.tile, "tile", false, "tile small layouts onto paper")
	fs.StringVar(&f.paper, "paper", "", "paper for tiling: A3, A4, A5, B4, B5 (default: layout's own)")
	fs.StringVar(&f.orientation, "orientation", "", "paper orientation: portrait (default), landscape")
	fs.IntVar(&f.dpi, "dpi", 0, fmt.Sprintf("output resolution (default %d)", pipeline.DefaultDPI))
	fs.StringVar(&f.mode, "mode", "", "render mode: print (default), preview, editor")
	fs.BoolVar(&f.refresh, "refresh", false, "bypass cached results")
}

// apply copies the flags the user set onto opts.
func (f *pipelineFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fs := cmd.Flags()
	set := func(name string, fn func()) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			fn()
		}
	}
	set("fiscal-year", func() { opts.FiscalYear = f.fiscalYear })
	set("school", func() { opts.SchoolName = f.school })
	set("teacher", func() { opts.TeacherName = f.teacher })
	set("name-display", func() { opts.NameDisplay = f.nameDisplay })
	set("photos", func() { opts.PhotoDir = f.photoDir })
	set("photo-max-side", func() { opts.PhotoMaxSide = f.photoMaxSide })
	set("workers", func() { opts.Workers = f.workers })
	set("tile", func() { opts.Tile = f.tile })
	set("paper", func() { opts.Paper = f.paper })
	set("orientation", func() { opts.Orientation = f.orientation })
	set("dpi", func() { opts.DPI = f.dpi })
	set("mode", func() { opts.Mode = f.mode })
	set("refresh", func() { opts.Refresh = f.refresh })
}

// withRegistry points opts at reg for roster references.
func withRegistry(opts *pipeline.Options, reg *registry.Registry) {
	if reg != nil {
		opts.Registry = reg
	}
}
