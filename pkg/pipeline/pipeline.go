// Package pipeline provides the batch parse → fill → tile → render pipeline
// for meibo.
//
// The CLI and the HTTP service both drive layouts through this package so
// that caching, defaults and validation behave the same everywhere.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Parse: decode a .lay container (or its JSON mirror) into layouts
//  2. Fill: resolve fields against records, paginating roster layouts
//  3. Tile: optionally pack filled pages N-up onto physical paper
//  4. Render: rasterize every page to PNG
//
// Each stage can be run on its own or as part of [Runner.Execute].
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    SchoolName: "市立第一中学校",
//	    FiscalYear: 2024,
//	    DPI:        200,
//	}
//	result, err := runner.Execute(ctx, data, records, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for i, png := range result.PNGs {
//	    os.WriteFile(fmt.Sprintf("page-%d.png", i+1), png, 0o644)
//	}
//
// Run individual stages:
//
//	layouts, err := runner.Parse(ctx, "名簿.lay", data)
//	pages, report, err := runner.FillAll(ctx, layouts[0], records, opts)
//	pngs, err := runner.RenderAll(ctx, pages, opts)
package pipeline

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meibo/pkg/cache"
	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/fill"
	"github.com/matzehuels/meibo/pkg/fonts"
	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/photo"
	"github.com/matzehuels/meibo/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultDPI is the raster resolution used when none is configured.
	DefaultDPI = render.DefaultDPI

	// DefaultMode is the render mode for filled output.
	DefaultMode = "print"

	// DefaultPhotoMaxSide caps embedded photos on their long side.
	DefaultPhotoMaxSide = 600

	// MaxWorkers bounds the fill and render worker pools.
	MaxWorkers = 64
)

// DefaultWorkers is the worker pool size used when none is configured.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ValidModes is the set of render modes.
var ValidModes = map[string]bool{
	"print":   true,
	"preview": true,
	"editor":  true,
}

// ValidNameDisplays is the set of name display modes.
var ValidNameDisplays = map[string]bool{
	fill.NameDisplayFurigana: true,
	fill.NameDisplayKanji:    true,
	fill.NameDisplayKana:     true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline. It is decoded from
// API requests (JSON) and from the config file (TOML).
type Options struct {
	// Parse options
	Layout  string `json:"layout,omitempty" toml:"layout"` // title to pick from a multi-layout file
	Refresh bool   `json:"refresh,omitempty" toml:"-"`     // bypass the parse and render caches

	// Fill options
	FiscalYear   int    `json:"fiscal_year,omitempty" toml:"fiscal_year"`
	SchoolName   string `json:"school_name,omitempty" toml:"school_name"`
	TeacherName  string `json:"teacher_name,omitempty" toml:"teacher_name"`
	NameDisplay  string `json:"name_display,omitempty" toml:"name_display"`
	PhotoDir     string `json:"-" toml:"photo_dir"`
	PhotoMaxSide int    `json:"photo_max_side,omitempty" toml:"photo_max_side"`

	// Tile options
	Tile        bool   `json:"tile,omitempty" toml:"tile"`
	Paper       string `json:"paper,omitempty" toml:"paper"` // empty uses the layout's own paper
	Orientation string `json:"orientation,omitempty" toml:"orientation"`

	// Render options
	DPI   int               `json:"dpi,omitempty" toml:"dpi"`
	Mode  string            `json:"mode,omitempty" toml:"mode"`
	Fonts map[string]string `json:"-" toml:"fonts"` // font name → file

	Workers int `json:"-" toml:"workers"`

	// Runtime options (not serialized)
	Logger   *log.Logger   `json:"-" toml:"-"`
	Registry fill.Registry `json:"-" toml:"-"`
	Photos   photo.Source  `json:"-" toml:"-"`

	resolver  *fonts.Resolver
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Layouts are all layouts found in the input.
	Layouts []*layout.LayFile

	// Layout is the layout that was filled.
	Layout *layout.LayFile

	// Pages are the filled (and possibly tiled) pages in output order.
	Pages []*layout.LayFile

	// PNGs holds one encoded image per page.
	PNGs [][]byte

	// Report lists degraded substitutions made while filling.
	Report *fill.Report

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Records    int
	Pages      int
	Issues     int
	ParseTime  time.Duration
	FillTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHit  bool // Whether the parsed layouts came from cache
	RenderHit bool // Whether every page image came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateMode checks that a render mode is valid.
func ValidateMode(mode string) error {
	if !ValidModes[mode] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid mode: %q (must be one of: print, preview, editor)", mode)
	}
	return nil
}

// ValidateNameDisplay checks that a name display mode is valid.
func ValidateNameDisplay(mode string) error {
	if !ValidNameDisplays[mode] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid name_display: %q (must be one of: furigana, kanji, kana)", mode)
	}
	return nil
}

// ValidatePaper checks that a paper name and orientation are known.
// An empty name is valid and means the layout's own paper.
func ValidatePaper(name, orientation string) error {
	if name != "" {
		if _, ok := layout.LookupPaper(name); !ok {
			return errors.New(errors.ErrCodeInvalidInput, "unknown paper size: %q", name)
		}
	}
	switch orientation {
	case "", layout.Portrait, layout.Landscape:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid orientation: %q (must be portrait or landscape)", orientation)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.DPI == 0 {
		o.DPI = DefaultDPI
	}
	if err := errors.ValidateDPI(o.DPI); err != nil {
		return err
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if o.NameDisplay == "" {
		o.NameDisplay = fill.NameDisplayFurigana
	}
	if err := ValidateNameDisplay(o.NameDisplay); err != nil {
		return err
	}
	if err := ValidatePaper(o.Paper, o.Orientation); err != nil {
		return err
	}
	if o.FiscalYear < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "fiscal_year must not be negative")
	}
	if o.PhotoMaxSide == 0 {
		o.PhotoMaxSide = DefaultPhotoMaxSide
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	o.Workers = min(o.Workers, MaxWorkers)
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Photos == nil && o.PhotoDir != "" {
		src, err := photo.OpenDir(o.PhotoDir)
		if err != nil {
			return fmt.Errorf("photo dir: %w", err)
		}
		o.Photos = src
	}
	if len(o.Fonts) > 0 {
		o.resolver = fonts.NewResolver()
		for name, path := range o.Fonts {
			o.resolver.Register(name, path)
		}
	}
	o.validated = true
	return nil
}

// RenderMode returns the parsed render mode.
func (o *Options) RenderMode() render.Mode {
	m, _ := render.ParseMode(o.Mode)
	return m
}

// FillOptions returns the fill settings, reporting into report.
func (o *Options) FillOptions(report *fill.Report) fill.Options {
	return fill.Options{
		FiscalYear:   o.FiscalYear,
		SchoolName:   o.SchoolName,
		TeacherName:  o.TeacherName,
		NameDisplay:  o.NameDisplay,
		Photos:       o.Photos,
		PhotoMaxSide: o.PhotoMaxSide,
		Report:       report,
	}
}

// RenderOptions returns the renderer settings.
func (o *Options) RenderOptions() render.Options {
	ro := render.Options{
		DPI:    o.DPI,
		Mode:   o.RenderMode(),
		Fonts:  o.resolver,
		Logger: o.Logger,
	}
	if o.Registry != nil {
		ro.Registry = o.Registry
	}
	return ro
}

// RenderKeyOpts returns cache key options for page i.
func (o *Options) RenderKeyOpts(i int) cache.RenderKeyOpts {
	return cache.RenderKeyOpts{DPI: o.DPI, Mode: o.Mode, Page: i}
}
