package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/meibo/pkg/cache"
	"github.com/matzehuels/meibo/pkg/fill"
	"github.com/matzehuels/meibo/pkg/lay"
	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/observability"
	"github.com/matzehuels/meibo/pkg/render"
	"github.com/matzehuels/meibo/pkg/tile"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	parser *lay.Parser
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		parser: lay.New(logger),
	}
}

// Execute runs parse → fill → tile → render on one input file.
func (r *Runner) Execute(ctx context.Context, source string, data []byte, records []fill.Record, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result := &Result{}

	// Stage 1: Parse
	parseStart := time.Now()
	layouts, parseHit, err := r.ParseWithCacheInfo(ctx, source, data, opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Layouts = layouts
	result.Stats.ParseTime = time.Since(parseStart)
	result.CacheInfo.ParseHit = parseHit

	l, err := SelectLayout(layouts, opts.Layout)
	if err != nil {
		return nil, err
	}
	result.Layout = l
	r.Logger.Info("parsed layout",
		"title", l.Title,
		"objects", len(l.Objects),
		"layouts", len(layouts),
		"duration", result.Stats.ParseTime)

	// Stage 2: Fill
	fillStart := time.Now()
	pages, report, err := r.FillAll(ctx, l, records, opts)
	if err != nil {
		return nil, fmt.Errorf("fill: %w", err)
	}
	result.Report = report
	result.Stats.Records = len(records)
	result.Stats.Issues = report.Len()
	result.Stats.FillTime = time.Since(fillStart)
	r.Logger.Info("filled layout",
		"records", len(records),
		"pages", len(pages),
		"issues", report.Len(),
		"duration", result.Stats.FillTime)

	// Stage 3: Tile
	if opts.Tile {
		tiled, a := Tile(pages, opts)
		r.Logger.Info("tiled pages",
			"grid", fmt.Sprintf("%dx%d", a.Cols, a.Rows),
			"scale", a.Scale,
			"sheets", len(tiled))
		pages = tiled
	}
	result.Pages = pages
	result.Stats.Pages = len(pages)

	// Stage 4: Render
	renderStart := time.Now()
	pngs, renderHit, err := r.RenderAllWithCacheInfo(ctx, pages, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.PNGs = pngs
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit
	r.Logger.Info("rendered pages",
		"pages", len(pngs),
		"dpi", opts.DPI,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ParseWithCacheInfo decodes a .lay container or a JSON mirror and reports
// whether the result came from the cache. The parsed form is cached under
// the content hash of data, stored as JSON mirrors.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, source string, data []byte, opts Options) ([]*layout.LayFile, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, source)
	start := time.Now()

	layouts, hit, err := r.parse(ctx, data, opts)
	objects := 0
	for _, l := range layouts {
		objects += len(l.Objects)
	}
	hooks.OnParseComplete(ctx, source, objects, time.Since(start), err)
	return layouts, hit, err
}

func (r *Runner) parse(ctx context.Context, data []byte, opts Options) ([]*layout.LayFile, bool, error) {
	if IsJSON(data) {
		l, err := r.parseJSON(data)
		if err != nil {
			return nil, false, err
		}
		return []*layout.LayFile{l}, false, nil
	}

	cacheKey := r.Keyer.ParseKey(cache.Hash(data))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if layouts, err := decodeLayouts(cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "parse")
				return layouts, true, nil
			}
			// If deserialization fails, fall through to reparse
		}
		observability.Cache().OnCacheMiss(ctx, "parse")
	}

	layouts, err := r.parser.ParseMulti(data)
	if err != nil {
		return nil, false, err
	}

	if encoded, err := encodeLayouts(layouts); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, encoded, cache.TTLParse); err != nil {
			r.Logger.Debug("cache set failed", "key", cacheKey, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "parse", len(encoded))
		}
	}
	return layouts, false, nil
}

// Parse is a convenience wrapper that calls ParseWithCacheInfo and discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, source string, data []byte) ([]*layout.LayFile, error) {
	layouts, _, err := r.ParseWithCacheInfo(ctx, source, data, Options{})
	return layouts, err
}

// FillAll fills lay once per document.
//
// A roster layout yields one document per page of records, exactly as
// fill.FillRoster paginates them. Any other layout yields one document per
// record, so a batch of individual sheets comes out of a single call; with
// no records it yields one blank-filled document. Documents are filled
// concurrently by at most opts.Workers goroutines and ctx is checked before
// each one starts. Output order always matches record order.
func (r *Runner) FillAll(ctx context.Context, l *layout.LayFile, records []fill.Record, opts Options) ([]*layout.LayFile, *fill.Report, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}
	report := fill.NewReport(opts.Logger)

	hooks := observability.Pipeline()
	hooks.OnFillStart(ctx, l.Title, len(records))
	start := time.Now()

	pages, err := r.fillAll(ctx, l, records, opts, report)
	hooks.OnFillComplete(ctx, l.Title, len(pages), report.Len(), time.Since(start), err)
	if err != nil {
		return nil, report, err
	}
	return pages, report, nil
}

func (r *Runner) fillAll(ctx context.Context, l *layout.LayFile, records []fill.Record, opts Options, report *fill.Report) ([]*layout.LayFile, error) {
	fo := opts.FillOptions(report)
	fo.Total = len(records)

	if len(records) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fo.Page = 1
		return []*layout.LayFile{fill.Fill(l, nil, fo)}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	var out []*layout.LayFile
	if capacity := fill.Capacity(l); capacity > 0 {
		chunks := fill.Pages(records, capacity)
		out = make([]*layout.LayFile, len(chunks))
		for p, recs := range chunks {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[p] = fill.FillPage(l, recs, p, capacity, opts.Registry, fo)
				return nil
			})
		}
	} else {
		out = make([]*layout.LayFile, len(records))
		for i, rec := range records {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				ro := fo
				ro.Page = i + 1
				ro.RowNumber = i + 1
				out[i] = fill.Fill(l, rec, ro)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Tile packs pages N-up. Without opts.Paper the first page's own paper (or
// label-sheet grid) decides the arrangement.
func Tile(pages []*layout.LayFile, opts Options) ([]*layout.LayFile, tile.Arrangement) {
	if len(pages) == 0 {
		return pages, tile.Arrangement{}
	}
	first := pages[0]
	a := tile.PageArrangement(first)
	if opts.Paper != "" {
		if p, ok := tile.PaperFor(opts.Paper, opts.Orientation, first.UnitMM()); ok {
			a = tile.Arrange(first, p)
		}
	}
	return tile.Tile(pages, a.Cols, a.Rows, a.Paper, a.Scale), a
}

// RenderAllWithCacheInfo rasterizes every page to PNG and reports whether
// all of them came from the cache. Pages render concurrently by at most
// opts.Workers goroutines.
func (r *Runner) RenderAllWithCacheInfo(ctx context.Context, pages []*layout.LayFile, opts Options) ([][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	title := ""
	if len(pages) > 0 {
		title = pages[0].Title
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, title, len(pages))
	start := time.Now()

	out := make([][]byte, len(pages))
	var allHit atomic.Bool
	allHit.Store(len(pages) > 0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, p := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, hit, err := r.RenderPage(gctx, p, i, opts)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			if !hit {
				allHit.Store(false)
			}
			out[i] = data
			return nil
		})
	}
	err := g.Wait()
	hooks.OnRenderComplete(ctx, title, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	return out, allHit.Load(), nil
}

// RenderAll is a convenience wrapper that calls RenderAllWithCacheInfo and discards the cache hit info.
func (r *Runner) RenderAll(ctx context.Context, pages []*layout.LayFile, opts Options) ([][]byte, error) {
	pngs, _, err := r.RenderAllWithCacheInfo(ctx, pages, opts)
	return pngs, err
}

// RenderPage rasterizes page i of a run to PNG, with caching keyed by the
// page content and the render settings.
func (r *Runner) RenderPage(ctx context.Context, page *layout.LayFile, i int, opts Options) ([]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	var cacheKey string
	if encoded, err := encodeLayouts([]*layout.LayFile{page}); err == nil {
		cacheKey = r.Keyer.RenderKey(cache.Hash(encoded), opts.RenderKeyOpts(i))
	}

	if cacheKey != "" && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "render")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "render")
	}

	img, err := render.ToImage(page, opts.RenderOptions())
	if err != nil {
		return nil, false, err
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, img); err != nil {
		return nil, false, err
	}
	data := buf.Bytes()

	if cacheKey != "" {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLRender); err == nil {
			observability.Cache().OnCacheSet(ctx, "render", len(data))
		}
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
