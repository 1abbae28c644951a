// Package pkg provides the core libraries for meibo, a reader and renderer
// for EXCMIDataContainer01 print layouts (.lay files) used to print class
// rosters, name cards and student record sheets.
//
// # Overview
//
// The pkg directory is organized leaf to root:
//
//  1. [container], [tlv] - the binary container and its tag/length/value records
//  2. [lay] - the document parser producing [layout] values
//  3. [fill], [photo] - data binding, roster pagination and student photos
//  4. [tile], [render], [fonts] - N-up sheets and rasterization
//  5. [io], [registry] - the JSON mirror format and template directories
//  6. [pipeline] - orchestration (parse → fill → tile → render)
//
// # Architecture
//
// The typical data flow:
//
//	.lay file (or JSON mirror)
//	         ↓
//	    [lay] package (decode container, walk records)
//	         ↓
//	    [fill] package (bind records, paginate rosters)
//	         ↓
//	    [tile] package (optional N-up packing)
//	         ↓
//	    [render] package (rasterize)
//	         ↓
//	    PNG output
//
// # Quick Start
//
// Fill a roster layout and render its pages:
//
//	import (
//	    "os"
//
//	    "github.com/matzehuels/meibo/pkg/fill"
//	    "github.com/matzehuels/meibo/pkg/lay"
//	    "github.com/matzehuels/meibo/pkg/render"
//	)
//
//	// 1. Parse the layout
//	l, _ := lay.ParseFile("出席簿.lay")
//
//	// 2. Fill one page per 40 students
//	pages := fill.FillRoster(l, students, templates, fill.Options{FiscalYear: 2025})
//
//	// 3. Render each page
//	for _, p := range pages {
//	    img, _ := render.ToImage(p, render.Options{DPI: 150, Registry: templates})
//	    render.EncodePNG(os.Stdout, img)
//	}
//
// # Main Packages
//
// ## Layout Model
//
// [layout] - The parsed document: page size, paper geometry and a flat list
// of objects (labels, fields, lines, groups, tables, roster placeholders and
// images) in model units.
//
// [lay] - Parser for the binary format. Unknown tags are skipped; only a
// broken container or record stream is an error.
//
// ## Data Binding
//
// [fill] - Resolves fields against records through the field dictionary,
// formats dates and wareki years, composes addresses and expands roster
// placeholders page by page.
//
// ## Output
//
// [render] - Draws a layout onto a backend; [render.RasterBackend] produces
// images through fogleman/gg. [tile] packs small layouts onto paper.
//
// ## Infrastructure
//
// [cache] - File, redis and null caches for parse results, template
// metadata and rendered pages. [observability] - hook registry for
// metrics and tracing.
//
// [pipeline] - Orchestrates the complete workflow with caching and bounded
// concurrency. This is the recommended entry point for most users.
//
// [pipeline]: github.com/matzehuels/meibo/pkg/pipeline
// [container]: github.com/matzehuels/meibo/pkg/container
// [tlv]: github.com/matzehuels/meibo/pkg/tlv
// [lay]: github.com/matzehuels/meibo/pkg/lay
// [layout]: github.com/matzehuels/meibo/pkg/layout
// [fill]: github.com/matzehuels/meibo/pkg/fill
// [photo]: github.com/matzehuels/meibo/pkg/photo
// [tile]: github.com/matzehuels/meibo/pkg/tile
// [render]: github.com/matzehuels/meibo/pkg/render
// [render.RasterBackend]: github.com/matzehuels/meibo/pkg/render#RasterBackend
// [fonts]: github.com/matzehuels/meibo/pkg/fonts
// [io]: github.com/matzehuels/meibo/pkg/io
// [registry]: github.com/matzehuels/meibo/pkg/registry
// [cache]: github.com/matzehuels/meibo/pkg/cache
// [observability]: github.com/matzehuels/meibo/pkg/observability
package pkg
