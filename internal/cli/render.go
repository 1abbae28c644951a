package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/fill"
	"github.com/matzehuels/meibo/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file, or base path when several pages are written
	records string // JSON array of records
	noCache bool   // disable the parse and render cache
	sel     selectFlags
	flags   pipelineFlags
}

// renderCommand creates the render command: parse, fill, tile and
// rasterize a layout to PNG.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <layout> [records.json]",
		Short: "Fill a layout with records and render PNG pages",
		Long: `Fill a layout with records and render PNG pages.

The layout is a .lay file, a JSON mirror, or the name of a template in the
template directory. Records are a JSON array of objects keyed by field
name. Without records the layout is rendered blank.

A roster layout yields one page per page of records; any other layout
yields one page per record. With --tile, small layouts such as name cards
are laid out N-up on the chosen paper.

Results are cached locally for faster subsequent runs.

Examples:
  meibo render 名票.lay students.json
  meibo render 名札.lay students.json --tile --paper A4 -o cards
  meibo render 出席簿 --mode editor --dpi 100`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				opts.records = args[1]
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single page) or base path (several pages)")
	cmd.Flags().StringVarP(&opts.records, "records", "r", "", "records file (JSON array)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	opts.sel.register(cmd.Flags())
	opts.flags.registerFill(cmd.Flags())
	opts.flags.registerRender(cmd.Flags())

	return cmd
}

// runRender executes the pipeline and writes the pages.
func (c *CLI) runRender(cmd *cobra.Command, input string, ro *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	src, err := c.readLayoutSource(input)
	if err != nil {
		return err
	}
	records, err := readRecordsFile(ro.records)
	if err != nil {
		return err
	}

	opts := c.options()
	ro.flags.apply(cmd, &opts)
	withRegistry(&opts, src.reg)
	if ro.sel.name != "" {
		opts.Layout = ro.sel.name
	}

	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if ro.sel.pick {
		name, err := c.pickTitle(ctx, runner, src, opts, &ro.sel)
		if err != nil {
			return err
		}
		opts.Layout = name
	}

	prog := newProgress(logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", src.stem()))
	restore := followStages(spinner)
	spinner.Start()

	result, err := runner.Execute(ctx, src.name, src.data, records, opts)
	restore()
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done("Rendered layout", "title", result.Layout.Title, "pages", len(result.PNGs), "dpi", opts.DPI)

	reportIssues(result.Report)

	output := ro.output
	if output == "" {
		output = src.stem()
	}
	paths, err := writePages(result.PNGs, output)
	if err != nil {
		return err
	}
	printSuccess("Rendered %s", result.Layout.Title)
	printStats(result.Stats.Records, result.Stats.Pages, result.Stats.Issues,
		result.CacheInfo.ParseHit && result.CacheInfo.RenderHit)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// pickTitle parses the source and lets the user choose among its layouts.
// The choice is returned as a 1-based index so that duplicate titles stay
// addressable.
func (c *CLI) pickTitle(ctx context.Context, runner *pipeline.Runner, src layoutSource, opts pipeline.Options, sel *selectFlags) (string, error) {
	layouts, _, err := src.layouts(ctx, runner, opts)
	if err != nil {
		return "", err
	}
	l, err := sel.choose(layouts, "")
	if err != nil {
		return "", err
	}
	for i, cand := range layouts {
		if cand == l {
			return fmt.Sprint(i + 1), nil
		}
	}
	return l.Title, nil
}

// reportIssues prints fill problems as warnings.
func reportIssues(r *fill.Report) {
	if r == nil {
		return
	}
	for _, is := range r.Issues() {
		printWarning("%s", is.Error())
	}
}

// pagePaths returns the file names for n pages. A single page is written
// to output itself (".png" appended when missing); several pages get a
// three-digit page suffix.
func pagePaths(output string, n int) []string {
	base := strings.TrimSuffix(output, filepath.Ext(output))
	if strings.EqualFold(filepath.Ext(output), ".png") && n == 1 {
		return []string{output}
	}
	if n == 1 {
		return []string{output + ".png"}
	}
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s_%03d.png", base, i+1)
	}
	return paths
}

// writePages writes each PNG to its page path.
func writePages(pngs [][]byte, output string) ([]string, error) {
	paths := pagePaths(output, len(pngs))
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	for i, p := range paths {
		if err := os.WriteFile(p, pngs[i], 0o644); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", p)
		}
	}
	return paths, nil
}
