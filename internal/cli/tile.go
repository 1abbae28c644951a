package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/pipeline"
	"github.com/matzehuels/meibo/pkg/tile"
)

// tileCommand creates the tile command. It prints the N-up arrangement of
// a card layout and, with -o, renders a sheet of copies.
func (c *CLI) tileCommand() *cobra.Command {
	var (
		output  string
		records string
		copies  int
		noCache bool
		sel     selectFlags
		flags   pipelineFlags
	)

	cmd := &cobra.Command{
		Use:   "tile <layout>",
		Short: "Show or render the N-up arrangement of a layout",
		Long: `Show how many copies of a layout fit on a sheet and at which scale.

Without --paper the layout's own paper decides: label sheets use their
grid, other layouts their detected paper size or A4. With -o the sheet is
rendered: blank copies by default (--copies, default one full sheet), or
one card per record with --records.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := c.readLayoutSource(args[0])
			if err != nil {
				return err
			}
			recs, err := readRecordsFile(records)
			if err != nil {
				return err
			}

			opts := c.options()
			flags.apply(cmd, &opts)
			withRegistry(&opts, src.reg)
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			layouts, _, err := src.layouts(ctx, runner, opts)
			if err != nil {
				return err
			}
			l, err := sel.choose(layouts, opts.Layout)
			if err != nil {
				return err
			}

			_, a := pipeline.Tile([]*layout.LayFile{l}, opts)
			printArrangement(l, a)
			if output == "" {
				return nil
			}

			var cards []*layout.LayFile
			if len(recs) > 0 {
				filled, report, err := runner.FillAll(ctx, l, recs, opts)
				if err != nil {
					return fmt.Errorf("fill: %w", err)
				}
				reportIssues(report)
				cards = filled
			} else {
				n := copies
				if n <= 0 {
					n = max(1, a.PerPage)
				}
				blank, _, err := runner.FillAll(ctx, l, nil, opts)
				if err != nil {
					return fmt.Errorf("fill: %w", err)
				}
				cards = make([]*layout.LayFile, n)
				for i := range cards {
					cards[i] = blank[0]
				}
			}

			sheets, _ := pipeline.Tile(cards, opts)
			pngs, err := runner.RenderAll(ctx, sheets, opts)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			paths, err := writePages(pngs, output)
			if err != nil {
				return err
			}
			printSuccess("Tiled %d cards onto %d sheets", len(cards), len(sheets))
			for _, p := range paths {
				printFile(p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "render the sheets to this file or base path")
	cmd.Flags().StringVarP(&records, "records", "r", "", "records file (JSON array), one card per record")
	cmd.Flags().IntVarP(&copies, "copies", "n", 0, "blank copies to render (default one full sheet)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	sel.register(cmd.Flags())
	flags.registerFill(cmd.Flags())
	flags.registerRender(cmd.Flags())

	return cmd
}

// printArrangement prints the grid, scale and sheet size.
func printArrangement(l *layout.LayFile, a tile.Arrangement) {
	u := a.Paper.UnitMM
	if u <= 0 {
		u = l.UnitMM()
	}
	fmt.Fprintln(stdout, StyleTitle.Render(l.Title))
	printKeyValue("Card", fmt.Sprintf("%.0fx%.0f mm", float64(l.PageWidth)*l.UnitMM(), float64(l.PageHeight)*l.UnitMM()))
	printKeyValue("Sheet", fmt.Sprintf("%.0fx%.0f mm", float64(a.Paper.Width)*u, float64(a.Paper.Height)*u))
	if a.Paper.Sheet != nil {
		printKeyValue("Label sheet", fmt.Sprintf("margins %.1f/%.1f mm, spacing %.1f/%.1f mm",
			a.Paper.Sheet.MarginLeftMM, a.Paper.Sheet.MarginTopMM, a.Paper.Sheet.SpacingHMM, a.Paper.Sheet.SpacingVMM))
	}
	printKeyValue("Grid", StyleNumber.Render(fmt.Sprintf("%d×%d", a.Cols, a.Rows))+StyleDim.Render(fmt.Sprintf(" (%d per sheet)", a.PerPage)))
	scale := fmt.Sprintf("%.0f%%", a.Scale*100)
	if a.Scale < 1 {
		scale = StyleWarning.Render(scale)
	}
	printKeyValue("Scale", scale)
}
