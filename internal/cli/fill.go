package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meibo/pkg/errors"
	layio "github.com/matzehuels/meibo/pkg/io"
	"github.com/matzehuels/meibo/pkg/layout"
)

// fillCommand creates the fill command, which writes filled layouts as
// JSON mirrors instead of rendering them.
func (c *CLI) fillCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		sel     selectFlags
		flags   pipelineFlags
	)

	cmd := &cobra.Command{
		Use:   "fill <layout> <records.json>",
		Short: "Fill a layout with records and write JSON mirrors",
		Long: `Fill a layout with records and write the filled documents as JSON
mirrors (meibo_layout_v2). A single document goes to stdout unless -o is
given; several documents are written to the -o directory (default
<layout>-filled) as page_001.json, page_002.json, ...

The filled mirrors can be rendered later with 'meibo render'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := c.readLayoutSource(args[0])
			if err != nil {
				return err
			}
			records, err := readRecordsFile(args[1])
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

			prog := newProgress(loggerFromContext(ctx))
			docs, report, err := runner.FillAll(ctx, l, records, opts)
			if err != nil {
				return fmt.Errorf("fill: %w", err)
			}
			prog.done("Filled layout", "title", l.Title, "documents", len(docs), "issues", report.Len())
			reportIssues(report)

			if len(docs) == 1 && output == "" {
				return layio.WriteJSON(docs[0], stdout)
			}
			if output == "" {
				output = src.stem() + "-filled"
			}
			paths, err := writeMirrors(docs, output)
			if err != nil {
				return err
			}
			printSuccess("Filled %s", l.Title)
			printStats(len(records), len(docs), report.Len(), false)
			for _, p := range paths {
				printFile(p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (one document) or directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	sel.register(cmd.Flags())
	flags.registerFill(cmd.Flags())

	return cmd
}

// writeMirrors exports docs as JSON. A single document with a .json
// output path is written to that file; otherwise output is a directory.
func writeMirrors(docs []*layout.LayFile, output string) ([]string, error) {
	if len(docs) == 1 && filepath.Ext(output) == ".json" {
		if err := layio.ExportJSON(docs[0], output); err != nil {
			return nil, err
		}
		return []string{output}, nil
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", output)
	}
	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = filepath.Join(output, fmt.Sprintf("page_%03d.json", i+1))
		if err := layio.ExportJSON(d, paths[i]); err != nil {
			return nil, err
		}
	}
	return paths, nil
}
