package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	layio "github.com/matzehuels/meibo/pkg/io"
	"github.com/matzehuels/meibo/pkg/layout"
)

// convertCommand creates the convert command, which exports layouts as
// JSON mirrors.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		output  string
		all     bool
		noCache bool
		sel     selectFlags
	)

	cmd := &cobra.Command{
		Use:   "convert <layout>",
		Short: "Convert a .lay file to a JSON mirror",
		Long: `Convert a .lay file (or an older JSON mirror) to the current JSON mirror
format. The mirror is written to stdout unless -o is given. With --all,
every layout of a multi-layout file is written to the -o directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := c.readLayoutSource(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			layouts, _, err := src.layouts(ctx, runner, c.options())
			if err != nil {
				return err
			}

			if all {
				dir := output
				if dir == "" {
					dir = src.stem()
				}
				paths, err := exportAll(layouts, dir)
				if err != nil {
					return err
				}
				printSuccess("Converted %d layouts", len(paths))
				for _, p := range paths {
					printFile(p)
				}
				return nil
			}

			l, err := sel.choose(layouts, "")
			if err != nil {
				return err
			}
			if output == "" {
				return layio.WriteJSON(l, stdout)
			}
			if err := layio.ExportJSON(l, output); err != nil {
				return err
			}
			printSuccess("Converted %s (%s)", l.Title, layio.FormatFor(l))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or directory with --all")
	cmd.Flags().BoolVar(&all, "all", false, "convert every layout of a multi-layout file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	sel.register(cmd.Flags())

	return cmd
}

// exportAll writes each layout to dir as NN_<title>.json.
func exportAll(layouts []*layout.LayFile, dir string) ([]string, error) {
	paths := make([]string, len(layouts))
	for i, l := range layouts {
		name := safeFileName(l.Title)
		if name == "" {
			name = "layout"
		}
		paths[i] = filepath.Join(dir, fmt.Sprintf("%02d_%s.json", i+1, name))
		if err := layio.ExportJSON(l, paths[i]); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// safeFileName replaces path separators and characters that are invalid
// in file names on common file systems.
func safeFileName(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			out[i] = '_'
		}
	}
	return string(out)
}
