package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/registry"
)

// inspectCommand creates the inspect command, which summarizes a layout.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		objects bool
		asJSON  bool
		noCache bool
		sel     selectFlags
	)

	cmd := &cobra.Command{
		Use:   "inspect <layout>",
		Short: "Summarize a layout and list its objects",
		Args:  cobra.ExactArgs(1),
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

			layouts, cached, err := src.layouts(ctx, runner, c.options())
			if err != nil {
				return err
			}
			l, err := sel.choose(layouts, "")
			if err != nil {
				return err
			}

			meta := registry.Describe(l)
			meta.Layouts = len(layouts)
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(meta)
			}

			printMeta(meta, l)
			if len(layouts) > 1 {
				printNewline()
				fmt.Fprintln(stdout, layoutsTable(layouts, l))
			}
			if objects {
				printNewline()
				fmt.Fprintln(stdout, objectsTable(l))
			}
			status := iconFresh
			if cached {
				status = iconCached
			}
			printDetail("parse: %s", status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&objects, "objects", false, "list every object")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	sel.register(cmd.Flags())

	return cmd
}

// printMeta prints the layout summary as key/value lines.
func printMeta(m registry.Meta, l *layout.LayFile) {
	fmt.Fprintln(stdout, StyleTitle.Render(m.Title))
	printKeyValue("Page", fmt.Sprintf("%dx%d units (%s)", m.PageWidth, m.PageHeight, m.PageSizeMM))
	printKeyValue("Unit", fmt.Sprintf("%.2f mm", l.UnitMM()))
	if m.PaperSize != "" {
		printKeyValue("Paper", m.PaperSize)
	}
	if p := l.Paper; p != nil && p.LabelSheet() {
		printKeyValue("Sheet", fmt.Sprintf("%dx%d labels of %.1fx%.1f mm", p.Cols, p.Rows, p.ItemWidthMM, p.ItemHeightMM))
	}
	printKeyValue("Objects", StyleNumber.Render(fmt.Sprint(m.ObjectCount)))
	printKeyValue("Fields", fmt.Sprint(m.FieldCount))
	printKeyValue("Labels", fmt.Sprint(m.LabelCount))
	printKeyValue("Lines", fmt.Sprint(m.LineCount))
	if m.TableCount > 0 {
		printKeyValue("Tables", fmt.Sprint(m.TableCount))
	}
	for _, r := range l.Rosters() {
		printKeyValue("Roster", fmt.Sprintf("%s %s %d rows from %d",
			StyleHighlight.Render(r.Roster.RefName), direction(r.Roster.Direction),
			r.Roster.RowCount, r.Roster.DataStartIndex))
	}
	if un := l.Unfilled(); len(un) > 0 {
		printWarning("%d unknown field IDs", len(un))
	}
}

func direction(d layout.Direction) string {
	if d == layout.DirectionHorizontal {
		return "horizontal"
	}
	return "vertical"
}

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

// layoutsTable lists the layouts of a multi-layout file, marking current.
func layoutsTable(layouts []*layout.LayFile, current *layout.LayFile) string {
	rows := make([][]string, len(layouts))
	for i, l := range layouts {
		mark := ""
		if l == current {
			mark = iconArrow
		}
		rows[i] = []string{mark, fmt.Sprint(i + 1), l.Title, fmt.Sprintf("%dx%d", l.PageWidth, l.PageHeight), fmt.Sprint(len(l.Objects))}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Title", "Page", "Objects").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if layouts[row] == current {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// objectsTable lists every object with its kind, bounds and content.
func objectsTable(l *layout.LayFile) string {
	rows := make([][]string, len(l.Objects))
	for i, o := range l.Objects {
		b := o.Bounds()
		rows[i] = []string{
			fmt.Sprint(i),
			o.Kind().String(),
			fmt.Sprintf("%d,%d %dx%d", b.Left, b.Top, b.Width(), b.Height()),
			describeObject(o),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Kind", "Bounds", "Content").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 0 || col == 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// describeObject returns a one-line summary of an object's content.
func describeObject(o layout.Object) string {
	switch v := o.(type) {
	case layout.Label:
		return truncate(v.Text, 40)
	case layout.Field:
		if !layout.KnownField(v.FieldID) {
			return StyleWarning.Render(fmt.Sprintf("field %d (unknown)", v.FieldID))
		}
		return fmt.Sprintf("%s (%d)", layout.DisplayName(v.FieldID), v.FieldID)
	case layout.Table:
		cols := make([]string, len(v.Columns))
		for i, col := range v.Columns {
			cols[i] = col.Header
			if cols[i] == "" {
				cols[i] = layout.DisplayName(col.FieldID)
			}
		}
		return truncate(strings.Join(cols, " | "), 48)
	case layout.Meibo:
		return fmt.Sprintf("roster %s ×%d", v.Roster.RefName, v.Roster.RowCount)
	case layout.Image:
		if v.Image.OriginalPath != "" {
			return v.Image.OriginalPath
		}
		return fmt.Sprintf("%d bytes", len(v.Image.Data))
	case layout.Line:
		return fmt.Sprintf("width %d", v.StrokeWidth())
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
