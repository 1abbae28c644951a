package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/meibo/pkg/cache"
	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/registry"
)

// templatesCommand creates the templates command group.
func (c *CLI) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tpl"},
		Short:   "List and manage the template directory",
		Long: `List and manage the template directory.

Templates are .lay files and JSON mirrors in the directory set by
'templates' in the config file (default ~/.local/share/meibo/templates).
Any command that takes a layout accepts a template title or file name.`,
	}

	cmd.AddCommand(c.templatesListCommand())
	cmd.AddCommand(c.templatesImportCommand())
	cmd.AddCommand(c.templatesRenameCommand())
	cmd.AddCommand(c.templatesDeleteCommand())
	cmd.AddCommand(c.templatesPathCommand())

	return cmd
}

// templatesListCommand creates the "templates list" subcommand.
func (c *CLI) templatesListCommand() *cobra.Command {
	var (
		asJSON  bool
		noCache bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List templates with their metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir, err := c.templatesDir()
			if err != nil {
				return err
			}
			cc, err := newCache(ctx, c.config.Cache, noCache)
			if err != nil {
				return err
			}
			defer cc.Close()

			scanner := registry.NewScanner(cc, cache.NewDefaultKeyer(), c.Logger)
			metas, err := scanner.Scan(ctx, dir)
			if err != nil {
				return err
			}
			if asJSON {
				if metas == nil {
					metas = []registry.Meta{}
				}
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(metas)
			}
			if len(metas) == 0 {
				printInfo("No templates in %s", dir)
				printNextStep("Import one with", "meibo templates import <file.lay>")
				return nil
			}
			fmt.Fprintln(stdout, templatesTable(metas, time.Now()))
			printDetail("%d templates in %s", len(metas), dir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print metadata as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the metadata cache")
	return cmd
}

// templatesTable renders template metadata as a table.
func templatesTable(metas []registry.Meta, now time.Time) string {
	rows := make([][]string, len(metas))
	for i, m := range metas {
		paper := m.PaperSize
		if paper == "" {
			paper = "—"
		}
		rows[i] = []string{m.File, m.Title, m.PageSizeMM, paper,
			fmt.Sprint(m.FieldCount), fmt.Sprint(m.RosterCount), formatRelativeTime(m.ModTime, now)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("File", "Title", "Size", "Paper", "Fields", "Rosters", "Modified").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col == 6:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// templatesImportCommand creates the "templates import" subcommand.
func (c *CLI) templatesImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import .lay files or JSON mirrors into the template directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.openRegistry()
			if err != nil {
				return err
			}
			for _, src := range args {
				dest, err := reg.Import(src)
				if err != nil {
					return fmt.Errorf("import %s: %w", src, err)
				}
				printSuccess("Imported %s", filepath.Base(src))
				printFile(dest)
			}
			return nil
		},
	}
}

// templatesRenameCommand creates the "templates rename" subcommand.
func (c *CLI) templatesRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <file> <new-name>",
		Short: "Rename a JSON template and set its title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.openRegistry()
			if err != nil {
				return err
			}
			dest, err := reg.Rename(templatePath(reg, args[0]), args[1])
			if err != nil {
				return err
			}
			printSuccess("Renamed to %s", args[1])
			printFile(dest)
			return nil
		},
	}
}

// templatesDeleteCommand creates the "templates delete" subcommand.
func (c *CLI) templatesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <file>",
		Aliases: []string{"rm"},
		Short:   "Delete a template file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.openRegistry()
			if err != nil {
				return err
			}
			path := templatePath(reg, args[0])
			if _, err := os.Stat(path); os.IsNotExist(err) {
				return errors.New(errors.ErrCodeFileNotFound, "no such template: %s", args[0])
			}
			if err := reg.Delete(path); err != nil {
				return err
			}
			printSuccess("Deleted %s", filepath.Base(path))
			return nil
		},
	}
}

// templatesPathCommand creates the "templates path" subcommand.
func (c *CLI) templatesPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the template directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.templatesDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, dir)
			return nil
		},
	}
}

// templatePath resolves a bare file name against the template directory.
// Names without an extension are taken as JSON templates.
func templatePath(reg *registry.Registry, name string) string {
	if filepath.IsAbs(name) || filepath.Dir(name) != "." {
		return name
	}
	if filepath.Ext(name) == "" {
		name += registry.ExtJSON
	}
	return filepath.Join(reg.Dir(), name)
}
