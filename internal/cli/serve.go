package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meibo/internal/server"
	"github.com/matzehuels/meibo/pkg/cache"
	"github.com/matzehuels/meibo/pkg/pipeline"
	"github.com/matzehuels/meibo/pkg/registry"
)

// defaultAddr is the listen address when neither flag nor config sets one.
const defaultAddr = "127.0.0.1:8080"

// serveCommand creates the serve command, which runs the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Run the HTTP service until interrupted.

Routes:
  GET  /healthz
  GET  /v1/layouts
  GET  /v1/layouts/{name}
  GET  /v1/layouts/{name}/preview
  POST /v1/parse
  POST /v1/render

Layouts are served from the template directory. Parse results, template
metadata and rendered pages share the configured cache, so several
instances can share one redis backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") && c.config.Server.Addr != "" {
				addr = c.config.Server.Addr
			}

			reg, err := c.openRegistry()
			if err != nil {
				return err
			}
			cc, err := newCache(ctx, c.config.Cache, noCache)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			keyer := cache.NewDefaultKeyer()
			runner := pipeline.NewRunner(cc, keyer, c.Logger)
			defer runner.Close()

			srv := server.New(server.Config{
				Runner:       runner,
				Registry:     reg,
				Scanner:      registry.NewScanner(cc, keyer, c.Logger),
				Defaults:     c.options(),
				MaxBodyBytes: c.config.Server.MaxBodyBytes,
				Logger:       c.Logger,
			})
			printInfo("Serving on %s", StyleLink.Render("http://"+addr))
			printDetail("Templates: %s", reg.Dir())
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
