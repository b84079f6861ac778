package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mhoffm/paperdash/internal/web"
	"github.com/mhoffm/paperdash/pkg/config"
	"github.com/mhoffm/paperdash/pkg/pipeline"
)

// serveCommand creates the serve command: regenerate on an interval and
// serve the latest image over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		host     string
		port     int
		interval time.Duration
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard image over HTTP",
		Long: `Serve regenerates the dashboard on a fixed interval and exposes it at
/display.png for e-ink devices to poll, plus /health and the raw section
data under /api/. Flags override the [server] config section.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("interval") {
				cfg.Server.Interval = config.Duration(interval)
			}

			store := c.newCache(cmd, cfg, noCache)
			defer store.Close()

			opts, err := pipeline.OptionsFromConfig(cfg, store)
			if err != nil {
				return err
			}

			srv := web.NewServer(cfg.Server, pipeline.NewRunner(c.Logger), opts, c.Logger)
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen address")
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "listen port")
	cmd.Flags().DurationVar(&interval, "interval", time.Duration(config.Default().Server.Interval), "image regeneration interval")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the response cache")
	return cmd
}
