package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhoffm/paperdash/pkg/canvas"
	"github.com/mhoffm/paperdash/pkg/pipeline"
)

// defaultOutput is where generate writes without a positional argument.
const defaultOutput = "dashboard.png"

// generateCommand creates the generate command: one fetch-compose-encode
// run written atomically to a file.
func (c *CLI) generateCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "generate [output.png]",
		Short: "Generate the dashboard image once",
		Long: `Generate fetches every configured section, composes the dashboard and
writes the grayscale PNG atomically to the given path (default dashboard.png).

Sections whose data source fails render as placeholders; the command still
succeeds and reports them. Only configuration and encoding errors fail the run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := defaultOutput
			if len(args) == 1 {
				output = args[0]
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store := c.newCache(cmd, cfg, noCache)
			defer store.Close()

			opts, err := pipeline.OptionsFromConfig(cfg, store)
			if err != nil {
				return err
			}

			result, err := pipeline.NewRunner(c.Logger).Generate(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := canvas.WriteFile(output, result.PNG); err != nil {
				return err
			}

			printSuccess("Generated dashboard")
			printFile(output)
			printDetail("%dx%d, %d bytes", opts.Width, opts.Height,
				len(result.PNG))
			printDetail("fetch %s · render %s · encode %s",
				result.Stats.FetchTime.Round(time.Millisecond),
				result.Stats.RenderTime.Round(time.Millisecond),
				result.Stats.EncodeTime.Round(time.Millisecond))

			if len(result.Degraded) > 0 {
				printNewline()
				names := make([]string, 0, len(result.Degraded))
				for name := range result.Degraded {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					printWarning("%s degraded: %s", name, result.Degraded[name])
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the response cache")
	return cmd
}
