package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// configCommand creates the config command with subcommands.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(c.configCheckCommand())
	return cmd
}

// configCheckCommand creates the "config check" subcommand. It loads and
// validates the configuration and prints the resolved layout, so a broken
// region map fails here instead of on the device at 6am.
func (c *CLI) configCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and print the resolved layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				printError("Configuration invalid")
				return err
			}
			regions, err := cfg.RegionMap()
			if err != nil {
				printError("Region map invalid")
				return err
			}

			printSuccess("Configuration valid")
			printNewline()

			printKeyValue("Display", fmt.Sprintf("%dx%d, %s background",
				cfg.Display.Width, cfg.Display.Height, cfg.Display.Background))
			printKeyValue("Grid", fmt.Sprintf("%d rows", regions.GridRows))
			printNewline()

			for _, s := range regions.Sections {
				rects, err := regions.Resolve(s.Name, cfg.Display.Width, cfg.Display.Height)
				if err != nil {
					return err
				}
				cols := ""
				if len(rects) > 1 {
					cols = fmt.Sprintf(", %d columns", len(rects))
				}
				printKeyValue(s.Name, fmt.Sprintf("rows %d-%d → y %d-%d%s",
					s.Start, s.End, rects[0].Min.Y, rects[0].Max.Y, cols))
			}
			printNewline()

			backend := cfg.Cache.Backend
			if backend == "" {
				backend = "file"
			}
			printKeyValue("Cache", backend)

			if cfg.Strava.Configured() {
				printKeyValue("Strava", "configured")
			} else {
				printKeyValue("Strava", StyleWarning.Render("not configured"))
			}
			if cfg.Calendar.TokenFile != "" {
				printKeyValue("Calendar", cfg.Calendar.TokenFile)
			} else {
				printKeyValue("Calendar", StyleWarning.Render("sample events (no token file)"))
			}
			return nil
		},
	}
}
