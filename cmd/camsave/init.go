package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lewtec/camsave/photo"
)

func newInitCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "init [folder]",
		Short: "Create a config, the history database and the pictures folder",
		Long: `Create a sample configuration, an empty history database and the folders
pictures and captures are written to.

With a folder argument everything is kept inside that folder and the config is
written to <folder>/config.yaml. Without one the --config path is used.

Example:
  camsave init ./camera
  camsave -c ./camera/config.yaml serve`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := c.configFile
			if len(args) == 1 {
				if err := os.MkdirAll(args[0], 0o755); err != nil {
					return fmt.Errorf("failed to create folder: %w", err)
				}
				configFile = filepath.Join(args[0], "config.yaml")
				c.configFile = configFile
			}

			if _, err := os.Stat(configFile); os.IsNotExist(err) {
				c.logger.Info().Str("path", configFile).Msg("Creating default config")
				if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
					return fmt.Errorf("failed to create config folder: %w", err)
				}
				if err := photo.WriteSampleConfig(configFile); err != nil {
					return fmt.Errorf("failed to create config: %w", err)
				}
			} else {
				c.logger.Info().Str("path", configFile).Msg("Config file already exists")
			}

			env, err := c.open()
			if err != nil {
				return err
			}
			defer env.Close()
			config := env.Config
			c.logger.Info().Str("path", config.Database).Msg("Database ready")

			for _, dir := range []string{config.PicturesDir(), config.Storage.TempDir} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create %s: %w", dir, err)
				}
			}
			c.logger.Info().Str("path", config.PicturesDir()).Msg("Pictures folder ready")

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Initialization complete.")
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintf(out, "  camsave -c %s serve\n", configFile)
			fmt.Fprintf(out, "  camsave -c %s capture photo.jpg && camsave -c %s save -q 80\n", configFile, configFile)
			return nil
		},
	}
}
