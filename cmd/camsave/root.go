package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lewtec/camsave/photo"
)

// cli carries the persistent flags and the logger built from them.
type cli struct {
	configFile string
	logLevel   string
	logger     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zerolog.Nop()}
	rootCmd := &cobra.Command{
		Use:   "camsave",
		Short: "Save camera photos upright, at the JPEG quality you pick",
		Long: strings.TrimSpace(`
Take a photo, choose a quality and save it to the public pictures folder.
Sideways photos are turned upright using their EXIF orientation before saving.
    `),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(c.logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			c.logger = zerolog.New(zerolog.ConsoleWriter{
				Out:        cmd.ErrOrStderr(),
				NoColor:    true,
				TimeFormat: time.TimeOnly,
			}).Level(level).With().Timestamp().Logger()
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&c.configFile, "config", "c", defaultConfigFile(), "Config file")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCmd(c),
		newCaptureCmd(c),
		newSaveCmd(c),
		newServeCmd(c),
		newHistoryCmd(c),
		newConfigCmd(c),
	)
	return rootCmd
}

func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "camsave", "config.yaml")
}

func (c *cli) loadConfig() (*photo.Config, error) {
	config, err := photo.LoadConfig(c.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config, nil
}

func (c *cli) open() (*photo.Environment, error) {
	config, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return photo.Open(config, c.logger)
}
