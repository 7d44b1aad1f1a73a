package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/lewtec/camsave/photo"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the capture screen web server",
		Long: `Serve the capture screen: take or upload a photo, pick the quality with the
slider and save it. Open it from a phone to use its camera.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.open()
			if err != nil {
				return err
			}
			defer env.Close()

			if !cmd.Flags().Changed("addr") {
				addr = env.Config.Server.Addr
			}
			app := &photo.App{
				Session: env.Session,
				Config:  env.Config,
				Logger:  c.logger.With().Str("component", "http").Logger(),
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           app.GetHTTPHandler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			c.logger.Info().
				Str("config", c.configFile).
				Str("database", env.Config.Database).
				Str("pictures", env.Config.PicturesDir()).
				Str("addr", addr).
				Msg("Starting server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to bind the webserver (default from config)")
	return cmd
}
