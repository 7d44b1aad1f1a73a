package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lewtec/camsave/internal/export"
)

func newSaveCmd(c *cli) *cobra.Command {
	var quality int
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the current capture upright as a JPEG",
		Long: `Rotate the current capture according to its EXIF orientation and write it to
<pictures_root>/<subfolder>/<prefix><timestamp>.jpg at the given quality.
Without --quality the configured default is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.open()
			if err != nil {
				return err
			}
			defer env.Close()

			q := env.Config.Quality()
			if cmd.Flags().Changed("quality") {
				q = export.Quality(quality)
			}
			if !q.Valid() {
				return fmt.Errorf("%w: %d", export.ErrInvalidQuality, q)
			}

			rec, err := env.Session.Save(cmd.Context(), q)
			if err != nil {
				return err
			}
			if !rec.Succeeded {
				return fmt.Errorf("picture was not saved to %s: %s", rec.Path, rec.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(env.Config.Storage.PicturesRoot, rec.Path))
			return nil
		},
	}
	cmd.Flags().IntVarP(&quality, "quality", "q", int(export.DefaultQuality), "JPEG quality from 0 to 100")
	return cmd
}
