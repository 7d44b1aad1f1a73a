package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lewtec/camsave/photo"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		limit  int
		verify bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved pictures and failed saves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.open()
			if err != nil {
				return err
			}
			defer env.Close()
			ctx := cmd.Context()

			state, current, err := env.Session.Current(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if current != nil {
				fmt.Fprintf(out, "state: %s (capture %s, %s)\n", state, current.ID, current.TempPath)
			} else {
				fmt.Fprintf(out, "state: %s\n", state)
			}

			exports, err := env.Session.Exports.List(ctx, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tPATH\tQUALITY\tSIZE\tORIENTATION\tSTATUS")
			for _, e := range exports {
				status := "saved"
				switch {
				case !e.Succeeded:
					status = "failed: " + e.Error
				case verify:
					sum, err := photo.HashFile(env.Session.Exporter.FS, e.Path)
					switch {
					case err != nil:
						status = "missing"
					case sum != e.SHA256:
						status = "modified"
					default:
						status = "verified"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
					e.ExportedAt.Local().Format("2006-01-02 15:04:05"), e.Path, e.Quality,
					humanize.Bytes(uint64(e.Bytes)), e.Orientation, status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "How many entries to show (0 for all)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Check saved files against their recorded sha256")

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete kept captures other than the current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.open()
			if err != nil {
				return err
			}
			defer env.Close()
			n, err := env.Session.Prune(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d captures\n", n)
			return err
		},
	})
	return cmd
}
