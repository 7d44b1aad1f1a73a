package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newCaptureCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "capture <file|->",
		Short: "Make a photo the current capture",
		Long: `Copy a photo into the capture folder and make it the one the next save uses.
Pass - to read the photo from standard input, for example from a camera tool.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.open()
			if err != nil {
				return err
			}
			defer env.Close()

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			capture, err := env.Session.Capture(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", capture.ID, capture.TempPath)
			return nil
		},
	}
}
