package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newJournalCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the local record of uploaded renditions",
	}
	cmd.AddCommand(newJournalListCmd(a), newJournalForgetCmd(a))
	return cmd
}

func newJournalListCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list FILE_STEM",
		Short: "Print the recorded uploads of a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			j, err := b.Journal(ctx)
			if err != nil {
				return err
			}
			entries, err := j.ListByStem(ctx, args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SIZE\tSHA256\tUPLOADED\tURL")
			for _, e := range entries {
				fmt.Fprintf(tw, "%dx%d\t%.12s\t%s\t%s\n",
					e.Width, e.Height, e.SHA256, e.UploadedAt.Format(time.DateTime), e.URL)
			}
			return tw.Flush()
		},
	}
}

func newJournalForgetCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "forget FILE_STEM",
		Short: "Drop the recorded uploads of a photo so the next upload sends everything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			j, err := b.Journal(ctx)
			if err != nil {
				return err
			}
			n, err := j.ForgetStem(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %d uploads of %s\n", n, args[0])
			return nil
		},
	}
}
