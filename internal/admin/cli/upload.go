package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/photogallery/internal/admin/ingest"
	"github.com/dmitrijs2005/photogallery/internal/buildinfo"
	"github.com/dmitrijs2005/photogallery/internal/xmp"
	"github.com/spf13/cobra"
)

func newUploadCmd(a *App) *cobra.Command {
	var (
		opts    ingest.Options
		workers int
	)

	cmd := &cobra.Command{
		Use:   "upload PATH...",
		Short: "Render, upload and register photos",
		Long: `Each file is rendered at every standard width that fits it, the
renditions are uploaded to object storage and the photo is registered
under its file stem. Title, capture date and tags come from the XMP
packet of the file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if opts.OnlyMetadata && !opts.Update {
				return fmt.Errorf("--only-update-metadata requires --update")
			}

			if a.config.S3.SecretAccessKey == "" && !opts.OnlyMetadata && a.stdinIsTTY() {
				secret, err := promptSecret(cmd.ErrOrStderr(), "S3 secret access key: ")
				if err != nil {
					return err
				}
				a.config.S3.SecretAccessKey = secret
			}

			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			in, err := b.Ingester(ctx, workers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, path := range args {
				res, err := in.Ingest(ctx, path, opts)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				switch {
				case res.Created:
					fmt.Fprintf(out, "Created photo %d (%s): %d uploaded, %d reused\n",
						res.Photo.ID, res.Photo.FileStem, res.Uploaded, res.Reused)
				case res.Changed:
					fmt.Fprintf(out, "Updated photo %d (%s): %d uploaded, %d reused\n",
						res.Photo.ID, res.Photo.FileStem, res.Uploaded, res.Reused)
				default:
					fmt.Fprintf(out, "Photo %d (%s) unchanged\n", res.Photo.ID, res.Photo.FileStem)
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.Update, "update", false, "update photos that are already registered")
	f.BoolVar(&opts.OnlyMetadata, "only-update-metadata", false, "refresh metadata only, keep stored renditions")
	f.IntVar(&workers, "workers", 0, "concurrent renditions (default from config)")
	return cmd
}

// xmpDumpName is the file dump-xmp writes the packet of path to.
func xmpDumpName(path string) string {
	return "xmp." + filepath.Base(path) + ".xml"
}

func newDumpXMPCmd(_ *App) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "dump-xmp PATH",
		Short: "Write the raw XMP packet of a photo to xmp.<file>.xml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			packet, err := xmp.Packet(data)
			if err != nil {
				return err
			}
			target := filepath.Join(outDir, xmpDumpName(args[0]))
			if err := os.WriteFile(target, packet, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write to")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
			return nil
		},
	}
}
