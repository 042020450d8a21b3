package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/dmitrijs2005/photogallery/internal/services"
	"github.com/spf13/cobra"
)

// parseSource reads a rendition given as WIDTHxHEIGHT=URL.
func parseSource(s string) (apistructs.Source, error) {
	size, url, ok := strings.Cut(s, "=")
	if !ok {
		return apistructs.Source{}, fmt.Errorf("%w: source %q is not WIDTHxHEIGHT=URL", common.ErrValidation, s)
	}
	w, h, ok := strings.Cut(strings.ToLower(size), "x")
	if !ok {
		return apistructs.Source{}, fmt.Errorf("%w: source size %q is not WIDTHxHEIGHT", common.ErrValidation, size)
	}
	width, err := strconv.ParseUint(strings.TrimSpace(w), 10, 32)
	if err != nil {
		return apistructs.Source{}, fmt.Errorf("%w: invalid width %q", common.ErrValidation, w)
	}
	height, err := strconv.ParseUint(strings.TrimSpace(h), 10, 32)
	if err != nil {
		return apistructs.Source{}, fmt.Errorf("%w: invalid height %q", common.ErrValidation, h)
	}
	src := apistructs.Source{Width: uint32(width), Height: uint32(height), URL: strings.TrimSpace(url)}
	return src, src.Validate()
}

func parseSources(raw []string) ([]apistructs.Source, error) {
	sources := make([]apistructs.Source, 0, len(raw))
	for _, r := range raw {
		s, err := parseSource(r)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}

func strPtr(s string) *string { return &s }

func newAddCmd(a *App) *cobra.Command {
	var (
		sources   []string
		title     string
		taken     string
		tags      []string
		published bool
	)

	cmd := &cobra.Command{
		Use:   "add FILE_STEM",
		Short: "Register a photo and its renditions",
		Example: `  gallery add sunset --source 1800x1200=https://static.example/sunset/sunset.1800x1200.jpeg \
    --title "Sunset" --tag nature --tag orange --published`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			srcs, err := parseSources(sources)
			if err != nil {
				return err
			}
			payload := apistructs.PhotoPayload{
				FileStem:  args[0],
				Tags:      tags,
				Sources:   &srcs,
				Published: published,
			}
			if payload.Tags == nil {
				payload.Tags = []string{}
			}
			if cmd.Flags().Changed("title") {
				payload.Title = strPtr(title)
			}
			if cmd.Flags().Changed("taken") {
				payload.TakenTimestamp = strPtr(taken)
			}

			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			photo, err := b.Photos().Create(ctx, payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created photo %d (%s)\n", photo.ID, photo.FileStem)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&sources, "source", nil, "rendition as WIDTHxHEIGHT=URL (repeatable)")
	f.StringVar(&title, "title", "", "photo title")
	f.StringVar(&taken, "taken", "", "capture timestamp, e.g. 2021-06-01T18:30:00")
	f.StringArrayVar(&tags, "tag", nil, "tag (repeatable)")
	f.BoolVar(&published, "published", false, "publish right away")
	return cmd
}

func newUpdateCmd(a *App) *cobra.Command {
	var (
		sources    []string
		title      string
		taken      string
		tags       []string
		clearTitle bool
		clearTaken bool
		clearTags  bool
	)

	cmd := &cobra.Command{
		Use:   "update FILE_STEM",
		Short: "Change the metadata or renditions of a photo",
		Long:  "Only the given fields change. Passing --source replaces every stored rendition.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f := cmd.Flags()

			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			current, err := b.Photos().GetByFileStem(ctx, args[0], models.AllPhotos)
			if err != nil {
				return err
			}

			payload := apistructs.PhotoPayload{
				FileStem:       current.FileStem,
				Title:          current.Title,
				TakenTimestamp: current.TakenTimestamp,
				Tags:           current.Tags,
			}
			switch {
			case clearTitle:
				payload.Title = nil
			case f.Changed("title"):
				payload.Title = strPtr(title)
			}
			switch {
			case clearTaken:
				payload.TakenTimestamp = nil
			case f.Changed("taken"):
				payload.TakenTimestamp = strPtr(taken)
			}
			switch {
			case clearTags:
				payload.Tags = []string{}
			case f.Changed("tag"):
				payload.Tags = tags
			}
			if f.Changed("source") {
				srcs, err := parseSources(sources)
				if err != nil {
					return err
				}
				payload.Sources = &srcs
			}

			res, err := b.Photos().Update(ctx, args[0], payload)
			if err != nil {
				return err
			}
			if res.Changed {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated photo %d (%s)\n", res.Current.ID, res.Current.FileStem)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Photo %d (%s) unchanged\n", res.Current.ID, res.Current.FileStem)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&sources, "source", nil, "replacement rendition as WIDTHxHEIGHT=URL (repeatable)")
	f.StringVar(&title, "title", "", "new title")
	f.StringVar(&taken, "taken", "", "new capture timestamp")
	f.StringArrayVar(&tags, "tag", nil, "replacement tag (repeatable)")
	f.BoolVar(&clearTitle, "clear-title", false, "remove the title")
	f.BoolVar(&clearTaken, "clear-taken", false, "remove the capture timestamp")
	f.BoolVar(&clearTags, "clear-tags", false, "remove every tag")
	cmd.MarkFlagsMutuallyExclusive("title", "clear-title")
	cmd.MarkFlagsMutuallyExclusive("taken", "clear-taken")
	cmd.MarkFlagsMutuallyExclusive("tag", "clear-tags")
	return cmd
}

func newPublishCmd(a *App, name string, published bool) *cobra.Command {
	short := "Make a photo visible to everyone"
	if !published {
		short = "Hide a photo from public pages"
	}
	return &cobra.Command{
		Use:   name + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePhotoID(args[0])
			if err != nil {
				return err
			}
			return setPublished(cmd, a, id, published)
		},
	}
}

func newSetPublishedCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-published ID true|false",
		Short: "Set the published flag of a photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePhotoID(args[0])
			if err != nil {
				return err
			}
			published, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("%w: invalid boolean %q", common.ErrValidation, args[1])
			}
			return setPublished(cmd, a, id, published)
		},
	}
}

func setPublished(cmd *cobra.Command, a *App, id models.PhotoID, published bool) error {
	ctx := cmd.Context()
	b, err := a.Backend(ctx)
	if err != nil {
		return err
	}
	if err := b.Photos().SetPublished(ctx, id, published); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Photo %d published: %t\n", id, published)
	return nil
}

func newSetHeightOffsetCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-height-offset ID PERCENT",
		Short: "Set the vertical crop anchor (0 top, 100 bottom)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parsePhotoID(args[0])
			if err != nil {
				return err
			}
			offset, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: invalid height offset %q", common.ErrValidation, args[1])
			}
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			if err := b.Photos().SetHeightOffset(ctx, id, offset); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Photo %d height offset: %d\n", id, offset)
			return nil
		},
	}
}

func newShowCmd(a *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID|FILE_STEM",
		Short: "Print a photo with its renditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}

			var photo *models.Photo
			if id, perr := parsePhotoID(args[0]); perr == nil {
				photo, err = b.Photos().Get(ctx, id, models.AllPhotos)
			} else {
				photo, err = b.Photos().GetByFileStem(ctx, args[0], models.AllPhotos)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(photo.API())
			}
			printPhoto(out, photo)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func printPhoto(w io.Writer, p *models.Photo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", p.ID)
	fmt.Fprintf(tw, "File stem:\t%s\n", p.FileStem)
	fmt.Fprintf(tw, "Title:\t%s\n", orDash(p.Title))
	fmt.Fprintf(tw, "Taken:\t%s\n", orDash(p.TakenTimestamp))
	fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(p.Tags, ", "))
	fmt.Fprintf(tw, "Height offset:\t%d\n", p.HeightOffset)
	fmt.Fprintf(tw, "Published:\t%t\n", p.Published)
	_ = tw.Flush()

	fmt.Fprintln(w, "Sources:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range p.Sources {
		fmt.Fprintf(tw, "  %dx%d\t%s\n", s.Width, s.Height, s.URL)
	}
	_ = tw.Flush()
}

func newListCmd(a *App) *cobra.Command {
	var (
		tags          []string
		limit         int
		offset        int32
		publishedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List photos newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}

			req := services.GalleryRequest{
				Tagged:    tags,
				Limit:     &limit,
				Published: models.AllPhotos,
			}
			if publishedOnly {
				req.Published = models.OnlyPublished
			}
			if cmd.Flags().Changed("offset") {
				req.Offset = &offset
			}

			page, err := b.Photos().Gallery(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILE STEM\tTITLE\tTAKEN\tPUBLISHED\tSOURCES\tTAGS")
			for _, p := range page.Photos {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%d\t%s\n",
					p.ID, p.FileStem, orDash(p.Title), orDash(p.TakenTimestamp),
					p.Published, len(p.Sources), strings.Join(p.Tags, ","))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if page.Newer != nil {
				fmt.Fprintf(out, "Newer: --offset %d\n", -int64(*page.Newer)-1)
			}
			if page.Older != nil {
				fmt.Fprintf(out, "Older: --offset %d\n", *page.Older)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&tags, "tag", nil, "only photos carrying the tag (repeatable, all must match)")
	f.IntVar(&limit, "limit", 20, "photos per page")
	f.Int32Var(&offset, "offset", 0, "page cursor printed by a previous list")
	f.BoolVar(&publishedOnly, "published", false, "hide unpublished photos")
	return cmd
}

func newDeleteCmd(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a photo and all its renditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parsePhotoID(args[0])
			if err != nil {
				return err
			}
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			photo, err := b.Photos().Get(ctx, id, models.AllPhotos)
			if err != nil {
				return err
			}

			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Delete photo %d (%s) with %d sources?", photo.ID, photo.FileStem, len(photo.Sources)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			if err := b.Photos().Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted photo %d (%s)\n", photo.ID, photo.FileStem)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
