package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/photogallery/internal/admin/config"
	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/spf13/cobra"
)

// Execute runs the admin CLI with the process arguments.
func Execute(ctx context.Context) error {
	app := NewApp()
	defer app.Close()
	return NewRootCmd(app).ExecuteContext(ctx)
}

func NewRootCmd(a *App) *cobra.Command {
	var (
		configPath string
		dsn        string
		logLevel   string
		verbose    bool
	)

	root := &cobra.Command{
		Use:          "gallery",
		Short:        "Administer the photo gallery catalog",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("database-dsn") {
				cfg.DatabaseDSN = dsn
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			a.config = cfg
			a.log = logging.New(a.logOut, "text", cfg.LogLevel)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "path to a JSON config file")
	pf.StringVar(&dsn, "database-dsn", "", "PostgreSQL connection string")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVarP(&verbose, "verbose", "v", false, "shorthand for --log-level debug")

	root.AddCommand(
		newMigrateCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newPublishCmd(a, "publish", true),
		newPublishCmd(a, "unpublish", false),
		newSetPublishedCmd(a),
		newSetHeightOffsetCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newKeysCmd(a),
		newUploadCmd(a),
		newJournalCmd(a),
		newDumpXMPCmd(a),
		newVersionCmd(),
	)

	return root
}

func newMigrateCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			b, err := a.Backend(ctx)
			if err != nil {
				return err
			}
			a.log.Info(ctx, "Applying migrations...")
			if err := b.Migrate(ctx); err != nil {
				return fmt.Errorf("migration error: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func parsePhotoID(s string) (models.PhotoID, error) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid photo id %q", common.ErrValidation, s)
	}
	return models.PhotoID(id), nil
}
