package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpattn/restquery/internal/config"
	"github.com/rpattn/restquery/internal/db"
	"github.com/rpattn/restquery/internal/listing"
	"github.com/rpattn/restquery/internal/query"
	"github.com/rpattn/restquery/internal/repository"
	"github.com/rpattn/restquery/internal/server"
)

type ServeOptions struct {
	*RootOptions
	SkipMigrations bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP listing API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipMigrations, "skip-migrations", false, "do not apply migrations on start")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	if !opts.SkipMigrations {
		if err := db.RunMigrations(cfg.Database); err != nil {
			return err
		}
	}

	repo := repository.NewDocumentRepository(conn.Pool)
	service := listing.NewService(repo,
		listing.WithCompiler(query.New(cfg.Query.CompilerOptions()...)),
		listing.WithResources(cfg.Server.Resources...),
		listing.WithMaxExportRows(cfg.Server.MaxExportRows),
	)

	srv := server.New(
		server.Options{Addr: cfg.Server.Addr},
		server.NewRouter(service, repo, cfg.Server.AllowedOrigins),
	)
	return srv.Run(ctx)
}
