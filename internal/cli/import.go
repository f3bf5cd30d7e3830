package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/rpattn/restquery/internal/config"
	"github.com/rpattn/restquery/internal/db"
	"github.com/rpattn/restquery/internal/domain"
	"github.com/rpattn/restquery/internal/repository"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <resource> <file.json>",
		Short: "Insert a JSON array of documents into a resource",
		Long: `Insert every object of a JSON array file as a new document of <resource>.
The whole file is imported in one transaction.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, path := args[0], args[1]
			if err := repository.ValidateResource(resource); err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			conn, err := db.NewConnection(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer conn.Close()

			var imported int
			err = conn.WithTx(cmd.Context(), func(tx pgx.Tx) error {
				n, importErr := importDocuments(cmd.Context(), repository.NewDocumentRepository(tx), resource, f)
				imported = n
				return importErr
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d document(s) into %s\n", imported, resource)
			return nil
		},
	}
}

func importDocuments(ctx context.Context, repo repository.DocumentRepository, resource string, r io.Reader) (int, error) {
	var bodies []map[string]any
	if err := json.NewDecoder(r).Decode(&bodies); err != nil {
		return 0, fmt.Errorf("decode documents: %w", err)
	}
	for i, body := range bodies {
		if body == nil {
			return i, fmt.Errorf("document %d is not an object", i)
		}
		if _, err := repo.Insert(ctx, domain.NewDocument(resource, body)); err != nil {
			return i, fmt.Errorf("document %d: %w", i, err)
		}
	}
	return len(bodies), nil
}
