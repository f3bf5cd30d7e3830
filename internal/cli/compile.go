package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpattn/restquery/internal/config"
	"github.com/rpattn/restquery/internal/query"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	DefaultLimit int
	MaxLimit     int
	Compact      bool
	JSON         bool
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Print the compiled form of a list query string",
		Long: `Compile a raw query string such as

  'createdAt[eq]=2023-11-11&reasonForLeave[in]=Vacation&limit=10&page=1'

and print the resulting filter, projection and options as JSON. With --json the
argument is an already decoded query object instead, e.g.

  '{"reasonForLeave":{"in":"Vacation"},"limit":10}'

Compiler settings come from the query section of config.yaml; the limit flags
override them. No database connection is needed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			compilerOpts := cfg.Query.CompilerOptions()
			if cmd.Flags().Changed("max-limit") {
				compilerOpts = append(compilerOpts, query.WithMaxLimit(opts.MaxLimit))
			}
			if cmd.Flags().Changed("default-limit") {
				compilerOpts = append(compilerOpts, query.WithDefaultLimit(opts.DefaultLimit))
			}

			raw, err := parseCompileInput(args[0], opts.JSON)
			if err != nil {
				return err
			}
			result := query.New(compilerOpts...).Compile(raw)

			var out []byte
			if opts.Compact {
				out, err = json.Marshal(result)
			} else {
				out, err = json.MarshalIndent(result, "", "  ")
			}
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().IntVar(&opts.DefaultLimit, "default-limit", query.DefaultLimit, "page size when none is given (overrides config)")
	cmd.Flags().IntVar(&opts.MaxLimit, "max-limit", query.DefaultMaxLimit, "largest allowed page size (overrides config)")
	cmd.Flags().BoolVar(&opts.Compact, "compact", false, "print single-line JSON")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "treat the argument as a JSON object instead of a query string")

	return cmd
}

func parseCompileInput(arg string, asJSON bool) (*query.Map, error) {
	if !asJSON {
		return query.ParseQueryString(arg), nil
	}
	var v query.Value
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return nil, fmt.Errorf("decode query object: %w", err)
	}
	m, ok := v.AsMap()
	if !ok {
		return nil, fmt.Errorf("query must be a JSON object, got %s", v.Kind)
	}
	return m, nil
}
