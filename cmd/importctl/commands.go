package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/JonMunkholm/alumni/internal/core"
	"github.com/JonMunkholm/alumni/internal/database"
	"github.com/JonMunkholm/alumni/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultDB = "sqlite:alumni.db"

type rootOptions struct {
	dbURL     string
	rulesFile string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	root := &cobra.Command{
		Use:           "importctl",
		Short:         "Preview and import graduate spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			logging.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, "text")
			if opts.dbURL == "" {
				opts.dbURL = os.Getenv("DATABASE_URL")
			}
			if opts.dbURL == "" {
				opts.dbURL = defaultDB
			}
			if opts.rulesFile == "" {
				opts.rulesFile = os.Getenv("IMPORT_MATCH_RULES_FILE")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.dbURL, "db", "", "Database URL (default: $DATABASE_URL or "+defaultDB+")")
	root.PersistentFlags().StringVar(&opts.rulesFile, "rules", "", "YAML file with duplicate match rules")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newPreviewCmd(&opts), newConfirmCmd(&opts), newSampleCmd())
	return root
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <file>",
		Short: "Classify the rows of a csv or xlsx file without importing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}

			return withService(cmd.Context(), opts, func(ctx context.Context, svc *core.Service) error {
				res, err := svc.Preview(ctx, filepath.Base(args[0]), data)
				if err != nil {
					return userError(err)
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newConfirmCmd(opts *rootOptions) *cobra.Command {
	var includeDuplicates bool

	cmd := &cobra.Command{
		Use:   "confirm <preview.json>",
		Short: "Import the valid rows of a saved preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}
			var preview core.PreviewResult
			if err := json.Unmarshal(raw, &preview); err != nil {
				return withCode(exitUsage, fmt.Errorf("read preview %s: %w", args[0], err))
			}

			rows := rowsToImport(&preview, includeDuplicates)
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *core.Service) error {
				res, err := svc.Confirm(ctx, rows)
				if err != nil {
					return userError(err)
				}
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				if res.Failed > 0 {
					return withCode(exitPartial, fmt.Errorf("%d of %d rows failed", res.Failed, len(rows)))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&includeDuplicates, "include-duplicates", false, "Also import rows that match an existing graduate")
	return cmd
}

func newSampleCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:       "sample <csv|xlsx>",
		Short:     "Write the import template",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{core.FormatCSV, core.FormatXLSX},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := core.Sample(strings.ToLower(args[0]))
			if err != nil {
				return withCode(exitUsage, err)
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Output path (default: stdout)")
	return cmd
}

// rowsToImport selects the preview rows a confirm commits, in file order.
func rowsToImport(p *core.PreviewResult, includeDuplicates bool) []core.ImportRow {
	rows := append([]core.ImportRow(nil), p.ValidRows...)
	if includeDuplicates {
		for _, d := range p.DuplicateRows {
			rows = append(rows, core.ImportRow{Row: d.Row, Data: d.Data})
		}
	}
	slices.SortStableFunc(rows, func(a, b core.ImportRow) int { return cmp.Compare(a.Row, b.Row) })
	return rows
}

// userError prints the Hebrew message when err has one and the technical
// error otherwise.
func userError(err error) error {
	if !core.IsUserFacing(err) {
		return err
	}
	slog.Debug("import failed", "error", err)
	return errors.New(core.FormatUserError(err))
}

func withService(ctx context.Context, opts *rootOptions, fn func(context.Context, *core.Service) error) error {
	rules, err := core.LoadMatchRules(opts.rulesFile)
	if err != nil {
		return withCode(exitUsage, err)
	}

	store, err := database.Open(ctx, opts.dbURL, database.PoolConfig{})
	if err != nil {
		return err
	}
	defer store.Close()

	ctx = core.WithClient(ctx, "cli", "importctl")
	return fn(ctx, core.NewService(store, core.Options{MatchRules: rules}))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
