package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/preflight/internal/config"
	"github.com/opensource-finance/preflight/internal/domain"
	"github.com/opensource-finance/preflight/internal/intel"
	"github.com/opensource-finance/preflight/internal/logging"
	"github.com/opensource-finance/preflight/internal/repository"
)

type options struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "preflightctl",
		Short:         "Manage Preflight scam intelligence",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(importCmd(opts))
	root.AddCommand(lookupCmd(opts))
	return root
}

func importCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a JSON or YAML feed into the SQL store",
		Long: `Load a scam intelligence feed into the database selected by the
Preflight configuration (SQLITE_PATH or POSTGRES_*). Existing records for the
same address and kind are replaced; cluster member lists are replaced whole.
The import is all or nothing.

Examples:
  preflightctl import scam_db.json
  INTEL_SOURCE=postgres POSTGRES_HOST=db preflightctl import feed.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}

			feed, err := intel.FileSource{Path: args[0]}.LoadFeed(ctx)
			if err != nil {
				return err
			}

			repo, err := repository.New(cfg.Repository)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.ImportFeed(ctx, feed); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d wallets, %d contracts, %d clusters into %s\n",
				len(feed.Wallets), len(feed.Contracts), len(feed.Clusters), cfg.Repository.Driver)
			return nil
		},
	}
}

func lookupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <address>",
		Short: "Print the scam intelligence for an address",
		Long: `Build the index from the configured source (INTEL_SOURCE) and print
the lookup result for one address as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, "text")

			var source domain.IntelSource = intel.FileSource{Path: cfg.Intel.Path}
			if cfg.Intel.Source != domain.IntelSourceFile {
				repo, err := repository.New(cfg.Repository)
				if err != nil {
					return err
				}
				defer repo.Close()
				source = repo
			}

			index := intel.Load(ctx, source, logger)
			return printJSON(cmd, lookupResult{
				Address:   intel.Normalize(args[0]),
				Flagged:   index.IsFlagged(args[0]),
				ScamIntel: index.Lookup(args[0]),
			})
		},
	}
}

type lookupResult struct {
	Address   string           `json:"address"`
	Flagged   bool             `json:"flagged"`
	ScamIntel domain.ScamIntel `json:"scam_intel"`
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
