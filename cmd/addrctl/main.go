// Package main provides addrctl, a command-line client for the address database.
// It runs the same matcher as the HTTP server without going through HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/evyataryagoni/addresslookup/internal/config"
	"github.com/evyataryagoni/addresslookup/internal/logger"
	"github.com/evyataryagoni/addresslookup/internal/matcher"
	"github.com/evyataryagoni/addresslookup/internal/models"
	"github.com/evyataryagoni/addresslookup/internal/service"
	"github.com/evyataryagoni/addresslookup/internal/store"
)

// storeOpener opens the backing store for a loaded configuration
type storeOpener func(cfg *config.Config) (store.Store, error)

// openStore validates the configuration and opens the configured database
func openStore(cfg *config.Config) (store.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return store.New(store.Config{Driver: cfg.DBDriver, DSN: cfg.DSN()})
}

func main() {
	if err := newRootCmd(openStore).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around the given store opener
func newRootCmd(open storeOpener) *cobra.Command {
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:   "addrctl",
		Short: "addrctl - query the address lookup database",
		Long: `addrctl runs fuzzy and exact address searches and database health
checks directly against the configured address table.

Configuration is read from the environment and an optional .env file,
the same way the server reads it. Use 'addrctl init-env' to create one.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Deadline for each database operation")

	rootCmd.AddCommand(
		newSearchCmd(open, &timeout),
		newHealthCmd(open, &timeout),
		newInitEnvCmd(),
	)
	return rootCmd
}

// newService opens the store and wraps it in an address service
func newService(open storeOpener) (*service.AddressService, error) {
	cfg := config.Load()
	st, err := open(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: "warn", Pretty: true, Output: os.Stderr})
	schema := matcher.DefaultSchema().WithTable(cfg.AddressTable)
	return service.NewAddressService(st, schema, nil, log), nil
}

func newSearchCmd(open storeOpener, timeout *time.Duration) *cobra.Command {
	var exact, asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search addresses (fuzzy by default)",
		Long: `Search the address table. Words are joined with single spaces.

Fuzzy search returns up to 50 addresses containing the query, exact matches
first, then prefix matches. --exact returns up to 10 case-insensitive equal
addresses.

Example:
  addrctl search 123 Main St
  addrctl search --exact "123 Main St" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(open)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			mode := models.ModeFuzzy
			if exact {
				mode = models.ModeExact
			}

			results, err := svc.Search(ctx, mode, strings.Join(args, " "))
			if err != nil {
				if errors.Is(err, service.ErrInvalidInput) {
					return errors.New("please enter an address to search")
				}
				return fmt.Errorf("search failed: %w", err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), models.SearchResponse{
					Success: true,
					Count:   results.Count(),
					Results: results.Records,
				})
			}
			return writeTable(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().BoolVar(&exact, "exact", false, "Match the whole address instead of a substring")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the same JSON body the server returns")
	return cmd
}

func newHealthCmd(open storeOpener, timeout *time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the address database is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(open)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			status := svc.HealthCheck(ctx)
			if !status.Healthy {
				return fmt.Errorf("unhealthy: %s", status.Reason)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "healthy: database connected")
			return nil
		},
	}
}

func newInitEnvCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init-env",
		Short: "Write a .env template with placeholder credentials",
		Long: `Write a .env template listing every configuration key with its default.
DB_PASSWORD is left as a placeholder that the server refuses to start with.
An existing file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteEnvTemplate(path); err != nil {
				if errors.Is(err, config.ErrEnvFileExists) {
					return fmt.Errorf("%s already exists; remove it first to regenerate", path)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s; set DB_PASSWORD before starting the server\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", ".env", "Where to write the template")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, results *models.ResultSet) error {
	if results.Count() == 0 {
		_, err := fmt.Fprintln(w, "No addresses found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tCITY\tZIP")
	for _, r := range results.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.FullAddress, r.City, r.ZipCode)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d result(s)\n", results.Count())
	return err
}
