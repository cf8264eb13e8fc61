// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command rollctl maintains the electoral roll from the command line.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/rollcall/db"
	"github.com/danielhkuo/rollcall/logging"
	"github.com/danielhkuo/rollcall/rollmatch"
	"github.com/danielhkuo/rollcall/rollstore"
)

const (
	Version = "0.1.0"
	appName = "rollctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are shared by every subcommand.
type globalOptions struct {
	envFile      string
	databaseURL  string
	databaseType string
	logLevel     string
}

// open loads the env file, applies environment fallbacks and connects to
// the database with the schema in place.
func (o *globalOptions) open() (*sql.DB, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", o.envFile, err)
		}
	}
	logging.Setup(o.logLevel, "text")

	if o.databaseURL == "" {
		o.databaseURL = os.Getenv("DATABASE_URL")
	}
	if o.databaseURL == "" {
		return nil, errors.New("database URL required (use --database-url or DATABASE_URL env)")
	}
	if o.databaseType == "" {
		o.databaseType = os.Getenv("DATABASE_TYPE")
	}
	if o.databaseType == "" {
		o.databaseType = db.TypeSQLite
	}

	conn, err := db.Open(o.databaseType, o.databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Electoral roll maintenance",
		Long: `rollctl imports electoral roll records and checks voter claims
against them, using the same database as the rollcall server.

Roll files may be JSON, YAML or CSV; the format follows the extension.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file")
	cmd.PersistentFlags().StringVarP(&opts.databaseURL, "database-url", "d", "", "Database URL (default $DATABASE_URL)")
	cmd.PersistentFlags().StringVarP(&opts.databaseType, "database-type", "t", "", "sqlite or postgres (default $DATABASE_TYPE or sqlite)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(importCmd(opts), verifyCmd(opts), countCmd(opts))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func importCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import or refresh roll records from a JSON, YAML or CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := rollstore.LoadFile(args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("%s: no records", args[0])
			}

			conn, err := opts.open()
			if err != nil {
				return err
			}
			defer conn.Close()

			start := time.Now()
			n, err := rollstore.New(conn).Upsert(cmd.Context(), records)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %s records in %s\n",
				humanize.Comma(int64(n)), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func verifyCmd(opts *globalOptions) *cobra.Command {
	var (
		claim     rollmatch.VoterClaim
		claimFile string
		output    string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a voter claim against the roll without storing anything",
		Example: `  rollctl verify --voter-id KL/01/001/000123 --given-name Asha --family-name Rao --dob 1990-01-01
  rollctl verify --claim-file claim.yaml --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if claimFile != "" {
				data, err := os.ReadFile(claimFile)
				if err != nil {
					return err
				}
				// YAML is a superset of JSON, so one decoder reads both.
				if err := yaml.Unmarshal(data, &claim); err != nil {
					return fmt.Errorf("parse %s: %w", claimFile, err)
				}
			}

			conn, err := opts.open()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result := rollmatch.Verify(ctx, claim, rollstore.New(conn).Lookup)
			return writeResult(cmd.OutOrStdout(), output, result)
		},
	}

	f := cmd.Flags()
	f.StringVar(&claim.VoterIDNumber, "voter-id", "", "Voter ID number")
	f.StringVar(&claim.NationalIDNumber, "national-id", "", "National ID number")
	f.StringVar(&claim.GivenName, "given-name", "", "Given name")
	f.StringVar(&claim.FamilyName, "family-name", "", "Family name")
	f.StringVar(&claim.FatherName, "father-name", "", "Father's name")
	f.StringVar(&claim.DateOfBirth, "dob", "", "Date of birth as written on the roll")
	f.StringVar(&claim.State, "state", "", "State")
	f.StringVar(&claim.District, "district", "", "District")
	f.StringVar(&claim.City, "city", "", "City")
	f.StringVar(&claimFile, "claim-file", "", "Read the claim from a JSON or YAML file")
	f.StringVarP(&output, "output", "o", "json", "Output format (json or yaml)")
	f.DurationVar(&timeout, "timeout", 5*time.Second, "Roll lookup timeout")

	return cmd
}

func writeResult(w io.Writer, format string, result rollmatch.VerificationResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(result)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func countCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of records on the roll",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := opts.open()
			if err != nil {
				return err
			}
			defer conn.Close()

			n, err := rollstore.New(conn).Count(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), humanize.Comma(int64(n)))
			return nil
		},
	}
}
