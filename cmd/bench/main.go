// README: bench: end-to-end checks and match throughput against a running campusride API.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"campusride/internal/config"
)

type options struct {
	baseURL        string
	migrationPath  string
	applyMigration bool
	timeout        time.Duration
	concurrency    int
	duration       time.Duration
}

func main() {
	if err := newBenchCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newBenchCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run API, storage and throughput checks against a live deployment",
		Long: `Run end-to-end checks against a running campusride API.

Database, Redis and listen address come from the same RIDE_* settings the API
reads, so a bench run always targets the deployment it is configured next to.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.baseURL == "" {
				opts.baseURL = baseURL(cfg.HTTP.Addr)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			b := newBench(ctx, cfg, opts)
			defer b.close()

			reports := b.run(ctx, b.checks())
			printReports(cmd.OutOrStdout(), reports)
			if failed := tally(reports)[outcomeFail]; failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "API base URL (default derived from RIDE_HTTP_ADDR)")
	cmd.Flags().StringVar(&opts.migrationPath, "migration", "migrations/0001_init.sql", "schema file applied by --apply-migration")
	cmd.Flags().BoolVar(&opts.applyMigration, "apply-migration", false, "apply the schema file before the checks")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 20, "parallel clients for join and load checks")
	cmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Second, "length of the throughput check")
	return cmd
}

// baseURL turns a listen address such as ":8080" or "0.0.0.0:8080" into a dialable URL.
func baseURL(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	switch {
	case strings.HasPrefix(addr, ":"):
		addr = "localhost" + addr
	case strings.HasPrefix(addr, "0.0.0.0:"):
		addr = "localhost" + strings.TrimPrefix(addr, "0.0.0.0")
	}
	return "http://" + addr
}
