package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadscout/internal/model"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run registry ingestion flows",
}

var syncFullCmd = &cobra.Command{
	Use:   "full",
	Short: "Walk the entire registry listing, upserting and scoring every company",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context(), func(ctx context.Context, env *appEnv) (*model.SyncJob, error) {
			return env.Orchestrator.FullSync(ctx)
		})
	},
}

var syncIncrementalCmd = &cobra.Command{
	Use:   "incremental",
	Short: "Re-ingest companies changed since the last incremental run",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context(), func(ctx context.Context, env *appEnv) (*model.SyncJob, error) {
			return env.Orchestrator.IncrementalSync(ctx)
		})
	},
}

var syncRolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Load role data for companies that do not have it yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context(), func(ctx context.Context, env *appEnv) (*model.SyncJob, error) {
			return env.Orchestrator.RolesSync(ctx)
		})
	},
}

var syncSubEntitiesCmd = &cobra.Command{
	Use:   "subentities",
	Short: "Walk the branch listing and attach branches to their parents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context(), func(ctx context.Context, env *appEnv) (*model.SyncJob, error) {
			return env.Orchestrator.SubEntitySync(ctx)
		})
	},
}

var syncStatusLimit int

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent sync jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		jobs, err := st.ListJobs(ctx, syncStatusLimit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	},
}

// runSync wires the environment, runs one flow under signal cancellation and
// prints the finished job record.
func runSync(parent context.Context, flow func(context.Context, *appEnv) (*model.SyncJob, error)) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	job, flowErr := flow(ctx, env)
	if job != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(job)
	}
	return flowErr
}

func init() {
	syncStatusCmd.Flags().IntVar(&syncStatusLimit, "limit", 20, "number of jobs to show")

	syncCmd.AddCommand(syncFullCmd, syncIncrementalCmd, syncRolesCmd, syncSubEntitiesCmd, syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
