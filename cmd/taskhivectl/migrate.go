package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskhive/taskhive/internal/app/bootstrap"
	"github.com/taskhive/taskhive/internal/app/migrate"
)

func newMigrateCmd(env *cliEnv) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "command timeout")

	withRunner := func(fn func(context.Context, *migrate.Runner) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			pool, err := bootstrap.OpenPool(ctx, env.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			runner, err := migrate.New(pool, env.cfg.MigrationsDir, env.log)
			if err != nil {
				return err
			}
			defer runner.Close()
			return fn(ctx, runner)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: withRunner(func(ctx context.Context, r *migrate.Runner) error {
			return r.Ensure(ctx)
		}),
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: withRunner(func(ctx context.Context, r *migrate.Runner) error {
			statuses, err := r.Status(ctx)
			if err != nil {
				return err
			}
			return printStatus(cmd, statuses)
		}),
	}

	var target int64
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration, or down to --target",
		Args:  cobra.NoArgs,
		RunE: withRunner(func(ctx context.Context, r *migrate.Runner) error {
			return r.Down(ctx, target)
		}),
	}
	down.Flags().Int64Var(&target, "target", 0, "target version (optional)")

	cmd.AddCommand(up, status, down)
	return cmd
}

func printStatus(cmd *cobra.Command, statuses []migrate.Status) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, st := range statuses {
		state, applied := "pending", "-"
		if st.Applied {
			state = "applied"
			applied = st.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.Version, state, applied, st.Path)
	}
	return tw.Flush()
}
