package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"schemasync/internal/report"
	"schemasync/internal/service/comparison"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		flags    compareFlags
		schedule string
		kinds    []string
		runNow   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run comparisons on a cron schedule",
		Long:  "Runs schema and/or events comparisons on a cron schedule, writing reports and archiving every run, until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schedule == "" {
				schedule = a.cfg.WatchSchedule
			}
			if schedule == "" {
				return fmt.Errorf("a schedule is required: pass --schedule or set WATCH_SCHEDULE")
			}
			flags.archive = true

			var jobs []comparison.Job
			for _, k := range kinds {
				kind := report.Kind(k)
				if kind != report.KindSchema && kind != report.KindEvents {
					return fmt.Errorf("unknown comparison kind %q", k)
				}
				req, err := flags.request(a, kind)
				if err != nil {
					return err
				}
				jobs = append(jobs, comparison.Job{Name: k, Schedule: schedule, Request: req})
			}

			if err := a.openLogFile("watch"); err != nil {
				return err
			}
			defer a.closeLogFile()

			svc, cleanup, err := a.newService(flags.publish, flags.publishTo)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scheduler := comparison.NewScheduler(svc, jobs, a.logger)
			if runNow {
				scheduler.RunAll(ctx)
			}
			if err := scheduler.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			scheduler.Stop()
			return nil
		},
	}

	flags.register(cmd.Flags(), true)
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression, e.g. \"0 6 * * *\" or \"@hourly\" (default WATCH_SCHEDULE)")
	cmd.Flags().StringSliceVar(&kinds, "kind", []string{string(report.KindSchema), string(report.KindEvents)}, "Comparisons to run")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Run every comparison once before the first tick")
	return cmd
}
