package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nmillrr/sec-clearance-algo/internal/scheduler"
	"github.com/nmillrr/sec-clearance-algo/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage scheduled jobs",
	Long: `Starts the scheduler daemon or runs a job immediately.

Registered jobs:
- backtest_refresh: 02:30 daily, re-runs the backtest over a trailing
  window so stored metrics track newly indexed filings

Example:
  go run ./cmd/clearance scheduler start
  go run ./cmd/clearance scheduler run backtest_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}

	refreshWindowDays int
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	// Flags
	schedulerCmd.PersistentFlags().IntVar(&refreshWindowDays, "window", 365, "trailing window for the refresh job (days)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Clearance Scheduler ===")

	sched, d, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer d.close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	sched, d, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer d.close()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Printf("Job %s started; waiting for completion (Ctrl+C to abort)\n", jobName)

	// RunJob is fire and forget; poll history until a result lands.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			return nil
		case <-time.After(500 * time.Millisecond):
		}

		history, err := sched.GetJobHistory(jobName)
		if err != nil {
			return err
		}
		if result, ok := history.LastResult(); ok {
			if result.Success {
				fmt.Printf("✅ %s completed in %s\n", jobName, result.Duration)
				return nil
			}
			return fmt.Errorf("job %s failed: %s", jobName, result.Error)
		}
	}
}

func initScheduler() (*scheduler.Scheduler, *deps, error) {
	d, err := initDeps(nil)
	if err != nil {
		return nil, nil, err
	}

	var repo jobs.RunStore
	if d.repo != nil {
		repo = d.repo
	}

	sched := scheduler.New(d.logger)
	if err := sched.AddJob(jobs.NewRefreshJob(d.service, repo, d.logger, refreshWindowDays)); err != nil {
		return nil, nil, err
	}

	return sched, d, nil
}
