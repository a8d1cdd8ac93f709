package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"dubber/internal/logging"
	"dubber/internal/pipeline"
	"dubber/internal/preflight"
	"dubber/internal/queue"
)

const watchPollInterval = 5 * time.Second

func newRunCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run [job-id]",
		Short: "Process queued jobs until the queue drains",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lock := flock.New(filepath.Join(cfg.Paths.LogDir, "dubber.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return errors.New("another dubber instance is already running")
			}
			defer func() { _ = lock.Unlock() }()

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logPath := filepath.Join(cfg.Paths.LogDir, "dubber.log")
			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stdout", logPath},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			if !skipPreflight {
				if err := runPreflight(signalCtx, cmd, ctx); err != nil {
					return err
				}
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue: %w", err)
			}
			defer store.Close()

			orch := pipeline.New(cfg, store, logger)

			if len(args) == 1 {
				err = runSingleJob(signalCtx, cmd, store, orch, args[0])
			} else {
				err = drainLoop(signalCtx, cmd, orch, watch)
			}

			// Jobs interrupted mid-stage stay visible as failures rather
			// than lingering as processing forever.
			if stopped, failErr := store.FailProcessing(context.Background(), queue.ShutdownStopReason); failErr != nil {
				logger.Warn("failed to mark interrupted jobs", logging.Args(logging.Error(failErr))...)
			} else if stopped > 0 {
				logger.Info("marked interrupted jobs as failed", logging.Args(logging.Int64("jobs", stopped))...)
			}

			if errors.Is(err, context.Canceled) && signalCtx.Err() != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Shutdown requested; stopping.")
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling for new jobs after the queue drains")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before processing")

	return cmd
}

func runSingleJob(ctx context.Context, cmd *cobra.Command, store *queue.Store, orch *pipeline.Orchestrator, arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid job id %q", arg)
	}
	job, err := store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %d not found", id)
	}
	if job.Status != queue.StatusUploaded {
		return fmt.Errorf("job %d is %s; only uploaded jobs can be run (use `dubber queue retry` for failed jobs)", id, job.Status)
	}
	if err := orch.Process(ctx, job); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Job %d completed: %s\n", job.ID, job.FinalFile)
	return nil
}

func drainLoop(ctx context.Context, cmd *cobra.Command, orch *pipeline.Orchestrator, watch bool) error {
	out := cmd.OutOrStdout()
	for {
		processed, failed, err := orch.Drain(ctx)
		if err != nil {
			return err
		}
		if processed > 0 || failed > 0 {
			fmt.Fprintf(out, "Processed %d job(s), %d failed.\n", processed, failed)
		}
		if !watch {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(watchPollInterval):
		}
	}
}

func runPreflight(ctx context.Context, cmd *cobra.Command, cmdCtx *commandContext) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failures := 0

	for _, status := range preflight.CheckSystemDeps(ctx, cfg) {
		if !status.Available && !status.Optional {
			fmt.Fprintf(out, "Missing dependency: %s (%s)\n", status.Name, status.Detail)
			failures++
		}
	}
	for _, result := range preflight.RunAll(ctx, cfg) {
		if !result.Passed {
			fmt.Fprintf(out, "Preflight failed: %s: %s\n", result.Name, result.Detail)
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d preflight check(s) failed; fix them or pass --skip-preflight", failures)
	}
	return nil
}
