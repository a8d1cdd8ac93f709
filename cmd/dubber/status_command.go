package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dubber/internal/logging"
	"dubber/internal/pipeline"
	"dubber/internal/preflight"
	"dubber/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the environment and external dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			depRows := make([][]string, 0, 4)
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				state := "ok"
				detail := status.Command
				if !status.Available {
					state = "missing"
					detail = status.Detail
				}
				depRows = append(depRows, []string{status.Name, colorizeStatus(state, colorize), detail})
			}
			fmt.Fprintln(out, "External dependencies")
			fmt.Fprintln(out, renderTable([]string{"Dependency", "State", "Detail"}, depRows, []columnAlignment{alignLeft, alignLeft, alignLeft}))

			checkRows := make([][]string, 0, 4)
			failures := 0
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				state := "PASS"
				if !result.Passed {
					state = "FAIL"
					failures++
				}
				checkRows = append(checkRows, []string{result.Name, colorizeStatus(state, colorize), result.Detail})
			}
			fmt.Fprintln(out, "Environment checks")
			fmt.Fprintln(out, renderTable([]string{"Check", "Result", "Detail"}, checkRows, []columnAlignment{alignLeft, alignLeft, alignLeft}))

			err = ctx.withStore(func(store *queue.Store) error {
				orch := pipeline.New(cfg, store, logging.NewNop())
				stageRows := make([][]string, 0, 8)
				for _, health := range orch.HealthChecks(cmd.Context()) {
					state := "ok"
					if !health.Ready {
						state = "FAIL"
						failures++
					}
					stageRows = append(stageRows, []string{health.Name, colorizeStatus(state, colorize), orDash(health.Detail)})
				}
				fmt.Fprintln(out, "Pipeline stages")
				fmt.Fprintln(out, renderTable([]string{"Stage", "Result", "Detail"}, stageRows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
				return nil
			})
			if err != nil {
				return err
			}

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			return nil
		},
	}
}
