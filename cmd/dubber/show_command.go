package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dubber/internal/language"
	"dubber/internal/queue"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Display details for one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withStore(func(store *queue.Store) error {
				job, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", id)
				}
				renderJob(cmd, job)
				return nil
			})
		},
	}
}

func renderJob(cmd *cobra.Command, job *queue.Job) {
	out := cmd.OutOrStdout()

	pairs := [][2]string{
		{"Job", strconv.FormatInt(job.ID, 10)},
		{"Title", job.Title},
		{"Source", job.SourcePath},
		{"Languages", fmt.Sprintf("%s -> %s", language.DisplayName(job.SourceLang), language.DisplayName(job.TargetLang))},
		{"Status", string(job.Status)},
		{"Step", orDash(string(job.Step))},
		{"Created", formatTimestamp(job.CreatedAt)},
		{"Updated", formatTimestamp(job.UpdatedAt)},
	}
	if job.Voice != "" {
		pairs = append(pairs, [2]string{"Voice", job.Voice})
	}
	if job.VideoDuration > 0 {
		pairs = append(pairs, [2]string{"Video duration", formatSeconds(job.VideoDuration)})
	}
	if job.AchievedDuration > 0 {
		pairs = append(pairs,
			[2]string{"Dub duration", formatSeconds(job.AchievedDuration)},
			[2]string{"Fitted segments", strconv.Itoa(job.FittedSegments)},
			[2]string{"Placeholders", strconv.Itoa(job.PlaceholderCount)},
		)
	}
	if job.FinalFile != "" {
		pairs = append(pairs, [2]string{"Output", job.FinalFile})
	}
	printKeyValues(out, pairs)

	if timestamps := job.StepTimestamps(); len(timestamps) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Completed steps:")
		for _, step := range queue.StepOrder {
			at, ok := timestamps[step]
			if !ok {
				continue
			}
			fmt.Fprintf(out, "  %-20s %s\n", step, formatTimestamp(at))
		}
	}

	if errs := job.Errors(); len(errs) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Errors:")
		for _, entry := range errs {
			fmt.Fprintf(out, "  - %s\n", entry)
		}
	}
}
