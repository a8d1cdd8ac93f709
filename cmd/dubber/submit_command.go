package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dubber/internal/config"
	"dubber/internal/fileutil"
	"dubber/internal/language"
	"dubber/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var sourceLang string
	var targetLang string
	var voice string

	cmd := &cobra.Command{
		Use:   "submit <video-file>",
		Short: "Queue a video file for dubbing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			if !fileutil.NonEmptyFile(source) {
				return fmt.Errorf("source file %s does not exist or is empty", source)
			}

			src := language.ToISO2(sourceLang)
			dst := language.ToISO2(targetLang)
			if dst == "" {
				return fmt.Errorf("unknown target language %q", targetLang)
			}
			if src == "" {
				return fmt.Errorf("unknown source language %q", sourceLang)
			}
			if src == dst {
				return fmt.Errorf("source and target language are both %s", language.DisplayName(dst))
			}

			return ctx.withStore(func(store *queue.Store) error {
				job, err := store.NewJob(cmd.Context(), source, src, dst, strings.TrimSpace(voice))
				if err != nil {
					return fmt.Errorf("queue job: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued job %d: %s\n", job.ID, job.Title)
				fmt.Fprintf(out, "  %s -> %s\n", language.DisplayName(job.SourceLang), language.DisplayName(job.TargetLang))
				fmt.Fprintln(out, "Run `dubber run` to process the queue.")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sourceLang, "source-lang", "en", "Spoken language of the source video")
	cmd.Flags().StringVar(&targetLang, "target-lang", "", "Language to dub into")
	cmd.Flags().StringVar(&voice, "voice", "", "Synthesis voice override for this job")
	_ = cmd.MarkFlagRequired("target-lang")

	return cmd
}
