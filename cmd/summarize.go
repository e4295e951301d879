package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gemtutor-ai/gemtutor/internal/logging"
	"github.com/gemtutor-ai/gemtutor/internal/pdfx"
)

func newSummarizeCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "summarize <pdf> [pdf...]",
		Short: "Summarize one or more PDFs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(args, save)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "also save the summary as Markdown in the data directory")
	return cmd
}

func runSummarize(paths []string, save bool) error {
	cfg, dataDir, err := setup()
	if err != nil {
		return err
	}
	defer logging.Sync()

	ai, err := newTutorClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	texts, errs := pdfx.ExtractAll(paths)
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, "warning:", e)
	}
	if len(texts) == 0 {
		return fmt.Errorf("no readable text in the given documents")
	}

	summary, err := ai.SummarizeDocuments(ctx, texts, cfg.Tutor.Language)
	if err != nil {
		return fmt.Errorf("summarize documents: %w", err)
	}
	fmt.Println(summary)

	if save {
		state := loadProfile(cfg, dataDir)
		topic := "General"
		if tq, err := ai.TopicAndQuery(ctx, summary, cfg.Tutor.Language); err == nil {
			topic = tq.MainTopic
		}
		if err := state.SaveSummary(summary, topic, nil); err != nil {
			return fmt.Errorf("save summary: %w", err)
		}
		if err := state.Save(); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Summary saved.")
	}
	return nil
}
