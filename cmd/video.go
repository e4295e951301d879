package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gemtutor-ai/gemtutor/internal/history"
	"github.com/gemtutor-ai/gemtutor/internal/logging"
	"github.com/gemtutor-ai/gemtutor/internal/profile"
	"github.com/gemtutor-ai/gemtutor/internal/session"
	"github.com/gemtutor-ai/gemtutor/internal/youtube"
)

func newVideoCmd() *cobra.Command {
	var ask string
	var title string

	cmd := &cobra.Command{
		Use:   "video <url-or-id>",
		Short: "Fetch a YouTube video transcript and ask questions about it",
		Long: "Downloads the video's transcript, condenses it, and answers questions\n" +
			"about the content. Transcript summaries are cached per video.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVideo(args[0], title, ask)
		},
	}
	cmd.Flags().StringVar(&ask, "ask", "", "ask a single question and exit")
	cmd.Flags().StringVar(&title, "title", "", "video title to record with the session")
	return cmd
}

func runVideo(rawID, title, ask string) error {
	cfg, dataDir, err := setup()
	if err != nil {
		return err
	}
	defer logging.Sync()

	videoID, err := youtube.ParseVideoID(rawID)
	if err != nil {
		return err
	}

	ai, err := newTutorClient(cfg)
	if err != nil {
		return err
	}
	state := loadProfile(cfg, dataDir)

	ctx, cancel := signalContext()
	defer cancel()

	transcriptSummary, cached := state.Transcript(videoID)
	if !cached {
		fmt.Fprintln(os.Stderr, "Fetching transcript...")
		transcript, err := youtube.NewClient().FetchTranscript(ctx, videoID)
		if err != nil {
			return err
		}
		transcriptSummary, err = ai.SummarizeForContext(ctx, transcript, cfg.Tutor.Language)
		if err != nil {
			return fmt.Errorf("condense transcript: %w", err)
		}
		state.StoreTranscript(videoID, transcriptSummary)
		if err := state.Save(); err != nil {
			fmt.Fprintln(os.Stderr, "warning: cannot save profile:", err)
		}
	}

	vs := session.NewVideo(ai, videoID, title, transcriptSummary, cfg.Tutor.Language)

	if ask != "" {
		reply, err := vs.Ask(ctx, ask)
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	}

	runVideoLoop(ctx, vs)

	topic := title
	if topic == "" {
		topic = "Video " + videoID
	}
	state.AddOrUpdateSession(profile.SessionRef{Kind: "video", Topic: topic})
	if err := state.Save(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: cannot save profile:", err)
	}

	archive, err := history.Open(history.DefaultDBPath(dataDir))
	if err != nil {
		return err
	}
	defer archive.Close()
	if _, err := archive.Add(&history.Record{
		Kind:     history.KindVideo,
		Topic:    topic,
		Language: cfg.Tutor.Language,
		Level:    "n/a",
		Summary:  transcriptSummary,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "warning: cannot archive session:", err)
	}
	return nil
}

func runVideoLoop(ctx context.Context, vs *session.Video) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Println("Ask about the video. /quit to finish.")
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() || ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return
		}

		reply, err := vs.Ask(ctx, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "tutor:", err)
			continue
		}
		fmt.Println(reply)
	}
}
