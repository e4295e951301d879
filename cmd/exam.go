package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gemtutor-ai/gemtutor/internal/history"
	"github.com/gemtutor-ai/gemtutor/internal/logging"
	"github.com/gemtutor-ai/gemtutor/internal/pdfx"
	"github.com/gemtutor-ai/gemtutor/internal/profile"
	"github.com/gemtutor-ai/gemtutor/internal/session"
	"github.com/gemtutor-ai/gemtutor/internal/tutor"
	"github.com/gemtutor-ai/gemtutor/internal/youtube"
)

func newExamCmd() *cobra.Command {
	var videoRef string
	var questions int

	cmd := &cobra.Command{
		Use:   "exam <pdf> [pdf...]",
		Short: "Take a comprehensive exam over documents and an optional video",
		Long: "Generates an exam over the summarized documents, optionally combined\n" +
			"with a video's transcript, then grades your written answers.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExam(args, videoRef, questions)
		},
	}
	cmd.Flags().StringVar(&videoRef, "video", "", "YouTube URL or ID to include in the exam material")
	cmd.Flags().IntVarP(&questions, "questions", "n", 0, "number of questions (default from config)")
	return cmd
}

func runExam(paths []string, videoRef string, questions int) error {
	cfg, dataDir, err := setup()
	if err != nil {
		return err
	}
	defer logging.Sync()

	ai, err := newTutorClient(cfg)
	if err != nil {
		return err
	}
	state := loadProfile(cfg, dataDir)
	archive, err := history.Open(history.DefaultDBPath(dataDir))
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx, cancel := signalContext()
	defer cancel()

	texts, errs := pdfx.ExtractAll(paths)
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, "warning:", e)
	}
	if len(texts) == 0 {
		return fmt.Errorf("no readable text in the given documents")
	}

	fmt.Println("Summarizing documents...")
	pdfSummary, err := ai.SummarizeDocuments(ctx, texts, cfg.Tutor.Language)
	if err != nil {
		return fmt.Errorf("summarize documents: %w", err)
	}

	// Optional video material. Cached transcript summaries are reused.
	var videoSummary string
	if videoRef != "" {
		videoID, err := youtube.ParseVideoID(videoRef)
		if err != nil {
			return err
		}
		summary, cached := state.Transcript(videoID)
		if !cached {
			fmt.Fprintln(os.Stderr, "Fetching transcript...")
			transcript, err := youtube.NewClient().FetchTranscript(ctx, videoID)
			if err != nil {
				return err
			}
			summary, err = ai.SummarizeForContext(ctx, transcript, cfg.Tutor.Language)
			if err != nil {
				return fmt.Errorf("condense transcript: %w", err)
			}
			state.StoreTranscript(videoID, summary)
		}
		videoSummary = summary
	}

	if questions <= 0 {
		questions = cfg.Tutor.ExamQuestions
	}

	exam := session.NewAssessment(ai, pdfSummary, videoSummary, cfg.Tutor.Language)
	qs, err := exam.CreateAssessment(ctx, questions, true)
	if err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	fmt.Println(qs)

	fmt.Println("\nEnter your answers. Finish with an empty line.")
	answer := readAnswerBlock()
	if strings.TrimSpace(answer) == "" {
		fmt.Println("No answers given. Exam discarded.")
		return nil
	}

	ev, err := exam.CheckAnswer(ctx, answer)
	if err != nil {
		return fmt.Errorf("grade exam: %w", err)
	}
	printEvaluation(ev)

	switch ev.Status {
	case tutor.StatusCorrect:
		state.GainXP(examXP(false))
		fmt.Printf("+%d XP (level %d, %d/%d)\n", examXP(false), state.Level, state.XP, state.XPForNextLevel())
	case tutor.StatusPartiallyCorrect:
		state.GainXP(examXP(true))
		fmt.Printf("+%d XP (level %d, %d/%d)\n", examXP(true), state.Level, state.XP, state.XPForNextLevel())
	}

	topic := "General"
	if tq, err := ai.TopicAndQuery(ctx, pdfSummary, cfg.Tutor.Language); err == nil {
		topic = tq.MainTopic
	}
	ref := state.AddOrUpdateSession(profile.SessionRef{Kind: "assessment", Topic: topic})
	if err := state.Save(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: cannot save profile:", err)
	}
	if _, err := archive.Add(&history.Record{
		ID:         ref.ID,
		Kind:       history.KindAssessment,
		Topic:      topic,
		Language:   cfg.Tutor.Language,
		Level:      strconv.Itoa(state.Level),
		Summary:    pdfSummary,
		Evaluation: string(ev.Status),
	}); err != nil {
		fmt.Fprintln(os.Stderr, "warning: cannot archive session:", err)
	}
	return nil
}

// readAnswerBlock reads stdin lines until an empty line or EOF.
func readAnswerBlock() string {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
