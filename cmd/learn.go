package cmd

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gemtutor-ai/gemtutor/internal/config"
	"github.com/gemtutor-ai/gemtutor/internal/history"
	"github.com/gemtutor-ai/gemtutor/internal/logging"
	"github.com/gemtutor-ai/gemtutor/internal/pdfx"
	"github.com/gemtutor-ai/gemtutor/internal/profile"
	"github.com/gemtutor-ai/gemtutor/internal/session"
	"github.com/gemtutor-ai/gemtutor/internal/tutor"
	"github.com/gemtutor-ai/gemtutor/internal/youtube"
)

// XP awarded for a correct quiz answer, scaled by assessment type. A
// partially correct answer earns half, rounded to nearest.
const (
	baseXP         = 10
	lessonXPFactor = 1.5
	examXPFactor   = 2.0
)

func lessonXP(partial bool) int {
	xp := float64(baseXP) * lessonXPFactor
	if partial {
		xp *= 0.5
	}
	return int(math.Round(xp))
}

func examXP(partial bool) int {
	xp := float64(baseXP) * examXPFactor
	if partial {
		xp *= 0.5
	}
	return int(math.Round(xp))
}

func newLearnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn <pdf> [pdf...]",
		Short: "Start an interactive lesson over one or more PDFs",
		Long: "Summarizes the documents, explains them at your current level, and\n" +
			"opens a tutoring prompt. Type /help inside the lesson for commands.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLearn(args)
		},
	}
	return cmd
}

func runLearn(paths []string) error {
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
	summary, err := ai.SummarizeDocuments(ctx, texts, cfg.Tutor.Language)
	if err != nil {
		return fmt.Errorf("summarize documents: %w", err)
	}

	lesson := session.NewLearning(ai, summary, state.Level, cfg.Tutor.Language)
	if cfg.Tutor.MaxAttempts > 0 {
		lesson.MaxAttempts = cfg.Tutor.MaxAttempts
	}

	fmt.Printf("Preparing an explanation for level %d...\n\n", state.Level)
	explanation, err := lesson.Explain(ctx, false)
	if err != nil {
		return fmt.Errorf("explain content: %w", err)
	}
	fmt.Println(explanation)

	// Main topic drives time tracking, the session record, and the video
	// suggestion. A failure here must not abort the lesson.
	topic := "General"
	var videoQuery string
	if tq, err := ai.TopicAndQuery(ctx, summary, cfg.Tutor.Language); err == nil {
		topic = tq.MainTopic
		videoQuery = tq.SearchQuery
	} else {
		logging.L().Warn("cannot determine lesson topic: " + err.Error())
	}

	start := time.Now()
	lastEval := runLessonLoop(ctx, cfg, ai, lesson, state, topic, videoQuery)

	// Persist progress even when the loop ended by Ctrl-C.
	state.RecordTime(topic, time.Since(start))
	ref := state.AddOrUpdateSession(profile.SessionRef{Kind: "lesson", Topic: topic})
	if err := state.Save(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: cannot save profile:", err)
	}
	if _, err := archive.Add(&history.Record{
		ID:         ref.ID,
		Kind:       history.KindLearning,
		Topic:      topic,
		Language:   cfg.Tutor.Language,
		Level:      strconv.Itoa(state.Level),
		Summary:    summary,
		Evaluation: lastEval,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "warning: cannot archive session:", err)
	}

	fmt.Printf("\nSession saved. Level %d, %d/%d XP.\n", state.Level, state.XP, state.XPForNextLevel())
	return nil
}

// runLessonLoop is the lesson REPL. It returns the status of the last graded
// answer, empty if no quiz was taken.
func runLessonLoop(ctx context.Context, cfg *config.Config, ai *tutor.Client, lesson *session.Learning, state *profile.State, topic, videoQuery string) string {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lastEval tutor.Evaluation
	var lastAnswer string

	fmt.Println("\nAsk a question, or type /help for lesson commands.")
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			return string(lastEval.Status)
		}
		if ctx.Err() != nil {
			return string(lastEval.Status)
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch cmd, rest, _ := strings.Cut(line, " "); cmd {
		case "/quit", "/exit":
			return string(lastEval.Status)

		case "/help":
			printLessonHelp()

		case "/quiz":
			n := cfg.Tutor.QuizQuestions
			if v, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil {
				n = v
			}
			quiz, err := lesson.CreateQuiz(ctx, n)
			if err != nil {
				fmt.Fprintln(os.Stderr, "quiz:", err)
				continue
			}
			fmt.Println(quiz)
			fmt.Println("\nAnswer with: /answer <your answers>")

		case "/answer":
			answer := strings.TrimSpace(rest)
			if answer == "" {
				fmt.Println("Usage: /answer <your answers>")
				continue
			}
			ev, err := lesson.CheckAnswer(ctx, answer)
			if err != nil {
				fmt.Fprintln(os.Stderr, "grading:", err)
				continue
			}
			lastEval, lastAnswer = ev, answer
			printEvaluation(ev)

			switch ev.Status {
			case tutor.StatusCorrect:
				state.GainXP(lessonXP(false))
				fmt.Printf("+%d XP (level %d, %d/%d)\n", lessonXP(false), state.Level, state.XP, state.XPForNextLevel())
				awardSkills(ctx, lesson, state)
			case tutor.StatusPartiallyCorrect:
				state.GainXP(lessonXP(true))
				fmt.Printf("+%d XP (level %d, %d/%d)\n", lessonXP(true), state.Level, state.XP, state.XPForNextLevel())
			}
			if lesson.AttemptsExhausted() {
				fmt.Printf("You have used all %d attempts. Try /detail for a deeper explanation, or move on.\n", lesson.MaxAttempts)
			}

		case "/detail":
			explanation, err := lesson.Explain(ctx, true)
			if err != nil {
				fmt.Fprintln(os.Stderr, "explain:", err)
				continue
			}
			fmt.Println(explanation)

		case "/summary":
			recap, err := lesson.LearningSummary(ctx)
			if err != nil {
				fmt.Fprintln(os.Stderr, "summary:", err)
				continue
			}
			fmt.Println(recap)

			var quiz *profile.QuizDetails
			if lastEval.Status != "" && lastEval.Status != tutor.StatusError {
				quiz = &profile.QuizDetails{
					Type:          "lesson quiz",
					Topic:         topic,
					Timestamp:     time.Now().Format(time.RFC3339),
					Language:      cfg.Tutor.Language,
					Questions:     lesson.CurrentQuiz,
					UserAnswer:    lastAnswer,
					Evaluation:    string(lastEval.Status),
					Justification: lastEval.Justification,
				}
			}
			if err := state.SaveSummary(recap, topic, quiz); err != nil {
				fmt.Fprintln(os.Stderr, "warning: cannot save summary:", err)
			} else {
				fmt.Println("\nSummary saved.")
			}

		case "/skills":
			awardSkills(ctx, lesson, state)

		case "/video":
			if url := strings.TrimSpace(rest); url != "" {
				loadLessonVideo(ctx, cfg, ai, state, url)
				continue
			}
			if videoQuery == "" {
				fmt.Println("No video suggestion available for this material.")
				continue
			}
			fmt.Printf("Search YouTube for: %q\nThen: /video <url>\n", videoQuery)

		default:
			reply, err := lesson.AskTutor(ctx, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, "tutor:", err)
				continue
			}
			fmt.Println(reply)
		}
	}
}

// loadLessonVideo fetches and caches a video's transcript summary so it can
// back an aggregated exam over this material.
func loadLessonVideo(ctx context.Context, cfg *config.Config, ai *tutor.Client, state *profile.State, url string) {
	videoID, err := youtube.ParseVideoID(url)
	if err != nil {
		fmt.Fprintln(os.Stderr, "video:", err)
		return
	}
	if _, cached := state.Transcript(videoID); cached {
		fmt.Printf("Video %s already loaded. Use it with: gemtutor exam --video %s\n", videoID, videoID)
		return
	}

	fmt.Println("Fetching transcript...")
	transcript, err := youtube.NewClient().FetchTranscript(ctx, videoID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "video:", err)
		return
	}
	summary, err := ai.SummarizeForContext(ctx, transcript, cfg.Tutor.Language)
	if err != nil {
		fmt.Fprintln(os.Stderr, "video:", err)
		return
	}
	state.StoreTranscript(videoID, summary)
	fmt.Printf("Video loaded. Use it with: gemtutor exam --video %s\n", videoID)
}

// awardSkills extracts the lesson's skills and records the new ones.
func awardSkills(ctx context.Context, lesson *session.Learning, state *profile.State) {
	skills, err := lesson.Skills(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "skills:", err)
		return
	}
	var added []string
	for _, sk := range skills {
		if state.AddSkill(sk) {
			added = append(added, sk)
		}
	}
	if len(added) > 0 {
		fmt.Println("New skills:", strings.Join(added, ", "))
	} else {
		fmt.Println("No new skills this time.")
	}
}

func printEvaluation(ev tutor.Evaluation) {
	fmt.Printf("\n%s\n%s\n", ev.Status, ev.Justification)
}

func printLessonHelp() {
	fmt.Print(`Lesson commands:
  /quiz [n]        generate a quiz (default size from config)
  /answer <text>   submit your answers for grading
  /detail          regenerate the explanation with more detail
  /summary         recap the lesson and save it as Markdown
  /skills          extract and record the skills covered
  /video [url]     suggest a YouTube search, or load a video for an exam
  /quit            end the lesson and save progress
Anything else is a question for the tutor.
`)
}
