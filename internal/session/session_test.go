package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gemtutor-ai/gemtutor/internal/provider"
	"github.com/gemtutor-ai/gemtutor/internal/tutor"
)

// scriptedProvider returns canned responses in order.
type scriptedProvider struct {
	responses []string
	errs      []error
	prompts   []string
	calls     int
}

func (f *scriptedProvider) Generate(_ context.Context, req *provider.Request) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, req.Prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("scriptedProvider: no response configured")
}

func (f *scriptedProvider) Name() string         { return "scripted" }
func (f *scriptedProvider) DefaultModel() string { return "scripted-model" }

func client(f *scriptedProvider) *tutor.Client {
	return tutor.New(f, tutor.WithBaseDelay(time.Microsecond))
}

func TestLearning_ExplainResetsQuizCycle(t *testing.T) {
	f := &scriptedProvider{responses: []string{"answer 1", "explanation"}}
	s := NewLearning(client(f), "the summary", 1, "English")

	// Build up history and attempts first.
	if _, err := s.AskTutor(context.Background(), "what is this?"); err != nil {
		t.Fatal(err)
	}
	s.Attempts = 2

	if _, err := s.Explain(context.Background(), false); err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if s.Explanation != "explanation" {
		t.Errorf("explanation = %q", s.Explanation)
	}
	if len(s.History()) != 0 {
		t.Error("Explain must reset chat history")
	}
	if s.Attempts != 0 {
		t.Error("Explain must reset the attempt counter")
	}
}

func TestLearning_QuizFallsBackToSummary(t *testing.T) {
	f := &scriptedProvider{responses: []string{"quiz text"}}
	s := NewLearning(client(f), "initial summary", 1, "English")

	quiz, err := s.CreateQuiz(context.Background(), 3)
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if quiz != "quiz text" || s.CurrentQuiz != "quiz text" {
		t.Errorf("quiz = %q", quiz)
	}
	if got := f.prompts[0]; !contains(got, "initial summary") {
		t.Error("quiz prompt must use the content summary when no explanation exists")
	}
}

func TestLearning_QuizRequiresContent(t *testing.T) {
	s := NewLearning(client(&scriptedProvider{}), "   ", 1, "English")
	if _, err := s.CreateQuiz(context.Background(), 3); err == nil {
		t.Fatal("expected error with no content")
	}
}

func TestLearning_CheckAnswerRequiresQuiz(t *testing.T) {
	s := NewLearning(client(&scriptedProvider{}), "summary", 1, "English")
	if _, err := s.CheckAnswer(context.Background(), "42"); err == nil {
		t.Fatal("expected error with no active quiz")
	}
}

func TestLearning_AttemptsCountOnlyFailures(t *testing.T) {
	f := &scriptedProvider{responses: []string{
		"quiz",
		"Incorrect\nWrong concept.",
		"Partially Correct\nHalf right.",
		"I cannot grade this.",
		"Correct\nWell done.",
	}}
	s := NewLearning(client(f), "summary", 1, "English")
	ctx := context.Background()

	if _, err := s.CreateQuiz(ctx, 3); err != nil {
		t.Fatal(err)
	}

	if ev, _ := s.CheckAnswer(ctx, "a"); ev.Status != tutor.StatusIncorrect {
		t.Fatalf("status = %q", ev.Status)
	}
	if s.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", s.Attempts)
	}

	// Partially correct is a pass, not a failure.
	if ev, _ := s.CheckAnswer(ctx, "b"); ev.Status != tutor.StatusPartiallyCorrect {
		t.Fatal("expected partially correct")
	}
	if s.Attempts != 1 {
		t.Errorf("partially correct answer must not consume an attempt, attempts = %d", s.Attempts)
	}

	// An ungradeable response does consume one.
	if ev, _ := s.CheckAnswer(ctx, "c"); ev.Status != tutor.StatusError {
		t.Fatal("expected error status")
	}
	if s.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", s.Attempts)
	}

	if ev, _ := s.CheckAnswer(ctx, "d"); ev.Status != tutor.StatusCorrect {
		t.Fatal("expected correct")
	}
	if s.Attempts != 2 {
		t.Errorf("correct answer must not consume an attempt, attempts = %d", s.Attempts)
	}
	if s.AttemptsExhausted() {
		t.Error("attempts not exhausted at 2 of 3")
	}
	s.Attempts = DefaultMaxAttempts
	if !s.AttemptsExhausted() {
		t.Error("attempts exhausted at max")
	}
}

func TestLearning_ConfigurableMaxAttempts(t *testing.T) {
	s := NewLearning(client(&scriptedProvider{}), "summary", 1, "English")
	if s.MaxAttempts != DefaultMaxAttempts {
		t.Fatalf("MaxAttempts = %d, want default %d", s.MaxAttempts, DefaultMaxAttempts)
	}

	s.MaxAttempts = 2
	s.Attempts = 1
	if s.AttemptsExhausted() {
		t.Error("attempts not exhausted at 1 of 2")
	}
	s.Attempts = 2
	if !s.AttemptsExhausted() {
		t.Error("attempts exhausted at 2 of 2")
	}
}

func TestLearning_AskTutorHistory(t *testing.T) {
	f := &scriptedProvider{
		responses: []string{"reply one", ""},
		errs:      []error{nil, errors.New("400 bad request")},
	}
	s := NewLearning(client(f), "summary", 1, "English")
	ctx := context.Background()

	if _, err := s.AskTutor(ctx, "first?"); err != nil {
		t.Fatal(err)
	}
	if len(s.History()) != 2 {
		t.Fatalf("history len = %d, want 2 (user + ai)", len(s.History()))
	}

	// Failed call records the question but not an AI reply.
	if _, err := s.AskTutor(ctx, "second?"); err == nil {
		t.Fatal("expected error")
	}
	h := s.History()
	if len(h) != 3 {
		t.Fatalf("history len = %d, want 3", len(h))
	}
	if h[2].Role != "user" || h[2].Text != "second?" {
		t.Errorf("last history entry = %+v", h[2])
	}
}

func TestLearning_SummaryRequiresExplanation(t *testing.T) {
	s := NewLearning(client(&scriptedProvider{}), "summary", 1, "English")
	if _, err := s.LearningSummary(context.Background()); err == nil {
		t.Fatal("expected error without explanation")
	}
}

func TestVideo_AskRequiresTranscript(t *testing.T) {
	s := NewVideo(client(&scriptedProvider{}), "abc123def45", "Title", "  ", "English")
	if _, err := s.Ask(context.Background(), "what?"); err == nil {
		t.Fatal("expected error without transcript")
	}
}

func TestVideo_AskRecordsHistory(t *testing.T) {
	f := &scriptedProvider{responses: []string{"about the video"}}
	s := NewVideo(client(f), "abc123def45", "Title", "transcript summary", "English")

	reply, err := s.Ask(context.Background(), "what is covered?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply != "about the video" {
		t.Errorf("reply = %q", reply)
	}
	if len(s.History()) != 2 {
		t.Errorf("history len = %d, want 2", len(s.History()))
	}
}

func TestAssessment_RequiresPDFSummary(t *testing.T) {
	s := NewAssessment(client(&scriptedProvider{}), "", "video", "English")
	if _, err := s.CreateAssessment(context.Background(), DefaultExamQuestions, true); err == nil {
		t.Fatal("expected error without document summary")
	}
}

func TestAssessment_CheckAnswerContext(t *testing.T) {
	f := &scriptedProvider{responses: []string{"exam questions", "Correct\nGood."}}
	s := NewAssessment(client(f), "pdf summary", "video summary", "English")
	ctx := context.Background()

	if _, err := s.CreateAssessment(ctx, 10, true); err != nil {
		t.Fatal(err)
	}
	ev, err := s.CheckAnswer(ctx, "my answer")
	if err != nil {
		t.Fatal(err)
	}
	if ev.Status != tutor.StatusCorrect {
		t.Errorf("status = %q", ev.Status)
	}
	if !contains(f.prompts[1], "PDF Summary:") || !contains(f.prompts[1], "Video Summary:") {
		t.Error("evaluation context must combine PDF and video summaries")
	}
}

func TestAssessment_CheckAnswerRequiresQuestions(t *testing.T) {
	s := NewAssessment(client(&scriptedProvider{}), "pdf", "", "English")
	if _, err := s.CheckAnswer(context.Background(), "x"); err == nil {
		t.Fatal("expected error without active questions")
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
