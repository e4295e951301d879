// Package session holds the in-memory state of active tutoring sessions:
// a lesson over summarized material, a video Q&A exchange, and a
// comprehensive assessment over combined materials.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/gemtutor-ai/gemtutor/internal/tutor"
)

const (
	// DefaultMaxAttempts on a lesson quiz before suggesting the student move on.
	DefaultMaxAttempts = 3

	// DefaultExamQuestions for a comprehensive assessment.
	DefaultExamQuestions = 10
)

// Learning is one lesson: summarized content, its explanation, the active
// quiz, and the tutor chat.
type Learning struct {
	ai *tutor.Client

	ContentSummary string
	StudentLevel   int
	Language       string

	Explanation string
	CurrentQuiz string
	Attempts    int

	// MaxAttempts bounds failed quiz answers before the session suggests
	// moving on. Defaults to DefaultMaxAttempts.
	MaxAttempts int

	history []tutor.ChatMessage
}

// NewLearning starts a lesson over the given content summary.
func NewLearning(ai *tutor.Client, contentSummary string, studentLevel int, language string) *Learning {
	return &Learning{
		ai:             ai,
		ContentSummary: contentSummary,
		StudentLevel:   studentLevel,
		Language:       language,
		MaxAttempts:    DefaultMaxAttempts,
	}
}

// Explain generates (or regenerates) the lesson explanation. A new
// explanation starts a fresh quiz cycle: chat history and the attempt
// counter are reset.
func (s *Learning) Explain(ctx context.Context, moreDetail bool) (string, error) {
	explanation, err := s.ai.Explain(ctx, s.ContentSummary, s.StudentLevel, s.Language, moreDetail)
	if err != nil {
		return "", err
	}
	s.Explanation = explanation
	s.history = nil
	s.Attempts = 0
	return explanation, nil
}

// quizContent is the explanation when present, else the initial summary.
func (s *Learning) quizContent() string {
	if s.Explanation != "" {
		return s.Explanation
	}
	return s.ContentSummary
}

// CreateQuiz generates a lesson quiz over the explained content.
func (s *Learning) CreateQuiz(ctx context.Context, n int) (string, error) {
	if strings.TrimSpace(s.quizContent()) == "" {
		return "", fmt.Errorf("no content available to create a quiz")
	}
	quiz, err := s.ai.GenerateQuiz(ctx, s.quizContent(), n, s.Language, false)
	if err != nil {
		return "", err
	}
	s.CurrentQuiz = quiz
	return quiz, nil
}

// CreateExam generates a simple exam directly over the content summary.
func (s *Learning) CreateExam(ctx context.Context, n int) (string, error) {
	exam, err := s.ai.GenerateQuiz(ctx, s.ContentSummary, n, s.Language, true)
	if err != nil {
		return "", err
	}
	s.CurrentQuiz = exam
	return exam, nil
}

// CheckAnswer grades an answer against the active quiz. Only a failed result
// consumes an attempt; a partially correct answer counts as a pass.
func (s *Learning) CheckAnswer(ctx context.Context, answer string) (tutor.Evaluation, error) {
	if s.CurrentQuiz == "" {
		return tutor.Evaluation{Status: tutor.StatusError}, fmt.Errorf("no quiz is currently active in this session")
	}
	if strings.TrimSpace(s.quizContent()) == "" {
		return tutor.Evaluation{Status: tutor.StatusError}, fmt.Errorf("session has no content context for evaluation")
	}

	ev, err := s.ai.EvaluateAnswer(ctx, s.quizContent(), s.CurrentQuiz, answer, s.Language)
	if err != nil {
		return ev, err
	}
	if ev.Status == tutor.StatusIncorrect || ev.Status == tutor.StatusError {
		s.Attempts++
	}
	return ev, nil
}

// AttemptsExhausted reports whether the student has used all quiz attempts.
func (s *Learning) AttemptsExhausted() bool { return s.Attempts >= s.MaxAttempts }

// LearningSummary recaps the current explanation.
func (s *Learning) LearningSummary(ctx context.Context) (string, error) {
	if s.Explanation == "" {
		return "", fmt.Errorf("no explanation was provided yet to summarize")
	}
	return s.ai.LearningSummary(ctx, s.Explanation, s.Language)
}

// Skills extracts the skills covered by this lesson.
func (s *Learning) Skills(ctx context.Context) ([]string, error) {
	text := s.ContentSummary
	if s.Explanation != "" {
		text += "\n" + s.Explanation
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no content available to extract skills from")
	}
	return s.ai.ExtractSkills(ctx, text, s.Language)
}

// AskTutor answers a follow-up question about the lesson, maintaining chat
// history. The AI reply is only recorded when the call succeeds.
func (s *Learning) AskTutor(ctx context.Context, question string) (string, error) {
	ctxText := s.quizContent()
	if strings.TrimSpace(ctxText) == "" {
		return "", fmt.Errorf("no lesson content loaded; load a document to provide context first")
	}

	s.history = append(s.history, tutor.ChatMessage{Role: "user", Text: question})
	reply, err := s.ai.AskFollowUp(ctx, ctxText, question, s.Language, s.history)
	if err != nil {
		return "", err
	}
	s.history = append(s.history, tutor.ChatMessage{Role: "ai", Text: reply})
	return reply, nil
}

// History returns the tutor chat so far.
func (s *Learning) History() []tutor.ChatMessage { return s.history }

// Video is a Q&A exchange about one video's transcript.
type Video struct {
	ai *tutor.Client

	VideoID           string
	VideoTitle        string
	TranscriptSummary string
	Language          string

	history []tutor.ChatMessage
}

// NewVideo starts a video interaction session.
func NewVideo(ai *tutor.Client, videoID, videoTitle, transcriptSummary, language string) *Video {
	return &Video{
		ai:                ai,
		VideoID:           videoID,
		VideoTitle:        videoTitle,
		TranscriptSummary: transcriptSummary,
		Language:          language,
	}
}

// Ask answers a question about the video.
func (s *Video) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(s.TranscriptSummary) == "" {
		return "", fmt.Errorf("no video transcript available; fetch it first")
	}

	s.history = append(s.history, tutor.ChatMessage{Role: "user", Text: question})
	reply, err := s.ai.AskAboutVideo(ctx, s.TranscriptSummary, question, s.Language, s.history)
	if err != nil {
		return "", err
	}
	s.history = append(s.history, tutor.ChatMessage{Role: "ai", Text: reply})
	return reply, nil
}

// History returns the video chat so far.
func (s *Video) History() []tutor.ChatMessage { return s.history }

// Assessment is a comprehensive exam over document and optional video
// material.
type Assessment struct {
	ai *tutor.Client

	PDFSummary   string
	VideoSummary string // optional
	Language     string

	Questions string
}

// NewAssessment starts an assessment session.
func NewAssessment(ai *tutor.Client, pdfSummary, videoSummary, language string) *Assessment {
	return &Assessment{
		ai:           ai,
		PDFSummary:   pdfSummary,
		VideoSummary: videoSummary,
		Language:     language,
	}
}

// CreateAssessment generates the assessment questions.
func (s *Assessment) CreateAssessment(ctx context.Context, n int, isExam bool) (string, error) {
	if strings.TrimSpace(s.PDFSummary) == "" {
		return "", fmt.Errorf("a document summary is required to create an assessment")
	}
	questions, err := s.ai.GenerateAggregatedQuiz(ctx, s.PDFSummary, s.VideoSummary, n, s.Language, isExam)
	if err != nil {
		return "", err
	}
	s.Questions = questions
	return questions, nil
}

// CheckAnswer grades an assessment answer against the combined materials.
func (s *Assessment) CheckAnswer(ctx context.Context, answer string) (tutor.Evaluation, error) {
	if s.Questions == "" {
		return tutor.Evaluation{Status: tutor.StatusError}, fmt.Errorf("no assessment questions are currently active")
	}
	if strings.TrimSpace(s.PDFSummary) == "" {
		return tutor.Evaluation{Status: tutor.StatusError}, fmt.Errorf("assessment session has no document context for evaluation")
	}

	evalCtx := "PDF Summary:\n" + s.PDFSummary
	if strings.TrimSpace(s.VideoSummary) != "" {
		evalCtx += "\n\nVideo Summary:\n" + s.VideoSummary
	}

	return s.ai.EvaluateAnswer(ctx, evalCtx, s.Questions, answer, s.Language)
}
