package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gemtutor-ai/gemtutor/internal/provider"
)

// fakeProvider returns canned responses/errors in order, recording prompts.
type fakeProvider struct {
	responses []string
	errs      []error
	prompts   []string
	calls     int
}

func (f *fakeProvider) Generate(_ context.Context, req *provider.Request) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, req.Prompt)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("fakeProvider: no response configured")
}

func (f *fakeProvider) Name() string         { return "fake" }
func (f *fakeProvider) DefaultModel() string { return "fake-model" }

func newTestClient(f *fakeProvider) *Client {
	return New(f, WithBaseDelay(time.Microsecond))
}

func TestGenerate_RetriesOnRateLimit(t *testing.T) {
	f := &fakeProvider{
		errs:      []error{errors.New("429 rate limit exceeded"), nil},
		responses: []string{"", "ok"},
	}
	c := newTestClient(f)

	got, err := c.generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if f.calls != 2 {
		t.Errorf("calls = %d, want 2", f.calls)
	}
}

func TestGenerate_NoRetryOnFatalError(t *testing.T) {
	f := &fakeProvider{errs: []error{errors.New("401 invalid api key")}}
	c := newTestClient(f)

	if _, err := c.generate(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", f.calls)
	}
}

func TestGenerate_RetriesBlockedThenExhausts(t *testing.T) {
	blocked := &provider.BlockedError{Reason: "SAFETY"}
	f := &fakeProvider{errs: []error{blocked, blocked, blocked}}
	c := newTestClient(f)

	_, err := c.generate(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
	var be *provider.BlockedError
	if !errors.As(err, &be) {
		t.Errorf("expected wrapped BlockedError, got %v", err)
	}
}

func TestGenerate_ContextCancelStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeProvider{errs: []error{context.Canceled}}
	c := newTestClient(f)

	if _, err := c.generate(ctx, "hi"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.calls != 1 {
		t.Errorf("calls = %d, want 1", f.calls)
	}
}

func TestLanguageInstruction(t *testing.T) {
	tests := []struct {
		lang string
		want string
	}{
		{"English", ""},
		{"english", ""},
		{"", ""},
		{"Spanish", "Please provide the response in Spanish."},
	}
	for _, tt := range tests {
		if got := languageInstruction(tt.lang); got != tt.want {
			t.Errorf("languageInstruction(%q) = %q, want %q", tt.lang, got, tt.want)
		}
	}
}

func TestSummarizeDocuments(t *testing.T) {
	f := &fakeProvider{responses: []string{"a fine summary"}}
	c := newTestClient(f)

	got, err := c.SummarizeDocuments(context.Background(), []string{"doc one", "doc two"}, "English")
	if err != nil {
		t.Fatalf("SummarizeDocuments: %v", err)
	}
	if got != "a fine summary" {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(f.prompts[0], "--- Next Document ---") {
		t.Error("prompt must join documents with the separator")
	}
}

func TestSummarizeDocuments_NoContent(t *testing.T) {
	c := newTestClient(&fakeProvider{})
	if _, err := c.SummarizeDocuments(context.Background(), []string{"  ", ""}, "English"); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestSummarizeDocuments_Truncates(t *testing.T) {
	f := &fakeProvider{responses: []string{"s"}}
	c := newTestClient(f)

	long := strings.Repeat("x", maxSummaryInput+500)
	if _, err := c.SummarizeDocuments(context.Background(), []string{long}, "English"); err != nil {
		t.Fatalf("SummarizeDocuments: %v", err)
	}
	if !strings.Contains(f.prompts[0], "[CONTENT TRUNCATED]") {
		t.Error("oversized content must be truncated with a note")
	}
}

func TestExplain_DetailLevels(t *testing.T) {
	f := &fakeProvider{responses: []string{"e1", "e2"}}
	c := newTestClient(f)

	if _, err := c.Explain(context.Background(), "sum", 2, "English", false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.prompts[0], "new to this") {
		t.Error("basic explanation prompt missing beginner phrasing")
	}

	if _, err := c.Explain(context.Background(), "sum", 2, "English", true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.prompts[1], "more detail") {
		t.Error("detailed explanation prompt missing detail phrasing")
	}
}

func TestParseTopicQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want TopicQuery
	}{
		{"Photosynthesis\nHow photosynthesis works", TopicQuery{"Photosynthesis", "How photosynthesis works"}},
		{"N/A\nN/A", TopicQuery{}},
		{"Only Topic", TopicQuery{MainTopic: "Only Topic"}},
		{"  Trimmed Topic  \n  query here  ", TopicQuery{"Trimmed Topic", "query here"}},
	}
	for _, tt := range tests {
		if got := parseTopicQuery(tt.raw); got != tt.want {
			t.Errorf("parseTopicQuery(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestTopicAndQuery_NAIsError(t *testing.T) {
	f := &fakeProvider{responses: []string{"N/A\nN/A"}}
	c := newTestClient(f)
	if _, err := c.TopicAndQuery(context.Background(), "sum", "English"); err == nil {
		t.Fatal("expected error when model answers N/A on both lines")
	}
}

func TestSummarizeForContext_ShortPassthrough(t *testing.T) {
	f := &fakeProvider{}
	c := newTestClient(f)

	got, err := c.SummarizeForContext(context.Background(), "short text", "English")
	if err != nil {
		t.Fatalf("SummarizeForContext: %v", err)
	}
	if got != "short text" {
		t.Errorf("short text must pass through, got %q", got)
	}
	if f.calls != 0 {
		t.Errorf("no API call expected for short text, got %d", f.calls)
	}
}

func TestRenderHistory_LastFiveOnly(t *testing.T) {
	var history []ChatMessage
	for i := 0; i < 8; i++ {
		history = append(history, ChatMessage{Role: "user", Text: fmt.Sprintf("q%d", i)})
	}
	rendered := renderHistory(history)
	if strings.Contains(rendered, "q2") {
		t.Error("history window must drop messages older than the last 5")
	}
	for i := 3; i < 8; i++ {
		if !strings.Contains(rendered, fmt.Sprintf("q%d", i)) {
			t.Errorf("history missing q%d", i)
		}
	}
	if !strings.Contains(rendered, "Student: q7") {
		t.Error("user messages must render as Student")
	}
}

func TestClampQuestions(t *testing.T) {
	tests := []struct {
		n, max, def, want int
	}{
		{3, 20, 3, 3},
		{0, 20, 3, 3},
		{-1, 20, 3, 3},
		{21, 20, 3, 3},
		{20, 20, 3, 20},
		{1, 25, 10, 1},
		{26, 25, 10, 10},
	}
	for _, tt := range tests {
		if got := clampQuestions(tt.n, tt.max, tt.def); got != tt.want {
			t.Errorf("clampQuestions(%d,%d,%d) = %d, want %d", tt.n, tt.max, tt.def, got, tt.want)
		}
	}
}

func TestGenerateAggregatedQuiz_VideoOptional(t *testing.T) {
	f := &fakeProvider{responses: []string{"quiz", "quiz"}}
	c := newTestClient(f)

	if _, err := c.GenerateAggregatedQuiz(context.Background(), "pdf sum", "video sum", 10, "English", true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.prompts[0], "Video Content Summary") {
		t.Error("video summary missing from prompt")
	}

	if _, err := c.GenerateAggregatedQuiz(context.Background(), "pdf sum", "  ", 10, "English", true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.prompts[1], "No additional video content summary") {
		t.Error("blank video summary must fall back to PDF-only phrasing")
	}
}

func TestParseSkills(t *testing.T) {
	raw := "Photosynthesis\n\nOK\nCellular Respiration\n x \nNewton's First Law"
	got := parseSkills(raw)
	want := []string{"Photosynthesis", "Cellular Respiration", "Newton's First Law"}
	if len(got) != len(want) {
		t.Fatalf("parseSkills = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("skill %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantStatus EvalStatus
	}{
		{"correct", "Correct\nWell reasoned.", StatusCorrect},
		{"partially", "Partially Correct\nMissed one detail.", StatusPartiallyCorrect},
		{"incorrect", "Incorrect\nConfused A with B.", StatusIncorrect},
		{"inferred partial", "The answer is partially correct because...", StatusPartiallyCorrect},
		{"inferred incorrect", "That is incorrect: the context says otherwise.", StatusIncorrect},
		{"inferred correct", "Looks correct to me overall.", StatusCorrect},
		{"garbage", "I cannot grade this.", StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := parseEvaluation(tt.raw)
			if ev.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", ev.Status, tt.wantStatus)
			}
			if ev.Justification == "" {
				t.Error("justification must never be empty")
			}
		})
	}
}

func TestParseEvaluation_JustificationDefault(t *testing.T) {
	ev := parseEvaluation("Correct")
	if ev.Status != StatusCorrect {
		t.Fatalf("status = %q", ev.Status)
	}
	if ev.Justification != "No justification provided." {
		t.Errorf("justification = %q", ev.Justification)
	}
}
