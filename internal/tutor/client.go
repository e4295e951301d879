// Package tutor implements the AI tutoring operations: document
// summarization, level-aware explanations, quiz and exam generation, answer
// evaluation, skill extraction, and contextual Q&A. All operations share a
// retry policy and a response-language instruction.
package tutor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gemtutor-ai/gemtutor/internal/logging"
	"github.com/gemtutor-ai/gemtutor/internal/provider"
)

const (
	// maxSummaryInput bounds text sent for summarization.
	maxSummaryInput = 75000
	// maxContextInput bounds context blocks embedded in Q&A and evaluation prompts.
	maxContextInput = 30000
	// shortTextThreshold: text at or below this length is used as-is for chat
	// context instead of being summarized.
	shortTextThreshold = 1000

	// historyWindow is how many trailing chat messages are replayed in prompts.
	historyWindow = 5

	documentSeparator = "\n\n--- Next Document ---\n\n"
)

// ChatMessage is one entry of a tutoring conversation.
type ChatMessage struct {
	Role string `json:"role"` // "user" | "ai"
	Text string `json:"text"`
}

// Client runs tutoring operations against an LLM provider with retries.
type Client struct {
	p         provider.Provider
	log       *zap.Logger
	attempts  int
	baseDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithAttempts overrides the retry attempt count.
func WithAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithBaseDelay overrides the base retry delay (tests use a tiny value).
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// New creates a tutoring client on top of a provider.
func New(p provider.Provider, opts ...Option) *Client {
	c := &Client{
		p:         p,
		log:       logging.L(),
		attempts:  maxAttempts,
		baseDelay: baseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generate performs one LLM call with the shared retry policy.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		c.log.Debug("api call",
			zap.String("provider", c.p.Name()),
			zap.Int("attempt", attempt+1),
			zap.Int("prompt_len", len(prompt)))

		text, err := c.p.Generate(ctx, &provider.Request{Prompt: prompt})
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return "", err
		}
		if attempt < c.attempts-1 {
			delay := c.baseDelay * time.Duration(attempt+1)
			c.log.Warn("api call failed, retrying",
				zap.Error(err),
				zap.Duration("delay", delay))
			if serr := sleepWithContext(ctx, delay); serr != nil {
				return "", serr
			}
		}
	}
	return "", fmt.Errorf("api call failed after %d attempts: %w", c.attempts, lastErr)
}

// languageInstruction returns the response-language suffix for non-English
// output.
func languageInstruction(language string) string {
	if language != "" && !strings.EqualFold(language, "English") {
		return fmt.Sprintf("Please provide the response in %s.", language)
	}
	return ""
}

// truncate cuts s at max characters, appending a truncation note.
func truncate(s string, max int, note string) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + note
}

// SummarizeDocuments summarizes text extracted from one or more documents.
func (c *Client) SummarizeDocuments(ctx context.Context, texts []string, language string) (string, error) {
	var nonEmpty []string
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	if len(nonEmpty) == 0 {
		return "", fmt.Errorf("no text content provided for summarization")
	}

	combined := strings.Join(nonEmpty, documentSeparator)
	if len(combined) > maxSummaryInput {
		c.log.Warn("combined document content truncated for summary",
			zap.Int("length", len(combined)), zap.Int("max", maxSummaryInput))
		combined = combined[:maxSummaryInput] + "\n... [CONTENT TRUNCATED]"
	}

	prompt := fmt.Sprintf(`Summarize the key information from the following text extracted from PDF document(s). Identify the main topics, arguments, and conclusions. The summary should be comprehensive yet concise.
--- PDF CONTENT START ---
%s
--- PDF CONTENT END ---
%s`, combined, languageInstruction(language))

	c.log.Info("requesting document summary", zap.Int("content_len", len(combined)))
	return c.generate(ctx, prompt)
}

// Explain generates a student-level-appropriate explanation of a topic summary.
func (c *Client) Explain(ctx context.Context, topicSummary string, studentLevel int, language string, moreDetail bool) (string, error) {
	var detail string
	if moreDetail {
		detail = fmt.Sprintf("Explain this in more detail, assuming the student (level %d) has some prior knowledge but needs a deeper understanding. Break down complex parts.", studentLevel)
	} else {
		detail = fmt.Sprintf("Explain this topic clearly and concisely, suitable for a student at level %d who is new to this. Use simple terms and examples where possible.", studentLevel)
	}

	prompt := fmt.Sprintf(`Based on the following summary of a topic:
---
%s
---
%s
%s`, topicSummary, detail, languageInstruction(language))

	return c.generate(ctx, prompt)
}

// TopicQuery is the extracted main topic and a YouTube search query for it.
type TopicQuery struct {
	MainTopic   string
	SearchQuery string
}

// TopicAndQuery determines the primary topic of a summary and a YouTube
// search query a student could use to find an explanatory video.
func (c *Client) TopicAndQuery(ctx context.Context, topicSummary, language string) (TopicQuery, error) {
	prompt := fmt.Sprintf(`Analyze the following text summary:
---
%s
---
1. Identify the primary, most specific subject or topic discussed in this summary. Respond with just the topic name on the first line. This should be concise, like a chapter title (e.g., "Introduction to Photosynthesis", "Newton's Laws of Motion", "Data Types in Python"). Make it specific and informative.
2. On the second line, provide a concise and effective YouTube search query (3-7 words if possible) that a student could use to find a good introductory or explanatory video about this primary topic.

Example Output:
Quantum Entanglement
Quantum Entanglement for beginners explained

%s
Ensure your response strictly follows this two-line format. If you cannot determine a topic or query from the summary, respond with "N/A" on both lines.`,
		topicSummary, languageInstruction(language))

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return TopicQuery{}, err
	}

	tq := parseTopicQuery(raw)
	if tq.MainTopic == "" && tq.SearchQuery == "" {
		c.log.Warn("no topic or query determined", zap.String("raw", raw))
		return tq, fmt.Errorf("could not determine a topic or search query from the summary")
	}
	c.log.Info("topic determined",
		zap.String("topic", tq.MainTopic), zap.String("query", tq.SearchQuery))
	return tq, nil
}

// parseTopicQuery extracts the two-line topic/query format, treating "N/A"
// and blank lines as absent.
func parseTopicQuery(raw string) TopicQuery {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	var tq TopicQuery
	if len(lines) >= 1 {
		if v := strings.TrimSpace(lines[0]); !strings.EqualFold(v, "n/a") && v != "" {
			tq.MainTopic = v
		}
	}
	if len(lines) >= 2 {
		if v := strings.TrimSpace(lines[1]); !strings.EqualFold(v, "n/a") && v != "" {
			tq.SearchQuery = v
		}
	}
	return tq
}

// SummarizeForContext condenses long text for use as Q&A context. Text at or
// below shortTextThreshold is returned unchanged.
func (c *Client) SummarizeForContext(ctx context.Context, text, language string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content provided to summarize")
	}
	if len(text) <= shortTextThreshold {
		c.log.Debug("text is short, using as-is for chat context")
		return text, nil
	}

	truncated := truncate(text, maxSummaryInput, "... [TRUNCATED FOR SUMMARY INPUT]")
	prompt := fmt.Sprintf(`Please summarize the following text concisely. Focus on the main ideas and key information that would be most relevant for a Q&A session.
The summary should be significantly shorter than the original, aiming for a few key paragraphs or a detailed bullet list.
--- TEXT START ---
%s
--- TEXT END ---
%s
Provide a concise summary:`, truncated, languageInstruction(language))

	return c.generate(ctx, prompt)
}

// renderHistory renders the trailing historyWindow messages for a prompt.
func renderHistory(history []ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	var sb strings.Builder
	sb.WriteString("Conversation history (last 5 messages):\n")
	for _, m := range history[start:] {
		role := "Tutor"
		if m.Role == "user" {
			role = "Student"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, m.Text)
	}
	sb.WriteString("---\n")
	return sb.String()
}

// AskAboutVideo answers a question grounded only in a video's transcript
// summary.
func (c *Client) AskAboutVideo(ctx context.Context, transcriptSummary, question, language string, history []ChatMessage) (string, error) {
	prompt := fmt.Sprintf(`You are an AI assistant helping a student understand a video.
The student is watching a video. Here is a summary or transcript of its content:
--- VIDEO CONTENT START ---
%s
--- VIDEO CONTENT END ---

%sThe student's question about the video is:
"%s"

Please answer the question based *only* on the provided video content summary/transcript.
If the answer isn't in the video content, politely state that the information is not available in the provided material.
%s`, transcriptSummary, renderHistory(history), question, languageInstruction(language))

	return c.generate(ctx, prompt)
}

// clampQuestions bounds a requested question count to [1, max], falling back
// to def when out of range.
func clampQuestions(n, max, def int) int {
	if n < 1 || n > max {
		return def
	}
	return n
}

// GenerateQuiz creates a quiz or simple exam over one body of content.
// n is clamped to [1,20] with a default of 3.
func (c *Client) GenerateQuiz(ctx context.Context, content string, n int, language string, isExam bool) (string, error) {
	n = clampQuestions(n, 20, 3)
	kind := "Lesson Quiz"
	if isExam {
		kind = "Simple Exam"
	}

	prompt := fmt.Sprintf(`Based on the following content:
---
%s
---
Create a %s with %d questions to test understanding of the main concepts.
For each question, ensure it's clear and directly related to the provided content.
The questions can be multiple-choice (provide options A, B, C, D), short answer (expecting a brief textual response), or true/false.
Clearly specify the format for each question (e.g., "Multiple Choice:", "Short Answer:", "True/False:").
If multiple choice, indicate the correct answer after the options, like "Correct Answer: C)".
Format the %s clearly with questions numbered.
%s`, content, kind, n, kind, languageInstruction(language))

	return c.generate(ctx, prompt)
}

// GenerateAggregatedQuiz creates a comprehensive assessment over document and
// optional video material. n is clamped to [1,25] with a default of 10.
func (c *Client) GenerateAggregatedQuiz(ctx context.Context, pdfSummary, videoSummary string, n int, language string, isExam bool) (string, error) {
	n = clampQuestions(n, 25, 10)

	var combined strings.Builder
	fmt.Fprintf(&combined, "PDF Content Summary:\n---\n%s\n---\n", pdfSummary)
	if strings.TrimSpace(videoSummary) != "" {
		fmt.Fprintf(&combined, "\nVideo Content Summary:\n---\n%s\n---\n", videoSummary)
	} else {
		combined.WriteString("\nNo additional video content summary was provided. Base questions primarily on PDF content.\n")
	}

	kind := "Aggregated Quiz"
	if isExam {
		kind = "Comprehensive Exam"
	}

	prompt := fmt.Sprintf(`Based on the following combined learning materials:
%s
Create a %s with %d questions.
Test understanding of the main concepts from ALL provided materials.
If video content is available and distinct, try to include some questions specific to it.
Prioritize questions that synthesize information if possible, or cover key distinct points from each source.
Format: Multiple-choice (options A,B,C,D), short answer, or true/false. Specify format clearly for each question.
If multiple choice, indicate the correct answer after the options, like "Correct Answer: B)".
Format the assessment clearly with questions numbered.
%s`, combined.String(), kind, n, languageInstruction(language))

	return c.generate(ctx, prompt)
}

// LearningSummary generates a concise recap of explained content.
func (c *Client) LearningSummary(ctx context.Context, explainedContent, language string) (string, error) {
	prompt := fmt.Sprintf(`Based on the following explained content that a student has just learned:
--- CONTENT START ---
%s
--- CONTENT END ---
Generate a concise summary of the key learning points. This summary should help the student remember what they've learned.
Organize it with bullet points or short, clear paragraphs for readability.
%s`, explainedContent, languageInstruction(language))

	return c.generate(ctx, prompt)
}

// ExtractSkills identifies the skills or concepts a student can learn from
// the text, one per line.
func (c *Client) ExtractSkills(ctx context.Context, text, language string) ([]string, error) {
	prompt := fmt.Sprintf(`Analyze the following text content and identify key skills, concepts, or topics a student might learn from it.
List each skill or concept on a new line. Be specific and concise (2-5 words per item if possible).
Do not include generic terms like "understanding" or "learning". Focus on nouns or noun phrases representing the knowledge.
--- TEXT START ---
%s
--- TEXT END ---
(Text above might be truncated if very long)
%s

Example Output:
Photosynthesis
Cellular Respiration
Newton's First Law
Python Data Types
Object-Oriented Programming`,
		truncate(text, maxContextInput, ""), languageInstruction(language))

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	skills := parseSkills(raw)
	if len(skills) == 0 {
		c.log.Warn("no skills extracted", zap.String("raw", raw))
		return nil, nil
	}
	c.log.Info("skills extracted", zap.Int("count", len(skills)))
	return skills, nil
}

// parseSkills splits a line-per-skill response, dropping blank and too-short
// entries.
func parseSkills(raw string) []string {
	var skills []string
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		s := strings.TrimSpace(line)
		if len(s) > 2 {
			skills = append(skills, s)
		}
	}
	return skills
}

// AskFollowUp answers a student question about the lesson context.
func (c *Client) AskFollowUp(ctx context.Context, contextText, question, language string, history []ChatMessage) (string, error) {
	prompt := fmt.Sprintf(`You are an AI Tutor. The student is learning about the following topic/context:
--- CONTEXT START ---
%s
--- CONTEXT END ---
(Context above might be truncated if very long)

%sThe student's current question or statement is:
"%s"

Provide a helpful and informative answer to the student's question based on the provided context.
If the question seems unrelated to the context, politely state that you can only answer questions about the material.
Keep your answers concise and easy to understand.
%s`, truncate(contextText, maxContextInput, ""), renderHistory(history), question, languageInstruction(language))

	return c.generate(ctx, prompt)
}
