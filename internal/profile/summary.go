package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// QuizDetails captures an assessment taken alongside a saved summary.
type QuizDetails struct {
	Type          string
	Topic         string
	Timestamp     string
	Language      string
	Questions     string
	UserAnswer    string
	Evaluation    string
	Justification string
}

// SaveSummary writes a Markdown record of a learning summary under
// <dir>/summaries and appends it to the summaries log. quiz may be nil.
func (s *State) SaveSummary(content, topic string, quiz *QuizDetails) error {
	summariesDir := filepath.Join(s.dir, "summaries")
	if err := os.MkdirAll(summariesDir, 0o755); err != nil {
		return fmt.Errorf("create summaries directory: %w", err)
	}

	if topic == "" {
		topic = "general"
	}
	now := time.Now()
	fileName := fmt.Sprintf("%s_%s.md", safeFileName(topic), now.Format("20060102_150405"))
	filePath := filepath.Join(summariesDir, fileName)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Summary: %s\n", topic)
	fmt.Fprintf(&sb, "Date: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Level: %d\n", s.Level)
	fmt.Fprintf(&sb, "Lang: %s\n\n", s.Language)
	fmt.Fprintf(&sb, "## Content:\n%s\n\n", content)

	if quiz != nil {
		sb.WriteString("---\n## Quiz Details:\n")
		fmt.Fprintf(&sb, "Type: %s\n", quiz.Type)
		fmt.Fprintf(&sb, "Topic: %s\n", quiz.Topic)
		fmt.Fprintf(&sb, "Date: %s\n", quiz.Timestamp)
		fmt.Fprintf(&sb, "Lang: %s\n\n", quiz.Language)
		fmt.Fprintf(&sb, "### Questions:\n```\n%s\n```\n\n", quiz.Questions)
		fmt.Fprintf(&sb, "### User Answer:\n```\n%s\n```\n\n", quiz.UserAnswer)
		fmt.Fprintf(&sb, "### Eval: **%s**\nFeedback:\n%s\n---\n",
			strings.ToUpper(quiz.Evaluation), quiz.Justification)
	}

	if err := os.WriteFile(filePath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write summary %s: %w", filePath, err)
	}

	s.SummariesLog = append(s.SummariesLog, SummaryLogEntry{
		Topic:     topic,
		Timestamp: now.Format(time.RFC3339),
		FilePath:  filePath,
		FileName:  fileName,
		QuizTaken: quiz != nil,
	})
	s.log.Info("summary saved", zap.String("path", filePath))
	return nil
}

// safeFileName reduces a topic to a filesystem-safe stem, capped at 50 chars.
func safeFileName(topic string) string {
	var sb strings.Builder
	for _, r := range strings.ReplaceAll(topic, " ", "_") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	stem := sb.String()
	if len(stem) > 50 {
		stem = stem[:50]
	}
	if strings.Trim(stem, "_") == "" {
		return "summary"
	}
	return stem
}
