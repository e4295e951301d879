package tutor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// EvalStatus is the graded outcome of an answer evaluation.
type EvalStatus string

const (
	StatusCorrect          EvalStatus = "Correct"
	StatusPartiallyCorrect EvalStatus = "Partially Correct"
	StatusIncorrect        EvalStatus = "Incorrect"
	StatusError            EvalStatus = "Error"
)

// Evaluation is the graded result plus the model's justification.
type Evaluation struct {
	Status        EvalStatus
	Justification string
}

// EvaluateAnswer grades a student's answer against the quiz questions and the
// content they were drawn from. The model must respond with a status line
// followed by a justification; malformed responses are repaired when a valid
// status appears anywhere in the text.
func (c *Client) EvaluateAnswer(ctx context.Context, evalContext, questions, answer, language string) (Evaluation, error) {
	prompt := fmt.Sprintf(`You are an AI evaluating a student's answer to a quiz/exam.
The quiz/exam was based on the following context/content:
--- CONTEXT START ---
%s
--- CONTEXT END ---
(Context above might be truncated if very long)

The specific Quiz/Exam Questions were:
--- QUESTIONS START ---
%s
--- QUESTIONS END ---

The Student's Answer was:
--- ANSWER START ---
%s
--- ANSWER END ---

**Instructions for Evaluation:**
1.  On the very first line, state ONLY ONE of the following: "Correct", "Partially Correct", or "Incorrect". Do not add any other text on this line.
2.  On the subsequent lines, provide a brief but clear justification for your evaluation. Explain *why* the answer is correct, partially correct, or incorrect. Be constructive.

Example of a "Correct" response:
Correct
The student correctly identified the main causes of the phenomenon as described in the context.

Example of an "Incorrect" response:
Incorrect
The student confused concept A with concept B. The correct answer, based on the provided context, should have focused on the definition of concept A.

%s
Follow the two-part response format strictly.`,
		truncate(evalContext, maxContextInput, ""), questions, answer, languageInstruction(language))

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return Evaluation{Status: StatusError}, err
	}

	ev := parseEvaluation(raw)
	if ev.Status == StatusError {
		c.log.Warn("unparseable evaluation response", zap.String("raw", raw))
	} else {
		c.log.Info("evaluation result", zap.String("status", string(ev.Status)))
	}
	return ev, nil
}

// parseEvaluation reads the status line and justification. When the first
// line is not a valid status, a status appearing anywhere in the response is
// used instead; longer statuses are matched first so "Partially Correct" and
// "Incorrect" are not misread as "Correct".
func parseEvaluation(raw string) Evaluation {
	trimmed := strings.TrimSpace(raw)
	parts := strings.SplitN(trimmed, "\n", 2)

	status := EvalStatus(strings.TrimSpace(parts[0]))
	justification := "No justification provided."
	if len(parts) > 1 {
		justification = strings.TrimSpace(parts[1])
	}

	switch status {
	case StatusCorrect, StatusPartiallyCorrect, StatusIncorrect:
		return Evaluation{Status: status, Justification: justification}
	}

	lower := strings.ToLower(trimmed)
	for _, s := range []EvalStatus{StatusPartiallyCorrect, StatusIncorrect, StatusCorrect} {
		if strings.Contains(lower, strings.ToLower(string(s))) {
			return Evaluation{
				Status:        s,
				Justification: fmt.Sprintf("Response format was unusual. Status inferred: %s. Original response: %s", s, trimmed),
			}
		}
	}

	return Evaluation{
		Status:        StatusError,
		Justification: "Could not determine an evaluation status. Raw response: " + trimmed,
	}
}
