package llm

import (
	"fmt"
	"strings"

	"github.com/ashudevin/caremind/internal/domain"
)

// BuildValidationPrompt asks for a warm acknowledgement of the user's issue
// without solutions or questions.
func BuildValidationPrompt(issue string) string {
	return fmt.Sprintf(`The user has shared the following issue: '%s'. `+
		`Respond as a supportive virtual therapist by validating their feelings and showing empathy. `+
		`Do not offer solutions or ask follow-up questions yet. `+
		`Just acknowledge and validate their experience in a warm, human way.`, issue)
}

// BuildFollowupPrompt asks for a gentle reflection that invites the user to
// keep sharing.
func BuildFollowupPrompt(issue string, mood string, history []domain.Turn) string {
	return fmt.Sprintf(`You are a highly empathetic virtual therapist. `+
		`The user is feeling %s and is dealing with the issue: '%s'.

Conversation so far:
%s

Continue the conversation in a gentle, supportive, and very polite way. `+
		`Instead of asking direct questions, use statements or gentle reflections that encourage the user to share more, as a real therapist would. `+
		`Do not use question marks. Do not thank the user for sharing. `+
		`Respond as if you are sympathizing and inviting them to open up further.`,
		orUnknown(mood), orUnknown(issue), FormatHistory(history))
}

// BuildSummaryPrompt asks for the closing summary with practical suggestions
func BuildSummaryPrompt(history []domain.Turn) string {
	return fmt.Sprintf(`You are a virtual therapist. Based on the following conversation history, `+
		`provide a final summary and practical suggestions to help the user.

Conversation so far:
%s

Make sure the response is well formatted.`, FormatHistory(history))
}

// FormatHistory renders the transcript one "role: message" line per turn
func FormatHistory(history []domain.Turn) string {
	var b strings.Builder
	for i, t := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		role := "user"
		if t.Role == domain.TurnRoleBot {
			role = "therapist"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(t.Message)
	}
	return b.String()
}

// CleanReply trims whitespace and a wrapping markdown fence from model output
func CleanReply(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") && len(content) >= 6 {
		inner := strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")
		// drop an info string such as ```markdown
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 && !strings.ContainsAny(inner[:nl], " \t") {
			inner = inner[nl+1:]
		}
		content = strings.TrimSpace(inner)
	}
	return content
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
