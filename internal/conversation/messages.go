package conversation

import "fmt"

// Fixed bot lines. Everything else comes from the dialogue generator.
const (
	UnknownStateReply   = "I'm not sure how to proceed. Let's try again."
	SummaryFallbackText = "Thank you for sharing your thoughts with me. Here's a summary of our conversation and some practical suggestions that might help you move forward."
)

// History tags
const (
	tagGreeting                     = "greeting"
	tagGreetingResponse             = "greeting_response"
	tagIssuePrompt                  = "issue_prompt"
	tagMood                         = "mood"
	tagIssue                        = "issue"
	tagEmpatheticValidation         = "empathetic_validation"
	tagEmpatheticValidationResponse = "empathetic_validation_response"
	tagFollowup                     = "followup"
	tagFollowupResponse             = "followup_response"
	tagFinal                        = "final"
)

func returningGreeting(username string) string {
	return fmt.Sprintf("Hello, I am CareMind, your personal healthcare companion. Welcome back, %s! It's great to see you again. How have you been since our last session?", username)
}

func newUserGreeting(username string) string {
	return fmt.Sprintf("Hello %s, I am CareMind, your personal healthcare companion. I'm here to provide a safe space for you to share your thoughts and feelings. How are you feeling today?", username)
}

func genericGreeting(username string) string {
	return fmt.Sprintf("Hey %s, How are you feeling today?", username)
}

func moodPrompt(mood string) string {
	return fmt.Sprintf("I see you're feeling %s. Can you please share what is bothering you today?", mood)
}

func legacyMoodPrompt(username, mood string) string {
	return fmt.Sprintf("Got it %s, I see you're feeling %s. Can you please share what is bothering you today?", username, mood)
}

func restartMessage(username string) string {
	return fmt.Sprintf("Our session is completed, %s. You can start a New Chat or Is there anything else on your mind regarding the above situation that you'd like to discuss? I'm here to help.", username)
}
