package coach

import "fmt"

// Exact phrases the terms step recognizes. Matching is case-sensitive
// after trimming whitespace.
const (
	ApprovalPhrase = "I approve"
	DeclinePhrase  = "I decline"
)

// MaxCodeAttempts is how many wrong access codes a user may enter
// before access is denied.
const MaxCodeAttempts = 4

// Canned onboarding and failure messages.
const (
	msgWelcome = "Welcome. This is a private coaching space. " +
		"To get started, please enter your access code."

	msgCodeRetry = "That code doesn't match. Please try again (attempt %d of %d)."

	msgCodeDenied = "That code doesn't match and you've used all your attempts. " +
		"If you believe this is a mistake, please contact whoever gave you the code."

	msgTerms = "Thanks, your code checks out.\n\n" +
		"Before we begin: this is a coaching conversation, not therapy or medical care. " +
		"What you share stays between us and is used only to make the coaching more personal. " +
		"You can stop at any time.\n\n" +
		"If that works for you, reply exactly \"" + ApprovalPhrase + "\". " +
		"If not, reply \"" + DeclinePhrase + "\"."

	msgTermsRepeat = "To continue, please reply exactly \"" + ApprovalPhrase +
		"\" or \"" + DeclinePhrase + "\"."

	msgDeclined = "Understood. Nothing has been saved. " +
		"If you change your mind, reply exactly \"" + ApprovalPhrase +
		"\" and we'll pick up from here; \"" + DeclinePhrase + "\" leaves things as they are."

	msgActivated = "You're all set. This space is yours: share what's on your mind " +
		"and we'll take it from there."

	msgApology = "Sorry, something went wrong on my side. Please try again in a moment."
)

func codeRetryMessage(attempt int) string {
	return fmt.Sprintf(msgCodeRetry, attempt, MaxCodeAttempts)
}
