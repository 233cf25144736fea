// Package intent classifies what kind of help the user is asking for so
// the right system prompt can be selected. Classification is a pure
// function of the last user message plus screen-context presence.
package intent

import "strings"

// Category is the detected task category for one request.
type Category string

const (
	Coding  Category = "coding"
	Writing Category = "writing"
	Email   Category = "email"
	General Category = "general"
)

var codingKeywords = []string{
	"code", "bug", "error", "debug", "function", "class", "variable",
	"syntax", "compile", "runtime", "exception", "import", "export",
	"typescript", "javascript", "python", "react", "component", "api",
	"terminal", "console", "stack trace", "npm", "yarn", "git",
}

var emailKeywords = []string{
	"email", "gmail", "reply", "compose", "send", "recipient",
	"subject line", "professional", "business email", "message",
}

var writingKeywords = []string{
	"write", "grammar", "rewrite", "improve", "polish", "proofread",
	"document", "paragraph", "essay", "article", "content", "tone",
}

// Classify maps the last user message and screen-context presence to a
// category. Precedence is fixed: coding > email > writing > general.
// Any usable vision context forces coding, since a screen-grounded
// request is overwhelmingly a debugging or code-reading task.
func Classify(lastUserMessage string, hasVisionContext bool) Category {
	text := strings.ToLower(lastUserMessage)

	if hasVisionContext || containsAny(text, codingKeywords) {
		return Coding
	}
	if containsAny(text, emailKeywords) {
		return Email
	}
	if containsAny(text, writingKeywords) {
		return Writing
	}
	return General
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
