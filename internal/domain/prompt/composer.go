// Package prompt assembles the system prompt for one chat request. The
// composer is a pure function: identical inputs always yield identical
// prompts. Behavioral rules ride inside the prompt text itself, so tests
// assert on the presence of the mandated phrases rather than exact wording.
package prompt

import (
	"strings"

	"flickai-server-go/internal/domain/intent"
)

const persona = "You are FlickAI, an intelligent desktop assistant."

// withContextRules is appended whenever screen context is embedded. The
// model must never disclaim visibility of a screen it was just shown.
const withContextRules = `The above description comes from an automatic analysis of the user's current screen. Use it to give specific, relevant help grounded in what they are actually seeing. Never claim that you cannot see the user's screen; when screen context is present, treat it as what you can see.`

// withoutContextRules covers the no-capture case: clarify the task, do
// not send the user off to produce a screenshot.
const withoutContextRules = `No screen context is available for this request. If the task is unclear, ask a clarifying question about the task itself. Do not ask the user to capture, attach, or upload a screenshot.`

const formattingRules = `**Formatting rules**:
- Put code in fenced code blocks with a language tag
- Never mix explanatory prose inside a code fence
- Keep paragraphs short`

// Compose builds the system prompt for the detected category. visionContext
// is embedded verbatim when non-empty; callers pass an empty string for
// absent or sentinel contexts.
func Compose(category intent.Category, visionContext string) string {
	var b strings.Builder
	b.WriteString(persona)

	if visionContext != "" {
		b.WriteString("\n\n**SCREEN CONTEXT** (from vision analysis):\n")
		b.WriteString(visionContext)
		b.WriteString("\n\n")
		b.WriteString(withContextRules)
	} else {
		b.WriteString("\n\n")
		b.WriteString(withoutContextRules)
	}

	b.WriteString("\n\n")
	b.WriteString(categorySection(category, visionContext != ""))
	b.WriteString("\n\n")
	b.WriteString(formattingRules)

	return b.String()
}

func categorySection(category intent.Category, hasContext bool) string {
	switch category {
	case intent.Coding:
		section := `**Context**: The user needs coding assistance.

**Your role**:
- Provide accurate, working code solutions
- Debug errors and explain the fix
- Suggest best practices and optimizations
- Be concise but thorough: explain why, not just how

**Response style**:
- Start with the solution or fix immediately
- Highlight key changes or error causes
- Keep explanations under 200 words unless the problem is complex`
		if hasContext {
			section += "\n- Reference the specific code or errors visible in the screen context, and identify visible errors precisely"
		}
		return section

	case intent.Email:
		return `**Context**: The user needs help with email composition or replies.

**Your role**:
- Draft professional, clear emails
- Adapt tone to the situation (formal or casual)
- Structure: subject line (if needed), greeting, body, closing
- Keep it concise and actionable

**Response style**:
- Provide the complete email draft
- Suggest two or three subject line options when composing a new email
- Be direct and respectful`

	case intent.Writing:
		return `**Context**: The user needs writing assistance (grammar, rewriting, improvement).

**Your role**:
- Correct grammar, spelling, and punctuation
- Improve clarity and flow
- Adjust tone as needed while preserving the user's voice and intent
- Highlight major changes made

**Response style**:
- Show the improved version first
- Add a brief explanation of the changes (one or two sentences)
- Be constructive, not just corrective`

	default:
		return `**Your capabilities**:
- Code assistance: debug, write, and optimize code
- Writing help: grammar, rewriting, and composition
- Email drafting: professional and personal emails
- General help: troubleshooting, explanations, productivity

**Response guidelines**:
- Be concise and actionable (under 300 words)
- Prioritize clarity over verbosity`
	}
}
