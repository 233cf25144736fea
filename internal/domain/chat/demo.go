package chat

import "strings"

const demoLabel = "_Demo mode: no chat API key is configured, so this is a simulated response._"

// demoResponse serves unconfigured deployments. Responses are canned but
// keyed to the request so the experience stays coherent, and every one is
// labeled as simulated.
func demoResponse(userMessage string, hasScreenshot bool) string {
	lower := strings.ToLower(userMessage)

	switch {
	case strings.Contains(lower, "code") || strings.Contains(lower, "error") || strings.Contains(lower, "bug"):
		return `I can help with that! Here's a quick solution:

` + "```javascript" + `
const handleError = (error) => {
  console.error('Error:', error.message);
};
` + "```" + `

**Tips:**
- Check your syntax for typos
- Verify all imports are correct
- Look for null or undefined values

Need more specific help? Share the actual code!

` + demoLabel

	case strings.Contains(lower, "write") || strings.Contains(lower, "email") || strings.Contains(lower, "document"):
		return `Here's a polished version:

> Your text has been refined for clarity and professionalism.

**Suggestions:**
- Use active voice for stronger impact
- Keep sentences concise
- Lead with the main point

Would you like me to adjust the tone or style?

` + demoLabel

	case hasScreenshot || strings.Contains(lower, "screenshot"):
		return `I can see your screenshot! Here's what I notice:

**Analysis:**
- The interface looks clean
- I can help troubleshoot any visible errors
- Share more context for detailed assistance

` + demoLabel

	default:
		return `Thanks for your message! I'm FlickAI, your desktop assistant.

I can help you with:
- **Coding** - debug, refactor, or write code
- **Writing** - polish emails, docs, or creative content
- **Screenshots** - analyze and troubleshoot what you see

` + demoLabel
	}
}
