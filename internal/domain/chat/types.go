package chat

import "encoding/json"

// Message roles. The system message is synthesized per request and never
// part of the caller-supplied history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Segment is one part of a structured message: either text or an image
// reference, matching the multimodal wire format.
type Segment struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

type ImageRef struct {
	URL string `json:"url"`
}

// Message is one conversation turn. Content is used for plain text turns;
// Segments for structured (text + image) turns. Messages are immutable
// once appended to a conversation.
type Message struct {
	Role     string
	Content  string
	Segments []Segment
}

// MarshalJSON emits content as a plain string or a segment array, matching
// what chat-completion endpoints accept.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Segments) > 0 {
		return json.Marshal(struct {
			Role    string    `json:"role"`
			Content []Segment `json:"content"`
		}{Role: m.Role, Content: m.Segments})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: m.Role, Content: m.Content})
}

// Text returns the textual part of the message regardless of shape.
func (m Message) Text() string {
	if len(m.Segments) == 0 {
		return m.Content
	}
	for _, segment := range m.Segments {
		if segment.Type == "text" {
			return segment.Text
		}
	}
	return ""
}

// UserText builds a plain text user turn.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// UserWithImage builds a structured user turn carrying a screenshot data
// URI next to the text.
func UserWithImage(text, imageDataURI string) Message {
	if text == "" {
		text = "Analyze what you see on this screen and help me."
	}
	return Message{
		Role: RoleUser,
		Segments: []Segment{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &ImageRef{URL: imageDataURI}},
		},
	}
}

// LastUserText returns the text of the newest user message, or "".
func LastUserText(conversation []Message) string {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == RoleUser {
			return conversation[i].Text()
		}
	}
	return ""
}

// OnDelta receives successive assistant output fragments in strict arrival
// order. It is invoked synchronously from the decoding loop.
type OnDelta func(delta string)
