package assist

// AssistRequest is the body of POST /assist. SessionID is optional; a
// missing one starts a fresh session whose ID comes back in the stream.
type AssistRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// VisionRequest is the JSON body of POST /vision. Image carries the
// screenshot as a data URI or bare base64 payload.
type VisionRequest struct {
	SessionID string `json:"session_id"`
	Image     string `json:"image"`
}

// VisionData reports the resolved screen context back to the client.
type VisionData struct {
	SessionID  string `json:"session_id"`
	Text       string `json:"text"`
	Provenance string `json:"provenance"`
	Usable     bool   `json:"usable"`
}

// streamEvent is one SSE frame on the assist stream. Exactly one of Delta
// or Done is meaningful per frame.
type streamEvent struct {
	SessionID   string `json:"session_id,omitempty"`
	Delta       string `json:"delta,omitempty"`
	Done        bool   `json:"done,omitempty"`
	Text        string `json:"text,omitempty"`
	Interrupted bool   `json:"interrupted,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SessionData identifies a conversation session.
type SessionData struct {
	SessionID string `json:"session_id"`
}

// TranscriptTurn is one persisted conversation turn.
type TranscriptTurn struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	Provenance  string `json:"provenance,omitempty"`
	Interrupted bool   `json:"interrupted,omitempty"`
}
