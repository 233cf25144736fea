package vision

// Provenance records how a vision context was derived.
type Provenance string

const (
	// ProvenanceModel marks a holistic description from the remote
	// multimodal model.
	ProvenanceModel Provenance = "model"
	// ProvenanceOCR marks raw screen text extracted locally.
	ProvenanceOCR Provenance = "ocr"
	// ProvenanceNone marks a sentinel: the capture yielded no usable context.
	ProvenanceNone Provenance = "none"
)

// Context is the textual description of on-screen content attached to a
// chat request. It lives for exactly one request; callers clear it after
// the request is sent so continued visual grounding needs a fresh capture.
type Context struct {
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
}

// Sentinel contexts. These are deliberately ordinary values, not errors:
// the pipeline never surfaces a failure to its caller.
var (
	NoTextContext = Context{
		Text:       "[Screenshot captured but no text could be extracted]",
		Provenance: ProvenanceNone,
	}
	FailedContext = Context{
		Text:       "[Vision analysis failed - proceeding without visual context]",
		Provenance: ProvenanceNone,
	}
)

// Usable reports whether the context carries real screen information that
// should be embedded into a system prompt. Sentinels are not usable.
func (c Context) Usable() bool {
	return c.Text != "" && c.Provenance != ProvenanceNone
}
