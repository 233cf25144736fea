package chat

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ErrStreamInterrupted reports a stream that ended before the terminal
// marker. Fragments already handed to the caller's delta callback stay
// delivered; the overall turn is not completed.
var ErrStreamInterrupted = errors.New("chat stream interrupted before completion")

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// streamFrame is one decoded SSE event payload.
type streamFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// decodeStream consumes newline-delimited "data: " frames, invoking
// onDelta for every content fragment in arrival order. Frames that fail
// to parse are skipped without aborting the stream. It returns the full
// accumulated text; the error is ErrStreamInterrupted when the stream
// ended without the [DONE] marker.
func decodeStream(body io.Reader, onDelta OnDelta) (string, error) {
	var accumulated strings.Builder

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		data := strings.TrimPrefix(line, dataPrefix)
		if data == doneSentinel {
			return accumulated.String(), nil
		}

		var frame streamFrame
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			// malformed frame, skip
			continue
		}
		if len(frame.Choices) == 0 {
			continue
		}

		content := frame.Choices[0].Delta.Content
		if content == "" {
			continue
		}

		accumulated.WriteString(content)
		if onDelta != nil {
			onDelta(content)
		}
	}

	return accumulated.String(), ErrStreamInterrupted
}
