package chat

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeStream_InOrderDelivery(t *testing.T) {
	body := strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n" +
			"data: [DONE]\n\n")

	var deltas []string
	text, err := decodeStream(body, func(delta string) {
		deltas = append(deltas, delta)
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if text != "Hello world" {
		t.Errorf("accumulated text = %q, want %q", text, "Hello world")
	}
	expected := []string{"Hel", "lo", " world"}
	if len(deltas) != len(expected) {
		t.Fatalf("delta callback invoked %d times, want %d", len(deltas), len(expected))
	}
	for i, want := range expected {
		if deltas[i] != want {
			t.Errorf("delta[%d] = %q, want %q", i, deltas[i], want)
		}
	}
}

func TestDecodeStream_SkipsMalformedFrames(t *testing.T) {
	body := strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n" +
			"data: {not valid json\n\n" +
			": comment line\n\n" +
			"data: {\"choices\":[]}\n\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"!\"}}]}\n\n" +
			"data: [DONE]\n\n")

	var count int
	text, err := decodeStream(body, func(string) { count++ })
	if err != nil {
		t.Fatalf("malformed frames must not abort the stream: %v", err)
	}
	if text != "ok!" {
		t.Errorf("accumulated text = %q, want %q", text, "ok!")
	}
	if count != 2 {
		t.Errorf("callback invoked %d times, want 2", count)
	}
}

func TestDecodeStream_InterruptedBeforeDone(t *testing.T) {
	body := strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"Par\"}}]}\n\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"tial\"}}]}\n\n")

	var deltas []string
	text, err := decodeStream(body, func(delta string) {
		deltas = append(deltas, delta)
	})

	if !errors.Is(err, ErrStreamInterrupted) {
		t.Fatalf("expected ErrStreamInterrupted, got %v", err)
	}
	if text != "Partial" {
		t.Errorf("accumulated text = %q, want %q", text, "Partial")
	}
	if len(deltas) != 2 || deltas[0] != "Par" || deltas[1] != "tial" {
		t.Errorf("deltas before the interruption must remain delivered: %v", deltas)
	}
}

func TestDecodeStream_EmptyBody(t *testing.T) {
	text, err := decodeStream(strings.NewReader(""), nil)
	if !errors.Is(err, ErrStreamInterrupted) {
		t.Fatalf("expected ErrStreamInterrupted for empty body, got %v", err)
	}
	if text != "" {
		t.Errorf("expected empty accumulated text, got %q", text)
	}
}

func TestDecodeStream_NilCallback(t *testing.T) {
	body := strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"quiet\"}}]}\n\n" +
			"data: [DONE]\n\n")

	text, err := decodeStream(body, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if text != "quiet" {
		t.Errorf("accumulated text = %q, want %q", text, "quiet")
	}
}
