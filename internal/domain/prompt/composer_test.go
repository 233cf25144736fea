package prompt

import (
	"strings"
	"testing"

	"flickai-server-go/internal/domain/intent"
)

func TestCompose_CodingWithVisionContext(t *testing.T) {
	description := "VS Code showing main.go with an unresolved import on line 12."
	result := Compose(intent.Coding, description)

	if !strings.Contains(result, description) {
		t.Error("vision description must be embedded verbatim")
	}
	if !strings.Contains(result, "SCREEN CONTEXT") {
		t.Error("prompt must label the screen context block")
	}
	if !strings.Contains(result, "Never claim that you cannot see the user's screen") {
		t.Error("prompt must forbid disclaiming screen visibility when context is present")
	}
	if strings.Contains(result, "upload a screenshot") {
		t.Error("context-present prompt must not carry the screenshot-request instruction")
	}
	if !strings.Contains(result, "coding assistance") {
		t.Error("prompt must carry the coding role section")
	}
}

func TestCompose_WithoutVisionContext(t *testing.T) {
	result := Compose(intent.Coding, "")

	if strings.Contains(result, "SCREEN CONTEXT") {
		t.Error("prompt must not contain a screen context block without context")
	}
	if !strings.Contains(result, "ask a clarifying question") {
		t.Error("context-absent prompt must instruct to ask a clarifying question")
	}
	if !strings.Contains(result, "Do not ask the user to capture, attach, or upload a screenshot") {
		t.Error("context-absent prompt must forbid requesting a screenshot")
	}
}

func TestCompose_CategorySections(t *testing.T) {
	tests := []struct {
		category intent.Category
		marker   string
	}{
		{intent.Coding, "coding assistance"},
		{intent.Email, "email composition"},
		{intent.Writing, "writing assistance"},
		{intent.General, "Your capabilities"},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			result := Compose(tt.category, "")
			if !strings.Contains(result, tt.marker) {
				t.Errorf("prompt for %s missing marker %q", tt.category, tt.marker)
			}
			if !strings.HasPrefix(result, "You are FlickAI") {
				t.Error("prompt must open with the persona preamble")
			}
			if !strings.Contains(result, "fenced code blocks with a language tag") {
				t.Error("prompt must carry the formatting rules")
			}
		})
	}
}

func TestCompose_Deterministic(t *testing.T) {
	first := Compose(intent.Email, "inbox with three unread messages")
	for i := 0; i < 5; i++ {
		if Compose(intent.Email, "inbox with three unread messages") != first {
			t.Fatal("composer output is not deterministic")
		}
	}
}
