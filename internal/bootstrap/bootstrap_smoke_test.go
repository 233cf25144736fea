package bootstrap

import (
	"context"
	"testing"
)

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init-provider",
		"observability:setup-hooks",
		"storage:init-transcripts",
		"eventbus:init",
		"vision:init-pipeline",
		"chat:init-orchestrator",
		"services:init-assistant",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestInitGraphDependenciesSatisfied(t *testing.T) {
	steps := InitGraph()
	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := seen[dep]; !ok {
				t.Errorf("step %s depends on %s which is not declared before it", step.ID, dep)
			}
		}
		seen[step.ID] = struct{}{}
	}
}

func TestExecuteInitGraph(t *testing.T) {
	t.Setenv("FLICKAI_VISION_API_KEY", "")
	t.Setenv("FLICKAI_CHAT_API_KEY", "")

	state := &appState{}
	if err := executeInitSteps(context.Background(), InitGraph(), state); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	if state.config == nil {
		t.Fatal("config is nil after init")
	}
	if state.logger == nil {
		t.Fatal("logger is nil after init")
	}
	if state.vision == nil {
		t.Fatal("vision pipeline is nil after init")
	}
	if state.chat == nil {
		t.Fatal("chat orchestrator is nil after init")
	}
	if state.assistant == nil {
		t.Fatal("assistant service is nil after init")
	}
	defer state.logger.Close()
	if state.store != nil {
		defer state.store.Close()
	}
}
