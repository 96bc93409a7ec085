package tui

import (
	"strings"
	"testing"
)

func TestProgressModel_InitialState(t *testing.T) {
	model := NewProgressModel()

	if model.stage != "" {
		t.Errorf("expected empty stage, got %s", model.stage)
	}
	if model.done {
		t.Error("expected not done initially")
	}
	if view := model.View(); !strings.Contains(view, "Analyzing crash reports") {
		t.Errorf("expected default status line, got: %s", view)
	}
}

func TestProgressModel_UpdateWithStage(t *testing.T) {
	model, _ := NewProgressModel().Update(ProgressMsg{Stage: "Reading hs_err_pid4242.log"})

	if model.stage != "Reading hs_err_pid4242.log" {
		t.Errorf("expected stage 'Reading hs_err_pid4242.log', got %s", model.stage)
	}
	if view := model.View(); !strings.Contains(view, "Reading hs_err_pid4242.log") {
		t.Errorf("expected view to contain stage, got: %s", view)
	}
}

func TestProgressModel_UpdateWithProgress(t *testing.T) {
	model, _ := NewProgressModel().Update(ProgressMsg{Stage: "Analyzing", Current: 3, Total: 5})

	view := model.View()
	if !strings.Contains(view, "3/5") {
		t.Errorf("expected view to contain '3/5', got: %s", view)
	}
	if !strings.Contains(view, "60%") {
		t.Errorf("expected view to contain '60%%', got: %s", view)
	}
}

func TestProgressModel_Complete(t *testing.T) {
	model, _ := NewProgressModel().Update(ProgressMsg{Stage: StageComplete})

	if !model.done {
		t.Error("expected model to be done after the complete stage")
	}
	if view := model.View(); !strings.Contains(view, "complete") {
		t.Errorf("expected view to report completion, got: %s", view)
	}
}

func TestProgressModel_SpinnerStopsWhenDone(t *testing.T) {
	model := NewProgressModel()

	model, cmd := model.Update(SpinnerTickMsg{})
	if model.spinnerFrame != 1 || cmd == nil {
		t.Errorf("spinner frame = %d, cmd = %v; expected frame 1 and another tick", model.spinnerFrame, cmd)
	}

	model, _ = model.Update(ProgressMsg{Stage: StageComplete})
	if _, cmd := model.Update(SpinnerTickMsg{}); cmd != nil {
		t.Error("spinner kept ticking after completion")
	}
}
