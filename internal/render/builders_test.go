package render

import "testing"

func TestTaskPreviewBlocks_HasThreeButtons(t *testing.T) {
	r := TaskPreviewBlocks(ExtractedTask{Name: "Fix login bug", Priority: PriorityHigh, Status: TaskStatusToDo})
	actions, ok := lastBlock(r).(ActionsBlock)
	if !ok {
		t.Fatalf("expected last block to be ActionsBlock, got %T", lastBlock(r))
	}
	if len(actions.Buttons) != 3 {
		t.Fatalf("expected 3 buttons, got %d", len(actions.Buttons))
	}
	if actions.Buttons[0].ActionID != ActionCreateTask || actions.Buttons[0].Style != ButtonPrimary {
		t.Errorf("expected primary create button first, got %+v", actions.Buttons[0])
	}
	if actions.Buttons[2].ActionID != ActionCancelTask || actions.Buttons[2].Style != ButtonDanger {
		t.Errorf("expected danger cancel button last, got %+v", actions.Buttons[2])
	}
}

func TestMeetingPreviewBlocks_HasApproveDismiss(t *testing.T) {
	r := MeetingPreviewBlocks("Sprint Planning", MeetingAnalysis{
		Summary:     "discussed roadmap",
		ActionItems: []ActionItem{{Title: "Follow up with design", Assignee: "alice"}},
		Decisions:   []string{"ship v2 next quarter"},
	})
	actions, ok := lastBlock(r).(ActionsBlock)
	if !ok {
		t.Fatalf("expected last block ActionsBlock, got %T", lastBlock(r))
	}
	if len(actions.Buttons) != 2 || actions.Buttons[0].ActionID != ActionApproveMeeting {
		t.Errorf("unexpected buttons: %+v", actions.Buttons)
	}
}

func TestErrorBlocks_IncludesMessage(t *testing.T) {
	r := ErrorBlocks("boom")
	if r.Text == "" {
		t.Error("expected non-empty fallback text")
	}
	section, ok := r.Blocks[0].(SectionBlock)
	if !ok {
		t.Fatalf("expected SectionBlock, got %T", r.Blocks[0])
	}
	if !contains(section.Text, "boom") {
		t.Errorf("expected block text to mention the error, got %q", section.Text)
	}
}

func lastBlock(r Rendered) Block {
	return r.Blocks[len(r.Blocks)-1]
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
