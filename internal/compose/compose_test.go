package compose

import (
	"strings"
	"testing"

	"github.com/tripnexus/tripnexus/internal/itinerary"
	"github.com/tripnexus/tripnexus/internal/llm"
)

func chengduConstraints() itinerary.Constraints {
	return itinerary.Constraints{
		Destination: "Chengdu",
		Days:        3,
		Budget:      5000,
		Preferences: []string{"food", "history"},
	}
}

func userContent(t *testing.T, p *llm.Prompt) string {
	t.Helper()
	if len(p.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(p.Messages))
	}
	if p.Messages[0].Role != llm.RoleUser {
		t.Fatalf("expected user role, got %q", p.Messages[0].Role)
	}
	return p.Messages[0].Content
}

func TestBuild_EmbedsConstraints(t *testing.T) {
	prompt := Build(Request{
		Constraints: chengduConstraints(),
		Context:     []string{"guide chunk about pandas"},
	})

	if prompt.SystemPrompt == "" {
		t.Error("expected a system prompt")
	}
	content := userContent(t, prompt)
	for _, want := range []string{"Chengdu", "days: 3", "budget: 5000", "food, history"} {
		if !strings.Contains(content, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuild_ContextInRankOrder(t *testing.T) {
	prompt := Build(Request{
		Constraints: chengduConstraints(),
		Context:     []string{"first ranked chunk", "second ranked chunk", "third ranked chunk"},
	})

	content := userContent(t, prompt)
	i1 := strings.Index(content, "first ranked chunk")
	i2 := strings.Index(content, "second ranked chunk")
	i3 := strings.Index(content, "third ranked chunk")
	if i1 == -1 || i2 == -1 || i3 == -1 {
		t.Fatal("all context chunks must appear in the prompt")
	}
	if !(i1 < i2 && i2 < i3) {
		t.Errorf("chunks out of rank order: %d, %d, %d", i1, i2, i3)
	}
}

func TestBuild_EmptyContextUsesMarker(t *testing.T) {
	prompt := Build(Request{Constraints: chengduConstraints()})

	content := userContent(t, prompt)
	if !strings.Contains(content, NoContextMarker) {
		t.Errorf("expected %q in prompt", NoContextMarker)
	}
}

func TestBuild_IncludesSchemaContract(t *testing.T) {
	content := userContent(t, Build(Request{Constraints: chengduConstraints()}))

	for _, want := range []string{`"daily_plan"`, "08:00-18:00", `"1"`} {
		if !strings.Contains(content, want) {
			t.Errorf("schema contract missing %q", want)
		}
	}
}

func TestBuild_EditDirective(t *testing.T) {
	prompt := Build(Request{
		Constraints: chengduConstraints(),
		Edit:        itinerary.EditCommand{Op: itinerary.EditDelete, Attraction: "Panda Base", Day: 1},
	})

	content := userContent(t, prompt)
	if !strings.Contains(content, `"Panda Base"`) || !strings.Contains(content, "day 1") {
		t.Errorf("edit directive not embedded: %q", content)
	}
}

func TestEditNote(t *testing.T) {
	tests := []struct {
		cmd  itinerary.EditCommand
		want string
	}{
		{itinerary.EditCommand{}, ""},
		{itinerary.EditCommand{Op: itinerary.EditAdd, Attraction: "Jinli", Day: 2}, "insert"},
		{itinerary.EditCommand{Op: itinerary.EditDelete, Attraction: "Jinli", Day: 2}, "remove"},
		{itinerary.EditCommand{Op: itinerary.EditReorder}, "re-sequence"},
	}
	for _, tt := range tests {
		got := EditNote(tt.cmd)
		if tt.want == "" {
			if got != "" {
				t.Errorf("EditNote(%v) = %q, want empty", tt.cmd, got)
			}
			continue
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("EditNote(%v) = %q, want substring %q", tt.cmd, got, tt.want)
		}
	}
}

func TestQuery_MentionsAllFields(t *testing.T) {
	q := Query(chengduConstraints())
	for _, want := range []string{"Chengdu", "3-day", "5000", "food, history"} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
}

func TestBuild_Pure(t *testing.T) {
	req := Request{Constraints: chengduConstraints(), Context: []string{"chunk"}}
	a := Build(req)
	b := Build(req)
	if userContent(t, a) != userContent(t, b) {
		t.Error("identical requests must build identical prompts")
	}
}
