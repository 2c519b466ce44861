package prompts

import (
	"strings"
	"testing"
)

func TestResearcherPrompt(t *testing.T) {
	prompt, err := ResearcherPrompt(ResearcherPromptData{
		SystemPrompt: "You are a research assistant.",
		CurrentDate:  "2026-08-25",
		MemoryBlocks: map[string]string{
			"UserDetails": "country: United Kingdom",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"You are a research assistant.",
		"Today's date is 2026-08-25.",
		"<UserDetails>\ncountry: United Kingdom\n</UserDetails>",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, prompt)
		}
	}
}

func TestResearcherPromptWithoutMemory(t *testing.T) {
	prompt, err := ResearcherPrompt(ResearcherPromptData{
		SystemPrompt: "You are a research assistant.",
		CurrentDate:  "2026-08-25",
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(prompt, "What you remember") {
		t.Fatal("memory section should be omitted when there are no blocks")
	}
}

func TestSkillContextRunnerPrompt(t *testing.T) {
	prompt, err := SkillContextRunnerPrompt(SkillContextRunnerPromptData{
		MainAgentSystemPrompt: "Main prompt.",
		SkillSystemPrompt:     "You are a web research specialist.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(prompt, "Main prompt.") {
		t.Fatal("main agent prompt missing")
	}
	if !strings.Contains(prompt, "You are a web research specialist.") {
		t.Fatal("skill prompt missing")
	}
}

func TestFormatMemoryBlocksIsSorted(t *testing.T) {
	rendered := formatMemoryBlocks(map[string]string{
		"b": "second",
		"a": "first",
	})
	if strings.Index(rendered, "<a>") > strings.Index(rendered, "<b>") {
		t.Fatalf("expected sorted sections:\n%s", rendered)
	}
}
