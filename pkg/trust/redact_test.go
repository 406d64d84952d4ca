package trust

import (
	"strings"
	"testing"

	"github.com/remembercore/memcore/pkg/memtype"
)

func TestFormatMemoryForPromptRendersByTier(t *testing.T) {
	m := &memtype.Memory{
		Content: "secret recipe",
		Title:   "cake",
		Summary: "a cake",
		Trust:   0.5,
	}

	full := FormatMemoryForPrompt(m, 1.0, false)
	if !strings.Contains(full, "secret recipe") {
		t.Errorf("full tier must include content, got %q", full)
	}

	summary := FormatMemoryForPrompt(m, 0.5, false)
	if strings.Contains(summary, "secret recipe") {
		t.Errorf("summary tier must not leak content, got %q", summary)
	}
	if !strings.Contains(summary, "a cake") {
		t.Errorf("summary tier must include summary, got %q", summary)
	}

	existence := FormatMemoryForPrompt(m, 0, false)
	if existence != ExistenceText {
		t.Errorf("existence tier must return the fixed string, got %q", existence)
	}
}

func TestFormatMemoriesForPromptBatches(t *testing.T) {
	memories := []*memtype.Memory{
		{Content: "a", Trust: 0},
		{Content: "b", Trust: 0},
	}
	out := FormatMemoriesForPrompt(memories, 1.0, true)
	if len(out) != 2 {
		t.Fatalf("expected 2 rendered strings, got %d", len(out))
	}
	if !strings.Contains(out[0], "a") || !strings.Contains(out[1], "b") {
		t.Errorf("batch results must preserve order, got %v", out)
	}
}
