package descriptions

import (
	"sort"
	"strings"
	"testing"

	"github.com/a3tai/mcp-template-forms/internal/organizer"
)

func TestGetAllToolNames(t *testing.T) {
	names := GetAllToolNames()
	if len(names) != len(ToolDescriptions) {
		t.Fatalf("expected %d names, got %d", len(ToolDescriptions), len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("names are not sorted: %v", names)
	}
	for _, name := range names {
		if strings.TrimSpace(GetToolDescription(name)) == "" {
			t.Errorf("tool %s has an empty description", name)
		}
	}
}

func TestGetToolDescription_Unknown(t *testing.T) {
	if got := GetToolDescription("pdf_read_file"); got != "Tool description not available" {
		t.Errorf("unexpected description for unknown tool: %q", got)
	}
}

// Every action the decoder accepts must be documented for clients
func TestSessionActionDescription_ListsActions(t *testing.T) {
	for _, actionType := range organizer.ActionTypes() {
		if !strings.Contains(SessionActionDescription, actionType) {
			t.Errorf("action %s is not documented", actionType)
		}
	}
}
