package organizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Action
	}{
		{"toggle select", `{"type":"toggle_select","tag":"Addr.City","as_group":true}`, ToggleSelect{Tag: "Addr.City", AsGroup: true}},
		{"toggle group", `{"type":"toggle_group","group":"Addr"}`, ToggleGroupCheckbox{Group: "Addr"}},
		{"toggle step", `{"type":"toggle_step","step":0}`, ToggleStep{Step: 0}},
		{"move right", `{"type":"move_right"}`, MoveRight{}},
		{"move left upper case", `{"type":"MOVE_LEFT"}`, MoveLeft{}},
		{"reorder defaults target step", `{"type":"reorder_field","from_step":1,"from_index":2,"to_index":0}`, ReorderField{FromStep: 1, FromIndex: 2, ToStep: 1, ToIndex: 0}},
		{"reorder across steps", `{"type":"reorder_field","from_step":0,"from_index":0,"to_step":1,"to_index":0}`, ReorderField{FromStep: 0, FromIndex: 0, ToStep: 1, ToIndex: 0}},
		{"set title", `{"type":"set_step_title","step":1,"title":"Contact"}`, SetStepTitle{Step: 1, Title: "Contact"}},
		{"add option", `{"type":"add_option","tag":"Status","raw":"open"}`, AddOption{Tag: "Status", Raw: "open"}},
		{"remove option", `{"type":"remove_option","tag":"Status","value":"open"}`, RemoveOption{Tag: "Status", Value: "open"}},
		{"set value", `{"type":"set_value","tag":"Name","value":"Ada"}`, SetValue{Tag: "Name", Value: "Ada"}},
		{"reset", `{"type":"reset"}`, Reset{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := DecodeAction([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, action)
		})
	}
}

func TestDecodeActionErrors(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		_, err := DecodeAction([]byte(`{"type":"explode"}`))
		assert.ErrorIs(t, err, ErrUnknownAction)
	})

	t.Run("missing fields", func(t *testing.T) {
		for _, input := range []string{
			`{"type":"toggle_select"}`,
			`{"type":"toggle_group"}`,
			`{"type":"set_step_title","title":"x"}`,
			`{"type":"reorder_field","from_step":0}`,
			`{"type":"add_option","raw":"x"}`,
		} {
			_, err := DecodeAction([]byte(input))
			assert.Error(t, err, input)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := DecodeAction([]byte(`{"type":`))
		assert.Error(t, err)
	})
}

func TestActionTypesDecode(t *testing.T) {
	for _, name := range ActionTypes() {
		_, err := DecodeAction([]byte(`{"type":"` + name + `"}`))
		if err != nil {
			assert.NotErrorIs(t, err, ErrUnknownAction, name)
		}
	}
}

func TestCleanOption(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{`Caf\u00e9`, "Café"},
		{`\ud83d\ude00 smile`, "😀 smile"},
		{"<i>italic</i>", "italic"},
		{"Tom & Jerry", "Tom & Jerry"},
		{"  padded  ", "  padded  "},
		{"<br/>", ""},
		{"   ", ""},
		{"", ""},
		{"x<y", "x<y"},
		{"<Other>", "<Other>"},
		{"<50kg>", "<50kg>"},
		{"a < b > c", "a < b > c"},
		{" <b>bold</b> ", "bold"},
		{`<span class="x">A &amp; B</span>`, "A & B"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanOption(tt.raw))
		})
	}
}
