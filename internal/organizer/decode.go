package organizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAction is returned by DecodeAction for an unrecognized type
var ErrUnknownAction = errors.New("unknown action type")

type wireAction struct {
	Type      string `json:"type"`
	Tag       string `json:"tag"`
	AsGroup   bool   `json:"as_group"`
	Group     string `json:"group"`
	Step      *int   `json:"step"`
	FromStep  *int   `json:"from_step"`
	FromIndex *int   `json:"from_index"`
	ToStep    *int   `json:"to_step"`
	ToIndex   *int   `json:"to_index"`
	Title     string `json:"title"`
	Raw       string `json:"raw"`
	Value     string `json:"value"`
}

// DecodeAction decodes a wire action of the form {"type": "...", ...}
func DecodeAction(data []byte) (Action, error) {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(w.Type)) {
	case "toggle_select":
		if w.Tag == "" {
			return nil, missing(w.Type, "tag")
		}
		return ToggleSelect{Tag: w.Tag, AsGroup: w.AsGroup}, nil
	case "toggle_group":
		if w.Group == "" {
			return nil, missing(w.Type, "group")
		}
		return ToggleGroupCheckbox{Group: w.Group}, nil
	case "toggle_step":
		if w.Step == nil {
			return nil, missing(w.Type, "step")
		}
		return ToggleStep{Step: *w.Step}, nil
	case "move_right":
		return MoveRight{}, nil
	case "move_left":
		return MoveLeft{}, nil
	case "reorder_field":
		if w.FromStep == nil || w.FromIndex == nil || w.ToIndex == nil {
			return nil, missing(w.Type, "from_step, from_index and to_index")
		}
		to := *w.FromStep
		if w.ToStep != nil {
			to = *w.ToStep
		}
		return ReorderField{FromStep: *w.FromStep, FromIndex: *w.FromIndex, ToStep: to, ToIndex: *w.ToIndex}, nil
	case "set_step_title":
		if w.Step == nil {
			return nil, missing(w.Type, "step")
		}
		return SetStepTitle{Step: *w.Step, Title: w.Title}, nil
	case "add_option":
		if w.Tag == "" {
			return nil, missing(w.Type, "tag")
		}
		return AddOption{Tag: w.Tag, Raw: w.Raw}, nil
	case "remove_option":
		if w.Tag == "" {
			return nil, missing(w.Type, "tag")
		}
		return RemoveOption{Tag: w.Tag, Value: w.Value}, nil
	case "set_value":
		if w.Tag == "" {
			return nil, missing(w.Type, "tag")
		}
		return SetValue{Tag: w.Tag, Value: w.Value}, nil
	case "reset":
		return Reset{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, w.Type)
	}
}

// ActionTypes lists the wire names DecodeAction accepts
func ActionTypes() []string {
	return []string{
		ToggleSelect{}.Type(),
		ToggleGroupCheckbox{}.Type(),
		ToggleStep{}.Type(),
		MoveRight{}.Type(),
		MoveLeft{}.Type(),
		ReorderField{}.Type(),
		SetStepTitle{}.Type(),
		AddOption{}.Type(),
		RemoveOption{}.Type(),
		SetValue{}.Type(),
		Reset{}.Type(),
	}
}

func missing(actionType, field string) error {
	return fmt.Errorf("action %s requires %s", actionType, field)
}
