package organizer

import (
	"slices"

	"github.com/a3tai/mcp-template-forms/internal/placeholder"
)

// Action is one operator intent. The set of actions is closed.
type Action interface {
	// Type returns the wire name of the action
	Type() string
	apply(s State) State
}

// Reduce applies a to s and returns the next state. s is never modified.
// Actions whose preconditions do not hold leave the state unchanged.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s.Clone()).derive()
}

// ToggleSelect flips the selection of one field. With AsGroup set every
// member of the field's dotted group, in the same collection, takes the new
// state of the field.
type ToggleSelect struct {
	Tag     string
	AsGroup bool
}

// ToggleGroupCheckbox selects every pool member of Group unless all of them
// are already selected, in which case it deselects them
type ToggleGroupCheckbox struct {
	Group string
}

// ToggleStep selects every field of a step unless all of them are already
// selected, in which case it deselects them
type ToggleStep struct {
	Step int
}

// MoveRight moves the selected pool fields into a new step
type MoveRight struct{}

// MoveLeft returns the selected step fields to the pool and clears the
// selection, including selected pool fields
type MoveLeft struct{}

// ReorderField moves a field inside a step. Moves between different steps
// are ignored.
type ReorderField struct {
	FromStep  int
	FromIndex int
	ToStep    int
	ToIndex   int
}

// SetStepTitle renames a step
type SetStepTitle struct {
	Step  int
	Title string
}

// AddOption appends a cleaned option value to a placed field
type AddOption struct {
	Tag string
	Raw string
}

// RemoveOption removes every option equal to Value from a placed field
type RemoveOption struct {
	Tag   string
	Value string
}

// SetValue records the operator-entered value of a placed field
type SetValue struct {
	Tag   string
	Value string
}

// Reset restores the original pool and clears steps and selection
type Reset struct{}

func (ToggleSelect) Type() string        { return "toggle_select" }
func (ToggleGroupCheckbox) Type() string { return "toggle_group" }
func (ToggleStep) Type() string          { return "toggle_step" }
func (MoveRight) Type() string           { return "move_right" }
func (MoveLeft) Type() string            { return "move_left" }
func (ReorderField) Type() string        { return "reorder_field" }
func (SetStepTitle) Type() string        { return "set_step_title" }
func (AddOption) Type() string           { return "add_option" }
func (RemoveOption) Type() string        { return "remove_option" }
func (SetValue) Type() string            { return "set_value" }
func (Reset) Type() string               { return "reset" }

func (a ToggleSelect) apply(s State) State {
	var scope []placeholder.Placeholder
	if i := s.PoolIndex(a.Tag); i >= 0 {
		scope = s.Pool
	} else if step, _ := s.StepOf(a.Tag); step >= 0 {
		scope = s.Steps[step].Fields
	} else {
		return s
	}

	sel := s.selection()
	target := !sel[a.Tag]
	group := placeholder.GroupOf(a.Tag)
	if !a.AsGroup || group == "" {
		sel[a.Tag] = target
		s.Selected = sel.tags()
		return s
	}
	for _, p := range scope {
		if p.Group() == group {
			sel[p.FullTagName] = target
		}
	}
	s.Selected = sel.tags()
	return s
}

func (a ToggleGroupCheckbox) apply(s State) State {
	var members []string
	for _, p := range s.Pool {
		if p.IsGrouped() && p.Group() == a.Group {
			members = append(members, p.FullTagName)
		}
	}
	return setAll(s, members)
}

func (a ToggleStep) apply(s State) State {
	if a.Step < 0 || a.Step >= len(s.Steps) {
		return s
	}
	return setAll(s, placeholder.Tags(s.Steps[a.Step].Fields))
}

// setAll selects every tag unless all are selected already, then deselects
func setAll(s State, tags []string) State {
	if len(tags) == 0 {
		return s
	}
	sel := s.selection()
	all := true
	for _, tag := range tags {
		if !sel[tag] {
			all = false
			break
		}
	}
	for _, tag := range tags {
		sel[tag] = !all
	}
	s.Selected = sel.tags()
	return s
}

func (MoveRight) apply(s State) State {
	sel := s.selection()
	var moved, kept []placeholder.Placeholder
	for _, p := range s.Pool {
		if sel[p.FullTagName] {
			moved = append(moved, p)
			continue
		}
		kept = append(kept, p)
	}
	if len(moved) == 0 {
		return s
	}

	s.Steps = append(s.Steps, newStep(len(s.Steps)+1, moved))
	s.Pool = nonNil(kept)
	s.Selected = []string{}
	return s
}

func (MoveLeft) apply(s State) State {
	sel := s.selection()
	var returned []placeholder.Placeholder
	steps := make([]Step, 0, len(s.Steps))
	for _, step := range s.Steps {
		var kept []placeholder.Placeholder
		for _, f := range step.Fields {
			if sel[f.FullTagName] {
				returned = append(returned, f)
				continue
			}
			kept = append(kept, f)
		}
		if len(kept) == 0 {
			continue
		}
		step.Fields = kept
		step.renumber()
		step.IsGroup = hasGroupedField(kept)
		steps = append(steps, step)
	}
	s.Selected = []string{}
	if len(returned) == 0 {
		return s
	}

	s.Pool = append(s.Pool, returned...)
	s.Steps = steps
	return s
}

func (a ReorderField) apply(s State) State {
	if a.FromStep != a.ToStep || a.FromStep < 0 || a.FromStep >= len(s.Steps) {
		return s
	}
	step := &s.Steps[a.FromStep]
	n := len(step.Fields)
	if a.FromIndex < 0 || a.FromIndex >= n || a.ToIndex < 0 || a.ToIndex >= n {
		return s
	}

	field := step.Fields[a.FromIndex]
	fields := slices.Delete(step.Fields, a.FromIndex, a.FromIndex+1)
	step.Fields = slices.Insert(fields, a.ToIndex, field)
	step.renumber()
	return s
}

func (a SetStepTitle) apply(s State) State {
	if a.Step < 0 || a.Step >= len(s.Steps) {
		return s
	}
	s.Steps[a.Step].Title = a.Title
	return s
}

func (a AddOption) apply(s State) State {
	value := CleanOption(a.Raw)
	if value == "" {
		return s
	}
	return updateField(s, a.Tag, func(p *placeholder.Placeholder) {
		p.Options = append(p.Options, value)
	})
}

func (a RemoveOption) apply(s State) State {
	return updateField(s, a.Tag, func(p *placeholder.Placeholder) {
		options := make([]string, 0, len(p.Options))
		for _, o := range p.Options {
			if o != a.Value {
				options = append(options, o)
			}
		}
		p.Options = options
	})
}

func (a SetValue) apply(s State) State {
	return updateField(s, a.Tag, func(p *placeholder.Placeholder) {
		p.Value = a.Value
	})
}

func (Reset) apply(s State) State {
	return NewState(s.Original)
}

func updateField(s State, tag string, fn func(p *placeholder.Placeholder)) State {
	i, j := s.StepOf(tag)
	if i < 0 {
		return s
	}
	fn(&s.Steps[i].Fields[j])
	return s
}

func nonNil(list []placeholder.Placeholder) []placeholder.Placeholder {
	if list == nil {
		return []placeholder.Placeholder{}
	}
	return list
}
