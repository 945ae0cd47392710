// Package organizer arranges classified input placeholders into ordered
// steps. The organizer is a pure state machine: Reduce applies one Action to
// a State and returns the next State without touching the previous one.
// Session serializes actions for callers that share a state.
package organizer

import (
	"fmt"
	"slices"

	"github.com/a3tai/mcp-template-forms/internal/placeholder"
)

// Step is an ordered group of fields presented together
type Step struct {
	Title   string                    `json:"title"`
	Fields  []placeholder.Placeholder `json:"fields"`
	IsGroup bool                      `json:"is_group"`
}

// State is one snapshot of the organizer
type State struct {
	// Original is the visible input list the session started from; Reset
	// restores it
	Original []placeholder.Placeholder `json:"-"`
	Pool     []placeholder.Placeholder `json:"pool"`
	Steps    []Step                    `json:"steps"`
	// Selected holds the selected tags, sorted
	Selected []string `json:"selected"`

	SelectedPoolCount int  `json:"selected_pool_count"`
	SelectedStepCount int  `json:"selected_step_count"`
	CanMoveRight      bool `json:"can_move_right"`
	CanMoveLeft       bool `json:"can_move_left"`
}

// NewState starts an organizer over the visible input placeholders. All of
// them begin in the pool.
func NewState(visible []placeholder.Placeholder) State {
	s := State{
		Original: placeholder.CloneAll(visible),
		Pool:     placeholder.CloneAll(visible),
		Steps:    []Step{},
		Selected: []string{},
	}
	return s.derive()
}

// Clone returns a deep copy sharing no slices with s
func (s State) Clone() State {
	out := s
	out.Original = placeholder.CloneAll(s.Original)
	out.Pool = placeholder.CloneAll(s.Pool)
	out.Steps = make([]Step, len(s.Steps))
	for i, step := range s.Steps {
		out.Steps[i] = step.clone()
	}
	out.Selected = append([]string{}, s.Selected...)
	return out
}

// IsSelected reports whether tag is in the selection set
func (s State) IsSelected(tag string) bool {
	_, found := slices.BinarySearch(s.Selected, tag)
	return found
}

// PoolIndex returns the pool position of tag, or -1
func (s State) PoolIndex(tag string) int {
	return indexOf(s.Pool, tag)
}

// StepOf returns the step and field position holding tag, or -1, -1
func (s State) StepOf(tag string) (int, int) {
	for i, step := range s.Steps {
		if j := indexOf(step.Fields, tag); j >= 0 {
			return i, j
		}
	}
	return -1, -1
}

// Fields returns every field placed in a step, in step order
func (s State) Fields() []placeholder.Placeholder {
	var out []placeholder.Placeholder
	for _, step := range s.Steps {
		out = append(out, step.Fields...)
	}
	return out
}

func (st Step) clone() Step {
	out := st
	out.Fields = placeholder.CloneAll(st.Fields)
	return out
}

func newStep(n int, fields []placeholder.Placeholder) Step {
	st := Step{
		Title:  fmt.Sprintf("Step %d", n),
		Fields: fields,
	}
	st.renumber()
	st.IsGroup = hasGroupedField(st.Fields)
	return st
}

// renumber rewrites every field's order to its position
func (st *Step) renumber() {
	for i := range st.Fields {
		st.Fields[i].Order = i
	}
}

func hasGroupedField(fields []placeholder.Placeholder) bool {
	for _, f := range fields {
		if f.IsGrouped() {
			return true
		}
	}
	return false
}

func indexOf(list []placeholder.Placeholder, tag string) int {
	for i, p := range list {
		if p.FullTagName == tag {
			return i
		}
	}
	return -1
}

// derive recomputes the counters shown to the operator
func (s State) derive() State {
	selected := s.selection()

	s.SelectedPoolCount = 0
	groups := make(map[string]bool)
	for _, p := range s.Pool {
		if !selected[p.FullTagName] {
			continue
		}
		if p.IsGrouped() {
			groups[p.Group()] = true
			continue
		}
		s.SelectedPoolCount++
	}
	s.SelectedPoolCount += len(groups)

	s.SelectedStepCount = 0
	selectedStepFields := 0
	for _, step := range s.Steps {
		all := len(step.Fields) > 0
		for _, f := range step.Fields {
			if selected[f.FullTagName] {
				selectedStepFields++
			} else {
				all = false
			}
		}
		if all {
			s.SelectedStepCount++
		}
	}

	s.CanMoveRight = s.SelectedPoolCount > 0
	s.CanMoveLeft = selectedStepFields > 0
	return s
}

type selection map[string]bool

func (s State) selection() selection {
	out := make(selection, len(s.Selected))
	for _, tag := range s.Selected {
		out[tag] = true
	}
	return out
}

func (sel selection) tags() []string {
	out := make([]string, 0, len(sel))
	for tag, on := range sel {
		if on {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return out
}
