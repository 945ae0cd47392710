package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-template-forms/internal/forms"
	"github.com/a3tai/mcp-template-forms/internal/organizer"
	"github.com/a3tai/mcp-template-forms/internal/schema"
)

const (
	menuMove    = "Move fields into a new step"
	menuGroup   = "Move a whole group into a new step"
	menuReturn  = "Return fields to the pool"
	menuRename  = "Rename a step"
	menuReorder = "Reorder a field within its step"
	menuOption  = "Add a dropdown option"
	menuValue   = "Enter a field value"
	menuReset   = "Start over"
	menuCompile = "Compile the form"
	menuQuit    = "Quit without compiling"
)

// organizerUI walks an operator through one form session
type organizerUI struct {
	service   *forms.Service
	sessionID string
	driver    PromptDriver
}

// Run loops over the menu until the form is compiled or the operator quits.
// A nil schema means the operator quit.
func (u *organizerUI) Run(ctx context.Context) (*schema.Schema, error) {
	for {
		state, err := u.state(ctx)
		if err != nil {
			return nil, err
		}
		if err := u.driver.Info(ctx, describeState(state)); err != nil {
			return nil, err
		}

		menu := menuFor(state)
		choice, err := u.driver.Select(ctx, SelectConfig{Message: "What next?", Options: menu})
		if err != nil {
			return nil, err
		}
		if choice < 0 || choice >= len(menu) {
			continue
		}

		switch menu[choice] {
		case menuMove:
			err = u.moveRight(ctx, state)
		case menuGroup:
			err = u.moveGroup(ctx, state)
		case menuReturn:
			err = u.moveLeft(ctx, state)
		case menuRename:
			err = u.rename(ctx, state)
		case menuReorder:
			err = u.reorder(ctx, state)
		case menuOption:
			err = u.addOption(ctx, state)
		case menuValue:
			err = u.setValue(ctx, state)
		case menuReset:
			err = u.reset(ctx)
		case menuCompile:
			return u.compile(ctx)
		case menuQuit:
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func menuFor(state organizer.State) []string {
	var menu []string
	if len(state.Pool) > 0 {
		menu = append(menu, menuMove)
		if len(poolGroups(state)) > 0 {
			menu = append(menu, menuGroup)
		}
	}
	if len(state.Steps) > 0 {
		menu = append(menu, menuReturn, menuRename, menuReorder, menuOption, menuValue)
	}
	return append(menu, menuReset, menuCompile, menuQuit)
}

func (u *organizerUI) state(ctx context.Context) (organizer.State, error) {
	snap, err := u.service.Snapshot(ctx, forms.SnapshotRequest{SessionID: u.sessionID})
	if err != nil {
		return organizer.State{}, err
	}
	return snap.State, nil
}

func (u *organizerUI) dispatch(ctx context.Context, action organizer.Action) (organizer.State, error) {
	result, err := u.service.Dispatch(ctx, forms.DispatchRequest{SessionID: u.sessionID, Action: action})
	if err != nil {
		return organizer.State{}, err
	}
	return result.State, nil
}

// selectExactly toggles the selection until it holds exactly tags
func (u *organizerUI) selectExactly(ctx context.Context, state organizer.State, tags []string) (organizer.State, error) {
	var err error
	for _, tag := range slices.Clone(state.Selected) {
		if !slices.Contains(tags, tag) {
			if state, err = u.dispatch(ctx, organizer.ToggleSelect{Tag: tag}); err != nil {
				return state, err
			}
		}
	}
	for _, tag := range tags {
		if !state.IsSelected(tag) {
			if state, err = u.dispatch(ctx, organizer.ToggleSelect{Tag: tag}); err != nil {
				return state, err
			}
		}
	}
	return state, nil
}

func (u *organizerUI) moveRight(ctx context.Context, state organizer.State) error {
	options := make([]string, len(state.Pool))
	for i, p := range state.Pool {
		options[i] = p.FullTagName
	}
	picked, err := u.driver.MultiSelect(ctx, SelectConfig{Message: "Fields for the new step", Options: options})
	if err != nil || len(picked) == 0 {
		return err
	}

	tags := make([]string, 0, len(picked))
	for _, i := range picked {
		tags = append(tags, options[i])
	}
	if _, err := u.selectExactly(ctx, state, tags); err != nil {
		return err
	}
	_, err = u.dispatch(ctx, organizer.MoveRight{})
	return err
}

func (u *organizerUI) moveGroup(ctx context.Context, state organizer.State) error {
	groups := poolGroups(state)
	choice, err := u.driver.Select(ctx, SelectConfig{Message: "Group", Options: groups})
	if err != nil || choice < 0 {
		return err
	}
	if _, err := u.selectExactly(ctx, state, nil); err != nil {
		return err
	}
	if _, err := u.dispatch(ctx, organizer.ToggleGroupCheckbox{Group: groups[choice]}); err != nil {
		return err
	}
	_, err = u.dispatch(ctx, organizer.MoveRight{})
	return err
}

func (u *organizerUI) moveLeft(ctx context.Context, state organizer.State) error {
	var options, tags []string
	for _, step := range state.Steps {
		for _, p := range step.Fields {
			options = append(options, step.Title+": "+p.FullTagName)
			tags = append(tags, p.FullTagName)
		}
	}
	picked, err := u.driver.MultiSelect(ctx, SelectConfig{Message: "Fields to return", Options: options})
	if err != nil || len(picked) == 0 {
		return err
	}

	selected := make([]string, 0, len(picked))
	for _, i := range picked {
		selected = append(selected, tags[i])
	}
	if _, err := u.selectExactly(ctx, state, selected); err != nil {
		return err
	}
	_, err = u.dispatch(ctx, organizer.MoveLeft{})
	return err
}

func (u *organizerUI) pickStep(ctx context.Context, state organizer.State) (int, error) {
	options := make([]string, len(state.Steps))
	for i, step := range state.Steps {
		options[i] = fmt.Sprintf("%s (%d fields)", step.Title, len(step.Fields))
	}
	return u.driver.Select(ctx, SelectConfig{Message: "Step", Options: options})
}

// pickField asks for a placed field and returns its tag, or "" when none
// was chosen
func (u *organizerUI) pickField(ctx context.Context, state organizer.State) (string, error) {
	var options []string
	for _, step := range state.Steps {
		for _, p := range step.Fields {
			options = append(options, p.FullTagName)
		}
	}
	choice, err := u.driver.Select(ctx, SelectConfig{Message: "Field", Options: options})
	if err != nil || choice < 0 {
		return "", err
	}
	return options[choice], nil
}

func (u *organizerUI) rename(ctx context.Context, state organizer.State) error {
	step, err := u.pickStep(ctx, state)
	if err != nil || step < 0 {
		return err
	}
	title, err := u.driver.Input(ctx, InputConfig{Message: "Title", Default: state.Steps[step].Title})
	if err != nil {
		return err
	}
	_, err = u.dispatch(ctx, organizer.SetStepTitle{Step: step, Title: strings.TrimSpace(title)})
	return err
}

func (u *organizerUI) reorder(ctx context.Context, state organizer.State) error {
	step, err := u.pickStep(ctx, state)
	if err != nil || step < 0 {
		return err
	}
	fields := state.Steps[step].Fields
	options := make([]string, len(fields))
	for i, p := range fields {
		options[i] = p.FullTagName
	}
	from, err := u.driver.Select(ctx, SelectConfig{Message: "Field to move", Options: options})
	if err != nil || from < 0 {
		return err
	}

	n := len(fields)
	raw, err := u.driver.Input(ctx, InputConfig{
		Message:   fmt.Sprintf("New position (1-%d)", n),
		Default:   strconv.Itoa(from + 1),
		Validator: positionValidator(n),
	})
	if err != nil {
		return err
	}
	to, err := parsePosition(raw, n)
	if err != nil {
		return err
	}
	_, err = u.dispatch(ctx, organizer.ReorderField{FromStep: step, FromIndex: from, ToStep: step, ToIndex: to})
	return err
}

func (u *organizerUI) addOption(ctx context.Context, state organizer.State) error {
	tag, err := u.pickField(ctx, state)
	if err != nil || tag == "" {
		return err
	}
	raw, err := u.driver.Input(ctx, InputConfig{Message: "Option"})
	if err != nil {
		return err
	}
	_, err = u.dispatch(ctx, organizer.AddOption{Tag: tag, Raw: raw})
	return err
}

func (u *organizerUI) setValue(ctx context.Context, state organizer.State) error {
	tag, err := u.pickField(ctx, state)
	if err != nil || tag == "" {
		return err
	}
	current := ""
	if step, idx := state.StepOf(tag); step >= 0 {
		current = state.Steps[step].Fields[idx].Value
	}
	value, err := u.driver.Input(ctx, InputConfig{Message: "Value", Default: current})
	if err != nil {
		return err
	}
	_, err = u.dispatch(ctx, organizer.SetValue{Tag: tag, Value: value})
	return err
}

func (u *organizerUI) reset(ctx context.Context) error {
	ok, err := u.driver.Confirm(ctx, "Discard all steps and start over?", false)
	if err != nil || !ok {
		return err
	}
	_, err = u.dispatch(ctx, organizer.Reset{})
	return err
}

func (u *organizerUI) compile(ctx context.Context) (*schema.Schema, error) {
	preview, err := u.driver.Confirm(ctx, "Fill every field with an example value?", false)
	if err != nil {
		return nil, err
	}
	result, err := u.service.Compile(ctx, forms.CompileRequest{SessionID: u.sessionID, Preview: preview})
	if err != nil {
		return nil, err
	}
	return &result.Schema, nil
}

// poolGroups lists the dotted groups present in the pool in order of first
// appearance
func poolGroups(state organizer.State) []string {
	var groups []string
	for _, p := range state.Pool {
		if g := p.Group(); g != "" && !slices.Contains(groups, g) {
			groups = append(groups, g)
		}
	}
	return groups
}

func positionValidator(n int) func(string) error {
	return func(raw string) error {
		_, err := parsePosition(raw, n)
		return err
	}
}

// parsePosition converts a 1-based position into an index
func parsePosition(raw string, n int) (int, error) {
	pos, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || pos < 1 || pos > n {
		return 0, fmt.Errorf("position must be a number between 1 and %d", n)
	}
	return pos - 1, nil
}

func describeState(state organizer.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nPool (%d):", len(state.Pool))
	if len(state.Pool) == 0 {
		b.WriteString(" empty")
	}
	b.WriteString("\n")
	for _, p := range state.Pool {
		fmt.Fprintf(&b, "  - %s\n", p.FullTagName)
	}
	for _, step := range state.Steps {
		fmt.Fprintf(&b, "%s:\n", step.Title)
		for _, p := range step.Fields {
			line := "  - " + p.FullTagName
			if len(p.Options) > 0 {
				line += " [" + strings.Join(p.Options, ", ") + "]"
			}
			if p.Value != "" {
				line += " = " + p.Value
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}
