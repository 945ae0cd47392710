package organizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-template-forms/internal/placeholder"
)

func newTestState() State {
	return NewState(placeholder.FromTokens([]string{"Addr.Street", "Addr.City", "Name", "Email"}))
}

func apply(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

func stepTags(s State, i int) []string {
	return placeholder.Tags(s.Steps[i].Fields)
}

func TestNewState(t *testing.T) {
	s := newTestState()
	assert.Equal(t, []string{"Addr.Street", "Addr.City", "Name", "Email"}, placeholder.Tags(s.Pool))
	assert.Empty(t, s.Steps)
	assert.Empty(t, s.Selected)
	assert.False(t, s.CanMoveRight)
	assert.False(t, s.CanMoveLeft)
}

func TestToggleSelect(t *testing.T) {
	t.Run("group selection is atomic", func(t *testing.T) {
		s := newTestState()
		before := s.SelectedPoolCount

		s = Reduce(s, ToggleSelect{Tag: "Addr.City", AsGroup: true})
		assert.True(t, s.IsSelected("Addr.Street"))
		assert.True(t, s.IsSelected("Addr.City"))
		assert.Equal(t, before+1, s.SelectedPoolCount)
		assert.True(t, s.CanMoveRight)

		s = Reduce(s, ToggleSelect{Tag: "Addr.Street", AsGroup: true})
		assert.False(t, s.IsSelected("Addr.Street"))
		assert.False(t, s.IsSelected("Addr.City"))
		assert.Equal(t, before, s.SelectedPoolCount)
	})

	t.Run("mixed group state converges", func(t *testing.T) {
		s := apply(newTestState(),
			ToggleSelect{Tag: "Addr.Street"},
			ToggleSelect{Tag: "Addr.City", AsGroup: true},
		)
		assert.Equal(t, s.IsSelected("Addr.Street"), s.IsSelected("Addr.City"))
	})

	t.Run("group members count once", func(t *testing.T) {
		s := apply(newTestState(),
			ToggleSelect{Tag: "Addr.Street"},
			ToggleSelect{Tag: "Addr.City"},
			ToggleSelect{Tag: "Name"},
		)
		assert.Equal(t, 2, s.SelectedPoolCount)
	})

	t.Run("unknown tag is ignored", func(t *testing.T) {
		s := newTestState()
		assert.Equal(t, s, Reduce(s, ToggleSelect{Tag: "Missing"}))
	})

	t.Run("as group on ungrouped tag flips the tag", func(t *testing.T) {
		s := Reduce(newTestState(), ToggleSelect{Tag: "Name", AsGroup: true})
		assert.Equal(t, []string{"Name"}, s.Selected)
	})
}

func TestToggleGroupCheckbox(t *testing.T) {
	s := Reduce(newTestState(), ToggleSelect{Tag: "Addr.Street"})

	s = Reduce(s, ToggleGroupCheckbox{Group: "Addr"})
	assert.Equal(t, []string{"Addr.City", "Addr.Street"}, s.Selected)

	s = Reduce(s, ToggleGroupCheckbox{Group: "Addr"})
	assert.Empty(t, s.Selected)

	unchanged := Reduce(s, ToggleGroupCheckbox{Group: "Nope"})
	assert.Equal(t, s, unchanged)
}

func TestMoveRight(t *testing.T) {
	s := apply(newTestState(),
		ToggleSelect{Tag: "Name"},
		ToggleSelect{Tag: "Addr.Street", AsGroup: true},
		MoveRight{},
	)

	require.Len(t, s.Steps, 1)
	assert.Equal(t, "Step 1", s.Steps[0].Title)
	assert.Equal(t, []string{"Addr.Street", "Addr.City", "Name"}, stepTags(s, 0))
	assert.True(t, s.Steps[0].IsGroup)
	for i, f := range s.Steps[0].Fields {
		assert.Equal(t, i, f.Order)
	}
	assert.Equal(t, []string{"Email"}, placeholder.Tags(s.Pool))
	assert.Empty(t, s.Selected)
	assert.False(t, s.CanMoveRight)

	s = apply(s, ToggleSelect{Tag: "Email"}, MoveRight{})
	require.Len(t, s.Steps, 2)
	assert.Equal(t, "Step 2", s.Steps[1].Title)
	assert.False(t, s.Steps[1].IsGroup)
	assert.Empty(t, s.Pool)

	t.Run("empty selection is a no-op", func(t *testing.T) {
		before := newTestState()
		assert.Equal(t, before, Reduce(before, MoveRight{}))
	})
}

func TestMoveLeft(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		start := newTestState()
		s := apply(start,
			ToggleSelect{Tag: "Name"},
			ToggleSelect{Tag: "Addr.City", AsGroup: true},
			MoveRight{},
			ToggleStep{Step: 0},
			MoveLeft{},
		)
		assert.ElementsMatch(t, placeholder.Tags(start.Pool), placeholder.Tags(s.Pool))
		assert.Empty(t, s.Steps)
		assert.Empty(t, s.Selected)
	})

	t.Run("partial move keeps step", func(t *testing.T) {
		s := apply(newTestState(),
			ToggleSelect{Tag: "Name"},
			ToggleSelect{Tag: "Addr.City", AsGroup: true},
			MoveRight{},
			ToggleSelect{Tag: "Addr.Street", AsGroup: true},
		)
		assert.True(t, s.CanMoveLeft)
		assert.Equal(t, 0, s.SelectedStepCount)

		s = Reduce(s, MoveLeft{})
		require.Len(t, s.Steps, 1)
		assert.Equal(t, []string{"Name"}, stepTags(s, 0))
		assert.Equal(t, 0, s.Steps[0].Fields[0].Order)
		assert.False(t, s.Steps[0].IsGroup)
		assert.Equal(t, []string{"Email", "Addr.Street", "Addr.City"}, placeholder.Tags(s.Pool))
	})

	t.Run("nothing selected is a no-op", func(t *testing.T) {
		s := apply(newTestState(), ToggleSelect{Tag: "Name"}, MoveRight{})
		assert.False(t, s.CanMoveLeft)
		assert.Equal(t, s, Reduce(s, MoveLeft{}))
	})

	t.Run("pool only selection is cleared", func(t *testing.T) {
		s := apply(newTestState(), ToggleSelect{Tag: "Name"}, MoveRight{}, ToggleSelect{Tag: "Email"})
		require.Equal(t, []string{"Email"}, s.Selected)

		s = Reduce(s, MoveLeft{})
		assert.Empty(t, s.Selected)
		assert.Equal(t, 0, s.SelectedPoolCount)
		assert.False(t, s.CanMoveRight)
		require.Len(t, s.Steps, 1)
		assert.Equal(t, []string{"Name"}, stepTags(s, 0))
	})
}

func TestEmptySegmentTagsAreNotGroups(t *testing.T) {
	s := NewState(placeholder.FromTokens([]string{"Company.", "Company.Name", ".Name"}))

	s = Reduce(s, ToggleSelect{Tag: "Company.", AsGroup: true})
	assert.Equal(t, []string{"Company."}, s.Selected)

	s = Reduce(s, ToggleSelect{Tag: ".Name", AsGroup: true})
	s = Reduce(s, ToggleGroupCheckbox{Group: "Company"})
	assert.Equal(t, []string{".Name", "Company.", "Company.Name"}, s.Selected)
	// "Company." and ".Name" count alone, the Company group once
	assert.Equal(t, 3, s.SelectedPoolCount)

	s = Reduce(s, MoveRight{})
	require.Len(t, s.Steps, 1)
	assert.True(t, s.Steps[0].IsGroup)

	plain := apply(NewState(placeholder.FromTokens([]string{"Company.", ".Name"})),
		ToggleSelect{Tag: "Company."}, ToggleSelect{Tag: ".Name"}, MoveRight{})
	assert.False(t, plain.Steps[0].IsGroup)
}

func TestToggleStep(t *testing.T) {
	s := apply(newTestState(),
		ToggleSelect{Tag: "Name"},
		ToggleSelect{Tag: "Email"},
		MoveRight{},
		ToggleStep{Step: 0},
	)
	assert.Equal(t, 1, s.SelectedStepCount)
	assert.True(t, s.CanMoveLeft)

	s = Reduce(s, ToggleStep{Step: 0})
	assert.Equal(t, 0, s.SelectedStepCount)

	assert.Equal(t, s, Reduce(s, ToggleStep{Step: 5}))
}

func TestReorderField(t *testing.T) {
	s := apply(newTestState(),
		ToggleSelect{Tag: "Addr.Street", AsGroup: true},
		ToggleSelect{Tag: "Name"},
		MoveRight{},
		ToggleSelect{Tag: "Email"},
		MoveRight{},
	)

	t.Run("within step", func(t *testing.T) {
		next := Reduce(s, ReorderField{FromStep: 0, FromIndex: 0, ToStep: 0, ToIndex: 2})
		assert.Equal(t, []string{"Addr.City", "Name", "Addr.Street"}, stepTags(next, 0))
		assert.ElementsMatch(t, stepTags(s, 0), stepTags(next, 0))
		for i, f := range next.Steps[0].Fields {
			assert.Equal(t, i, f.Order)
		}
		// the previous state is untouched
		assert.Equal(t, []string{"Addr.Street", "Addr.City", "Name"}, stepTags(s, 0))
	})

	t.Run("across steps is a no-op", func(t *testing.T) {
		assert.Equal(t, s, Reduce(s, ReorderField{FromStep: 0, FromIndex: 0, ToStep: 1, ToIndex: 0}))
	})

	t.Run("out of range is a no-op", func(t *testing.T) {
		assert.Equal(t, s, Reduce(s, ReorderField{FromStep: 0, FromIndex: 3, ToStep: 0, ToIndex: 0}))
		assert.Equal(t, s, Reduce(s, ReorderField{FromStep: 2, FromIndex: 0, ToStep: 2, ToIndex: 0}))
	})
}

func TestSetStepTitle(t *testing.T) {
	s := apply(newTestState(), ToggleSelect{Tag: "Name"}, MoveRight{})

	renamed := Reduce(s, SetStepTitle{Step: 0, Title: "Contact"})
	assert.Equal(t, "Contact", renamed.Steps[0].Title)
	assert.Equal(t, stepTags(s, 0), stepTags(renamed, 0))
	assert.Equal(t, "Step 1", s.Steps[0].Title)

	assert.Equal(t, s, Reduce(s, SetStepTitle{Step: -1, Title: "x"}))
}

func TestOptions(t *testing.T) {
	s := apply(newTestState(), ToggleSelect{Tag: "Name"}, MoveRight{})

	s = apply(s,
		AddOption{Tag: "Name", Raw: `Caf\u00e9`},
		AddOption{Tag: "Name", Raw: "<b>Bold</b>"},
		AddOption{Tag: "Name", Raw: "Bold"},
		AddOption{Tag: "Name", Raw: "   "},
		AddOption{Tag: "Name", Raw: "x<y"},
		AddOption{Tag: "Name", Raw: "<Other>"},
		AddOption{Tag: "Email", Raw: "in the pool"},
	)
	assert.Equal(t, []string{"Café", "Bold", "Bold", "x<y", "<Other>"}, s.Steps[0].Fields[0].Options)
	assert.Empty(t, s.Pool[len(s.Pool)-1].Options)

	s = Reduce(s, RemoveOption{Tag: "Name", Value: "Bold"})
	assert.Equal(t, []string{"Café", "x<y", "<Other>"}, s.Steps[0].Fields[0].Options)
}

func TestSetValue(t *testing.T) {
	s := apply(newTestState(), ToggleSelect{Tag: "Name"}, MoveRight{})
	s = Reduce(s, SetValue{Tag: "Name", Value: "Ada"})
	assert.Equal(t, "Ada", s.Steps[0].Fields[0].Value)
}

func TestReset(t *testing.T) {
	start := newTestState()
	s := apply(start,
		ToggleSelect{Tag: "Name"},
		MoveRight{},
		ToggleSelect{Tag: "Email"},
		Reset{},
	)
	assert.Equal(t, placeholder.Tags(start.Pool), placeholder.Tags(s.Pool))
	assert.Empty(t, s.Steps)
	assert.Empty(t, s.Selected)
}

func TestReduceNilAction(t *testing.T) {
	s := newTestState()
	assert.Equal(t, s, Reduce(s, nil))
}

func TestSession(t *testing.T) {
	session := NewSession(placeholder.FromTokens([]string{"A", "B"}), nil)

	snap := session.Dispatch(ToggleSelect{Tag: "A"})
	assert.Equal(t, 1, snap.SelectedPoolCount)

	// mutating a snapshot does not leak into the session
	snap.Pool[0].FullTagName = "changed"
	assert.Equal(t, "A", session.Snapshot().Pool[0].FullTagName)

	session.Dispatch(MoveRight{})
	assert.Len(t, session.Snapshot().Steps, 1)
	assert.Equal(t, 2, session.Actions())
}
