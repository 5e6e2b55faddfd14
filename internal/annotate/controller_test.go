package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(confirm ConfirmFunc) (*Controller, *Store) {
	s := NewStore()
	return NewController(s, confirm), s
}

func TestToolToggle(t *testing.T) {
	c, _ := newTestController(nil)

	c.ToggleTool(ToolHighlight)
	assert.Equal(t, StateArmed, c.State())
	assert.Equal(t, ToolHighlight, c.ArmedTool())

	// Re-selecting the armed tool disarms it.
	c.ToggleTool(ToolHighlight)
	assert.Equal(t, StateIdle, c.State())
}

func TestToolExclusivity(t *testing.T) {
	c, _ := newTestController(nil)

	c.ToggleTool(ToolHighlight)
	c.ToggleTool(ToolStickyNote)

	assert.Equal(t, StateArmed, c.State())
	assert.Equal(t, ToolStickyNote, c.ArmedTool(), "arming B after A leaves only B armed")
}

func TestStickyNotePlacement(t *testing.T) {
	c, s := newTestController(nil)

	c.ToggleTool(ToolStickyNote)
	c.PointerDown(2, 40, 60)

	require.Equal(t, 1, s.Len())
	a := s.List()[0]
	assert.Equal(t, KindNote, a.Kind)
	assert.Equal(t, StyleSticky, a.Style)
	assert.Equal(t, 2, a.Page)
	assert.Equal(t, 40.0, a.Rect.Left)
	assert.Equal(t, 60.0, a.Rect.Top)
	assert.Equal(t, 180.0, a.Rect.Width)
	assert.Equal(t, 100.0, a.Rect.Height)
	assert.Equal(t, StateIdle, c.State(), "placement returns to idle")
}

func TestTextBoxPlacement(t *testing.T) {
	c, s := newTestController(nil)

	c.ToggleTool(ToolTextBox)
	c.PointerDown(1, 10, 20)

	require.Equal(t, 1, s.Len())
	a := s.List()[0]
	assert.Equal(t, StyleTextbox, a.Style)
	assert.Equal(t, 150.0, a.Rect.Width)
	assert.Equal(t, 28.0, a.Rect.Height)
	assert.Equal(t, StateIdle, c.State())
}

func TestHighlightDragCommit(t *testing.T) {
	c, s := newTestController(nil)

	c.ToggleTool(ToolHighlight)
	c.PointerDown(1, 100, 100)
	assert.Equal(t, StateDragging, c.State())

	c.PointerMove(150, 130)
	preview, ok := c.Preview()
	require.True(t, ok)
	assert.Equal(t, 50.0, preview.Width)
	assert.Equal(t, 30.0, preview.Height)

	a, committed := c.PointerUp(150, 130)
	require.True(t, committed)
	assert.Equal(t, KindHighlight, a.Kind)
	assert.Equal(t, 1, a.Page)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, StateIdle, c.State())
}

func TestHighlightDragBelowThreshold(t *testing.T) {
	tests := []struct {
		name   string
		endX   float64
		endY   float64
		commit bool
	}{
		{"both below", 105, 105, false},
		{"width below", 105, 150, false},
		{"height below", 150, 105, false},
		{"both above", 150, 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, s := newTestController(nil)
			c.ToggleTool(ToolHighlight)
			c.PointerDown(1, 100, 100)
			_, committed := c.PointerUp(tt.endX, tt.endY)

			assert.Equal(t, tt.commit, committed)
			want := 0
			if tt.commit {
				want = 1
			}
			assert.Equal(t, want, s.Len(), "sub-threshold drags must not create annotations")
			assert.Equal(t, StateIdle, c.State(), "drag always returns to idle")
		})
	}
}

func TestHighlightDragReversedDirection(t *testing.T) {
	c, s := newTestController(nil)

	c.ToggleTool(ToolHighlight)
	c.PointerDown(1, 200, 200)
	a, committed := c.PointerUp(120, 150)

	require.True(t, committed)
	assert.Equal(t, 120.0, a.Rect.Left)
	assert.Equal(t, 150.0, a.Rect.Top)
	assert.Equal(t, 80.0, a.Rect.Width)
	assert.Equal(t, 50.0, a.Rect.Height)
	assert.Equal(t, 1, s.Len())
}

func TestEscapeSafety(t *testing.T) {
	c, s := newTestController(nil)

	// From armed.
	c.ToggleTool(ToolTextBox)
	c.Cancel()
	assert.Equal(t, StateIdle, c.State())

	// From dragging: the preview is discarded and the store untouched.
	c.ToggleTool(ToolHighlight)
	c.PointerDown(1, 0, 0)
	c.PointerMove(300, 300)
	c.Cancel()
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 0, s.Len())

	_, dragging := c.Preview()
	assert.False(t, dragging)

	// Pointer-up after cancel must not commit the stale gesture.
	_, committed := c.PointerUp(300, 300)
	assert.False(t, committed)
	assert.Equal(t, 0, s.Len())

	// From idle it is a no-op.
	c.Cancel()
	assert.Equal(t, StateIdle, c.State())
}

func TestPointerDownWhileIdleDoesNothing(t *testing.T) {
	c, s := newTestController(nil)

	c.PointerDown(1, 50, 50)
	c.PointerMove(100, 100)
	_, committed := c.PointerUp(100, 100)

	assert.False(t, committed)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, StateIdle, c.State())
}

func TestClickHighlightConfirmedDelete(t *testing.T) {
	confirmed := true
	c, s := newTestController(func(Annotation) bool { return confirmed })

	c.ToggleTool(ToolHighlight)
	c.PointerDown(1, 0, 0)
	a, _ := c.PointerUp(100, 100)

	confirmed = false
	assert.False(t, c.ClickHighlight(a.ID), "declined confirmation keeps the annotation")
	assert.Equal(t, 1, s.Len())

	confirmed = true
	assert.True(t, c.ClickHighlight(a.ID))
	assert.Equal(t, 0, s.Len())
}

func TestClickHighlightIgnoresNotes(t *testing.T) {
	c, s := newTestController(nil)

	c.ToggleTool(ToolStickyNote)
	c.PointerDown(1, 0, 0)
	note := s.List()[0]

	assert.False(t, c.ClickHighlight(note.ID))
	assert.Equal(t, 1, s.Len())
}

func TestNoteDeleteAndTextCommit(t *testing.T) {
	c, s := newTestController(func(Annotation) bool { return false })

	c.ToggleTool(ToolStickyNote)
	c.PointerDown(1, 0, 0)
	note := s.List()[0]

	assert.True(t, c.CommitText(note.ID, "call the landlord"))
	got, _ := s.Get(note.ID)
	assert.Equal(t, "call the landlord", got.Text)

	// Note deletion never asks for confirmation.
	assert.True(t, c.DeleteNote(note.ID))
	assert.Equal(t, 0, s.Len())
}

func TestArmingWhileDraggingDiscardsGesture(t *testing.T) {
	c, s := newTestController(nil)

	c.ToggleTool(ToolHighlight)
	c.PointerDown(1, 0, 0)
	c.ToggleTool(ToolStickyNote)

	assert.Equal(t, StateArmed, c.State())
	assert.Equal(t, ToolStickyNote, c.ArmedTool())
	assert.Equal(t, 0, s.Len(), "the abandoned drag must not commit")
}
