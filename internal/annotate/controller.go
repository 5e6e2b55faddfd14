package annotate

import (
	"github.com/formview/formview/internal/geom"
)

// Tool selects which annotation an armed gesture produces.
type Tool string

const (
	ToolHighlight  Tool = "highlight"
	ToolStickyNote Tool = "sticky-note"
	ToolTextBox    Tool = "text-box"
)

// Default annotation sizes in viewport pixels.
const (
	stickyWidth   = 180
	stickyHeight  = 100
	textBoxWidth  = 150
	textBoxHeight = 28

	// A highlight drag must exceed this in both dimensions to commit.
	minDragSize = 10
)

// State names the controller's position in the gesture machine.
type State string

const (
	StateIdle     State = "idle"
	StateArmed    State = "armed"
	StateDragging State = "dragging"
)

// ConfirmFunc asks the user to confirm a destructive action. A nil func
// confirms unconditionally.
type ConfirmFunc func(a Annotation) bool

// Controller translates pointer events into store mutations. At most one
// gesture is in flight at a time; committing or discarding a gesture always
// lands back in the idle state before another tool can arm.
type Controller struct {
	store   *Store
	confirm ConfirmFunc

	state   State
	tool    Tool
	origin  geom.Rect // origin point of an in-flight drag; width/height unused
	page    int
	preview geom.Rect
}

// NewController creates a controller bound to the given store.
func NewController(store *Store, confirm ConfirmFunc) *Controller {
	return &Controller{
		store:   store,
		confirm: confirm,
		state:   StateIdle,
	}
}

// State returns the current machine state.
func (c *Controller) State() State { return c.state }

// ArmedTool returns the armed tool, valid only in the armed or dragging state.
func (c *Controller) ArmedTool() Tool { return c.tool }

// Preview returns the live drag rectangle, valid only while dragging.
func (c *Controller) Preview() (geom.Rect, bool) {
	return c.preview, c.state == StateDragging
}

// ToggleTool arms the given tool, or disarms it when it is already armed.
// Arming a tool replaces any previously armed one.
func (c *Controller) ToggleTool(tool Tool) {
	if c.state == StateDragging {
		c.reset()
	}
	if c.state == StateArmed && c.tool == tool {
		c.reset()
		return
	}
	c.state = StateArmed
	c.tool = tool
}

// PointerDown handles a press at viewport coordinates (x, y) on a page.
// Sticky notes and text boxes are placed immediately; the highlight tool
// starts a drag.
func (c *Controller) PointerDown(page int, x, y float64) {
	if c.state != StateArmed {
		return
	}

	switch c.tool {
	case ToolStickyNote:
		c.store.Add(Annotation{
			Kind:  KindNote,
			Style: StyleSticky,
			Page:  page,
			Rect:  geom.Rect{Top: y, Left: x, Width: stickyWidth, Height: stickyHeight},
			Color: "#fef08a",
		})
		c.reset()
	case ToolTextBox:
		c.store.Add(Annotation{
			Kind:  KindNote,
			Style: StyleTextbox,
			Page:  page,
			Rect:  geom.Rect{Top: y, Left: x, Width: textBoxWidth, Height: textBoxHeight},
		})
		c.reset()
	case ToolHighlight:
		c.state = StateDragging
		c.page = page
		c.origin = geom.Rect{Top: y, Left: x}
		c.preview = geom.Rect{Top: y, Left: x}
	}
}

// PointerMove updates the live preview rectangle while dragging. The preview
// is normalized so dragging in any direction yields a positive-size rect.
func (c *Controller) PointerMove(x, y float64) {
	if c.state != StateDragging {
		return
	}
	c.preview = dragRect(c.origin.Left, c.origin.Top, x, y)
}

// PointerUp ends a drag. The highlight commits only when the dragged
// rectangle exceeds the minimum size in both dimensions; anything smaller is
// discarded without creating an annotation.
func (c *Controller) PointerUp(x, y float64) (Annotation, bool) {
	if c.state != StateDragging {
		return Annotation{}, false
	}

	r := dragRect(c.origin.Left, c.origin.Top, x, y)
	page := c.page
	c.reset()

	if r.Width < minDragSize || r.Height < minDragSize {
		return Annotation{}, false
	}
	a := c.store.Add(Annotation{
		Kind:  KindHighlight,
		Page:  page,
		Rect:  r,
		Color: "#fde047",
	})
	return a, true
}

// Cancel discards any in-flight gesture and returns to idle. Bound to the
// Escape key; callable from any state.
func (c *Controller) Cancel() {
	c.reset()
}

// ClickHighlight handles a click on an existing highlight annotation: the
// user is asked to confirm, then it is deleted.
func (c *Controller) ClickHighlight(id int64) bool {
	a, ok := c.store.Get(id)
	if !ok || a.Kind != KindHighlight {
		return false
	}
	if c.confirm != nil && !c.confirm(a) {
		return false
	}
	return c.store.Delete(id)
}

// DeleteNote removes a note annotation unconditionally.
func (c *Controller) DeleteNote(id int64) bool {
	a, ok := c.store.Get(id)
	if !ok || a.Kind != KindNote {
		return false
	}
	return c.store.Delete(id)
}

// CommitText writes edited note text back to the store, as on blur.
func (c *Controller) CommitText(id int64, text string) bool {
	return c.store.SetText(id, text)
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.tool = ""
	c.page = 0
	c.origin = geom.Rect{}
	c.preview = geom.Rect{}
}

// dragRect builds the normalized rectangle spanned by two corner points.
func dragRect(x0, y0, x1, y1 float64) geom.Rect {
	left, width := x0, x1-x0
	if width < 0 {
		left, width = x1, -width
	}
	top, height := y0, y1-y0
	if height < 0 {
		top, height = y1, -height
	}
	return geom.Rect{Top: top, Left: left, Width: width, Height: height}
}
