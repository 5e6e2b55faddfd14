// Package annotate holds user-created annotations and the pointer-gesture
// state machine that produces them. Annotation rectangles are viewport-space:
// they are bound to the zoom level at creation time and are deliberately not
// renormalized when the zoom changes.
package annotate

import (
	"github.com/formview/formview/internal/geom"
)

// Kind distinguishes the two annotation families.
type Kind string

const (
	KindHighlight Kind = "highlight"
	KindNote      Kind = "note"
)

// Style refines a note annotation.
type Style string

const (
	StyleSticky  Style = "sticky"
	StyleTextbox Style = "textbox"
)

// Annotation is one user-created mark, bound to a page and a viewport-space
// rectangle. IDs are unique and generation-ordered.
type Annotation struct {
	ID    int64     `json:"id"`
	Kind  Kind      `json:"kind"`
	Style Style     `json:"style,omitempty"`
	Page  int       `json:"page"`
	Rect  geom.Rect `json:"rect"`
	Color string    `json:"color,omitempty"`
	Text  string    `json:"text,omitempty"`
}

// Store is an ordered collection of annotations. Rendering is driven
// declaratively off the list keyed by ID; nothing outside the store patches
// live render state.
type Store struct {
	annotations []Annotation
	nextID      int64
}

// NewStore creates an empty annotation store.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// Add appends an annotation, assigning it the next ID. The stored copy is
// returned.
func (s *Store) Add(a Annotation) Annotation {
	a.ID = s.nextID
	s.nextID++
	s.annotations = append(s.annotations, a)
	return a
}

// Get returns the annotation with the given ID.
func (s *Store) Get(id int64) (Annotation, bool) {
	for _, a := range s.annotations {
		if a.ID == id {
			return a, true
		}
	}
	return Annotation{}, false
}

// SetText replaces the text of the annotation with the given ID. Text is the
// only mutable part of an annotation after creation.
func (s *Store) SetText(id int64, text string) bool {
	for i := range s.annotations {
		if s.annotations[i].ID == id {
			s.annotations[i].Text = text
			return true
		}
	}
	return false
}

// Delete removes the annotation with the given ID.
func (s *Store) Delete(id int64) bool {
	for i, a := range s.annotations {
		if a.ID == id {
			s.annotations = append(s.annotations[:i], s.annotations[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the annotations in creation order. The slice is a copy.
func (s *Store) List() []Annotation {
	out := make([]Annotation, len(s.annotations))
	copy(out, s.annotations)
	return out
}

// Page returns the annotations bound to the given page, in creation order.
func (s *Store) Page(page int) []Annotation {
	var out []Annotation
	for _, a := range s.annotations {
		if a.Page == page {
			out = append(out, a)
		}
	}
	return out
}

// Len reports the number of annotations held.
func (s *Store) Len() int {
	return len(s.annotations)
}
