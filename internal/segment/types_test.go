package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBorderColor(t *testing.T) {
	known := []Type{
		TypeTitle, TypeText, TypeTable, TypePicture, TypeFormula,
		TypeListItem, TypeSectionHeader, TypeCaption, TypeFootnote,
		TypeFormField, TypeCheckbox, TypeDropdown, TypeSignature,
		TypeLabel, TypeInstructions,
	}

	seen := make(map[string][]Type)
	for _, typ := range known {
		c := BorderColor(typ)
		assert.NotEmpty(t, c, "type %q must have a color", typ)
		assert.NotEqual(t, BorderColor("Bogus"), c, "type %q must not share the default color", typ)
		seen[c] = append(seen[c], typ)
	}
	for c, types := range seen {
		assert.Len(t, types, 1, "color %s assigned to multiple types: %v", c, types)
	}

	// Unknown types degrade to the default color instead of erroring.
	assert.Equal(t, BorderColor("Bogus"), BorderColor("Another"))
}

func TestKey(t *testing.T) {
	a := Segment{PageNumber: 1, Left: 50, Top: 100}
	b := Segment{PageNumber: 1, Left: 50, Top: 100, Text: "different text"}
	c := Segment{PageNumber: 2, Left: 50, Top: 100}

	assert.Equal(t, a.Key(), b.Key(), "same position on same page shares a value slot")
	assert.NotEqual(t, a.Key(), c.Key(), "same position on another page is distinct")
	assert.Equal(t, "1_50_100", a.Key())
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Name: ___________", "Name"},
		{"Date of Birth:", "Date of Birth"},
		{"  Employer  ", "Employer"},
		{"A: B: C", "A"},
		{"", ""},
	}
	for _, tt := range tests {
		got := Segment{Text: tt.text}.Placeholder()
		assert.Equal(t, tt.want, got, "placeholder for %q", tt.text)
	}
}

func TestValidate(t *testing.T) {
	base := Segment{
		PageNumber: 1, Top: 100, Left: 50, Width: 200, Height: 20,
		PageWidth: 612, PageHeight: 792,
	}

	assert.NoError(t, base.Validate(2))

	outOfRange := base
	outOfRange.PageNumber = 3
	assert.Error(t, outOfRange.Validate(2))

	zeroPage := base
	zeroPage.PageNumber = 0
	assert.Error(t, zeroPage.Validate(2))

	overflow := base
	overflow.Left = 500
	assert.Error(t, overflow.Validate(2), "rect extending past the page box")

	negative := base
	negative.Top = -1
	assert.Error(t, negative.Validate(2))
}

func TestFilterPage(t *testing.T) {
	segs := []Segment{
		{PageNumber: 1, Text: "a"},
		{PageNumber: 2, Text: "b"},
		{PageNumber: 1, Text: "c", IsPII: true},
		{PageNumber: 1, Text: "d"},
	}

	page1 := FilterPage(segs, 1, false)
	assert.Len(t, page1, 3)
	assert.Equal(t, "a", page1[0].Text, "order preserved")

	piiOnly := FilterPage(segs, 1, true)
	assert.Len(t, piiOnly, 1)
	assert.Equal(t, "c", piiOnly[0].Text)

	assert.Empty(t, FilterPage(segs, 3, false))
}

func TestIsEditable(t *testing.T) {
	assert.True(t, Segment{Type: TypeFormField}.IsEditable())
	assert.True(t, Segment{Type: TypeDropdown}.IsEditable())
	assert.False(t, Segment{Type: TypeCheckbox}.IsEditable())
	assert.False(t, Segment{Type: TypeText}.IsEditable())
}
