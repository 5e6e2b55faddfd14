package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
)

func textFragments(t *testing.T) []pdf.Text {
	t.Helper()
	return []pdf.Text{
		{S: "Address:", X: 50, Y: 600, W: 60, FontSize: 12},
		{S: "First ", X: 50, Y: 700, W: 40, FontSize: 12},
		{S: "name:", X: 90, Y: 700.5, W: 70, FontSize: 12},
	}
}

func TestClassify(t *testing.T) {
	const pageW, pageH = 612.0, 792.0

	tests := []struct {
		name  string
		text  string
		left  float64
		top   float64
		width float64
		want  Type
	}{
		{"colon marks a form field", "Name: ____________", 50, 400, 200, TypeFormField},
		{"underscores mark a form field", "_____", 50, 400, 100, TypeFormField},
		{"bare checkbox glyph", "[ ]", 50, 400, 10, TypeCheckbox},
		{"yes answer box", "Yes", 50, 400, 20, TypeCheckbox},
		{"signature line", "Signature of applicant", 50, 700, 200, TypeSignature},
		{"wide block near the top", "Employee Onboarding Packet", 50, 40, 400, TypeTitle},
		{"short all-caps block", "PART II", 50, 400, 80, TypeSectionHeader},
		{"plain prose", "Please complete every item below.", 50, 400, 300, TypeText},
		{"narrow block near the top stays text", "page 1 of 2", 500, 40, 60, TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text, tt.left, tt.top, tt.width, pageW, pageH)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContainsPII(t *testing.T) {
	assert.True(t, ContainsPII("SSN: ___-__-____"))
	assert.True(t, ContainsPII("Date of Birth"))
	assert.True(t, ContainsPII("Bank Account Number"))
	assert.False(t, ContainsPII("Employer name"))
	assert.False(t, ContainsPII(""))
}

func TestDetectFormType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Form 1040 U.S. Individual Income Tax Return", "Tax Form"},
		{"proof of insurance coverage", "Insurance Form"},
		{"rental application for tenancy", "Application Form"},
		{"patient intake history", "Medical Form"},
		{"nothing recognizable here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormType(tt.text), "text %q", tt.text)
	}
}

func TestExtractRejectsOversizedAndGarbage(t *testing.T) {
	e := NewExtractor(16)

	_, err := e.Extract(make([]byte, 32))
	assert.Error(t, err, "oversized input must be rejected")

	e = NewExtractor(1 << 20)
	_, err = e.Extract([]byte("not a pdf at all"))
	assert.Error(t, err, "garbage bytes must fail to open")
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()

	_, err := NewExtractor(1 << 20).ExtractFile(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err, "missing file must be rejected")

	big := filepath.Join(dir, "big.pdf")
	if err := os.WriteFile(big, make([]byte, 32), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err = NewExtractor(16).ExtractFile(big)
	assert.ErrorContains(t, err, "file too large")

	garbage := filepath.Join(dir, "garbage.pdf")
	if err := os.WriteFile(garbage, []byte("not a pdf at all"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err = NewExtractor(1 << 20).ExtractFile(garbage)
	assert.Error(t, err, "garbage bytes must fail to open")
}

func TestGroupLines(t *testing.T) {
	// Two fragments on one baseline, one on another.
	lines := groupLines(textFragments(t))
	assert.Len(t, lines, 2)
	assert.Equal(t, "First name:", lines[0].text)
	assert.Equal(t, 50.0, lines[0].left)
	assert.Equal(t, 160.0, lines[0].right)
	assert.Equal(t, "Address:", lines[1].text)
}
