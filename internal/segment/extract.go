package segment

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor derives segments from a PDF's text blocks for workflows where no
// upstream analysis result is available. Classification is heuristic: it
// looks at block content and position, not semantics.
type Extractor struct {
	maxFileSize int64
}

// ExtractResult holds the segments derived from one document.
type ExtractResult struct {
	NumPages int       `json:"num_pages"`
	Segments []Segment `json:"segments"`
	FormType string    `json:"form_type,omitempty"`
}

// NewExtractor creates an extractor with the given file size limit.
func NewExtractor(maxFileSize int64) *Extractor {
	return &Extractor{maxFileSize: maxFileSize}
}

// ExtractFile reads a PDF from disk and derives segments from it.
func (e *Extractor) ExtractFile(path string) (*ExtractResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.Size() > e.maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), e.maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}
	return e.Extract(data)
}

// Extract derives segments from raw PDF bytes.
func (e *Extractor) Extract(data []byte) (*ExtractResult, error) {
	if int64(len(data)) > e.maxFileSize {
		return nil, fmt.Errorf("document too large: %d bytes (max: %d bytes)", len(data), e.maxFileSize)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	result := &ExtractResult{NumPages: reader.NumPage()}
	var allText strings.Builder

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		pageW, pageH := pageSize(page)
		for _, ln := range groupLines(pageContent(page)) {
			text := strings.TrimSpace(ln.text)
			if text == "" {
				continue
			}
			seg := Segment{
				Text:       text,
				Type:       Classify(text, ln.left, ln.topFrom(pageH), ln.width(), pageW, pageH),
				PageNumber: pageNum,
				Top:        clamp(ln.topFrom(pageH), 0, pageH),
				Left:       clamp(ln.left, 0, pageW),
				Width:      ln.width(),
				Height:     ln.height,
				PageWidth:  pageW,
				PageHeight: pageH,
			}
			if seg.Left+seg.Width > pageW {
				seg.Width = pageW - seg.Left
			}
			if seg.Top+seg.Height > pageH {
				seg.Height = pageH - seg.Top
			}
			seg.IsPII = ContainsPII(text)
			result.Segments = append(result.Segments, seg)
			allText.WriteString(text)
			allText.WriteString(" ")
		}
	}

	result.FormType = DetectFormType(allText.String())
	return result, nil
}

// Classify assigns a segment type from block content and page position,
// favoring form-entry indicators over layout cues.
func Classify(text string, left, top, width, pageW, pageH float64) Type {
	lower := strings.ToLower(strings.TrimSpace(text))

	checkboxGlyphs := []string{"[ ]", "[x]", "□", "☐", "☑"}
	for _, g := range checkboxGlyphs {
		if lower == g || lower == "yes" || lower == "no" {
			return TypeCheckbox
		}
	}

	fieldIndicators := append([]string{":", "_____"}, checkboxGlyphs...)
	for _, ind := range fieldIndicators {
		if strings.Contains(lower, ind) {
			return TypeFormField
		}
	}

	if strings.Contains(lower, "signature") || strings.Contains(lower, "sign here") {
		return TypeSignature
	}

	if pageH > 0 && top/pageH < 0.15 && width > pageW*0.5 {
		return TypeTitle
	}

	if len(text) < 100 && text == strings.ToUpper(text) && strings.ContainsAny(text, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return TypeSectionHeader
	}

	return TypeText
}

// piiTerms flags segments that carry personally identifying content.
var piiTerms = []string{
	"ssn", "social security", "date of birth", "birth date", "passport",
	"driver's license", "drivers license", "tax id", "taxpayer id",
	"bank account", "routing number", "credit card",
}

// ContainsPII reports whether the text matches a known PII term.
func ContainsPII(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range piiTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// DetectFormType guesses a coarse form category from the document's text.
func DetectFormType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "tax") || strings.Contains(lower, "irs") || strings.Contains(lower, "1040"):
		return "Tax Form"
	case strings.Contains(lower, "insurance") || strings.Contains(lower, "coverage"):
		return "Insurance Form"
	case strings.Contains(lower, "application"):
		return "Application Form"
	case strings.Contains(lower, "medical") || strings.Contains(lower, "health") || strings.Contains(lower, "patient"):
		return "Medical Form"
	default:
		return ""
	}
}

// line is a horizontal run of text fragments sharing a baseline. Coordinates
// stay in PDF space (y up from the bottom) until topFrom converts them.
type line struct {
	text   string
	left   float64
	right  float64
	baseY  float64
	height float64
}

func (l line) topFrom(pageH float64) float64 {
	return pageH - l.baseY - l.height
}

func (l line) width() float64 { return l.right - l.left }

// pageContent fetches the page's positioned text, recovering from parser
// panics the same way image detection does in bulk readers.
func pageContent(page pdf.Page) (texts []pdf.Text) {
	defer func() {
		if recover() != nil {
			texts = nil
		}
	}()
	return page.Content().Text
}

// groupLines merges text fragments into baseline-aligned lines, top to
// bottom, left to right.
func groupLines(texts []pdf.Text) []line {
	const baselineTol = 2.0

	// Quantize baselines before ordering so fragments that sit a fraction of
	// a point apart still read left to right within their line.
	bucket := func(y float64) float64 { return math.Round(y / baselineTol) }
	sort.SliceStable(texts, func(i, j int) bool {
		bi, bj := bucket(texts[i].Y), bucket(texts[j].Y)
		if bi != bj {
			return bi > bj
		}
		return texts[i].X < texts[j].X
	})

	var lines []line
	for _, t := range texts {
		h := t.FontSize
		if h <= 0 {
			h = 10
		}
		if n := len(lines); n > 0 && abs(lines[n-1].baseY-t.Y) <= baselineTol {
			cur := &lines[n-1]
			cur.text += t.S
			if t.X < cur.left {
				cur.left = t.X
			}
			if t.X+t.W > cur.right {
				cur.right = t.X + t.W
			}
			if h > cur.height {
				cur.height = h
			}
			continue
		}
		lines = append(lines, line{
			text:   t.S,
			left:   t.X,
			right:  t.X + t.W,
			baseY:  t.Y,
			height: h,
		})
	}
	return lines
}

// pageSize resolves the page MediaBox, walking up the page tree for
// inherited entries. Falls back to US Letter when absent.
func pageSize(page pdf.Page) (w, h float64) {
	w, h = 612, 792

	v := page.V
	for i := 0; i < 16 && !v.IsNull(); i++ {
		box := v.Key("MediaBox")
		if !box.IsNull() && box.Len() == 4 {
			x0 := box.Index(0).Float64()
			y0 := box.Index(1).Float64()
			x1 := box.Index(2).Float64()
			y1 := box.Index(3).Float64()
			if x1 > x0 && y1 > y0 {
				return x1 - x0, y1 - y0
			}
		}
		v = v.Key("Parent")
	}
	return w, h
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
