package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/formview/formview/internal/export"
	"github.com/formview/formview/internal/overlay"
	"github.com/formview/formview/internal/segment"
)

var (
	valuesPath   = flag.String("values", "", "Path to a JSON file of values, keyed by field name or segment key")
	segmentsPath = flag.String("segments", "", "Path to a segments JSON file (default: derive segments from the document text)")
	outputPath   = flag.String("output", "", "Output file path (defaults to the input name with a -filled suffix)")
	outputFormat = flag.String("format", "text", "Output format: text, json")
	listFields   = flag.Bool("list", false, "List the document's fillable fields and segments without filling")
	valuesOnly   = flag.Bool("values-only", false, "Write the resolved values as a flat JSON record instead of a filled PDF")
	maxFileSize  = flag.Int64("maxfilesize", 100*1024*1024, "Maximum document file size in bytes")
	help         = flag.Bool("help", false, "Show help message")
)

// FillResult represents the complete result of a fill run
type FillResult struct {
	FilePath     string   `json:"file_path"`
	OutputPath   string   `json:"output_path,omitempty"`
	Success      bool     `json:"success"`
	FilledFields int      `json:"filled_fields"`
	DrawnValues  int      `json:"drawn_values"`
	Fallback     bool     `json:"fallback"`
	Unmatched    []string `json:"unmatched_keys,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: PDF file path required\n\n")
		printUsage()
		os.Exit(1)
	}

	docPath := flag.Arg(0)
	if _, err := os.Stat(docPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", docPath)
		os.Exit(1)
	}

	if *listFields {
		if err := runList(docPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *valuesPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -values is required (or use -list to inspect the document)\n\n")
		printUsage()
		os.Exit(1)
	}

	result := runFill(docPath)
	if err := outputResults(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error outputting results: %v\n", err)
		os.Exit(1)
	}
	if !result.Success {
		os.Exit(1)
	}
}

func runList(docPath string) error {
	data, err := os.ReadFile(docPath)
	if err != nil {
		return err
	}

	w, err := export.NewPDFWriter(data)
	if err != nil {
		return err
	}

	fields := w.ListFields()
	fmt.Printf("Structured fields: %d\n", len(fields))
	for i, f := range fields {
		fmt.Printf("  [%d] %s (%s)", i+1, f.Name, f.Type)
		if f.Page > 0 {
			fmt.Printf(" page %d", f.Page)
		}
		fmt.Println()
	}

	extracted, err := segment.NewExtractor(*maxFileSize).ExtractFile(docPath)
	if err != nil {
		return err
	}

	fillable := 0
	for _, seg := range extracted.Segments {
		if seg.IsEditable() || seg.Type == segment.TypeCheckbox {
			fillable++
		}
	}
	fmt.Printf("\nDerived segments: %d (%d fillable)\n", len(extracted.Segments), fillable)
	for _, seg := range extracted.Segments {
		if !seg.IsEditable() && seg.Type != segment.TypeCheckbox {
			continue
		}
		fmt.Printf("  key=%s page=%d %s %q\n", seg.Key(), seg.PageNumber, seg.Type, seg.Placeholder())
	}
	if extracted.FormType != "" {
		fmt.Printf("\nForm type: %s\n", extracted.FormType)
	}
	return nil
}

func runFill(docPath string) *FillResult {
	absPath, _ := filepath.Abs(docPath)
	result := &FillResult{FilePath: absPath}

	data, err := os.ReadFile(docPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	rawValues, err := readValues(*valuesPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	segments, err := loadSegments(data)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	var fields []export.Field
	if w, err := export.NewPDFWriter(data); err == nil {
		fields = w.ListFields()
	}
	binding := export.ResolveBinding(fields, segments)

	values, unmatched := resolveValues(rawValues, binding, segments)
	result.Unmatched = unmatched

	if *valuesOnly {
		return writeValuesRecord(docPath, values, result)
	}

	exported, err := export.NewSerializer(zerolog.Nop()).Export(data, values, segments, binding)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	output := *outputPath
	if output == "" {
		ext := filepath.Ext(docPath)
		output = docPath[:len(docPath)-len(ext)] + "-filled" + ext
	}
	if err := os.WriteFile(output, exported.Bytes, 0o600); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.OutputPath = output
	result.FilledFields = exported.FilledFields
	result.DrawnValues = exported.DrawnValues
	result.Fallback = exported.Fallback
	return result
}

func loadSegments(data []byte) ([]segment.Segment, error) {
	if *segmentsPath != "" {
		raw, err := os.ReadFile(*segmentsPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read segments file: %w", err)
		}
		var segments []segment.Segment
		if err := json.Unmarshal(raw, &segments); err != nil {
			return nil, fmt.Errorf("invalid segments JSON: %w", err)
		}
		return segments, nil
	}
	extracted, err := segment.NewExtractor(*maxFileSize).Extract(data)
	if err != nil {
		return nil, err
	}
	return extracted.Segments, nil
}

func writeValuesRecord(docPath string, values overlay.Values, result *FillResult) *FillResult {
	record, err := export.ExportValues(values)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	output := *outputPath
	if output == "" {
		ext := filepath.Ext(docPath)
		output = docPath[:len(docPath)-len(ext)] + "-values.json"
	}
	if err := os.WriteFile(output, record, 0o600); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.OutputPath = output
	return result
}

func readValues(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read values file: %w", err)
	}
	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("invalid values JSON: %w", err)
	}
	return values, nil
}

// resolveValues maps user-supplied keys onto segment keys. A key may be a
// structured field name, a segment key, or a field placeholder.
func resolveValues(raw map[string]string, binding export.Binding, segments []segment.Segment) (overlay.Values, []string) {
	segByKey := make(map[string]bool, len(segments))
	for _, seg := range segments {
		segByKey[seg.Key()] = true
	}

	values := overlay.Values{}
	var unmatched []string
	for key, value := range raw {
		switch {
		case binding[key] != "":
			values[binding[key]] = value
		case segByKey[key]:
			values[key] = value
		default:
			if segKey, ok := matchPlaceholder(key, segments); ok {
				values[segKey] = value
			} else {
				unmatched = append(unmatched, key)
			}
		}
	}
	return values, unmatched
}

func matchPlaceholder(key string, segments []segment.Segment) (string, bool) {
	want := normalizeKey(key)
	if want == "" {
		return "", false
	}
	for _, seg := range segments {
		if !seg.IsEditable() && seg.Type != segment.TypeCheckbox {
			continue
		}
		if normalizeKey(seg.Placeholder()) == want {
			return seg.Key(), true
		}
	}
	return "", false
}

func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func outputResults(result *FillResult) error {
	switch *outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "text":
		return outputText(result)
	default:
		return fmt.Errorf("unsupported output format: %s", *outputFormat)
	}
}

func outputText(result *FillResult) error {
	if !result.Success {
		fmt.Printf("Fill failed: %s\n", result.Error)
		return nil
	}

	fmt.Printf("Wrote %s\n", result.OutputPath)
	if !*valuesOnly {
		fmt.Printf("Structured fields filled: %d\n", result.FilledFields)
		fmt.Printf("Values drawn as text: %d\n", result.DrawnValues)
		if result.Fallback {
			fmt.Println("Note: the document defines no structured fields; values were drawn as literal text")
		}
	}
	for _, key := range result.Unmatched {
		fmt.Printf("Warning: no field or segment matched key %q\n", key)
	}
	return nil
}

func printHelp() {
	fmt.Println("Formview Fill - fill PDF form fields from a JSON value map")
	fmt.Println()
	fmt.Println("Values are written into the document's structured (AcroForm) fields when")
	fmt.Println("it defines them; documents without structured fields get the values drawn")
	fmt.Println("as literal text at the detected field positions.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -values        Path to a JSON object of values, keyed by field name,")
	fmt.Println("                 segment key, or field label")
	fmt.Println("  -segments      Path to a segments JSON file; omit to derive segments")
	fmt.Println("                 from the document text")
	fmt.Println("  -output        Output file path (default: <input>-filled.pdf)")
	fmt.Println("  -format        Output format: text (default), json")
	fmt.Println("  -list          List fillable fields and detected segments, then exit")
	fmt.Println("  -values-only   Write the resolved values as a flat JSON record")
	fmt.Println("                 (default: <input>-values.json) instead of a filled PDF")
	fmt.Println("  -maxfilesize   Maximum document file size in bytes")
	fmt.Println("  -help          Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  formview-fill -list application.pdf")
	fmt.Println("  formview-fill -values answers.json application.pdf")
	fmt.Println("  formview-fill -values answers.json -output done.pdf -format json application.pdf")
	fmt.Println("  formview-fill -values answers.json -values-only application.pdf")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  formview-fill [OPTIONS] <pdf_file>")
}

func init() {
	flag.Usage = func() {
		printHelp()
	}
}
