package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/formview/formview/internal/annotate"
	"github.com/formview/formview/internal/config"
	"github.com/formview/formview/internal/export"
	"github.com/formview/formview/internal/library"
	"github.com/formview/formview/internal/segment"
	"github.com/formview/formview/internal/viewer"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	log        zerolog.Logger
	viewer     *viewer.Viewer
	extractor  *segment.Extractor
	serializer *export.Serializer
	library    *library.Library
	mcpServer  *server.MCPServer

	// Session state for the currently loaded document.
	docPath  string
	docData  []byte
	formType string
	binding  export.Binding
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, log zerolog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config: cfg,
		log:    log,
		viewer: viewer.New(log,
			viewer.WithScale(cfg.Scale),
			// Tool callers have no interactive dialog; deletions are applied
			// directly.
			viewer.WithConfirmFunc(func(annotate.Annotation) bool { return true }),
		),
		extractor:  segment.NewExtractor(cfg.MaxFileSize),
		serializer: export.NewSerializer(log),
		library:    library.New(cfg.MaxFileSize),
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	loadTool := mcp.NewTool(
		"form_load_document",
		mcp.WithDescription("Load a PDF document into the form viewer, deriving form segments from its text"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file (relative paths resolve against the document directory)"),
		),
		mcp.WithString("segments",
			mcp.Description("Optional JSON array of pre-analyzed segments; when omitted segments are derived from the document text"),
		),
	)
	s.mcpServer.AddTool(loadTool, s.handleLoadDocument)

	searchTool := mcp.NewTool(
		"form_search_directory",
		mcp.WithDescription("Search for PDF documents in a directory with optional fuzzy name matching"),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses the document directory when empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query matched fuzzily against file names"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchDirectory)

	listSegmentsTool := mcp.NewTool(
		"form_list_segments",
		mcp.WithDescription("List the form overlays of the loaded document with their kinds, positions, and current values"),
		mcp.WithNumber("page",
			mcp.Description("Optional page number; lists all pages when omitted"),
		),
	)
	s.mcpServer.AddTool(listSegmentsTool, s.handleListSegments)

	setFieldTool := mcp.NewTool(
		"form_set_field",
		mcp.WithDescription("Set the value of a form field overlay; checkbox fields take 'true' or 'false'"),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Segment key of the field (page_left_top as listed by form_list_segments)"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Value to enter into the field"),
		),
	)
	s.mcpServer.AddTool(setFieldTool, s.handleSetField)

	setScaleTool := mcp.NewTool(
		"form_set_scale",
		mcp.WithDescription("Change the viewer render scale; pages are re-rendered and overlays repositioned"),
		mcp.WithNumber("scale",
			mcp.Required(),
			mcp.Description("Scale factor, clamped to the 0.5 to 3.0 range"),
		),
	)
	s.mcpServer.AddTool(setScaleTool, s.handleSetScale)

	piiTool := mcp.NewTool(
		"form_filter_pii",
		mcp.WithDescription("Toggle the privacy filter that limits overlays to segments containing personal information"),
		mcp.WithBoolean("enabled",
			mcp.Required(),
			mcp.Description("Whether to show only PII segments"),
		),
	)
	s.mcpServer.AddTool(piiTool, s.handleFilterPII)

	addAnnotationTool := mcp.NewTool(
		"form_add_annotation",
		mcp.WithDescription("Add an annotation to the loaded document at viewport coordinates"),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Annotation kind: 'highlight', 'sticky-note', or 'text-box'"),
		),
		mcp.WithNumber("page",
			mcp.Required(),
			mcp.Description("Page number the annotation belongs to"),
		),
		mcp.WithNumber("left",
			mcp.Required(),
			mcp.Description("Left position in viewport pixels"),
		),
		mcp.WithNumber("top",
			mcp.Required(),
			mcp.Description("Top position in viewport pixels"),
		),
		mcp.WithNumber("width",
			mcp.Description("Highlight width in viewport pixels (highlight only)"),
		),
		mcp.WithNumber("height",
			mcp.Description("Highlight height in viewport pixels (highlight only)"),
		),
		mcp.WithString("text",
			mcp.Description("Note text (sticky-note and text-box only)"),
		),
	)
	s.mcpServer.AddTool(addAnnotationTool, s.handleAddAnnotation)

	listAnnotationsTool := mcp.NewTool(
		"form_list_annotations",
		mcp.WithDescription("List the annotations on the loaded document"),
		mcp.WithNumber("page",
			mcp.Description("Optional page number; lists all pages when omitted"),
		),
	)
	s.mcpServer.AddTool(listAnnotationsTool, s.handleListAnnotations)

	deleteAnnotationTool := mcp.NewTool(
		"form_delete_annotation",
		mcp.WithDescription("Delete an annotation by id"),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Annotation id as listed by form_list_annotations"),
		),
	)
	s.mcpServer.AddTool(deleteAnnotationTool, s.handleDeleteAnnotation)

	exportDocumentTool := mcp.NewTool(
		"form_export_document",
		mcp.WithDescription("Write a filled copy of the loaded document, filling structured fields where the document defines them"),
		mcp.WithString("output",
			mcp.Description("Output file path; defaults to the input name with a -filled suffix"),
		),
	)
	s.mcpServer.AddTool(exportDocumentTool, s.handleExportDocument)

	exportValuesTool := mcp.NewTool(
		"form_export_values",
		mcp.WithDescription("Export the entered form values as JSON keyed by segment"),
		mcp.WithString("output",
			mcp.Description("Optional output file path; the JSON is returned inline when omitted"),
		),
	)
	s.mcpServer.AddTool(exportValuesTool, s.handleExportValues)

	viewerInfoTool := mcp.NewTool(
		"form_viewer_info",
		mcp.WithDescription("Get viewer state, loaded document details, and usage guidance"),
	)
	s.mcpServer.AddTool(viewerInfoTool, s.handleViewerInfo)
}

// Handler functions
func (s *Server) handleLoadDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path = s.resolvePath(path)

	info, err := os.Stat(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot access file: %v", err)), nil
	}
	if info.Size() > s.config.MaxFileSize {
		return mcp.NewToolResultError(fmt.Sprintf(
			"file too large: %d bytes (max: %d bytes)", info.Size(), s.config.MaxFileSize)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read file: %v", err)), nil
	}

	args := request.GetArguments()
	var segments []segment.Segment
	formType := ""
	if raw, ok := args["segments"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &segments); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid segments JSON: %v", err)), nil
		}
	} else {
		extracted, err := s.extractor.Extract(data)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		segments = extracted.Segments
		formType = extracted.FormType
	}

	if err := s.viewer.Load(data, segments); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.docPath = path
	s.docData = data
	s.formType = formType
	s.binding = s.resolveBinding(data)

	responseText := fmt.Sprintf("Loaded document: %s\n", path)
	responseText += fmt.Sprintf("Pages: %d\n", s.viewer.NumPages())
	responseText += fmt.Sprintf("Segments: %d\n", len(s.viewer.Segments()))
	if formType != "" {
		responseText += fmt.Sprintf("Form type: %s\n", formType)
	}
	responseText += fmt.Sprintf("Bound fields: %d\n", len(s.binding))
	responseText += fmt.Sprintf("Zoom: %d%%\n", s.viewer.ZoomPercent())
	return mcp.NewToolResultText(responseText), nil
}

// resolveBinding maps the document's structured field names onto segment
// keys once per load. Documents without structured fields yield an empty
// binding and export falls back to drawn text.
func (s *Server) resolveBinding(data []byte) export.Binding {
	w, err := export.NewPDFWriter(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("document not writable, structured fill unavailable")
		return export.Binding{}
	}
	return export.ResolveBinding(w.ListFields(), s.viewer.Segments())
}

func (s *Server) handleSearchDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	directory := s.config.DocumentDirectory // default
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}
	query := ""
	if q, ok := args["query"].(string); ok {
		query = q
	}

	result, err := s.library.Scan(directory, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.TotalCount == 0 {
		text := fmt.Sprintf("No PDF documents found in directory: %s", result.Directory)
		if result.Query != "" {
			text += fmt.Sprintf(" (searched for: %s)", result.Query)
		}
		return mcp.NewToolResultText(text), nil
	}

	text := fmt.Sprintf("Found %d document(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.Query != "" {
		text += fmt.Sprintf("Search query: %s\n", result.Query)
	}
	text += "\nFiles:\n"
	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleListSegments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireLoaded(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	first, last := 1, s.viewer.NumPages()
	if p, ok := args["page"].(float64); ok {
		page := int(p)
		if page < 1 || page > s.viewer.NumPages() {
			return mcp.NewToolResultError(fmt.Sprintf("page %d out of range (document has %d pages)",
				page, s.viewer.NumPages())), nil
		}
		first, last = page, page
	}

	text := ""
	total := 0
	for page := first; page <= last; page++ {
		overlays := s.viewer.Overlays(page)
		if len(overlays) == 0 {
			continue
		}
		text += fmt.Sprintf("Page %d:\n", page)
		for _, o := range overlays {
			total++
			text += fmt.Sprintf("  [%s] key=%s kind=%s at (%.0f, %.0f) %gx%g",
				o.Segment.Type, o.Segment.Key(), o.Kind, o.Rect.Left, o.Rect.Top, o.Rect.Width, o.Rect.Height)
			if o.PII {
				text += " PII"
			}
			if o.Placeholder != "" {
				text += fmt.Sprintf(" placeholder=%q", o.Placeholder)
			}
			if o.Value != "" {
				text += fmt.Sprintf(" value=%q", o.Value)
			}
			text += "\n"
		}
	}

	if total == 0 {
		return mcp.NewToolResultText("No visible segments"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d visible segment(s)\n%s", total, text)), nil
}

func (s *Server) handleSetField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireLoaded(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	seg, ok := s.segmentByKey(key)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no segment with key %s", key)), nil
	}
	if !seg.IsEditable() && seg.Type != segment.TypeCheckbox {
		return mcp.NewToolResultError(fmt.Sprintf("segment %s (%s) is not an editable field", key, seg.Type)), nil
	}
	if seg.Type == segment.TypeCheckbox && value != "true" && value != "false" {
		return mcp.NewToolResultError(fmt.Sprintf("checkbox %s only accepts \"true\" or \"false\", got %q", key, value)), nil
	}

	s.viewer.SetFieldValue(seg, value)
	return mcp.NewToolResultText(fmt.Sprintf("Set %s = %q", key, value)), nil
}

func (s *Server) handleSetScale(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireLoaded(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	scale, err := request.RequireFloat("scale")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.viewer.SetScale(scale); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Zoom: %d%%", s.viewer.ZoomPercent())), nil
}

func (s *Server) handleFilterPII(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireLoaded(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	enabled, err := request.RequireBool("enabled")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.viewer.SetPIIOnly(enabled)
	if enabled {
		visible := 0
		for page := 1; page <= s.viewer.NumPages(); page++ {
			visible += len(segment.FilterPage(s.viewer.Segments(), page, true))
		}
		return mcp.NewToolResultText(fmt.Sprintf("Privacy filter on: %d PII segment(s) shown", visible)), nil
	}
	return mcp.NewToolResultText("Privacy filter off: all segments are shown"), nil
}

func (s *Server) handleAddAnnotation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireLoaded(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	kind, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pageF, err := request.RequireFloat("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page := int(pageF)
	if page < 1 || page > s.viewer.NumPages() {
		return mcp.NewToolResultError(fmt.Sprintf("page %d out of range (document has %d pages)",
			page, s.viewer.NumPages())), nil
	}
	left, err := request.RequireFloat("left")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	top, err := request.RequireFloat("top")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	ctrl := s.viewer.Controller()

	switch annotate.Tool(kind) {
	case annotate.ToolHighlight:
		width, _ := args["width"].(float64)
		height, _ := args["height"].(float64)
		ctrl.ToggleTool(annotate.ToolHighlight)
		ctrl.PointerDown(page, left, top)
		ctrl.PointerMove(left+width, top+height)
		a, committed := ctrl.PointerUp(left+width, top+height)
		if !committed {
			return mcp.NewToolResultError(
				"highlight too small: drag must exceed 10 pixels in both dimensions"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Added highlight #%d on page %d", a.ID, a.Page)), nil

	case annotate.ToolStickyNote, annotate.ToolTextBox:
		ctrl.ToggleTool(annotate.Tool(kind))
		ctrl.PointerDown(page, left, top)
		anns := s.viewer.Annotations()
		if len(anns) == 0 {
			return mcp.NewToolResultError("annotation was not placed"), nil
		}
		a := anns[len(anns)-1]
		if text, ok := args["text"].(string); ok && text != "" {
			ctrl.CommitText(a.ID, text)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Added %s #%d on page %d", kind, a.ID, a.Page)), nil

	default:
		return mcp.NewToolResultError(fmt.Sprintf(
			"unknown annotation kind %q (must be 'highlight', 'sticky-note', or 'text-box')", kind)), nil
	}
}

func (s *Server) handleListAnnotations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireLoaded(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	anns := s.viewer.Annotations()
	if p, ok := args["page"].(float64); ok {
		filtered := anns[:0:0]
		for _, a := range anns {
			if a.Page == int(p) {
				filtered = append(filtered, a)
			}
		}
		anns = filtered
	}

	if len(anns) == 0 {
		return mcp.NewToolResultText("No annotations"), nil
	}

	text := fmt.Sprintf("%d annotation(s):\n", len(anns))
	for _, a := range anns {
		text += fmt.Sprintf("  #%d %s", a.ID, a.Kind)
		if a.Style != "" {
			text += fmt.Sprintf(" (%s)", a.Style)
		}
		text += fmt.Sprintf(" page %d at (%.0f, %.0f) %gx%g",
			a.Page, a.Rect.Left, a.Rect.Top, a.Rect.Width, a.Rect.Height)
		if a.Text != "" {
			text += fmt.Sprintf(" text=%q", a.Text)
		}
		text += "\n"
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleDeleteAnnotation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireLoaded(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	idF, err := request.RequireFloat("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := int64(idF)

	ctrl := s.viewer.Controller()
	ann, found := s.annotationByID(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("no annotation with id %d", id)), nil
	}

	ok := false
	switch ann.Kind {
	case annotate.KindHighlight:
		ok = ctrl.ClickHighlight(id)
	case annotate.KindNote:
		ok = ctrl.DeleteNote(id)
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("annotation %d was not deleted", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted annotation #%d", id)), nil
}

func (s *Server) handleExportDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireLoaded(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	output, _ := args["output"].(string)
	if output == "" {
		ext := filepath.Ext(s.docPath)
		output = s.docPath[:len(s.docPath)-len(ext)] + "-filled" + ext
	} else {
		output = s.resolvePath(output)
	}

	result, err := s.serializer.Export(s.docData, s.viewer.Values(), s.viewer.Segments(), s.binding)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := os.WriteFile(output, result.Bytes, 0o600); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot write output: %v", err)), nil
	}

	responseText := fmt.Sprintf("Exported filled document: %s\n", output)
	responseText += fmt.Sprintf("Structured fields filled: %d\n", result.FilledFields)
	responseText += fmt.Sprintf("Values drawn as text: %d\n", result.DrawnValues)
	if result.Fallback {
		responseText += "Note: the document defines no structured fields; values were drawn as literal text\n"
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleExportValues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.requireLoaded(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := export.ExportValues(s.viewer.Values())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	if output, ok := args["output"].(string); ok && output != "" {
		output = s.resolvePath(output)
		if err := os.WriteFile(output, out, 0o600); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cannot write output: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Exported %d value(s) to %s", len(s.viewer.Values()), output)), nil
	}

	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) handleViewerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - Viewer Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Document directory: %s\n", s.config.DocumentDirectory)
	text += fmt.Sprintf("Max file size: %d MB\n\n", s.config.MaxFileSize/(1024*1024))

	if s.docPath == "" {
		text += "No document loaded. Use form_load_document to begin.\n"
		if scan, err := s.library.Scan(s.config.DocumentDirectory, ""); err == nil && scan.TotalCount > 0 {
			text += fmt.Sprintf("\nAvailable documents (%d):\n", scan.TotalCount)
			for i, file := range scan.Files {
				if i >= 10 {
					text += fmt.Sprintf("   ... and %d more\n", scan.TotalCount-10)
					break
				}
				text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
			}
		}
		return mcp.NewToolResultText(text), nil
	}

	text += fmt.Sprintf("Loaded document: %s\n", s.docPath)
	text += fmt.Sprintf("Pages: %d\n", s.viewer.NumPages())
	text += fmt.Sprintf("Zoom: %d%%\n", s.viewer.ZoomPercent())
	if s.formType != "" {
		text += fmt.Sprintf("Form type: %s\n", s.formType)
	}

	segments := s.viewer.Segments()
	editable, pii := 0, 0
	for _, seg := range segments {
		if seg.IsEditable() || seg.Type == segment.TypeCheckbox {
			editable++
		}
		if seg.IsPII {
			pii++
		}
	}
	text += fmt.Sprintf("Segments: %d (%d editable, %d PII)\n", len(segments), editable, pii)
	text += fmt.Sprintf("Bound structured fields: %d\n", len(s.binding))
	text += fmt.Sprintf("Entered values: %d\n", len(s.viewer.Values()))
	text += fmt.Sprintf("Annotations: %d\n", len(s.viewer.Annotations()))
	if tool := s.viewer.Controller().ArmedTool(); tool != "" {
		text += fmt.Sprintf("Armed annotation tool: %s\n", tool)
	}
	return mcp.NewToolResultText(text), nil
}

// Helpers

func (s *Server) requireLoaded() error {
	if s.docPath == "" {
		return fmt.Errorf("no document loaded: use form_load_document first")
	}
	return nil
}

func (s *Server) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.config.DocumentDirectory, path)
}

func (s *Server) segmentByKey(key string) (segment.Segment, bool) {
	for _, seg := range s.viewer.Segments() {
		if seg.Key() == key {
			return seg, true
		}
	}
	return segment.Segment{}, false
}

func (s *Server) annotationByID(id int64) (annotate.Annotation, bool) {
	for _, a := range s.viewer.Annotations() {
		if a.ID == id {
			return a, true
		}
	}
	return annotate.Annotation{}, false
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	s.log.Debug().
		Str("dir", s.config.DocumentDirectory).
		Msg("starting form viewer server in stdio mode")

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	s.log.Info().Str("address", s.config.Address()).Msg("starting form viewer server in SSE mode")

	sse := server.NewSSEServer(s.mcpServer)
	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(s.config.Address())
	}()

	select {
	case <-ctx.Done():
		return sse.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	}
}
