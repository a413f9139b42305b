package rag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// Document is a loaded source file. Content holds the whole text; Metadata
// records where it came from ("file_path", "file_type").
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Source returns the path the document was loaded from.
func (d Document) Source() string {
	return d.Metadata["file_path"]
}

// Parser reads a file into a Document.
type Parser interface {
	Parse(filePath string) (Document, error)
}

// ParserManager routes files to a Parser based on their type.
type ParserManager struct {
	fileTypeDetector func(string) string
	parsers          map[string]Parser
	logger           Logger
}

// ParserOption configures a ParserManager.
type ParserOption func(*ParserManager)

// WithPDF routes ".pdf" files to a PDFParser. Without it every file is
// read as plain text.
func WithPDF() ParserOption {
	return func(pm *ParserManager) {
		pm.parsers["pdf"] = NewPDFParser()
		pm.fileTypeDetector = extensionFileTypeDetector
	}
}

// WithParserLogger sets the logger used by the manager.
func WithParserLogger(logger Logger) ParserOption {
	return func(pm *ParserManager) {
		pm.logger = logger
	}
}

// NewParserManager creates a ParserManager that reads every file as text
// unless options register other file types.
func NewParserManager(opts ...ParserOption) *ParserManager {
	pm := &ParserManager{
		fileTypeDetector: func(string) string { return "text" },
		parsers:          map[string]Parser{"text": NewTextParser()},
		logger:           GlobalLogger,
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

// Parse loads filePath with the parser registered for its type.
func (pm *ParserManager) Parse(filePath string) (Document, error) {
	fileType := pm.fileTypeDetector(filePath)
	pm.logger.Debug("Parsing document", "path", filePath, "type", fileType)
	parser, ok := pm.parsers[fileType]
	if !ok {
		return Document{}, &FileAccessError{Path: filePath, Err: fmt.Errorf("no parser available for file type %q", fileType)}
	}
	doc, err := parser.Parse(filePath)
	if err != nil {
		pm.logger.Error("Failed to parse document", "path", filePath, "error", err)
		return Document{}, err
	}
	pm.logger.Debug("Parsed document", "path", filePath, "bytes", len(doc.Content))
	return doc, nil
}

// SetFileTypeDetector replaces the function mapping paths to file types.
func (pm *ParserManager) SetFileTypeDetector(detector func(string) string) {
	pm.fileTypeDetector = detector
}

// AddParser registers a parser for a file type.
func (pm *ParserManager) AddParser(fileType string, parser Parser) {
	pm.parsers[fileType] = parser
}

func extensionFileTypeDetector(filePath string) string {
	if strings.EqualFold(filepath.Ext(filePath), ".pdf") {
		return "pdf"
	}
	return "text"
}

// TextParser reads a whole UTF-8 file into memory.
type TextParser struct{}

// NewTextParser creates a new TextParser instance.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse reads filePath. Missing, unreadable, directory and non UTF-8 files
// fail with a *FileAccessError.
func (p *TextParser) Parse(filePath string) (Document, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return Document{}, &FileAccessError{Path: filePath, Err: err}
	}
	if info.IsDir() {
		return Document{}, &FileAccessError{Path: filePath, Err: errors.New("is a directory")}
	}
	content, err := os.ReadFile(filePath)
	if err != nil {
		return Document{}, &FileAccessError{Path: filePath, Err: err}
	}
	if !utf8.Valid(content) {
		return Document{}, &FileAccessError{Path: filePath, Err: errors.New("content is not valid UTF-8")}
	}
	return newDocument(string(content), filePath, "text"), nil
}

// PDFParser extracts the plain text of a PDF file page by page.
type PDFParser struct{}

// NewPDFParser creates a new PDFParser instance.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse extracts the text of filePath. Pages are separated by a blank line.
func (p *PDFParser) Parse(filePath string) (Document, error) {
	content, err := p.extractText(filePath)
	if err != nil {
		return Document{}, &FileAccessError{Path: filePath, Err: err}
	}
	return newDocument(content, filePath, "pdf"), nil
}

func (p *PDFParser) extractText(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %w", err)
	}

	reader, err := pdf.NewReader(file, fileInfo.Size())
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n\n")
		}
		textBuilder.WriteString(content)
	}
	return textBuilder.String(), nil
}

func newDocument(content, filePath, fileType string) Document {
	return Document{
		ID:      uuid.NewString(),
		Content: content,
		Metadata: map[string]string{
			"file_type": fileType,
			"file_path": filePath,
		},
	}
}
