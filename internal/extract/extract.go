// Package extract turns uploaded CV files into plain text for analysis.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"cvlens/internal/errors"

	"github.com/ledongthuc/pdf"
)

// MaxTextLength caps extracted text so a single CV cannot dominate prompt
// budgets downstream. Applied unconditionally after extraction.
const MaxTextLength = 50000

// Text extracts plain text from the file content, dispatching on the
// filename's extension. The result is cleaned and truncated to
// MaxTextLength characters.
func Text(data []byte, filename string) (string, error) {
	var (
		text string
		err  error
	)

	switch ext := Extension(filename); ext {
	case ".txt":
		text = string(data)
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".doc":
		text, err = extractDOC(data)
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("unsupported file type %q", ext), nil).
			WithContext("filename", filename)
	}

	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed,
			fmt.Sprintf("failed to extract text from %s", filename), err).
			WithContext("filename", filename)
	}

	return Truncate(CleanText(text), MaxTextLength), nil
}

// extractPDF pulls the plain text of every page. The pdf library can panic
// on malformed documents, so the recover converts that into an error.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", pageNum, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// extractDOC handles legacy Word files. Many files with a .doc extension are
// actually DOCX archives, so that path is tried first; for the old binary
// format a printable-run scan is the best effort available.
func extractDOC(data []byte) (string, error) {
	if text, err := extractDOCX(data); err == nil {
		return text, nil
	}
	return extractBinaryText(data)
}

// extractBinaryText scans a binary document for printable ASCII runs
func extractBinaryText(data []byte) (string, error) {
	var sb strings.Builder
	var run []byte

	flush := func() {
		if len(run) >= 4 {
			sb.Write(run)
			sb.WriteByte(' ')
		}
		run = run[:0]
	}

	for _, b := range data {
		if b >= 0x20 && b < 0x7f || b == '\n' || b == '\t' {
			run = append(run, b)
		} else {
			flush()
		}
	}
	flush()

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no readable text found in document")
	}
	return text, nil
}

// CleanText normalizes extracted text: drops control characters and
// collapses runs of whitespace into single spaces with paragraph breaks kept
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}

// Truncate limits text to at most limit characters
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
