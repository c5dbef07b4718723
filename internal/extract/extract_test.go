package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	apperrors "cvlens/internal/errors"
)

func TestTextFromTxt(t *testing.T) {
	content := "John Doe\nSenior Engineer\n\nSkills: Go, Kubernetes"

	text, err := Text([]byte(content), "cv.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "John Doe") || !strings.Contains(text, "Go, Kubernetes") {
		t.Errorf("extracted text lost content: %q", text)
	}
}

func TestTextTruncates(t *testing.T) {
	content := strings.Repeat("a", MaxTextLength+500)

	text, err := Text([]byte(content), "cv.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len([]rune(text)) != MaxTextLength {
		t.Errorf("expected text truncated to %d characters, got %d", MaxTextLength, len([]rune(text)))
	}
}

func TestTextUnsupportedExtension(t *testing.T) {
	_, err := Text([]byte("data"), "cv.png")
	if err == nil {
		t.Fatal("expected an error for unsupported extension")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestTextCorruptPDF(t *testing.T) {
	_, err := Text([]byte("this is not a pdf"), "cv.pdf")
	if err == nil {
		t.Fatal("expected an error for corrupt PDF")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeExtraction) {
		t.Errorf("expected extraction error, got %v", err)
	}
}

func TestTextFromDOCX(t *testing.T) {
	documentXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Smith</w:t></w:r></w:p>
    <w:p><w:r><w:t>Data</w:t><w:tab/><w:t>Scientist</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := Text(buildDOCX(t, documentXML), "cv.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Jane Smith") {
		t.Errorf("expected name in extracted text, got %q", text)
	}
	if !strings.Contains(text, "Scientist") {
		t.Errorf("expected run after tab in extracted text, got %q", text)
	}
}

func TestTextFromDOCXMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	part, err := writer.Create("word/other.xml")
	if err != nil {
		t.Fatalf("failed to create zip entry: %v", err)
	}
	if _, err := part.Write([]byte("<x/>")); err != nil {
		t.Fatalf("failed to write zip entry: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}

	_, err = Text(buf.Bytes(), "cv.docx")
	if err == nil {
		t.Fatal("expected an error for DOCX without document part")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeExtraction) {
		t.Errorf("expected extraction error, got %v", err)
	}
}

func TestTextFromLegacyDocFallback(t *testing.T) {
	// Binary junk around printable runs, the way old .doc files look
	data := append([]byte{0xd0, 0xcf, 0x11, 0xe0, 0x00, 0x01}, []byte("Experienced backend developer")...)
	data = append(data, 0x00, 0x02, 0x03)

	text, err := Text(data, "cv.doc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Experienced backend developer") {
		t.Errorf("expected printable run in extracted text, got %q", text)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses spaces",
			input:    "John    Doe\t\tEngineer",
			expected: "John Doe Engineer",
		},
		{
			name:     "drops null bytes",
			input:    "John\x00Doe",
			expected: "JohnDoe",
		},
		{
			name:     "keeps paragraph breaks",
			input:    "line one\n\n\nline two",
			expected: "line one\nline two",
		},
		{
			name:     "normalizes windows line endings",
			input:    "line one\r\nline two",
			expected: "line one\nline two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	part, err := writer.Create("word/document.xml")
	if err != nil {
		t.Fatalf("failed to create document part: %v", err)
	}
	if _, err := part.Write([]byte(documentXML)); err != nil {
		t.Fatalf("failed to write document part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return buf.Bytes()
}
