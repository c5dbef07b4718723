package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"cvlens/internal/errors"
)

// Batch and size ceilings for uploaded CV files.
const (
	MaxFilesPerUpload = 10
	MaxFileSize       = 10 << 20 // Global per-file ceiling
)

// Per-format size ceilings. Binary formats carry more parsing cost, plain
// text is expected to be small.
var formatSizeLimits = map[string]int64{
	".pdf":  5 << 20,
	".docx": 5 << 20,
	".doc":  3 << 20,
	".txt":  1 << 20,
}

// Extension returns the lowercased file extension including the dot
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// SupportedExtensions lists the accepted CV file extensions
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".doc", ".txt"}
}

// ValidateBatch rejects a whole upload batch that exceeds the file count
// ceiling. A rejected batch accepts zero files.
func ValidateBatch(fileCount int) error {
	if fileCount == 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "no files provided", nil)
	}
	if fileCount > MaxFilesPerUpload {
		return errors.NewValidationError(errors.ErrCodeTooManyFiles,
			fmt.Sprintf("maximum %d files allowed per upload", MaxFilesPerUpload), nil).
			WithContext("file_count", fileCount)
	}
	return nil
}

// ValidateFile checks a single file's extension and size against the
// allow-list and ceilings
func ValidateFile(filename string, size int64) error {
	ext := Extension(filename)

	limit, ok := formatSizeLimits[ext]
	if !ok {
		return errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("unsupported file type %q, allowed: %s", ext, strings.Join(SupportedExtensions(), ", ")), nil).
			WithContext("filename", filename)
	}

	if size > MaxFileSize {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("file exceeds the %dMB limit", MaxFileSize>>20), nil).
			WithContext("filename", filename).
			WithContext("size", size)
	}

	if size > limit {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s files are limited to %dMB", ext, limit>>20), nil).
			WithContext("filename", filename).
			WithContext("size", size)
	}

	return nil
}
