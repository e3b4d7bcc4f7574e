package validation

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedExtensions map[string]bool
	MaxSize           int64
}

// NoteConstraints is the upload policy for study notes
var NoteConstraints = FileConstraints{
	AllowedExtensions: map[string]bool{
		".pdf":  true,
		".doc":  true,
		".docx": true,
		".ppt":  true,
		".pptx": true,
	},
	MaxSize: 10 << 20, // 10 MiB
}

// WithMaxSize returns a copy of c with a tighter size cap. A cap above the
// current one is ignored.
func (c FileConstraints) WithMaxSize(maxSize int64) FileConstraints {
	if maxSize > 0 && maxSize < c.MaxSize {
		c.MaxSize = maxSize
	}
	return c
}

// Extension returns the lower-cased extension of name without the dot
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// ValidateUpload checks a file name and size against the constraints.
// Failures are ValidationErrors on the "file" field.
func ValidateUpload(name string, size int64, c FileConstraints) error {
	if name == "" {
		return Field("file", "a file is required")
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !c.AllowedExtensions[ext] {
		return Field("file", fmt.Sprintf("invalid file extension %q: allowed are %s", ext, c.allowedList()))
	}

	if size <= 0 {
		return Field("file", "file is empty")
	}

	if size > c.MaxSize {
		return Field("file", fmt.Sprintf("file too large: maximum size is %d MB", c.MaxSize/(1<<20)))
	}

	return nil
}

// ValidateFile validates a multipart upload against the constraints
func ValidateFile(header *multipart.FileHeader, c FileConstraints) error {
	if header == nil {
		return Field("file", "a file is required")
	}
	return ValidateUpload(header.Filename, header.Size, c)
}

func (c FileConstraints) allowedList() string {
	exts := make([]string, 0, len(c.AllowedExtensions))
	for _, ext := range []string{".pdf", ".doc", ".docx", ".ppt", ".pptx"} {
		if c.AllowedExtensions[ext] {
			exts = append(exts, strings.TrimPrefix(ext, "."))
		}
	}
	return strings.Join(exts, ", ")
}
