package service

import (
	"io"
	"path/filepath"
	"strings"

	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

const (
	defaultMaxCVBytes int64 = 5 * 1024 * 1024

	msgCVUnsupported = "Only PDF and Word documents are allowed."
	msgCVTooLarge    = "File size should not exceed 5MB."
	msgCVMissing     = "Please upload your CV."
)

var defaultCVExtensions = []string{".pdf", ".doc", ".docx"}

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// CVValidator enforces the CV extension allow-list and size ceiling.
type CVValidator struct {
	maxBytes   int64
	extensions map[string]struct{}
}

// NewCVValidator builds a validator; zero values fall back to 5 MiB and
// pdf/doc/docx.
func NewCVValidator(maxBytes int64, extensions []string) *CVValidator {
	if maxBytes <= 0 {
		maxBytes = defaultMaxCVBytes
	}
	if len(extensions) == 0 {
		extensions = defaultCVExtensions
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return &CVValidator{maxBytes: maxBytes, extensions: allowed}
}

// Check validates upload. The extension rule runs before the size rule. A
// nil upload fails only when required.
func (v *CVValidator) Check(upload *Upload, required bool) error {
	if upload == nil {
		if required {
			return appErrors.Validation("invalid cv upload", map[string]string{"cv": msgCVMissing})
		}
		return nil
	}
	if _, ok := v.extensions[cvExtension(upload.Filename)]; !ok {
		return appErrors.Validation("invalid cv upload", map[string]string{"cv": msgCVUnsupported})
	}
	if upload.Size > v.maxBytes {
		return appErrors.Validation("invalid cv upload", map[string]string{"cv": msgCVTooLarge})
	}
	return nil
}

func cvExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
