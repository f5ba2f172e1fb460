// Package document classifies raw uploads before they reach a reasoning backend.
package document

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"labassist/internal/domain"
)

const (
	MimePDF  = "application/pdf"
	MimeText = "text/plain"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWebP = "image/webp"
)

var (
	pdfPageRe    = regexp.MustCompile(`/Type\s*/Page[^s]`)
	pdfCountRe   = regexp.MustCompile(`/Type\s*/Pages\b[^>]*?/Count\s+(\d+)|/Count\s+(\d+)[^>]*?/Type\s*/Pages\b`)
	pdfEncryptRe = regexp.MustCompile(`/Encrypt\s`)
)

// Document is an upload that passed inspection. PageCount is 0 when the page
// tree is not visible in the raw bytes, as with compressed object streams.
type Document struct {
	MimeType  string
	Data      []byte
	PageCount int
}

// IsText reports whether the document is sent to the model inline as text.
func (d *Document) IsText() bool {
	return d.MimeType == MimeText
}

// Text returns the document body for text documents.
func (d *Document) Text() string {
	if !d.IsText() {
		return ""
	}
	return string(d.Data)
}

// Inspect detects the document type and rejects input that cannot be turned
// into text: empty, oversized, encrypted, truncated or of an unknown type.
// A PDF whose pages cannot be counted is still accepted.
// maxBytes <= 0 disables the size check.
func Inspect(data []byte, maxBytes int64) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, domain.ErrDocumentTooLarge
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is(MimePDF):
		return inspectPDF(data)
	case mt.Is(MimeJPEG), mt.Is(MimePNG), mt.Is(MimeWebP):
		return &Document{MimeType: mt.String(), Data: data, PageCount: 1}, nil
	case strings.HasPrefix(mt.String(), "text/"):
		if !utf8.Valid(data) {
			return nil, domain.ErrCorruptDocument
		}
		return &Document{MimeType: MimeText, Data: data, PageCount: 1}, nil
	}
	return nil, domain.ErrUnsupportedDocument
}

func inspectPDF(data []byte) (*Document, error) {
	if pdfEncryptRe.Match(data) {
		return nil, domain.ErrEncryptedDocument
	}
	if !bytes.Contains(data[max(0, len(data)-1024):], []byte("%%EOF")) {
		return nil, domain.ErrCorruptDocument
	}
	return &Document{MimeType: MimePDF, Data: data, PageCount: countPDFPages(data)}, nil
}

func countPDFPages(data []byte) int {
	if pages := len(pdfPageRe.FindAllIndex(data, -1)); pages > 0 {
		return pages
	}
	m := pdfCountRe.FindSubmatch(data)
	if m == nil {
		return 0
	}
	raw := m[1]
	if len(raw) == 0 {
		raw = m[2]
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0
	}
	return n
}
