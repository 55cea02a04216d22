// Package extract turns uploaded files into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupported is returned for files whose text cannot be extracted.
var ErrUnsupported = errors.New("extract: unsupported file")

// FromFile reads the file at path and extracts its text.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	return FromBytes(filepath.Base(path), data)
}

// FromBytes extracts text from file contents; name selects the format by
// extension. PDFs go through the PDF text layer, everything else is read
// as UTF-8 with invalid sequences replaced.
func FromBytes(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return pdfText(data)
	default:
		if bytes.IndexByte(data, 0) >= 0 {
			return "", fmt.Errorf("%w: %s looks binary", ErrUnsupported, name)
		}
		return strings.ToValidUTF8(string(data), "�"), nil
	}
}

func pdfText(data []byte) (text string, err error) {
	// The PDF reader panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed pdf: %v", ErrUnsupported, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract: pdf text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("extract: pdf text: %w", err)
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}
