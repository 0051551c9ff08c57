// Package extractor recovers plain text from raw document bytes.
package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/savelyeva/docextract/internal/task"
)

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeText = "text/plain"
)

// Supported reports whether a declared media type can be handled.
func Supported(mediaType string) bool {
	return mediaType == MediaTypePDF || mediaType == MediaTypeText
}

// Text converts raw bytes plus their declared media type into plain text.
// An empty or whitespace-only result is a hard failure: no extraction can
// proceed without text.
func Text(data []byte, mediaType string) (string, error) {
	var (
		text string
		err  error
	)

	switch mediaType {
	case MediaTypePDF:
		text, err = pdfText(data)
	case MediaTypeText:
		text, err = plainText(data)
	default:
		// The submission surface rejects these; reaching here means a
		// record was written with a type we never accepted.
		return "", task.Errf(task.KindUnsupportedMediaType, "unsupported media type %q", mediaType)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", task.Errf(task.KindEmptyOrUnreadable, "no text could be extracted from the document")
	}

	return text, nil
}

// pdfText decodes each page independently and concatenates the page texts in
// document order. Pages that yield no text are skipped; only a rejected
// container fails the whole document. The pdf library panics on some
// malformed inputs, so both levels recover.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = task.Errf(task.KindUnreadableDocument, "failed to read PDF content: %v", r)
		}
	}()

	reader, rerr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if rerr != nil {
		return "", task.Errf(task.KindUnreadableDocument, "failed to read PDF content: %v", rerr)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, perr := safePageText(reader, i)
		if perr != nil || pageText == "" {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}

	return b.String(), nil
}

func safePageText(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", num, r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// plainText decodes UTF-8, falling back to ISO-8859-1 on invalid input.
// Invoices frequently arrive in legacy single-byte encodings; the fallback
// never fails, it just maps every byte.
func plainText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", task.Errf(task.KindEmptyOrUnreadable, "failed to decode text content: %v", err)
	}
	return string(decoded), nil
}
