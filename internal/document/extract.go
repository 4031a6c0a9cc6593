// Package document extracts plain text from uploaded syllabus files.
package document

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const (
	// MaxPDFPages limits the number of pages to process
	MaxPDFPages = 100

	// MaxExtractedTextSize limits the extracted text size (1MB)
	MaxExtractedTextSize = 1024 * 1024
)

// Extraction is the result of extracting text from an uploaded file
type Extraction struct {
	PageCount int
	WordCount int
	Text      string
}

// ExtractSyllabus converts an uploaded syllabus into plain text. PDFs go
// through the PDF extractor; anything else is treated as UTF-8 text.
func ExtractSyllabus(filename string, data []byte) (*Extraction, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") || bytes.HasPrefix(data, []byte("%PDF")) {
		return ExtractPDFText(data)
	}

	text := cleanText(string(data))
	if len(text) > MaxExtractedTextSize {
		text = text[:MaxExtractedTextSize]
	}
	if text == "" {
		return nil, fmt.Errorf("file contains no readable text")
	}
	return &Extraction{WordCount: countWords(text), Text: text}, nil
}

// ValidatePDF checks whether the data is an openable PDF
func ValidatePDF(data []byte) error {
	reader := bytes.NewReader(data)
	if _, err := pdf.NewReader(reader, int64(len(data))); err != nil {
		return fmt.Errorf("invalid PDF: %w", err)
	}
	return nil
}

// ExtractPDFText extracts text from a PDF file
func ExtractPDFText(data []byte) (*Extraction, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	totalPages := pdfReader.NumPage()
	if totalPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	if totalPages > MaxPDFPages {
		return nil, fmt.Errorf("PDF has too many pages (%d), max allowed is %d", totalPages, MaxPDFPages)
	}

	var textBuilder strings.Builder
	wordCount := 0

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages with extraction errors, don't fail completely
			continue
		}

		cleaned := cleanText(text)
		if cleaned != "" {
			textBuilder.WriteString(cleaned)
			textBuilder.WriteString("\n")
			wordCount += countWords(cleaned)
		}

		if textBuilder.Len() > MaxExtractedTextSize {
			break
		}
	}

	extractedText := strings.TrimSpace(textBuilder.String())
	if len(extractedText) > MaxExtractedTextSize {
		extractedText = extractedText[:MaxExtractedTextSize]
	}
	if extractedText == "" {
		return nil, fmt.Errorf("PDF contains no extractable text")
	}

	return &Extraction{
		PageCount: totalPages,
		WordCount: wordCount,
		Text:      extractedText,
	}, nil
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.TrimSpace(normalizeWhitespace(text))
}

// normalizeWhitespace collapses runs of spaces while preserving newlines
func normalizeWhitespace(text string) string {
	var result strings.Builder
	lastWasSpace := false

	for _, r := range text {
		if unicode.IsSpace(r) {
			if r == '\n' {
				result.WriteRune('\n')
				lastWasSpace = false
			} else if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func countWords(text string) int {
	count := 0
	inWord := false

	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			if inWord {
				count++
				inWord = false
			}
		} else {
			inWord = true
		}
	}
	if inWord {
		count++
	}

	return count
}
