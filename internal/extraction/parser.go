// Package extraction parses the loosely-structured payloads produced by
// the OCR+LLM collaborator into typed RawExtraction values. Model
// output is best-effort JSON: it arrives wrapped in markdown fences,
// with trailing commas, sometimes truncated mid-object. Parsing here is
// recovery-oriented; only a payload with no JSON object at all is an
// error.
package extraction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/coastalmech/apflow/internal/model"
)

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	codeFenceRe     = regexp.MustCompile("```(?:json)?")
	pageMarkerRe    = regexp.MustCompile(`---\s*Page\s+\d+\s*---`)
	invoiceLabelRe  = regexp.MustCompile(`(?i)(invoice|credit|memo|number|doc|no\.?|#|:)`)
)

// ParsePayload extracts and parses the seven-field JSON object from a
// raw model response. The document name and OCR text are attached so
// the reconciler has its ground truth in hand.
func ParsePayload(document, raw, ocrText string) (model.RawExtraction, error) {
	cleaned := cleanResponse(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 {
		return model.RawExtraction{}, fmt.Errorf("no JSON object found in payload for %s", document)
	}

	var body string
	if end > start {
		body = cleaned[start : end+1]
	} else {
		// Truncated output: opening brace without a close.
		body = repairTruncated(cleaned[start:])
	}

	var ext model.RawExtraction
	if err := json.Unmarshal([]byte(body), &ext); err != nil {
		// One more pass: balance braces and retry.
		if err2 := json.Unmarshal([]byte(repairTruncated(body)), &ext); err2 != nil {
			return model.RawExtraction{}, fmt.Errorf("failed to parse payload for %s: %w", document, err)
		}
	}

	ext.Document = document
	ext.OCRText = CleanOCRText(ocrText)
	ext.InvoiceNumber = CleanInvoiceNumber(ext.InvoiceNumber)
	return ext, nil
}

// cleanResponse strips markdown fences and trailing commas from a model
// response.
func cleanResponse(s string) string {
	s = codeFenceRe.ReplaceAllString(s, "")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// repairTruncated closes an object the model stopped emitting
// mid-stream. Unterminated string values are cut back to the last
// complete field before the braces are balanced.
func repairTruncated(s string) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")

	if strings.Count(s, `"`)%2 != 0 {
		if i := strings.LastIndex(s, ","); i != -1 {
			s = s[:i]
		}
	}
	for strings.Count(s, "{") > strings.Count(s, "}") {
		s += "}"
	}
	return strings.TrimSpace(s)
}

// CleanOCRText removes the page markers the OCR stage inserts between
// rendered pages.
func CleanOCRText(s string) string {
	return strings.TrimSpace(pageMarkerRe.ReplaceAllString(s, ""))
}

// CleanInvoiceNumber strips label fragments ("Credit Memo 859388323" ->
// "859388323") that the model occasionally carries into the field.
func CleanInvoiceNumber(s string) string {
	return strings.TrimSpace(invoiceLabelRe.ReplaceAllString(s, ""))
}
