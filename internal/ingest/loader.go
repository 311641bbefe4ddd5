// Package ingest loads the per-document collaborator outputs a batch
// run starts from: extraction payloads, cleaned OCR text, purchase-
// order identifier candidates, and matched purchase-order documents.
// Everything is keyed by the normalized document key so downstream
// joins line up regardless of source filename casing or extension.
package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/coastalmech/apflow/internal/model"
)

// Batch is the full input set for one run.
type Batch struct {
	// Payloads holds the raw extraction model output per document.
	Payloads map[string]string
	// OCRTexts holds the cleaned OCR text per document, used for
	// reconciliation repair. May be missing for some documents.
	OCRTexts map[string]string
	// POCandidates holds the raw PO/identifier candidate string per
	// document.
	POCandidates map[string]string
	// POTexts holds the matched purchase-order document text per
	// document, used for routing.
	POTexts map[string]string
}

// Documents returns the sorted-ish set of document keys that have a
// payload; documents without a payload cannot enter the pipeline.
func (b *Batch) Documents() []string {
	keys := make([]string, 0, len(b.Payloads))
	for k := range b.Payloads {
		keys = append(keys, k)
	}
	return keys
}

// LoadBatch reads all four input directories. Only the payload
// directory is mandatory; the others degrade to empty maps with a log
// line so a partial collaborator run still processes.
func LoadBatch(payloadDir, ocrDir, poCandidateDir, poTextDir string) (*Batch, error) {
	payloads, err := loadDir(payloadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load extraction payloads: %w", err)
	}
	if len(payloads) == 0 {
		return nil, fmt.Errorf("no extraction payloads found in %s", payloadDir)
	}

	batch := &Batch{
		Payloads:     payloads,
		OCRTexts:     loadOptionalDir(ocrDir, "ocr"),
		POCandidates: loadOptionalDir(poCandidateDir, "po candidates"),
		POTexts:      loadOptionalDir(poTextDir, "po text"),
	}
	slog.Info("Loaded batch inputs",
		"documents", len(batch.Payloads),
		"ocr_texts", len(batch.OCRTexts),
		"po_candidates", len(batch.POCandidates),
		"po_texts", len(batch.POTexts))
	return batch, nil
}

// loadDir reads every regular file in dir into a key -> content map.
// Subdirectories and dotfiles are ignored.
func loadDir(dir string) (map[string]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory not configured")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	contents := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name())) // #nosec G304 -- operator-supplied input dir
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		key := model.DocumentKey(entry.Name())
		if _, dup := contents[key]; dup {
			return nil, fmt.Errorf("duplicate document key %q in %s", key, dir)
		}
		contents[key] = string(data)
	}
	return contents, nil
}

func loadOptionalDir(dir, kind string) map[string]string {
	contents, err := loadDir(dir)
	if err != nil {
		slog.Warn("Optional input directory unavailable", "kind", kind, "dir", dir, "error", err)
		return map[string]string{}
	}
	return contents
}
