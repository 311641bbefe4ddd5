// Package engine orchestrates a batch run: extraction parsing,
// reconciliation, identifier classification, the two human-approval
// gates, GL resolution, and persistence.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coastalmech/apflow/internal/approval"
	"github.com/coastalmech/apflow/internal/classify"
	"github.com/coastalmech/apflow/internal/extraction"
	"github.com/coastalmech/apflow/internal/glrules"
	"github.com/coastalmech/apflow/internal/ingest"
	"github.com/coastalmech/apflow/internal/merge"
	"github.com/coastalmech/apflow/internal/model"
	"github.com/coastalmech/apflow/internal/reconcile"
)

// Tables holds the reference data joined into every record.
type Tables struct {
	VendorAccounts map[string]model.VendorAccounts
	VendorMatches  map[string]model.VendorMatch
}

// Config holds configuration options for the batch engine.
type Config struct {
	CompanyCode   string
	BatchCode     string
	POGateTimeout time.Duration
	// Workers bounds the extraction stage's concurrency. Zero means
	// one worker per CPU.
	Workers int
	Rules   glrules.Config
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CompanyCode:   "10",
		POGateTimeout: time.Hour,
		Rules:         glrules.DefaultConfig(),
	}
}

// Summary reports what a batch run produced.
type Summary struct {
	RunID      string
	BatchCode  string
	Total      int
	Saved      int
	Skipped    int
	POBypassed bool
}

// Engine wires the pipeline stages across one batch run.
type Engine struct {
	storage    Storage
	vendorGate Gate
	poGate     Gate
	routing    *glrules.RoutingResolver
	resolver   *glrules.Resolver
	merger     *merge.Merger
	tables     Tables
	cfg        Config
	progress   func(done, total int)
}

// New creates a batch engine. routing may be nil when no routing table
// is configured; routing codes are then left empty.
func New(storage Storage, vendorGate, poGate Gate, routing *glrules.RoutingResolver, tables Tables, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Engine{
		storage:    storage,
		vendorGate: vendorGate,
		poGate:     poGate,
		routing:    routing,
		resolver:   glrules.NewResolver(cfg.Rules),
		merger:     merge.NewMerger(cfg.CompanyCode, cfg.BatchCode),
		tables:     tables,
		cfg:        cfg,
	}
}

// SetProgressFunc registers a callback invoked as extraction-stage
// documents complete.
func (e *Engine) SetProgressFunc(fn func(done, total int)) {
	e.progress = fn
}

// docState carries one document through the pipeline. A non-nil skip
// removes the document from all later stages.
type docState struct {
	skip   *model.SkippedDocument
	assign *model.GLAssignment
	key    string
	cand   model.CandidateRecord
	ident  model.IdentifierToken
}

// ProcessBatch runs the full pipeline over one batch of collaborator
// inputs.
func (e *Engine) ProcessBatch(ctx context.Context, batch *ingest.Batch) (*Summary, error) {
	docs := batch.Documents()
	sort.Strings(docs)

	summary := &Summary{
		RunID:     uuid.NewString(),
		BatchCode: e.cfg.BatchCode,
		Total:     len(docs),
	}
	slog.Info("Starting batch run",
		"run_id", summary.RunID,
		"batch", summary.BatchCode,
		"documents", len(docs))

	if err := e.storage.StartBatchRun(ctx, summary.RunID, summary.BatchCode, len(docs)); err != nil {
		return nil, fmt.Errorf("failed to start batch run: %w", err)
	}

	states, err := e.prepareDocuments(ctx, docs, batch)
	if err != nil {
		return nil, err
	}

	if err := e.runVendorGate(ctx, docs, states); err != nil {
		return nil, err
	}
	if err := e.runPOGate(ctx, docs, states, summary); err != nil {
		return nil, err
	}

	for _, key := range docs {
		state := states[key]
		if state.skip == nil {
			e.finalizeDocument(key, state, batch)
		}
		if state.skip != nil {
			slog.Info("Skipping document",
				"document", key,
				"reason", state.skip.Reason,
				"detail", state.skip.Detail)
			if err := e.storage.RecordSkip(ctx, summary.BatchCode, *state.skip); err != nil {
				return nil, fmt.Errorf("failed to record skip: %w", err)
			}
			summary.Skipped++
			continue
		}

		rec, skip := e.merger.Merge(key, merge.Inputs{
			Candidate:  state.cand,
			Vendor:     e.tables.VendorMatches[key],
			Assignment: state.assignment(),
			Identifier: state.ident,
		})
		if skip != nil {
			slog.Info("Skipping document", "document", key, "reason", skip.Reason, "detail", skip.Detail)
			if err := e.storage.RecordSkip(ctx, summary.BatchCode, *skip); err != nil {
				return nil, fmt.Errorf("failed to record skip: %w", err)
			}
			summary.Skipped++
			continue
		}

		if err := e.storage.SaveCanonicalRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to save record %s: %w", key, err)
		}
		summary.Saved++
	}

	if err := e.storage.CompleteBatchRun(ctx, summary.RunID, summary.Saved, summary.Skipped, summary.POBypassed); err != nil {
		return nil, fmt.Errorf("failed to complete batch run: %w", err)
	}

	slog.Info("Batch run complete",
		"run_id", summary.RunID,
		"saved", summary.Saved,
		"skipped", summary.Skipped,
		"po_bypassed", summary.POBypassed)
	return summary, nil
}

// prepareDocuments runs the CPU-bound stages (payload parsing,
// reconciliation, identifier classification) across a bounded worker
// pool.
func (e *Engine) prepareDocuments(ctx context.Context, docs []string, batch *ingest.Batch) (map[string]*docState, error) {
	jobs := make(chan string)
	results := make(chan *docState)

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				results <- e.prepareDocument(key, batch)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, key := range docs {
			select {
			case <-ctx.Done():
				return
			case jobs <- key:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	states := make(map[string]*docState, len(docs))
	done := 0
	for state := range results {
		states[state.key] = state
		done++
		if e.progress != nil {
			e.progress(done, len(docs))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch canceled during extraction: %w", err)
	}
	return states, nil
}

func (e *Engine) prepareDocument(key string, batch *ingest.Batch) *docState {
	state := &docState{key: key}

	raw, err := extraction.ParsePayload(key, batch.Payloads[key], batch.OCRTexts[key])
	if err != nil {
		state.skip = &model.SkippedDocument{
			Document:   key,
			Reason:     model.SkipUnparsablePayload,
			Detail:     err.Error(),
			RawPayload: batch.Payloads[key],
		}
		return state
	}

	cand, warnings := reconcile.Reconcile(raw)
	for _, w := range warnings {
		slog.Warn("Reconciliation warning",
			"document", key,
			"field", w.Field,
			"rule", w.Rule,
			"detail", w.Detail)
	}
	state.cand = cand
	state.ident = classify.Classify(batch.POCandidates[key])
	return state
}

// runVendorGate opens the vendor mailbox with every document that has
// a vendor match and blocks until the reviewer decides. No timeout:
// vendor identity can't be guessed past.
func (e *Engine) runVendorGate(ctx context.Context, docs []string, states map[string]*docState) error {
	var candidates []approval.Candidate
	for _, key := range docs {
		state := states[key]
		if state.skip != nil {
			continue
		}
		match, ok := e.tables.VendorMatches[key]
		if !ok || match.VendorCode == "" {
			state.skip = &model.SkippedDocument{
				Document: key,
				Reason:   model.SkipNoVendorMatch,
				Detail:   "matcher produced no vendor for document",
			}
			continue
		}
		candidates = append(candidates, approval.Candidate{
			Document: key,
			Summary:  fmt.Sprintf("%s (%s)", match.VendorName, match.VendorCode),
			Detail:   string(match.MatchedBy),
		})
	}
	if len(candidates) == 0 {
		return nil
	}

	if err := e.vendorGate.Open(candidates); err != nil {
		return fmt.Errorf("failed to open vendor mailbox: %w", err)
	}
	defer func() { _ = e.vendorGate.Close() }()

	slog.Info("Waiting for vendor review", "candidates", len(candidates))
	set, err := e.vendorGate.AwaitDecision(ctx, 0)
	if err != nil {
		return fmt.Errorf("vendor gate failed: %w", err)
	}

	for _, c := range candidates {
		state := states[c.Document]
		if !set.Contains(c.Document) {
			state.skip = &model.SkippedDocument{
				Document: c.Document,
				Reason:   model.SkipVendorRejected,
				Detail:   "vendor match rejected during review",
			}
			continue
		}
		match := e.tables.VendorMatches[c.Document]
		if _, ok := e.tables.VendorAccounts[match.VendorCode]; !ok {
			state.skip = &model.SkippedDocument{
				Document: c.Document,
				Reason:   model.SkipVendorNotInTable,
				Detail:   fmt.Sprintf("vendor %s has no lookup table entry", match.VendorCode),
			}
		}
	}
	return nil
}

// runPOGate opens the purchase-order mailbox so the reviewer can
// correct identifiers before distribution. The gate is a batch-level
// acknowledgment: every surviving document proceeds once the reviewer
// signals, or after the timeout.
func (e *Engine) runPOGate(ctx context.Context, docs []string, states map[string]*docState, summary *Summary) error {
	var candidates []approval.Candidate
	for _, key := range docs {
		state := states[key]
		if state.skip != nil {
			continue
		}
		candidates = append(candidates, approval.Candidate{
			Document: key,
			Summary:  state.ident.Value,
			Detail:   string(state.ident.Kind),
		})
	}
	if len(candidates) == 0 {
		return nil
	}

	if err := e.poGate.Open(candidates); err != nil {
		return fmt.Errorf("failed to open po mailbox: %w", err)
	}
	defer func() { _ = e.poGate.Close() }()

	slog.Info("Waiting for purchase-order review",
		"candidates", len(candidates),
		"timeout", e.cfg.POGateTimeout)
	set, err := e.poGate.AwaitDecision(ctx, e.cfg.POGateTimeout)
	if err != nil {
		return fmt.Errorf("po gate failed: %w", err)
	}
	if set.Bypassed {
		slog.Warn("Purchase-order review timed out; documents proceed as approved",
			"candidates", len(candidates))
		summary.POBypassed = true
	}
	return nil
}

// finalizeDocument resolves the GL assignment and routing code for one
// surviving document.
func (e *Engine) finalizeDocument(key string, state *docState, batch *ingest.Batch) {
	match := e.tables.VendorMatches[key]
	accounts := e.tables.VendorAccounts[match.VendorCode]

	remark := ""
	if state.ident.Kind == model.KindRemark {
		remark = state.ident.Value
	}
	assign := e.resolver.Resolve(accounts, state.ident, remark)
	if e.routing != nil {
		assign.RoutingCode = e.routing.Resolve(batch.POTexts[key], assign.JobNumber)
	}
	state.assign = &assign
}

func (s *docState) assignment() model.GLAssignment {
	if s.assign == nil {
		return model.GLAssignment{}
	}
	return *s.assign
}
