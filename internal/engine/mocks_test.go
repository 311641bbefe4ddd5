package engine

import (
	"context"
	"sync"
	"time"

	"github.com/coastalmech/apflow/internal/approval"
	"github.com/coastalmech/apflow/internal/model"
)

// mockStorage collects results in memory.
type mockStorage struct {
	mu      sync.Mutex
	records []model.CanonicalRecord
	skips   []model.SkippedDocument
	runs    map[string]bool
	saveErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{runs: make(map[string]bool)}
}

func (m *mockStorage) SaveCanonicalRecord(_ context.Context, rec model.CanonicalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockStorage) RecordSkip(_ context.Context, _ string, skip model.SkippedDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skips = append(m.skips, skip)
	return nil
}

func (m *mockStorage) StartBatchRun(_ context.Context, runID, _ string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID] = false
	return nil
}

func (m *mockStorage) CompleteBatchRun(_ context.Context, runID string, _, _ int, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID] = true
	return nil
}

func (m *mockStorage) skipReasons() map[string]model.SkipReason {
	m.mu.Lock()
	defer m.mu.Unlock()
	reasons := make(map[string]model.SkipReason, len(m.skips))
	for _, s := range m.skips {
		reasons[s.Document] = s.Reason
	}
	return reasons
}

// mockGate replays a scripted decision without touching the
// filesystem.
type mockGate struct {
	opened     []approval.Candidate
	set        approval.ApprovedSet
	approveAll bool
	closed     bool
}

func (g *mockGate) Open(candidates []approval.Candidate) error {
	g.opened = candidates
	return nil
}

func (g *mockGate) AwaitDecision(_ context.Context, _ time.Duration) (approval.ApprovedSet, error) {
	if g.approveAll {
		keys := make(map[string]struct{}, len(g.opened))
		for _, c := range g.opened {
			keys[c.Document] = struct{}{}
		}
		return approval.ApprovedSet{Keys: keys, Bypassed: g.set.Bypassed}, nil
	}
	return g.set, nil
}

func (g *mockGate) Close() error {
	g.closed = true
	return nil
}
