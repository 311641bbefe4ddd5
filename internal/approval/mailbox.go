// Package approval implements the file-mailbox protocol that hands
// batch state to a human reviewer running in a separate process. The
// mailbox is durable on purpose: the reviewer may take minutes or
// hours, and the only coordination channel the two processes share is
// the filesystem.
package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	candidatesFile = "candidates.json"
	pendingFile    = "pending.flag"
	decisionFile   = "decision.json"

	// defaultPollInterval is the ticker fallback behind the fsnotify
	// watcher. One second is a deliberate simplicity/latency trade-off
	// against a human response time measured in minutes.
	defaultPollInterval = time.Second
)

// Candidate is one entry awaiting review.
type Candidate struct {
	Document string `json:"document"`
	Summary  string `json:"summary"`
	Detail   string `json:"detail,omitempty"`
}

// Decision is the terminal file written by the reviewing process.
type Decision struct {
	Approved     bool     `json:"approved"`
	ApprovedKeys []string `json:"approved_keys"`
}

// ApprovedSet is the outcome of one gate. Bypassed is true only when
// the wait timed out and processing proceeded as if approved; explicit
// human decisions always leave it false.
type ApprovedSet struct {
	Keys     map[string]struct{}
	Bypassed bool
}

// Contains reports whether a document key was approved.
func (s ApprovedSet) Contains(key string) bool {
	_, ok := s.Keys[key]
	return ok
}

// Mailbox is one durable approval channel. Two instances exist per
// batch run (vendor, po); they are never open against the same
// document set at the same time.
type Mailbox struct {
	name string
	dir  string
	poll time.Duration
}

// NewMailbox returns a mailbox named under root. Nothing is touched on
// disk until Open.
func NewMailbox(root, name string) *Mailbox {
	return &Mailbox{
		name: name,
		dir:  filepath.Join(root, name),
		poll: defaultPollInterval,
	}
}

// Dir returns the mailbox directory, for the reviewing process.
func (m *Mailbox) Dir() string {
	return m.dir
}

// Open clears any prior mailbox state, writes the candidate list, and
// marks the mailbox pending. Stale approvals from a previous run can
// never leak into a new one.
func (m *Mailbox) Open(candidates []Candidate) error {
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to clear %s mailbox: %w", m.name, err)
	}
	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s mailbox: %w", m.name, err)
	}

	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, candidatesFile), data, 0o640); err != nil {
		return fmt.Errorf("failed to write candidates: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, pendingFile), []byte(m.name+"_approval_needed"), 0o640); err != nil {
		return fmt.Errorf("failed to write pending flag: %w", err)
	}

	slog.Info("Approval mailbox opened", "mailbox", m.name, "candidates", len(candidates))
	return nil
}

// Candidates reads the pending candidate list, for the reviewing
// process.
func (m *Mailbox) Candidates() ([]Candidate, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, candidatesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s candidates: %w", m.name, err)
	}
	var candidates []Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode %s candidates: %w", m.name, err)
	}
	return candidates, nil
}

// Pending reports whether the mailbox is awaiting a decision.
func (m *Mailbox) Pending() bool {
	_, err := os.Stat(filepath.Join(m.dir, pendingFile))
	return err == nil
}

// Decide records the reviewer's decision and clears the pending flag.
// The decision file is written atomically so the waiting process never
// observes a partial write.
func (m *Mailbox) Decide(decision Decision) error {
	data, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode decision: %w", err)
	}

	tmp := filepath.Join(m.dir, decisionFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("failed to write decision: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(m.dir, decisionFile)); err != nil {
		return fmt.Errorf("failed to commit decision: %w", err)
	}

	// Flag removal after the decision file exists; the waiter accepts
	// either signal.
	if err := os.Remove(filepath.Join(m.dir, pendingFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear pending flag: %w", err)
	}
	return nil
}

// AwaitDecision blocks until the reviewing process writes a terminal
// decision, the pending flag disappears, the timeout elapses, or ctx is
// canceled. A timeout of zero means wait indefinitely. Timeout expiry
// approves every candidate and sets Bypassed.
func (m *Mailbox) AwaitDecision(ctx context.Context, timeout time.Duration) (ApprovedSet, error) {
	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	// The watcher wakes us the moment the reviewer touches the mailbox;
	// the ticker is the fallback when the watcher cannot be established
	// (network filesystems).
	var events <-chan fsnotify.Event
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer func() { _ = watcher.Close() }()
		if err := watcher.Add(m.dir); err == nil {
			events = watcher.Events
		}
	}

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		if set, ok := m.checkDecision(); ok {
			return set, nil
		}

		select {
		case <-ctx.Done():
			return ApprovedSet{}, fmt.Errorf("%s approval wait canceled: %w", m.name, ctx.Err())
		case <-timeoutC:
			slog.Warn("Approval wait timed out, proceeding as approved",
				"mailbox", m.name, "timeout", timeout)
			return m.approveAll(true)
		case <-events:
		case <-ticker.C:
		}
	}
}

// Close removes the pending marker.
func (m *Mailbox) Close() error {
	if err := os.Remove(filepath.Join(m.dir, pendingFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to close %s mailbox: %w", m.name, err)
	}
	return nil
}

// checkDecision looks for a terminal signal: an explicit decision file,
// or the pending flag gone (the reviewer acknowledged without keys,
// which approves everything).
func (m *Mailbox) checkDecision() (ApprovedSet, bool) {
	data, err := os.ReadFile(filepath.Join(m.dir, decisionFile))
	if err == nil {
		var decision Decision
		if err := json.Unmarshal(data, &decision); err != nil {
			// Partial or corrupt write; keep waiting.
			slog.Debug("Unreadable decision file, still waiting", "mailbox", m.name, "error", err)
			return ApprovedSet{}, false
		}
		if !decision.Approved {
			return ApprovedSet{Keys: map[string]struct{}{}}, true
		}
		keys := make(map[string]struct{}, len(decision.ApprovedKeys))
		for _, k := range decision.ApprovedKeys {
			keys[k] = struct{}{}
		}
		return ApprovedSet{Keys: keys}, true
	}

	if !m.Pending() {
		set, err := m.approveAll(false)
		if err != nil {
			return ApprovedSet{}, false
		}
		return set, true
	}
	return ApprovedSet{}, false
}

// approveAll approves every pending candidate.
func (m *Mailbox) approveAll(bypassed bool) (ApprovedSet, error) {
	candidates, err := m.Candidates()
	if err != nil {
		return ApprovedSet{}, err
	}
	keys := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		keys[c.Document] = struct{}{}
	}
	return ApprovedSet{Keys: keys, Bypassed: bypassed}, nil
}
