package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/coastalmech/apflow/internal/approval"
)

// Reviewer runs the interactive approval session for one mailbox. It
// is the human half of the approval protocol: the engine process
// blocks on the mailbox while a reviewer runs this in a second
// terminal.
type Reviewer struct {
	in  *NonBlockingReader
	out io.Writer
}

// NewReviewer creates a reviewer reading selections from in and
// rendering to out.
func NewReviewer(in io.Reader, out io.Writer) *Reviewer {
	return &Reviewer{
		in:  NewNonBlockingReader(in),
		out: out,
	}
}

// Review renders the pending candidates and prompts until the reviewer
// produces a decision.
func (r *Reviewer) Review(ctx context.Context, title string, candidates []approval.Candidate) (approval.Decision, error) {
	fmt.Fprintln(r.out, FormatTitle(title))
	r.renderTable(candidates)

	for {
		fmt.Fprintln(r.out)
		fmt.Fprint(r.out, FormatPrompt("[a]pprove all, [n]one, or row numbers (e.g. 1,3-5)"))

		input, err := r.in.ReadLine(ctx)
		if err != nil {
			return approval.Decision{}, err
		}

		switch strings.ToLower(input) {
		case "a", "all":
			keys := make([]string, len(candidates))
			for i, c := range candidates {
				keys[i] = c.Document
			}
			return approval.Decision{Approved: true, ApprovedKeys: keys}, nil
		case "n", "none":
			return approval.Decision{Approved: false}, nil
		case "":
			continue
		}

		rows, err := parseSelection(input, len(candidates))
		if err != nil {
			fmt.Fprintln(r.out, FormatError(err.Error()))
			continue
		}
		keys := make([]string, len(rows))
		for i, row := range rows {
			keys[i] = candidates[row-1].Document
		}
		return approval.Decision{Approved: true, ApprovedKeys: keys}, nil
	}
}

func (r *Reviewer) renderTable(candidates []approval.Candidate) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Document", "Summary", "Detail"})
	for i, c := range candidates {
		t.AppendRow(table.Row{i + 1, c.Document, c.Summary, c.Detail})
	}
	t.Render()
}

// parseSelection expands "1,3-5" style input into 1-based row numbers.
func parseSelection(input string, max int) ([]int, error) {
	seen := make(map[int]struct{})
	var rows []int

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi := part, part
		if dash := strings.Index(part, "-"); dash > 0 {
			lo, hi = strings.TrimSpace(part[:dash]), strings.TrimSpace(part[dash+1:])
		}
		start, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q", part)
		}
		end, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q", part)
		}
		if start > end {
			start, end = end, start
		}
		for i := start; i <= end; i++ {
			if i < 1 || i > max {
				return nil, fmt.Errorf("row %d out of range 1-%d", i, max)
			}
			if _, dup := seen[i]; dup {
				continue
			}
			seen[i] = struct{}{}
			rows = append(rows, i)
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows selected")
	}
	return rows, nil
}
