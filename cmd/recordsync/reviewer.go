package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"RecordSync/internal/ports"
)

// promptReviewer asks the operator on the terminal and waits for y or n.
type promptReviewer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ ports.Reviewer = (*promptReviewer)(nil)

func newPromptReviewer(in io.Reader, out io.Writer) *promptReviewer {
	return &promptReviewer{in: bufio.NewReader(in), out: out}
}

type answer struct {
	line string
	err  error
}

// Confirm returns true only for an explicit yes. End of input counts as no.
func (r *promptReviewer) Confirm(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintf(r.out, "%s [y/N]: ", prompt)

	ch := make(chan answer, 1)
	go func() {
		line, err := r.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, fmt.Errorf("read answer: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
