// Package report renders reconciliation events for the console and asks the
// user whether to persist the new snapshot.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/agentworkforce/notecheck/internal/reconcile"
)

const SavePrompt = "To save changes, type (Y): "

type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = io.Discard
	}
	return &Printer{out: out}
}

func (p *Printer) Event(e reconcile.Event) {
	switch e.Kind {
	case reconcile.Added:
		fmt.Fprintf(p.out, "New Note: %s\n", e.Title)
	case reconcile.ContentShrunk:
		fmt.Fprintf(p.out, "Note: %s reduced from %d to %d : Reduced by %d bytes\n", e.Title, e.Before, e.After, e.Delta())
	case reconcile.AttachmentShrunk:
		fmt.Fprintf(p.out, "Note: %s embedded attachment reduced from %d to %d : Change %d bytes\n", e.Title, e.Before, e.After, e.Delta())
	case reconcile.Renamed:
		fmt.Fprintf(p.out, "Note: %s changed to %s\n", e.OldTitle, e.Title)
	case reconcile.Removed:
		fmt.Fprintf(p.out, "Removed Note: %s\n", e.Title)
	}
}

func (p *Printer) Summary(oldCount, newCount int) {
	fmt.Fprintf(p.out, "Old note count: %d New note count: %d\n", oldCount, newCount)
	fmt.Fprintln(p.out, "Verification complete")
}

func (p *Printer) Saved() {
	fmt.Fprintln(p.out, "Local store updated")
}

func (p *Printer) SaveFailed(err error) {
	fmt.Fprintf(p.out, "Unexpected error: %v\n", err)
}

// Confirm writes prompt to out and reads one line from in. Only "y" or "Y",
// ignoring surrounding whitespace, is a yes. End of input is a no.
func Confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if out != nil {
		if _, err := io.WriteString(out, prompt); err != nil {
			return false, err
		}
	}
	if in == nil {
		return false, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}
