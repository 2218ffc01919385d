package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentworkforce/notecheck/internal/reconcile"
)

func TestPrinterEventLines(t *testing.T) {
	cases := []struct {
		event reconcile.Event
		want  string
	}{
		{reconcile.Event{Kind: reconcile.Added, Title: "Trip Plan"}, "New Note: Trip Plan\n"},
		{reconcile.Event{Kind: reconcile.ContentShrunk, Title: "Trip Plan", Before: 500, After: 300}, "Note: Trip Plan reduced from 500 to 300 : Reduced by 200 bytes\n"},
		{reconcile.Event{Kind: reconcile.AttachmentShrunk, Title: "Scan", Before: 4096, After: 0}, "Note: Scan embedded attachment reduced from 4096 to 0 : Change 4096 bytes\n"},
		{reconcile.Event{Kind: reconcile.Renamed, Title: "New", OldTitle: "Old"}, "Note: Old changed to New\n"},
		{reconcile.Event{Kind: reconcile.Removed, Title: "Receipts"}, "Removed Note: Receipts\n"},
	}
	for _, tc := range cases {
		t.Run(string(tc.event.Kind), func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).Event(tc.event)
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestPrinterSummaryAndSave(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Summary(1, 2)
	p.Saved()
	p.SaveFailed(errors.New("disk full"))
	assert.Equal(t, "Old note count: 1 New note count: 2\nVerification complete\nLocal store updated\nUnexpected error: disk full\n", buf.String())
}

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":     true,
		"Y\n":     true,
		"  y  \n": true,
		"y":       true,
		"yes\n":   false,
		"n\n":     false,
		"\n":      false,
		"":        false,
	}
	for input, want := range cases {
		var out bytes.Buffer
		got, err := Confirm(strings.NewReader(input), &out, SavePrompt)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "To save changes, type (Y): ", out.String())
	}
}

func TestConfirmReadError(t *testing.T) {
	got, err := Confirm(iotest.ErrReader(errors.New("tty gone")), nil, SavePrompt)
	require.Error(t, err)
	assert.False(t, got)
}
