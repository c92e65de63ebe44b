package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// PlainFormatter writes an aligned table of media entries without colour,
// followed by a one-line summary.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, "STATUS\tSIZE\tCREATED\tPATH"); err != nil {
		return err
	}
	for _, e := range r.Media() {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Status, e.SizeHuman, e.Created, e.Path); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d entries, %d media, %d created, %d skipped\n",
		r.Stats.Entries, r.Stats.Media, r.Stats.Created, r.Stats.Skipped)
	return err
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
