package schema

import (
	"fmt"
	"io"
	"strings"
)

// WriteText writes a compact, line-oriented rendering of the snapshot.
func (s *Snapshot) WriteText(w io.Writer) error {
	for i, t := range s.Tables {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "TABLE %s\n", t.Name); err != nil {
			return err
		}
		for _, c := range t.Columns {
			if _, err := fmt.Fprintf(w, "  %s %s\n", c.Name, columnSignature(c)); err != nil {
				return err
			}
		}
		for _, idx := range t.Indexes {
			if _, err := fmt.Fprintf(w, "  INDEX %s %s\n", idx.Name, indexSignature(idx)); err != nil {
				return err
			}
		}
		for _, fk := range t.ForeignKeys {
			if _, err := fmt.Fprintf(w, "  FK %s\n", foreignKeySignature(fk)); err != nil {
				return err
			}
		}
	}
	return nil
}

// String renders the snapshot with WriteText.
func (s *Snapshot) String() string {
	var b strings.Builder
	_ = s.WriteText(&b)
	return b.String()
}
