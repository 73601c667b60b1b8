package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/aretw0/dusk/pkg/core"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func printEntry(w io.Writer, e core.JournalEntry) {
	fmt.Fprintf(w, "%s  %-14s  %s\n", e.ID, ago(e.CreatedAt), e.Content)
}

func printMessage(w io.Writer, m core.BoardMessage) {
	mark := " "
	if m.HasResonated {
		mark = "*"
	}
	id := m.ID
	if m.Ref().IsSynthetic() {
		id = "~"
	}
	fmt.Fprintf(w, "%s %3d  %-36s  %-14s  %s\n", mark, m.ResonanceCount, id, ago(m.CreatedAt), m.Content)
}
