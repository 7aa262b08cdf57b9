package app

import (
	"context"
	"fmt"

	"github.com/rivo/uniseg"

	"github.com/dshills/piecetree/internal/engine"
	"github.com/dshills/piecetree/internal/engine/piecetree"
)

func init() {
	register(&Command{
		Name:    "stats",
		Usage:   "stats FILE...",
		Summary: "print size, line, grapheme and width statistics",
		Run:     runStats,
	})
}

// FileStats describes one document.
type FileStats struct {
	Bytes     int
	Lines     int
	Graphemes int
	// MaxWidth is the display width of the widest line, in cells.
	MaxWidth   int
	WidestLine engine.Line
	CRLFLines  int
	Pieces     int
}

// ComputeStats measures the current content of e. Line terminators count
// as one grapheme each; "\r\n" is a single cluster.
func ComputeStats(e *engine.Engine) FileStats {
	snap := e.ReferenceSnapshot()
	st := FileStats{
		Bytes:      int(snap.Length()),
		Lines:      snap.LineCount(),
		Pieces:     e.PieceCount(),
		WidestLine: piecetree.LineBeginning,
	}

	for line := piecetree.LineBeginning; int(line) <= st.Lines; line++ {
		text, status, _ := snap.LineContentCRLF(line)
		if status == piecetree.CRLFComplete {
			st.CRLFLines++
		}
		st.Graphemes += uniseg.GraphemeClusterCount(text)
		if w := uniseg.StringWidth(text); w > st.MaxWidth {
			st.MaxWidth = w
			st.WidestLine = line
		}
	}
	st.Graphemes += st.Lines - 1

	return st
}

func runStats(app *Application, ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: stats needs at least one file", ErrUsage)
	}

	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := app.documents.Open(path)
		if err != nil {
			return NewOperationError("stats", path, err)
		}
		st := ComputeStats(doc.Engine)
		fmt.Fprintf(app.stdout, "%s: bytes=%d lines=%d graphemes=%d width=%d (line %d) crlf=%d pieces=%d\n",
			doc.Name, st.Bytes, st.Lines, st.Graphemes, st.MaxWidth, st.WidestLine, st.CRLFLines, st.Pieces)
	}
	return nil
}
