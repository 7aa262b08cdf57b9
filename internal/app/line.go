package app

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/dshills/piecetree/internal/engine/piecetree"
)

func init() {
	register(&Command{
		Name:    "line",
		Usage:   "line FILE N",
		Summary: "print line N (1-based) without its terminator",
		Run:     runLine,
	})
}

func runLine(app *Application, _ context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: line needs FILE and N", ErrUsage)
	}

	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: line number %q: %v", ErrUsage, args[1], err)
	}

	doc, err := app.documents.Open(args[0])
	if err != nil {
		return NewOperationError("line", args[0], err)
	}

	snap := doc.Engine.ReferenceSnapshot()
	if n < int(piecetree.LineBeginning) || n > snap.LineCount() {
		return NewOperationError("line", args[0],
			fmt.Errorf("%w: %d not in [1, %d]", ErrLineOutOfRange, n, snap.LineCount()))
	}

	text, status, _ := snap.LineContentCRLF(piecetree.Line(n))
	lr := snap.LineRangeWithNewline(piecetree.Line(n))
	app.logger.Zap().Debug("line",
		zap.String("file", doc.Name),
		zap.Int("line", n),
		zap.Int("first", int(lr.First)),
		zap.Int("last", int(lr.Last)),
		zap.Stringer("crlf", status),
	)

	_, err = fmt.Fprintln(app.stdout, text)
	return err
}
