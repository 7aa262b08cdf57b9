package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand/v2"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/piecetree/internal/config"
	"github.com/dshills/piecetree/internal/engine"
	"github.com/dshills/piecetree/internal/engine/piecetree"
)

func init() {
	register(&Command{
		Name:    "stress",
		Usage:   "stress [-seed N] [-ops N] [-readers N] [-every N] [-max-insert N] [FILE]",
		Summary: "run random edits, checking the tree and verifying snapshots concurrently",
		Run:     runStress,
	})
}

// StressOptions configures a stress run.
type StressOptions struct {
	Seed          int64
	Ops           int
	Readers       int
	SnapshotEvery int
	MaxInsert     int
}

// StressOptionsFrom converts the stress config section.
func StressOptionsFrom(c config.StressConfig) StressOptions {
	return StressOptions{
		Seed:          c.Seed,
		Ops:           c.Ops,
		Readers:       c.Readers,
		SnapshotEvery: c.SnapshotEvery,
		MaxInsert:     c.MaxInsert,
	}
}

// StressResult summarizes a completed run.
type StressResult struct {
	Ops       int
	Snapshots int
	Length    int
	Lines     int
	Pieces    int
}

// stressAlphabet biases content toward line breaks so line queries get
// exercised, including "\r\n" pairs split across edits.
const stressAlphabet = "abcdefghij \n\n\r"

// Stress applies opts.Ops random operations to e. Inserts and deletes are
// mirrored on a string model and compared after every step; undo and redo
// must land on a state seen before. Every SnapshotEvery steps an owning
// snapshot is handed to Readers goroutines that verify it while editing
// continues.
func Stress(ctx context.Context, e *engine.Engine, opts StressOptions, m *Metrics, log *Logger) (StressResult, error) {
	if opts.MaxInsert <= 0 {
		opts.MaxInsert = 1
	}
	if opts.SnapshotEvery <= 0 {
		opts.SnapshotEvery = 1
	}
	if m == nil {
		m = NewMetrics()
	}
	if log == nil {
		log = NullLogger
	}

	seed := uint64(opts.Seed)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Readers > 0 {
		g.SetLimit(opts.Readers)
	}

	model := e.Text()
	seen := map[uint64]struct{}{hashText(model): {}}
	var res StressResult

	run := func() error {
		for i := 0; i < opts.Ops; i++ {
			if err := gctx.Err(); err != nil {
				return err
			}
			var err error
			model, err = stressStep(e, rng, model, seen, opts.MaxInsert, m)
			if err != nil {
				return fmt.Errorf("op %d: %w", i+1, err)
			}
			res.Ops++

			if opts.Readers > 0 && (i+1)%opts.SnapshotEvery == 0 {
				snap, want := e.Snapshot(), model
				res.Snapshots++
				for r := 0; r < opts.Readers; r++ {
					start := piecetree.CharOffset(len(want) * r / opts.Readers)
					g.Go(func() error {
						return verifySnapshot(snap, want, start, m)
					})
				}
			}
		}
		return nil
	}

	// A failing reader cancels gctx; its error is the one worth reporting.
	err := run()
	if werr := g.Wait(); werr != nil {
		err = werr
	}
	if err != nil {
		return res, err
	}

	res.Length = int(e.Len())
	res.Lines = e.LineCount()
	res.Pieces = e.PieceCount()
	log.Debug("stress finished: %d ops, %d snapshots, %d misses", res.Ops, res.Snapshots, m.Snapshot().Misses)
	return res, nil
}

func stressStep(e *engine.Engine, rng *rand.Rand, model string, seen map[uint64]struct{}, maxInsert int, m *Metrics) (string, error) {
	timer := StartTimer()

	switch r := rng.IntN(100); {
	case r < 50 || len(model) == 0:
		off := rng.IntN(len(model) + 1)
		text := randomText(rng, 1+rng.IntN(maxInsert))
		if _, err := e.Insert(engine.CharOffset(off), text); err != nil {
			return model, err
		}
		m.Record(OpInsert, timer.Stop())
		model = model[:off] + text + model[off:]

	case r < 80:
		off := rng.IntN(len(model))
		n := 1 + rng.IntN(min(len(model)-off, maxInsert))
		if err := e.Delete(engine.CharOffset(off), engine.Length(n)); err != nil {
			return model, err
		}
		m.Record(OpDelete, timer.Stop())
		model = model[:off] + model[off+n:]

	default:
		op, apply := OpUndo, e.Undo
		if r >= 90 {
			op, apply = OpRedo, e.Redo
		}
		if _, err := apply(); err != nil {
			if errors.Is(err, engine.ErrNothingToUndo) || errors.Is(err, engine.ErrNothingToRedo) {
				m.RecordMiss()
				return model, nil
			}
			return model, err
		}
		m.Record(op, timer.Stop())
		text := e.Text()
		if _, ok := seen[hashText(text)]; !ok {
			return model, fmt.Errorf("%w: %s produced a state never seen before", ErrStressMismatch, op)
		}
		model = text
	}

	if got := e.Text(); got != model {
		return model, fmt.Errorf("%w: text %q, model %q", ErrStressMismatch, abbreviate(got), abbreviate(model))
	}
	if want := strings.Count(model, "\n") + 1; e.LineCount() != want {
		return model, fmt.Errorf("%w: %d lines, model has %d", ErrStressMismatch, e.LineCount(), want)
	}
	seen[hashText(model)] = struct{}{}

	timer = StartTimer()
	if err := e.Check(); err != nil {
		return model, err
	}
	m.Record(OpCheck, timer.Stop())
	return model, nil
}

// verifySnapshot reads snap with both walkers from start and compares
// every view with want.
func verifySnapshot(snap *piecetree.OwningSnapshot, want string, start piecetree.CharOffset, m *Metrics) error {
	timer := StartTimer()

	if got := snap.Text(); got != want {
		return fmt.Errorf("%w: snapshot text %q, want %q", ErrStressMismatch, abbreviate(got), abbreviate(want))
	}

	var fwd strings.Builder
	w := piecetree.NewTreeWalker(snap, start)
	for b, ok := w.Next(); ok; b, ok = w.Next() {
		fwd.WriteByte(b)
	}
	if fwd.String() != want[start:] {
		return fmt.Errorf("%w: forward walk from %d differs", ErrStressMismatch, start)
	}

	rw := piecetree.NewReverseTreeWalker(snap, start)
	for i := int(start) - 1; i >= 0; i-- {
		b, ok := rw.Next()
		if !ok || b != want[i] {
			return fmt.Errorf("%w: reverse walk from %d differs at %d", ErrStressMismatch, start, i)
		}
	}
	if !rw.Exhausted() {
		return fmt.Errorf("%w: reverse walk from %d not exhausted", ErrStressMismatch, start)
	}

	lines := strings.Split(want, "\n")
	if snap.LineCount() != len(lines) {
		return fmt.Errorf("%w: snapshot has %d lines, want %d", ErrStressMismatch, snap.LineCount(), len(lines))
	}
	line := snap.LineAt(start)
	if got, _ := snap.LineContent(line); got != lines[line-1] {
		return fmt.Errorf("%w: line %d is %q, want %q", ErrStressMismatch, line, abbreviate(got), abbreviate(lines[line-1]))
	}

	m.Record(OpVerify, timer.Stop())
	return nil
}

func randomText(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = stressAlphabet[rng.IntN(len(stressAlphabet))]
	}
	return string(b)
}

func hashText(s string) uint64 {
	h := fnv.New64a()
	_, _ = io.WriteString(h, s)
	return h.Sum64()
}

func abbreviate(s string) string {
	const limit = 40
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func runStress(app *Application, ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stress", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	seed := fs.Int64("seed", 0, "random seed")
	ops := fs.Int("ops", 0, "number of operations")
	readers := fs.Int("readers", 0, "snapshot verifier goroutines")
	every := fs.Int("every", 0, "operations between snapshots")
	maxInsert := fs.Int("max-insert", 0, "longest random insert")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("%w: stress takes at most one FILE", ErrUsage)
	}

	overrides := map[string]string{
		"seed": "stress.seed", "ops": "stress.ops", "readers": "stress.readers",
		"every": "stress.snapshotEvery", "max-insert": "stress.maxInsert",
	}
	values := map[string]int64{
		"seed": *seed, "ops": int64(*ops), "readers": int64(*readers),
		"every": int64(*every), "max-insert": int64(*maxInsert),
	}
	fs.Visit(func(f *flag.Flag) {
		app.cfg.SetOverride(overrides[f.Name], values[f.Name])
	})
	if err := app.cfg.Validate(); err != nil {
		return NewOperationError("stress", "", err)
	}
	opts := StressOptionsFrom(app.cfg.Stress())

	var e *engine.Engine
	target := "<empty>"
	if fs.NArg() == 1 {
		target = fs.Arg(0)
		doc, err := app.documents.Open(target)
		if err != nil {
			return NewOperationError("stress", target, err)
		}
		e = doc.Engine
	} else {
		e = engine.New(app.engineOptions()...)
	}

	res, err := Stress(ctx, e, opts, app.metrics, app.logger.WithComponent("stress"))
	if err != nil {
		return NewOperationError("stress", target, err).WithContext(fmt.Sprintf("seed %d", opts.Seed))
	}

	fmt.Fprintf(app.stdout, "ok: seed=%d ops=%d snapshots=%d length=%d lines=%d pieces=%d\n",
		opts.Seed, res.Ops, res.Snapshots, res.Length, res.Lines, res.Pieces)
	_, err = app.metrics.Snapshot().WriteTo(app.stdout)
	return err
}
