package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/piecetree/internal/engine"
	"github.com/dshills/piecetree/internal/engine/tracking"
)

func init() {
	register(&Command{
		Name:    "replay",
		Usage:   "replay [-diff] FILE SCRIPT.yaml",
		Summary: "apply a YAML edit script to FILE and print the result",
		Run:     runReplay,
	})
}

// Script is a list of edit steps loaded from YAML:
//
//	steps:
//	  - op: insert
//	    offset: 0
//	    text: "hello "
//	  - op: delete
//	    offset: 0
//	    count: 1
//	  - op: undo
//	  - op: batch
//	    steps:
//	      - {op: insert, offset: 0, text: "a"}
//	      - {op: replace, offset: 1, count: 2, text: "b"}
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one scripted operation. Offset, Count and Text apply to edits,
// Name to checkpoints, and Steps to batches.
type Step struct {
	Op     string `yaml:"op"`
	Offset int    `yaml:"offset"`
	Count  int    `yaml:"count"`
	Text   string `yaml:"text"`
	Name   string `yaml:"name"`
	Steps  []Step `yaml:"steps"`
}

// ParseScript decodes a script and checks every step is well formed.
// Unknown keys are rejected.
func ParseScript(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}

	for i, st := range s.Steps {
		if err := st.validate(false); err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i+1, err)
		}
	}
	return &s, nil
}

func (st Step) validate(inBatch bool) error {
	switch st.Op {
	case "insert", "delete", "replace":
	case "undo", "redo":
		if inBatch {
			return fmt.Errorf("%s not allowed in a batch", st.Op)
		}
	case "checkpoint", "restore":
		if inBatch {
			return fmt.Errorf("%s not allowed in a batch", st.Op)
		}
		if st.Name == "" {
			return fmt.Errorf("%s needs a name", st.Op)
		}
	case "batch":
		if inBatch {
			return errors.New("nested batch")
		}
		for i, inner := range st.Steps {
			if err := inner.validate(true); err != nil {
				return fmt.Errorf("batch step %d: %v", i+1, err)
			}
		}
	case "":
		return errors.New("missing op")
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}

// Replayer applies scripts to an engine, recording metrics.
type Replayer struct {
	e       *engine.Engine
	log     *Logger
	metrics *Metrics
}

// NewReplayer creates a Replayer for e.
func NewReplayer(e *engine.Engine, log *Logger, metrics *Metrics) *Replayer {
	if log == nil {
		log = NullLogger
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Replayer{e: e, log: log, metrics: metrics}
}

// Apply runs every step in order. Undo and redo with nothing to apply are
// counted as misses and skipped. The first failing step stops the replay.
func (r *Replayer) Apply(ctx context.Context, s *Script) error {
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.step(st); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
	}
	return nil
}

func (r *Replayer) step(st Step) error {
	timer := StartTimer()
	off, n := engine.CharOffset(st.Offset), engine.Length(st.Count)

	switch st.Op {
	case "insert":
		_, err := r.e.Insert(off, st.Text)
		r.metrics.Record(OpInsert, timer.Stop())
		return err
	case "delete":
		err := r.e.Delete(off, n)
		r.metrics.Record(OpDelete, timer.Stop())
		return err
	case "replace":
		_, err := r.e.Replace(off, n, st.Text)
		r.metrics.Record(OpReplace, timer.Stop())
		return err
	case "undo":
		_, err := r.e.Undo()
		return r.history(OpUndo, timer, err, engine.ErrNothingToUndo)
	case "redo":
		_, err := r.e.Redo()
		return r.history(OpRedo, timer, err, engine.ErrNothingToRedo)
	case "checkpoint":
		r.e.CreateCheckpoint(st.Name)
		return nil
	case "restore":
		cp, err := r.e.GetCheckpointByName(st.Name)
		if err != nil {
			return err
		}
		return r.e.RestoreCheckpoint(cp.ID)
	case "batch":
		err := r.e.Batch(func(b *engine.Batch) error {
			for i, inner := range st.Steps {
				if err := batchStep(b, inner); err != nil {
					return fmt.Errorf("batch step %d (%s): %w", i+1, inner.Op, err)
				}
			}
			return nil
		})
		r.metrics.Record(OpBatch, timer.Stop())
		return err
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidScript, st.Op)
	}
}

func (r *Replayer) history(op Op, timer *Timer, err, nothing error) error {
	if errors.Is(err, nothing) {
		r.metrics.RecordMiss()
		r.log.Debug("%s: nothing to apply", op)
		return nil
	}
	if err == nil {
		r.metrics.Record(op, timer.Stop())
	}
	return err
}

func batchStep(b *engine.Batch, st Step) error {
	off, n := engine.CharOffset(st.Offset), engine.Length(st.Count)
	switch st.Op {
	case "insert":
		_, err := b.Insert(off, st.Text)
		return err
	case "delete":
		return b.Delete(off, n)
	case "replace":
		_, err := b.Replace(off, n, st.Text)
		return err
	default:
		return fmt.Errorf("%w: %s not allowed in a batch", ErrInvalidScript, st.Op)
	}
}

func runReplay(app *Application, ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	showDiff := fs.Bool("diff", false, "print a unified diff instead of the final text")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: replay needs FILE and SCRIPT", ErrUsage)
	}
	path, scriptPath := fs.Arg(0), fs.Arg(1)

	f, err := os.Open(scriptPath)
	if err != nil {
		return NewOperationError("replay", scriptPath, err)
	}
	script, err := ParseScript(f)
	f.Close()
	if err != nil {
		return NewOperationError("replay", scriptPath, err)
	}

	doc, err := app.documents.Open(path)
	if err != nil {
		return NewOperationError("replay", path, err)
	}

	start := doc.Engine.CreateCheckpoint("replay-start")
	r := NewReplayer(doc.Engine, app.logger.WithComponent("replay"), app.metrics)
	if err := r.Apply(ctx, script); err != nil {
		return NewOperationError("replay", scriptPath, err).WithContext(path)
	}
	if err := doc.Engine.Check(); err != nil {
		return NewOperationError("replay", path, err)
	}

	app.logger.WithComponent("replay").Info("applied %d steps to %s (revision %d)",
		len(script.Steps), doc.Name, doc.Engine.Revision())

	if !*showDiff {
		_, err = io.WriteString(app.stdout, doc.Engine.Text())
		return err
	}

	diff, err := doc.Engine.DiffSinceCheckpoint(start, engine.DefaultDiffOptions())
	if err != nil {
		return NewOperationError("replay", path, err)
	}
	_, err = io.WriteString(app.stdout, tracking.UnifiedDiff(diff, doc.Name, doc.Name+" (replayed)"))
	return err
}
