package piecetree

import (
	"math/rand"
	"strings"
	"testing"
	"testing/quick"

	"github.com/google/go-cmp/cmp"
)

// model mirrors a Tree with a plain string and the same history rules.
type model struct {
	text      string
	undo      []string
	redo      []string
	insertEnd int
}

func newModel(text string) *model {
	return &model{text: text, insertEnd: -1}
}

func (m *model) insert(offset int, text string) {
	if text == "" {
		return
	}
	offset = min(max(offset, 0), len(m.text))
	if m.insertEnd != offset || m.text == "" {
		m.undo = append(m.undo, m.text)
		m.redo = nil
	}
	m.text = m.text[:offset] + text + m.text[offset:]
	m.insertEnd = offset + len(text)
}

func (m *model) remove(offset, count int) {
	offset = min(max(offset, 0), len(m.text))
	count = min(count, len(m.text)-offset)
	if count <= 0 {
		return
	}
	m.undo = append(m.undo, m.text)
	m.redo = nil
	m.text = m.text[:offset] + m.text[offset+count:]
	m.insertEnd = -1
}

func (m *model) undoOnce() bool {
	if len(m.undo) == 0 {
		return false
	}
	m.redo = append(m.redo, m.text)
	m.text = m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.insertEnd = -1
	return true
}

func (m *model) redoOnce() bool {
	if len(m.redo) == 0 {
		return false
	}
	m.undo = append(m.undo, m.text)
	m.text = m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.insertEnd = -1
	return true
}

func compareToModel(t *testing.T, tree *Tree, m *model, step int) {
	t.Helper()
	if err := tree.Check(); err != nil {
		t.Fatalf("step %d: %v", step, err)
	}
	if got := tree.Text(); got != m.text {
		t.Fatalf("step %d: Text() = %q, want %q", step, got, m.text)
	}
	if int(tree.Length()) != len(m.text) {
		t.Fatalf("step %d: Length() = %d, want %d", step, tree.Length(), len(m.text))
	}
	want := strings.Split(m.text, "\n")
	if diff := cmp.Diff(want, allLines(tree)); diff != "" {
		t.Fatalf("step %d: lines mismatch (-want +got):\n%s", step, diff)
	}
	if tree.CanUndo() != (len(m.undo) > 0) || tree.CanRedo() != (len(m.redo) > 0) {
		t.Fatalf("step %d: CanUndo/CanRedo = %v/%v, model has %d/%d",
			step, tree.CanUndo(), tree.CanRedo(), len(m.undo), len(m.redo))
	}
}

func TestRandomEditsAgainstModel(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		rng := rand.New(rand.NewSource(seed))
		initial := randomText(rng, 40)
		tree := Build([]string{initial})
		m := newModel(initial)

		for step := 0; step < 400; step++ {
			switch op := rng.Intn(10); {
			case op < 4:
				off := rng.Intn(len(m.text) + 3)
				// Keep typing at the previous insert end from time to time.
				if m.insertEnd >= 0 && rng.Intn(2) == 0 {
					off = m.insertEnd
				}
				text := randomText(rng, 8)
				tree.Insert(CharOffset(off), text, SuppressHistoryNo)
				m.insert(off, text)
			case op < 7:
				off := rng.Intn(len(m.text) + 2)
				count := rng.Intn(12)
				tree.Remove(CharOffset(off), Length(count), SuppressHistoryNo)
				m.remove(off, count)
			case op < 9:
				_, ok := tree.TryUndo(0)
				if ok != m.undoOnce() {
					t.Fatalf("seed %d step %d: TryUndo = %v disagrees with model", seed, step, ok)
				}
			default:
				_, ok := tree.TryRedo(0)
				if ok != m.redoOnce() {
					t.Fatalf("seed %d step %d: TryRedo = %v disagrees with model", seed, step, ok)
				}
			}
			compareToModel(t, tree, m, step)
		}
	}
}

func TestQuickInsertRemoveUndo(t *testing.T) {
	f := func(initial, text string, offset uint16, count uint8) bool {
		tree := Build([]string{initial})
		off := int(offset) % (len(initial) + 1)

		tree.Insert(CharOffset(off), text, SuppressHistoryNo)
		inserted := initial[:off] + text + initial[off:]
		if tree.Text() != inserted || tree.Check() != nil {
			return false
		}

		n := min(int(count), len(inserted)-off)
		tree.Remove(CharOffset(off), Length(count), SuppressHistoryNo)
		if tree.Text() != inserted[:off]+inserted[off+n:] || tree.Check() != nil {
			return false
		}

		// Undo everything back to the start.
		for tree.CanUndo() {
			tree.TryUndo(0)
		}
		return tree.Text() == initial && int(tree.Length()) == len(initial)
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 500}); err != nil {
		t.Error(err)
	}
}

func TestQuickLineAtMatchesCount(t *testing.T) {
	f := func(chunks []string, offset uint16) bool {
		tree := Build(chunks)
		text := strings.Join(chunks, "")
		off := int(offset) % (len(text) + 1)
		want := Line(strings.Count(text[:off], "\n")) + LineBeginning
		return tree.LineAt(CharOffset(off)) == want
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}
