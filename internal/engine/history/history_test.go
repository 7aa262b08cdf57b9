package history

import (
	"testing"
)

type entry struct {
	state  string
	offset int
}

func TestStackPushAndUndo(t *testing.T) {
	s := NewStack[entry](0)
	s.Push(entry{"hello", 0})

	got, ok := s.Undo(entry{"hello world", 5})
	if !ok {
		t.Fatal("Undo reported nothing to undo")
	}
	if got.state != "hello" {
		t.Errorf("Undo state = %q, want %q", got.state, "hello")
	}
	if s.CanUndo() {
		t.Error("should not be able to undo after undoing single entry")
	}
	if !s.CanRedo() {
		t.Error("should be able to redo after undo")
	}
}

func TestStackRedo(t *testing.T) {
	s := NewStack[entry](0)
	s.Push(entry{"a", 0})
	s.Undo(entry{"ab", 1})

	got, ok := s.Redo(entry{"a", 7})
	if !ok {
		t.Fatal("Redo reported nothing to redo")
	}
	if got != (entry{"ab", 1}) {
		t.Errorf("Redo = %+v, want {ab 1}", got)
	}

	// Redo records the state it replaced so it can be undone again.
	back, ok := s.Undo(got)
	if !ok || back != (entry{"a", 7}) {
		t.Errorf("Undo after redo = %+v, %v", back, ok)
	}
}

func TestStackRedoClearedOnPush(t *testing.T) {
	s := NewStack[entry](0)
	s.Push(entry{"a", 0})
	s.Undo(entry{"b", 0})

	if !s.CanRedo() {
		t.Error("should be able to redo")
	}

	s.Push(entry{"a", 0})

	if s.CanRedo() {
		t.Error("redo should be cleared after push")
	}
	if _, ok := s.Redo(entry{}); ok {
		t.Error("Redo succeeded after push")
	}
}

func TestStackEmpty(t *testing.T) {
	s := NewStack[entry](0)

	if s.CanUndo() {
		t.Error("should not be able to undo initially")
	}
	if s.CanRedo() {
		t.Error("should not be able to redo initially")
	}
	if _, ok := s.Undo(entry{"x", 1}); ok {
		t.Error("Undo on empty stack succeeded")
	}
	if _, ok := s.Redo(entry{"x", 1}); ok {
		t.Error("Redo on empty stack succeeded")
	}
	if s.RedoCount() != 0 {
		t.Errorf("failed Undo touched redo: count = %d", s.RedoCount())
	}
}

func TestStackMaxEntries(t *testing.T) {
	s := NewStack[int](3)

	for i := 0; i < 5; i++ {
		s.Push(i)
	}

	if s.UndoCount() != 3 {
		t.Errorf("undo count = %d, want 3", s.UndoCount())
	}

	// The oldest entries are the ones dropped.
	var got []int
	for s.CanUndo() {
		v, _ := s.Undo(-1)
		got = append(got, v)
	}
	want := []int{4, 3, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("undo order = %v, want %v", got, want)
			break
		}
	}
}

func TestStackSetMaxEntries(t *testing.T) {
	s := NewStack[int](0)
	for i := 0; i < 10; i++ {
		s.Push(i)
	}

	s.SetMaxEntries(4)
	if s.UndoCount() != 4 {
		t.Errorf("undo count = %d, want 4", s.UndoCount())
	}
	if s.MaxEntries() != 4 {
		t.Errorf("MaxEntries = %d, want 4", s.MaxEntries())
	}
	if v, _ := s.PeekUndo(); v != 9 {
		t.Errorf("PeekUndo = %d, want 9", v)
	}

	s.SetMaxEntries(-1)
	if s.MaxEntries() != 0 {
		t.Errorf("negative limit should mean unbounded, got %d", s.MaxEntries())
	}
}

func TestStackRedoRespectsLimit(t *testing.T) {
	s := NewStack[int](2)
	s.Push(1)
	s.Push(2)
	s.Undo(3)

	// Redo pushes the replaced state back onto the bounded undo side.
	s.Redo(2)
	if s.UndoCount() != 2 {
		t.Errorf("undo count = %d, want 2", s.UndoCount())
	}
}

func TestStackPeek(t *testing.T) {
	s := NewStack[string](0)

	if _, ok := s.PeekUndo(); ok {
		t.Error("PeekUndo on empty stack succeeded")
	}

	s.Push("first")
	s.Push("second")

	if v, ok := s.PeekUndo(); !ok || v != "second" {
		t.Errorf("PeekUndo = %q, %v", v, ok)
	}
	// Peek does not remove.
	if s.UndoCount() != 2 {
		t.Errorf("undo count = %d after peek", s.UndoCount())
	}

	s.Undo("third")
	if v, ok := s.PeekRedo(); !ok || v != "third" {
		t.Errorf("PeekRedo = %q, %v", v, ok)
	}
}

func TestStackSaveRestore(t *testing.T) {
	s := NewStack[int](2)
	s.Push(1)
	s.Push(2)
	s.Undo(3)
	saved := s.Save()

	// Push clears redo and evicts 1.
	s.Push(4)
	s.Push(5)

	s.Restore(saved)
	if s.UndoCount() != 1 || s.RedoCount() != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", s.UndoCount(), s.RedoCount())
	}
	if v, ok := s.PeekUndo(); !ok || v != 1 {
		t.Errorf("PeekUndo = %d, %v", v, ok)
	}
	if v, ok := s.Redo(2); !ok || v != 3 {
		t.Errorf("Redo = %d, %v", v, ok)
	}

	// Changes after Restore do not reach the saved copy.
	s.Push(6)
	s.Restore(saved)
	if v, _ := s.PeekRedo(); v != 3 {
		t.Errorf("saved redo changed to %d", v)
	}
}

func TestStackClear(t *testing.T) {
	s := NewStack[int](0)
	s.Push(1)
	s.Push(2)
	s.Undo(3)

	s.Clear()

	if s.CanUndo() || s.CanRedo() {
		t.Error("history should be empty after Clear")
	}
}

func BenchmarkStackPush(b *testing.B) {
	s := NewStack[entry](1000)
	e := entry{"x", 1}
	for i := 0; i < b.N; i++ {
		s.Push(e)
	}
}
