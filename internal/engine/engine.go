package engine

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/piecetree/internal/engine/piecetree"
	"github.com/dshills/piecetree/internal/engine/tracking"
)

// Re-export commonly used types for convenience.
type (
	// CharOffset is a byte position in the document.
	CharOffset = piecetree.CharOffset

	// Length is a byte count.
	Length = piecetree.Length

	// Line is a 1-based line number.
	Line = piecetree.Line

	// LineRange is a half-open range of offsets.
	LineRange = piecetree.LineRange

	// Checkpoint is a named document version.
	Checkpoint = tracking.Checkpoint

	// DiffResult contains the result of a diff operation.
	DiffResult = tracking.DiffResult

	// DiffOptions configures diff computation.
	DiffOptions = tracking.DiffOptions
)

// Engine is the thread-safe facade over a piece tree.
// It adds locking, a cursor that follows edits and history, revisions,
// named checkpoints and logging.
//
// All operations are thread-safe and can be called from multiple goroutines.
type Engine struct {
	mu sync.RWMutex

	tree        *piecetree.Tree
	checkpoints *tracking.Manager
	log         *zap.Logger

	// cursor is the caller's position; undo and redo move it to where the
	// restored edit happened.
	cursor   CharOffset
	revision uint64

	// Configuration
	maxUndoEntries int
	readChunkSize  int
	readOnly       bool
	checks         bool

	// Initialization
	initContent []string
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		checkpoints:    tracking.NewManager(),
		log:            zap.NewNop(),
		maxUndoEntries: DefaultMaxUndoEntries,
		readChunkSize:  DefaultReadChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) build(chunks []string) {
	treeOpts := []piecetree.Option{piecetree.WithMaxHistory(e.maxUndoEntries)}
	if e.checks {
		treeOpts = append(treeOpts, piecetree.WithConsistencyChecks())
	}
	e.tree = piecetree.Build(chunks, treeOpts...)
	e.log.Debug("engine created",
		zap.Int("chunks", len(chunks)),
		zap.Int("length", int(e.tree.Length())),
		zap.Bool("read_only", e.readOnly),
	)
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	e := newEngine(opts)
	e.build(e.initContent)
	return e
}

// NewFromReader creates an Engine from an io.Reader. The content is read in
// chunks of the configured size; each becomes one original buffer.
// Content given with WithContent comes first.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	e := newEngine(opts)

	chunks := append([]string(nil), e.initContent...)
	buf := make([]byte, e.readChunkSize)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			chunks = append(chunks, string(buf[:n]))
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read content: %w", err)
		}
	}

	e.build(chunks)
	return e, nil
}

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the full document content.
// For large documents, prefer TextRange or LineText.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Text()
}

// TextRange returns the text in [start, end), clamped to the document.
func (e *Engine) TextRange(start, end CharOffset) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Slice(start, end)
}

// Len returns the total byte length of the document.
func (e *Engine) Len() Length {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Length()
}

// LineCount returns the number of lines.
func (e *Engine) LineCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.LineCount()
}

// LineText returns the text of a line without its line feed, or "" if the
// line does not exist.
func (e *Engine) LineText(line Line) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if line < piecetree.LineBeginning {
		return ""
	}
	s, _ := e.tree.LineContent(line)
	return s
}

// LineRange returns the offsets of a line, excluding its terminator, and
// false if the line does not exist.
func (e *Engine) LineRange(line Line) (LineRange, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if line < piecetree.LineBeginning || int(line) > e.tree.LineCount() {
		return LineRange{}, false
	}
	return e.tree.LineRangeCRLF(line), true
}

// LineAt returns the line containing offset.
func (e *Engine) LineAt(offset CharOffset) Line {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.LineAt(offset)
}

// ByteAt returns the byte at the given offset.
func (e *Engine) ByteAt(offset CharOffset) (byte, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.At(offset)
}

// IsEmpty returns true if the document is empty.
func (e *Engine) IsEmpty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.IsEmpty()
}

// Revision returns a counter that grows with every change to the content,
// including undo and redo.
func (e *Engine) Revision() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.revision
}

// IsReadOnly returns true if the engine rejects writes.
func (e *Engine) IsReadOnly() bool {
	return e.readOnly
}

// PieceCount returns the number of pieces the document is made of.
func (e *Engine) PieceCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.PieceCount()
}

// Check runs the tree consistency checker.
func (e *Engine) Check() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Check()
}

// ============================================================================
// Cursor
// ============================================================================

// Cursor returns the current cursor offset.
func (e *Engine) Cursor() CharOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursor
}

// SetCursor moves the cursor, clamped to the document.
func (e *Engine) SetCursor(offset CharOffset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursor = e.clampLocked(offset)
}

func (e *Engine) clampLocked(offset CharOffset) CharOffset {
	return min(max(offset, 0), CharOffset(e.tree.Length()))
}

// ============================================================================
// Write Operations
// ============================================================================

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (e *Engine) Insert(offset CharOffset, text string) (CharOffset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writableLocked("insert"); err != nil {
		return 0, err
	}
	if err := e.checkOffsetLocked(offset); err != nil {
		return 0, err
	}
	return e.insertLocked(offset, text, piecetree.SuppressHistoryNo), nil
}

func (e *Engine) insertLocked(offset CharOffset, text string, suppress piecetree.SuppressHistory) CharOffset {
	e.tree.Insert(offset, text, suppress)
	end := offset.Extend(Length(len(text)))
	if text != "" {
		e.revision++
		e.cursor = end
	}
	e.log.Debug("insert",
		zap.Int("offset", int(offset)),
		zap.Int("bytes", len(text)),
		zap.Uint64("revision", e.revision),
	)
	return end
}

// Delete removes count bytes starting at offset.
func (e *Engine) Delete(offset CharOffset, count Length) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writableLocked("delete"); err != nil {
		return err
	}
	if err := e.checkRangeLocked(offset, count); err != nil {
		return err
	}
	e.deleteLocked(offset, count, piecetree.SuppressHistoryNo)
	return nil
}

func (e *Engine) deleteLocked(offset CharOffset, count Length, suppress piecetree.SuppressHistory) {
	e.tree.Remove(offset, count, suppress)
	if count > 0 {
		e.revision++
		e.cursor = offset
	}
	e.log.Debug("delete",
		zap.Int("offset", int(offset)),
		zap.Int("bytes", int(count)),
		zap.Uint64("revision", e.revision),
	)
}

// Replace replaces count bytes at offset with text as a single undo unit.
// Returns the end position of the replacement text.
func (e *Engine) Replace(offset CharOffset, count Length, text string) (CharOffset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writableLocked("replace"); err != nil {
		return 0, err
	}
	if err := e.checkRangeLocked(offset, count); err != nil {
		return 0, err
	}
	if count == 0 && text == "" {
		return offset, nil
	}

	e.tree.CommitHead(e.cursor)
	e.deleteLocked(offset, count, piecetree.SuppressHistoryYes)
	return e.insertLocked(offset, text, piecetree.SuppressHistoryYes), nil
}

// Batch runs fn with a Batch whose edits form one undo unit. If fn returns
// an error, every edit it made is rolled back and the error is returned.
// A batch that edits nothing leaves the document and history untouched.
func (e *Engine) Batch(fn func(b *Batch) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writableLocked("batch"); err != nil {
		return err
	}

	b := &Batch{e: e, startCursor: e.cursor}
	if err := fn(b); err != nil {
		if b.started {
			e.tree.Rollback(b.mark)
			e.revision++
		}
		e.cursor = b.startCursor
		e.log.Debug("batch rolled back", zap.Int("edits", b.edits), zap.Error(err))
		return err
	}
	e.log.Debug("batch", zap.Int("edits", b.edits))
	return nil
}

func (e *Engine) writableLocked(op string) error {
	if e.readOnly {
		e.log.Warn("write rejected", zap.String("op", op), zap.Error(ErrReadOnly))
		return ErrReadOnly
	}
	return nil
}

func (e *Engine) checkOffsetLocked(offset CharOffset) error {
	if offset < 0 || offset > CharOffset(e.tree.Length()) {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrOffsetOutOfRange, offset, e.tree.Length())
	}
	return nil
}

func (e *Engine) checkRangeLocked(offset CharOffset, count Length) error {
	if count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrRangeInvalid, count)
	}
	if err := e.checkOffsetLocked(offset); err != nil {
		return err
	}
	if end := offset.Extend(count); end > CharOffset(e.tree.Length()) {
		return fmt.Errorf("%w: end %d past length %d", ErrOffsetOutOfRange, end, e.tree.Length())
	}
	return nil
}

// Batch applies edits inside Engine.Batch. Offsets refer to the document as
// modified by the earlier edits of the same batch.
type Batch struct {
	e     *Engine
	edits int

	// The undo head is committed at the first edit; mark is the state
	// just before it.
	started     bool
	mark        piecetree.Mark
	startCursor CharOffset
}

// begin records the pre-batch state as one undo step, once.
func (b *Batch) begin() {
	b.edits++
	if b.started {
		return
	}
	b.started = true
	b.mark = b.e.tree.Mark()
	b.e.tree.CommitHead(b.startCursor)
}

// Insert inserts text at offset and returns the end of the inserted text.
func (b *Batch) Insert(offset CharOffset, text string) (CharOffset, error) {
	if err := b.e.checkOffsetLocked(offset); err != nil {
		return 0, err
	}
	if text != "" {
		b.begin()
	}
	return b.e.insertLocked(offset, text, piecetree.SuppressHistoryYes), nil
}

// Delete removes count bytes at offset.
func (b *Batch) Delete(offset CharOffset, count Length) error {
	if err := b.e.checkRangeLocked(offset, count); err != nil {
		return err
	}
	if count > 0 {
		b.begin()
	}
	b.e.deleteLocked(offset, count, piecetree.SuppressHistoryYes)
	return nil
}

// Replace replaces count bytes at offset with text.
func (b *Batch) Replace(offset CharOffset, count Length, text string) (CharOffset, error) {
	if err := b.Delete(offset, count); err != nil {
		return 0, err
	}
	return b.Insert(offset, text)
}

// Text returns the document as modified so far.
func (b *Batch) Text() string {
	return b.e.tree.Text()
}

// Len returns the document length as modified so far.
func (b *Batch) Len() Length {
	return b.e.tree.Length()
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo undoes the last edit or edit group. It returns the offset the
// cursor moved to.
func (e *Engine) Undo() (CharOffset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writableLocked("undo"); err != nil {
		return 0, err
	}
	offset, ok := e.tree.TryUndo(e.cursor)
	if !ok {
		return 0, ErrNothingToUndo
	}
	e.revision++
	e.cursor = e.clampLocked(offset)
	e.log.Debug("undo", zap.Int("cursor", int(e.cursor)), zap.Uint64("revision", e.revision))
	return e.cursor, nil
}

// Redo redoes the last undone edit. It returns the offset the cursor
// moved to.
func (e *Engine) Redo() (CharOffset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writableLocked("redo"); err != nil {
		return 0, err
	}
	offset, ok := e.tree.TryRedo(e.cursor)
	if !ok {
		return 0, ErrNothingToRedo
	}
	e.revision++
	e.cursor = e.clampLocked(offset)
	e.log.Debug("redo", zap.Int("cursor", int(e.cursor)), zap.Uint64("revision", e.revision))
	return e.cursor, nil
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.CanRedo()
}

// UndoCount returns the number of available undo steps.
func (e *Engine) UndoCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.UndoCount()
}

// RedoCount returns the number of available redo steps.
func (e *Engine) RedoCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.RedoCount()
}

// ClearHistory removes all undo/redo history.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tree.ClearHistory()
}

// ============================================================================
// Snapshot and Checkpoint Operations
// ============================================================================

// Snapshot returns a self-contained copy of the current state that stays
// valid whatever happens to the engine.
func (e *Engine) Snapshot() *piecetree.OwningSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.OwningSnapshot()
}

// ReferenceSnapshot returns a cheap snapshot that shares buffers with the
// engine.
func (e *Engine) ReferenceSnapshot() *piecetree.ReferenceSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.ReferenceSnapshot()
}

// CreateCheckpoint records the current state under name. A checkpoint
// with the same name is replaced.
func (e *Engine) CreateCheckpoint(name string) uuid.UUID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	id := e.checkpoints.Create(name, e.tree.ReferenceSnapshot(), e.revision)
	e.log.Debug("checkpoint created", zap.String("name", name), zap.String("id", id.String()))
	return id
}

// GetCheckpoint retrieves a checkpoint by ID.
func (e *Engine) GetCheckpoint(id uuid.UUID) (*Checkpoint, error) {
	cp, ok := e.checkpoints.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, id)
	}
	return cp, nil
}

// GetCheckpointByName retrieves a checkpoint by name.
func (e *Engine) GetCheckpointByName(name string) (*Checkpoint, error) {
	cp, ok := e.checkpoints.GetByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCheckpointNotFound, name)
	}
	return cp, nil
}

// CheckpointText returns the full text of a checkpoint.
func (e *Engine) CheckpointText(id uuid.UUID) (string, error) {
	cp, err := e.GetCheckpoint(id)
	if err != nil {
		return "", err
	}
	return cp.Text(), nil
}

// RestoreCheckpoint makes a checkpoint's content current. The restore is
// itself undoable.
func (e *Engine) RestoreCheckpoint(id uuid.UUID) error {
	cp, err := e.GetCheckpoint(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writableLocked("restore"); err != nil {
		return err
	}
	if !e.tree.RestoreSnapshot(cp.Snapshot()) {
		return ErrForeignSnapshot
	}
	e.revision++
	e.cursor = e.clampLocked(e.cursor)
	e.log.Debug("checkpoint restored", zap.String("name", cp.Name), zap.Uint64("revision", e.revision))
	return nil
}

// DeleteCheckpoint removes a checkpoint.
func (e *Engine) DeleteCheckpoint(id uuid.UUID) error {
	if !e.checkpoints.Delete(id) {
		return fmt.Errorf("%w: %s", ErrCheckpointNotFound, id)
	}
	return nil
}

// ListCheckpoints returns all checkpoints, oldest first.
func (e *Engine) ListCheckpoints() []*Checkpoint {
	return e.checkpoints.List()
}

// CheckpointCount returns the number of checkpoints.
func (e *Engine) CheckpointCount() int {
	return e.checkpoints.Count()
}

// DiffSinceCheckpoint computes a line diff from a checkpoint to the
// current content.
func (e *Engine) DiffSinceCheckpoint(id uuid.UUID, opts DiffOptions) (DiffResult, error) {
	cp, err := e.GetCheckpoint(id)
	if err != nil {
		return DiffResult{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return tracking.Diff(cp.Snapshot(), e.tree, opts), nil
}

// DefaultDiffOptions returns the default diff options.
func DefaultDiffOptions() DiffOptions {
	return tracking.DefaultDiffOptions()
}
