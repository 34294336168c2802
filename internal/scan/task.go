// Package scan builds and extends the archive catalog one slot at a time.
package scan

import (
	"log/slog"
	"strconv"

	"github.com/jchantrell/datscan/internal/catalog"
	"github.com/jchantrell/datscan/internal/filetype"
)

// PrefixSize is the number of bytes peeked from each slot before classification
const PrefixSize = 32

// Source is the archive access a scan needs
type Source interface {
	SlotCount() int
	Reserved(slot int) bool
	Peek(slot int, wanted int) []byte
	Read(slot int) []byte
	BaseID(slot int) (uint32, bool)
	FileID(slot int) (uint32, bool)
}

// State of a Task
type State int

const (
	Created State = iota
	Initialized
	Running
	Done
	Aborted
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	}
	return "created"
}

// Task extends a catalog from its coverage to the last slot of an archive. It is
// driven by repeated calls to Perform, each of which handles exactly one slot.
type Task struct {
	src   Source
	index *catalog.Index
	state State

	start  int
	cursor int
	total  int

	indexed int
	skipped int
}

// NewTask creates a scan over src that records into index
func NewTask(src Source, index *catalog.Index) *Task {
	return &Task{
		src:   src,
		index: index,
	}
}

// Init computes the slot range to scan and reserves catalog capacity for it
func (t *Task) Init() bool {
	if t.src == nil || t.index == nil {
		return false
	}

	t.total = t.src.SlotCount()
	t.start = max(t.index.HighestCovered()+1, 0)
	t.cursor = t.start
	t.index.ReserveEntries(t.total - t.start)

	t.state = Initialized
	if t.cursor >= t.total {
		t.state = Done
	}

	slog.Debug("Scan initialized", "start", t.start, "slots", t.total)
	return true
}

// State returns the task's current state
func (t *Task) State() State {
	return t.state
}

// IsDone reports whether the cursor has passed the last slot
func (t *Task) IsDone() bool {
	return t.state == Done
}

// Progress returns the number of slots handled by this task and the number it will handle in total
func (t *Task) Progress() (done int, total int) {
	return t.cursor - t.start, t.total - t.start
}

// Stats returns the number of entries indexed and slots skipped so far
func (t *Task) Stats() (indexed int, skipped int) {
	return t.indexed, t.skipped
}

// Abort stops the task before its next step. Coverage only advances on completed
// steps, so an aborted catalog can be resumed later. An initialized task that has
// not performed a step yet can be aborted too; Created and Done tasks ignore it.
func (t *Task) Abort() {
	if t.state == Initialized || t.state == Running {
		t.state = Aborted
	}
}

// Perform scans one slot
func (t *Task) Perform() {
	switch t.state {
	case Created:
		if !t.Init() {
			return
		}
		if t.state == Done {
			return
		}
	case Done, Aborted:
		return
	}

	t.state = Running
	slot := t.cursor

	if t.step(slot) {
		t.indexed++
	} else {
		t.skipped++
	}

	t.cursor++
	t.index.MarkCovered(slot)

	if t.cursor >= t.total {
		t.state = Done
		slog.Debug("Scan finished", "indexed", t.indexed, "skipped", t.skipped)
	}
}

// step classifies and indexes one slot, reporting whether an entry was added.
// A panic while handling a slot is logged and the slot is skipped.
func (t *Task) step(slot int) (indexed bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Failed to scan slot", "slot", slot, "panic", r)
			indexed = false
		}
	}()

	if t.src.Reserved(slot) {
		return false
	}

	data := t.src.Peek(slot, PrefixSize)
	if len(data) == 0 {
		return false
	}

	res := filetype.Classify(data)
	tried := PrefixSize
	for res.Status == filetype.NeedMoreBytes && res.Need != tried {
		tried = res.Need
		data = t.src.Peek(slot, tried)
		if len(data) == 0 {
			break
		}
		res = filetype.Classify(data)
	}
	if len(data) == 0 {
		return false
	}

	kind := filetype.Unknown
	if res.Status == filetype.Classified {
		kind = res.Kind
	}

	baseID, _ := t.src.BaseID(slot)
	fileID, _ := t.src.FileID(slot)

	kind, path := categorize(slotInfo{
		slot:   slot,
		kind:   kind,
		baseID: baseID,
		prefix: data,
		full:   func() []byte { return t.src.Read(slot) },
	})

	t.index.AddEntry().
		Slot(slot).
		BaseID(baseID).
		FileID(fileID).
		Kind(kind).
		Name(displayName(baseID, slot)).
		Category(t.index.FindOrAddPath(path...)).
		Commit()

	return true
}

// displayName is the base id, or a synthetic name for slots without identifiers
func displayName(baseID uint32, slot int) string {
	if baseID == 0 {
		return "unmatched-" + strconv.Itoa(slot)
	}
	return strconv.FormatUint(uint64(baseID), 10)
}
