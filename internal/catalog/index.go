// Package catalog holds the in-memory archive catalog: a flat table of indexed
// entries and a tree of categories, with dirty and coverage bookkeeping.
//
// Categories and entries live in arena slices owned by the Index. References
// between them are integer handles into those arenas, so growth never
// invalidates a reference.
package catalog

import (
	"slices"
	"time"

	"github.com/jchantrell/datscan/internal/filetype"
)

// CategoryID is a handle to a category in its Index
type CategoryID int32

// EntryID is a handle to an entry in its Index
type EntryID int32

const (
	// NoCategory is the parent of the root
	NoCategory CategoryID = -1
	// Root is the implicit unnamed root category
	Root CategoryID = 0
)

// Entry is one indexed archive slot
type Entry struct {
	Slot     int
	BaseID   uint32
	FileID   uint32
	Kind     filetype.Kind
	Name     string
	Category CategoryID
}

// Category is a node of the category tree
type Category struct {
	Name   string
	Parent CategoryID

	children    []CategoryID
	childByName map[string]CategoryID
	entries     []EntryID
}

// Children returns the child categories in creation order
func (c Category) Children() []CategoryID {
	return c.children
}

// Entries returns the entries filed directly under the category
func (c Category) Entries() []EntryID {
	return c.entries
}

// Index is the catalog. It has no internal locking; only one scan may mutate it at a time.
type Index struct {
	entries    []Entry
	categories []Category
	bySlot     map[int]EntryID

	archiveModTime time.Time
	highestCovered int
	dirty          bool
}

// New creates an empty catalog
func New() *Index {
	idx := &Index{}
	idx.reset()
	return idx
}

func (x *Index) reset() {
	x.entries = nil
	x.categories = []Category{{Parent: NoCategory, childByName: map[string]CategoryID{}}}
	x.bySlot = make(map[int]EntryID)
	x.archiveModTime = time.Time{}
	x.highestCovered = -1
}

// Clear drops every entry and category and resets coverage
func (x *Index) Clear() {
	x.reset()
	x.dirty = true
}

// ReserveEntries is a capacity hint for n more entries
func (x *Index) ReserveEntries(n int) {
	if n <= 0 {
		return
	}
	x.entries = slices.Grow(x.entries, n)
}

// Len returns the number of entries
func (x *Index) Len() int {
	return len(x.entries)
}

// CategoryCount returns the number of categories, excluding the root
func (x *Index) CategoryCount() int {
	return len(x.categories) - 1
}

// Dirty reports whether the catalog changed since it was last persisted
func (x *Index) Dirty() bool {
	return x.dirty
}

// MarkClean records a successful persist
func (x *Index) MarkClean() {
	x.dirty = false
}

// ArchiveModTime returns the archive modification time the catalog was built against
func (x *Index) ArchiveModTime() time.Time {
	return x.archiveModTime
}

// SetArchiveModTime records the archive modification time the catalog describes
func (x *Index) SetArchiveModTime(t time.Time) {
	if !x.archiveModTime.Equal(t) {
		x.archiveModTime = t
		x.dirty = true
	}
}

// HighestCovered returns the highest fully scanned slot, or -1 when nothing was scanned
func (x *Index) HighestCovered() int {
	return x.highestCovered
}

// MarkCovered records that every slot up to and including slot was scanned.
// Coverage never decreases.
func (x *Index) MarkCovered(slot int) {
	if slot > x.highestCovered {
		x.highestCovered = slot
		x.dirty = true
	}
}

// FindOrAddCategory returns the root-level category named name, creating it if needed
func (x *Index) FindOrAddCategory(name string) CategoryID {
	return x.FindOrAddSubCategory(Root, name)
}

// FindOrAddSubCategory returns parent's child named name, creating it if needed.
// Names match exactly and case-sensitively.
func (x *Index) FindOrAddSubCategory(parent CategoryID, name string) CategoryID {
	if !x.validCategory(parent) {
		parent = Root
	}

	if id, ok := x.categories[parent].childByName[name]; ok {
		return id
	}

	id := CategoryID(len(x.categories))
	x.categories = append(x.categories, Category{
		Name:        name,
		Parent:      parent,
		childByName: map[string]CategoryID{},
	})

	p := &x.categories[parent]
	p.children = append(p.children, id)
	p.childByName[name] = id
	x.dirty = true

	return id
}

// FindOrAddPath walks or creates a category path from the root
func (x *Index) FindOrAddPath(names ...string) CategoryID {
	id := Root
	for _, name := range names {
		id = x.FindOrAddSubCategory(id, name)
	}
	return id
}

// FindPath returns the category at a path without creating anything
func (x *Index) FindPath(names ...string) (CategoryID, bool) {
	id := Root
	for _, name := range names {
		child, ok := x.categories[id].childByName[name]
		if !ok {
			return NoCategory, false
		}
		id = child
	}
	return id, true
}

func (x *Index) validCategory(id CategoryID) bool {
	return id >= 0 && int(id) < len(x.categories)
}

// Category returns the category with the given handle
func (x *Index) Category(id CategoryID) (Category, bool) {
	if !x.validCategory(id) {
		return Category{}, false
	}
	return x.categories[id], true
}

// Path returns the names from the root down to id
func (x *Index) Path(id CategoryID) []string {
	var names []string
	for x.validCategory(id) && id != Root {
		names = append(names, x.categories[id].Name)
		id = x.categories[id].Parent
	}
	slices.Reverse(names)
	return names
}

// Walk visits the categories below start depth-first in creation order. Direct
// children of start have depth 0. Returning false from fn skips the category's
// children.
func (x *Index) Walk(start CategoryID, fn func(id CategoryID, depth int) bool) {
	if !x.validCategory(start) {
		return
	}

	var visit func(id CategoryID, depth int)
	visit = func(id CategoryID, depth int) {
		for _, child := range x.categories[id].children {
			if fn(child, depth) {
				visit(child, depth+1)
			}
		}
	}
	visit(start, 0)
}

// SubtreeLen returns the number of entries filed under id and its descendants
func (x *Index) SubtreeLen(id CategoryID) int {
	if !x.validCategory(id) {
		return 0
	}
	n := len(x.categories[id].entries)
	for _, child := range x.categories[id].children {
		n += x.SubtreeLen(child)
	}
	return n
}

// SubtreeEntries returns the entries filed under id and its descendants, depth-first
func (x *Index) SubtreeEntries(id CategoryID) []EntryID {
	if !x.validCategory(id) {
		return nil
	}
	out := slices.Clone(x.categories[id].entries)
	for _, child := range x.categories[id].children {
		out = append(out, x.SubtreeEntries(child)...)
	}
	return out
}

// Entry returns the entry with the given handle
func (x *Index) Entry(id EntryID) (Entry, bool) {
	if id < 0 || int(id) >= len(x.entries) {
		return Entry{}, false
	}
	return x.entries[id], true
}

// EntryForSlot returns the entry created for slot
func (x *Index) EntryForSlot(slot int) (Entry, bool) {
	id, ok := x.bySlot[slot]
	if !ok {
		return Entry{}, false
	}
	return x.entries[id], true
}

// Entries returns the entry table in insertion order. The slice must not be modified.
func (x *Index) Entries() []Entry {
	return x.entries
}

// AddEntry starts building a new entry. It becomes visible on Commit.
func (x *Index) AddEntry() *EntryBuilder {
	return &EntryBuilder{
		idx:   x,
		entry: Entry{Category: Root},
	}
}

// EntryBuilder sets the fields of a new entry
type EntryBuilder struct {
	idx   *Index
	entry Entry
}

func (b *EntryBuilder) Slot(slot int) *EntryBuilder {
	b.entry.Slot = slot
	return b
}

func (b *EntryBuilder) BaseID(id uint32) *EntryBuilder {
	b.entry.BaseID = id
	return b
}

func (b *EntryBuilder) FileID(id uint32) *EntryBuilder {
	b.entry.FileID = id
	return b
}

func (b *EntryBuilder) Kind(k filetype.Kind) *EntryBuilder {
	b.entry.Kind = k
	return b
}

func (b *EntryBuilder) Name(name string) *EntryBuilder {
	b.entry.Name = name
	return b
}

func (b *EntryBuilder) Category(id CategoryID) *EntryBuilder {
	b.entry.Category = id
	return b
}

// Commit adds the entry to the catalog and files it under its category. A slot
// is indexed at most once; committing a second entry for the same slot returns
// the existing one unchanged.
func (b *EntryBuilder) Commit() EntryID {
	x := b.idx
	if id, ok := x.bySlot[b.entry.Slot]; ok {
		return id
	}

	e := b.entry
	if !x.validCategory(e.Category) {
		e.Category = Root
	}

	id := EntryID(len(x.entries))
	x.entries = append(x.entries, e)
	x.categories[e.Category].entries = append(x.categories[e.Category].entries, id)
	x.bySlot[e.Slot] = id
	x.dirty = true

	return id
}
