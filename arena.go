package rigid

import (
	"fmt"
	"slices"
)

// BodyID identifies a body within the Space that created it.
type BodyID uint32

// ShapeID identifies a shape within the Space that created it.
type ShapeID uint32

// ConstraintID identifies a constraint within the Space that created it.
type ConstraintID uint32

// Handle is any entity id accepted by Space.Add, Space.Remove and Space.Free.
// Ids are never reused by a Space, so a freed id stays invalid.
type Handle interface {
	fmt.Stringer
	handle()
}

func (id BodyID) handle()       {}
func (id ShapeID) handle()      {}
func (id ConstraintID) handle() {}

func (id BodyID) String() string       { return fmt.Sprint("Body ", uint32(id)) }
func (id ShapeID) String() string      { return fmt.Sprint("Shape ", uint32(id)) }
func (id ConstraintID) String() string { return fmt.Sprint("Constraint ", uint32(id)) }

// arena stores the entities of one kind keyed by id.
// order keeps allocation order so traversals are deterministic.
type arena[ID ~uint32, T any] struct {
	next  ID
	items map[ID]*T
	order []ID
}

func newArena[ID ~uint32, T any]() arena[ID, T] {
	// id 0 is never handed out so the zero value of an id is always invalid.
	return arena[ID, T]{next: 1, items: make(map[ID]*T)}
}

func (a *arena[ID, T]) alloc(item *T) ID {
	id := a.next
	a.next++
	a.items[id] = item
	a.order = append(a.order, id)
	return id
}

func (a *arena[ID, T]) get(id ID) (*T, bool) {
	item, ok := a.items[id]
	return item, ok
}

func (a *arena[ID, T]) free(id ID) {
	if _, ok := a.items[id]; !ok {
		return
	}
	delete(a.items, id)
	if i := slices.Index(a.order, id); i >= 0 {
		a.order = slices.Delete(a.order, i, i+1)
	}
}

func (a *arena[ID, T]) len() int {
	return len(a.items)
}

// snapshot returns a copy of the live ids in allocation order.
func (a *arena[ID, T]) snapshot() []ID {
	return slices.Clone(a.order)
}

func (a *arena[ID, T]) clear() {
	clear(a.items)
	a.order = nil
}
