package rigid

import "slices"

// pairKey is the unordered pair of shape ids of an arbiter.
type pairKey struct {
	a, b ShapeID
}

func makePairKey(a, b ShapeID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// arbiterSet caches arbiters by shape pair. list keeps insertion order so
// filtering, and with it the order of separate callbacks, is deterministic.
type arbiterSet struct {
	m    map[pairKey]*Arbiter
	list []*Arbiter
}

func newArbiterSet() *arbiterSet {
	return &arbiterSet{m: make(map[pairKey]*Arbiter)}
}

func (set *arbiterSet) Count() int {
	return len(set.list)
}

func (set *arbiterSet) Find(key pairKey) (*Arbiter, bool) {
	arb, ok := set.m[key]
	return arb, ok
}

func (set *arbiterSet) Insert(arb *Arbiter) {
	set.m[arb.key] = arb
	set.list = append(set.list, arb)
}

// Filter keeps the arbiters for which f returns true. f may call back into
// the space, so removal is applied after the pass.
func (set *arbiterSet) Filter(f func(*Arbiter) bool) {
	list := slices.Clone(set.list)
	kept := set.list[:0]
	for _, arb := range list {
		// f may recycle the arbiter
		key := arb.key
		if f(arb) {
			kept = append(kept, arb)
			continue
		}
		delete(set.m, key)
	}
	clear(set.list[len(kept):])
	set.list = kept
}

func (set *arbiterSet) Clear() {
	clear(set.m)
	clear(set.list)
	set.list = set.list[:0]
}

// arbiterSetFilter throws away old arbiters. It fires separate once for
// arbiters that were not touched this step and drops them after
// CollisionPersistence steps, at least one.
func arbiterSetFilter(arb *Arbiter, space *Space) bool {
	a := arb.bodyA
	b := arb.bodyB

	if a.Type() == Static && b.Type() == Static {
		return true
	}
	// Sleeping contacts are kept until the bodies wake up.
	if a.IsSleeping() || b.IsSleeping() {
		return true
	}

	ticks := space.stamp - arb.stamp

	if ticks >= 1 && arb.state != ArbiterStateCached {
		arb.state = ArbiterStateCached
		space.callSeparate(arb)
	}

	// Arbiters touched this step are still listed in space.arbiters.
	if ticks >= max(1, space.CollisionPersistence) {
		recycleArbiter(arb)
		return false
	}

	return true
}

// cachedArbitersFilter drops the arbiters of body, or only those of shape
// when shape is not nil. Removing a shape separates its touching pairs.
func cachedArbitersFilter(arb *Arbiter, space *Space, shape *Shape, body *Body) bool {
	// Match on the filter shape, or if it's nil the filter body
	if (body == arb.bodyA && (shape == arb.shapeA || shape == nil)) ||
		(body == arb.bodyB && (shape == arb.shapeB || shape == nil)) {
		// Call separate when removing shapes.
		if shape != nil && arb.state != ArbiterStateCached {
			// Invalidate the arbiter since one of the shapes was removed
			arb.state = ArbiterStateInvalidated
			space.callSeparate(arb)
		}

		space.arbiters = slices.DeleteFunc(space.arbiters, func(a *Arbiter) bool {
			return a == arb
		})
		recycleArbiter(arb)
		return false
	}

	return true
}
