package rigid

// BeginHandler is called when two shapes start touching. Returning false
// ignores the collision until the shapes separate.
type BeginHandler interface {
	Begin(arb *Arbiter, space *Space) bool
}

// PreSolveHandler is called every step the shapes touch, before the solver.
// Returning false skips the collision for this step only.
type PreSolveHandler interface {
	PreSolve(arb *Arbiter, space *Space) bool
}

// PostSolveHandler is called every step after the collision was solved.
// The arbiter's impulses are valid here.
type PostSolveHandler interface {
	PostSolve(arb *Arbiter, space *Space)
}

// SeparateHandler is called once when two shapes stop touching, when one of
// them is removed, or when the collision was ignored by Begin and ends.
type SeparateHandler interface {
	Separate(arb *Arbiter, space *Space)
}

// BeginFunc adapts a function to BeginHandler.
type BeginFunc func(arb *Arbiter, space *Space) bool

func (f BeginFunc) Begin(arb *Arbiter, space *Space) bool { return f(arb, space) }

// PreSolveFunc adapts a function to PreSolveHandler.
type PreSolveFunc func(arb *Arbiter, space *Space) bool

func (f PreSolveFunc) PreSolve(arb *Arbiter, space *Space) bool { return f(arb, space) }

// PostSolveFunc adapts a function to PostSolveHandler.
type PostSolveFunc func(arb *Arbiter, space *Space)

func (f PostSolveFunc) PostSolve(arb *Arbiter, space *Space) { f(arb, space) }

// SeparateFunc adapts a function to SeparateHandler.
type SeparateFunc func(arb *Arbiter, space *Space)

func (f SeparateFunc) Separate(arb *Arbiter, space *Space) { f(arb, space) }

// CollisionHandler is the set of callbacks for one pair of collision types.
// A nil callback keeps the default behavior: accept the collision, or do nothing.
//
// Inside the callbacks the arbiter reports shapes and bodies in the order
// TypeA, TypeB.
type CollisionHandler struct {
	TypeA, TypeB CollisionType

	Begin     BeginHandler
	PreSolve  PreSolveHandler
	PostSolve PostSolveHandler
	Separate  SeparateHandler

	UserData any
}

// NewCollisionHandler fills every role that v implements. v may implement
// any of BeginHandler, PreSolveHandler, PostSolveHandler and SeparateHandler.
func NewCollisionHandler(v any) CollisionHandler {
	var h CollisionHandler
	h.Begin, _ = v.(BeginHandler)
	h.PreSolve, _ = v.(PreSolveHandler)
	h.PostSolve, _ = v.(PostSolveHandler)
	h.Separate, _ = v.(SeparateHandler)
	return h
}

type handlerKey struct {
	a, b CollisionType
}

// SetCollisionHandler registers h for collisions between shapes of type a and b,
// replacing any earlier handler for the same pair in either order.
func (s *Space) SetCollisionHandler(a, b CollisionType, h CollisionHandler) {
	h.TypeA = a
	h.TypeB = b
	delete(s.handlers, handlerKey{b, a})
	s.handlers[handlerKey{a, b}] = &h
}

// SetDefaultCollisionHandler sets the handler used for pairs without a
// registered handler.
func (s *Space) SetDefaultCollisionHandler(h CollisionHandler) {
	s.defaultHandler = &h
}

// RemoveCollisionHandler drops the handler of the pair a, b.
func (s *Space) RemoveCollisionHandler(a, b CollisionType) {
	delete(s.handlers, handlerKey{a, b})
	delete(s.handlers, handlerKey{b, a})
}

// lookupHandler finds the handler for a pair of types. swapped is true when
// the handler was registered for b, a.
func (s *Space) lookupHandler(a, b CollisionType) (*CollisionHandler, bool) {
	if h, ok := s.handlers[handlerKey{a, b}]; ok {
		return h, false
	}
	if h, ok := s.handlers[handlerKey{b, a}]; ok {
		return h, true
	}
	return s.defaultHandler, false
}

// callBegin runs the begin callback. A panicking callback counts as false.
func (s *Space) callBegin(arb *Arbiter) (ok bool) {
	h := arb.handler
	if h == nil || h.Begin == nil {
		return true
	}
	ok = false
	s.protect("begin", func() {
		ok = h.Begin.Begin(arb, s)
	})
	return ok
}

func (s *Space) callPreSolve(arb *Arbiter) (ok bool) {
	h := arb.handler
	if h == nil || h.PreSolve == nil {
		return true
	}
	ok = false
	s.protect("preSolve", func() {
		ok = h.PreSolve.PreSolve(arb, s)
	})
	return ok
}

func (s *Space) callPostSolve(arb *Arbiter) {
	h := arb.handler
	if h == nil || h.PostSolve == nil {
		return
	}
	s.protect("postSolve", func() {
		h.PostSolve.PostSolve(arb, s)
	})
}

func (s *Space) callSeparate(arb *Arbiter) {
	h := arb.handler
	if h == nil || h.Separate == nil {
		return
	}
	s.protect("separate", func() {
		h.Separate.Separate(arb, s)
	})
}
