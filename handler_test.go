package rigid_test

import (
	"errors"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/setanarut/rigid"
	"github.com/setanarut/vec"
)

const (
	ballType rigid.CollisionType = iota + 1
	wallType
)

// recorder counts every callback it receives.
type recorder struct {
	begin, preSolve, postSolve, separate int

	rejectBegin    bool
	rejectPreSolve bool
	removals       int
}

func (r *recorder) Begin(arb *rigid.Arbiter, space *rigid.Space) bool {
	r.begin++
	return !r.rejectBegin
}

func (r *recorder) PreSolve(arb *rigid.Arbiter, space *rigid.Space) bool {
	r.preSolve++
	return !r.rejectPreSolve
}

func (r *recorder) PostSolve(arb *rigid.Arbiter, space *rigid.Space) {
	r.postSolve++
}

func (r *recorder) Separate(arb *rigid.Arbiter, space *rigid.Space) {
	r.separate++
	if arb.IsRemoval() {
		r.removals++
	}
}

// approach sets two balls on a collision course along the x axis: they touch
// for a few steps, then move apart.
func approach(t *testing.T, s *rigid.Space) (rigid.BodyID, rigid.BodyID) {
	a, shapeA := addBall(t, s, vec.Vec2{}, 1)
	b, shapeB := addBall(t, s, vec.Vec2{X: 2.5}, 1)
	for _, id := range []rigid.ShapeID{shapeA, shapeB} {
		shape, _ := s.Shape(id)
		shape.CollisionType = ballType
		shape.Elasticity = 1
	}
	mustBody(t, s, a).SetVelocity(1, 0)
	mustBody(t, s, b).SetVelocity(-1, 0)
	return a, b
}

func stepN(t *testing.T, s *rigid.Space, n int, dt float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.Step(dt); err != nil {
			t.Fatal(err)
		}
	}
}

func TestHandlerLifecycle(t *testing.T) {
	s := rigid.NewSpace()
	a, b := approach(t, s)
	r := &recorder{}
	s.SetCollisionHandler(ballType, ballType, rigid.NewCollisionHandler(r))

	stepN(t, s, 120, 1.0/60)

	assert.Equal(t, 1, r.begin)
	assert.T(t, r.preSolve > 0)
	assert.Equal(t, r.preSolve, r.postSolve)
	assert.Equal(t, 1, r.separate)
	assert.Equal(t, 0, r.removals)

	// The balls bounced off each other.
	assert.T(t, mustBody(t, s, a).Velocity().X < 0)
	assert.T(t, mustBody(t, s, b).Velocity().X > 0)
}

func TestHandlerBeginRejectStillSeparates(t *testing.T) {
	s := rigid.NewSpace()
	a, b := approach(t, s)
	r := &recorder{rejectBegin: true}
	s.SetCollisionHandler(ballType, ballType, rigid.NewCollisionHandler(r))

	stepN(t, s, 300, 1.0/60)

	assert.Equal(t, 1, r.begin)
	assert.Equal(t, 0, r.preSolve)
	assert.Equal(t, 0, r.postSolve)
	assert.Equal(t, 1, r.separate)

	// Ignored pairs pass through each other.
	assert.Equal(t, vec.Vec2{X: 1}, mustBody(t, s, a).Velocity())
	assert.Equal(t, vec.Vec2{X: -1}, mustBody(t, s, b).Velocity())
}

func TestHandlerPreSolveRejectSkipsSolver(t *testing.T) {
	s := rigid.NewSpace()
	a, _ := approach(t, s)
	r := &recorder{rejectPreSolve: true}
	s.SetCollisionHandler(ballType, ballType, rigid.NewCollisionHandler(r))

	stepN(t, s, 300, 1.0/60)

	assert.Equal(t, 1, r.begin)
	assert.T(t, r.preSolve > 0)
	assert.Equal(t, 0, r.postSolve)
	assert.Equal(t, 1, r.separate)
	assert.Equal(t, vec.Vec2{X: 1}, mustBody(t, s, a).Velocity())
}

func TestHandlerRemoveShapeSeparates(t *testing.T) {
	s := rigid.NewSpace()
	_, shapeA := addBall(t, s, vec.Vec2{}, 1)
	_, shapeB := addBall(t, s, vec.Vec2{X: 1}, 1)
	r := &recorder{}
	s.SetDefaultCollisionHandler(rigid.NewCollisionHandler(r))

	stepN(t, s, 1, 1.0/60)
	assert.Equal(t, 1, r.begin)

	assert.Equal(t, nil, s.Remove(shapeB))
	assert.Equal(t, 1, r.separate)
	assert.Equal(t, 1, r.removals)

	stepN(t, s, 5, 1.0/60)
	assert.Equal(t, 1, r.separate)
	assert.T(t, s.ContainsShape(shapeA))
}

func TestHandlerTypeOrder(t *testing.T) {
	s := rigid.NewSpace()
	_, wall := addBall(t, s, vec.Vec2{}, 1)
	_, ball := addBall(t, s, vec.Vec2{X: 1}, 1)
	shape, _ := s.Shape(wall)
	shape.CollisionType = wallType
	shape, _ = s.Shape(ball)
	shape.CollisionType = ballType

	var first, second rigid.CollisionType
	var normal vec.Vec2
	s.SetCollisionHandler(ballType, wallType, rigid.CollisionHandler{
		Begin: rigid.BeginFunc(func(arb *rigid.Arbiter, space *rigid.Space) bool {
			a, b := arb.Shapes()
			first, second = a.CollisionType, b.CollisionType
			normal = arb.Normal()
			return true
		}),
	})

	stepN(t, s, 1, 1.0/60)
	assert.Equal(t, ballType, first)
	assert.Equal(t, wallType, second)
	// From the ball towards the wall.
	assert.T(t, normal.X < 0)
}

func TestHandlerReplaceAndRemove(t *testing.T) {
	s := rigid.NewSpace()
	approach(t, s)
	r1 := &recorder{}
	r2 := &recorder{}
	s.SetCollisionHandler(ballType, ballType, rigid.NewCollisionHandler(r1))
	s.SetCollisionHandler(ballType, ballType, rigid.NewCollisionHandler(r2))

	stepN(t, s, 60, 1.0/60)
	assert.Equal(t, 0, r1.begin)
	assert.Equal(t, 1, r2.begin)

	// Without a pair handler the default handler takes over.
	s2 := rigid.NewSpace()
	approach(t, s2)
	def := &recorder{}
	s2.SetCollisionHandler(ballType, ballType, rigid.NewCollisionHandler(r1))
	s2.RemoveCollisionHandler(ballType, ballType)
	s2.SetDefaultCollisionHandler(rigid.NewCollisionHandler(def))
	stepN(t, s2, 60, 1.0/60)
	assert.Equal(t, 0, r1.begin)
	assert.Equal(t, 1, def.begin)
}

func TestHandlerPanicIsReported(t *testing.T) {
	s := rigid.NewSpace()
	s.Logger = nil
	a, _ := approach(t, s)

	var reported []error
	s.OnCallbackError = func(err error) {
		reported = append(reported, err)
	}
	s.SetCollisionHandler(ballType, ballType, rigid.CollisionHandler{
		Begin: rigid.BeginFunc(func(arb *rigid.Arbiter, space *rigid.Space) bool {
			panic("boom")
		}),
	})

	stepN(t, s, 120, 1.0/60)

	assert.Equal(t, 1, len(reported))
	assert.T(t, errors.Is(reported[0], rigid.ErrCallbackFailure))
	// A failed begin counts as a rejection.
	assert.Equal(t, vec.Vec2{X: 1}, mustBody(t, s, a).Velocity())
}

func TestHandlerMutationIsRejected(t *testing.T) {
	s := rigid.NewSpace()
	approach(t, s)

	var addErr, stepErr error
	extra := s.CreateBody(1, 1)
	s.SetCollisionHandler(ballType, ballType, rigid.CollisionHandler{
		Begin: rigid.BeginFunc(func(arb *rigid.Arbiter, space *rigid.Space) bool {
			assert.T(t, space.IsLocked())
			addErr = space.Add(extra)
			stepErr = space.Step(1)
			space.AddPostStepCallback(extra, func(space *rigid.Space, key, data any) {
				addErr = space.Add(key.(rigid.BodyID))
			}, nil)
			return true
		}),
	})

	stepN(t, s, 60, 1.0/60)
	// The post-step callback replaced addErr after the step.
	assert.Equal(t, nil, addErr)
	assert.T(t, errors.Is(stepErr, rigid.ErrReentrancy))
	assert.T(t, s.ContainsBody(extra))
}

func TestHandlerSensor(t *testing.T) {
	s := rigid.NewSpace()
	a, b := approach(t, s)
	sensor, _ := s.Shape(mustBody(t, s, b).Shapes()[0])
	sensor.Sensor = true

	r := &recorder{}
	s.SetCollisionHandler(ballType, ballType, rigid.NewCollisionHandler(r))
	stepN(t, s, 300, 1.0/60)

	assert.Equal(t, 1, r.begin)
	assert.T(t, r.preSolve > 0)
	assert.Equal(t, 0, r.postSolve)
	assert.Equal(t, 1, r.separate)
	assert.Equal(t, vec.Vec2{X: 1}, mustBody(t, s, a).Velocity())
}

func TestZeroPersistenceKeepsTouchingArbiters(t *testing.T) {
	s := rigid.NewSpace()
	s.CollisionPersistence = 0
	_, shapeA := addBall(t, s, vec.Vec2{}, 1)
	_, shapeB := addBall(t, s, vec.Vec2{X: 1.5}, 1)
	for _, id := range []rigid.ShapeID{shapeA, shapeB} {
		shape, _ := s.Shape(id)
		shape.CollisionType = ballType
	}
	r := &recorder{}
	s.SetCollisionHandler(ballType, ballType, rigid.NewCollisionHandler(r))

	for i := 0; i < 3; i++ {
		assert.Equal(t, nil, s.Step(1.0/60))
		var count int
		s.EachArbiter(func(arb *rigid.Arbiter) {
			count++
			a, b := arb.Shapes()
			if a == nil || b == nil {
				t.Errorf("step %d: arbiter shapes %v %v", i, a, b)
			}
			assert.Equal(t, 1, arb.Count())
		})
		assert.Equal(t, 1, count)
	}
	assert.Equal(t, 1, r.begin)
	assert.Equal(t, 0, r.separate)
}
