package rigid_test

import (
	"errors"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/setanarut/rigid"
	"github.com/setanarut/vec"
)

func TestPostStepCallbackDedup(t *testing.T) {
	s := rigid.NewSpace()
	approach(t, s)

	var runs []string
	remove := func(space *rigid.Space, key, data any) {
		runs = append(runs, data.(string))
	}
	var added []bool
	s.SetCollisionHandler(ballType, ballType, rigid.CollisionHandler{
		PreSolve: rigid.PreSolveFunc(func(arb *rigid.Arbiter, space *rigid.Space) bool {
			a, _ := arb.Bodies()
			added = append(added, space.AddPostStepCallback(a.ID(), remove, "first"))
			added = append(added, space.AddPostStepCallback(a.ID(), remove, "second"))
			return true
		}),
	})

	// Step until the first contact.
	for i := 0; i < 120 && len(runs) == 0; i++ {
		assert.Equal(t, nil, s.Step(1.0/60))
	}
	assert.Equal(t, []string{"first"}, runs)
	assert.Equal(t, []bool{true, false}, added)
}

func TestPostStepCallbackNilKey(t *testing.T) {
	s := rigid.NewSpace()
	var count int
	f := func(space *rigid.Space, key, data any) {
		count++
	}
	assert.T(t, s.AddPostStepCallback(nil, f, nil))
	assert.T(t, s.AddPostStepCallback(nil, f, nil))

	// Queued outside a step, they run after the next one.
	assert.Equal(t, 0, count)
	assert.Equal(t, nil, s.Step(1.0/60))
	assert.Equal(t, 2, count)

	assert.Equal(t, nil, s.Step(1.0/60))
	assert.Equal(t, 2, count)
}

func TestPostStepCallbackMutates(t *testing.T) {
	s := rigid.NewSpace()
	a, b := approach(t, s)

	s.SetCollisionHandler(ballType, ballType, rigid.CollisionHandler{
		Begin: rigid.BeginFunc(func(arb *rigid.Arbiter, space *rigid.Space) bool {
			_, body := arb.Bodies()
			space.AddPostStepCallback(body.ID(), func(space *rigid.Space, key, data any) {
				if err := space.Free(key.(rigid.BodyID)); err != nil {
					t.Error(err)
				}
			}, nil)
			return false
		}),
	})

	for i := 0; i < 120 && s.DynamicBodyCount() == 2; i++ {
		assert.Equal(t, nil, s.Step(1.0/60))
	}
	assert.Equal(t, 1, s.DynamicBodyCount())
	_, errA := s.Body(a)
	_, errB := s.Body(b)
	// Exactly one of them was freed.
	assert.T(t, (errA == nil) != (errB == nil))
}

func TestPostStepCallbackQueuesMore(t *testing.T) {
	s := rigid.NewSpace()
	var order []int
	s.AddPostStepCallback("a", func(space *rigid.Space, key, data any) {
		order = append(order, 1)
		// Callbacks queued while draining run in the same drain.
		space.AddPostStepCallback("b", func(space *rigid.Space, key, data any) {
			order = append(order, 2)
		}, nil)
	}, nil)

	assert.Equal(t, nil, s.Step(1.0/60))
	assert.Equal(t, []int{1, 2}, order)
}

func TestPostStepCallbackPanics(t *testing.T) {
	s := rigid.NewSpace()
	s.Logger = nil
	var failures []error
	s.OnCallbackError = func(err error) {
		failures = append(failures, err)
	}
	var after bool
	s.AddPostStepCallback(1, func(space *rigid.Space, key, data any) {
		panic(errors.New("boom"))
	}, nil)
	s.AddPostStepCallback(2, func(space *rigid.Space, key, data any) {
		after = true
	}, nil)

	assert.Equal(t, nil, s.Step(1.0/60))
	assert.T(t, after)
	assert.Equal(t, 1, len(failures))
	assert.T(t, errors.Is(failures[0], rigid.ErrCallbackFailure))
}

func TestPostStepCallbackAfterQuery(t *testing.T) {
	s := rigid.NewSpace()
	id, _ := addBall(t, s, vec.Vec2{}, 1)

	s.EachBody(func(body *rigid.Body) {
		if body.ID() != id {
			return
		}
		err := s.Remove(id)
		assert.T(t, errors.Is(err, rigid.ErrReentrancy))
		s.AddPostStepCallback(id, func(space *rigid.Space, key, data any) {
			assert.Equal(t, nil, space.Remove(key.(rigid.BodyID)))
		}, nil)
	})

	// The traversal drained the queue when it returned.
	assert.T(t, !s.ContainsBody(id))
}
