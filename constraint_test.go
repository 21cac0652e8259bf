package rigid_test

import (
	"errors"
	"math"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/setanarut/rigid"
	"github.com/setanarut/vec"
)

func TestCreateConstraintErrors(t *testing.T) {
	s := rigid.NewSpace()
	a, _ := addBall(t, s, vec.Vec2{}, 1)
	b, _ := addBall(t, s, vec.Vec2{X: 5}, 1)

	tests := []struct {
		name  string
		a, b  rigid.BodyID
		joint rigid.Joint
		want  error
	}{
		{"unknown body", a, rigid.BodyID(99), rigid.NewPinJoint(vec.Vec2{}, vec.Vec2{}), rigid.ErrInvalidHandle},
		{"same body", a, a, rigid.NewPinJoint(vec.Vec2{}, vec.Vec2{}), rigid.ErrInvalidGeometry},
		{"nil joint", a, b, nil, rigid.ErrInvalidGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateConstraint(tt.a, tt.b, tt.joint)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateConstraint() = %v, want %v", err, tt.want)
			}
		})
	}

	joint := rigid.NewSlideJoint(vec.Vec2{}, vec.Vec2{}, 0, 10)
	_, err := s.CreateConstraint(a, b, joint)
	assert.Equal(t, nil, err)
	_, err = s.CreateConstraint(a, b, joint)
	assert.T(t, errors.Is(err, rigid.ErrInvalidGeometry))
}

func TestConstraintNeedsBodiesInSpace(t *testing.T) {
	s := rigid.NewSpace()
	a, _ := addBall(t, s, vec.Vec2{}, 1)
	loose := s.CreateBody(1, 1)

	c, err := s.CreateConstraint(a, loose, rigid.NewPinJoint(vec.Vec2{}, vec.Vec2{}))
	assert.Equal(t, nil, err)
	assert.T(t, errors.Is(s.Add(c), rigid.ErrInvalidHandle))

	assert.Equal(t, nil, s.Add(loose, c))
	assert.T(t, s.ContainsConstraint(c))
	assert.Equal(t, 1, s.ConstraintCount())

	// Removing a body takes its constraints out of the simulation.
	assert.Equal(t, nil, s.Remove(loose))
	assert.T(t, !s.ContainsConstraint(c))
	_, err = s.Constraint(c)
	assert.Equal(t, nil, err)
}

func TestConstraintSetters(t *testing.T) {
	s := rigid.NewSpace()
	a, _ := addBall(t, s, vec.Vec2{}, 1)
	b, _ := addBall(t, s, vec.Vec2{X: 5}, 1)
	id, err := s.CreateConstraint(a, b, rigid.NewPinJoint(vec.Vec2{}, vec.Vec2{}))
	assert.Equal(t, nil, err)
	c, _ := s.Constraint(id)

	assert.Equal(t, math.MaxFloat64, c.MaxForce())
	assert.Equal(t, math.MaxFloat64, c.MaxBias())
	assert.Equal(t, math.Pow(0.9, 60), c.ErrorBias())
	assert.T(t, c.CollideBodies())

	assert.T(t, errors.Is(c.SetMaxForce(-1), rigid.ErrInvalidGeometry))
	assert.T(t, errors.Is(c.SetMaxBias(-1), rigid.ErrInvalidGeometry))
	assert.T(t, errors.Is(c.SetErrorBias(-1), rigid.ErrInvalidGeometry))
	assert.T(t, errors.Is(c.SetMaxForce(math.NaN()), rigid.ErrInvalidGeometry))
	assert.Equal(t, math.MaxFloat64, c.MaxForce())

	assert.Equal(t, nil, c.SetMaxForce(100))
	assert.Equal(t, 100.0, c.MaxForce())

	bodyA, bodyB := c.Bodies()
	assert.Equal(t, a, bodyA)
	assert.Equal(t, b, bodyB)
}

func TestPinJointKeepsDistance(t *testing.T) {
	s := rigid.NewSpace()
	s.Gravity = vec.Vec2{Y: -10}
	ball, _ := addBall(t, s, vec.Vec2{X: 5}, 0.5)

	pin := rigid.NewPinJoint(vec.Vec2{}, vec.Vec2{})
	id, err := s.CreateConstraint(s.StaticBody(), ball, pin)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(id))
	assert.Equal(t, 5.0, pin.Dist)

	for i := 0; i < 300; i++ {
		assert.Equal(t, nil, s.Step(1.0/60))
		d := mustBody(t, s, ball).Position().Mag()
		if math.Abs(d-5) > 0.1 {
			t.Fatalf("step %d: pendulum length %v, want 5", i, d)
		}
	}
	// The pendulum swung through the bottom.
	assert.T(t, pin.Impulse() > 0)
}

func TestPivotJointHoldsPoint(t *testing.T) {
	s := rigid.NewSpace()
	s.Gravity = vec.Vec2{Y: -10}
	box, _ := addBox(t, s, vec.Vec2{X: 2}, 4, 1)

	pivot := rigid.NewPivotJoint(vec.Vec2{})
	id, err := s.CreateConstraint(s.StaticBody(), box, pivot)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(id))
	assert.Equal(t, vec.Vec2{X: -2}, pivot.AnchorB)

	stepN(t, s, 240, 1.0/60)

	body := mustBody(t, s, box)
	end := body.LocalToWorld(pivot.AnchorB)
	if end.Mag() > 0.1 {
		t.Errorf("pivot drifted to %v", end)
	}
	assert.T(t, body.Position().Y < 0)
}

func TestConstraintCollideBodies(t *testing.T) {
	for _, collide := range []bool{true, false} {
		s := rigid.NewSpace()
		a, _ := addBall(t, s, vec.Vec2{}, 1)
		b, _ := addBall(t, s, vec.Vec2{X: 1}, 1)
		id, err := s.CreateConstraint(a, b, rigid.NewSlideJoint(vec.Vec2{}, vec.Vec2{}, 0, 10))
		assert.Equal(t, nil, err)
		c, _ := s.Constraint(id)
		c.SetCollideBodies(collide)
		assert.Equal(t, nil, s.Add(id))

		assert.Equal(t, nil, s.Step(1.0/60))
		var count int
		s.EachArbiter(func(*rigid.Arbiter) {
			count++
		})
		if collide && count != 1 {
			t.Errorf("collide=%v: %d arbiters, want 1", collide, count)
		}
		if !collide && count != 0 {
			t.Errorf("collide=%v: %d arbiters, want 0", collide, count)
		}
	}
}

func TestSimpleMotorSpins(t *testing.T) {
	s := rigid.NewSpace()
	wheel, _ := addBall(t, s, vec.Vec2{}, 1)
	pivot, err := s.CreateConstraint(s.StaticBody(), wheel, rigid.NewPivotJoint(vec.Vec2{}))
	assert.Equal(t, nil, err)
	motor, err := s.CreateConstraint(s.StaticBody(), wheel, rigid.NewSimpleMotor(2))
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(pivot, motor))

	stepN(t, s, 10, 1.0/60)
	if w := mustBody(t, s, wheel).AngularVelocity(); math.Abs(w+2) > 1e-6 {
		t.Errorf("angular velocity = %v, want -2", w)
	}
}

func TestRotaryLimitJoint(t *testing.T) {
	s := rigid.NewSpace()
	wheel, _ := addBall(t, s, vec.Vec2{}, 1)
	mustBody(t, s, wheel).SetAngularVelocity(10)
	limit, err := s.CreateConstraint(s.StaticBody(), wheel, rigid.NewRotaryLimitJoint(-0.5, 0.5))
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(limit))

	for i := 0; i < 120; i++ {
		assert.Equal(t, nil, s.Step(1.0/60))
		if a := mustBody(t, s, wheel).Angle(); a > 0.75 || a < -0.75 {
			t.Fatalf("step %d: angle %v escaped the limit", i, a)
		}
	}
}

func TestConstraintHooks(t *testing.T) {
	s := rigid.NewSpace()
	a, _ := addBall(t, s, vec.Vec2{}, 1)
	b, _ := addBall(t, s, vec.Vec2{X: 5}, 1)
	id, err := s.CreateConstraint(a, b, rigid.NewDampedSpring(vec.Vec2{}, vec.Vec2{}, 3, 10, 1))
	assert.Equal(t, nil, err)
	c, _ := s.Constraint(id)

	var pre, post int
	c.PreSolve = func(c *rigid.Constraint, space *rigid.Space) {
		assert.T(t, space.IsLocked())
		pre++
	}
	c.PostSolve = func(c *rigid.Constraint, space *rigid.Space) {
		post++
	}
	assert.Equal(t, nil, s.Add(id))

	stepN(t, s, 5, 1.0/60)
	assert.Equal(t, 5, pre)
	assert.Equal(t, 5, post)

	// The spring pulls the balls together.
	assert.T(t, mustBody(t, s, a).Velocity().X > 0)
	assert.T(t, mustBody(t, s, b).Velocity().X < 0)
}

func TestJointsStayFinite(t *testing.T) {
	joints := map[string]func() rigid.Joint{
		"pin":           func() rigid.Joint { return rigid.NewPinJoint(vec.Vec2{}, vec.Vec2{}) },
		"slide":         func() rigid.Joint { return rigid.NewSlideJoint(vec.Vec2{}, vec.Vec2{}, 1, 2) },
		"pivot":         func() rigid.Joint { return rigid.NewPivotJoint2(vec.Vec2{X: 1}, vec.Vec2{X: -1}) },
		"groove":        func() rigid.Joint { return rigid.NewGrooveJoint(vec.Vec2{X: -1}, vec.Vec2{X: 3}, vec.Vec2{}) },
		"spring":        func() rigid.Joint { return rigid.NewDampedSpring(vec.Vec2{}, vec.Vec2{}, 2, 50, 2) },
		"rotary spring": func() rigid.Joint { return rigid.NewDampedRotarySpring(0, 50, 2) },
		"rotary limit":  func() rigid.Joint { return rigid.NewRotaryLimitJoint(-1, 1) },
		"ratchet":       func() rigid.Joint { return rigid.NewRatchetJoint(0, math.Pi/4) },
		"gear":          func() rigid.Joint { return rigid.NewGearJoint(0, 2) },
		"motor":         func() rigid.Joint { return rigid.NewSimpleMotor(1) },
	}
	for name, newJoint := range joints {
		t.Run(name, func(t *testing.T) {
			s := rigid.NewSpace()
			s.Gravity = vec.Vec2{Y: -10}
			a, _ := addBox(t, s, vec.Vec2{}, 1, 1)
			b, _ := addBox(t, s, vec.Vec2{X: 3}, 1, 1)
			mustBody(t, s, a).SetAngularVelocity(3)
			mustBody(t, s, b).SetVelocity(0, 4)

			id, err := s.CreateConstraint(a, b, newJoint())
			assert.Equal(t, nil, err)
			c, _ := s.Constraint(id)
			c.SetCollideBodies(false)
			assert.Equal(t, nil, s.Add(id))

			stepN(t, s, 120, 1.0/60)
			for _, body := range []*rigid.Body{mustBody(t, s, a), mustBody(t, s, b)} {
				p, v := body.Position(), body.Velocity()
				if math.IsNaN(p.X+p.Y+v.X+v.Y+body.Angle()+body.AngularVelocity()) {
					t.Fatalf("%v went NaN", body)
				}
			}
			if math.IsNaN(c.Impulse()) {
				t.Error("impulse is NaN")
			}
		})
	}
}

// pinnedWheel adds a ball of radius 1 that turns around a fixed pivot at pos.
func pinnedWheel(t *testing.T, s *rigid.Space, pos vec.Vec2) *rigid.Body {
	t.Helper()
	id, _ := addBall(t, s, pos, 1)
	pivot, err := s.CreateConstraint(s.StaticBody(), id, rigid.NewPivotJoint(pos))
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(pivot))
	return mustBody(t, s, id)
}

func TestSlideJointKeepsRange(t *testing.T) {
	s := rigid.NewSpace()
	s.Gravity = vec.Vec2{Y: -5}
	ball, _ := addBall(t, s, vec.Vec2{X: 1.5}, 0.25)
	body := mustBody(t, s, ball)
	body.SetVelocity(-3, 0)

	slide := rigid.NewSlideJoint(vec.Vec2{}, vec.Vec2{}, 1, 2)
	id, err := s.CreateConstraint(s.StaticBody(), ball, slide)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(id))

	var hitMin, hitMax bool
	for i := 0; i < 300; i++ {
		assert.Equal(t, nil, s.Step(1.0/60))
		d := body.Position().Mag()
		if d < slide.Min-0.1 || d > slide.Max+0.1 {
			t.Fatalf("step %d: distance %v outside [%v, %v]", i, d, slide.Min, slide.Max)
		}
		hitMin = hitMin || d < slide.Min+0.05
		hitMax = hitMax || d > slide.Max-0.05
	}
	assert.T(t, hitMin)
	assert.T(t, hitMax)
}

func TestGrooveJointKeepsAnchorOnGroove(t *testing.T) {
	s := rigid.NewSpace()
	s.Gravity = vec.Vec2{Y: -10}
	ball, _ := addBall(t, s, vec.Vec2{}, 0.5)
	body := mustBody(t, s, ball)
	body.SetVelocity(3, 0)

	groove := rigid.NewGrooveJoint(vec.Vec2{X: -5}, vec.Vec2{X: 5}, vec.Vec2{})
	id, err := s.CreateConstraint(s.StaticBody(), ball, groove)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(id))

	for i := 0; i < 240; i++ {
		assert.Equal(t, nil, s.Step(1.0/60))
		p := body.LocalToWorld(groove.AnchorB)
		if math.Abs(p.Y) > 0.05 {
			t.Fatalf("step %d: anchor %v left the groove", i, p)
		}
		if p.X < -5.1 || p.X > 5.1 {
			t.Fatalf("step %d: anchor %v ran past the groove ends", i, p)
		}
	}
	// The ball slid to the end of the groove and stopped there.
	if x := body.Position().X; math.Abs(x-5) > 0.1 {
		t.Errorf("x = %v, want 5", x)
	}
}

func TestDampedSpringSettlesAtRestLength(t *testing.T) {
	s := rigid.NewSpace()
	a, _ := addBall(t, s, vec.Vec2{}, 0.5)
	b, _ := addBall(t, s, vec.Vec2{X: 5}, 0.5)
	spring := rigid.NewDampedSpring(vec.Vec2{}, vec.Vec2{}, 3, 20, 2)
	id, err := s.CreateConstraint(a, b, spring)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(id))

	stepN(t, s, 360, 1.0/60)
	d := mustBody(t, s, a).Position().Distance(mustBody(t, s, b).Position())
	if math.Abs(d-spring.RestLength) > 0.01 {
		t.Errorf("spring length = %v, want %v", d, spring.RestLength)
	}
}

func TestDampedRotarySpringSettlesAtRestAngle(t *testing.T) {
	s := rigid.NewSpace()
	wheel := pinnedWheel(t, s, vec.Vec2{})
	id, err := s.CreateConstraint(s.StaticBody(), wheel.ID(), rigid.NewDampedRotarySpring(1, 10, 2))
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(id))

	stepN(t, s, 360, 1.0/60)
	// The spring works on the angle of the first body relative to the second.
	if a := wheel.Angle(); math.Abs(a+1) > 0.01 {
		t.Errorf("angle = %v, want -1", a)
	}
}

func TestRatchetJointTurnsOneWay(t *testing.T) {
	s := rigid.NewSpace()
	wheel := pinnedWheel(t, s, vec.Vec2{})
	ratchet := rigid.NewRatchetJoint(0, math.Pi/4)
	id, err := s.CreateConstraint(s.StaticBody(), wheel.ID(), ratchet)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(id))

	// Forward turns freely.
	wheel.SetAngularVelocity(2)
	stepN(t, s, 60, 1.0/60)
	forward := wheel.Angle()
	if math.Abs(forward-2) > 0.01 {
		t.Errorf("angle = %v, want 2", forward)
	}
	notch := math.Floor(forward/ratchet.Ratchet) * ratchet.Ratchet
	assert.Equal(t, notch, ratchet.Angle)

	// Backward stops at the last notch.
	wheel.SetAngularVelocity(-2)
	for i := 0; i < 60; i++ {
		assert.Equal(t, nil, s.Step(1.0/60))
		if a := wheel.Angle(); a < notch-0.05 || a > forward+1e-9 {
			t.Fatalf("step %d: angle %v, want it in [%v, %v]", i, a, notch, forward)
		}
	}
	// It was pushed back and drifts forward again.
	assert.T(t, wheel.AngularVelocity() >= 0)
}

func TestGearJointHoldsRatio(t *testing.T) {
	s := rigid.NewSpace()
	a := pinnedWheel(t, s, vec.Vec2{})
	b := pinnedWheel(t, s, vec.Vec2{X: 5})
	gear := rigid.NewGearJoint(0, 2)
	id, err := s.CreateConstraint(a.ID(), b.ID(), gear)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, s.Add(id))
	assert.Equal(t, 2.0, gear.Ratio())
	assert.Equal(t, 0.0, gear.Phase())

	a.SetAngularVelocity(2)
	for i := 0; i < 120; i++ {
		assert.Equal(t, nil, s.Step(1.0/60))
		if e := b.Angle()*gear.Ratio() - a.Angle() - gear.Phase(); math.Abs(e) > 0.01 {
			t.Fatalf("step %d: gear error %v", i, e)
		}
	}
	if math.Abs(b.AngularVelocity()*2-a.AngularVelocity()) > 1e-6 {
		t.Errorf("angular velocities %v and %v are not 2:1", a.AngularVelocity(), b.AngularVelocity())
	}

	// The wheels counter rotate after the change and settle on the new phase.
	gear.SetRatio(-1)
	gear.SetPhase(0.5)
	assert.Equal(t, -1.0, gear.Ratio())
	assert.Equal(t, 0.5, gear.Phase())
	stepN(t, s, 240, 1.0/60)
	if e := -b.Angle() - a.Angle() - 0.5; math.Abs(e) > 0.01 {
		t.Errorf("gear error %v after the change", e)
	}
	if math.Abs(a.AngularVelocity()+b.AngularVelocity()) > 1e-3 {
		t.Errorf("angular velocities %v and %v do not counter rotate", a.AngularVelocity(), b.AngularVelocity())
	}
}
