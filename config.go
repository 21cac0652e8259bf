package rigid

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/setanarut/vec"
	"gopkg.in/yaml.v3"
)

// Config holds the tuning parameters of a Space.
//
//	iterations: 10
//	gravity: {x: 0, y: -100}
//	damping: 1
//	collision_slop: 0.1
//	collision_bias: 0.0017970074436457143
//	collision_persistence: 3
//	rebuild_threshold: 4
//	sleep_time_threshold: .inf
//	idle_speed_threshold: 0
type Config struct {
	Iterations           uint    `yaml:"iterations"`
	Gravity              Vector  `yaml:"gravity"`
	Damping              float64 `yaml:"damping"`
	CollisionSlop        float64 `yaml:"collision_slop"`
	CollisionBias        float64 `yaml:"collision_bias"`
	CollisionPersistence uint    `yaml:"collision_persistence"`
	// RebuildThreshold is how many times worse than optimal the dynamic tree
	// may get before it is rebuilt from scratch. 0 disables rebuilds.
	RebuildThreshold float64 `yaml:"rebuild_threshold"`
	// SleepTimeThreshold is how long a group of bodies stays idle before it
	// falls asleep. Infinite values disable sleeping.
	SleepTimeThreshold float64 `yaml:"sleep_time_threshold"`
	IdleSpeedThreshold float64 `yaml:"idle_speed_threshold"`
}

// Vector is the YAML form of a vec.Vec2.
type Vector struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Vec2 converts v.
func (v Vector) Vec2() vec.Vec2 {
	return vec.Vec2{X: v.X, Y: v.Y}
}

// DefaultConfig returns the parameters NewSpace uses.
func DefaultConfig() Config {
	return Config{
		Iterations:           10,
		Damping:              1,
		CollisionSlop:        0.1,
		CollisionBias:        defaultCollisionBias,
		CollisionPersistence: 3,
		RebuildThreshold:     4,
		SleepTimeThreshold:   infinity,
	}
}

// ParseConfig decodes a YAML document on top of DefaultConfig. Unknown keys are an error.
func ParseConfig(data []byte) (Config, error) {
	return LoadConfig(bytes.NewReader(data))
}

// LoadConfig reads a YAML document from r on top of DefaultConfig and validates it.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every parameter is usable by the solver.
func (c Config) Validate() error {
	switch {
	case c.Iterations == 0:
		return errors.New("config: iterations must be positive")
	case !isFiniteVec(c.Gravity.Vec2()):
		return errors.New("config: gravity must be finite")
	case !(c.Damping > 0 && c.Damping <= 1):
		return fmt.Errorf("config: damping %v out of range (0, 1]", c.Damping)
	case !(c.CollisionSlop >= 0) || !isFinite(c.CollisionSlop):
		return fmt.Errorf("config: collision_slop %v must be a non-negative number", c.CollisionSlop)
	case !(c.CollisionBias >= 0 && c.CollisionBias <= 1):
		return fmt.Errorf("config: collision_bias %v out of range [0, 1]", c.CollisionBias)
	case c.CollisionPersistence == 0:
		return errors.New("config: collision_persistence must be positive")
	case !(c.RebuildThreshold >= 0) || !isFinite(c.RebuildThreshold):
		return fmt.Errorf("config: rebuild_threshold %v must be a non-negative number", c.RebuildThreshold)
	case !(c.SleepTimeThreshold > 0):
		return fmt.Errorf("config: sleep_time_threshold %v must be positive", c.SleepTimeThreshold)
	case !(c.IdleSpeedThreshold >= 0) || !isFinite(c.IdleSpeedThreshold):
		return fmt.Errorf("config: idle_speed_threshold %v must be a non-negative number", c.IdleSpeedThreshold)
	}
	return nil
}

// String renders the config as YAML.
func (c Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(out)
}
