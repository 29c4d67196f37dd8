package config

import (
	"errors"
	"fmt"
	"os"

	jlconfig "github.com/JeremyLoy/config"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/diceroll/internal/metrics"
	"github.com/san-kum/diceroll/internal/rigid"
	"github.com/san-kum/diceroll/internal/world"
)

const (
	DefaultMass   = 10.0
	DefaultSize   = 10.0
	DefaultHeight = 50.0
	DefaultPreset = "classic"
)

var ErrInvalidConfig = errors.New("config: invalid config")

type Config struct {
	Preset  string       `yaml:"preset"`
	Physics rigid.Params `yaml:"physics"`
	Sim     world.Config `yaml:"sim"`
	Dice    []DieConfig  `yaml:"dice"`
	Log     LogConfig    `yaml:"log"`
}

type DieConfig struct {
	Name     string    `yaml:"name" json:"name"`
	Mass     float64   `yaml:"mass" json:"mass"`
	Size     float64   `yaml:"size" json:"size"`
	Position []float64 `yaml:"position,flow" json:"position"`
	Velocity []float64 `yaml:"velocity,flow" json:"velocity"`
	Spin     []float64 `yaml:"spin,flow" json:"spin"`
}

type LogConfig struct {
	Level  string `yaml:"level" config:"DICE_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" config:"DICE_LOG_PRETTY"`
}

// DefaultConfig is the classic throw: one 10x10x10 die of mass 10 launched
// sideways from y=50 with a slow spin about z.
func DefaultConfig() *Config {
	return &Config{
		Preset:  DefaultPreset,
		Physics: rigid.DefaultParams(),
		Sim:     world.DefaultConfig(),
		Dice: []DieConfig{{
			Name:     "d1",
			Mass:     DefaultMass,
			Size:     DefaultSize,
			Position: []float64{0, DefaultHeight, 0},
			Velocity: []float64{2, 0, 0},
			Spin:     []float64{0, 0, 0.1},
		}},
		Log: LogConfig{Level: "info", Pretty: true},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadOver(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOver decodes the YAML file at path on top of base. Keys missing from the
// file keep base's values; a dice list in the file replaces base's dice.
func LoadOver(path string, base *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return eris.Wrapf(err, "parse config %s", path)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return eris.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return eris.Wrapf(err, "write config %s", path)
	}
	return nil
}

// ApplyEnv overrides physics and logging settings from DICE_* variables.
// Unset variables leave the current values alone.
func (c *Config) ApplyEnv() error {
	if err := jlconfig.FromEnv().To(&c.Physics); err != nil {
		return eris.Wrap(err, "physics from env")
	}
	if err := jlconfig.FromEnv().To(&c.Log); err != nil {
		return eris.Wrap(err, "log from env")
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Physics.Validate(); err != nil {
		return eris.Wrap(err, "physics")
	}
	if !(c.Sim.Dt > 0) {
		return eris.Wrapf(ErrInvalidConfig, "sim.dt must be positive, got %f", c.Sim.Dt)
	}
	if !(c.Sim.Duration > 0) {
		return eris.Wrapf(ErrInvalidConfig, "sim.duration must be positive, got %f", c.Sim.Duration)
	}
	if len(c.Dice) == 0 {
		return eris.Wrap(ErrInvalidConfig, "at least one die is required")
	}

	seen := make(map[string]bool, len(c.Dice))
	for i, d := range c.Dice {
		if d.Name == "" {
			return eris.Wrapf(ErrInvalidConfig, "dice[%d]: name is required", i)
		}
		if seen[d.Name] {
			return eris.Wrapf(ErrInvalidConfig, "dice[%d]: duplicate name %q", i, d.Name)
		}
		seen[d.Name] = true

		if !(d.Mass > 0) || !(d.Size > 0) {
			return eris.Wrapf(ErrInvalidConfig, "die %s: mass and size must be positive", d.Name)
		}
		for _, f := range []struct {
			name string
			v    []float64
		}{{"position", d.Position}, {"velocity", d.Velocity}, {"spin", d.Spin}} {
			if len(f.v) != 3 {
				return eris.Wrapf(ErrInvalidConfig, "die %s: %s needs 3 components, got %d", d.Name, f.name, len(f.v))
			}
		}
		if d.Position[1] <= d.Size/2 {
			return eris.Wrapf(ErrInvalidConfig, "die %s: start height %.3f is not above %.3f", d.Name, d.Position[1], d.Size/2)
		}
	}
	return nil
}

func (c *Config) Masses() map[string]float64 {
	m := make(map[string]float64, len(c.Dice))
	for _, d := range c.Dice {
		m[d.Name] = d.Mass
	}
	return m
}

// Build validates c and returns a world with every die thrown and the
// default metrics attached.
func (c *Config) Build(opts ...world.Option) (*world.World, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	integ, err := rigid.NewIntegrator(c.Physics)
	if err != nil {
		return nil, err
	}

	w := world.New(integ, append([]world.Option{world.WithWorkers(c.Sim.Workers)}, opts...)...)
	for _, d := range c.Dice {
		b, err := rigid.NewBody(d.Mass, d.Size)
		if err != nil {
			return nil, eris.Wrapf(err, "die %s", d.Name)
		}
		if err := w.Add(d.Name, b); err != nil {
			return nil, err
		}
	}
	for _, m := range metrics.Defaults(c.Physics.Gravity, c.Masses()) {
		w.AddMetric(m)
	}
	if err := c.Rethrow(w); err != nil {
		return nil, err
	}
	return w, nil
}

// Rethrow throws every configured die again from its starting state.
func (c *Config) Rethrow(w *world.World) error {
	for _, d := range c.Dice {
		if err := w.Throw(d.Name, vec(d.Velocity), vec(d.Spin), vec(d.Position)); err != nil {
			return eris.Wrapf(err, "throw %s", d.Name)
		}
	}
	return nil
}

func vec(v []float64) mgl64.Vec3 {
	var out mgl64.Vec3
	copy(out[:], v)
	return out
}

// Replicate replaces the dice with n copies of the first one, named d1..dn,
// spread along x two edge lengths apart and staggered upward by half an edge.
func (c *Config) Replicate(n int) error {
	if n < 1 {
		return eris.Wrapf(ErrInvalidConfig, "dice count must be at least 1, got %d", n)
	}
	if len(c.Dice) == 0 {
		return eris.Wrap(ErrInvalidConfig, "no die to replicate")
	}

	tmpl := c.Dice[0]
	base := vec(tmpl.Position)
	dice := make([]DieConfig, n)
	for i := range dice {
		offset := (float64(i) - float64(n-1)/2) * 2 * tmpl.Size
		p := base.Add(mgl64.Vec3{offset, float64(i) * tmpl.Size / 2, 0})
		dice[i] = DieConfig{
			Name:     fmt.Sprintf("d%d", i+1),
			Mass:     tmpl.Mass,
			Size:     tmpl.Size,
			Position: []float64{p.X(), p.Y(), p.Z()},
			Velocity: append([]float64(nil), tmpl.Velocity...),
			Spin:     append([]float64(nil), tmpl.Spin...),
		}
	}
	c.Dice = dice
	return nil
}
