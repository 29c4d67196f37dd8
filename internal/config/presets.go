package config

import "sort"

func die(name string, pos, vel, spin []float64) DieConfig {
	return DieConfig{Name: name, Mass: DefaultMass, Size: DefaultSize, Position: pos, Velocity: vel, Spin: spin}
}

var presets = map[string][]DieConfig{
	"classic": {die("d1", []float64{0, 50, 0}, []float64{2, 0, 0}, []float64{0, 0, 0.1})},
	"drop":    {die("d1", []float64{0, 30, 0}, []float64{0, 0, 0}, []float64{0, 0, 0})},
	"spin":    {die("d1", []float64{0, 20, 0}, []float64{0, 0, 0}, []float64{3, 5, 1})},
	"lob":     {die("d1", []float64{-20, 10, 0}, []float64{8, 15, 1}, []float64{1, 0, 2})},

	"pair": {
		die("d1", []float64{-15, 40, 0}, []float64{3, 0, 1}, []float64{0.5, 0, 0.3}),
		die("d2", []float64{15, 45, 0}, []float64{-3, 2, -1}, []float64{0, 1.5, -0.4}),
	},
}

// GetPreset returns a fresh config for the named throw, or nil.
func GetPreset(name string) *Config {
	dice, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Preset = name
	cfg.Dice = make([]DieConfig, len(dice))
	for i, d := range dice {
		cfg.Dice[i] = DieConfig{
			Name:     d.Name,
			Mass:     d.Mass,
			Size:     d.Size,
			Position: append([]float64(nil), d.Position...),
			Velocity: append([]float64(nil), d.Velocity...),
			Spin:     append([]float64(nil), d.Spin...),
		}
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
