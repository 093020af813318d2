package config

import "sort"

var Presets = map[string]func(*Config){
	"standard": func(*Config) {},
	"shallow": func(c *Config) {
		c.Params.Lambda = 2
		c.Levels = 1
	},
	"deep": func(c *Config) {
		c.Params.Lambda = 6
		c.Levels = 5
	},
	"fine": func(c *Config) {
		c.Grid.Step = 0.01
	},
	"fast": func(c *Config) {
		c.Scan.Samples = 400
		c.Scan.Workers = 4
	},
}

// GetPreset returns a fresh config with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
