package config

import "sort"

var Presets = map[string]*Config{
	"quick": {
		Grid: 11, Option: "mean",
	},
	"standard": {
		Grid: 21, Option: "samples",
	},
	"fine": {
		Grid: 41, Option: "samples",
	},
	"interactions": {
		Grid: 21, Option: "samples", Pairs: Pairs{All: true},
	},
	"median": {
		Grid: 21, Option: "median", Pairs: Pairs{All: true},
	},
}

// GetPreset returns the default configuration with the named preset's
// analysis settings applied, or nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Grid = p.Grid
	cfg.Option = p.Option
	cfg.Pairs = p.Pairs
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
