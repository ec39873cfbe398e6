package config

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			ScanFileCeiling:      200,
			ScanWallClockSeconds: 7,
			PropagatorFanout:     16,
			PropagatorDepth:      2,
			RenameLineWindow:     10,
			EntryPointPatterns:   []string{"^(main|run|start|handler|init)$"},
		},
		Scan: ScanConfig{
			Exclude: []string{
				"vendor/**",
				"node_modules/**",
				"dist/**",
				"build/**",
				"**/testdata/**",
			},
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Engine = mergeEngineConfig(loaded.Engine, defaults.Engine)
	result.Scan = mergeScanConfig(loaded.Scan, defaults.Scan)

	return result
}

func mergeEngineConfig(loaded, defaults EngineConfig) EngineConfig {
	result := EngineConfig{}

	if loaded.ScanFileCeiling != 0 {
		result.ScanFileCeiling = loaded.ScanFileCeiling
	} else {
		result.ScanFileCeiling = defaults.ScanFileCeiling
	}

	if loaded.ScanWallClockSeconds != 0 {
		result.ScanWallClockSeconds = loaded.ScanWallClockSeconds
	} else {
		result.ScanWallClockSeconds = defaults.ScanWallClockSeconds
	}

	if loaded.PropagatorFanout != 0 {
		result.PropagatorFanout = loaded.PropagatorFanout
	} else {
		result.PropagatorFanout = defaults.PropagatorFanout
	}

	if loaded.PropagatorDepth != 0 {
		result.PropagatorDepth = loaded.PropagatorDepth
	} else {
		result.PropagatorDepth = defaults.PropagatorDepth
	}

	if loaded.RenameLineWindow != 0 {
		result.RenameLineWindow = loaded.RenameLineWindow
	} else {
		result.RenameLineWindow = defaults.RenameLineWindow
	}

	if len(loaded.EntryPointPatterns) > 0 {
		result.EntryPointPatterns = loaded.EntryPointPatterns
	} else {
		result.EntryPointPatterns = defaults.EntryPointPatterns
	}

	return result
}

func mergeScanConfig(loaded, defaults ScanConfig) ScanConfig {
	result := ScanConfig{}

	if len(loaded.Exclude) > 0 {
		result.Exclude = loaded.Exclude
	} else {
		result.Exclude = defaults.Exclude
	}

	return result
}
