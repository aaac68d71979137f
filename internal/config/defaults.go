package config

import (
	_ "embed"
)

//go:embed defaults/tagsim.yaml
var defaultTuningYAML []byte

// DefaultYAML returns the embedded default tuning file.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultTuningYAML))
	copy(out, defaultTuningYAML)
	return out
}

// DefaultTuning returns the built-in tuning, used when no file is found.
func DefaultTuning() Tuning {
	return Tuning{
		Movement: MovementConfig{
			RetryBudget:  1000,
			GraceRetries: 100,
		},
		Risk: RiskConfig{
			Min: 0,
			Max: 100,
		},
		Cadence: CadenceConfig{
			Jitter: 0.5,
		},
		Render: RenderConfig{
			IntervalMS: 0,
		},
		It: ItConfig{
			StartingAgent: 0,
		},
	}
}
