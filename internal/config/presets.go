package config

import "fmt"

// RiskPreset is a named risk tolerance range.
type RiskPreset string

const (
	RiskCautious RiskPreset = "cautious"
	RiskMixed    RiskPreset = "mixed"
	RiskBold     RiskPreset = "bold"
)

// RiskPresets lists the known presets.
func RiskPresets() []RiskPreset {
	return []RiskPreset{RiskCautious, RiskMixed, RiskBold}
}

// ApplyRiskPreset overrides the risk range. An empty preset leaves it alone.
func ApplyRiskPreset(cfg *Tuning, preset RiskPreset) error {
	switch preset {
	case "":
		return nil
	case RiskCautious:
		cfg.Risk = RiskConfig{Min: 0, Max: 25}
	case RiskMixed:
		cfg.Risk = RiskConfig{Min: 0, Max: 100}
	case RiskBold:
		cfg.Risk = RiskConfig{Min: 75, Max: 100}
	default:
		return &ValidationError{Problems: []string{
			fmt.Sprintf("unknown risk preset %q (expected cautious, mixed or bold)", preset),
		}}
	}
	return nil
}
