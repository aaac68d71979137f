package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadTuning loads the tuning file. Keys missing from the file keep their
// default values.
// Search order: customPath -> ~/.tagsim/config.yaml -> ./configs/tagsim.yaml -> embedded default
func LoadTuning(customPath string) (Tuning, error) {
	cfg := DefaultTuning()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if loaded, ok := tryLoad(userCfgPath); ok {
			return loaded, nil
		}
	}

	// Try local configs directory
	if loaded, ok := tryLoad(filepath.Join("configs", "tagsim.yaml")); ok {
		return loaded, nil
	}

	// Use embedded default YAML
	embedded := DefaultTuning()
	if err := yaml.Unmarshal(defaultTuningYAML, &embedded); err != nil {
		return DefaultTuning(), nil // Fallback to hardcoded if embed fails
	}
	return embedded, nil
}

// tryLoad reads an optional config file. Unreadable or malformed files are
// skipped.
func tryLoad(path string) (Tuning, bool) {
	cfg := DefaultTuning()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, false
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, false
	}
	return cfg, true
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tagsim", filename)
}
