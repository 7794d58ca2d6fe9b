package sync

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Target pairs a course with the local directory its files are mirrored to.
type Target struct {
	CourseID string `mapstructure:"course" json:"course" yaml:"course"`
	Path     string `mapstructure:"path" json:"path" yaml:"path"`
}

// DecodeTargets reads the sync targets from a raw config value, which is
// expected to be a list of maps.
func DecodeTargets(raw interface{}) ([]Target, error) {
	if raw == nil {
		return []Target{}, nil // No targets configured
	}

	entries, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("sync targets are not a list")
	}

	targets := make([]Target, 0, len(entries))
	for i, entry := range entries {
		m, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("sync target %d is not a map", i)
		}

		var target Target
		if err := mapstructure.Decode(m, &target); err != nil {
			return nil, fmt.Errorf("failed to decode sync target %d: %w", i, err)
		}

		if target.CourseID == "" {
			return nil, fmt.Errorf("sync target %d missing 'course' field", i)
		}
		if target.Path == "" {
			return nil, fmt.Errorf("sync target %d missing 'path' field", i)
		}
		targets = append(targets, target)
	}

	return targets, nil
}
