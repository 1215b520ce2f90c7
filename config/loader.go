package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadQueryProfile overlays the JSON file at path onto base. Keys missing
// from the file keep the value from base.
func LoadQueryProfile(path string, base QueryProfile) (QueryProfile, error) {
	// Get absolute path to profile file
	absPath, err := filepath.Abs(path)
	if err != nil {
		return QueryProfile{}, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return QueryProfile{}, fmt.Errorf("failed to read query profile: %w", err)
	}

	profile := base
	profile.ExclusionMarkers = append([]string(nil), base.ExclusionMarkers...)
	if err := json.Unmarshal(data, &profile); err != nil {
		return QueryProfile{}, fmt.Errorf("failed to parse query profile: %w", err)
	}

	if err := profile.Validate(); err != nil {
		return QueryProfile{}, fmt.Errorf("invalid query profile %s: %w", absPath, err)
	}
	return profile, nil
}

// SaveQueryProfile writes profile to path with pretty printing.
func SaveQueryProfile(path string, profile QueryProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(profile, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal query profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write query profile: %w", err)
	}
	return nil
}
