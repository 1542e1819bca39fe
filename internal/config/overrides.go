package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Clone returns a deep copy of the configuration
func (c *Config) Clone() (*Config, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to copy config: %w", err)
	}
	var out Config
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to copy config: %w", err)
	}
	out.Publish = c.Publish
	out.HTTP = c.HTTP
	return &out, nil
}

// MergeJSON decodes a JSON override over a copy of c and validates the result.
// Fields absent from the override keep their current values; unknown fields are rejected.
func (c *Config) MergeJSON(data []byte) (*Config, error) {
	merged, err := c.Clone()
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(merged); err != nil {
			return nil, fmt.Errorf("failed to parse config override: %w", err)
		}
	}
	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}
