// Package fixture loads the credential payload posted to API login endpoints.
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the credential fixture lives, relative to the working directory.
const DefaultPath = "fixtures/credentials.yaml"

// Payload is the decoded credential fixture, posted as JSON.
type Payload map[string]any

// File reads a YAML or JSON fixture from disk. The file is read again on
// every Load, and ${VAR} references in string values are expanded against
// the environment at that moment, so credential changes need no restart.
type File struct {
	Path string

	// Getenv defaults to os.Getenv
	Getenv func(string) string
}

// NewFile returns a loader for the fixture at path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Load reads and expands the fixture.
func (f *File) Load() (Payload, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential fixture: %w", err)
	}

	var raw map[string]any
	// JSON is a subset of YAML, one decoder serves both
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse credential fixture %s: %w", f.Path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("credential fixture %s is empty", f.Path)
	}

	getenv := f.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	return Payload(expand(raw, getenv).(map[string]any)), nil
}

func expand(v any, getenv func(string) string) any {
	switch val := v.(type) {
	case string:
		return os.Expand(val, getenv)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = expand(item, getenv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = expand(item, getenv)
		}
		return out
	default:
		return v
	}
}

// Static always returns the same payload.
type Static Payload

// Load returns a copy of the payload.
func (s Static) Load() (Payload, error) {
	out := make(Payload, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}
