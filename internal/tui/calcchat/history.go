package calcchat

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// maxHistory bounds the persisted input history
const maxHistory = 100

type historyFile struct {
	Inputs []string `json:"inputs"`
}

// LoadHistory reads the input history at path. A missing or unreadable file
// yields an empty history.
func LoadHistory(path string) []string {
	if path == "" {
		return []string{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{}
	}
	var h historyFile
	if err := json.Unmarshal(data, &h); err != nil {
		return []string{}
	}
	return h.Inputs
}

// SaveHistory writes the last maxHistory inputs to path
func SaveHistory(path string, inputs []string) error {
	if path == "" {
		return errors.New("no history path")
	}
	if len(inputs) > maxHistory {
		inputs = inputs[len(inputs)-maxHistory:]
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(historyFile{Inputs: inputs}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
