package persistence

import (
	"encoding/json"
	"fmt"
	"os"
)

// createExclusive creates path only if it does not exist yet.
func createExclusive(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644) // #nosec G304 -- path is built by the store
}

// LoadJSON decodes the JSON file at filePath into objectPointer.
func LoadJSON(filePath string, objectPointer interface{}) error {
	data, err := os.ReadFile(filePath) // #nosec G304 -- callers validate file names
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, objectPointer); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filePath, err)
	}
	return nil
}
