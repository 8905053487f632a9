package persistence

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
)

// SaveGob encodes the given object using gob and saves it to the specified filePath.
// The file is written to a temporary sibling first and renamed into place, so a
// reader never sees a partially written snapshot.
func SaveGob(filePath string, object interface{}) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return internalErrors.NewPersistenceError(dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return internalErrors.NewPersistenceError(filePath, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if err := gob.NewEncoder(tmp).Encode(object); err != nil {
		_ = tmp.Close()
		return internalErrors.NewPersistenceError(filePath, fmt.Errorf("gob encode: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return internalErrors.NewPersistenceError(filePath, err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		return internalErrors.NewPersistenceError(filePath, err)
	}
	return nil
}

// LoadGob decodes a gob-encoded file from filePath into the provided object pointer.
// The object must be a pointer to the type that was originally encoded.
// If the file does not exist, it returns os.ErrNotExist, allowing callers to handle
// fresh starts gracefully.
func LoadGob(filePath string, objectPointer interface{}) error {
	file, err := os.Open(filePath) // #nosec G304 -- filePath is controlled by application, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filePath, closeErr)
		}
	}()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(objectPointer); err != nil {
		return fmt.Errorf("failed to gob decode from file %s: %w", filePath, err)
	}
	return nil
}
