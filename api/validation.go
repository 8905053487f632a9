// Package api provides validation utilities for API request handling.
package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Run request limits
const (
	DefaultNumGames = 5
	DefaultWorkers  = 5
	MaxNumGames     = 1000
	MaxWorkers      = 32
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// RunRequest is the body of a benchmark start request. Missing fields take the defaults.
type RunRequest struct {
	NumGames *int `json:"num_games"`
	Workers  *int `json:"workers"`
}

// Resolve applies defaults and validates the request
func (r RunRequest) Resolve() (numGames, workers int, result *ValidationResult) {
	result = &ValidationResult{Valid: true}

	numGames, workers = DefaultNumGames, DefaultWorkers
	if r.NumGames != nil {
		numGames = *r.NumGames
	}
	if r.Workers != nil {
		workers = *r.Workers
	}

	if numGames < 1 || numGames > MaxNumGames {
		result.AddError("num_games", fmt.Sprintf("num_games must be between 1 and %d", MaxNumGames))
	}
	if workers < 1 || workers > MaxWorkers {
		result.AddError("workers", fmt.Sprintf("workers must be between 1 and %d", MaxWorkers))
	}
	return numGames, workers, result
}

// ValidateRunID validates a run id path parameter
func ValidateRunID(runID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if runID == "" {
		result.AddError("runId", "Run ID is required")
		return result
	}
	if _, err := uuid.Parse(runID); err != nil {
		result.AddError("runId", "Run ID must be a UUID")
	}
	return result
}

// ParseCursor parses an optional event cursor query parameter
func ParseCursor(raw string) (int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, result
	}
	cursor, err := strconv.Atoi(raw)
	if err != nil || cursor < 0 {
		result.AddError("cursor", "cursor must be a non-negative integer")
		return 0, result
	}
	return cursor, result
}

// ValidateFilename rejects empty names and names that could escape the storage directory
func ValidateFilename(name string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if name == "" {
		result.AddError("filename", "Filename is required")
		return result
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		result.AddError("filename", "Filename cannot contain path separators")
	}
	return result
}
