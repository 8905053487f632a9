package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrRunNotFound is returned when a benchmark run is not in the registry
	ErrRunNotFound = errors.New("run not found")

	// ErrRunActive is returned when an operation requires a finished run
	ErrRunActive = errors.New("run still active")

	// ErrRegistryFull is returned when every registry slot holds an active run
	ErrRegistryFull = errors.New("run registry full")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfig is returned when the process configuration is unusable
	ErrConfig = errors.New("invalid configuration")

	// ErrMalformedPayload is returned when an index payload fails validation
	ErrMalformedPayload = errors.New("malformed index payload")

	// ErrPersistence is returned when a report or game record cannot be written
	ErrPersistence = errors.New("persistence failed")

	// ErrInvalidFilename is returned when a requested file name is outside the allowed set
	ErrInvalidFilename = errors.New("invalid filename")

	// ErrFileNotFound is returned when a persisted report or game record does not exist
	ErrFileNotFound = errors.New("file not found")

	// ErrNoMove is returned when a move source could not produce a move
	ErrNoMove = errors.New("no move produced")

	// ErrLogClosed is returned when appending to a run event log after its terminal event
	ErrLogClosed = errors.New("event log closed")
)

// RunNotFoundError represents a run not found error with context
type RunNotFoundError struct {
	RunID string
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run with ID '%s' not found", e.RunID)
}

func (e *RunNotFoundError) Is(target error) bool {
	return target == ErrRunNotFound
}

// NewRunNotFoundError creates a new RunNotFoundError
func NewRunNotFoundError(runID string) *RunNotFoundError {
	return &RunNotFoundError{RunID: runID}
}

// RunActiveError is returned when deleting a run that has not reached its terminal event
type RunActiveError struct {
	RunID string
}

func (e *RunActiveError) Error() string {
	return fmt.Sprintf("run with ID '%s' is still active", e.RunID)
}

func (e *RunActiveError) Is(target error) bool {
	return target == ErrRunActive
}

// NewRunActiveError creates a new RunActiveError
func NewRunActiveError(runID string) *RunActiveError {
	return &RunActiveError{RunID: runID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConfigError names the setting that made the configuration unusable
type ConfigError struct {
	Setting string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for '%s': %s", e.Setting, e.Message)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError creates a new ConfigError
func NewConfigError(setting, message string) *ConfigError {
	return &ConfigError{Setting: setting, Message: message}
}

// PayloadError describes why an index payload was rejected
type PayloadError struct {
	Field  string
	Reason string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("malformed payload field '%s': %s", e.Field, e.Reason)
}

func (e *PayloadError) Is(target error) bool {
	return target == ErrMalformedPayload
}

// NewPayloadError creates a new PayloadError
func NewPayloadError(field, reason string) *PayloadError {
	return &PayloadError{Field: field, Reason: reason}
}

// PersistenceError wraps a failed write with the path involved
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError creates a new PersistenceError
func NewPersistenceError(path string, err error) *PersistenceError {
	return &PersistenceError{Path: path, Err: err}
}

// InvalidFilenameError is returned for names that do not match the expected pattern
type InvalidFilenameError struct {
	Filename string
	Expected string
}

func (e *InvalidFilenameError) Error() string {
	return fmt.Sprintf("filename '%s' is not allowed (expected %s)", e.Filename, e.Expected)
}

func (e *InvalidFilenameError) Is(target error) bool {
	return target == ErrInvalidFilename
}

// NewInvalidFilenameError creates a new InvalidFilenameError
func NewInvalidFilenameError(filename, expected string) *InvalidFilenameError {
	return &InvalidFilenameError{Filename: filename, Expected: expected}
}

// FileNotFoundError represents a missing persisted file
type FileNotFoundError struct {
	Filename string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file '%s' not found", e.Filename)
}

func (e *FileNotFoundError) Is(target error) bool {
	return target == ErrFileNotFound
}

// NewFileNotFoundError creates a new FileNotFoundError
func NewFileNotFoundError(filename string) *FileNotFoundError {
	return &FileNotFoundError{Filename: filename}
}

// GameError records why a single game could not be completed
type GameError struct {
	Game   int
	Ply    int
	Source string
	Err    error
}

func (e *GameError) Error() string {
	return fmt.Sprintf("game %d failed at ply %d (%s): %v", e.Game, e.Ply, e.Source, e.Err)
}

func (e *GameError) Unwrap() error {
	return e.Err
}

// NewGameError creates a new GameError
func NewGameError(game, ply int, source string, err error) *GameError {
	return &GameError{Game: game, Ply: ply, Source: source, Err: err}
}
