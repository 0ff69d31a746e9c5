/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrClientInit is returned when the object store client cannot be constructed
	ErrClientInit = errors.New("store client initialisation failed")

	// ErrListing is returned when listing objects under a prefix fails
	ErrListing = errors.New("object listing failed")

	// ErrScratch is returned when the local scratch area cannot be cleared or created
	ErrScratch = errors.New("scratch area setup failed")

	// ErrDownload is returned when a single object download fails
	ErrDownload = errors.New("object download failed")

	// ErrParse is returned when a downloaded object cannot be decoded
	ErrParse = errors.New("record parse failed")

	// ErrExport is returned when the output file cannot be written
	ErrExport = errors.New("export failed")

	// ErrNotFound is returned when a stored entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoIndexMap is returned when no index map is registered for a type
	ErrNoIndexMap = errors.New("no index map found for type")
)

// Stage names used by StageError
const (
	StageClient   = "client"
	StageList     = "list"
	StageScratch  = "scratch"
	StageDownload = "download"
	StageParse    = "parse"
	StageExport   = "export"
)

var stageSentinels = map[string]error{
	StageClient:   ErrClientInit,
	StageList:     ErrListing,
	StageScratch:  ErrScratch,
	StageDownload: ErrDownload,
	StageParse:    ErrParse,
	StageExport:   ErrExport,
}

// StageError reports a failure in one pipeline stage. Key is the object key or local
// path involved, when there is one.
type StageError struct {
	Stage string
	Key   string
	Err   error
}

func (e *StageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q: %v", e.Stage, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	sentinel, ok := stageSentinels[e.Stage]
	return ok && target == sentinel
}

// ParseError points at the file and 1-based line that failed to decode
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

// NewStageError wraps err as a failure of the given stage
func NewStageError(stage, key string, err error) error {
	return &StageError{Stage: stage, Key: key, Err: err}
}

// NewParseError creates a new ParseError
func NewParseError(file string, line int, err error) error {
	return &ParseError{File: file, Line: line, Err: err}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsClientInit checks if an error is a client initialisation error
func IsClientInit(err error) bool {
	return errors.Is(err, ErrClientInit)
}

// IsListing checks if an error is a listing error
func IsListing(err error) bool {
	return errors.Is(err, ErrListing)
}

// IsDownload checks if an error is a download error
func IsDownload(err error) bool {
	return errors.Is(err, ErrDownload)
}

// IsParse checks if an error is a parse error
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
