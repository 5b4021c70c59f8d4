package errors

import "fmt"

// Caller input errors

type ErrValidation struct {
	Msg string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Msg)
}

// ErrConfigMissing indicates no credential record has been saved yet.
type ErrConfigMissing struct{}

func (e *ErrConfigMissing) Error() string {
	return "API configuration not found, save credentials first"
}

// Upstream (vendor) errors

type ErrUpstreamAuth struct {
	Subject string // "developer" or a vehicle token id
	Err     error
}

func (e *ErrUpstreamAuth) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed for %s: %v", e.Subject, e.Err)
	}
	return fmt.Sprintf("authentication failed for %s", e.Subject)
}

func (e *ErrUpstreamAuth) Unwrap() error {
	return e.Err
}

type ErrUpstreamQuery struct {
	Operation string
	Err       error
}

func (e *ErrUpstreamQuery) Error() string {
	return fmt.Sprintf("vendor query %s failed: %v", e.Operation, e.Err)
}

func (e *ErrUpstreamQuery) Unwrap() error {
	return e.Err
}

// Not-found errors

type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// Storage errors

type ErrFileRead struct {
	Path string
	Err  error
}

func (e *ErrFileRead) Error() string {
	return fmt.Sprintf("failed to read file %s: %v", e.Path, e.Err)
}

func (e *ErrFileRead) Unwrap() error {
	return e.Err
}

type ErrFileWrite struct {
	Path string
	Err  error
}

func (e *ErrFileWrite) Error() string {
	return fmt.Sprintf("failed to write file %s: %v", e.Path, e.Err)
}

func (e *ErrFileWrite) Unwrap() error {
	return e.Err
}

// Config file errors

type ErrConfigNotFound struct {
	Path string
}

func (e *ErrConfigNotFound) Error() string {
	return fmt.Sprintf("config file not found: %s", e.Path)
}

type ErrConfigParse struct {
	Err error
}

func (e *ErrConfigParse) Error() string {
	return fmt.Sprintf("failed to parse YAML: %v", e.Err)
}

func (e *ErrConfigParse) Unwrap() error {
	return e.Err
}

type ErrConfigValidation struct {
	Err error
}

func (e *ErrConfigValidation) Error() string {
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ErrConfigValidation) Unwrap() error {
	return e.Err
}

// Server errors

type ErrServerStart struct {
	Addr string
	Err  error
}

func (e *ErrServerStart) Error() string {
	return fmt.Sprintf("failed to start server on %s: %v", e.Addr, e.Err)
}

func (e *ErrServerStart) Unwrap() error {
	return e.Err
}

type ErrServerShutdown struct {
	Err error
}

func (e *ErrServerShutdown) Error() string {
	return fmt.Sprintf("server shutdown failed: %v", e.Err)
}

func (e *ErrServerShutdown) Unwrap() error {
	return e.Err
}
