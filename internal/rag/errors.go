package rag

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for pipeline failure modes that callers branch on.
var (
	// ErrEmptyInput is returned when text submitted for encoding or retrieval
	// is empty or whitespace-only.
	ErrEmptyInput = errors.New("rag: input text is empty")

	// ErrInputTooLong is returned when text exceeds the encoder's input limit.
	// Oversized input is rejected explicitly rather than relying on the hosted
	// model's own truncation.
	ErrInputTooLong = errors.New("rag: input text exceeds encoder limit")

	// ErrStoreNotReady is returned when a query reaches a vector store that
	// has not been ingested yet (e.g. the landing bot's on-disk document
	// store before its first document load).
	ErrStoreNotReady = errors.New("rag: vector store has not been ingested")
)

// Class is a stable failure classification surfaced to the HTTP boundary.
type Class string

const (
	// ClassEncoding covers invalid input text (empty, oversized).
	ClassEncoding Class = "encoding_error"
	// ClassStore covers vector store connectivity and service failures.
	ClassStore Class = "store_error"
	// ClassStoreUnavailable covers a store that exists but is not ready.
	ClassStoreUnavailable Class = "store_unavailable"
	// ClassGeneration covers LLM transport and service failures.
	ClassGeneration Class = "generation_error"
	// ClassConfig covers missing credentials or identifiers at startup.
	ClassConfig Class = "configuration_error"
	// ClassInternal is the fallback for unclassified failures.
	ClassInternal Class = "internal_error"
)

// classifiedError attaches a Class to an underlying error while preserving
// the wrapped chain for errors.Is / errors.As.
type classifiedError struct {
	class Class
	err   error
}

func (e *classifiedError) Error() string { return fmt.Sprintf("%s: %s", e.class, e.err) }
func (e *classifiedError) Unwrap() error { return e.err }

// WithClass wraps err with the given failure class. Returns nil if err is nil.
func WithClass(class Class, err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: class, err: err}
}

// ClassOf returns the failure class of err, walking the wrap chain. The
// encoding and readiness sentinels classify themselves so callers that wrap
// with plain fmt.Errorf still get the right class.
func ClassOf(err error) Class {
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.class
	}
	switch {
	case errors.Is(err, ErrEmptyInput), errors.Is(err, ErrInputTooLong):
		return ClassEncoding
	case errors.Is(err, ErrStoreNotReady):
		return ClassStoreUnavailable
	}
	return ClassInternal
}

// HTTPStatus maps a failure class to the HTTP status code the request-handling
// surface should return. Failures are never converted into an empty answer.
func HTTPStatus(class Class) int {
	switch class {
	case ClassEncoding:
		return http.StatusBadRequest
	case ClassStoreUnavailable:
		return http.StatusServiceUnavailable
	case ClassStore, ClassGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
