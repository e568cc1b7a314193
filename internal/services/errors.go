// Package services defines the business logic for channel subscriptions and
// summary digests. This file centralizes service-level error values and the
// typed errors that carry per-operation context.
//
// Translation into HTTP status codes is performed at the handler layer;
// Reason gives transports a shared, leak-free description of a failed channel.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbourn/go-channel-digest/internal/domain"
)

var (
	// ErrInvalidChannel is returned when a channel reference cannot be
	// normalized into a canonical id.
	ErrInvalidChannel = domain.ErrInvalidChannel

	// ErrMissingUser is returned when an operation is invoked without a user id.
	ErrMissingUser = errors.New("user id is required")
)

// StorageError reports a ChannelStore failure. It is surfaced to the caller
// as a request-level error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// FetchError reports that reading a channel's messages failed.
type FetchError struct {
	Channel string
	Err     error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Channel, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// SummarizationError reports that the summarizer rejected or failed a text.
type SummarizationError struct {
	Channel string
	Err     error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarize %s: %v", e.Channel, e.Err)
}
func (e *SummarizationError) Unwrap() error { return e.Err }

// storageErr wraps err as a *StorageError unless it already is one.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Reason describes why a channel result failed without exposing upstream
// details. It returns "" for results that did not fail.
func Reason(r domain.ChannelResult) string {
	if r.Status != domain.StatusError {
		return ""
	}
	var (
		fe *FetchError
		se *SummarizationError
	)
	switch {
	case errors.Is(r.Err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(r.Err, context.Canceled):
		return "cancelled"
	case errors.As(r.Err, &fe):
		return "could not read channel messages"
	case errors.As(r.Err, &se):
		return "summarization failed"
	default:
		return "unavailable"
	}
}
